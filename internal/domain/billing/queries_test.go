package billing_test

import (
	"context"
	"testing"
	"time"

	"getpay-backend/internal/domain/billing"
	"getpay-backend/internal/domain/fees"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListPaymentsFilters(t *testing.T) {
	f := newFixture(t)
	_, err := f.settler.Verify(context.Background(), f.verifyInput("order_A", "pay_B"))
	require.NoError(t, err)

	tests := []struct {
		name   string
		filter billing.PaymentFilter
		want   int
	}{
		{"all", billing.PaymentFilter{}, 1},
		{"success alias", billing.PaymentFilter{Status: "success"}, 1},
		{"failed", billing.PaymentFilter{Status: "failed"}, 0},
		{"class", billing.PaymentFilter{ClassName: "X-A"}, 1},
		{"other class", billing.PaymentFilter{ClassName: "IX-B"}, 0},
		{"name search", billing.PaymentFilter{Query: "asha"}, 1},
		{"reg search", billing.PaymentFilter{Query: "reg-1"}, 1},
		{"no match", billing.PaymentFilter{Query: "nobody"}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := billing.ListPayments(f.db, tt.filter)
			require.NoError(t, err)
			assert.Len(t, out, tt.want)
			for _, p := range out {
				require.NotNil(t, p.Student)
				assert.Equal(t, "Asha Rao", p.Student.Name)
			}
		})
	}
}

func TestComputeStats(t *testing.T) {
	f := newFixture(t)

	late, err := fees.CreateFee(f.db, fees.CreateFeeInput{
		Title: "Bus Pass", Amount: 1500, Category: "Transport",
		DueDate: time.Now().UTC().AddDate(0, 0, -3),
	})
	require.NoError(t, err)
	_, err = fees.Assign(f.db, f.other.ID, late.ID, time.Time{})
	require.NoError(t, err)

	_, err = f.settler.Verify(context.Background(), f.verifyInput("order_A", "pay_B"))
	require.NoError(t, err)

	st, err := billing.ComputeStats(f.db, time.Now().UTC())
	require.NoError(t, err)

	assert.Equal(t, int64(20000), st.TotalCollected)
	assert.Equal(t, int64(1), st.CompletedCount)
	assert.Equal(t, int64(1), st.PendingCount)
	assert.Equal(t, int64(1500), st.PendingAmount)
	assert.Equal(t, int64(1), st.Defaulters)
	require.Len(t, st.ByCategory, 1)
	assert.Equal(t, fees.CategoryTuition, st.ByCategory[0].Category)
	assert.Equal(t, int64(20000), st.ByCategory[0].Total)

	require.Len(t, st.DailyCollections, 30)
	var sum int64
	for _, d := range st.DailyCollections {
		sum += d.Total
	}
	assert.Equal(t, int64(20000), sum)
}
