package stripe

import (
	"context"
	"errors"
	"testing"

	"getpay-backend/internal/domain/billing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	stripeapi "github.com/stripe/stripe-go/v75"
)

func TestCreateOrderStampsMetadata(t *testing.T) {
	var got *stripeapi.PaymentIntentParams
	g := &Gateway{publishableKey: "pk_test", create: func(p *stripeapi.PaymentIntentParams) (*stripeapi.PaymentIntent, error) {
		got = p
		return &stripeapi.PaymentIntent{ID: "pi_1", Amount: *p.Amount, Currency: "inr", ClientSecret: "pi_1_secret"}, nil
	}}

	order, err := g.CreateOrder(context.Background(), billing.OrderRequest{
		AssignmentID: 9, StudentID: 4, Amount: 1500, Currency: "INR", Receipt: "rcpt_9",
	})
	require.NoError(t, err)

	assert.Equal(t, int64(150000), *got.Amount)
	assert.Equal(t, "inr", *got.Currency)
	assert.Equal(t, "9", got.Metadata[MetaAssignmentID])
	assert.Equal(t, "4", got.Metadata[MetaStudentID])

	assert.Equal(t, "pi_1", order.OrderID)
	assert.Equal(t, "INR", order.Currency)
	assert.Equal(t, "pi_1_secret", order.ClientSecret)
	assert.Equal(t, billing.ProviderStripe, order.Provider)
}

func TestCreateOrderFailureIsUpstream(t *testing.T) {
	g := &Gateway{create: func(*stripeapi.PaymentIntentParams) (*stripeapi.PaymentIntent, error) {
		return nil, errors.New("boom")
	}}
	_, err := g.CreateOrder(context.Background(), billing.OrderRequest{Amount: 1, Currency: "INR"})
	assert.ErrorIs(t, err, billing.ErrGatewayUnavailable)
}

func TestIntentRefs(t *testing.T) {
	a, s, err := IntentRefs(&stripeapi.PaymentIntent{ID: "pi", Metadata: map[string]string{
		MetaAssignmentID: "12", MetaStudentID: "5",
	}})
	require.NoError(t, err)
	assert.Equal(t, uint(12), a)
	assert.Equal(t, uint(5), s)

	_, _, err = IntentRefs(&stripeapi.PaymentIntent{ID: "pi", Metadata: map[string]string{MetaAssignmentID: "x"}})
	assert.Error(t, err)
}

func TestNormalizeIntentStatus(t *testing.T) {
	assert.Equal(t, billing.StatusCompleted, NormalizeIntentStatus(stripeapi.PaymentIntentStatusSucceeded))
	assert.Equal(t, billing.StatusFailed, NormalizeIntentStatus(stripeapi.PaymentIntentStatusCanceled))
	assert.Equal(t, billing.StatusPending, NormalizeIntentStatus(stripeapi.PaymentIntentStatusProcessing))
}
