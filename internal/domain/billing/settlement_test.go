package billing_test

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"testing"
	"time"

	"getpay-backend/internal/domain/billing"
	"getpay-backend/internal/domain/fees"
	"getpay-backend/internal/domain/students"
	"getpay-backend/internal/infra/razorpay"
	"getpay-backend/internal/pkg/apperrors"
	"getpay-backend/internal/pkg/testdb"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const keySecret = "rzp_test_secret"

type recordingDispatcher struct {
	mu      sync.Mutex
	results []billing.Result
}

func (d *recordingDispatcher) Dispatch(_ context.Context, res billing.Result) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.results = append(d.results, res)
}

func (d *recordingDispatcher) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.results)
}

// fakeOrders stands in for the gateway's order store.
type fakeOrders struct {
	mu     sync.Mutex
	orders map[string]billing.OrderDetails
}

func (o *fakeOrders) put(order billing.OrderDetails) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.orders[order.OrderID] = order
}

func (o *fakeOrders) FetchOrder(_ context.Context, orderID string) (*billing.OrderDetails, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	order, ok := o.orders[orderID]
	if !ok {
		return nil, fmt.Errorf("%w: order %q does not exist", billing.ErrGatewayUnavailable, orderID)
	}
	return &order, nil
}

type fixture struct {
	db         *gorm.DB
	settler    *billing.Settler
	dispatcher *recordingDispatcher
	orders     *fakeOrders
	student    students.Student
	other      students.Student
	fee        fees.Fee
	assignment fees.FeeAssignment
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testdb.New(t)

	f := &fixture{
		db:         db,
		dispatcher: &recordingDispatcher{},
		orders:     &fakeOrders{orders: map[string]billing.OrderDetails{}},
	}
	f.settler = billing.NewSettler(db, razorpay.NewVerifier(keySecret), f.orders, f.dispatcher)

	f.student = students.Student{Name: "Asha Rao", Email: "asha@example.com", RegistrationNo: "REG-1", ClassName: "X-A"}
	require.NoError(t, f.student.SetPassword("pw"))
	require.NoError(t, students.Create(db, &f.student))

	f.other = students.Student{Name: "Ravi", Email: "ravi@example.com", RegistrationNo: "REG-2"}
	require.NoError(t, f.other.SetPassword("pw"))
	require.NoError(t, students.Create(db, &f.other))

	fee, err := fees.CreateFee(db, fees.CreateFeeInput{
		Title: "Tuition Fee", Amount: 20000, Category: "tuition",
		DueDate: time.Now().UTC().AddDate(0, 1, 0),
	})
	require.NoError(t, err)
	f.fee = *fee

	a, err := fees.Assign(db, f.student.ID, f.fee.ID, time.Time{})
	require.NoError(t, err)
	f.assignment = *a
	return f
}

func (f *fixture) verifyInput(orderID, paymentID string) billing.VerifyInput {
	return f.verifyFor(orderID, paymentID, f.assignment.ID, f.student.ID, f.fee.Amount)
}

// verifyFor registers an order minted for the given assignment and returns
// a correctly signed callback for it.
func (f *fixture) verifyFor(orderID, paymentID string, assignmentID, studentID uint, amount int64) billing.VerifyInput {
	f.orders.put(billing.OrderDetails{
		OrderID:     orderID,
		AmountMinor: amount * 100,
		Currency:    "INR",
		Receipt:     billing.ReceiptRef(assignmentID),
		Notes: map[string]string{
			billing.NoteAssignmentID: strconv.FormatUint(uint64(assignmentID), 10),
			billing.NoteStudentID:    strconv.FormatUint(uint64(studentID), 10),
		},
	})
	return billing.VerifyInput{
		OrderID:      orderID,
		PaymentID:    paymentID,
		Signature:    razorpay.Sign(keySecret, orderID, paymentID),
		AssignmentID: assignmentID,
		StudentID:    studentID,
		Amount:       amount,
	}
}

func (f *fixture) assignmentStatus(t *testing.T) fees.Status {
	t.Helper()
	var a fees.FeeAssignment
	require.NoError(t, f.db.First(&a, f.assignment.ID).Error)
	return a.Status
}

func (f *fixture) paymentCount(t *testing.T) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(&billing.Payment{}).Count(&n).Error)
	return n
}

func TestVerifySettlesPayment(t *testing.T) {
	f := newFixture(t)

	res, err := f.settler.Verify(context.Background(), f.verifyInput("order_A", "pay_B"))
	require.NoError(t, err)

	assert.False(t, res.Replayed)
	assert.Equal(t, billing.StatusCompleted, res.Payment.Status)
	assert.Equal(t, "success", res.Payment.Status.Label())
	assert.Equal(t, billing.ModeOnline, res.Payment.Mode)
	assert.Equal(t, billing.ProviderRazorpay, res.Payment.Provider)
	assert.Equal(t, int64(20000), res.Payment.Amount)
	require.NotNil(t, res.Payment.GatewayPaymentID)
	assert.Equal(t, "pay_B", *res.Payment.GatewayPaymentID)
	require.NotNil(t, res.Payment.PaidAt)
	assert.Equal(t, fees.StatusPaid, res.Assignment.Status)
	require.NotNil(t, res.Assignment.Fee)
	assert.Equal(t, "Tuition Fee", res.Assignment.Fee.Title)

	assert.Equal(t, fees.StatusPaid, f.assignmentStatus(t))
	assert.Equal(t, int64(1), f.paymentCount(t))
	assert.Equal(t, 1, f.dispatcher.count())
}

func TestVerifyRejectsTamperedSignature(t *testing.T) {
	f := newFixture(t)
	in := f.verifyInput("order_A", "pay_B")

	for _, i := range []int{0, 1, 31, 32, 63} {
		tampered := []byte(in.Signature)
		if tampered[i] == 'a' {
			tampered[i] = 'b'
		} else {
			tampered[i] = 'a'
		}
		bad := in
		bad.Signature = string(tampered)

		_, err := f.settler.Verify(context.Background(), bad)
		assert.ErrorIs(t, err, billing.ErrVerificationFailed, "byte %d", i)
	}

	assert.Equal(t, fees.StatusPending, f.assignmentStatus(t))
	assert.Equal(t, int64(0), f.paymentCount(t))
	assert.Equal(t, 0, f.dispatcher.count())
}

func TestVerifyRejectsInvalidCallback(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name   string
		mutate func(*billing.VerifyInput)
	}{
		{"missing order id", func(in *billing.VerifyInput) { in.OrderID = " " }},
		{"missing payment id", func(in *billing.VerifyInput) { in.PaymentID = "" }},
		{"missing signature", func(in *billing.VerifyInput) { in.Signature = "" }},
		{"missing assignment", func(in *billing.VerifyInput) { in.AssignmentID = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := f.verifyInput("order_A", "pay_B")
			tt.mutate(&in)
			_, err := f.settler.Verify(context.Background(), in)
			assert.ErrorIs(t, err, billing.ErrInvalidCallback)
			assert.Equal(t, 400, apperrors.Status(err))
		})
	}
	assert.Equal(t, int64(0), f.paymentCount(t))
}

func TestVerifyReplayIsNoop(t *testing.T) {
	f := newFixture(t)
	in := f.verifyInput("order_A", "pay_B")

	first, err := f.settler.Verify(context.Background(), in)
	require.NoError(t, err)

	again, err := f.settler.Verify(context.Background(), in)
	require.NoError(t, err)
	assert.True(t, again.Replayed)
	assert.Equal(t, first.Payment.ID, again.Payment.ID)

	assert.Equal(t, int64(1), f.paymentCount(t))
	assert.Equal(t, 1, f.dispatcher.count())
}

func TestVerifySecondPaymentForPaidAssignment(t *testing.T) {
	f := newFixture(t)

	_, err := f.settler.Verify(context.Background(), f.verifyInput("order_A", "pay_B"))
	require.NoError(t, err)

	_, err = f.settler.Verify(context.Background(), f.verifyInput("order_C", "pay_D"))
	assert.ErrorIs(t, err, billing.ErrAlreadySettled)
	assert.Equal(t, 409, apperrors.Status(err))
	assert.Equal(t, int64(1), f.paymentCount(t))
}

func TestVerifyRejectsReusedGatewayPayment(t *testing.T) {
	f := newFixture(t)

	_, err := f.settler.Verify(context.Background(), f.verifyInput("order_A", "pay_B"))
	require.NoError(t, err)

	second, err := fees.CreateFee(f.db, fees.CreateFeeInput{
		Title: "Hostel", Amount: 20000, Category: "Hostel", DueDate: time.Now().UTC().AddDate(0, 1, 0),
	})
	require.NoError(t, err)
	a2, err := fees.Assign(f.db, f.student.ID, second.ID, time.Time{})
	require.NoError(t, err)

	_, err = f.settler.Settle(context.Background(), billing.SettleInput{
		StudentID:    f.student.ID,
		AssignmentID: a2.ID,
		Amount:       second.Amount,
		Mode:         billing.ModeOnline,
		Provider:     billing.ProviderRazorpay,
		OrderID:      "order_A",
		PaymentID:    "pay_B",
	})
	assert.ErrorIs(t, err, billing.ErrPaymentReused)
}

func TestVerifyAmountMismatchFailsClosed(t *testing.T) {
	f := newFixture(t)
	in := f.verifyInput("order_A", "pay_B")
	in.Amount = 100

	_, err := f.settler.Verify(context.Background(), in)
	assert.ErrorIs(t, err, billing.ErrAmountMismatch)
	assert.Equal(t, fees.StatusPending, f.assignmentStatus(t))
	assert.Equal(t, int64(0), f.paymentCount(t))
}

func TestVerifyUnknownOrForeignAssignment(t *testing.T) {
	f := newFixture(t)

	in := f.verifyFor("order_A", "pay_B", 9999, f.student.ID, f.fee.Amount)
	_, err := f.settler.Verify(context.Background(), in)
	assert.ErrorIs(t, err, billing.ErrAssignmentNotFound)
	assert.Equal(t, 404, apperrors.Status(err))

	in = f.verifyFor("order_C", "pay_D", f.assignment.ID, f.other.ID, f.fee.Amount)
	_, err = f.settler.Verify(context.Background(), in)
	assert.ErrorIs(t, err, billing.ErrAssignmentNotFound)

	assert.Equal(t, fees.StatusPending, f.assignmentStatus(t))
	assert.Equal(t, int64(0), f.paymentCount(t))
}

func TestVerifyRejectsTamperedIds(t *testing.T) {
	f := newFixture(t)
	f.verifyInput("order_A", "pay_B")
	sig := razorpay.Sign(keySecret, "order_A", "pay_B")

	tests := []struct {
		name      string
		orderID   string
		paymentID string
	}{
		{"trailing tab on order", "order_A\t", "pay_B"},
		{"leading space on payment", "order_A", " pay_B"},
		{"other order", "order_Z", "pay_B"},
		{"other payment", "order_A", "pay_Z"},
		{"ids swapped", "pay_B", "order_A"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.settler.Verify(context.Background(), billing.VerifyInput{
				OrderID:      tt.orderID,
				PaymentID:    tt.paymentID,
				Signature:    sig,
				AssignmentID: f.assignment.ID,
				StudentID:    f.student.ID,
				Amount:       f.fee.Amount,
			})
			assert.ErrorIs(t, err, billing.ErrVerificationFailed)
		})
	}

	assert.Equal(t, fees.StatusPending, f.assignmentStatus(t))
	assert.Equal(t, int64(0), f.paymentCount(t))
}

func TestVerifyRejectsOrderForAnotherAssignment(t *testing.T) {
	f := newFixture(t)

	cheap, err := fees.CreateFee(f.db, fees.CreateFeeInput{
		Title: "Library Fine", Amount: 10, Category: "other", DueDate: time.Now().UTC().AddDate(0, 1, 0),
	})
	require.NoError(t, err)
	fine, err := fees.Assign(f.db, f.student.ID, cheap.ID, time.Time{})
	require.NoError(t, err)

	// A real, correctly signed payment for the fine, relayed against tuition.
	in := f.verifyFor("order_cheap", "pay_cheap", fine.ID, f.student.ID, cheap.Amount)
	in.AssignmentID = f.assignment.ID
	in.Amount = f.fee.Amount

	_, err = f.settler.Verify(context.Background(), in)
	assert.ErrorIs(t, err, billing.ErrVerificationFailed)
	assert.Equal(t, 400, apperrors.Status(err))
	assert.Equal(t, fees.StatusPending, f.assignmentStatus(t))
	assert.Equal(t, int64(0), f.paymentCount(t))
	assert.Equal(t, 0, f.dispatcher.count())
}

func TestVerifyRejectsOrderBoundToAnotherStudent(t *testing.T) {
	f := newFixture(t)
	in := f.verifyFor("order_A", "pay_B", f.assignment.ID, f.other.ID, f.fee.Amount)
	in.StudentID = f.student.ID

	_, err := f.settler.Verify(context.Background(), in)
	assert.ErrorIs(t, err, billing.ErrVerificationFailed)
	assert.Equal(t, int64(0), f.paymentCount(t))
}

func TestVerifyOrderAmountMustMatchClaim(t *testing.T) {
	f := newFixture(t)
	in := f.verifyInput("order_A", "pay_B")
	order, err := f.orders.FetchOrder(context.Background(), "order_A")
	require.NoError(t, err)
	order.AmountMinor = 100
	f.orders.put(*order)

	_, err = f.settler.Verify(context.Background(), in)
	assert.ErrorIs(t, err, billing.ErrAmountMismatch)
	assert.Equal(t, fees.StatusPending, f.assignmentStatus(t))
}

func TestVerifyUnknownOrderIsUpstreamError(t *testing.T) {
	f := newFixture(t)
	in := f.verifyInput("order_A", "pay_B")
	in.OrderID = "order_missing"
	in.Signature = razorpay.Sign(keySecret, in.OrderID, in.PaymentID)

	_, err := f.settler.Verify(context.Background(), in)
	assert.ErrorIs(t, err, billing.ErrGatewayUnavailable)
	assert.Equal(t, 502, apperrors.Status(err))
	assert.Equal(t, int64(0), f.paymentCount(t))
}

func TestVerifyWithoutOrderLookupFailsClosed(t *testing.T) {
	f := newFixture(t)
	settler := billing.NewSettler(f.db, razorpay.NewVerifier(keySecret), nil, f.dispatcher)

	_, err := settler.Verify(context.Background(), f.verifyInput("order_A", "pay_B"))
	assert.ErrorIs(t, err, billing.ErrVerificationFailed)
	assert.Equal(t, int64(0), f.paymentCount(t))
}

func TestSettleOverdueAssignment(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.db.Model(&fees.FeeAssignment{}).
		Where("id = ?", f.assignment.ID).
		Update("status", fees.StatusOverdue).Error)

	res, err := f.settler.Settle(context.Background(), billing.SettleInput{
		StudentID:    f.student.ID,
		AssignmentID: f.assignment.ID,
		Amount:       f.fee.Amount,
		Mode:         billing.ModeOffline,
		Provider:     billing.ProviderOffline,
		PaymentID:    "offline_1",
	})
	require.NoError(t, err)
	assert.Equal(t, billing.ModeOffline, res.Payment.Mode)
	assert.Nil(t, res.Payment.GatewayOrderID)
	assert.Equal(t, fees.StatusPaid, f.assignmentStatus(t))
}

func TestStudentHistoryCarriesFee(t *testing.T) {
	f := newFixture(t)
	_, err := f.settler.Verify(context.Background(), f.verifyInput("order_A", "pay_B"))
	require.NoError(t, err)

	history, err := billing.StudentHistory(f.db, f.student.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	require.NotNil(t, history[0].Assignment)
	require.NotNil(t, history[0].Assignment.Fee)
	assert.Equal(t, fees.CategoryTuition, history[0].Assignment.Fee.Category)

	other, err := billing.StudentHistory(f.db, f.other.ID)
	require.NoError(t, err)
	assert.Empty(t, other)
}
