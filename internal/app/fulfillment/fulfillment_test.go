package fulfillment_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"getpay-backend/internal/app/fulfillment"
	"getpay-backend/internal/domain/billing"
	"getpay-backend/internal/domain/fees"
	"getpay-backend/internal/domain/notifications"
	"getpay-backend/internal/domain/receipts"
	"getpay-backend/internal/domain/students"
	"getpay-backend/internal/infra/mail"
	"getpay-backend/internal/infra/razorpay"
	"getpay-backend/internal/infra/storage"
	"getpay-backend/internal/pkg/testdb"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type captureMailer struct {
	mu   sync.Mutex
	sent []mail.Message
	err  error
}

func (m *captureMailer) Send(_ context.Context, msg mail.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return m.err
}

func settle(t *testing.T, db *gorm.DB, svc *fulfillment.Service) (*billing.Result, students.Student) {
	t.Helper()

	s := students.Student{Name: "Asha Rao", Email: "asha@example.com", RegistrationNo: "REG-1"}
	require.NoError(t, s.SetPassword("pw"))
	require.NoError(t, students.Create(db, &s))

	fee, err := fees.CreateFee(db, fees.CreateFeeInput{
		Title: "Tuition Fee", Amount: 20000, Category: "Tuition", DueDate: time.Now().UTC().AddDate(0, 1, 0),
	})
	require.NoError(t, err)
	a, err := fees.Assign(db, s.ID, fee.ID, time.Time{})
	require.NoError(t, err)

	settler := billing.NewSettler(db, razorpay.NewVerifier("secret"), nil, svc)
	res, err := settler.Settle(context.Background(), billing.SettleInput{
		StudentID: s.ID, AssignmentID: a.ID, Amount: 20000,
		Mode: billing.ModeOnline, Provider: billing.ProviderRazorpay,
		OrderID: "order_A", PaymentID: "pay_B", Signature: razorpay.Sign("secret", "order_A", "pay_B"),
	})
	require.NoError(t, err)
	return res, s
}

func TestDispatchWritesReceiptEmailAndNotification(t *testing.T) {
	db := testdb.New(t)
	store, err := storage.NewLocalStorage(filepath.Join(t.TempDir(), "receipts"))
	require.NoError(t, err)
	mailer := &captureMailer{}
	svc := fulfillment.New(db, store, mailer, fulfillment.Options{Currency: "INR", Sync: true})

	res, s := settle(t, db, svc)

	r, err := receipts.FindByPayment(db, res.Payment.ID)
	require.NoError(t, err)
	assert.Equal(t, receipts.FileName(res.Payment.ID), r.FileName)
	assert.Equal(t, "Tuition Fee", r.FeeTitle)
	assert.True(t, store.Exists(context.Background(), r.FileName))

	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "asha@example.com", mailer.sent[0].To)
	require.Len(t, mailer.sent[0].Attachments, 1)
	assert.Equal(t, "application/pdf", mailer.sent[0].Attachments[0].ContentType)

	list, err := notifications.Latest(db, s.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, notifications.TypeSuccess, list[0].Type)
	require.NotNil(t, list[0].PaymentID)
	assert.Equal(t, res.Payment.ID, *list[0].PaymentID)
}

func TestDispatchSwallowsMailFailure(t *testing.T) {
	db := testdb.New(t)
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	svc := fulfillment.New(db, store, &captureMailer{err: errors.New("smtp down")}, fulfillment.Options{Sync: true})

	res, s := settle(t, db, svc)

	var a fees.FeeAssignment
	require.NoError(t, db.First(&a, res.Assignment.ID).Error)
	assert.Equal(t, fees.StatusPaid, a.Status)

	n, err := notifications.UnreadCount(db, s.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestDispatchAsyncWait(t *testing.T) {
	db := testdb.New(t)
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	mailer := &captureMailer{}
	svc := fulfillment.New(db, store, mailer, fulfillment.Options{})

	res, _ := settle(t, db, svc)
	svc.Wait()

	_, err = receipts.FindByPayment(db, res.Payment.ID)
	assert.NoError(t, err)
}

func TestEnsureReceiptRegeneratesMissingFile(t *testing.T) {
	db := testdb.New(t)
	dir := t.TempDir()
	store, err := storage.NewLocalStorage(dir)
	require.NoError(t, err)
	svc := fulfillment.New(db, store, &captureMailer{}, fulfillment.Options{Sync: true})

	res, _ := settle(t, db, svc)
	name := receipts.FileName(res.Payment.ID)
	require.NoError(t, os.Remove(filepath.Join(dir, name)))
	assert.False(t, store.Exists(context.Background(), name))

	r, err := svc.EnsureReceipt(context.Background(), res.Payment.ID)
	require.NoError(t, err)
	assert.Equal(t, name, r.FileName)
	assert.True(t, store.Exists(context.Background(), name))

	_, err = svc.EnsureReceipt(context.Background(), 9999)
	assert.Error(t, err)
}
