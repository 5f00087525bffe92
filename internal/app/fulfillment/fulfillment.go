package fulfillment

import (
	"context"
	"fmt"
	"html"
	"sync"
	"time"

	"getpay-backend/internal/domain/billing"
	"getpay-backend/internal/domain/fees"
	"getpay-backend/internal/domain/notifications"
	"getpay-backend/internal/domain/receipts"
	"getpay-backend/internal/domain/students"
	"getpay-backend/internal/infra/mail"
	"getpay-backend/internal/infra/pdf"
	"getpay-backend/internal/infra/storage"
	"getpay-backend/internal/pkg/apperrors"
	"getpay-backend/internal/pkg/logger"

	"gorm.io/gorm"
)

var ErrReceiptUnavailable = apperrors.NotFound("Receipt is only available for completed payments")

type Options struct {
	Currency string
	// Sync runs side effects on the caller's goroutine.
	Sync bool
}

// Service runs the post-settlement side effects: receipt artifact, receipt
// email and in-app notification. Nothing here can fail a settlement.
type Service struct {
	db     *gorm.DB
	store  storage.Store
	mailer mail.Mailer
	opts   Options
	wg     sync.WaitGroup
}

func New(db *gorm.DB, store storage.Store, mailer mail.Mailer, opts Options) *Service {
	if opts.Currency == "" {
		opts.Currency = "INR"
	}
	return &Service{db: db, store: store, mailer: mailer, opts: opts}
}

func (s *Service) Dispatch(ctx context.Context, res billing.Result) {
	if s.opts.Sync {
		s.run(ctx, res)
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.run(context.WithoutCancel(ctx), res)
	}()
}

// Wait blocks until in-flight async dispatches finish.
func (s *Service) Wait() { s.wg.Wait() }

func (s *Service) run(ctx context.Context, res billing.Result) {
	log := logger.With("payment_id", res.Payment.ID)
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("fulfillment panicked")
		}
	}()

	student, err := students.FindByID(s.db.WithContext(ctx), res.Payment.StudentID)
	if err != nil {
		log.Error().Err(err).Msg("fulfillment: load student")
		return
	}
	fee := res.Assignment.Fee
	if fee == nil {
		var f fees.Fee
		if err := s.db.WithContext(ctx).First(&f, res.Assignment.FeeID).Error; err != nil {
			log.Error().Err(err).Msg("fulfillment: load fee")
			return
		}
		fee = &f
	}

	rcpt, pdfBytes, err := s.writeReceipt(ctx, &res.Payment, &res.Assignment, fee, student)
	if err != nil {
		log.Error().Err(err).Msg("fulfillment: receipt not generated")
	}

	if err := s.sendReceiptEmail(ctx, student, fee, &res.Payment, rcpt, pdfBytes); err != nil {
		log.Error().Err(err).Str("to", student.Email).Msg("fulfillment: receipt email failed")
	}

	paymentID, assignmentID := res.Payment.ID, res.Assignment.ID
	n := notifications.Notification{
		StudentID:    student.ID,
		Title:        "Payment Successful",
		Message:      fmt.Sprintf("Your payment of %s for %s was received.", pdf.FormatAmount(fee.Amount, s.opts.Currency), fee.Title),
		Type:         notifications.TypeSuccess,
		PaymentID:    &paymentID,
		AssignmentID: &assignmentID,
	}
	if err := notifications.Create(s.db.WithContext(ctx), &n); err != nil {
		log.Error().Err(err).Msg("fulfillment: notification not created")
	}

	log.Info().Uint("assignment_id", assignmentID).Msg("payment fulfilled")
}

func (s *Service) writeReceipt(ctx context.Context, p *billing.Payment, a *fees.FeeAssignment, fee *fees.Fee, st *students.Student) (*receipts.Receipt, []byte, error) {
	paidAt := p.CreatedAt
	if p.PaidAt != nil {
		paidAt = *p.PaidAt
	}

	data := pdf.ReceiptData{
		ReceiptNo:      fmt.Sprintf("RCPT-%06d", p.ID),
		StudentName:    st.Name,
		RegistrationNo: st.RegistrationNo,
		Email:          st.Email,
		ClassName:      st.ClassName,
		FeeTitle:       fee.Title,
		Category:       string(fee.Category),
		Amount:         p.Amount,
		Currency:       s.opts.Currency,
		DueDate:        a.DueDate,
		PaymentRef:     deref(p.GatewayPaymentID, fmt.Sprintf("PAY-%d", p.ID)),
		OrderRef:       deref(p.GatewayOrderID, ""),
		Mode:           string(p.Mode),
		Status:         p.Status.Label(),
		PaidAt:         paidAt,
	}
	body, err := pdf.RenderReceipt(data)
	if err != nil {
		return nil, nil, err
	}

	name := receipts.FileName(p.ID)
	path, err := s.store.Put(ctx, name, body)
	if err != nil {
		return nil, body, fmt.Errorf("store %s: %w", name, err)
	}

	r := receipts.Receipt{
		StudentID:   st.ID,
		PaymentID:   p.ID,
		FeeTitle:    fee.Title,
		FeeCategory: fee.Category,
		Amount:      p.Amount,
		PaymentDate: paidAt,
		FilePath:    path,
		FileName:    name,
	}
	if err := receipts.Upsert(s.db.WithContext(ctx), &r); err != nil {
		return nil, body, fmt.Errorf("save receipt row: %w", err)
	}
	r.DownloadURL = receipts.DownloadPath(p.ID)
	return &r, body, nil
}

func (s *Service) sendReceiptEmail(ctx context.Context, st *students.Student, fee *fees.Fee, p *billing.Payment, r *receipts.Receipt, body []byte) error {
	amount := pdf.FormatAmount(p.Amount, s.opts.Currency)
	msg := mail.Message{
		To:      st.Email,
		ToName:  st.Name,
		Subject: "Payment receipt - " + fee.Title,
		Text: fmt.Sprintf("Hello %s,\n\nWe received your payment of %s for %s.\nYour receipt is attached.\n",
			st.Name, amount, fee.Title),
		HTML: fmt.Sprintf(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
<h2 style="color: #333;">Payment received</h2>
<p>Hello %s,</p>
<p>We received your payment of <strong>%s</strong> for <strong>%s</strong>.</p>
<p>Your receipt is attached to this email.</p>
</div>`, html.EscapeString(st.Name), html.EscapeString(amount), html.EscapeString(fee.Title)),
	}
	if r != nil && len(body) > 0 {
		msg.Attachments = []mail.Attachment{{Filename: r.FileName, ContentType: "application/pdf", Data: body}}
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	return s.mailer.Send(ctx, msg)
}

// EnsureReceipt returns the receipt of a completed payment, rendering and
// storing it again if the row or the file is missing.
func (s *Service) EnsureReceipt(ctx context.Context, paymentID uint) (*receipts.Receipt, error) {
	db := s.db.WithContext(ctx)

	r, err := receipts.FindByPayment(db, paymentID)
	if err == nil && s.store.Exists(ctx, r.FileName) {
		return r, nil
	}

	p, err := billing.FindPayment(db, paymentID)
	if err != nil {
		return nil, err
	}
	if p.Status != billing.StatusCompleted {
		return nil, ErrReceiptUnavailable
	}
	if p.Assignment == nil || p.Assignment.Fee == nil || p.Student == nil {
		return nil, fmt.Errorf("payment %d: incomplete associations", paymentID)
	}

	r, _, err = s.writeReceipt(ctx, p, p.Assignment, p.Assignment.Fee, p.Student)
	if err != nil {
		return nil, err
	}
	logger.Info().Uint("payment_id", paymentID).Msg("receipt regenerated")
	return r, nil
}

func deref(s *string, fallback string) string {
	if s == nil || *s == "" {
		return fallback
	}
	return *s
}
