package billing

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"getpay-backend/internal/domain/fees"
	"getpay-backend/internal/pkg/apperrors"
	"getpay-backend/internal/pkg/dberrors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SignatureVerifier checks a gateway callback signature over (orderID, paymentID).
type SignatureVerifier interface {
	Verify(orderID, paymentID, signature string) bool
}

// Dispatcher receives every newly committed settlement. Implementations own
// their failures; nothing they do can undo a settlement.
type Dispatcher interface {
	Dispatch(ctx context.Context, res Result)
}

var ErrPaymentReused = apperrors.Conflict("Gateway payment was already used for another fee")

// errLostRace marks a unique violation on the gateway payment id, meaning a
// concurrent request committed the same callback first.
var errLostRace = errors.New("gateway payment id committed concurrently")

type Settler struct {
	db       *gorm.DB
	verifier SignatureVerifier
	orders   OrderFetcher
	dispatch Dispatcher
	now      func() time.Time
}

// NewSettler wires the settlement flow. orders may be nil when only Settle
// is used; Verify then refuses every callback.
func NewSettler(db *gorm.DB, verifier SignatureVerifier, orders OrderFetcher, dispatch Dispatcher) *Settler {
	return &Settler{
		db:       db,
		verifier: verifier,
		orders:   orders,
		dispatch: dispatch,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

type VerifyInput struct {
	OrderID      string
	PaymentID    string
	Signature    string
	AssignmentID uint
	StudentID    uint
	Amount       int64
}

type SettleInput struct {
	StudentID    uint
	AssignmentID uint
	Amount       int64
	Mode         Mode
	Provider     string
	OrderID      string
	PaymentID    string
	Signature    string
}

type Result struct {
	Payment    Payment
	Assignment fees.FeeAssignment
	// Replayed is set when the gateway payment was already settled for this
	// assignment; no state changed and no side effects were dispatched.
	Replayed bool
}

// Verify authenticates a client-relayed gateway callback and settles it.
// The signature is checked over the ids exactly as received, and the order
// is read back from the gateway so it must have been minted for this
// assignment, student and amount. On any error nothing has been written.
func (s *Settler) Verify(ctx context.Context, in VerifyInput) (*Result, error) {
	if blank(in.OrderID) || blank(in.PaymentID) || blank(in.Signature) || in.AssignmentID == 0 {
		return nil, ErrInvalidCallback
	}

	if !s.verifier.Verify(in.OrderID, in.PaymentID, in.Signature) {
		return nil, ErrVerificationFailed
	}

	if err := s.checkOrder(ctx, in); err != nil {
		return nil, err
	}

	return s.Settle(ctx, SettleInput{
		StudentID:    in.StudentID,
		AssignmentID: in.AssignmentID,
		Amount:       in.Amount,
		Mode:         ModeOnline,
		Provider:     ProviderRazorpay,
		OrderID:      in.OrderID,
		PaymentID:    in.PaymentID,
		Signature:    in.Signature,
	})
}

// Settle records a completed payment and marks the assignment paid in a
// single transaction. The caller must already trust the payment.
func (s *Settler) Settle(ctx context.Context, in SettleInput) (*Result, error) {
	var res Result

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if in.PaymentID != "" {
			replayed, err := s.loadReplay(tx, in, &res)
			if err != nil || replayed {
				return err
			}
		}

		var a fees.FeeAssignment
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&a, in.AssignmentID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrAssignmentNotFound
			}
			return err
		}
		if a.StudentID != in.StudentID {
			return ErrAssignmentNotFound
		}
		if !a.Status.Payable() {
			return ErrAlreadySettled
		}

		var fee fees.Fee
		if err := tx.First(&fee, a.FeeID).Error; err != nil {
			return err
		}
		if in.Amount != fee.Amount {
			return ErrAmountMismatch
		}

		now := s.now()
		p := Payment{
			StudentID:        a.StudentID,
			AssignmentID:     a.ID,
			Amount:           fee.Amount,
			Mode:             in.Mode,
			Status:           StatusCompleted,
			Provider:         in.Provider,
			GatewayOrderID:   optional(in.OrderID),
			GatewayPaymentID: optional(in.PaymentID),
			GatewaySignature: optional(in.Signature),
			PaidAt:           &now,
		}
		if err := tx.Create(&p).Error; err != nil {
			if dberrors.IsUniqueViolation(err) {
				return errLostRace
			}
			return err
		}

		upd := tx.Model(&fees.FeeAssignment{}).
			Where("id = ? AND status IN ?", a.ID, []fees.Status{fees.StatusPending, fees.StatusOverdue}).
			Update("status", fees.StatusPaid)
		if upd.Error != nil {
			return upd.Error
		}
		if upd.RowsAffected == 0 {
			return ErrAlreadySettled
		}

		a.Status = fees.StatusPaid
		a.Fee = &fee
		res = Result{Payment: p, Assignment: a}
		return nil
	})

	switch {
	case errors.Is(err, errLostRace):
		return s.afterLostRace(ctx, in)
	case err != nil && isSettlementError(err):
		return nil, err
	case err != nil:
		return nil, fmt.Errorf("settle assignment %d: %w", in.AssignmentID, err)
	}

	if !res.Replayed && s.dispatch != nil {
		s.dispatch.Dispatch(ctx, res)
	}
	return &res, nil
}

// checkOrder binds the signed order to the settlement target. The amount
// compared is the gateway's, so a client cannot relay a cheaper order.
func (s *Settler) checkOrder(ctx context.Context, in VerifyInput) error {
	if s.orders == nil {
		return ErrVerificationFailed
	}
	order, err := s.orders.FetchOrder(ctx, in.OrderID)
	if err != nil {
		return err
	}
	if order.OrderID != in.OrderID ||
		order.Receipt != ReceiptRef(in.AssignmentID) ||
		order.Notes[NoteAssignmentID] != strconv.FormatUint(uint64(in.AssignmentID), 10) ||
		order.Notes[NoteStudentID] != strconv.FormatUint(uint64(in.StudentID), 10) {
		return ErrVerificationFailed
	}
	if order.AmountMinor != in.Amount*100 {
		return ErrAmountMismatch
	}
	return nil
}

func (s *Settler) loadReplay(tx *gorm.DB, in SettleInput, res *Result) (bool, error) {
	var existing Payment
	found := tx.Where("gateway_payment_id = ?", in.PaymentID).Limit(1).Find(&existing)
	if found.Error != nil {
		return false, found.Error
	}
	if found.RowsAffected == 0 {
		return false, nil
	}
	if existing.AssignmentID != in.AssignmentID || existing.StudentID != in.StudentID {
		return false, ErrPaymentReused
	}

	var a fees.FeeAssignment
	if err := tx.Preload("Fee").First(&a, existing.AssignmentID).Error; err != nil {
		return false, err
	}
	*res = Result{Payment: existing, Assignment: a, Replayed: true}
	return true, nil
}

func (s *Settler) afterLostRace(ctx context.Context, in SettleInput) (*Result, error) {
	var res Result
	replayed, err := s.loadReplay(s.db.WithContext(ctx), in, &res)
	if err != nil {
		if isSettlementError(err) {
			return nil, err
		}
		return nil, fmt.Errorf("reload settled payment: %w", err)
	}
	if !replayed {
		return nil, ErrAlreadySettled
	}
	return &res, nil
}

func isSettlementError(err error) bool {
	for _, target := range []error{
		ErrVerificationFailed, ErrInvalidCallback, ErrAssignmentNotFound,
		ErrAmountMismatch, ErrAlreadySettled, ErrPaymentReused,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func blank(s string) bool { return strings.TrimSpace(s) == "" }

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
