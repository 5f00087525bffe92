package billing

import (
	"context"
	"fmt"

	"getpay-backend/internal/pkg/apperrors"
)

var ErrGatewayUnavailable = apperrors.New(apperrors.ErrUpstream, "Payment gateway unavailable, please retry")

// OrderRequest is what the server asks a gateway to collect. Amount is in
// major units; gateways convert to their own minor unit.
type OrderRequest struct {
	AssignmentID uint
	StudentID    uint
	Amount       int64
	Currency     string
	Receipt      string
	Description  string
	Email        string
}

// Order is the gateway-side handle returned to the client to open checkout.
type Order struct {
	Provider     string
	OrderID      string
	AmountMinor  int64
	Currency     string
	PublicKey    string
	ClientSecret string
}

// Gateway creates a payment order with an external provider.
type Gateway interface {
	Provider() string
	CreateOrder(ctx context.Context, req OrderRequest) (*Order, error)
}

// ReceiptRef is the gateway receipt label for an assignment.
func ReceiptRef(assignmentID uint) string {
	return fmt.Sprintf("rcpt_%d", assignmentID)
}

// OrderDetails is the gateway's own record of an order, as opposed to what
// the client relays back.
type OrderDetails struct {
	OrderID     string
	AmountMinor int64
	Currency    string
	Receipt     string
	Notes       map[string]string
}

// OrderFetcher reads an order back from the gateway that minted it.
type OrderFetcher interface {
	FetchOrder(ctx context.Context, orderID string) (*OrderDetails, error)
}

const (
	NoteAssignmentID = "assignment_id"
	NoteStudentID    = "student_id"
)
