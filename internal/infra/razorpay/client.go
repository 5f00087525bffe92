package razorpay

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"getpay-backend/internal/domain/billing"
	"getpay-backend/internal/pkg/logger"

	rzp "github.com/razorpay/razorpay-go"
)

// orderAPI is the slice of the SDK the gateway uses.
type orderAPI interface {
	Create(data map[string]interface{}, extraHeaders map[string]string) (map[string]interface{}, error)
	Fetch(orderID string, queryParams map[string]interface{}, extraHeaders map[string]string) (map[string]interface{}, error)
}

// Gateway creates and reads back Razorpay orders. Amounts are in paise.
type Gateway struct {
	keyID  string
	orders orderAPI
}

func NewGateway(keyID, keySecret string) *Gateway {
	client := rzp.NewClient(keyID, keySecret)
	return &Gateway{keyID: keyID, orders: client.Order}
}

func (g *Gateway) Provider() string { return billing.ProviderRazorpay }

func (g *Gateway) CreateOrder(ctx context.Context, req billing.OrderRequest) (*billing.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	currency := strings.ToUpper(req.Currency)
	data := map[string]interface{}{
		"amount":   req.Amount * 100,
		"currency": currency,
		"receipt":  req.Receipt,
		"notes": map[string]interface{}{
			billing.NoteAssignmentID: fmt.Sprint(req.AssignmentID),
			billing.NoteStudentID:    fmt.Sprint(req.StudentID),
		},
	}

	body, err := g.orders.Create(data, nil)
	if err != nil {
		logger.Error().Err(err).Uint("assignment_id", req.AssignmentID).Msg("razorpay order creation failed")
		return nil, fmt.Errorf("%w: %v", billing.ErrGatewayUnavailable, err)
	}

	id, _ := body["id"].(string)
	if id == "" {
		return nil, fmt.Errorf("%w: order response without id", billing.ErrGatewayUnavailable)
	}

	amount := req.Amount * 100
	if v, ok := toInt64(body["amount"]); ok {
		amount = v
	}
	if c, ok := body["currency"].(string); ok && c != "" {
		currency = c
	}

	return &billing.Order{
		Provider:    billing.ProviderRazorpay,
		OrderID:     id,
		AmountMinor: amount,
		Currency:    currency,
		PublicKey:   g.keyID,
	}, nil
}

// FetchOrder reads an order as Razorpay recorded it at creation.
func (g *Gateway) FetchOrder(ctx context.Context, orderID string) (*billing.OrderDetails, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	body, err := g.orders.Fetch(orderID, nil, nil)
	if err != nil {
		logger.Error().Err(err).Str("order_id", orderID).Msg("razorpay order fetch failed")
		return nil, fmt.Errorf("%w: %v", billing.ErrGatewayUnavailable, err)
	}

	id, _ := body["id"].(string)
	amount, ok := toInt64(body["amount"])
	if id == "" || !ok {
		return nil, fmt.Errorf("%w: malformed order %s", billing.ErrGatewayUnavailable, orderID)
	}

	out := &billing.OrderDetails{OrderID: id, AmountMinor: amount, Notes: map[string]string{}}
	out.Currency, _ = body["currency"].(string)
	out.Receipt, _ = body["receipt"].(string)
	// Razorpay sends notes as an empty array when none were set.
	if notes, ok := body["notes"].(map[string]interface{}); ok {
		for k, v := range notes {
			if str, ok := v.(string); ok {
				out.Notes[k] = str
			}
		}
	}
	return out, nil
}

func toInt64(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case float64:
		return int64(n), true
	case int64:
		return n, true
	case int:
		return int64(n), true
	case json.Number:
		i, err := n.Int64()
		return i, err == nil
	}
	return 0, false
}
