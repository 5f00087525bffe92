package stripe

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"getpay-backend/internal/domain/billing"
	"getpay-backend/internal/pkg/logger"

	stripeapi "github.com/stripe/stripe-go/v75"
	"github.com/stripe/stripe-go/v75/paymentintent"
)

const (
	MetaAssignmentID = "assignment_id"
	MetaStudentID    = "student_id"
)

type intentCreator func(params *stripeapi.PaymentIntentParams) (*stripeapi.PaymentIntent, error)

// Gateway opens a PaymentIntent per order. Settlement arrives through the
// signed webhook, never through the client.
type Gateway struct {
	publishableKey string
	create         intentCreator
}

func NewGateway(secretKey, publishableKey string) *Gateway {
	client := paymentintent.Client{B: stripeapi.GetBackend(stripeapi.APIBackend), Key: secretKey}
	return &Gateway{publishableKey: publishableKey, create: client.New}
}

func (g *Gateway) Provider() string { return billing.ProviderStripe }

func (g *Gateway) CreateOrder(ctx context.Context, req billing.OrderRequest) (*billing.Order, error) {
	amount := req.Amount * 100
	params := &stripeapi.PaymentIntentParams{
		Amount:   stripeapi.Int64(amount),
		Currency: stripeapi.String(strings.ToLower(req.Currency)),
		AutomaticPaymentMethods: &stripeapi.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripeapi.Bool(true),
		},
	}
	if req.Description != "" {
		params.Description = stripeapi.String(req.Description)
	}
	if req.Email != "" {
		params.ReceiptEmail = stripeapi.String(req.Email)
	}
	params.Context = ctx
	params.AddMetadata(MetaAssignmentID, strconv.FormatUint(uint64(req.AssignmentID), 10))
	params.AddMetadata(MetaStudentID, strconv.FormatUint(uint64(req.StudentID), 10))
	params.AddMetadata("receipt", req.Receipt)
	params.SetIdempotencyKey(fmt.Sprintf("%s_%d", req.Receipt, amount))

	pi, err := g.create(params)
	if err != nil {
		logger.Error().Err(err).Uint("assignment_id", req.AssignmentID).Msg("stripe payment intent creation failed")
		return nil, fmt.Errorf("%w: %v", billing.ErrGatewayUnavailable, err)
	}

	return &billing.Order{
		Provider:     billing.ProviderStripe,
		OrderID:      pi.ID,
		AmountMinor:  pi.Amount,
		Currency:     strings.ToUpper(string(pi.Currency)),
		PublicKey:    g.publishableKey,
		ClientSecret: pi.ClientSecret,
	}, nil
}

// IntentRefs reads the assignment and student ids stamped on an intent.
func IntentRefs(pi *stripeapi.PaymentIntent) (assignmentID, studentID uint, err error) {
	a, err := strconv.ParseUint(pi.Metadata[MetaAssignmentID], 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("payment intent %s: bad %s metadata", pi.ID, MetaAssignmentID)
	}
	s, err := strconv.ParseUint(pi.Metadata[MetaStudentID], 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("payment intent %s: bad %s metadata", pi.ID, MetaStudentID)
	}
	return uint(a), uint(s), nil
}
