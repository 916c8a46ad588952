package gateway

import (
	"context"
	"fmt"
	"net/http"
	"time"

	paystack "github.com/rpip/paystack-go"
)

// SettlementSuccess is the settlement status the provider reports for a
// transaction that actually charged.
const SettlementSuccess = "success"

// InitializeRequest carries everything the provider needs to start a
// redirect-based charge. Reference doubles as the idempotency key for the
// call.
type InitializeRequest struct {
	AmountMinor int64
	Currency    string
	Email       string
	Reference   string
	CallbackURL string
	Metadata    map[string]interface{}
}

// Authorization is the provider's acceptance of an initialization: the URL
// the payer is redirected to.
type Authorization struct {
	AuthorizationURL string
	AccessCode       string
	Reference        string
}

// Transaction is the provider's view of a charge as returned by Verify.
type Transaction struct {
	Status          string
	Reference       string
	GatewayResponse string
	AmountMinor     int64
}

// Client is the narrow surface the order workflow needs from the payment
// provider.
type Client interface {
	Initialize(ctx context.Context, req InitializeRequest) (*Authorization, error)
	Verify(ctx context.Context, reference string) (*Transaction, error)
}

// RejectedError means the provider answered but refused the request;
// everything else is a transport failure.
type RejectedError struct {
	Reason string
}

func (e *RejectedError) Error() string {
	if e.Reason == "" {
		return "payment gateway rejected the request"
	}
	return e.Reason
}

// Paystack implements Client over the Paystack SDK. Construct one per
// process and inject it; the embedded HTTP client bounds every call with the
// configured timeout.
type Paystack struct {
	client *paystack.Client
}

func NewPaystack(secretKey string, timeout time.Duration) *Paystack {
	httpClient := &http.Client{Timeout: timeout}
	return &Paystack{client: paystack.NewClient(secretKey, httpClient)}
}

func (p *Paystack) Initialize(_ context.Context, req InitializeRequest) (*Authorization, error) {
	txn := &paystack.TransactionRequest{
		Amount:      float32(req.AmountMinor),
		Currency:    req.Currency,
		Email:       req.Email,
		Reference:   req.Reference,
		CallbackURL: req.CallbackURL,
		Metadata:    paystack.Metadata(req.Metadata),
	}

	resp, err := p.client.Transaction.Initialize(txn)
	if err != nil {
		return nil, fmt.Errorf("initialize transaction: %w", err)
	}

	authURL, _ := resp["authorization_url"].(string)
	if authURL == "" {
		reason, _ := resp["message"].(string)
		return nil, &RejectedError{Reason: reason}
	}

	accessCode, _ := resp["access_code"].(string)
	reference, _ := resp["reference"].(string)
	if reference == "" {
		reference = req.Reference
	}

	return &Authorization{
		AuthorizationURL: authURL,
		AccessCode:       accessCode,
		Reference:        reference,
	}, nil
}

func (p *Paystack) Verify(_ context.Context, reference string) (*Transaction, error) {
	txn, err := p.client.Transaction.Verify(reference)
	if err != nil {
		return nil, fmt.Errorf("verify transaction: %w", err)
	}

	return &Transaction{
		Status:          txn.Status,
		Reference:       txn.Reference,
		GatewayResponse: txn.GatewayResponse,
		AmountMinor:     int64(txn.Amount),
	}, nil
}
