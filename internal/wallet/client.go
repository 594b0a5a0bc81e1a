package wallet

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Logger defines the logging interface used by the wallet package.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Invoice is a freshly created Lightning invoice.
type Invoice struct {
	PaymentHash string
	Bolt11      string
}

// InvoiceRequest describes the invoice to create. The metadata string is
// hashed by the backend into the invoice description hash, as LNURL-pay
// requires. Extra travels with the payment and comes back verbatim on
// the settlement feed.
type InvoiceRequest struct {
	WalletID   string
	AmountMsat int64
	Memo       string
	Metadata   string
	Extra      map[string]any
}

// InvoiceCreator creates Lightning invoices against a wallet backend.
type InvoiceCreator interface {
	CreateInvoice(ctx context.Context, req InvoiceRequest) (*Invoice, error)
}

// Client talks to an LNbits-compatible wallet backend over HTTP.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	logger  Logger
}

// NewClient creates a wallet backend client.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
		logger:  noopLogger{},
	}
}

// SetLogger sets the logger for the client.
func (c *Client) SetLogger(logger Logger) {
	c.logger = logger
}

type createInvoiceBody struct {
	Out                 bool           `json:"out"`
	Amount              int64          `json:"amount"` // sats
	Memo                string         `json:"memo,omitempty"`
	UnhashedDescription string         `json:"unhashed_description,omitempty"` // hex of LNURL metadata
	Extra               map[string]any `json:"extra,omitempty"`
}

type createInvoiceResponse struct {
	PaymentHash    string `json:"payment_hash"`
	PaymentRequest string `json:"payment_request"`
	// Older backends use bolt11 instead of payment_request.
	Bolt11 string `json:"bolt11"`
}

// CreateInvoice creates an incoming invoice. Amounts below one satoshi
// round up; the backend API is satoshi denominated.
func (c *Client) CreateInvoice(ctx context.Context, req InvoiceRequest) (*Invoice, error) {
	body := createInvoiceBody{
		Out:    false,
		Amount: (req.AmountMsat + 999) / 1000,
		Memo:   req.Memo,
		Extra:  req.Extra,
	}
	if req.Metadata != "" {
		body.UnhashedDescription = fmt.Sprintf("%x", req.Metadata)
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("wallet: marshal invoice request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/api/v1/payments", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("wallet: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Api-Key", c.walletKey(req.WalletID))

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: status %d: %s", ErrRejected, resp.StatusCode, bytes.TrimSpace(detail))
	}

	var out createInvoiceResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("wallet: decode invoice response: %w", err)
	}

	bolt11 := out.PaymentRequest
	if bolt11 == "" {
		bolt11 = out.Bolt11
	}
	if out.PaymentHash == "" || bolt11 == "" {
		return nil, fmt.Errorf("%w: incomplete invoice response", ErrRejected)
	}

	c.logger.Debug("invoice created", "payment_hash", out.PaymentHash, "amount_msat", req.AmountMsat)
	return &Invoice{PaymentHash: out.PaymentHash, Bolt11: bolt11}, nil
}

// walletKey selects the API key for a request. A per-switch wallet id
// overrides the deployment key when set.
func (c *Client) walletKey(walletID string) string {
	if walletID != "" {
		return walletID
	}
	return c.apiKey
}
