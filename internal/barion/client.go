// Package barion is a minimal client for the Barion v2 payment API.
// Authentication is the POSKey carried in every request body; the test
// and production environments differ only in base URL.
package barion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Gateway payment states returned by GetPaymentState.
const (
	StatePrepared  = "Prepared"
	StateStarted   = "Started"
	StateSucceeded = "Succeeded"
	StateFailed    = "Failed"
	StateCanceled  = "Canceled"
	StateExpired   = "Expired"
)

type Client struct {
	BaseURL    string
	POSKey     string
	PayeeEmail string
	HTTP       *http.Client
}

func New(baseURL, posKey, payeeEmail string) *Client {
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		POSKey:     strings.TrimSpace(posKey),
		PayeeEmail: strings.TrimSpace(payeeEmail),
		HTTP:       &http.Client{Timeout: 15 * time.Second},
	}
}

type Item struct {
	Name        string `json:"Name"`
	Description string `json:"Description"`
	Quantity    int    `json:"Quantity"`
	Unit        string `json:"Unit"`
	UnitPrice   int64  `json:"UnitPrice"`
	ItemTotal   int64  `json:"ItemTotal"`
	SKU         string `json:"SKU"`
}

type Transaction struct {
	POSTransactionID string `json:"POSTransactionId"`
	Payee            string `json:"Payee"`
	Total            int64  `json:"Total"`
	Items            []Item `json:"Items"`
}

type apiError struct {
	ErrorCode   string `json:"ErrorCode"`
	Title       string `json:"Title"`
	Description string `json:"Description"`
}

type StartRequest struct {
	PaymentRequestID string
	CallbackURL      string
	RedirectURL      string
	Total            int64
	Items            []Item
}

type startPayload struct {
	POSKey           string        `json:"POSKey"`
	PaymentType      string        `json:"PaymentType"`
	GuestCheckOut    bool          `json:"GuestCheckOut"`
	FundingSources   []string      `json:"FundingSources"`
	PaymentRequestID string        `json:"PaymentRequestId"`
	Locale           string        `json:"Locale"`
	Currency         string        `json:"Currency"`
	CallbackURL      string        `json:"CallbackUrl"`
	RedirectURL      string        `json:"RedirectUrl"`
	Transactions     []Transaction `json:"Transactions"`
}

type StartResult struct {
	PaymentID  string     `json:"PaymentId"`
	GatewayURL string     `json:"GatewayUrl"`
	Errors     []apiError `json:"Errors"`
}

type StateTransaction struct {
	TransactionID string `json:"TransactionId"`
}

type PaymentState struct {
	PaymentID    string             `json:"PaymentId"`
	Status       string             `json:"Status"`
	Transactions []StateTransaction `json:"Transactions"`
	Errors       []apiError         `json:"Errors"`
}

// TransactionID returns the first gateway transaction id, if any.
func (s PaymentState) TransactionID() string {
	if len(s.Transactions) > 0 {
		return s.Transactions[0].TransactionID
	}
	return ""
}

// StartPayment opens an Immediate payment session for one transaction
// and returns the gateway redirect URL the shopper must visit.
func (c *Client) StartPayment(ctx context.Context, req StartRequest) (StartResult, error) {
	payload := startPayload{
		POSKey:           c.POSKey,
		PaymentType:      "Immediate",
		GuestCheckOut:    true,
		FundingSources:   []string{"All"},
		PaymentRequestID: req.PaymentRequestID,
		Locale:           "hu-HU",
		Currency:         "HUF",
		CallbackURL:      req.CallbackURL,
		RedirectURL:      req.RedirectURL,
		Transactions: []Transaction{{
			POSTransactionID: req.PaymentRequestID + "-1",
			Payee:            c.PayeeEmail,
			Total:            req.Total,
			Items:            req.Items,
		}},
	}

	var out StartResult
	if err := c.post(ctx, "/v2/Payment/Start", payload, &out); err != nil {
		return StartResult{}, err
	}
	if len(out.Errors) > 0 {
		return StartResult{}, apiErrorf("Payment/Start", out.Errors)
	}
	return out, nil
}

// GetPaymentState re-queries the authoritative payment state. The
// settlement handler never trusts callback parameters beyond the
// payment id; this call is the source of truth.
func (c *Client) GetPaymentState(ctx context.Context, paymentID string) (PaymentState, error) {
	payload := map[string]string{"POSKey": c.POSKey, "PaymentId": paymentID}

	var out PaymentState
	if err := c.post(ctx, "/v2/Payment/GetPaymentState", payload, &out); err != nil {
		return PaymentState{}, err
	}
	if len(out.Errors) > 0 {
		return PaymentState{}, apiErrorf("Payment/GetPaymentState", out.Errors)
	}
	return out, nil
}

func (c *Client) post(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("barion %s: decode: %w", path, err)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("barion %s: status %d", path, resp.StatusCode)
	}
	return nil
}

func apiErrorf(op string, errs []apiError) error {
	parts := make([]string, 0, len(errs))
	for _, e := range errs {
		parts = append(parts, fmt.Sprintf("%s: %s - %s", e.ErrorCode, e.Title, e.Description))
	}
	return fmt.Errorf("barion %s: %s", op, strings.Join(parts, "; "))
}
