// Package billingo creates invoices through the Billingo v3 documents
// API (X-API-KEY header auth).
package billingo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultBaseURL = "https://api.billingo.hu/v3"

type Client struct {
	BaseURL string
	APIKey  string
	BlockID int
	HTTP    *http.Client
}

func New(apiKey string, blockID int) *Client {
	return &Client{
		BaseURL: defaultBaseURL,
		APIKey:  apiKey,
		BlockID: blockID,
		HTTP:    &http.Client{Timeout: 15 * time.Second},
	}
}

type PartnerAddress struct {
	CountryCode string `json:"country_code"`
	PostCode    string `json:"post_code"`
	City        string `json:"city"`
	Address     string `json:"address"`
}

type Partner struct {
	Name    string         `json:"name"`
	Address PartnerAddress `json:"address"`
	Emails  []string       `json:"emails"`
	Phone   string         `json:"phone,omitempty"`
}

type Item struct {
	Name          string `json:"name"`
	UnitPrice     int64  `json:"unit_price"`
	UnitPriceType string `json:"unit_price_type"`
	Quantity      int    `json:"quantity"`
	Unit          string `json:"unit"`
	VAT           string `json:"vat"`
	Comment       string `json:"comment,omitempty"`
}

type DocumentRequest struct {
	Partner         Partner `json:"partner"`
	BlockID         int     `json:"block_id"`
	Type            string  `json:"type"`
	FulfillmentDate string  `json:"fulfillment_date"`
	DueDate         string  `json:"due_date"`
	PaymentMethod   string  `json:"payment_method"`
	Language        string  `json:"language"`
	Currency        string  `json:"currency"`
	ConversionRate  int     `json:"conversion_rate"`
	Electronic      bool    `json:"electronic"`
	Paid            bool    `json:"paid"`
	Items           []Item  `json:"items"`
	Comment         string  `json:"comment,omitempty"`
}

type Document struct {
	ID            json.Number `json:"id"`
	InvoiceNumber string      `json:"invoice_number"`
	PublicURL     string      `json:"public_url"`
}

// CreateInvoice issues a paid gross invoice for an order. The caller
// fills partner and items; block id, type and locale defaults come from
// the client.
func (c *Client) CreateInvoice(ctx context.Context, partner Partner, items []Item, paymentMethod, comment string) (Document, error) {
	today := time.Now().Format("2006-01-02")
	req := DocumentRequest{
		Partner:         partner,
		BlockID:         c.BlockID,
		Type:            "invoice",
		FulfillmentDate: today,
		DueDate:         today,
		PaymentMethod:   paymentMethod,
		Language:        "hu",
		Currency:        "HUF",
		ConversionRate:  1,
		Electronic:      true,
		Paid:            true,
		Items:           items,
		Comment:         comment,
	}

	body, err := json.Marshal(req)
	if err != nil {
		return Document{}, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/documents", bytes.NewReader(body))
	if err != nil {
		return Document{}, err
	}
	httpReq.Header.Set("X-API-KEY", c.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(httpReq)
	if err != nil {
		return Document{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return Document{}, fmt.Errorf("billingo documents: status %d: %s", resp.StatusCode, msg)
	}

	var doc Document
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return Document{}, fmt.Errorf("billingo documents: decode: %w", err)
	}
	return doc, nil
}
