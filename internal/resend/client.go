// Package resend sends transactional email through the Resend API.
package resend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultBaseURL = "https://api.resend.com"

type Client struct {
	BaseURL string
	APIKey  string
	From    string
	HTTP    *http.Client
}

func New(apiKey, from string) *Client {
	return &Client{
		BaseURL: defaultBaseURL,
		APIKey:  apiKey,
		From:    from,
		HTTP:    &http.Client{Timeout: 15 * time.Second},
	}
}

type email struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

// Send delivers one HTML email. Callers treat failures as loggable,
// never fatal: settlement outcomes must not depend on email delivery.
func (c *Client) Send(ctx context.Context, to, subject, html string) error {
	body, err := json.Marshal(email{From: c.From, To: []string{to}, Subject: subject, HTML: html})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/emails", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("resend: status %d: %s", resp.StatusCode, msg)
	}
	return nil
}
