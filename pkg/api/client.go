// Package api implements the REST client for the host application's
// CTB endpoints: purchase-URL retrieval and analytics event recording.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

// CSRFHeader is the anti-forgery header required by the token endpoints.
const CSRFHeader = "X-CSRF-Token"

// ActionModalOpened is the analytics action recorded once per completed
// open attempt.
const ActionModalOpened = "ctb_modal_opened"

// PurchaseURL is the response of both CTB URL endpoints.
type PurchaseURL struct {
	URL string `json:"url"`
}

// EventData is the analytics payload body.
type EventData struct {
	LabelKey string `json:"label_key"`
	CTBID    string `json:"ctb_id"`
	Brand    string `json:"brand"`
	Context  string `json:"context"`
	Page     string `json:"page"`
}

// Event is the analytics event envelope.
type Event struct {
	Action string    `json:"action"`
	Data   EventData `json:"data"`
}

// Client talks to the host application's CTB endpoints.
type Client struct {
	restRoot      string
	eventEndpoint string
	csrfToken     string
	credentials   oauth2.TokenSource
	httpClient    *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithCredentials sets the token source used to authenticate requests.
func WithCredentials(ts oauth2.TokenSource) Option {
	return func(c *Client) {
		c.credentials = ts
	}
}

// WithCSRFToken sets the anti-forgery header value.
func WithCSRFToken(token string) Option {
	return func(c *Client) {
		c.csrfToken = token
	}
}

// NewClient creates a CTB endpoints client.
func NewClient(restRoot, eventEndpoint string, opts ...Option) *Client {
	c := &Client{
		restRoot:      strings.TrimRight(restRoot, "/"),
		eventEndpoint: eventEndpoint,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchCtbURL retrieves a ready-to-use purchase URL. With an empty ctbID it
// calls the bare URL endpoint used by background renewal; with a ctbID it
// calls the per-CTB fallback endpoint.
func (c *Client) FetchCtbURL(ctx context.Context, ctbID string) (string, error) {
	endpoint := c.restRoot + "/ctb/url"
	if ctbID != "" {
		endpoint = c.restRoot + "/ctb/" + url.PathEscape(ctbID)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	if err := c.applyHeaders(req, true); err != nil {
		return "", err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch CTB URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var payload PurchaseURL
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("failed to decode CTB URL response: %w", err)
	}

	if payload.URL == "" {
		return "", fmt.Errorf("CTB URL response missing url")
	}

	return payload.URL, nil
}

// PostEvent records one analytics event. The caller treats failures as
// log-only; nothing is retried.
func (c *Client) PostEvent(ctx context.Context, event Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.eventEndpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	if err := c.applyHeaders(req, false); err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to post event: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	return nil
}

// applyHeaders attaches the credential header on every request, and the
// anti-forgery header only when the endpoint requires it. Only the token
// endpoints do; the event endpoint takes the bare credential.
func (c *Client) applyHeaders(req *http.Request, antiForgery bool) error {
	if antiForgery && c.csrfToken != "" {
		req.Header.Set(CSRFHeader, c.csrfToken)
	}

	if c.credentials != nil {
		tok, err := c.credentials.Token()
		if err != nil {
			return fmt.Errorf("failed to resolve credentials: %w", err)
		}
		tok.SetAuthHeader(req)
	}

	return nil
}

// ModalOpenedEvent builds the single event recorded per open attempt.
func ModalOpenedEvent(ctbID, brand, context, page string) Event {
	return Event{
		Action: ActionModalOpened,
		Data: EventData{
			LabelKey: "ctb_id",
			CTBID:    ctbID,
			Brand:    brand,
			Context:  context,
			Page:     page,
		},
	}
}
