package scheduler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aretw0/pitstop/pkg/domain"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// DefaultTimeout bounds every request made by a Client.
const DefaultTimeout = 10 * time.Second

// StatusError is returned when the API answers with a non-2xx status.
type StatusError struct {
	Op      string
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: status code %d: %s", e.Op, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: status code %d", e.Op, e.Code)
}

// ErrMalformed is returned when a 2xx answer cannot be understood.
var ErrMalformed = errors.New("malformed response")

// Client implements ports.SchedulingBackend and ports.PaymentLedger over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(cl *Client) {
		cl.http = c
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(cl *Client) {
		cl.http.Timeout = d
	}
}

// NewClient creates a client for the API rooted at baseURL.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout:   DefaultTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ListSlots calls GET /scheduler/get_slots.
func (c *Client) ListSlots(ctx context.Context) ([]string, error) {
	var body SlotsResponse
	if err := c.do(ctx, "list slots", http.MethodGet, PathSlots, nil, &body); err != nil {
		return nil, err
	}
	if body.Slots == nil {
		return nil, fmt.Errorf("list slots: %w: missing slots", ErrMalformed)
	}
	return body.Slots, nil
}

// Book calls POST /scheduler/book_slot.
func (c *Client) Book(ctx context.Context, vehicleID, slot string) (domain.Booking, error) {
	var booking domain.Booking
	if err := c.do(ctx, "book slot", http.MethodPost, PathBook, BookRequest{VehicleID: vehicleID, Slot: slot}, &booking); err != nil {
		return domain.Booking{}, err
	}
	if booking.Status == "" {
		return domain.Booking{}, fmt.Errorf("book slot: %w: missing status", ErrMalformed)
	}
	return booking, nil
}

// PaymentHistory calls GET /customer/get_payment_history/{customer_id} and
// returns the raw answer.
func (c *Client) PaymentHistory(ctx context.Context, customerID string) (string, error) {
	var raw json.RawMessage
	path := strings.Replace(PathPaymentHistory, "{customer_id}", url.PathEscape(customerID), 1)
	if err := c.do(ctx, "payment history", http.MethodGet, path, nil, &raw); err != nil {
		return "", err
	}
	return string(raw), nil
}

func (c *Client) do(ctx context.Context, op, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s: failed to marshal request body: %w", op, err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("%s: failed to create request: %w", op, err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s: failed to make request: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e errorResponse
		_ = json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&e)
		return &StatusError{Op: op, Code: resp.StatusCode, Message: e.Error}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: %w: %v", op, ErrMalformed, err)
	}
	return nil
}
