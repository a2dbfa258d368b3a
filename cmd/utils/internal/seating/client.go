package seating

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

	"github.com/google/uuid"

	"github.com/appetiteclub/appetite/services/seating/internal/tables"
)

const defaultBaseURL = "http://localhost:8080"

// ErrRejected marks a request the engine answered with a normal negative
// result: a policy violation, no capacity or an invalid transition.
var ErrRejected = errors.New("rejected by seating service")

// RejectedError carries the status and body of a rejected request.
type RejectedError struct {
	Status int
	Body   string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("seating service returned %d: %s", e.Status, e.Body)
}

func (e *RejectedError) Is(target error) bool {
	return target == ErrRejected
}

// HTTPClient drives the running seating service, so every commitment goes
// through the ledger it owns.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewHTTPClient(baseURL string) *HTTPClient {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Book posts a booking request with its idempotency key.
func (c *HTTPClient) Book(ctx context.Context, req tables.BookingRequest) (*tables.Reservation, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode booking: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/reservations", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if req.IdempotencyKey != "" {
		httpReq.Header.Set("Idempotency-Key", req.IdempotencyKey)
	}

	var res *tables.Reservation
	if err := c.do(httpReq, http.StatusCreated, &res); err != nil {
		return nil, err
	}
	return res, nil
}

// List returns the reservations of a restaurant on date.
func (c *HTTPClient) List(ctx context.Context, restaurantID uuid.UUID, date string) ([]*tables.Reservation, error) {
	q := url.Values{}
	q.Set("restaurant_id", restaurantID.String())
	q.Set("date", date)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/reservations?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	var list []*tables.Reservation
	if err := c.do(httpReq, http.StatusOK, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (c *HTTPClient) Cancel(ctx context.Context, id uuid.UUID) (*tables.Reservation, error) {
	return c.action(ctx, id, "cancel")
}

func (c *HTTPClient) Complete(ctx context.Context, id uuid.UUID) (*tables.Reservation, error) {
	return c.action(ctx, id, "complete")
}

// Reachable reports whether anything answers at the service address.
func (c *HTTPClient) Reachable(ctx context.Context) bool {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/reservations/"+uuid.Nil.String(), nil)
	if err != nil {
		return false
	}
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return true
}

func (c *HTTPClient) action(ctx context.Context, id uuid.UUID, name string) (*tables.Reservation, error) {
	path := fmt.Sprintf("%s/reservations/%s/%s", c.baseURL, id.String(), name)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	var res *tables.Reservation
	if err := c.do(httpReq, http.StatusOK, &res); err != nil {
		return nil, err
	}
	return res, nil
}

func (c *HTTPClient) do(req *http.Request, want int, data interface{}) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("seating service request failed: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case want:
	case http.StatusConflict, http.StatusUnprocessableEntity:
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &RejectedError{Status: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	default:
		return fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	wrapper := struct {
		Data interface{} `json:"data"`
	}{Data: data}
	if err := json.NewDecoder(resp.Body).Decode(&wrapper); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
