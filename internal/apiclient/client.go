// Package apiclient is a small HTTP client for the Travel Companion API.
// Error responses are decoded into *Error, which matches the domain
// sentinels with errors.Is.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pkordes/travel-companion/internal/domain"
	"github.com/pkordes/travel-companion/internal/handler"
)

// DefaultBaseURL is used when New is given an empty base URL.
const DefaultBaseURL = "http://localhost:8080"

// Error is a non-2xx response from the API.
type Error struct {
	Status  int
	Code    string
	Message string
}

func (e *Error) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("api: HTTP %d", e.Status)
	}
	return fmt.Sprintf("api: %s: %s", e.Code, e.Message)
}

// Is maps the response code onto the domain sentinel it was produced from.
func (e *Error) Is(target error) bool {
	switch e.Code {
	case "not_found":
		return target == domain.ErrNotFound
	case "validation_error":
		return target == domain.ErrValidation
	case "duplicate_name":
		return target == domain.ErrDuplicateName
	case "transport_error":
		return target == domain.ErrTransport
	case "persistence_error":
		return target == domain.ErrPersistence
	}
	return false
}

// Client talks to one API server.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New returns a Client for baseURL. Chat turns block until the assistant
// replies, so the HTTP timeout is generous.
func New(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 2 * time.Minute},
	}
}

// ListTrips returns one page of trip summaries. Zero page or limit leaves the
// server default in place.
func (c *Client) ListTrips(ctx context.Context, page, limit int) (handler.TripList, error) {
	q := url.Values{}
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	path := "/trips"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	var out handler.TripList
	err := c.do(ctx, http.MethodGet, path, nil, &out)
	return out, err
}

// CreateTrip creates a trip and returns it with its welcome message.
func (c *Client) CreateTrip(ctx context.Context, name string) (domain.Trip, error) {
	var out domain.Trip
	err := c.do(ctx, http.MethodPost, "/trips", handler.CreateTripRequest{Name: name}, &out)
	return out, err
}

// GetTrip returns the trip with its transcript and itinerary.
func (c *Client) GetTrip(ctx context.Context, name string) (domain.Trip, error) {
	var out domain.Trip
	err := c.do(ctx, http.MethodGet, tripPath(name), nil, &out)
	return out, err
}

// DeleteTrip removes a trip.
func (c *Client) DeleteTrip(ctx context.Context, name string) error {
	return c.do(ctx, http.MethodDelete, tripPath(name), nil, nil)
}

// Send runs a conversational turn and returns it once applied.
func (c *Client) Send(ctx context.Context, name, content string) (domain.Turn, error) {
	var out domain.Turn
	err := c.do(ctx, http.MethodPost, tripPath(name)+"/messages", handler.SendMessageRequest{Content: content}, &out)
	return out, err
}

// Refresh asks the server to rebuild the itinerary from the conversation.
func (c *Client) Refresh(ctx context.Context, name string) (domain.Turn, error) {
	var out domain.Turn
	err := c.do(ctx, http.MethodPost, tripPath(name)+"/itinerary/refresh", nil, &out)
	return out, err
}

// Itinerary returns the itinerary grouped by day.
func (c *Client) Itinerary(ctx context.Context, name string) ([]domain.DayGroup, error) {
	var out []domain.DayGroup
	err := c.do(ctx, http.MethodGet, tripPath(name)+"/itinerary", nil, &out)
	return out, err
}

// DeleteItem removes one itinerary item.
func (c *Client) DeleteItem(ctx context.Context, name string, id uuid.UUID) error {
	return c.do(ctx, http.MethodDelete, tripPath(name)+"/itinerary/"+id.String(), nil, nil)
}

func tripPath(name string) string {
	return "/trips/" + url.PathEscape(name)
}

// do sends body (if any) as JSON and decodes a 2xx response into out (if any).
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("apiclient.Client.do: marshal: %w", err)
		}
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rdr)
	if err != nil {
		return fmt.Errorf("apiclient.Client.do: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("apiclient.Client.do: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return decodeError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("apiclient.Client.do: decode %s %s: %w", method, path, err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	apiErr := &Error{Status: resp.StatusCode}
	var body handler.ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil {
		apiErr.Code = body.Error.Code
		apiErr.Message = body.Error.Message
	}
	return apiErr
}
