// Package rest drives the restaurant service through its JSON API.
package rest

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

	"restaurant-loadgen/internal/restaurant"
	"restaurant-loadgen/internal/target"
)

// UpdateShape selects how the update-menu body is laid out.
type UpdateShape string

const (
	// ShapeNested sends {"menu":{"items":[...]}}.
	ShapeNested UpdateShape = "nested"
	// ShapeBare sends {"items":[...]}.
	ShapeBare UpdateShape = "bare"
)

// ParseUpdateShape validates a configured shape name.
func ParseUpdateShape(s string) (UpdateShape, error) {
	switch UpdateShape(strings.ToLower(s)) {
	case ShapeNested:
		return ShapeNested, nil
	case ShapeBare:
		return ShapeBare, nil
	}
	return "", fmt.Errorf("unknown update shape %q (want nested or bare)", s)
}

const restaurantsPath = "/api/v1/restaurants"

// maxErrorBody caps how much of a failed response ends up in an error.
const maxErrorBody = 512

type createRequest struct {
	Restaurant *restaurant.Restaurant `json:"restaurant"`
}

type createResponse struct {
	RestaurantID restaurant.ID `json:"restaurantId"`
}

type getResponse struct {
	Restaurant *restaurant.Restaurant `json:"restaurant"`
}

type nestedMenuRequest struct {
	Menu *restaurant.Menu `json:"menu"`
}

// Client implements target.Target over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
	shape   UpdateShape
}

var (
	_ target.Target    = (*Client)(nil)
	_ target.Inspector = (*Client)(nil)
)

type Option func(*Client)

// WithHTTPClient replaces the default client (used by tests and for custom
// transports).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithUpdateShape(s UpdateShape) Option {
	return func(c *Client) { c.shape = s }
}

// WithTimeout sets the per-request timeout of the default client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// NewClient builds a client for the service rooted at baseURL
// (e.g. http://localhost:8080).
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("base url %q: scheme must be http or https", baseURL)
	}
	c := &Client{
		baseURL: strings.TrimRight(u.String(), "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
		shape:   ShapeNested,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) CreateRestaurant(ctx context.Context, r *restaurant.Restaurant) (restaurant.ID, error) {
	var resp createResponse
	if err := c.do(ctx, target.OpCreate, http.MethodPost, restaurantsPath, createRequest{Restaurant: r}, &resp); err != nil {
		return "", err
	}
	return resp.RestaurantID, nil
}

func (c *Client) UpdateMenu(ctx context.Context, id restaurant.ID, m *restaurant.Menu) error {
	var body any = nestedMenuRequest{Menu: m}
	if c.shape == ShapeBare {
		body = m
	}
	return c.do(ctx, target.OpUpdate, http.MethodPut, restaurantPath(id)+"/menu", body, nil)
}

func (c *Client) DeleteRestaurant(ctx context.Context, id restaurant.ID) error {
	return c.do(ctx, target.OpDelete, http.MethodDelete, restaurantPath(id), nil, nil)
}

func (c *Client) GetRestaurant(ctx context.Context, id restaurant.ID) (*restaurant.Restaurant, error) {
	var resp getResponse
	if err := c.do(ctx, target.OpGet, http.MethodGet, restaurantPath(id), nil, &resp); err != nil {
		return nil, err
	}
	if resp.Restaurant == nil {
		return nil, fmt.Errorf("%s: response carried no restaurant", target.OpGet)
	}
	return resp.Restaurant, nil
}

func restaurantPath(id restaurant.ID) string {
	return restaurantsPath + "/" + url.PathEscape(id.String())
}

func (c *Client) do(ctx context.Context, op, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", op, err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", op, err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &target.StatusError{Op: op, Code: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}
