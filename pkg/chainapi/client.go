// Package chainapi is a thin typed client for the Helium chain API.
//
// Every response of interest is wrapped in a `data` envelope; the
// client unwraps it and hands back just the fields the collectors
// need. Non-200 responses and transport errors come back as plain
// errors for the caller to log and skip; nothing here retries.
package chainapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultRequestTimeout = 30 * time.Second

// Client queries a chain API endpoint such as https://api.helium.io/v1.
type Client struct {
	baseURL string
	http    *http.Client
}

// Option mutates the client during construction.
type Option func(c *Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		c.http = h
	}
}

// New builds a client for the API rooted at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: defaultRequestTimeout},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Validator is the subset of `/validators/{address}` that we consume.
type Validator struct {
	Owner string `json:"owner"`
}

// Account is the subset of `/accounts/{address}` that we consume.
// Balance is in bones (1e-8 HNT).
type Account struct {
	Balance float64 `json:"balance"`
}

// Height returns the current global chain height from `/blocks/height`.
func (c *Client) Height(ctx context.Context) (uint64, error) {
	var body struct {
		Data struct {
			Height uint64 `json:"height"`
		} `json:"data"`
	}

	if err := c.get(ctx, "/blocks/height", &body); err != nil {
		return 0, err
	}

	return body.Data.Height, nil
}

// StakedValidators returns the staked validator count from
// `/validators/stats`.
func (c *Client) StakedValidators(ctx context.Context) (uint64, error) {
	var body struct {
		Data struct {
			Staked struct {
				Count uint64 `json:"count"`
			} `json:"staked"`
		} `json:"data"`
	}

	if err := c.get(ctx, "/validators/stats", &body); err != nil {
		return 0, err
	}

	return body.Data.Staked.Count, nil
}

// Validator looks up a validator by its address.
func (c *Client) Validator(ctx context.Context, address string) (*Validator, error) {
	var body struct {
		Data Validator `json:"data"`
	}

	if err := c.get(ctx, "/validators/"+url.PathEscape(address), &body); err != nil {
		return nil, err
	}

	if body.Data.Owner == "" {
		return nil, fmt.Errorf("validator '%s': no owner in response", address)
	}

	return &body.Data, nil
}

// Account looks up an account by its address.
func (c *Client) Account(ctx context.Context, address string) (*Account, error) {
	var body struct {
		Data Account `json:"data"`
	}

	if err := c.get(ctx, "/accounts/"+url.PathEscape(address), &body); err != nil {
		return nil, err
	}

	return &body.Data, nil
}

func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(
		ctx, http.MethodGet, c.baseURL+path, nil,
	)
	if err != nil {
		return fmt.Errorf("new request '%s': %w", path, err)
	}

	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("get '%s': %w", path, err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		io.Copy(io.Discard, res.Body)
		return fmt.Errorf("get '%s': bad status code %d", path, res.StatusCode)
	}

	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("decode '%s': %w", path, err)
	}

	return nil
}
