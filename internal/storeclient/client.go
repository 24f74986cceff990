// Package storeclient talks to the API store subscription resource.
package storeclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/bark-labs/devicemgt/internal/model"
	"github.com/rs/zerolog"
)

const (
	mediaTypeJSON = "application/json"

	// maxErrorBody caps how much of a failed response is kept on HTTPError.
	maxErrorBody = 4 << 10
)

// Client is a thin wrapper over the API store HTTP API.
type Client struct {
	baseURL *url.URL
	token   string
	http    *http.Client
	log     zerolog.Logger
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) {
		c.log = log
	}
}

// New creates an API store client.
func New(rawURL, token string, timeout time.Duration, opts ...Option) (*Client, error) {
	if rawURL == "" {
		return nil, fmt.Errorf("base url is required")
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, err
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("base url must include scheme and host")
	}
	parsed.Path = strings.TrimSuffix(parsed.Path, "/")
	c := &Client{
		baseURL: parsed,
		token:   token,
		http: &http.Client{
			Timeout: timeout,
		},
		log: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// DeleteOptions carries the conditional request validators of
// DeleteSubscription.
type DeleteOptions struct {
	IfMatch           string
	IfUnmodifiedSince string
}

// GetOptions carries content negotiation and conditional request validators
// of GetSubscription.
type GetOptions struct {
	Accept          string
	IfNoneMatch     string
	IfModifiedSince string
}

// CreateSubscription adds a new subscription. A non-empty contentType
// replaces the JSON default of the Content-Type header.
func (c *Client) CreateSubscription(ctx context.Context, body *model.Subscription, contentType string) (*model.Subscription, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.resolve("/subscriptions"), bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	c.decorate(req)
	setHeader(req, "Content-Type", contentType)

	var created model.Subscription
	if err := c.do(req, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// DeleteSubscription removes a subscription.
func (c *Client) DeleteSubscription(ctx context.Context, subscriptionID string, opts DeleteOptions) error {
	if err := validateID(subscriptionID); err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.subscriptionURL(subscriptionID), nil)
	if err != nil {
		return err
	}
	c.decorate(req)
	setHeader(req, "If-Match", opts.IfMatch)
	setHeader(req, "If-Unmodified-Since", opts.IfUnmodifiedSince)
	return c.do(req, nil)
}

// GetSubscription fetches subscription details. A 304 or 412 answer is
// returned as *HTTPError like any other non-2xx status.
func (c *Client) GetSubscription(ctx context.Context, subscriptionID string, opts GetOptions) (*model.Subscription, error) {
	if err := validateID(subscriptionID); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.subscriptionURL(subscriptionID), nil)
	if err != nil {
		return nil, err
	}
	c.decorate(req)
	setHeader(req, "Accept", opts.Accept)
	setHeader(req, "If-None-Match", opts.IfNoneMatch)
	setHeader(req, "If-Modified-Since", opts.IfModifiedSince)

	var sub model.Subscription
	if err := c.do(req, &sub); err != nil {
		return nil, err
	}
	return &sub, nil
}

func (c *Client) do(req *http.Request, out any) error {
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	c.log.Debug().
		Str("method", req.Method).
		Str("url", req.URL.String()).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("store api call")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &HTTPError{
			Method:     req.Method,
			URL:        req.URL.String(),
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       string(body),
		}
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", req.Method, req.URL.Path, err)
	}
	return nil
}

// validateID rejects ids that would not address a single subscription once
// the path is cleaned.
func validateID(id string) error {
	switch id {
	case "":
		return fmt.Errorf("%w: subscription id is required", ErrInvalidSubscriptionID)
	case ".", "..":
		return fmt.Errorf("%w: %q", ErrInvalidSubscriptionID, id)
	}
	return nil
}

func (c *Client) subscriptionURL(id string) string {
	return c.resolve("/subscriptions/" + url.PathEscape(id))
}

func (c *Client) resolve(p string) string {
	u := *c.baseURL
	u.RawPath = ""
	joined := path.Join(c.baseURL.EscapedPath(), p)
	unescaped, err := url.PathUnescape(joined)
	if err != nil {
		u.Path = joined
		return u.String()
	}
	u.Path = unescaped
	u.RawPath = joined
	return u.String()
}

func (c *Client) decorate(req *http.Request) {
	req.Header.Set("Content-Type", mediaTypeJSON)
	req.Header.Set("Accept", mediaTypeJSON)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}

// setHeader overrides a default header; empty values leave it untouched.
func setHeader(req *http.Request, key, value string) {
	if strings.TrimSpace(value) == "" {
		return
	}
	req.Header.Set(key, value)
}

// BaseURL returns the configured API store URL without trailing slash.
func (c *Client) BaseURL() string {
	return strings.TrimRight(c.baseURL.String(), "/")
}
