package apiclient

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
	"github.com/rs/zerolog/log"
)

const (
	contentTypeJSON = "application/json"
	requestIDHeader = "X-Request-ID"
)

// TokenSource supplies the current bearer token. An empty string means no
// token is known and no Authorization header is sent.
type TokenSource interface {
	Token() string
}

// Request describes one call against the REST API. Body is JSON encoded
// unless it is a *Multipart, which is sent as multipart/form-data.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   any
	Header http.Header
}

// Result is a successful response. NoBody is set for 204 responses and for
// 2xx responses with an empty body; Body is nil in that case.
type Result struct {
	StatusCode int
	Body       []byte
	NoBody     bool
}

// Decode unmarshals the JSON body into v. It is a no-op for NoBody results.
func (r Result) Decode(v any) error {
	if r.NoBody {
		return nil
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("[Result.Decode] %w", err)
	}
	return nil
}

// Client wraps net/http with the API's header, body and error conventions.
type Client struct {
	baseURL      string
	httpClient   *http.Client
	tokens       TokenSource
	newRequestID func() string
}

// ClientOption defines a function type to modify the Client instance.
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithTokenSource injects the session accessor used for bearer tokens.
func WithTokenSource(tokens TokenSource) ClientOption {
	return func(c *Client) {
		c.tokens = tokens
	}
}

// WithTimeout sets the timeout of the underlying *http.Client.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithRequestIDs sets the generator used for X-Request-ID (primarily for testing).
func WithRequestIDs(newID func() string) ClientOption {
	return func(c *Client) {
		c.newRequestID = newID
	}
}

func New(baseURL string, options ...ClientOption) (*Client, error) {
	if baseURL == "" {
		return nil, errors.New("[apiclient.New] baseURL is required")
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("[apiclient.New] invalid baseURL: %w", err)
	}

	c := &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		newRequestID: func() string { return uuid.New().String() },
	}
	for _, opt := range options {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the resolved API root without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) Get(ctx context.Context, path string, query url.Values) (Result, error) {
	return c.Do(ctx, Request{Method: http.MethodGet, Path: path, Query: query})
}

func (c *Client) Post(ctx context.Context, path string, body any) (Result, error) {
	return c.Do(ctx, Request{Method: http.MethodPost, Path: path, Body: body})
}

func (c *Client) Put(ctx context.Context, path string, body any) (Result, error) {
	return c.Do(ctx, Request{Method: http.MethodPut, Path: path, Body: body})
}

func (c *Client) Delete(ctx context.Context, path string) (Result, error) {
	return c.Do(ctx, Request{Method: http.MethodDelete, Path: path})
}

func (c *Client) PostMultipart(ctx context.Context, path string, form *Multipart) (Result, error) {
	return c.Do(ctx, Request{Method: http.MethodPost, Path: path, Body: form})
}

// Do sends the request and applies the response conventions: 2xx with no
// content yields Result{NoBody: true}, anything outside 2xx yields *APIError.
func (c *Client) Do(ctx context.Context, req Request) (Result, error) {
	httpReq, err := c.newHTTPRequest(ctx, req)
	if err != nil {
		return Result{}, err
	}

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		log.Debug().Err(err).Str("method", req.Method).Str("path", req.Path).Msg("API request failed")
		return Result{}, fmt.Errorf("[Client.Do] %s %s: %w", req.Method, req.Path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, fmt.Errorf("[Client.Do] read body: %w", err)
	}

	log.Debug().
		Str("method", req.Method).
		Str("path", req.Path).
		Int("status", resp.StatusCode).
		Str("request_id", httpReq.Header.Get(requestIDHeader)).
		Dur("duration", time.Since(start)).
		Msg("API request")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Result{}, newAPIError(req.Method, req.Path, resp.StatusCode, body)
	}
	if resp.StatusCode == http.StatusNoContent || resp.Header.Get("Content-Length") == "0" || len(body) == 0 {
		return Result{StatusCode: resp.StatusCode, NoBody: true}, nil
	}
	return Result{StatusCode: resp.StatusCode, Body: body}, nil
}

func (c *Client) newHTTPRequest(ctx context.Context, req Request) (*http.Request, error) {
	if req.Method == "" {
		req.Method = http.MethodGet
	}

	target := c.baseURL + "/" + strings.TrimLeft(req.Path, "/")
	if len(req.Query) > 0 {
		target += "?" + req.Query.Encode()
	}

	header := http.Header{}
	for k, v := range req.Header {
		header[http.CanonicalHeaderKey(k)] = append([]string(nil), v...)
	}

	var body io.Reader
	switch payload := req.Body.(type) {
	case nil:
		if req.Method != http.MethodDelete && header.Get("Content-Type") == "" {
			header.Set("Content-Type", contentTypeJSON)
		}
	case *Multipart:
		if payload == nil {
			return nil, errors.New("[Client.Do] multipart body is nil")
		}
		buf, contentType, err := payload.encode()
		if err != nil {
			return nil, fmt.Errorf("[Client.Do] encode multipart: %w", err)
		}
		body = buf
		// The boundary comes from the multipart writer; a caller supplied
		// multipart/form-data value would lack it.
		header.Set("Content-Type", contentType)
	default:
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("[Client.Do] encode body: %w", err)
		}
		body = bytes.NewReader(data)
		if header.Get("Content-Type") == "" {
			header.Set("Content-Type", contentTypeJSON)
		}
	}

	if header.Get("Accept") == "" {
		header.Set("Accept", contentTypeJSON)
	}
	if header.Get("Authorization") == "" && c.tokens != nil {
		if token := c.tokens.Token(); token != "" {
			header.Set("Authorization", "Bearer "+token)
		}
	}
	if header.Get(requestIDHeader) == "" {
		header.Set(requestIDHeader, c.newRequestID())
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, body)
	if err != nil {
		return nil, fmt.Errorf("[Client.Do] new request: %w", err)
	}
	httpReq.Header = header
	return httpReq, nil
}
