package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// Messages are the fixed user-facing texts used when the server gives none
type Messages struct {
	// Unreachable is shown when no HTTP response arrives at all
	Unreachable string
	// Generic is used when an error response has no readable body
	Generic string
	// DeleteFailed replaces Generic for delete requests
	DeleteFailed string
}

// DefaultMessages returns the English message set
func DefaultMessages() Messages {
	return Messages{
		Unreachable:  "Cannot reach the server, please check that the backend service is running",
		Generic:      "Network error",
		DeleteFailed: "Failed to delete memory",
	}
}

// Client talks to the memory service REST API
type Client struct {
	baseURL    string
	token      string
	userAgent  string
	messages   Messages
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	log        *zap.Logger
}

// Option configures a Client
type Option func(*Client)

// WithToken sends a bearer token with every request
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = strings.TrimSpace(token)
	}
}

// WithUserAgent sets the User-Agent header
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithMessages overrides the fallback messages
func WithMessages(m Messages) Option {
	return func(c *Client) {
		def := DefaultMessages()
		if m.Unreachable == "" {
			m.Unreachable = def.Unreachable
		}
		if m.Generic == "" {
			m.Generic = def.Generic
		}
		if m.DeleteFailed == "" {
			m.DeleteFailed = def.DeleteFailed
		}
		c.messages = m
	}
}

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithLogger sets the logger used for request tracing
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// WithBreaker stops sending requests for cooldown once failures consecutive
// calls got no HTTP response at all. Calls made while it is open fail with
// the unreachable message. Any answer from the server, 5xx included, counts
// as reachable and is surfaced as usual. failures of 0 leaves the breaker off.
func WithBreaker(failures uint32, cooldown time.Duration) Option {
	return func(c *Client) {
		if failures == 0 {
			c.breaker = nil
			return
		}
		c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "memory-service",
			MaxRequests: 1,
			Timeout:     cooldown,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= failures
			},
			IsSuccessful: reachable,
			OnStateChange: func(name string, from, to gobreaker.State) {
				c.log.Warn("circuit breaker state changed",
					zap.String("breaker", name),
					zap.String("from", from.String()),
					zap.String("to", to.String()))
			},
		})
	}
}

// reachable counts only transport failures against the server
func reachable(err error) bool {
	return !IsTransport(err)
}

// New creates a client for the service at baseURL, with routes under apiPrefix (e.g. "/api/v1").
// No request timeout is set; the caller's context bounds each call.
func New(baseURL, apiPrefix string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/") + "/" + strings.Trim(apiPrefix, "/"),
		userAgent:  "memhub/0.1",
		messages:   DefaultMessages(),
		httpClient: &http.Client{},
		log:        zap.NewNop(),
	}
	c.baseURL = strings.TrimSuffix(c.baseURL, "/")

	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the resolved API root
func (c *Client) BaseURL() string {
	return c.baseURL
}

// SearchVector runs a semantic search
func (c *Client) SearchVector(ctx context.Context, query string, limit int) ([]Memory, error) {
	var out []Memory
	err := c.do(ctx, "search", http.MethodPost, "/search/", searchRequest{Query: query, Limit: limit}, &out)
	return nonNil(out), err
}

// SearchText runs a keyword search against the relational store
func (c *Client) SearchText(ctx context.Context, query string, limit int) ([]Memory, error) {
	var out []Memory
	err := c.do(ctx, "search_sqlite", http.MethodPost, "/search/sqlite", searchRequest{Query: query, Limit: limit}, &out)
	return nonNil(out), err
}

// CreateMemory stores a new memory
func (c *Client) CreateMemory(ctx context.Context, in MemoryInput) (*Memory, error) {
	var out Memory
	if err := c.do(ctx, "create", http.MethodPost, "/memories/", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListMemories returns every memory
func (c *Client) ListMemories(ctx context.Context) ([]Memory, error) {
	var out []Memory
	err := c.do(ctx, "list", http.MethodGet, "/memories/", nil, &out)
	return nonNil(out), err
}

// GetMemory fetches one memory
func (c *Client) GetMemory(ctx context.Context, id int64) (*Memory, error) {
	var out Memory
	if err := c.do(ctx, "get", http.MethodGet, memoryPath(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateMemory replaces title, content and tags of a memory
func (c *Client) UpdateMemory(ctx context.Context, id int64, in MemoryInput) (*Memory, error) {
	var out Memory
	if err := c.do(ctx, "update", http.MethodPut, memoryPath(id), in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteMemory removes a memory
func (c *Client) DeleteMemory(ctx context.Context, id int64) error {
	return c.do(ctx, "delete", http.MethodDelete, memoryPath(id), nil, nil)
}

// Stats returns the backend row counts
func (c *Client) Stats(ctx context.Context) (*Stats, error) {
	var out Stats
	if err := c.do(ctx, "stats", http.MethodGet, "/memories/stats", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func memoryPath(id int64) string {
	return "/memories/" + strconv.FormatInt(id, 10)
}

func nonNil(ms []Memory) []Memory {
	if ms == nil {
		return []Memory{}
	}
	return ms
}

// do sends one request through the breaker when one is configured
func (c *Client) do(ctx context.Context, op, method, path string, body, out any) error {
	if c.breaker == nil {
		return c.send(ctx, op, method, path, body, out)
	}

	_, err := c.breaker.Execute(func() (any, error) {
		return nil, c.send(ctx, op, method, path, body, out)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		c.log.Debug("request short-circuited", zap.String("op", op))
		return &Error{Op: op, Kind: KindTransport, Message: c.messages.Unreachable, Err: err}
	}
	return err
}

// send issues one request and decodes a success body into out (when non-nil)
func (c *Client) send(ctx context.Context, op, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return &Error{Op: op, Kind: KindRequest, Message: "failed to serialize request", Err: err}
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return &Error{Op: op, Kind: KindRequest, Message: "failed to create request", Err: err}
	}

	requestID := uuid.New().String()
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-ID", requestID)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return &Error{Op: op, Kind: KindCanceled, Message: "request canceled", Err: ctxErr}
		}
		c.log.Warn("memory service unreachable",
			zap.String("op", op), zap.String("request_id", requestID), zap.Error(err))
		return &Error{Op: op, Kind: KindTransport, Message: c.messages.Unreachable, Err: err}
	}
	defer resp.Body.Close()

	c.log.Debug("memory service call",
		zap.String("op", op),
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.String("request_id", requestID),
		zap.Duration("elapsed", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.errorFromResponse(op, resp)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &Error{Op: op, Kind: KindDecode, Status: resp.StatusCode, Message: "failed to parse server response", Err: err}
	}
	return nil
}

// errorFromResponse builds the user-facing message for a non-success response:
// the server's detail when present, otherwise an HTTP status line, otherwise
// the fixed fallback when the body is not JSON at all.
func (c *Client) errorFromResponse(op string, resp *http.Response) *Error {
	e := &Error{Op: op, Kind: KindServer, Status: resp.StatusCode}

	fallback := c.messages.Generic
	if op == "delete" {
		fallback = c.messages.DeleteFailed
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		e.Message = fallback
		e.Err = err
		return e
	}

	var body errorResponse
	if err := json.Unmarshal(data, &body); err != nil {
		e.Message = fallback
		e.Err = fmt.Errorf("unparseable error body: %w", err)
		return e
	}

	if detail := parseDetail(body.Detail); detail != "" {
		e.Message = detail
		return e
	}

	e.Message = fmt.Sprintf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	if op == "delete" {
		e.Message = fmt.Sprintf("HTTP %d", resp.StatusCode)
	}
	return e
}

// parseDetail accepts a string detail or a list of validation entries
func parseDetail(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}

	var list []validationDetail
	if err := json.Unmarshal(raw, &list); err == nil {
		msgs := make([]string, 0, len(list))
		for _, d := range list {
			if d.Msg != "" {
				msgs = append(msgs, d.Msg)
			}
		}
		return strings.Join(msgs, "; ")
	}

	return ""
}

// Message extracts the user-facing text from any error returned by the client
func Message(err error, fallback string) string {
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	if err != nil && err.Error() != "" {
		return err.Error()
	}
	return fallback
}
