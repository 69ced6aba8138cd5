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
	"go.uber.org/zap"

	"github.com/MrEthical07/goSession/internal/rate"
)

const (
	// DefaultTimeout bounds a single request when the caller's http.Client has none.
	DefaultTimeout = 15 * time.Second
	// DefaultMaxResponseSize caps response bodies.
	DefaultMaxResponseSize = 4 * 1024 * 1024
	// RequestIDHeader carries the per-request correlation ID.
	RequestIDHeader = "X-Request-ID"
)

// ErrUnavailable wraps transport failures (DNS, connect, reset, timeout).
var ErrUnavailable = errors.New("api unavailable")

// ErrResponseTooLarge is returned when a body exceeds MaxResponseSize.
var ErrResponseTooLarge = errors.New("response exceeded maximum size")

// Error is a non-2xx response.
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api error (HTTP %d)", e.StatusCode)
	}
	return fmt.Sprintf("api error (HTTP %d): %s", e.StatusCode, e.Message)
}

// IsStatus reports whether err is an *Error with the given status code.
func IsStatus(err error, code int) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.StatusCode == code
}

// ObserveFunc receives the outcome of every request.
type ObserveFunc func(op string, elapsed time.Duration, err error)

// Config configures a Client.
type Config struct {
	BaseURL         string
	HTTPClient      *http.Client
	Timeout         time.Duration
	MaxResponseSize int64
	RequestsPerSec  float64
	Burst           int
	UserAgent       string
	Logger          *zap.Logger
	Observe         ObserveFunc
}

// Client sends JSON requests to one API base URL.
type Client struct {
	base     *url.URL
	http     *http.Client
	maxBody  int64
	pacer    *rate.Pacer
	agent    string
	logger   *zap.Logger
	observe  ObserveFunc
	newReqID func() string
}

// New validates cfg and returns a Client.
func New(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, errors.New("api base URL is required")
	}
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid api base URL: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("invalid api base URL scheme %q", base.Scheme)
	}

	hc := cfg.HTTPClient
	if hc == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		hc = &http.Client{Timeout: timeout}
	}
	maxBody := cfg.MaxResponseSize
	if maxBody <= 0 {
		maxBody = DefaultMaxResponseSize
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		base:     base,
		http:     hc,
		maxBody:  maxBody,
		pacer:    rate.NewPacer(cfg.RequestsPerSec, cfg.Burst),
		agent:    cfg.UserAgent,
		logger:   logger,
		observe:  cfg.Observe,
		newReqID: uuid.NewString,
	}, nil
}

// Request describes one call.
type Request struct {
	// Op names the call for logs and metrics, e.g. "auth.me".
	Op     string
	Method string
	Path   string
	Query  url.Values
	Token  string
	Body   any
}

// Do sends req and returns the raw 2xx body. Non-2xx responses become *Error;
// transport failures wrap ErrUnavailable.
func (c *Client) Do(ctx context.Context, req Request) (body []byte, err error) {
	start := time.Now()
	defer func() {
		if c.observe != nil {
			c.observe(req.Op, time.Since(start), err)
		}
	}()

	if err := c.pacer.Wait(ctx); err != nil {
		return nil, err
	}

	httpReq, err := c.newRequest(ctx, req)
	if err != nil {
		return nil, err
	}
	reqID := httpReq.Header.Get(RequestIDHeader)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		c.logger.Debug("api request failed",
			zap.String("op", req.Op),
			zap.String("request_id", reqID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err = c.readBody(resp)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("api response",
		zap.String("op", req.Op),
		zap.String("request_id", reqID),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &Error{StatusCode: resp.StatusCode, Message: errorMessage(body)}
	}
	return body, nil
}

// DoJSON is Do followed by decoding the body into out.
func (c *Client) DoJSON(ctx context.Context, req Request, out any) error {
	body, err := c.Do(ctx, req)
	if err != nil {
		return err
	}
	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	return json.Unmarshal(body, out)
}

func (c *Client) newRequest(ctx context.Context, req Request) (*http.Request, error) {
	u := *c.base
	u.Path = c.base.Path + "/" + strings.TrimLeft(req.Path, "/")
	if len(req.Query) > 0 {
		u.RawQuery = req.Query.Encode()
	}

	var body io.Reader
	if req.Body != nil {
		data, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if req.Token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+req.Token)
	}
	if c.agent != "" {
		httpReq.Header.Set("User-Agent", c.agent)
	}
	reqID := RequestIDFromContext(ctx)
	if reqID == "" {
		reqID = c.newReqID()
	}
	httpReq.Header.Set(RequestIDHeader, reqID)
	return httpReq, nil
}

func (c *Client) readBody(resp *http.Response) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrUnavailable, err)
	}
	if int64(len(body)) > c.maxBody {
		return nil, fmt.Errorf("%w (%d bytes)", ErrResponseTooLarge, c.maxBody)
	}
	return body, nil
}

// errorMessage extracts "message" or "error" from a JSON error body.
func errorMessage(body []byte) string {
	var payload struct {
		Message string          `json:"message"`
		Error   json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return strings.TrimSpace(string(truncate(body, 200)))
	}
	if payload.Message != "" {
		return payload.Message
	}
	var s string
	if json.Unmarshal(payload.Error, &s) == nil && s != "" {
		return s
	}
	var nested struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(payload.Error, &nested) == nil {
		return nested.Message
	}
	return ""
}

func truncate(b []byte, n int) []byte {
	if len(b) > n {
		return b[:n]
	}
	return b
}
