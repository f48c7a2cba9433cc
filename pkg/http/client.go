package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultTimeout   = 30 * time.Second
	DefaultUserAgent = "amoCRM-API-client/1.0"
)

// ErrClosed is returned by Do after Close.
var ErrClosed = errors.New("http client is closed")

// BodyEncoding selects how RequestOptions.Body is written to the wire.
type BodyEncoding int

const (
	EncodingNone BodyEncoding = iota
	EncodingJSON
	EncodingForm
)

func (e BodyEncoding) String() string {
	switch e {
	case EncodingJSON:
		return "json"
	case EncodingForm:
		return "form"
	default:
		return "none"
	}
}

// TransportError reports a request that never produced an HTTP response
// (DNS, connect, TLS, timeout or cancellation).
type TransportError struct {
	Method string
	URL    string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error: %s %s: %v", e.Method, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Timeout reports whether the request ran out of time.
func (e *TransportError) Timeout() bool {
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(e.Err, &netErr) && netErr.Timeout()
}

// Options configures a Client. Zero values fall back to the defaults.
type Options struct {
	Timeout   time.Duration
	UserAgent string
	// CookieFile persists the session cookies between processes. Empty keeps them in memory.
	CookieFile string
	// Transport replaces the default transport. It should disable keep-alives, or net/http
	// may replay a GET whose connection dropped.
	Transport http.RoundTripper
}

// Client executes one request at a time over a cookie-persistent connection context.
// The underlying http.Client and cookie jar are created on the first request.
type Client struct {
	mu         sync.Mutex
	httpClient *http.Client
	jar        *FileJar
	options    Options
	logger     *zap.Logger
	closed     bool
}

type RequestOptions struct {
	Method   string
	URL      string
	Query    url.Values
	Headers  map[string]string
	Body     interface{}
	Encoding BodyEncoding
	Context  context.Context
	// Timeout overrides the client timeout for this request.
	Timeout time.Duration
}

type Response struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
}

func NewClient(opts Options) *Client {
	logger, _ := zap.NewProduction()
	return NewClientWithLogger(logger, opts)
}

// NewClientWithLogger creates a new HTTP client with a custom logger
func NewClientWithLogger(logger *zap.Logger, opts Options) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	return &Client{
		options: opts,
		logger:  logger,
	}
}

// ensure lazily acquires the http.Client and cookie jar. Callers hold c.mu.
func (c *Client) ensure() error {
	if c.httpClient != nil {
		return nil
	}

	jar, err := NewFileJar(c.options.CookieFile)
	if err != nil {
		return fmt.Errorf("failed to create cookie jar: %w", err)
	}

	transport := c.options.Transport
	if transport == nil {
		// net/http resends idempotent requests when a reused keep-alive connection drops
		// before the response. Every request gets its own connection so a failure is
		// reported once and never replayed.
		t := http.DefaultTransport.(*http.Transport).Clone()
		t.DisableKeepAlives = true
		transport = t
	}

	c.jar = jar
	c.httpClient = &http.Client{
		Transport: transport,
		Jar:       jar,
	}
	c.logger.Debug("HTTP client initialized",
		zap.Duration("timeout", c.options.Timeout),
		zap.Bool("persistent_cookies", c.options.CookieFile != ""))
	return nil
}

// Do executes the request. Any HTTP status is returned as a Response; only failures that
// prevent a response from arriving are reported as *TransportError.
func (c *Client) Do(opts RequestOptions) (*Response, error) {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, ErrClosed
	}
	if err := c.ensure(); err != nil {
		return nil, err
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = c.options.Timeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := c.buildRequest(ctx, opts)
	if err != nil {
		c.logger.Error("Failed to build request", zap.Error(err), zap.String("method", opts.Method), zap.String("url", opts.URL))
		return nil, err
	}

	c.logger.Debug("Making HTTP request",
		zap.String("method", req.Method),
		zap.String("url", req.URL.String()),
		zap.Stringer("encoding", opts.Encoding))

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("HTTP request failed",
			zap.Error(err),
			zap.String("method", req.Method),
			zap.String("url", req.URL.String()))
		return nil, &TransportError{Method: req.Method, URL: req.URL.String(), Err: err}
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		c.logger.Error("Failed to read response body", zap.Error(err))
		return nil, &TransportError{Method: req.Method, URL: req.URL.String(), Err: fmt.Errorf("failed to read response body: %w", err)}
	}

	c.logger.Debug("HTTP request completed",
		zap.Int("status_code", httpResp.StatusCode),
		zap.String("method", req.Method),
		zap.String("url", req.URL.String()))

	return &Response{
		StatusCode: httpResp.StatusCode,
		Headers:    httpResp.Header,
		Body:       body,
	}, nil
}

func (c *Client) buildRequest(ctx context.Context, opts RequestOptions) (*http.Request, error) {
	if opts.Method == "" {
		return nil, fmt.Errorf("method is required")
	}

	u, err := url.Parse(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse url: %w", err)
	}
	if len(opts.Query) > 0 {
		q := u.Query()
		for key, values := range opts.Query {
			for _, v := range values {
				q.Add(key, v)
			}
		}
		u.RawQuery = q.Encode()
	}

	var (
		bodyReader  io.Reader
		contentType string
	)
	switch opts.Encoding {
	case EncodingNone:
		if opts.Body != nil {
			return nil, fmt.Errorf("request body given without an encoding")
		}
	case EncodingJSON:
		b, err := encodeJSON(opts.Body)
		if err != nil {
			return nil, err
		}
		bodyReader = bytes.NewReader(b)
		contentType = "application/json"
	case EncodingForm:
		form, err := encodeForm(opts.Body)
		if err != nil {
			return nil, err
		}
		bodyReader = strings.NewReader(form.Encode())
		contentType = "application/x-www-form-urlencoded"
	default:
		return nil, fmt.Errorf("unknown body encoding %d", opts.Encoding)
	}

	req, err := http.NewRequestWithContext(ctx, opts.Method, u.String(), bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", c.options.UserAgent)
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	for key, value := range opts.Headers {
		req.Header.Set(key, value)
	}

	return req, nil
}

func encodeJSON(body interface{}) ([]byte, error) {
	if b, ok := body.([]byte); ok {
		return b, nil
	}
	b, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}
	return b, nil
}

func encodeForm(body interface{}) (url.Values, error) {
	form := url.Values{}

	switch v := body.(type) {
	case nil:
	case url.Values:
		form = v
	case map[string]string:
		for k, val := range v {
			form.Set(k, val)
		}
	case map[string]interface{}:
		for k, val := range v {
			if val == nil {
				continue
			}
			form.Set(k, fmt.Sprint(val))
		}
	default:
		// Convert structs (or other JSON-marshalable types) into a map first.
		bodyJSON, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal form body: %w", err)
		}
		var m map[string]interface{}
		if err := json.Unmarshal(bodyJSON, &m); err != nil {
			return nil, fmt.Errorf("failed to unmarshal form body: %w", err)
		}
		for k, val := range m {
			if val == nil {
				continue
			}
			form.Set(k, fmt.Sprint(val))
		}
	}

	return form, nil
}

func (c *Client) Get(ctx context.Context, endpoint string, query url.Values, headers map[string]string) (*Response, error) {
	return c.Do(RequestOptions{
		Method:  http.MethodGet,
		URL:     endpoint,
		Query:   query,
		Headers: headers,
		Context: ctx,
	})
}

func (c *Client) PostJSON(ctx context.Context, endpoint string, headers map[string]string, body interface{}) (*Response, error) {
	return c.Do(RequestOptions{
		Method:   http.MethodPost,
		URL:      endpoint,
		Headers:  headers,
		Body:     body,
		Encoding: EncodingJSON,
		Context:  ctx,
	})
}

func (c *Client) PostForm(ctx context.Context, endpoint string, headers map[string]string, body interface{}) (*Response, error) {
	return c.Do(RequestOptions{
		Method:   http.MethodPost,
		URL:      endpoint,
		Headers:  headers,
		Body:     body,
		Encoding: EncodingForm,
		Context:  ctx,
	})
}

// Cookies returns the cookies the jar would send to rawURL.
func (c *Client) Cookies(rawURL string) []*http.Cookie {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.jar == nil {
		return nil
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil
	}
	return c.jar.Cookies(u)
}

// Close persists the cookie jar (when file-backed) and releases idle connections.
// It is safe to call more than once.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true

	if c.httpClient == nil {
		return nil
	}
	c.httpClient.CloseIdleConnections()

	if err := c.jar.Save(); err != nil {
		c.logger.Error("Failed to save cookies", zap.Error(err), zap.String("path", c.options.CookieFile))
		return fmt.Errorf("failed to save cookies: %w", err)
	}
	return nil
}
