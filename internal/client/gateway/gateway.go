// Package gateway is the single HTTP path between the console and the contact
// API. It attaches the bearer token, applies the request timeout, parses
// bodies by content type and turns every failure into a typed *errors.Error.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/contact-console/internal/dto"
	appErrors "github.com/noah-isme/contact-console/pkg/errors"
)

// DefaultTimeout bounds every request unless Config overrides it.
const DefaultTimeout = 30 * time.Second

const maxBodyBytes = 4 << 20

// TokenSource yields the bearer token for authenticated requests.
type TokenSource interface {
	AuthToken() string
}

// Options customises one request.
type Options struct {
	Method  string
	Headers map[string]string
	Query   url.Values
	// Body is marshalled to JSON. RawBody, when set, is sent untouched instead.
	Body    interface{}
	RawBody []byte
	// Public requests carry no bearer token and a 401 on them is an ordinary HTTP error.
	Public bool
}

// Response is a successful (2xx) reply.
type Response struct {
	Status int
	Header http.Header
	// Body holds the raw JSON when the reply was JSON.
	Body json.RawMessage
	Text string
}

// IsJSON reports whether the reply carried a JSON body.
func (r *Response) IsJSON() bool {
	return r != nil && len(r.Body) > 0
}

// Decode unmarshals the JSON body into v.
func (r *Response) Decode(v interface{}) error {
	if !r.IsJSON() {
		return appErrors.Clone(appErrors.ErrDecode, "expected a JSON response")
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return appErrors.Wrap(err, appErrors.ErrDecode.Code, appErrors.ErrDecode.Status, appErrors.ErrDecode.Message)
	}
	return nil
}

// Config configures a Gateway.
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// Gateway performs API calls.
type Gateway struct {
	baseURL string
	timeout time.Duration
	client  *http.Client
	logger  *zap.Logger

	mu     sync.RWMutex
	tokens TokenSource
	hooks  map[int]func()
	nextID int
}

// New builds a Gateway. tokens may be nil until a session store is attached.
func New(cfg Config, tokens TokenSource) *Gateway {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{}
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Gateway{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		timeout: cfg.Timeout,
		client:  cfg.HTTPClient,
		logger:  cfg.Logger,
		tokens:  tokens,
		hooks:   make(map[int]func()),
	}
}

// SetTokenSource replaces the token source.
func (g *Gateway) SetTokenSource(tokens TokenSource) {
	g.mu.Lock()
	g.tokens = tokens
	g.mu.Unlock()
}

// Subscribe registers hook to run when an authenticated request comes back
// 401 and returns a function that removes it.
func (g *Gateway) Subscribe(hook func()) func() {
	g.mu.Lock()
	id := g.nextID
	g.nextID++
	g.hooks[id] = hook
	g.mu.Unlock()

	return func() {
		g.mu.Lock()
		delete(g.hooks, id)
		g.mu.Unlock()
	}
}

func (g *Gateway) notifyUnauthorized() {
	g.mu.RLock()
	hooks := make([]func(), 0, len(g.hooks))
	for _, h := range g.hooks {
		hooks = append(hooks, h)
	}
	g.mu.RUnlock()

	for _, h := range hooks {
		h()
	}
}

func (g *Gateway) token() string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.tokens == nil {
		return ""
	}
	return g.tokens.AuthToken()
}

// Request performs one call against endpoint, which is relative to the base URL.
func (g *Gateway) Request(ctx context.Context, endpoint string, opts Options) (*Response, error) {
	method := opts.Method
	if method == "" {
		method = http.MethodGet
	}

	target := g.baseURL + "/" + strings.TrimLeft(endpoint, "/")
	if len(opts.Query) > 0 {
		target += "?" + opts.Query.Encode()
	}

	var body io.Reader
	contentType := ""
	switch {
	case opts.RawBody != nil:
		body = bytes.NewReader(opts.RawBody)
	case opts.Body != nil:
		raw, err := json.Marshal(opts.Body)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "request body could not be encoded")
		}
		body = bytes.NewReader(raw)
		contentType = "application/json"
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrNetwork.Code, appErrors.ErrNetwork.Status, appErrors.ErrNetwork.Message)
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	authenticated := false
	if !opts.Public {
		if token := g.token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
			authenticated = true
		}
	}
	for k, v := range opts.Headers {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := g.client.Do(req)
	if err != nil {
		failure := transportError(ctx, err)
		g.logger.Warn("api request failed",
			zap.String("method", method),
			zap.String("endpoint", endpoint),
			zap.String("code", failure.Code),
			zap.Error(err))
		return nil, failure
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		failure := transportError(ctx, err)
		g.logger.Warn("api response read failed", zap.String("endpoint", endpoint), zap.Error(err))
		return nil, failure
	}

	g.logger.Debug("api request",
		zap.String("method", method),
		zap.String("endpoint", endpoint),
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", time.Since(start)))

	isJSON := isJSONContent(resp.Header.Get("Content-Type")) && json.Valid(raw)

	if resp.StatusCode == http.StatusUnauthorized && !opts.Public {
		if authenticated {
			g.notifyUnauthorized()
			return nil, appErrors.Clone(appErrors.ErrAuthExpired, "")
		}
		return nil, appErrors.Clone(appErrors.ErrAuthRequired, "")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		failure := &appErrors.Error{
			Code:    appErrors.ErrHTTP.Code,
			Status:  resp.StatusCode,
			Message: serverMessage(raw, isJSON, resp.StatusCode),
		}
		g.logger.Warn("api request rejected",
			zap.String("method", method),
			zap.String("endpoint", endpoint),
			zap.Int("status", resp.StatusCode),
			zap.String("message", failure.Message))
		return nil, failure
	}

	out := &Response{Status: resp.StatusCode, Header: resp.Header.Clone(), Text: string(raw)}
	if isJSON {
		out.Body = json.RawMessage(raw)
	}
	return out, nil
}

// Health calls GET /health.
func (g *Gateway) Health(ctx context.Context) (*dto.HealthResponse, error) {
	resp, err := g.Request(ctx, "/health", Options{Public: true})
	if err != nil {
		return nil, err
	}
	var health dto.HealthResponse
	if err := resp.Decode(&health); err != nil {
		return nil, err
	}
	return &health, nil
}

func transportError(ctx context.Context, err error) *appErrors.Error {
	var netErr net.Error
	if ctx.Err() != nil || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) ||
		(errors.As(err, &netErr) && netErr.Timeout()) {
		return appErrors.Wrap(err, appErrors.ErrTimeout.Code, appErrors.ErrTimeout.Status, appErrors.ErrTimeout.Message)
	}
	return appErrors.Wrap(err, appErrors.ErrNetwork.Code, appErrors.ErrNetwork.Status, appErrors.ErrNetwork.Message)
}

func isJSONContent(header string) bool {
	if header == "" {
		return false
	}
	mediaType, _, err := mime.ParseMediaType(header)
	if err != nil {
		return false
	}
	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}

// serverMessage prefers the body's "message", then a string "error", then a generic line.
func serverMessage(raw []byte, isJSON bool, status int) string {
	if isJSON {
		var body struct {
			Message string      `json:"message"`
			Error   interface{} `json:"error"`
		}
		if err := json.Unmarshal(raw, &body); err == nil {
			if body.Message != "" {
				return body.Message
			}
			if s, ok := body.Error.(string); ok && s != "" {
				return s
			}
		}
	}
	return fmt.Sprintf("HTTP error %d", status)
}
