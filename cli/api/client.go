// Package api is the REST client of the panel backend. It binds resource
// schemas to routes and converts every failure into the apperr taxonomy.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/limitedeportes/panel/engine/apperr"
	"github.com/limitedeportes/panel/pkg/config"
	"github.com/limitedeportes/panel/pkg/logger"
	"github.com/limitedeportes/panel/pkg/version"
)

const (
	defaultUserAgent = "panel-cli"
	// SessionUserHeader names the caller to backends that trust a proxy in
	// front of them, such as the mock backend.
	SessionUserHeader = "X-Session-User"
	sessionCookieName = "session"
)

// Client is the shared HTTP client of every resource.
type Client struct {
	http    *resty.Client
	baseURL string
}

// NewClient builds a client from the api and session sections of cfg.
func NewClient(cfg *config.Config) (*Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration is required")
	}
	baseURL, err := buildBaseURL(cfg.API.BaseURL)
	if err != nil {
		return nil, err
	}
	return &Client{http: buildHTTPClient(cfg, baseURL), baseURL: baseURL}, nil
}

func buildBaseURL(raw string) (string, error) {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("invalid base URL: %w", err)
	}
	if !parsed.IsAbs() || parsed.Host == "" {
		return "", fmt.Errorf("base URL must be absolute, got: %s", raw)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", fmt.Errorf("base URL scheme must be http or https, got: %s", parsed.Scheme)
	}
	return strings.TrimRight(parsed.String(), "/"), nil
}

func buildHTTPClient(cfg *config.Config, baseURL string) *resty.Client {
	ua := cfg.API.UserAgent
	if ua == "" {
		ua = defaultUserAgent + "/" + version.Version
	}
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(cfg.API.Timeout).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", ua)

	if key := cfg.API.APIKey.Value(); key != "" {
		client.SetAuthToken(key)
	}
	if cookie := cfg.API.Cookie.Value(); cookie != "" {
		client.SetCookie(&http.Cookie{Name: sessionCookieName, Value: cookie})
	}
	if user := strings.TrimSpace(cfg.Session.User); user != "" {
		client.SetHeader(SessionUserHeader, user)
	}
	// Mutations are never retried; the count only applies to reads.
	if cfg.API.RetryCount > 0 {
		client.
			SetRetryCount(cfg.API.RetryCount).
			SetRetryWaitTime(100 * time.Millisecond).
			SetRetryMaxWaitTime(2 * time.Second).
			AddRetryCondition(retryCondition)
	}
	if cfg.Runtime.LogLevel == "debug" {
		client.SetDebug(true)
	}
	return client
}

// retryCondition retries reads that failed in transport or with a gateway
// class status.
func retryCondition(r *resty.Response, err error) bool {
	if r == nil || r.Request == nil || r.Request.Method != http.MethodGet {
		return false
	}
	if err != nil {
		return !errors.Is(err, context.Canceled)
	}
	code := r.StatusCode()
	return code == http.StatusBadGateway || code == http.StatusServiceUnavailable ||
		code == http.StatusGatewayTimeout || code == http.StatusRequestTimeout
}

// SetSessionUser changes the identity header sent on later requests.
func (c *Client) SetSessionUser(user string) {
	user = strings.TrimSpace(user)
	if user == "" {
		c.http.Header.Del(SessionUserHeader)
		return
	}
	c.http.SetHeader(SessionUserHeader, user)
}

// BaseURL returns the normalized backend address.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// request carries the pieces of one call.
type request struct {
	op     apperr.Op
	method string
	path   string
	query  url.Values
	body   any
}

// do performs req and returns the raw 2xx body. Failures are *apperr.Error.
func (c *Client) do(ctx context.Context, req request) ([]byte, http.Header, error) {
	log := logger.FromContext(ctx)
	r := c.http.R().SetContext(ctx)
	if req.body != nil {
		r.SetHeader("Content-Type", "application/json").SetBody(req.body)
	}
	if len(req.query) > 0 {
		r.SetQueryParamsFromValues(req.query)
	}

	resp, err := executeRequest(r, req.method, req.path)
	if err != nil {
		return nil, nil, transportError(ctx, req.op, err)
	}
	log.Debug("API request completed",
		"method", req.method, "path", req.path, "status", resp.StatusCode(), "duration", resp.Time())

	if resp.StatusCode() >= http.StatusBadRequest {
		return nil, resp.Header(), apperr.FromStatus(req.op, resp.StatusCode(), serverMessage(resp.Body()))
	}
	return resp.Body(), resp.Header(), nil
}

func executeRequest(req *resty.Request, method, path string) (*resty.Response, error) {
	switch method {
	case http.MethodGet:
		return req.Get(path)
	case http.MethodPost:
		return req.Post(path)
	case http.MethodPut:
		return req.Put(path)
	case http.MethodPatch:
		return req.Patch(path)
	case http.MethodDelete:
		return req.Delete(path)
	default:
		return nil, fmt.Errorf("unsupported HTTP method: %s", method)
	}
}

func transportError(ctx context.Context, op apperr.Op, err error) error {
	timeout := errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded)
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) && netErr.Timeout() {
		timeout = true
	}
	return apperr.Network(op, err, timeout)
}
