// Package api provides the HTTP client for the audit backend.
// Every mutating request carries the CSRF token issued by the backend as a
// cookie, echoed back in a request header.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/grovetools/dqm/errors"
	"github.com/grovetools/dqm/logging"
	"github.com/grovetools/dqm/pkg/profiling"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

const (
	// DefaultCSRFCookie is the cookie the backend stores the CSRF token in.
	DefaultCSRFCookie = "csrftoken"
	// DefaultCSRFHeader is the header the backend expects the token in.
	DefaultCSRFHeader = "X-CSRFTOKEN"
	// DefaultTimeout bounds a single backend request.
	DefaultTimeout = 30 * time.Second

	// maxErrorBody caps how much of a failed response is kept in error details.
	maxErrorBody = 4096
)

// Client calls the audit backend REST API.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	csrfCookie string
	csrfHeader string
	userAgent  string
	logger     *logrus.Entry

	// Applied by New once every option has run.
	timeout time.Duration
	metrics prometheus.Registerer
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient bases requests on a copy of hc, so hc itself is never
// modified. A cookie jar is added if the client has none, since the CSRF token
// travels as a cookie. The client's own timeout is kept unless WithTimeout is
// also given.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		copied := *hc
		c.httpClient = &copied
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithCSRF overrides the CSRF cookie and header names.
func WithCSRF(cookieName, headerName string) Option {
	return func(c *Client) {
		if cookieName != "" {
			c.csrfCookie = cookieName
		}
		if headerName != "" {
			c.csrfHeader = headerName
		}
	}
}

// WithUserAgent sets the User-Agent header of every request.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(logger *logrus.Entry) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// New creates a Client for the backend rooted at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "invalid backend URL").
			WithDetail("url", baseURL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, errors.ConfigInvalid(fmt.Sprintf("backend URL must be http or https: %s", baseURL))
	}
	u.Path = strings.TrimRight(u.Path, "/")

	c := &Client{
		baseURL:    u,
		csrfCookie: DefaultCSRFCookie,
		csrfHeader: DefaultCSRFHeader,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	if c.timeout > 0 {
		c.httpClient.Timeout = c.timeout
	}
	if c.metrics != nil {
		if err := instrument(c.httpClient, c.metrics); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to register client metrics")
		}
	}

	if c.httpClient.Jar == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to create cookie jar")
		}
		c.httpClient.Jar = jar
	}
	if c.logger == nil {
		c.logger = logging.NewLogger("dqm-api")
	}
	return c, nil
}

// BaseURL returns the backend root URL.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// Bootstrap fetches the backend root so it can issue the CSRF cookie before
// the first mutating request.
func (c *Client) Bootstrap(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/", nil, nil)
}

// CSRFToken returns the token currently held in the cookie jar.
func (c *Client) CSRFToken() string {
	for _, cookie := range c.httpClient.Jar.Cookies(c.baseURL) {
		if cookie.Name == c.csrfCookie {
			return cookie.Value
		}
	}
	return ""
}

// SetCSRFToken stores a token in the cookie jar, for callers that obtained it
// out of band.
func (c *Client) SetCSRFToken(token string) {
	c.httpClient.Jar.SetCookies(c.baseURL, []*http.Cookie{{Name: c.csrfCookie, Value: token, Path: "/"}})
}

// Close releases idle connections.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

func isMutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

// do performs one request. path is relative to the base URL and is the target
// reported in errors. A nil out discards the response body.
func (c *Client) do(ctx context.Context, method, path string, in, out interface{}) error {
	defer profiling.Start(method + " " + path).Stop()

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return errors.RequestFailed(method, path, 0, "", fmt.Errorf("failed to encode request: %w", err))
		}
		body = bytes.NewReader(data)
	}

	u := *c.baseURL
	u.Path = c.baseURL.Path + path

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return errors.RequestFailed(method, path, 0, "", fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if isMutating(method) {
		if token := c.CSRFToken(); token != "" {
			req.Header.Set(c.csrfHeader, token)
		}
		// The backend checks the referer of secure mutating requests.
		if c.baseURL.Scheme == "https" {
			req.Header.Set("Referer", c.baseURL.String()+"/")
		}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.WithError(err).WithFields(logrus.Fields{
			"method": method,
			"url":    path,
		}).Debug("Backend request failed")
		return errors.RequestFailed(method, path, 0, "", err)
	}
	defer resp.Body.Close()

	c.logger.WithFields(logrus.Fields{
		"method":   method,
		"url":      path,
		"status":   resp.StatusCode,
		"duration": time.Since(start).String(),
	}).Debug("Backend request")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return errors.RequestFailed(method, path, resp.StatusCode, string(data), nil)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.RequestFailed(method, path, resp.StatusCode, "", fmt.Errorf("failed to decode response: %w", err))
	}
	return nil
}
