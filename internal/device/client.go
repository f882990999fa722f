package device

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/muurk/isoft/internal/logging"
	"github.com/muurk/isoft/internal/register"
)

const (
	// DefaultUsername is the factory username of the connectivity module
	DefaultUsername = "admin"

	// DefaultPassword is the factory password of the connectivity module
	DefaultPassword = "Connectivity"

	// DefaultTimeout is the default HTTP request timeout
	DefaultTimeout = 10 * time.Second

	// DefaultScheme is used unless WithScheme says otherwise
	DefaultScheme = "http"

	// apiPath is the REST root on the device
	apiPath = "/api/rest"

	// maxResponseBody bounds how much of a response is read
	maxResponseBody = 64 << 10
)

// Client represents an HTTP client for one i-soft device.
// A Client is safe for concurrent use.
type Client struct {
	baseURL  string
	host     string
	username string
	password string

	httpClient    *http.Client
	ownsTransport bool

	cache     *readCache
	now       func() time.Time
	userAgent string
}

type clientOptions struct {
	scheme     string
	timeout    time.Duration
	insecure   bool
	httpClient *http.Client
	cacheTTL   time.Duration
	clock      func() time.Time
	userAgent  string
}

// Option configures a Client
type Option func(*clientOptions)

// WithScheme selects "http" or "https"
func WithScheme(scheme string) Option {
	return func(o *clientOptions) { o.scheme = strings.ToLower(scheme) }
}

// WithTimeout sets the per-request timeout
func WithTimeout(timeout time.Duration) Option {
	return func(o *clientOptions) { o.timeout = timeout }
}

// WithInsecureSkipVerify accepts self-signed device certificates over https
func WithInsecureSkipVerify(skip bool) Option {
	return func(o *clientOptions) { o.insecure = skip }
}

// WithHTTPClient supplies the underlying HTTP client. The caller keeps
// ownership: Close does not touch its transport, and the timeout and TLS
// options are ignored.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *clientOptions) { o.httpClient = hc }
}

// WithReadCache serves repeated reads of the same register from memory for
// ttl. Any successful write drops the cache. Zero disables it.
func WithReadCache(ttl time.Duration) Option {
	return func(o *clientOptions) { o.cacheTTL = ttl }
}

// WithClock overrides the time source used for statistics dates, reading
// timestamps and cache expiry.
func WithClock(now func() time.Time) Option {
	return func(o *clientOptions) { o.clock = now }
}

// WithUserAgent sets the User-Agent header sent with every request
func WithUserAgent(ua string) Option {
	return func(o *clientOptions) { o.userAgent = ua }
}

// NewClient creates a client for the device at host ("192.168.1.40" or
// "isoft.local:8080"). A host given as a URL ("https://10.0.0.5") also sets
// the scheme.
func NewClient(host, username, password string, opts ...Option) (*Client, error) {
	o := clientOptions{
		scheme:  DefaultScheme,
		timeout: DefaultTimeout,
		clock:   time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}

	host = strings.TrimSpace(host)
	if strings.Contains(host, "://") {
		u, err := url.Parse(host)
		if err != nil {
			return nil, NewValidationError(fmt.Sprintf("invalid device host %q: %v", host, err))
		}
		o.scheme = strings.ToLower(u.Scheme)
		host = u.Host
	}
	host = strings.TrimSuffix(host, "/")

	if host == "" {
		return nil, NewValidationError("device host cannot be empty")
	}
	if o.scheme != "http" && o.scheme != "https" {
		return nil, NewValidationError(fmt.Sprintf("unsupported scheme %q (use http or https)", o.scheme))
	}
	if o.timeout <= 0 {
		return nil, NewValidationError(fmt.Sprintf("timeout must be positive, got %v", o.timeout))
	}

	c := &Client{
		baseURL:   fmt.Sprintf("%s://%s%s", o.scheme, host, apiPath),
		host:      host,
		username:  username,
		password:  password,
		now:       o.clock,
		userAgent: o.userAgent,
	}

	if o.httpClient != nil {
		c.httpClient = o.httpClient
	} else {
		transport := http.DefaultTransport.(*http.Transport).Clone()
		if o.insecure {
			transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // devices ship self-signed certificates
		}
		c.httpClient = &http.Client{Timeout: o.timeout, Transport: transport}
		c.ownsTransport = true
	}

	if o.cacheTTL > 0 {
		c.cache = newReadCache(o.cacheTTL, o.clock)
	}

	return c, nil
}

// BaseURL returns the REST root the client talks to
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Host returns the device host (with port, if one was given)
func (c *Client) Host() string {
	return c.host
}

// Close releases idle connections held by the client's own transport.
// The client must not be used afterwards.
func (c *Client) Close() {
	if c.cache != nil {
		c.cache.invalidate()
	}
	if c.ownsTransport {
		c.httpClient.CloseIdleConnections()
	}
}

// readEnvelope is the device's GET response body. Data is a pointer so a
// missing field can be told apart from an empty string.
type readEnvelope struct {
	Data *string `json:"data"`
}

type writeEnvelope struct {
	Data string `json:"data"`
}

// Read fetches the raw hex payload of a register.
func (c *Client) Read(ctx context.Context, reg register.Address) (string, error) {
	if reg == "" {
		return "", fmt.Errorf("%w: empty register address", register.ErrUnsupported)
	}

	if c.cache != nil {
		if payload, ok := c.cache.get(reg); ok {
			return payload, nil
		}
	}

	payload, err := c.fetch(ctx, reg)
	if err != nil {
		return "", err
	}

	if c.cache != nil {
		c.cache.put(reg, payload)
	}

	return payload, nil
}

// fetch performs the GET without consulting or filling the read cache
func (c *Client) fetch(ctx context.Context, reg register.Address) (string, error) {
	body, err := c.do(ctx, http.MethodGet, reg, nil)
	if err != nil {
		return "", err
	}

	var env readEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return "", withRegister(NewParseError("failed to parse JSON response", err), reg)
	}
	if env.Data == nil {
		return "", withRegister(NewParseError("response has no data field", nil), reg)
	}

	return *env.Data, nil
}

// Write sends a hex payload to a register. The device answers with any 2xx
// status on success.
func (c *Client) Write(ctx context.Context, reg register.Address, value string) error {
	if reg == "" {
		return fmt.Errorf("%w: empty register address", register.ErrUnsupported)
	}

	payload, err := json.Marshal(writeEnvelope{Data: value})
	if err != nil {
		return withRegister(NewParseError("failed to encode request body", err), reg)
	}

	if _, err := c.do(ctx, http.MethodPost, reg, bytes.NewReader(payload)); err != nil {
		return err
	}

	if c.cache != nil {
		c.cache.invalidate()
	}
	return nil
}

// do performs one request and returns the response body of a 2xx answer.
// The response body is always drained and closed.
func (c *Client) do(ctx context.Context, method string, reg register.Address, body io.Reader) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+"/"+reg.String(), body)
	if err != nil {
		return nil, withRegister(NewNetworkError("failed to create request", err), reg)
	}

	req.SetBasicAuth(c.username, c.password)
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		logging.LogDeviceRequest(method, reg.String(), 0, time.Since(start))
		devErr := ClassifyNetworkError(err, c.host)
		devErr.Register = reg
		return nil, devErr
	}
	defer func() {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBody))
		_ = resp.Body.Close()
	}()

	logging.LogDeviceRequest(method, reg.String(), resp.StatusCode, time.Since(start))

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, withRegister(NewAuthError("authentication failed (check credentials)"), reg)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		msg := fmt.Sprintf("unexpected status code: %d", resp.StatusCode)
		if s := strings.TrimSpace(string(snippet)); s != "" {
			msg += ": " + s
		}
		return nil, withRegister(NewHTTPError(resp.StatusCode, msg), reg)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, withRegister(NewNetworkError("failed to read response body", err), reg)
	}

	return data, nil
}
