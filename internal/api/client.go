// Package api implements the HTTP request layer every backend call passes
// through: credential attachment, expiry and 401 handling, and error
// normalization.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/shezi1344/taskflow-cli/internal/errs"
	"github.com/shezi1344/taskflow-cli/internal/token"
)

// Invalidator tears down session state when the backend rejects the stored
// credential. The session manager registers itself here so that the request
// layer never writes to the token store directly.
type Invalidator interface {
	Invalidate(reason error)
}

// Intent tells the presentation layer where the user should be taken next.
// The request layer emits intents instead of navigating itself.
type Intent struct {
	Target string
}

// TargetSignIn is emitted when the session was torn down and the user must
// authenticate again.
const TargetSignIn = "/signin"

// Options shape a single request.
type Options struct {
	// Body is JSON-encoded and sent with a JSON content type.
	Body any
	// RawBody is sent as-is with no content type; mutually exclusive
	// with Body.
	RawBody io.Reader
	// Query is appended to the endpoint.
	Query url.Values
	// NoAuth skips credential handling entirely (sign-in, register, health).
	NoAuth bool
}

// Client is the single choke point for backend calls.
type Client struct {
	baseURL string
	httpc   *http.Client
	store   token.Store
	log     *zap.Logger

	mu          sync.Mutex
	invalidator Invalidator
	navigate    func(Intent)
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the structured logger; nil keeps the no-op default.
func WithLogger(log *zap.Logger) Option {
	return func(c *Client) {
		if log != nil {
			c.log = log
		}
	}
}

// WithHTTPClient overrides the transport, mainly for tests.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.httpc = h
		}
	}
}

// New constructs a Client for the given base URL. The store is read-only
// from the client's perspective.
func New(baseURL string, store token.Store, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   &http.Client{Timeout: 30 * time.Second},
		store:   store,
		log:     zap.NewNop(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// BaseURL returns the configured backend base URL.
func (c *Client) BaseURL() string { return c.baseURL }

// SetInvalidator registers the session teardown hook.
func (c *Client) SetInvalidator(inv Invalidator) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidator = inv
}

// OnNavigate registers the navigation-intent observer.
func (c *Client) OnNavigate(fn func(Intent)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.navigate = fn
}

// expireSession funnels credential rejection through the session manager and
// tells the presentation layer to move to sign-in.
func (c *Client) expireSession(reason error) {
	c.mu.Lock()
	inv, nav := c.invalidator, c.navigate
	c.mu.Unlock()
	if inv != nil {
		inv.Invalidate(reason)
	}
	if nav != nil {
		nav(Intent{Target: TargetSignIn})
	}
}

type errorBody struct {
	Detail string `json:"detail"`
}

// Do issues one request. Authenticated calls fail locally, with no network
// I/O, when no valid credential is stored. The caller owns the returned
// response body.
func (c *Client) Do(ctx context.Context, method, endpoint string, opt Options) (*http.Response, error) {
	reqID := uuid.Must(uuid.NewV4()).String()[:8]
	log := c.log.With(
		zap.String("req_id", reqID),
		zap.String("method", method),
		zap.String("endpoint", endpoint),
	)

	var bearer string
	if !opt.NoAuth {
		cred, _, ok := c.store.Load()
		if !ok {
			log.Debug("no stored credential")
			return nil, errs.New(errs.KindUnauthenticated,
				"authentication token not found; please sign in again")
		}
		if token.IsExpired(cred) {
			log.Info("stored credential expired")
			err := errs.New(errs.KindSessionExpired,
				"session expired; please sign in again")
			c.expireSession(err)
			return nil, err
		}
		bearer = cred
	}

	body, contentType, err := encodeBody(opt)
	if err != nil {
		return nil, errs.Wrap(errs.KindRequestFailed, "encode request body", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.buildURL(endpoint, opt.Query), body)
	if err != nil {
		return nil, errs.Wrap(errs.KindRequestFailed, "build request", err)
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	start := time.Now()
	resp, err := c.httpc.Do(req)
	if err != nil {
		host := req.URL.Host
		log.Warn("transport failure", zap.String("host", host), zap.Error(err))
		return nil, errs.Wrap(errs.KindNetworkUnavailable,
			fmt.Sprintf("network error: unable to connect to %s", host), err)
	}

	log.Debug("response",
		zap.Int("status", resp.StatusCode),
		zap.Duration("dur", time.Since(start)),
	)

	// A 401 on an authenticated call means the server rejected the stored
	// credential. On unauthenticated calls (sign-in itself) it is just a
	// failed request and carries the server's reason.
	if resp.StatusCode == http.StatusUnauthorized && !opt.NoAuth {
		drain(resp)
		err := errs.New(errs.KindUnauthorized,
			"unauthorized; please sign in again")
		c.expireSession(err)
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := readErrorDetail(resp)
		drain(resp)
		return nil, errs.New(errs.KindRequestFailed, msg)
	}
	return resp, nil
}

// DoJSON issues a request and decodes a 2xx JSON body into out. A 204 (or a
// nil out) is a no-content acknowledgment.
func (c *Client) DoJSON(ctx context.Context, method, endpoint string, opt Options, out any) error {
	resp, err := c.Do(ctx, method, endpoint, opt)
	if err != nil {
		return err
	}
	defer drain(resp)
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errs.Wrap(errs.KindRequestFailed, "decode response body", err)
	}
	return nil
}

// Health probes the backend's health endpoint without authentication.
func (c *Client) Health(ctx context.Context) error {
	return c.DoJSON(ctx, http.MethodGet, "/health", Options{NoAuth: true}, nil)
}

func (c *Client) buildURL(endpoint string, query url.Values) string {
	if !strings.HasPrefix(endpoint, "/") {
		endpoint = "/" + endpoint
	}
	u := c.baseURL + endpoint
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

func encodeBody(opt Options) (io.Reader, string, error) {
	if opt.RawBody != nil {
		return opt.RawBody, "", nil
	}
	if opt.Body == nil {
		return nil, "", nil
	}
	b, err := json.Marshal(opt.Body)
	if err != nil {
		return nil, "", err
	}
	return bytes.NewReader(b), "application/json", nil
}

// readErrorDetail extracts the server-supplied reason from a structured
// error body, falling back to the status line.
func readErrorDetail(resp *http.Response) string {
	var eb errorBody
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&eb); err == nil && eb.Detail != "" {
		return eb.Detail
	}
	return fmt.Sprintf("request failed: %s", resp.Status)
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<20))
	_ = resp.Body.Close()
}
