// Package stopfinder speaks the Transfinder Stopfinder API: tenant discovery,
// password-grant authentication, the apiversions client-id lookup and the
// student schedule query, including normalization of the schedule payload.
package stopfinder

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/tls"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/busmind/stopfinder-cli/internal/domain"
	"github.com/busmind/stopfinder-cli/internal/ports"
	"github.com/rs/zerolog"
)

const (
	apiVersion    = "1.1"
	appVersion    = "3.1.0"
	discoveryPath = "/$xcom/getStopfinder.asp?/email=test"

	// Upstream only accepts requests that look like the mobile app.
	userAgent = "Mozilla/5.0 (Linux; Android 10; K) " +
		"AppleWebKit/537.36 (KHTML, like Gecko) " +
		"Chrome/124.0.0.0 Mobile Safari/537.36"

	maxResponseBytes      = 1 << 20
	defaultScheduleWindow = 7 * 24 * time.Hour
	dateLayout            = "2006-01-02"
)

// Client drives one upstream session: it owns the discovered service root,
// the bearer token and the client id. It is meant to be driven serially by a
// single caller; requests are strictly sequential and there is no internal
// locking.
type Client struct {
	baseURL  string
	username string
	password string

	httpClient     *http.Client
	requestTimeout time.Duration
	clock          ports.Clock
	logger         zerolog.Logger

	// Session state. serviceRoot is discovered once and reused for the
	// lifetime of the client; only the token is refreshed on staleness.
	serviceRoot string
	token       string
	clientID    string
}

var _ ports.ScheduleSource = (*Client)(nil)

type Options struct {
	HTTPClient     *http.Client
	RequestTimeout time.Duration
	Clock          ports.Clock
	Logger         zerolog.Logger
}

func New(baseURL, username, password string, opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = NewInsecureHTTPClient()
	}
	clock := opts.Clock
	if clock == nil {
		clock = ports.SystemClock{}
	}

	return &Client{
		baseURL:        strings.TrimRight(baseURL, "/"),
		username:       username,
		password:       password,
		httpClient:     httpClient,
		requestTimeout: opts.RequestTimeout,
		clock:          clock,
		logger:         opts.Logger,
	}
}

// NewInsecureHTTPClient returns the transport used against Stopfinder
// tenants. Certificate verification is disabled on purpose: districts run the
// service behind self-signed or otherwise broken certificates, and the mobile
// app ships with verification turned off as well.
func NewInsecureHTTPClient() *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true}, //nolint:gosec
		},
	}
}

func (c *Client) headers(includeToken bool) http.Header {
	h := http.Header{}
	h.Set("User-Agent", userAgent)
	h.Set("Accept", "application/json, text/plain, */*")
	h.Set("Accept-Encoding", "gzip, deflate, br")
	h.Set("Accept-Language", "en-US,en;q=0.9")
	h.Set("Origin", "file://")
	h.Set("X-Requested-With", "com.transfinder.stopfinder")
	h.Set("X-StopfinderApp-Version", appVersion)
	if includeToken && c.token != "" {
		h.Set("Token", c.token)
	}

	return h
}

// discoverServiceRoot resolves the tenant-specific API root. Two response
// shapes have been observed in the wild: a plain-text body that is the URL
// itself, and a JSON object carrying it in sfApiUri. Both are accepted.
func (c *Client) discoverServiceRoot(ctx context.Context) (string, error) {
	endpoint := c.baseURL + discoveryPath
	c.logger.Debug().Str("url", endpoint).Msg("discovering service root")

	resp, err := c.get(ctx, endpoint, c.headers(false))
	if err != nil {
		return "", domain.NewConnectionError("connection error", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", domain.NewConnectionError(
			fmt.Sprintf("failed to get Stopfinder URL: %d", resp.StatusCode), nil)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", domain.NewConnectionError("read discovery response", err)
	}

	trimmed := strings.TrimSpace(string(body))
	if strings.HasPrefix(trimmed, "http") {
		c.logger.Debug().Str("service_root", trimmed).Msg("discovered service root")
		return trimmed, nil
	}

	var payload struct {
		SFAPIURI string `json:"sfApiUri"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.SFAPIURI != "" {
		c.logger.Debug().Str("service_root", payload.SFAPIURI).Msg("discovered service root")
		return payload.SFAPIURI, nil
	}

	return "", domain.NewConnectionError("invalid response from Stopfinder discovery", nil)
}

// authenticate runs the password grant against {root}/tokens and stores the
// returned bearer token. The device id is random per call and only serves the
// upstream device-binding field.
func (c *Client) authenticate(ctx context.Context) error {
	deviceID, err := newDeviceID()
	if err != nil {
		return fmt.Errorf("generate device id: %w", err)
	}

	payload := map[string]string{
		"grantType":    "password",
		"Username":     c.username,
		"Password":     c.password,
		"deviceId":     deviceID,
		"rfApiVersion": apiVersion,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode auth payload: %w", err)
	}

	endpoint := c.serviceRoot + "/tokens"
	c.logger.Debug().Str("username", c.username).Str("url", endpoint).Msg("authenticating")

	headers := c.headers(false)
	headers.Set("Content-Type", "application/json")
	resp, err := c.do(ctx, http.MethodPost, endpoint, bytes.NewReader(body), headers)
	if err != nil {
		return domain.NewConnectionError("connection error", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnauthorized {
		c.logger.Debug().Int("status", resp.StatusCode).Msg("authentication rejected")
		return domain.NewAuthError("invalid credentials", resp.StatusCode)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		c.logger.Debug().Int("status", resp.StatusCode).Msg("authentication failed")
		return domain.NewAuthError("authentication failed", resp.StatusCode)
	}

	var token struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&token); err != nil {
		return domain.NewAuthError(fmt.Sprintf("decode auth response: %v", err), 0)
	}
	if token.Token == "" {
		return domain.NewAuthError("no token in response", 0)
	}

	c.token = token.Token
	c.logger.Debug().Msg("authentication successful")
	return nil
}

// fetchClientID reads the client id off the first entry of the apiversions
// listing. Subsequent schedule queries are rejected without it.
func (c *Client) fetchClientID(ctx context.Context) error {
	endpoint := c.serviceRoot + "/systems/apiversions"
	c.logger.Debug().Str("url", endpoint).Msg("fetching client id")

	resp, err := c.get(ctx, endpoint, c.headers(true))
	if err != nil {
		return domain.NewConnectionError("connection error", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return domain.NewAPIError("failed to get API versions", resp.StatusCode)
	}

	var versions []struct {
		ClientID string `json:"clientId"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&versions); err != nil {
		return domain.NewAPIError(fmt.Sprintf("invalid API versions response: %v", err), 0)
	}
	if len(versions) == 0 {
		return domain.NewAPIError("invalid API versions response", 0)
	}

	c.clientID = versions[0].ClientID
	c.logger.Debug().Str("client_id", c.clientID).Msg("got client id")
	return nil
}

// EnsureAuthenticated discovers the service root when unset, then
// authenticates and fetches the client id. The chain always re-executes in
// full; the service root alone survives token refreshes.
func (c *Client) EnsureAuthenticated(ctx context.Context) error {
	if c.serviceRoot == "" {
		root, err := c.discoverServiceRoot(ctx)
		if err != nil {
			return err
		}
		c.serviceRoot = root
	}

	if err := c.authenticate(ctx); err != nil {
		return err
	}

	return c.fetchClientID(ctx)
}

// VerifyConnection reports whether the full auth chain succeeds. Upstream
// failures of any kind collapse to false; unexpected non-upstream errors
// do too, after being logged.
func (c *Client) VerifyConnection(ctx context.Context) bool {
	if err := c.EnsureAuthenticated(ctx); err != nil {
		if !domain.IsUpstreamError(err) {
			c.logger.Warn().Err(err).Msg("unexpected error verifying connection")
		}
		return false
	}

	return true
}

// Schedules fetches the normalized per-student schedules for the date range.
// A non-200 response is treated as a stale token: the token is cleared, the
// full auth chain re-runs and the identical query is retried exactly once.
func (c *Client) Schedules(ctx context.Context, start, end time.Time) ([]domain.Student, error) {
	if c.token == "" {
		c.logger.Debug().Msg("no token, authenticating first")
		if err := c.EnsureAuthenticated(ctx); err != nil {
			return nil, err
		}
	}
	if c.serviceRoot == "" {
		return nil, domain.NewAPIError("service root not set", 0)
	}

	if start.IsZero() {
		start = c.clock.Now()
	}
	if end.IsZero() {
		end = start.Add(defaultScheduleWindow)
	}

	endpoint := fmt.Sprintf("%s/students?dateStart=%s&dateEnd=%s",
		c.serviceRoot, start.Format(dateLayout), end.Format(dateLayout))
	c.logger.Debug().
		Str("date_start", start.Format(dateLayout)).
		Str("date_end", end.Format(dateLayout)).
		Msg("fetching schedules")

	students, staleToken, err := c.fetchSchedules(ctx, endpoint)
	if err == nil {
		return students, nil
	}
	if !staleToken {
		return nil, err
	}

	// The retry must run with a freshly obtained token attached; the stale
	// request is never interleaved with it.
	c.logger.Debug().Err(err).Msg("schedule request failed, re-authenticating")
	c.token = ""
	if err := c.EnsureAuthenticated(ctx); err != nil {
		return nil, err
	}

	students, _, err = c.fetchSchedules(ctx, endpoint)
	if err != nil {
		c.logger.Error().Err(err).Msg("schedule retry also failed")
		return nil, err
	}

	return students, nil
}

// fetchSchedules issues a single schedule query. staleToken reports whether
// the failure came from a non-200 status and therefore warrants the one
// re-authenticate-and-retry pass.
func (c *Client) fetchSchedules(ctx context.Context, endpoint string) ([]domain.Student, bool, error) {
	headers := c.headers(true)
	if c.clientID != "" {
		headers.Set("X-Client-Keys", c.clientID)
	}

	resp, err := c.get(ctx, endpoint, headers)
	if err != nil {
		return nil, false, domain.NewConnectionError("connection error", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, true, domain.NewAPIError("failed to get schedules", resp.StatusCode)
	}

	var days []scheduleDay
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&days); err != nil {
		return nil, false, domain.NewAPIError(fmt.Sprintf("invalid schedule response: %v", err), 0)
	}

	students := normalizeSchedules(days, c.logger)
	trips := 0
	for _, s := range students {
		trips += len(s.Trips)
	}
	c.logger.Debug().Int("students", len(students)).Int("trips", trips).Msg("fetched schedules")

	return students, false, nil
}

func (c *Client) get(ctx context.Context, endpoint string, headers http.Header) (*http.Response, error) {
	return c.do(ctx, http.MethodGet, endpoint, nil, headers)
}

func (c *Client) do(ctx context.Context, method, endpoint string, body io.Reader, headers http.Header) (*http.Response, error) {
	requestCtx, cancel := c.requestContext(ctx)

	req, err := http.NewRequestWithContext(requestCtx, method, endpoint, body)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("create %s request: %w", method, err)
	}
	req.Header = headers

	resp, err := c.httpClient.Do(req)
	if err != nil {
		cancel()
		return nil, err
	}

	resp.Body = &cancelReadCloser{ReadCloser: resp.Body, cancel: cancel}
	return resp, nil
}

func (c *Client) requestContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, hasDeadline := ctx.Deadline(); hasDeadline {
		return ctx, func() {}
	}

	requestTimeout := c.requestTimeout
	if requestTimeout <= 0 {
		requestTimeout = 30 * time.Second
	}

	return context.WithTimeout(ctx, requestTimeout)
}

type cancelReadCloser struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (r *cancelReadCloser) Close() error {
	err := r.ReadCloser.Close()
	r.cancel()
	return err
}

func newDeviceID() (string, error) {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}

	return hex.EncodeToString(buf), nil
}
