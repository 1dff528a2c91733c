// Package client is the Go API client for the room booking service. It owns
// a single session and its token lifecycle: login stores the access and
// refresh tokens in memory, a transport attaches the current access token to
// every request, and authentication failures are recovered through exactly
// one silent refresh followed by one resend of the original request.
// Concurrent refresh triggers coalesce into a single refresh call. Any
// refresh failure tears the session down; the caller must log in again.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// State names the session lifecycle phase the client is in.
type State string

// Session lifecycle states.
const (
	StateUnauthenticated State = "unauthenticated"
	StateAuthenticating  State = "authenticating"
	StateAuthenticated   State = "authenticated"
	StateRefreshing      State = "refreshing"
)

// refreshSkew is how long before the access token expiry the proactive
// refresh timer fires.
const refreshSkew = 30 * time.Second

// ErrNoSession indicates an operation that needs an active session ran
// without one.
var ErrNoSession = errors.New("no active session")

type session struct {
	user           User
	accessToken    string
	accessExpires  time.Time
	refreshToken   string
	refreshExpires time.Time
}

// Client talks to the booking API on behalf of one signed-in user.
type Client struct {
	baseURL string
	api     *http.Client
	plain   *http.Client
	store   SessionStore
	logger  *slog.Logger
	now     func() time.Time

	mu    sync.Mutex
	state State
	sess  session

	refreshGroup singleflight.Group

	timerMu      sync.Mutex
	refreshTimer *time.Timer
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client. Its transport becomes
// the base the token-attaching transport wraps.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.plain = httpClient
		}
	}
}

// WithSessionStore sets the durable session marker store.
func WithSessionStore(store SessionStore) Option {
	return func(c *Client) {
		c.store = store
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

// New builds a client for the API at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("base URL is required")
	}

	c := &Client{
		baseURL: baseURL,
		plain:   &http.Client{Timeout: 30 * time.Second},
		logger:  slog.Default(),
		now:     time.Now,
		state:   StateUnauthenticated,
	}
	for _, opt := range opts {
		opt(c)
	}

	base := c.plain.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	apiClient := *c.plain
	apiClient.Transport = &authTransport{client: c, base: base}
	c.api = &apiClient

	return c, nil
}

// State reports the current session lifecycle phase.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// CurrentUser returns the signed-in user, if any.
func (c *Client) CurrentUser() (User, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateAuthenticated && c.state != StateRefreshing {
		return User{}, false
	}
	return c.sess.user, true
}

// RefreshToken exposes the current refresh credential so an interactive
// caller can carry it into its next invocation. The client itself never
// persists it.
func (c *Client) RefreshToken() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sess.refreshToken, c.sess.refreshToken != ""
}

func (c *Client) accessToken() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sess.accessToken
}

type sessionPayload struct {
	AccessToken      string `json:"access_token"`
	AccessExpiresAt  string `json:"access_expires_at"`
	RefreshToken     string `json:"refresh_token"`
	RefreshExpiresAt string `json:"refresh_expires_at"`
	User             *User  `json:"user,omitempty"`
}

// Login authenticates with credentials. On success the client transitions to
// the authenticated state, persists the session marker and arms the
// proactive refresh timer. On failure the client stays unauthenticated and
// holds no token.
func (c *Client) Login(ctx context.Context, email, password string) (User, error) {
	c.setState(StateAuthenticating)

	payload := struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}{Email: strings.TrimSpace(email), Password: password}

	var result sessionPayload
	if err := c.postAuth(ctx, "/auth/login", payload, &result); err != nil {
		c.teardown("login failed")
		return User{}, fmt.Errorf("login: %w", err)
	}

	user := User{}
	if result.User != nil {
		user = *result.User
	}
	c.installSession(result, user)

	if c.store != nil {
		marker := SessionMarker{UserID: user.ID, Email: user.Email, Role: user.Role, SavedAt: c.now().UTC()}
		if err := c.store.Save(marker); err != nil {
			c.logger.Warn("failed to persist session marker", "error", err)
		}
	}

	c.logger.Info("logged in", "user_id", user.ID, "role", user.Role)
	return user, nil
}

// Restore resumes a previous session. It runs once at startup: when the
// persisted marker exists and a refresh credential is supplied, it performs
// a silent refresh to obtain a fresh access token. Without a marker or a
// credential there is nothing to resume and ErrNoSession is returned.
func (c *Client) Restore(ctx context.Context, refreshToken string) (User, error) {
	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		return User{}, ErrNoSession
	}
	if c.store == nil {
		return User{}, ErrNoSession
	}
	marker, err := c.store.Load()
	if err != nil {
		return User{}, fmt.Errorf("load session marker: %w", err)
	}
	if marker == nil {
		return User{}, ErrNoSession
	}

	c.mu.Lock()
	c.sess = session{
		user:         User{ID: marker.UserID, Email: marker.Email, Role: marker.Role},
		refreshToken: refreshToken,
	}
	c.state = StateRefreshing
	c.mu.Unlock()

	if err := c.silentRefresh(ctx); err != nil {
		return User{}, fmt.Errorf("restore session: %w", err)
	}

	c.mu.Lock()
	user := c.sess.user
	c.mu.Unlock()
	c.logger.Info("session restored", "user_id", user.ID)
	return user, nil
}

// Logout notifies the server to revoke the refresh credential, then clears
// local state unconditionally. A failed server call only logs a warning.
func (c *Client) Logout(ctx context.Context) {
	c.mu.Lock()
	refreshToken := c.sess.refreshToken
	c.mu.Unlock()

	if refreshToken != "" {
		payload := struct {
			RefreshToken string `json:"refresh_token"`
		}{RefreshToken: refreshToken}
		if err := c.postAuth(ctx, "/auth/logout", payload, nil); err != nil {
			c.logger.Warn("server-side logout failed", "error", err)
		}
	}

	c.teardown("logged out")
}

// Close stops the proactive refresh timer. The session itself is untouched.
func (c *Client) Close() {
	c.stopRefreshTimer()
}

// silentRefresh rotates the refresh token and installs a fresh access token.
// Concurrent callers coalesce into one refresh call and share its outcome.
// Any failure, network or rejection alike, tears the session down.
func (c *Client) silentRefresh(ctx context.Context) error {
	_, err, _ := c.refreshGroup.Do("refresh", func() (any, error) {
		return nil, c.refreshOnce(ctx)
	})
	return err
}

func (c *Client) refreshOnce(ctx context.Context) error {
	c.mu.Lock()
	refreshToken := c.sess.refreshToken
	if refreshToken == "" {
		c.mu.Unlock()
		c.teardown("refresh without credential")
		return ErrNoSession
	}
	c.state = StateRefreshing
	c.mu.Unlock()

	payload := struct {
		RefreshToken string `json:"refresh_token"`
	}{RefreshToken: refreshToken}

	var result sessionPayload
	if err := c.postAuth(ctx, "/auth/refresh-token", payload, &result); err != nil {
		c.teardown("refresh failed")
		return err
	}

	c.mu.Lock()
	user := c.sess.user
	c.mu.Unlock()
	c.installSession(result, user)
	c.logger.Debug("session refreshed", "user_id", user.ID)
	return nil
}

// installSession stores the token pair and re-arms the proactive refresh
// timer just before the access token expires.
func (c *Client) installSession(payload sessionPayload, user User) {
	accessExpires := parseServerTime(payload.AccessExpiresAt)
	refreshExpires := parseServerTime(payload.RefreshExpiresAt)

	c.mu.Lock()
	c.sess = session{
		user:           user,
		accessToken:    payload.AccessToken,
		accessExpires:  accessExpires,
		refreshToken:   payload.RefreshToken,
		refreshExpires: refreshExpires,
	}
	c.state = StateAuthenticated
	c.mu.Unlock()

	c.armRefreshTimer(accessExpires)
}

// teardown drops all session state and returns to unauthenticated. The
// marker file is cleared so the next start does not attempt a restore.
func (c *Client) teardown(reason string) {
	c.stopRefreshTimer()

	c.mu.Lock()
	hadSession := c.sess.accessToken != "" || c.sess.refreshToken != ""
	c.sess = session{}
	c.state = StateUnauthenticated
	c.mu.Unlock()

	if c.store != nil {
		if err := c.store.Clear(); err != nil {
			c.logger.Warn("failed to clear session marker", "error", err)
		}
	}
	if hadSession {
		c.logger.Info("session torn down", "reason", reason)
	}
}

func (c *Client) setState(state State) {
	c.mu.Lock()
	c.state = state
	c.mu.Unlock()
}

func (c *Client) armRefreshTimer(accessExpires time.Time) {
	if accessExpires.IsZero() {
		return
	}
	delay := accessExpires.Sub(c.now()) - refreshSkew
	if delay < time.Second {
		delay = time.Second
	}

	c.timerMu.Lock()
	defer c.timerMu.Unlock()
	if c.refreshTimer != nil {
		c.refreshTimer.Stop()
	}
	c.refreshTimer = time.AfterFunc(delay, func() {
		if err := c.silentRefresh(context.Background()); err != nil {
			c.logger.Warn("proactive refresh failed", "error", err)
		}
	})
}

func (c *Client) stopRefreshTimer() {
	c.timerMu.Lock()
	defer c.timerMu.Unlock()
	if c.refreshTimer != nil {
		c.refreshTimer.Stop()
		c.refreshTimer = nil
	}
}

// postAuth calls an auth endpoint with the plain HTTP client, outside the
// token-attaching transport and its retry round.
func (c *Client) postAuth(ctx context.Context, path string, body, out any) error {
	return c.send(ctx, c.plain, http.MethodPost, path, body, out)
}

// doJSON issues an authenticated API request through the refreshing
// transport.
func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	return c.send(ctx, c.api, method, path, body, out)
}

func (c *Client) send(ctx context.Context, httpClient *http.Client, method, path string, body, out any) error {
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	var req *http.Request
	var err error
	if reader != nil {
		req, err = http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	} else {
		req, err = http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	}
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer drainAndClose(resp.Body)

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil || resp.StatusCode == http.StatusNoContent {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		return nil
	}

	return decodeAPIError(resp)
}

func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}

	var body struct {
		ErrorCode   string            `json:"error_code"`
		Message     string            `json:"message"`
		Errors      map[string]string `json:"errors"`
		Violations  []string          `json:"violations"`
		ConflictIDs []string          `json:"conflicting_booking_ids"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil {
		if body.Message != "" {
			apiErr.Message = body.Message
		}
		apiErr.ErrorCode = body.ErrorCode
		apiErr.FieldErrors = body.Errors
		apiErr.Violations = body.Violations
		apiErr.ConflictIDs = body.ConflictIDs
	}
	return apiErr
}

func parseServerTime(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}
	parsed, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}
	}
	return parsed
}
