/*
Package api is the HTTP client for the chat backend.

Every call is a JSON request/response exchange. Authenticated calls carry the session's
api key in the Authorization header. Failures are returned as *errs.CustomError values:
transport problems as ErrNetwork/ErrBadResponse/ErrServer, backend refusals by their
meaning (authentication, forbidden, not found, rejected).
*/
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
	"github.com/rs/zerolog"

	"watchparty/internal/app/user"
	"watchparty/internal/pkg/errs"
	"watchparty/internal/pkg/limiter"
	"watchparty/internal/pkg/logx"
	"watchparty/internal/pkg/metrics"
)

// maxResponseBytes caps how much of a response body is read.
const maxResponseBytes = 1 << 20

// RequestIDHeader carries a per-request correlation id.
const RequestIDHeader = "X-Request-ID"

// TokenSource returns the api key to send, or "" for anonymous calls.
type TokenSource func() string

// Config configures a Client.
type Config struct {
	// BaseURL is the backend origin, e.g. http://localhost:5000.
	BaseURL string

	// AuthScheme, when set, prefixes the api key in the Authorization header ("Bearer <key>").
	// The reference backend expects the bare key.
	AuthScheme string

	// Timeout bounds each request. Ignored when HTTPClient is set.
	Timeout time.Duration

	// HTTPClient overrides the transport.
	HTTPClient *http.Client

	// Limiter throttles outgoing requests per request class. Nil disables throttling.
	Limiter *limiter.KeyedLimiter

	// Metrics receives request counters. Nil uses unregistered collectors.
	Metrics *metrics.Metrics
}

// Client talks to the chat backend. It is safe for concurrent use.
type Client struct {
	baseURL    string
	authScheme string
	http       *http.Client
	token      TokenSource
	limiter    *limiter.KeyedLimiter
	metrics    *metrics.Metrics
	logger     zerolog.Logger
}

// New creates a Client. token is consulted on every request so that logins and logouts
// take effect immediately.
func New(cfg Config, token TokenSource) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	if token == nil {
		token = func() string { return "" }
	}

	m := cfg.Metrics
	if m == nil {
		m = metrics.Nop()
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		authScheme: cfg.AuthScheme,
		http:       httpClient,
		token:      token,
		limiter:    cfg.Limiter,
		metrics:    m,
		logger:     logx.Component("api"),
	}
}

// Login exchanges credentials for an identity. Rejected credentials yield ErrAuthenticationFailed.
func (c *Client) Login(ctx context.Context, userName, password string) (user.Identity, error) {
	var out identityResponse
	err := c.do(ctx, "login", limiter.KeyAction, http.MethodPost, "/api/login",
		loginRequest{UserName: userName, Password: password}, &out)
	if err != nil {
		return user.Identity{}, err
	}

	if out.Error != "" || out.APIKey == "" {
		return user.Identity{}, errs.NewError(errs.ErrAuthenticationFailed, errors.New(out.Error))
	}

	return user.Identity{ID: out.UserID, Name: out.UserName, APIKey: out.APIKey}, nil
}

// Signup creates an anonymous account and returns its identity.
func (c *Client) Signup(ctx context.Context) (user.Identity, error) {
	var out identityResponse
	if err := c.do(ctx, "signup", limiter.KeyAction, http.MethodPost, "/api/signup", nil, &out); err != nil {
		return user.Identity{}, err
	}

	if out.APIKey == "" {
		return user.Identity{}, errs.NewError(errs.ErrBadResponse, errors.New("signup response has no api_key"))
	}

	return user.Identity{ID: out.UserID, Name: out.UserName, APIKey: out.APIKey}, nil
}

// CreateRoom creates a room with a generated name.
func (c *Client) CreateRoom(ctx context.Context) (Room, error) {
	var out createdRoom
	if err := c.do(ctx, "create_room", limiter.KeyAction, http.MethodPost, "/api/rooms/new", nil, &out); err != nil {
		return Room{}, err
	}
	return Room{ID: out.ID, Name: out.Name}, nil
}

// Rooms lists the rooms visible to the user.
func (c *Client) Rooms(ctx context.Context) ([]Room, error) {
	var out []Room
	if err := c.do(ctx, "list_rooms", limiter.KeyAction, http.MethodGet, "/api/rooms", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Room returns the metadata of one room.
func (c *Client) Room(ctx context.Context, roomID int) (Room, error) {
	var out Room
	path := "/api/rooms/" + strconv.Itoa(roomID)
	if err := c.do(ctx, "get_room", limiter.KeyAction, http.MethodGet, path, nil, &out); err != nil {
		return Room{}, err
	}
	return out, nil
}

// RenameRoom changes the name of a room.
func (c *Client) RenameRoom(ctx context.Context, roomID int, name string) error {
	return c.do(ctx, "rename_room", limiter.KeyAction, http.MethodPost, "/api/rooms/name",
		renameRoomRequest{NewName: name, RoomID: roomID}, nil)
}

// Messages lists the messages of a room. It draws from the polling bucket.
func (c *Client) Messages(ctx context.Context, roomID int) ([]Message, error) {
	var out []Message
	path := fmt.Sprintf("/api/rooms/%d/messages", roomID)
	if err := c.do(ctx, "list_messages", limiter.KeyPoll, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []Message{}
	}
	return out, nil
}

// PostMessage posts body to a room as userID.
func (c *Client) PostMessage(ctx context.Context, roomID int, userID int64, body string) error {
	path := fmt.Sprintf("/api/rooms/%d/messages", roomID)
	return c.do(ctx, "post_message", limiter.KeyAction, http.MethodPost, path,
		postMessageRequest{Body: body, UserID: userID}, nil)
}

// UpdateUserName renames the signed-in user.
func (c *Client) UpdateUserName(ctx context.Context, name string) error {
	return c.do(ctx, "update_name", limiter.KeyAction, http.MethodPost, "/api/user/name",
		newNameRequest{NewName: name}, nil)
}

// UpdatePassword changes the signed-in user's password.
func (c *Client) UpdatePassword(ctx context.Context, password string) error {
	return c.do(ctx, "update_password", limiter.KeyAction, http.MethodPost, "/api/user/password",
		newPasswordRequest{NewPassword: password}, nil)
}

// do performs one request and decodes a 2xx body into out (when out is non-nil).
func (c *Client) do(ctx context.Context, endpoint, class, method, path string, in, out any) (err error) {
	requestID := uuid.NewString()
	logger := c.logger.With().
		Str("endpoint", endpoint).
		Str("request_id", requestID).
		Logger()

	start := time.Now()
	defer func() {
		outcome := "ok"
		if err != nil {
			outcome = strconv.Itoa(errs.CodeOf(err))
		}
		c.metrics.APIRequests.WithLabelValues(endpoint, outcome).Inc()

		event := logger.Debug()
		if err != nil {
			event = logger.Warn().Err(err)
		}
		event.Dur("latency", time.Since(start)).Msg("Backend request finished")
	}()

	if err := c.limiter.Wait(ctx, class); err != nil {
		return errs.NewError(errs.ErrNetwork, err)
	}

	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return errs.NewError(errs.ErrUnknown, err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return errs.NewError(errs.ErrUnknown, err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, requestID)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.token(); token != "" {
		if c.authScheme != "" {
			token = c.authScheme + " " + token
		}
		req.Header.Set("Authorization", token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return errs.NewError(errs.ErrNetwork, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return errs.NewError(errs.ErrNetwork, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(resp.StatusCode, raw)
	}

	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return errs.NewError(errs.ErrBadResponse, err)
	}

	return nil
}

// statusError maps a non-2xx response to a CustomError.
func statusError(status int, raw []byte) *errs.CustomError {
	var body errorResponse
	_ = json.Unmarshal(raw, &body)

	reason := body.Error
	if reason == "" {
		reason = http.StatusText(status)
	}
	cause := fmt.Errorf("HTTP %d: %s", status, reason)

	switch {
	case status == http.StatusUnauthorized:
		return errs.NewError(errs.ErrAuthenticationFailed, cause)
	case status == http.StatusForbidden:
		return errs.NewError(errs.ErrForbidden, cause)
	case status == http.StatusNotFound:
		return errs.NewError(errs.ErrRoomNotFound, cause)
	case status >= 500:
		return errs.NewError(errs.ErrServer, cause).WithStatus(status)
	default:
		return errs.NewError(errs.ErrRequestRejected, reason, cause).WithStatus(status)
	}
}
