package api_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"watchparty/internal/app/api"
	"watchparty/internal/app/api/apitest"
	"watchparty/internal/pkg/errs"
	"watchparty/internal/pkg/limiter"
	"watchparty/internal/pkg/metrics"
)

func newClient(t *testing.T, baseURL string, token string) *api.Client {
	t.Helper()
	return api.New(api.Config{BaseURL: baseURL, Timeout: 2 * time.Second}, func() string { return token })
}

func TestClient_LoginAndSignup(t *testing.T) {
	backend := apitest.NewBackend()
	defer backend.Close()
	want := backend.AddUser("alice", "secret")

	c := newClient(t, backend.URL(), "")
	ctx := context.Background()

	got, err := c.Login(ctx, "alice", "secret")
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.True(t, got.Valid())

	_, err = c.Login(ctx, "alice", "wrong")
	assert.True(t, errs.Is(err, errs.ErrAuthenticationFailed), "got %v", err)

	_, err = c.Login(ctx, "", "")
	assert.True(t, errs.Is(err, errs.ErrRequestRejected), "got %v", err)

	anon, err := c.Signup(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, anon.APIKey)
	assert.Contains(t, anon.Name, "Unnamed User")
}

func TestClient_LoginErrorFieldOn200(t *testing.T) {
	r := chi.NewRouter()
	r.Post("/api/login", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"error":"Invalid credentials"}`))
	})
	srv := httptest.NewServer(r)
	defer srv.Close()

	_, err := newClient(t, srv.URL, "").Login(context.Background(), "a", "b")
	assert.True(t, errs.Is(err, errs.ErrAuthenticationFailed))
}

func TestClient_RoomsAndMessages(t *testing.T) {
	backend := apitest.NewBackend()
	defer backend.Close()
	me := backend.AddUser("bob", "pw")

	c := newClient(t, backend.URL(), me.APIKey)
	ctx := context.Background()

	created, err := c.CreateRoom(ctx)
	require.NoError(t, err)
	assert.Positive(t, created.ID)
	assert.Contains(t, created.Name, "Unnamed Room")

	rooms, err := c.Rooms(ctx)
	require.NoError(t, err)
	require.Len(t, rooms, 1)
	assert.Equal(t, created, rooms[0])

	require.NoError(t, c.RenameRoom(ctx, created.ID, "movie night"))
	room, err := c.Room(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "movie night", room.Name)

	msgs, err := c.Messages(ctx, created.ID)
	require.NoError(t, err)
	assert.NotNil(t, msgs)
	assert.Empty(t, msgs)

	require.NoError(t, c.PostMessage(ctx, created.ID, me.ID, "hello"))
	msgs, err = c.Messages(ctx, created.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "bob", msgs[0].Author)
	assert.Equal(t, "hello", msgs[0].Body)

	_, err = c.Room(ctx, 999)
	assert.True(t, errs.Is(err, errs.ErrRoomNotFound))
}

func TestClient_UserUpdates(t *testing.T) {
	backend := apitest.NewBackend()
	defer backend.Close()
	me := backend.AddUser("carol", "old")

	c := newClient(t, backend.URL(), me.APIKey)
	ctx := context.Background()

	require.NoError(t, c.UpdateUserName(ctx, "caroline"))
	require.NoError(t, c.UpdatePassword(ctx, "new"))

	_, pw, ok := backend.UserByName("caroline")
	require.True(t, ok)
	assert.Equal(t, "new", pw)

	err := c.UpdateUserName(ctx, "")
	assert.True(t, errs.Is(err, errs.ErrRequestRejected))
	assert.Contains(t, errs.UserMessage(err), "New username is required")
}

func TestClient_Forbidden(t *testing.T) {
	backend := apitest.NewBackend()
	defer backend.Close()

	_, err := newClient(t, backend.URL(), "").Rooms(context.Background())
	assert.True(t, errs.Is(err, errs.ErrForbidden))

	_, err = newClient(t, backend.URL(), "not-a-key").Rooms(context.Background())
	assert.True(t, errs.Is(err, errs.ErrForbidden))
}

func TestClient_AuthScheme(t *testing.T) {
	backend := apitest.NewBackend()
	defer backend.Close()
	me := backend.AddUser("dave", "pw")
	backend.SetAuthPrefix("Bearer")

	raw := newClient(t, backend.URL(), me.APIKey)
	_, err := raw.Rooms(context.Background())
	assert.True(t, errs.Is(err, errs.ErrForbidden))

	bearer := api.New(api.Config{BaseURL: backend.URL(), AuthScheme: "Bearer"}, func() string { return me.APIKey })
	_, err = bearer.Rooms(context.Background())
	assert.NoError(t, err)
}

func TestClient_Headers(t *testing.T) {
	var got http.Header
	r := chi.NewRouter()
	r.Post("/api/user/name", func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		w.WriteHeader(http.StatusOK)
	})
	srv := httptest.NewServer(r)
	defer srv.Close()

	require.NoError(t, newClient(t, srv.URL+"/", "k123").UpdateUserName(context.Background(), "x"))
	assert.Equal(t, "k123", got.Get("Authorization"))
	assert.Equal(t, "application/json", got.Get("Content-Type"))
	assert.Len(t, got.Get(api.RequestIDHeader), 36)
}

func TestClient_TransportErrors(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/api/rooms", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	})
	r.Get("/api/rooms/{id}/messages", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	srv := httptest.NewServer(r)

	c := newClient(t, srv.URL, "k")
	ctx := context.Background()

	_, err := c.Rooms(ctx)
	assert.True(t, errs.Is(err, errs.ErrBadResponse))
	assert.True(t, errs.IsTransient(err))

	_, err = c.Messages(ctx, 1)
	assert.True(t, errs.Is(err, errs.ErrServer))
	var ce *errs.CustomError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, http.StatusBadGateway, ce.Status)

	srv.Close()
	_, err = c.Messages(ctx, 1)
	assert.True(t, errs.Is(err, errs.ErrNetwork))
}

func TestClient_MetricsAndLimiter(t *testing.T) {
	backend := apitest.NewBackend()
	defer backend.Close()
	me := backend.AddUser("erin", "pw")

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	c := api.New(api.Config{
		BaseURL: backend.URL(),
		Limiter: limiter.NewKeyedLimiter(1000, 5),
		Metrics: m,
	}, func() string { return me.APIKey })

	ctx := context.Background()
	_, err := c.Rooms(ctx)
	require.NoError(t, err)
	_, err = c.Room(ctx, 42)
	require.Error(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.APIRequests.WithLabelValues("list_rooms", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.APIRequests.WithLabelValues("get_room", "2103")))

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = c.Rooms(cancelled)
	assert.True(t, errs.Is(err, errs.ErrNetwork))
}
