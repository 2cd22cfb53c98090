package chat

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"watchparty/internal/app/api"
	"watchparty/internal/app/api/apitest"
	"watchparty/internal/app/nav"
	"watchparty/internal/app/session"
	"watchparty/internal/app/storage"
	"watchparty/internal/pkg/errs"
	"watchparty/internal/view"
)

const (
	testPoll = 20 * time.Millisecond
	waitFor  = 2 * time.Second
	tick     = 5 * time.Millisecond
)

type harness struct {
	app     *App
	rec     *view.Recorder
	session *session.Store
	backend *apitest.Backend
	cancel  context.CancelFunc
	done    chan struct{}
}

func newHarness(t *testing.T, backend *apitest.Backend, store *session.Store, startPath string) *harness {
	t.Helper()

	client := api.New(api.Config{BaseURL: backend.URL(), Timeout: 2 * time.Second}, func() string {
		return store.Get().AuthToken
	})
	rec := view.NewRecorder()
	app := New(Config{
		Backend:      client,
		Session:      store,
		Renderer:     rec,
		PollInterval: testPoll,
		StartPath:    startPath,
	})

	ctx, cancel := context.WithCancel(context.Background())
	h := &harness{app: app, rec: rec, session: store, backend: backend, cancel: cancel, done: make(chan struct{})}
	go func() {
		_ = app.Run(ctx)
		close(h.done)
	}()
	t.Cleanup(h.stop)
	return h
}

func (h *harness) stop() {
	h.cancel()
	<-h.done
}

func (h *harness) waitView(t *testing.T, want nav.View) {
	t.Helper()
	require.Eventually(t, func() bool { return h.rec.LastView() == want }, waitFor, tick, "want view %s, have %s", want, h.rec.LastView())
}

func (h *harness) waitMessage(t *testing.T, roomID int, body string) {
	t.Helper()
	require.Eventually(t, func() bool {
		b, ok := h.rec.LastBatch()
		if !ok || b.RoomID != roomID {
			return false
		}
		for _, m := range b.Messages {
			if m.Body == body {
				return true
			}
		}
		return false
	}, waitFor, tick)
}

func newBackend(t *testing.T) *apitest.Backend {
	t.Helper()
	b := apitest.NewBackend()
	t.Cleanup(b.Close)
	return b
}

func memorySession() *session.Store {
	return session.NewStore(storage.NewMemoryStore())
}

func TestApp_RedirectAfterLogin(t *testing.T) {
	backend := newBackend(t)
	backend.AddUser("alice", "secret")
	roomID := backend.AddRoom("lobby")
	backend.AddMessage(roomID, "bob", "welcome")

	h := newHarness(t, backend, memorySession(), nav.RoomPath(roomID))
	h.waitView(t, nav.Login())

	redirect, ok := h.session.PendingRedirect()
	require.True(t, ok)
	assert.Equal(t, nav.RoomPath(roomID), redirect)

	require.NoError(t, h.app.Login(context.Background(), "alice", "secret"))

	h.waitView(t, nav.Room(roomID))
	h.waitMessage(t, roomID, "welcome")

	_, pending := h.session.PendingRedirect()
	assert.False(t, pending)
	assert.Equal(t, view.Header{LoggedIn: true, UserName: "alice"}, h.rec.LastHeader())
	assert.Equal(t, roomID, h.session.Get().CurrentRoomID)

	infos := h.rec.RoomInfos()
	require.NotEmpty(t, infos)
	assert.Equal(t, "lobby", infos[len(infos)-1].Name)
}

func TestApp_LoginFailure(t *testing.T) {
	backend := newBackend(t)
	backend.AddUser("alice", "secret")

	h := newHarness(t, backend, memorySession(), "/")
	h.waitView(t, nav.Login())

	err := h.app.Login(context.Background(), "alice", "nope")
	assert.True(t, errs.Is(err, errs.ErrAuthenticationFailed))
	assert.Eventually(t, func() bool { return h.rec.LoginFailures() == 1 }, waitFor, tick)
	assert.False(t, h.session.IsLoggedIn())
	assert.Equal(t, nav.Login(), h.rec.LastView())

	err = h.app.Login(context.Background(), "", "")
	assert.True(t, errs.Is(err, errs.ErrInvalidParams))
}

func TestApp_SignupShowsSplashWithRooms(t *testing.T) {
	backend := newBackend(t)
	backend.AddRoom("first")

	h := newHarness(t, backend, memorySession(), "/")
	require.NoError(t, h.app.Signup(context.Background()))

	h.waitView(t, nav.Splash())
	assert.True(t, h.session.IsLoggedIn())
	assert.Contains(t, h.rec.LastHeader().UserName, "Unnamed User")

	require.Eventually(t, func() bool { return len(h.rec.RoomLists()) > 0 }, waitFor, tick)
	lists := h.rec.RoomLists()
	assert.Equal(t, []api.Room{{ID: 1, Name: "first"}}, lists[len(lists)-1])
}

func TestApp_RoomSwitchStopsOldPolling(t *testing.T) {
	backend := newBackend(t)
	me := backend.AddUser("alice", "pw")
	one := backend.AddRoom("one")
	two := backend.AddRoom("two")

	store := memorySession()
	require.NoError(t, store.SetIdentity(me.APIKey, me.ID, me.Name))

	h := newHarness(t, backend, store, nav.RoomPath(one))
	require.Eventually(t, func() bool { return backend.MessageFetches(one) >= 2 }, waitFor, tick)

	require.NoError(t, h.app.Open(context.Background(), nav.RoomPath(two)))
	require.Eventually(t, func() bool { return backend.MessageFetches(two) >= 2 }, waitFor, tick)

	settled := backend.MessageFetches(one)
	time.Sleep(10 * testPoll)
	assert.Equal(t, settled, backend.MessageFetches(one), "room one was polled after the switch")

	require.Eventually(t, func() bool {
		b, ok := h.rec.LastBatch()
		return ok && b.RoomID == two
	}, waitFor, tick)

	state, err := h.app.Snapshot(context.Background())
	require.NoError(t, err)
	assert.True(t, state.Polling)
	assert.Equal(t, two, state.PollRoom)
	assert.Equal(t, "room", state.View)
	assert.Equal(t, nav.RoomPath(two), state.Path)
}

func TestApp_LeavingRoomBeforeMetadataArrives(t *testing.T) {
	backend := newBackend(t)
	me := backend.AddUser("alice", "pw")
	roomID := backend.AddRoom("slow")
	backend.SetRoomDelay(100 * time.Millisecond)

	store := memorySession()
	require.NoError(t, store.SetIdentity(me.APIKey, me.ID, me.Name))

	h := newHarness(t, backend, store, "/")
	h.waitView(t, nav.Splash())

	ctx := context.Background()
	require.NoError(t, h.app.Open(ctx, nav.RoomPath(roomID)))
	require.NoError(t, h.app.Open(ctx, "/profile"))

	time.Sleep(300 * time.Millisecond)
	assert.Zero(t, backend.MessageFetches(roomID))
	assert.Empty(t, h.rec.RoomInfos())
	assert.Equal(t, nav.Profile(), h.rec.LastView())
}

func TestApp_PostMessageThenRefresh(t *testing.T) {
	backend := newBackend(t)
	me := backend.AddUser("alice", "pw")
	roomID := backend.AddRoom("chat")

	store := memorySession()
	require.NoError(t, store.SetIdentity(me.APIKey, me.ID, me.Name))

	h := newHarness(t, backend, store, "/")
	ctx := context.Background()

	err := h.app.PostMessage(ctx, "too early")
	assert.True(t, errs.Is(err, errs.ErrNotInRoom))

	require.NoError(t, h.app.Open(ctx, nav.RoomPath(roomID)))
	h.waitView(t, nav.Room(roomID))

	require.NoError(t, h.app.PostMessage(ctx, "hello there"))
	h.waitMessage(t, roomID, "hello there")

	assert.True(t, errs.Is(h.app.PostMessage(ctx, "  "), errs.ErrInvalidParams))
}

func TestApp_RenameRoom(t *testing.T) {
	backend := newBackend(t)
	me := backend.AddUser("alice", "pw")
	roomID := backend.AddRoom("old name")

	store := memorySession()
	require.NoError(t, store.SetIdentity(me.APIKey, me.ID, me.Name))

	h := newHarness(t, backend, store, nav.RoomPath(roomID))
	require.Eventually(t, func() bool { return len(h.rec.RoomInfos()) == 1 }, waitFor, tick)

	require.NoError(t, h.app.RenameRoom(context.Background(), "new name"))
	require.Eventually(t, func() bool { return len(h.rec.RoomInfos()) == 2 }, waitFor, tick)
	assert.Equal(t, "new name", h.rec.RoomInfos()[1].Name)
	assert.Equal(t, "new name", backend.RoomName(roomID))
}

func TestApp_CreateRoomOpensIt(t *testing.T) {
	backend := newBackend(t)
	me := backend.AddUser("alice", "pw")

	store := memorySession()
	require.NoError(t, store.SetIdentity(me.APIKey, me.ID, me.Name))

	h := newHarness(t, backend, store, "/")
	id, err := h.app.CreateRoom(context.Background())
	require.NoError(t, err)

	h.waitView(t, nav.Room(id))
	require.Eventually(t, func() bool {
		b, ok := h.rec.LastBatch()
		return ok && b.RoomID == id && len(b.Messages) == 0
	}, waitFor, tick)
}

func TestApp_ProfileUpdates(t *testing.T) {
	backend := newBackend(t)
	me := backend.AddUser("alice", "pw")

	store := memorySession()
	require.NoError(t, store.SetIdentity(me.APIKey, me.ID, me.Name))

	h := newHarness(t, backend, store, "/profile")
	h.waitView(t, nav.Profile())
	ctx := context.Background()

	err := h.app.UpdatePassword(ctx, "one", "two")
	assert.True(t, errs.Is(err, errs.ErrPasswordMismatch))
	_, pw, _ := backend.UserByName("alice")
	assert.Equal(t, "pw", pw, "a mismatched repeat must not reach the backend")

	require.NoError(t, h.app.UpdatePassword(ctx, "better", "better"))
	_, pw, _ = backend.UserByName("alice")
	assert.Equal(t, "better", pw)

	require.NoError(t, h.app.UpdateUserName(ctx, "alicia"))
	assert.Equal(t, "alicia", store.Get().UserName)
	assert.Equal(t, view.Header{LoggedIn: true, UserName: "alicia"}, h.rec.LastHeader())
	assert.Equal(t, nav.Profile(), h.rec.LastView())
}

func TestApp_LogoutThenProfileShowsLogin(t *testing.T) {
	backend := newBackend(t)
	me := backend.AddUser("alice", "pw")

	store := memorySession()
	require.NoError(t, store.SetIdentity(me.APIKey, me.ID, me.Name))

	h := newHarness(t, backend, store, "/profile")
	h.waitView(t, nav.Profile())
	ctx := context.Background()

	require.NoError(t, h.app.Logout(ctx))
	assert.False(t, store.IsLoggedIn())
	assert.Equal(t, view.Header{}, h.rec.LastHeader())

	require.NoError(t, h.app.Open(ctx, "/profile"))
	assert.Equal(t, nav.Login(), h.rec.LastView())

	_, err := h.app.CreateRoom(ctx)
	assert.True(t, errs.Is(err, errs.ErrNotLoggedIn))
}

func TestApp_BackForward(t *testing.T) {
	backend := newBackend(t)
	me := backend.AddUser("alice", "pw")

	store := memorySession()
	require.NoError(t, store.SetIdentity(me.APIKey, me.ID, me.Name))

	h := newHarness(t, backend, store, "/")
	ctx := context.Background()

	require.NoError(t, h.app.Open(ctx, "/profile"))

	moved, err := h.app.Back(ctx)
	require.NoError(t, err)
	assert.True(t, moved)
	assert.Equal(t, nav.Splash(), h.rec.LastView())

	moved, err = h.app.Back(ctx)
	require.NoError(t, err)
	assert.False(t, moved)

	moved, err = h.app.Forward(ctx)
	require.NoError(t, err)
	assert.True(t, moved)
	assert.Equal(t, nav.Profile(), h.rec.LastView())
}

func TestApp_SessionChangedByAnotherProcess(t *testing.T) {
	backend := newBackend(t)
	me := backend.AddUser("alice", "pw")

	path := filepath.Join(t.TempDir(), "session.json")
	kv, err := storage.NewStore(storage.ServiceConfig{Path: path})
	require.NoError(t, err)
	other, err := storage.NewStore(storage.ServiceConfig{Path: path})
	require.NoError(t, err)

	h := newHarness(t, backend, session.NewStore(kv), "/")
	h.waitView(t, nav.Login())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, h.app.WatchSession(ctx))

	require.NoError(t, session.NewStore(other).SetIdentity(me.APIKey, me.ID, me.Name))

	h.waitView(t, nav.Splash())
	assert.Equal(t, view.Header{LoggedIn: true, UserName: "alice"}, h.rec.LastHeader())

	require.NoError(t, session.NewStore(other).Clear())
	h.waitView(t, nav.Login())
}

func TestApp_StoppedAppRejectsActions(t *testing.T) {
	backend := newBackend(t)
	h := newHarness(t, backend, memorySession(), "/")
	h.waitView(t, nav.Login())

	h.stop()

	assert.ErrorIs(t, h.app.Open(context.Background(), "/profile"), ErrStopped)
	_, err := h.app.Snapshot(context.Background())
	assert.ErrorIs(t, err, ErrStopped)
}
