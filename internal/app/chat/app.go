/*
Package chat contains the client's application controller.

This file defines the App struct, which owns the navigation router, the polling scheduler
and the session, and serializes every state change on a single event loop goroutine.
Network calls never run on the loop: they run on the caller's goroutine (user actions) or on
short-lived goroutines (view entry work), and post their results back to the loop.
*/
package chat

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"watchparty/internal/app/api"
	"watchparty/internal/app/nav"
	"watchparty/internal/app/poll"
	"watchparty/internal/app/session"
	"watchparty/internal/app/user"
	"watchparty/internal/pkg/logx"
	"watchparty/internal/pkg/metrics"
	"watchparty/internal/view"
)

// eventBuffer is the capacity of the event queue.
const eventBuffer = 256

// ErrStopped is returned by actions issued after the event loop has exited.
var ErrStopped = errors.New("chat: app stopped")

// Backend is the subset of the chat backend the App uses. *api.Client implements it.
type Backend interface {
	Login(ctx context.Context, userName, password string) (user.Identity, error)
	Signup(ctx context.Context) (user.Identity, error)
	CreateRoom(ctx context.Context) (api.Room, error)
	Rooms(ctx context.Context) ([]api.Room, error)
	Room(ctx context.Context, roomID int) (api.Room, error)
	RenameRoom(ctx context.Context, roomID int, name string) error
	Messages(ctx context.Context, roomID int) ([]api.Message, error)
	PostMessage(ctx context.Context, roomID int, userID int64, body string) error
	UpdateUserName(ctx context.Context, name string) error
	UpdatePassword(ctx context.Context, password string) error
}

// Config wires an App.
type Config struct {
	Backend  Backend
	Session  *session.Store
	Renderer view.Renderer
	Metrics  *metrics.Metrics

	// PollInterval is the message refresh period. Zero selects poll.DefaultInterval.
	PollInterval time.Duration

	// StartPath is resolved when the loop starts, like a page load. Empty means "/".
	StartPath string
}

// App is the client controller.
type App struct {
	backend  Backend
	session  *session.Store
	renderer view.Renderer
	metrics  *metrics.Metrics
	router   *nav.Router
	poller   *poll.Scheduler

	// events carries closures to run on the loop.
	events chan func()

	// done is closed when Run returns.
	done     chan struct{}
	doneOnce sync.Once

	// The fields below are owned by the loop.

	// ctx is the context of Run; background work started by the loop uses it.
	ctx context.Context

	// authToken and userName are what the header was last drawn for.
	authToken string
	userName  string

	logger zerolog.Logger
}

// New creates an App. Call Run to start it.
func New(cfg Config) *App {
	m := cfg.Metrics
	if m == nil {
		m = metrics.Nop()
	}

	startPath := cfg.StartPath
	if startPath == "" {
		startPath = "/"
	}

	a := &App{
		backend:  cfg.Backend,
		session:  cfg.Session,
		renderer: cfg.Renderer,
		metrics:  m,
		events:   make(chan func(), eventBuffer),
		done:     make(chan struct{}),
		ctx:      context.Background(),
		logger:   logx.Component("app"),
	}

	a.poller = poll.New(cfg.Backend.Messages, a.onPollResult, cfg.PollInterval, m)
	a.router = nav.NewRouter(nav.Config{
		Session: cfg.Session,
		Display: cfg.Renderer,
		Poller:  a.poller,
		History: nav.NewHistory(startPath),
		OnEnter: a.onEnter,
		Metrics: m,
	})

	return a
}

// Run resolves the start path and then processes events until ctx is done.
// On return polling has stopped and no further events are accepted.
func (a *App) Run(ctx context.Context) error {
	a.ctx = ctx

	defer func() {
		a.doneOnce.Do(func() { close(a.done) })
		a.router.Unload()
		a.poller.Close()
		a.logger.Info().Msg("Event loop stopped.")
	}()

	a.logger.Info().Str("path", a.router.History().Current()).Msg("Event loop started.")

	a.drawHeader()
	a.router.Reload()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case fn := <-a.events:
			fn()
		}
	}
}

// post queues fn for the loop. It reports false once the loop has exited.
func (a *App) post(fn func()) bool {
	select {
	case <-a.done:
		return false
	default:
	}

	select {
	case a.events <- fn:
		return true
	case <-a.done:
		return false
	}
}

// call runs fn on the loop and waits for its result.
func (a *App) call(ctx context.Context, fn func() error) error {
	result := make(chan error, 1)
	if !a.post(func() { result <- fn() }) {
		return ErrStopped
	}

	select {
	case err := <-result:
		return err
	case <-a.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// drawHeader redraws the banner from the session and remembers what it was drawn for.
func (a *App) drawHeader() {
	rec := a.session.Get()
	a.authToken = rec.AuthToken
	a.userName = rec.UserName
	a.renderer.Header(view.Header{LoggedIn: rec.LoggedIn(), UserName: rec.UserName})
}
