package nav

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"watchparty/internal/app/session"
	"watchparty/internal/pkg/logx"
	"watchparty/internal/pkg/metrics"
)

// Route patterns recognized by the Router.
const (
	PatternRoot    = "/"
	PatternLogin   = "/login"
	PatternProfile = "/profile"
	PatternRoom    = "/room/{id:[0-9]+}"
)

// Display is the render surface. Show replaces whatever view was visible with v;
// implementations must never leave two views visible at once.
type Display interface {
	Show(v View)
}

// Poller is the message polling scheduler as seen by the Router.
type Poller interface {
	Start(roomID int)
	Stop()
}

// Entry identifies one view entry. Seq increases on every entry, so asynchronous work
// started for an entry can check with IsCurrent that its view is still the visible one.
type Entry struct {
	View View
	Path string
	Seq  uint64
}

// Config wires a Router to its collaborators.
type Config struct {
	Session *session.Store
	Display Display
	Poller  Poller

	// History defaults to a history holding "/".
	History *History

	// OnEnter, if set, runs after a view became visible. Room entry work (metadata fetch,
	// then StartPolling) and splash entry work (room list) hang off it.
	OnEnter func(Entry)

	Metrics *metrics.Metrics
}

// Router is the sole authority mapping (path, session) to a View.
type Router struct {
	session *session.Store
	display Display
	poller  Poller
	history *History
	onEnter func(Entry)
	metrics *metrics.Metrics
	routes  *chi.Mux

	path    string
	current View
	seq     uint64

	logger zerolog.Logger
}

// NewRouter creates a Router. Nothing is shown until the first Resolve.
func NewRouter(cfg Config) *Router {
	h := cfg.History
	if h == nil {
		h = NewHistory("/")
	}

	m := cfg.Metrics
	if m == nil {
		m = metrics.Nop()
	}

	routes := chi.NewRouter()
	for _, pattern := range []string{PatternRoot, PatternLogin, PatternProfile, PatternRoom} {
		routes.Get(pattern, noopHandler)
	}

	return &Router{
		session: cfg.Session,
		display: cfg.Display,
		poller:  cfg.Poller,
		history: h,
		onEnter: cfg.OnEnter,
		metrics: m,
		routes:  routes,
		logger:  logx.Component("nav"),
	}
}

// Resolve shows the view for p given the current session state.
// Polling is stopped before any view change, so no tick of the previous room can render
// into the new view. Room entry restarts polling through StartPolling.
func (r *Router) Resolve(p string) View {
	p = Normalize(p)
	r.path = p

	loggedIn := r.session.IsLoggedIn()
	pattern, roomID, matched := r.match(p)

	switch {
	case pattern == PatternRoot:
		r.poller.Stop()
		if loggedIn {
			r.enter(Splash())
		} else {
			r.enter(Login())
		}

	case pattern == PatternLogin:
		r.poller.Stop()
		if loggedIn {
			r.history.Replace("/")
			return r.Resolve("/")
		}
		r.enter(Login())

	case pattern == PatternProfile:
		r.poller.Stop()
		if loggedIn {
			r.enter(Profile())
		} else {
			r.enter(Login())
		}

	case pattern == PatternRoom && matched && loggedIn:
		r.poller.Stop()
		if err := r.session.SetCurrentRoom(roomID); err != nil {
			r.logger.Error().Err(err).Int("room_id", roomID).Msg("Failed to persist current room.")
		}
		r.enter(Room(roomID))

	default:
		// Unknown paths, malformed room ids and protected paths while signed out.
		r.poller.Stop()
		if err := r.session.SetPendingRedirect(p); err != nil {
			r.logger.Error().Err(err).Str("path", p).Msg("Failed to store pending redirect.")
		}
		r.enter(Login())
	}

	return r.current
}

// Navigate pushes p onto the history and resolves it.
func (r *Router) Navigate(p string) View {
	r.history.Push(p)
	return r.Resolve(r.history.Current())
}

// Replace overwrites the current history entry with p and resolves it.
func (r *Router) Replace(p string) View {
	r.history.Replace(p)
	return r.Resolve(r.history.Current())
}

// Back moves one history entry back and resolves it. It reports false, and changes
// nothing, at the first entry.
func (r *Router) Back() bool {
	if !r.history.Back() {
		return false
	}
	r.Resolve(r.history.Current())
	return true
}

// Forward moves one history entry forward and resolves it.
func (r *Router) Forward() bool {
	if !r.history.Forward() {
		return false
	}
	r.Resolve(r.history.Current())
	return true
}

// Reload resolves the current history entry again.
func (r *Router) Reload() View {
	return r.Resolve(r.history.Current())
}

// LoginSucceeded consumes the pending redirect, defaulting to "/", and navigates there.
func (r *Router) LoginSucceeded() View {
	return r.Navigate(r.session.ConsumePendingRedirect())
}

// StartPolling starts polling for the room of e, provided e is still the current entry.
func (r *Router) StartPolling(e Entry) bool {
	if !r.IsCurrent(e) || !e.View.IsRoom() {
		return false
	}
	r.poller.Start(e.View.RoomID)
	return true
}

// Unload stops polling. It is called when the client shuts down.
func (r *Router) Unload() {
	r.poller.Stop()
}

// IsCurrent reports whether e is the most recent view entry.
func (r *Router) IsCurrent(e Entry) bool {
	return e.Seq == r.seq && e.Seq != 0
}

// Current returns the visible view.
func (r *Router) Current() View {
	return r.current
}

// Path returns the last resolved path.
func (r *Router) Path() string {
	return r.path
}

// History exposes the URL history.
func (r *Router) History() *History {
	return r.history
}

func (r *Router) enter(v View) {
	r.seq++
	r.current = v
	r.display.Show(v)
	r.metrics.ViewEntries.WithLabelValues(v.Kind.String()).Inc()

	r.logger.Debug().
		Str("path", r.path).
		Stringer("view", v).
		Uint64("seq", r.seq).
		Msg("View entered.")

	if r.onEnter != nil {
		r.onEnter(Entry{View: v, Path: r.path, Seq: r.seq})
	}
}

// match looks p up in the route table. For the room route it also parses the id;
// matched is false when the id does not fit in an int.
func (r *Router) match(p string) (pattern string, roomID int, matched bool) {
	rctx := chi.NewRouteContext()
	if !r.routes.Match(rctx, http.MethodGet, p) {
		return "", 0, false
	}

	pattern = rctx.RoutePattern()
	if pattern != PatternRoom {
		return pattern, 0, true
	}

	id, err := strconv.Atoi(rctx.URLParam("id"))
	if err != nil {
		r.logger.Warn().Str("path", p).Msg("Room id out of range.")
		return pattern, 0, false
	}
	return pattern, id, true
}

// noopHandler fills the route table; routes are matched, never served.
func noopHandler(http.ResponseWriter, *http.Request) {}
