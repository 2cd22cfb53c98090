package chat

import "context"

// State is a snapshot of the client for diagnostics.
type State struct {
	Path     string `json:"path"`
	View     string `json:"view"`
	RoomID   int    `json:"room_id,omitempty"`
	LoggedIn bool   `json:"logged_in"`
	UserName string `json:"user_name,omitempty"`
	Polling  bool   `json:"polling"`
	PollRoom int    `json:"poll_room,omitempty"`
}

// Snapshot returns the current state, read on the loop.
func (a *App) Snapshot(ctx context.Context) (State, error) {
	var s State
	err := a.call(ctx, func() error {
		cur := a.router.Current()
		rec := a.session.Get()

		s.Path = a.router.Path()
		s.View = cur.Kind.String()
		s.RoomID = cur.RoomID
		s.LoggedIn = rec.LoggedIn()
		s.UserName = rec.UserName
		s.PollRoom, s.Polling = a.poller.Active()
		return nil
	})
	return s, err
}
