package chat

import (
	"context"

	"watchparty/internal/app/nav"
	"watchparty/internal/app/poll"
	"watchparty/internal/app/storage"
	"watchparty/internal/pkg/errs"
)

// onEnter runs on the loop after the router made a view visible.
func (a *App) onEnter(e nav.Entry) {
	switch e.View.Kind {
	case nav.ViewSplash:
		a.loadRooms(e)
	case nav.ViewRoom:
		a.enterRoom(e)
	}
}

// loadRooms fetches the room list for a splash entry.
func (a *App) loadRooms(e nav.Entry) {
	ctx := a.ctx
	go func() {
		rooms, err := a.backend.Rooms(ctx)
		a.post(func() {
			if !a.router.IsCurrent(e) {
				return
			}
			if err != nil {
				a.logger.Warn().Err(err).Msg("Failed to fetch rooms.")
				a.renderer.Notice(errs.UserMessage(err))
				return
			}
			a.renderer.Rooms(rooms)
		})
	}()
}

// enterRoom fetches the room metadata and, if the room view is still current when it
// arrives, renders it and starts polling.
func (a *App) enterRoom(e nav.Entry) {
	ctx := a.ctx
	roomID := e.View.RoomID
	go func() {
		room, err := a.backend.Room(ctx, roomID)
		a.post(func() {
			if !a.router.IsCurrent(e) {
				a.logger.Debug().Int("room_id", roomID).Msg("Dropping metadata of a room that is no longer shown.")
				return
			}
			if err != nil {
				a.logger.Warn().Err(err).Int("room_id", roomID).Msg("Failed to enter room.")
				a.renderer.Notice(errs.UserMessage(err))
				return
			}
			a.renderer.RoomInfo(room)
			a.router.StartPolling(e)
		})
	}()
}

// onPollResult is the scheduler's sink. The session and view are checked again on the
// loop, since the scheduler may have been stopped while the result was queued.
func (a *App) onPollResult(res poll.Result) {
	a.post(func() {
		current := a.router.Current()
		if !a.poller.IsCurrent(res.Session) || !current.IsRoom() || current.RoomID != res.RoomID {
			a.metrics.StaleDiscards.Inc()
			return
		}
		a.renderer.Messages(res.RoomID, res.Messages)
	})
}

// WatchSession follows session changes made by other processes sharing the session file.
// When the signed-in identity changes the header is redrawn and the current path resolved
// again; a changed user name only redraws the header. It returns immediately if the store
// cannot be watched.
func (a *App) WatchSession(ctx context.Context) error {
	w, ok := a.session.Backend().(storage.Watcher)
	if !ok {
		return nil
	}

	return w.Watch(ctx, func() {
		a.post(a.syncSession)
	})
}

func (a *App) syncSession() {
	rec := a.session.Get()

	switch {
	case rec.AuthToken != a.authToken:
		a.logger.Info().Bool("logged_in", rec.LoggedIn()).Msg("Session changed by another process.")
		a.drawHeader()
		a.router.Reload()
	case rec.UserName != a.userName:
		a.drawHeader()
	}
}
