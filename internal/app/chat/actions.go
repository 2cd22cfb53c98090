package chat

import (
	"context"
	"strings"

	"watchparty/internal/app/nav"
	"watchparty/internal/pkg/errs"
)

// Login authenticates and, on success, resumes the pending redirect.
// A rejected login shows the failure indicator and leaves the session untouched.
func (a *App) Login(ctx context.Context, userName, password string) error {
	if strings.TrimSpace(userName) == "" || password == "" {
		return errs.NewError(errs.ErrInvalidParams)
	}

	id, err := a.backend.Login(ctx, userName, password)
	if err != nil {
		a.logger.Warn().Err(err).Str("user_name", userName).Msg("Login failed.")
		a.post(a.renderer.LoginFailed)
		return err
	}

	return a.call(ctx, func() error {
		if err := a.session.SetIdentity(id.APIKey, id.ID, id.Name); err != nil {
			return err
		}
		a.drawHeader()
		a.router.LoginSucceeded()
		return nil
	})
}

// Signup creates an anonymous account, signs in with it and goes to "/".
func (a *App) Signup(ctx context.Context) error {
	id, err := a.backend.Signup(ctx)
	if err != nil {
		a.logger.Warn().Err(err).Msg("Signup failed.")
		return err
	}

	return a.call(ctx, func() error {
		if err := a.session.SetIdentity(id.APIKey, id.ID, id.Name); err != nil {
			return err
		}
		a.drawHeader()
		a.router.Navigate("/")
		return nil
	})
}

// Logout clears the session and goes to "/".
func (a *App) Logout(ctx context.Context) error {
	return a.call(ctx, func() error {
		if err := a.session.Clear(); err != nil {
			return err
		}
		a.drawHeader()
		a.router.Navigate("/")
		return nil
	})
}

// CreateRoom creates a room and opens it.
func (a *App) CreateRoom(ctx context.Context) (int, error) {
	if err := a.requireLogin(ctx); err != nil {
		return 0, err
	}

	room, err := a.backend.CreateRoom(ctx)
	if err != nil {
		a.logger.Warn().Err(err).Msg("Failed to create room.")
		return 0, err
	}

	return room.ID, a.call(ctx, func() error {
		a.router.Navigate(nav.RoomPath(room.ID))
		return nil
	})
}

// ListRooms fetches the room list and shows it.
func (a *App) ListRooms(ctx context.Context) error {
	if err := a.requireLogin(ctx); err != nil {
		return err
	}

	rooms, err := a.backend.Rooms(ctx)
	if err != nil {
		return err
	}

	a.post(func() { a.renderer.Rooms(rooms) })
	return nil
}

// PostMessage posts body to the open room, then refreshes the messages once the post
// has been accepted.
func (a *App) PostMessage(ctx context.Context, body string) error {
	if strings.TrimSpace(body) == "" {
		return errs.NewError(errs.ErrInvalidParams)
	}

	roomID, userID, err := a.openRoom(ctx)
	if err != nil {
		return err
	}

	if err := a.backend.PostMessage(ctx, roomID, userID, body); err != nil {
		a.logger.Warn().Err(err).Int("room_id", roomID).Msg("Failed to post message.")
		return err
	}

	return a.call(ctx, func() error {
		a.poller.Refresh()
		return nil
	})
}

// RenameRoom renames the open room and enters it again to show the new name.
func (a *App) RenameRoom(ctx context.Context, name string) error {
	if strings.TrimSpace(name) == "" {
		return errs.NewError(errs.ErrInvalidParams)
	}

	roomID, _, err := a.openRoom(ctx)
	if err != nil {
		return err
	}

	if err := a.backend.RenameRoom(ctx, roomID, name); err != nil {
		a.logger.Warn().Err(err).Int("room_id", roomID).Msg("Failed to rename room.")
		return err
	}

	return a.call(ctx, func() error {
		if cur := a.router.Current(); cur.IsRoom() && cur.RoomID == roomID {
			a.router.Reload()
		}
		return nil
	})
}

// UpdateUserName renames the signed-in user and reloads.
func (a *App) UpdateUserName(ctx context.Context, name string) error {
	if strings.TrimSpace(name) == "" {
		return errs.NewError(errs.ErrInvalidParams)
	}
	if err := a.requireLogin(ctx); err != nil {
		return err
	}

	if err := a.backend.UpdateUserName(ctx, name); err != nil {
		a.logger.Warn().Err(err).Msg("Failed to update user name.")
		return err
	}

	return a.call(ctx, func() error {
		if err := a.session.SetUserName(name); err != nil {
			return err
		}
		a.reload()
		return nil
	})
}

// UpdatePassword changes the password. A repeat that does not match is rejected
// before any request is made.
func (a *App) UpdatePassword(ctx context.Context, password, repeat string) error {
	if password == "" {
		return errs.NewError(errs.ErrInvalidParams)
	}
	if password != repeat {
		return errs.NewError(errs.ErrPasswordMismatch)
	}
	if err := a.requireLogin(ctx); err != nil {
		return err
	}

	if err := a.backend.UpdatePassword(ctx, password); err != nil {
		a.logger.Warn().Err(err).Msg("Failed to update password.")
		return err
	}

	return a.call(ctx, func() error {
		a.reload()
		return nil
	})
}

// Open navigates to path.
func (a *App) Open(ctx context.Context, path string) error {
	return a.call(ctx, func() error {
		a.router.Navigate(path)
		return nil
	})
}

// Back goes one history entry back. It reports false at the first entry.
func (a *App) Back(ctx context.Context) (bool, error) {
	var moved bool
	err := a.call(ctx, func() error {
		moved = a.router.Back()
		return nil
	})
	return moved, err
}

// Forward goes one history entry forward.
func (a *App) Forward(ctx context.Context) (bool, error) {
	var moved bool
	err := a.call(ctx, func() error {
		moved = a.router.Forward()
		return nil
	})
	return moved, err
}

// Reload redraws the header and resolves the current path again.
func (a *App) Reload(ctx context.Context) error {
	return a.call(ctx, func() error {
		a.reload()
		return nil
	})
}

func (a *App) reload() {
	a.drawHeader()
	a.router.Reload()
}

func (a *App) requireLogin(ctx context.Context) error {
	return a.call(ctx, func() error {
		if !a.session.IsLoggedIn() {
			return errs.NewError(errs.ErrNotLoggedIn)
		}
		return nil
	})
}

// openRoom returns the room of the visible room view and the signed-in user id.
func (a *App) openRoom(ctx context.Context) (roomID int, userID int64, err error) {
	err = a.call(ctx, func() error {
		if !a.session.IsLoggedIn() {
			return errs.NewError(errs.ErrNotLoggedIn)
		}
		cur := a.router.Current()
		if !cur.IsRoom() {
			return errs.NewError(errs.ErrNotInRoom)
		}
		roomID = cur.RoomID
		userID = a.session.Get().UserID
		return nil
	})
	return roomID, userID, err
}
