/*
Package session holds the locally cached identity of the signed-in user.

The record is persisted in a storage.Store under the keys api_key, user_name, user_id
and current_room, plus the one-shot redirectAfterLogin path. Ids are stored as
decimal strings. Reading a missing or corrupted record yields the logged-out state;
it is never an error.
*/
package session

import (
	"strconv"

	"github.com/rs/zerolog"

	"watchparty/internal/app/storage"
	"watchparty/internal/pkg/errs"
	"watchparty/internal/pkg/logx"
)

// Persisted keys.
const (
	KeyAPIKey             = "api_key"
	KeyUserName           = "user_name"
	KeyUserID             = "user_id"
	KeyCurrentRoom        = "current_room"
	KeyRedirectAfterLogin = "redirectAfterLogin"
)

// DefaultRedirect is where a successful login lands when no redirect is pending.
const DefaultRedirect = "/"

// Record is a snapshot of the session.
// Fields other than AuthToken are meaningful only when AuthToken is non-empty.
type Record struct {
	AuthToken string
	UserID    int64
	UserName  string

	// CurrentRoomID is valid only when HasCurrentRoom is true.
	CurrentRoomID  int
	HasCurrentRoom bool
}

// LoggedIn reports whether the record carries an auth token.
func (r Record) LoggedIn() bool {
	return r.AuthToken != ""
}

// Store reads and writes the session record. It has no network or UI side effects.
type Store struct {
	kv     storage.Store
	logger zerolog.Logger
}

// NewStore wraps kv.
func NewStore(kv storage.Store) *Store {
	return &Store{
		kv:     kv,
		logger: logx.Component("session"),
	}
}

// Backend exposes the underlying key/value store.
func (s *Store) Backend() storage.Store {
	return s.kv
}

// Get returns the current record. Unparsable ids read as absent.
func (s *Store) Get() Record {
	var rec Record

	rec.AuthToken, _ = s.kv.Get(KeyAPIKey)
	rec.UserName, _ = s.kv.Get(KeyUserName)

	if v, ok := s.kv.Get(KeyUserID); ok {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			s.logger.Warn().Str("value", v).Msg("Ignoring unparsable user_id in session.")
		} else {
			rec.UserID = id
		}
	}

	if v, ok := s.kv.Get(KeyCurrentRoom); ok {
		id, err := strconv.Atoi(v)
		if err != nil {
			s.logger.Warn().Str("value", v).Msg("Ignoring unparsable current_room in session.")
		} else {
			rec.CurrentRoomID = id
			rec.HasCurrentRoom = true
		}
	}

	return rec
}

// IsLoggedIn reports whether a non-empty auth token is stored.
func (s *Store) IsLoggedIn() bool {
	token, ok := s.kv.Get(KeyAPIKey)
	return ok && token != ""
}

// SetIdentity overwrites the identity fields after a successful login or signup.
func (s *Store) SetIdentity(token string, userID int64, userName string) error {
	if err := s.kv.Set(KeyAPIKey, token); err != nil {
		return errs.NewError(errs.ErrSessionStorage, err)
	}
	if err := s.kv.Set(KeyUserName, userName); err != nil {
		return errs.NewError(errs.ErrSessionStorage, err)
	}
	if err := s.kv.Set(KeyUserID, strconv.FormatInt(userID, 10)); err != nil {
		return errs.NewError(errs.ErrSessionStorage, err)
	}

	s.logger.Info().Int64("user_id", userID).Str("user_name", userName).Msg("Session identity stored.")
	return nil
}

// SetUserName replaces the cached display name.
func (s *Store) SetUserName(userName string) error {
	if err := s.kv.Set(KeyUserName, userName); err != nil {
		return errs.NewError(errs.ErrSessionStorage, err)
	}
	return nil
}

// SetCurrentRoom records the room whose view was entered last.
func (s *Store) SetCurrentRoom(roomID int) error {
	if err := s.kv.Set(KeyCurrentRoom, strconv.Itoa(roomID)); err != nil {
		return errs.NewError(errs.ErrSessionStorage, err)
	}
	return nil
}

// Clear removes the whole record. A pending redirect is kept.
func (s *Store) Clear() error {
	if err := s.kv.Remove(KeyAPIKey, KeyUserName, KeyUserID, KeyCurrentRoom); err != nil {
		return errs.NewError(errs.ErrSessionStorage, err)
	}

	s.logger.Info().Msg("Session cleared.")
	return nil
}

// SetPendingRedirect remembers path as the destination to resume after login.
func (s *Store) SetPendingRedirect(path string) error {
	if err := s.kv.Set(KeyRedirectAfterLogin, path); err != nil {
		return errs.NewError(errs.ErrSessionStorage, err)
	}
	return nil
}

// PendingRedirect returns the stored redirect without consuming it.
func (s *Store) PendingRedirect() (string, bool) {
	v, ok := s.kv.Get(KeyRedirectAfterLogin)
	return v, ok && v != ""
}

// ConsumePendingRedirect returns the stored redirect, or DefaultRedirect, and clears it
// whether or not one was present.
func (s *Store) ConsumePendingRedirect() string {
	path, ok := s.PendingRedirect()
	if err := s.kv.Remove(KeyRedirectAfterLogin); err != nil {
		s.logger.Error().Err(err).Msg("Failed to clear pending redirect.")
	}
	if !ok {
		return DefaultRedirect
	}
	return path
}
