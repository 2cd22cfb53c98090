package storage

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"watchparty/internal/pkg/logx"
)

// fileStore keeps the whole map in one JSON object file.
// Every read goes to disk so that writes made by other processes are always visible;
// every write replaces the file atomically (temp file + rename).
type fileStore struct {
	path string

	// mu serializes read-modify-write cycles within this process.
	mu sync.Mutex

	// lastDigest is the digest of the file contents this store last wrote or observed,
	// used to tell foreign changes from our own.
	lastDigest [sha256.Size]byte

	logger zerolog.Logger
}

func newFileStore(path string) (*fileStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create session directory: %w", err)
	}

	s := &fileStore{
		path:   path,
		logger: logx.Component("storage").With().Str("path", path).Logger(),
	}

	raw, _ := os.ReadFile(path)
	s.lastDigest = sha256.Sum256(raw)

	return s, nil
}

// load reads the file. Missing or corrupted files yield an empty map.
func (s *fileStore) load() map[string]string {
	data := make(map[string]string)

	raw, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.logger.Warn().Err(err).Msg("Session file unreadable, treating as empty.")
		}
		return data
	}

	if err := json.Unmarshal(raw, &data); err != nil {
		s.logger.Warn().Err(err).Msg("Session file corrupted, treating as empty.")
		return make(map[string]string)
	}

	return data
}

// save writes data to a temp file in the same directory and renames it over the target.
func (s *fileStore) save(data map[string]string) error {
	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".session-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp session file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp session file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("sync temp session file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp session file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("chmod temp session file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace session file: %w", err)
	}

	s.lastDigest = sha256.Sum256(raw)
	return nil
}

func (s *fileStore) Get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.load()[key]
	return v, ok
}

func (s *fileStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data := s.load()
	if cur, ok := data[key]; ok && cur == value {
		return nil
	}
	data[key] = value
	return s.save(data)
}

func (s *fileStore) Remove(keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data := s.load()
	changed := false
	for _, k := range keys {
		if _, ok := data[k]; ok {
			delete(data, k)
			changed = true
		}
	}
	if !changed {
		return nil
	}
	return s.save(data)
}

// Watch watches the directory holding the file, since atomic renames replace the inode
// a file watch would be attached to. Events whose resulting contents match what this
// store last wrote or observed are ignored.
func (s *fileStore) Watch(ctx context.Context, onChange func()) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create session watcher: %w", err)
	}

	if err := w.Add(filepath.Dir(s.path)); err != nil {
		w.Close()
		return fmt.Errorf("watch session directory: %w", err)
	}

	go func() {
		defer w.Close()

		target := filepath.Clean(s.path)

		for {
			select {
			case <-ctx.Done():
				return

			case event, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != target {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
					!event.Has(fsnotify.Rename) && !event.Has(fsnotify.Remove) {
					continue
				}
				if s.observe() {
					s.logger.Debug().Str("op", event.Op.String()).Msg("Session file changed by another process.")
					onChange()
				}

			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				s.logger.Warn().Err(err).Msg("Session watcher error.")
			}
		}
	}()

	return nil
}

// observe records the current file digest and reports whether it differs from the last one seen.
func (s *fileStore) observe() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, _ := os.ReadFile(s.path)
	digest := sha256.Sum256(raw)
	if digest == s.lastDigest {
		return false
	}
	s.lastDigest = digest
	return true
}
