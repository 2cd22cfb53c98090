/*
Package storage provides the durable key/value store backing the client's session.

It plays the role a browser's local storage plays for a web client: string keys,
string values, local to one device, surviving process restarts.
*/
package storage

import "context"

// ServiceConfig holds the configuration required to open a store.
type ServiceConfig struct {
	// Path is the file holding the key/value map. Empty selects an in-memory store.
	Path string
}

// Store defines the public interface of a key/value store.
// Implementations are safe for concurrent use.
type Store interface {
	// Get returns the value stored under key. A missing key, or an unreadable or corrupted
	// backing file, reports ok == false.
	Get(key string) (value string, ok bool)

	// Set stores value under key. The write is durable when Set returns.
	Set(key, value string) error

	// Remove deletes the given keys. Missing keys are ignored.
	Remove(keys ...string) error
}

// Watcher is implemented by stores whose contents may be changed by another process.
type Watcher interface {
	// Watch calls onChange, from a background goroutine, whenever the contents are changed
	// by someone other than this store. It returns once watching is set up; watching stops with ctx.
	Watch(ctx context.Context, onChange func()) error
}

// NewStore is the factory function for Store.
// It returns a file-backed store when cfg.Path is set and an in-memory store otherwise.
func NewStore(cfg ServiceConfig) (Store, error) {
	if cfg.Path == "" {
		return NewMemoryStore(), nil
	}
	return newFileStore(cfg.Path)
}
