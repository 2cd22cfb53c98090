package nav

import (
	"path"
	"strings"
)

// History is a browser-style session history: a list of paths and a cursor.
// Push drops every entry after the cursor.
type History struct {
	entries []string
	index   int
}

// NewHistory creates a history holding the single entry initial.
func NewHistory(initial string) *History {
	return &History{entries: []string{Normalize(initial)}}
}

// Current returns the path under the cursor.
func (h *History) Current() string {
	return h.entries[h.index]
}

// Push appends p after the cursor and moves onto it.
func (h *History) Push(p string) {
	h.entries = append(h.entries[:h.index+1], Normalize(p))
	h.index++
}

// Replace overwrites the entry under the cursor.
func (h *History) Replace(p string) {
	h.entries[h.index] = Normalize(p)
}

// Back moves the cursor one entry back. It reports false at the first entry.
func (h *History) Back() bool {
	if h.index == 0 {
		return false
	}
	h.index--
	return true
}

// Forward moves the cursor one entry forward. It reports false at the last entry.
func (h *History) Forward() bool {
	if h.index >= len(h.entries)-1 {
		return false
	}
	h.index++
	return true
}

// Len returns the number of entries.
func (h *History) Len() int {
	return len(h.entries)
}

// Normalize reduces p to a clean absolute path. Query strings and fragments are dropped
// and an empty path becomes "/".
func Normalize(p string) string {
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	p = strings.TrimSpace(p)
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return path.Clean(p)
}
