package view

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"watchparty/internal/app/api"
	"watchparty/internal/app/nav"
)

const loginFailedText = "Oops, that username and password don't match any of our users! Type `signup` to get a new account."

// Terminal writes views as plain text lines. It is safe for concurrent use.
type Terminal struct {
	mu  sync.Mutex
	out io.Writer

	header Header
	view   nav.View

	// lastMessages is the rendering of the last message list, so unchanged polls print nothing.
	lastMessages string
}

// NewTerminal creates a Terminal writing to out.
func NewTerminal(out io.Writer) *Terminal {
	return &Terminal{out: out}
}

// Show clears the previous view and prints the title of v.
func (t *Terminal) Show(v nav.View) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.view = v
	t.lastMessages = ""

	switch v.Kind {
	case nav.ViewSplash:
		t.printf("\n== Rooms ==\n")
	case nav.ViewLogin:
		t.printf("\n== Sign in ==\n  login <name> <password>   or   signup\n")
	case nav.ViewProfile:
		t.printf("\n== Profile: %s ==\n  name <new name> | password <new> <repeat> | logout\n", t.header.UserName)
	case nav.ViewRoom:
		t.printf("\n== Room %d ==\n  say <text> | rename <name>\n", v.RoomID)
	}
}

// Header prints the banner.
func (t *Terminal) Header(h Header) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.header = h
	if h.LoggedIn {
		t.printf("Welcome back, %s!\n", h.UserName)
		return
	}
	t.printf("Not signed in.\n")
}

// Rooms prints the room list, or a hint when it is empty.
func (t *Terminal) Rooms(rooms []api.Room) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(rooms) == 0 {
		t.printf("  No rooms yet. Type `create` to start one.\n")
		return
	}
	for _, r := range rooms {
		t.printf("  %d: %s   (open %s)\n", r.ID, r.Name, nav.RoomPath(r.ID))
	}
}

// RoomInfo prints the room name and its invite path.
func (t *Terminal) RoomInfo(room api.Room) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.printf("  %s   invite: %s\n", room.Name, nav.RoomPath(room.ID))
}

// Messages prints msgs when they differ from what was printed last.
func (t *Terminal) Messages(roomID int, msgs []api.Message) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.view.IsRoom() || t.view.RoomID != roomID {
		return
	}

	var b strings.Builder
	if len(msgs) == 0 {
		b.WriteString("  No messages yet.\n")
	}
	for _, m := range msgs {
		fmt.Fprintf(&b, "  %s: %s\n", m.Author, m.Body)
	}

	rendered := b.String()
	if rendered == t.lastMessages {
		return
	}
	t.lastMessages = rendered
	t.printf("-- messages --\n%s", rendered)
}

// LoginFailed prints the login failure indicator.
func (t *Terminal) LoginFailed() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.printf("%s\n", loginFailedText)
}

// Notice prints msg.
func (t *Terminal) Notice(msg string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.printf("! %s\n", msg)
}

// Printf writes free-form output, serialized with the view output.
func (t *Terminal) Printf(format string, args ...any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.printf(format, args...)
}

func (t *Terminal) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(t.out, format, args...)
}
