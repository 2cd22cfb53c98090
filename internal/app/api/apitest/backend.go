/*
Package apitest provides an in-memory chat backend for tests.

It serves the same routes, payloads and status codes as the reference backend,
so clients can be exercised end to end over real HTTP.
*/
package apitest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"watchparty/internal/app/user"
)

type fakeUser struct {
	id       int64
	name     string
	password string
	apiKey   string
}

type fakeMessage struct {
	ID     int    `json:"id"`
	Author string `json:"author"`
	Body   string `json:"body"`
}

// Backend is a fake chat backend bound to an httptest.Server.
type Backend struct {
	server *httptest.Server

	mu         sync.Mutex
	users      map[string]*fakeUser
	rooms      map[int]string
	messages   map[int][]fakeMessage
	fetches    map[int]int
	nextUserID int64
	nextRoomID int
	nextMsgID  int

	// failMessages makes GET /api/rooms/{id}/messages answer 500.
	failMessages bool

	// messageDelay is applied before answering GET /api/rooms/{id}/messages.
	messageDelay time.Duration

	// roomDelay is applied before answering GET /api/rooms/{id}.
	roomDelay time.Duration

	// authPrefix is stripped from the Authorization header before lookup.
	authPrefix string
}

// NewBackend starts a Backend. Call Close when done.
func NewBackend() *Backend {
	b := &Backend{
		users:    make(map[string]*fakeUser),
		rooms:    make(map[int]string),
		messages: make(map[int][]fakeMessage),
		fetches:  make(map[int]int),
	}
	b.server = httptest.NewServer(b.routes())
	return b
}

// URL is the backend's base URL.
func (b *Backend) URL() string {
	return b.server.URL
}

// Close shuts the server down.
func (b *Backend) Close() {
	b.server.CloseClientConnections()
	b.server.Close()
}

// AddUser registers a user and returns its identity.
func (b *Backend) AddUser(name, password string) user.Identity {
	b.mu.Lock()
	defer b.mu.Unlock()
	u := b.newUserLocked(name, password)
	return user.Identity{ID: u.id, Name: u.name, APIKey: u.apiKey}
}

// AddRoom creates a room and returns its id.
func (b *Backend) AddRoom(name string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextRoomID++
	b.rooms[b.nextRoomID] = name
	return b.nextRoomID
}

// AddMessage appends a message to a room.
func (b *Backend) AddMessage(roomID int, author, body string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextMsgID++
	b.messages[roomID] = append(b.messages[roomID], fakeMessage{ID: b.nextMsgID, Author: author, Body: body})
}

// RoomName returns the current name of a room.
func (b *Backend) RoomName(roomID int) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.rooms[roomID]
}

// UserByName returns the stored user with the given name.
func (b *Backend) UserByName(name string) (user.Identity, string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, u := range b.users {
		if u.name == name {
			return user.Identity{ID: u.id, Name: u.name, APIKey: u.apiKey}, u.password, true
		}
	}
	return user.Identity{}, "", false
}

// MessageFetches returns how many times the messages of roomID were listed.
func (b *Backend) MessageFetches(roomID int) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.fetches[roomID]
}

// SetFailMessages toggles 500 responses for message listing.
func (b *Backend) SetFailMessages(fail bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failMessages = fail
}

// SetMessageDelay delays message listing responses.
func (b *Backend) SetMessageDelay(d time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.messageDelay = d
}

// SetRoomDelay delays room metadata responses.
func (b *Backend) SetRoomDelay(d time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.roomDelay = d
}

// SetAuthPrefix makes the backend expect "<prefix> <key>" in the Authorization header.
func (b *Backend) SetAuthPrefix(prefix string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.authPrefix = prefix
}

func (b *Backend) newUserLocked(name, password string) *fakeUser {
	b.nextUserID++
	u := &fakeUser{
		id:       b.nextUserID,
		name:     name,
		password: password,
		apiKey:   strings.ReplaceAll(uuid.NewString(), "-", ""),
	}
	b.users[u.apiKey] = u
	return u
}

func (b *Backend) routes() http.Handler {
	r := chi.NewRouter()

	r.Post("/api/signup", b.handleSignup)
	r.Post("/api/login", b.handleLogin)

	r.Group(func(authed chi.Router) {
		authed.Use(b.requireAPIKey)

		authed.Post("/api/user/name", b.handleUpdateName)
		authed.Post("/api/user/password", b.handleUpdatePassword)
		authed.Post("/api/rooms/new", b.handleCreateRoom)
		authed.Get("/api/rooms", b.handleListRooms)
		authed.Post("/api/rooms/name", b.handleRenameRoom)
		authed.Get("/api/rooms/{roomID:[0-9]+}", b.handleGetRoom)
		authed.Get("/api/rooms/{roomID:[0-9]+}/messages", b.handleListMessages)
		authed.Post("/api/rooms/{roomID:[0-9]+}/messages", b.handlePostMessage)
	})

	return r
}

type ctxKey struct{}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (b *Backend) requireAPIKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get("Authorization")

		b.mu.Lock()
		prefix := b.authPrefix
		b.mu.Unlock()

		if prefix != "" {
			if !strings.HasPrefix(key, prefix+" ") {
				writeError(w, http.StatusForbidden, "API key required")
				return
			}
			key = strings.TrimPrefix(key, prefix+" ")
		}

		if key == "" {
			writeError(w, http.StatusForbidden, "API key required")
			return
		}

		b.mu.Lock()
		u, ok := b.users[key]
		b.mu.Unlock()
		if !ok {
			writeError(w, http.StatusForbidden, "Invalid API key")
			return
		}

		next.ServeHTTP(w, r.WithContext(contextWithUser(r, u)))
	})
}

func (b *Backend) handleSignup(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	u := b.newUserLocked(fmt.Sprintf("Unnamed User #%06d", b.nextUserID+1), "generated")
	b.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{"user_id": u.id, "user_name": u.name, "api_key": u.apiKey})
}

func (b *Backend) handleLogin(w http.ResponseWriter, r *http.Request) {
	var in struct {
		UserName string `json:"user_name"`
		Password string `json:"password"`
	}
	_ = json.NewDecoder(r.Body).Decode(&in)
	if in.UserName == "" || in.Password == "" {
		writeError(w, http.StatusBadRequest, "Username and password are required")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for _, u := range b.users {
		if u.name == in.UserName && u.password == in.Password {
			writeJSON(w, http.StatusOK, map[string]any{"user_id": u.id, "user_name": u.name, "api_key": u.apiKey})
			return
		}
	}
	writeError(w, http.StatusUnauthorized, "Invalid credentials")
}

func (b *Backend) handleUpdateName(w http.ResponseWriter, r *http.Request) {
	var in struct {
		NewName string `json:"new_name"`
	}
	_ = json.NewDecoder(r.Body).Decode(&in)
	if in.NewName == "" {
		writeError(w, http.StatusBadRequest, "New username is required")
		return
	}

	b.mu.Lock()
	userFrom(r).name = in.NewName
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]string{"message": "Username updated successfully"})
}

func (b *Backend) handleUpdatePassword(w http.ResponseWriter, r *http.Request) {
	var in struct {
		NewPassword string `json:"new_password"`
	}
	_ = json.NewDecoder(r.Body).Decode(&in)
	if in.NewPassword == "" {
		writeError(w, http.StatusBadRequest, "New password is required")
		return
	}

	b.mu.Lock()
	userFrom(r).password = in.NewPassword
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]string{"message": "Password updated successfully"})
}

func (b *Backend) handleCreateRoom(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	b.nextRoomID++
	id := b.nextRoomID
	name := fmt.Sprintf("Unnamed Room %06d", id)
	b.rooms[id] = name
	b.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{"id": id, "name": name})
}

func (b *Backend) handleListRooms(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	list := make([]map[string]any, 0, len(b.rooms))
	for id := 1; id <= b.nextRoomID; id++ {
		if name, ok := b.rooms[id]; ok {
			list = append(list, map[string]any{"room_id": id, "room_name": name})
		}
	}
	writeJSON(w, http.StatusOK, list)
}

func (b *Backend) handleRenameRoom(w http.ResponseWriter, r *http.Request) {
	var in struct {
		NewName string `json:"new_name"`
		RoomID  int    `json:"room_id"`
	}
	_ = json.NewDecoder(r.Body).Decode(&in)
	if in.NewName == "" || in.RoomID == 0 {
		writeError(w, http.StatusBadRequest, "New room name and room ID are required")
		return
	}

	b.mu.Lock()
	if _, ok := b.rooms[in.RoomID]; ok {
		b.rooms[in.RoomID] = in.NewName
	}
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]string{"message": "Room name updated successfully"})
}

func (b *Backend) handleGetRoom(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(chi.URLParam(r, "roomID"))

	b.mu.Lock()
	delay := b.roomDelay
	name, ok := b.rooms[id]
	b.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}

	if !ok {
		writeError(w, http.StatusNotFound, "Room not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"room_id": id, "room_name": name})
}

func (b *Backend) handleListMessages(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(chi.URLParam(r, "roomID"))

	b.mu.Lock()
	b.fetches[id]++
	fail := b.failMessages
	delay := b.messageDelay
	list := append([]fakeMessage{}, b.messages[id]...)
	b.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}

	if fail {
		writeError(w, http.StatusInternalServerError, "database is locked")
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (b *Backend) handlePostMessage(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(chi.URLParam(r, "roomID"))

	var in struct {
		Body   string `json:"body"`
		UserID int64  `json:"user_id"`
	}
	_ = json.NewDecoder(r.Body).Decode(&in)
	if in.Body == "" || in.UserID == 0 {
		writeError(w, http.StatusBadRequest, "User ID and message body are required")
		return
	}

	b.mu.Lock()
	author := ""
	for _, u := range b.users {
		if u.id == in.UserID {
			author = u.name
		}
	}
	b.nextMsgID++
	b.messages[id] = append(b.messages[id], fakeMessage{ID: b.nextMsgID, Author: author, Body: in.Body})
	b.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]string{"message": "Message posted successfully"})
}
