package view

import (
	"sync"

	"watchparty/internal/app/api"
	"watchparty/internal/app/nav"
)

// MessageBatch is one Messages call seen by a Recorder.
type MessageBatch struct {
	RoomID   int
	Messages []api.Message
}

// Recorder is a Renderer that keeps every call, for tests.
type Recorder struct {
	mu sync.Mutex

	views        []nav.View
	headers      []Header
	roomLists    [][]api.Room
	roomInfos    []api.Room
	batches      []MessageBatch
	loginFailure int
	notices      []string
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Show(v nav.View) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.views = append(r.views, v)
}

func (r *Recorder) Header(h Header) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.headers = append(r.headers, h)
}

func (r *Recorder) Rooms(rooms []api.Room) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.roomLists = append(r.roomLists, rooms)
}

func (r *Recorder) RoomInfo(room api.Room) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.roomInfos = append(r.roomInfos, room)
}

func (r *Recorder) Messages(roomID int, msgs []api.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.batches = append(r.batches, MessageBatch{RoomID: roomID, Messages: msgs})
}

func (r *Recorder) LoginFailed() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loginFailure++
}

func (r *Recorder) Notice(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, msg)
}

// Views returns every view shown so far.
func (r *Recorder) Views() []nav.View {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]nav.View(nil), r.views...)
}

// LastView returns the most recently shown view.
func (r *Recorder) LastView() nav.View {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.views) == 0 {
		return nav.View{}
	}
	return r.views[len(r.views)-1]
}

// LastHeader returns the most recent banner.
func (r *Recorder) LastHeader() Header {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.headers) == 0 {
		return Header{}
	}
	return r.headers[len(r.headers)-1]
}

// RoomLists returns every room list shown.
func (r *Recorder) RoomLists() [][]api.Room {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([][]api.Room(nil), r.roomLists...)
}

// RoomInfos returns every room header shown.
func (r *Recorder) RoomInfos() []api.Room {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]api.Room(nil), r.roomInfos...)
}

// Batches returns every message list shown.
func (r *Recorder) Batches() []MessageBatch {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]MessageBatch(nil), r.batches...)
}

// LastBatch returns the most recent message list.
func (r *Recorder) LastBatch() (MessageBatch, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.batches) == 0 {
		return MessageBatch{}, false
	}
	return r.batches[len(r.batches)-1], true
}

// LoginFailures returns how many times the failure indicator was shown.
func (r *Recorder) LoginFailures() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loginFailure
}

// Notices returns every notice shown.
func (r *Recorder) Notices() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.notices...)
}
