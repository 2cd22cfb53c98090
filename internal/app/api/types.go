package api

// Room is the metadata of one chat room.
type Room struct {
	ID   int    `json:"room_id"`
	Name string `json:"room_name"`
}

// Message is one chat message as listed by the backend.
type Message struct {
	ID     int    `json:"id"`
	Author string `json:"author"`
	Body   string `json:"body"`
}

// createdRoom is the payload of POST /api/rooms/new.
type createdRoom struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// identityResponse is the payload of login and signup. Error is set by the backend
// when credentials are rejected.
type identityResponse struct {
	UserID   int64  `json:"user_id"`
	UserName string `json:"user_name"`
	APIKey   string `json:"api_key"`
	Error    string `json:"error"`
}

// errorResponse is the body every non-2xx backend response carries.
type errorResponse struct {
	Error string `json:"error"`
}

type loginRequest struct {
	UserName string `json:"user_name"`
	Password string `json:"password"`
}

type renameRoomRequest struct {
	NewName string `json:"new_name"`
	RoomID  int    `json:"room_id"`
}

type postMessageRequest struct {
	Body   string `json:"body"`
	UserID int64  `json:"user_id"`
}

type newNameRequest struct {
	NewName string `json:"new_name"`
}

type newPasswordRequest struct {
	NewPassword string `json:"new_password"`
}
