/*
Package nav maps the current path and session state to exactly one visible view.

The Router is the only component that enters or leaves views, and therefore the only
one that starts or stops message polling. It owns the URL history and is driven by a
single goroutine; it is not safe for concurrent use.
*/
package nav

import "strconv"

// ViewKind enumerates the top-level views.
type ViewKind int

const (
	// ViewNone is the state before the first resolve.
	ViewNone ViewKind = iota
	ViewSplash
	ViewLogin
	ViewProfile
	ViewRoom
)

func (k ViewKind) String() string {
	switch k {
	case ViewSplash:
		return "splash"
	case ViewLogin:
		return "login"
	case ViewProfile:
		return "profile"
	case ViewRoom:
		return "room"
	default:
		return "none"
	}
}

// View is the single visible view. RoomID is meaningful only for ViewRoom.
type View struct {
	Kind   ViewKind
	RoomID int
}

// Splash is the signed-in landing view with the room list.
func Splash() View { return View{Kind: ViewSplash} }

// Login is the sign-in view.
func Login() View { return View{Kind: ViewLogin} }

// Profile is the account settings view.
func Profile() View { return View{Kind: ViewProfile} }

// Room is the chat view of one room.
func Room(roomID int) View { return View{Kind: ViewRoom, RoomID: roomID} }

// IsRoom reports whether v is a room view.
func (v View) IsRoom() bool { return v.Kind == ViewRoom }

func (v View) String() string {
	if v.Kind == ViewRoom {
		return "room(" + strconv.Itoa(v.RoomID) + ")"
	}
	return v.Kind.String()
}

// RoomPath returns the path that opens a room view.
func RoomPath(roomID int) string {
	return "/room/" + strconv.Itoa(roomID)
}
