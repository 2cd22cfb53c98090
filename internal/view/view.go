/*
Package view renders the client's views to a terminal.

A Renderer is the client's render surface: it implements nav.Display for the
exclusive view switch and receives the data each view shows.
*/
package view

import (
	"watchparty/internal/app/api"
	"watchparty/internal/app/nav"
)

// Header is the signed-in banner shown above every view.
type Header struct {
	LoggedIn bool
	UserName string
}

// Renderer is implemented by render surfaces.
type Renderer interface {
	nav.Display

	// Header redraws the banner.
	Header(h Header)

	// Rooms shows the room list of the splash view.
	Rooms(rooms []api.Room)

	// RoomInfo shows the name and invite path of the open room.
	RoomInfo(room api.Room)

	// Messages shows the messages of the open room.
	Messages(roomID int, msgs []api.Message)

	// LoginFailed shows the inline login failure indicator.
	LoginFailed()

	// Notice shows a one-line status message.
	Notice(msg string)
}
