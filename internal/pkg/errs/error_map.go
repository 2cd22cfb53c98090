/*
Package errs provides custom error types and application-level error code constants.

This file defines the map from error codes to the CustomError template used to build
user-facing error messages.
*/
package errs

import "net/http"

// errorMap stores the template CustomError for every application error code.
// Status is the HTTP status that usually accompanies the error, or 0 when the error
// is produced locally.
var errorMap = map[int]CustomError{
	// 1xxx: Client-side Validation Errors
	ErrInvalidParams:    {Code: ErrInvalidParams, Message: "Missing or empty input."},
	ErrPasswordMismatch: {Code: ErrPasswordMismatch, Message: "Password doesn't match."},
	ErrNotInRoom:        {Code: ErrNotInRoom, Message: "Open a room first."},

	// 2xxx: Room Errors
	ErrMalformedRoomID: {Code: ErrMalformedRoomID, Message: "Room id must be a number."},
	ErrRoomNotFound:    {Code: ErrRoomNotFound, Message: "Chat room not found.", Status: http.StatusNotFound},

	// 3xxx: Session and Authentication Errors
	ErrAuthenticationFailed: {Code: ErrAuthenticationFailed, Message: "Oops, that username and password don't match any of our users!", Status: http.StatusUnauthorized},
	ErrNotLoggedIn:          {Code: ErrNotLoggedIn, Message: "Please sign in to continue."},
	ErrForbidden:            {Code: ErrForbidden, Message: "Your session is no longer valid.", Status: http.StatusForbidden},

	// 4xxx: Transport Errors
	ErrNetwork:         {Code: ErrNetwork, Message: "Could not reach the chat server."},
	ErrBadResponse:     {Code: ErrBadResponse, Message: "The chat server sent an unreadable response."},
	ErrServer:          {Code: ErrServer, Message: "The chat server ran into a problem.", Status: http.StatusInternalServerError},
	ErrRequestRejected: {Code: ErrRequestRejected, Message: "The chat server rejected the request: %s", Status: http.StatusBadRequest},

	// 5xxx: Internal Client Errors
	ErrUnknown:        {Code: ErrUnknown, Message: "Something went wrong. Please try again."},
	ErrSessionStorage: {Code: ErrSessionStorage, Message: "Could not save the session."},
}

// transientCodes lists the codes a caller may recover from by simply trying again.
var transientCodes = map[int]struct{}{
	ErrNetwork:     {},
	ErrBadResponse: {},
	ErrServer:      {},
}
