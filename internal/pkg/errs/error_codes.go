/*
Package errs provides custom error types and application-level error code constants.

These error codes classify every failure the client can observe, whether it was
detected locally, reported by the chat backend, or caused by the network.
*/
package errs

// 1xxx: Client-side Validation Errors
const (
	// ErrInvalidParams indicates that an action was invoked with missing or empty input.
	ErrInvalidParams = 1001

	// ErrPasswordMismatch indicates that the new password and its confirmation differ.
	ErrPasswordMismatch = 1002

	// ErrNotInRoom indicates that a room action was attempted while no room view is active.
	ErrNotInRoom = 1003
)

// 2xxx: Room Errors
const (
	// ErrMalformedRoomID indicates that the segment after /room/ is not an integer.
	ErrMalformedRoomID = 2101

	// ErrRoomNotFound indicates that the backend has no room with the requested id.
	ErrRoomNotFound = 2103
)

// 3xxx: Session and Authentication Errors
const (
	// ErrAuthenticationFailed indicates that the backend rejected the supplied credentials.
	ErrAuthenticationFailed = 3001

	// ErrNotLoggedIn indicates that an authenticated action was attempted without a session.
	ErrNotLoggedIn = 3002

	// ErrForbidden indicates that the backend refused the api key (missing or invalid).
	ErrForbidden = 3003
)

// 4xxx: Transport Errors
const (
	// ErrNetwork indicates the request never produced a response (refused, reset, timed out).
	ErrNetwork = 4001

	// ErrBadResponse indicates the response body could not be decoded.
	ErrBadResponse = 4002

	// ErrServer indicates the backend answered with a 5xx status.
	ErrServer = 4003

	// ErrRequestRejected indicates the backend answered with an unexpected 4xx status.
	ErrRequestRejected = 4004
)

// 5xxx: Internal Client Errors
const (
	// ErrUnknown represents an unclassified failure.
	ErrUnknown = 5000

	// ErrSessionStorage indicates the session record could not be persisted.
	ErrSessionStorage = 5001
)
