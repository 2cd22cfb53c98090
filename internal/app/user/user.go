/*
Package user contains the identity data returned by the chat backend.

It defines the representation of the signed-in participant (the Identity struct)
exactly as the login and signup endpoints encode it.
*/
package user

// Identity represents the authenticated participant.
// Fields use the JSON tags of the backend's login and signup responses.
type Identity struct {
	// ID is the backend's numeric user id.
	ID int64 `json:"user_id"`

	// Name is the display name; anonymous signups receive a generated "Unnamed User #nnnnnn".
	Name string `json:"user_name"`

	// APIKey is the opaque credential sent with every authenticated request.
	APIKey string `json:"api_key"`
}

// Valid reports whether the identity carries a usable credential.
func (i Identity) Valid() bool {
	return i.APIKey != ""
}
