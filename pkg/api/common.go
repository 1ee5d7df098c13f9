package api

// ------------------------------------------------------------------------------------------------
// General naming conventions:
// ------------------------------------------------------------------------------------------------
// - ...Config - represents an object specified by the caller when creating a resource.
// - ...Resource - represents an object owned by the hosted platform.
// - ...Request/...Response - represents a request/response body on the wire.
// - ...Ref - represents a reference to an object
// - ...Error - represents an error response
// ------------------------------------------------------------------------------------------------

// Ref is a reference to a platform resource by id.
type Ref struct {
	ID string `json:"id" validate:"required"`
}

// Error represents an error response from the hosted platform.
type Error struct {
	MessageCode string `json:"message_code"`
	Message     string `json:"message"`
	Trace       string `json:"trace,omitempty"`
}
