package core

import "errors"

// Error codes for domain errors.
const (
	ErrCodeNameEmpty        = "name_empty"
	ErrCodeNameReserved     = "name_reserved"
	ErrCodeNameTaken        = "name_taken"
	ErrCodeNotRegistered    = "not_registered"
	ErrCodeUnknownRecipient = "unknown_recipient"
	ErrCodeUnknownRoom      = "unknown_room"
)

var (
	ErrNameEmpty        = errors.New("name is empty")
	ErrNameReserved     = errors.New("name is reserved")
	ErrNameTaken        = errors.New("name already taken")
	ErrNotRegistered    = errors.New("client not registered")
	ErrUnknownRecipient = errors.New("unknown recipient")
	ErrUnknownRoom      = errors.New("unknown room")
)

// ErrorCode maps a domain error to its string code, or "internal" for
// anything else. Used for log fields and HTTP error bodies.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrNameEmpty):
		return ErrCodeNameEmpty
	case errors.Is(err, ErrNameReserved):
		return ErrCodeNameReserved
	case errors.Is(err, ErrNameTaken):
		return ErrCodeNameTaken
	case errors.Is(err, ErrNotRegistered):
		return ErrCodeNotRegistered
	case errors.Is(err, ErrUnknownRecipient):
		return ErrCodeUnknownRecipient
	case errors.Is(err, ErrUnknownRoom):
		return ErrCodeUnknownRoom
	default:
		return "internal"
	}
}
