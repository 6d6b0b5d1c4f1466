package core

// Conn is the write half of a live line-oriented connection as the
// registry and router see it. Exactly one Conn exists per registered
// name, and the registry owns it for the lifetime of the registration.
type Conn interface {
	// WriteLine sends one logical message, terminated by a newline.
	WriteLine(text string) error
	// Close tears the connection down. Implementations must be
	// idempotent: Unregister closes on the admin path while the
	// session closes on read EOF, and both may race.
	Close() error
	// RemoteAddr identifies the peer for logging.
	RemoteAddr() string
}
