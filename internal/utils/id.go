package utils

import (
	"strconv"
	"time"

	"github.com/google/uuid"
)

// NewSessionID returns a best-effort unique identifier for a session.
func NewSessionID() string {
	id, err := uuid.NewRandom()
	if err == nil {
		return id.String()
	}

	// Fallback to timestamp if crypto/rand is unavailable.
	return strconv.FormatInt(time.Now().UnixNano(), 10)
}
