package utils

import (
	"github.com/google/uuid"
)

// NewID returns a random (v4) identifier for users, attempts and requests.
func NewID() string {
	return uuid.NewString()
}
