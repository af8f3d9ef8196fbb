package util

import (
	"strings"

	"github.com/google/uuid"
)

// NewID returns a random 32-character hex id safe for URLs and object keys.
func NewID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
