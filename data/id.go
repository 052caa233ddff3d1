package data

import (
	"strings"

	"github.com/google/uuid"
)

// IDGenerator produces ids for records that arrive without one and for
// synthesized markers. Injected so tests can make id assignment
// deterministic.
type IDGenerator func() string

// RandomID is the default generator: a 32-character lowercase hex id.
func RandomID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
