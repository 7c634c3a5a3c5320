package ids

import (
	mathrand "math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(mathrand.New(mathrand.NewSource(time.Now().UnixNano())), 0)
)

// New returns a lexicographically sortable identifier. Used for request ids
// and token ids where ordering by creation helps when reading logs.
func New() string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}

// NewEntityID returns a random UUID for persisted records.
func NewEntityID() string {
	return uuid.NewString()
}

// IsEntityID reports whether s parses as a UUID.
func IsEntityID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
