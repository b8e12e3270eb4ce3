// Package id provides ULID identifiers for sessions, requests and event
// stream subscribers.
//
// IDs are prefixed by kind (sess_*, req_*, sub_*) so logs stay readable, and
// sort by creation time within one generator.
package id

import (
	"crypto/rand"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/oklog/ulid/v2"
)

// SessionID identifies one emulated APT session
type SessionID string

// RequestID identifies an API request
type RequestID string

// SubscriberID identifies an event stream subscriber
type SubscriberID string

const (
	SessionPrefix    = "sess"
	RequestPrefix    = "req"
	SubscriberPrefix = "sub"
)

// Generator generates monotonic ULIDs
type Generator struct {
	clock clockwork.Clock

	mu      sync.Mutex
	entropy io.Reader
}

var (
	defaultGenerator *Generator
	once             sync.Once
)

// Default returns the process-wide generator
func Default() *Generator {
	once.Do(func() {
		defaultGenerator = NewGenerator(clockwork.NewRealClock(), rand.Reader)
	})
	return defaultGenerator
}

// NewGenerator creates a generator reading time from clock. IDs created in
// the same millisecond increase monotonically.
func NewGenerator(clock clockwork.Clock, entropy io.Reader) *Generator {
	return &Generator{
		clock:   clock,
		entropy: ulid.Monotonic(entropy, 0),
	}
}

// Generate creates a new ULID
func (g *Generator) Generate() ulid.ULID {
	g.mu.Lock()
	defer g.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(g.clock.Now()), g.entropy)
}

// GenerateWithPrefix creates a prefixed ULID string
func (g *Generator) GenerateWithPrefix(prefix string) string {
	return fmt.Sprintf("%s_%s", prefix, g.Generate().String())
}

// NewSessionID generates a new session ID
func NewSessionID() SessionID {
	return SessionID(Default().GenerateWithPrefix(SessionPrefix))
}

// NewRequestID generates a new request ID
func NewRequestID() RequestID {
	return RequestID(Default().GenerateWithPrefix(RequestPrefix))
}

// NewSubscriberID generates a new event subscriber ID
func NewSubscriberID() SubscriberID {
	return SubscriberID(Default().GenerateWithPrefix(SubscriberPrefix))
}

func (id SessionID) String() string    { return string(id) }
func (id RequestID) String() string    { return string(id) }
func (id SubscriberID) String() string { return string(id) }

// Parse parses a ULID with or without its kind prefix
func Parse(id string) (ulid.ULID, error) {
	if i := strings.LastIndexByte(id, '_'); i >= 0 {
		id = id[i+1:]
	}
	return ulid.Parse(id)
}

// IsValid checks if an ID string is a valid, optionally prefixed, ULID
func IsValid(id string) bool {
	_, err := Parse(id)
	return err == nil
}

// Timestamp extracts the creation time of an ID
func Timestamp(id string) (time.Time, error) {
	parsed, err := Parse(id)
	if err != nil {
		return time.Time{}, err
	}
	return ulid.Time(parsed.Time()), nil
}
