package id

import (
	"crypto/rand"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTypedIDs(t *testing.T) {
	tests := []struct {
		name   string
		id     string
		prefix string
	}{
		{"session", NewSessionID().String(), SessionPrefix},
		{"request", NewRequestID().String(), RequestPrefix},
		{"subscriber", NewSubscriberID().String(), SubscriberPrefix},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, strings.HasPrefix(tt.id, tt.prefix+"_"))
			assert.Len(t, tt.id, len(tt.prefix)+1+26)
			assert.True(t, IsValid(tt.id))
		})
	}
}

func TestIsValid(t *testing.T) {
	assert.True(t, IsValid("01ARZ3NDEKTSV4RRFFQ69G5FAV"))
	assert.True(t, IsValid("sess_01ARZ3NDEKTSV4RRFFQ69G5FAV"))
	assert.False(t, IsValid("sess_nope"))
	assert.False(t, IsValid(""))
}

func TestTimestampFollowsClock(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	g := NewGenerator(clockwork.NewFakeClockAt(at), rand.Reader)

	ts, err := Timestamp(g.GenerateWithPrefix(SessionPrefix))
	require.NoError(t, err)
	assert.True(t, at.Equal(ts), "got %s", ts)

	_, err = Timestamp("bad")
	assert.Error(t, err)
}

func TestMonotonicWithinMillisecond(t *testing.T) {
	g := NewGenerator(clockwork.NewFakeClock(), rand.Reader)
	ids := make([]string, 100)
	for i := range ids {
		ids[i] = g.Generate().String()
	}
	assert.True(t, sort.StringsAreSorted(ids))
}

func TestConcurrentGeneration(t *testing.T) {
	g := NewGenerator(clockwork.NewRealClock(), rand.Reader)
	const n = 50
	var wg sync.WaitGroup
	var mu sync.Mutex
	seen := make(map[string]bool, n*10)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				s := g.Generate().String()
				mu.Lock()
				seen[s] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Len(t, seen, n*10)
}

func BenchmarkGenerateWithPrefix(b *testing.B) {
	g := Default()
	for i := 0; i < b.N; i++ {
		_ = g.GenerateWithPrefix(SessionPrefix)
	}
}
