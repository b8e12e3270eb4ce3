package kernel

import (
	"errors"
	"sync"
	"time"

	"github.com/GriffinCanCode/AppletOS/backend/internal/shared/types"
)

// ErrUnknownHandle is returned for handles the table never issued.
var ErrUnknownHandle = errors.New("kernel: unknown handle")

// ObjectKind is the kind of a kernel object.
type ObjectKind string

const (
	KindEvent        ObjectKind = "event"
	KindMutex        ObjectKind = "mutex"
	KindSharedMemory ObjectKind = "shared_memory"
)

// Object describes one kernel object.
type Object struct {
	Handle   types.Handle `json:"handle"`
	Kind     ObjectKind   `json:"kind"`
	Name     string       `json:"name"`
	Size     uint32       `json:"size,omitempty"`
	Signaled bool         `json:"signaled"`
	Signals  uint64       `json:"signals"`
	Waits    uint64       `json:"waits"`
}

// SignalEvent is published to subscribers on every Signal call.
type SignalEvent struct {
	Handle types.Handle `json:"handle"`
	Name   string       `json:"name"`
	Count  uint64       `json:"count"`
	At     time.Time    `json:"at"`
}

// Stats summarizes table activity.
type Stats struct {
	Objects        int    `json:"objects"`
	TotalSignals   uint64 `json:"total_signals"`
	TotalConsumed  uint64 `json:"total_consumed"`
	PendingSignals int    `json:"pending_signals"`
	Subscribers    int    `json:"subscribers"`
}

// Table owns kernel objects and hands out handles to them. Events are
// one-shot: a signal stays pending until a single Consume clears it.
type Table struct {
	mu          sync.Mutex
	next        types.Handle
	objects     map[types.Handle]*Object
	programID   uint64
	consumed    uint64
	signals     uint64
	subscribers map[int]chan SignalEvent
	nextSub     int
	now         func() time.Time
}

// NewTable creates an empty object table.
func NewTable() *Table {
	return &Table{
		next:        types.InvalidHandle,
		objects:     make(map[types.Handle]*Object),
		subscribers: make(map[int]chan SignalEvent),
		now:         time.Now,
	}
}

func (t *Table) create(kind ObjectKind, name string, size uint32) types.Handle {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.next++
	h := t.next
	t.objects[h] = &Object{Handle: h, Kind: kind, Name: name, Size: size}
	return h
}

// CreateEvent creates a one-shot event.
func (t *Table) CreateEvent(name string) types.Handle {
	return t.create(KindEvent, name, 0)
}

// CreateMutex creates a mutex object.
func (t *Table) CreateMutex(name string) types.Handle {
	return t.create(KindMutex, name, 0)
}

// CreateSharedMemory creates a shared memory block of size bytes.
func (t *Table) CreateSharedMemory(name string, size uint32) types.Handle {
	return t.create(KindSharedMemory, name, size)
}

// Signal marks the event pending and notifies subscribers before returning.
func (t *Table) Signal(h types.Handle) {
	t.mu.Lock()
	defer t.mu.Unlock()

	obj, ok := t.objects[h]
	if !ok {
		return
	}
	obj.Signaled = true
	obj.Signals++
	t.signals++

	ev := SignalEvent{Handle: h, Name: obj.Name, Count: obj.Signals, At: t.now()}
	for _, ch := range t.subscribers {
		select {
		case ch <- ev:
		default:
		}
	}
}

// Consume clears a pending signal, reporting whether one was pending.
func (t *Table) Consume(h types.Handle) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	obj, ok := t.objects[h]
	if !ok {
		return false, ErrUnknownHandle
	}
	obj.Waits++
	if !obj.Signaled {
		return false, nil
	}
	obj.Signaled = false
	t.consumed++
	return true, nil
}

// Lookup returns a snapshot of the object behind h.
func (t *Table) Lookup(h types.Handle) (Object, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	obj, ok := t.objects[h]
	if !ok {
		return Object{}, ErrUnknownHandle
	}
	return *obj, nil
}

// Close destroys the object behind h.
func (t *Table) Close(h types.Handle) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.objects[h]; !ok {
		return ErrUnknownHandle
	}
	delete(t.objects, h)
	return nil
}

// SetCurrentProgramID records the program id of the running guest process.
func (t *Table) SetCurrentProgramID(id uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.programID = id
}

// CurrentProgramID returns the program id of the running guest process.
func (t *Table) CurrentProgramID() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.programID
}

// Subscribe registers a listener for signal events. Slow listeners drop
// events rather than block Signal. The returned func unsubscribes.
func (t *Table) Subscribe(buffer int) (<-chan SignalEvent, func()) {
	t.mu.Lock()
	defer t.mu.Unlock()

	id := t.nextSub
	t.nextSub++
	ch := make(chan SignalEvent, buffer)
	t.subscribers[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			t.mu.Lock()
			delete(t.subscribers, id)
			t.mu.Unlock()
			close(ch)
		})
	}
}

// Stats returns table counters.
func (t *Table) Stats() Stats {
	t.mu.Lock()
	defer t.mu.Unlock()

	pending := 0
	for _, obj := range t.objects {
		if obj.Signaled {
			pending++
		}
	}
	return Stats{
		Objects:        len(t.objects),
		TotalSignals:   t.signals,
		TotalConsumed:  t.consumed,
		PendingSignals: pending,
		Subscribers:    len(t.subscribers),
	}
}
