package timing

import (
	"container/heap"
	"sync"
	"time"
)

// Callback runs when a scheduled event comes due. late is how far virtual
// time had moved past the due time when the callback ran.
type Callback func(userdata uint64, late time.Duration)

// EventType is a registered callback that can be scheduled any number of times.
type EventType struct {
	name     string
	callback Callback
	removed  bool
}

// Name returns the name the event was registered with.
func (e *EventType) Name() string {
	return e.name
}

type entry struct {
	due      time.Duration
	seq      uint64
	event    *EventType
	userdata uint64
}

type queue []*entry

func (q queue) Len() int { return len(q) }

func (q queue) Less(i, j int) bool {
	if q[i].due == q[j].due {
		return q[i].seq < q[j].seq
	}
	return q[i].due < q[j].due
}

func (q queue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *queue) Push(x any) { *q = append(*q, x.(*entry)) }

func (q *queue) Pop() any {
	old := *q
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return e
}

// Scheduler runs callbacks against a virtual clock that only moves on Advance.
// Events due at the same instant fire in the order they were scheduled.
type Scheduler struct {
	mu     sync.Mutex
	now    time.Duration
	seq    uint64
	queue  queue
	events map[string]*EventType
}

// New creates a scheduler at virtual time zero.
func New() *Scheduler {
	return &Scheduler{
		events: make(map[string]*EventType),
	}
}

// RegisterEvent registers a named callback. Registering an existing name
// replaces its callback.
func (s *Scheduler) RegisterEvent(name string, cb Callback) *EventType {
	s.mu.Lock()
	defer s.mu.Unlock()

	ev := &EventType{name: name, callback: cb}
	s.events[name] = ev
	return ev
}

// ScheduleEvent queues ev to fire delay after the current virtual time.
// A negative delay schedules into the past; the event fires on the next Advance.
func (s *Scheduler) ScheduleEvent(delay time.Duration, ev *EventType, userdata uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ev == nil || ev.removed {
		return
	}
	s.seq++
	heap.Push(&s.queue, &entry{
		due:      s.now + delay,
		seq:      s.seq,
		event:    ev,
		userdata: userdata,
	})
}

// UnscheduleEvent drops every pending occurrence of ev carrying userdata.
func (s *Scheduler) UnscheduleEvent(ev *EventType, userdata uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.filter(func(e *entry) bool {
		return e.event == ev && e.userdata == userdata
	})
}

// RemoveEvent drops every pending occurrence of ev and unregisters it.
func (s *Scheduler) RemoveEvent(ev *EventType) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ev == nil {
		return
	}
	ev.removed = true
	if s.events[ev.name] == ev {
		delete(s.events, ev.name)
	}
	s.filter(func(e *entry) bool { return e.event == ev })
}

func (s *Scheduler) filter(drop func(*entry) bool) {
	kept := s.queue[:0]
	for _, e := range s.queue {
		if !drop(e) {
			kept = append(kept, e)
		}
	}
	for i := len(kept); i < len(s.queue); i++ {
		s.queue[i] = nil
	}
	s.queue = kept
	heap.Init(&s.queue)
}

// Advance moves virtual time forward by d and runs every event that comes due,
// including events scheduled by callbacks during the advance. It returns the
// number of callbacks run.
func (s *Scheduler) Advance(d time.Duration) int {
	s.mu.Lock()
	target := s.now + d
	s.now = target
	s.mu.Unlock()

	fired := 0
	for {
		s.mu.Lock()
		if len(s.queue) == 0 || s.queue[0].due > target {
			s.mu.Unlock()
			return fired
		}
		e := heap.Pop(&s.queue).(*entry)
		s.mu.Unlock()

		e.event.callback(e.userdata, target-e.due)
		fired++
	}
}

// Now returns the current virtual time.
func (s *Scheduler) Now() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}

// Pending returns the number of queued occurrences.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

// NextDue reports the due time of the earliest queued occurrence.
func (s *Scheduler) NextDue() (time.Duration, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.queue) == 0 {
		return 0, false
	}
	return s.queue[0].due, true
}
