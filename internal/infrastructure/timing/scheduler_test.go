package timing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchedulerFiresInDueOrder(t *testing.T) {
	s := New()
	var order []uint64
	ev := s.RegisterEvent("order", func(userdata uint64, late time.Duration) {
		order = append(order, userdata)
	})

	s.ScheduleEvent(30*time.Millisecond, ev, 3)
	s.ScheduleEvent(10*time.Millisecond, ev, 1)
	s.ScheduleEvent(10*time.Millisecond, ev, 2)

	assert.Equal(t, 0, s.Advance(5*time.Millisecond))
	assert.Equal(t, 2, s.Advance(10*time.Millisecond))
	assert.Equal(t, []uint64{1, 2}, order)

	assert.Equal(t, 1, s.Advance(20*time.Millisecond))
	assert.Equal(t, []uint64{1, 2, 3}, order)
	assert.Equal(t, 35*time.Millisecond, s.Now())
	assert.Equal(t, 0, s.Pending())
}

func TestSchedulerReportsLateness(t *testing.T) {
	s := New()
	var late time.Duration
	ev := s.RegisterEvent("late", func(_ uint64, l time.Duration) {
		late = l
	})

	s.ScheduleEvent(10*time.Millisecond, ev, 0)
	s.Advance(25 * time.Millisecond)
	assert.Equal(t, 15*time.Millisecond, late)
}

func TestSchedulerPeriodicCatchUp(t *testing.T) {
	s := New()
	const interval = 10 * time.Millisecond
	var fires int
	var ev *EventType
	ev = s.RegisterEvent("tick", func(userdata uint64, late time.Duration) {
		fires++
		s.ScheduleEvent(interval-late, ev, userdata)
	})
	s.ScheduleEvent(interval, ev, 0)

	assert.Equal(t, 4, s.Advance(45*time.Millisecond))
	assert.Equal(t, 4, fires)

	due, ok := s.NextDue()
	require.True(t, ok)
	assert.Equal(t, 50*time.Millisecond, due)
}

func TestSchedulerUnscheduleAndRemove(t *testing.T) {
	s := New()
	var fired []uint64
	ev := s.RegisterEvent("ev", func(userdata uint64, _ time.Duration) {
		fired = append(fired, userdata)
	})

	s.ScheduleEvent(time.Millisecond, ev, 1)
	s.ScheduleEvent(time.Millisecond, ev, 2)
	s.UnscheduleEvent(ev, 1)
	s.Advance(time.Millisecond)
	assert.Equal(t, []uint64{2}, fired)

	s.ScheduleEvent(time.Millisecond, ev, 3)
	s.RemoveEvent(ev)
	assert.Equal(t, 0, s.Pending())

	s.ScheduleEvent(time.Millisecond, ev, 4)
	s.Advance(time.Second)
	assert.Equal(t, []uint64{2}, fired)
}
