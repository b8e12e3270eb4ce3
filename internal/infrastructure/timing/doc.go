/*
Package timing provides the virtual-time scheduler that drives periodic
callbacks of an emulated session.

Time only moves when Advance is called. Each call runs every due callback in
(due time, scheduling order) and hands it the lateness, so periodic callbacks
can reschedule at interval minus lateness and stay on their grid:

	sched := timing.New()
	var tick *timing.EventType
	tick = sched.RegisterEvent("tick", func(data uint64, late time.Duration) {
		sched.ScheduleEvent(interval-late, tick, data)
	})
	sched.ScheduleEvent(interval, tick, 0)
	sched.Advance(frame)

Callbacks run without the scheduler lock held and may schedule or remove
events.
*/
package timing
