package anim

// scheduledEvent fires a callback after a fixed number of frames.
type scheduledEvent struct {
	frames int
	fn     func(any)
	data   any
}

// ScheduleEvent arranges for fn(data) to be called after nframes subsequent
// calls to FireEvents. Frame counting, not wall-clock time: an event
// scheduled with nframes == 1 fires on the next rendered frame, which is how
// work is deferred until a morph's final value has fully settled.
func (s *Scheduler) ScheduleEvent(fn func(any), data any, nframes int) {
	s.events = append(s.events, &scheduledEvent{
		frames: nframes,
		fn:     fn,
		data:   data,
	})
	s.requestRedraw()
}

// FireEvents counts down every pending event by one frame and fires those
// that reach zero. It reports whether any event fired or remains pending,
// i.e. whether another frame is needed.
func (s *Scheduler) FireEvents() bool {
	fired := false
	pending := s.events
	// Callbacks may schedule further events; those land on a fresh slice
	// and are not counted down until the next frame.
	s.events = nil
	for _, ev := range pending {
		ev.frames--
		if ev.frames <= 0 {
			ev.fn(ev.data)
			fired = true
		} else {
			s.events = append(s.events, ev)
		}
	}

	return fired || len(s.events) > 0
}

// Pending reports whether any morph or scheduled event is outstanding.
func (s *Scheduler) Pending() bool {
	return len(s.morphs) > 0 || len(s.events) > 0
}
