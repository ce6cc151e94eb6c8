// Package anim provides the frame-driven animation scheduler: time-based
// interpolation ("morphing") of scalar variables, and callbacks deferred by
// a fixed number of frames.
package anim

import (
	"math"

	"github.com/fsviz/fsviz/internal/geom"
)

// Curve selects how a morph remaps normalized progress p in [0,1].
type Curve int

const (
	// CurveLinear applies no remapping.
	CurveLinear Curve = iota
	// CurveQuadratic is p^2: starts slow, lands fast.
	CurveQuadratic
	// CurveInvQuadratic is 1-(1-p)^2: starts fast, decelerates into the target.
	CurveInvQuadratic
	// CurveSigmoid is an S-shaped ease-in/ease-out.
	CurveSigmoid
	// CurveSigmoidAccel is sigmoidal with acceleration.
	CurveSigmoidAccel
)

func (c Curve) String() string {
	switch c {
	case CurveQuadratic:
		return "quadratic"
	case CurveInvQuadratic:
		return "inv-quadratic"
	case CurveSigmoid:
		return "sigmoid"
	case CurveSigmoidAccel:
		return "sigmoid-accel"
	default:
		return "linear"
	}
}

// Remap applies the curve to normalized progress p.
func (c Curve) Remap(p float64) float64 {
	switch c {
	case CurveQuadratic:
		return p * p
	case CurveInvQuadratic:
		return 1.0 - (1.0-p)*(1.0-p)
	case CurveSigmoid:
		return 0.5 * (1.0 - math.Cos(math.Pi*p))
	case CurveSigmoidAccel:
		return 0.5 * (1.0 - math.Cos(math.Pi*p*p))
	default:
		return p
	}
}

// Morph is one stage of an animation on a single variable. Multi-stage
// animations are built by requesting further morphs on the same variable;
// stages run back to back with no gap.
type Morph struct {
	Curve      Curve
	Var        *float64
	StartValue float64
	EndValue   float64
	TStart     float64
	TEnd       float64

	// Step is called after every incremental update except the last one.
	Step func(*Morph)
	// End is called after the final update.
	End func(*Morph)
	// Data is an arbitrary payload available to the callbacks.
	Data any

	next *Morph
}

// Scheduler owns all active morphs and scheduled events. It is not safe for
// concurrent use; everything runs on the frame loop.
type Scheduler struct {
	morphs map[*float64]*Morph
	events []*scheduledEvent
	now    float64

	// redraw is invoked whenever new work is queued while the scheduler
	// is idle, so the frame loop knows to keep ticking.
	redraw func()
}

// Now returns the time passed to the most recent Advance call. New morphs
// started between frames are timed from here.
func (s *Scheduler) Now() float64 { return s.now }

// NewScheduler creates a scheduler. redraw may be nil.
func NewScheduler(redraw func()) *Scheduler {
	return &Scheduler{
		morphs: make(map[*float64]*Morph),
		redraw: redraw,
	}
}

func (s *Scheduler) requestRedraw() {
	if s.redraw != nil {
		s.redraw()
	}
}

// MorphFull begins a morph of *v toward target over duration seconds,
// starting at time now. step is called on every intermediate update, end on
// the final one. If v is already morphing, the request is appended as a
// further stage beginning at the incumbent animation's end time and value,
// so transitions compose instead of interrupting each other.
func (s *Scheduler) MorphFull(v *float64, curve Curve, target, duration, now float64, step, end func(*Morph), data any) {
	m := &Morph{
		Curve:      curve,
		Var:        v,
		StartValue: *v,
		EndValue:   target,
		TStart:     now,
		TEnd:       now + duration,
		Step:       step,
		End:        end,
		Data:       data,
	}

	head, ok := s.morphs[v]
	if !ok {
		s.morphs[v] = m
		s.requestRedraw()
		return
	}

	last := head
	for last.next != nil {
		last = last.next
	}
	m.TStart = last.TEnd
	m.TEnd = last.TEnd + duration
	m.StartValue = last.EndValue
	last.next = m
}

// Morph is MorphFull with no callbacks and no payload.
func (s *Scheduler) Morph(v *float64, curve Curve, target, duration, now float64) {
	s.MorphFull(v, curve, target, duration, now, nil, nil, nil)
}

// Finish completes the active stage on v immediately: the variable jumps to
// the stage's end value and the end callback fires. Any chained stages are
// retimed to begin at now and continue normally. No-op if v is not morphing.
func (s *Scheduler) Finish(v *float64, now float64) {
	m, ok := s.morphs[v]
	if !ok {
		return
	}

	*m.Var = m.EndValue
	if m.End != nil {
		m.End(m)
	}

	if m.next != nil {
		next := m.next
		shift := now - next.TStart
		for stage := next; stage != nil; stage = stage.next {
			stage.TStart += shift
			stage.TEnd += shift
		}
		s.morphs[v] = next
	} else {
		delete(s.morphs, v)
	}
	s.requestRedraw()
}

// Break discards any animation on v, chained stages included. The variable
// keeps its current value and no callbacks fire. No-op if v is not morphing.
func (s *Scheduler) Break(v *float64) {
	delete(s.morphs, v)
}

// Morphing reports whether v has an active morph.
func (s *Scheduler) Morphing(v *float64) bool {
	_, ok := s.morphs[v]
	return ok
}

// Advance updates every morphing variable to its value at time now,
// popping completed stages and firing their callbacks. It reports whether
// any variable changed state.
func (s *Scheduler) Advance(now float64) bool {
	s.now = now
	stateChanged := false

	for v, m := range s.morphs {
		for m != nil && now >= m.TEnd {
			// Stage complete.
			*m.Var = m.EndValue
			stateChanged = true
			if m.End != nil {
				m.End(m)
			}
			m = m.next
			if m != nil {
				s.morphs[v] = m
			} else {
				delete(s.morphs, v)
			}
		}
		if m == nil {
			continue
		}

		p := (now - m.TStart) / (m.TEnd - m.TStart)
		if p < 0.0 {
			p = 0.0
		}
		*m.Var = geom.Interpolate(m.Curve.Remap(p), m.StartValue, m.EndValue)
		stateChanged = true
		if m.Step != nil {
			m.Step(m)
		}
	}

	return stateChanged
}
