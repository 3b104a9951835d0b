package session

import "time"

// TickInterval is the snake step period for a body of bodyLen: half a
// millisecond faster per segment, clamped to bounds.
func TickInterval(bodyLen int, bounds SpeedBounds) time.Duration {
	d := bounds.Upper - time.Duration(bodyLen)*time.Millisecond/2
	if d < bounds.Lower {
		return bounds.Lower
	}
	if d > bounds.Upper {
		return bounds.Upper
	}
	return d
}

// Scheduler multiplexes the three cadences of a run against one clock read.
// Each cadence keeps its own next-due time.
type Scheduler struct {
	bounds        SpeedBounds
	substepPeriod time.Duration
	scorePeriod   time.Duration

	nextTick    time.Time
	nextSubstep time.Time
	nextScore   time.Time
}

// NewScheduler arms every cadence relative to start.
func NewScheduler(start time.Time, cfg Config, bodyLen int) *Scheduler {
	return &Scheduler{
		bounds:        cfg.SpeedBounds,
		substepPeriod: cfg.SubstepPeriod,
		scorePeriod:   cfg.ScorePeriod,
		nextTick:      start.Add(TickInterval(bodyLen, cfg.SpeedBounds)),
		nextSubstep:   start.Add(cfg.SubstepPeriod),
		nextScore:     start.Add(cfg.ScorePeriod),
	}
}

// SubstepDue reports and consumes a due demon substep. A caller that fell
// more than a period behind gets one substep, not a burst.
func (s *Scheduler) SubstepDue(now time.Time) bool {
	if now.Before(s.nextSubstep) {
		return false
	}
	s.nextSubstep = s.nextSubstep.Add(s.substepPeriod)
	if !s.nextSubstep.After(now) {
		s.nextSubstep = now.Add(s.substepPeriod)
	}
	return true
}

// ScoreDue reports and consumes one due survival award. Missed awards are
// paid one per call until caught up.
func (s *Scheduler) ScoreDue(now time.Time) bool {
	if now.Before(s.nextScore) {
		return false
	}
	s.nextScore = s.nextScore.Add(s.scorePeriod)
	return true
}

// TickDue reports whether the snake step boundary has been reached. It does
// not consume the boundary; call Reschedule after stepping.
func (s *Scheduler) TickDue(now time.Time) bool {
	return !now.Before(s.nextTick)
}

// Reschedule sets the next step boundary from the new body length. The
// boundary advances from the previous deadline, falling back to now when the
// caller is already past it.
func (s *Scheduler) Reschedule(now time.Time, bodyLen int) {
	interval := TickInterval(bodyLen, s.bounds)
	s.nextTick = s.nextTick.Add(interval)
	if !s.nextTick.After(now) {
		s.nextTick = now.Add(interval)
	}
}

// NextTick is the pending step boundary.
func (s *Scheduler) NextTick() time.Time {
	return s.nextTick
}
