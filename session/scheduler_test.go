package session

import (
	"testing"
	"time"
)

func TestTickInterval(t *testing.T) {
	bounds := DefaultConfig().SpeedBounds
	cases := []struct {
		n    int
		want time.Duration
	}{
		{0, 300 * time.Millisecond},
		{1, 299*time.Millisecond + 500*time.Microsecond},
		{300, 150 * time.Millisecond},
		{400, 100 * time.Millisecond},
		{624, 100 * time.Millisecond},
	}
	for _, c := range cases {
		if got := TickInterval(c.n, bounds); got != c.want {
			t.Fatalf("TickInterval(%d)=%s want=%s", c.n, got, c.want)
		}
	}
}

func TestScheduler_SubstepDoesNotBurst(t *testing.T) {
	t0 := time.Unix(1000, 0)
	s := NewScheduler(t0, DefaultConfig(), 1)

	if s.SubstepDue(t0.Add(50 * time.Millisecond)) {
		t.Fatalf("substep due early")
	}
	if !s.SubstepDue(t0.Add(100 * time.Millisecond)) {
		t.Fatalf("substep not due at 100ms")
	}
	if s.SubstepDue(t0.Add(100 * time.Millisecond)) {
		t.Fatalf("substep fired twice for one period")
	}

	late := t0.Add(time.Second)
	if !s.SubstepDue(late) {
		t.Fatalf("substep not due after a long gap")
	}
	if s.SubstepDue(late) {
		t.Fatalf("substep burst after a long gap")
	}
	if !s.SubstepDue(late.Add(100 * time.Millisecond)) {
		t.Fatalf("substep cadence not re-based on the late read")
	}
}

func TestScheduler_ScoreCatchesUp(t *testing.T) {
	t0 := time.Unix(1000, 0)
	s := NewScheduler(t0, DefaultConfig(), 1)

	if s.ScoreDue(t0.Add(2999 * time.Millisecond)) {
		t.Fatalf("score due early")
	}
	now := t0.Add(9 * time.Second)
	paid := 0
	for s.ScoreDue(now) {
		paid++
		if paid > 10 {
			t.Fatalf("score never caught up")
		}
	}
	if paid != 3 {
		t.Fatalf("awards=%d want=3", paid)
	}
}

func TestScheduler_TickReschedule(t *testing.T) {
	t0 := time.Unix(1000, 0)
	s := NewScheduler(t0, DefaultConfig(), 1)

	if s.TickDue(t0.Add(299 * time.Millisecond)) {
		t.Fatalf("tick due early")
	}
	first := t0.Add(299*time.Millisecond + 500*time.Microsecond)
	if !s.TickDue(first) {
		t.Fatalf("tick not due at the interval")
	}
	if !s.TickDue(first) {
		t.Fatalf("TickDue consumed the boundary")
	}

	s.Reschedule(first, 1)
	if want := first.Add(299*time.Millisecond + 500*time.Microsecond); !s.NextTick().Equal(want) {
		t.Fatalf("next=%s want=%s", s.NextTick(), want)
	}

	late := t0.Add(5 * time.Second)
	s.Reschedule(late, 400)
	if want := late.Add(100 * time.Millisecond); !s.NextTick().Equal(want) {
		t.Fatalf("late next=%s want=%s", s.NextTick(), want)
	}
}
