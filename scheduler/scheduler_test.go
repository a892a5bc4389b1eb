package scheduler

import "testing"

func TestTimerTickAdvancesTime(t *testing.T) {
	s := New()
	s.TimerTick(1234)
	if got, want := s.Now(), uint64(1234); got != want {
		t.Errorf("Now() = %d, want %d", got, want)
	}
	s.TimerTick(1)
	if got, want := s.Now(), uint64(1235); got != want {
		t.Errorf("Now() = %d, want %d", got, want)
	}
}

func TestOrdering(t *testing.T) {
	s := New()
	var fired []string
	if _, err := s.CreateTimer(100, func(*Scheduler) { fired = append(fired, "A") }); err != nil {
		t.Fatalf("CreateTimer(A): %v", err)
	}
	if _, err := s.CreateTimer(100, func(*Scheduler) { fired = append(fired, "B") }); err != nil {
		t.Fatalf("CreateTimer(B): %v", err)
	}
	if _, err := s.CreateTimer(50, func(*Scheduler) { fired = append(fired, "C") }); err != nil {
		t.Fatalf("CreateTimer(C): %v", err)
	}
	s.TimerTick(150)
	want := []string{"C", "A", "B"}
	if len(fired) != len(want) {
		t.Fatalf("fired = %v, want %v", fired, want)
	}
	for i := range want {
		if fired[i] != want[i] {
			t.Errorf("fired[%d] = %s, want %s", i, fired[i], want[i])
		}
	}
}

func TestKillIsIdempotentAndPreventsFiring(t *testing.T) {
	s := New()
	fired := false
	h, err := s.CreateTimer(10, func(*Scheduler) { fired = true })
	if err != nil {
		t.Fatalf("CreateTimer: %v", err)
	}
	s.Kill(h)
	s.Kill(h) // idempotent
	s.TimerTick(100)
	if fired {
		t.Errorf("killed timer fired")
	}
}

func TestReentrantCreateDoesNotFireSameTick(t *testing.T) {
	s := New()
	inner := false
	if _, err := s.CreateTimer(0, func(sc *Scheduler) {
		if _, err := sc.CreateTimer(0, func(*Scheduler) { inner = true }); err != nil {
			t.Fatalf("nested CreateTimer: %v", err)
		}
	}); err != nil {
		t.Fatalf("CreateTimer: %v", err)
	}
	s.TimerTick(0)
	if inner {
		t.Errorf("reentrant timer fired within the same TimerTick call")
	}
	s.TimerTick(0)
	if !inner {
		t.Errorf("reentrant timer did not fire on the following TimerTick")
	}
}

func TestTimerSetFull(t *testing.T) {
	s := New()
	for i := 0; i < MaxTimers; i++ {
		if _, err := s.CreateTimer(1000, func(*Scheduler) {}); err != nil {
			t.Fatalf("CreateTimer %d: %v", i, err)
		}
	}
	if _, err := s.CreateTimer(1000, func(*Scheduler) {}); err == nil {
		t.Errorf("expected TimerSetFull, got nil")
	} else if _, ok := err.(TimerSetFull); !ok {
		t.Errorf("expected TimerSetFull, got %T: %v", err, err)
	}
}
