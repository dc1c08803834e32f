package timer

import (
	"testing"
	"time"
)

func TestPauseResumeExcludedFromStop(t *testing.T) {
	tm := Start()
	time.Sleep(5 * time.Millisecond)
	tm.Pause()
	time.Sleep(20 * time.Millisecond)
	paused := tm.Resume()
	time.Sleep(5 * time.Millisecond)
	total := tm.Stop()

	if paused < 15*time.Millisecond {
		t.Errorf("Resume() = %v, want at least ~20ms", paused)
	}
	if total >= paused {
		t.Errorf("Stop() = %v, should exclude the %v pause", total, paused)
	}
}

func TestPauseIsIdempotent(t *testing.T) {
	tm := Start()
	tm.Pause()
	tm.Pause()
	tm.Resume()
	tm.Stop()
}

func TestResumeWithoutPausePanics(t *testing.T) {
	tm := Start()
	defer func() {
		if recover() == nil {
			t.Error("expected panic resuming a timer that was not paused")
		}
	}()
	tm.Resume()
}

func TestPauseAfterStopPanics(t *testing.T) {
	tm := Start()
	tm.Stop()
	defer func() {
		if recover() == nil {
			t.Error("expected panic pausing a stopped timer")
		}
	}()
	tm.Pause()
}

func TestStopAfterStopPanics(t *testing.T) {
	tm := Start()
	tm.Stop()
	defer func() {
		if recover() == nil {
			t.Error("expected panic stopping an already-stopped timer")
		}
	}()
	tm.Stop()
}

func TestResumeAfterStopPanics(t *testing.T) {
	tm := Start()
	tm.Pause()
	tm.Stop()
	defer func() {
		if recover() == nil {
			t.Error("expected panic resuming a stopped timer")
		}
	}()
	tm.Resume()
}
