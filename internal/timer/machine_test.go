package timer_test

import (
	"errors"
	"testing"
	"time"

	"focusroom/backend/internal/model"
	"focusroom/backend/internal/timer"
)

func TestTickRecomputesFromEndTimeAcrossClockJumps(t *testing.T) {
	h := newHarness(t)
	mustNoErr(t, h.machine.SetSubject("Math"), "set subject")
	mustNoErr(t, h.machine.ToggleStart(), "start")

	endMs := h.machine.Snapshot().EndTimeEpochMs
	jumps := []time.Duration{
		time.Second,
		7300 * time.Millisecond,
		200 * time.Millisecond,
		5 * time.Minute,
		59900 * time.Millisecond,
		time.Millisecond,
		3 * time.Minute,
	}
	for i, jump := range jumps {
		h.clock.Advance(jump)
		h.machine.Tick()

		want := timer.RemainingSeconds(endMs, h.nowMs())
		if got := h.machine.Remaining(); got != want {
			t.Fatalf("jump %d: remaining %d, want %d", i, got, want)
		}
		if got := h.machine.Snapshot().FocusRemainingSeconds; got != want {
			t.Fatalf("jump %d: stored remaining %d, want %d", i, got, want)
		}
	}
}

func TestModeSwitchPreservesOtherModeRemaining(t *testing.T) {
	h := newHarness(t)
	mustNoErr(t, h.machine.SetSubject("Chemistry"), "set subject")
	mustNoErr(t, h.machine.ToggleStart(), "start")

	h.clock.Advance(100 * time.Second)
	h.machine.Tick()
	mustErr(t, h.machine.SetMode(model.ModeBreak), timer.ErrTimerRunning, "switch while running")

	mustNoErr(t, h.machine.ToggleStart(), "pause")
	if got := h.machine.Snapshot().FocusRemainingSeconds; got != 1400 {
		t.Fatalf("expected 1400s focus remaining after pause, got %d", got)
	}

	mustNoErr(t, h.machine.SetMode(model.ModeBreak), "switch to break")
	if got := h.machine.Remaining(); got != model.DefaultBreakSeconds {
		t.Fatalf("expected break remaining %d, got %d", model.DefaultBreakSeconds, got)
	}
	mustNoErr(t, h.machine.AdjustTime(60), "adjust break")

	mustNoErr(t, h.machine.SetMode(model.ModeFocus), "switch back to focus")
	snapshot := h.machine.Snapshot()
	if snapshot.FocusRemainingSeconds != 1400 {
		t.Fatalf("focus remaining bled across modes: got %d", snapshot.FocusRemainingSeconds)
	}
	if snapshot.BreakRemainingSeconds != model.DefaultBreakSeconds+60 {
		t.Fatalf("break remaining not preserved: got %d", snapshot.BreakRemainingSeconds)
	}
}

func TestCompletionReportsSessionStartBaseline(t *testing.T) {
	h := newHarness(t)
	mustNoErr(t, h.machine.SetSubject("Biology"), "set subject")
	mustNoErr(t, h.machine.ToggleStart(), "start")

	h.clock.Advance(10 * time.Minute)
	mustErr(t, h.machine.AdjustTime(300), timer.ErrFocusLocked, "adjust mid-session")
	mustErr(t, h.machine.SetBaseline(model.ModeFocus, 3000), timer.ErrFocusLocked, "set baseline mid-session")
	if got := h.machine.Snapshot().FocusBaselineSeconds; got != 1500 {
		t.Fatalf("baseline changed mid-session: %d", got)
	}

	h.clock.Advance(15 * time.Minute)
	h.machine.Tick()

	completions := h.completions.all()
	if len(completions) != 1 {
		t.Fatalf("expected 1 completion, got %d", len(completions))
	}
	if completions[0].DurationMinutes != 25.00 {
		t.Fatalf("expected 25.00 minutes, got %v", completions[0].DurationMinutes)
	}
}

func TestCompletionDeliveredOnceNearZero(t *testing.T) {
	h := newHarness(t)
	mustNoErr(t, h.machine.SetMode(model.ModeBreak), "break mode")
	mustNoErr(t, h.machine.ToggleStart(), "start")

	h.clock.Advance(299*time.Second + 990*time.Millisecond)
	h.machine.Tick()
	if len(h.completions.all()) != 0 {
		t.Fatal("completed before reaching zero")
	}

	h.clock.Advance(10 * time.Millisecond)
	h.machine.Tick()
	h.machine.Tick()
	h.clock.Advance(3 * time.Millisecond)
	h.machine.Tick()
	h.clock.Advance(2 * time.Second)
	h.machine.Tick()

	completions := h.completions.all()
	if len(completions) != 1 {
		t.Fatalf("expected exactly 1 completion, got %d", len(completions))
	}
	if completions[0].Mode != model.ModeBreak || completions[0].DurationMinutes != 5 {
		t.Fatalf("unexpected completion %+v", completions[0])
	}
}

func TestLocalStopSuppressesStaleRemoteActive(t *testing.T) {
	h := newHarness(t)
	mustNoErr(t, h.machine.SetSubject("History"), "set subject")
	mustNoErr(t, h.machine.ToggleStart(), "start")
	h.clock.Advance(10 * time.Second)

	mustNoErr(t, h.machine.ToggleStart(), "stop")
	stopMs := h.nowMs()
	h.clock.Advance(500 * time.Millisecond)

	stale := &model.ActiveTimerRecord{
		Mode:            model.ModeFocus,
		EndTime:         stopMs + 1490*1000,
		IsActive:        true,
		IsFocusStarted:  true,
		SelectedSubject: "History",
		UpdatedAt:       stopMs + 1999,
	}
	h.machine.ApplyRemote(model.ActiveTimerSnapshot{Record: stale})
	if h.machine.Snapshot().IsActive {
		t.Fatal("remote echo inside the suppression window resurrected the timer")
	}

	fresh := *stale
	fresh.UpdatedAt = stopMs + 2000
	fresh.EndTime = stopMs + 20*60*1000
	h.machine.ApplyRemote(model.ActiveTimerSnapshot{Record: &fresh})

	snapshot := h.machine.Snapshot()
	if !snapshot.IsActive {
		t.Fatal("remote start after the suppression window was not adopted")
	}
	if snapshot.EndTimeEpochMs != fresh.EndTime {
		t.Fatalf("expected adopted end time %d, got %d", fresh.EndTime, snapshot.EndTimeEpochMs)
	}
}

func TestAdjustTimeClampsAtBoundaries(t *testing.T) {
	h := newHarness(t)
	mustNoErr(t, h.machine.SetMode(model.ModeBreak), "break mode")

	mustNoErr(t, h.machine.AdjustTime(-1000), "adjust below zero")
	snapshot := h.machine.Snapshot()
	if snapshot.BreakRemainingSeconds != 0 || snapshot.BreakBaselineSeconds != 0 {
		t.Fatalf("expected clamp to 0, got remaining=%d baseline=%d",
			snapshot.BreakRemainingSeconds, snapshot.BreakBaselineSeconds)
	}

	mustNoErr(t, h.machine.AdjustTime(400000), "adjust above max")
	snapshot = h.machine.Snapshot()
	if snapshot.BreakRemainingSeconds != model.MaxSeconds || snapshot.BreakBaselineSeconds != model.MaxSeconds {
		t.Fatalf("expected clamp to %d, got remaining=%d baseline=%d",
			model.MaxSeconds, snapshot.BreakRemainingSeconds, snapshot.BreakBaselineSeconds)
	}

	mustNoErr(t, h.machine.AdjustTime(1), "adjust at max")
	if got := h.machine.Remaining(); got != model.MaxSeconds {
		t.Fatalf("overflowed max: %d", got)
	}
	mustNoErr(t, h.machine.AdjustTime(-1), "adjust down from max")
	if got := h.machine.Remaining(); got != model.MaxSeconds-1 {
		t.Fatalf("expected %d, got %d", model.MaxSeconds-1, got)
	}
}

func TestStartWithoutSubjectIsRejected(t *testing.T) {
	for _, mode := range []model.Mode{model.ModeFocus, model.ModeStopwatch} {
		t.Run(string(mode), func(t *testing.T) {
			h := newHarness(t)
			mustNoErr(t, h.machine.SetMode(mode), "set mode")

			mustErr(t, h.machine.ToggleStart(), timer.ErrSubjectRequired, "start")
			h.sync()

			if h.machine.Snapshot().IsActive {
				t.Fatal("timer started without a subject")
			}
			if puts, deletes := h.remote.counts(); puts != 0 || deletes != 0 {
				t.Fatalf("expected no remote writes, got %d puts %d deletes", puts, deletes)
			}
		})
	}
}

func TestBreakStartsWithoutSubject(t *testing.T) {
	h := newHarness(t)
	mustNoErr(t, h.machine.SetMode(model.ModeBreak), "break mode")
	mustNoErr(t, h.machine.ToggleStart(), "start")
	if !h.machine.Snapshot().IsActive {
		t.Fatal("break should start without a subject")
	}
}

func TestFocusSessionEndToEnd(t *testing.T) {
	h := newHarness(t)
	mustNoErr(t, h.machine.SetSubject("Physics"), "set subject")
	mustNoErr(t, h.machine.ToggleStart(), "start")
	h.sync()

	puts, _ := h.remote.counts()
	if puts != 1 {
		t.Fatalf("expected start to push once, got %d", puts)
	}

	for i := 0; i < 1499; i++ {
		h.clock.Advance(time.Second)
		h.machine.Tick()
	}
	h.clock.Advance(time.Second)
	if got := h.machine.Remaining(); got != 0 {
		t.Fatalf("expected 0 remaining at 25:00, got %d", got)
	}
	h.machine.Tick()
	h.sync()

	snapshot := h.machine.Snapshot()
	if snapshot.IsActive {
		t.Fatal("timer still active after completion")
	}
	if snapshot.IsFocusStarted {
		t.Fatal("focus-started flag not cleared on completion")
	}
	if snapshot.EndTimeEpochMs != 0 {
		t.Fatal("end time not cleared on completion")
	}
	if snapshot.FocusRemainingSeconds != 1500 {
		t.Fatalf("expected remaining refilled to baseline, got %d", snapshot.FocusRemainingSeconds)
	}

	completions := h.completions.all()
	if len(completions) != 1 {
		t.Fatalf("expected 1 completion, got %d", len(completions))
	}
	got := completions[0]
	if got.Mode != model.ModeFocus || got.DurationMinutes != 25.00 || got.Subject != "Physics" {
		t.Fatalf("unexpected completion %+v", got)
	}
	if got.SessionID == "" {
		t.Fatal("completion carries no session id")
	}

	puts, deletes := h.remote.counts()
	if puts != 1 || deletes != 1 {
		t.Fatalf("expected 1 put and 1 delete, got %d puts %d deletes", puts, deletes)
	}
}

func TestResetNeverCompletes(t *testing.T) {
	h := newHarness(t)
	mustNoErr(t, h.machine.SetSubject("Art"), "set subject")
	mustNoErr(t, h.machine.ToggleStart(), "start")
	h.clock.Advance(30 * time.Minute)

	h.machine.Reset()
	h.machine.Tick()
	h.sync()

	if len(h.completions.all()) != 0 {
		t.Fatal("reset produced a completion")
	}
	snapshot := h.machine.Snapshot()
	if snapshot.IsActive || snapshot.IsFocusStarted || snapshot.FocusRemainingSeconds != 1500 {
		t.Fatalf("unexpected state after reset: %+v", snapshot)
	}
	if _, deletes := h.remote.counts(); deletes != 1 {
		t.Fatalf("expected reset to delete the remote record, got %d deletes", deletes)
	}
}

func TestPauseResumeKeepsRemainingAndPushesOnlyTransitions(t *testing.T) {
	h := newHarness(t)
	mustNoErr(t, h.machine.SetSubject("Latin"), "set subject")
	mustNoErr(t, h.machine.ToggleStart(), "start")

	for i := 0; i < 60; i++ {
		h.clock.Advance(time.Second)
		h.machine.Tick()
	}
	mustNoErr(t, h.machine.ToggleStart(), "pause")
	h.clock.Advance(time.Hour)
	h.machine.Tick()
	if got := h.machine.Remaining(); got != 1440 {
		t.Fatalf("expected 1440 while paused, got %d", got)
	}

	mustNoErr(t, h.machine.ToggleStart(), "resume")
	if end := h.machine.Snapshot().EndTimeEpochMs; end != h.nowMs()+1440*1000 {
		t.Fatalf("unexpected end time after resume: %d", end)
	}
	h.sync()

	if ops := h.remote.opLog(); len(ops) != 3 || ops[0] != "put" || ops[1] != "delete" || ops[2] != "put" {
		t.Fatalf("expected put/delete/put, got %v", ops)
	}
}

func TestSubjectLockedDuringFocusSession(t *testing.T) {
	h := newHarness(t)
	mustNoErr(t, h.machine.SetSubject("Music"), "set subject")
	mustNoErr(t, h.machine.ToggleStart(), "start")
	mustErr(t, h.machine.SetSubject("Drama"), timer.ErrFocusLocked, "change subject")

	mustNoErr(t, h.machine.ToggleStart(), "pause")
	mustErr(t, h.machine.SetSubject("Drama"), timer.ErrFocusLocked, "change subject while paused")

	h.machine.Reset()
	mustNoErr(t, h.machine.SetSubject("Drama"), "change subject after reset")
}

func TestRemoteWriteFailureLeavesLocalStateAlone(t *testing.T) {
	h := newHarness(t)
	h.remote.writeErr = errors.New("network down")

	mustNoErr(t, h.machine.SetSubject("Geography"), "set subject")
	mustNoErr(t, h.machine.ToggleStart(), "start")
	h.sync()

	if !h.machine.Snapshot().IsActive {
		t.Fatal("local state rolled back after remote failure")
	}
}

func TestStopwatchFinishReportsElapsed(t *testing.T) {
	h := newHarness(t)
	mustNoErr(t, h.machine.SetMode(model.ModeStopwatch), "stopwatch mode")
	mustNoErr(t, h.machine.SetSubject("Reading"), "set subject")
	mustErr(t, h.machine.AdjustTime(10), timer.ErrNotAdjustable, "adjust stopwatch")

	mustNoErr(t, h.machine.ToggleStart(), "start")
	h.clock.Advance(60 * time.Second)
	mustNoErr(t, h.machine.ToggleStart(), "pause")
	h.clock.Advance(10 * time.Minute)
	mustNoErr(t, h.machine.ToggleStart(), "resume")
	h.clock.Advance(30 * time.Second)
	h.machine.Tick()

	if got := h.machine.Remaining(); got != 90 {
		t.Fatalf("expected 90s elapsed, got %d", got)
	}
	mustNoErr(t, h.machine.Finish(), "finish")

	completions := h.completions.all()
	if len(completions) != 1 || completions[0].DurationMinutes != 1.5 || completions[0].Subject != "Reading" {
		t.Fatalf("unexpected completions %+v", completions)
	}
	if got := h.machine.Snapshot(); got.IsActive || got.StopwatchElapsedSeconds != 0 {
		t.Fatalf("stopwatch not cleared after finish: %+v", got)
	}
}

func TestFinishRequiresStopwatch(t *testing.T) {
	h := newHarness(t)
	mustErr(t, h.machine.Finish(), timer.ErrNotStopwatch, "finish in focus")
}

func TestLocalOnlyMachineWithoutRemote(t *testing.T) {
	clock := newManualClock()
	var completed int
	m := timer.New(timer.Options{
		Clock:      clock,
		OnComplete: func(model.Completion) { completed++ },
	})
	mustNoErr(t, m.SetMode(model.ModeBreak), "break mode")
	mustNoErr(t, m.ToggleStart(), "start")
	clock.Advance(5 * time.Minute)
	m.Tick()
	if completed != 1 {
		t.Fatalf("expected completion without a remote, got %d", completed)
	}
}
