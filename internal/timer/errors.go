package timer

import "errors"

var (
	// ErrSubjectRequired rejects starting a FOCUS or STOPWATCH session without a subject.
	ErrSubjectRequired = errors.New("a subject must be selected before starting")

	// ErrFocusLocked rejects edits while a focus session is in progress.
	ErrFocusLocked = errors.New("focus session in progress; pause and reset first")

	ErrTimerRunning  = errors.New("timer is running")
	ErrNotAdjustable = errors.New("stopwatch time cannot be adjusted")
	ErrNotStopwatch  = errors.New("only stopwatch sessions can be finished")
	ErrInvalidMode   = errors.New("invalid mode")
	ErrZeroDuration  = errors.New("duration must be greater than zero")
)
