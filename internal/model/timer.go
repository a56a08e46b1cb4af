package model

import "time"

type Mode string

const (
	ModeFocus     Mode = "FOCUS"
	ModeBreak     Mode = "BREAK"
	ModeStopwatch Mode = "STOPWATCH"
)

const (
	DefaultFocusSeconds = 25 * 60
	DefaultBreakSeconds = 5 * 60

	// MaxSeconds is 99:59:59, the largest value any countdown or stopwatch may hold.
	MaxSeconds = 359999
)

func (m Mode) Valid() bool {
	return m == ModeFocus || m == ModeBreak || m == ModeStopwatch
}

// RequiresSubject reports whether a session in this mode must carry a subject label.
func (m Mode) RequiresSubject() bool {
	return m == ModeFocus || m == ModeStopwatch
}

func (m Mode) Countdown() bool {
	return m == ModeFocus || m == ModeBreak
}

// TimerSession is the full client-side timer state. It is what the local
// mirror serializes.
type TimerSession struct {
	Mode                        Mode   `json:"mode"`
	FocusRemainingSeconds       int    `json:"focusRemainingSeconds"`
	BreakRemainingSeconds       int    `json:"breakRemainingSeconds"`
	FocusBaselineSeconds        int    `json:"focusBaselineSeconds"`
	BreakBaselineSeconds        int    `json:"breakBaselineSeconds"`
	StopwatchElapsedSeconds     int    `json:"stopwatchElapsedSeconds"`
	IsActive                    bool   `json:"isActive"`
	IsFocusStarted              bool   `json:"isFocusStarted"`
	SelectedSubject             string `json:"selectedSubject"`
	EndTimeEpochMs              int64  `json:"endTime,omitempty"`
	StartTimeEpochMs            int64  `json:"startTime,omitempty"`
	SessionStartBaselineSeconds int    `json:"sessionStartBaselineSeconds"`
	SessionID                   string `json:"sessionId,omitempty"`
	LastRemoteVersion           int64  `json:"lastRemoteVersion"`
}

func DefaultTimerSession() TimerSession {
	return TimerSession{
		Mode:                  ModeFocus,
		FocusRemainingSeconds: DefaultFocusSeconds,
		BreakRemainingSeconds: DefaultBreakSeconds,
		FocusBaselineSeconds:  DefaultFocusSeconds,
		BreakBaselineSeconds:  DefaultBreakSeconds,
	}
}

// RemainingSeconds returns the stored countdown for the live mode. For a
// running session this may be stale; the timer package recomputes it from
// EndTimeEpochMs.
func (s TimerSession) RemainingSeconds() int {
	switch s.Mode {
	case ModeBreak:
		return s.BreakRemainingSeconds
	case ModeStopwatch:
		return s.StopwatchElapsedSeconds
	default:
		return s.FocusRemainingSeconds
	}
}

func (s TimerSession) BaselineSeconds() int {
	switch s.Mode {
	case ModeBreak:
		return s.BreakBaselineSeconds
	case ModeStopwatch:
		return 0
	default:
		return s.FocusBaselineSeconds
	}
}

// ActiveTimerRecord is the per-user remote document that says "a session
// is running somewhere on this account". It is deleted, not flagged, when
// the session stops.
type ActiveTimerRecord struct {
	UserID          string `json:"-" dynamodbav:"user_id"`
	Mode            Mode   `json:"mode" dynamodbav:"mode"`
	EndTime         int64  `json:"endTime" dynamodbav:"end_time"`
	StartTime       int64  `json:"startTime,omitempty" dynamodbav:"start_time"`
	IsActive        bool   `json:"isActive" dynamodbav:"is_active"`
	IsFocusStarted  bool   `json:"isFocusStarted" dynamodbav:"is_focus_started"`
	SelectedSubject string `json:"selectedSubject" dynamodbav:"selected_subject"`
	SessionID       string `json:"sessionId,omitempty" dynamodbav:"session_id"`
	BaselineSeconds int    `json:"baselineSeconds,omitempty" dynamodbav:"baseline_seconds"`
	UpdatedAt       int64  `json:"updatedAt" dynamodbav:"updated_at"`
	Version         int64  `json:"version" dynamodbav:"version"`
	DeviceID        string `json:"deviceId,omitempty" dynamodbav:"device_id"`
}

// ActiveTimerSnapshot is one delivery of the active-timer record. A nil
// Record means the record was deleted at Version.
type ActiveTimerSnapshot struct {
	Version int64              `json:"version"`
	Record  *ActiveTimerRecord `json:"record"`

	// Resync marks a snapshot fetched as the current state (a pull, or the
	// first event of a stream connection) rather than a change notification.
	// It is set client-side and never sent.
	Resync bool `json:"-"`
}

// Completion is handed to the completion callback once per finished session.
type Completion struct {
	SessionID       string    `json:"sessionId"`
	Mode            Mode      `json:"mode"`
	DurationMinutes float64   `json:"durationMinutes"`
	Subject         string    `json:"subject"`
	CompletedAt     time.Time `json:"completedAt"`
}
