package timer

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"focusroom/backend/internal/model"
)

// MirrorKey names the single versioned entry the local mirror is stored under.
const MirrorKey = "timer.v1.json"

// Mirror persists the timer state on the device so it survives restarts.
type Mirror interface {
	Load() (*model.TimerSession, error)
	Save(session model.TimerSession) error
}

// FileMirror stores the state as JSON in one file under dir.
type FileMirror struct {
	path string
}

func NewFileMirror(dir string) *FileMirror {
	return &FileMirror{path: filepath.Join(dir, MirrorKey)}
}

func (f *FileMirror) Path() string {
	return f.path
}

// Load returns nil without error when nothing has been saved yet.
func (f *FileMirror) Load() (*model.TimerSession, error) {
	raw, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read timer mirror: %w", err)
	}

	var session model.TimerSession
	if err := json.Unmarshal(raw, &session); err != nil {
		return nil, fmt.Errorf("parse timer mirror: %w", err)
	}
	return &session, nil
}

func (f *FileMirror) Save(session model.TimerSession) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return fmt.Errorf("create mirror dir: %w", err)
	}

	raw, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal timer mirror: %w", err)
	}

	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return fmt.Errorf("write timer mirror: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("replace timer mirror: %w", err)
	}
	return nil
}

// ForgetRemoteVersion clears the mirrored version guard. Version numbers
// belong to one account on one server, so they are dropped whenever either
// changes.
func ForgetRemoteVersion(mirror Mirror) error {
	session, err := mirror.Load()
	if err != nil || session == nil || session.LastRemoteVersion == 0 {
		return err
	}
	session.LastRemoteVersion = 0
	return mirror.Save(*session)
}

// LoadMirror rehydrates the machine from its mirror, if any.
func (m *Machine) LoadMirror() error {
	if m.mirror == nil {
		return nil
	}
	session, err := m.mirror.Load()
	if err != nil {
		return err
	}
	if session != nil {
		m.Restore(*session)
	}
	return nil
}

// Restore replaces the state with a previously mirrored session. A running
// countdown is recomputed from its end time and discarded if it expired
// while nothing was watching it.
func (m *Machine) Restore(session model.TimerSession) {
	m.mu.Lock()
	state := normalizeSession(session)
	nowMs := epochMs(m.clock.Now())
	discarded := false

	if state.IsActive {
		switch {
		case state.Mode == model.ModeStopwatch && state.StartTimeEpochMs > 0:
			state.StopwatchElapsedSeconds = ElapsedSeconds(state.StartTimeEpochMs, nowMs)
			state.EndTimeEpochMs = 0
		case state.Mode.Countdown() && state.EndTimeEpochMs > 0:
			remaining := RemainingSeconds(state.EndTimeEpochMs, nowMs)
			if remaining > 0 {
				setRemaining(&state, state.Mode, remaining)
				state.StartTimeEpochMs = 0
				break
			}
			discarded = true
			state.IsActive = false
			state.EndTimeEpochMs = 0
			state.SessionStartBaselineSeconds = 0
			state.SessionID = ""
			setRemaining(&state, state.Mode, state.BaselineSeconds())
			if state.Mode == model.ModeFocus {
				state.IsFocusStarted = false
			}
		default:
			state.IsActive = false
			state.EndTimeEpochMs = 0
			state.StartTimeEpochMs = 0
		}
	} else {
		state.EndTimeEpochMs = 0
		state.StartTimeEpochMs = 0
	}

	m.state = state
	m.persistLocked()
	if discarded {
		m.writer.enqueue(remoteOp{})
	}
	m.mu.Unlock()
}

func normalizeSession(session model.TimerSession) model.TimerSession {
	if !session.Mode.Valid() {
		session.Mode = model.ModeFocus
	}
	session.FocusRemainingSeconds = clampSeconds(session.FocusRemainingSeconds)
	session.BreakRemainingSeconds = clampSeconds(session.BreakRemainingSeconds)
	session.FocusBaselineSeconds = clampSeconds(session.FocusBaselineSeconds)
	session.BreakBaselineSeconds = clampSeconds(session.BreakBaselineSeconds)
	session.StopwatchElapsedSeconds = clampSeconds(session.StopwatchElapsedSeconds)
	return session
}

func setRemaining(session *model.TimerSession, mode model.Mode, seconds int) {
	switch mode {
	case model.ModeBreak:
		session.BreakRemainingSeconds = seconds
	case model.ModeStopwatch:
		session.StopwatchElapsedSeconds = seconds
	default:
		session.FocusRemainingSeconds = seconds
	}
}
