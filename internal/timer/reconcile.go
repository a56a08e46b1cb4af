package timer

import (
	"time"

	"focusroom/backend/internal/model"
)

// ApplyRemote reconciles local state with a snapshot of the active-timer
// record. Snapshots and local commands are not transactional, so stale
// snapshots are filtered by version first and then by the local-stop
// suppression window and drift tolerance.
//
// A Resync snapshot is the server's current state and replaces the version
// guard's high-water mark, even when it is lower; the server's counter may
// have restarted.
func (m *Machine) ApplyRemote(snapshot model.ActiveTimerSnapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch {
	case snapshot.Resync:
		m.state.LastRemoteVersion = snapshot.Version
	case snapshot.Version != 0:
		if snapshot.Version <= m.state.LastRemoteVersion {
			return
		}
		m.state.LastRemoteVersion = snapshot.Version
	}

	now := m.clock.Now()
	nowMs := epochMs(now)
	record := snapshot.Record

	if record == nil || !record.IsActive {
		// A local write not yet acknowledged supersedes whatever this
		// snapshot stopped.
		if m.state.IsActive && !m.writer.busy() {
			m.stopLocked(now)
		}
		m.persistLocked()
		return
	}

	if !record.Mode.Valid() {
		m.persistLocked()
		return
	}
	if m.suppressedLocked(record) {
		m.persistLocked()
		return
	}

	var remoteValue int
	if record.Mode == model.ModeStopwatch {
		if record.StartTime <= 0 || record.StartTime > nowMs {
			m.persistLocked()
			return
		}
		remoteValue = ElapsedSeconds(record.StartTime, nowMs)
	} else {
		if record.EndTime <= nowMs {
			m.persistLocked()
			return
		}
		remoteValue = RemainingSeconds(record.EndTime, nowMs)
	}

	if m.state.IsActive && m.state.Mode == record.Mode {
		drift := m.liveRemainingLocked(nowMs) - remoteValue
		if drift < 0 {
			drift = -drift
		}
		if drift <= m.driftTolerance {
			m.persistLocked()
			return
		}
	}

	m.adoptLocked(record, remoteValue, now)
	m.persistLocked()
}

func (m *Machine) suppressedLocked(record *model.ActiveTimerRecord) bool {
	if m.lastLocalStop.IsZero() {
		return false
	}
	return record.UpdatedAt < epochMs(m.lastLocalStop)+m.suppressWindow.Milliseconds()
}

func (m *Machine) adoptLocked(record *model.ActiveTimerRecord, remoteValue int, now time.Time) {
	if m.state.IsActive && m.state.Mode != record.Mode {
		m.stopLocked(now)
	}

	m.state.Mode = record.Mode
	m.state.IsActive = true
	m.state.SelectedSubject = record.SelectedSubject
	m.state.IsFocusStarted = record.IsFocusStarted
	m.state.SessionID = record.SessionID
	m.setRemainingLocked(record.Mode, remoteValue)

	if record.Mode == model.ModeStopwatch {
		m.state.StartTimeEpochMs = record.StartTime
		m.state.EndTimeEpochMs = 0
		return
	}

	m.state.EndTimeEpochMs = record.EndTime
	m.state.StartTimeEpochMs = 0
	if record.BaselineSeconds > 0 {
		m.state.SessionStartBaselineSeconds = record.BaselineSeconds
	} else {
		m.state.SessionStartBaselineSeconds = remoteValue
	}
}

// noteRemoteVersion records the version the server assigned to one of this
// device's own writes, so the echo of that write and anything older is
// skipped.
func (m *Machine) noteRemoteVersion(version int64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if version <= m.state.LastRemoteVersion {
		return
	}
	m.state.LastRemoteVersion = version
	m.persistLocked()
}
