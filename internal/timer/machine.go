package timer

import (
	"context"
	"log"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"focusroom/backend/internal/model"
)

const (
	DefaultSuppressWindow = 2000 * time.Millisecond
	DefaultDriftTolerance = 2
	DefaultTickInterval   = time.Second
	DefaultWriteTimeout   = 10 * time.Second
)

// Options wires a Machine to its collaborators. Remote and Mirror may be nil
// for a local-only timer.
type Options struct {
	Clock      Clock
	Remote     Remote
	Mirror     Mirror
	OnComplete func(model.Completion)
	DeviceID   string

	// SuppressWindow ignores remote "active" records written less than this
	// long after a local stop.
	SuppressWindow time.Duration
	// DriftTolerance is the largest local/remote disagreement, in seconds,
	// tolerated without adopting the remote record.
	DriftTolerance int
	TickInterval   time.Duration
	WriteTimeout   time.Duration
}

// Machine is the focus timer state machine. Local state is authoritative;
// the remote record is only a cross-device hint.
type Machine struct {
	mu             sync.Mutex
	state          model.TimerSession
	clock          Clock
	mirror         Mirror
	remote         Remote
	writer         *remoteWriter
	onComplete     func(model.Completion)
	deviceID       string
	suppressWindow time.Duration
	driftTolerance int
	tickInterval   time.Duration
	lastLocalStop  time.Time
}

func New(options Options) *Machine {
	if options.Clock == nil {
		options.Clock = SystemClock{}
	}
	if options.SuppressWindow <= 0 {
		options.SuppressWindow = DefaultSuppressWindow
	}
	if options.DriftTolerance <= 0 {
		options.DriftTolerance = DefaultDriftTolerance
	}
	if options.TickInterval <= 0 {
		options.TickInterval = DefaultTickInterval
	}
	if options.WriteTimeout <= 0 {
		options.WriteTimeout = DefaultWriteTimeout
	}

	m := &Machine{
		state:          model.DefaultTimerSession(),
		clock:          options.Clock,
		mirror:         options.Mirror,
		remote:         options.Remote,
		onComplete:     options.OnComplete,
		deviceID:       options.DeviceID,
		suppressWindow: options.SuppressWindow,
		driftTolerance: options.DriftTolerance,
		tickInterval:   options.TickInterval,
	}
	m.writer = newRemoteWriter(options.Remote, options.WriteTimeout, m.noteRemoteVersion)
	return m
}

// ToggleStart starts an idle timer or stops a running one.
func (m *Machine) ToggleStart() error {
	m.mu.Lock()
	now := m.clock.Now()

	if m.state.IsActive {
		m.stopLocked(now)
		m.lastLocalStop = now
		m.persistLocked()
		m.writer.enqueue(remoteOp{})
		m.mu.Unlock()
		return nil
	}

	mode := m.state.Mode
	if mode.RequiresSubject() && m.state.SelectedSubject == "" {
		m.mu.Unlock()
		return ErrSubjectRequired
	}

	nowMs := epochMs(now)
	if mode == model.ModeStopwatch {
		m.state.StartTimeEpochMs = nowMs - int64(m.state.StopwatchElapsedSeconds)*1000
	} else {
		remaining := m.remainingLocked(mode)
		if remaining <= 0 {
			remaining = m.baselineLocked(mode)
			m.setRemainingLocked(mode, remaining)
		}
		if remaining <= 0 {
			m.mu.Unlock()
			return ErrZeroDuration
		}
		m.state.EndTimeEpochMs = nowMs + int64(remaining)*1000
		m.state.SessionStartBaselineSeconds = remaining
		if mode == model.ModeFocus {
			m.state.IsFocusStarted = true
		}
	}
	if m.state.SessionID == "" {
		m.state.SessionID = uuid.NewString()
	}
	m.state.IsActive = true

	record := m.recordLocked(nowMs)
	m.persistLocked()
	m.writer.enqueue(remoteOp{record: &record})
	m.mu.Unlock()
	return nil
}

// Reset returns the live mode to idle at its baseline. A reset never
// produces a completion.
func (m *Machine) Reset() {
	m.mu.Lock()
	now := m.clock.Now()
	if m.state.IsActive {
		m.lastLocalStop = now
	}

	m.state.IsActive = false
	m.state.EndTimeEpochMs = 0
	m.state.StartTimeEpochMs = 0
	m.state.SessionStartBaselineSeconds = 0
	m.state.SessionID = ""

	switch m.state.Mode {
	case model.ModeFocus:
		m.state.IsFocusStarted = false
		m.state.FocusRemainingSeconds = m.state.FocusBaselineSeconds
	case model.ModeBreak:
		m.state.BreakRemainingSeconds = m.state.BreakBaselineSeconds
	case model.ModeStopwatch:
		m.state.StopwatchElapsedSeconds = 0
	}

	m.persistLocked()
	m.writer.enqueue(remoteOp{})
	m.mu.Unlock()
}

// AdjustTime adds deltaSeconds to the live countdown and its baseline.
func (m *Machine) AdjustTime(deltaSeconds int) error {
	m.mu.Lock()
	mode := m.state.Mode
	if m.state.IsFocusStarted && mode == model.ModeFocus {
		m.mu.Unlock()
		return ErrFocusLocked
	}
	if mode == model.ModeStopwatch {
		m.mu.Unlock()
		return ErrNotAdjustable
	}

	now := m.clock.Now()
	nowMs := epochMs(now)
	remaining := clampSeconds(m.liveRemainingLocked(nowMs) + deltaSeconds)
	m.setRemainingLocked(mode, remaining)
	m.setBaselineLocked(mode, clampSeconds(m.baselineLocked(mode)+deltaSeconds))

	if !m.state.IsActive {
		m.persistLocked()
		m.mu.Unlock()
		return nil
	}

	// A running break keeps its absolute anchor in step with the edit.
	m.state.EndTimeEpochMs = nowMs + int64(remaining)*1000
	m.state.SessionStartBaselineSeconds = clampSeconds(m.state.SessionStartBaselineSeconds + deltaSeconds)
	record := m.recordLocked(nowMs)
	m.persistLocked()
	m.writer.enqueue(remoteOp{record: &record})
	m.mu.Unlock()
	return nil
}

// SetBaseline sets the configured full duration of a countdown mode.
func (m *Machine) SetBaseline(mode model.Mode, seconds int) error {
	if !mode.Countdown() {
		return ErrInvalidMode
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if mode == model.ModeFocus && m.state.IsFocusStarted {
		return ErrFocusLocked
	}
	if m.state.IsActive && m.state.Mode == mode {
		return ErrTimerRunning
	}

	seconds = clampSeconds(seconds)
	m.setBaselineLocked(mode, seconds)
	m.setRemainingLocked(mode, seconds)
	m.persistLocked()
	return nil
}

// SetMode switches the live countdown. Switching is refused while any
// session is running.
func (m *Machine) SetMode(mode model.Mode) error {
	if !mode.Valid() {
		return ErrInvalidMode
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state.Mode == mode {
		return nil
	}
	if m.state.IsActive {
		return ErrTimerRunning
	}
	m.state.Mode = mode
	m.state.SessionID = ""
	m.persistLocked()
	return nil
}

func (m *Machine) SetSubject(subject string) error {
	subject = strings.TrimSpace(subject)

	m.mu.Lock()
	if m.state.IsFocusStarted {
		m.mu.Unlock()
		return ErrFocusLocked
	}
	if m.state.SelectedSubject == subject {
		m.mu.Unlock()
		return nil
	}
	m.state.SelectedSubject = subject

	if !m.state.IsActive {
		m.persistLocked()
		m.mu.Unlock()
		return nil
	}

	record := m.recordLocked(epochMs(m.clock.Now()))
	m.persistLocked()
	m.writer.enqueue(remoteOp{record: &record})
	m.mu.Unlock()
	return nil
}

// Finish closes a stopwatch session and reports its elapsed time.
func (m *Machine) Finish() error {
	m.mu.Lock()
	if m.state.Mode != model.ModeStopwatch {
		m.mu.Unlock()
		return ErrNotStopwatch
	}

	now := m.clock.Now()
	elapsed := m.liveRemainingLocked(epochMs(now))
	if m.state.IsActive {
		m.lastLocalStop = now
	}
	completion := model.Completion{
		SessionID:       m.state.SessionID,
		Mode:            model.ModeStopwatch,
		DurationMinutes: minutes(elapsed),
		Subject:         m.state.SelectedSubject,
		CompletedAt:     now,
	}

	m.state.IsActive = false
	m.state.StartTimeEpochMs = 0
	m.state.StopwatchElapsedSeconds = 0
	m.state.SessionID = ""
	m.persistLocked()
	m.writer.enqueue(remoteOp{})
	m.mu.Unlock()

	if elapsed > 0 {
		m.deliver(completion)
	}
	return nil
}

// Tick recomputes the live value from the absolute anchor and fires
// completion when a countdown reaches zero.
func (m *Machine) Tick() {
	m.mu.Lock()
	if !m.state.IsActive {
		m.mu.Unlock()
		return
	}

	now := m.clock.Now()
	nowMs := epochMs(now)

	if m.state.Mode == model.ModeStopwatch {
		elapsed := ElapsedSeconds(m.state.StartTimeEpochMs, nowMs)
		m.state.StopwatchElapsedSeconds = elapsed
		if elapsed < model.MaxSeconds {
			m.persistLocked()
			m.mu.Unlock()
			return
		}
		m.state.IsActive = false
		m.state.StartTimeEpochMs = 0
		m.persistLocked()
		m.writer.enqueue(remoteOp{})
		m.mu.Unlock()
		return
	}

	mode := m.state.Mode
	remaining := RemainingSeconds(m.state.EndTimeEpochMs, nowMs)
	if remaining > 0 {
		m.setRemainingLocked(mode, remaining)
		m.persistLocked()
		m.mu.Unlock()
		return
	}

	completion := m.completeLocked(now)
	m.persistLocked()
	m.writer.enqueue(remoteOp{})
	m.mu.Unlock()

	m.deliver(completion)
}

// Run ticks the machine, applies remote snapshots and drains remote writes
// until ctx is done.
func (m *Machine) Run(ctx context.Context) {
	var updates <-chan model.ActiveTimerSnapshot
	if m.remote != nil {
		ch, err := m.remote.Subscribe(ctx)
		if err != nil {
			log.Printf("timer: subscribe failed, running local-only: %v", err)
		} else {
			updates = ch
		}
		go m.writer.run(ctx)
	}

	ticker := time.NewTicker(m.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Tick()
		case snapshot, ok := <-updates:
			if !ok {
				updates = nil
				continue
			}
			m.ApplyRemote(snapshot)
		}
	}
}

// SyncNow sends every queued remote write before returning.
func (m *Machine) SyncNow(ctx context.Context) {
	m.writer.drain(ctx)
}

// PullRemote fetches the current remote record and reconciles with it. The
// result resets the version guard to the server's version.
func (m *Machine) PullRemote(ctx context.Context) error {
	if m.remote == nil {
		return nil
	}
	snapshot, err := m.remote.Get(ctx)
	if err != nil {
		return err
	}
	snapshot.Resync = true
	m.ApplyRemote(snapshot)
	return nil
}

// Snapshot returns a copy of the state with the live value recomputed.
func (m *Machine) Snapshot() model.TimerSession {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := m.state
	if snapshot.IsActive {
		live := m.liveRemainingLocked(epochMs(m.clock.Now()))
		switch snapshot.Mode {
		case model.ModeFocus:
			snapshot.FocusRemainingSeconds = live
		case model.ModeBreak:
			snapshot.BreakRemainingSeconds = live
		case model.ModeStopwatch:
			snapshot.StopwatchElapsedSeconds = live
		}
	}
	return snapshot
}

// Remaining returns the live countdown, or elapsed seconds in stopwatch mode.
func (m *Machine) Remaining() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.liveRemainingLocked(epochMs(m.clock.Now()))
}

func (m *Machine) completeLocked(now time.Time) model.Completion {
	mode := m.state.Mode
	completion := model.Completion{
		SessionID:       m.state.SessionID,
		Mode:            mode,
		DurationMinutes: minutes(m.state.SessionStartBaselineSeconds),
		Subject:         m.state.SelectedSubject,
		CompletedAt:     now,
	}

	m.state.IsActive = false
	m.state.EndTimeEpochMs = 0
	m.state.SessionStartBaselineSeconds = 0
	m.state.SessionID = ""
	m.setRemainingLocked(mode, m.baselineLocked(mode))
	if mode == model.ModeFocus {
		m.state.IsFocusStarted = false
	}
	return completion
}

// stopLocked freezes the live value and clears the running anchor.
func (m *Machine) stopLocked(now time.Time) {
	nowMs := epochMs(now)
	switch m.state.Mode {
	case model.ModeStopwatch:
		m.state.StopwatchElapsedSeconds = ElapsedSeconds(m.state.StartTimeEpochMs, nowMs)
	default:
		m.setRemainingLocked(m.state.Mode, RemainingSeconds(m.state.EndTimeEpochMs, nowMs))
	}
	m.state.IsActive = false
	m.state.EndTimeEpochMs = 0
	m.state.StartTimeEpochMs = 0
}

func (m *Machine) deliver(completion model.Completion) {
	if m.onComplete != nil {
		m.onComplete(completion)
	}
}

func (m *Machine) persistLocked() {
	if m.mirror == nil {
		return
	}
	if err := m.mirror.Save(m.state); err != nil {
		log.Printf("timer: save local mirror: %v", err)
	}
}

func (m *Machine) recordLocked(nowMs int64) model.ActiveTimerRecord {
	return model.ActiveTimerRecord{
		Mode:            m.state.Mode,
		EndTime:         m.state.EndTimeEpochMs,
		StartTime:       m.state.StartTimeEpochMs,
		IsActive:        m.state.IsActive,
		IsFocusStarted:  m.state.IsFocusStarted,
		SelectedSubject: m.state.SelectedSubject,
		SessionID:       m.state.SessionID,
		BaselineSeconds: m.state.SessionStartBaselineSeconds,
		UpdatedAt:       nowMs,
		DeviceID:        m.deviceID,
	}
}

func (m *Machine) liveRemainingLocked(nowMs int64) int {
	if m.state.IsActive {
		if m.state.Mode == model.ModeStopwatch {
			return ElapsedSeconds(m.state.StartTimeEpochMs, nowMs)
		}
		return RemainingSeconds(m.state.EndTimeEpochMs, nowMs)
	}
	return m.remainingLocked(m.state.Mode)
}

func (m *Machine) remainingLocked(mode model.Mode) int {
	switch mode {
	case model.ModeBreak:
		return m.state.BreakRemainingSeconds
	case model.ModeStopwatch:
		return m.state.StopwatchElapsedSeconds
	default:
		return m.state.FocusRemainingSeconds
	}
}

func (m *Machine) setRemainingLocked(mode model.Mode, seconds int) {
	setRemaining(&m.state, mode, seconds)
}

func (m *Machine) baselineLocked(mode model.Mode) int {
	switch mode {
	case model.ModeBreak:
		return m.state.BreakBaselineSeconds
	case model.ModeStopwatch:
		return 0
	default:
		return m.state.FocusBaselineSeconds
	}
}

func (m *Machine) setBaselineLocked(mode model.Mode, seconds int) {
	switch mode {
	case model.ModeBreak:
		m.state.BreakBaselineSeconds = seconds
	case model.ModeFocus:
		m.state.FocusBaselineSeconds = seconds
	}
}

// minutes converts seconds to minutes rounded to two decimals.
func minutes(seconds int) float64 {
	return math.Round(float64(seconds)/60*100) / 100
}
