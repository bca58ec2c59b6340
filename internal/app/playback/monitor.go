package playback

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/muse/internal/domain/snapshot"
)

// Defaults for Config zero values.
const (
	DefaultPollInterval      = time.Second
	DefaultPositionThreshold = 1000 // ms
)

// Config holds monitor configuration.
type Config struct {
	PollInterval        time.Duration
	PositionThresholdMs int
}

// Monitor polls the player and emits flag/context updates for one session.
type Monitor struct {
	sessionID string
	source    StateSource
	sink      Sink
	config    Config
	log       zerolog.Logger
	now       func() time.Time

	mu       sync.RWMutex
	last     *snapshot.Snapshot
	lastSeen time.Time
	state    State
}

// MonitorOption configures a Monitor.
type MonitorOption func(*Monitor)

// WithLogger sets the logger used for poll diagnostics.
func WithLogger(l zerolog.Logger) MonitorOption {
	return func(m *Monitor) {
		m.log = l
	}
}

// WithClock injects the clock used to measure time between polls.
func WithClock(now func() time.Time) MonitorOption {
	return func(m *Monitor) {
		m.now = now
	}
}

// NewMonitor creates a monitor for sessionID.
func NewMonitor(sessionID string, source StateSource, sink Sink, config Config, opts ...MonitorOption) *Monitor {
	if config.PollInterval <= 0 {
		config.PollInterval = DefaultPollInterval
	}
	if config.PositionThresholdMs <= 0 {
		config.PositionThresholdMs = DefaultPositionThreshold
	}
	m := &Monitor{
		sessionID: sessionID,
		source:    source,
		sink:      sink,
		config:    config,
		log:       zlog.Logger,
		now:       time.Now,
		state:     StateUnknown,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Run polls until ctx is cancelled. It emits nothing on exit.
func (m *Monitor) Run(ctx context.Context) {
	m.log.Info().Msgf("monitor: started: session=%s interval=%s", m.sessionID, m.config.PollInterval)
	defer m.log.Info().Msgf("monitor: stopped: session=%s", m.sessionID)

	for {
		if ctx.Err() != nil {
			return
		}
		// Errors are logged in Poll; the next cycle retries.
		_, _ = m.Poll(ctx)

		if ctx.Err() != nil {
			return
		}
		timer := time.NewTimer(m.config.PollInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

// Poll runs one monitor cycle. It reports whether a state update was emitted.
func (m *Monitor) Poll(ctx context.Context) (bool, error) {
	curr, err := m.source.PlayerSnapshot(ctx)
	if err != nil {
		if ctx.Err() == nil {
			m.log.Warn().Err(err).Msgf("monitor: poll failed: session=%s", m.sessionID)
		}
		return false, err
	}

	seen := m.now()

	m.mu.Lock()
	var elapsed time.Duration
	if m.last != nil {
		elapsed = seen.Sub(m.lastSeen)
	}
	changes := Diff(m.last, curr, elapsed, m.config.PositionThresholdMs)
	m.last = &curr
	m.lastSeen = seen
	m.state = StateOf(&curr)
	state := m.state
	m.mu.Unlock()

	if changes.Connection {
		note := NoteDisconnected
		if state.Connected() {
			note = NoteConnected
		}
		m.log.Info().Msgf("monitor: connection changed: session=%s state=%s", m.sessionID, state)
		m.sink.Note(m.sessionID, note)
	}

	if !changes.Any() {
		return false, nil
	}

	update := Update{State: state, Flags: state.Flags()}
	if state == StatePlaying {
		update.Context = curr.ContextString()
	}
	m.log.Debug().Msgf("monitor: update: session=%s state=%s changes=%+v", m.sessionID, state, changes)
	m.sink.State(m.sessionID, update)
	return true, nil
}

// Snapshot returns the last known snapshot, or nil before the first successful poll.
func (m *Monitor) Snapshot() *snapshot.Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.last == nil {
		return nil
	}
	s := *m.last
	return &s
}

// State returns the last observed state.
func (m *Monitor) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}
