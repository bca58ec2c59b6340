// Package session provides the session manager.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/muse/internal/app/bgm"
	"github.com/osa030/muse/internal/app/coordinator"
	"github.com/osa030/muse/internal/app/dispatch"
	"github.com/osa030/muse/internal/app/notification"
	"github.com/osa030/muse/internal/app/playback"
	"github.com/osa030/muse/internal/app/search"
	"github.com/osa030/muse/internal/app/session/registry"
	"github.com/osa030/muse/internal/domain/action"
	"github.com/osa030/muse/internal/infra/config"
	"github.com/osa030/muse/internal/infra/logger"
)

// ErrSessionNotFound is returned for an unknown or closed session.
var ErrSessionNotFound = registry.ErrSessionNotFound

// Backend is the music service client shared by all sessions.
type Backend interface {
	search.Catalog
	coordinator.ProfileSource
	playback.StateSource
	dispatch.Player
	dispatch.Library
}

// Status describes an open session.
type Status struct {
	ID             string
	DisplayName    string
	ExternalUserID string
	OpenedAt       time.Time
	TotalActions   int
	IdleFor        time.Duration // since the last action, or since open
	State          string
	Flags          []string // empty before the first poll
	Context        string
}

// runtime holds the per-session components.
type runtime struct {
	coordinator *coordinator.Coordinator
	monitor     *playback.Monitor
	dispatcher  *dispatch.Dispatcher
	ctx         context.Context
	cancel      context.CancelFunc
	done        chan struct{}
}

// Manager opens and closes sessions. Each session owns a coordinator,
// a playback monitor and a dispatcher; the backend and the notification
// fan-out are shared.
type Manager struct {
	mu sync.RWMutex

	config       *config.Config
	backend      Backend
	random       *bgm.ProviderChain
	notification *notification.Manager
	registry     *registry.Registry
	sessions     map[string]*runtime
	now          func() time.Time
}

// NewManager creates a new session manager.
func NewManager(cfg *config.Config, backend Backend, random *bgm.ProviderChain) *Manager {
	return &Manager{
		config:       cfg,
		backend:      backend,
		random:       random,
		notification: notification.NewManager(),
		registry:     registry.New(),
		sessions:     make(map[string]*runtime),
		now:          time.Now,
	}
}

// Open starts a session for a host user and returns its ID. A user that
// already has a session gets it back.
func (m *Manager) Open(displayName, externalUserID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id, created := m.registry.Open(displayName, externalUserID)
	if !created {
		zlog.Info().Msgf("session reused: session_id=%s external_user_id=%s", id, externalUserID)
		return id, nil
	}

	rt := m.build(id)
	m.sessions[id] = rt
	go func() {
		defer close(rt.done)
		rt.monitor.Run(rt.ctx)
	}()

	zlog.Info().Msgf("session opened: session_id=%s display_name=%s", id, displayName)
	return id, nil
}

func (m *Manager) build(id string) *runtime {
	cfg := m.config

	var coordOpts []coordinator.Option
	if cfg.Spotify.Market != "" {
		coordOpts = append(coordOpts, coordinator.WithMarket(cfg.Spotify.Market))
	}
	engine := search.NewEngine(m.backend, cfg.Spotify.SearchLimit)
	coord := coordinator.New(engine, m.backend, cfg.History.Size, coordOpts...)

	monitor := playback.NewMonitor(id, m.backend, m.notification, playback.Config{
		PollInterval:        cfg.Monitor.PollInterval(),
		PositionThresholdMs: cfg.Monitor.PositionThresholdMs,
	}, playback.WithLogger(logger.ForSession("monitor", id)))

	dispatchOpts := []dispatch.Option{
		dispatch.WithLogger(logger.ForSession("dispatch", id)),
	}
	if m.random != nil {
		dispatchOpts = append(dispatchOpts, dispatch.WithRandom(m.random))
	}
	dispatcher := dispatch.New(m.backend, m.backend, coord, monitor, cfg, dispatchOpts...)

	ctx, cancel := context.WithCancel(context.Background())
	return &runtime{
		coordinator: coord,
		monitor:     monitor,
		dispatcher:  dispatcher,
		ctx:         ctx,
		cancel:      cancel,
		done:        make(chan struct{}),
	}
}

// Close ends a session. The monitor stops without a final update.
func (m *Manager) Close(id string) error {
	m.mu.Lock()
	rt, ok := m.sessions[id]
	if ok {
		delete(m.sessions, id)
		_ = m.registry.Remove(id)
	}
	m.mu.Unlock()

	if !ok {
		return errors.Wrapf(ErrSessionNotFound, "session %s", id)
	}

	rt.cancel()
	<-rt.done
	m.notification.Closed(id)
	zlog.Info().Msgf("session closed: session_id=%s", id)
	return nil
}

// Dispatch runs an action in a session and broadcasts its notes.
// The action is cancelled when either ctx ends or the session closes.
func (m *Manager) Dispatch(ctx context.Context, id string, req action.Request) (dispatch.Result, error) {
	m.mu.RLock()
	rt, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return dispatch.Result{}, errors.Wrapf(ErrSessionNotFound, "session %s", id)
	}
	_ = m.registry.RecordAction(id)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(rt.ctx, cancel)
	defer stop()

	res, err := rt.dispatcher.Dispatch(ctx, req)
	if err != nil {
		return res, err
	}
	m.notification.Notes(id, res.Notes, res.React)
	return res, nil
}

// Get returns the status of one session.
func (m *Manager) Get(id string) (Status, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, err := m.registry.Get(id)
	if err != nil {
		return Status{}, err
	}
	return m.statusLocked(s.ID), nil
}

// List returns the status of every open session, oldest first.
func (m *Manager) List() []Status {
	m.mu.RLock()
	defer m.mu.RUnlock()

	all := m.registry.All()
	result := make([]Status, 0, len(all))
	for _, s := range all {
		result = append(result, m.statusLocked(s.ID))
	}
	return result
}

func (m *Manager) statusLocked(id string) Status {
	s, _ := m.registry.Get(id)
	st := Status{
		ID:             s.ID,
		DisplayName:    s.DisplayName,
		ExternalUserID: s.ExternalUserID,
		OpenedAt:       s.OpenedAt,
		TotalActions:   s.TotalActions,
		IdleFor:        s.Idle(m.now()),
		State:          playback.StateUnknown.String(),
	}
	if rt, ok := m.sessions[id]; ok {
		state := rt.monitor.State()
		st.State = state.String()
		if state != playback.StateUnknown {
			st.Flags = state.Flags()
		}
		if snap := rt.monitor.Snapshot(); snap != nil && state == playback.StatePlaying {
			st.Context = snap.ContextString()
		}
	}
	return st
}

// GetNotificationManager returns the notification manager.
func (m *Manager) GetNotificationManager() *notification.Manager {
	return m.notification
}

// Shutdown closes every session and drops all subscribers.
func (m *Manager) Shutdown() {
	m.mu.RLock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	m.mu.RUnlock()

	for _, id := range ids {
		if err := m.Close(id); err != nil {
			zlog.Debug().Msgf("session close during shutdown: session_id=%s error=%v", id, err)
		}
	}
	m.notification.Close()
}
