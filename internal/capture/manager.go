package capture

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/petems/audiocap/internal/audio"
)

// Manager is a registry of live sessions keyed by ID. Sessions on different
// devices may run side by side; a device can only have one live session.
type Manager struct {
	host audio.Host
	opts Options

	mu       sync.Mutex
	sessions map[string]*Session
	// starting holds device names whose Start is in progress.
	starting map[string]struct{}
}

func NewManager(host audio.Host, opts Options) *Manager {
	return &Manager{
		host:     host,
		opts:     opts,
		sessions: make(map[string]*Session),
		starting: make(map[string]struct{}),
	}
}

// Start begins a session on deviceName and registers it. The device is
// reserved while the host builds the stream, so the registry stays usable
// during slow device negotiation.
func (m *Manager) Start(deviceName string) (*Session, error) {
	m.mu.Lock()
	if err := m.checkFree(deviceName); err != nil {
		m.mu.Unlock()
		return nil, err
	}
	m.starting[deviceName] = struct{}{}
	m.mu.Unlock()

	s, err := Start(m.host, deviceName, m.opts)

	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.starting, deviceName)
	if err != nil {
		return nil, err
	}
	m.sessions[s.ID()] = s
	return s, nil
}

// checkFree reports SessionActive if deviceName has a live or starting
// session. m.mu must be held.
func (m *Manager) checkFree(deviceName string) error {
	if _, ok := m.starting[deviceName]; ok {
		return &audio.Error{
			Kind:   audio.KindSessionActive,
			Op:     "start capture",
			Device: deviceName,
			Err:    errors.New("another capture is starting on this device"),
		}
	}
	for _, s := range m.sessions {
		if s.Device().Name == deviceName {
			return &audio.Error{
				Kind:   audio.KindSessionActive,
				Op:     "start capture",
				Device: deviceName,
				Err:    errors.New("session " + s.ID() + " is already capturing"),
			}
		}
	}
	return nil
}

func (m *Manager) Get(id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, &audio.Error{Kind: audio.KindSessionNotFound, Op: "get session", Err: errors.New("no session " + id)}
	}
	return s, nil
}

// Stop stops the session and removes it from the registry. The stopped
// session is returned so its remaining samples can still be drained.
func (m *Manager) Stop(id string) (*Session, error) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if !ok {
		return nil, &audio.Error{Kind: audio.KindSessionNotFound, Op: "stop session", Err: errors.New("no session " + id)}
	}
	return s, s.Stop()
}

// Sessions lists registered sessions, oldest first.
func (m *Manager) Sessions() []*Session {
	m.mu.Lock()
	result := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		result = append(result, s)
	}
	m.mu.Unlock()

	sort.Slice(result, func(i, j int) bool {
		return result[i].StartedAt().Before(result[j].StartedAt())
	})
	return result
}

// StopAll stops every session. It gives up waiting when ctx is done; the
// stops already in flight still complete in the background.
func (m *Manager) StopAll(ctx context.Context) error {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	done := make(chan error, 1)
	go func() {
		var errs []error
		for _, s := range sessions {
			if err := s.Stop(); err != nil {
				errs = append(errs, err)
			}
		}
		done <- errors.Join(errs...)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
