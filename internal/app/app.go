package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/petems/audiocap/internal/audio"
	"github.com/petems/audiocap/internal/capture"
	"github.com/petems/audiocap/internal/config"
	"github.com/rs/zerolog"
)

type Config struct {
	Host   audio.Host
	Config *config.Config
	Logger zerolog.Logger
}

// App is the command surface a shell invokes: device listing and capture
// session control.
type App struct {
	host     audio.Host
	dir      *audio.Directory
	sessions *capture.Manager
	cfg      *config.Config
	log      zerolog.Logger
}

// Status describes one capture session.
type Status struct {
	ID        string             `json:"id"`
	Device    string             `json:"device"`
	State     capture.State      `json:"state"`
	Config    audio.StreamConfig `json:"config"`
	Buffered  int                `json:"buffered"`
	Captured  uint64             `json:"captured"`
	Dropped   uint64             `json:"dropped"`
	StartedAt time.Time          `json:"started_at"`
	Error     *audio.Error       `json:"error,omitempty"`
}

func New(cfg Config) *App {
	if cfg.Config == nil {
		cfg.Config = config.Default()
	}
	return &App{
		host: cfg.Host,
		dir:  audio.NewDirectory(cfg.Host, cfg.Logger),
		sessions: capture.NewManager(cfg.Host, capture.Options{
			BufferCapacity: cfg.Config.Audio.BufferCapacity,
			Logger:         cfg.Logger,
		}),
		cfg: cfg.Config,
		log: cfg.Logger,
	}
}

// GetAudioDevices returns the device list as
// {"input_devices":[{"name":...}],"output_devices":[...]}.
func (a *App) GetAudioDevices() (string, error) {
	list, err := a.dir.List()
	if err != nil {
		a.log.Error().Err(err).Msg("Failed to list devices")
		return "", err
	}

	data, err := json.Marshal(list)
	if err != nil {
		return "", fmt.Errorf("failed to encode device list: %w", err)
	}
	return string(data), nil
}

// Backend names the audio host in use.
func (a *App) Backend() string {
	return a.host.Name()
}

// ListDevices is GetAudioDevices without the JSON encoding.
func (a *App) ListDevices() (audio.DeviceList, error) {
	return a.dir.List()
}

// StartAudioCapture starts capturing from deviceName and returns the session
// ID. An empty name falls back to the configured default device.
func (a *App) StartAudioCapture(deviceName string) (string, error) {
	if deviceName == "" {
		deviceName = a.cfg.Audio.DefaultDevice
	}

	s, err := a.sessions.Start(deviceName)
	if err != nil {
		a.log.Error().Err(err).Str("device", deviceName).Msg("Failed to start capture")
		return "", err
	}
	return s.ID(), nil
}

// StopAudioCapture stops the session and returns whatever it had buffered.
func (a *App) StopAudioCapture(id string) ([]float32, error) {
	s, err := a.sessions.Stop(id)
	if s == nil {
		return nil, err
	}
	return s.Drain(), err
}

// DrainAudioSamples removes and returns the samples captured so far.
func (a *App) DrainAudioSamples(id string) ([]float32, error) {
	s, err := a.sessions.Get(id)
	if err != nil {
		return nil, err
	}
	return s.Drain(), nil
}

func (a *App) CaptureStatus(id string) (Status, error) {
	s, err := a.sessions.Get(id)
	if err != nil {
		return Status{}, err
	}
	return statusOf(s), nil
}

// Captures reports every live session, oldest first.
func (a *App) Captures() []Status {
	sessions := a.sessions.Sessions()
	result := make([]Status, 0, len(sessions))
	for _, s := range sessions {
		result = append(result, statusOf(s))
	}
	return result
}

func statusOf(s *capture.Session) Status {
	buf := s.Buffer()
	st := Status{
		ID:        s.ID(),
		Device:    s.Device().Name,
		State:     s.State(),
		Config:    s.Config(),
		Buffered:  buf.Len(),
		Captured:  buf.Total(),
		Dropped:   buf.Dropped(),
		StartedAt: s.StartedAt(),
	}
	if err := s.Err(); err != nil {
		st.Error = asAudioError(err)
	}
	return st
}

func asAudioError(err error) *audio.Error {
	var e *audio.Error
	if errors.As(err, &e) {
		return e
	}
	return &audio.Error{Kind: audio.KindOf(err), Err: err}
}

// Shutdown stops every running capture.
func (a *App) Shutdown(ctx context.Context) error {
	a.log.Debug().Int("captures", len(a.sessions.Sessions())).Msg("Stopping all captures")
	return a.sessions.StopAll(ctx)
}
