// Package capture runs capture sessions: one device, one negotiated stream
// config, one running stream and the buffer it fills.
package capture

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/petems/audiocap/internal/audio"
	"github.com/petems/audiocap/internal/buffer"
	"github.com/rs/zerolog"
)

type State int32

const (
	NotStarted State = iota
	Running
	Errored
	Stopped
)

func (s State) String() string {
	switch s {
	case NotStarted:
		return "not-started"
	case Running:
		return "running"
	case Errored:
		return "errored"
	case Stopped:
		return "stopped"
	default:
		return "unknown"
	}
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

type Options struct {
	// BufferCapacity bounds the session buffer; zero means unbounded.
	BufferCapacity int
	Logger         zerolog.Logger
}

type Session struct {
	id        string
	device    audio.Device
	config    audio.StreamConfig
	buf       *buffer.SampleBuffer
	stream    audio.Stream
	startedAt time.Time
	log       zerolog.Logger

	state atomic.Int32

	mu      sync.Mutex
	lastErr error

	stopOnce sync.Once
	stopErr  error
}

// Start resolves deviceName among host's input devices, negotiates its
// default input config, and builds and starts a stream feeding a fresh
// buffer. Nothing is left running when an error is returned.
func Start(host audio.Host, deviceName string, opts Options) (*Session, error) {
	log := opts.Logger.With().Str("device", deviceName).Logger()

	dev, err := audio.NewDirectory(host, opts.Logger).FindInput(deviceName)
	if err != nil {
		return nil, err
	}

	cfg, err := host.DefaultInputConfig(dev)
	if err != nil {
		if audio.KindOf(err) == audio.KindUnknown {
			err = &audio.Error{Kind: audio.KindConfigurationUnavailable, Op: "default input config", Device: deviceName, Err: err}
		}
		return nil, err
	}

	s := &Session{
		id:     uuid.NewString(),
		device: audio.Device{Name: deviceName},
		config: cfg,
		buf:    buffer.New(opts.BufferCapacity),
	}
	s.log = log.With().Str("session", s.id).Logger()

	stream, err := audio.Dispatch(host, dev, cfg, s.buf, s.onStreamError)
	if err != nil {
		return nil, err
	}

	if err := stream.Start(); err != nil {
		if cerr := stream.Close(); cerr != nil {
			s.log.Warn().Err(cerr).Msg("Failed to close stream after start error")
		}
		if audio.KindOf(err) == audio.KindUnknown {
			err = &audio.Error{Kind: audio.KindStreamStart, Op: "start stream", Device: deviceName, Err: err}
		}
		return nil, err
	}

	s.stream = stream
	s.startedAt = time.Now()
	s.state.CompareAndSwap(int32(NotStarted), int32(Running))

	s.log.Info().
		Int("sample_rate", cfg.SampleRate).
		Int("channels", cfg.Channels).
		Stringer("format", cfg.Format).
		Msg("Capture started")
	return s, nil
}

// onStreamError runs on the stream's error goroutine, never on the audio
// thread. It records the error and marks the session errored; the stream
// keeps its resources until Stop.
func (s *Session) onStreamError(err error) {
	if audio.KindOf(err) == audio.KindUnknown {
		err = &audio.Error{Kind: audio.KindStreamRuntime, Op: "stream", Device: s.device.Name, Err: err}
	}

	s.mu.Lock()
	s.lastErr = err
	s.mu.Unlock()

	for {
		cur := State(s.state.Load())
		if cur == Stopped || cur == Errored {
			break
		}
		if s.state.CompareAndSwap(int32(cur), int32(Errored)) {
			break
		}
	}
	s.log.Error().Err(err).Msg("Stream error")
}

// Stop stops the stream and releases it. Once Stop returns no further
// samples reach the buffer. Calling Stop again returns the first result.
func (s *Session) Stop() error {
	s.stopOnce.Do(func() {
		s.stopErr = s.stream.Close()
		s.state.Store(int32(Stopped))
		s.log.Info().
			Uint64("samples", s.buf.Total()).
			Uint64("dropped", s.buf.Dropped()).
			Dur("elapsed", time.Since(s.startedAt)).
			Msg("Capture stopped")
	})
	return s.stopErr
}

func (s *Session) ID() string { return s.id }
func (s *Session) Device() audio.Device { return s.device }
func (s *Session) Config() audio.StreamConfig { return s.config }
func (s *Session) Buffer() *buffer.SampleBuffer { return s.buf }
func (s *Session) StartedAt() time.Time { return s.startedAt }

func (s *Session) State() State {
	return State(s.state.Load())
}

// Err returns the most recent asynchronous stream error, if any.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Drain removes and returns everything captured since the last drain.
func (s *Session) Drain() []float32 {
	return s.buf.Drain()
}
