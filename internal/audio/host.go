package audio

import (
	"fmt"

	"github.com/petems/audiocap/internal/config"
	"github.com/rs/zerolog"
)

// NewHost opens the audio backend named in cfg. An empty backend selects PortAudio.
func NewHost(cfg config.AudioConfig, log zerolog.Logger) (Host, error) {
	switch cfg.Backend {
	case "", config.BackendPortAudio:
		return newPortAudioHost()
	case config.BackendMiniaudio:
		return newMiniaudioHost(log)
	case config.BackendPulse:
		return newPulseHost()
	default:
		return nil, &Error{
			Kind: KindBackendUnavailable,
			Op:   "open host",
			Err:  fmt.Errorf("unknown backend %q", cfg.Backend),
		}
	}
}
