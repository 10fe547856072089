package audio

import (
	"errors"
	"testing"

	"github.com/petems/audiocap/internal/config"
	"github.com/rs/zerolog"
)

func TestNewHostRejectsUnknownBackend(t *testing.T) {
	for _, backend := range []string{"alsa", "coreaudio", "PortAudio "} {
		t.Run(backend, func(t *testing.T) {
			host, err := NewHost(config.AudioConfig{Backend: backend}, zerolog.Nop())
			if !errors.Is(err, ErrBackendUnavailable) {
				t.Fatalf("expected BackendUnavailableError, got %v", err)
			}
			if host != nil {
				t.Errorf("expected no host, got %v", host.Name())
			}
			var e *Error
			if !errors.As(err, &e) || e.Op != "open host" {
				t.Errorf("expected open host op, got %+v", err)
			}
		})
	}
}
