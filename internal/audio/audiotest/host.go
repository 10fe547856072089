// Package audiotest provides an in-memory audio.Host for tests. Streams are
// driven by hand: Emit* delivers one callback block, Fail reports an
// asynchronous error.
package audiotest

import (
	"errors"
	"sync"

	"github.com/petems/audiocap/internal/audio"
)

// Device describes one fake endpoint and how the host should treat it.
type Device struct {
	Name      string
	NameErr   error
	Config    audio.StreamConfig
	ConfigErr error
	BuildErr  error
	StartErr  error
	// OnConfig, if set, runs each time the device's config is queried. Tests
	// use it to hold a start in progress.
	OnConfig func()
}

// DefaultConfig is used for devices that leave Config zero.
var DefaultConfig = audio.StreamConfig{SampleRate: 48000, Channels: 1, Format: audio.FormatF32}

type Host struct {
	mu         sync.Mutex
	inputs     []*Device
	outputs    []*Device
	inputsErr  error
	outputsErr error
	streams    []*Stream
	closed     bool
}

// NewHost returns a host exposing the given input and output devices.
func NewHost(inputs, outputs []*Device) *Host {
	return &Host{inputs: inputs, outputs: outputs}
}

// SetEnumerationErrors makes InputDevices / OutputDevices fail.
func (h *Host) SetEnumerationErrors(inputs, outputs error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.inputsErr = inputs
	h.outputsErr = outputs
}

type device struct{ d *Device }

func (d device) Name() (string, error) {
	if d.d.NameErr != nil {
		return "", d.d.NameErr
	}
	return d.d.Name, nil
}

func (h *Host) Name() string { return "fake" }

func (h *Host) InputDevices() ([]audio.HostDevice, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.inputsErr != nil {
		return nil, h.inputsErr
	}
	return wrap(h.inputs), nil
}

func (h *Host) OutputDevices() ([]audio.HostDevice, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.outputsErr != nil {
		return nil, h.outputsErr
	}
	return wrap(h.outputs), nil
}

func wrap(devs []*Device) []audio.HostDevice {
	out := make([]audio.HostDevice, len(devs))
	for i, d := range devs {
		out[i] = device{d: d}
	}
	return out
}

func (h *Host) DefaultInputConfig(d audio.HostDevice) (audio.StreamConfig, error) {
	dev := d.(device).d
	if dev.OnConfig != nil {
		dev.OnConfig()
	}
	if dev.ConfigErr != nil {
		return audio.StreamConfig{}, dev.ConfigErr
	}
	if dev.Config == (audio.StreamConfig{}) {
		return DefaultConfig, nil
	}
	return dev.Config, nil
}

func (h *Host) BuildInputStream(d audio.HostDevice, cfg audio.StreamConfig, cb audio.InputCallback, onError audio.ErrorFunc) (audio.Stream, error) {
	dev := d.(device).d
	if dev.BuildErr != nil {
		return nil, dev.BuildErr
	}
	s := &Stream{Device: dev.Name, Config: cfg, cb: cb, onError: onError, startErr: dev.StartErr}

	h.mu.Lock()
	h.streams = append(h.streams, s)
	h.mu.Unlock()
	return s, nil
}

func (h *Host) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	return nil
}

// Streams returns every stream built so far, in build order.
func (h *Host) Streams() []*Stream {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]*Stream(nil), h.streams...)
}

// Stream returns the most recently built stream for device, or nil.
func (h *Host) Stream(device string) *Stream {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i := len(h.streams) - 1; i >= 0; i-- {
		if h.streams[i].Device == device {
			return h.streams[i]
		}
	}
	return nil
}

// Running counts streams that are started and not yet closed.
func (h *Host) Running() int {
	n := 0
	for _, s := range h.Streams() {
		if s.Running() {
			n++
		}
	}
	return n
}

// Stream is a fake hardware stream. Its mutex stands in for the host's
// single callback thread: Emit calls never overlap, and none run after
// Close returns.
type Stream struct {
	Device string
	Config audio.StreamConfig

	mu       sync.Mutex
	cb       audio.InputCallback
	onError  audio.ErrorFunc
	startErr error
	started  bool
	closed   bool
}

var ErrClosed = errors.New("audiotest: stream closed")

func (s *Stream) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if s.startErr != nil {
		return s.startErr
	}
	s.started = true
	return nil
}

func (s *Stream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *Stream) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.started && !s.closed
}

func (s *Stream) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// EmitF32 delivers one block to an f32 stream. It reports false if the
// stream is not running and nothing was delivered.
func (s *Stream) EmitF32(block []float32) bool {
	return s.emit(func() bool {
		if s.cb.F32 == nil {
			return false
		}
		s.cb.F32(block)
		return true
	})
}

func (s *Stream) EmitI16(block []int16) bool {
	return s.emit(func() bool {
		if s.cb.I16 == nil {
			return false
		}
		s.cb.I16(block)
		return true
	})
}

func (s *Stream) EmitU16(block []uint16) bool {
	return s.emit(func() bool {
		if s.cb.U16 == nil {
			return false
		}
		s.cb.U16(block)
		return true
	})
}

func (s *Stream) emit(deliver func() bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started || s.closed {
		return false
	}
	return deliver()
}

// Fail reports err through the stream's error callback.
func (s *Stream) Fail(err error) {
	s.onError(err)
}
