package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync/atomic"

	"github.com/gen2brain/malgo"
	"github.com/rs/zerolog"
)

var errDeviceStopped = errors.New("device stopped unexpectedly")

// miniaudioHost talks to the platform through miniaudio, which unlike
// PortAudio reports each device's native data formats.
type miniaudioHost struct {
	ctx *malgo.AllocatedContext
}

func newMiniaudioHost(log zerolog.Logger) (*miniaudioHost, error) {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, func(message string) {
		log.Debug().Str("backend", "miniaudio").Msg(strings.TrimSpace(message))
	})
	if err != nil {
		return nil, &Error{Kind: KindBackendUnavailable, Op: "initialize miniaudio", Err: err}
	}
	return &miniaudioHost{ctx: ctx}, nil
}

type miniaudioDevice struct {
	info malgo.DeviceInfo
}

func (d miniaudioDevice) Name() (string, error) {
	return d.info.Name(), nil
}

func (m *miniaudioHost) Name() string { return "miniaudio" }

func (m *miniaudioHost) devices(kind malgo.DeviceType) ([]HostDevice, error) {
	infos, err := m.ctx.Devices(kind)
	if err != nil {
		return nil, err
	}
	result := make([]HostDevice, 0, len(infos))
	for _, info := range infos {
		result = append(result, miniaudioDevice{info: info})
	}
	return result, nil
}

func (m *miniaudioHost) InputDevices() ([]HostDevice, error) {
	return m.devices(malgo.Capture)
}

func (m *miniaudioHost) OutputDevices() ([]HostDevice, error) {
	return m.devices(malgo.Playback)
}

func (m *miniaudioHost) DefaultInputConfig(d HostDevice) (StreamConfig, error) {
	dev, ok := d.(miniaudioDevice)
	if !ok {
		return StreamConfig{}, &Error{Kind: KindConfigurationUnavailable, Op: "default input config", Err: errors.New("not a miniaudio device")}
	}
	name := dev.info.Name()

	full, err := m.ctx.DeviceInfo(malgo.Capture, dev.info.ID, malgo.Shared)
	if err != nil {
		return StreamConfig{}, &Error{Kind: KindConfigurationUnavailable, Op: "default input config", Device: name, Err: err}
	}
	if full.FormatCount == 0 {
		return StreamConfig{}, &Error{Kind: KindConfigurationUnavailable, Op: "default input config", Device: name, Err: errors.New("device reports no formats")}
	}

	native := full.Formats[0]
	return miniaudioStreamConfig(native.Format, native.Channels, native.SampleRate), nil
}

// miniaudioStreamConfig fills in miniaudio's "any" values: zero rate or
// channel count means the device accepts anything, and an unknown format is
// negotiated as f32 since miniaudio converts to it.
func miniaudioStreamConfig(format malgo.FormatType, channels, sampleRate uint32) StreamConfig {
	cfg := StreamConfig{
		SampleRate: int(sampleRate),
		Channels:   int(channels),
		Format:     fromMalgoFormat(format),
	}
	if cfg.SampleRate == 0 {
		cfg.SampleRate = 48000
	}
	if cfg.Channels == 0 {
		cfg.Channels = 2
	}
	if format == malgo.FormatUnknown {
		cfg.Format = FormatF32
	}
	return cfg
}

func fromMalgoFormat(f malgo.FormatType) SampleFormat {
	switch f {
	case malgo.FormatU8:
		return FormatU8
	case malgo.FormatS16:
		return FormatI16
	case malgo.FormatS24:
		return FormatI24
	case malgo.FormatS32:
		return FormatI32
	case malgo.FormatF32:
		return FormatF32
	default:
		return FormatUnknown
	}
}

func (m *miniaudioHost) BuildInputStream(d HostDevice, cfg StreamConfig, cb InputCallback, onError ErrorFunc) (Stream, error) {
	dev, ok := d.(miniaudioDevice)
	if !ok {
		return nil, &Error{Kind: KindStreamBuild, Op: "build stream", Err: errors.New("not a miniaudio device")}
	}
	name := dev.info.Name()

	devCfg := malgo.DefaultDeviceConfig(malgo.Capture)
	devCfg.Capture.Channels = uint32(cfg.Channels)
	devCfg.Capture.DeviceID = dev.info.ID.Pointer()
	devCfg.SampleRate = uint32(cfg.SampleRate)

	stream := &miniaudioStream{device: name}

	var onData func(in []byte)
	switch {
	case cfg.Format == FormatF32 && cb.F32 != nil:
		devCfg.Capture.Format = malgo.FormatF32
		var scratch []float32
		onData = func(in []byte) {
			scratch = decodeF32(scratch[:0], in)
			cb.F32(scratch)
		}
	case cfg.Format == FormatI16 && cb.I16 != nil:
		devCfg.Capture.Format = malgo.FormatS16
		var scratch []int16
		onData = func(in []byte) {
			scratch = decodeI16(scratch[:0], in)
			cb.I16(scratch)
		}
	default:
		return nil, &Error{Kind: KindStreamBuild, Op: "build stream", Device: name, Err: fmt.Errorf("miniaudio cannot deliver %s", cfg.Format)}
	}

	callbacks := malgo.DeviceCallbacks{
		Data: func(_, in []byte, _ uint32) {
			onData(in)
		},
		Stop: func() {
			if !stream.closing.Load() {
				onError(&Error{Kind: KindStreamRuntime, Op: "callback", Device: name, Err: errDeviceStopped})
			}
		},
	}

	device, err := malgo.InitDevice(m.ctx.Context, devCfg, callbacks)
	if err != nil {
		return nil, &Error{Kind: KindStreamBuild, Op: "build stream", Device: name, Err: err}
	}
	stream.dev = device
	return stream, nil
}

func (m *miniaudioHost) Close() error {
	err := m.ctx.Uninit()
	m.ctx.Free()
	return err
}

type miniaudioStream struct {
	dev     *malgo.Device
	device  string
	closing atomic.Bool
}

func (s *miniaudioStream) Start() error {
	if err := s.dev.Start(); err != nil {
		return &Error{Kind: KindStreamStart, Op: "start stream", Device: s.device, Err: err}
	}
	return nil
}

// Close uninitializes the device, which stops it and waits for the audio
// thread to leave the data callback.
func (s *miniaudioStream) Close() error {
	if s.closing.Swap(true) {
		return nil
	}
	s.dev.Uninit()
	return nil
}

// miniaudio hands over raw little-endian frames.

func decodeF32(dst []float32, p []byte) []float32 {
	for i := 0; i+4 <= len(p); i += 4 {
		dst = append(dst, math.Float32frombits(binary.LittleEndian.Uint32(p[i:])))
	}
	return dst
}

func decodeI16(dst []int16, p []byte) []int16 {
	for i := 0; i+2 <= len(p); i += 2 {
		dst = append(dst, int16(binary.LittleEndian.Uint16(p[i:])))
	}
	return dst
}
