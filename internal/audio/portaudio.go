package audio

import (
	"errors"
	"fmt"

	"github.com/gordonklaus/portaudio"
)

var errInputOverflow = errors.New("input overflow")

type portAudioHost struct{}

func newPortAudioHost() (*portAudioHost, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, &Error{Kind: KindBackendUnavailable, Op: "initialize portaudio", Err: err}
	}
	return &portAudioHost{}, nil
}

type portAudioDevice struct {
	info *portaudio.DeviceInfo
}

func (d portAudioDevice) Name() (string, error) {
	if d.info == nil {
		return "", errors.New("nil device info")
	}
	return d.info.Name, nil
}

func (p *portAudioHost) Name() string { return "portaudio" }

// devices lists the default host API's devices, mirroring the default-host
// selection other audio layers make.
func (p *portAudioHost) devices(keep func(*portaudio.DeviceInfo) bool) ([]HostDevice, error) {
	api, err := portaudio.DefaultHostApi()
	if err != nil {
		return nil, fmt.Errorf("failed to get default host API: %w", err)
	}

	result := make([]HostDevice, 0, len(api.Devices))
	for _, d := range api.Devices {
		if keep(d) {
			result = append(result, portAudioDevice{info: d})
		}
	}
	return result, nil
}

func (p *portAudioHost) InputDevices() ([]HostDevice, error) {
	return p.devices(func(d *portaudio.DeviceInfo) bool { return d.MaxInputChannels > 0 })
}

func (p *portAudioHost) OutputDevices() ([]HostDevice, error) {
	return p.devices(func(d *portaudio.DeviceInfo) bool { return d.MaxOutputChannels > 0 })
}

func (p *portAudioHost) DefaultInputConfig(d HostDevice) (StreamConfig, error) {
	dev, ok := d.(portAudioDevice)
	if !ok || dev.info == nil {
		return StreamConfig{}, &Error{Kind: KindConfigurationUnavailable, Op: "default input config", Err: errors.New("not a portaudio device")}
	}
	cfg, err := portAudioInputConfig(dev.info)
	if err != nil {
		return StreamConfig{}, &Error{Kind: KindConfigurationUnavailable, Op: "default input config", Device: dev.info.Name, Err: err}
	}
	return cfg, nil
}

// portAudioInputConfig derives the default config. PortAudio reports a
// channel maximum rather than a default, so it is clamped to stereo.
// PortAudio converts to float32 internally, which makes it the native format.
func portAudioInputConfig(info *portaudio.DeviceInfo) (StreamConfig, error) {
	if info.MaxInputChannels <= 0 {
		return StreamConfig{}, errors.New("device has no input channels")
	}
	if info.DefaultSampleRate <= 0 {
		return StreamConfig{}, errors.New("device reports no default sample rate")
	}
	return StreamConfig{
		SampleRate: int(info.DefaultSampleRate),
		Channels:   min(info.MaxInputChannels, 2),
		Format:     FormatF32,
	}, nil
}

func (p *portAudioHost) BuildInputStream(d HostDevice, cfg StreamConfig, cb InputCallback, onError ErrorFunc) (Stream, error) {
	dev, ok := d.(portAudioDevice)
	if !ok || dev.info == nil {
		return nil, &Error{Kind: KindStreamBuild, Op: "build stream", Err: errors.New("not a portaudio device")}
	}

	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Device:   dev.info,
			Channels: cfg.Channels,
			Latency:  dev.info.DefaultLowInputLatency,
		},
		SampleRate:      float64(cfg.SampleRate),
		FramesPerBuffer: portaudio.FramesPerBufferUnspecified,
	}

	var (
		stream *portaudio.Stream
		err    error
	)
	switch {
	case cfg.Format == FormatF32 && cb.F32 != nil:
		stream, err = portaudio.OpenStream(params, portAudioCallback(cb.F32, onError))
	case cfg.Format == FormatI16 && cb.I16 != nil:
		stream, err = portaudio.OpenStream(params, portAudioCallback(cb.I16, onError))
	default:
		return nil, &Error{Kind: KindStreamBuild, Op: "build stream", Device: dev.info.Name, Err: fmt.Errorf("portaudio cannot deliver %s", cfg.Format)}
	}
	if err != nil {
		return nil, &Error{Kind: KindStreamBuild, Op: "build stream", Device: dev.info.Name, Err: err}
	}
	return &portAudioStream{stream: stream, device: dev.info.Name}, nil
}

func portAudioCallback[T float32 | int16](fn func([]T), onError ErrorFunc) func([]T, portaudio.StreamCallbackTimeInfo, portaudio.StreamCallbackFlags) {
	return func(in []T, _ portaudio.StreamCallbackTimeInfo, flags portaudio.StreamCallbackFlags) {
		if flags&portaudio.InputOverflow != 0 {
			onError(&Error{Kind: KindStreamRuntime, Op: "callback", Err: errInputOverflow})
		}
		fn(in)
	}
}

func (p *portAudioHost) Close() error {
	return portaudio.Terminate()
}

type portAudioStream struct {
	stream *portaudio.Stream
	device string
}

func (s *portAudioStream) Start() error {
	if err := s.stream.Start(); err != nil {
		return &Error{Kind: KindStreamStart, Op: "start stream", Device: s.device, Err: err}
	}
	return nil
}

// Close stops the stream first; Pa_StopStream returns only once the
// callback has finished.
func (s *portAudioStream) Close() error {
	stopErr := s.stream.Stop()
	closeErr := s.stream.Close()
	if stopErr != nil && !errors.Is(stopErr, portaudio.StreamIsStopped) {
		return fmt.Errorf("failed to stop audio stream: %w", stopErr)
	}
	if closeErr != nil {
		return fmt.Errorf("failed to close audio stream: %w", closeErr)
	}
	return nil
}
