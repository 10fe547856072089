package audio

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/jfreymuth/pulse"
)

// pulseHost is a pure Go PulseAudio client. The server converts to whatever
// format the record stream asks for, so sources are negotiated as f32.
type pulseHost struct {
	client *pulse.Client
}

func newPulseHost() (*pulseHost, error) {
	c, err := pulse.NewClient(pulse.ClientApplicationName("audiocap"))
	if err != nil {
		return nil, &Error{Kind: KindBackendUnavailable, Op: "connect pulseaudio", Err: err}
	}
	return &pulseHost{client: c}, nil
}

type pulseSource struct{ src *pulse.Source }

func (d pulseSource) Name() (string, error) { return d.src.Name(), nil }

type pulseSink struct{ sink *pulse.Sink }

func (d pulseSink) Name() (string, error) { return d.sink.Name(), nil }

func (p *pulseHost) Name() string { return "pulse" }

func (p *pulseHost) InputDevices() ([]HostDevice, error) {
	sources, err := p.client.ListSources()
	if err != nil {
		return nil, err
	}
	result := make([]HostDevice, 0, len(sources))
	for _, s := range sources {
		result = append(result, pulseSource{src: s})
	}
	return result, nil
}

func (p *pulseHost) OutputDevices() ([]HostDevice, error) {
	sinks, err := p.client.ListSinks()
	if err != nil {
		return nil, err
	}
	result := make([]HostDevice, 0, len(sinks))
	for _, s := range sinks {
		result = append(result, pulseSink{sink: s})
	}
	return result, nil
}

func (p *pulseHost) DefaultInputConfig(d HostDevice) (StreamConfig, error) {
	dev, ok := d.(pulseSource)
	if !ok {
		return StreamConfig{}, &Error{Kind: KindConfigurationUnavailable, Op: "default input config", Err: errors.New("not a pulseaudio source")}
	}
	cfg, err := pulseInputConfig(dev.src.SampleRate(), len(dev.src.Channels()))
	if err != nil {
		return StreamConfig{}, &Error{Kind: KindConfigurationUnavailable, Op: "default input config", Device: dev.src.Name(), Err: err}
	}
	return cfg, nil
}

// pulseInputConfig derives the record config from a source's sample spec.
// Record streams only get mono or stereo layouts here, so wider sources are
// clamped to stereo.
func pulseInputConfig(sampleRate, channels int) (StreamConfig, error) {
	if sampleRate <= 0 || channels <= 0 {
		return StreamConfig{}, errors.New("source reports no sample spec")
	}
	return StreamConfig{
		SampleRate: sampleRate,
		Channels:   min(channels, 2),
		Format:     FormatF32,
	}, nil
}

func (p *pulseHost) BuildInputStream(d HostDevice, cfg StreamConfig, cb InputCallback, onError ErrorFunc) (Stream, error) {
	dev, ok := d.(pulseSource)
	if !ok {
		return nil, &Error{Kind: KindStreamBuild, Op: "build stream", Err: errors.New("not a pulseaudio source")}
	}
	name := dev.src.Name()

	var w pulse.Writer
	switch {
	case cfg.Format == FormatF32 && cb.F32 != nil:
		w = pulse.Float32Writer(func(p []float32) (int, error) {
			cb.F32(p)
			return len(p), nil
		})
	case cfg.Format == FormatI16 && cb.I16 != nil:
		w = pulse.Int16Writer(func(p []int16) (int, error) {
			cb.I16(p)
			return len(p), nil
		})
	default:
		return nil, &Error{Kind: KindStreamBuild, Op: "build stream", Device: name, Err: fmt.Errorf("pulseaudio cannot deliver %s", cfg.Format)}
	}

	layout := pulse.RecordStereo
	if cfg.Channels == 1 {
		layout = pulse.RecordMono
	}
	stream, err := p.client.NewRecord(w,
		pulse.RecordSource(dev.src),
		pulse.RecordSampleRate(cfg.SampleRate),
		layout,
	)
	if err != nil {
		return nil, &Error{Kind: KindStreamBuild, Op: "build stream", Device: name, Err: err}
	}
	return &pulseStream{stream: stream, device: name, onError: onError}, nil
}

func (p *pulseHost) Close() error {
	p.client.Close()
	return nil
}

type pulseStream struct {
	stream  *pulse.RecordStream
	device  string
	onError ErrorFunc
	closed  atomic.Bool
}

func (s *pulseStream) Start() error {
	s.stream.Start()
	if err := s.stream.Error(); err != nil {
		return &Error{Kind: KindStreamStart, Op: "start stream", Device: s.device, Err: err}
	}
	return nil
}

// Close reports any error the server attached to the stream while it ran.
func (s *pulseStream) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	s.stream.Stop()
	s.stream.Close()
	if err := s.stream.Error(); err != nil {
		s.onError(&Error{Kind: KindStreamRuntime, Op: "record", Device: s.device, Err: err})
	}
	return nil
}
