package audio

import (
	"fmt"
	"sync/atomic"
)

// Sample is the set of raw encodings a capture stream can deliver.
type Sample interface {
	float32 | int16 | uint16
}

// ToFloat32 normalizes one raw sample. Integer full scale maps to [-1, 1):
// int16 divides by 32768, uint16 is re-centred on 32768 first.
func ToFloat32[T Sample](v T) float32 {
	switch x := any(v).(type) {
	case float32:
		return x
	case int16:
		return float32(x) / 32768
	case uint16:
		return (float32(x) - 32768) / 32768
	}
	panic("unreachable")
}

// Convert appends the normalized form of src to dst, preserving order.
func Convert[T Sample](dst []float32, src []T) []float32 {
	for _, v := range src {
		dst = append(dst, ToFloat32(v))
	}
	return dst
}

// Supported reports whether f can be dispatched to a typed callback.
func Supported(f SampleFormat) bool {
	switch f {
	case FormatF32, FormatI16, FormatU16:
		return true
	}
	return false
}

// handler is the per-stream callback for one raw sample type. Callbacks for
// a stream are serialized by the host, so scratch needs no locking.
type handler[T Sample] struct {
	sink    Sink
	onError ErrorFunc
	scratch []float32
	closed  atomic.Bool
}

func (h *handler[T]) handle(in []T) {
	if h.closed.Load() {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			h.closed.Store(true)
			h.onError(&Error{Kind: KindStreamRuntime, Op: "callback", Err: fmt.Errorf("sample sink: %v", r)})
		}
	}()
	h.scratch = Convert(h.scratch[:0], in)
	h.sink.Append(h.scratch...)
}

func (h *handler[T]) close() { h.closed.Store(true) }

type dispatchedStream struct {
	Stream
	gate     func()
	reporter *errorReporter
}

// Close gates the callback, releases the host stream and then flushes any
// errors the stream reported on its way down.
func (s *dispatchedStream) Close() error {
	s.gate()
	err := s.Stream.Close()
	s.reporter.close()
	return err
}

// Dispatch builds an input stream on host whose callback converts the
// device's native encoding to float32 and appends it to sink. Encodings
// outside F32, I16 and U16 fail before the host is asked to build anything.
// onError is called from a goroutine owned by the stream, never from the
// host's callback thread, and not at all once Close has returned.
func Dispatch(host Host, dev HostDevice, cfg StreamConfig, sink Sink, onError ErrorFunc) (Stream, error) {
	if !Supported(cfg.Format) {
		return nil, &Error{
			Kind:   KindUnsupportedSampleFormat,
			Op:     "dispatch",
			Device: deviceName(dev),
			Err:    fmt.Errorf("sample format %s", cfg.Format),
		}
	}

	reporter := newErrorReporter(onError)
	var (
		cb   InputCallback
		gate func()
	)
	switch cfg.Format {
	case FormatF32:
		h := &handler[float32]{sink: sink, onError: reporter.report}
		cb.F32, gate = h.handle, h.close
	case FormatI16:
		h := &handler[int16]{sink: sink, onError: reporter.report}
		cb.I16, gate = h.handle, h.close
	case FormatU16:
		h := &handler[uint16]{sink: sink, onError: reporter.report}
		cb.U16, gate = h.handle, h.close
	}

	stream, err := host.BuildInputStream(dev, cfg, cb, reporter.report)
	if err != nil {
		reporter.close()
		return nil, wrapError(KindStreamBuild, "build stream", deviceName(dev), err)
	}
	return &dispatchedStream{Stream: stream, gate: gate, reporter: reporter}, nil
}

func deviceName(d HostDevice) string {
	name, _ := d.Name()
	return name
}
