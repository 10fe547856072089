package audio

// Device represents an audio endpoint reported by the host
type Device struct {
	Name string `json:"name"`
}

// DeviceList is a point-in-time snapshot of the host's endpoints.
// Ordering is whatever the host enumerates; it is not sorted.
type DeviceList struct {
	InputDevices  []Device `json:"input_devices"`
	OutputDevices []Device `json:"output_devices"`
}

// SampleFormat is the native encoding a device delivers samples in
type SampleFormat int

const (
	FormatUnknown SampleFormat = iota
	FormatU8
	FormatI16
	FormatU16
	FormatI24
	FormatI32
	FormatF32
	FormatF64
)

func (f SampleFormat) String() string {
	switch f {
	case FormatU8:
		return "u8"
	case FormatI16:
		return "i16"
	case FormatU16:
		return "u16"
	case FormatI24:
		return "i24"
	case FormatI32:
		return "i32"
	case FormatF32:
		return "f32"
	case FormatF64:
		return "f64"
	default:
		return "unknown"
	}
}

// MarshalText lets formats appear by name in JSON status output.
func (f SampleFormat) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// StreamConfig holds the parameters negotiated from a device's default input configuration
type StreamConfig struct {
	SampleRate int          `json:"sample_rate"`
	Channels   int          `json:"channels"`
	Format     SampleFormat `json:"format"`
}

// HostDevice is a device handle owned by a Host. Reading the name can fail
// independently per device.
type HostDevice interface {
	Name() (string, error)
}

// InputCallback receives blocks of raw interleaved samples. Exactly one
// field is set, matching the Format of the StreamConfig the stream was
// built with.
type InputCallback struct {
	F32 func([]float32)
	I16 func([]int16)
	U16 func([]uint16)
}

// ErrorFunc receives asynchronous stream errors. Hosts may call it from
// their real-time threads, so the one a host is given must not block;
// Dispatch hands hosts a queueing func and runs the caller's on its own
// goroutine.
type ErrorFunc func(error)

// Stream is a built hardware input stream.
type Stream interface {
	Start() error
	// Close stops the stream and releases it. No callback fires after
	// Close returns.
	Close() error
}

// Host is the platform audio subsystem
type Host interface {
	Name() string
	InputDevices() ([]HostDevice, error)
	OutputDevices() ([]HostDevice, error)
	DefaultInputConfig(d HostDevice) (StreamConfig, error)
	BuildInputStream(d HostDevice, cfg StreamConfig, cb InputCallback, onError ErrorFunc) (Stream, error)
	Close() error
}

// Sink accepts normalized samples from a stream callback.
type Sink interface {
	Append(samples ...float32)
}
