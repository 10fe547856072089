package audio

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Kind classifies audio errors
type Kind int

const (
	KindUnknown Kind = iota
	KindDeviceEnumeration
	KindDeviceNameUnavailable
	KindDeviceNotFound
	KindConfigurationUnavailable
	KindUnsupportedSampleFormat
	KindStreamBuild
	KindStreamStart
	KindStreamRuntime
	KindSessionActive
	KindSessionNotFound
	KindBackendUnavailable
)

var kindNames = map[Kind]string{
	KindUnknown:                  "Unknown",
	KindDeviceEnumeration:        "DeviceEnumerationError",
	KindDeviceNameUnavailable:    "DeviceNameUnavailable",
	KindDeviceNotFound:           "DeviceNotFound",
	KindConfigurationUnavailable: "ConfigurationUnavailable",
	KindUnsupportedSampleFormat:  "UnsupportedSampleFormat",
	KindStreamBuild:              "StreamBuildError",
	KindStreamStart:              "StreamStartError",
	KindStreamRuntime:            "StreamRuntimeError",
	KindSessionActive:            "SessionActive",
	KindSessionNotFound:          "SessionNotFound",
	KindBackendUnavailable:       "BackendUnavailable",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Sentinels for errors.Is matching. Only the Kind is compared.
var (
	ErrDeviceEnumeration        = &Error{Kind: KindDeviceEnumeration}
	ErrDeviceNameUnavailable    = &Error{Kind: KindDeviceNameUnavailable}
	ErrDeviceNotFound           = &Error{Kind: KindDeviceNotFound}
	ErrConfigurationUnavailable = &Error{Kind: KindConfigurationUnavailable}
	ErrUnsupportedSampleFormat  = &Error{Kind: KindUnsupportedSampleFormat}
	ErrStreamBuild              = &Error{Kind: KindStreamBuild}
	ErrStreamStart              = &Error{Kind: KindStreamStart}
	ErrStreamRuntime            = &Error{Kind: KindStreamRuntime}
	ErrSessionActive            = &Error{Kind: KindSessionActive}
	ErrSessionNotFound          = &Error{Kind: KindSessionNotFound}
	ErrBackendUnavailable       = &Error{Kind: KindBackendUnavailable}
)

// Error is the structured error returned by every audio operation.
type Error struct {
	Kind   Kind
	Op     string
	Device string
	Err    error
}

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Device != "" {
		msg += fmt.Sprintf(" (device %q)", e.Device)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return "audio: " + msg
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// MarshalJSON reports the error as kind plus message for the command boundary.
func (e *Error) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Kind    string `json:"kind"`
		Device  string `json:"device,omitempty"`
		Message string `json:"message"`
	}{
		Kind:    e.Kind.String(),
		Device:  e.Device,
		Message: e.Error(),
	})
}

// KindOf returns the Kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// wrapError keeps an existing *Error intact and classifies anything else as kind.
func wrapError(kind Kind, op, device string, err error) error {
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return &Error{Kind: kind, Op: op, Device: device, Err: err}
}
