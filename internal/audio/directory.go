package audio

import (
	"errors"

	"github.com/rs/zerolog"
)

// Directory answers device queries against a Host. Nothing is cached; every
// call re-enumerates.
type Directory struct {
	host Host
	log  zerolog.Logger
}

func NewDirectory(host Host, log zerolog.Logger) *Directory {
	return &Directory{host: host, log: log}
}

// List returns every visible input and output device. A device whose name
// cannot be read is skipped.
func (d *Directory) List() (DeviceList, error) {
	inputs, err := d.host.InputDevices()
	if err != nil {
		return DeviceList{}, wrapError(KindDeviceEnumeration, "list input devices", "", err)
	}
	outputs, err := d.host.OutputDevices()
	if err != nil {
		return DeviceList{}, wrapError(KindDeviceEnumeration, "list output devices", "", err)
	}

	return DeviceList{
		InputDevices:  d.describe(inputs, "input"),
		OutputDevices: d.describe(outputs, "output"),
	}, nil
}

func (d *Directory) describe(devices []HostDevice, direction string) []Device {
	result := make([]Device, 0, len(devices))
	for i, dev := range devices {
		name, err := readName(dev)
		if err != nil {
			d.log.Warn().Err(err).Int("index", i).Str("direction", direction).Msg("Skipping device with unreadable name")
			continue
		}
		result = append(result, Device{Name: name})
	}
	return result
}

// FindInput resolves name against the current input devices.
func (d *Directory) FindInput(name string) (HostDevice, error) {
	inputs, err := d.host.InputDevices()
	if err != nil {
		return nil, wrapError(KindDeviceEnumeration, "list input devices", name, err)
	}
	for _, dev := range inputs {
		n, err := readName(dev)
		if err != nil {
			continue
		}
		if n == name {
			return dev, nil
		}
	}
	return nil, &Error{Kind: KindDeviceNotFound, Op: "find input", Device: name}
}

func readName(dev HostDevice) (string, error) {
	name, err := dev.Name()
	if err != nil {
		return "", wrapError(KindDeviceNameUnavailable, "device name", "", err)
	}
	if name == "" {
		return "", &Error{Kind: KindDeviceNameUnavailable, Op: "device name", Err: errors.New("empty name")}
	}
	return name, nil
}
