package audio

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestErrorMatchesByKind(t *testing.T) {
	err := fmt.Errorf("start: %w", &Error{Kind: KindDeviceNotFound, Op: "find input", Device: "mic"})

	if !errors.Is(err, ErrDeviceNotFound) {
		t.Error("expected errors.Is to match the DeviceNotFound sentinel")
	}
	if errors.Is(err, ErrStreamBuild) {
		t.Error("DeviceNotFound should not match StreamBuildError")
	}
	if KindOf(err) != KindDeviceNotFound {
		t.Errorf("expected KindDeviceNotFound, got %v", KindOf(err))
	}
	if KindOf(errors.New("plain")) != KindUnknown {
		t.Error("plain errors should have KindUnknown")
	}
}

func TestErrorMessageAndCause(t *testing.T) {
	cause := errors.New("device busy")
	err := &Error{Kind: KindStreamStart, Op: "start stream", Device: "mic", Err: cause}

	if !errors.Is(err, cause) {
		t.Error("expected cause to be reachable through Unwrap")
	}
	msg := err.Error()
	for _, part := range []string{"start stream", "StreamStartError", `"mic"`, "device busy"} {
		if !strings.Contains(msg, part) {
			t.Errorf("message %q missing %q", msg, part)
		}
	}
}

func TestErrorJSON(t *testing.T) {
	err := &Error{Kind: KindUnsupportedSampleFormat, Device: "mic", Err: errors.New("sample format i24")}
	data, mErr := json.Marshal(err)
	if mErr != nil {
		t.Fatal(mErr)
	}

	var decoded map[string]string
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded["kind"] != "UnsupportedSampleFormat" {
		t.Errorf("unexpected kind %q", decoded["kind"])
	}
	if decoded["device"] != "mic" {
		t.Errorf("unexpected device %q", decoded["device"])
	}
	if !strings.Contains(decoded["message"], "i24") {
		t.Errorf("message lost the cause: %q", decoded["message"])
	}
}

func TestWrapErrorKeepsExistingKind(t *testing.T) {
	inner := &Error{Kind: KindStreamStart}
	if got := wrapError(KindStreamBuild, "build", "mic", inner); got != error(inner) {
		t.Errorf("expected existing *Error to pass through, got %v", got)
	}
	if got := wrapError(KindStreamBuild, "build", "mic", errors.New("x")); KindOf(got) != KindStreamBuild {
		t.Errorf("expected plain error to be classified, got %v", got)
	}
}
