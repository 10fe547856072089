package audio

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/gen2brain/malgo"
)

func TestMiniaudioStreamConfig(t *testing.T) {
	tests := []struct {
		name       string
		format     malgo.FormatType
		channels   uint32
		sampleRate uint32
		want       StreamConfig
	}{
		{"s16 native", malgo.FormatS16, 1, 44100, StreamConfig{SampleRate: 44100, Channels: 1, Format: FormatI16}},
		{"f32 native", malgo.FormatF32, 2, 48000, StreamConfig{SampleRate: 48000, Channels: 2, Format: FormatF32}},
		{"s24 is reported, not converted", malgo.FormatS24, 2, 96000, StreamConfig{SampleRate: 96000, Channels: 2, Format: FormatI24}},
		{"any format and rate", malgo.FormatUnknown, 0, 0, StreamConfig{SampleRate: 48000, Channels: 2, Format: FormatF32}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := miniaudioStreamConfig(tt.format, tt.channels, tt.sampleRate)
			if got != tt.want {
				t.Errorf("expected %+v, got %+v", tt.want, got)
			}
		})
	}
}

func TestDecodeLittleEndian(t *testing.T) {
	f := []float32{0.5, -1, 0.25}
	raw := make([]byte, 0, len(f)*4)
	for _, v := range f {
		raw = binary.LittleEndian.AppendUint32(raw, math.Float32bits(v))
	}
	// trailing partial sample is ignored
	raw = append(raw, 0xff)

	got := decodeF32(nil, raw)
	if len(got) != len(f) {
		t.Fatalf("expected %d samples, got %d", len(f), len(got))
	}
	for i := range f {
		if got[i] != f[i] {
			t.Errorf("sample %d: expected %f, got %f", i, f[i], got[i])
		}
	}

	i16 := decodeI16(nil, []byte{0x00, 0x80, 0xff, 0x7f, 0x01, 0x00})
	want := []int16{math.MinInt16, math.MaxInt16, 1}
	for i := range want {
		if i16[i] != want[i] {
			t.Errorf("sample %d: expected %d, got %d", i, want[i], i16[i])
		}
	}
}
