package main

import (
	"testing"
	"time"
)

func TestCheckCaptureTiming(t *testing.T) {
	tests := []struct {
		name     string
		duration time.Duration
		interval time.Duration
		wantErr  bool
	}{
		{"defaults", 0, time.Second, false},
		{"bounded run", 10 * time.Second, 250 * time.Millisecond, false},
		{"zero interval", 0, 0, true},
		{"negative interval", 0, -time.Second, true},
		{"negative duration", -time.Second, time.Second, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := checkCaptureTiming(tt.duration, tt.interval)
			if tt.wantErr && err == nil {
				t.Error("expected error")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestCaptureStatsTracksPeak(t *testing.T) {
	var s captureStats
	s.add([]float32{0.1, -0.8, 0.3})
	s.add(nil)
	s.add([]float32{0.5})

	if s.samples != 4 {
		t.Errorf("expected 4 samples, got %d", s.samples)
	}
	if s.peak != 0.8 {
		t.Errorf("expected peak 0.8, got %f", s.peak)
	}
}
