package main

import (
	"context"
	"flag"
	"fmt"
	"math"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/atotto/clipboard"
	"github.com/petems/audiocap/internal/app"
	"github.com/petems/audiocap/internal/audio"
	"github.com/petems/audiocap/internal/config"
	"github.com/petems/audiocap/internal/logging"
	"github.com/petems/audiocap/internal/permissions"
	"github.com/rs/zerolog"
)

var (
	// Version is set via ldflags at build time
	Version = "dev"
	// Commit is set via ldflags at build time
	Commit = "unknown"
)

func usage() {
	fmt.Fprintf(os.Stderr, `audiocap %s (%s)

Usage:
  audiocap [flags] devices [-copy]
  audiocap [flags] capture [-device NAME] [-duration 10s] [-interval 1s]

Flags:
`, Version, Commit)
	flag.PrintDefaults()
}

func main() {
	backend := flag.String("backend", "", "audio backend: portaudio, miniaudio or pulse")
	logLevel := flag.String("log-level", "", "log level (debug, info, warn, error)")
	flag.Usage = usage
	flag.Parse()

	// Load config from XDG config dir, .env and environment
	cfg, err := config.Load()
	if err != nil {
		log := logging.New("")
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	if *backend != "" {
		cfg.Audio.Backend = *backend
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}

	log := logging.New(cfg.LogLevel)

	if flag.NArg() == 0 {
		usage()
		os.Exit(2)
	}

	if err := run(cfg, log, flag.Arg(0), flag.Args()[1:]); err != nil {
		log.Error().Err(err).Msg("Command failed")
		os.Exit(1)
	}
}

func run(cfg *config.Config, log zerolog.Logger, cmd string, args []string) error {
	host, err := audio.NewHost(cfg.Audio, log)
	if err != nil {
		return err
	}
	defer host.Close()

	application := app.New(app.Config{
		Host:   host,
		Config: cfg,
		Logger: log,
	})
	defer func() {
		if err := application.Shutdown(context.Background()); err != nil {
			log.Error().Err(err).Msg("Shutdown error")
		}
	}()

	log.Debug().Str("backend", application.Backend()).Str("command", cmd).Msg("audiocap starting")

	switch cmd {
	case "devices":
		return runDevices(application, args)
	case "capture":
		return runCapture(application, log, args)
	default:
		usage()
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func runDevices(application *app.App, args []string) error {
	fs := flag.NewFlagSet("devices", flag.ExitOnError)
	copyOut := fs.Bool("copy", false, "also copy the device list to the clipboard")
	fs.Parse(args)

	out, err := application.GetAudioDevices()
	if err != nil {
		return err
	}
	fmt.Println(out)

	if *copyOut {
		if err := clipboard.WriteAll(out); err != nil {
			return fmt.Errorf("failed to copy to clipboard: %w", err)
		}
	}
	return nil
}

type captureStats struct {
	samples int
	peak    float32
}

func (s *captureStats) add(samples []float32) {
	s.samples += len(samples)
	for _, v := range samples {
		if a := float32(math.Abs(float64(v))); a > s.peak {
			s.peak = a
		}
	}
}

// checkCaptureTiming rejects flag values time.NewTicker and
// context.WithTimeout cannot use.
func checkCaptureTiming(duration, interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("-interval must be positive, got %s", interval)
	}
	if duration < 0 {
		return fmt.Errorf("-duration must not be negative, got %s", duration)
	}
	return nil
}

func runCapture(application *app.App, log zerolog.Logger, args []string) error {
	fs := flag.NewFlagSet("capture", flag.ExitOnError)
	device := fs.String("device", "", "input device name (defaults to audio.default_device)")
	duration := fs.Duration("duration", 0, "stop after this long (0 runs until interrupted)")
	interval := fs.Duration("interval", time.Second, "how often to drain and report")
	fs.Parse(args)
	if err := checkCaptureTiming(*duration, *interval); err != nil {
		return err
	}

	// macOS requires explicit microphone approval before capture works
	if err := permissions.EnsureMicrophone(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if *duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, *duration)
		defer cancel()
	}

	id, err := application.StartAudioCapture(*device)
	if err != nil {
		return err
	}

	var stats captureStats
	ticker := time.NewTicker(*interval)
	defer ticker.Stop()

loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case <-ticker.C:
			samples, err := application.DrainAudioSamples(id)
			if err != nil {
				return err
			}
			stats.add(samples)

			status, err := application.CaptureStatus(id)
			if err != nil {
				return err
			}
			log.Info().
				Int("drained", len(samples)).
				Int("total", stats.samples).
				Float32("peak", stats.peak).
				Stringer("state", status.State).
				Msg("Capturing")
		}
	}

	status, statusErr := application.CaptureStatus(id)
	rest, err := application.StopAudioCapture(id)
	stats.add(rest)
	if err != nil {
		return err
	}

	summary := log.Info().
		Int("samples", stats.samples).
		Float32("peak", stats.peak)
	if statusErr == nil {
		summary = summary.
			Int("sample_rate", status.Config.SampleRate).
			Int("channels", status.Config.Channels).
			Uint64("dropped", status.Dropped)
		if status.Error != nil {
			summary = summary.AnErr("stream_error", status.Error)
		}
	}
	summary.Msg("Capture finished")
	return nil
}
