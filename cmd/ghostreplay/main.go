package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"github.com/ghostreplay/rewind/internal/config"
	"github.com/ghostreplay/rewind/internal/dispatcher"
	"github.com/ghostreplay/rewind/internal/logging"
	"github.com/ghostreplay/rewind/internal/monitor"
	intOtel "github.com/ghostreplay/rewind/internal/otel"
	"github.com/ghostreplay/rewind/internal/playback"
	"github.com/ghostreplay/rewind/internal/recorder"
	"github.com/ghostreplay/rewind/internal/rewind"
	"github.com/ghostreplay/rewind/internal/telemetry"
)

const (
	appName = "ghostreplay"

	// deferred command queue bound
	commandQueueSize = 64
	// ticks between status reports
	statusEvery = 25
)

var (
	configDir = flag.String("config", ".", "directory containing "+config.FileName)
	ticks     = flag.Int("ticks", 150, "fixed ticks to simulate")
	hold      = flag.Duration("hold", -1, "frame-0 hold when entering rewind (overrides rewind.toggleHold)")

	// SlogManager handles all slog-based logging.
	SlogManager = logging.NewSlogManager()
	Logger      *slog.Logger

	SessionStartTime = time.Now()
)

func main() {
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "ghostreplay:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	SlogManager.Setup(logging.Options{Level: "info"})
	Logger = SlogManager.Logger()

	if err := config.Load(*configDir); err != nil {
		Logger.Warn("Using default configuration", "error", err)
	}
	if *hold >= 0 {
		viper.Set("rewind.toggleHold", *hold)
	}

	otelProvider, otelFile, err := setupOTel(ctx)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := otelProvider.Shutdown(shutdownCtx); err != nil {
			Logger.Error("OTel shutdown failed", "error", err)
		}
		if otelFile != nil {
			otelFile.Close()
		}
	}()

	// every record carries the session state once the controller exists
	var ctrl *rewind.Controller
	SlogManager.Setup(logging.Options{
		Level:    config.GetString("logLevel"),
		Provider: otelProvider.LoggerProvider(),
		Scope:    appName,
		Context: func() []slog.Attr {
			if ctrl == nil {
				return nil
			}
			return ctrl.LogContext()
		},
	})
	Logger = SlogManager.Logger()

	sink := setupTelemetry(ctx)
	defer sink.Close()

	lv := buildLevel()

	rec, err := recorder.New(recorder.Dependencies{
		Scene:  lv.world,
		Config: config.GetRecordingConfig(),
		Logger: Logger.With("component", "recorder"),
		Sink:   sink,
	})
	if err != nil {
		return fmt.Errorf("creating recorder: %w", err)
	}

	play, err := playback.New(playback.Dependencies{
		Scene:  lv.world,
		Source: rec,
		Config: config.GetPlaybackConfig(),
		Logger: Logger.With("component", "playback"),
		Sink:   sink,
	})
	if err != nil {
		return fmt.Errorf("creating playback: %w", err)
	}

	ctrl, err = rewind.New(rewind.Dependencies{
		Recorder: rec,
		Playback: play,
		Config:   config.GetRewindConfig(),
		Logger:   Logger.With("component", "rewind"),
	})
	if err != nil {
		return fmt.Errorf("creating controller: %w", err)
	}

	d, err := dispatcher.New(Logger.With("component", "dispatcher"), commandQueueSize)
	if err != nil {
		return fmt.Errorf("creating dispatcher: %w", err)
	}
	ctrl.RegisterHandlers(d)

	mon := monitor.NewService(monitor.Dependencies{
		Source:     ctrl,
		Logger:     Logger.With("component", "monitor"),
		StatusPath: statusPath(),
	})
	mon.RegisterHandler(d)
	if err := mon.Start(); err != nil {
		Logger.Warn("Status file disabled", "error", err)
	}
	defer mon.Stop()

	return simulate(ctx, lv, ctrl, d, os.Stdout)
}

// simulate runs the scripted session: record for the first half, toggle
// into rewind, and let the ghost replay next to the live player.
func simulate(ctx context.Context, lv *level, ctrl *rewind.Controller, d *dispatcher.Dispatcher, out io.Writer) error {
	dt := config.GetRecordingConfig().FixedDelta
	rewindAt := *ticks / 2

	send := func(cmd string, args ...string) {
		if _, err := d.Dispatch(dispatcher.Event{Command: cmd, Args: args}); err != nil {
			Logger.Error("Dispatch failed", "command", cmd, "error", err)
		}
	}

	send(rewind.CmdRecStart)
	for n := range *ticks {
		if err := ctx.Err(); err != nil {
			return err
		}

		if n == rewindAt {
			send(rewind.CmdRewindToggle)
		}

		lv.drive(n)
		if err := ctrl.FixedUpdate(ctx, dt); err != nil {
			Logger.Error("Tick failed", "tick", n, "error", err)
		}
		lv.world.Step(dt)
		lv.world.Render(dt)

		if n%statusEvery == 0 {
			if err := printStatus(d, out); err != nil {
				return err
			}
		}
	}

	ctrl.StopPlayback()
	ctrl.StopRecording()
	return printStatus(d, out)
}

func printStatus(d *dispatcher.Dispatcher, out io.Writer) error {
	status, err := d.Dispatch(dispatcher.Event{Command: monitor.CmdStatus})
	if err != nil {
		return fmt.Errorf("status: %w", err)
	}
	_, err = fmt.Fprintln(out, status)
	return err
}

func setupOTel(ctx context.Context) (*intOtel.Provider, *os.File, error) {
	cfg := config.GetOTelConfig()
	if !cfg.Enabled {
		p, err := intOtel.New(ctx, cfg, nil)
		return p, nil, err
	}

	path := logging.LogFilePath(config.GetString("logsDir"), appName+".otel", SessionStartTime)
	f, err := logging.OpenLogFile(path)
	if err != nil {
		return nil, nil, err
	}

	p, err := intOtel.New(ctx, cfg, f)
	if err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("creating OTel provider: %w", err)
	}
	Logger.Info("OTel provider initialized", "file", path, "endpoint", cfg.Endpoint, "tracing", p.Tracing())
	return p, f, nil
}

func setupTelemetry(ctx context.Context) *telemetry.Manager {
	log := logging.NewZerolog(os.Stderr, config.GetString("logLevel"), "telemetry")
	m := telemetry.NewManager(log, config.GetInfluxConfig())

	connectCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err := m.Connect(connectCtx)
	switch {
	case errors.Is(err, telemetry.ErrDisabled):
		Logger.Debug("Session telemetry disabled")
	case err != nil:
		Logger.Warn("Session telemetry unavailable", "error", err)
	default:
		Logger.Info("Session telemetry connected", "url", config.GetString("influx.url"))
	}
	return m
}

func statusPath() string {
	dir := config.GetString("logsDir")
	if dir == "" {
		return ""
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return ""
	}
	return filepath.Join(dir, appName+".status.json")
}
