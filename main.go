// ABOUTME: Entry point for the Pulsemon bedside monitor
// ABOUTME: Parses CLI flags, loads recordings and starts the TUI or headless loop
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/pulsemon/pulsemon-go/internal/edf"
	"github.com/pulsemon/pulsemon-go/internal/playback"
	"github.com/pulsemon/pulsemon-go/internal/synth"
	"github.com/pulsemon/pulsemon-go/internal/tone"
	"github.com/pulsemon/pulsemon-go/internal/ui"
	"github.com/pulsemon/pulsemon-go/internal/version"
)

var (
	edfPath    = flag.String("edf", "", "Signal recording to play (omit for synthetic mode)")
	annotPath  = flag.String("annotations", "", "Beat annotation file matching the recording")
	seed       = flag.Int64("seed", 42, "Seed for the synthetic generator and vitals noise")
	speed      = flag.Float64("speed", 1.0, "Playback speed multiplier")
	loop       = flag.Bool("loop", false, "Wrap around at the end of the recording")
	beep       = flag.Bool("beep", false, "Play an audible click per beat")
	exportPath = flag.String("export", "", "Write a synthetic recording to this path and exit")
	logFile    = flag.String("log-file", "pulsemon.log", "Log file path")
	noTUI      = flag.Bool("no-tui", false, "Disable TUI, log vitals to stdout instead")
)

func main() {
	flag.Parse()

	log, err := newLogger(*logFile, *noTUI)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error opening log: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	log.Info("starting monitor",
		zap.String("product", version.Product),
		zap.String("version", version.Version))

	if *exportPath != "" {
		if err := exportSynthetic(*exportPath, *seed); err != nil {
			log.Fatal("export failed", zap.Error(err))
		}
		log.Info("synthetic recording exported",
			zap.String("path", *exportPath),
			zap.Int64("seed", *seed))
		return
	}

	ctrl := playback.New(playback.Config{
		Seed:   *seed,
		Logger: log,
	})
	ctrl.SetSpeed(*speed)
	ctrl.SetLooping(*loop)

	signalBuf, annotBuf, err := readInputs(*edfPath, *annotPath)
	if err != nil {
		log.Fatal("reading input files failed", zap.Error(err))
	}

	if err := ctrl.Load(signalBuf, annotBuf); err != nil {
		// The controller already fell back to synthetic; surface the
		// cause and keep going.
		log.Warn("recording rejected, monitoring synthetic data", zap.Error(err))
	}
	ctrl.Play()

	if *noTUI {
		runHeadless(ctrl, log)
		return
	}

	var clicker ui.Clicker
	if *beep {
		beeper, err := tone.NewBeeper(log)
		if err != nil {
			log.Warn("audio unavailable, continuing silent", zap.Error(err))
		} else {
			defer func() { _ = beeper.Close() }()
			clicker = beeper
		}
	}

	if err := ui.Run(ctrl, clicker); err != nil {
		log.Fatal("TUI failed", zap.Error(err))
	}
	log.Info("monitor stopped")
}

// newLogger writes structured logs to the log file; in headless mode it
// mirrors them to stdout, where the TUI would otherwise paint over them.
func newLogger(path string, toStdout bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{path}
	if toStdout {
		cfg.OutputPaths = append(cfg.OutputPaths, "stdout")
	}
	return cfg.Build()
}

// readInputs loads the recording and annotation files. A missing -edf
// flag means synthetic mode; annotations without a recording are an
// operator error.
func readInputs(edfPath, annotPath string) (signal, annotations []byte, err error) {
	if edfPath == "" {
		if annotPath != "" {
			return nil, nil, fmt.Errorf("-annotations requires -edf")
		}
		return nil, nil, nil
	}

	signal, err = os.ReadFile(edfPath)
	if err != nil {
		return nil, nil, fmt.Errorf("read recording: %w", err)
	}

	if annotPath != "" {
		annotations, err = os.ReadFile(annotPath)
		if err != nil {
			return nil, nil, fmt.Errorf("read annotations: %w", err)
		}
	}

	return signal, annotations, nil
}

// exportSynthetic writes a generated recording to disk for debugging and
// fixture capture.
func exportSynthetic(path string, seed int64) error {
	rec, _ := synth.New(synth.Config{Seed: seed}).Generate()
	rec.Header.RecordingID = fmt.Sprintf("%s %s %s synthetic seed=%d",
		version.Manufacturer, version.Product, version.Version, seed)

	buf, err := edf.Encode(rec)
	if err != nil {
		return err
	}
	return os.WriteFile(path, buf, 0o644)
}

// runHeadless drives the controller from a wall-clock ticker and logs
// vitals once per second until the recording ends or a signal arrives.
func runHeadless(ctrl *playback.Controller, log *zap.Logger) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-sigChan:
			log.Info("shutdown signal received")
			return

		case now := <-ticker.C:
			frame := ctrl.Tick(now.Sub(last).Seconds())
			last = now

			log.Info("vitals",
				zap.Float64("cursor_s", frame.Cursor),
				zap.Float64("hr_bpm", frame.Vitals.HeartRate),
				zap.Bool("hr_from_beats", frame.Vitals.HeartRateFromBeats),
				zap.Float64("spo2_pct", frame.Vitals.SpO2),
				zap.Float64("nibp_sys", frame.Vitals.Systolic),
				zap.Float64("nibp_dia", frame.Vitals.Diastolic),
				zap.Float64("resp_rpm", frame.Vitals.RespRate),
				zap.String("source", frame.Source.String()))

			if !frame.Playing {
				log.Info("end of recording")
				return
			}
		}
	}
}
