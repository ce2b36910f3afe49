package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/sync/errgroup"

	"github.com/linuxmatters/hushpuppy/internal/band"
	"github.com/linuxmatters/hushpuppy/internal/cli"
	"github.com/linuxmatters/hushpuppy/internal/config"
	"github.com/linuxmatters/hushpuppy/internal/level"
	"github.com/linuxmatters/hushpuppy/internal/logging"
	"github.com/linuxmatters/hushpuppy/internal/monitor"
	"github.com/linuxmatters/hushpuppy/internal/ui"
)

var (
	version = "0.1.0"
)

// CLI defines the command-line interface
type CLI struct {
	Version  bool   `short:"v" help:"Show version information"`
	Config   string `short:"c" type:"path" help:"Path to YAML config file (optional)"`
	Demo     bool   `help:"Replay the built-in demo script instead of a file"`
	Listen   bool   `help:"Play the audio out loud while metering"`
	Duration int    `short:"d" placeholder:"SECONDS" help:"Stop monitoring after this many seconds"`
	Report   string `default:"hushpuppy-session.log" help:"Session report path (empty to skip)"`
	Headless bool   `help:"No mascot; print a summary when the session ends"`
	Debug    bool   `help:"Write hushpuppy-debug.log alongside the session"`
	File     string `arg:"" name:"file" help:"Audio file to replay (wav, mp3, ogg)" type:"existingfile" optional:""`
}

func main() {
	cliArgs := &CLI{}
	kctx := kong.Parse(cliArgs,
		kong.Name("hushpuppy"),
		kong.Description("Studio loudness monitor with an animated mascot"),
		kong.UsageOnError(),
		kong.Vars{
			"version": version,
		},
		kong.Help(cli.StyledHelpPrinter(kong.HelpOptions{Compact: true})),
	)

	// Handle version flag
	if cliArgs.Version {
		cli.PrintVersion(version)
		os.Exit(0)
	}

	// Validate input
	if cliArgs.File == "" && !cliArgs.Demo {
		cli.PrintError("Nothing to monitor: give an audio file or pass --demo")
		kctx.PrintUsage(false)
		os.Exit(1)
	}
	if cliArgs.File != "" && cliArgs.Demo {
		cli.PrintError("Choose an audio file or --demo, not both")
		kctx.PrintUsage(false)
		os.Exit(1)
	}

	// Open the debug log only on request; otherwise the closure discards.
	log := func(string, ...interface{}) {}
	if cliArgs.Debug {
		debugLog, _ := os.Create("hushpuppy-debug.log")
		if debugLog != nil {
			defer debugLog.Close()
			log = func(format string, args ...interface{}) {
				fmt.Fprintf(debugLog, format+"\n", args...)
			}
		}
	}

	if err := run(cliArgs, log); err != nil {
		cli.PrintError(err.Error())
		os.Exit(1)
	}
}

func run(cliArgs *CLI, log func(format string, args ...interface{})) error {
	cfg, err := config.Load(cliArgs.Config)
	if err != nil {
		return err
	}

	set, err := cfg.BandSet()
	if err != nil {
		return err
	}
	ramp, err := cfg.Ramp()
	if err != nil {
		return err
	}
	stats := monitor.NewStats(set)
	tracker, err := monitor.NewTracker(set, cfg.EscalationPolicy(), stats)
	if err != nil {
		return err
	}

	var src level.Source
	sourceName := "demo script"
	if cliArgs.Demo {
		script, err := level.NewScriptSource(nil, cfg.MeterCalibration(), cliArgs.Listen)
		if err != nil {
			return err
		}
		src = script
	} else {
		file, err := level.OpenFile(cliArgs.File, cfg.MeterCalibration(), cliArgs.Listen, log)
		if err != nil {
			return err
		}
		src = file
		sourceName = file.Name()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if cliArgs.Duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(cliArgs.Duration)*time.Second)
		defer cancel()
	}

	if cliArgs.Headless {
		err = runHeadless(ctx, set, tracker, stats, src, log)
	} else {
		err = runUI(ctx, set, tracker, ramp, stats, src, log)
	}
	if err != nil {
		return err
	}

	meta := src.Metadata()
	data := logging.ReportData{
		Source:     sourceName,
		ConfigPath: cliArgs.Config,
		SampleRate: meta.SampleRate,
		Channels:   meta.Channels,
		AudioLen:   meta.Duration,
		Snapshot:   stats.Snapshot(),
	}
	if cliArgs.Headless {
		logging.WriteSummary(os.Stdout, data)
	}
	if cliArgs.Report != "" {
		if err := logging.GenerateReport(cliArgs.Report, data); err != nil {
			return err
		}
		cli.PrintNote("Session report:", cliArgs.Report)
	}
	return nil
}

// runUI drives a full mascot session: the source pumps readings, the
// consumer feeds the controller and mirrors state into the Bubbletea
// program, and the program owns the terminal until the session ends or
// the user quits.
func runUI(ctx context.Context, set *band.Set, tracker *monitor.Tracker, ramp *monitor.ColorRamp, stats *monitor.Stats, src level.Source, log func(format string, args ...interface{})) error {
	lib := ui.DefaultLibrary()
	model := ui.NewModel(lib, log)
	p := tea.NewProgram(model, tea.WithAltScreen())

	ctrl, err := monitor.NewController(monitor.ControllerConfig{
		Set:     set,
		Player:  ui.NewMascotPlayer(lib, model),
		Tracker: tracker,
		Ramp:    ramp,
		Background: func(hex string) {
			p.Send(ui.BackgroundMsg{Hex: hex})
		},
		Stats: stats,
		Logf:  log,
	})
	if err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	readings := make(chan level.Reading, 16)
	g, gctx := errgroup.WithContext(runCtx)

	var srcErr error
	g.Go(func() error {
		defer close(readings)
		err := src.Run(gctx, readings)
		if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
			srcErr = err
			return err
		}
		return nil
	})

	g.Go(func() error {
		for r := range readings {
			ctrl.OnReading(r.Level)
			stats.NotePeak(r.Peak, r.Clipped)
			p.Send(ui.ReadingMsg{
				Level:    r.Level,
				Peak:     r.Peak,
				Clipped:  r.Clipped,
				Elapsed:  r.Elapsed,
				Band:     ctrl.Current().Name,
				Meltdown: ctrl.Meltdown(),
			})
		}
		ctrl.Stop()
		p.Send(ui.SessionEndMsg{Err: srcErr})
		return nil
	})

	_, uiErr := p.Run()
	cancel()
	waitErr := g.Wait()
	if uiErr != nil {
		return fmt.Errorf("UI error: %w", uiErr)
	}
	return waitErr
}

// runHeadless runs the same pipeline without a terminal: the controller
// still classifies, tracks escalation, and counts stats, but the player
// swallows every clip load.
func runHeadless(ctx context.Context, set *band.Set, tracker *monitor.Tracker, stats *monitor.Stats, src level.Source, log func(format string, args ...interface{})) error {
	ctrl, err := monitor.NewController(monitor.ControllerConfig{
		Set:     set,
		Player:  monitor.NopPlayer{Logf: log},
		Tracker: tracker,
		Stats:   stats,
		Logf:    log,
	})
	if err != nil {
		return err
	}

	readings := make(chan level.Reading, 16)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(readings)
		err := src.Run(gctx, readings)
		if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		for r := range readings {
			ctrl.OnReading(r.Level)
			stats.NotePeak(r.Peak, r.Clipped)
		}
		ctrl.Stop()
		return nil
	})

	return g.Wait()
}
