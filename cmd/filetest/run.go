package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"filetest/internal/config"
	"filetest/internal/discover"
	"filetest/internal/harness"
	"filetest/internal/observ"
	"filetest/internal/pool"
	"filetest/internal/runone"
	"filetest/internal/timing"
	"filetest/internal/trace"
)

var runCmd = &cobra.Command{
	Use:   "run [flags] [paths...]",
	Short: "Run file tests in parallel",
	Long: `Run every *.clif test under the given files and directories on a pool of workers.
Paths default to run.paths from filetest.toml.`,
	RunE: runTests,
}

func init() {
	runCmd.Flags().IntP("jobs", "j", 0, "number of worker goroutines (0 = one per CPU)")
	runCmd.Flags().Duration("heartbeat", 0, "interval between heartbeat ticks (default 1s)")
	runCmd.Flags().Int("stall-ticks", 0, "abandon the run after this many heartbeats without progress (0 = never)")
	runCmd.Flags().Bool("timings", false, "print the per-pass timing table")
	runCmd.Flags().String("timings-out", "", "write the timing report to file (.json or .msgpack)")
	runCmd.Flags().String("ui", "auto", "progress UI mode (auto|on|off)")
	runCmd.Flags().BoolP("verbose", "v", false, "print a line for every passing test")
}

// errTestsFailed is returned after the report is printed so main exits 1
// without repeating the failures.
var errTestsFailed = errors.New("test run failed")

type runSettings struct {
	cfg        config.Config
	workers    int
	heartbeat  time.Duration
	stallTicks int
	timings    bool
	timingsOut string
	ui         uiMode
	verbose    bool
	logLevel   string
}

func readRunSettings(cmd *cobra.Command) (runSettings, error) {
	cfg, err := config.Discover(".")
	if err != nil {
		return runSettings{}, err
	}
	s := runSettings{cfg: cfg}
	if s.workers, err = cfg.WorkerCount(); err != nil {
		return runSettings{}, err
	}
	if s.stallTicks, err = cfg.StallTicks(); err != nil {
		return runSettings{}, err
	}
	s.heartbeat = cfg.Run.Heartbeat.Duration
	s.timings = cfg.Report.Timings
	s.timingsOut = cfg.Report.TimingsOut
	s.logLevel = cfg.Log.Level

	flags := cmd.Flags()
	if flags.Changed("jobs") {
		if s.workers, err = flags.GetInt("jobs"); err != nil {
			return runSettings{}, fmt.Errorf("failed to get jobs flag: %w", err)
		}
		if s.workers < 0 {
			return runSettings{}, fmt.Errorf("--jobs must not be negative, got %d", s.workers)
		}
	}
	if flags.Changed("heartbeat") {
		if s.heartbeat, err = flags.GetDuration("heartbeat"); err != nil {
			return runSettings{}, fmt.Errorf("failed to get heartbeat flag: %w", err)
		}
	}
	if flags.Changed("stall-ticks") {
		if s.stallTicks, err = flags.GetInt("stall-ticks"); err != nil {
			return runSettings{}, fmt.Errorf("failed to get stall-ticks flag: %w", err)
		}
	}
	if flags.Changed("timings") {
		if s.timings, err = flags.GetBool("timings"); err != nil {
			return runSettings{}, fmt.Errorf("failed to get timings flag: %w", err)
		}
	}
	if flags.Changed("timings-out") {
		if s.timingsOut, err = flags.GetString("timings-out"); err != nil {
			return runSettings{}, fmt.Errorf("failed to get timings-out flag: %w", err)
		}
	}
	uiValue, err := flags.GetString("ui")
	if err != nil {
		return runSettings{}, fmt.Errorf("failed to get ui flag: %w", err)
	}
	if s.ui, err = readUIMode(uiValue); err != nil {
		return runSettings{}, err
	}
	if s.verbose, err = flags.GetBool("verbose"); err != nil {
		return runSettings{}, fmt.Errorf("failed to get verbose flag: %w", err)
	}
	if lvl, err := cmd.Root().PersistentFlags().GetString("log-level"); err != nil {
		return runSettings{}, fmt.Errorf("failed to get log-level flag: %w", err)
	} else if lvl != "" {
		s.logLevel = lvl
	}
	return s, nil
}

func runTests(cmd *cobra.Command, args []string) error {
	settings, err := readRunSettings(cmd)
	if err != nil {
		return err
	}
	logger, err := newLogger(os.Stderr, settings.logLevel)
	if err != nil {
		return err
	}
	if settings.cfg.Path != "" {
		logger.Debug().Str("path", settings.cfg.Path).Msg("loaded configuration")
	}

	phases := observ.NewTimer()
	discoverPhase := phases.Start("discover")
	paths := args
	if len(paths) == 0 {
		paths = settings.cfg.Run.Paths
	}
	if len(paths) == 0 {
		return fmt.Errorf("no test paths given and run.paths is empty")
	}
	files, err := discover.Files(paths, runone.Extension)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no %s files found", runone.Extension)
	}
	discoverPhase.Stop(fmt.Sprintf("%d files", len(files)))

	stopProfiling, err := setupProfiling(cmd)
	if err != nil {
		return err
	}
	defer stopProfiling()

	stopTracing, err := setupTracing(cmd, settings.cfg.Trace)
	if err != nil {
		return err
	}
	failed := true
	defer func() { stopTracing(failed) }()

	ctx := cmd.Context()
	p := pool.New(ctx, runone.Run, pool.Options{
		Workers:   settings.workers,
		Heartbeat: settings.heartbeat,
		Logger:    &logger,
		Tracer:    trace.FromContext(ctx),
	})
	logger.Info().Int("files", len(files)).Int("workers", p.Workers()).Msg("starting test run")

	runPhase := phases.Start("run")
	hopts := harness.Options{StallTicks: settings.stallTicks, Logger: &logger}
	out := cmd.OutOrStdout()
	var sum harness.Summary
	var runErr error
	if shouldUseTUI(settings.ui) {
		sum, runErr = runHarnessWithUI("filetest", p, files, hopts)
	} else {
		hopts.Sink = lineSink(out, settings.verbose)
		sum, runErr = harness.Run(p, files, hopts)
	}

	runPhase.Stop(fmt.Sprintf("%d workers", p.Workers()))
	stalled := errors.Is(runErr, harness.ErrStalled)
	if runErr != nil && !stalled {
		p.Shutdown()
		if err := p.Join(timing.NewAccumulator()); err != nil {
			logger.Warn().Err(err).Msg("join after failed run")
		}
		return runErr
	}

	// a stalled pool still has running workers; joining would block forever
	totals := timing.NewAccumulator()
	var joinErr error
	if !stalled {
		joinPhase := phases.Start("join")
		joinErr = p.Join(totals)
		joinPhase.Stop("")
	}
	times := totals.Extract()

	printSummary(out, sum)
	if joinErr != nil {
		fmt.Fprintln(out, color.RedString("worker failures:"), joinErr)
	}
	if settings.timings {
		if _, err := times.WriteTo(out); err != nil {
			return err
		}
		if _, err := phases.WriteTo(out); err != nil {
			return err
		}
	}
	if settings.timingsOut != "" {
		if err := writeTimingReport(settings.timingsOut, &times, phases); err != nil {
			return err
		}
	}

	if !sum.OK() || joinErr != nil {
		return errTestsFailed
	}
	failed = false
	return nil
}

// lineSink prints one line per finished test. Passing tests are only shown
// when verbose is set.
func lineSink(out io.Writer, verbose bool) harness.Sink {
	return harness.SinkFunc(func(ev harness.Event) {
		switch ev.Status {
		case harness.StatusPassed:
			if verbose {
				fmt.Fprintf(out, "%s %s (%s)\n", color.GreenString("PASS"), ev.Path, ev.Elapsed.Round(time.Millisecond))
			}
		case harness.StatusFailed:
			fmt.Fprintf(out, "%s %s: %v\n", color.RedString("FAIL"), ev.Path, ev.Err)
		case harness.StatusStalled:
			fmt.Fprintf(out, "%s %s on worker #%d: %v\n", color.YellowString("STALL"), ev.Path, ev.Worker, ev.Err)
		}
	})
}

func printSummary(out io.Writer, sum harness.Summary) {
	fmt.Fprintln(out)
	for _, o := range sum.Failures() {
		fmt.Fprintf(out, "  %s %s\n", color.RedString("failed:"), o.Path)
	}
	status := color.GreenString("ok")
	if !sum.OK() {
		status = color.RedString("FAILED")
	}
	fmt.Fprintf(out, "%s: %d passed, %d failed", status, sum.Passed, sum.Failed)
	if sum.Stalled > 0 {
		fmt.Fprintf(out, ", %d stalled", sum.Stalled)
	}
	if sum.Pending > 0 {
		fmt.Fprintf(out, ", %d not started", sum.Pending)
	}
	fmt.Fprintf(out, " in %s\n", sum.Wall.Round(time.Millisecond))
}
