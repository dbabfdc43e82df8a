package main

import (
	"fmt"

	"fortio.org/safecast"
	"github.com/spf13/cobra"

	"filetest/internal/config"
	"filetest/internal/trace"
)

// setupTracing merges trace flags over cfg.Trace and attaches the tracer to
// the command context. The returned cleanup dumps the ring buffer to stderr
// when the run failed and the tracer only kept events in memory.
func setupTracing(cmd *cobra.Command, cfg config.TraceConfig) (func(failed bool), error) {
	root := cmd.Root()

	traceOutput, err := root.PersistentFlags().GetString("trace")
	if err != nil {
		return nil, fmt.Errorf("failed to get trace flag: %w", err)
	}
	levelStr, err := root.PersistentFlags().GetString("trace-level")
	if err != nil {
		return nil, fmt.Errorf("failed to get trace-level flag: %w", err)
	}
	modeStr, err := root.PersistentFlags().GetString("trace-mode")
	if err != nil {
		return nil, fmt.Errorf("failed to get trace-mode flag: %w", err)
	}
	ringSize, err := root.PersistentFlags().GetInt("trace-ring-size")
	if err != nil {
		return nil, fmt.Errorf("failed to get trace-ring-size flag: %w", err)
	}

	if traceOutput == "" {
		traceOutput = cfg.Output
	}
	if modeStr == "" {
		modeStr = cfg.Mode
	}
	if ringSize <= 0 {
		ringSize, err = safecast.Conv[int](cfg.RingSize)
		if err != nil {
			return nil, fmt.Errorf("trace ring_size: %w", err)
		}
	}
	if levelStr == "" {
		levelStr = cfg.Level
		// an explicit output without a level means "trace passes"
		if traceOutput != "" && (levelStr == "" || levelStr == "off") {
			levelStr = trace.LevelDetail.String()
		}
	}

	level, err := trace.ParseLevel(levelStr)
	if err != nil {
		return nil, fmt.Errorf("invalid trace level: %w", err)
	}
	if level == trace.LevelOff {
		cmd.SetContext(trace.WithTracer(cmd.Context(), trace.Nop))
		return func(bool) {}, nil
	}

	mode, err := trace.ParseMode(modeStr)
	if err != nil {
		return nil, fmt.Errorf("invalid trace mode: %w", err)
	}

	tracer, err := trace.New(trace.Config{
		Level:      level,
		Mode:       mode,
		OutputPath: traceOutput,
		RingSize:   ringSize,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create tracer: %w", err)
	}
	cmd.SetContext(trace.WithTracer(cmd.Context(), tracer))

	cleanup := func(failed bool) {
		if failed && mode == trace.ModeRing {
			if rec, ok := tracer.(*trace.Recorder); ok && rec.HasRing() {
				fmt.Fprintln(cmd.ErrOrStderr(), "trace: last events before failure:")
				if err := rec.DumpRing(cmd.ErrOrStderr(), trace.FormatText); err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "trace: dump error: %v\n", err)
				}
			}
		}
		if err := tracer.Flush(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "trace: flush error: %v\n", err)
		}
		if err := tracer.Close(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "trace: close error: %v\n", err)
		}
	}
	return cleanup, nil
}
