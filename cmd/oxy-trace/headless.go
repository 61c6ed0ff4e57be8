package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/Carmen-Shannon/oxy-trace/engine"
	"github.com/Carmen-Shannon/oxy-trace/engine/mirror"
	"github.com/Carmen-Shannon/oxy-trace/engine/renderer"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
)

func newHeadlessCommand(opts *options) *cobra.Command {
	var passes int
	var frames uint64
	var interval time.Duration

	cmd := &cobra.Command{
		Use:   "headless",
		Short: "Render without a window and stop after a number of passes or frames",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load(cmd)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			backend, err := renderer.NewWGPUBackend(renderer.WithForceSoftwareRenderer(cfg.Engine.Software))
			if err != nil {
				return err
			}
			r, err := newTracer(cfg, backend)
			if err != nil {
				backend.Release()
				return err
			}
			defer r.Release()

			engOpts, err := engineOptions(cfg)
			if err != nil {
				return err
			}
			eng := engine.NewEngine(append(engOpts,
				engine.WithRenderer(r),
				engine.WithAutoRun(true),
				engine.WithMaxPasses(passes),
				engine.WithMaxFrames(frames),
			)...)

			out := termenv.NewOutput(cmd.OutOrStdout())
			statusCtx, cancelStatus := context.WithCancel(ctx)
			done := make(chan struct{})
			go func() {
				defer close(done)
				printStatus(statusCtx, out, eng, interval)
			}()

			start := time.Now()
			err = runWithControl(ctx, cfg, eng)
			cancelStatus()
			<-done

			if err != nil {
				fmt.Fprintln(out, out.String("failed: "+err.Error()).Foreground(out.Color("1")).Bold())
				return err
			}
			summary := fmt.Sprintf("%d pass(es) in %s", eng.Passes(), time.Since(start).Round(time.Millisecond))
			fmt.Fprintln(out, out.String(summary).Foreground(out.Color("2")).Bold())
			return nil
		},
	}
	f := cmd.Flags()
	f.IntVar(&passes, "passes", 1, "stop after this many completed passes (0 = no limit)")
	f.Uint64Var(&frames, "frames", 0, "stop after this many frames (0 = no limit)")
	f.DurationVar(&interval, "status-interval", time.Second, "how often to print a status line")
	return cmd
}

// printStatus writes a styled status line at every interval until ctx is cancelled.
func printStatus(ctx context.Context, out *termenv.Output, eng engine.Engine, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if s, ok := eng.Status(); ok {
				writeStatus(out, s, eng.LastFrame())
			}
		}
	}
}

func writeStatus(out *termenv.Output, s mirror.Status, frame renderer.FrameResult) {
	state := out.String(fmt.Sprintf("%-9s", s.Text)).Bold()
	switch s.State {
	case "Running":
		state = state.Foreground(out.Color("3"))
	case "Done":
		state = state.Foreground(out.Color("2"))
	}
	fmt.Fprintf(out, "%s frame %6d  seed %3d  tile %3d  %5.1f%%  %6.1f fps  gpu %s\n",
		state, s.Frame, s.Seed, s.Tile, s.Progress*100, s.AvgFPS, frame.Readiness)
}
