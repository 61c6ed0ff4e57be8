package main

import (
	"os/signal"
	"syscall"

	"github.com/Carmen-Shannon/oxy-trace/engine"
	"github.com/Carmen-Shannon/oxy-trace/engine/config"
	"github.com/Carmen-Shannon/oxy-trace/engine/renderer"
	"github.com/Carmen-Shannon/oxy-trace/engine/window"
	"github.com/spf13/cobra"
)

func newRunCommand(opts *options) *cobra.Command {
	var uncapped bool
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Render in a window",
		Long: `Render in a window. Space toggles Start, Pause and Reset; Enter starts, P pauses, R resets.
WASD or the arrow keys pan the camera, Q and E move it forward and back, Escape quits.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("uncapped") && uncapped {
				cfg.Engine.PresentMode = "uncapped"
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			win, err := window.NewWindow(
				window.WithTitle("oxy-trace"),
				window.WithSize(cfg.Image.Width, cfg.Image.Height),
				window.WithResizable(true),
			)
			if err != nil {
				return err
			}
			defer win.Close()

			mode, _ := config.ParsePresentMode(cfg.Engine.PresentMode)
			backend, err := renderer.NewWGPUBackend(
				renderer.WithSurface(win.SurfaceDescriptor(), win.Width(), win.Height()),
				renderer.WithPresentMode(mode),
				renderer.WithForceSoftwareRenderer(cfg.Engine.Software),
			)
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
			eng := engine.NewEngine(append(engOpts, engine.WithRenderer(r), engine.WithWindow(win))...)
			return runWithControl(ctx, cfg, eng)
		},
	}
	cmd.Flags().BoolVar(&uncapped, "uncapped", false, "present without vsync")
	return cmd
}
