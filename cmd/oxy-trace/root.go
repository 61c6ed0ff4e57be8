package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/Carmen-Shannon/oxy-trace/common"
	"github.com/Carmen-Shannon/oxy-trace/engine/config"
	"github.com/spf13/cobra"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

// options holds the flags shared by every command.
type options struct {
	configPath string
	verbose    bool

	width, height int
	tileSize      int32
	samples       uint32
	depth         uint32
	seed          uint32
	mode          string
	scenePath     string
	watch         bool
	animate       bool
	workers       int
	software      bool
	profiling     bool
	control       bool
	controlAddr   string
}

func newRootCommand() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           "oxy-trace",
		Short:         "Progressive tile-based GPU ray tracer",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelInfo
			if opts.verbose {
				level = slog.LevelDebug
			}
			common.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		},
	}

	f := root.PersistentFlags()
	f.StringVarP(&opts.configPath, "config", "c", "", "config file (default "+config.DefaultPath+" if present)")
	f.BoolVarP(&opts.verbose, "verbose", "v", false, "debug logging")
	f.IntVar(&opts.width, "width", 0, "image width in pixels")
	f.IntVar(&opts.height, "height", 0, "image height in pixels")
	f.Int32Var(&opts.tileSize, "tile", 0, "tile edge length in pixels")
	f.Uint32Var(&opts.samples, "samples", 0, "samples per pixel per pass")
	f.Uint32Var(&opts.depth, "depth", 0, "maximum bounce depth")
	f.Uint32Var(&opts.seed, "seed", 0, "initial pass seed")
	f.StringVar(&opts.mode, "mode", "", `render mode, "shaded" or "normals"`)
	f.StringVar(&opts.scenePath, "scene", "", "scene file (.toml, .yaml)")
	f.BoolVar(&opts.watch, "watch", false, "reload the scene file when it changes")
	f.BoolVar(&opts.animate, "animate", false, "animate the first spheres")
	f.IntVar(&opts.workers, "workers", 0, "CPU worker pool size")
	f.BoolVar(&opts.software, "software", false, "force the fallback (software) adapter")
	f.BoolVar(&opts.profiling, "profile", false, "log frame rate and memory statistics")
	f.BoolVar(&opts.control, "control", false, "serve the websocket control channel")
	f.StringVar(&opts.controlAddr, "control-addr", "", "control channel listen address")

	root.AddCommand(
		newRunCommand(opts),
		newHeadlessCommand(opts),
		newConfigCommand(opts),
		newVersionCommand(),
	)
	return root
}

// load reads the config file and applies every flag the user set.
func (o *options) load(cmd *cobra.Command) (config.Config, error) {
	var cfg config.Config
	var err error
	if o.configPath != "" {
		cfg, err = config.Load(o.configPath)
	} else {
		cfg, err = config.LoadDefault()
	}
	if err != nil {
		return config.Config{}, err
	}

	changed := cmd.Flags().Changed
	if changed("width") {
		cfg.Image.Width = o.width
	}
	if changed("height") {
		cfg.Image.Height = o.height
	}
	if changed("tile") {
		cfg.Tile.Size = o.tileSize
	}
	if changed("samples") {
		cfg.Sampling.Samples = o.samples
	}
	if changed("depth") {
		cfg.Sampling.Depth = o.depth
	}
	if changed("seed") {
		cfg.Sampling.Seed = o.seed
	}
	if changed("mode") {
		cfg.Sampling.Mode = o.mode
	}
	if changed("scene") {
		cfg.Scene.Path = o.scenePath
	}
	if changed("watch") {
		cfg.Scene.Watch = o.watch
	}
	if changed("animate") {
		cfg.Scene.Animate = o.animate
	}
	if changed("workers") {
		cfg.Engine.Workers = o.workers
	}
	if changed("software") {
		cfg.Engine.Software = o.software
	}
	if changed("profile") {
		cfg.Engine.Profiling = o.profiling
	}
	if changed("control") {
		cfg.Control.Enabled = o.control
	}
	if changed("control-addr") {
		cfg.Control.Addr = o.controlAddr
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func newConfigCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as TOML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load(cmd)
			if err != nil {
				return err
			}
			data, err := cfg.Encode()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "oxy-trace %s\n", version)
		},
	}
}
