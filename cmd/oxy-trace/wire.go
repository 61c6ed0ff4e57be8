package main

import (
	"context"
	"fmt"

	"github.com/Carmen-Shannon/oxy-trace/engine"
	"github.com/Carmen-Shannon/oxy-trace/engine/camera"
	"github.com/Carmen-Shannon/oxy-trace/engine/config"
	"github.com/Carmen-Shannon/oxy-trace/engine/control"
	"github.com/Carmen-Shannon/oxy-trace/engine/renderer"
	"github.com/Carmen-Shannon/oxy-trace/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-trace/engine/scene"
	"golang.org/x/sync/errgroup"
)

// newTracer creates the render node over backend, sizing dispatches from the kernel's workgroups.
func newTracer(cfg config.Config, backend renderer.RendererBackend) (renderer.Renderer, error) {
	tracer, err := shader.Tracer()
	if err != nil {
		return nil, err
	}
	initEP, ok := tracer.EntryPoint(shader.EntryInit)
	if !ok {
		return nil, fmt.Errorf("%w: %s", shader.ErrNoEntryPoint, shader.EntryInit)
	}
	updateEP, ok := tracer.EntryPoint(shader.EntryUpdate)
	if !ok {
		return nil, fmt.Errorf("%w: %s", shader.ErrNoEntryPoint, shader.EntryUpdate)
	}
	return renderer.NewRenderer(backend,
		cfg.DispatchConfig(initEP.WorkgroupSize[0], updateEP.WorkgroupSize[0]),
		renderer.WithWorkers(cfg.Engine.Workers),
		renderer.WithTracerShader(tracer),
	)
}

// engineOptions translates the config into engine options shared by run and headless.
func engineOptions(cfg config.Config) ([]engine.EngineBuilderOption, error) {
	spheres, err := cfg.LoadScene()
	if err != nil {
		return nil, err
	}
	opts := []engine.EngineBuilderOption{
		engine.WithCamera(cfg.NewCamera()),
		engine.WithCameraController(camera.NewCameraController(camera.WithPanSpeed(cfg.Camera.PanSpeed))),
		engine.WithParams(cfg.NewParams()),
		engine.WithScene(spheres),
		engine.WithAnimation(cfg.Scene.Animate),
		engine.WithTickRate(cfg.Engine.TickRate),
		engine.WithProfiling(cfg.Engine.Profiling),
	}
	if cfg.Scene.Watch {
		path, err := cfg.ScenePath()
		if err != nil {
			return nil, err
		}
		w, err := scene.NewWatcher(path)
		if err != nil {
			return nil, err
		}
		opts = append(opts, engine.WithSceneWatcher(w))
	}
	return opts, nil
}

// runWithControl runs the engine on the calling goroutine and, when enabled, the control
// server alongside it. The server stops when the engine returns.
func runWithControl(ctx context.Context, cfg config.Config, eng engine.Engine) error {
	if !cfg.Control.Enabled {
		return eng.Run(ctx)
	}

	ctx, cancel := context.WithCancel(ctx)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return control.NewServer(eng).ListenAndServe(gctx, cfg.Control.Addr)
	})

	err := eng.Run(gctx)
	cancel()
	if serveErr := g.Wait(); err == nil {
		err = serveErr
	}
	return err
}
