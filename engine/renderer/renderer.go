package renderer

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-trace/common"
	"github.com/Carmen-Shannon/oxy-trace/engine/mirror"
	"github.com/Carmen-Shannon/oxy-trace/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-trace/engine/renderer/shader"
)

// FrameResult reports what the render node did with one snapshot.
type FrameResult struct {
	// Frame is the snapshot's frame number.
	Frame uint64
	// Readiness is the pipeline readiness after this frame's poll.
	Readiness Readiness
	// Dispatch is the compute work recorded, empty if none.
	Dispatch Dispatch
	// Presented is true if the output image was blitted to the surface.
	Presented bool
}

// renderer is the implementation of the Renderer interface.
type renderer struct {
	mu *sync.Mutex

	backend   RendererBackend
	cfg       DispatchConfig
	pipelines pipeline.Cache
	buffers   BufferCache
	readiness *ReadinessMachine
	pool      worker.DynamicWorkerPool
	workers   int
	taskID    int

	tracer shader.Shader
	blit   shader.Shader

	outputReady bool
}

// Renderer is the render domain's frame node. It owns the GPU resources of the tracer
// and turns each snapshot into at most one compute dispatch and an optional present.
//
// Pipelines compile on a worker pool in the background; Frame never blocks on them.
type Renderer interface {
	// Frame runs Update, Prepare and Run for one snapshot:
	// poll pipeline readiness, ensure and write the uniform buffers and the binding set,
	// size and submit the dispatch, then present if a surface is attached.
	//
	// Parameters:
	//   - snap: the frame's snapshot
	//
	// Returns:
	//   - FrameResult: what was recorded
	//   - error: ErrPipelineFailed if a pipeline failed to compile, or a GPU resource error
	Frame(snap mirror.Snapshot) (FrameResult, error)

	// Readiness returns the readiness after the last Frame.
	Readiness() Readiness

	// Pipelines returns the pipeline cache.
	Pipelines() pipeline.Cache

	// Buffers returns the uniform buffer cache.
	Buffers() BufferCache

	// Resize reconfigures the surface for a new window size. The output image keeps its size.
	Resize(width, height int)

	// Release stops the worker pool and releases the backend.
	Release()
}

var _ Renderer = &renderer{}

// NewRenderer creates the render node and queues compilation of its pipelines.
//
// Parameters:
//   - backend: the GPU backend
//   - cfg: image, tile and workgroup sizes
//   - options: functional options
//
// Returns:
//   - Renderer: the render node
//   - error: an error if the embedded shaders cannot be parsed, the tracer's uniform blocks do not
//     match the host layouts (ErrLayoutMismatch), or pipelines cannot be cached
func NewRenderer(backend RendererBackend, cfg DispatchConfig, options ...RendererBuilderOption) (Renderer, error) {
	if backend == nil {
		panic("renderer: backend must not be nil")
	}
	r := &renderer{
		mu:        &sync.Mutex{},
		backend:   backend,
		cfg:       cfg,
		pipelines: pipeline.NewCache(),
		buffers:   NewBufferCache(backend),
		readiness: NewReadinessMachine(InitPipelineKey, UpdatePipelineKey),
		workers:   4,
	}
	for _, opt := range options {
		opt(r)
	}

	var err error
	if r.tracer == nil {
		if r.tracer, err = shader.Tracer(); err != nil {
			return nil, err
		}
	}
	for _, name := range []string{shader.EntryInit, shader.EntryUpdate} {
		ep, ok := r.tracer.EntryPoint(name)
		if !ok {
			return nil, fmt.Errorf("%w: %s in %s", shader.ErrNoEntryPoint, name, r.tracer.Key())
		}
		if ep.WorkgroupSize[0] != r.unitFor(name) || ep.WorkgroupSize[1] != r.unitFor(name) {
			common.Logger().Warn("workgroup size differs from dispatch unit",
				"entry", name, "workgroup", ep.WorkgroupSize, "unit", r.unitFor(name))
		}
	}

	if err := CheckLayouts(r.tracer); err != nil {
		return nil, err
	}

	queued := []pipeline.Pipeline{
		pipeline.NewPipeline(InitPipelineKey, pipeline.PipelineTypeCompute,
			pipeline.WithShader(r.tracer), pipeline.WithEntryPoint(shader.EntryInit)),
		pipeline.NewPipeline(UpdatePipelineKey, pipeline.PipelineTypeCompute,
			pipeline.WithShader(r.tracer), pipeline.WithEntryPoint(shader.EntryUpdate)),
	}
	if backend.HasSurface() {
		if r.blit, err = shader.Blit(); err != nil {
			return nil, err
		}
		queued = append(queued, pipeline.NewPipeline(BlitPipelineKey, pipeline.PipelineTypeRender,
			pipeline.WithShader(r.blit)))
	}
	for _, p := range queued {
		if err := r.pipelines.Add(p); err != nil {
			return nil, err
		}
	}

	r.pool = worker.NewDynamicWorkerPool(r.workers, 256, 1*time.Second)
	for _, p := range queued {
		r.submitCompile(p)
	}
	return r, nil
}

func (r *renderer) unitFor(entry string) uint32 {
	if entry == shader.EntryInit {
		return r.cfg.InitUnit
	}
	return r.cfg.UpdateUnit
}

func (r *renderer) nextTaskID() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.taskID++
	return r.taskID
}

// submitCompile validates the pipeline's shader with naga and creates the GPU pipeline on a worker.
func (r *renderer) submitCompile(p pipeline.Pipeline) {
	r.pool.SubmitTask(worker.Task{
		ID:      r.nextTaskID(),
		Payload: p.PipelineKey(),
		Do: func() (any, error) {
			if !p.Begin() {
				return nil, nil
			}
			start := time.Now()
			err := shader.Validate(p.Shader())
			if err == nil {
				switch p.Type() {
				case pipeline.PipelineTypeCompute:
					err = r.backend.RegisterComputePipeline(p)
				case pipeline.PipelineTypeRender:
					err = r.backend.RegisterRenderPipeline(p)
				}
			}
			if finishErr := p.Finish(err); finishErr != nil {
				return nil, finishErr
			}
			if err != nil {
				common.Logger().Error("pipeline compile failed", "pipeline", p.PipelineKey(), "err", err)
				return nil, err
			}
			common.Logger().Info("pipeline ready", "pipeline", p.PipelineKey(), "took", time.Since(start))
			return nil, nil
		},
	})
}

func (r *renderer) Frame(snap mirror.Snapshot) (FrameResult, error) {
	result := FrameResult{Frame: snap.Frame}

	readiness, err := r.update()
	result.Readiness = readiness
	if err != nil {
		return result, err
	}

	if err := r.prepare(snap); err != nil {
		return result, err
	}

	result.Dispatch, err = r.run(readiness, snap)
	if err != nil {
		return result, err
	}

	result.Presented, err = r.present()
	return result, err
}

// update polls pipeline readiness once.
func (r *renderer) update() (Readiness, error) {
	before := r.readiness.State()
	readiness, err := r.readiness.Poll(r.pipelines)
	if readiness != before {
		common.Logger().Info("readiness changed", "from", before.String(), "to", readiness.String())
	}
	return readiness, err
}

// prepare makes sure every resource of the binding set exists and uploads the snapshot.
func (r *renderer) prepare(snap mirror.Snapshot) error {
	if !r.outputReady {
		if err := r.backend.CreateOutputTexture(r.cfg.Width, r.cfg.Height); err != nil {
			return fmt.Errorf("renderer: create output texture: %w", err)
		}
		r.outputReady = true
	}

	images := r.marshal(snap)
	for _, kind := range bufferKinds {
		data := images[kind]
		h, err := r.buffers.EnsureBuffer(kind, uint64(len(data)))
		if err != nil {
			return err
		}
		if err := r.buffers.Write(h, data); err != nil {
			return err
		}
	}

	return r.backend.EnsureBindGroup(r.tracer.BindGroupLayoutDescriptor(0))
}

// marshal converts the snapshot into GPU byte images, one pool task per buffer.
func (r *renderer) marshal(snap mirror.Snapshot) map[BufferKind][]byte {
	var mu sync.Mutex
	images := make(map[BufferKind][]byte, 3)
	jobs := map[BufferKind]func() []byte{
		BufferParams: func() []byte {
			g := snap.Params.GPU()
			return g.Marshal()
		},
		BufferCamera: func() []byte {
			g := snap.Camera.GPU()
			return g.Marshal()
		},
		BufferScene: func() []byte {
			g := snap.Scene.GPU()
			return g.Marshal()
		},
	}

	var wg sync.WaitGroup
	for kind, job := range jobs {
		wg.Add(1)
		r.pool.SubmitTask(worker.Task{
			ID:      r.nextTaskID(),
			Payload: kind,
			Do: func() (any, error) {
				defer wg.Done()
				data := job()
				mu.Lock()
				images[kind] = data
				mu.Unlock()
				return nil, nil
			},
		})
	}
	wg.Wait()
	return images
}

// run sizes the dispatch for this frame and submits it.
func (r *renderer) run(readiness Readiness, snap mirror.Snapshot) (Dispatch, error) {
	d := SizeDispatch(readiness, snap.State, r.cfg)
	if d.Empty() {
		return d, nil
	}
	p, ok := r.pipelines.Get(d.Pipeline)
	if !ok {
		return Dispatch{}, fmt.Errorf("%w: %s", pipeline.ErrUnknownKey, d.Pipeline)
	}

	if err := r.backend.BeginComputeFrame(); err != nil {
		return Dispatch{}, err
	}
	dispatchErr := r.backend.DispatchCompute(p, d.Workgroups)
	endErr := r.backend.EndComputeFrame()
	if err := errors.Join(dispatchErr, endErr); err != nil {
		return Dispatch{}, err
	}
	return d, nil
}

// present blits the output image once the blit pipeline has compiled.
// A failed blit compile only disables presenting; the tracer keeps running.
func (r *renderer) present() (bool, error) {
	if !r.backend.HasSurface() {
		return false, nil
	}
	state, err := r.pipelines.State(BlitPipelineKey)
	if err != nil || state != pipeline.CompileOk {
		return false, nil
	}
	p, _ := r.pipelines.Get(BlitPipelineKey)
	if err := r.backend.Present(p); err != nil {
		return false, err
	}
	return true, nil
}

func (r *renderer) Readiness() Readiness {
	return r.readiness.State()
}

func (r *renderer) Pipelines() pipeline.Cache {
	return r.pipelines
}

func (r *renderer) Buffers() BufferCache {
	return r.buffers
}

func (r *renderer) Resize(width, height int) {
	r.backend.ConfigureSurface(width, height)
}

func (r *renderer) Release() {
	r.pool.Stop()
	r.backend.Release()
}
