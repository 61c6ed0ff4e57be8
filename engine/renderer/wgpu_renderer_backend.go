package renderer

import (
	"fmt"
	"runtime"
	"sort"
	"sync"

	"github.com/Carmen-Shannon/oxy-trace/common"
	"github.com/Carmen-Shannon/oxy-trace/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-trace/engine/renderer/pipeline"
	"github.com/cogentcore/webgpu/wgpu"
)

// binding index of the output image in both the tracer and the blit group
const outputBinding = 0

// binding index of the blit sampler
const samplerBinding = 1

type wgpuRendererBackendImpl struct {
	mu     *sync.Mutex
	device *wgpu.Device
	queue  *wgpu.Queue

	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	surface  *wgpu.Surface

	surfaceFormat *wgpu.TextureFormat
	presentMode   wgpu.PresentMode

	outputTexture *wgpu.Texture

	// tracer holds the output storage view, the uniform buffers and the kernel bind group.
	tracer bind_group_provider.BindGroupProvider
	// blit holds a sampled view of the output texture and the sampler for presenting.
	blit bind_group_provider.BindGroupProvider

	// Compute frame state for batching all compute dispatches into a single GPU submission
	computeFrameEncoder *wgpu.CommandEncoder
}

var _ RendererBackend = &wgpuRendererBackendImpl{}

// NewWGPUBackend creates the WebGPU backend. Without WithSurface it runs headless: the adapter
// is requested without a compatible surface and Present returns ErrNoSurface.
//
// The calling goroutine is locked to its OS thread, as the window system requires.
//
// Parameters:
//   - options: functional options for surface, present mode and adapter selection
//
// Returns:
//   - RendererBackend: the backend
//   - error: an error if no adapter or device could be acquired
func NewWGPUBackend(options ...BackendBuilderOption) (RendererBackend, error) {
	cfg := backendConfig{presentMode: PresentModeUncapped}
	for _, opt := range options {
		opt(&cfg)
	}

	runtime.LockOSThread()
	b := &wgpuRendererBackendImpl{
		mu:       &sync.Mutex{},
		instance: wgpu.CreateInstance(nil),
		tracer:   bind_group_provider.NewBindGroupProvider("Tracer"),
		blit:     bind_group_provider.NewBindGroupProvider("Blit"),
	}
	b.SetPresentMode(cfg.presentMode)

	if cfg.surfaceDescriptor != nil {
		b.surface = b.instance.CreateSurface(cfg.surfaceDescriptor)
	}

	a, err := b.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: cfg.forceFallbackAdapter,
		CompatibleSurface:    b.surface,
	})
	if err != nil {
		b.Release()
		return nil, fmt.Errorf("renderer: request adapter: %w", err)
	}
	b.adapter = a

	d, err := a.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "Main Device",
		RequiredLimits: &wgpu.RequiredLimits{
			Limits: wgpu.DefaultLimits(),
		},
	})
	if err != nil {
		b.Release()
		return nil, fmt.Errorf("renderer: request device: %w", err)
	}
	b.device = d
	b.queue = d.GetQueue()

	if b.surface != nil {
		b.ConfigureSurface(cfg.width, cfg.height)
	}
	common.Logger().Info("gpu backend ready", "headless", b.surface == nil, "fallback", cfg.forceFallbackAdapter)
	return b, nil
}

func (b *wgpuRendererBackendImpl) HasSurface() bool {
	return b.surface != nil
}

func (b *wgpuRendererBackendImpl) ConfigureSurface(width, height int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.surface == nil || width <= 0 || height <= 0 {
		return
	}

	capabilities := b.surface.GetCapabilities(b.adapter)
	b.surfaceFormat = &capabilities.Formats[0]

	b.surface.Configure(b.adapter, b.device, &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      *b.surfaceFormat,
		Width:       uint32(width),
		Height:      uint32(height),
		PresentMode: b.presentMode,
		AlphaMode:   capabilities.AlphaModes[0],
	})
}

func (b *wgpuRendererBackendImpl) SetPresentMode(mode PresentMode) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch mode {
	case PresentModeVSync:
		b.presentMode = wgpu.PresentModeFifo
	case PresentModeUncapped:
		fallthrough
	default:
		b.presentMode = wgpu.PresentModeImmediate
	}
}

func (b *wgpuRendererBackendImpl) CreateBuffer(kind BufferKind, size uint64) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	buf, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: fmt.Sprintf("%s %s Buffer", b.tracer.Label(), kind),
		Size:  size,
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return err
	}
	b.tracer.SetBuffer(int(kind), buf)
	return nil
}

func (b *wgpuRendererBackendImpl) WriteBuffer(kind BufferKind, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	buf := b.tracer.Buffer(int(kind))
	if buf == nil {
		return fmt.Errorf("%w: %s buffer", ErrBindingMissing, kind)
	}
	return b.queue.WriteBuffer(buf, 0, data)
}

func (b *wgpuRendererBackendImpl) CreateOutputTexture(width, height uint32) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	tex, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
		Label: "Output Texture",
		Size: wgpu.Extent3D{
			Width:              width,
			Height:             height,
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        wgpu.TextureFormatRGBA8Unorm,
		Usage:         wgpu.TextureUsageStorageBinding | wgpu.TextureUsageTextureBinding,
	})
	if err != nil {
		return err
	}

	storageView, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return err
	}
	sampledView, err := tex.CreateView(nil)
	if err != nil {
		storageView.Release()
		tex.Release()
		return err
	}

	if b.outputTexture != nil {
		b.outputTexture.Release()
	}
	b.outputTexture = tex
	b.tracer.SetTextureView(outputBinding, storageView)
	b.blit.SetTextureView(outputBinding, sampledView)

	if b.blit.Sampler(samplerBinding) == nil {
		samp, err := b.device.CreateSampler(&wgpu.SamplerDescriptor{
			Label:         "Blit Sampler",
			AddressModeU:  wgpu.AddressModeClampToEdge,
			AddressModeV:  wgpu.AddressModeClampToEdge,
			AddressModeW:  wgpu.AddressModeClampToEdge,
			MagFilter:     wgpu.FilterModeLinear,
			MinFilter:     wgpu.FilterModeLinear,
			MipmapFilter:  wgpu.MipmapFilterModeNearest,
			LodMinClamp:   0,
			LodMaxClamp:   1,
			Compare:       wgpu.CompareFunctionUndefined,
			MaxAnisotropy: 1,
		})
		if err != nil {
			return err
		}
		b.blit.SetSampler(samplerBinding, samp)
	}
	return nil
}

func (b *wgpuRendererBackendImpl) EnsureBindGroup(descriptor wgpu.BindGroupLayoutDescriptor) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.initBindGroup(b.tracer, descriptor)
}

// initBindGroup builds the provider's bind group from resources already stored on it.
// The caller holds b.mu.
func (b *wgpuRendererBackendImpl) initBindGroup(provider bind_group_provider.BindGroupProvider, descriptor wgpu.BindGroupLayoutDescriptor) error {
	if provider.BindGroup() != nil || len(descriptor.Entries) == 0 {
		return nil
	}

	layout, err := b.layoutFor(provider, descriptor)
	if err != nil {
		return err
	}

	entries := make([]wgpu.BindGroupEntry, len(descriptor.Entries))
	for i, entry := range descriptor.Entries {
		binding := int(entry.Binding)

		isBuffer := entry.Buffer.Type != wgpu.BufferBindingTypeUndefined
		isSampler := entry.Sampler.Type != wgpu.SamplerBindingTypeUndefined

		switch {
		case !isBuffer && !isSampler:
			tv := provider.TextureView(binding)
			if tv == nil {
				return fmt.Errorf("%w: %s texture binding %d", ErrBindingMissing, provider.Label(), binding)
			}
			entries[i] = wgpu.BindGroupEntry{Binding: entry.Binding, TextureView: tv}
		case isSampler:
			samp := provider.Sampler(binding)
			if samp == nil {
				return fmt.Errorf("%w: %s sampler binding %d", ErrBindingMissing, provider.Label(), binding)
			}
			entries[i] = wgpu.BindGroupEntry{Binding: entry.Binding, Sampler: samp}
		default:
			buf := provider.Buffer(binding)
			if buf == nil {
				return fmt.Errorf("%w: %s buffer binding %d", ErrBindingMissing, provider.Label(), binding)
			}
			entries[i] = wgpu.BindGroupEntry{
				Binding: entry.Binding,
				Buffer:  buf,
				Offset:  0,
				Size:    wgpu.WholeSize,
			}
		}
	}

	bindGroup, err := b.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   provider.Label() + " Bind Group",
		Layout:  layout,
		Entries: entries,
	})
	if err != nil {
		return err
	}
	provider.SetBindGroup(bindGroup)
	return nil
}

// layoutFor returns the provider's bind group layout, creating it from descriptor on first use.
// The caller holds b.mu.
func (b *wgpuRendererBackendImpl) layoutFor(provider bind_group_provider.BindGroupProvider, descriptor wgpu.BindGroupLayoutDescriptor) (*wgpu.BindGroupLayout, error) {
	if layout := provider.BindGroupLayout(); layout != nil {
		return layout, nil
	}
	descriptor.Label = provider.Label() + " Bind Group Layout"
	layout, err := b.device.CreateBindGroupLayout(&descriptor)
	if err != nil {
		return nil, err
	}
	provider.SetBindGroupLayout(layout)
	return layout, nil
}

// pipelineLayout creates a pipeline layout whose group 0 is the provider's shared layout.
// The caller holds b.mu.
func (b *wgpuRendererBackendImpl) pipelineLayout(label string, provider bind_group_provider.BindGroupProvider, descriptors map[int]wgpu.BindGroupLayoutDescriptor) (*wgpu.PipelineLayout, error) {
	groups := make([]int, 0, len(descriptors))
	for g := range descriptors {
		groups = append(groups, g)
	}
	sort.Ints(groups)

	maxGroup := -1
	if len(groups) > 0 {
		maxGroup = groups[len(groups)-1]
	}
	bindGroupLayouts := make([]*wgpu.BindGroupLayout, maxGroup+1)
	for _, g := range groups {
		if g == 0 {
			layout, err := b.layoutFor(provider, descriptors[g])
			if err != nil {
				return nil, fmt.Errorf("failed to create bind group layout for group %d: %w", g, err)
			}
			bindGroupLayouts[g] = layout
			continue
		}
		desc := descriptors[g]
		layout, err := b.device.CreateBindGroupLayout(&desc)
		if err != nil {
			return nil, fmt.Errorf("failed to create bind group layout for group %d: %w", g, err)
		}
		bindGroupLayouts[g] = layout
	}

	return b.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            label,
		BindGroupLayouts: bindGroupLayouts,
	})
}

func (b *wgpuRendererBackendImpl) RegisterComputePipeline(p pipeline.Pipeline) error {
	s := p.Shader()
	if s == nil {
		return fmt.Errorf("renderer: pipeline %s has no shader", p.PipelineKey())
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	module, err := b.device.CreateShaderModule(s.Module())
	if err != nil {
		return err
	}
	defer module.Release()

	layout, err := b.pipelineLayout(p.PipelineKey(), b.tracer, s.BindGroupLayoutDescriptors())
	if err != nil {
		return err
	}
	defer layout.Release()

	created, err := b.device.CreateComputePipeline(&wgpu.ComputePipelineDescriptor{
		Label:  p.PipelineKey() + " Compute Pipeline",
		Layout: layout,
		Compute: wgpu.ProgrammableStageDescriptor{
			Module:     module,
			EntryPoint: p.EntryPoint(),
		},
	})
	if err != nil {
		return err
	}

	p.SetComputePipeline(created)
	return nil
}

func (b *wgpuRendererBackendImpl) RegisterRenderPipeline(p pipeline.Pipeline) error {
	s := p.Shader()
	if s == nil {
		return fmt.Errorf("renderer: pipeline %s has no shader", p.PipelineKey())
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.surfaceFormat == nil {
		return ErrNoSurface
	}

	module, err := b.device.CreateShaderModule(s.Module())
	if err != nil {
		return err
	}
	defer module.Release()

	layout, err := b.pipelineLayout(p.PipelineKey(), b.blit, s.BindGroupLayoutDescriptors())
	if err != nil {
		return err
	}
	defer layout.Release()

	var vertexEntry, fragmentEntry string
	for _, ep := range s.EntryPoints() {
		switch ep.Stage {
		case wgpu.ShaderStageVertex:
			vertexEntry = ep.Name
		case wgpu.ShaderStageFragment:
			fragmentEntry = ep.Name
		}
	}

	created, err := b.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  p.PipelineKey() + " Render Pipeline",
		Layout: layout,
		Vertex: wgpu.VertexState{
			Module:     module,
			EntryPoint: vertexEntry,
		},
		Fragment: &wgpu.FragmentState{
			Module:     module,
			EntryPoint: fragmentEntry,
			Targets: []wgpu.ColorTargetState{
				{
					Format:    *b.surfaceFormat,
					Blend:     p.BlendState(),
					WriteMask: p.WriteMask(),
				},
			},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  p.Topology(),
			FrontFace: p.FrontFace(),
			CullMode:  p.CullMode(),
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return err
	}

	p.SetRenderPipeline(created)
	return nil
}

func (b *wgpuRendererBackendImpl) BeginComputeFrame() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	encoder, err := b.device.CreateCommandEncoder(nil)
	if err != nil {
		return err
	}
	b.computeFrameEncoder = encoder
	return nil
}

func (b *wgpuRendererBackendImpl) DispatchCompute(p pipeline.Pipeline, workgroups [3]uint32) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.computeFrameEncoder == nil {
		return ErrNoComputeFrame
	}
	computePipeline, ok := p.Pipeline().(*wgpu.ComputePipeline)
	if !ok || computePipeline == nil {
		return fmt.Errorf("renderer: pipeline %s is not a compiled compute pipeline", p.PipelineKey())
	}
	bindGroup := b.tracer.BindGroup()
	if bindGroup == nil {
		return fmt.Errorf("%w: %s bind group", ErrBindingMissing, b.tracer.Label())
	}

	pass := b.computeFrameEncoder.BeginComputePass(nil)
	defer pass.Release()
	pass.SetPipeline(computePipeline)
	pass.SetBindGroup(0, bindGroup, nil)
	pass.DispatchWorkgroups(workgroups[0], workgroups[1], workgroups[2])
	pass.End()
	return nil
}

func (b *wgpuRendererBackendImpl) EndComputeFrame() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.computeFrameEncoder == nil {
		return ErrNoComputeFrame
	}
	encoder := b.computeFrameEncoder
	b.computeFrameEncoder = nil
	defer encoder.Release()

	commandBuffer, err := encoder.Finish(nil)
	if err != nil {
		return err
	}
	defer commandBuffer.Release()

	b.queue.Submit(commandBuffer)
	return nil
}

func (b *wgpuRendererBackendImpl) Present(blit pipeline.Pipeline) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.surface == nil {
		return ErrNoSurface
	}
	renderPipeline, ok := blit.Pipeline().(*wgpu.RenderPipeline)
	if !ok || renderPipeline == nil {
		return fmt.Errorf("renderer: pipeline %s is not a compiled render pipeline", blit.PipelineKey())
	}
	if err := b.initBindGroup(b.blit, blit.Shader().BindGroupLayoutDescriptor(0)); err != nil {
		return err
	}

	surfaceTexture, err := b.surface.GetCurrentTexture()
	if err != nil {
		return err
	}
	defer surfaceTexture.Release()

	view, err := surfaceTexture.CreateView(nil)
	if err != nil {
		return err
	}
	defer view.Release()

	encoder, err := b.device.CreateCommandEncoder(nil)
	if err != nil {
		return err
	}
	defer encoder.Release()

	pass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{
			{
				View:       view,
				LoadOp:     wgpu.LoadOpClear,
				StoreOp:    wgpu.StoreOpStore,
				ClearValue: wgpu.Color{R: 0, G: 0, B: 0, A: 1},
			},
		},
	})
	defer pass.Release()
	pass.SetPipeline(renderPipeline)
	pass.SetBindGroup(0, b.blit.BindGroup(), nil)
	pass.Draw(3, 1, 0, 0)
	pass.End()

	commandBuffer, err := encoder.Finish(nil)
	if err != nil {
		return err
	}
	defer commandBuffer.Release()

	b.queue.Submit(commandBuffer)
	b.surface.Present()
	return nil
}

func (b *wgpuRendererBackendImpl) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.computeFrameEncoder != nil {
		b.computeFrameEncoder.Release()
		b.computeFrameEncoder = nil
	}
	b.tracer.Release()
	b.blit.Release()
	if b.outputTexture != nil {
		b.outputTexture.Release()
		b.outputTexture = nil
	}
	if b.queue != nil {
		b.queue.Release()
		b.queue = nil
	}
	if b.device != nil {
		b.device.Release()
		b.device = nil
	}
	if b.adapter != nil {
		b.adapter.Release()
		b.adapter = nil
	}
	if b.surface != nil {
		b.surface.Release()
		b.surface = nil
	}
	if b.instance != nil {
		b.instance.Release()
		b.instance = nil
	}
}
