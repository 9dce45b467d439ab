package hardware

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/splatview"
)

// ErrNoDevice is returned by NewHALPipeline when the config lacks a
// device, a queue or a target.
var ErrNoDevice = errors.New("hardware: no device")

var _ Pipeline = (*HALPipeline)(nil)

// depthFormat is the format of the pipeline's own depth attachment.
const depthFormat = gputypes.TextureFormatDepth32Float

// HALConfig describes the device and color target of a HALPipeline.
type HALConfig struct {
	Device hal.Device
	Queue  hal.Queue

	// Target is the color attachment, Width by Height texels.
	Target        hal.TextureView
	Width, Height uint32

	// Format is the target format. The default is RGBA8Unorm.
	Format gputypes.TextureFormat

	// Cull enables back-face culling.
	Cull bool
}

// halDraw is one batch of the frame's vertex buffer.
type halDraw struct {
	topology gputypes.PrimitiveTopology
	textured bool
	first    uint32
	count    uint32
}

// HALPipeline is a Pipeline drawing through a wgpu HAL device. A frame is
// uploaded as one vertex buffer and recorded into one render pass that
// clears the target and depth before drawing.
//
// WebGPU rasterizes point lists one pixel wide, so MaxPointSize is 1 and
// larger points arrive as quads.
//
// HALPipeline is NOT safe for concurrent use.
type HALPipeline struct {
	cfg HALConfig

	shader     hal.ShaderModule
	bindLayout hal.BindGroupLayout
	pipeLayout hal.PipelineLayout
	pipelines  map[gputypes.PrimitiveTopology]hal.RenderPipeline
	depth      hal.Texture
	depthView  hal.TextureView
	mask       hal.Texture
	maskView   hal.TextureView
	sampler    hal.Sampler

	// Indexed by the batch's textured flag.
	uniforms [2]hal.Buffer
	groups   [2]hal.BindGroup

	material Material
	draws    []halDraw
	vertices []byte
	open     bool
	frames   int
	err      error
}

// NewHALPipeline creates the shader, render pipelines, depth buffer and
// radial mask texture on cfg.Device.
func NewHALPipeline(cfg HALConfig) (*HALPipeline, error) {
	if cfg.Device == nil || cfg.Queue == nil || cfg.Target == nil {
		return nil, ErrNoDevice
	}
	if cfg.Width == 0 || cfg.Height == 0 {
		return nil, fmt.Errorf("hardware: invalid target size %dx%d", cfg.Width, cfg.Height)
	}
	if cfg.Format == gputypes.TextureFormatUndefined {
		cfg.Format = gputypes.TextureFormatRGBA8Unorm
	}
	p := &HALPipeline{cfg: cfg, pipelines: make(map[gputypes.PrimitiveTopology]hal.RenderPipeline)}
	if err := p.create(); err != nil {
		p.Destroy()
		return nil, err
	}
	return p, nil
}

func (p *HALPipeline) create() error {
	dev := p.cfg.Device

	shader, err := CreateShaderModule(dev)
	if err != nil {
		return err
	}
	p.shader = shader

	// Binding 0: uniforms, 1: mask texture, 2: mask sampler.
	p.bindLayout, err = dev.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "splat_bind_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: gputypes.ShaderStageVertex | gputypes.ShaderStageFragment,
				Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
			},
			{
				Binding:    1,
				Visibility: gputypes.ShaderStageFragment,
				Texture: &gputypes.TextureBindingLayout{
					SampleType:    gputypes.TextureSampleTypeFloat,
					ViewDimension: gputypes.TextureViewDimension2D,
				},
			},
			{
				Binding:    2,
				Visibility: gputypes.ShaderStageFragment,
				Sampler:    &gputypes.SamplerBindingLayout{Type: gputypes.SamplerBindingTypeFiltering},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("hardware: create bind group layout: %w", err)
	}

	p.pipeLayout, err = dev.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "splat_pipe_layout",
		BindGroupLayouts: []hal.BindGroupLayout{p.bindLayout},
	})
	if err != nil {
		return fmt.Errorf("hardware: create pipeline layout: %w", err)
	}

	for _, topology := range []gputypes.PrimitiveTopology{
		gputypes.PrimitiveTopologyPointList,
		gputypes.PrimitiveTopologyTriangleList,
	} {
		pipe, err := dev.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
			Label:  "splat_pipeline",
			Layout: p.pipeLayout,
			Vertex: hal.VertexState{
				Module:     p.shader,
				EntryPoint: VertexEntry,
				Buffers:    []gputypes.VertexBufferLayout{VertexLayout()},
			},
			Fragment: &hal.FragmentState{
				Module:     p.shader,
				EntryPoint: FragmentEntry,
				Targets: []gputypes.ColorTargetState{{
					Format:    p.cfg.Format,
					WriteMask: gputypes.ColorWriteMaskAll,
				}},
			},
			Primitive: PrimitiveState(topology, p.cfg.Cull),
			DepthStencil: &hal.DepthStencilState{
				Format:            depthFormat,
				DepthWriteEnabled: true,
				DepthCompare:      gputypes.CompareFunctionLess,
			},
			Multisample: gputypes.MultisampleState{Count: 1, Mask: 0xFFFFFFFF},
		})
		if err != nil {
			return fmt.Errorf("hardware: create %v pipeline: %w", topology, err)
		}
		p.pipelines[topology] = pipe
	}

	p.depth, p.depthView, err = p.texture("splat_depth", p.cfg.Width, p.cfg.Height,
		depthFormat, gputypes.TextureUsageRenderAttachment)
	if err != nil {
		return err
	}

	m := RadialMask()
	size := uint32(m.Size) //nolint:gosec // MaskSize is a small constant
	p.mask, p.maskView, err = p.texture("splat_mask", size, size,
		m.TextureFormat(), gputypes.TextureUsageTextureBinding|gputypes.TextureUsageCopyDst)
	if err != nil {
		return err
	}
	err = p.cfg.Queue.WriteTexture(
		&hal.ImageCopyTexture{Texture: p.mask},
		m.RGBA(),
		&hal.ImageDataLayout{BytesPerRow: size * 4, RowsPerImage: size},
		&hal.Extent3D{Width: size, Height: size, DepthOrArrayLayers: 1},
	)
	if err != nil {
		return fmt.Errorf("hardware: upload mask: %w", err)
	}

	p.sampler, err = dev.CreateSampler(&hal.SamplerDescriptor{
		Label:        "splat_mask_sampler",
		AddressModeU: gputypes.AddressModeClampToEdge,
		AddressModeV: gputypes.AddressModeClampToEdge,
		AddressModeW: gputypes.AddressModeClampToEdge,
		MagFilter:    gputypes.FilterModeLinear,
		MinFilter:    gputypes.FilterModeLinear,
		MipmapFilter: gputypes.FilterModeNearest,
	})
	if err != nil {
		return fmt.Errorf("hardware: create sampler: %w", err)
	}

	for i := range p.uniforms {
		buf, err := dev.CreateBuffer(&hal.BufferDescriptor{
			Label: "splat_uniforms",
			Size:  UniformSize,
			Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
		})
		if err != nil {
			return fmt.Errorf("hardware: create uniform buffer: %w", err)
		}
		p.uniforms[i] = buf

		p.groups[i], err = dev.CreateBindGroup(&hal.BindGroupDescriptor{
			Label:  "splat_bind_group",
			Layout: p.bindLayout,
			Entries: []gputypes.BindGroupEntry{
				{Binding: 0, Resource: gputypes.BufferBinding{Buffer: buf.NativeHandle(), Size: UniformSize}},
				{Binding: 1, Resource: gputypes.TextureViewBinding{TextureView: p.maskView.NativeHandle()}},
				{Binding: 2, Resource: gputypes.SamplerBinding{Sampler: p.sampler.NativeHandle()}},
			},
		})
		if err != nil {
			return fmt.Errorf("hardware: create bind group: %w", err)
		}
	}
	return nil
}

// texture creates a 2D texture and a view of it.
func (p *HALPipeline) texture(label string, w, h uint32, format gputypes.TextureFormat,
	usage gputypes.TextureUsage) (hal.Texture, hal.TextureView, error) {
	tex, err := p.cfg.Device.CreateTexture(&hal.TextureDescriptor{
		Label:         label,
		Size:          hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        format,
		Usage:         usage,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("hardware: create %s texture: %w", label, err)
	}
	view, err := p.cfg.Device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label:         label + "_view",
		Format:        format,
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: 1,
	})
	if err != nil {
		p.cfg.Device.DestroyTexture(tex)
		return nil, nil, fmt.Errorf("hardware: create %s view: %w", label, err)
	}
	return tex, view, nil
}

// MaxPointSize implements Pipeline.
func (p *HALPipeline) MaxPointSize() float32 {
	return 1
}

// SetMaterial implements Pipeline. It starts a new frame.
func (p *HALPipeline) SetMaterial(m Material) {
	p.material = m
	p.draws = p.draws[:0]
	p.vertices = p.vertices[:0]
	p.open = false
}

// SetPointSize implements Pipeline. Points are always one pixel.
func (p *HALPipeline) SetPointSize(float32) {}

// Begin implements Pipeline.
func (p *HALPipeline) Begin(topology gputypes.PrimitiveTopology, textured bool) {
	p.draws = append(p.draws, halDraw{
		topology: topology,
		textured: textured,
		first:    uint32(len(p.vertices) / vertexStride), //nolint:gosec // bounded by the vertex buffer
	})
	p.open = true
}

// Vertex implements Pipeline.
func (p *HALPipeline) Vertex(v Vertex) {
	if !p.open {
		return
	}
	p.vertices = appendVertex(p.vertices, v)
	p.draws[len(p.draws)-1].count++
}

// End implements Pipeline.
func (p *HALPipeline) End() {
	p.open = false
}

// Finish implements Pipeline. It submits the frame and waits for the
// device; a failure is logged and kept for Err.
func (p *HALPipeline) Finish() {
	p.err = p.submit()
	if p.err != nil {
		splatview.Logger().Warn("hardware: frame submission failed", "err", p.err)
	} else {
		p.frames++
	}
	p.draws = p.draws[:0]
	p.vertices = p.vertices[:0]
	p.open = false
}

func (p *HALPipeline) submit() error {
	dev, queue := p.cfg.Device, p.cfg.Queue

	plain := p.material
	plain.Mask = nil
	if err := queue.WriteBuffer(p.uniforms[0], 0, Uniforms(plain)); err != nil {
		return fmt.Errorf("hardware: write uniforms: %w", err)
	}
	if err := queue.WriteBuffer(p.uniforms[1], 0, Uniforms(p.material)); err != nil {
		return fmt.Errorf("hardware: write uniforms: %w", err)
	}

	var vbuf hal.Buffer
	if len(p.vertices) > 0 {
		var err error
		vbuf, err = dev.CreateBuffer(&hal.BufferDescriptor{
			Label: "splat_vertices",
			Size:  uint64(len(p.vertices)),
			Usage: gputypes.BufferUsageVertex | gputypes.BufferUsageCopyDst,
		})
		if err != nil {
			return fmt.Errorf("hardware: create vertex buffer: %w", err)
		}
		defer dev.DestroyBuffer(vbuf)
		if err := queue.WriteBuffer(vbuf, 0, p.vertices); err != nil {
			return fmt.Errorf("hardware: write vertices: %w", err)
		}
	}

	encoder, err := dev.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "splat_encoder"})
	if err != nil {
		return fmt.Errorf("hardware: create command encoder: %w", err)
	}
	defer encoder.Destroy()
	if err := encoder.BeginEncoding("splat_frame"); err != nil {
		return fmt.Errorf("hardware: begin encoding: %w", err)
	}

	rp := encoder.BeginRenderPass(&hal.RenderPassDescriptor{
		Label: "splat_pass",
		ColorAttachments: []hal.RenderPassColorAttachment{{
			View:       p.cfg.Target,
			LoadOp:     gputypes.LoadOpClear,
			StoreOp:    gputypes.StoreOpStore,
			ClearValue: gputypes.Color{A: 1},
		}},
		DepthStencilAttachment: &hal.RenderPassDepthStencilAttachment{
			View:            p.depthView,
			DepthLoadOp:     gputypes.LoadOpClear,
			DepthStoreOp:    gputypes.StoreOpDiscard,
			DepthClearValue: 1,
		},
	})
	for _, d := range p.draws {
		if d.count == 0 {
			continue
		}
		group := p.groups[0]
		if d.textured {
			group = p.groups[1]
		}
		rp.SetPipeline(p.pipelines[d.topology])
		rp.SetBindGroup(0, group, nil)
		rp.SetVertexBuffer(0, vbuf, 0)
		rp.Draw(d.count, 1, d.first, 0)
	}
	rp.End()

	cmd, err := encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("hardware: end encoding: %w", err)
	}
	defer dev.FreeCommandBuffer(cmd)

	if _, err := queue.Submit([]hal.CommandBuffer{cmd}); err != nil {
		return fmt.Errorf("hardware: submit: %w", err)
	}
	if err := dev.WaitIdle(); err != nil {
		return fmt.Errorf("hardware: wait: %w", err)
	}
	return nil
}

// Frames returns the number of frames submitted successfully.
func (p *HALPipeline) Frames() int {
	return p.frames
}

// Err returns the error of the last Finish, if any.
func (p *HALPipeline) Err() error {
	return p.err
}

// Destroy releases every device object in reverse creation order. It is
// safe to call more than once.
func (p *HALPipeline) Destroy() {
	dev := p.cfg.Device
	for i := range p.groups {
		if p.groups[i] != nil {
			dev.DestroyBindGroup(p.groups[i])
			p.groups[i] = nil
		}
		if p.uniforms[i] != nil {
			dev.DestroyBuffer(p.uniforms[i])
			p.uniforms[i] = nil
		}
	}
	if p.sampler != nil {
		dev.DestroySampler(p.sampler)
		p.sampler = nil
	}
	for _, view := range []*hal.TextureView{&p.maskView, &p.depthView} {
		if *view != nil {
			dev.DestroyTextureView(*view)
			*view = nil
		}
	}
	for _, tex := range []*hal.Texture{&p.mask, &p.depth} {
		if *tex != nil {
			dev.DestroyTexture(*tex)
			*tex = nil
		}
	}
	for topology, pipe := range p.pipelines {
		dev.DestroyRenderPipeline(pipe)
		delete(p.pipelines, topology)
	}
	if p.pipeLayout != nil {
		dev.DestroyPipelineLayout(p.pipeLayout)
		p.pipeLayout = nil
	}
	if p.bindLayout != nil {
		dev.DestroyBindGroupLayout(p.bindLayout)
		p.bindLayout = nil
	}
	if p.shader != nil {
		dev.DestroyShaderModule(p.shader)
		p.shader = nil
	}
}

// appendVertex appends v in the VertexLayout byte order.
func appendVertex(dst []byte, v Vertex) []byte {
	vals := [vertexStride / 4]float32{
		v.Position[0], v.Position[1], v.Position[2],
		v.Normal[0], v.Normal[1], v.Normal[2],
		v.Color[0], v.Color[1], v.Color[2],
		v.UV[0], v.UV[1],
	}
	for _, f := range vals {
		dst = binary.LittleEndian.AppendUint32(dst, math.Float32bits(f))
	}
	return dst
}
