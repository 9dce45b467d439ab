package hardware

import (
	"bytes"
	"encoding/binary"
	"errors"
	"log/slog"
	"math"
	"strings"
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"

	"github.com/gogpu/splatview"
)

// fakeObject is a distinguishable device object.
type fakeObject struct {
	noop.Resource
	kind     string
	id       int
	topology gputypes.PrimitiveTopology
}

// fakeDevice records object creation and destruction on top of the noop
// device.
type fakeDevice struct {
	*noop.Device

	shaders   []*hal.ShaderModuleDescriptor
	pipelines []*hal.RenderPipelineDescriptor
	textures  []*hal.TextureDescriptor
	buffers   []*hal.BufferDescriptor
	groups    int
	destroyed map[string]int
	waits     int

	pipelineErr error
	pass        *fakePass
}

func newFakeDevice() *fakeDevice {
	return &fakeDevice{Device: &noop.Device{}, destroyed: map[string]int{}, pass: &fakePass{}}
}

func (d *fakeDevice) CreateShaderModule(desc *hal.ShaderModuleDescriptor) (hal.ShaderModule, error) {
	d.shaders = append(d.shaders, desc)
	return &fakeObject{kind: "shader"}, nil
}

func (d *fakeDevice) DestroyShaderModule(hal.ShaderModule) { d.destroyed["shader"]++ }

func (d *fakeDevice) CreateRenderPipeline(desc *hal.RenderPipelineDescriptor) (hal.RenderPipeline, error) {
	if d.pipelineErr != nil {
		return nil, d.pipelineErr
	}
	d.pipelines = append(d.pipelines, desc)
	return &fakeObject{kind: "pipeline", topology: desc.Primitive.Topology}, nil
}

func (d *fakeDevice) DestroyRenderPipeline(hal.RenderPipeline) { d.destroyed["pipeline"]++ }

func (d *fakeDevice) CreateTexture(desc *hal.TextureDescriptor) (hal.Texture, error) {
	d.textures = append(d.textures, desc)
	return &noop.Texture{}, nil
}

func (d *fakeDevice) DestroyTexture(hal.Texture)         { d.destroyed["texture"]++ }
func (d *fakeDevice) DestroyTextureView(hal.TextureView) { d.destroyed["view"]++ }
func (d *fakeDevice) DestroySampler(hal.Sampler)         { d.destroyed["sampler"]++ }

func (d *fakeDevice) CreateBuffer(desc *hal.BufferDescriptor) (hal.Buffer, error) {
	d.buffers = append(d.buffers, desc)
	return &fakeObject{kind: desc.Label, id: len(d.buffers)}, nil
}

func (d *fakeDevice) DestroyBuffer(hal.Buffer) { d.destroyed["buffer"]++ }

func (d *fakeDevice) CreateBindGroup(*hal.BindGroupDescriptor) (hal.BindGroup, error) {
	g := &fakeObject{kind: "group", id: d.groups}
	d.groups++
	return g, nil
}

func (d *fakeDevice) DestroyBindGroup(hal.BindGroup)             { d.destroyed["group"]++ }
func (d *fakeDevice) DestroyBindGroupLayout(hal.BindGroupLayout) { d.destroyed["bindLayout"]++ }
func (d *fakeDevice) DestroyPipelineLayout(hal.PipelineLayout)   { d.destroyed["pipeLayout"]++ }

func (d *fakeDevice) CreateCommandEncoder(*hal.CommandEncoderDescriptor) (hal.CommandEncoder, error) {
	return &fakeEncoder{CommandEncoder: &noop.CommandEncoder{}, pass: d.pass}, nil
}

func (d *fakeDevice) WaitIdle() error {
	d.waits++
	return nil
}

// fakeEncoder hands out the device's recording pass.
type fakeEncoder struct {
	*noop.CommandEncoder
	pass *fakePass
}

func (e *fakeEncoder) BeginRenderPass(desc *hal.RenderPassDescriptor) hal.RenderPassEncoder {
	e.pass.desc = desc
	return e.pass
}

// recordedDraw is one Draw call with the state bound for it.
type recordedDraw struct {
	topology gputypes.PrimitiveTopology
	group    int
	count    uint32
	first    uint32
}

// fakePass records draws.
type fakePass struct {
	noop.RenderPassEncoder
	desc     *hal.RenderPassDescriptor
	topology gputypes.PrimitiveTopology
	group    int
	draws    []recordedDraw
	ended    int
}

func (p *fakePass) SetPipeline(pipe hal.RenderPipeline) {
	p.topology = pipe.(*fakeObject).topology
}

func (p *fakePass) SetBindGroup(_ uint32, g hal.BindGroup, _ []uint32) {
	p.group = g.(*fakeObject).id
}

func (p *fakePass) Draw(count, _, first, _ uint32) {
	p.draws = append(p.draws, recordedDraw{topology: p.topology, group: p.group, count: count, first: first})
}

func (p *fakePass) End() { p.ended++ }

// fakeQueue keeps buffer writes and counts submissions.
type fakeQueue struct {
	*noop.Queue
	writes        map[hal.Buffer][]byte
	textureWrites [][]byte
	submits       int
	submitErr     error
}

func newFakeQueue() *fakeQueue {
	return &fakeQueue{Queue: &noop.Queue{}, writes: map[hal.Buffer][]byte{}}
}

func (q *fakeQueue) WriteBuffer(buf hal.Buffer, _ uint64, data []byte) error {
	q.writes[buf] = append([]byte(nil), data...)
	return nil
}

func (q *fakeQueue) WriteTexture(_ *hal.ImageCopyTexture, data []byte, _ *hal.ImageDataLayout, _ *hal.Extent3D) error {
	q.textureWrites = append(q.textureWrites, data)
	return nil
}

func (q *fakeQueue) Submit([]hal.CommandBuffer) (uint64, error) {
	if q.submitErr != nil {
		return 0, q.submitErr
	}
	q.submits++
	return uint64(q.submits), nil
}

func newTestHALPipeline(t *testing.T, dev *fakeDevice, queue *fakeQueue, cull bool) *HALPipeline {
	t.Helper()
	p, err := NewHALPipeline(HALConfig{
		Device: dev,
		Queue:  queue,
		Target: &noop.Resource{},
		Width:  64,
		Height: 48,
		Cull:   cull,
	})
	if err != nil {
		msg := err.Error()
		if strings.Contains(msg, "not yet implemented") || strings.Contains(msg, "not supported") {
			t.Skipf("Skipping: naga feature not yet implemented: %v", err)
		}
		t.Fatalf("NewHALPipeline() error = %v", err)
	}
	return p
}

func TestHALPipelineCreate(t *testing.T) {
	dev, queue := newFakeDevice(), newFakeQueue()
	newTestHALPipeline(t, dev, queue, true)

	if len(dev.shaders) != 1 || len(dev.shaders[0].Source.SPIRV) == 0 {
		t.Fatalf("shader modules = %d, want 1 with SPIR-V", len(dev.shaders))
	}
	if len(dev.pipelines) != 2 {
		t.Fatalf("render pipelines = %d, want 2", len(dev.pipelines))
	}
	layout := VertexLayout()
	for _, desc := range dev.pipelines {
		want := PrimitiveState(desc.Primitive.Topology, true)
		if desc.Primitive.CullMode != want.CullMode || desc.Primitive.FrontFace != want.FrontFace {
			t.Errorf("%v primitive = %+v, want %+v", desc.Primitive.Topology, desc.Primitive, want)
		}
		if len(desc.Vertex.Buffers) != 1 || desc.Vertex.Buffers[0].ArrayStride != layout.ArrayStride {
			t.Errorf("%v vertex buffers = %+v, want the splat vertex layout", desc.Primitive.Topology, desc.Vertex.Buffers)
		}
		if desc.Vertex.EntryPoint != VertexEntry || desc.Fragment.EntryPoint != FragmentEntry {
			t.Errorf("entry points = %q %q, want %q %q",
				desc.Vertex.EntryPoint, desc.Fragment.EntryPoint, VertexEntry, FragmentEntry)
		}
		if desc.DepthStencil == nil || desc.DepthStencil.DepthCompare != gputypes.CompareFunctionLess {
			t.Errorf("%v depth state = %+v, want less-than test", desc.Primitive.Topology, desc.DepthStencil)
		}
		if got := desc.Fragment.Targets[0].Format; got != gputypes.TextureFormatRGBA8Unorm {
			t.Errorf("target format = %v, want RGBA8Unorm", got)
		}
	}

	if len(dev.textures) != 2 {
		t.Fatalf("textures = %d, want depth and mask", len(dev.textures))
	}
	if d := dev.textures[0]; d.Format != depthFormat || d.Size.Width != 64 || d.Size.Height != 48 {
		t.Errorf("depth texture = %+v, want %v 64x48", d, depthFormat)
	}
	mask := RadialMask()
	if d := dev.textures[1]; d.Format != mask.TextureFormat() || d.Size.Width != MaskSize {
		t.Errorf("mask texture = %+v, want %v %dx%d", d, mask.TextureFormat(), MaskSize, MaskSize)
	}
	if len(queue.textureWrites) != 1 || string(queue.textureWrites[0]) != string(mask.RGBA()) {
		t.Error("mask texels were not uploaded")
	}
	if dev.groups != 2 {
		t.Errorf("bind groups = %d, want 2", dev.groups)
	}
}

func TestHALPipelineFrame(t *testing.T) {
	dev, queue := newFakeDevice(), newFakeQueue()
	p := newTestHALPipeline(t, dev, queue, false)
	if got := p.MaxPointSize(); got != 1 {
		t.Errorf("MaxPointSize() = %v, want 1", got)
	}

	b := begin(t, p, StylePointsRound, false)
	b.Emit(sized(0.5))
	b.Emit(sized(10))
	b.End(false, nil)

	if err := p.Err(); err != nil {
		t.Fatalf("Err() = %v", err)
	}
	if p.Frames() != 1 || queue.submits != 1 || dev.waits != 1 {
		t.Errorf("frames=%d submits=%d waits=%d, want 1 each", p.Frames(), queue.submits, dev.waits)
	}

	want := []recordedDraw{
		{topology: gputypes.PrimitiveTopologyPointList, group: 0, count: 1, first: 0},
		{topology: gputypes.PrimitiveTopologyTriangleList, group: 1, count: 3, first: 1},
	}
	if len(dev.pass.draws) != len(want) {
		t.Fatalf("draws = %+v, want %+v", dev.pass.draws, want)
	}
	for i := range want {
		if dev.pass.draws[i] != want[i] {
			t.Errorf("draw %d = %+v, want %+v", i, dev.pass.draws[i], want[i])
		}
	}
	if dev.pass.ended != 1 {
		t.Errorf("render pass ended %d times, want 1", dev.pass.ended)
	}
	if att := dev.pass.desc.ColorAttachments[0]; att.LoadOp != gputypes.LoadOpClear {
		t.Errorf("color LoadOp = %v, want clear", att.LoadOp)
	}

	flag := func(buf hal.Buffer) float32 {
		data := queue.writes[buf]
		if len(data) != UniformSize {
			t.Fatalf("uniform write = %d bytes, want %d", len(data), UniformSize)
		}
		return math.Float32frombits(binary.LittleEndian.Uint32(data[22*4:]))
	}
	if flag(p.uniforms[0]) != 0 || flag(p.uniforms[1]) != 1 {
		t.Errorf("textured flags = %v %v, want 0 1", flag(p.uniforms[0]), flag(p.uniforms[1]))
	}

	// Two uniform buffers plus the frame's vertex buffer, which is freed.
	if len(dev.buffers) != 3 {
		t.Fatalf("buffers created = %d, want 3", len(dev.buffers))
	}
	vdesc := dev.buffers[2]
	if vdesc.Size != 4*vertexStride {
		t.Errorf("vertex buffer size = %d, want %d", vdesc.Size, 4*vertexStride)
	}
	if dev.destroyed["buffer"] != 1 {
		t.Errorf("buffers destroyed after frame = %d, want 1", dev.destroyed["buffer"])
	}
}

func TestHALPipelineEmptyFrame(t *testing.T) {
	dev, queue := newFakeDevice(), newFakeQueue()
	p := newTestHALPipeline(t, dev, queue, false)

	b := begin(t, p, StyleQuads, true)
	b.End(false, nil)

	if queue.submits != 1 {
		t.Errorf("submits = %d, want 1 (the clear)", queue.submits)
	}
	if len(dev.pass.draws) != 0 {
		t.Errorf("draws = %d, want 0", len(dev.pass.draws))
	}
	if len(dev.buffers) != 2 {
		t.Errorf("buffers created = %d, want only the uniform buffers", len(dev.buffers))
	}
}

func TestHALPipelineSubmitError(t *testing.T) {
	dev, queue := newFakeDevice(), newFakeQueue()
	p := newTestHALPipeline(t, dev, queue, false)
	queue.submitErr = errors.New("device lost")

	orig := splatview.Logger()
	t.Cleanup(func() { splatview.SetLogger(orig) })
	var logs bytes.Buffer
	splatview.SetLogger(slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelWarn})))

	b := begin(t, p, StyleQuads, false)
	b.Emit(sized(4))
	b.End(false, nil)

	if out := logs.String(); !strings.Contains(out, "level=WARN") ||
		!strings.Contains(out, `msg="hardware: frame submission failed"`) ||
		!strings.Contains(out, "device lost") {
		t.Errorf("log output = %q, want a submission warning carrying the queue error", out)
	}

	if err := p.Err(); !errors.Is(err, queue.submitErr) {
		t.Errorf("Err() = %v, want wrapped device lost", err)
	}
	if p.Frames() != 0 {
		t.Errorf("Frames() = %d, want 0", p.Frames())
	}

	queue.submitErr = nil
	b = begin(t, p, StyleQuads, false)
	b.End(false, nil)
	if p.Err() != nil || p.Frames() != 1 {
		t.Errorf("after recovery Err()=%v Frames()=%d, want nil and 1", p.Err(), p.Frames())
	}
}

func TestHALPipelineDestroy(t *testing.T) {
	dev, queue := newFakeDevice(), newFakeQueue()
	p := newTestHALPipeline(t, dev, queue, false)

	p.Destroy()
	want := map[string]int{
		"shader": 1, "pipeline": 2, "texture": 2, "view": 2, "sampler": 1,
		"group": 2, "buffer": 2, "bindLayout": 1, "pipeLayout": 1,
	}
	for kind, n := range want {
		if dev.destroyed[kind] != n {
			t.Errorf("destroyed %s = %d, want %d", kind, dev.destroyed[kind], n)
		}
	}

	p.Destroy()
	for kind, n := range want {
		if dev.destroyed[kind] != n {
			t.Errorf("second Destroy() changed %s count to %d", kind, dev.destroyed[kind])
		}
	}
}

func TestNewHALPipelineErrors(t *testing.T) {
	dev, queue := newFakeDevice(), newFakeQueue()
	target := &noop.Resource{}

	tests := []struct {
		name string
		cfg  HALConfig
	}{
		{"no device", HALConfig{Queue: queue, Target: target, Width: 1, Height: 1}},
		{"no queue", HALConfig{Device: dev, Target: target, Width: 1, Height: 1}},
		{"no target", HALConfig{Device: dev, Queue: queue, Width: 1, Height: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewHALPipeline(tt.cfg); !errors.Is(err, ErrNoDevice) {
				t.Errorf("NewHALPipeline() error = %v, want ErrNoDevice", err)
			}
		})
	}

	if _, err := NewHALPipeline(HALConfig{Device: dev, Queue: queue, Target: target}); err == nil {
		t.Error("NewHALPipeline() with zero size succeeded")
	}
}

func TestNewHALPipelineCleansUp(t *testing.T) {
	dev, queue := newFakeDevice(), newFakeQueue()
	dev.pipelineErr = errors.New("unsupported topology")

	_, err := NewHALPipeline(HALConfig{Device: dev, Queue: queue, Target: &noop.Resource{}, Width: 8, Height: 8})
	if err == nil {
		t.Fatal("NewHALPipeline() error = nil, want pipeline failure")
	}
	if len(dev.shaders) == 0 {
		t.Skipf("shader did not compile: %v", err)
	}
	if !errors.Is(err, dev.pipelineErr) {
		t.Errorf("NewHALPipeline() error = %v, want wrapped pipeline failure", err)
	}
	if dev.destroyed["shader"] != 1 || dev.destroyed["bindLayout"] != 1 || dev.destroyed["pipeLayout"] != 1 {
		t.Errorf("destroyed = %v, want shader and layouts released", dev.destroyed)
	}
}
