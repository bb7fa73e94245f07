package render

import (
	_ "embed"
	"encoding/binary"
	"fmt"
	"math"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// Embedded frame transform shader source.
//
//go:embed shaders/frame.wgsl
var frameShaderSource string

// quadVertexStride is the byte stride per vertex in the frame pipeline.
// Layout per vertex:
//
//	position  (vec2<f32>) = 8 bytes  (location 0)
//	tex_coord (vec2<f32>) = 8 bytes  (location 1)
//
// Total = 16 bytes per vertex.
const quadVertexStride = 16

// QuadUniformSize is the byte size of the frame uniform buffer.
// Layout: transform (mat4x4<f32>) = 64 bytes +
// tex_transform (mat4x4<f32>) = 64 bytes = 128 bytes.
const QuadUniformSize = 128

// quadVertexCount is two triangles covering the full clip-space quad.
const quadVertexCount = 6

// gpuTimeout bounds every fence wait on frame submission.
const gpuTimeout = 5 * time.Second

// copyPitchAlignment is the BytesPerRow alignment texture-to-buffer
// copies require (WebGPU and DX12 mandate 256).
const copyPitchAlignment = 256

// QuadPipeline renders one full-target textured quad per frame: the
// input texture is sampled through the texture transform and mapped to
// clip space through the geometry transform. Video frames are opaque,
// so the color target carries no blend state.
//
// The pipeline and its static vertex buffer are created once; the
// uniform buffer and bind group are rebuilt per draw because the
// transforms change per frame.
type QuadPipeline struct {
	device hal.Device
	queue  hal.Queue

	shader     hal.ShaderModule
	bindLayout hal.BindGroupLayout
	pipeLayout hal.PipelineLayout
	pipeline   hal.RenderPipeline
	sampler    hal.Sampler
	vertBuf    hal.Buffer
}

// NewQuadPipeline creates the frame render pipeline for the given color
// target format (RGBA8Unorm, or RGBA16Float for extended-range content).
func NewQuadPipeline(device hal.Device, queue hal.Queue, format gputypes.TextureFormat) (*QuadPipeline, error) {
	p := &QuadPipeline{device: device, queue: queue}
	if err := p.create(format); err != nil {
		p.Destroy()
		return nil, err
	}
	return p, nil
}

func (p *QuadPipeline) create(format gputypes.TextureFormat) error {
	shader, err := createShaderModule(p.device, "frame_shader", frameShaderSource)
	if err != nil {
		return err
	}
	p.shader = shader

	// Bind group layout:
	//   Binding 0: FrameUniforms (uniform buffer, vertex)
	//   Binding 1: input frame texture (texture_2d, fragment)
	//   Binding 2: sampler (fragment)
	bindLayout, err := p.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "frame_bind_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: gputypes.ShaderStageVertex,
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
		return fmt.Errorf("create frame bind layout: %w", err)
	}
	p.bindLayout = bindLayout

	pipeLayout, err := p.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "frame_pipe_layout",
		BindGroupLayouts: []hal.BindGroupLayout{p.bindLayout},
	})
	if err != nil {
		return fmt.Errorf("create frame pipeline layout: %w", err)
	}
	p.pipeLayout = pipeLayout

	// Linear filtering for scaling, clamped addressing so edge pixels do
	// not wrap when the texture transform reaches the borders.
	sampler, err := p.device.CreateSampler(&hal.SamplerDescriptor{
		Label:        "frame_sampler",
		AddressModeU: gputypes.AddressModeClampToEdge,
		AddressModeV: gputypes.AddressModeClampToEdge,
		AddressModeW: gputypes.AddressModeClampToEdge,
		MagFilter:    gputypes.FilterModeLinear,
		MinFilter:    gputypes.FilterModeLinear,
		MipmapFilter: gputypes.FilterModeLinear,
	})
	if err != nil {
		return fmt.Errorf("create frame sampler: %w", err)
	}
	p.sampler = sampler

	pipeline, err := p.device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  "frame_pipeline",
		Layout: p.pipeLayout,
		Vertex: hal.VertexState{
			Module:     p.shader,
			EntryPoint: "vs_main",
			Buffers:    quadVertexLayout(),
		},
		Fragment: &hal.FragmentState{
			Module:     p.shader,
			EntryPoint: "fs_main",
			Targets: []gputypes.ColorTargetState{
				{
					Format:    format,
					WriteMask: gputypes.ColorWriteMaskAll,
				},
			},
		},
		Primitive: gputypes.PrimitiveState{
			Topology: gputypes.PrimitiveTopologyTriangleList,
			CullMode: gputypes.CullModeNone,
		},
		Multisample: gputypes.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return fmt.Errorf("create frame pipeline: %w", err)
	}
	p.pipeline = pipeline

	vertBuf, err := p.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "frame_quad_verts",
		Size:  uint64(len(quadVertexData())),
		Usage: gputypes.BufferUsageVertex | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("create frame vertex buffer: %w", err)
	}
	p.queue.WriteBuffer(vertBuf, 0, quadVertexData())
	p.vertBuf = vertBuf

	return nil
}

// Draw renders the source texture into the target through the given
// uniform data (MakeFrameUniform output), blocks until the GPU has
// finished the pass, and returns the rendered image as tightly packed
// pixel rows in the target's texel format.
func (p *QuadPipeline) Draw(target *Target, src *InputTexture, uniform []byte) ([]byte, error) {
	if len(uniform) != QuadUniformSize {
		return nil, fmt.Errorf("render: frame uniform must be %d bytes, got %d", QuadUniformSize, len(uniform))
	}

	uniformBuf, err := p.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "frame_uniform",
		Size:  QuadUniformSize,
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("create frame uniform buffer: %w", err)
	}
	defer p.device.DestroyBuffer(uniformBuf)
	p.queue.WriteBuffer(uniformBuf, 0, uniform)

	bindGroup, err := p.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  "frame_bind",
		Layout: p.bindLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.BufferBinding{
				Buffer: uniformBuf.NativeHandle(), Offset: 0, Size: QuadUniformSize,
			}},
			{Binding: 1, Resource: gputypes.TextureViewBinding{
				TextureView: src.View().NativeHandle(),
			}},
			{Binding: 2, Resource: gputypes.SamplerBinding{
				Sampler: p.sampler.NativeHandle(),
			}},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create frame bind group: %w", err)
	}
	defer p.device.DestroyBindGroup(bindGroup)

	encoder, err := p.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{
		Label: "frame_encoder",
	})
	if err != nil {
		return nil, fmt.Errorf("create frame encoder: %w", err)
	}
	if err := encoder.BeginEncoding("frame_draw"); err != nil {
		return nil, fmt.Errorf("begin encoding: %w", err)
	}

	rp := encoder.BeginRenderPass(&hal.RenderPassDescriptor{
		Label: "frame_pass",
		ColorAttachments: []hal.RenderPassColorAttachment{{
			View:       target.View(),
			LoadOp:     gputypes.LoadOpClear,
			StoreOp:    gputypes.StoreOpStore,
			ClearValue: gputypes.Color{R: 0, G: 0, B: 0, A: 1},
		}},
	})
	rp.SetPipeline(p.pipeline)
	rp.SetBindGroup(0, bindGroup, nil)
	rp.SetVertexBuffer(0, p.vertBuf, 0)
	rp.Draw(quadVertexCount, 1, 0, 0)
	rp.End()

	// After the pass the target is in render-attachment layout; the copy
	// below requires copy-src. A no-op on backends without explicit
	// layouts.
	encoder.TransitionTextures([]hal.TextureBarrier{{
		Texture: target.tex,
		Usage: hal.TextureUsageTransition{
			OldUsage: gputypes.TextureUsageRenderAttachment,
			NewUsage: gputypes.TextureUsageCopySrc,
		},
	}})

	bytesPerRow := target.width * target.stride
	alignedBytesPerRow := (bytesPerRow + copyPitchAlignment - 1) &^ (copyPitchAlignment - 1)
	stagingSize := uint64(alignedBytesPerRow) * uint64(target.height)

	stagingBuf, err := p.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "frame_staging",
		Size:  stagingSize,
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		encoder.DiscardEncoding()
		return nil, fmt.Errorf("create frame staging buffer: %w", err)
	}
	defer p.device.DestroyBuffer(stagingBuf)

	encoder.CopyTextureToBuffer(target.tex, stagingBuf, []hal.BufferTextureCopy{{
		BufferLayout: hal.ImageDataLayout{Offset: 0, BytesPerRow: alignedBytesPerRow, RowsPerImage: target.height},
		TextureBase:  hal.ImageCopyTexture{Texture: target.tex, MipLevel: 0},
		Size:         hal.Extent3D{Width: target.width, Height: target.height, DepthOrArrayLayers: 1},
	}})

	// Back to render-attachment so the next frame's pass starts from the
	// layout it expects.
	encoder.TransitionTextures([]hal.TextureBarrier{{
		Texture: target.tex,
		Usage: hal.TextureUsageTransition{
			OldUsage: gputypes.TextureUsageCopySrc,
			NewUsage: gputypes.TextureUsageRenderAttachment,
		},
	}})

	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return nil, fmt.Errorf("end encoding: %w", err)
	}
	defer p.device.FreeCommandBuffer(cmdBuf)

	fence, err := p.device.CreateFence()
	if err != nil {
		return nil, fmt.Errorf("create fence: %w", err)
	}
	defer p.device.DestroyFence(fence)

	if err := p.queue.Submit([]hal.CommandBuffer{cmdBuf}, fence, 1); err != nil {
		return nil, fmt.Errorf("submit: %w", err)
	}
	fenceOK, err := p.device.Wait(fence, 1, gpuTimeout)
	if err != nil {
		return nil, fmt.Errorf("wait for GPU: %w", err)
	}
	if !fenceOK {
		return nil, fmt.Errorf("wait for GPU: fence not signaled within %v", gpuTimeout)
	}

	readback := make([]byte, stagingSize)
	if err := p.queue.ReadBuffer(stagingBuf, 0, readback); err != nil {
		return nil, fmt.Errorf("read frame staging buffer: %w", err)
	}
	if alignedBytesPerRow == bytesPerRow {
		return readback, nil
	}
	// Strip per-row alignment padding.
	tight := make([]byte, uint64(bytesPerRow)*uint64(target.height))
	for row := uint32(0); row < target.height; row++ {
		copy(tight[row*bytesPerRow:(row+1)*bytesPerRow], readback[row*alignedBytesPerRow:])
	}
	return tight, nil
}

// Destroy releases all pipeline resources in reverse creation order.
// Safe to call multiple times.
func (p *QuadPipeline) Destroy() {
	if p.device == nil {
		return
	}
	if p.vertBuf != nil {
		p.device.DestroyBuffer(p.vertBuf)
		p.vertBuf = nil
	}
	if p.pipeline != nil {
		p.device.DestroyRenderPipeline(p.pipeline)
		p.pipeline = nil
	}
	if p.sampler != nil {
		p.device.DestroySampler(p.sampler)
		p.sampler = nil
	}
	if p.pipeLayout != nil {
		p.device.DestroyPipelineLayout(p.pipeLayout)
		p.pipeLayout = nil
	}
	if p.bindLayout != nil {
		p.device.DestroyBindGroupLayout(p.bindLayout)
		p.bindLayout = nil
	}
	if p.shader != nil {
		p.device.DestroyShaderModule(p.shader)
		p.shader = nil
	}
}

// quadVertexLayout returns the vertex buffer layout for the frame
// pipeline. Matches VertexInput in frame.wgsl:
//
//	location 0: position (vec2<f32>)
//	location 1: tex_coord (vec2<f32>)
func quadVertexLayout() []gputypes.VertexBufferLayout {
	return []gputypes.VertexBufferLayout{
		{
			ArrayStride: quadVertexStride,
			StepMode:    gputypes.VertexStepModeVertex,
			Attributes: []gputypes.VertexAttribute{
				{Format: gputypes.VertexFormatFloat32x2, Offset: 0, ShaderLocation: 0}, // position
				{Format: gputypes.VertexFormatFloat32x2, Offset: 8, ShaderLocation: 1}, // tex_coord
			},
		},
	}
}

// quadVertexData serializes the static full-quad vertices. Clip-space
// positions with texture coordinates oriented so row 0 of the uploaded
// pixels is the top of the frame.
func quadVertexData() []byte {
	verts := [quadVertexCount][4]float32{
		// First triangle: bottom-left, bottom-right, top-right.
		{-1, -1, 0, 1},
		{1, -1, 1, 1},
		{1, 1, 1, 0},
		// Second triangle: top-right, top-left, bottom-left.
		{1, 1, 1, 0},
		{-1, 1, 0, 0},
		{-1, -1, 0, 1},
	}
	data := make([]byte, quadVertexCount*quadVertexStride)
	off := 0
	for _, v := range verts {
		for _, f := range v {
			binary.LittleEndian.PutUint32(data[off:], math.Float32bits(f))
			off += 4
		}
	}
	return data
}

// MakeFrameUniform serializes the 128-byte frame uniform: a 4x4
// expansion of the 2x3 geometry transform followed by a 4x4 expansion
// of the 2x3 texture coordinate transform.
//
// Input affine: a b c / d e f
// Output 4x4:   a b 0 c / d e 0 f / 0 0 1 0 / 0 0 0 1
func MakeFrameUniform(transform, texTransform [6]float64) []byte {
	buf := make([]byte, QuadUniformSize)
	off := 0
	for _, m := range [2][6]float64{transform, texTransform} {
		expanded := [16]float32{
			float32(m[0]), float32(m[1]), 0, float32(m[2]),
			float32(m[3]), float32(m[4]), 0, float32(m[5]),
			0, 0, 1, 0,
			0, 0, 0, 1,
		}
		for _, v := range expanded {
			binary.LittleEndian.PutUint32(buf[off:], math.Float32bits(v))
			off += 4
		}
	}
	return buf
}
