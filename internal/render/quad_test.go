package render

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/gogpu/gputypes"
)

func TestNewQuadPipeline(t *testing.T) {
	device, queue, cleanup := createNoopDevice(t)
	defer cleanup()

	p, err := NewQuadPipeline(device, queue, gputypes.TextureFormatRGBA8Unorm)
	if err != nil {
		t.Fatalf("NewQuadPipeline() = %v", err)
	}
	p.Destroy()
	p.Destroy() // must be safe to repeat
}

func TestQuadPipelineDraw(t *testing.T) {
	device, queue, cleanup := createNoopDevice(t)
	defer cleanup()

	p, err := NewQuadPipeline(device, queue, gputypes.TextureFormatRGBA8Unorm)
	if err != nil {
		t.Fatalf("NewQuadPipeline() = %v", err)
	}
	defer p.Destroy()

	target, err := NewTarget(device, 64, 64, gputypes.TextureFormatRGBA8Unorm, "draw_target")
	if err != nil {
		t.Fatalf("NewTarget() = %v", err)
	}
	defer target.Destroy(device)

	src, err := NewInputTexture(device, 64, 64, "draw_input")
	if err != nil {
		t.Fatalf("NewInputTexture() = %v", err)
	}
	defer src.Destroy(device)

	identity := [6]float64{1, 0, 0, 0, 1, 0}
	pixels, err := p.Draw(target, src, MakeFrameUniform(identity, identity))
	if err != nil {
		t.Fatalf("Draw() = %v", err)
	}
	// The rendered image comes back as tight 4-byte RGBA rows.
	if got, want := len(pixels), 64*64*4; got != want {
		t.Errorf("len(pixels) = %d, want %d", got, want)
	}

	// A target narrower than the copy pitch alignment still yields
	// tight rows: the per-row padding is stripped.
	small, err := NewTarget(device, 4, 4, gputypes.TextureFormatRGBA8Unorm, "small_target")
	if err != nil {
		t.Fatalf("NewTarget() = %v", err)
	}
	defer small.Destroy(device)
	pixels, err = p.Draw(small, src, MakeFrameUniform(identity, identity))
	if err != nil {
		t.Fatalf("Draw() = %v", err)
	}
	if got, want := len(pixels), 4*4*4; got != want {
		t.Errorf("len(pixels) = %d, want %d", got, want)
	}
}

func TestQuadPipelineDrawReadsBackHDRTarget(t *testing.T) {
	device, queue, cleanup := createNoopDevice(t)
	defer cleanup()

	p, err := NewQuadPipeline(device, queue, gputypes.TextureFormatRGBA16Float)
	if err != nil {
		t.Fatalf("NewQuadPipeline() = %v", err)
	}
	defer p.Destroy()

	target, err := NewTarget(device, 32, 32, gputypes.TextureFormatRGBA16Float, "hdr_target")
	if err != nil {
		t.Fatalf("NewTarget() = %v", err)
	}
	defer target.Destroy(device)

	src, err := NewInputTexture(device, 32, 32, "hdr_input")
	if err != nil {
		t.Fatalf("NewInputTexture() = %v", err)
	}
	defer src.Destroy(device)

	identity := [6]float64{1, 0, 0, 0, 1, 0}
	pixels, err := p.Draw(target, src, MakeFrameUniform(identity, identity))
	if err != nil {
		t.Fatalf("Draw() = %v", err)
	}
	// RGBA16F texels are 8 bytes.
	if got, want := len(pixels), 32*32*8; got != want {
		t.Errorf("len(pixels) = %d, want %d", got, want)
	}
}

func TestQuadPipelineDrawRejectsBadUniform(t *testing.T) {
	device, queue, cleanup := createNoopDevice(t)
	defer cleanup()

	p, err := NewQuadPipeline(device, queue, gputypes.TextureFormatRGBA8Unorm)
	if err != nil {
		t.Fatalf("NewQuadPipeline() = %v", err)
	}
	defer p.Destroy()

	if _, err := p.Draw(nil, nil, make([]byte, 16)); err == nil {
		t.Error("Draw() with short uniform succeeded, want error")
	}
}

func TestMakeFrameUniform(t *testing.T) {
	transform := [6]float64{2, 0, 0.5, 0, 3, -1}
	identity := [6]float64{1, 0, 0, 0, 1, 0}
	buf := MakeFrameUniform(transform, identity)
	if len(buf) != QuadUniformSize {
		t.Fatalf("len = %d, want %d", len(buf), QuadUniformSize)
	}

	readFloat := func(off int) float32 {
		return math.Float32frombits(binary.LittleEndian.Uint32(buf[off:]))
	}
	// First matrix, first row: a b 0 c.
	if got := readFloat(0); got != 2 {
		t.Errorf("transform[0][0] = %v, want 2", got)
	}
	if got := readFloat(12); got != 0.5 {
		t.Errorf("transform[0][3] = %v, want 0.5", got)
	}
	// First matrix, second row: d e 0 f.
	if got := readFloat(16 + 4); got != 3 {
		t.Errorf("transform[1][1] = %v, want 3", got)
	}
	if got := readFloat(16 + 12); got != -1 {
		t.Errorf("transform[1][3] = %v, want -1", got)
	}
	// Second matrix starts at byte 64 and is identity.
	if got := readFloat(64); got != 1 {
		t.Errorf("tex_transform[0][0] = %v, want 1", got)
	}
	if got := readFloat(64 + 16 + 4); got != 1 {
		t.Errorf("tex_transform[1][1] = %v, want 1", got)
	}
}

func TestQuadVertexData(t *testing.T) {
	data := quadVertexData()
	if len(data) != quadVertexCount*quadVertexStride {
		t.Fatalf("len = %d, want %d", len(data), quadVertexCount*quadVertexStride)
	}
	// First vertex: position (-1, -1), uv (0, 1).
	readFloat := func(off int) float32 {
		return math.Float32frombits(binary.LittleEndian.Uint32(data[off:]))
	}
	if x, y := readFloat(0), readFloat(4); x != -1 || y != -1 {
		t.Errorf("vertex 0 position = (%v, %v), want (-1, -1)", x, y)
	}
	if u, v := readFloat(8), readFloat(12); u != 0 || v != 1 {
		t.Errorf("vertex 0 uv = (%v, %v), want (0, 1)", u, v)
	}
}
