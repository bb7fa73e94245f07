package transcode

import (
	"sync/atomic"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"

	"github.com/gogpu/transcode/internal/render"
)

// PreviewProvider optionally supplies a surface for visually inspecting
// transformed frames without affecting the encode path.
type PreviewProvider interface {
	// PreviewSurface returns the surface to publish preview frames to,
	// sized by the caller's output dimensions, or nil for no preview.
	PreviewSurface(outputWidth, outputHeight int) *Surface
}

// TransformerConfig configures a FrameTransformer.
type TransformerConfig struct {
	// InputWidth and InputHeight are the decoded frame dimensions.
	// Zero means same as the output dimensions.
	InputWidth  int
	InputHeight int

	// OutputWidth and OutputHeight are the encoder frame dimensions.
	OutputWidth  int
	OutputHeight int

	// PixelWidthHeightRatio of the input. Only 1:1 is supported; zero
	// reads as 1.
	PixelWidthHeightRatio float64

	// Transform is the affine transformation applied to every frame,
	// in normalized device coordinates.
	Transform Matrix

	// OutputSurface receives transformed frames, typically the
	// encoder's input surface.
	OutputSurface *Surface

	// HDREditing selects an extended-precision color target.
	HDREditing bool

	// DeviceProvider optionally shares an external GPU device. Nil
	// opens a dedicated device.
	DeviceProvider gpucontext.DeviceProvider

	// PreviewProvider optionally supplies a preview surface.
	PreviewProvider PreviewProvider
}

// FrameTransformer applies an affine transformation to individual video
// frames with a GPU shader pass.
//
// Frames land on the input surface asynchronously relative to when the
// decoder is told to render them, so the transformer tracks two
// counters: pending (registered, not yet delivered) and available
// (delivered, not yet rendered). The delivery notification runs on the
// producer's goroutine and is the only concurrent writer; everything
// else runs on the single goroutine driving the pipeline.
type FrameTransformer struct {
	inputSurface   *Surface
	outputSurface  *Surface
	previewSurface *Surface

	gpu      *render.Context
	quad     *render.QuadPipeline
	inputTex *render.InputTexture
	target   *render.Target
	preview  *render.Target

	transform Matrix

	pending   atomic.Int64
	available atomic.Int64

	inputEnded bool
	released   bool
}

// NewFrameTransformer creates a transformer rendering into
// cfg.OutputSurface. Construction failures are configuration errors:
// the transformer cannot be built and nothing is retried.
func NewFrameTransformer(cfg TransformerConfig) (*FrameTransformer, error) {
	if ratio := cfg.PixelWidthHeightRatio; ratio != 0 && ratio != 1 {
		return nil, newConfigErrorf("unsupported pixel aspect ratio %v: only square pixels are supported", ratio)
	}
	if cfg.OutputSurface == nil {
		return nil, newConfigErrorf("output surface is required")
	}
	if cfg.OutputWidth <= 0 || cfg.OutputHeight <= 0 {
		return nil, newConfigErrorf("invalid output dimensions %dx%d", cfg.OutputWidth, cfg.OutputHeight)
	}
	inputWidth, inputHeight := cfg.InputWidth, cfg.InputHeight
	if inputWidth == 0 && inputHeight == 0 {
		inputWidth, inputHeight = cfg.OutputWidth, cfg.OutputHeight
	}
	if inputWidth <= 0 || inputHeight <= 0 {
		return nil, newConfigErrorf("invalid input dimensions %dx%d", inputWidth, inputHeight)
	}

	var gpu *render.Context
	var err error
	if cfg.DeviceProvider != nil {
		gpu, err = render.FromProvider(cfg.DeviceProvider)
	} else {
		gpu, err = render.Open()
	}
	if err != nil {
		return nil, newConfigError(err)
	}

	t := &FrameTransformer{
		outputSurface: cfg.OutputSurface,
		gpu:           gpu,
		transform:     cfg.Transform,
	}
	if t.transform == (Matrix{}) {
		t.transform = Identity()
	}

	colorFormat := gputypes.TextureFormatRGBA8Unorm
	if cfg.HDREditing {
		colorFormat = gputypes.TextureFormatRGBA16Float
	}

	t.quad, err = render.NewQuadPipeline(gpu.Device(), gpu.Queue(), colorFormat)
	if err != nil {
		t.Release()
		return nil, newConfigError(err)
	}
	t.target, err = render.NewTarget(gpu.Device(),
		uint32(cfg.OutputWidth), uint32(cfg.OutputHeight), colorFormat, "frame_output")
	if err != nil {
		t.Release()
		return nil, newConfigError(err)
	}
	t.inputTex, err = render.NewInputTexture(gpu.Device(),
		uint32(inputWidth), uint32(inputHeight), "frame_input")
	if err != nil {
		t.Release()
		return nil, newConfigError(err)
	}

	if cfg.PreviewProvider != nil {
		if ps := cfg.PreviewProvider.PreviewSurface(cfg.OutputWidth, cfg.OutputHeight); ps != nil {
			t.preview, err = render.NewTarget(gpu.Device(),
				uint32(ps.Width()), uint32(ps.Height()), colorFormat, "frame_preview")
			if err != nil {
				t.Release()
				return nil, newConfigError(err)
			}
			t.previewSurface = ps
		}
	}

	t.inputSurface = NewSurface(inputWidth, inputHeight, 0)
	t.inputSurface.SetOnFrameAvailable(t.onFrameAvailable)

	Logger().Debug("frame transformer created",
		"input", [2]int{inputWidth, inputHeight},
		"output", [2]int{cfg.OutputWidth, cfg.OutputHeight},
		"hdr", cfg.HDREditing,
		"preview", t.preview != nil)
	return t, nil
}

// onFrameAvailable moves one frame from pending to available. Runs on
// the publisher's goroutine; this is the only writer that touches both
// counters.
func (t *FrameTransformer) onFrameAvailable() {
	if t.pending.Add(-1) < 0 {
		panic("transcode: frame delivered without a registered input frame")
	}
	t.available.Add(1)
}

// InputSurface returns the surface decoded frames must be rendered onto.
func (t *FrameTransformer) InputSurface() *Surface {
	return t.inputSurface
}

// RegisterInputFrame informs the transformer that a frame is about to
// be rendered to its input surface. Must be called once per frame.
// Panics if called after SignalEndOfInputStream.
func (t *FrameTransformer) RegisterInputFrame() {
	if t.inputEnded {
		panic("transcode: RegisterInputFrame called after SignalEndOfInputStream")
	}
	t.pending.Add(1)
}

// CanProcess reports whether a delivered frame is waiting to be
// rendered.
func (t *FrameTransformer) CanProcess() bool {
	return t.available.Load() > 0
}

// Process renders one available frame and publishes it to the output
// surface, stamped with the source frame's timestamp and carrying the
// rendered pixel rows (8 bytes per texel under HDR editing, 4
// otherwise). Panics if CanProcess is false. Errors are device
// failures; the transformer must be released.
func (t *FrameTransformer) Process() error {
	if !t.CanProcess() {
		panic("transcode: Process called without CanProcess")
	}
	frame, ok := t.inputSurface.Acquire()
	if !ok {
		panic("transcode: frame counted available but not queued")
	}

	if frame.Pixels != nil {
		if err := t.inputTex.Upload(t.gpu.Queue(), frame.Pixels); err != nil {
			return newDeviceError("frame transformer", err)
		}
	}

	texTransform := frame.TexTransform
	if texTransform == (Matrix{}) {
		texTransform = Identity()
	}
	uniform := render.MakeFrameUniform(t.transform.elements(), texTransform.elements())
	pixels, err := t.quad.Draw(t.target, t.inputTex, uniform)
	if err != nil {
		return newDeviceError("frame transformer", err)
	}
	if err := t.outputSurface.Publish(Frame{TimestampNs: frame.TimestampNs, Pixels: pixels}); err != nil {
		return newDeviceError("frame transformer", err)
	}

	if t.preview != nil {
		previewPixels, err := t.quad.Draw(t.preview, t.inputTex, uniform)
		if err != nil {
			return newDeviceError("frame transformer", err)
		}
		if err := t.previewSurface.Publish(Frame{TimestampNs: frame.TimestampNs, Pixels: previewPixels}); err != nil {
			Logger().Warn("preview surface rejected frame", "err", err)
		}
	}

	t.available.Add(-1)
	return nil
}

// SignalEndOfInputStream informs the transformer that no further input
// frames will be registered.
func (t *FrameTransformer) SignalEndOfInputStream() {
	t.inputEnded = true
}

// IsEnded reports whether end of input was signaled and every
// registered frame has been delivered and rendered.
func (t *FrameTransformer) IsEnded() bool {
	return t.inputEnded && t.pending.Load() == 0 && t.available.Load() == 0
}

// Release destroys all GPU resources and releases the input surface.
// Safe to call multiple times, including on a partially constructed
// transformer.
func (t *FrameTransformer) Release() {
	if t.released {
		return
	}
	t.released = true
	if t.inputSurface != nil {
		t.inputSurface.SetOnFrameAvailable(nil)
		t.inputSurface.Release()
	}
	device := t.gpu.Device()
	if t.inputTex != nil {
		t.inputTex.Destroy(device)
		t.inputTex = nil
	}
	if t.preview != nil {
		t.preview.Destroy(device)
		t.preview = nil
	}
	if t.target != nil {
		t.target.Destroy(device)
		t.target = nil
	}
	if t.quad != nil {
		t.quad.Destroy()
		t.quad = nil
	}
	t.gpu.Close()
}
