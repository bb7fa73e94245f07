package transcode

import (
	"errors"

	"github.com/gogpu/gpucontext"
)

// PipelineConfig configures a VideoPipeline.
type PipelineConfig struct {
	// InputFormat describes the encoded video track to transcode.
	InputFormat *Format

	// Request is the edit to apply while transcoding.
	Request TransformRequest

	// DecoderFactory and EncoderFactory create the codec devices.
	DecoderFactory DecoderFactory
	EncoderFactory EncoderFactory

	// AllowedOutputMimeTypes restricts the encoder's output MIME type
	// when non-empty.
	AllowedOutputMimeTypes []string

	// FallbackListener is notified once with the transform request
	// adjusted to the format the encoder granted. Optional.
	FallbackListener FallbackListener

	// PreviewProvider optionally supplies a debug preview surface.
	PreviewProvider PreviewProvider

	// DeviceProvider optionally shares an external GPU device with the
	// frame transformer. Nil opens a dedicated device.
	DeviceProvider gpucontext.DeviceProvider

	// BatchDraining selects the batch drain strategy: drain the
	// transformer fully each cycle, then every available decoder
	// buffer. Requires decoder output surfaces that block when full
	// instead of dropping frames. When false, at most one frame moves
	// per cycle so a slow transformer never overflows the surface.
	BatchDraining bool
}

// VideoPipeline decodes video samples, transforms the raw frames on
// the GPU, and re-encodes them.
//
// All methods must be called from a single driving goroutine. The only
// concurrent activity is the frame delivery notification feeding the
// transformer's counters.
type VideoPipeline struct {
	decoder     Codec
	transformer *FrameTransformer
	encoder     Codec

	outputRotationDegrees int
	batchDraining         bool

	// Reusable buffer descriptors, never concurrently owned.
	decoderInput  InputBuffer
	encoderOutput InputBuffer

	waitingForTransformerInput bool
	encoderInputEnded          bool
	released                   bool
}

// NewVideoPipeline derives the output geometry, negotiates the encoder
// format, and wires decoder, optional frame transformer, and encoder.
// Errors are configuration errors; a partially constructed pipeline is
// torn down before returning.
func NewVideoPipeline(cfg PipelineConfig) (*VideoPipeline, error) {
	if cfg.InputFormat == nil {
		return nil, newConfigErrorf("input format is required")
	}
	if cfg.DecoderFactory == nil || cfg.EncoderFactory == nil {
		return nil, newConfigErrorf("decoder and encoder factories are required")
	}

	g := deriveGeometry(cfg.InputFormat, &cfg.Request)

	requestedMime := cfg.Request.VideoMimeType
	if requestedMime == "" {
		requestedMime = cfg.InputFormat.MimeType
	}
	requestedFormat := &Format{
		MimeType: requestedMime,
		Width:    g.encoderWidth,
		Height:   g.encoderHeight,
	}

	encoder, err := cfg.EncoderFactory.NewVideoEncoder(requestedFormat, cfg.AllowedOutputMimeTypes)
	if err != nil {
		return nil, asConfigError("create video encoder: %w", err)
	}
	granted := encoder.ConfigurationFormat()
	Logger().Info("video encoder configured",
		"requested", [2]int{requestedFormat.Width, requestedFormat.Height},
		"granted", [2]int{granted.Width, granted.Height},
		"mime", granted.MimeType)

	if cfg.FallbackListener != nil {
		cfg.FallbackListener.OnFallbackApplied(cfg.InputFormat, &cfg.Request,
			fallbackTransformRequest(&cfg.Request, g.swapped, requestedFormat, granted))
	}

	p := &VideoPipeline{
		encoder:               encoder,
		outputRotationDegrees: g.outputRotationDegrees,
		batchDraining:         cfg.BatchDraining,
	}

	decodedWidth, decodedHeight := cfg.InputFormat.Width, cfg.InputFormat.Height
	if cfg.InputFormat.RotationDegrees%180 != 0 {
		decodedWidth, decodedHeight = decodedHeight, decodedWidth
	}

	// The GPU stage is skipped entirely when the decoder can render
	// straight into the encoder's input surface.
	if cfg.Request.EnableHDREditing ||
		granted.Width != decodedWidth ||
		granted.Height != decodedHeight ||
		!g.transform.IsIdentity() {
		p.transformer, err = NewFrameTransformer(TransformerConfig{
			InputWidth:            decodedWidth,
			InputHeight:           decodedHeight,
			OutputWidth:           granted.Width,
			OutputHeight:          granted.Height,
			PixelWidthHeightRatio: cfg.InputFormat.PixelWidthHeightRatio,
			Transform:             g.transform,
			OutputSurface:         encoder.InputSurface(),
			HDREditing:            cfg.Request.EnableHDREditing,
			DeviceProvider:        cfg.DeviceProvider,
			PreviewProvider:       cfg.PreviewProvider,
		})
		if err != nil {
			p.Release()
			return nil, err
		}
	}

	decoderOutput := encoder.InputSurface()
	if p.transformer != nil {
		decoderOutput = p.transformer.InputSurface()
	}
	p.decoder, err = cfg.DecoderFactory.NewVideoDecoder(cfg.InputFormat, decoderOutput)
	if err != nil {
		p.Release()
		return nil, asConfigError("create video decoder: %w", err)
	}
	return p, nil
}

// DequeueInputBuffer returns a writable input buffer, or nil when the
// decoder has no capacity. The returned buffer stays owned by the
// pipeline and must be queued with QueueInputBuffer before the next
// dequeue.
func (p *VideoPipeline) DequeueInputBuffer() (*InputBuffer, error) {
	ok, err := p.decoder.DequeueInputBuffer(&p.decoderInput)
	if err != nil {
		return nil, newDeviceError("decoder", err)
	}
	if !ok {
		return nil, nil
	}
	return &p.decoderInput, nil
}

// QueueInputBuffer submits the buffer filled after DequeueInputBuffer.
func (p *VideoPipeline) QueueInputBuffer() error {
	if err := p.decoder.QueueInputBuffer(&p.decoderInput); err != nil {
		return newDeviceError("decoder", err)
	}
	return nil
}

// ProcessData moves frames through the pipeline for one cycle and
// reports whether more work can be done immediately.
func (p *VideoPipeline) ProcessData() (bool, error) {
	if p.hasProcessedAllInput() {
		// Upstream can finish draining on a cycle that rendered a frame,
		// so the end of stream may still need to reach the encoder here.
		return false, p.signalEndOfInputStream()
	}
	if p.batchDraining {
		return p.processDataBatch()
	}
	return p.processDataSingle()
}

// processDataBatch drains the transformer fully, then every decoder
// output buffer currently available. The transformer's output surface
// blocks when full, so nothing is dropped and the queue stays bounded.
func (p *VideoPipeline) processDataBatch() (bool, error) {
	if p.transformer != nil {
		for p.transformer.CanProcess() {
			if err := p.transformer.Process(); err != nil {
				return false, err
			}
		}
	}

	for {
		info, err := p.decoder.OutputBufferInfo()
		if err != nil {
			return false, newDeviceError("decoder", err)
		}
		if info == nil {
			break
		}
		if p.transformer != nil {
			p.transformer.RegisterInputFrame()
		}
		if err := p.decoder.ReleaseOutputBuffer(true); err != nil {
			return false, newDeviceError("decoder", err)
		}
	}
	if p.decoder.IsEnded() {
		if err := p.signalEndOfInputStream(); err != nil {
			return false, err
		}
	}

	return p.transformer != nil && p.transformer.CanProcess(), nil
}

// processDataSingle moves at most one frame per cycle. After releasing
// a decoder buffer for render it waits for the transformer to receive
// the frame before draining another, keeping exactly one frame in
// flight so a full output surface never forces a drop.
func (p *VideoPipeline) processDataSingle() (bool, error) {
	if p.transformer != nil {
		if p.transformer.CanProcess() {
			p.waitingForTransformerInput = false
			if err := p.transformer.Process(); err != nil {
				return false, err
			}
			return true, nil
		}
		if p.waitingForTransformerInput {
			return false, nil
		}
	}

	info, err := p.decoder.OutputBufferInfo()
	if err != nil {
		return false, newDeviceError("decoder", err)
	}
	decoderHasOutput := info != nil
	if decoderHasOutput {
		if p.transformer != nil {
			p.transformer.RegisterInputFrame()
			p.waitingForTransformerInput = true
		}
		if err := p.decoder.ReleaseOutputBuffer(true); err != nil {
			return false, newDeviceError("decoder", err)
		}
	}
	if p.decoder.IsEnded() {
		if err := p.signalEndOfInputStream(); err != nil {
			return false, err
		}
		return false, nil
	}
	return decoderHasOutput && !p.waitingForTransformerInput, nil
}

// OutputFormat returns the encoder's output format with the rotation
// tag decided at construction, or nil while no format is available.
func (p *VideoPipeline) OutputFormat() (*Format, error) {
	format, err := p.encoder.OutputFormat()
	if err != nil {
		return nil, newDeviceError("encoder", err)
	}
	if format == nil {
		return nil, nil
	}
	return format.WithRotation(p.outputRotationDegrees), nil
}

// OutputBuffer returns the next encoded sample, or nil when no output
// is pending. The returned buffer stays owned by the pipeline and is
// valid until ReleaseOutputBuffer.
func (p *VideoPipeline) OutputBuffer() (*InputBuffer, error) {
	data, err := p.encoder.OutputBuffer()
	if err != nil {
		return nil, newDeviceError("encoder", err)
	}
	if data == nil {
		return nil, nil
	}
	info, err := p.encoder.OutputBufferInfo()
	if err != nil {
		return nil, newDeviceError("encoder", err)
	}
	if info == nil {
		// The Codec contract makes buffer and info presence simultaneous,
		// but codecs are externally supplied, so a violation surfaces as
		// a device failure instead of a panic.
		return nil, newDeviceError("encoder", errors.New("output buffer without buffer info"))
	}
	p.encoderOutput.Data = data
	p.encoderOutput.TimeUs = info.PresentationTimeUs
	p.encoderOutput.Flags = info.Flags
	return &p.encoderOutput, nil
}

// ReleaseOutputBuffer returns the current output buffer to the encoder.
func (p *VideoPipeline) ReleaseOutputBuffer() error {
	if err := p.encoder.ReleaseOutputBuffer(false); err != nil {
		return newDeviceError("encoder", err)
	}
	return nil
}

// IsEnded reports whether the encoder has produced its final sample.
func (p *VideoPipeline) IsEnded() bool {
	return p.encoder.IsEnded()
}

// Release tears down transformer, decoder, and encoder, in that order.
// Safe to call multiple times and on a partially constructed pipeline.
func (p *VideoPipeline) Release() {
	if p.released {
		return
	}
	p.released = true
	if p.transformer != nil {
		p.transformer.Release()
	}
	if p.decoder != nil {
		p.decoder.Release()
	}
	if p.encoder != nil {
		p.encoder.Release()
	}
}

// hasProcessedAllInput reports whether every upstream stage has fully
// ended.
func (p *VideoPipeline) hasProcessedAllInput() bool {
	return p.decoder.IsEnded() && (p.transformer == nil || p.transformer.IsEnded())
}

// signalEndOfInputStream propagates end of stream downstream: latch
// the transformer first, then signal the encoder once the transformer
// (or, absent one, the decoder) has fully ended. Signaling the encoder
// early would truncate output, so this happens at most once and only
// after upstream drained.
func (p *VideoPipeline) signalEndOfInputStream() error {
	if p.transformer != nil {
		p.transformer.SignalEndOfInputStream()
	}
	if p.transformer == nil || p.transformer.IsEnded() {
		if p.encoderInputEnded {
			return nil
		}
		p.encoderInputEnded = true
		if err := p.encoder.SignalEndOfInputStream(); err != nil {
			return newDeviceError("encoder", err)
		}
		Logger().Debug("encoder end of input stream signaled")
	}
	return nil
}

// asConfigError wraps err as a configuration error unless it already
// carries a category.
func asConfigError(format string, err error) error {
	if errors.Is(err, ErrConfiguration) || errors.Is(err, ErrDevice) {
		return err
	}
	return newConfigErrorf(format, err)
}
