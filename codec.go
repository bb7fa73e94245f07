package transcode

// Codec is one encoder or decoder instance. It mirrors an asynchronous
// hardware codec: input buffers are dequeued, filled and queued back;
// output is polled and released in order.
//
// All methods except Release must be called from the single goroutine
// driving the pipeline. Errors are device failures: the codec is in an
// unrecoverable state and must be released.
type Codec interface {
	// ConfigurationFormat returns the format the codec was configured
	// with. For encoders this is the granted format, which may differ
	// from the requested one.
	ConfigurationFormat() *Format

	// InputSurface returns the surface the codec consumes frames from,
	// or nil when the codec takes input through buffers only.
	InputSurface() *Surface

	// DequeueInputBuffer fills buf with a writable input buffer. It
	// returns false when the codec has no input buffer available; the
	// caller retries on a later cycle.
	DequeueInputBuffer(buf *InputBuffer) (bool, error)

	// QueueInputBuffer submits the previously dequeued buffer. A
	// buffer flagged end-of-stream must be the final one queued.
	QueueInputBuffer(buf *InputBuffer) error

	// SignalEndOfInputStream declares end of stream on the input
	// surface. Only meaningful for surface-input codecs.
	SignalEndOfInputStream() error

	// OutputFormat returns the current output format, or nil while the
	// codec has not produced one yet.
	OutputFormat() (*Format, error)

	// OutputBuffer returns the current output buffer's data, or nil
	// when no output is pending. The returned slice is valid until
	// ReleaseOutputBuffer.
	OutputBuffer() ([]byte, error)

	// OutputBufferInfo returns metadata for the current output buffer,
	// or nil when no output is pending.
	OutputBufferInfo() (*BufferInfo, error)

	// ReleaseOutputBuffer returns the current output buffer to the
	// codec. When render is true a decoder publishes the frame to its
	// output surface.
	ReleaseOutputBuffer(render bool) error

	// IsEnded reports whether the codec has produced its final output.
	IsEnded() bool

	// Release frees the codec. Idempotent; no other method may be
	// called afterwards.
	Release()
}

// DecoderFactory creates configured decoders.
type DecoderFactory interface {
	// NewVideoDecoder creates a decoder for format that renders
	// decoded frames to outputSurface.
	NewVideoDecoder(format *Format, outputSurface *Surface) (Codec, error)

	// NewAudioDecoder creates a buffer-output decoder for format.
	NewAudioDecoder(format *Format) (Codec, error)
}

// EncoderFactory creates configured encoders.
//
// An encoder may grant a format that differs from the requested one
// (dimensions, MIME type) when hardware cannot satisfy the request
// exactly. Callers read ConfigurationFormat to learn what was granted.
type EncoderFactory interface {
	// NewVideoEncoder creates a video encoder for the requested
	// format, restricted to allowedMimeTypes when non-empty.
	NewVideoEncoder(format *Format, allowedMimeTypes []string) (Codec, error)

	// NewAudioEncoder creates an audio encoder for the requested
	// format, restricted to allowedMimeTypes when non-empty.
	NewAudioEncoder(format *Format, allowedMimeTypes []string) (Codec, error)
}

// FallbackListener is notified when the encoder grants a format that
// forces the transform request to change, e.g. a different output
// height or MIME type than originally requested.
type FallbackListener interface {
	// OnFallbackApplied reports the adjusted request. Called at most
	// once per pipeline, before the first sample is processed.
	OnFallbackApplied(inputFormat *Format, original, fallback *TransformRequest)
}
