package transcode

// BufferFlags carries per-sample metadata between pipeline stages.
type BufferFlags uint32

const (
	// BufferFlagKeyFrame marks a sample that can be decoded without
	// earlier samples.
	BufferFlagKeyFrame BufferFlags = 1 << iota

	// BufferFlagEndOfStream marks the final sample of a stream. A
	// buffer carrying this flag may have no data.
	BufferFlagEndOfStream
)

// InputBuffer is a sample handed to a codec for processing. The
// pipeline fills Data and stamps TimeUs before queueing.
type InputBuffer struct {
	// Data is the encoded (decoder input) or raw (encoder input)
	// sample payload.
	Data []byte

	// TimeUs is the presentation timestamp in microseconds.
	TimeUs int64

	// Flags marks key frames and end of stream.
	Flags BufferFlags
}

// IsEndOfStream reports whether the buffer carries the end-of-stream flag.
func (b *InputBuffer) IsEndOfStream() bool {
	return b.Flags&BufferFlagEndOfStream != 0
}

// Clear resets the buffer for reuse without releasing its backing storage.
func (b *InputBuffer) Clear() {
	b.Data = b.Data[:0]
	b.TimeUs = 0
	b.Flags = 0
}

// BufferInfo describes a codec output buffer.
type BufferInfo struct {
	// Offset and Size locate the sample within the output buffer.
	Offset int
	Size   int

	// PresentationTimeUs is the sample timestamp in microseconds.
	PresentationTimeUs int64

	// Flags marks key frames and end of stream.
	Flags BufferFlags
}

// IsEndOfStream reports whether the output marks the end of the stream.
func (i *BufferInfo) IsEndOfStream() bool {
	return i.Flags&BufferFlagEndOfStream != 0
}
