package transcode

// Common MIME types for codec selection.
const (
	MimeTypeVideoH264 = "video/avc"
	MimeTypeVideoH265 = "video/hevc"
	MimeTypeVideoVP9  = "video/x-vnd.on2.vp9"
	MimeTypeVideoAV1  = "video/av01"
	MimeTypeVideoRaw  = "video/raw"
	MimeTypeAudioAAC  = "audio/mp4a-latm"
	MimeTypeAudioOpus = "audio/opus"
	MimeTypeAudioRaw  = "audio/raw"
)

// ColorTransfer identifies the transfer characteristics of a video
// stream. Streams using an HDR transfer function are edited in
// extended-precision color.
type ColorTransfer int

const (
	// ColorTransferSDR is a standard dynamic range transfer function.
	ColorTransferSDR ColorTransfer = iota

	// ColorTransferHLG is the hybrid log-gamma HDR transfer function.
	ColorTransferHLG

	// ColorTransferST2084 is the PQ (SMPTE ST 2084) HDR transfer function.
	ColorTransferST2084
)

// Format describes a single media stream: the decoded stream entering
// the pipeline, the format requested from the encoder, or the format
// the encoder actually granted.
//
// The zero value of optional fields means unset: a zero
// PixelWidthHeightRatio reads as 1 (square pixels) and a zero FrameRate
// or AverageBitrate leaves the codec default in place.
type Format struct {
	// MimeType is the sample MIME type, e.g. "video/avc".
	MimeType string

	// Width and Height are the frame dimensions in pixels, before any
	// rotation is applied.
	Width  int
	Height int

	// RotationDegrees is the clockwise rotation that must be applied
	// for the frame to be displayed upright. One of 0, 90, 180, 270.
	RotationDegrees int

	// PixelWidthHeightRatio is the width of a pixel divided by its
	// height. Zero means unset and reads as 1.
	PixelWidthHeightRatio float64

	// ColorTransfer selects SDR or an HDR transfer function.
	ColorTransfer ColorTransfer

	// FrameRate in frames per second. Zero means unset.
	FrameRate float64

	// AverageBitrate in bits per second. Zero means unset.
	AverageBitrate int
}

// PixelAspectRatio returns the pixel width/height ratio, reading the
// unset zero value as 1.
func (f *Format) PixelAspectRatio() float64 {
	if f.PixelWidthHeightRatio == 0 {
		return 1
	}
	return f.PixelWidthHeightRatio
}

// IsHDR reports whether the stream uses an HDR transfer function.
func (f *Format) IsHDR() bool {
	return f.ColorTransfer == ColorTransferHLG || f.ColorTransfer == ColorTransferST2084
}

// WithRotation returns a copy of the format with the given rotation tag.
func (f *Format) WithRotation(degrees int) *Format {
	c := *f
	c.RotationDegrees = degrees
	return &c
}

// TransformRequest describes the edit to apply while transcoding: an
// affine transformation of the frame and an optional output height
// retarget. The zero value requests a plain transcode.
type TransformRequest struct {
	// Transform is the affine transformation to apply to frames, in
	// normalized device coordinates (the frame spans [-1, 1] on both
	// axes). The zero Matrix reads as identity.
	Transform Matrix

	// OutputHeight requests scaling the output to this height,
	// preserving aspect ratio. Zero means keep the input height.
	OutputHeight int

	// EnableHDREditing requests processing the input as an HDR signal,
	// editing frames in extended-precision color.
	EnableHDREditing bool

	// VideoMimeType requests a specific output video MIME type.
	// Empty means keep the input MIME type.
	VideoMimeType string

	// AudioMimeType requests a specific output audio MIME type.
	// Empty means keep the input MIME type.
	AudioMimeType string
}

// transform returns the requested matrix, reading the zero value as
// identity.
func (r *TransformRequest) transform() Matrix {
	if (r.Transform == Matrix{}) {
		return Identity()
	}
	return r.Transform
}
