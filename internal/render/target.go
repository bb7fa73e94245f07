package render

import (
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// Texture-related errors.
var (
	// ErrInvalidDimensions is returned for zero or negative texture sizes.
	ErrInvalidDimensions = errors.New("render: invalid texture dimensions")

	// ErrPixelSizeMismatch is returned when uploaded pixel data does not
	// match the texture dimensions.
	ErrPixelSizeMismatch = errors.New("render: pixel data size does not match texture")
)

// bytesPerPixel is the upload granularity: frames arrive as tightly
// packed 4-byte RGBA rows regardless of the render target format.
const bytesPerPixel = 4

// Target is a color render target: one single-sample texture plus its
// view, used as the render pass color attachment for a frame pass. The
// CopySrc usage feeds the per-frame readback into staging memory.
type Target struct {
	tex    hal.Texture
	view   hal.TextureView
	width  uint32
	height uint32

	// stride is the texel size in bytes: 4 for RGBA8, 8 for RGBA16F.
	stride uint32
}

// NewTarget creates a render target of the given size and color format.
func NewTarget(device hal.Device, width, height uint32, format gputypes.TextureFormat, label string) (*Target, error) {
	if width == 0 || height == 0 {
		return nil, ErrInvalidDimensions
	}
	stride := uint32(bytesPerPixel)
	if format == gputypes.TextureFormatRGBA16Float {
		stride = 8
	}
	tex, err := device.CreateTexture(&hal.TextureDescriptor{
		Label:         label,
		Size:          hal.Extent3D{Width: width, Height: height, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        format,
		Usage:         gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageCopySrc,
	})
	if err != nil {
		return nil, fmt.Errorf("create %s texture: %w", label, err)
	}
	view, err := device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label: label + "_view",
	})
	if err != nil {
		device.DestroyTexture(tex)
		return nil, fmt.Errorf("create %s view: %w", label, err)
	}
	return &Target{tex: tex, view: view, width: width, height: height, stride: stride}, nil
}

// View returns the color attachment view.
func (t *Target) View() hal.TextureView { return t.view }

// Size returns the target dimensions in pixels.
func (t *Target) Size() (width, height uint32) { return t.width, t.height }

// Destroy releases the texture and view. Safe to call multiple times.
func (t *Target) Destroy(device hal.Device) {
	if t.view != nil {
		device.DestroyTextureView(t.view)
		t.view = nil
	}
	if t.tex != nil {
		device.DestroyTexture(t.tex)
		t.tex = nil
	}
}

// InputTexture is the sampled source texture for the frame pass.
// Decoded frames land here: producers that carry raw pixel data have
// them uploaded before the draw, producers that render on-GPU share the
// texture handle directly.
type InputTexture struct {
	tex    hal.Texture
	view   hal.TextureView
	width  uint32
	height uint32
}

// NewInputTexture creates a sampled RGBA8 texture of the given size.
func NewInputTexture(device hal.Device, width, height uint32, label string) (*InputTexture, error) {
	if width == 0 || height == 0 {
		return nil, ErrInvalidDimensions
	}
	tex, err := device.CreateTexture(&hal.TextureDescriptor{
		Label:         label,
		Size:          hal.Extent3D{Width: width, Height: height, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        gputypes.TextureFormatRGBA8Unorm,
		Usage:         gputypes.TextureUsageCopyDst | gputypes.TextureUsageTextureBinding,
	})
	if err != nil {
		return nil, fmt.Errorf("create %s texture: %w", label, err)
	}
	view, err := device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label: label + "_view",
	})
	if err != nil {
		device.DestroyTexture(tex)
		return nil, fmt.Errorf("create %s view: %w", label, err)
	}
	return &InputTexture{tex: tex, view: view, width: width, height: height}, nil
}

// View returns the sampled texture view.
func (t *InputTexture) View() hal.TextureView { return t.view }

// Size returns the texture dimensions in pixels.
func (t *InputTexture) Size() (width, height uint32) { return t.width, t.height }

// Upload writes tightly packed RGBA pixel rows into the texture.
func (t *InputTexture) Upload(queue hal.Queue, pixels []byte) error {
	want := int(t.width) * int(t.height) * bytesPerPixel
	if len(pixels) != want {
		return fmt.Errorf("%w: want %d bytes for %dx%d, got %d",
			ErrPixelSizeMismatch, want, t.width, t.height, len(pixels))
	}
	queue.WriteTexture(
		&hal.ImageCopyTexture{
			Texture:  t.tex,
			MipLevel: 0,
			Origin:   hal.Origin3D{X: 0, Y: 0, Z: 0},
			Aspect:   gputypes.TextureAspectAll,
		},
		pixels,
		&hal.ImageDataLayout{
			Offset:       0,
			BytesPerRow:  t.width * bytesPerPixel,
			RowsPerImage: t.height,
		},
		&hal.Extent3D{Width: t.width, Height: t.height, DepthOrArrayLayers: 1},
	)
	return nil
}

// Destroy releases the texture and view. Safe to call multiple times.
func (t *InputTexture) Destroy(device hal.Device) {
	if t.view != nil {
		device.DestroyTextureView(t.view)
		t.view = nil
	}
	if t.tex != nil {
		device.DestroyTexture(t.tex)
		t.tex = nil
	}
}
