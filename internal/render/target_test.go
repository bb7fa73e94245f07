package render

import (
	"errors"
	"testing"

	"github.com/gogpu/gputypes"
)

func TestNewTarget(t *testing.T) {
	device, _, cleanup := createNoopDevice(t)
	defer cleanup()

	target, err := NewTarget(device, 1920, 1080, gputypes.TextureFormatRGBA8Unorm, "test_target")
	if err != nil {
		t.Fatalf("NewTarget() = %v", err)
	}
	if target.View() == nil {
		t.Error("target has no view")
	}
	w, h := target.Size()
	if w != 1920 || h != 1080 {
		t.Errorf("Size() = %dx%d, want 1920x1080", w, h)
	}

	target.Destroy(device)
	target.Destroy(device) // must be safe to repeat
}

func TestNewTargetRejectsZeroDimensions(t *testing.T) {
	device, _, cleanup := createNoopDevice(t)
	defer cleanup()

	if _, err := NewTarget(device, 0, 1080, gputypes.TextureFormatRGBA8Unorm, "t"); !errors.Is(err, ErrInvalidDimensions) {
		t.Errorf("NewTarget(0, 1080) = %v, want ErrInvalidDimensions", err)
	}
	if _, err := NewInputTexture(device, 1920, 0, "t"); !errors.Is(err, ErrInvalidDimensions) {
		t.Errorf("NewInputTexture(1920, 0) = %v, want ErrInvalidDimensions", err)
	}
}

func TestInputTextureUpload(t *testing.T) {
	device, queue, cleanup := createNoopDevice(t)
	defer cleanup()

	tex, err := NewInputTexture(device, 4, 2, "test_input")
	if err != nil {
		t.Fatalf("NewInputTexture() = %v", err)
	}
	defer tex.Destroy(device)

	if err := tex.Upload(queue, make([]byte, 4*2*4)); err != nil {
		t.Errorf("Upload() with exact size = %v", err)
	}

	if err := tex.Upload(queue, make([]byte, 7)); !errors.Is(err, ErrPixelSizeMismatch) {
		t.Errorf("Upload() with short data = %v, want ErrPixelSizeMismatch", err)
	}
}
