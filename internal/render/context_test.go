package render

import (
	"errors"
	"testing"
)

func TestFromDevice(t *testing.T) {
	device, queue, cleanup := createNoopDevice(t)
	defer cleanup()

	ctx := FromDevice(device, queue)
	if ctx.Device() != device {
		t.Error("Device() did not return the borrowed device")
	}
	if ctx.Queue() != queue {
		t.Error("Queue() did not return the borrowed queue")
	}

	// Close on a borrowed context must leave the handles alive: the
	// deferred cleanup destroys them afterwards without a double free.
	ctx.Close()
	ctx.Close()
}

type fakeHalProvider struct {
	device any
	queue  any
}

func (p *fakeHalProvider) HalDevice() any { return p.device }
func (p *fakeHalProvider) HalQueue() any  { return p.queue }

func TestFromProvider(t *testing.T) {
	device, queue, cleanup := createNoopDevice(t)
	defer cleanup()

	ctx, err := FromProvider(&fakeHalProvider{device: device, queue: queue})
	if err != nil {
		t.Fatalf("FromProvider() = %v", err)
	}
	defer ctx.Close()
	if ctx.Device() != device || ctx.Queue() != queue {
		t.Error("FromProvider did not extract the HAL handles")
	}
}

func TestFromProviderRejectsBadProvider(t *testing.T) {
	tests := []struct {
		name     string
		provider any
	}{
		{"no accessor methods", struct{}{}},
		{"nil handles", &fakeHalProvider{}},
		{"wrong handle types", &fakeHalProvider{device: 42, queue: "queue"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromProvider(tt.provider)
			if !errors.Is(err, ErrBadProvider) {
				t.Errorf("FromProvider() = %v, want ErrBadProvider", err)
			}
		})
	}
}
