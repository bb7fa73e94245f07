package transcode

import (
	"testing"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"
)

// noopGPUDevice implements gpucontext.Device over a noop HAL device.
type noopGPUDevice struct{}

func (noopGPUDevice) Poll(wait bool) {}
func (noopGPUDevice) Destroy()       {}

// noopGPUQueue implements gpucontext.Queue.
type noopGPUQueue struct{}

// noopGPUAdapter implements gpucontext.Adapter.
type noopGPUAdapter struct{}

// noopProvider is a gpucontext.DeviceProvider backed by the noop HAL
// backend, exposing its raw handles through the device sharing contract.
type noopProvider struct {
	device hal.Device
	queue  hal.Queue
}

func (p *noopProvider) Device() gpucontext.Device             { return noopGPUDevice{} }
func (p *noopProvider) Queue() gpucontext.Queue               { return noopGPUQueue{} }
func (p *noopProvider) Adapter() gpucontext.Adapter           { return noopGPUAdapter{} }
func (p *noopProvider) AdapterInfo() gpucontext.AdapterInfo   { return gpucontext.AdapterInfo{} }
func (p *noopProvider) SurfaceFormat() gputypes.TextureFormat { return gputypes.TextureFormatRGBA8Unorm }
func (p *noopProvider) HalDevice() any                        { return p.device }
func (p *noopProvider) HalQueue() any                         { return p.queue }

// newNoopProvider opens a noop HAL device and wraps it in a device
// provider for transformer construction in tests.
func newNoopProvider(t *testing.T) *noopProvider {
	t.Helper()
	api := noop.API{}
	instance, err := api.CreateInstance(nil)
	if err != nil {
		t.Fatalf("CreateInstance failed: %v", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	openDev, err := adapters[0].Adapter.Open(0, gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() {
		openDev.Device.Destroy()
		instance.Destroy()
	})
	return &noopProvider{device: openDev.Device, queue: openDev.Queue}
}
