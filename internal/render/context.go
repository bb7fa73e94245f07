package render

import (
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// Context-related errors.
var (
	// ErrNoBackend is returned when no usable GPU backend is compiled in.
	ErrNoBackend = errors.New("render: vulkan backend not available")

	// ErrNoAdapters is returned when the instance exposes no GPU adapters.
	ErrNoAdapters = errors.New("render: no GPU adapters found")

	// ErrBadProvider is returned when a device provider does not expose
	// HAL handles.
	ErrBadProvider = errors.New("render: device provider does not expose HAL device and queue")
)

// halProvider is the device-sharing contract: an external GPU owner
// (e.g. a gogpu application via gpucontext) exposes its wgpu/hal
// handles through untyped accessors so that this package does not leak
// into the provider's API surface.
type halProvider interface {
	HalDevice() any
	HalQueue() any
}

// Context owns (or borrows) the GPU device and queue used by the frame
// transformation stage. A Context created by Open owns its instance and
// device and destroys them on Close; a Context created by FromProvider
// or FromDevice borrows the handles and leaves them alive.
//
// The Context must only be used from the single goroutine that drives
// the pipeline. Concurrent GPU submission from two goroutines is
// prevented by construction, not by locking.
type Context struct {
	instance hal.Instance
	device   hal.Device
	queue    hal.Queue
	owned    bool
	closed   bool
}

// Open creates a Context with its own GPU instance and device.
// Adapter preference: discrete GPU, then integrated, then whatever the
// backend exposes first.
func Open() (*Context, error) {
	backend, ok := hal.GetBackend(gputypes.BackendVulkan)
	if !ok {
		return nil, ErrNoBackend
	}
	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return nil, fmt.Errorf("create instance: %w", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, ErrNoAdapters
	}
	var selected *hal.ExposedAdapter
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}
	if selected == nil {
		selected = &adapters[0]
	}
	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return nil, fmt.Errorf("open device: %w", err)
	}
	return &Context{
		instance: instance,
		device:   openDev.Device,
		queue:    openDev.Queue,
		owned:    true,
	}, nil
}

// FromProvider creates a Context borrowing the device and queue of an
// external provider. The provider must implement HalDevice() any and
// HalQueue() any returning wgpu/hal types (the gpucontext device
// sharing contract).
func FromProvider(provider any) (*Context, error) {
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, ErrBadProvider
	}
	device, dok := hp.HalDevice().(hal.Device)
	queue, qok := hp.HalQueue().(hal.Queue)
	if !dok || !qok || device == nil || queue == nil {
		return nil, ErrBadProvider
	}
	return &Context{device: device, queue: queue}, nil
}

// FromDevice creates a Context borrowing an already-open device and
// queue. Used by tests and by callers that manage device lifetime
// themselves.
func FromDevice(device hal.Device, queue hal.Queue) *Context {
	return &Context{device: device, queue: queue}
}

// Device returns the HAL device.
func (c *Context) Device() hal.Device { return c.device }

// Queue returns the HAL queue.
func (c *Context) Queue() hal.Queue { return c.queue }

// Close destroys the device and instance if this Context owns them.
// Safe to call multiple times. Borrowed handles are left untouched.
func (c *Context) Close() {
	if c.closed {
		return
	}
	c.closed = true
	if !c.owned {
		return
	}
	if c.device != nil {
		c.device.Destroy()
		c.device = nil
	}
	if c.instance != nil {
		c.instance.Destroy()
		c.instance = nil
	}
}
