package render

import (
	"fmt"

	"github.com/gogpu/naga"
	"github.com/gogpu/wgpu/hal"
)

// compileToSPIRV compiles WGSL source to a SPIR-V word slice.
// SPIR-V is little-endian 32-bit words.
func compileToSPIRV(wgslSource string) ([]uint32, error) {
	spirvBytes, err := naga.Compile(wgslSource)
	if err != nil {
		return nil, fmt.Errorf("compile shader: %w", err)
	}
	spirvCode := make([]uint32, len(spirvBytes)/4)
	for i := range spirvCode {
		spirvCode[i] = uint32(spirvBytes[i*4]) |
			uint32(spirvBytes[i*4+1])<<8 |
			uint32(spirvBytes[i*4+2])<<16 |
			uint32(spirvBytes[i*4+3])<<24
	}
	return spirvCode, nil
}

// createShaderModule compiles WGSL via naga and creates a HAL shader
// module from the resulting SPIR-V.
func createShaderModule(device hal.Device, label, wgslSource string) (hal.ShaderModule, error) {
	spirv, err := compileToSPIRV(wgslSource)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", label, err)
	}
	module, err := device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  label,
		Source: hal.ShaderSource{SPIRV: spirv},
	})
	if err != nil {
		return nil, fmt.Errorf("create %s module: %w", label, err)
	}
	return module, nil
}
