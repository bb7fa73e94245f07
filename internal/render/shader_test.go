package render

import "testing"

func TestCompileFrameShader(t *testing.T) {
	if frameShaderSource == "" {
		t.Fatal("frame shader source is empty")
	}
	spirv, err := compileToSPIRV(frameShaderSource)
	if err != nil {
		t.Fatalf("compileToSPIRV() = %v", err)
	}
	if len(spirv) == 0 {
		t.Fatal("compiled shader is empty")
	}
	// SPIR-V modules start with the magic number.
	const spirvMagic = 0x07230203
	if spirv[0] != spirvMagic {
		t.Errorf("spirv[0] = %#x, want %#x", spirv[0], spirvMagic)
	}
}

func TestCompileRejectsInvalidWGSL(t *testing.T) {
	if _, err := compileToSPIRV("fn broken("); err == nil {
		t.Error("compileToSPIRV() on invalid source succeeded, want error")
	}
}
