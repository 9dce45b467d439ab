package hardware

import (
	_ "embed"
	"encoding/binary"
	"fmt"
	"math"
	"sync"

	"github.com/gogpu/naga"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/splatview/pixel"
)

//go:embed shaders/splat.wgsl
var splatWGSL string

// Shader entry points.
const (
	VertexEntry   = "vs_main"
	FragmentEntry = "fs_main"
)

// UniformSize is the size of the splat shader's uniform block in bytes.
const UniformSize = (16 + 4 + 4) * 4

// ShaderSource returns the WGSL source of the splat shader.
func ShaderSource() string {
	return splatWGSL
}

var compiled = sync.OnceValues(func() ([]uint32, error) {
	spirv, err := naga.Compile(splatWGSL)
	if err != nil {
		return nil, fmt.Errorf("hardware: compile splat shader: %w", err)
	}
	words := make([]uint32, len(spirv)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(spirv[i*4:])
	}
	return words, nil
})

// CompileShader returns the splat shader as SPIR-V words. The result is
// computed once and shared.
func CompileShader() ([]uint32, error) {
	return compiled()
}

// CreateShaderModule compiles the splat shader and loads it on device.
func CreateShaderModule(device hal.Device) (hal.ShaderModule, error) {
	code, err := CompileShader()
	if err != nil {
		return nil, err
	}
	module, err := device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  "splat_shader",
		Source: hal.ShaderSource{SPIRV: code},
	})
	if err != nil {
		return nil, fmt.Errorf("hardware: create shader module: %w", err)
	}
	return module, nil
}

// Uniforms packs the shader's uniform block for a material. The textured
// flag is set when the material carries a mask.
func Uniforms(m Material) []byte {
	textured := float32(0)
	if m.Mask != nil {
		textured = 1
	}
	vals := make([]float32, 0, UniformSize/4)
	vals = append(vals, m.Transform[:]...)
	vals = append(vals, m.Light[0], m.Light[1], m.Light[2], 0)
	vals = append(vals, pixel.Ambient, pixel.Diffuse, textured, m.AlphaThreshold)

	out := make([]byte, UniformSize)
	for i, v := range vals {
		binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(v))
	}
	return out
}
