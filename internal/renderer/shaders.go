package renderer

import (
	"fmt"
	"strings"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"Prism3D/internal/logger"
)

// =============================================================
//
//	Shaders
//
// =============================================================
type Shader struct {
	Name           string
	vertexSource   string
	fragmentSource string
	program        uint32
	isCompiled     bool
	uniforms       *UniformCache
}

func NewShader(name, vertexSource, fragmentSource string) *Shader {
	return &Shader{
		Name:           name,
		vertexSource:   vertexSource,
		fragmentSource: fragmentSource,
	}
}

// Compile builds and links the program. Calling it again is a no-op.
func (shader *Shader) Compile() error {
	if shader.isCompiled {
		return nil
	}
	vertexShader, err := GenShader(shader.vertexSource, gl.VERTEX_SHADER)
	if err != nil {
		return fmt.Errorf("%s: %w", shader.Name, err)
	}
	fragmentShader, err := GenShader(shader.fragmentSource, gl.FRAGMENT_SHADER)
	if err != nil {
		gl.DeleteShader(vertexShader)
		return fmt.Errorf("%s: %w", shader.Name, err)
	}
	program, err := GenShaderProgram(vertexShader, fragmentShader)
	if err != nil {
		return fmt.Errorf("%s: %w", shader.Name, err)
	}
	shader.program = program
	shader.uniforms = NewUniformCache(program)
	shader.isCompiled = true
	logger.Log.Debug("Shader program linked", zap.String("shader", shader.Name), zap.Uint32("program", program))
	return nil
}

func (shader *Shader) IsCompiled() bool {
	return shader.isCompiled
}

func (shader *Shader) Use() {
	gl.UseProgram(shader.program)
}

func (shader *Shader) SetFloat(name string, value float32)   { shader.uniforms.SetFloat(name, value) }
func (shader *Shader) SetInt(name string, value int32)       { shader.uniforms.SetInt(name, value) }
func (shader *Shader) SetBool(name string, value bool)       { shader.uniforms.SetBool(name, value) }
func (shader *Shader) SetVec3(name string, value mgl32.Vec3) { shader.uniforms.SetVec3(name, value) }
func (shader *Shader) SetVec4(name string, value mgl32.Vec4) { shader.uniforms.SetVec4(name, value) }
func (shader *Shader) SetMat4(name string, value mgl32.Mat4) { shader.uniforms.SetMat4(name, value) }

func (shader *Shader) Delete() {
	if !shader.isCompiled {
		return
	}
	gl.DeleteProgram(shader.program)
	shader.program = 0
	shader.isCompiled = false
}

func GenShader(source string, shaderType uint32) (uint32, error) {
	shader := gl.CreateShader(shaderType)
	cSources, free := gl.Strs(source)
	gl.ShaderSource(shader, 1, cSources, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLength)

		log := strings.Repeat("\x00", int(logLength+1))
		gl.GetShaderInfoLog(shader, logLength, nil, gl.Str(log))
		gl.DeleteShader(shader)

		logger.Log.Error("Failed to compile", zap.Uint32("shader type", shaderType), zap.String("log", log))
		return 0, fmt.Errorf("compile shader type %d: %s", shaderType, strings.TrimRight(log, "\x00"))
	}
	return shader, nil
}

func GenShaderProgram(vertexShader, fragmentShader uint32) (uint32, error) {
	program := gl.CreateProgram()
	gl.AttachShader(program, vertexShader)
	gl.AttachShader(program, fragmentShader)
	gl.LinkProgram(program)

	gl.DetachShader(program, vertexShader)
	gl.DeleteShader(vertexShader)
	gl.DetachShader(program, fragmentShader)
	gl.DeleteShader(fragmentShader)

	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLength)

		log := strings.Repeat("\x00", int(logLength+1))
		gl.GetProgramInfoLog(program, logLength, nil, gl.Str(log))
		gl.DeleteProgram(program)

		logger.Log.Error("Failed to link program", zap.String("log", log))
		return 0, fmt.Errorf("link program: %s", strings.TrimRight(log, "\x00"))
	}
	return program, nil
}

// Equirectangular mapping shared by the PBR and prefilter shaders. Row 0 of
// the texture is the zenith.
const equirectChunk = `
const float PI = 3.14159265359;

vec2 dirToEquirect(vec3 d) {
    return vec2(atan(d.z, d.x) / (2.0 * PI) + 0.5, acos(clamp(d.y, -1.0, 1.0)) / PI);
}

vec3 equirectToDir(vec2 uv) {
    float phi = (uv.x - 0.5) * 2.0 * PI;
    float theta = uv.y * PI;
    return vec3(sin(theta) * cos(phi), cos(theta), sin(theta) * sin(phi));
}
`

// Tone mapping and output encoding applied by the pass that writes to the screen.
const outputChunk = `
uniform bool outputTransform;
uniform int toneMapping;
uniform float toneMappingExposure;
uniform int outputColorSpace;

vec3 RRTAndODTFit(vec3 v) {
    vec3 a = v * (v + 0.0245786) - 0.000090537;
    vec3 b = v * (0.983729 * v + 0.4329510) + 0.238081;
    return a / b;
}

vec3 ACESFilmicToneMapping(vec3 color) {
    const mat3 ACESInputMat = mat3(
        vec3(0.59719, 0.07600, 0.02840),
        vec3(0.35458, 0.90834, 0.13383),
        vec3(0.04823, 0.01566, 0.83777));
    const mat3 ACESOutputMat = mat3(
        vec3( 1.60475, -0.10208, -0.00327),
        vec3(-0.53108,  1.10813, -0.07276),
        vec3(-0.07367, -0.00605,  1.07602));
    color *= toneMappingExposure / 0.6;
    color = ACESInputMat * color;
    color = RRTAndODTFit(color);
    color = ACESOutputMat * color;
    return clamp(color, 0.0, 1.0);
}

vec3 linearToSRGB(vec3 c) {
    return mix(c * 12.92, pow(c, vec3(1.0 / 2.4)) * 1.055 - 0.055, step(vec3(0.0031308), c));
}

vec4 linearToOutput(vec4 c) {
    if (!outputTransform) {
        return c;
    }
    vec3 rgb = c.rgb;
    if (toneMapping == 1) {
        rgb = ACESFilmicToneMapping(rgb);
    }
    if (outputColorSpace == 1) {
        rgb = linearToSRGB(max(rgb, vec3(0.0)));
    }
    return vec4(rgb, c.a);
}
`

var pbrVertexShaderSource = `#version 330 core

layout(location = 0) in vec3 inPosition;
layout(location = 1) in vec2 inTexCoord;
layout(location = 2) in vec3 inNormal;

uniform mat4 model;
uniform mat4 viewProjection;

out vec2 fragTexCoord;
out vec3 Normal;
out vec3 FragPos;

void main() {
    vec4 world = model * vec4(inPosition, 1.0);
    FragPos = world.xyz;
    Normal = mat3(transpose(inverse(model))) * inNormal;
    fragTexCoord = inTexCoord;
    gl_Position = viewProjection * world;
}
` + "\x00"

var pbrFragmentShaderSource = `#version 330 core
in vec2 fragTexCoord;
in vec3 Normal;
in vec3 FragPos;

uniform vec3 viewPos;

uniform vec4 baseColorFactor;
uniform float metallicFactor;
uniform float roughnessFactor;
uniform vec3 emissiveFactor;
uniform float occlusionStrength;
uniform float normalScale;
uniform int alphaMode;
uniform float alphaCutoff;

uniform sampler2D baseColorMap;
uniform sampler2D metallicRoughnessMap;
uniform sampler2D normalMap;
uniform sampler2D emissiveMap;
uniform sampler2D occlusionMap;
uniform bool hasBaseColorMap;
uniform bool hasMetallicRoughnessMap;
uniform bool hasNormalMap;
uniform bool hasEmissiveMap;
uniform bool hasOcclusionMap;

uniform sampler2D envMap;
uniform bool hasEnvMap;
uniform float envMaxLod;

out vec4 FragColor;
` + equirectChunk + outputChunk + `
vec3 perturbNormal(vec3 N, vec3 p, vec2 uv) {
    vec3 mapN = texture(normalMap, uv).xyz * 2.0 - 1.0;
    mapN.xy *= normalScale;
    vec3 dp1 = dFdx(p);
    vec3 dp2 = dFdy(p);
    vec2 duv1 = dFdx(uv);
    vec2 duv2 = dFdy(uv);
    vec3 dp2perp = cross(dp2, N);
    vec3 dp1perp = cross(N, dp1);
    vec3 T = dp2perp * duv1.x + dp1perp * duv2.x;
    vec3 B = dp2perp * duv1.y + dp1perp * duv2.y;
    float invmax = inversesqrt(max(max(dot(T, T), dot(B, B)), 1e-12));
    mat3 TBN = mat3(T * invmax, B * invmax, N);
    return normalize(TBN * mapN);
}

vec2 envBRDFApprox(float NoV, float roughness) {
    const vec4 c0 = vec4(-1.0, -0.0275, -0.572, 0.022);
    const vec4 c1 = vec4(1.0, 0.0425, 1.04, -0.04);
    vec4 r = roughness * c0 + c1;
    float a004 = min(r.x * r.x, exp2(-9.28 * NoV)) * r.x + r.y;
    return vec2(-1.04, 1.04) * a004 + r.zw;
}

void main() {
    vec4 baseColor = baseColorFactor;
    if (hasBaseColorMap) {
        baseColor *= texture(baseColorMap, fragTexCoord);
    }
    if (alphaMode == 1 && baseColor.a < alphaCutoff) {
        discard;
    }

    float metallic = metallicFactor;
    float roughness = roughnessFactor;
    if (hasMetallicRoughnessMap) {
        vec4 mr = texture(metallicRoughnessMap, fragTexCoord);
        roughness *= mr.g;
        metallic *= mr.b;
    }
    roughness = clamp(roughness, 0.04, 1.0);
    metallic = clamp(metallic, 0.0, 1.0);

    vec3 N = normalize(Normal);
    if (!gl_FrontFacing) {
        N = -N;
    }
    if (hasNormalMap) {
        N = perturbNormal(N, FragPos, fragTexCoord);
    }
    vec3 V = normalize(viewPos - FragPos);
    float NoV = clamp(dot(N, V), 1e-4, 1.0);

    vec3 F0 = mix(vec3(0.04), baseColor.rgb, metallic);
    vec3 diffuseColor = baseColor.rgb * (1.0 - metallic);

    vec3 color = vec3(0.0);
    if (hasEnvMap) {
        vec3 R = reflect(-V, N);
        vec3 irradiance = textureLod(envMap, dirToEquirect(N), envMaxLod).rgb;
        vec3 radiance = textureLod(envMap, dirToEquirect(R), roughness * envMaxLod).rgb;
        vec2 brdf = envBRDFApprox(NoV, roughness);
        color = diffuseColor * irradiance + radiance * (F0 * brdf.x + brdf.y);
    }

    if (hasOcclusionMap) {
        color *= mix(1.0, texture(occlusionMap, fragTexCoord).r, occlusionStrength);
    }

    vec3 emissive = emissiveFactor;
    if (hasEmissiveMap) {
        emissive *= texture(emissiveMap, fragTexCoord).rgb;
    }
    color += emissive;

    FragColor = linearToOutput(vec4(color, alphaMode == 2 ? baseColor.a : 1.0));
}
` + "\x00"

// Fullscreen triangle generated from gl_VertexID; draw 3 vertices with an empty VAO bound.
var fullscreenVertexShaderSource = `#version 330 core
out vec2 vUv;

void main() {
    vec2 pos = vec2((gl_VertexID << 1) & 2, gl_VertexID & 2);
    vUv = pos;
    gl_Position = vec4(pos * 2.0 - 1.0, 0.0, 1.0);
}
` + "\x00"

// RGB shift: red is sampled ahead of the offset, blue behind it.
var rgbShiftFragmentShaderSource = `#version 330 core
in vec2 vUv;

uniform sampler2D tDiffuse;
uniform float amount;
uniform float angle;

out vec4 FragColor;
` + outputChunk + `
void main() {
    vec2 offset = amount * vec2(cos(angle), sin(angle));
    vec4 cr = texture(tDiffuse, vUv + offset);
    vec4 cga = texture(tDiffuse, vUv);
    vec4 cb = texture(tDiffuse, vUv - offset);
    FragColor = linearToOutput(vec4(cr.r, cga.g, cb.b, cga.a));
}
` + "\x00"

var copyFragmentShaderSource = `#version 330 core
in vec2 vUv;

uniform sampler2D tDiffuse;
uniform float opacity;

out vec4 FragColor;
` + outputChunk + `
void main() {
    vec4 texel = texture(tDiffuse, vUv);
    FragColor = linearToOutput(opacity * texel);
}
` + "\x00"

// GGX importance sampled prefilter of an equirectangular map into one mip level.
var prefilterFragmentShaderSource = `#version 330 core
in vec2 vUv;

uniform sampler2D equirectMap;
uniform float roughness;
uniform float sourceLod;

out vec4 FragColor;
` + equirectChunk + `
const uint SAMPLE_COUNT = 256u;

float radicalInverse(uint bits) {
    bits = (bits << 16u) | (bits >> 16u);
    bits = ((bits & 0x55555555u) << 1u) | ((bits & 0xAAAAAAAAu) >> 1u);
    bits = ((bits & 0x33333333u) << 2u) | ((bits & 0xCCCCCCCCu) >> 2u);
    bits = ((bits & 0x0F0F0F0Fu) << 4u) | ((bits & 0xF0F0F0F0u) >> 4u);
    bits = ((bits & 0x00FF00FFu) << 8u) | ((bits & 0xFF00FF00u) >> 8u);
    return float(bits) * 2.3283064365386963e-10;
}

vec3 importanceSampleGGX(vec2 Xi, vec3 N, float r) {
    float a = r * r;
    float phi = 2.0 * PI * Xi.x;
    float cosTheta = sqrt((1.0 - Xi.y) / (1.0 + (a * a - 1.0) * Xi.y));
    float sinTheta = sqrt(1.0 - cosTheta * cosTheta);
    vec3 H = vec3(cos(phi) * sinTheta, sin(phi) * sinTheta, cosTheta);
    vec3 up = abs(N.z) < 0.999 ? vec3(0.0, 0.0, 1.0) : vec3(1.0, 0.0, 0.0);
    vec3 T = normalize(cross(up, N));
    vec3 B = cross(N, T);
    return normalize(T * H.x + B * H.y + N * H.z);
}

void main() {
    vec3 N = equirectToDir(vUv);
    if (roughness < 0.001) {
        FragColor = vec4(textureLod(equirectMap, vUv, 0.0).rgb, 1.0);
        return;
    }

    vec3 sum = vec3(0.0);
    float weight = 0.0;
    for (uint i = 0u; i < SAMPLE_COUNT; i++) {
        vec2 Xi = vec2(float(i) / float(SAMPLE_COUNT), radicalInverse(i));
        vec3 H = importanceSampleGGX(Xi, N, roughness);
        vec3 L = normalize(2.0 * dot(N, H) * H - N);
        float NoL = max(dot(N, L), 0.0);
        if (NoL > 0.0) {
            sum += textureLod(equirectMap, dirToEquirect(L), sourceLod).rgb * NoL;
            weight += NoL;
        }
    }
    FragColor = vec4(sum / max(weight, 1e-4), 1.0);
}
` + "\x00"

func NewPBRShader() *Shader {
	return NewShader("pbr", pbrVertexShaderSource, pbrFragmentShaderSource)
}

func NewRGBShiftShader() *Shader {
	return NewShader("rgb_shift", fullscreenVertexShaderSource, rgbShiftFragmentShaderSource)
}

func NewCopyShader() *Shader {
	return NewShader("copy", fullscreenVertexShaderSource, copyFragmentShaderSource)
}

func NewPrefilterShader() *Shader {
	return NewShader("pmrem_prefilter", fullscreenVertexShaderSource, prefilterFragmentShaderSource)
}
