package renderer

import (
	"image"

	"github.com/go-gl/mathgl/mgl32"
)

// FloatsPerVertex is the interleaved layout: position(3) texcoord(2) normal(3).
const FloatsPerVertex = 8

// DefaultMaterial provides a basic material to fall back on
var DefaultMaterial = &Material{
	Name:              "default",
	BaseColorFactor:   [4]float32{1.0, 1.0, 1.0, 1.0},
	Metallic:          1.0,
	Roughness:         1.0,
	OcclusionStrength: 1.0,
	NormalScale:       1.0,
	AlphaCutoff:       0.5,
}

type AlphaMode int

const (
	AlphaOpaque AlphaMode = iota
	AlphaMask
	AlphaBlend
)

// TextureSource is a decoded image waiting for, or bound to, a GL texture.
type TextureSource struct {
	Name  string      // Cache key, unique per image in the asset
	Image image.Image // Released after upload
	SRGB  bool        // Color data; sampled through an sRGB internal format
	ID    uint32      // OpenGL texture ID, 0 until uploaded
}

type Material struct {
	// HOT DATA - Accessed every draw call
	BaseColorFactor   [4]float32
	Metallic          float32 // 0.0 = dielectric, 1.0 = metallic
	Roughness         float32 // 0.0 = mirror, 1.0 = completely rough
	EmissiveFactor    [3]float32
	OcclusionStrength float32
	NormalScale       float32
	AlphaCutoff       float32
	AlphaMode         AlphaMode
	DoubleSided       bool

	BaseColorTexture         *TextureSource
	MetallicRoughnessTexture *TextureSource
	NormalTexture            *TextureSource
	EmissiveTexture          *TextureSource
	OcclusionTexture         *TextureSource

	// COLD DATA - Rarely accessed (identification only)
	Name string
}

// Textures lists the non-nil texture slots of the material.
func (m *Material) Textures() []*TextureSource {
	var out []*TextureSource
	for _, t := range []*TextureSource{m.BaseColorTexture, m.MetallicRoughnessTexture, m.NormalTexture, m.EmissiveTexture, m.OcclusionTexture} {
		if t != nil {
			out = append(out, t)
		}
	}
	return out
}

// Primitive is one indexed draw call of a model.
type Primitive struct {
	VAO uint32
	VBO uint32
	EBO uint32

	Transform       mgl32.Mat4 // Node transform relative to the model root
	Material        *Material
	InterleavedData []float32
	Indices         []uint32
	HasNormals      bool
}

func (p *Primitive) VertexCount() int {
	return len(p.InterleavedData) / FloatsPerVertex
}

func (p *Primitive) TriangleCount() int {
	return len(p.Indices) / 3
}

type Model struct {
	// HOT DATA - Accessed every frame in render loop
	ModelMatrix mgl32.Mat4 // Transformation matrix
	Position    mgl32.Vec3 // Position in world space
	Rotation    mgl32.Vec3 // Euler angles in radians, applied in XYZ order
	Scale       mgl32.Vec3 // Scale factors
	Primitives  []*Primitive

	// COLD DATA - Initialization only or rarely accessed
	Name       string
	SourcePath string
	Uploaded   bool
}

// NewModel creates an empty model with identity transform.
func NewModel(name string) *Model {
	m := &Model{
		Name:  name,
		Scale: mgl32.Vec3{1, 1, 1},
	}
	m.UpdateModelMatrix()
	return m
}

func (m *Model) SetPosition(x, y, z float32) {
	m.Position = mgl32.Vec3{x, y, z}
	m.UpdateModelMatrix()
}

func (m *Model) SetRotation(x, y, z float32) {
	m.Rotation = mgl32.Vec3{x, y, z}
	m.UpdateModelMatrix()
}

func (m *Model) SetScale(x, y, z float32) {
	m.Scale = mgl32.Vec3{x, y, z}
	m.UpdateModelMatrix()
}

// RotationMatrix returns Rx * Ry * Rz for the current Euler angles.
func (m *Model) RotationMatrix() mgl32.Mat4 {
	return mgl32.HomogRotate3DX(m.Rotation[0]).
		Mul4(mgl32.HomogRotate3DY(m.Rotation[1])).
		Mul4(mgl32.HomogRotate3DZ(m.Rotation[2]))
}

// UpdateModelMatrix recomputes ModelMatrix as translation * rotation * scale.
// Rotation is tweened in place, so the renderer calls this every frame.
func (m *Model) UpdateModelMatrix() {
	scaleMatrix := mgl32.Scale3D(m.Scale[0], m.Scale[1], m.Scale[2])
	translationMatrix := mgl32.Translate3D(m.Position[0], m.Position[1], m.Position[2])
	m.ModelMatrix = translationMatrix.Mul4(m.RotationMatrix()).Mul4(scaleMatrix)
}

// Materials returns the distinct materials used by the model in draw order.
func (m *Model) Materials() []*Material {
	seen := make(map[*Material]bool)
	var out []*Material
	for _, p := range m.Primitives {
		if p.Material == nil || seen[p.Material] {
			continue
		}
		seen[p.Material] = true
		out = append(out, p.Material)
	}
	return out
}

// ModelStats summarises a model for logging and the info command.
type ModelStats struct {
	Primitives int
	Vertices   int
	Triangles  int
	Materials  int
	Textures   int
}

func (m *Model) Stats() ModelStats {
	stats := ModelStats{Primitives: len(m.Primitives)}
	textures := make(map[string]bool)
	for _, p := range m.Primitives {
		stats.Vertices += p.VertexCount()
		stats.Triangles += p.TriangleCount()
	}
	materials := m.Materials()
	stats.Materials = len(materials)
	for _, mat := range materials {
		for _, t := range mat.Textures() {
			textures[t.Name] = true
		}
	}
	stats.Textures = len(textures)
	return stats
}

// CalculateBounds returns the axis aligned bounds of all primitives in model space.
func (m *Model) CalculateBounds() (lo, hi mgl32.Vec3, ok bool) {
	for _, p := range m.Primitives {
		for i := 0; i+2 < len(p.InterleavedData); i += FloatsPerVertex {
			v := p.Transform.Mul4x1(mgl32.Vec4{p.InterleavedData[i], p.InterleavedData[i+1], p.InterleavedData[i+2], 1}).Vec3()
			if !ok {
				lo, hi, ok = v, v, true
				continue
			}
			for a := 0; a < 3; a++ {
				if v[a] < lo[a] {
					lo[a] = v[a]
				}
				if v[a] > hi[a] {
					hi[a] = v[a]
				}
			}
		}
	}
	return lo, hi, ok
}
