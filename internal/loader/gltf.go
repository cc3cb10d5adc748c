package loader

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"go.uber.org/zap"

	"Prism3D/internal/logger"
	"Prism3D/internal/renderer"
)

var ErrNoGeometry = errors.New("gltf contains no triangle geometry")

// LoadGLTF parses a .gltf or .glb file into a model. The default scene's node
// hierarchy is flattened: every primitive keeps its node transform relative
// to the model root. Images are decoded here, off the render thread.
func LoadGLTF(ctx context.Context, path string) (*renderer.Model, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open gltf %s: %w", path, err)
	}

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	b := &gltfBuilder{
		ctx:       ctx,
		doc:       doc,
		dir:       filepath.Dir(path),
		key:       path,
		model:     renderer.NewModel(name),
		materials: make(map[int]*renderer.Material),
		textures:  make(map[textureKey]*renderer.TextureSource),
	}
	b.model.SourcePath = path

	if err := b.build(); err != nil {
		return nil, fmt.Errorf("load gltf %s: %w", path, err)
	}
	if len(b.model.Primitives) == 0 {
		return nil, fmt.Errorf("load gltf %s: %w", path, ErrNoGeometry)
	}

	stats := b.model.Stats()
	logger.Log.Info("GLTF loaded",
		zap.String("path", path),
		zap.Int("primitives", stats.Primitives),
		zap.Int("vertices", stats.Vertices),
		zap.Int("triangles", stats.Triangles),
		zap.Int("materials", stats.Materials),
		zap.Int("textures", stats.Textures))
	return b.model, nil
}

type textureKey struct {
	image int
	srgb  bool
}

type gltfBuilder struct {
	ctx       context.Context
	doc       *gltf.Document
	dir       string
	key       string
	model     *renderer.Model
	materials map[int]*renderer.Material
	textures  map[textureKey]*renderer.TextureSource
}

func (b *gltfBuilder) build() error {
	roots, err := b.sceneRoots()
	if err != nil {
		return err
	}
	for _, root := range roots {
		if err := b.visit(root, mgl32.Ident4(), 0); err != nil {
			return err
		}
	}
	return nil
}

// sceneRoots returns the root nodes of the default scene. Files without
// scenes fall back to every node that is nobody's child.
func (b *gltfBuilder) sceneRoots() ([]int, error) {
	doc := b.doc
	if len(doc.Scenes) > 0 {
		index := 0
		if doc.Scene != nil {
			index = *doc.Scene
		}
		if index < 0 || index >= len(doc.Scenes) {
			return nil, fmt.Errorf("default scene %d out of range", index)
		}
		return doc.Scenes[index].Nodes, nil
	}

	child := make(map[int]bool)
	for _, node := range doc.Nodes {
		for _, c := range node.Children {
			child[c] = true
		}
	}
	var roots []int
	for i := range doc.Nodes {
		if !child[i] {
			roots = append(roots, i)
		}
	}
	return roots, nil
}

// visit walks the node tree depth first, accumulating transforms.
func (b *gltfBuilder) visit(index int, parent mgl32.Mat4, depth int) error {
	if err := b.ctx.Err(); err != nil {
		return err
	}
	if index < 0 || index >= len(b.doc.Nodes) {
		return fmt.Errorf("node %d out of range", index)
	}
	// Cycles are invalid gltf; bound the recursion instead of trusting the file.
	if depth > len(b.doc.Nodes) {
		return fmt.Errorf("node %d: hierarchy is cyclic", index)
	}

	node := b.doc.Nodes[index]
	world := parent.Mul4(nodeTransform(node))

	if node.Mesh != nil {
		if err := b.addMesh(*node.Mesh, world); err != nil {
			return fmt.Errorf("node %d: %w", index, err)
		}
	}
	for _, child := range node.Children {
		if err := b.visit(child, world, depth+1); err != nil {
			return err
		}
	}
	return nil
}

// nodeTransform returns the node's local matrix. A non identity Matrix wins
// over TRS, and zero valued TRS fields mean the gltf defaults.
func nodeTransform(node *gltf.Node) mgl32.Mat4 {
	var m mgl32.Mat4
	identity := true
	zero := true
	for i, v := range node.Matrix {
		m[i] = float32(v)
		if v != 0 {
			zero = false
		}
		if (i%5 == 0 && v != 1) || (i%5 != 0 && v != 0) {
			identity = false
		}
	}
	if !zero && !identity {
		return m
	}

	t := node.Translation
	translation := mgl32.Translate3D(float32(t[0]), float32(t[1]), float32(t[2]))

	rotation := mgl32.Ident4()
	if r := node.Rotation; r != [4]float64{} {
		q := mgl32.Quat{W: float32(r[3]), V: mgl32.Vec3{float32(r[0]), float32(r[1]), float32(r[2])}}
		rotation = q.Normalize().Mat4()
	}

	scale := mgl32.Ident4()
	if s := node.Scale; s != [3]float64{} {
		scale = mgl32.Scale3D(float32(s[0]), float32(s[1]), float32(s[2]))
	}
	return translation.Mul4(rotation).Mul4(scale)
}

func (b *gltfBuilder) addMesh(index int, transform mgl32.Mat4) error {
	if index < 0 || index >= len(b.doc.Meshes) {
		return fmt.Errorf("mesh %d out of range", index)
	}
	mesh := b.doc.Meshes[index]
	for i, prim := range mesh.Primitives {
		if prim.Mode != gltf.PrimitiveTriangles {
			logger.Log.Warn("Skipping non-triangle primitive",
				zap.String("mesh", mesh.Name),
				zap.Int("primitive", i))
			continue
		}
		p, err := b.readPrimitive(prim)
		if err != nil {
			return fmt.Errorf("mesh %q primitive %d: %w", mesh.Name, i, err)
		}
		p.Transform = transform
		b.model.Primitives = append(b.model.Primitives, p)
	}
	return nil
}

func (b *gltfBuilder) readPrimitive(prim *gltf.Primitive) (*renderer.Primitive, error) {
	doc := b.doc
	posIndex, ok := prim.Attributes[gltf.POSITION]
	if !ok {
		return nil, errors.New("missing POSITION attribute")
	}
	positions, err := modeler.ReadPosition(doc, doc.Accessors[posIndex], nil)
	if err != nil {
		return nil, fmt.Errorf("read positions: %w", err)
	}

	var normals [][3]float32
	if normalIndex, ok := prim.Attributes[gltf.NORMAL]; ok {
		normals, err = modeler.ReadNormal(doc, doc.Accessors[normalIndex], nil)
		if err != nil {
			return nil, fmt.Errorf("read normals: %w", err)
		}
	}

	var texCoords [][2]float32
	if texIndex, ok := prim.Attributes[gltf.TEXCOORD_0]; ok {
		texCoords, err = modeler.ReadTextureCoord(doc, doc.Accessors[texIndex], nil)
		if err != nil {
			return nil, fmt.Errorf("read texcoords: %w", err)
		}
	}

	var indices []uint32
	if prim.Indices != nil {
		indices, err = modeler.ReadIndices(doc, doc.Accessors[*prim.Indices], nil)
		if err != nil {
			return nil, fmt.Errorf("read indices: %w", err)
		}
	} else {
		indices = make([]uint32, len(positions))
		for i := range indices {
			indices[i] = uint32(i)
		}
	}

	hasNormals := len(normals) == len(positions)
	if !hasNormals {
		normals = RecalculateNormals(positions, indices)
	}

	interleaved := make([]float32, 0, len(positions)*renderer.FloatsPerVertex)
	for i, pos := range positions {
		var uv [2]float32
		if i < len(texCoords) {
			uv = texCoords[i]
		}
		n := normals[i]
		interleaved = append(interleaved,
			pos[0], pos[1], pos[2],
			uv[0], uv[1],
			n[0], n[1], n[2])
	}

	material := renderer.DefaultMaterial
	if prim.Material != nil {
		material, err = b.material(*prim.Material)
		if err != nil {
			return nil, err
		}
	}

	return &renderer.Primitive{
		Transform:       mgl32.Ident4(),
		Material:        material,
		InterleavedData: interleaved,
		Indices:         indices,
		HasNormals:      hasNormals,
	}, nil
}

// RecalculateNormals averages face normals onto the vertices they touch.
func RecalculateNormals(positions [][3]float32, indices []uint32) [][3]float32 {
	normals := make([][3]float32, len(positions))
	if len(positions) == 0 || len(indices) == 0 {
		return normals
	}

	accum := make([]mgl32.Vec3, len(positions))
	for i := 0; i+2 < len(indices); i += 3 {
		i0, i1, i2 := indices[i], indices[i+1], indices[i+2]
		if int(i0) >= len(positions) || int(i1) >= len(positions) || int(i2) >= len(positions) {
			continue
		}
		v0 := mgl32.Vec3(positions[i0])
		v1 := mgl32.Vec3(positions[i1])
		v2 := mgl32.Vec3(positions[i2])

		// Unnormalized cross product weights by triangle area.
		normal := v1.Sub(v0).Cross(v2.Sub(v0))
		accum[i0] = accum[i0].Add(normal)
		accum[i1] = accum[i1].Add(normal)
		accum[i2] = accum[i2].Add(normal)
	}

	for i, n := range accum {
		if n.Len() > 0 {
			normals[i] = n.Normalize()
		} else {
			normals[i] = [3]float32{0, 1, 0}
		}
	}
	return normals
}

func (b *gltfBuilder) material(index int) (*renderer.Material, error) {
	if m, ok := b.materials[index]; ok {
		return m, nil
	}
	if index < 0 || index >= len(b.doc.Materials) {
		return nil, fmt.Errorf("material %d out of range", index)
	}
	src := b.doc.Materials[index]

	m := *renderer.DefaultMaterial
	m.Name = src.Name
	m.DoubleSided = src.DoubleSided
	m.EmissiveFactor = [3]float32{float32(src.EmissiveFactor[0]), float32(src.EmissiveFactor[1]), float32(src.EmissiveFactor[2])}
	if src.AlphaCutoff != nil {
		m.AlphaCutoff = float32(*src.AlphaCutoff)
	}
	switch src.AlphaMode {
	case gltf.AlphaMask:
		m.AlphaMode = renderer.AlphaMask
	case gltf.AlphaBlend:
		m.AlphaMode = renderer.AlphaBlend
	default:
		m.AlphaMode = renderer.AlphaOpaque
	}

	var err error
	if pbr := src.PBRMetallicRoughness; pbr != nil {
		if pbr.BaseColorFactor != nil {
			f := pbr.BaseColorFactor
			m.BaseColorFactor = [4]float32{float32(f[0]), float32(f[1]), float32(f[2]), float32(f[3])}
		}
		if pbr.MetallicFactor != nil {
			m.Metallic = float32(*pbr.MetallicFactor)
		}
		if pbr.RoughnessFactor != nil {
			m.Roughness = float32(*pbr.RoughnessFactor)
		}
		if pbr.BaseColorTexture != nil {
			if m.BaseColorTexture, err = b.texture(pbr.BaseColorTexture.Index, true); err != nil {
				return nil, err
			}
		}
		if pbr.MetallicRoughnessTexture != nil {
			if m.MetallicRoughnessTexture, err = b.texture(pbr.MetallicRoughnessTexture.Index, false); err != nil {
				return nil, err
			}
		}
	}
	if nt := src.NormalTexture; nt != nil && nt.Index != nil {
		if nt.Scale != nil {
			m.NormalScale = float32(*nt.Scale)
		}
		if m.NormalTexture, err = b.texture(*nt.Index, false); err != nil {
			return nil, err
		}
	}
	if ot := src.OcclusionTexture; ot != nil && ot.Index != nil {
		if ot.Strength != nil {
			m.OcclusionStrength = float32(*ot.Strength)
		}
		if m.OcclusionTexture, err = b.texture(*ot.Index, false); err != nil {
			return nil, err
		}
	}
	if et := src.EmissiveTexture; et != nil {
		if m.EmissiveTexture, err = b.texture(et.Index, true); err != nil {
			return nil, err
		}
	}

	b.materials[index] = &m
	return &m, nil
}

// texture decodes the image behind a gltf texture. Color and data usages of
// the same image get separate sources since their GL formats differ.
func (b *gltfBuilder) texture(index int, srgb bool) (*renderer.TextureSource, error) {
	if index < 0 || index >= len(b.doc.Textures) {
		return nil, fmt.Errorf("texture %d out of range", index)
	}
	tex := b.doc.Textures[index]
	if tex.Source == nil {
		return nil, fmt.Errorf("texture %d has no image source", index)
	}
	key := textureKey{image: *tex.Source, srgb: srgb}
	if src, ok := b.textures[key]; ok {
		return src, nil
	}

	img, err := b.decodeImage(*tex.Source)
	if err != nil {
		return nil, fmt.Errorf("texture %d: %w", index, err)
	}
	src := &renderer.TextureSource{
		Name:  fmt.Sprintf("%s#image%d", b.key, *tex.Source),
		Image: img,
		SRGB:  srgb,
	}
	if srgb {
		src.Name += ":srgb"
	}
	b.textures[key] = src
	return src, nil
}

func (b *gltfBuilder) decodeImage(index int) (image.Image, error) {
	if err := b.ctx.Err(); err != nil {
		return nil, err
	}
	if index < 0 || index >= len(b.doc.Images) {
		return nil, fmt.Errorf("image %d out of range", index)
	}
	data, err := b.imageData(b.doc.Images[index])
	if err != nil {
		return nil, fmt.Errorf("image %d: %w", index, err)
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image %d: %w", index, err)
	}
	return img, nil
}

// imageData returns the encoded bytes of img. gltf.Open already
// percent-decoded external URIs.
func (b *gltfBuilder) imageData(img *gltf.Image) ([]byte, error) {
	if img.BufferView != nil {
		if *img.BufferView < 0 || *img.BufferView >= len(b.doc.BufferViews) {
			return nil, fmt.Errorf("buffer view %d out of range", *img.BufferView)
		}
		return modeler.ReadBufferView(b.doc, b.doc.BufferViews[*img.BufferView])
	}
	if img.IsEmbeddedResource() {
		return img.MarshalData()
	}
	// Some exporters embed images under other media types.
	if strings.HasPrefix(img.URI, "data:") {
		return decodeDataURI(img.URI)
	}
	if img.URI == "" {
		return nil, errors.New("image has neither uri nor buffer view")
	}
	return os.ReadFile(filepath.Join(b.dir, filepath.FromSlash(img.URI)))
}

func decodeDataURI(uri string) ([]byte, error) {
	header, payload, ok := strings.Cut(uri, ",")
	if !ok {
		return nil, errors.New("malformed data uri")
	}
	if !strings.HasSuffix(header, ";base64") {
		return nil, errors.New("data uri is not base64 encoded")
	}
	return base64.StdEncoding.DecodeString(payload)
}
