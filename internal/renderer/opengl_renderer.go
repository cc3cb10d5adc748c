package renderer

import (
	"fmt"
	"image"
	"image/color"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"Prism3D/internal/logger"
)

// Texture units used by the PBR shader.
const (
	baseColorUnit = iota
	metallicRoughnessUnit
	normalUnit
	emissiveUnit
	occlusionUnit
	envUnit
)

const defaultTextureName = "default_white"

type OpenGLRenderer struct {
	Settings Settings
	Models   []*Model

	pbrShader            *Shader
	textures             *TextureManager
	defaultTextureID     uint32
	fullscreenVAO        uint32 // Empty VAO for gl_VertexID fullscreen draws
	currentShaderProgram uint32 // Track currently bound shader to avoid unnecessary switches

	width        int32 // Logical window size
	height       int32
	pixelRatio   float32
	screenWidth  int32 // Default framebuffer size when it differs from the drawing buffer
	screenHeight int32
	initialized  bool
}

func NewOpenGLRenderer(settings Settings) *OpenGLRenderer {
	return &OpenGLRenderer{
		Settings:   settings,
		pbrShader:  NewPBRShader(),
		textures:   NewTextureManager(),
		pixelRatio: 1,
	}
}

func (rend *OpenGLRenderer) Init(width, height int32, _ *glfw.Window) error {
	if err := gl.Init(); err != nil {
		return fmt.Errorf("opengl init: %w", err)
	}
	logger.Log.Info("OpenGL context ready",
		zap.String("version", gl.GoStr(gl.GetString(gl.VERSION))),
		zap.String("renderer", gl.GoStr(gl.GetString(gl.RENDERER))))

	if rend.Settings.Wireframe {
		gl.PolygonMode(gl.FRONT_AND_BACK, gl.LINE)
	}
	// Encoding happens in the output pass.
	gl.Disable(gl.FRAMEBUFFER_SRGB)
	if rend.Settings.Antialias {
		gl.Enable(gl.MULTISAMPLE)
	}

	gl.GenVertexArrays(1, &rend.fullscreenVAO)
	if err := rend.pbrShader.Compile(); err != nil {
		return err
	}
	if err := rend.setDefaultTexture(); err != nil {
		return err
	}

	rend.initialized = true
	rend.SetSize(width, height)
	logger.Log.Info("OpenGL render initialized",
		zap.Int32("width", width),
		zap.Int32("height", height),
		zap.Float32("pixelRatio", rend.pixelRatio))
	return nil
}

func (rend *OpenGLRenderer) setDefaultTexture() error {
	img := image.NewRGBA(image.Rect(0, 0, 1, 1))
	img.Set(0, 0, color.White)
	textureID, err := rend.textures.CreateTextureFromImage(img, defaultTextureName)
	if err != nil {
		return fmt.Errorf("default texture: %w", err)
	}
	rend.defaultTextureID = textureID
	return nil
}

// SetSize sets the logical size; the drawing buffer is scaled by the pixel ratio.
func (rend *OpenGLRenderer) SetSize(width, height int32) {
	rend.width = width
	rend.height = height
	if rend.initialized {
		w, h := rend.DrawingBufferSize()
		gl.Viewport(0, 0, w, h)
	}
}

// SetPixelRatio applies a device pixel ratio, capped by Settings.MaxPixelRatio.
func (rend *OpenGLRenderer) SetPixelRatio(ratio float32) {
	rend.pixelRatio = ClampPixelRatio(ratio, rend.Settings.MaxPixelRatio)
	rend.SetSize(rend.width, rend.height)
}

func (rend *OpenGLRenderer) Size() (int32, int32) {
	return rend.width, rend.height
}

func (rend *OpenGLRenderer) PixelRatio() float32 {
	return rend.pixelRatio
}

func (rend *OpenGLRenderer) DrawingBufferSize() (int32, int32) {
	return DrawingBufferSize(rend.width, rend.height, rend.pixelRatio)
}

// Samples is the MSAA sample count for offscreen targets, 0 without antialiasing.
func (rend *OpenGLRenderer) Samples() int32 {
	if !rend.Settings.Antialias {
		return 0
	}
	return rend.Settings.Samples
}

func (rend *OpenGLRenderer) Textures() *TextureManager {
	return rend.textures
}

// AddModel uploads the model's geometry and textures. CPU side vertex data
// is kept for bounds queries; decoded images are released.
func (rend *OpenGLRenderer) AddModel(model *Model) error {
	if model.Uploaded {
		return nil
	}
	for _, prim := range model.Primitives {
		if prim.Material == nil {
			prim.Material = DefaultMaterial
		}
		rend.uploadPrimitive(prim)
		for _, tex := range prim.Material.Textures() {
			if _, err := rend.textures.Upload(tex); err != nil {
				return fmt.Errorf("model %s: texture %s: %w", model.Name, tex.Name, err)
			}
		}
	}

	// Calculate the initial model matrix based on position, rotation, and scale
	model.UpdateModelMatrix()
	model.Uploaded = true
	rend.Models = append(rend.Models, model)

	stats := model.Stats()
	logger.Log.Info("Model uploaded",
		zap.String("name", model.Name),
		zap.Int("primitives", stats.Primitives),
		zap.Int("vertices", stats.Vertices),
		zap.Int("triangles", stats.Triangles))
	rend.textures.LogStats()
	return nil
}

func (rend *OpenGLRenderer) uploadPrimitive(prim *Primitive) {
	var vao uint32
	gl.GenVertexArrays(1, &vao)
	gl.BindVertexArray(vao)

	var vbo uint32
	gl.GenBuffers(1, &vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(prim.InterleavedData)*4, gl.Ptr(prim.InterleavedData), gl.STATIC_DRAW)

	var ebo uint32
	gl.GenBuffers(1, &ebo)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, ebo)
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(prim.Indices)*4, gl.Ptr(prim.Indices), gl.STATIC_DRAW)

	stride := int32(FloatsPerVertex * 4)
	gl.VertexAttribPointer(0, 3, gl.FLOAT, false, stride, gl.PtrOffset(0))
	gl.EnableVertexAttribArray(0)

	gl.VertexAttribPointer(1, 2, gl.FLOAT, false, stride, gl.PtrOffset(3*4))
	gl.EnableVertexAttribArray(1)

	gl.VertexAttribPointer(2, 3, gl.FLOAT, false, stride, gl.PtrOffset(5*4))
	gl.EnableVertexAttribArray(2)

	gl.BindVertexArray(0)

	prim.VAO = vao
	prim.VBO = vbo
	prim.EBO = ebo
}

// SetScreenSize records the real default framebuffer size. The drawing
// buffer can be smaller when the pixel ratio is capped.
func (rend *OpenGLRenderer) SetScreenSize(width, height int32) {
	rend.screenWidth = width
	rend.screenHeight = height
}

// ScreenSize is the size the final pass covers.
func (rend *OpenGLRenderer) ScreenSize() (int32, int32) {
	if rend.screenWidth > 0 && rend.screenHeight > 0 {
		return rend.screenWidth, rend.screenHeight
	}
	return rend.DrawingBufferSize()
}

// BindScreen targets the default framebuffer.
func (rend *OpenGLRenderer) BindScreen() {
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	w, h := rend.ScreenSize()
	gl.Viewport(0, 0, w, h)
}

// DrawFullscreenTriangle issues the 3 vertex draw used by post passes.
func (rend *OpenGLRenderer) DrawFullscreenTriangle() {
	gl.BindVertexArray(rend.fullscreenVAO)
	gl.DrawArrays(gl.TRIANGLES, 0, 3)
	gl.BindVertexArray(0)
	rend.currentShaderProgram = 0
}

// applyOutputUniforms enables tone mapping and color space encoding only for
// draws that land on the screen; offscreen targets stay linear.
func (rend *OpenGLRenderer) applyOutputUniforms(shader *Shader, toScreen bool) {
	shader.SetBool("outputTransform", toScreen)
	shader.SetInt("toneMapping", int32(rend.Settings.ToneMapping))
	shader.SetFloat("toneMappingExposure", rend.Settings.ToneMappingExposure)
	shader.SetInt("outputColorSpace", int32(rend.Settings.OutputColorSpace))
}

func (rend *OpenGLRenderer) clear() {
	if rend.Settings.Alpha {
		gl.ClearColor(0.0, 0.0, 0.0, 0.0)
	} else {
		gl.ClearColor(0.0, 0.0, 0.0, 1.0)
	}
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
}

// RenderScene draws scene from camera into target, or the screen when target is nil.
func (rend *OpenGLRenderer) RenderScene(scene *Scene, camera *Camera, target *RenderTarget) error {
	if target != nil {
		if err := target.Bind(); err != nil {
			return err
		}
	} else {
		rend.BindScreen()
	}
	rend.clear()

	gl.Enable(gl.DEPTH_TEST)
	gl.DepthMask(true)

	viewProjection := camera.GetViewProjection()
	shader := rend.pbrShader
	if rend.currentShaderProgram != shader.program {
		shader.Use()
		rend.currentShaderProgram = shader.program
	}
	shader.SetMat4("viewProjection", viewProjection)
	shader.SetVec3("viewPos", camera.Position)
	rend.applyOutputUniforms(shader, target == nil)
	rend.bindEnvironment(shader, scene.Environment)

	for _, model := range scene.Models() {
		if !model.Uploaded {
			continue
		}
		// Rotation is tweened in place between frames.
		model.UpdateModelMatrix()
		for _, prim := range model.Primitives {
			rend.drawPrimitive(shader, model, prim)
		}
	}

	gl.Disable(gl.DEPTH_TEST)
	gl.Disable(gl.CULL_FACE)
	gl.Disable(gl.BLEND)

	if target != nil {
		target.Resolve()
	}
	return nil
}

func (rend *OpenGLRenderer) bindEnvironment(shader *Shader, env *EnvironmentMap) {
	gl.ActiveTexture(gl.TEXTURE0 + envUnit)
	if env == nil || env.TextureID == 0 {
		gl.BindTexture(gl.TEXTURE_2D, rend.defaultTextureID)
		shader.SetBool("hasEnvMap", false)
	} else {
		gl.BindTexture(gl.TEXTURE_2D, env.TextureID)
		shader.SetBool("hasEnvMap", true)
		shader.SetFloat("envMaxLod", env.MaxLod)
	}
	shader.SetInt("envMap", envUnit)
}

func (rend *OpenGLRenderer) drawPrimitive(shader *Shader, model *Model, prim *Primitive) {
	material := prim.Material
	if material == nil {
		material = DefaultMaterial
	}

	// Culling : https://learnopengl.com/Advanced-OpenGL/Face-culling
	if rend.Settings.FaceCulling && !material.DoubleSided {
		gl.Enable(gl.CULL_FACE)
		gl.CullFace(gl.BACK)
		gl.FrontFace(gl.CCW)
	} else {
		gl.Disable(gl.CULL_FACE)
	}
	if material.AlphaMode == AlphaBlend {
		gl.Enable(gl.BLEND)
		gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)
	} else {
		gl.Disable(gl.BLEND)
	}

	shader.SetMat4("model", model.ModelMatrix.Mul4(prim.Transform))
	rend.setMaterialUniforms(shader, material)

	gl.BindVertexArray(prim.VAO)
	gl.DrawElements(gl.TRIANGLES, int32(len(prim.Indices)), gl.UNSIGNED_INT, nil)
	gl.BindVertexArray(0)
}

// setMaterialUniforms sets material-specific uniforms
func (rend *OpenGLRenderer) setMaterialUniforms(shader *Shader, material *Material) {
	shader.SetVec4("baseColorFactor", mgl32.Vec4(material.BaseColorFactor))
	shader.SetFloat("metallicFactor", material.Metallic)
	shader.SetFloat("roughnessFactor", material.Roughness)
	shader.SetVec3("emissiveFactor", mgl32.Vec3(material.EmissiveFactor))
	shader.SetFloat("occlusionStrength", material.OcclusionStrength)
	shader.SetFloat("normalScale", material.NormalScale)
	shader.SetInt("alphaMode", int32(material.AlphaMode))
	shader.SetFloat("alphaCutoff", material.AlphaCutoff)

	rend.bindMaterialTexture(shader, "baseColorMap", "hasBaseColorMap", baseColorUnit, material.BaseColorTexture)
	rend.bindMaterialTexture(shader, "metallicRoughnessMap", "hasMetallicRoughnessMap", metallicRoughnessUnit, material.MetallicRoughnessTexture)
	rend.bindMaterialTexture(shader, "normalMap", "hasNormalMap", normalUnit, material.NormalTexture)
	rend.bindMaterialTexture(shader, "emissiveMap", "hasEmissiveMap", emissiveUnit, material.EmissiveTexture)
	rend.bindMaterialTexture(shader, "occlusionMap", "hasOcclusionMap", occlusionUnit, material.OcclusionTexture)
}

func (rend *OpenGLRenderer) bindMaterialTexture(shader *Shader, sampler, flag string, unit int32, tex *TextureSource) {
	gl.ActiveTexture(gl.TEXTURE0 + uint32(unit))
	if tex == nil || tex.ID == 0 {
		gl.BindTexture(gl.TEXTURE_2D, rend.defaultTextureID)
		shader.SetBool(flag, false)
	} else {
		gl.BindTexture(gl.TEXTURE_2D, tex.ID)
		shader.SetBool(flag, true)
	}
	shader.SetInt(sampler, unit)
}

// UploadHDRTexture moves a decoded panorama to the GPU as a float texture.
func (rend *OpenGLRenderer) UploadHDRTexture(img *EquirectImage, name string) (*HDRTexture, error) {
	textureID, err := rend.textures.CreateHDRTexture(img, name)
	if err != nil {
		return nil, fmt.Errorf("hdr texture %s: %w", name, err)
	}
	return &HDRTexture{
		ID:      textureID,
		Width:   int32(img.Width),
		Height:  int32(img.Height),
		release: rend.textures.ReleaseTexture,
	}, nil
}

func (rend *OpenGLRenderer) CreateTextureFromImage(img image.Image, name string) (uint32, error) {
	return rend.textures.CreateTextureFromImage(img, name)
}

func (rend *OpenGLRenderer) Cleanup() {
	for _, model := range rend.Models {
		for _, prim := range model.Primitives {
			gl.DeleteVertexArrays(1, &prim.VAO)
			gl.DeleteBuffers(1, &prim.VBO)
			gl.DeleteBuffers(1, &prim.EBO)
		}
	}
	rend.Models = nil
	rend.textures.Clear()
	rend.pbrShader.Delete()
	if rend.fullscreenVAO != 0 {
		gl.DeleteVertexArrays(1, &rend.fullscreenVAO)
		rend.fullscreenVAO = 0
	}
	rend.initialized = false
}

var _ Render = (*OpenGLRenderer)(nil)
