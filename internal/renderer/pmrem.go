package renderer

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"

	"Prism3D/internal/logger"
)

const maxEnvironmentLevels = 6

// EquirectImage is a decoded linear HDR panorama, RGB float triples in row
// major order with row 0 at the zenith.
type EquirectImage struct {
	Width  int
	Height int
	Pix    []float32
}

func NewEquirectImage(width, height int) *EquirectImage {
	return &EquirectImage{
		Width:  width,
		Height: height,
		Pix:    make([]float32, width*height*3),
	}
}

func (img *EquirectImage) At(x, y int) (r, g, b float32) {
	i := (y*img.Width + x) * 3
	return img.Pix[i], img.Pix[i+1], img.Pix[i+2]
}

func (img *EquirectImage) Set(x, y int, r, g, b float32) {
	i := (y*img.Width + x) * 3
	img.Pix[i], img.Pix[i+1], img.Pix[i+2] = r, g, b
}

// HDRTexture is the unfiltered GPU copy of an EquirectImage.
type HDRTexture struct {
	ID     uint32
	Width  int32
	Height int32

	release func(id uint32)
}

// Dispose frees the texture. Safe to call more than once.
func (t *HDRTexture) Dispose() {
	if t.ID == 0 {
		return
	}
	if t.release != nil {
		t.release(t.ID)
	}
	t.ID = 0
}

// EnvironmentMap is a prefiltered equirectangular radiance map. Mip level l
// holds the environment convolved for roughness l/MaxLod.
type EnvironmentMap struct {
	TextureID uint32
	Width     int32
	Height    int32
	MaxLod    float32
}

func (e *EnvironmentMap) Dispose() {
	if e.TextureID == 0 {
		return
	}
	gl.DeleteTextures(1, &e.TextureID)
	e.TextureID = 0
}

// PMREMGenerator turns an HDR panorama into an EnvironmentMap usable for
// image based lighting.
type PMREMGenerator struct {
	Width  int32
	Height int32

	renderer *OpenGLRenderer
	shader   *Shader
	fbo      uint32
}

func NewPMREMGenerator(rend *OpenGLRenderer, size int32) *PMREMGenerator {
	return &PMREMGenerator{
		Width:    size,
		Height:   size / 2,
		renderer: rend,
		shader:   NewPrefilterShader(),
	}
}

// CompileEquirectangularShader builds the prefilter program ahead of the first
// conversion.
func (g *PMREMGenerator) CompileEquirectangularShader() error {
	return g.shader.Compile()
}

// FromEquirectangular prefilters src into a new EnvironmentMap. src is not
// consumed; the caller disposes it.
func (g *PMREMGenerator) FromEquirectangular(src *HDRTexture) (*EnvironmentMap, error) {
	if src == nil || src.ID == 0 {
		return nil, errors.New("pmrem: source texture is empty")
	}
	if err := g.CompileEquirectangularShader(); err != nil {
		return nil, fmt.Errorf("pmrem: %w", err)
	}

	levels := environmentLevels(g.Width, g.Height, maxEnvironmentLevels)
	env := &EnvironmentMap{Width: g.Width, Height: g.Height, MaxLod: float32(levels - 1)}

	gl.GenTextures(1, &env.TextureID)
	gl.BindTexture(gl.TEXTURE_2D, env.TextureID)
	for level := int32(0); level < levels; level++ {
		w, h := levelSize(g.Width, g.Height, level)
		gl.TexImage2D(gl.TEXTURE_2D, level, gl.RGBA16F, w, h, 0, gl.RGBA, gl.FLOAT, nil)
	}
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_BASE_LEVEL, 0)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAX_LEVEL, levels-1)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR_MIPMAP_LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.REPEAT)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)

	if g.fbo == 0 {
		gl.GenFramebuffers(1, &g.fbo)
	}
	gl.BindFramebuffer(gl.FRAMEBUFFER, g.fbo)
	gl.Disable(gl.DEPTH_TEST)
	gl.Disable(gl.BLEND)
	gl.Disable(gl.CULL_FACE)

	g.shader.Use()
	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(gl.TEXTURE_2D, src.ID)
	g.shader.SetInt("equirectMap", 0)

	for level := int32(0); level < levels; level++ {
		w, h := levelSize(g.Width, g.Height, level)
		gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT0, gl.TEXTURE_2D, env.TextureID, level)
		if status := gl.CheckFramebufferStatus(gl.FRAMEBUFFER); status != gl.FRAMEBUFFER_COMPLETE {
			gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
			env.Dispose()
			return nil, fmt.Errorf("pmrem: level %d framebuffer incomplete (0x%x)", level, status)
		}
		gl.Viewport(0, 0, w, h)

		roughness := levelRoughness(level, levels)
		g.shader.SetFloat("roughness", roughness)
		g.shader.SetFloat("sourceLod", sourceLod(src.Width, w, roughness))
		g.renderer.DrawFullscreenTriangle()
	}

	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	logger.Log.Info("Environment map prefiltered",
		zap.Int32("width", env.Width),
		zap.Int32("height", env.Height),
		zap.Int32("levels", levels))
	return env, nil
}

// Dispose frees the prefilter program and framebuffer. Environment maps
// already produced stay valid.
func (g *PMREMGenerator) Dispose() {
	g.shader.Delete()
	if g.fbo != 0 {
		gl.DeleteFramebuffers(1, &g.fbo)
		g.fbo = 0
	}
}

// environmentLevels is the mip count for a width x height map, limited so the
// smallest level keeps at least 8 texels of height.
func environmentLevels(width, height int32, limit int32) int32 {
	smallest := width
	if height < smallest {
		smallest = height
	}
	levels := int32(1)
	for smallest>>levels >= 8 && levels < limit {
		levels++
	}
	return levels
}

func levelSize(width, height, level int32) (int32, int32) {
	w, h := width>>level, height>>level
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	return w, h
}

func levelRoughness(level, levels int32) float32 {
	if levels <= 1 {
		return 0
	}
	return float32(level) / float32(levels-1)
}

// sourceLod picks the source mip whose texel density matches the target level,
// one level blurrier for rough levels to hide sampling noise.
func sourceLod(sourceWidth, levelWidth int32, roughness float32) float32 {
	if sourceWidth <= 0 || levelWidth <= 0 {
		return 0
	}
	lod := float32(math.Log2(float64(sourceWidth) / float64(levelWidth)))
	if lod < 0 {
		lod = 0
	}
	if roughness > 0 {
		lod++
	}
	return lod
}
