package renderer

import (
	"github.com/go-gl/gl/v4.1-core/gl"
)

// PassState holds the flags every pass shares.
type PassState struct {
	Enabled        bool
	NeedsSwap      bool // Output lands in the write buffer and the composer swaps afterwards
	RenderToScreen bool // Set by the composer on the last enabled pass
}

// Pass is one stage of an EffectComposer.
type Pass interface {
	State() *PassState
	SetSize(width, height int32)
	Render(rend *OpenGLRenderer, write, read *RenderTarget) error
	Dispose()
}

// EffectComposer chains passes through two ping-pong render targets. The
// last enabled pass draws to the default framebuffer.
type EffectComposer struct {
	RenderToScreen bool

	renderer   *OpenGLRenderer
	read       *RenderTarget
	write      *RenderTarget
	passes     []Pass
	width      int32 // Logical size
	height     int32
	pixelRatio float32
}

// NewEffectComposer sizes its buffers from the renderer's current drawing buffer.
func NewEffectComposer(rend *OpenGLRenderer) *EffectComposer {
	width, height := rend.Size()
	return newEffectComposer(rend, width, height, rend.PixelRatio(), rend.Samples())
}

func newEffectComposer(rend *OpenGLRenderer, width, height int32, pixelRatio float32, samples int32) *EffectComposer {
	c := &EffectComposer{
		RenderToScreen: true,
		renderer:       rend,
		width:          width,
		height:         height,
		pixelRatio:     pixelRatio,
	}
	w, h := c.bufferSize()
	c.read = NewRenderTarget("composer_read", w, h, samples)
	c.write = NewRenderTarget("composer_write", w, h, samples)
	return c
}

func (c *EffectComposer) bufferSize() (int32, int32) {
	return DrawingBufferSize(c.width, c.height, c.pixelRatio)
}

// AddPass appends a pass and sizes it to the current buffers.
func (c *EffectComposer) AddPass(pass Pass) {
	c.passes = append(c.passes, pass)
	pass.SetSize(c.bufferSize())
}

func (c *EffectComposer) Passes() []Pass {
	return c.passes
}

// SetSize resizes both buffers and every pass to width x height logical pixels.
func (c *EffectComposer) SetSize(width, height int32) {
	c.width = width
	c.height = height
	w, h := c.bufferSize()
	c.read.SetSize(w, h)
	c.write.SetSize(w, h)
	for _, pass := range c.passes {
		pass.SetSize(w, h)
	}
}

func (c *EffectComposer) SetPixelRatio(ratio float32) {
	c.pixelRatio = ratio
	c.SetSize(c.width, c.height)
}

// Size returns the logical size last passed to SetSize.
func (c *EffectComposer) Size() (int32, int32) {
	return c.width, c.height
}

// BufferSize returns the physical size of the ping-pong buffers.
func (c *EffectComposer) BufferSize() (int32, int32) {
	return c.read.Size()
}

func (c *EffectComposer) swapBuffers() {
	c.read, c.write = c.write, c.read
}

func (c *EffectComposer) isLastEnabledPass(index int) bool {
	for i := index + 1; i < len(c.passes); i++ {
		if c.passes[i].State().Enabled {
			return false
		}
	}
	return true
}

// Render runs every enabled pass in order.
func (c *EffectComposer) Render() error {
	for i, pass := range c.passes {
		state := pass.State()
		if !state.Enabled {
			continue
		}
		state.RenderToScreen = c.RenderToScreen && c.isLastEnabledPass(i)
		if err := pass.Render(c.renderer, c.write, c.read); err != nil {
			return err
		}
		if state.NeedsSwap {
			c.swapBuffers()
		}
	}
	return nil
}

func (c *EffectComposer) Dispose() {
	for _, pass := range c.passes {
		pass.Dispose()
	}
	c.read.Dispose()
	c.write.Dispose()
}

// RenderPass draws a scene into the read buffer, or the screen when last.
type RenderPass struct {
	PassState
	Scene  *Scene
	Camera *Camera
}

func NewRenderPass(scene *Scene, camera *Camera) *RenderPass {
	return &RenderPass{
		PassState: PassState{Enabled: true},
		Scene:     scene,
		Camera:    camera,
	}
}

func (p *RenderPass) State() *PassState { return &p.PassState }

func (p *RenderPass) SetSize(width, height int32) {}

func (p *RenderPass) Render(rend *OpenGLRenderer, write, read *RenderTarget) error {
	if p.RenderToScreen {
		return rend.RenderScene(p.Scene, p.Camera, nil)
	}
	return rend.RenderScene(p.Scene, p.Camera, read)
}

func (p *RenderPass) Dispose() {}

// ShaderPass runs a fullscreen fragment shader over the read buffer. The
// input is bound as tDiffuse on unit 0.
type ShaderPass struct {
	PassState
	Shader   *Shader
	Uniforms map[string]float32
}

func NewShaderPass(shader *Shader) *ShaderPass {
	return &ShaderPass{
		PassState: PassState{Enabled: true, NeedsSwap: true},
		Shader:    shader,
		Uniforms:  make(map[string]float32),
	}
}

// NewRGBShiftPass offsets the red and blue channels by amount along angle (radians).
func NewRGBShiftPass(amount, angle float32) *ShaderPass {
	pass := NewShaderPass(NewRGBShiftShader())
	pass.Uniforms["amount"] = amount
	pass.Uniforms["angle"] = angle
	return pass
}

func NewCopyPass() *ShaderPass {
	pass := NewShaderPass(NewCopyShader())
	pass.Uniforms["opacity"] = 1.0
	return pass
}

func (p *ShaderPass) State() *PassState { return &p.PassState }

func (p *ShaderPass) SetSize(width, height int32) {}

func (p *ShaderPass) Render(rend *OpenGLRenderer, write, read *RenderTarget) error {
	if !p.Shader.IsCompiled() {
		if err := p.Shader.Compile(); err != nil {
			return err
		}
	}

	if p.RenderToScreen {
		rend.BindScreen()
	} else if err := write.Bind(); err != nil {
		return err
	}

	gl.Disable(gl.DEPTH_TEST)
	gl.Disable(gl.BLEND)
	gl.Disable(gl.CULL_FACE)

	p.Shader.Use()
	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(gl.TEXTURE_2D, read.Texture())
	p.Shader.SetInt("tDiffuse", 0)
	for name, value := range p.Uniforms {
		p.Shader.SetFloat(name, value)
	}
	rend.applyOutputUniforms(p.Shader, p.RenderToScreen)
	rend.DrawFullscreenTriangle()

	if !p.RenderToScreen {
		write.Resolve()
	}
	return nil
}

func (p *ShaderPass) Dispose() {
	p.Shader.Delete()
}
