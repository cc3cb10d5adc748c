package renderer

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"

	"Prism3D/internal/logger"
)

// RenderTarget is an offscreen framebuffer with a float color texture and a
// depth buffer. With Samples > 0 drawing goes to multisampled renderbuffers
// that Resolve blits into the color texture.
//
// GL objects are created lazily on the first Bind, so a target can be sized
// before a context exists.
type RenderTarget struct {
	Name    string
	Samples int32
	Format  int32 // Internal color format, RGBA16F unless set

	width  int32
	height int32

	fbo      uint32 // Resolve framebuffer holding Texture
	texture  uint32
	depthRBO uint32

	msaaFBO   uint32
	msaaColor uint32
	msaaDepth uint32

	allocated bool
	dirty     bool
}

func NewRenderTarget(name string, width, height, samples int32) *RenderTarget {
	rt := &RenderTarget{
		Name:    name,
		Samples: samples,
		Format:  gl.RGBA16F,
	}
	rt.SetSize(width, height)
	return rt
}

// SetSize records the new size; storage is reallocated on the next Bind.
// Setting the current size again is a no-op.
func (rt *RenderTarget) SetSize(width, height int32) {
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}
	if width == rt.width && height == rt.height {
		return
	}
	rt.width = width
	rt.height = height
	rt.dirty = true
}

func (rt *RenderTarget) Size() (int32, int32) {
	return rt.width, rt.height
}

// Texture returns the resolved color texture. Valid after the first Bind.
func (rt *RenderTarget) Texture() uint32 {
	return rt.texture
}

// Bind makes the target the current draw framebuffer and sets the viewport.
func (rt *RenderTarget) Bind() error {
	if !rt.allocated || rt.dirty {
		if err := rt.allocate(); err != nil {
			return err
		}
	}
	if rt.Samples > 0 {
		gl.BindFramebuffer(gl.FRAMEBUFFER, rt.msaaFBO)
	} else {
		gl.BindFramebuffer(gl.FRAMEBUFFER, rt.fbo)
	}
	gl.Viewport(0, 0, rt.width, rt.height)
	return nil
}

// Resolve copies the multisampled color into Texture. No-op without MSAA.
func (rt *RenderTarget) Resolve() {
	if rt.Samples <= 0 || !rt.allocated {
		return
	}
	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, rt.msaaFBO)
	gl.BindFramebuffer(gl.DRAW_FRAMEBUFFER, rt.fbo)
	gl.BlitFramebuffer(0, 0, rt.width, rt.height, 0, 0, rt.width, rt.height, gl.COLOR_BUFFER_BIT, gl.NEAREST)
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
}

func (rt *RenderTarget) allocate() error {
	rt.release()

	gl.GenFramebuffers(1, &rt.fbo)
	gl.BindFramebuffer(gl.FRAMEBUFFER, rt.fbo)

	gl.GenTextures(1, &rt.texture)
	gl.BindTexture(gl.TEXTURE_2D, rt.texture)
	gl.TexImage2D(gl.TEXTURE_2D, 0, rt.Format, rt.width, rt.height, 0, gl.RGBA, gl.FLOAT, nil)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT0, gl.TEXTURE_2D, rt.texture, 0)

	if rt.Samples <= 0 {
		gl.GenRenderbuffers(1, &rt.depthRBO)
		gl.BindRenderbuffer(gl.RENDERBUFFER, rt.depthRBO)
		gl.RenderbufferStorage(gl.RENDERBUFFER, gl.DEPTH_COMPONENT24, rt.width, rt.height)
		gl.FramebufferRenderbuffer(gl.FRAMEBUFFER, gl.DEPTH_ATTACHMENT, gl.RENDERBUFFER, rt.depthRBO)
	}
	if status := gl.CheckFramebufferStatus(gl.FRAMEBUFFER); status != gl.FRAMEBUFFER_COMPLETE {
		gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
		return fmt.Errorf("render target %s: framebuffer incomplete (0x%x)", rt.Name, status)
	}

	if rt.Samples > 0 {
		gl.GenFramebuffers(1, &rt.msaaFBO)
		gl.BindFramebuffer(gl.FRAMEBUFFER, rt.msaaFBO)

		gl.GenRenderbuffers(1, &rt.msaaColor)
		gl.BindRenderbuffer(gl.RENDERBUFFER, rt.msaaColor)
		gl.RenderbufferStorageMultisample(gl.RENDERBUFFER, rt.Samples, uint32(rt.Format), rt.width, rt.height)
		gl.FramebufferRenderbuffer(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT0, gl.RENDERBUFFER, rt.msaaColor)

		gl.GenRenderbuffers(1, &rt.msaaDepth)
		gl.BindRenderbuffer(gl.RENDERBUFFER, rt.msaaDepth)
		gl.RenderbufferStorageMultisample(gl.RENDERBUFFER, rt.Samples, gl.DEPTH_COMPONENT24, rt.width, rt.height)
		gl.FramebufferRenderbuffer(gl.FRAMEBUFFER, gl.DEPTH_ATTACHMENT, gl.RENDERBUFFER, rt.msaaDepth)

		if status := gl.CheckFramebufferStatus(gl.FRAMEBUFFER); status != gl.FRAMEBUFFER_COMPLETE {
			gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
			return fmt.Errorf("render target %s: multisample framebuffer incomplete (0x%x)", rt.Name, status)
		}
	}
	gl.BindRenderbuffer(gl.RENDERBUFFER, 0)
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)

	rt.allocated = true
	rt.dirty = false
	logger.Log.Debug("Render target allocated",
		zap.String("name", rt.Name),
		zap.Int32("width", rt.width),
		zap.Int32("height", rt.height),
		zap.Int32("samples", rt.Samples))
	return nil
}

func (rt *RenderTarget) release() {
	if !rt.allocated {
		return
	}
	gl.DeleteFramebuffers(1, &rt.fbo)
	gl.DeleteTextures(1, &rt.texture)
	if rt.depthRBO != 0 {
		gl.DeleteRenderbuffers(1, &rt.depthRBO)
	}
	if rt.msaaFBO != 0 {
		gl.DeleteFramebuffers(1, &rt.msaaFBO)
		gl.DeleteRenderbuffers(1, &rt.msaaColor)
		gl.DeleteRenderbuffers(1, &rt.msaaDepth)
	}
	rt.fbo, rt.texture, rt.depthRBO = 0, 0, 0
	rt.msaaFBO, rt.msaaColor, rt.msaaDepth = 0, 0, 0
	rt.allocated = false
}

// Dispose frees the GL objects. The target may be bound again afterwards.
func (rt *RenderTarget) Dispose() {
	rt.release()
	rt.dirty = true
}
