package engine

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Prism3D/internal/config"
	"Prism3D/internal/loader"
	"Prism3D/internal/renderer"
)

func TestNewAppDefaults(t *testing.T) {
	app, err := NewApp(nil)
	require.NoError(t, err)

	assert.Nil(t, app.Model())
	assert.Equal(t, 0, app.Scene.Len())
	assert.Nil(t, app.Scene.Environment)
	assert.Equal(t, loader.PhaseIdle, app.Sequence.Phase())
	assert.Equal(t, 2, app.Behaviours.Len())

	assert.Equal(t, float32(40), app.Camera.Fov)
	assert.InDelta(t, 1280.0/720.0, app.Camera.AspectRatio, 1e-6)
	assert.Equal(t, float32(4), app.Camera.Position.Z())
}

func TestNewAppRejectsInvalidConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Window.Width = 0

	_, err := NewApp(cfg)
	assert.ErrorContains(t, err, "invalid config")
}

func TestPointerIgnoredBeforeModel(t *testing.T) {
	app, err := NewApp(config.DefaultConfig())
	require.NoError(t, err)

	assert.False(t, app.pointer.OnPointerMove(10, 10, 1280, 720))
	assert.Equal(t, 0, app.Animator.Active())
}

type fakeUploader struct {
	err     error
	uploads int
}

func (u *fakeUploader) UploadHDRTexture(img *renderer.EquirectImage, name string) (*renderer.HDRTexture, error) {
	u.uploads++
	if u.err != nil {
		return nil, u.err
	}
	return &renderer.HDRTexture{Width: int32(img.Width), Height: int32(img.Height)}, nil
}

type fakeBaker struct {
	err      error
	disposed int
}

func (b *fakeBaker) FromEquirectangular(src *renderer.HDRTexture) (*renderer.EnvironmentMap, error) {
	if b.err != nil {
		return nil, b.err
	}
	return &renderer.EnvironmentMap{Width: src.Width, Height: src.Height, MaxLod: 5}, nil
}

func (b *fakeBaker) Dispose() { b.disposed++ }

func TestApplyEnvironmentReleasesGenerator(t *testing.T) {
	img := renderer.NewEquirectImage(64, 32)

	t.Run("success", func(t *testing.T) {
		app, err := NewApp(nil)
		require.NoError(t, err)
		baker := &fakeBaker{}
		app.uploader = &fakeUploader{}
		app.pmrem = baker

		require.NoError(t, app.applyEnvironment(img))
		require.NotNil(t, app.Scene.Environment)
		assert.Equal(t, int32(64), app.Scene.Environment.Width)
		assert.Equal(t, 1, baker.disposed)
		assert.Nil(t, app.pmrem)
	})

	t.Run("upload failure", func(t *testing.T) {
		app, err := NewApp(nil)
		require.NoError(t, err)
		baker := &fakeBaker{}
		uploadErr := errors.New("out of memory")
		app.uploader = &fakeUploader{err: uploadErr}
		app.pmrem = baker

		assert.ErrorIs(t, app.applyEnvironment(img), uploadErr)
		assert.Nil(t, app.Scene.Environment)
		assert.Equal(t, 1, baker.disposed)
		assert.Nil(t, app.pmrem)
	})

	t.Run("prefilter failure", func(t *testing.T) {
		app, err := NewApp(nil)
		require.NoError(t, err)
		baker := &fakeBaker{err: errors.New("framebuffer incomplete")}
		app.uploader = &fakeUploader{}
		app.pmrem = baker

		assert.Error(t, app.applyEnvironment(img))
		assert.Nil(t, app.Scene.Environment)
		assert.Equal(t, 1, baker.disposed)
	})

	t.Run("no generator", func(t *testing.T) {
		app, err := NewApp(nil)
		require.NoError(t, err)
		app.uploader = &fakeUploader{}

		assert.Error(t, app.applyEnvironment(img))
	})
}

func TestNewComposerPasses(t *testing.T) {
	rend := renderer.NewOpenGLRenderer(renderer.DefaultSettings())
	rend.SetSize(1280, 720)
	scene := renderer.NewScene()
	camera := renderer.NewPerspectiveCamera(40, 16.0/9.0, 0.1, 100)

	composer := newComposer(rend, scene, camera, config.DefaultConfig().Effect)
	passes := composer.Passes()
	require.Len(t, passes, 2)
	render, ok := passes[0].(*renderer.RenderPass)
	require.True(t, ok)
	assert.Same(t, scene, render.Scene)
	shift, ok := passes[1].(*renderer.ShaderPass)
	require.True(t, ok)
	assert.Equal(t, "rgb_shift", shift.Shader.Name)
	assert.Equal(t, float32(0.003), shift.Uniforms["amount"])

	composer = newComposer(rend, scene, camera, config.EffectConfig{})
	passes = composer.Passes()
	require.Len(t, passes, 2)
	copyPass, ok := passes[1].(*renderer.ShaderPass)
	require.True(t, ok)
	assert.Equal(t, "copy", copyPass.Shader.Name)
}
