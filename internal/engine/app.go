// Package engine owns the window and wires the scene, the loaders and the
// interaction handlers into the render loop.
package engine

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"Prism3D/internal/behaviour"
	"Prism3D/internal/config"
	"Prism3D/internal/interaction"
	"Prism3D/internal/loader"
	"Prism3D/internal/logger"
	"Prism3D/internal/renderer"
	"Prism3D/internal/tween"
)

const frameStatsInterval = 5.0

// hdrUploader puts a decoded panorama on the GPU.
type hdrUploader interface {
	UploadHDRTexture(img *renderer.EquirectImage, name string) (*renderer.HDRTexture, error)
}

// environmentBaker prefilters an uploaded panorama into an environment map.
type environmentBaker interface {
	FromEquirectangular(src *renderer.HDRTexture) (*renderer.EnvironmentMap, error)
	Dispose()
}

// App is the application context: everything the loop, the loaders and the
// event callbacks share.
type App struct {
	Config     *config.Config
	Camera     *renderer.Camera
	Renderer   *renderer.OpenGLRenderer
	Composer   *renderer.EffectComposer
	Scene      *renderer.Scene
	Animator   *tween.Animator
	Behaviours *behaviour.BehaviourManager
	Sequence   *loader.Sequence

	window     *glfw.Window
	viewport   *interaction.Viewport
	pointer    *interaction.PointerFollow
	pmrem      environmentBaker
	uploader   hdrUploader
	httpClient *http.Client
	model      *renderer.Model
}

// NewApp validates cfg and prepares the GL-free parts of the application.
func NewApp(cfg *config.Config) (*App, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	app := &App{
		Config:     cfg,
		Scene:      renderer.NewScene(),
		Animator:   tween.NewAnimator(),
		Behaviours: behaviour.NewBehaviourManager(),
		httpClient: &http.Client{Timeout: 2 * time.Minute},
	}
	app.Camera = renderer.NewPerspectiveCamera(cfg.Camera.Fov,
		float32(cfg.Window.Width)/float32(cfg.Window.Height), cfg.Camera.Near, cfg.Camera.Far)
	app.Camera.SetPosition(0, 0, cfg.Camera.DistanceZ)
	app.Camera.LookAt(mgl32.Vec3{0, 0, 0})

	app.Renderer = renderer.NewOpenGLRenderer(RendererSettings(cfg.Render))
	app.uploader = app.Renderer
	app.pointer = interaction.NewPointerFollow(app.Model, app.Animator, cfg.Interaction)
	app.Sequence = loader.NewSequence(app.loadSteps())

	app.Behaviours.Add(app.Animator)
	app.Behaviours.Add(NewFrameStats(frameStatsInterval))
	return app, nil
}

// Model returns the loaded model, or nil while loading or after a failure.
func (app *App) Model() *renderer.Model {
	return app.model
}

// Run opens the window and blocks until it closes or ctx is cancelled. It
// must be called from the main goroutine.
func (app *App) Run(ctx context.Context) error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	if err := glfw.Init(); err != nil {
		return fmt.Errorf("failed to initialize glfw: %w", err)
	}
	defer glfw.Terminate()

	window, err := app.createWindow()
	if err != nil {
		return err
	}
	app.window = window
	defer window.Destroy()

	if err := app.bootstrap(); err != nil {
		return err
	}
	defer app.dispose()
	app.registerCallbacks()

	app.Sequence.Start(ctx)
	loop := &Loop{
		Surface:    glfwSurface{window},
		Now:        glfw.GetTime,
		Sequence:   app.Sequence,
		Behaviours: app.Behaviours,
		Render:     app.Composer.Render,
	}
	logger.Log.Info("Render loop started")
	err = loop.Run(ctx)
	logger.Log.Info("Render loop stopped",
		zap.Int("frames", loop.Frames()),
		zap.Int("render_errors", loop.RenderErrors()))
	return err
}

func (app *App) createWindow() (*glfw.Window, error) {
	cfg := app.Config
	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 1)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	glfw.WindowHint(glfw.Resizable, glfw.True)
	glfw.WindowHint(glfw.DepthBits, 24)
	if cfg.Render.Antialias {
		glfw.WindowHint(glfw.Samples, int(cfg.Render.Samples))
	}
	if cfg.Render.Alpha {
		glfw.WindowHint(glfw.TransparentFramebuffer, glfw.True)
	}

	window, err := glfw.CreateWindow(int(cfg.Window.Width), int(cfg.Window.Height), cfg.Window.Title, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create window: %w", err)
	}
	window.MakeContextCurrent()
	glfw.SwapInterval(1)
	if cfg.Window.DarkTitleBar {
		applyDarkTitleBar(window)
	}
	return window, nil
}

// bootstrap builds the GL side of the scene: renderer, composer and the
// environment prefilter.
func (app *App) bootstrap() error {
	width, height := app.window.GetSize()
	if err := app.Renderer.Init(int32(width), int32(height), app.window); err != nil {
		return fmt.Errorf("failed to initialize renderer: %w", err)
	}

	app.Composer = newComposer(app.Renderer, app.Scene, app.Camera, app.Config.Effect)

	app.viewport = interaction.NewViewport(app.Camera, app.Renderer, app.Composer)
	fbWidth, fbHeight := app.window.GetFramebufferSize()
	app.applyFramebufferSize(width, height, fbWidth, fbHeight)
	app.viewport.Resize(int32(width), int32(height))

	pmrem := renderer.NewPMREMGenerator(app.Renderer, app.Config.Render.EnvironmentSize)
	if err := pmrem.CompileEquirectangularShader(); err != nil {
		logger.Log.Warn("Failed to precompile environment shader", zap.Error(err))
	}
	app.pmrem = pmrem
	return nil
}

// newComposer renders the scene offscreen, then shifts its channels onto the
// screen. Without a shift amount the second pass is a plain copy.
func newComposer(rend *renderer.OpenGLRenderer, scene *renderer.Scene, camera *renderer.Camera, effect config.EffectConfig) *renderer.EffectComposer {
	composer := renderer.NewEffectComposer(rend)
	composer.AddPass(renderer.NewRenderPass(scene, camera))
	if effect.Amount == 0 {
		composer.AddPass(renderer.NewCopyPass())
	} else {
		composer.AddPass(renderer.NewRGBShiftPass(effect.Amount, effect.Angle))
	}
	return composer
}

func (app *App) registerCallbacks() {
	app.window.SetSizeCallback(func(w *glfw.Window, width, height int) {
		app.viewport.Resize(int32(width), int32(height))
	})
	app.window.SetFramebufferSizeCallback(func(w *glfw.Window, fbWidth, fbHeight int) {
		width, height := w.GetSize()
		app.applyFramebufferSize(width, height, fbWidth, fbHeight)
	})
	app.window.SetCursorPosCallback(func(w *glfw.Window, x, y float64) {
		width, height := w.GetSize()
		app.pointer.OnPointerMove(x, y, width, height)
	})
}

// applyFramebufferSize derives the device pixel ratio from the window and
// framebuffer sizes. Minimized windows report zero and are skipped.
func (app *App) applyFramebufferSize(width, height, fbWidth, fbHeight int) {
	if width <= 0 || height <= 0 || fbWidth <= 0 || fbHeight <= 0 {
		return
	}
	ratio := renderer.ClampPixelRatio(float32(fbWidth)/float32(width), app.Config.Render.MaxPixelRatio)
	app.viewport.SetPixelRatio(ratio)
	app.Renderer.SetScreenSize(int32(fbWidth), int32(fbHeight))
}

func (app *App) loadSteps() loader.Steps {
	assets := app.Config.Assets
	return loader.Steps{
		FetchEnvironment: func(ctx context.Context) (*renderer.EquirectImage, error) {
			return loader.FetchHDRI(ctx, app.httpClient, assets.HDRI)
		},
		ApplyEnvironment: app.applyEnvironment,
		FetchModel: func(ctx context.Context) (*renderer.Model, error) {
			return loader.LoadGLTF(ctx, assets.Model)
		},
		AttachModel: app.attachModel,
	}
}

// applyEnvironment prefilters the HDRI and makes it the scene environment.
// The source texture and the generator are released right after.
func (app *App) applyEnvironment(img *renderer.EquirectImage) error {
	if app.pmrem == nil {
		return errors.New("environment generator not initialized")
	}
	defer func() {
		app.pmrem.Dispose()
		app.pmrem = nil
	}()

	src, err := app.uploader.UploadHDRTexture(img, app.Config.Assets.HDRI)
	if err != nil {
		return err
	}
	defer src.Dispose()

	env, err := app.pmrem.FromEquirectangular(src)
	if err != nil {
		return err
	}
	app.Scene.Environment = env
	logger.Log.Info("Environment ready",
		zap.Int32("width", env.Width),
		zap.Int32("height", env.Height),
		zap.Float32("max_lod", env.MaxLod))
	return nil
}

func (app *App) attachModel(model *renderer.Model) error {
	if app.model != nil {
		return fmt.Errorf("model %q already attached", app.model.Name)
	}
	if err := app.Renderer.AddModel(model); err != nil {
		return err
	}
	app.Scene.Add(model)
	app.model = model
	stats := model.Stats()
	logger.Log.Info("Model attached",
		zap.String("name", model.Name),
		zap.Int("primitives", stats.Primitives),
		zap.Int("triangles", stats.Triangles))
	return nil
}

func (app *App) dispose() {
	if app.pmrem != nil {
		app.pmrem.Dispose()
		app.pmrem = nil
	}
	if app.Scene.Environment != nil {
		app.Scene.Environment.Dispose()
		app.Scene.Environment = nil
	}
	if app.Composer != nil {
		app.Composer.Dispose()
	}
	app.Renderer.Cleanup()
}

type glfwSurface struct {
	window *glfw.Window
}

func (s glfwSurface) ShouldClose() bool { return s.window.ShouldClose() }
func (s glfwSurface) SwapBuffers()      { s.window.SwapBuffers() }
func (s glfwSurface) PollEvents()       { glfw.PollEvents() }
