package renderer

import (
	"errors"
	"image"
	"image/draw"
	"sync"

	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"

	"Prism3D/internal/logger"
)

var errEmptyTexture = errors.New("texture has no pixel data")

// TextureStats provides debugging and profiling information
type TextureStats struct {
	TotalTextures  int
	CacheHits      int
	CacheMisses    int
	ActiveTextures int
}

// TextureManager manages texture uploads, caching, and lifecycle
type TextureManager struct {
	textureCache    map[string]uint32 // name -> OpenGL texture ID
	textureRefCount map[uint32]int    // texture ID -> reference count
	textureNames    map[uint32]string // texture ID -> name (for debugging)
	mu              sync.RWMutex
	stats           TextureStats

	deleteTexture func(id uint32)
}

// NewTextureManager creates a new texture manager instance
func NewTextureManager() *TextureManager {
	return &TextureManager{
		textureCache:    make(map[string]uint32),
		textureRefCount: make(map[uint32]int),
		textureNames:    make(map[uint32]string),
		deleteTexture: func(id uint32) {
			gl.DeleteTextures(1, &id)
		},
	}
}

// lookup returns a cached texture and takes a reference on it.
// Caller must hold the lock.
func (tm *TextureManager) lookup(name string) (uint32, bool) {
	textureID, exists := tm.textureCache[name]
	if !exists {
		tm.stats.CacheMisses++
		return 0, false
	}
	tm.textureRefCount[textureID]++
	tm.stats.CacheHits++
	logger.Log.Debug("Texture cache hit",
		zap.String("name", name),
		zap.Uint32("textureID", textureID),
		zap.Int("refCount", tm.textureRefCount[textureID]))
	return textureID, true
}

// track records a freshly created texture with one reference.
// Caller must hold the lock.
func (tm *TextureManager) track(name string, textureID uint32) {
	tm.textureCache[name] = textureID
	tm.textureRefCount[textureID] = 1
	tm.textureNames[textureID] = name
	tm.stats.TotalTextures++
	tm.stats.ActiveTextures++
}

// Upload creates the GL texture for a decoded model image, or reuses the cached
// one with the same name. The decoded image is dropped once it lives on the GPU.
func (tm *TextureManager) Upload(src *TextureSource) (uint32, error) {
	if src.ID != 0 {
		return src.ID, nil
	}
	tm.mu.Lock()
	defer tm.mu.Unlock()

	if textureID, ok := tm.lookup(src.Name); ok {
		src.ID = textureID
		src.Image = nil
		return textureID, nil
	}
	if src.Image == nil {
		return 0, errEmptyTexture
	}

	internalFormat := int32(gl.RGBA8)
	if src.SRGB {
		internalFormat = gl.SRGB8_ALPHA8
	}
	textureID := uploadRGBA(toRGBA(src.Image), internalFormat, true)
	tm.track(src.Name, textureID)

	logger.Log.Info("Texture loaded and cached",
		zap.String("name", src.Name),
		zap.Uint32("textureID", textureID),
		zap.Int("width", src.Image.Bounds().Dx()),
		zap.Int("height", src.Image.Bounds().Dy()),
		zap.Bool("srgb", src.SRGB))

	src.ID = textureID
	src.Image = nil
	return textureID, nil
}

// CreateTextureFromImage creates a texture from an image.Image
// Used for generated textures like the white fallback
func (tm *TextureManager) CreateTextureFromImage(img image.Image, name string) (uint32, error) {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	if textureID, ok := tm.lookup(name); ok {
		return textureID, nil
	}

	textureID := uploadRGBA(toRGBA(img), gl.RGBA8, false)
	tm.track(name, textureID)

	logger.Log.Info("Texture created from image",
		zap.String("name", name),
		zap.Uint32("textureID", textureID))

	return textureID, nil
}

// CreateHDRTexture uploads a float equirectangular image with a full mip chain.
// The texture is not cached by name; release it with ReleaseTexture.
func (tm *TextureManager) CreateHDRTexture(img *EquirectImage, name string) (uint32, error) {
	if img == nil || len(img.Pix) == 0 {
		return 0, errEmptyTexture
	}
	tm.mu.Lock()
	defer tm.mu.Unlock()

	var textureID uint32
	gl.GenTextures(1, &textureID)
	gl.BindTexture(gl.TEXTURE_2D, textureID)
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 4)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGB32F, int32(img.Width), int32(img.Height), 0, gl.RGB, gl.FLOAT, gl.Ptr(img.Pix))
	gl.GenerateMipmap(gl.TEXTURE_2D)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR_MIPMAP_LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.REPEAT)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)

	tm.textureRefCount[textureID] = 1
	tm.textureNames[textureID] = name
	tm.stats.TotalTextures++
	tm.stats.ActiveTextures++

	logger.Log.Info("HDR texture created",
		zap.String("name", name),
		zap.Uint32("textureID", textureID),
		zap.Int("width", img.Width),
		zap.Int("height", img.Height))
	return textureID, nil
}

// ReleaseTexture decrements reference count and frees texture if count reaches 0
func (tm *TextureManager) ReleaseTexture(textureID uint32) {
	if textureID == 0 {
		return
	}

	tm.mu.Lock()
	defer tm.mu.Unlock()

	refCount, exists := tm.textureRefCount[textureID]
	if !exists {
		logger.Log.Warn("Attempted to release unknown texture",
			zap.Uint32("textureID", textureID))
		return
	}

	refCount--
	tm.textureRefCount[textureID] = refCount

	if refCount <= 0 {
		tm.deleteTexture(textureID)

		name := tm.textureNames[textureID]
		if cached, ok := tm.textureCache[name]; ok && cached == textureID {
			delete(tm.textureCache, name)
		}
		delete(tm.textureRefCount, textureID)
		delete(tm.textureNames, textureID)
		tm.stats.ActiveTextures--

		logger.Log.Debug("Texture freed",
			zap.Uint32("textureID", textureID),
			zap.String("name", name))
	}
}

// GetStats returns current texture manager statistics
func (tm *TextureManager) GetStats() TextureStats {
	tm.mu.RLock()
	defer tm.mu.RUnlock()

	stats := tm.stats
	stats.ActiveTextures = len(tm.textureRefCount)
	return stats
}

// LogStats logs current texture statistics
func (tm *TextureManager) LogStats() {
	stats := tm.GetStats()
	var hitRate float64
	if lookups := stats.CacheHits + stats.CacheMisses; lookups > 0 {
		hitRate = float64(stats.CacheHits) / float64(lookups)
	}
	logger.Log.Info("Texture Manager Stats",
		zap.Int("totalTextures", stats.TotalTextures),
		zap.Int("activeTextures", stats.ActiveTextures),
		zap.Int("cacheHits", stats.CacheHits),
		zap.Int("cacheMisses", stats.CacheMisses),
		zap.Float64("hitRate", hitRate))
}

// Clear releases all textures
func (tm *TextureManager) Clear() {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	for textureID := range tm.textureRefCount {
		tm.deleteTexture(textureID)
	}

	tm.textureCache = make(map[string]uint32)
	tm.textureRefCount = make(map[uint32]int)
	tm.textureNames = make(map[uint32]string)
	tm.stats.ActiveTextures = 0
}

func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Stride == rgba.Rect.Dx()*4 {
		return rgba
	}
	b := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	return rgba
}

func uploadRGBA(rgba *image.RGBA, internalFormat int32, mipmaps bool) uint32 {
	var textureID uint32
	gl.GenTextures(1, &textureID)
	gl.BindTexture(gl.TEXTURE_2D, textureID)
	gl.TexImage2D(gl.TEXTURE_2D, 0, internalFormat, int32(rgba.Rect.Size().X), int32(rgba.Rect.Size().Y), 0, gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(rgba.Pix))

	if mipmaps {
		gl.GenerateMipmap(gl.TEXTURE_2D)
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR_MIPMAP_LINEAR)
	} else {
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	}
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.REPEAT)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.REPEAT)
	return textureID
}
