package renderer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnvironmentLevels(t *testing.T) {
	assert.Equal(t, int32(6), environmentLevels(512, 256, maxEnvironmentLevels))
	assert.Equal(t, int32(2), environmentLevels(32, 16, maxEnvironmentLevels))
	assert.Equal(t, int32(1), environmentLevels(8, 4, maxEnvironmentLevels))
	assert.Equal(t, int32(3), environmentLevels(4096, 2048, 3))
}

func TestLevelSize(t *testing.T) {
	w, h := levelSize(512, 256, 5)
	assert.Equal(t, int32(16), w)
	assert.Equal(t, int32(8), h)

	w, h = levelSize(4, 2, 4)
	assert.Equal(t, int32(1), w)
	assert.Equal(t, int32(1), h)
}

func TestLevelRoughness(t *testing.T) {
	assert.Equal(t, float32(0), levelRoughness(0, 6))
	assert.Equal(t, float32(1), levelRoughness(5, 6))
	assert.InDelta(t, 0.4, levelRoughness(2, 6), 1e-6)
	assert.Equal(t, float32(0), levelRoughness(0, 1))
}

func TestSourceLod(t *testing.T) {
	assert.Equal(t, float32(0), sourceLod(512, 512, 0))
	assert.Equal(t, float32(0), sourceLod(256, 512, 0))
	assert.InDelta(t, 1, sourceLod(1024, 512, 0), 1e-6)
	assert.InDelta(t, 2, sourceLod(1024, 512, 0.2), 1e-6)
	assert.Equal(t, float32(0), sourceLod(0, 512, 1))
}

func TestEquirectImageAccess(t *testing.T) {
	img := NewEquirectImage(4, 2)
	img.Set(3, 1, 1.5, 2.5, 3.5)

	r, g, b := img.At(3, 1)
	assert.Equal(t, float32(1.5), r)
	assert.Equal(t, float32(2.5), g)
	assert.Equal(t, float32(3.5), b)
	assert.Len(t, img.Pix, 24)
}

func TestHDRTextureDisposeOnce(t *testing.T) {
	var released []uint32
	tex := &HDRTexture{ID: 9, release: func(id uint32) { released = append(released, id) }}

	tex.Dispose()
	tex.Dispose()

	assert.Equal(t, []uint32{9}, released)
	assert.Zero(t, tex.ID)
}
