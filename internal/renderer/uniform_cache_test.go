package renderer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUniformCache(t *testing.T) {
	cache := NewUniformCache(7)

	require.NotNil(t, cache)
	assert.NotNil(t, cache.locations)
	assert.Equal(t, uint32(7), cache.program)
}

func TestUniformCacheReset(t *testing.T) {
	cache := NewUniformCache(0)
	cache.locations["test"] = 5

	cache.Reset(3)

	assert.Empty(t, cache.locations)
	assert.Equal(t, uint32(3), cache.program)
}

func TestUniformCacheReturnsCachedLocation(t *testing.T) {
	cache := NewUniformCache(0)
	cache.locations["amount"] = 4

	// Cached entries never reach the GL driver.
	assert.Equal(t, int32(4), cache.GetLocation("amount"))
}
