package loader

import (
	"bytes"
	"context"
	"image"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/mdouchement/hdr"
	"github.com/mdouchement/hdr/codec/rgbe"
	"github.com/mdouchement/hdr/hdrcolor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Prism3D/internal/renderer"
)

// encodeTestHDR builds a small panorama with a bright top row. The values
// are exactly representable in RGBE.
func encodeTestHDR(t *testing.T, width, height int) []byte {
	t.Helper()
	img := hdr.NewRGB(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			c := hdrcolor.RGB{R: 0.25, G: 0.25, B: 0.25}
			if y == 0 {
				c = hdrcolor.RGB{R: 4, G: 2, B: 1}
			}
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, rgbe.Encode(&buf, img))
	return buf.Bytes()
}

func assertTestPanorama(t *testing.T, width, height int, got *renderer.EquirectImage) {
	t.Helper()
	r, g, b := got.At(width-1, 0)
	assert.InDelta(t, 4, r, 0.05)
	assert.InDelta(t, 2, g, 0.05)
	assert.InDelta(t, 1, b, 0.05)

	r, g, b = got.At(0, height-1)
	assert.InDelta(t, 0.25, r, 0.01)
	assert.InDelta(t, 0.25, g, 0.01)
	assert.InDelta(t, 0.25, b, 0.01)
}

func TestFetchHDRIOverHTTP(t *testing.T) {
	data := encodeTestHDR(t, 8, 4)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		w.Header().Set("Content-Type", "image/vnd.radiance")
		w.Write(data)
	}))
	defer srv.Close()

	img, err := FetchHDRI(context.Background(), srv.Client(), srv.URL+"/env.hdr")
	require.NoError(t, err)

	assert.Equal(t, 8, img.Width)
	assert.Equal(t, 4, img.Height)
	assert.Len(t, img.Pix, 8*4*3)
	assertTestPanorama(t, 8, 4, img)
}

func TestFetchHDRIHTTPStatus(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	_, err := FetchHDRI(context.Background(), srv.Client(), srv.URL+"/missing.hdr")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrHTTPStatus)
	assert.Contains(t, err.Error(), "404")
}

func TestFetchHDRINotHDR(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>not an image</html>"))
	}))
	defer srv.Close()

	_, err := FetchHDRI(context.Background(), srv.Client(), srv.URL)
	assert.ErrorIs(t, err, ErrNotHDR)
}

func TestFetchHDRIEmptyBody(t *testing.T) {
	_, err := DecodeHDR(bytes.NewReader(nil))
	assert.ErrorIs(t, err, ErrNotHDR)
}

func TestFetchHDRIFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "env.hdr")
	require.NoError(t, os.WriteFile(path, encodeTestHDR(t, 16, 8), 0o644))

	t.Run("path", func(t *testing.T) {
		img, err := FetchHDRI(context.Background(), nil, path)
		require.NoError(t, err)
		assert.Equal(t, 16, img.Width)
		assertTestPanorama(t, 16, 8, img)
	})

	t.Run("file url", func(t *testing.T) {
		img, err := FetchHDRI(context.Background(), nil, "file://"+filepath.ToSlash(path))
		require.NoError(t, err)
		assert.Equal(t, 8, img.Height)
	})

	t.Run("missing", func(t *testing.T) {
		_, err := FetchHDRI(context.Background(), nil, filepath.Join(t.TempDir(), "nope.hdr"))
		assert.ErrorIs(t, err, os.ErrNotExist)
	})
}

func TestFetchHDRIUnsupportedScheme(t *testing.T) {
	_, err := FetchHDRI(context.Background(), nil, "ftp://example.com/env.hdr")
	assert.ErrorIs(t, err, ErrUnsupportedScheme)
}

func TestFetchHDRICancelled(t *testing.T) {
	data := encodeTestHDR(t, 8, 4)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(data)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := FetchHDRI(ctx, srv.Client(), srv.URL)
	assert.ErrorIs(t, err, context.Canceled)
}
