package loader

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"

	"github.com/mdouchement/hdr"
	"github.com/mdouchement/hdr/codec/rgbe"
	"go.uber.org/zap"

	"Prism3D/internal/logger"
	"Prism3D/internal/renderer"
)

var (
	ErrUnsupportedScheme = errors.New("unsupported url scheme")
	ErrNotHDR            = errors.New("not a radiance hdr image")
	ErrHTTPStatus        = errors.New("unexpected http status")
)

// radianceMagic starts both "#?RADIANCE" and "#?RGBE" headers.
var radianceMagic = []byte("#?")

// FetchHDRI reads a Radiance .hdr image from an http(s) URL, a file URL or
// a local path and decodes it into linear float RGB.
func FetchHDRI(ctx context.Context, client *http.Client, src string) (*renderer.EquirectImage, error) {
	rc, err := openSource(ctx, client, src)
	if err != nil {
		return nil, fmt.Errorf("fetch hdri %s: %w", src, err)
	}
	defer rc.Close()

	img, err := DecodeHDR(rc)
	if err != nil {
		return nil, fmt.Errorf("fetch hdri %s: %w", src, err)
	}
	logger.Log.Info("HDRI loaded",
		zap.String("src", src),
		zap.Int("width", img.Width),
		zap.Int("height", img.Height))
	return img, nil
}

func openSource(ctx context.Context, client *http.Client, src string) (io.ReadCloser, error) {
	u, err := url.Parse(src)
	// Single letter schemes are Windows drive letters.
	if err != nil || len(u.Scheme) <= 1 {
		return os.Open(src)
	}

	switch u.Scheme {
	case "http", "https":
		if client == nil {
			client = http.DefaultClient
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
		if err != nil {
			return nil, err
		}
		resp, err := client.Do(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, fmt.Errorf("%w: %s", ErrHTTPStatus, resp.Status)
		}
		return resp.Body, nil
	case "file":
		path := u.Path
		if u.Host != "" && u.Host != "localhost" {
			path = "//" + u.Host + path
		}
		return os.Open(filepath.FromSlash(path))
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedScheme, u.Scheme)
	}
}

// DecodeHDR decodes an RGBE stream. Row 0 of the result is the top of the panorama.
func DecodeHDR(r io.Reader) (*renderer.EquirectImage, error) {
	br := bufio.NewReader(r)
	magic, err := br.Peek(len(radianceMagic))
	if err != nil || !bytes.Equal(magic, radianceMagic) {
		return nil, ErrNotHDR
	}

	decoded, err := rgbe.Decode(br)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotHDR, err)
	}
	hdrImg, ok := decoded.(hdr.Image)
	if !ok {
		return nil, fmt.Errorf("%w: decoder returned %T", ErrNotHDR, decoded)
	}

	bounds := hdrImg.Bounds()
	out := renderer.NewEquirectImage(bounds.Dx(), bounds.Dy())
	for y := 0; y < out.Height; y++ {
		for x := 0; x < out.Width; x++ {
			r, g, b, _ := hdrImg.HDRAt(bounds.Min.X+x, bounds.Min.Y+y).HDRRGBA()
			out.Set(x, y, float32(r), float32(g), float32(b))
		}
	}
	return out, nil
}
