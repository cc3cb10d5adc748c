package engine

import (
	"Prism3D/internal/config"
	"Prism3D/internal/renderer"
)

// RendererSettings translates the render section of the config.
func RendererSettings(cfg config.RenderConfig) renderer.Settings {
	s := renderer.Settings{
		Antialias:           cfg.Antialias,
		Samples:             cfg.Samples,
		Alpha:               cfg.Alpha,
		ToneMapping:         renderer.NoToneMapping,
		ToneMappingExposure: cfg.Exposure,
		OutputColorSpace:    renderer.LinearSRGBColorSpace,
		MaxPixelRatio:       cfg.MaxPixelRatio,
		FaceCulling:         cfg.FaceCulling,
		Wireframe:           cfg.Wireframe,
	}
	if cfg.ToneMapping == config.ToneMappingACESFilmic {
		s.ToneMapping = renderer.ACESFilmicToneMapping
	}
	if cfg.ColorSpace == config.ColorSpaceSRGB {
		s.OutputColorSpace = renderer.SRGBColorSpace
	}
	return s
}
