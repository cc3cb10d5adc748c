package config

const (
	DefaultHDRI  = "https://dl.polyhaven.org/file/ph-assets/HDRIs/hdr/1k/pond_bridge_night_1k.hdr"
	DefaultModel = "DamagedHelmet.gltf"
)

// Tone mapping and color space names accepted by RenderConfig.
const (
	ToneMappingNone       = "none"
	ToneMappingACESFilmic = "aces_filmic"
	ColorSpaceSRGB        = "srgb"
	ColorSpaceLinearSRGB  = "linear_srgb"
	EaseOut               = "ease_out"
	EaseLinear            = "linear"
	EaseSpring            = "spring"
)

// DefaultConfig returns the settings of the original demo.
func DefaultConfig() *Config {
	return &Config{
		Window: WindowConfig{
			Title:        "Prism3D",
			Width:        1280,
			Height:       720,
			DarkTitleBar: true,
		},
		Camera: CameraConfig{
			Fov:       40,
			Near:      0.1,
			Far:       100,
			DistanceZ: 4,
		},
		Render: RenderConfig{
			Antialias:       true,
			Samples:         4,
			Alpha:           true,
			ToneMapping:     ToneMappingACESFilmic,
			Exposure:        1.0,
			ColorSpace:      ColorSpaceSRGB,
			MaxPixelRatio:   2,
			EnvironmentSize: 512,
			FaceCulling:     true,
		},
		Effect: EffectConfig{
			Amount: 0.003,
			Angle:  0,
		},
		Interaction: InteractionConfig{
			Damping:         0.12,
			DurationSeconds: 0.8,
			Ease:            EaseOut,
		},
		Assets: AssetsConfig{
			HDRI:  DefaultHDRI,
			Model: DefaultModel,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}
