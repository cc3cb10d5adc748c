package config

// Config is the top-level viewer configuration, corresponding to prism.yml.
type Config struct {
	Window      WindowConfig      `yaml:"window" koanf:"window"`
	Camera      CameraConfig      `yaml:"camera" koanf:"camera"`
	Render      RenderConfig      `yaml:"render" koanf:"render"`
	Effect      EffectConfig      `yaml:"effect" koanf:"effect"`
	Interaction InteractionConfig `yaml:"interaction" koanf:"interaction"`
	Assets      AssetsConfig      `yaml:"assets" koanf:"assets"`
	Log         LogConfig         `yaml:"log" koanf:"log"`
}

type WindowConfig struct {
	Title  string `yaml:"title" koanf:"title"`
	Width  int32  `yaml:"width" koanf:"width"`
	Height int32  `yaml:"height" koanf:"height"`
	// DarkTitleBar asks the window manager for a dark caption (Windows only).
	DarkTitleBar bool `yaml:"dark_title_bar" koanf:"dark_title_bar"`
}

// CameraConfig describes the perspective camera. Fov is vertical, in degrees.
type CameraConfig struct {
	Fov       float32 `yaml:"fov" koanf:"fov"`
	Near      float32 `yaml:"near" koanf:"near"`
	Far       float32 `yaml:"far" koanf:"far"`
	DistanceZ float32 `yaml:"distance_z" koanf:"distance_z"`
}

type RenderConfig struct {
	Antialias       bool    `yaml:"antialias" koanf:"antialias"`
	Samples         int32   `yaml:"samples" koanf:"samples"`
	Alpha           bool    `yaml:"alpha" koanf:"alpha"`
	ToneMapping     string  `yaml:"tone_mapping" koanf:"tone_mapping"`
	Exposure        float32 `yaml:"exposure" koanf:"exposure"`
	ColorSpace      string  `yaml:"color_space" koanf:"color_space"`
	MaxPixelRatio   float32 `yaml:"max_pixel_ratio" koanf:"max_pixel_ratio"`
	EnvironmentSize int32   `yaml:"environment_size" koanf:"environment_size"`
	FaceCulling     bool    `yaml:"face_culling" koanf:"face_culling"`
	Wireframe       bool    `yaml:"wireframe" koanf:"wireframe"`
}

// EffectConfig holds the RGB shift pass parameters. Angle is in radians. An
// amount of 0 replaces the shift with a plain copy to the screen.
type EffectConfig struct {
	Amount float32 `yaml:"amount" koanf:"amount"`
	Angle  float32 `yaml:"angle" koanf:"angle"`
}

type InteractionConfig struct {
	Damping         float32 `yaml:"damping" koanf:"damping"`
	DurationSeconds float64 `yaml:"duration_seconds" koanf:"duration_seconds"`
	Ease            string  `yaml:"ease" koanf:"ease"`
}

// AssetsConfig locates the environment image and the model. HDRI accepts
// http(s) URLs, file URLs and plain paths.
type AssetsConfig struct {
	HDRI  string `yaml:"hdri" koanf:"hdri"`
	Model string `yaml:"model" koanf:"model"`
}

type LogConfig struct {
	Level string `yaml:"level" koanf:"level"`
}
