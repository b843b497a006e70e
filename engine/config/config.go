// Package config holds the runtime configuration of the demo.
// Values come from defaults, an optional oxy-msaa.yaml, OXY_ environment variables (a .env file is honoured)
// and command line flags bound by the caller, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	// EnvPrefix is the prefix for environment variable overrides, e.g. OXY_RENDER_MSAA=8.
	EnvPrefix = "OXY"

	// FileName is the base name of the optional config file searched in the working directory.
	FileName = "oxy-msaa"
)

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

// Config is the complete runtime configuration.
type Config struct {
	Window  WindowConfig `mapstructure:"window"`
	Render  RenderConfig `mapstructure:"render"`
	Assets  AssetConfig  `mapstructure:"assets"`
	Log     LogConfig    `mapstructure:"log"`
	Profile string       `mapstructure:"profile"`
}

// WindowConfig describes the demo window.
type WindowConfig struct {
	Width  int    `mapstructure:"width"`
	Height int    `mapstructure:"height"`
	Title  string `mapstructure:"title"`
}

// RenderConfig describes the renderer and the multisample target.
type RenderConfig struct {
	MSAA            int    `mapstructure:"msaa"`
	VSync           bool   `mapstructure:"vsync"`
	FallbackAdapter bool   `mapstructure:"fallback_adapter"`
	WGPULogLevel    string `mapstructure:"wgpu_log_level"`
}

// AssetConfig holds the on-disk asset locations.
type AssetConfig struct {
	ShaderDir string `mapstructure:"shader_dir"`
	Model     string `mapstructure:"model"`
	SkyboxDir string `mapstructure:"skybox_dir"`
	Icon      string `mapstructure:"icon"`
}

// LogConfig describes where and how verbosely the run log is written.
type LogConfig struct {
	Dir   string `mapstructure:"dir"`
	Level string `mapstructure:"level"`
}

// ShaderPaths returns the vertex and fragment source paths of a named shader program.
//
// Parameters:
//   - name: the program name, e.g. "phong"
//
// Returns:
//   - string: the vertex stage path
//   - string: the fragment stage path
func (a AssetConfig) ShaderPaths(name string) (string, string) {
	return filepath.Join(a.ShaderDir, name+".vert.wgsl"), filepath.Join(a.ShaderDir, name+".frag.wgsl")
}

// SetDefaults registers every default value on v.
//
// Parameters:
//   - v: the viper instance to populate
func SetDefaults(v *viper.Viper) {
	v.SetDefault("window.width", 1280)
	v.SetDefault("window.height", 720)
	v.SetDefault("window.title", "togl_demo")

	v.SetDefault("render.msaa", 4)
	v.SetDefault("render.vsync", true)
	v.SetDefault("render.fallback_adapter", false)
	v.SetDefault("render.wgpu_log_level", "warn")

	v.SetDefault("assets.shader_dir", filepath.Join("assets", "shaders"))
	v.SetDefault("assets.model", filepath.Join("assets", "glb", "model_nvidia.glb"))
	v.SetDefault("assets.skybox_dir", filepath.Join("assets", "textures", "skybox"))
	v.SetDefault("assets.icon", filepath.Join("assets", "ico", "icon.png"))

	v.SetDefault("log.dir", ".")
	v.SetDefault("log.level", "info")

	v.SetDefault("profile", "")
}

// NewViper returns a viper instance with defaults, env binding and config file search paths applied.
// A .env file in the working directory is loaded into the process environment first when present.
//
// Returns:
//   - *viper.Viper: the configured viper instance
func NewViper() *viper.Viper {
	// A missing .env is the normal case.
	_ = godotenv.Load()

	v := viper.New()
	SetDefaults(v)

	v.SetConfigName(FileName)
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v
}

// Load reads the optional config file and decodes v into a validated Config.
//
// Parameters:
//   - v: the viper instance, usually from NewViper with flags already bound
//
// Returns:
//   - Config: the decoded configuration
//   - error: an error if the config file is malformed or validation fails
func Load(v *viper.Viper) (Config, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate checks value ranges.
//
// Returns:
//   - error: an error wrapping ErrInvalidConfig, or nil if the config is usable
func (c Config) Validate() error {
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return fmt.Errorf("%w: window size %dx%d must be positive", ErrInvalidConfig, c.Window.Width, c.Window.Height)
	}
	switch c.Render.MSAA {
	case 0, 2, 4, 8:
	default:
		return fmt.Errorf("%w: render.msaa %d must be one of 0, 2, 4, 8", ErrInvalidConfig, c.Render.MSAA)
	}
	switch c.Profile {
	case "", "cpu", "mem":
	default:
		return fmt.Errorf("%w: profile %q must be cpu or mem", ErrInvalidConfig, c.Profile)
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}
	return nil
}
