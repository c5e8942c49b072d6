package config

import (
	"bytes"
	"errors"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	ferrors "git.home.luguber.info/inful/assetpipe/internal/foundation/errors"
)

// DefaultFile is the configuration file looked up in the project root.
const DefaultFile = "assetpipe.yaml"

// Config is the assetpipe configuration. Every field has a default, so a
// project without a config file gets the standard app/ → dist/ layout.
type Config struct {
	Paths       PathsConfig  `yaml:"paths"`
	CSS         CSSConfig    `yaml:"css"`
	Images      ImagesConfig `yaml:"images"`
	Scripts     ScriptConfig `yaml:"scripts"`
	Server      ServerConfig `yaml:"server"`
	Watch       WatchConfig  `yaml:"watch"`
	Notify      NotifyConfig `yaml:"notify"`
	Parallelism int          `yaml:"parallelism"`
}

// PathsConfig describes the source and output layout. Sub-directories are
// relative to Src; Dest-side directories mirror the source names.
type PathsConfig struct {
	Src    string `yaml:"src"`
	Dest   string `yaml:"dest"`
	Sass   string `yaml:"sass"`
	CSS    string `yaml:"css"`
	JS     string `yaml:"js"`
	Images string `yaml:"images"`
	Fonts  string `yaml:"fonts"`
	Video  string `yaml:"video"`
}

// CSSConfig controls the stylesheet task.
type CSSConfig struct {
	SassCommand    string `yaml:"sass_command"`
	Style          string `yaml:"style"`
	PostCSSCommand string `yaml:"postcss_command"`
	Autoprefix     *bool  `yaml:"autoprefix"`
	Minify         *bool  `yaml:"minify"`
}

// ImagesConfig toggles the per-format optimizers.
type ImagesConfig struct {
	GIF         *bool `yaml:"gif"`
	PNG         *bool `yaml:"png"`
	SVG         *bool `yaml:"svg"`
	JPEGQuality int   `yaml:"jpeg_quality"` // 0 keeps JPEGs byte-for-byte
}

// ScriptConfig controls the scripts tasks.
type ScriptConfig struct {
	Lint *bool `yaml:"lint"`
}

// ServerConfig configures the development server started by watch.
type ServerConfig struct {
	Host       string `yaml:"host"`
	Port       int    `yaml:"port"`
	BaseDir    string `yaml:"base_dir"`
	LiveReload *bool  `yaml:"live_reload"`
	Metrics    *bool  `yaml:"metrics"`
}

// WatchConfig configures the watch supervisor.
type WatchConfig struct {
	Debounce     time.Duration   `yaml:"debounce"`
	PollInterval time.Duration   `yaml:"poll_interval"`
	ForcePolling bool            `yaml:"force_polling"`
	Bindings     []BindingConfig `yaml:"bindings"`
}

// BindingConfig binds glob patterns under Root to a registered task.
type BindingConfig struct {
	Name     string   `yaml:"name"`
	Root     string   `yaml:"root"`
	Patterns []string `yaml:"patterns"`
	Task     string   `yaml:"task"`
}

// NotifyConfig enables the optional NATS reload fan-out.
type NotifyConfig struct {
	NATSURL string `yaml:"nats_url"`
	Subject string `yaml:"subject"`
}

// Load reads configPath, expanding ${VAR} references after loading .env files.
// A missing file is not an error: the defaults are returned instead.
func Load(configPath string) (*Config, error) {
	loadEnvFiles()

	data, err := os.ReadFile(configPath)
	switch {
	case errors.Is(err, os.ErrNotExist):
		data = nil
	case err != nil:
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "failed to read config file").
			WithContext("path", configPath).
			Build()
	}

	cfg, err := Parse(data)
	if err != nil {
		if ce, ok := ferrors.AsClassified(err); ok {
			return nil, ce.WithContext("path", configPath)
		}
		return nil, err
	}
	return cfg, nil
}

// Parse decodes YAML configuration, applies defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := &Config{}
	expanded := os.ExpandEnv(string(data))
	dec := yaml.NewDecoder(bytes.NewReader([]byte(expanded)))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "failed to unmarshal config").Build()
	}
	if err := ApplyDefaults(cfg); err != nil {
		return nil, err
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	cfg := &Config{}
	_ = ApplyDefaults(cfg)
	return cfg
}

// Enabled dereferences an optional boolean toggle.
func Enabled(b *bool) bool {
	return b != nil && *b
}
