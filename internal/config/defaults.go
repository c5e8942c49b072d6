package config

import (
	"path"
	"time"
)

// DefaultApplier applies defaults for a specific configuration domain.
type DefaultApplier interface {
	ApplyDefaults(cfg *Config) error
	Domain() string
}

// appliers run in order; watch defaults depend on the resolved paths.
var appliers = []DefaultApplier{
	&PathsDefaultApplier{},
	&CSSDefaultApplier{},
	&ImagesDefaultApplier{},
	&ServerDefaultApplier{},
	&WatchDefaultApplier{},
	&NotifyDefaultApplier{},
}

// ApplyDefaults fills every unset field.
func ApplyDefaults(cfg *Config) error {
	for _, a := range appliers {
		if err := a.ApplyDefaults(cfg); err != nil {
			return err
		}
	}
	return nil
}

// PathsDefaultApplier handles the app/ → dist/ layout defaults.
type PathsDefaultApplier struct{}

func (PathsDefaultApplier) Domain() string { return "paths" }

func (PathsDefaultApplier) ApplyDefaults(cfg *Config) error {
	p := &cfg.Paths
	setDefault(&p.Src, "app")
	setDefault(&p.Dest, "dist")
	setDefault(&p.Sass, "sass")
	setDefault(&p.CSS, "css")
	setDefault(&p.JS, "js")
	setDefault(&p.Images, "images")
	setDefault(&p.Fonts, "fonts")
	setDefault(&p.Video, "video")
	return nil
}

// DefaultPostCSSCommand reads CSS on stdin and writes the prefixed result to stdout.
const DefaultPostCSSCommand = "postcss --use autoprefixer --no-map"

// CSSDefaultApplier handles stylesheet defaults.
type CSSDefaultApplier struct{}

func (CSSDefaultApplier) Domain() string { return "css" }

func (CSSDefaultApplier) ApplyDefaults(cfg *Config) error {
	setDefault(&cfg.CSS.SassCommand, "sass")
	setDefault(&cfg.CSS.Style, "expanded")
	setDefault(&cfg.CSS.PostCSSCommand, DefaultPostCSSCommand)
	setDefaultBool(&cfg.CSS.Autoprefix, true)
	setDefaultBool(&cfg.CSS.Minify, true)
	setDefaultBool(&cfg.Scripts.Lint, true)
	return nil
}

// ImagesDefaultApplier enables every lossless optimizer.
type ImagesDefaultApplier struct{}

func (ImagesDefaultApplier) Domain() string { return "images" }

func (ImagesDefaultApplier) ApplyDefaults(cfg *Config) error {
	setDefaultBool(&cfg.Images.GIF, true)
	setDefaultBool(&cfg.Images.PNG, true)
	setDefaultBool(&cfg.Images.SVG, true)
	return nil
}

// ServerDefaultApplier serves the source directory on port 3000.
type ServerDefaultApplier struct{}

func (ServerDefaultApplier) Domain() string { return "server" }

func (ServerDefaultApplier) ApplyDefaults(cfg *Config) error {
	setDefault(&cfg.Server.Host, "localhost")
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 3000
	}
	setDefault(&cfg.Server.BaseDir, cfg.Paths.Src)
	setDefaultBool(&cfg.Server.LiveReload, true)
	setDefaultBool(&cfg.Server.Metrics, true)
	return nil
}

// WatchDefaultApplier installs the standard bindings: styles, scripts, images.
type WatchDefaultApplier struct{}

func (WatchDefaultApplier) Domain() string { return "watch" }

func (WatchDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = 300 * time.Millisecond
	}
	if cfg.Watch.PollInterval == 0 {
		cfg.Watch.PollInterval = time.Second
	}
	if len(cfg.Watch.Bindings) == 0 {
		p := cfg.Paths
		cfg.Watch.Bindings = []BindingConfig{
			{Name: "styles", Root: path.Join(p.Src, p.Sass), Patterns: []string{"**/*"}, Task: "css"},
			{Name: "scripts", Root: path.Join(p.Src, p.JS), Patterns: []string{"**/*"}, Task: "js"},
			{Name: "images", Root: path.Join(p.Src, p.Images), Patterns: []string{"**/*"}, Task: "images"},
		}
	}
	for i := range cfg.Watch.Bindings {
		b := &cfg.Watch.Bindings[i]
		if len(b.Patterns) == 0 {
			b.Patterns = []string{"**/*"}
		}
		setDefault(&b.Name, b.Task)
	}
	return nil
}

// NotifyDefaultApplier sets the reload subject.
type NotifyDefaultApplier struct{}

func (NotifyDefaultApplier) Domain() string { return "notify" }

func (NotifyDefaultApplier) ApplyDefaults(cfg *Config) error {
	setDefault(&cfg.Notify.Subject, "assetpipe.reload")
	return nil
}

func setDefault(field *string, value string) {
	if *field == "" {
		*field = value
	}
}

func setDefaultBool(field **bool, value bool) {
	if *field == nil {
		v := value
		*field = &v
	}
}
