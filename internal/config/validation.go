package config

import (
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	ferrors "git.home.luguber.info/inful/assetpipe/internal/foundation/errors"
)

// Validate checks cross-field invariants after defaults have been applied.
func Validate(cfg *Config) error {
	if err := validatePaths(cfg.Paths); err != nil {
		return err
	}
	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		return ferrors.ConfigError("server port out of range").WithContext("port", cfg.Server.Port).Build()
	}
	switch cfg.CSS.Style {
	case "expanded", "compressed":
	default:
		return ferrors.ConfigError("css style must be expanded or compressed").WithContext("style", cfg.CSS.Style).Build()
	}
	if cfg.Images.JPEGQuality < 0 || cfg.Images.JPEGQuality > 100 {
		return ferrors.ConfigError("jpeg quality must be between 0 and 100").WithContext("jpeg_quality", cfg.Images.JPEGQuality).Build()
	}
	if cfg.Parallelism < 0 {
		return ferrors.ConfigError("parallelism cannot be negative").Build()
	}
	if cfg.Watch.Debounce < 0 || cfg.Watch.PollInterval < 0 {
		return ferrors.ConfigError("watch durations cannot be negative").Build()
	}
	return validateBindings(cfg.Watch.Bindings)
}

func validatePaths(p PathsConfig) error {
	src := filepath.Clean(p.Src)
	dest := filepath.Clean(p.Dest)
	if dest == "." || dest == string(filepath.Separator) {
		return ferrors.ConfigError("refusing to use the project root as output directory").WithContext("dest", p.Dest).Build()
	}
	// clean removes dest, so it must never contain the sources.
	if src == dest || strings.HasPrefix(src+string(filepath.Separator), dest+string(filepath.Separator)) {
		return ferrors.ConfigError("output directory must not contain the source directory").
			WithContext("src", p.Src).
			WithContext("dest", p.Dest).
			Build()
	}
	return nil
}

func validateBindings(bindings []BindingConfig) error {
	seen := make(map[string]bool, len(bindings))
	for _, b := range bindings {
		if b.Task == "" || b.Root == "" {
			return ferrors.ConfigError("watch binding requires root and task").WithContext("binding", b.Name).Build()
		}
		if seen[b.Name] {
			return ferrors.ConfigError("duplicate watch binding name").WithContext("binding", b.Name).Build()
		}
		seen[b.Name] = true
		for _, pat := range b.Patterns {
			if !doublestar.ValidatePattern(pat) {
				return ferrors.ConfigError("invalid watch pattern").
					WithContext("binding", b.Name).
					WithContext("pattern", pat).
					Build()
			}
		}
	}
	return nil
}
