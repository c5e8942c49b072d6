package config

import (
	"log/slog"

	"github.com/joho/godotenv"
)

// envFiles are tried in order; variables already set in the process win.
var envFiles = []string{".env", ".env.local"}

// loadEnvFiles loads .env files so ${VAR} references in the config resolve.
// Missing files are normal and only logged at debug level.
func loadEnvFiles() {
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil {
			slog.Debug("env file not loaded", "file", f, "error", err)
			continue
		}
		slog.Debug("Loaded environment variables", "file", f)
	}
}
