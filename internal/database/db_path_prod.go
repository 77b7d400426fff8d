//go:build prod

package database

import (
	"log"
	"os"
	"path/filepath"

	"airender/internal/config"
)

// GetDefaultDBPath returns <config root>/airender.db for release builds.
func GetDefaultDBPath() string {
	appDir := config.DefaultConfigRoot()
	if err := os.MkdirAll(appDir, 0755); err != nil {
		log.Printf("Warning: Failed to create app config dir: %v. Using fallback.", err)
		return "airender.db"
	}
	return filepath.Join(appDir, "airender.db")
}

func IsDevelopment() bool {
	return false
}
