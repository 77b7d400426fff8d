package utils

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// FindProjectRoot walks up from the working directory to the nearest go.mod.
func FindProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		if FileExists(filepath.Join(dir, "go.mod")) {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", os.ErrNotExist
}

// LoadEnv loads the first .env found in the project root or the given extra
// directories. Variables already set in the environment win. It returns
// os.ErrNotExist when no file was found.
func LoadEnv(extraDirs ...string) error {
	var dirs []string
	if root, err := FindProjectRoot(); err == nil {
		dirs = append(dirs, root)
	}
	dirs = append(dirs, extraDirs...)

	for _, dir := range dirs {
		envPath := filepath.Join(dir, ".env")
		if !FileExists(envPath) {
			continue
		}
		return godotenv.Load(envPath)
	}
	return os.ErrNotExist
}

// IsNotFound reports whether err is the "no .env file" result of LoadEnv.
func IsNotFound(err error) bool {
	return errors.Is(err, os.ErrNotExist)
}
