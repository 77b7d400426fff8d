//go:build !prod

package database

// GetDefaultDBPath keeps the dev database in the working directory.
func GetDefaultDBPath() string {
	return "airender.db"
}

func IsDevelopment() bool {
	return true
}
