// Package filesystem holds small path helpers shared across adapters.
package filesystem

import "os"

// UserHomeDir returns the current user's home directory.
// If the home directory cannot be determined, it returns "." as a fallback.
func UserHomeDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return home
	}
	return "."
}

// UserCacheDir returns the platform cache root, falling back to the home
// directory when it cannot be determined.
func UserCacheDir() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return dir
	}
	return UserHomeDir()
}
