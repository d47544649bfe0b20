// Package appdirs resolves the per-user directories this application
// uses: the settings file under the user config directory, the
// project registry and logs under the user data/cache directory.
package appdirs

import (
	"os"
	"path/filepath"
)

const appName = "codectx"

// ConfigPath returns the path to settings.toml under the user config
// directory, creating the directory if absent.
func ConfigPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	appDir := filepath.Join(dir, appName)
	if err := os.MkdirAll(appDir, 0o755); err != nil {
		return "", err
	}
	return filepath.Join(appDir, "settings.toml"), nil
}

// RegistryPath returns the path to projects.json under the user cache
// directory (the user data directory on platforms without a distinct
// one), creating the directory if absent.
func RegistryPath() (string, error) {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	appDir := filepath.Join(dir, appName)
	if err := os.MkdirAll(appDir, 0o755); err != nil {
		return "", err
	}
	return filepath.Join(appDir, "projects.json"), nil
}

// LogDir returns the directory log files are written under, creating
// it if absent.
func LogDir() (string, error) {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	appDir := filepath.Join(dir, appName, "logs")
	if err := os.MkdirAll(appDir, 0o755); err != nil {
		return "", err
	}
	return appDir, nil
}
