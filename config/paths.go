package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

const appName = "promptsmith"

// GetConfigDir holds settings.toml: PROMPTSMITH_CONFIG_DIR, else
// ~/.config/promptsmith on every platform.
func GetConfigDir() string {
	if dir := os.Getenv("PROMPTSMITH_CONFIG_DIR"); dir != "" {
		return ExpandPath(dir)
	}
	return filepath.Join(GetHomeDir(), ".config", appName)
}

// GetDefaultDataDir is where config.toml, credentials, history and the
// storage file live unless settings.toml says otherwise.
func GetDefaultDataDir() string {
	if dir := os.Getenv("PROMPTSMITH_DATA_DIR"); dir != "" {
		return ExpandPath(dir)
	}
	if runtime.GOOS == "windows" {
		if local := os.Getenv("LOCALAPPDATA"); local != "" {
			return filepath.Join(local, appName)
		}
	}
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, appName)
	}
	return filepath.Join(GetHomeDir(), ".local", "share", appName)
}

func GetSettingsFilePath() string {
	return filepath.Join(GetConfigDir(), "settings.toml")
}

// GetHomeDir falls back to the filesystem root when no home is known, which
// keeps path building total.
func GetHomeDir() string {
	if home, err := os.UserHomeDir(); err == nil && home != "" {
		return home
	}
	if runtime.GOOS == "windows" {
		return `C:\`
	}
	return "/"
}

// ExpandPath resolves a leading ~/ and $VARS, then cleans the result.
func ExpandPath(path string) string {
	if path == "" {
		return ""
	}
	if path == "~" || strings.HasPrefix(path, "~/") {
		path = filepath.Join(GetHomeDir(), strings.TrimPrefix(path[1:], "/"))
	}
	return filepath.Clean(os.ExpandEnv(path))
}

// EnsureDir creates path with user-only access.
func EnsureDir(path string) error {
	return os.MkdirAll(path, 0700)
}

func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// EnsureDataDirPermissions creates dataDir or tightens it to 0700.
func EnsureDataDirPermissions(dataDir string) error {
	info, err := os.Stat(dataDir)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return EnsureDir(dataDir)
	case err != nil:
		return err
	case info.Mode().Perm() != 0700:
		return os.Chmod(dataDir, 0700)
	}
	return nil
}
