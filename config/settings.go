package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// decodeOrSeed decodes the TOML file at path into cfg. A missing file is
// seeded with template and cfg keeps its defaults.
func decodeOrSeed(path, template string, cfg any) error {
	if !FileExists(path) {
		if err := writeFileAtomic(path, []byte(template)); err != nil {
			return fmt.Errorf("failed to seed %s: %w", filepath.Base(path), err)
		}
		return nil
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

// writeFileAtomic replaces path through a temp file in the same directory so
// a crash never leaves a half-written config behind.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := EnsureDir(dir); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// LoadSystemConfig reads settings.toml from the config directory.
func LoadSystemConfig() (*SystemConfig, error) {
	cfg := DefaultSystemConfig()
	if err := decodeOrSeed(GetSettingsFilePath(), GenerateSystemConfigTemplate(), cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func UserConfigPath(dataDir string) string {
	return filepath.Join(dataDir, "config.toml")
}

// LoadUserConfig reads config.toml from the data directory.
func LoadUserConfig(dataDir string) (*UserConfig, error) {
	cfg := DefaultUserConfig()
	if err := decodeOrSeed(UserConfigPath(dataDir), GenerateUserConfigTemplate(), cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SaveUserConfig rewrites config.toml. Comments from the seeded template are
// not preserved.
func SaveUserConfig(cfg *UserConfig, dataDir string) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode user config: %w", err)
	}
	if err := writeFileAtomic(UserConfigPath(dataDir), buf.Bytes()); err != nil {
		return fmt.Errorf("failed to write user config: %w", err)
	}
	return nil
}
