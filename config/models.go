package config

import (
	"fmt"
)

// UpsertModelEntry adds or replaces a [[models]] entry in config.toml. Entries
// are matched by provider and model id.
func UpsertModelEntry(dataDir string, entry ModelEntry) error {
	if entry.Provider == "" || entry.Model == "" {
		return fmt.Errorf("model entry needs both provider and model")
	}

	cfg, err := LoadUserConfig(dataDir)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	replaced := false
	for i, existing := range cfg.Models {
		if existing.Provider == entry.Provider && existing.Model == entry.Model {
			cfg.Models[i] = entry
			replaced = true
			break
		}
	}
	if !replaced {
		cfg.Models = append(cfg.Models, entry)
	}

	Logf("[Config] Upserted model entry %s/%s (replaced=%v)", entry.Provider, entry.Model, replaced)
	return SaveUserConfig(cfg, dataDir)
}

// RemoveModelEntry deletes a [[models]] entry. Removing an absent entry is
// not an error.
func RemoveModelEntry(dataDir, providerID, modelID string) error {
	cfg, err := LoadUserConfig(dataDir)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	kept := cfg.Models[:0]
	for _, existing := range cfg.Models {
		if existing.Provider == providerID && existing.Model == modelID {
			continue
		}
		kept = append(kept, existing)
	}
	cfg.Models = kept

	return SaveUserConfig(cfg, dataDir)
}

// SetDefaultModel records the model key used when none is given.
func SetDefaultModel(dataDir, modelKey string) error {
	cfg, err := LoadUserConfig(dataDir)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	cfg.Defaults.Model = modelKey
	return SaveUserConfig(cfg, dataDir)
}
