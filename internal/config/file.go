package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dmitrijs2005/bountyhunter/internal/flagx"
	"github.com/dmitrijs2005/bountyhunter/internal/timex"
)

// FileConfig is the on-disk shape of the config file. Intervals use
// timex.Duration so they can be written as "24h" or as nanoseconds.
type FileConfig struct {
	DatabasePath     string         `json:"database_path" yaml:"database_path"`
	LogLevel         string         `json:"log_level" yaml:"log_level"`
	Window           timex.Duration `json:"window" yaml:"window"`
	TickInterval     timex.Duration `json:"tick_interval" yaml:"tick_interval"`
	CredentialID     string         `json:"credential_id" yaml:"credential_id"`
	CredentialSecret string         `json:"credential_secret" yaml:"credential_secret"`
	RewardBaseURL    string         `json:"reward_base_url" yaml:"reward_base_url"`
	SignMarker       *bool          `json:"sign_marker" yaml:"sign_marker"`
}

// parseFile overlays cfg with the file named by -c/-config. YAML is used
// for .yaml/.yml files, JSON otherwise. Read or decode errors panic.
func parseFile(cfg *Config) {
	path := flagx.ConfigFileFlag()
	if path == "" {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	fc, err := decodeFile(path, data)
	if err != nil {
		panic(err)
	}
	fc.apply(cfg)
}

func decodeFile(path string, data []byte) (*FileConfig, error) {
	var fc FileConfig

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &fc); err != nil {
			return nil, err
		}
	default:
		if err := json.Unmarshal(data, &fc); err != nil {
			return nil, err
		}
	}
	return &fc, nil
}

// apply copies only the fields that were set in the file.
func (fc *FileConfig) apply(cfg *Config) {
	if fc.DatabasePath != "" {
		cfg.DatabasePath = fc.DatabasePath
	}
	if fc.LogLevel != "" {
		cfg.LogLevel = fc.LogLevel
	}
	if fc.Window.Duration > 0 {
		cfg.Window = fc.Window.Duration
	}
	if fc.TickInterval.Duration > 0 {
		cfg.TickInterval = fc.TickInterval.Duration
	}
	if fc.CredentialID != "" {
		cfg.CredentialID = fc.CredentialID
	}
	if fc.CredentialSecret != "" {
		cfg.CredentialSecret = fc.CredentialSecret
	}
	if fc.RewardBaseURL != "" {
		cfg.RewardBaseURL = fc.RewardBaseURL
	}
	if fc.SignMarker != nil {
		cfg.SignMarker = *fc.SignMarker
	}
}
