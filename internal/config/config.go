package config

import "time"

// Config holds runtime settings for the bounty tracker CLI.
type Config struct {
	DatabasePath     string        `env:"DATABASE_PATH"`
	LogLevel         string        `env:"LOG_LEVEL"`
	Window           time.Duration `env:"WINDOW"`
	TickInterval     time.Duration `env:"TICK_INTERVAL"`
	CredentialID     string        `env:"CREDENTIAL_ID"`
	CredentialSecret string        `env:"CREDENTIAL_SECRET"`
	RewardBaseURL    string        `env:"REWARD_BASE_URL"`
	SignMarker       bool          `env:"SIGN_MARKER"`
}

// LoadDefaults populates c with the built-in settings.
func (c *Config) LoadDefaults() {
	c.DatabasePath = "bounty.db"
	c.LogLevel = "info"
	c.Window = 24 * time.Hour
	c.TickInterval = time.Second
	c.CredentialID = "TheNewgen2.0.1"
	c.CredentialSecret = "TheNewgen"
	c.RewardBaseURL = "https://reward-portal.com/claim/"
	c.SignMarker = true
}

// LoadConfig applies defaults, then the config file, the environment and
// finally command-line flags. Later sources win.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseFile(cfg)
	parseEnv(cfg)
	parseFlags(cfg)
	return cfg
}
