package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

const (
	AppName     = "flipscout"
	EnvFileName = "config.env"

	DefaultDBPath = "flipscout.db"
)

// Config holds everything the application needs from the environment. The
// credentials are opaque secrets; they are only checked for presence, never
// validated beyond that.
type Config struct {
	EbayAppID     string
	EbayCertID    string
	GeminiAPIKey  string
	MarketplaceID string // optional, e.g. EBAY_DE
	DBPath        string
}

// LoadEnvFile loads environment variables from the config file in the user's
// config directory. Errors are ignored since the file may not exist.
func LoadEnvFile() {
	configBase, err := os.UserConfigDir()
	if err != nil {
		return
	}
	configPath := filepath.Join(configBase, AppName, EnvFileName)
	_ = godotenv.Load(configPath)
}

// FromEnv reads the configuration from environment variables. Missing
// required variables are a fatal construction-time error; the pipeline
// cannot function without credentials.
func FromEnv() (Config, error) {
	cfg := Config{
		EbayAppID:     os.Getenv("EBAY_APP_ID"),
		EbayCertID:    os.Getenv("EBAY_CERT_ID"),
		GeminiAPIKey:  os.Getenv("GEMINI_API_KEY"),
		MarketplaceID: os.Getenv("EBAY_MARKETPLACE_ID"),
		DBPath:        os.Getenv("FLIPSCOUT_DB_PATH"),
	}
	if cfg.DBPath == "" {
		cfg.DBPath = DefaultDBPath
	}

	var missing []string
	if cfg.EbayAppID == "" {
		missing = append(missing, "EBAY_APP_ID")
	}
	if cfg.EbayCertID == "" {
		missing = append(missing, "EBAY_CERT_ID")
	}
	if cfg.GeminiAPIKey == "" {
		missing = append(missing, "GEMINI_API_KEY")
	}
	if len(missing) > 0 {
		return Config{}, fmt.Errorf("missing required config: %s", strings.Join(missing, ", "))
	}

	return cfg, nil
}
