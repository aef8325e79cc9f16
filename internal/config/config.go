package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	EnvDev  = "DEV"
	EnvProd = "PROD"

	// prodDataDir is the volume the container image mounts the store on
	prodDataDir = "/db"
)

// Config holds all application configuration
type Config struct {
	// Environment
	DeployEnv string // DEV or PROD

	// Server
	ServerPort  string
	CORSOrigins []string

	// Completion
	PrimaryPartnerID uint64

	// Backups
	BackupSchedule string // cron spec, empty disables scheduled backups
	BackupRetain   int

	// Paths
	DatabaseFile string // $CONFIG_DIR/animetrack.db
	BackupDir    string // $CONFIG_DIR/backups

	// Logging
	LogLevel  string
	LogFormat string // text or json
}

// Load loads configuration from environment variables and .env file
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AutomaticEnv()
	// An empty BACKUP_SCHEDULE turns scheduled backups off
	v.AllowEmptyEnv(true)

	// Load .env file if it exists (ignore if not found)
	_ = v.ReadInConfig()

	setDefaults(v)
	return fromViper(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("DEPLOY_ENV", EnvDev)
	v.SetDefault("SERVER_PORT", "9000")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "text")
	v.SetDefault("PRIMARY_PARTNER_ID", 1)
	v.SetDefault("BACKUP_SCHEDULE", "0 4 * * *")
	v.SetDefault("BACKUP_RETAIN", 7)
	v.SetDefault("CORS_ORIGINS", "*")
}

func fromViper(v *viper.Viper) (*Config, error) {
	deployEnv := strings.ToUpper(strings.TrimSpace(v.GetString("DEPLOY_ENV")))
	if deployEnv != EnvDev && deployEnv != EnvProd {
		return nil, fmt.Errorf("DEPLOY_ENV must be %s or %s, got %q", EnvDev, EnvProd, deployEnv)
	}

	configDir, err := resolveConfigDir(v.GetString("CONFIG_DIR"), deployEnv)
	if err != nil {
		return nil, err
	}

	// Create config directory if it doesn't exist
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	config := &Config{
		DeployEnv: deployEnv,

		ServerPort:  v.GetString("SERVER_PORT"),
		CORSOrigins: splitList(v.GetString("CORS_ORIGINS")),

		PrimaryPartnerID: v.GetUint64("PRIMARY_PARTNER_ID"),

		BackupSchedule: strings.TrimSpace(v.GetString("BACKUP_SCHEDULE")),
		BackupRetain:   v.GetInt("BACKUP_RETAIN"),

		DatabaseFile: filepath.Join(configDir, "animetrack.db"),
		BackupDir:    filepath.Join(configDir, "backups"),

		LogLevel:  v.GetString("LOG_LEVEL"),
		LogFormat: strings.ToLower(strings.TrimSpace(v.GetString("LOG_FORMAT"))),
	}

	// Validate
	if config.ServerPort == "" {
		return nil, fmt.Errorf("SERVER_PORT is required")
	}
	if config.PrimaryPartnerID == 0 {
		return nil, fmt.Errorf("PRIMARY_PARTNER_ID must be a positive id")
	}
	if config.LogFormat != "text" && config.LogFormat != "json" {
		return nil, fmt.Errorf("LOG_FORMAT must be text or json, got %q", config.LogFormat)
	}
	if config.BackupRetain < 1 {
		return nil, fmt.Errorf("BACKUP_RETAIN must be at least 1, got %d", config.BackupRetain)
	}

	return config, nil
}

// resolveConfigDir returns CONFIG_DIR as an absolute path, or the default
// data directory of the deploy environment when it is unset
func resolveConfigDir(configDir, deployEnv string) (string, error) {
	if configDir == "" {
		if deployEnv == EnvProd {
			return prodDataDir, nil
		}
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		return filepath.Join(homeDir, ".config", "animetrack"), nil
	}

	// Convert relative path to absolute path
	absPath, err := filepath.Abs(configDir)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path for CONFIG_DIR: %w", err)
	}
	return absPath, nil
}

func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
