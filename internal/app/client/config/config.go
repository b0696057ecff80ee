package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	defaultServerAddress = "localhost:8080"
	defaultLogLevel      = "info"
	defaultEnv           = "local"
	defaultConfigDir     = ".fieldsync"
	defaultQuotaBytes    = 512 * 1024 * 1024 // 512 MB local cap
)

type Config struct {
	Env           string `mapstructure:"app_env"`
	ServerAddress string `mapstructure:"server_address"`
	LogLevel      string `mapstructure:"log_level"`
	ConfigDir     string `mapstructure:"config_dir"`
	TokenPath     string `mapstructure:"token_path"`
	DataPath      string `mapstructure:"data_path"`
	DeviceName    string `mapstructure:"device_name"`
	SyncInterval  int    `mapstructure:"sync_interval_seconds"`
	EnableTLS     bool   `mapstructure:"enable_tls"`
	StorageQuota  int64  `mapstructure:"storage_quota_bytes"`

	// ConflictStrategy is one of server_wins, local_wins or manual.
	ConflictStrategy string `mapstructure:"conflict_strategy"`
}

// MustLoad reads the client configuration from the environment and
// prepares the local data directory.
func MustLoad() *Config {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			fmt.Printf("failed to load .env: %v\n", err)
		}
	}

	viper.AutomaticEnv()
	viper.SetDefault("APP_ENV", defaultEnv)
	viper.SetDefault("SERVER_ADDRESS", defaultServerAddress)
	viper.SetDefault("LOG_LEVEL", defaultLogLevel)
	viper.SetDefault("CONFIG_DIR", defaultConfigDir)
	viper.SetDefault("SYNC_INTERVAL_SECONDS", 30)
	viper.SetDefault("ENABLE_TLS", false)
	viper.SetDefault("STORAGE_QUOTA_BYTES", defaultQuotaBytes)
	viper.SetDefault("CONFLICT_STRATEGY", "server_wins")

	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}

	configDir := viper.GetString("CONFIG_DIR")
	if configDir == defaultConfigDir {
		configDir = filepath.Join(homeDir, configDir)
	}
	if err := os.MkdirAll(configDir, 0700); err != nil {
		fmt.Printf("failed to create config dir: %v\n", err)
	}

	deviceName := viper.GetString("DEVICE_NAME")
	if deviceName == "" {
		if hostname, err := os.Hostname(); err == nil {
			deviceName = hostname
		} else {
			deviceName = "unknown"
		}
	}

	return &Config{
		Env:           viper.GetString("APP_ENV"),
		ServerAddress: viper.GetString("SERVER_ADDRESS"),
		LogLevel:      viper.GetString("LOG_LEVEL"),
		ConfigDir:     configDir,
		TokenPath:     filepath.Join(configDir, "token"),
		DataPath:      filepath.Join(configDir, "fieldsync.db"),
		DeviceName:    deviceName,
		SyncInterval:  viper.GetInt("SYNC_INTERVAL_SECONDS"),
		EnableTLS:     viper.GetBool("ENABLE_TLS"),
		StorageQuota:  viper.GetInt64("STORAGE_QUOTA_BYTES"),

		ConflictStrategy: viper.GetString("CONFLICT_STRATEGY"),
	}
}
