// Copyright 2024 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"github.com/stratastor/burrow/internal/constants"
	"github.com/stratastor/logger"
	"gopkg.in/yaml.v3"
)

var (
	instance   *Config
	once       sync.Once
	configPath string // Tracks where the config was loaded from
)

type Config struct {
	Server struct {
		Port      int    `mapstructure:"port"      yaml:"port"`
		LogLevel  string `mapstructure:"logLevel"  yaml:"logLevel"`
		Daemonize bool   `mapstructure:"daemonize" yaml:"daemonize"`
	} `mapstructure:"server" yaml:"server"`

	Health struct {
		Interval string `mapstructure:"interval" yaml:"interval"`
		Endpoint string `mapstructure:"endpoint" yaml:"endpoint"`
	} `mapstructure:"health" yaml:"health"`

	Logs struct {
		Path      string `mapstructure:"path"      yaml:"path"`
		Retention string `mapstructure:"retention" yaml:"retention"`
		Output    string `mapstructure:"output"    yaml:"output"` // stdout or file
	} `mapstructure:"logs" yaml:"logs"`

	Logger struct {
		LogLevel     string `mapstructure:"logLevel"     yaml:"logLevel"`
		EnableSentry bool   `mapstructure:"enableSentry" yaml:"enableSentry"`
		SentryDSN    string `mapstructure:"sentryDSN"    yaml:"sentryDSN"`
	} `mapstructure:"logger" yaml:"logger"`

	Store struct {
		// Path of the SQLite database holding the volume registry, disk
		// inventory and replication tasks.
		Path string `mapstructure:"path" yaml:"path"`
	} `mapstructure:"store" yaml:"store"`

	ZFS struct {
		UseSudo   bool   `mapstructure:"useSudo"   yaml:"useSudo"`
		ZFSBin    string `mapstructure:"zfsBin"    yaml:"zfsBin"`
		ZpoolBin  string `mapstructure:"zpoolBin"  yaml:"zpoolBin"`
		Timeout   string `mapstructure:"timeout"   yaml:"timeout"`
		BootPool  string `mapstructure:"bootPool"  yaml:"bootPool"`
		BEDataset string `mapstructure:"beDataset" yaml:"beDataset"` // parent of boot environments
	} `mapstructure:"zfs" yaml:"zfs"`

	Datasets struct {
		HiddenPrefix string `mapstructure:"hiddenPrefix" yaml:"hiddenPrefix"`
	} `mapstructure:"datasets" yaml:"datasets"`

	Replication struct {
		SSHUser        string `mapstructure:"sshUser"        yaml:"sshUser"`
		SSHKey         string `mapstructure:"sshKey"         yaml:"sshKey"`
		ConnectTimeout int    `mapstructure:"connectTimeout" yaml:"connectTimeout"` // seconds
	} `mapstructure:"replication" yaml:"replication"`

	Alerts struct {
		Enabled  bool   `mapstructure:"enabled"  yaml:"enabled"`
		Interval string `mapstructure:"interval" yaml:"interval"`
	} `mapstructure:"alerts" yaml:"alerts"`

	Environment string `mapstructure:"environment" yaml:"environment"`
}

func setDefaults() {
	viper.SetDefault("environment", "dev")
	viper.SetDefault("server.port", 8043)
	viper.SetDefault("server.logLevel", "debug")
	viper.SetDefault("server.daemonize", false)
	viper.SetDefault("health.interval", "30s")
	viper.SetDefault("health.endpoint", "/health")
	viper.SetDefault("logs.path", "/var/log/burrow/burrow.log")
	viper.SetDefault("logs.retention", "7d")
	viper.SetDefault("logs.output", "stdout")
	viper.SetDefault("logger.logLevel", "debug")
	viper.SetDefault("logger.enableSentry", false)
	viper.SetDefault("logger.sentryDSN", "")

	viper.SetDefault("store.path", filepath.Join(GetStateDir(), constants.StoreFileName))

	viper.SetDefault("zfs.useSudo", true)
	viper.SetDefault("zfs.zfsBin", "/usr/sbin/zfs")
	viper.SetDefault("zfs.zpoolBin", "/usr/sbin/zpool")
	viper.SetDefault("zfs.timeout", "30s")
	viper.SetDefault("zfs.bootPool", "bpool")
	viper.SetDefault("zfs.beDataset", "bpool/BOOT")

	viper.SetDefault("datasets.hiddenPrefix", ".")

	viper.SetDefault("replication.sshUser", "root")
	viper.SetDefault("replication.sshKey", "")
	viper.SetDefault("replication.connectTimeout", 10)

	viper.SetDefault("alerts.enabled", true)
	viper.SetDefault("alerts.interval", "5m")
}

// loadEnvFile reads KEY=value pairs from burrow.env next to the config file
// into the process environment. Variables already set win.
func loadEnvFile(l logger.Logger, dir string) {
	envPath := filepath.Join(dir, constants.EnvFileName)
	if _, err := os.Stat(envPath); err != nil {
		return
	}
	if err := godotenv.Load(envPath); err != nil {
		l.Warn("Failed to load env file", "path", envPath, "err", err)
		return
	}
	l.Info("Loaded env file", "path", envPath)
}

// LoadConfig loads the configuration with precedence rules.
func LoadConfig(configFilePath string) *Config {
	once.Do(func() {
		// Setup basic logger for initialization
		logConfig := logger.Config{
			LogLevel:     "info",
			EnableSentry: false,
			SentryDSN:    "",
		}
		l, err := logger.NewTag(logConfig, "config")
		if err != nil {
			fmt.Printf("Failed to create logger: %v\n", err)
			os.Exit(1)
		}

		// Reset viper to avoid any potential carryover
		viper.Reset()
		viper.SetConfigType("yaml")

		systemConfigPath := filepath.Join(GetConfigDir(), constants.ConfigFileName)

		if configFilePath != "" {
			configPath = configFilePath
		} else if envPath := os.Getenv("BURROW_CONFIG"); envPath != "" {
			configPath = envPath
		} else {
			configPath = systemConfigPath
		}

		if absPath, err := filepath.Abs(configPath); err == nil {
			configPath = absPath
		}
		l.Info("Using config file", "path", configPath)

		loadEnvFile(l, filepath.Dir(configPath))

		viper.SetConfigFile(configPath)
		setDefaults()

		viper.AutomaticEnv()
		viper.SetEnvPrefix("BURROW")
		viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

		err = viper.ReadInConfig()
		if err != nil {
			_, notFound := err.(viper.ConfigFileNotFoundError)
			if notFound || errors.Is(err, fs.ErrNotExist) {
				l.Info("Config file not found, writing defaults", "path", configPath)
				instance = unmarshal(l)
				if err := SaveConfig(configPath); err != nil {
					l.Error("Failed to save default configuration", "err", err)
				}
			} else {
				l.Error("Error reading config file", "err", err)
				instance = unmarshal(l)
			}
		} else {
			l.Info("Config file loaded successfully", "path", viper.ConfigFileUsed())
			configPath = viper.ConfigFileUsed()
			instance = unmarshal(l)
		}

		debugCfg := *instance
		if debugCfg.Logger.SentryDSN != "" {
			debugCfg.Logger.SentryDSN = "[REDACTED]"
		}
		l.Debug("Loaded configuration", "config", fmt.Sprintf("%+v", debugCfg))
	})

	return instance
}

func unmarshal(l logger.Logger) *Config {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		l.Error("Failed to parse configuration", "err", err)
	}
	return &cfg
}

// SaveConfig persists the current configuration to a specified path.
func SaveConfig(path string) error {
	if path == "" {
		path = configPath
	}
	if path == "" {
		path = filepath.Join(GetConfigDir(), constants.ConfigFileName)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	configYAML, err := yaml.Marshal(instance)
	if err != nil {
		return fmt.Errorf("failed to serialize configuration: %w", err)
	}

	if err := os.WriteFile(path, configYAML, 0644); err != nil {
		return fmt.Errorf("failed to write configuration to file: %w", err)
	}

	configPath = path
	return nil
}

// GetLoadedConfigPath returns the path of the currently loaded configuration file.
func GetLoadedConfigPath() string {
	return configPath
}

// GetConfig returns the current configuration instance.
func GetConfig() *Config {
	if instance == nil {
		return LoadConfig("")
	}
	return instance
}

func NewLoggerConfig(cfg *Config) logger.Config {
	if cfg == nil {
		return logger.Config{
			LogLevel:     "info",
			EnableSentry: false,
			SentryDSN:    "",
		}
	}

	return logger.Config{
		LogLevel:     cfg.Logger.LogLevel,
		EnableSentry: cfg.Logger.EnableSentry,
		SentryDSN:    cfg.Logger.SentryDSN,
	}
}
