// config.go: settings struct and functions to load and save the tom-alerce configuration.
package conf

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/tphakala/tom-alerce/internal/errors"
	"github.com/tphakala/tom-alerce/internal/logger"
)

//go:embed config.yaml
var configFiles embed.FS

const (
	configFileName  = "config.yaml"
	configFilePerms = 0o600
	configDirPerms  = 0o755
)

// BreakerSettings configures the circuit breaker wrapped around ALeRCE calls.
type BreakerSettings struct {
	Enabled     bool          `yaml:"enabled"`
	MaxFailures uint32        `yaml:"maxfailures"` // consecutive failures before the breaker opens
	OpenTimeout time.Duration `yaml:"opentimeout"` // how long the breaker stays open
}

// AlerceSettings contains settings for the ALeRCE broker client.
type AlerceSettings struct {
	SiteURL                string          `yaml:"siteurl"` // web frontend, used to build object URLs
	APIURL                 string          `yaml:"apiurl"`  // REST API base URL
	LCClassifierVersion    string          `yaml:"lcclassifierversion"`
	StampClassifierVersion string          `yaml:"stampclassifierversion"`
	Timeout                time.Duration   `yaml:"timeout"`
	RateLimit              float64         `yaml:"ratelimit"` // requests per second, 0 disables
	Burst                  int             `yaml:"burst"`
	CacheTTL               time.Duration   `yaml:"cachettl"` // retention of last-good classifier metadata
	Breaker                BreakerSettings `yaml:"breaker"`
}

// SQLiteSettings contains settings for the SQLite datastore.
type SQLiteSettings struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// MySQLSettings contains settings for the MySQL datastore.
type MySQLSettings struct {
	Enabled  bool   `yaml:"enabled"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
}

// OutputSettings selects the datastore backend.
type OutputSettings struct {
	SQLite SQLiteSettings `yaml:"sqlite"`
	MySQL  MySQLSettings  `yaml:"mysql"`
}

// WebServerSettings contains settings for the HTTP API.
type WebServerSettings struct {
	Enabled      bool          `yaml:"enabled"`
	Listen       string        `yaml:"listen"`
	ReadTimeout  time.Duration `yaml:"readtimeout"`
	WriteTimeout time.Duration `yaml:"writetimeout"`
}

// ObservatorySettings describes the site used for visibility calculations.
type ObservatorySettings struct {
	Name       string        `yaml:"name"`
	Latitude   float64       `yaml:"latitude"`
	Longitude  float64       `yaml:"longitude"` // east positive
	Elevation  float64       `yaml:"elevation"` // meters
	SampleStep time.Duration `yaml:"samplestep"`
	// AirmassLimit marks samples above it as unobservable; 0 disables
	AirmassLimit float64 `yaml:"airmasslimit"`
}

// SentrySettings controls optional error telemetry.
type SentrySettings struct {
	Enabled     bool   `yaml:"enabled"`
	DSN         string `yaml:"dsn"`
	Environment string `yaml:"environment"`
}

// Settings contains all configuration options.
type Settings struct {
	Debug       bool                 `yaml:"debug"`
	Alerce      AlerceSettings       `yaml:"alerce"`
	Output      OutputSettings       `yaml:"output"`
	WebServer   WebServerSettings    `yaml:"webserver"`
	Observatory ObservatorySettings  `yaml:"observatory"`
	Logging     logger.LoggingConfig `yaml:"logging"`
	Sentry      SentrySettings       `yaml:"sentry"`
}

var (
	settingsInstance *Settings
	settingsMutex    sync.RWMutex
)

// Load reads the configuration file from the default locations and environment
// variables. A default config file is created if none exists.
func Load() (*Settings, error) {
	return load("")
}

// LoadFile reads the configuration from an explicit file path.
func LoadFile(path string) (*Settings, error) {
	return load(path)
}

func load(path string) (*Settings, error) {
	settingsMutex.Lock()
	defer settingsMutex.Unlock()

	if err := initViper(path); err != nil {
		return nil, fmt.Errorf("error initializing viper: %w", err)
	}

	settings := &Settings{}
	if err := viper.Unmarshal(settings); err != nil {
		return nil, errors.New(err).
			Category(errors.CategoryConfiguration).
			Context("operation", "unmarshal-settings").
			Build()
	}

	if err := ValidateSettings(settings); err != nil {
		return nil, errors.New(err).
			Category(errors.CategoryConfiguration).
			Context("operation", "validate-settings").
			Build()
	}

	settingsInstance = settings
	return settingsInstance, nil
}

// initViper sets defaults, environment bindings and reads the config file.
func initViper(path string) error {
	viper.SetConfigType("yaml")
	setDefaultConfig()

	if err := configureEnvironmentVariables(); err != nil {
		GetLogger().Warn("environment configuration issues", logger.Error(err))
	}

	if path != "" {
		viper.SetConfigFile(path)
		if err := viper.ReadInConfig(); err != nil {
			return errors.New(err).
				Category(errors.CategoryFileIO).
				Context("operation", "read-config").
				Context("path", path).
				Build()
		}
		return nil
	}

	viper.SetConfigName("config")
	configPaths, err := GetDefaultConfigPaths()
	if err != nil {
		return fmt.Errorf("error getting default config paths: %w", err)
	}
	for _, p := range configPaths {
		viper.AddConfigPath(p)
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return createDefaultConfig(configPaths[0])
		}
		return errors.New(err).
			Category(errors.CategoryFileParsing).
			Context("operation", "read-config").
			Build()
	}

	return nil
}

// createDefaultConfig writes the embedded default config into dir and reads it back
func createDefaultConfig(dir string) error {
	configPath := filepath.Join(dir, configFileName)
	if err := WriteDefaultConfig(configPath, false); err != nil {
		return err
	}

	GetLogger().Info("created default config file", logger.String("path", configPath))
	viper.SetConfigFile(configPath)
	return viper.ReadInConfig()
}

// DefaultConfig returns the embedded default configuration file contents.
func DefaultConfig() ([]byte, error) {
	data, err := fs.ReadFile(configFiles, configFileName)
	if err != nil {
		return nil, errors.New(err).
			Category(errors.CategoryFileIO).
			Context("operation", "read-embedded-config").
			Build()
	}
	return data, nil
}

// WriteDefaultConfig writes the embedded default config to path. Existing
// files are only replaced when overwrite is set.
func WriteDefaultConfig(path string, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return errors.Newf("config file already exists: %s", path).
				Category(errors.CategoryConflict).
				Context("operation", "write-default-config").
				Build()
		}
	}

	data, err := DefaultConfig()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), configDirPerms); err != nil {
		return errors.New(err).
			Category(errors.CategoryFileIO).
			Context("operation", "create-config-dir").
			Build()
	}

	if err := os.WriteFile(path, data, configFilePerms); err != nil {
		return errors.New(err).
			Category(errors.CategoryFileIO).
			Context("operation", "write-default-config").
			Build()
	}
	return nil
}

// GetSettings returns the current settings instance
func GetSettings() *Settings {
	settingsMutex.RLock()
	defer settingsMutex.RUnlock()
	return settingsInstance
}

// SaveSettings writes the current settings back to the active config file.
func SaveSettings() error {
	settingsMutex.RLock()
	defer settingsMutex.RUnlock()

	if settingsInstance == nil {
		return errors.Newf("settings not loaded").
			Category(errors.CategoryState).
			Build()
	}

	configPath := viper.ConfigFileUsed()
	if configPath == "" {
		var err error
		if configPath, err = FindConfigFile(); err != nil {
			return err
		}
	}

	settingsCopy := *settingsInstance
	if err := SaveYAMLConfig(configPath, &settingsCopy); err != nil {
		return fmt.Errorf("error saving config: %w", err)
	}

	GetLogger().Info("settings saved", logger.String("path", configPath))
	return nil
}

// SaveYAMLConfig writes settings to configPath atomically through a temp file.
// Comments and ordering of the original file are not preserved.
func SaveYAMLConfig(configPath string, settings *Settings) error {
	yamlData, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("error marshaling settings to YAML: %w", err)
	}

	tempFile, err := os.CreateTemp(filepath.Dir(configPath), "config-*.yaml")
	if err != nil {
		return fmt.Errorf("error creating temporary file: %w", err)
	}
	tempFileName := tempFile.Name()
	defer func() { _ = os.Remove(tempFileName) }()

	if _, err := tempFile.Write(yamlData); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("error writing to temporary file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("error closing temporary file: %w", err)
	}

	if err := moveFile(tempFileName, configPath); err != nil {
		return fmt.Errorf("error replacing config file: %w", err)
	}

	return nil
}
