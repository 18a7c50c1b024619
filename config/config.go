// Package config loads maestro-flash settings from flags, environment,
// an optional .env file and an optional maestro-flash.yaml.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/moffa90/go-maestro-flash/serialport"
)

// EnvPrefix prefixes every environment variable, e.g. MAESTRO_FLASH_SERIAL_PORT.
const EnvPrefix = "MAESTRO_FLASH"

// Config represents the application configuration
type Config struct {
	Serial    serialport.Config `mapstructure:"serial"`
	Upload    UploadConfig      `mapstructure:"upload"`
	Discovery DiscoveryConfig   `mapstructure:"discovery"`
	Reboot    RebootConfig      `mapstructure:"reboot"`
	Logging   LoggingConfig     `mapstructure:"logging"`
}

// UploadConfig tunes the bootloader sequence
type UploadConfig struct {
	SettleDelay time.Duration `mapstructure:"settle_delay"`
}

// DiscoveryConfig selects the bootloader port when serial.port is empty
type DiscoveryConfig struct {
	Match []string `mapstructure:"match"`
}

// RebootConfig controls restarting a running Maestro into its bootloader first
type RebootConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	Wait    time.Duration `mapstructure:"wait"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Output     string `mapstructure:"output"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
	Compress   bool   `mapstructure:"compress"`
}

// flagKeys maps command line flags to configuration keys.
var flagKeys = map[string]string{
	"port":         "serial.port",
	"baud-rate":    "serial.baud_rate",
	"read-timeout": "serial.read_timeout",
	"settle-delay": "upload.settle_delay",
	"match":        "discovery.match",
	"reboot":       "reboot.enabled",
	"reboot-wait":  "reboot.wait",
	"log-level":    "logging.level",
	"log-format":   "logging.format",
	"log-output":   "logging.output",
}

// Flags returns the command line flags understood by Load.
func Flags() *pflag.FlagSet {
	flags := pflag.NewFlagSet("maestro-flash", pflag.ContinueOnError)

	flags.StringP("port", "p", "", "serial port of the bootloader (default: discover)")
	flags.Int("baud-rate", serialport.DefaultBaudRate, "serial baud rate")
	flags.Duration("read-timeout", serialport.DefaultReadTimeout, "serial read timeout")
	flags.Duration("settle-delay", 200*time.Millisecond, "wait before the completion check and after reset")
	flags.StringSlice("match", []string{"Bootloader"}, "substrings the port description must contain")
	flags.Bool("reboot", false, "restart a running Maestro into its bootloader first")
	flags.Duration("reboot-wait", 3*time.Second, "wait for the bootloader port after --reboot")
	flags.String("log-level", "warn", "log level (debug, info, warn, error)")
	flags.String("log-format", "console", "log format (console, json)")
	flags.String("log-output", "stderr", "log output (stdout, stderr or a file path)")
	flags.StringP("config", "c", "", "config file (default: ./maestro-flash.yaml)")

	return flags
}

// Load loads configuration from flags, environment variables and config file.
// Flags take precedence over the environment, which takes precedence over the file.
// flags may be nil.
func Load(flags *pflag.FlagSet) (*Config, error) {
	_ = godotenv.Load() // ignore error if .env not found

	v := viper.New()
	v.SetConfigName("maestro-flash")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/maestro-flash")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if flags != nil {
		if f := flags.Lookup("config"); f != nil && f.Value.String() != "" {
			v.SetConfigFile(f.Value.String())
		}
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
				}
			}
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("serial.port", "")
	v.SetDefault("serial.baud_rate", serialport.DefaultBaudRate)
	v.SetDefault("serial.data_bits", serialport.DefaultDataBits)
	v.SetDefault("serial.stop_bits", 1)
	v.SetDefault("serial.parity", "none")
	v.SetDefault("serial.read_timeout", serialport.DefaultReadTimeout)

	v.SetDefault("upload.settle_delay", "200ms")

	v.SetDefault("discovery.match", []string{"Bootloader"})

	v.SetDefault("reboot.enabled", false)
	v.SetDefault("reboot.wait", "3s")

	v.SetDefault("logging.level", "warn")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.output", "stderr")
	v.SetDefault("logging.max_size", 10)
	v.SetDefault("logging.max_backups", 3)
	v.SetDefault("logging.max_age", 28)
	v.SetDefault("logging.compress", false)
}

// validate validates the configuration
func validate(config *Config) error {
	if config.Serial.BaudRate <= 0 {
		return fmt.Errorf("serial.baud_rate must be positive")
	}
	if config.Serial.ReadTimeout <= 0 {
		return fmt.Errorf("serial.read_timeout must be positive")
	}
	if config.Upload.SettleDelay < 0 {
		return fmt.Errorf("upload.settle_delay must not be negative")
	}
	if config.Reboot.Wait < 0 {
		return fmt.Errorf("reboot.wait must not be negative")
	}

	validParity := []string{"none", "odd", "even"}
	if !contains(validParity, config.Serial.Parity) {
		return fmt.Errorf("serial.parity must be one of: %v", validParity)
	}

	validLevels := []string{"debug", "info", "warn", "error"}
	if !contains(validLevels, config.Logging.Level) {
		return fmt.Errorf("logging.level must be one of: %v", validLevels)
	}

	validFormats := []string{"console", "json"}
	if !contains(validFormats, config.Logging.Format) {
		return fmt.Errorf("logging.format must be one of: %v", validFormats)
	}

	if config.Logging.Output == "" {
		return fmt.Errorf("logging.output is required")
	}

	return nil
}

func contains(values []string, v string) bool {
	for _, value := range values {
		if value == v {
			return true
		}
	}
	return false
}
