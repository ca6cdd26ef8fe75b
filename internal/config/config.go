// Package config holds the manipctl application configuration, loaded through
// viper from manipctl.yaml, MANIPCTL_* environment variables and flags.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Transport driver names.
const (
	DriverSerial    = "serial"
	DriverTarm      = "tarm"
	DriverSimulator = "sim"
)

// Config is the complete manipctl configuration.
type Config struct {
	Transport TransportConfig `mapstructure:"transport" yaml:"transport"`
	Catalog   CatalogConfig   `mapstructure:"catalog" yaml:"catalog"`
	Session   SessionConfig   `mapstructure:"session" yaml:"session"`
	Logging   LoggingConfig   `mapstructure:"logging" yaml:"logging"`
}

// TransportConfig selects and configures the device transport.
type TransportConfig struct {
	// Driver is one of "serial", "tarm" or "sim".
	Driver string `mapstructure:"driver" yaml:"driver"`
	// AllPorts lists non-USB serial ports too (serial driver).
	AllPorts bool `mapstructure:"all_ports" yaml:"all_ports"`
	// Ports declares the devices of the tarm driver.
	Ports []PortConfig `mapstructure:"ports" yaml:"ports"`
	// SimDevices declares the devices of the sim driver.
	SimDevices []SimDeviceConfig `mapstructure:"sim_devices" yaml:"sim_devices"`
}

// PortConfig is one statically configured serial device.
type PortConfig struct {
	Path        string `mapstructure:"path" yaml:"path"`
	Description string `mapstructure:"description" yaml:"description"`
	Serial      string `mapstructure:"serial" yaml:"serial"`
}

// SimDeviceConfig is one simulated device.
type SimDeviceConfig struct {
	Serial string `mapstructure:"serial" yaml:"serial"`
	// Description is ignored for manipulators, which report the ROE-200 product string.
	Description string `mapstructure:"description" yaml:"description,omitempty"`
	// Manipulator makes the device emulate a controller.
	Manipulator bool `mapstructure:"manipulator" yaml:"manipulator"`
	// Drive1 and Drive2 are initial x, y, z positions in steps.
	Drive1 []int32 `mapstructure:"drive1" yaml:"drive1,omitempty"`
	Drive2 []int32 `mapstructure:"drive2" yaml:"drive2,omitempty"`
}

// CatalogConfig configures device recognition.
type CatalogConfig struct {
	Signatures []SignatureConfig `mapstructure:"signatures" yaml:"signatures"`
}

// SignatureConfig names a controller model by its exact USB description.
type SignatureConfig struct {
	Name        string `mapstructure:"name" yaml:"name"`
	Description string `mapstructure:"description" yaml:"description"`
}

// SessionConfig configures the session registry.
type SessionConfig struct {
	MaxManipulators int `mapstructure:"max_manipulators" yaml:"max_manipulators"`
	// SetupPolicy is "lenient" or "strict".
	SetupPolicy string `mapstructure:"setup_policy" yaml:"setup_policy"`
	// Validation is "reject", "clamp" or "warn".
	Validation string `mapstructure:"validation" yaml:"validation"`
	// TrailerMode is "strict" or "tolerant".
	TrailerMode string `mapstructure:"trailer_mode" yaml:"trailer_mode"`
}

// LoggingConfig configures the application logger.
type LoggingConfig struct {
	// Level is "debug", "info", "warn" or "error".
	Level string `mapstructure:"level" yaml:"level"`
	// Format is "auto", "json" or "console".
	Format string `mapstructure:"format" yaml:"format"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Transport: TransportConfig{
			Driver: DriverSerial,
			Ports:  []PortConfig{},
			SimDevices: []SimDeviceConfig{
				{Serial: "SIM0001", Manipulator: true, Drive1: []int32{200000, 200000, 200000}},
				{Serial: "SIM0002", Description: "FT232R USB UART"},
			},
		},
		Catalog: CatalogConfig{
			Signatures: []SignatureConfig{
				{Name: "ROE-200", Description: "Sutter Instrument ROE-200"},
			},
		},
		Session: SessionConfig{
			MaxManipulators: 16,
			SetupPolicy:     "lenient",
			Validation:      "reject",
			TrailerMode:     "strict",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "auto",
		},
	}
}

// SetDefaults registers the defaults with viper.
func SetDefaults() {
	defaults := Default()

	// Transport defaults
	viper.SetDefault("transport.driver", defaults.Transport.Driver)
	viper.SetDefault("transport.all_ports", defaults.Transport.AllPorts)
	viper.SetDefault("transport.ports", []map[string]any{})
	sims := make([]map[string]any, len(defaults.Transport.SimDevices))
	for i, d := range defaults.Transport.SimDevices {
		sims[i] = map[string]any{
			"serial":      d.Serial,
			"description": d.Description,
			"manipulator": d.Manipulator,
			"drive1":      d.Drive1,
			"drive2":      d.Drive2,
		}
	}
	viper.SetDefault("transport.sim_devices", sims)

	// Catalog defaults
	sigs := make([]map[string]any, len(defaults.Catalog.Signatures))
	for i, s := range defaults.Catalog.Signatures {
		sigs[i] = map[string]any{"name": s.Name, "description": s.Description}
	}
	viper.SetDefault("catalog.signatures", sigs)

	// Session defaults
	viper.SetDefault("session.max_manipulators", defaults.Session.MaxManipulators)
	viper.SetDefault("session.setup_policy", defaults.Session.SetupPolicy)
	viper.SetDefault("session.validation", defaults.Session.Validation)
	viper.SetDefault("session.trailer_mode", defaults.Session.TrailerMode)

	// Logging defaults
	viper.SetDefault("logging.level", defaults.Logging.Level)
	viper.SetDefault("logging.format", defaults.Logging.Format)
}

// EnvPrefix is the prefix of environment overrides, e.g. MANIPCTL_SESSION_VALIDATION.
const EnvPrefix = "MANIPCTL"

// BindEnv enables environment overrides for every config key.
func BindEnv() {
	viper.SetEnvPrefix(EnvPrefix)
	// session.setup_policy is read from MANIPCTL_SESSION_SETUP_POLICY
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
}

// Load reads the configuration from viper into a Config struct and validates it.
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}

	return &cfg, nil
}

// ConfigDir returns the path to the user's config directory.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "manipctl")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".manipctl"
	}

	return filepath.Join(home, ".config", "manipctl")
}

// ConfigFile returns the path to the default config file.
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "manipctl.yaml")
}
