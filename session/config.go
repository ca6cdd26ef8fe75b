package session

import (
	"errors"
	"fmt"
	"strings"

	"github.com/arloliu/go-manip/logger"
	"github.com/arloliu/go-manip/roe"
	"github.com/arloliu/go-manip/transport"
)

// Handle table limits.
const (
	DefaultMaxManipulators = 16
	MinMaxManipulators     = 1
	MaxMaxManipulators     = 128
)

// Line parameter limits accepted by WithLineConfig.
const (
	MinDataBits = 5
	MaxDataBits = 8
)

// SetupPolicy decides what a failed configuration step does to a handle.
type SetupPolicy uint8

const (
	// SetupLenient logs the failure and keeps the handle.
	SetupLenient SetupPolicy = iota
	// SetupStrict closes the channel and skips the device.
	SetupStrict
)

func (p SetupPolicy) String() string {
	if p == SetupStrict {
		return "strict"
	}

	return "lenient"
}

// ParseSetupPolicy parses "lenient" or "strict".
func ParseSetupPolicy(s string) (SetupPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "lenient":
		return SetupLenient, nil
	case "strict":
		return SetupStrict, nil
	default:
		return SetupLenient, fmt.Errorf("session: unknown setup policy %q", s)
	}
}

// Config holds the configuration of a Registry.
type Config struct {
	maxManipulators int
	setupPolicy     SetupPolicy
	validation      roe.ValidationPolicy
	trailerMode     roe.TrailerMode
	line            transport.LineConfig

	logger logger.Logger
}

// NewConfig creates a registry configuration.
//
// opts are functional options applied in order; see With* functions.
func NewConfig(opts ...Option) (*Config, error) {
	cfg := &Config{
		maxManipulators: DefaultMaxManipulators,
		setupPolicy:     SetupLenient,
		validation:      roe.ValidateReject,
		trailerMode:     roe.TrailerStrict,
		line:            transport.DefaultLineConfig(),
		logger:          logger.GetLogger(),
	}

	for _, opt := range opts {
		if err := opt.apply(cfg); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// --- Getters ---

// MaxManipulators returns the handle table capacity.
func (cfg *Config) MaxManipulators() int { return cfg.maxManipulators }

// SetupPolicy returns the setup failure policy.
func (cfg *Config) SetupPolicy() SetupPolicy { return cfg.setupPolicy }

// ValidationPolicy returns the policy applied to move targets.
func (cfg *Config) ValidationPolicy() roe.ValidationPolicy { return cfg.validation }

// TrailerMode returns how reply trailers are consumed.
func (cfg *Config) TrailerMode() roe.TrailerMode { return cfg.trailerMode }

// LineConfig returns the line parameters applied during handle setup.
func (cfg *Config) LineConfig() transport.LineConfig { return cfg.line }

// GetLogger returns the configured logger.
func (cfg *Config) GetLogger() logger.Logger { return cfg.logger }

// --- Option ---

// Option is a functional option for configuring a Registry.
type Option interface {
	apply(*Config) error
}

type optFunc func(*Config) error

func (f optFunc) apply(cfg *Config) error { return f(cfg) }

// WithMaxManipulators sets the handle table capacity.
// Range: [MinMaxManipulators, MaxMaxManipulators]. Default: 16.
func WithMaxManipulators(n int) Option {
	return optFunc(func(cfg *Config) error {
		if n < MinMaxManipulators || n > MaxMaxManipulators {
			return fmt.Errorf("session: max manipulators %d out of range [%d, %d]", n, MinMaxManipulators, MaxMaxManipulators)
		}
		cfg.maxManipulators = n

		return nil
	})
}

// WithSetupPolicy sets how failed setup steps are treated. Default: SetupLenient.
func WithSetupPolicy(p SetupPolicy) Option {
	return optFunc(func(cfg *Config) error {
		if p != SetupLenient && p != SetupStrict {
			return fmt.Errorf("session: invalid setup policy %d", p)
		}
		cfg.setupPolicy = p

		return nil
	})
}

// WithValidationPolicy sets how out-of-range move targets are treated.
// Default: roe.ValidateReject.
func WithValidationPolicy(p roe.ValidationPolicy) Option {
	return optFunc(func(cfg *Config) error {
		switch p {
		case roe.ValidateReject, roe.ValidateClamp, roe.ValidateWarn:
			cfg.validation = p
			return nil
		default:
			return fmt.Errorf("session: invalid validation policy %d", p)
		}
	})
}

// WithTrailerMode sets how reply trailers are consumed. Default: roe.TrailerStrict.
func WithTrailerMode(m roe.TrailerMode) Option {
	return optFunc(func(cfg *Config) error {
		if m != roe.TrailerStrict && m != roe.TrailerTolerant {
			return fmt.Errorf("session: invalid trailer mode %d", m)
		}
		cfg.trailerMode = m

		return nil
	})
}

// WithLineConfig replaces the line parameters applied during handle setup.
// Default: transport.DefaultLineConfig().
func WithLineConfig(lc transport.LineConfig) Option {
	return optFunc(func(cfg *Config) error {
		if lc.DataBits < MinDataBits || lc.DataBits > MaxDataBits {
			return fmt.Errorf("session: data bits %d out of range [%d, %d]", lc.DataBits, MinDataBits, MaxDataBits)
		}
		if lc.BaudRate <= 0 {
			return fmt.Errorf("session: invalid baud rate %d", lc.BaudRate)
		}
		if lc.ReadTimeout <= 0 || lc.WriteTimeout <= 0 {
			return errors.New("session: read and write timeouts must be positive")
		}
		if lc.USBInTransferSize < 0 || lc.USBOutTransferSize < 0 {
			return errors.New("session: USB transfer sizes must not be negative")
		}
		cfg.line = lc

		return nil
	})
}

// WithLogger sets the logger. Default: logger.GetLogger().
func WithLogger(l logger.Logger) Option {
	return optFunc(func(cfg *Config) error {
		if l == nil {
			return errors.New("session: logger must not be nil")
		}
		cfg.logger = l

		return nil
	})
}
