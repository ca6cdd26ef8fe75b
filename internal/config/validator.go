package config

import (
	"fmt"
	"slices"
	"strings"

	"github.com/arloliu/go-manip/logger"
	"github.com/arloliu/go-manip/roe"
	"github.com/arloliu/go-manip/session"
)

// ValidationError represents a single validation failure.
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d validation errors:\n", len(e))
	for i, err := range e {
		fmt.Fprintf(&sb, "  %d. %s\n", i+1, err.Error())
	}

	return sb.String()
}

// ValidDrivers returns the accepted transport.driver values.
func ValidDrivers() []string {
	return []string{DriverSerial, DriverTarm, DriverSimulator}
}

// ValidLogFormats returns the accepted logging.format values.
func ValidLogFormats() []string {
	return []string{string(logger.FormatAuto), string(logger.FormatJSON), string(logger.FormatConsole)}
}

// Validate checks the Config and returns every problem found.
func (c *Config) Validate() []ValidationError {
	var errs []ValidationError
	add := func(field string, value any, msg string) {
		errs = append(errs, ValidationError{Field: field, Value: value, Message: msg})
	}

	if !slices.Contains(ValidDrivers(), c.Transport.Driver) {
		add("transport.driver", c.Transport.Driver, "must be one of "+strings.Join(ValidDrivers(), ", "))
	}
	if c.Transport.Driver == DriverTarm && len(c.Transport.Ports) == 0 {
		add("transport.ports", len(c.Transport.Ports), "the tarm driver needs at least one port")
	}
	for i, p := range c.Transport.Ports {
		if p.Path == "" {
			add(fmt.Sprintf("transport.ports[%d].path", i), p.Path, "must not be empty")
		}
		if p.Serial == "" {
			add(fmt.Sprintf("transport.ports[%d].serial", i), p.Serial, "must not be empty")
		}
	}
	for i, d := range c.Transport.SimDevices {
		if d.Serial == "" {
			add(fmt.Sprintf("transport.sim_devices[%d].serial", i), d.Serial, "must not be empty")
		}
		for _, drive := range []struct {
			name string
			pos  []int32
		}{{"drive1", d.Drive1}, {"drive2", d.Drive2}} {
			if len(drive.pos) != 0 && len(drive.pos) != 3 {
				add(fmt.Sprintf("transport.sim_devices[%d].%s", i, drive.name), drive.pos, "must hold x, y and z")
			}
		}
	}

	if len(c.Catalog.Signatures) == 0 {
		add("catalog.signatures", 0, "at least one signature is required")
	}
	for i, s := range c.Catalog.Signatures {
		if s.Description == "" {
			add(fmt.Sprintf("catalog.signatures[%d].description", i), s.Description, "must not be empty")
		}
	}

	if n := c.Session.MaxManipulators; n < session.MinMaxManipulators || n > session.MaxMaxManipulators {
		add("session.max_manipulators", n, fmt.Sprintf("must be between %d and %d", session.MinMaxManipulators, session.MaxMaxManipulators))
	}
	if _, err := session.ParseSetupPolicy(c.Session.SetupPolicy); err != nil {
		add("session.setup_policy", c.Session.SetupPolicy, "must be lenient or strict")
	}
	if _, err := roe.ParseValidationPolicy(c.Session.Validation); err != nil {
		add("session.validation", c.Session.Validation, "must be reject, clamp or warn")
	}
	if _, err := roe.ParseTrailerMode(c.Session.TrailerMode); err != nil {
		add("session.trailer_mode", c.Session.TrailerMode, "must be strict or tolerant")
	}

	if _, err := logger.ParseLevel(c.Logging.Level); err != nil {
		add("logging.level", c.Logging.Level, "must be debug, info, warn or error")
	}
	if c.Logging.Format != "" && !slices.Contains(ValidLogFormats(), c.Logging.Format) {
		add("logging.format", c.Logging.Format, "must be one of "+strings.Join(ValidLogFormats(), ", "))
	}

	return errs
}
