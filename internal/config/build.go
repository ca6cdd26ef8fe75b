package config

import (
	"fmt"
	"io"

	"github.com/arloliu/go-manip/catalog"
	"github.com/arloliu/go-manip/logger"
	"github.com/arloliu/go-manip/roe"
	"github.com/arloliu/go-manip/session"
	"github.com/arloliu/go-manip/transport"
	"github.com/arloliu/go-manip/transport/serialport"
	"github.com/arloliu/go-manip/transport/simulator"
	"github.com/arloliu/go-manip/transport/tarmport"
)

// NewLogger builds the application logger writing to w.
func (c *Config) NewLogger(w io.Writer) (logger.Logger, error) {
	level, err := logger.ParseLevel(c.Logging.Level)
	if err != nil {
		return nil, err
	}

	format := logger.Format(c.Logging.Format)
	if format == "" {
		format = logger.FormatAuto
	}

	return logger.NewSlog(level, logger.WithOutput(w), logger.WithFormat(format)), nil
}

// NewTransport builds the configured transport driver.
func (c *Config) NewTransport(l logger.Logger) (transport.Transport, error) {
	switch c.Transport.Driver {
	case DriverSerial:
		opts := []serialport.Option{serialport.WithLogger(l)}
		if c.Transport.AllPorts {
			opts = append(opts, serialport.WithAllPorts())
		}

		return serialport.New(opts...), nil

	case DriverTarm:
		devices := make([]tarmport.Device, len(c.Transport.Ports))
		for i, p := range c.Transport.Ports {
			devices[i] = tarmport.Device{Path: p.Path, Description: p.Description, SerialID: p.Serial}
		}

		return tarmport.New(devices, l), nil

	case DriverSimulator:
		return simulator.New(c.SimDevices()...), nil

	default:
		return nil, fmt.Errorf("config: unknown transport driver %q", c.Transport.Driver)
	}
}

// SimDevices builds the simulated devices declared in transport.sim_devices.
func (c *Config) SimDevices() []*simulator.Device {
	devices := make([]*simulator.Device, 0, len(c.Transport.SimDevices))
	for _, sd := range c.Transport.SimDevices {
		d := simulator.NewDevice(sd.Description, sd.Serial)
		if sd.Manipulator {
			d = simulator.NewManipulator(sd.Serial)
		}

		if len(sd.Drive1) == 3 {
			d.SetPosition(1, sd.Drive1[0], sd.Drive1[1], sd.Drive1[2])
		}
		if len(sd.Drive2) == 3 {
			d.SetPosition(2, sd.Drive2[0], sd.Drive2[1], sd.Drive2[2])
		}
		devices = append(devices, d)
	}

	return devices
}

// NewCatalog builds a catalog over tr with the configured signatures.
func (c *Config) NewCatalog(tr transport.Transport, l logger.Logger) (*catalog.Catalog, error) {
	sigs := make([]catalog.Signature, len(c.Catalog.Signatures))
	for i, s := range c.Catalog.Signatures {
		sigs[i] = catalog.Signature{Name: s.Name, Description: s.Description}
	}

	return catalog.New(tr, catalog.WithLogger(l), catalog.WithSignatures(sigs...))
}

// SessionOptions converts the session section into registry options.
func (c *Config) SessionOptions(l logger.Logger) ([]session.Option, error) {
	setup, err := session.ParseSetupPolicy(c.Session.SetupPolicy)
	if err != nil {
		return nil, err
	}
	validation, err := roe.ParseValidationPolicy(c.Session.Validation)
	if err != nil {
		return nil, err
	}
	trailer, err := roe.ParseTrailerMode(c.Session.TrailerMode)
	if err != nil {
		return nil, err
	}

	return []session.Option{
		session.WithLogger(l),
		session.WithMaxManipulators(c.Session.MaxManipulators),
		session.WithSetupPolicy(setup),
		session.WithValidationPolicy(validation),
		session.WithTrailerMode(trailer),
	}, nil
}

// NewRegistry wires transport, catalog and registry from the configuration.
func (c *Config) NewRegistry(l logger.Logger) (*session.Registry, error) {
	tr, err := c.NewTransport(l)
	if err != nil {
		return nil, err
	}

	cat, err := c.NewCatalog(tr, l)
	if err != nil {
		return nil, err
	}

	opts, err := c.SessionOptions(l)
	if err != nil {
		return nil, err
	}

	return session.New(cat, opts...)
}
