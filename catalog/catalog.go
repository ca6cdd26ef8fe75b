// Package catalog enumerates attached transport endpoints and recognizes
// which of them are supported manipulator controllers.
//
// Enumeration failures are never propagated as partial data: if the transport
// cannot enumerate, or any endpoint cannot be described, the catalog reports
// zero devices and logs the cause.
package catalog

import (
	"errors"
	"fmt"

	"github.com/arloliu/go-manip/logger"
	"github.com/arloliu/go-manip/transport"
)

// ErrInvalidDeviceIndex indicates an index outside the current enumeration.
var ErrInvalidDeviceIndex = errors.New("catalog: invalid device index")

// Device describes one endpoint of an enumeration snapshot.
type Device struct {
	// Index is the ordinal position in the snapshot.
	Index int
	// Description is the text label reported by the transport.
	Description string
	// SerialID identifies the device when re-opening it.
	SerialID string
}

// Catalog lists devices through a transport and classifies them.
type Catalog struct {
	tr         transport.Transport
	signatures []Signature
	logger     logger.Logger
}

// Option configures a Catalog.
type Option func(*Catalog) error

// WithLogger sets the logger. Defaults to logger.GetLogger().
func WithLogger(l logger.Logger) Option {
	return func(c *Catalog) error {
		if l == nil {
			return errors.New("catalog: logger must not be nil")
		}
		c.logger = l

		return nil
	}
}

// WithSignatures replaces the known controller signatures.
func WithSignatures(sigs ...Signature) Option {
	return func(c *Catalog) error {
		if len(sigs) == 0 {
			return errors.New("catalog: at least one signature is required")
		}
		for _, s := range sigs {
			if s.Description == "" {
				return fmt.Errorf("catalog: signature %q has an empty description", s.Name)
			}
		}
		c.signatures = append([]Signature(nil), sigs...)

		return nil
	}
}

// New creates a Catalog over tr with the default signature set.
func New(tr transport.Transport, opts ...Option) (*Catalog, error) {
	if tr == nil {
		return nil, errors.New("catalog: transport is nil")
	}

	c := &Catalog{
		tr:         tr,
		signatures: DefaultSignatures(),
		logger:     logger.GetLogger(),
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}

	return c, nil
}

// Transport returns the underlying transport.
func (c *Catalog) Transport() transport.Transport {
	return c.tr
}

// List takes a new enumeration snapshot and describes every endpoint.
func (c *Catalog) List() []Device {
	count, err := c.tr.Enumerate()
	if err != nil {
		c.logger.Warn("catalog: enumeration failed, reporting no devices", "error", err)
		return []Device{}
	}

	devices := make([]Device, 0, count)
	for i := range count {
		desc, err := c.tr.Description(i)
		if err != nil {
			c.logger.Warn("catalog: describe failed, reporting no devices", "device", i, "error", err)
			return []Device{}
		}

		serialID, err := c.tr.SerialID(i)
		if err != nil {
			c.logger.Warn("catalog: serial lookup failed, reporting no devices", "device", i, "error", err)
			return []Device{}
		}

		devices = append(devices, Device{Index: i, Description: desc, SerialID: serialID})
	}

	return devices
}

// Count returns the number of attached endpoints, or 0 when enumeration fails.
func (c *Catalog) Count() int {
	count, err := c.tr.Enumerate()
	if err != nil {
		c.logger.Warn("catalog: enumeration failed, reporting no devices", "error", err)
		return 0
	}

	return count
}

// Lookup enumerates and returns the device at index.
func (c *Catalog) Lookup(index int) (Device, error) {
	count, err := c.tr.Enumerate()
	if err != nil {
		return Device{}, err
	}
	if index < 0 || index >= count {
		return Device{}, fmt.Errorf("%w: %d (have %d)", ErrInvalidDeviceIndex, index, count)
	}

	desc, err := c.tr.Description(index)
	if err != nil {
		return Device{}, err
	}
	serialID, err := c.tr.SerialID(index)
	if err != nil {
		return Device{}, err
	}

	return Device{Index: index, Description: desc, SerialID: serialID}, nil
}

// Description returns the description of the device at index.
func (c *Catalog) Description(index int) (string, error) {
	d, err := c.Lookup(index)
	return d.Description, err
}

// SerialID returns the serial identifier of the device at index.
func (c *Catalog) SerialID(index int) (string, error) {
	d, err := c.Lookup(index)
	return d.SerialID, err
}
