// Package tarmport implements transport.Transport on top of github.com/tarm/serial
// for hosts where USB descriptors are not available (virtual COM ports, serial
// servers, containers without udev). Devices are declared up front with their
// path, description and serial identifier.
//
// tarm/serial fixes the line settings at open time, so every configuration step
// that changes a setting reopens the port with the new settings.
package tarmport

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/arloliu/go-manip/logger"
	"github.com/arloliu/go-manip/transport"
	"github.com/tarm/serial"
)

// Device declares one statically configured port.
type Device struct {
	Path        string
	Description string
	SerialID    string
}

type port interface {
	io.ReadWriteCloser
	Flush() error
}

// Transport lists the declared devices whose path currently exists.
type Transport struct {
	mu       sync.Mutex
	devices  []Device
	snapshot []Device
	logger   logger.Logger

	stat     func(path string) error
	openPort func(cfg *serial.Config) (port, error)
}

var _ transport.Transport = (*Transport)(nil)

// New creates a Transport over the declared devices.
func New(devices []Device, l logger.Logger) *Transport {
	if l == nil {
		l = logger.GetLogger()
	}

	return &Transport{
		devices: append([]Device(nil), devices...),
		logger:  l,
		stat: func(path string) error {
			_, err := os.Stat(path)
			return err
		},
		openPort: func(cfg *serial.Config) (port, error) {
			return serial.OpenPort(cfg)
		},
	}
}

// Enumerate snapshots the declared devices that are present on the host.
func (t *Transport) Enumerate() (int, error) {
	present := make([]Device, 0, len(t.devices))
	for _, d := range t.devices {
		if err := t.stat(d.Path); err != nil {
			t.logger.Debug("tarmport: declared device absent", "path", d.Path, "error", err)
			continue
		}
		present = append(present, d)
	}

	t.mu.Lock()
	t.snapshot = present
	t.mu.Unlock()

	return len(present), nil
}

func (t *Transport) at(index int) (Device, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if index < 0 || index >= len(t.snapshot) {
		return Device{}, fmt.Errorf("%w: index %d", transport.ErrDeviceNotFound, index)
	}

	return t.snapshot[index], nil
}

func (t *Transport) Description(index int) (string, error) {
	d, err := t.at(index)
	return d.Description, err
}

func (t *Transport) SerialID(index int) (string, error) {
	d, err := t.at(index)
	return d.SerialID, err
}

// Open opens the declared device with the given serial identifier.
func (t *Transport) Open(serialID string) (transport.Channel, error) {
	var dev *Device
	for i := range t.devices {
		if t.devices[i].SerialID == serialID {
			dev = &t.devices[i]
			break
		}
	}
	if dev == nil || serialID == "" {
		return nil, fmt.Errorf("%w: serial %q", transport.ErrDeviceNotFound, serialID)
	}

	cfg := serial.Config{
		Name:        dev.Path,
		Baud:        transport.DefaultBaudRate,
		ReadTimeout: transport.DefaultReadTimeout,
		Size:        transport.DefaultDataBits,
		Parity:      serial.ParityNone,
		StopBits:    serial.Stop1,
	}

	p, err := t.openPort(&cfg)
	if err != nil {
		return nil, fmt.Errorf("tarmport: open %s: %w", dev.Path, err)
	}

	return &channel{cfg: cfg, port: p, open: t.openPort}, nil
}

type channel struct {
	cfg  serial.Config
	port port
	open func(cfg *serial.Config) (port, error)
}

var _ transport.Channel = (*channel)(nil)

// reconfigure reopens the port with next, falling back to the previous
// settings when the new ones are rejected.
func (c *channel) reconfigure(next serial.Config) error {
	if c.port == nil {
		return transport.ErrChannelClosed
	}
	if next == c.cfg {
		return nil
	}

	_ = c.port.Close()

	p, err := c.open(&next)
	if err == nil {
		c.port, c.cfg = p, next
		return nil
	}

	prev, rerr := c.open(&c.cfg)
	if rerr != nil {
		c.port = nil
		return errors.Join(err, rerr)
	}
	c.port = prev

	return err
}

func (c *channel) SetDataCharacteristics(dataBits int, stop transport.StopBits, parity transport.Parity) error {
	next := c.cfg
	next.Size = byte(dataBits)

	switch stop {
	case transport.StopBits1:
		next.StopBits = serial.Stop1
	case transport.StopBits2:
		next.StopBits = serial.Stop2
	default:
		return fmt.Errorf("tarmport: stop bits %d: %w", stop, transport.ErrNotSupported)
	}

	switch parity {
	case transport.ParityNone:
		next.Parity = serial.ParityNone
	case transport.ParityOdd:
		next.Parity = serial.ParityOdd
	case transport.ParityEven:
		next.Parity = serial.ParityEven
	default:
		return fmt.Errorf("tarmport: parity %d: %w", parity, transport.ErrNotSupported)
	}

	return c.reconfigure(next)
}

func (c *channel) SetFlowControl(mode transport.FlowControl) error {
	if mode != transport.FlowNone {
		return fmt.Errorf("tarmport: flow control %d: %w", mode, transport.ErrNotSupported)
	}

	return nil
}

func (c *channel) SetTimeouts(read, _ time.Duration) error {
	next := c.cfg
	next.ReadTimeout = read

	return c.reconfigure(next)
}

// Purge discards both directions; tarm/serial cannot flush one side only.
func (c *channel) Purge(_ transport.PurgeMode) error {
	if c.port == nil {
		return transport.ErrChannelClosed
	}

	return c.port.Flush()
}

func (c *channel) SetLatencyTimer(_ uint8) error {
	return fmt.Errorf("tarmport: latency timer: %w", transport.ErrNotSupported)
}

func (c *channel) SetBaudRate(baud int) error {
	next := c.cfg
	next.Baud = baud

	return c.reconfigure(next)
}

func (c *channel) SetUSBParameters(_, _ int) error {
	return fmt.Errorf("tarmport: usb transfer size: %w", transport.ErrNotSupported)
}

func (c *channel) Write(p []byte) (int, error) {
	if c.port == nil {
		return 0, transport.ErrChannelClosed
	}

	return c.port.Write(p)
}

// Read maps the io.EOF that tarm/serial reports on a POSIX read timeout to
// the (0, nil) timeout convention.
func (c *channel) Read(p []byte) (int, error) {
	if c.port == nil {
		return 0, transport.ErrChannelClosed
	}

	n, err := c.port.Read(p)
	if n == 0 && errors.Is(err, io.EOF) {
		return 0, nil
	}

	return n, err
}

func (c *channel) Close() error {
	if c.port == nil {
		return nil
	}
	err := c.port.Close()
	c.port = nil

	return err
}
