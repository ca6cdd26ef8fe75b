// Package serialport implements transport.Transport on top of go.bug.st/serial.
//
// Endpoints are discovered with the go.bug.st/serial/enumerator package: the
// USB product string is reported as the device description and the USB serial
// number as the serial identifier, which is how FTDI-based controllers such as
// the Sutter ROE-200 identify themselves.
package serialport

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/arloliu/go-manip/logger"
	"github.com/arloliu/go-manip/transport"
	"go.bug.st/serial"
	"go.bug.st/serial/enumerator"
)

const (
	// openBaudRate is used until handle setup programs the real rate.
	openBaudRate = 9600

	defaultSysfsRoot = "/sys/bus/usb-serial/devices"
)

// port is the subset of serial.Port used by a channel.
type port interface {
	SetMode(mode *serial.Mode) error
	SetReadTimeout(t time.Duration) error
	ResetInputBuffer() error
	ResetOutputBuffer() error
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
	Close() error
}

// Transport enumerates USB serial ports and opens them by USB serial number.
type Transport struct {
	mu      sync.Mutex
	ports   []*enumerator.PortDetails
	usbOnly bool
	logger  logger.Logger

	listPorts func() ([]*enumerator.PortDetails, error)
	openPort  func(name string, mode *serial.Mode) (port, error)
	sysfsRoot string
}

var _ transport.Transport = (*Transport)(nil)

// Option configures a Transport.
type Option func(*Transport)

// WithLogger sets the logger. Defaults to logger.GetLogger().
func WithLogger(l logger.Logger) Option {
	return func(t *Transport) {
		if l != nil {
			t.logger = l
		}
	}
}

// WithAllPorts includes non-USB ports (which carry no description or serial
// number) in enumeration. By default only USB ports are listed.
func WithAllPorts() Option {
	return func(t *Transport) {
		t.usbOnly = false
	}
}

// New creates a Transport.
func New(opts ...Option) *Transport {
	t := &Transport{
		usbOnly:   true,
		logger:    logger.GetLogger(),
		listPorts: enumerator.GetDetailedPortsList,
		openPort: func(name string, mode *serial.Mode) (port, error) {
			return serial.Open(name, mode)
		},
		sysfsRoot: defaultSysfsRoot,
	}
	for _, opt := range opts {
		opt(t)
	}

	return t
}

func (t *Transport) list() ([]*enumerator.PortDetails, error) {
	all, err := t.listPorts()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", transport.ErrTransportUnavailable, err)
	}

	ports := make([]*enumerator.PortDetails, 0, len(all))
	for _, p := range all {
		if p == nil || (t.usbOnly && !p.IsUSB) {
			continue
		}
		ports = append(ports, p)
	}

	return ports, nil
}

// Enumerate takes a new snapshot of attached ports and returns its size.
func (t *Transport) Enumerate() (int, error) {
	ports, err := t.list()
	if err != nil {
		t.mu.Lock()
		t.ports = nil
		t.mu.Unlock()

		return 0, err
	}

	t.mu.Lock()
	t.ports = ports
	t.mu.Unlock()

	t.logger.Debug("serialport: enumerated ports", "count", len(ports))

	return len(ports), nil
}

func (t *Transport) at(index int) (*enumerator.PortDetails, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if index < 0 || index >= len(t.ports) {
		return nil, fmt.Errorf("%w: index %d", transport.ErrDeviceNotFound, index)
	}

	return t.ports[index], nil
}

// Description returns the USB product string of the port at index.
func (t *Transport) Description(index int) (string, error) {
	p, err := t.at(index)
	if err != nil {
		return "", err
	}

	return p.Product, nil
}

// SerialID returns the USB serial number of the port at index.
func (t *Transport) SerialID(index int) (string, error) {
	p, err := t.at(index)
	if err != nil {
		return "", err
	}

	return p.SerialNumber, nil
}

// Open resolves serialID to a port name with a fresh enumeration and opens it.
func (t *Transport) Open(serialID string) (transport.Channel, error) {
	if serialID == "" {
		return nil, fmt.Errorf("%w: empty serial id", transport.ErrDeviceNotFound)
	}

	ports, err := t.list()
	if err != nil {
		return nil, err
	}

	var name string
	for _, p := range ports {
		if p.SerialNumber == serialID {
			name = p.Name
			break
		}
	}
	if name == "" {
		return nil, fmt.Errorf("%w: serial %q", transport.ErrDeviceNotFound, serialID)
	}

	mode := &serial.Mode{
		BaudRate: openBaudRate,
		DataBits: transport.DefaultDataBits,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	p, err := t.openPort(name, mode)
	if err != nil {
		return nil, fmt.Errorf("serialport: open %s: %w", name, err)
	}

	t.logger.Debug("serialport: port opened", "name", name, "serial", serialID)

	return &channel{
		name:      name,
		port:      p,
		mode:      mode,
		sysfsRoot: t.sysfsRoot,
	}, nil
}

type channel struct {
	name      string
	port      port
	mode      *serial.Mode
	sysfsRoot string
	closed    bool
}

var _ transport.Channel = (*channel)(nil)

func (c *channel) SetDataCharacteristics(dataBits int, stop transport.StopBits, parity transport.Parity) error {
	if c.closed {
		return transport.ErrChannelClosed
	}

	mode := *c.mode
	mode.DataBits = dataBits

	switch stop {
	case transport.StopBits1:
		mode.StopBits = serial.OneStopBit
	case transport.StopBits2:
		mode.StopBits = serial.TwoStopBits
	default:
		return fmt.Errorf("serialport: stop bits %d: %w", stop, transport.ErrNotSupported)
	}

	switch parity {
	case transport.ParityNone:
		mode.Parity = serial.NoParity
	case transport.ParityOdd:
		mode.Parity = serial.OddParity
	case transport.ParityEven:
		mode.Parity = serial.EvenParity
	default:
		return fmt.Errorf("serialport: parity %d: %w", parity, transport.ErrNotSupported)
	}

	if err := c.port.SetMode(&mode); err != nil {
		return err
	}
	c.mode = &mode

	return nil
}

// SetFlowControl accepts only FlowNone; go.bug.st/serial opens ports without
// hardware or software flow control.
func (c *channel) SetFlowControl(mode transport.FlowControl) error {
	if c.closed {
		return transport.ErrChannelClosed
	}
	if mode != transport.FlowNone {
		return fmt.Errorf("serialport: flow control %d: %w", mode, transport.ErrNotSupported)
	}

	return nil
}

// SetTimeouts applies the read timeout. Writes on a tty block until the data is
// queued, so the write timeout is ignored.
func (c *channel) SetTimeouts(read, _ time.Duration) error {
	if c.closed {
		return transport.ErrChannelClosed
	}

	return c.port.SetReadTimeout(read)
}

func (c *channel) Purge(mode transport.PurgeMode) error {
	if c.closed {
		return transport.ErrChannelClosed
	}

	var errs error
	if mode.Has(transport.PurgeRX) {
		errs = errors.Join(errs, c.port.ResetInputBuffer())
	}
	if mode.Has(transport.PurgeTX) {
		errs = errors.Join(errs, c.port.ResetOutputBuffer())
	}

	return errs
}

// SetLatencyTimer writes the ftdi_sio latency_timer attribute on Linux.
func (c *channel) SetLatencyTimer(ms uint8) error {
	if c.closed {
		return transport.ErrChannelClosed
	}
	if runtime.GOOS != "linux" {
		return fmt.Errorf("serialport: latency timer on %s: %w", runtime.GOOS, transport.ErrNotSupported)
	}

	return writeLatencyTimer(c.sysfsRoot, c.name, ms)
}

func writeLatencyTimer(root, portName string, ms uint8) error {
	path := filepath.Join(root, filepath.Base(portName), "latency_timer")
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("serialport: latency timer %s: %w", path, transport.ErrNotSupported)
	}

	return os.WriteFile(path, []byte(strconv.Itoa(int(ms))), 0o644) //nolint:gosec // sysfs attribute
}

func (c *channel) SetBaudRate(baud int) error {
	if c.closed {
		return transport.ErrChannelClosed
	}

	mode := *c.mode
	mode.BaudRate = baud
	if err := c.port.SetMode(&mode); err != nil {
		return err
	}
	c.mode = &mode

	return nil
}

func (c *channel) SetUSBParameters(_, _ int) error {
	if c.closed {
		return transport.ErrChannelClosed
	}

	return fmt.Errorf("serialport: usb transfer size: %w", transport.ErrNotSupported)
}

func (c *channel) Write(p []byte) (int, error) {
	if c.closed {
		return 0, transport.ErrChannelClosed
	}

	return c.port.Write(p)
}

func (c *channel) Read(p []byte) (int, error) {
	if c.closed {
		return 0, transport.ErrChannelClosed
	}

	return c.port.Read(p)
}

func (c *channel) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true

	return c.port.Close()
}
