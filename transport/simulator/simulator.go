package simulator

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/arloliu/go-manip/transport"
)

// ErrDeviceBusy is returned when opening a device that already has an open channel.
var ErrDeviceBusy = errors.New("simulator: device already open")

// Transport is an in-memory transport over a fixed set of devices.
type Transport struct {
	mu           sync.Mutex
	devices      []*Device
	snapshot     []*Device
	enumerateErr error
}

var _ transport.Transport = (*Transport)(nil)

// New creates a Transport listing devices in the given order.
func New(devices ...*Device) *Transport {
	return &Transport{devices: devices}
}

// Attach appends a device, as if it were plugged in.
func (t *Transport) Attach(d *Device) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.devices = append(t.devices, d)
}

// FailEnumerate makes Enumerate fail with err; nil restores normal behavior.
func (t *Transport) FailEnumerate(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.enumerateErr = err
}

// Device returns the device with the given serial id, or nil.
func (t *Transport) Device(serialID string) *Device {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, d := range t.devices {
		if d.serialID == serialID {
			return d
		}
	}

	return nil
}

func (t *Transport) Enumerate() (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.enumerateErr != nil {
		t.snapshot = nil
		return 0, fmt.Errorf("%w: %w", transport.ErrTransportUnavailable, t.enumerateErr)
	}
	t.snapshot = append([]*Device(nil), t.devices...)

	return len(t.snapshot), nil
}

func (t *Transport) at(index int) (*Device, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if index < 0 || index >= len(t.snapshot) {
		return nil, fmt.Errorf("%w: index %d", transport.ErrDeviceNotFound, index)
	}

	return t.snapshot[index], nil
}

func (t *Transport) Description(index int) (string, error) {
	d, err := t.at(index)
	if err != nil {
		return "", err
	}

	return d.description, nil
}

func (t *Transport) SerialID(index int) (string, error) {
	d, err := t.at(index)
	if err != nil {
		return "", err
	}

	return d.serialID, nil
}

func (t *Transport) Open(serialID string) (transport.Channel, error) {
	d := t.Device(serialID)
	if d == nil || serialID == "" {
		return nil, fmt.Errorf("%w: serial %q", transport.ErrDeviceNotFound, serialID)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.openErr != nil {
		return nil, d.openErr
	}
	if d.open {
		return nil, fmt.Errorf("%w: %s", ErrDeviceBusy, serialID)
	}

	d.open = true
	d.openCount++
	d.pending, d.replies = nil, nil

	return &channel{dev: d}, nil
}

type channel struct {
	dev    *Device
	closed bool
}

var _ transport.Channel = (*channel)(nil)

// step records call on the device and reports an injected fault or a closed channel.
func (c *channel) step(call string, apply func(d *Device)) error {
	d := c.dev
	d.mu.Lock()
	defer d.mu.Unlock()

	if c.closed {
		return transport.ErrChannelClosed
	}
	if err := d.record(call); err != nil {
		return err
	}
	if apply != nil {
		apply(d)
	}

	return nil
}

func (c *channel) SetDataCharacteristics(dataBits int, stop transport.StopBits, parity transport.Parity) error {
	return c.step(CallSetDataCharacteristics, func(d *Device) {
		d.line.DataBits, d.line.StopBits, d.line.Parity = dataBits, stop, parity
	})
}

func (c *channel) SetFlowControl(mode transport.FlowControl) error {
	return c.step(CallSetFlowControl, func(d *Device) { d.line.FlowControl = mode })
}

func (c *channel) SetTimeouts(read, write time.Duration) error {
	return c.step(CallSetTimeouts, func(d *Device) {
		d.line.ReadTimeout, d.line.WriteTimeout = read, write
	})
}

func (c *channel) Purge(mode transport.PurgeMode) error {
	return c.step(CallPurge, func(d *Device) {
		if mode.Has(transport.PurgeRX) {
			d.replies = nil
		}
		if mode.Has(transport.PurgeTX) {
			d.pending = nil
		}
	})
}

func (c *channel) SetLatencyTimer(ms uint8) error {
	return c.step(CallSetLatencyTimer, func(d *Device) { d.line.LatencyTimer = ms })
}

func (c *channel) SetBaudRate(baud int) error {
	return c.step(CallSetBaudRate, func(d *Device) { d.line.BaudRate = baud })
}

func (c *channel) SetUSBParameters(in, out int) error {
	return c.step(CallSetUSBParameters, func(d *Device) {
		d.line.USBInTransferSize, d.line.USBOutTransferSize = in, out
	})
}

func (c *channel) Write(p []byte) (int, error) {
	err := c.step(CallWrite, func(d *Device) {
		d.written = append(d.written, append([]byte(nil), p...))
		if !d.emulate {
			return
		}
		d.pending = append(d.pending, p...)
		d.process()
	})
	if err != nil {
		return 0, err
	}

	return len(p), nil
}

func (c *channel) Read(p []byte) (int, error) {
	var n int
	err := c.step(CallRead, func(d *Device) {
		n = copy(p, d.replies)
		d.replies = d.replies[n:]
	})

	return n, err
}

func (c *channel) Close() error {
	d := c.dev
	d.mu.Lock()
	defer d.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	d.open = false
	d.calls = append(d.calls, CallClose)

	return d.failOn[CallClose]
}
