package session

import (
	"errors"
	"fmt"
	"sync"

	"github.com/arloliu/go-manip/catalog"
	"github.com/arloliu/go-manip/logger"
	"github.com/arloliu/go-manip/roe"
	"github.com/arloliu/go-manip/transport"
)

// Handle is an open, configured channel to one manipulator controller.
type Handle struct {
	// DeviceIndex is the catalog index the handle was opened from.
	DeviceIndex int
	// Slot is the handle's position in the registry table.
	Slot int
	// SerialID is the serial identifier the channel was opened with.
	SerialID string

	mu sync.Mutex
	ch transport.Channel
}

// String returns a short label for logs and listings.
func (h *Handle) String() string {
	return fmt.Sprintf("slot %d (device %d, serial %s)", h.Slot, h.DeviceIndex, h.SerialID)
}

// do runs fn with exclusive use of the handle's channel.
func (h *Handle) do(fn func(ch transport.Channel) error) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.ch == nil {
		return fmt.Errorf("%s: %w", h, transport.ErrChannelClosed)
	}

	return fn(h.ch)
}

// close closes the channel once; later calls return nil.
func (h *Handle) close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.ch == nil {
		return nil
	}
	err := h.ch.Close()
	h.ch = nil

	return err
}

// setupStep is one configuration call made on a freshly opened channel.
type setupStep struct {
	name string
	run  func(ch transport.Channel, lc transport.LineConfig) error
}

// setupSteps lists the configuration calls in the order the controller needs them.
var setupSteps = []setupStep{
	{"data characteristics", func(ch transport.Channel, lc transport.LineConfig) error {
		return ch.SetDataCharacteristics(lc.DataBits, lc.StopBits, lc.Parity)
	}},
	{"flow control", func(ch transport.Channel, lc transport.LineConfig) error {
		return ch.SetFlowControl(lc.FlowControl)
	}},
	{"timeouts", func(ch transport.Channel, lc transport.LineConfig) error {
		return ch.SetTimeouts(lc.ReadTimeout, lc.WriteTimeout)
	}},
	{"purge", func(ch transport.Channel, _ transport.LineConfig) error {
		return ch.Purge(transport.PurgeBoth)
	}},
	{"latency timer", func(ch transport.Channel, lc transport.LineConfig) error {
		return ch.SetLatencyTimer(lc.LatencyTimer)
	}},
	{"baud rate", func(ch transport.Channel, lc transport.LineConfig) error {
		return ch.SetBaudRate(lc.BaudRate)
	}},
	{"usb parameters", func(ch transport.Channel, lc transport.LineConfig) error {
		return ch.SetUSBParameters(lc.USBInTransferSize, lc.USBOutTransferSize)
	}},
	{"wake", func(ch transport.Channel, _ transport.LineConfig) error {
		n, err := ch.Write([]byte{roe.WakeByte})
		if err != nil {
			return err
		}
		if n != 1 {
			return fmt.Errorf("%w: wake byte not written", transport.ErrTimeout)
		}

		return nil
	}},
}

// openHandle opens dev and runs the setup sequence on it.
func (r *Registry) openHandle(dev catalog.Device, slot int) (*Handle, error) {
	log := r.log.With("device", dev.Index, "serial", dev.SerialID)

	if dev.SerialID == "" {
		return nil, fmt.Errorf("%w: device %d has no serial id", ErrDeviceOpenFailed, dev.Index)
	}

	ch, err := r.cat.Transport().Open(dev.SerialID)
	if err != nil {
		return nil, fmt.Errorf("%w: device %d (%s): %w", ErrDeviceOpenFailed, dev.Index, dev.SerialID, err)
	}

	if err := r.setupChannel(ch, log); err != nil {
		if cerr := ch.Close(); cerr != nil {
			log.Warn("session: close after failed setup", "error", cerr)
		}

		return nil, fmt.Errorf("%w: device %d (%s): %w", ErrDeviceOpenFailed, dev.Index, dev.SerialID, err)
	}

	return &Handle{
		DeviceIndex: dev.Index,
		Slot:        slot,
		SerialID:    dev.SerialID,
		ch:          ch,
	}, nil
}

// setupChannel applies the configured line parameters in order.
//
// transport.ErrNotSupported is never fatal. Other failures are logged and
// tolerated under SetupLenient, and returned under SetupStrict.
func (r *Registry) setupChannel(ch transport.Channel, log logger.Logger) error {
	lc := r.cfg.LineConfig()

	for _, step := range setupSteps {
		err := step.run(ch, lc)
		switch {
		case err == nil:
			continue
		case errors.Is(err, transport.ErrNotSupported):
			log.Debug("session: setup step not supported by driver", "step", step.name)
		case r.cfg.SetupPolicy() == SetupStrict:
			return fmt.Errorf("%s: %w", step.name, err)
		default:
			r.metrics.incSetupWarnCount()
			log.Warn("session: setup step failed, continuing", "step", step.name, "error", err)
		}
	}

	return nil
}
