package transport

import (
	"errors"
	"time"
)

// Sentinel errors shared by all drivers.
var (
	// ErrTransportUnavailable indicates that endpoint enumeration failed.
	ErrTransportUnavailable = errors.New("transport: enumeration unavailable")
	// ErrDeviceNotFound indicates that no endpoint matches the requested serial id or index.
	ErrDeviceNotFound = errors.New("transport: device not found")
	// ErrTimeout indicates that a read or write did not complete within the channel timeout.
	ErrTimeout = errors.New("transport: operation timed out")
	// ErrNotSupported indicates that the driver cannot express a configuration step.
	ErrNotSupported = errors.New("transport: operation not supported by driver")
	// ErrChannelClosed indicates use of a channel after Close.
	ErrChannelClosed = errors.New("transport: channel closed")
)

// Parity of a serial line.
type Parity uint8

const (
	ParityNone Parity = iota
	ParityOdd
	ParityEven
)

// StopBits of a serial line.
type StopBits uint8

const (
	StopBits1 StopBits = iota
	StopBits2
)

// FlowControl mode of a serial line.
type FlowControl uint8

const (
	FlowNone FlowControl = iota
	FlowRTSCTS
	FlowDTRDSR
	FlowXonXoff
)

// PurgeMode selects which buffers Purge discards.
type PurgeMode uint8

const (
	PurgeRX PurgeMode = 1 << iota
	PurgeTX

	PurgeBoth = PurgeRX | PurgeTX
)

// Has reports whether m includes all bits of flag.
func (m PurgeMode) Has(flag PurgeMode) bool {
	return m&flag == flag
}

// Transport enumerates endpoints and opens channels to them.
//
// Enumerate takes a fresh snapshot; Description and SerialID index into the
// most recent snapshot.
type Transport interface {
	Enumerate() (int, error)
	Description(index int) (string, error)
	SerialID(index int) (string, error)
	Open(serialID string) (Channel, error)
}

// Channel is an exclusively owned, open session to one device.
//
// A Channel is NOT goroutine-safe; the owner serializes access.
type Channel interface {
	SetDataCharacteristics(dataBits int, stop StopBits, parity Parity) error
	SetFlowControl(mode FlowControl) error
	SetTimeouts(read, write time.Duration) error
	Purge(mode PurgeMode) error
	SetLatencyTimer(ms uint8) error
	SetBaudRate(baud int) error
	SetUSBParameters(inTransferSize, outTransferSize int) error

	// Write writes p and returns the number of bytes written.
	Write(p []byte) (int, error)
	// Read reads up to len(p) bytes; (0, nil) means the read timed out.
	Read(p []byte) (int, error)
	Close() error
}
