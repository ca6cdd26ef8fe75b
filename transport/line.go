package transport

import "time"

// Line parameters the ROE-200 expects.
const (
	DefaultDataBits        = 8
	DefaultReadTimeout     = 500 * time.Millisecond
	DefaultWriteTimeout    = 500 * time.Millisecond
	DefaultLatencyTimer    = 16
	DefaultBaudRate        = 128000
	DefaultUSBTransferSize = 64
	DefaultUSBExtraLatency = 0
)

// LineConfig is the complete configuration applied to a freshly opened channel.
type LineConfig struct {
	DataBits     int
	StopBits     StopBits
	Parity       Parity
	FlowControl  FlowControl
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	LatencyTimer uint8
	BaudRate     int
	// USBInTransferSize is the USB packet size; USBOutTransferSize carries the
	// second FT_SetUSBParameters argument (0 = driver default).
	USBInTransferSize  int
	USBOutTransferSize int
}

// DefaultLineConfig returns 8N1, no flow control, 500 ms timeouts, latency 16,
// 128000 baud and 64-byte USB transfers.
func DefaultLineConfig() LineConfig {
	return LineConfig{
		DataBits:           DefaultDataBits,
		StopBits:           StopBits1,
		Parity:             ParityNone,
		FlowControl:        FlowNone,
		ReadTimeout:        DefaultReadTimeout,
		WriteTimeout:       DefaultWriteTimeout,
		LatencyTimer:       DefaultLatencyTimer,
		BaudRate:           DefaultBaudRate,
		USBInTransferSize:  DefaultUSBTransferSize,
		USBOutTransferSize: DefaultUSBExtraLatency,
	}
}
