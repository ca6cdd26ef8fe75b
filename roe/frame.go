package roe

import (
	"fmt"
	"strings"

	"github.com/arloliu/go-manip/transport"
)

// Frame describes the layout of a fixed-size reply:
//
//	[Skip bytes][Payload bytes][Trailer bytes]
//
// Skip and Trailer bytes are read and discarded; only the payload is returned.
type Frame struct {
	Skip    int
	Payload int
	Trailer int
}

// Size returns the total number of bytes the frame occupies on the wire.
func (f Frame) Size() int {
	return f.Skip + f.Payload + f.Trailer
}

func (f Frame) String() string {
	return fmt.Sprintf("frame{skip:%d payload:%d trailer:%d}", f.Skip, f.Payload, f.Trailer)
}

// TrailerMode controls how strictly a frame's trailer is consumed.
type TrailerMode uint8

const (
	// TrailerStrict requires every trailer byte to arrive before the timeout.
	TrailerStrict TrailerMode = iota
	// TrailerTolerant reads up to the trailer length and accepts a timeout,
	// for firmware that sends fewer noise bytes than the frame allows for.
	TrailerTolerant
)

func (m TrailerMode) String() string {
	if m == TrailerTolerant {
		return "tolerant"
	}

	return "strict"
}

// ParseTrailerMode parses "strict" or "tolerant".
func ParseTrailerMode(s string) (TrailerMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "strict":
		return TrailerStrict, nil
	case "tolerant":
		return TrailerTolerant, nil
	default:
		return TrailerStrict, fmt.Errorf("roe: unknown trailer mode %q", s)
	}
}

// ReadFrame consumes one reply laid out as f from ch and returns its payload
// and the number of bytes read from ch, discarded bytes included.
//
// The skip bytes are read first, then the payload one byte per read so that
// each byte gets the full channel timeout, then the trailer. A short skip or
// payload is always an error; a short trailer is an error only in
// TrailerStrict mode. The returned error wraps transport.ErrTimeout when the
// channel timed out. The byte count is valid on error too.
func ReadFrame(ch transport.Channel, f Frame, mode TrailerMode) ([]byte, int, error) {
	total := 0

	if f.Skip > 0 {
		n, err := readFull(ch, make([]byte, f.Skip))
		total += n
		if err != nil {
			return nil, total, fmt.Errorf("skip: %w", err)
		}
	}

	payload := make([]byte, f.Payload)
	for i := range payload {
		n, err := readFull(ch, payload[i:i+1])
		total += n
		if err != nil {
			return nil, total, fmt.Errorf("payload byte %d: %w", i, err)
		}
	}

	if f.Trailer > 0 {
		trailer := make([]byte, f.Trailer)

		var n int
		var err error
		if mode == TrailerTolerant {
			n, err = readAtMost(ch, trailer)
		} else {
			n, err = readFull(ch, trailer)
		}
		total += n
		if err != nil {
			return nil, total, fmt.Errorf("trailer: %w", err)
		}
	}

	return payload, total, nil
}

// readFull reads exactly len(buf) bytes and returns how many arrived. Each
// Read call waits up to the channel timeout; a zero-length read means the
// timeout expired.
func readFull(ch transport.Channel, buf []byte) (int, error) {
	read := 0
	for read < len(buf) {
		n, err := ch.Read(buf[read:])
		read += n

		if err != nil {
			return read, err
		}
		if n == 0 {
			return read, fmt.Errorf("%w: got %d of %d bytes", transport.ErrTimeout, read, len(buf))
		}
	}

	return read, nil
}

// readAtMost reads until buf is full or the channel times out.
func readAtMost(ch transport.Channel, buf []byte) (int, error) {
	read := 0
	for read < len(buf) {
		n, err := ch.Read(buf[read:])
		read += n

		if err != nil {
			return read, err
		}
		if n == 0 {
			break
		}
	}

	return read, nil
}

// writeAll writes all bytes in data. A zero-length write means the channel's
// write timeout expired.
func writeAll(ch transport.Channel, data []byte) error {
	for written := 0; written < len(data); {
		n, err := ch.Write(data[written:])
		written += n

		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("%w: wrote %d of %d bytes", transport.ErrTimeout, written, len(data))
		}
	}

	return nil
}
