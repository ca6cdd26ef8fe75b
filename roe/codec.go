package roe

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// Command opcodes.
const (
	WakeByte      byte = 0xEE // puts the controller into command mode
	OpSelectDrive byte = 0x49 // 'I'
	OpPosition    byte = 0x43 // 'C'
	OpMove        byte = 0x4D // 'M'
)

// PayloadSize is the size of an encoded Position: three 32-bit axes.
const PayloadSize = 12

// Named reply frames.
var (
	DriveAckFrame = Frame{Skip: 0, Payload: 0, Trailer: 3}
	PositionFrame = Frame{Skip: 1, Payload: PayloadSize, Trailer: 14}
	MoveAckFrame  = Frame{Skip: 0, Payload: 0, Trailer: 3}
)

// EncodePosition encodes p as x, y, z little-endian 32-bit integers.
// A coordinate outside the int32 range fails with ErrCoordinateOverflow.
func EncodePosition(p Position) ([PayloadSize]byte, error) {
	var buf [PayloadSize]byte
	if err := CheckEncodable(p); err != nil {
		return buf, err
	}

	for i, a := range Axes {
		binary.LittleEndian.PutUint32(buf[4*i:], uint32(int32(p.Get(a)))) //nolint:gosec // range checked above
	}

	return buf, nil
}

// CheckEncodable returns nil when every axis of p fits the 32-bit wire
// encoding, otherwise one ErrCoordinateOverflow per offending axis.
func CheckEncodable(p Position) error {
	var errs []error
	for _, a := range Axes {
		if v := p.Get(a); v < math.MinInt32 || v > math.MaxInt32 {
			errs = append(errs, fmt.Errorf("%w: %s = %d", ErrCoordinateOverflow, a, v))
		}
	}

	return errors.Join(errs...)
}

// DecodePosition decodes a 12-byte payload into a Position.
func DecodePosition(payload []byte) (Position, error) {
	if len(payload) != PayloadSize {
		return Position{}, fmt.Errorf("%w: got %d bytes, want %d", ErrInvalidPayload, len(payload), PayloadSize)
	}

	var p Position
	for i, a := range Axes {
		p = p.With(a, int(int32(binary.LittleEndian.Uint32(payload[4*i:])))) //nolint:gosec // two's complement on the wire
	}

	return p, nil
}

// EncodeMove builds the 13-byte move command for target.
func EncodeMove(target Position) ([]byte, error) {
	payload, err := EncodePosition(target)
	if err != nil {
		return nil, err
	}

	frame := make([]byte, 0, 1+PayloadSize)
	frame = append(frame, OpMove)

	return append(frame, payload[:]...), nil
}

// EncodeSelectDrive builds the 2-byte drive-select command.
func EncodeSelectDrive(d Drive) ([]byte, error) {
	code, err := d.Code()
	if err != nil {
		return nil, err
	}

	return []byte{OpSelectDrive, code}, nil
}
