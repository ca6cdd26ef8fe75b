package roe

import "errors"

var (
	// ErrInvalidDriveSelector indicates a drive other than Drive1 or Drive2.
	ErrInvalidDriveSelector = errors.New("roe: invalid drive selector, should be 1 or 2")

	// ErrProtocolRead indicates that a reply could not be read completely.
	ErrProtocolRead = errors.New("roe: protocol read error")

	// ErrProtocolWrite indicates that a command could not be written or acknowledged.
	ErrProtocolWrite = errors.New("roe: protocol write error")

	// ErrCoordinateOutOfRange indicates a coordinate outside [MinCoordinate, MaxCoordinate].
	ErrCoordinateOutOfRange = errors.New("roe: coordinate out of range")

	// ErrCoordinateOverflow indicates a coordinate that does not fit the
	// 32-bit wire encoding.
	ErrCoordinateOverflow = errors.New("roe: coordinate does not fit in 32 bits")

	// ErrInvalidPayload indicates a payload of the wrong size for decoding.
	ErrInvalidPayload = errors.New("roe: invalid payload size")
)
