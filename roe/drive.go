package roe

import (
	"fmt"
	"strconv"
)

// Drive selects one of the two stages driven by a controller.
type Drive uint8

const (
	Drive1 Drive = 1
	Drive2 Drive = 2
)

// Valid reports whether d is Drive1 or Drive2.
func (d Drive) Valid() bool {
	return d == Drive1 || d == Drive2
}

// Code returns the wire byte for d.
func (d Drive) Code() (byte, error) {
	switch d {
	case Drive1:
		return 0x01, nil
	case Drive2:
		return 0x02, nil
	default:
		return 0, fmt.Errorf("%w: got %d", ErrInvalidDriveSelector, uint8(d))
	}
}

func (d Drive) String() string {
	return "drive" + strconv.Itoa(int(d))
}

// ParseDrive converts a caller-supplied number into a Drive.
func ParseDrive(n int) (Drive, error) {
	if n != int(Drive1) && n != int(Drive2) {
		return 0, fmt.Errorf("%w: got %d", ErrInvalidDriveSelector, n)
	}

	return Drive(n), nil
}
