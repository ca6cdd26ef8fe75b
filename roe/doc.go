// Package roe implements the binary command protocol of Sutter Instrument
// ROE-200 / MPC-200 manipulator controllers.
//
// # Protocol Overview
//
// The controller speaks a half-duplex, fixed-layout byte protocol over an
// FTDI USB-serial channel (128000 baud, 8N1, no flow control). After the
// single wake byte 0xEE it accepts three commands:
//
//   - 'I' (0x49) drive  select the drive (1 or 2) addressed by later commands
//   - 'C' (0x43)        report the current position of the selected drive
//   - 'M' (0x4D) x y z  move the selected drive to an absolute position
//
// All axis values are 32-bit little-endian integers in controller steps
// (1 step = 62.5 nm, travel 0..400000 steps = 25 mm).
//
// # Frames
//
// Replies are consumed with a declarative [Frame]: a number of leading bytes
// to skip, the payload length, and a trailer to discard.
//
//	drive-select reply  skip 0  payload 0   trailer 3
//	position reply      skip 1  payload 12  trailer 14
//	move reply          skip 0  payload 0   trailer 3
//
// No current-drive state is cached: every query and move re-selects its drive.
// The controller does not acknowledge move completion; query the position
// afterwards to confirm it.
//
// # Errors
//
// Any incomplete write or read surfaces as [ErrProtocolWrite] or
// [ErrProtocolRead]; no partial position is ever returned. There is no
// retry inside the engine.
package roe
