// Package transport defines the narrow byte-stream contract the manipulator
// driver needs from a USB-serial transport.
//
// A [Transport] enumerates attached endpoints and opens a [Channel] by serial
// identifier. A Channel exposes the line configuration steps used during
// handle setup, buffer purges, and blocking reads and writes bounded by the
// configured timeout.
//
// # Read semantics
//
// Channel.Read follows the FTDI D2XX convention: it blocks until at least one
// byte is available or the read timeout elapses, and returns (0, nil) on
// timeout. Callers needing an exact byte count loop and treat a zero-length
// read as [ErrTimeout].
//
// # Drivers
//
//   - serialport: go.bug.st/serial with USB enumeration.
//   - tarmport: github.com/tarm/serial with a statically configured port list.
//   - simulator: an in-memory ROE-200 controller for tests and dry runs.
package transport
