// Package simulator provides an in-memory transport.Transport whose devices
// emulate the Sutter ROE-200 byte protocol.
//
// A manipulator device created with NewManipulator wakes on 0xEE and then
// answers the drive-select ('I'), position ('C') and move ('M') commands with
// the same framing as the hardware: a 3-byte acknowledgement after 'I' and
// 'M', and a leading byte, 12 little-endian payload bytes and a 14-byte
// trailer after 'C'. Positions are tracked per drive.
//
// Reads never block: an empty reply queue reads as a timeout (0, nil), which
// keeps tests deterministic. Faults can be injected per configuration step, at
// enumeration and open time, or by truncating replies.
package simulator
