// Package session owns the set of open manipulator controllers.
//
// A Registry enumerates devices through a catalog, opens and configures a
// Handle for every recognized manipulator and routes position queries and
// moves to the protocol engine.
//
// # Lifecycle
//
//	Uninitialized --Initialize--> Initialized --Uninitialize--> Uninitialized
//
// Initialize while Initialized returns ErrAlreadyInitialized and leaves the
// handle table untouched; Uninitialize while Uninitialized returns
// ErrNotInitialized and does nothing.
//
// # Slots
//
// Initialize returns the catalog indices of the opened devices. Commands
// address a device by its table slot, the position of its index in that
// slice: slot k is the device at indices[k].
//
// # Handle setup
//
// Every handle is configured in a fixed order before use: 8N1, no flow
// control, 500 ms timeouts, purge, latency timer 16, 128000 baud, 64-byte USB
// transfers, then the wake byte 0xEE. How step failures are treated is chosen
// with WithSetupPolicy.
//
// # Concurrency
//
// A Registry is safe for concurrent use. Commands on the same handle are
// serialized; commands on different handles may run in parallel.
package session
