package session

import (
	"errors"

	"github.com/arloliu/go-manip/catalog"
)

// Lifecycle errors.
var (
	// ErrNotInitialized indicates an operation that needs an initialized registry.
	ErrNotInitialized = errors.New("session: not initialized")

	// ErrAlreadyInitialized indicates Initialize on an initialized registry.
	ErrAlreadyInitialized = errors.New("session: already initialized, uninitialize first")

	// ErrTooManyManipulators indicates more manipulators than the registry may hold.
	ErrTooManyManipulators = errors.New("session: too many manipulators")
)

// Device errors.
var (
	// ErrDeviceOpenFailed indicates a device that could not be opened or configured.
	ErrDeviceOpenFailed = errors.New("session: device open failed")

	// ErrInvalidDeviceIndex indicates a slot or device index with no handle.
	ErrInvalidDeviceIndex = catalog.ErrInvalidDeviceIndex
)
