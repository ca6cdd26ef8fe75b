package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/puzpuzpuz/xsync/v3"

	"github.com/arloliu/go-manip/catalog"
	"github.com/arloliu/go-manip/logger"
	"github.com/arloliu/go-manip/roe"
	"github.com/arloliu/go-manip/transport"
)

// Registry owns the handle table of one session.
type Registry struct {
	cfg    *Config
	cat    *catalog.Catalog
	engine *roe.Engine
	log    logger.Logger

	mu        sync.RWMutex
	state     lifecycle
	handles   []*Handle
	byDevice  *xsync.MapOf[int, *Handle]
	sessionID string

	metrics Metrics
}

// New creates an uninitialized Registry over cat.
func New(cat *catalog.Catalog, opts ...Option) (*Registry, error) {
	if cat == nil {
		return nil, errors.New("session: catalog must not be nil")
	}

	cfg, err := NewConfig(opts...)
	if err != nil {
		return nil, err
	}

	engine, err := roe.NewEngine(
		roe.WithLogger(cfg.GetLogger()),
		roe.WithTrailerMode(cfg.TrailerMode()),
	)
	if err != nil {
		return nil, err
	}

	return &Registry{
		cfg:      cfg,
		cat:      cat,
		engine:   engine,
		log:      cfg.GetLogger(),
		byDevice: xsync.NewMapOf[int, *Handle](),
	}, nil
}

// Config returns the registry configuration.
func (r *Registry) Config() *Config { return r.cfg }

// Catalog returns the catalog the registry enumerates through.
func (r *Registry) Catalog() *catalog.Catalog { return r.cat }

// Metrics returns the registry counters.
func (r *Registry) Metrics() *Metrics { return &r.metrics }

// EngineMetrics returns the wire-level counters of the protocol engine.
func (r *Registry) EngineMetrics() *roe.EngineMetrics { return r.engine.Metrics() }

// State returns the lifecycle state.
func (r *Registry) State() State { return r.state.Get() }

// IsInitialized reports whether the registry is Initialized.
func (r *Registry) IsInitialized() bool { return r.state.IsInitialized() }

// SessionID returns the id assigned by the last Initialize, or "" when uninitialized.
func (r *Registry) SessionID() string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.sessionID
}

// Initialize opens every manipulator in the catalog and returns their
// catalog indices in catalog order.
//
// It fails with ErrAlreadyInitialized, returning an empty slice, when the
// registry is already Initialized, and with ErrTooManyManipulators before
// opening anything when the catalog holds more manipulators than the table
// capacity. A device that cannot be opened is logged and skipped.
func (r *Registry) Initialize(ctx context.Context) ([]int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.state.ToInitializing() {
		r.log.Warn("session: initialize while initialized")
		return []int{}, ErrAlreadyInitialized
	}

	manips := r.cat.Manipulators()
	if len(manips) > r.cfg.MaxManipulators() {
		r.state.Set(UninitializedState)
		return []int{}, fmt.Errorf("%w: found %d, capacity %d", ErrTooManyManipulators, len(manips), r.cfg.MaxManipulators())
	}

	sessionID := uuid.NewString()
	r.log = r.cfg.GetLogger().With("session", sessionID)

	handles := make([]*Handle, 0, len(manips))
	for _, dev := range manips {
		if err := ctx.Err(); err != nil {
			r.state.ToClosing()
			_ = r.closeHandles(handles)
			r.state.ToUninitialized()
			r.log = r.cfg.GetLogger()

			return []int{}, err
		}

		h, err := r.openHandle(dev, len(handles))
		if err != nil {
			r.metrics.incOpenFailCount()
			r.log.Error("session: skipping manipulator", "device", dev.Index, "serial", dev.SerialID, "error", err)

			continue
		}

		r.metrics.incOpenCount()
		r.log.Info("session: manipulator opened", "device", dev.Index, "slot", h.Slot, "serial", h.SerialID)
		handles = append(handles, h)
		r.byDevice.Store(h.DeviceIndex, h)
	}

	r.handles = handles
	r.sessionID = sessionID
	r.state.ToInitialized()
	r.metrics.incInitCount()
	r.metrics.setManipulators(len(handles))
	r.log.Info("session: initialized", "manipulators", len(handles))

	return r.indicesLocked(), nil
}

// Uninitialize closes every handle in table order and resets the registry.
//
// It returns ErrNotInitialized, and does nothing, when the registry is not
// Initialized. Close failures are logged and returned joined; the registry
// is Uninitialized afterwards either way.
func (r *Registry) Uninitialize() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.state.ToClosing() {
		r.log.Warn("session: uninitialize while not initialized")
		return ErrNotInitialized
	}

	err := r.closeHandles(r.handles)
	n := len(r.handles)

	r.handles = nil
	r.byDevice.Clear()
	r.sessionID = ""
	r.state.ToUninitialized()
	r.metrics.incUninitCount()
	r.metrics.setManipulators(0)
	r.log.Info("session: uninitialized", "manipulators", n)
	r.log = r.cfg.GetLogger()

	return err
}

// closeHandles closes handles in order and joins their close errors.
func (r *Registry) closeHandles(handles []*Handle) error {
	var errs []error
	for _, h := range handles {
		if err := h.close(); err != nil {
			r.metrics.incCloseErrCount()
			r.log.Warn("session: close failed", "slot", h.Slot, "serial", h.SerialID, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", h, err))
		}
		r.byDevice.Delete(h.DeviceIndex)
	}

	return errors.Join(errs...)
}

// Indices returns the catalog index of every handle in slot order.
func (r *Registry) Indices() []int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.indicesLocked()
}

func (r *Registry) indicesLocked() []int {
	indices := make([]int, len(r.handles))
	for i, h := range r.handles {
		indices[i] = h.DeviceIndex
	}

	return indices
}

// Len returns the number of open handles.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.handles)
}

// Handles returns a copy of the handle table.
func (r *Registry) Handles() []*Handle {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return append([]*Handle(nil), r.handles...)
}

// HandleFor returns the handle in table slot slot.
func (r *Registry) HandleFor(slot int) (*Handle, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.handleForLocked(slot)
}

func (r *Registry) handleForLocked(slot int) (*Handle, error) {
	if !r.state.IsInitialized() {
		return nil, ErrNotInitialized
	}
	if slot < 0 || slot >= len(r.handles) {
		return nil, fmt.Errorf("%w: slot %d, %d manipulators open", ErrInvalidDeviceIndex, slot, len(r.handles))
	}

	return r.handles[slot], nil
}

// HandleForDevice returns the handle opened from catalog index deviceIndex.
func (r *Registry) HandleForDevice(deviceIndex int) (*Handle, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if !r.state.IsInitialized() {
		return nil, ErrNotInitialized
	}

	h, ok := r.byDevice.Load(deviceIndex)
	if !ok {
		return nil, fmt.Errorf("%w: no manipulator at device %d", ErrInvalidDeviceIndex, deviceIndex)
	}

	return h, nil
}

// GetPosition reads the position of drive on the manipulator in slot.
func (r *Registry) GetPosition(ctx context.Context, slot int, drive roe.Drive) (roe.Position, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	h, err := r.handleForLocked(slot)
	if err != nil {
		return roe.Position{}, err
	}

	var pos roe.Position
	err = h.do(func(ch transport.Channel) error {
		var qerr error
		pos, qerr = r.engine.QueryPosition(ctx, ch, drive)

		return qerr
	})
	if err != nil {
		r.protocolFailure(err, h, "get position")
		return roe.Position{}, err
	}

	r.metrics.incQueryCount()

	return pos, nil
}

// ChangePosition moves drive on the manipulator in slot to target.
//
// The target is checked by the configured validation policy first; under
// roe.ValidateReject an out-of-range target is refused with an error
// wrapping roe.ErrCoordinateOutOfRange and nothing is sent. Under
// roe.ValidateWarn a target outside the 32-bit wire encoding is refused the
// same way, wrapping roe.ErrCoordinateOverflow as well.
func (r *Registry) ChangePosition(ctx context.Context, slot int, drive roe.Drive, target roe.Position) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	h, err := r.handleForLocked(slot)
	if err != nil {
		return err
	}

	if !drive.Valid() {
		return fmt.Errorf("%w: got %d", roe.ErrInvalidDriveSelector, uint8(drive))
	}

	send, err := r.cfg.ValidationPolicy().Apply(target, r.log.With("slot", slot, "drive", drive.String()))
	if err != nil {
		r.metrics.incRejectedMoveCount()
		return err
	}

	err = h.do(func(ch transport.Channel) error {
		return r.engine.MovePosition(ctx, ch, drive, send)
	})
	if err != nil {
		r.protocolFailure(err, h, "change position")
		return err
	}

	r.metrics.incMoveCount()

	return nil
}

func (r *Registry) protocolFailure(err error, h *Handle, op string) {
	if errors.Is(err, roe.ErrProtocolRead) || errors.Is(err, roe.ErrProtocolWrite) {
		r.metrics.incProtocolErrCount()
		r.log.Error("session: "+op+" failed", "slot", h.Slot, "serial", h.SerialID, "error", err)
	}
}
