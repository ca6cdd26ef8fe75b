package roe

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/arloliu/go-manip/logger"
	"github.com/arloliu/go-manip/transport"
)

// Engine runs ROE-200 commands over an open, configured channel.
//
// An Engine holds no per-channel state and may be shared, but a single
// channel must only be used by one command at a time; the protocol is
// half-duplex.
type Engine struct {
	trailerMode TrailerMode
	logger      logger.Logger
	metrics     EngineMetrics
}

// Option configures an Engine.
type Option interface {
	apply(*Engine) error
}

type optFunc func(*Engine) error

func (f optFunc) apply(e *Engine) error { return f(e) }

// WithLogger sets the logger. Defaults to logger.GetLogger().
func WithLogger(l logger.Logger) Option {
	return optFunc(func(e *Engine) error {
		if l == nil {
			return errors.New("roe: logger must not be nil")
		}
		e.logger = l

		return nil
	})
}

// WithTrailerMode sets how reply trailers are consumed. Defaults to TrailerStrict.
func WithTrailerMode(m TrailerMode) Option {
	return optFunc(func(e *Engine) error {
		if m != TrailerStrict && m != TrailerTolerant {
			return fmt.Errorf("roe: invalid trailer mode %d", m)
		}
		e.trailerMode = m

		return nil
	})
}

// NewEngine creates an Engine.
func NewEngine(opts ...Option) (*Engine, error) {
	e := &Engine{
		trailerMode: TrailerStrict,
		logger:      logger.GetLogger(),
	}
	for _, opt := range opts {
		if err := opt.apply(e); err != nil {
			return nil, err
		}
	}

	return e, nil
}

// TrailerMode returns the configured trailer mode.
func (e *Engine) TrailerMode() TrailerMode { return e.trailerMode }

// Metrics returns the engine counters.
func (e *Engine) Metrics() *EngineMetrics { return &e.metrics }

// SelectDrive makes drive the target of subsequent commands.
//
// It purges the receive buffer, writes [0x49, code] and discards the 3-byte
// acknowledgement. An invalid drive fails with ErrInvalidDriveSelector before
// any I/O. A failed write is reported as ErrProtocolWrite, a missing
// acknowledgement as ErrProtocolRead.
func (e *Engine) SelectDrive(ctx context.Context, ch transport.Channel, drive Drive) error {
	frame, err := EncodeSelectDrive(drive)
	if err != nil {
		return err
	}

	return e.selectDrive(ctx, ch, drive, frame, ErrProtocolWrite, ErrProtocolRead)
}

// selectDrive runs the drive-select exchange, tagging write-side failures
// with writeErr and acknowledgement failures with readErr.
func (e *Engine) selectDrive(ctx context.Context, ch transport.Channel, drive Drive, frame []byte, writeErr, readErr error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := ch.Purge(transport.PurgeRX); err != nil {
		return fmt.Errorf("%w: select %s: purge: %w", writeErr, drive, err)
	}

	if err := e.write(ch, frame); err != nil {
		return fmt.Errorf("%w: select %s: %w", writeErr, drive, err)
	}

	if _, err := e.read(ch, DriveAckFrame); err != nil {
		return fmt.Errorf("%w: select %s ack: %w", readErr, drive, err)
	}

	e.metrics.incSelectCount()

	return nil
}

// QueryPosition returns the current position of drive.
//
// Sequence: purge RX and TX, select drive, write 'C', read PositionFrame and
// decode its payload. Any failure is reported as ErrProtocolRead and no
// position is returned.
func (e *Engine) QueryPosition(ctx context.Context, ch transport.Channel, drive Drive) (Position, error) {
	selectFrame, err := EncodeSelectDrive(drive)
	if err != nil {
		return Position{}, err
	}

	if err := e.purgeBoth(ctx, ch); err != nil {
		return Position{}, tag(ErrProtocolRead, err, "query %s", drive)
	}

	if err := e.selectDrive(ctx, ch, drive, selectFrame, ErrProtocolRead, ErrProtocolRead); err != nil {
		return Position{}, err
	}

	if err := ctx.Err(); err != nil {
		return Position{}, err
	}

	if err := e.write(ch, []byte{OpPosition}); err != nil {
		return Position{}, tag(ErrProtocolRead, err, "query %s: write", drive)
	}

	payload, err := e.read(ch, PositionFrame)
	if err != nil {
		return Position{}, tag(ErrProtocolRead, err, "query %s: reply", drive)
	}

	pos, err := DecodePosition(payload)
	if err != nil {
		return Position{}, tag(ErrProtocolRead, err, "query %s: decode", drive)
	}

	e.metrics.incQueryCount()
	e.logger.Debug("roe: position read", "drive", drive.String(), "position", pos.String())

	return pos, nil
}

// MovePosition commands drive to move to target.
//
// Sequence: purge RX and TX, select drive, write the 13-byte move frame and
// discard the 3-byte acknowledgement. Failures are reported as
// ErrProtocolWrite. The target is not range-checked here (see Validate), but a
// coordinate outside the 32-bit wire encoding fails with
// ErrCoordinateOverflow before any I/O.
func (e *Engine) MovePosition(ctx context.Context, ch transport.Channel, drive Drive, target Position) error {
	selectFrame, err := EncodeSelectDrive(drive)
	if err != nil {
		return err
	}
	moveFrame, err := EncodeMove(target)
	if err != nil {
		return err
	}

	if err := e.purgeBoth(ctx, ch); err != nil {
		return tag(ErrProtocolWrite, err, "move %s", drive)
	}

	if err := e.selectDrive(ctx, ch, drive, selectFrame, ErrProtocolWrite, ErrProtocolWrite); err != nil {
		return err
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	if err := e.write(ch, moveFrame); err != nil {
		return tag(ErrProtocolWrite, err, "move %s", drive)
	}

	if _, err := e.read(ch, MoveAckFrame); err != nil {
		return tag(ErrProtocolWrite, err, "move %s ack", drive)
	}

	e.metrics.incMoveCount()
	e.logger.Debug("roe: move sent", "drive", drive.String(), "target", target.String())

	return nil
}

func (e *Engine) purgeBoth(ctx context.Context, ch transport.Channel) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := ch.Purge(transport.PurgeBoth); err != nil {
		return fmt.Errorf("purge: %w", err)
	}

	return nil
}

func (e *Engine) write(ch transport.Channel, frame []byte) error {
	if err := writeAll(ch, frame); err != nil {
		e.metrics.incWriteErrCount()
		return err
	}
	e.metrics.addBytesSent(len(frame))
	e.logger.Debug("roe: frame written", "frame", hex.EncodeToString(frame))

	return nil
}

func (e *Engine) read(ch transport.Channel, f Frame) ([]byte, error) {
	payload, n, err := ReadFrame(ch, f, e.trailerMode)
	e.metrics.addBytesRecv(n)
	if err != nil {
		e.metrics.incReadErrCount()
		return nil, fmt.Errorf("%s: %w", f, err)
	}

	return payload, nil
}

// tag wraps err with sentinel unless err is a context error.
func tag(sentinel, err error, format string, args ...any) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	return fmt.Errorf("%w: %s: %w", sentinel, fmt.Sprintf(format, args...), err)
}
