// Package command exposes a Registry through named commands, the way a
// scripting host calls into the controller: a command name plus numeric
// arguments in, numbers or text out, and human-readable diagnostics on a
// writer.
package command

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/arloliu/go-manip/logger"
	"github.com/arloliu/go-manip/session"
)

// Tool identity printed by Help.
const (
	Name    = "ManipControl"
	Version = "1.10"
)

// ErrorText is returned in place of a device name or serial when the lookup is refused.
const ErrorText = "error"

var (
	// ErrUnknownCommand indicates a command name the dispatcher does not know.
	ErrUnknownCommand = errors.New("command: unknown command")

	// ErrArgumentCount indicates the wrong number of arguments for a command.
	ErrArgumentCount = errors.New("command: wrong number of arguments")

	// ErrInvalidArgument indicates an argument that is not a whole number.
	ErrInvalidArgument = errors.New("command: invalid argument")

	// ErrAccessWhileInitialized indicates a catalog lookup attempted while devices are held open.
	ErrAccessWhileInitialized = errors.New("command: not available while initialized")
)

// Result is what a command hands back: numbers, text, or neither.
type Result struct {
	Values []float64
	Text   string
}

func (r Result) String() string {
	if r.Text != "" {
		return r.Text
	}

	parts := make([]string, len(r.Values))
	for i, v := range r.Values {
		parts[i] = strconv.FormatFloat(v, 'f', -1, 64)
	}

	return "[" + strings.Join(parts, " ") + "]"
}

// Dispatcher runs named commands against a Registry.
type Dispatcher struct {
	reg     *session.Registry
	out     io.Writer
	logger  logger.Logger
	entries map[string]entry
}

// Option configures a Dispatcher.
type Option func(*Dispatcher) error

// WithOutput sets where diagnostics are printed. Defaults to os.Stdout.
func WithOutput(w io.Writer) Option {
	return func(d *Dispatcher) error {
		if w == nil {
			return errors.New("command: output must not be nil")
		}
		d.out = w

		return nil
	}
}

// WithLogger sets the logger. Defaults to logger.GetLogger().
func WithLogger(l logger.Logger) Option {
	return func(d *Dispatcher) error {
		if l == nil {
			return errors.New("command: logger must not be nil")
		}
		d.logger = l

		return nil
	}
}

// New creates a Dispatcher over reg.
func New(reg *session.Registry, opts ...Option) (*Dispatcher, error) {
	if reg == nil {
		return nil, errors.New("command: registry must not be nil")
	}

	d := &Dispatcher{
		reg:    reg,
		out:    os.Stdout,
		logger: logger.GetLogger(),
	}
	for _, opt := range opts {
		if err := opt(d); err != nil {
			return nil, err
		}
	}
	d.entries = d.commandTable()

	return d, nil
}

// Registry returns the registry the dispatcher drives.
func (d *Dispatcher) Registry() *session.Registry { return d.reg }

// Commands returns the command names in help order.
func (d *Dispatcher) Commands() []string {
	names := make([]string, len(commandOrder))
	copy(names, commandOrder)

	return names
}

func (d *Dispatcher) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(d.out, format, args...)
}

// toInt converts a numeric argument to an int, refusing fractions and non-finite values.
func toInt(name string, v float64) (int, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) || v != math.Trunc(v) {
		return 0, fmt.Errorf("%w: %s must be a whole number, got %v", ErrInvalidArgument, name, v)
	}
	if v > math.MaxInt32 || v < math.MinInt32 {
		return 0, fmt.Errorf("%w: %s out of range, got %v", ErrInvalidArgument, name, v)
	}

	return int(v), nil
}
