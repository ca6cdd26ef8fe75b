package roe

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/arloliu/go-manip/logger"
)

// Travel limits and resolution, in controller steps.
const (
	MinCoordinate = 0
	MaxCoordinate = 400000

	// StepNanometers is the length of one controller step.
	StepNanometers = 62.5
)

// Axis names one coordinate of a Position.
type Axis uint8

const (
	AxisX Axis = iota
	AxisY
	AxisZ
)

var axisNames = [...]string{"x", "y", "z"}

func (a Axis) String() string {
	if int(a) < len(axisNames) {
		return axisNames[a]
	}

	return fmt.Sprintf("axis(%d)", uint8(a))
}

// Axes lists the axes in wire order.
var Axes = [3]Axis{AxisX, AxisY, AxisZ}

// Position is an absolute stage position in controller steps.
type Position struct {
	X, Y, Z int
}

// Get returns the coordinate of axis a.
func (p Position) Get(a Axis) int {
	switch a {
	case AxisX:
		return p.X
	case AxisY:
		return p.Y
	default:
		return p.Z
	}
}

// With returns a copy of p with axis a set to v.
func (p Position) With(a Axis, v int) Position {
	switch a {
	case AxisX:
		p.X = v
	case AxisY:
		p.Y = v
	default:
		p.Z = v
	}

	return p
}

func (p Position) String() string {
	return fmt.Sprintf("(%d, %d, %d)", p.X, p.Y, p.Z)
}

// Micrometers converts p to micrometres.
func (p Position) Micrometers() (x, y, z float64) {
	const k = StepNanometers / 1000

	return float64(p.X) * k, float64(p.Y) * k, float64(p.Z) * k
}

// PositionFromMicrometers converts micrometres to the nearest step position.
func PositionFromMicrometers(x, y, z float64) Position {
	const k = 1000 / StepNanometers

	return Position{
		X: int(math.Round(x * k)),
		Y: int(math.Round(y * k)),
		Z: int(math.Round(z * k)),
	}
}

// CoordinateError reports one axis outside the travel range.
type CoordinateError struct {
	Axis  Axis
	Value int
}

func (e *CoordinateError) Error() string {
	return fmt.Sprintf("roe: %s coordinate %d out of range [%d, %d]", e.Axis, e.Value, MinCoordinate, MaxCoordinate)
}

func (e *CoordinateError) Unwrap() error {
	return ErrCoordinateOutOfRange
}

// Violations returns one CoordinateError per out-of-range axis, in x, y, z order.
func Violations(p Position) []*CoordinateError {
	var out []*CoordinateError
	for _, a := range Axes {
		if v := p.Get(a); v < MinCoordinate || v > MaxCoordinate {
			out = append(out, &CoordinateError{Axis: a, Value: v})
		}
	}

	return out
}

// Validate returns nil when every axis is in range, otherwise the joined
// CoordinateErrors of the offending axes.
func Validate(p Position) error {
	violations := Violations(p)
	if len(violations) == 0 {
		return nil
	}

	errs := make([]error, len(violations))
	for i, v := range violations {
		errs[i] = v
	}

	return errors.Join(errs...)
}

// Clamp limits every axis of p to the travel range.
func Clamp(p Position) Position {
	for _, a := range Axes {
		p = p.With(a, min(max(p.Get(a), MinCoordinate), MaxCoordinate))
	}

	return p
}

// ValidationPolicy decides what happens to a move target outside the travel range.
type ValidationPolicy uint8

const (
	// ValidateReject refuses the move.
	ValidateReject ValidationPolicy = iota
	// ValidateClamp logs a warning and moves to the clamped target.
	ValidateClamp
	// ValidateWarn logs a warning and sends the target unchanged.
	ValidateWarn
)

func (p ValidationPolicy) String() string {
	switch p {
	case ValidateReject:
		return "reject"
	case ValidateClamp:
		return "clamp"
	case ValidateWarn:
		return "warn"
	default:
		return fmt.Sprintf("policy(%d)", uint8(p))
	}
}

// ParseValidationPolicy parses "reject", "clamp" or "warn".
func ParseValidationPolicy(s string) (ValidationPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "reject":
		return ValidateReject, nil
	case "clamp":
		return ValidateClamp, nil
	case "warn":
		return ValidateWarn, nil
	default:
		return ValidateReject, fmt.Errorf("roe: unknown validation policy %q", s)
	}
}

// Apply checks target under the policy and returns the position to send.
// ValidateReject refuses any out-of-range target. ValidateWarn refuses a
// target that cannot be encoded, since sending it would wrap on the wire.
func (p ValidationPolicy) Apply(target Position, l logger.Logger) (Position, error) {
	err := Validate(target)
	if err == nil {
		return target, nil
	}

	switch p {
	case ValidateClamp:
		clamped := Clamp(target)
		l.Warn("roe: move target out of range, clamping", "target", target.String(), "clamped", clamped.String(), "error", err)

		return clamped, nil
	case ValidateWarn:
		if encErr := CheckEncodable(target); encErr != nil {
			return target, errors.Join(err, encErr)
		}
		l.Warn("roe: move target out of range, sending unchanged", "target", target.String(), "error", err)

		return target, nil
	default:
		return target, err
	}
}
