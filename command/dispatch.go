package command

import (
	"context"
	"errors"
	"fmt"

	"github.com/arloliu/go-manip/roe"
	"github.com/arloliu/go-manip/session"
)

// entry describes one command: how many arguments it takes and how it runs.
type entry struct {
	args     int
	argsHelp string
	usage    string
	run      func(ctx context.Context, args []float64) (Result, error)
}

var commandOrder = []string{
	"numDevices",
	"numManips",
	"deviceName",
	"deviceSerial",
	"initialize",
	"uninitialize",
	"changePosition",
	"getPosition",
	"help",
}

// aliases maps alternative spellings to their command.
var aliases = map[string]string{
	"numManipulators": "numManips",
}

func (d *Dispatcher) commandTable() map[string]entry {
	return map[string]entry{
		"numDevices": {
			usage: "return the number of devices connected to the computer.",
			run: func(context.Context, []float64) (Result, error) {
				return Result{Values: []float64{float64(d.NumDevices())}}, nil
			},
		},
		"numManips": {
			usage: "return the number of connected devices that are manipulator controllers.",
			run: func(context.Context, []float64) (Result, error) {
				return Result{Values: []float64{float64(d.NumManipulators())}}, nil
			},
		},
		"deviceName": {
			args:     1,
			argsHelp: "the device number",
			usage:    "return the name of device number <deviceNumber>.",
			run: func(_ context.Context, args []float64) (Result, error) {
				i, err := toInt("device number", args[0])
				if err != nil {
					return Result{Text: ErrorText}, err
				}
				name, err := d.DeviceName(i)

				return Result{Text: name}, err
			},
		},
		"deviceSerial": {
			args:     1,
			argsHelp: "the device number",
			usage:    "return the serial number of device number <deviceNumber>.",
			run: func(_ context.Context, args []float64) (Result, error) {
				i, err := toInt("device number", args[0])
				if err != nil {
					return Result{Text: ErrorText}, err
				}
				serial, err := d.DeviceSerial(i)

				return Result{Text: serial}, err
			},
		},
		"initialize": {
			usage: "initialize all the manipulators connected to the computer. Returns a vector of the initialized device numbers.",
			run: func(ctx context.Context, _ []float64) (Result, error) {
				indices, err := d.Initialize(ctx)
				values := make([]float64, len(indices))
				for i, idx := range indices {
					values[i] = float64(idx)
				}

				return Result{Values: values}, err
			},
		},
		"uninitialize": {
			usage: "release control of all the manipulators connected to the computer.",
			run: func(context.Context, []float64) (Result, error) {
				return Result{}, d.Uninitialize()
			},
		},
		"changePosition": {
			args:     5,
			argsHelp: "device number, drive number, x coord, y coord, z coord, in that order",
			usage:    "change the x,y,z position of the particular device and drive.",
			run: func(ctx context.Context, args []float64) (Result, error) {
				nums := make([]int, len(args))
				for i, name := range []string{"device number", "drive number", "x", "y", "z"} {
					n, err := toInt(name, args[i])
					if err != nil {
						return Result{}, err
					}
					nums[i] = n
				}

				return Result{}, d.ChangePosition(ctx, nums[0], nums[1], nums[2], nums[3], nums[4])
			},
		},
		"getPosition": {
			args:     2,
			argsHelp: "the device number and the drive number, respectively",
			usage:    "obtain the x,y,z position of the particular device and drive.",
			run: func(ctx context.Context, args []float64) (Result, error) {
				slot, err := toInt("device number", args[0])
				if err != nil {
					return Result{}, err
				}
				drive, err := toInt("drive number", args[1])
				if err != nil {
					return Result{}, err
				}

				pos, err := d.GetPosition(ctx, slot, drive)
				if err != nil {
					return Result{}, err
				}

				return Result{Values: []float64{float64(pos.X), float64(pos.Y), float64(pos.Z)}}, nil
			},
		},
		"help": {
			usage: "list all available commands.",
			run: func(context.Context, []float64) (Result, error) {
				d.Help()
				return Result{}, nil
			},
		},
	}
}

// Exec runs the command called name with args.
//
// Commands that need an initialized registry report that before checking
// their argument count; catalog lookups check the count first. Diagnostics
// for every failure are also printed to the output writer.
func (d *Dispatcher) Exec(ctx context.Context, name string, args ...float64) (Result, error) {
	if alias, ok := aliases[name]; ok {
		name = alias
	}

	e, ok := d.entries[name]
	if !ok {
		d.printf("Invalid command. Type %s('help') to see command listing.\n", Name)
		return Result{}, fmt.Errorf("%w: %q", ErrUnknownCommand, name)
	}

	needsSession := name == "getPosition" || name == "changePosition"
	if needsSession && !d.reg.IsInitialized() {
		d.printf("Not initialized.\n")
		return Result{}, session.ErrNotInitialized
	}

	if len(args) != e.args {
		d.printf("Error. Using '%s' requires exactly %d other input parameter(s) (%s)\n", name, e.args, e.argsHelp)
		return d.refused(name), fmt.Errorf("%w: %s takes %d, got %d", ErrArgumentCount, name, e.args, len(args))
	}

	res, err := e.run(ctx, args)
	if err != nil {
		d.logger.Debug("command: failed", "command", name, "error", err)
	}

	return res, err
}

// refused returns the result a command gives when it does not run.
func (d *Dispatcher) refused(name string) Result {
	if name == "deviceName" || name == "deviceSerial" {
		return Result{Text: ErrorText}
	}

	return Result{}
}

// NumDevices returns the number of attached devices, 0 when enumeration fails.
func (d *Dispatcher) NumDevices() int {
	return d.reg.Catalog().Count()
}

// NumManipulators returns the number of attached manipulator controllers.
func (d *Dispatcher) NumManipulators() int {
	return d.reg.Catalog().CountManipulators()
}

// DeviceName returns the description of catalog device i.
//
// While the registry is initialized it returns ErrorText and
// ErrAccessWhileInitialized.
func (d *Dispatcher) DeviceName(i int) (string, error) {
	return d.lookup("deviceName", i, d.reg.Catalog().Description)
}

// DeviceSerial returns the serial id of catalog device i.
//
// While the registry is initialized it returns ErrorText and
// ErrAccessWhileInitialized.
func (d *Dispatcher) DeviceSerial(i int) (string, error) {
	return d.lookup("deviceSerial", i, d.reg.Catalog().SerialID)
}

func (d *Dispatcher) lookup(name string, i int, fn func(int) (string, error)) (string, error) {
	if d.reg.IsInitialized() {
		d.printf("Error. '%s' cannot be accessed once a device has been initialized\n", name)
		return ErrorText, fmt.Errorf("%w: %s", ErrAccessWhileInitialized, name)
	}

	v, err := fn(i)
	if err != nil {
		d.printf("Error. '%s': no device number %d\n", name, i)
		return ErrorText, err
	}

	return v, nil
}

// Initialize opens every attached manipulator and returns their device numbers.
func (d *Dispatcher) Initialize(ctx context.Context) ([]int, error) {
	indices, err := d.reg.Initialize(ctx)
	switch {
	case errors.Is(err, session.ErrAlreadyInitialized):
		d.printf("Already initialized. Uninitialize first if you want to re-run this routine\n")
		return indices, err
	case err != nil:
		d.printf("Error. %v\n", err)
		return indices, err
	}

	for slot := range indices {
		d.printf("%d is a manipulator\n", slot)
	}
	d.printf("Initialized %d manipulators\n", len(indices))

	return indices, nil
}

// Uninitialize releases every manipulator.
func (d *Dispatcher) Uninitialize() error {
	n := d.reg.Len()

	err := d.reg.Uninitialize()
	if errors.Is(err, session.ErrNotInitialized) {
		d.printf("Not initialized.\n")
		return err
	}
	if err != nil {
		d.printf("Warning. %v\n", err)
	}
	d.printf("Uninitialized %d manipulators\n", n)

	return err
}

// GetPosition reads the position of drive on the manipulator in slot.
func (d *Dispatcher) GetPosition(ctx context.Context, slot, drive int) (roe.Position, error) {
	dr, err := roe.ParseDrive(drive)
	if err != nil {
		d.printf("Error. %v\n", err)
		return roe.Position{}, err
	}

	pos, err := d.reg.GetPosition(ctx, slot, dr)
	if err != nil {
		d.diagnose(err)
		return roe.Position{}, err
	}

	return pos, nil
}

// ChangePosition moves drive on the manipulator in slot to (x, y, z) steps.
func (d *Dispatcher) ChangePosition(ctx context.Context, slot, drive, x, y, z int) error {
	dr, err := roe.ParseDrive(drive)
	if err != nil {
		d.printf("Error. %v\n", err)
		return err
	}

	target := roe.Position{X: x, Y: y, Z: z}
	for _, v := range roe.Violations(target) {
		d.printf("Error. %s value for 'changePosition' is out of valid range! %d <= %s <= %d.\n",
			v.Axis, roe.MinCoordinate, v.Axis, roe.MaxCoordinate)
	}

	if err := d.reg.ChangePosition(ctx, slot, dr, target); err != nil {
		if !errors.Is(err, roe.ErrCoordinateOutOfRange) {
			d.diagnose(err)
		}

		return err
	}

	return nil
}

func (d *Dispatcher) diagnose(err error) {
	if errors.Is(err, session.ErrNotInitialized) {
		d.printf("Not initialized.\n")
		return
	}
	d.printf("Error. %v\n", err)
}

// Help prints the command listing.
func (d *Dispatcher) Help() {
	d.printf("%s version %s\n", Name, Version)
	d.printf("=================================\n")
	d.printf("\tAvailable Commands:\n")
	d.printf("=================================\n")

	for _, name := range commandOrder {
		e := d.entries[name]

		call := "'" + name + "'"
		switch name {
		case "deviceName", "deviceSerial":
			call += ",deviceNumber"
		case "changePosition":
			call += ",deviceNumber,driveNumber,X,Y,Z"
		case "getPosition":
			call += ",deviceNumber,driveNumber"
		}
		d.printf("%s(%s): %s\n", Name, call, e.usage)
	}
}
