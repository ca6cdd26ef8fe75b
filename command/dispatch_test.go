package command

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/go-manip/catalog"
	"github.com/arloliu/go-manip/roe"
	"github.com/arloliu/go-manip/session"
	"github.com/arloliu/go-manip/transport/simulator"
)

func TestExec_CatalogCommands(t *testing.T) {
	d, _ := newTestDispatcher(t, scenarioDevices())
	ctx := t.Context()

	res, err := d.Exec(ctx, "numDevices")
	require.NoError(t, err)
	assert.Equal(t, []float64{2}, res.Values)

	res, err = d.Exec(ctx, "numManips")
	require.NoError(t, err)
	assert.Equal(t, []float64{1}, res.Values)

	res, err = d.Exec(ctx, "numManipulators")
	require.NoError(t, err)
	assert.Equal(t, []float64{1}, res.Values)

	res, err = d.Exec(ctx, "deviceName", 1)
	require.NoError(t, err)
	assert.Equal(t, "Other Device", res.Text)

	res, err = d.Exec(ctx, "deviceSerial", 0)
	require.NoError(t, err)
	assert.Equal(t, "ROE-A", res.Text)
}

func TestExec_DeviceLookupWhileInitialized(t *testing.T) {
	d, out := newTestDispatcher(t, scenarioDevices())
	ctx := t.Context()

	_, err := d.Exec(ctx, "initialize")
	require.NoError(t, err)
	out.Reset()

	res, err := d.Exec(ctx, "deviceName", 0)
	require.ErrorIs(t, err, ErrAccessWhileInitialized)
	assert.Equal(t, ErrorText, res.Text)
	assert.Contains(t, out.String(), "'deviceName' cannot be accessed once a device has been initialized")

	res, err = d.Exec(ctx, "deviceSerial", 0)
	require.ErrorIs(t, err, ErrAccessWhileInitialized)
	assert.Equal(t, "error", res.Text)

	// Counts stay available.
	res, err = d.Exec(ctx, "numDevices")
	require.NoError(t, err)
	assert.Equal(t, []float64{2}, res.Values)
}

func TestExec_DeviceLookupInvalidIndex(t *testing.T) {
	d, _ := newTestDispatcher(t, scenarioDevices())

	name, err := d.DeviceName(5)
	require.ErrorIs(t, err, catalog.ErrInvalidDeviceIndex)
	assert.Equal(t, ErrorText, name)
}

func TestExec_ArgumentCount(t *testing.T) {
	d, out := newTestDispatcher(t, scenarioDevices())
	ctx := t.Context()

	res, err := d.Exec(ctx, "deviceName")
	require.ErrorIs(t, err, ErrArgumentCount)
	assert.Equal(t, ErrorText, res.Text)
	assert.Contains(t, out.String(), "requires exactly 1 other input parameter(s)")

	_, err = d.Exec(ctx, "initialize")
	require.NoError(t, err)

	_, err = d.Exec(ctx, "getPosition", 0)
	require.ErrorIs(t, err, ErrArgumentCount)

	_, err = d.Exec(ctx, "changePosition", 0, 1, 100, 200)
	require.ErrorIs(t, err, ErrArgumentCount)

	_, err = d.Exec(ctx, "numDevices", 1)
	require.ErrorIs(t, err, ErrArgumentCount)
}

func TestExec_NotInitializedCheckedFirst(t *testing.T) {
	d, out := newTestDispatcher(t, scenarioDevices())

	_, err := d.Exec(t.Context(), "getPosition")
	require.ErrorIs(t, err, session.ErrNotInitialized)
	assert.Equal(t, "Not initialized.\n", out.String())

	_, err = d.Exec(t.Context(), "uninitialize")
	require.ErrorIs(t, err, session.ErrNotInitialized)
}

func TestExec_UnknownCommand(t *testing.T) {
	d, out := newTestDispatcher(t, scenarioDevices())

	_, err := d.Exec(t.Context(), "home")
	require.ErrorIs(t, err, ErrUnknownCommand)
	assert.Contains(t, out.String(), "Type ManipControl('help')")
}

func TestExec_Lifecycle(t *testing.T) {
	devices := scenarioDevices()
	d, out := newTestDispatcher(t, devices)
	ctx := t.Context()

	res, err := d.Exec(ctx, "initialize")
	require.NoError(t, err)
	assert.Equal(t, []float64{0}, res.Values)
	assert.Contains(t, out.String(), "Initialized 1 manipulators")

	res, err = d.Exec(ctx, "initialize")
	require.ErrorIs(t, err, session.ErrAlreadyInitialized)
	assert.Empty(t, res.Values)
	assert.Contains(t, out.String(), "Already initialized")

	res, err = d.Exec(ctx, "getPosition", 0, 1)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3}, res.Values)

	_, err = d.Exec(ctx, "changePosition", 0, 1, 100, 200, 300)
	require.NoError(t, err)
	x, y, z := devices[0].Position(1)
	assert.Equal(t, [3]int32{100, 200, 300}, [3]int32{x, y, z})

	_, err = d.Exec(ctx, "uninitialize")
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Uninitialized 1 manipulators")
	assert.False(t, devices[0].IsOpen())
}

func TestExec_ChangePositionOutOfRange(t *testing.T) {
	devices := scenarioDevices()
	d, out := newTestDispatcher(t, devices)
	ctx := t.Context()

	_, err := d.Exec(ctx, "initialize")
	require.NoError(t, err)
	devices[0].ResetLog()
	out.Reset()

	_, err = d.Exec(ctx, "changePosition", 0, 1, 400001, 0, -1)
	require.ErrorIs(t, err, roe.ErrCoordinateOutOfRange)
	assert.Contains(t, out.String(), "x value for 'changePosition' is out of valid range")
	assert.Contains(t, out.String(), "z value for 'changePosition' is out of valid range")
	assert.NotContains(t, out.String(), "y value")
	assert.Empty(t, devices[0].Written())
}

func TestExec_ChangePositionWarnPolicySendsMove(t *testing.T) {
	devices := scenarioDevices()
	d, _ := newTestDispatcher(t, devices, session.WithValidationPolicy(roe.ValidateWarn))
	ctx := t.Context()

	_, err := d.Exec(ctx, "initialize")
	require.NoError(t, err)

	_, err = d.Exec(ctx, "changePosition", 0, 2, 400001, 0, 0)
	require.NoError(t, err)
	x, _, _ := devices[0].Position(2)
	assert.Equal(t, int32(400001), x)
}

func TestExec_InvalidArguments(t *testing.T) {
	d, _ := newTestDispatcher(t, scenarioDevices())
	ctx := t.Context()

	_, err := d.Exec(ctx, "initialize")
	require.NoError(t, err)

	_, err = d.Exec(ctx, "getPosition", 0, 1.5)
	require.ErrorIs(t, err, ErrInvalidArgument)

	_, err = d.Exec(ctx, "getPosition", math.NaN(), 1)
	require.ErrorIs(t, err, ErrInvalidArgument)

	_, err = d.Exec(ctx, "getPosition", 0, 3)
	require.ErrorIs(t, err, roe.ErrInvalidDriveSelector)

	_, err = d.Exec(ctx, "getPosition", 4, 1)
	require.ErrorIs(t, err, session.ErrInvalidDeviceIndex)
}

func TestHelp(t *testing.T) {
	d, out := newTestDispatcher(t, nil)

	_, err := d.Exec(t.Context(), "help")
	require.NoError(t, err)

	text := out.String()
	assert.Contains(t, text, "ManipControl version 1.10\n")
	for _, name := range d.Commands() {
		assert.Contains(t, text, "ManipControl('"+name+"'")
	}
	assert.Contains(t, text, "ManipControl('changePosition',deviceNumber,driveNumber,X,Y,Z)")
}

func TestResultString(t *testing.T) {
	assert.Equal(t, "[1 2 3]", Result{Values: []float64{1, 2, 3}}.String())
	assert.Equal(t, "[]", Result{}.String())
	assert.Equal(t, "error", Result{Text: "error"}.String())
}

func TestNew_Errors(t *testing.T) {
	_, err := New(nil)
	require.Error(t, err)

	d, _ := newTestDispatcher(t, []*simulator.Device{})
	_, err = New(d.Registry(), WithOutput(nil))
	require.Error(t, err)
	_, err = New(d.Registry(), WithLogger(nil))
	require.Error(t, err)
}
