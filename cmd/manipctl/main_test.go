package main

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/chzyer/readline"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/go-manip/internal/config"
	"github.com/arloliu/go-manip/roe"
)

// runCLI executes manipctl with args against the simulator driver.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()

	viper.Reset()
	t.Cleanup(viper.Reset)
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("ENV", "")

	root := newRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(append([]string{"--driver", "sim", "--log-level", "error"}, args...))

	err := root.Execute()

	return out.String(), err
}

func TestDevicesCmd(t *testing.T) {
	out, err := runCLI(t, "devices")
	require.NoError(t, err)

	assert.Contains(t, out, "SIM0001")
	assert.Contains(t, out, "ROE-200")
	assert.Contains(t, out, "FT232R USB UART")
	assert.Contains(t, out, "2 devices, 1 manipulators")
}

func TestDevicesCmd_ManipulatorsOnly(t *testing.T) {
	out, err := runCLI(t, "devices", "-m")
	require.NoError(t, err)

	assert.Contains(t, out, "SIM0001")
	assert.NotContains(t, out, "SIM0002")
}

func TestGetCmd(t *testing.T) {
	out, err := runCLI(t, "get", "0", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "200000 200000 200000\n")

	out, err = runCLI(t, "get", "0", "1", "--um")
	require.NoError(t, err)
	assert.Contains(t, out, "12500.0000 12500.0000 12500.0000\n")
}

func TestGetCmd_Errors(t *testing.T) {
	_, err := runCLI(t, "get", "0", "3")
	require.ErrorIs(t, err, roe.ErrInvalidDriveSelector)

	_, err = runCLI(t, "get", "one", "1")
	require.Error(t, err)

	_, err = runCLI(t, "get", "0")
	require.Error(t, err)
}

func TestMoveCmd(t *testing.T) {
	out, err := runCLI(t, "move", "0", "2", "100", "200", "300")
	require.NoError(t, err)
	assert.Contains(t, out, "moving slot 0 drive2 to (100, 200, 300)")

	out, err = runCLI(t, "move", "0", "1", "--um", "1", "10", "0")
	require.NoError(t, err)
	assert.Contains(t, out, "to (16, 160, 0)")
}

func TestMoveCmd_RejectsOutOfRange(t *testing.T) {
	out, err := runCLI(t, "move", "0", "1", "400001", "0", "0")
	require.ErrorIs(t, err, roe.ErrCoordinateOutOfRange)
	assert.Contains(t, out, "x value for 'changePosition' is out of valid range")

	_, err = runCLI(t, "move", "0", "1", "400001", "0", "0", "--validation", "clamp")
	require.NoError(t, err)
}

func TestMoveCmd_RefusesUnencodableTargets(t *testing.T) {
	_, err := runCLI(t, "move", "0", "1", "--um", "NaN", "0", "0")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be a finite number")

	out, err := runCLI(t, "move", "0", "1", "--um", "1e12", "0", "0", "--validation", "warn")
	require.ErrorIs(t, err, roe.ErrCoordinateOverflow)
	assert.NotContains(t, out, "moving slot")
}

func TestConfigCmd(t *testing.T) {
	out, err := runCLI(t, "config")
	require.NoError(t, err)

	assert.Contains(t, out, "driver: sim")
	assert.Contains(t, out, "max_manipulators: 16")
	assert.Contains(t, out, "validation: reject")
	assert.Contains(t, out, "description: Sutter Instrument ROE-200")
}

func TestConfigCmd_Invalid(t *testing.T) {
	_, err := runCLI(t, "config", "--validation", "ignore")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "session.validation")
}

// scriptReader feeds fixed lines to the shell, then reports EOF.
type scriptReader struct {
	lines []string
}

func (r *scriptReader) Readline() (string, error) {
	if len(r.lines) == 0 {
		return "", io.EOF
	}
	line := r.lines[0]
	r.lines = r.lines[1:]
	if line == "^C" {
		return "", readline.ErrInterrupt
	}

	return line, nil
}

func newTestShell(t *testing.T, lines ...string) (*shell, *bytes.Buffer) {
	t.Helper()

	cfg := config.Default()
	cfg.Transport.Driver = config.DriverSimulator
	cfg.Logging.Level = "error"

	var out bytes.Buffer
	a, err := newAppFromConfig(cfg, &out, io.Discard)
	require.NoError(t, err)
	t.Cleanup(a.close)

	return &shell{app: a, in: &scriptReader{lines: lines}, out: &out}, &out
}

func TestShell_Session(t *testing.T) {
	sh, out := newTestShell(t,
		"numDevices",
		"",
		"initialize",
		"^C",
		"getPosition 0 1",
		"changePosition 0 1 1 2 3",
		"getPosition 0 1",
		"deviceName 0",
		"stats",
		"exit",
		"numManips",
	)

	sh.run(t.Context())
	text := out.String()

	assert.Contains(t, text, "ManipControl version 1.10")
	assert.Contains(t, text, "[2]\n")
	assert.Contains(t, text, "Initialized 1 manipulators")
	assert.Contains(t, text, "[200000 200000 200000]\n")
	assert.Contains(t, text, "[1 2 3]\n")
	assert.Contains(t, text, "cannot be accessed once a device has been initialized")
	assert.Contains(t, text, "error\n")
	assert.Contains(t, text, "state:           Initialized")
	assert.Contains(t, text, "  slot 0 (device 0, serial SIM0001)\n")
	assert.Contains(t, text, "moves:           1 (0 rejected)")
	assert.NotContains(t, text, "Exiting...", "exit stops without EOF")
	assert.NotContains(t, text, "[1]\n", "lines after exit are not run")
}

func TestShell_BadInput(t *testing.T) {
	sh, out := newTestShell(t, "getPosition zero 1", "frobnicate", "help")

	sh.run(t.Context())
	text := out.String()

	assert.Contains(t, text, `argument 1 ("zero") is not a number`)
	assert.Contains(t, text, "Invalid command.")
	assert.Contains(t, text, "ManipControl('getPosition',deviceNumber,driveNumber)")
	assert.True(t, strings.HasSuffix(text, "Exiting...\n"))
}

func TestShell_StatsBeforeInitialize(t *testing.T) {
	sh, out := newTestShell(t)

	require.True(t, sh.exec(t.Context(), "stats"))
	assert.Contains(t, out.String(), "state:           Uninitialized")
	assert.NotContains(t, out.String(), "session:")

	assert.False(t, sh.exec(t.Context(), "QUIT"))
}
