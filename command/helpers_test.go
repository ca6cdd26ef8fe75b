package command

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/go-manip/catalog"
	"github.com/arloliu/go-manip/logger"
	"github.com/arloliu/go-manip/session"
	"github.com/arloliu/go-manip/transport/simulator"
)

// newTestDispatcher creates a Dispatcher over a simulator holding devices.
// Diagnostics are captured in the returned buffer.
func newTestDispatcher(t *testing.T, devices []*simulator.Device, opts ...session.Option) (*Dispatcher, *bytes.Buffer) {
	t.Helper()

	l := logger.NewSlog(logger.ErrorLevel, logger.WithOutput(io.Discard))

	cat, err := catalog.New(simulator.New(devices...), catalog.WithLogger(l))
	require.NoError(t, err)

	reg, err := session.New(cat, append([]session.Option{session.WithLogger(l)}, opts...)...)
	require.NoError(t, err)

	var out bytes.Buffer
	d, err := New(reg, WithOutput(&out), WithLogger(l))
	require.NoError(t, err)

	t.Cleanup(func() {
		if reg.IsInitialized() {
			_ = reg.Uninitialize()
		}
	})

	return d, &out
}

func scenarioDevices() []*simulator.Device {
	m := simulator.NewManipulator("ROE-A")
	m.SetPosition(1, 1, 2, 3)

	return []*simulator.Device{m, simulator.NewDevice("Other Device", "OTHER-1")}
}
