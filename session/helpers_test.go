package session

import (
	"bytes"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/go-manip/catalog"
	"github.com/arloliu/go-manip/logger"
	"github.com/arloliu/go-manip/transport"
	"github.com/arloliu/go-manip/transport/simulator"
)

// newTestLogger returns a JSON logger writing to buf, or discarding when buf is nil.
func newTestLogger(t *testing.T, buf *bytes.Buffer) logger.Logger {
	t.Helper()

	var w io.Writer = io.Discard
	if buf != nil {
		w = buf
	}

	return logger.NewSlog(logger.DebugLevel, logger.WithOutput(w), logger.WithFormat(logger.FormatJSON))
}

// newTestRegistry creates a Registry over a simulator holding devices.
func newTestRegistry(t *testing.T, devices []*simulator.Device, opts ...Option) (*Registry, *simulator.Transport) {
	t.Helper()

	tr := simulator.New(devices...)
	cat, err := catalog.New(tr, catalog.WithLogger(newTestLogger(t, nil)))
	require.NoError(t, err)

	defaults := []Option{WithLogger(newTestLogger(t, nil))}
	r, err := New(cat, append(defaults, opts...)...)
	require.NoError(t, err)

	t.Cleanup(func() {
		if r.IsInitialized() {
			_ = r.Uninitialize()
		}
	})

	return r, tr
}

// mockChannel is a testify mock implementing transport.Channel.
type mockChannel struct {
	mock.Mock
}

var _ transport.Channel = (*mockChannel)(nil)

func (m *mockChannel) SetDataCharacteristics(dataBits int, stop transport.StopBits, parity transport.Parity) error {
	return m.Called(dataBits, stop, parity).Error(0)
}

func (m *mockChannel) SetFlowControl(mode transport.FlowControl) error {
	return m.Called(mode).Error(0)
}

func (m *mockChannel) SetTimeouts(read, write time.Duration) error {
	return m.Called(read, write).Error(0)
}

func (m *mockChannel) Purge(mode transport.PurgeMode) error {
	return m.Called(mode).Error(0)
}

func (m *mockChannel) SetLatencyTimer(ms uint8) error {
	return m.Called(ms).Error(0)
}

func (m *mockChannel) SetBaudRate(baud int) error {
	return m.Called(baud).Error(0)
}

func (m *mockChannel) SetUSBParameters(in, out int) error {
	return m.Called(in, out).Error(0)
}

func (m *mockChannel) Write(p []byte) (int, error) {
	args := m.Called(p)
	return args.Int(0), args.Error(1)
}

func (m *mockChannel) Read(p []byte) (int, error) {
	args := m.Called(p)
	return args.Int(0), args.Error(1)
}

func (m *mockChannel) Close() error {
	return m.Called().Error(0)
}

// expectSetup registers the full setup sequence on ch, in order, with every
// step returning the error mapped to its method name (nil when absent).
func expectSetup(ch *mockChannel, fail map[string]error) {
	mock.InOrder(
		ch.On("SetDataCharacteristics", 8, transport.StopBits1, transport.ParityNone).Return(fail["SetDataCharacteristics"]).Once(),
		ch.On("SetFlowControl", transport.FlowNone).Return(fail["SetFlowControl"]).Once(),
		ch.On("SetTimeouts", 500*time.Millisecond, 500*time.Millisecond).Return(fail["SetTimeouts"]).Once(),
		ch.On("Purge", transport.PurgeBoth).Return(fail["Purge"]).Once(),
		ch.On("SetLatencyTimer", uint8(16)).Return(fail["SetLatencyTimer"]).Once(),
		ch.On("SetBaudRate", 128000).Return(fail["SetBaudRate"]).Once(),
		ch.On("SetUSBParameters", 64, 0).Return(fail["SetUSBParameters"]).Once(),
		ch.On("Write", []byte{0xEE}).Return(1, fail["Write"]).Once(),
	)
}

func twoDeviceScenario() []*simulator.Device {
	return []*simulator.Device{
		simulator.NewManipulator("ROE-A"),
		simulator.NewDevice("Other Device", "OTHER-1"),
	}
}
