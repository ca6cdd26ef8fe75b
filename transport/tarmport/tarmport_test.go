package tarmport

import (
	"errors"
	"io"
	"os"
	"testing"
	"time"

	"github.com/arloliu/go-manip/logger"
	"github.com/arloliu/go-manip/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tarm/serial"
)

type fakePort struct {
	cfg     serial.Config
	flushes int
	closed  bool
	readErr error
}

func (p *fakePort) Read(_ []byte) (int, error)  { return 0, p.readErr }
func (p *fakePort) Write(b []byte) (int, error) { return len(b), nil }
func (p *fakePort) Flush() error                { p.flushes++; return nil }
func (p *fakePort) Close() error                { p.closed = true; return nil }

var testDevices = []Device{
	{Path: "/dev/ttyUSB0", Description: "Sutter Instrument ROE-200", SerialID: "SI4F1K2A"},
	{Path: "/dev/ttyUSB7", Description: "Sutter Instrument ROE-200", SerialID: "GONE"},
}

func newTestTransport(t *testing.T) (*Transport, *[]*fakePort) {
	t.Helper()

	opened := &[]*fakePort{}
	tr := New(testDevices, logger.GetLogger())
	tr.stat = func(path string) error {
		if path == "/dev/ttyUSB7" {
			return os.ErrNotExist
		}
		return nil
	}
	tr.openPort = func(cfg *serial.Config) (port, error) {
		if cfg.Baud == 128001 {
			return nil, errors.New("unrecognized baud rate")
		}
		p := &fakePort{cfg: *cfg}
		*opened = append(*opened, p)
		return p, nil
	}

	return tr, opened
}

func TestTransport_EnumerateSkipsAbsent(t *testing.T) {
	tr, _ := newTestTransport(t)

	n, err := tr.Enumerate()
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	desc, err := tr.Description(0)
	require.NoError(t, err)
	assert.Equal(t, "Sutter Instrument ROE-200", desc)

	_, err = tr.SerialID(1)
	require.ErrorIs(t, err, transport.ErrDeviceNotFound)
}

func TestChannel_ReopenOnlyOnChange(t *testing.T) {
	tr, opened := newTestTransport(t)

	ch, err := tr.Open("SI4F1K2A")
	require.NoError(t, err)
	require.Len(t, *opened, 1)

	// Same settings as the open-time defaults: no reopen.
	require.NoError(t, ch.SetDataCharacteristics(8, transport.StopBits1, transport.ParityNone))
	require.NoError(t, ch.SetBaudRate(128000))
	require.NoError(t, ch.SetTimeouts(500*time.Millisecond, 500*time.Millisecond))
	assert.Len(t, *opened, 1)

	require.NoError(t, ch.SetBaudRate(9600))
	require.Len(t, *opened, 2)
	assert.True(t, (*opened)[0].closed)
	assert.Equal(t, 9600, (*opened)[1].cfg.Baud)
}

func TestChannel_ReopenFailureRestoresPrevious(t *testing.T) {
	tr, opened := newTestTransport(t)

	ch, err := tr.Open("SI4F1K2A")
	require.NoError(t, err)

	require.Error(t, ch.SetBaudRate(128001))
	require.Len(t, *opened, 2)
	assert.Equal(t, 128000, (*opened)[1].cfg.Baud)

	n, err := ch.Write([]byte{0x43})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestChannel_PurgeAndUnsupported(t *testing.T) {
	tr, opened := newTestTransport(t)

	ch, err := tr.Open("SI4F1K2A")
	require.NoError(t, err)

	require.NoError(t, ch.Purge(transport.PurgeRX))
	assert.Equal(t, 1, (*opened)[0].flushes)

	require.ErrorIs(t, ch.SetLatencyTimer(16), transport.ErrNotSupported)
	require.ErrorIs(t, ch.SetUSBParameters(64, 0), transport.ErrNotSupported)
}

func TestChannel_ReadTimeoutMapping(t *testing.T) {
	tr, opened := newTestTransport(t)

	ch, err := tr.Open("SI4F1K2A")
	require.NoError(t, err)
	(*opened)[0].readErr = io.EOF

	n, err := ch.Read(make([]byte, 3))
	require.NoError(t, err)
	assert.Zero(t, n)

	require.NoError(t, ch.Close())
	_, err = ch.Read(make([]byte, 1))
	require.ErrorIs(t, err, transport.ErrChannelClosed)
}

func TestTransport_OpenUnknown(t *testing.T) {
	tr, _ := newTestTransport(t)

	_, err := tr.Open("XYZ")
	require.ErrorIs(t, err, transport.ErrDeviceNotFound)
}
