package roe_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/go-manip/roe"
	"github.com/arloliu/go-manip/transport"
	"github.com/arloliu/go-manip/transport/simulator"
)

// newAwakeChannel opens a simulated manipulator and sends the wake byte.
func newAwakeChannel(t *testing.T, serial string) (transport.Channel, *simulator.Device) {
	t.Helper()

	dev := simulator.NewManipulator(serial)
	tr := simulator.New(dev)
	_, err := tr.Enumerate()
	require.NoError(t, err)

	ch, err := tr.Open(serial)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ch.Close() })

	n, err := ch.Write([]byte{roe.WakeByte})
	require.NoError(t, err)
	require.Equal(t, 1, n)
	dev.ResetLog()

	return ch, dev
}

// newTestEngine creates an Engine with the given options.
func newTestEngine(t *testing.T, opts ...roe.Option) *roe.Engine {
	t.Helper()

	e, err := roe.NewEngine(opts...)
	require.NoError(t, err)

	return e
}

// scriptChannel is a Channel whose reads come from a fixed script.
// Each entry is returned by one Read call; an empty entry is a timeout.
type scriptChannel struct {
	transport.Channel

	reads   [][]byte
	written []byte
	purges  []transport.PurgeMode
}

func (c *scriptChannel) Purge(mode transport.PurgeMode) error {
	c.purges = append(c.purges, mode)
	return nil
}

func (c *scriptChannel) Write(p []byte) (int, error) {
	c.written = append(c.written, p...)
	return len(p), nil
}

func (c *scriptChannel) Read(p []byte) (int, error) {
	if len(c.reads) == 0 {
		return 0, nil
	}
	next := c.reads[0]
	n := copy(p, next)
	if n < len(next) {
		c.reads[0] = next[n:]
	} else {
		c.reads = c.reads[1:]
	}

	return n, nil
}
