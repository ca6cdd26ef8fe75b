package roe

import (
	"sync/atomic"
)

// EngineMetrics contains atomic counters for an Engine.
// Metrics can be used as the value of a prometheus CounterFunc or GaugeFunc.
type EngineMetrics struct {
	// QueryCount indicates the number of successful position queries.
	QueryCount atomic.Uint64
	// MoveCount indicates the number of move commands sent and acknowledged.
	MoveCount atomic.Uint64
	// SelectCount indicates the number of successful drive selections.
	SelectCount atomic.Uint64

	// ReadErrCount indicates the number of failed reply reads.
	ReadErrCount atomic.Uint64
	// WriteErrCount indicates the number of failed command writes.
	WriteErrCount atomic.Uint64

	// BytesSent indicates the number of command bytes written.
	BytesSent atomic.Uint64
	// BytesRecv indicates the number of reply bytes consumed, discarded bytes included.
	BytesRecv atomic.Uint64
}

func (m *EngineMetrics) incQueryCount() {
	m.QueryCount.Add(1)
}

func (m *EngineMetrics) incMoveCount() {
	m.MoveCount.Add(1)
}

func (m *EngineMetrics) incSelectCount() {
	m.SelectCount.Add(1)
}

func (m *EngineMetrics) incReadErrCount() {
	m.ReadErrCount.Add(1)
}

func (m *EngineMetrics) incWriteErrCount() {
	m.WriteErrCount.Add(1)
}

func (m *EngineMetrics) addBytesSent(n int) {
	m.BytesSent.Add(uint64(n)) //nolint:gosec // n is a frame length
}

func (m *EngineMetrics) addBytesRecv(n int) {
	m.BytesRecv.Add(uint64(n)) //nolint:gosec // n is a byte count
}
