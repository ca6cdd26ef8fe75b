package session

import (
	"sync/atomic"
)

// Metrics contains atomic counters for a Registry.
// Metrics can be used as the value of a prometheus CounterFunc or GaugeFunc.
type Metrics struct {
	// InitCount indicates the number of successful Initialize calls.
	InitCount atomic.Uint64
	// UninitCount indicates the number of successful Uninitialize calls.
	UninitCount atomic.Uint64

	// OpenCount indicates the number of handles opened and added to the table.
	OpenCount atomic.Uint64
	// OpenFailCount indicates the number of manipulators skipped during Initialize.
	OpenFailCount atomic.Uint64
	// SetupWarnCount indicates the number of setup steps that failed but were tolerated.
	SetupWarnCount atomic.Uint64
	// CloseErrCount indicates the number of handles whose channel failed to close.
	CloseErrCount atomic.Uint64

	// QueryCount indicates the number of successful position queries.
	QueryCount atomic.Uint64
	// MoveCount indicates the number of moves sent to a controller.
	MoveCount atomic.Uint64
	// RejectedMoveCount indicates the number of moves refused by the validation policy.
	RejectedMoveCount atomic.Uint64
	// ProtocolErrCount indicates the number of queries and moves that failed on the wire.
	ProtocolErrCount atomic.Uint64

	// Manipulators is the current number of open handles.
	Manipulators atomic.Int64
}

func (m *Metrics) incInitCount() {
	m.InitCount.Add(1)
}

func (m *Metrics) incUninitCount() {
	m.UninitCount.Add(1)
}

func (m *Metrics) incOpenCount() {
	m.OpenCount.Add(1)
}

func (m *Metrics) incOpenFailCount() {
	m.OpenFailCount.Add(1)
}

func (m *Metrics) incSetupWarnCount() {
	m.SetupWarnCount.Add(1)
}

func (m *Metrics) incCloseErrCount() {
	m.CloseErrCount.Add(1)
}

func (m *Metrics) incQueryCount() {
	m.QueryCount.Add(1)
}

func (m *Metrics) incMoveCount() {
	m.MoveCount.Add(1)
}

func (m *Metrics) incRejectedMoveCount() {
	m.RejectedMoveCount.Add(1)
}

func (m *Metrics) incProtocolErrCount() {
	m.ProtocolErrCount.Add(1)
}

func (m *Metrics) setManipulators(n int) {
	m.Manipulators.Store(int64(n))
}
