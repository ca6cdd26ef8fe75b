package simulator

import (
	"encoding/binary"
	"sync"

	"github.com/arloliu/go-manip/transport"
)

// ROE200Description is the USB product string reported by a simulated manipulator.
const ROE200Description = "Sutter Instrument ROE-200"

// Wire bytes emulated by a manipulator device.
const (
	wakeByte       = 0xEE
	opSelectDrive  = 0x49
	opPosition     = 0x43
	opMove         = 0x4D
	positionLead   = 0x0A
	moveFrameSize  = 13
	driveFrameSize = 2
)

// ackReply is what the controller sends after 'I' and 'M'.
var ackReply = []byte{'\r', '\n', '\r'}

// positionTrailer follows the 12 payload bytes of a 'C' reply.
var positionTrailer = append([]byte{'\r'}, make([]byte, 13)...)

// Channel method names, used by Calls and FailOn.
const (
	CallSetDataCharacteristics = "SetDataCharacteristics"
	CallSetFlowControl         = "SetFlowControl"
	CallSetTimeouts            = "SetTimeouts"
	CallPurge                  = "Purge"
	CallSetLatencyTimer        = "SetLatencyTimer"
	CallSetBaudRate            = "SetBaudRate"
	CallSetUSBParameters       = "SetUSBParameters"
	CallWrite                  = "Write"
	CallRead                   = "Read"
	CallClose                  = "Close"
)

// Device is one simulated endpoint.
type Device struct {
	description string
	serialID    string
	emulate     bool

	mu        sync.Mutex
	open      bool
	openCount int
	openErr   error
	failOn    map[string]error
	truncate  int

	awake     bool
	drive     byte
	positions map[byte][3]int32
	line      transport.LineConfig

	pending []byte // bytes written but not yet parsed
	replies []byte // bytes queued for Read
	written [][]byte
	calls   []string
}

// NewManipulator creates a device that identifies as a ROE-200 and emulates it.
func NewManipulator(serialID string) *Device {
	return &Device{
		description: ROE200Description,
		serialID:    serialID,
		emulate:     true,
		failOn:      make(map[string]error),
		positions:   make(map[byte][3]int32),
	}
}

// NewDevice creates a passive device: writes are accepted and nothing is ever read back.
func NewDevice(description, serialID string) *Device {
	return &Device{
		description: description,
		serialID:    serialID,
		failOn:      make(map[string]error),
		positions:   make(map[byte][3]int32),
	}
}

func (d *Device) Description() string { return d.description }

func (d *Device) SerialID() string { return d.serialID }

// FailOn makes every subsequent call of the named channel method return err.
// A nil err clears the fault.
func (d *Device) FailOn(call string, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err == nil {
		delete(d.failOn, call)
		return
	}
	d.failOn[call] = err
}

// FailOpen makes Open of this device fail with err.
func (d *Device) FailOpen(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.openErr = err
}

// TruncateReplies drops the last n bytes of every subsequent reply.
func (d *Device) TruncateReplies(n int) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.truncate = n
}

// SetPosition sets the stage position of a drive as if it had moved there.
func (d *Device) SetPosition(drive byte, x, y, z int32) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.positions[drive] = [3]int32{x, y, z}
}

// Position returns the stage position of a drive.
func (d *Device) Position(drive byte) (x, y, z int32) {
	d.mu.Lock()
	defer d.mu.Unlock()

	p := d.positions[drive]

	return p[0], p[1], p[2]
}

// Drive returns the currently selected drive (0 before the first select).
func (d *Device) Drive() byte {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.drive
}

// Awake reports whether the wake byte has been received.
func (d *Device) Awake() bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.awake
}

// IsOpen reports whether a channel to the device is open.
func (d *Device) IsOpen() bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.open
}

// OpenCount returns how many times the device has been opened.
func (d *Device) OpenCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.openCount
}

// Line returns the line settings applied through the channel.
func (d *Device) Line() transport.LineConfig {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.line
}

// Written returns a copy of every buffer passed to Write, in order.
func (d *Device) Written() [][]byte {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := make([][]byte, len(d.written))
	for i, w := range d.written {
		out[i] = append([]byte(nil), w...)
	}

	return out
}

// Calls returns the channel methods invoked so far, in order.
func (d *Device) Calls() []string {
	d.mu.Lock()
	defer d.mu.Unlock()

	return append([]string(nil), d.calls...)
}

// ResetLog clears the recorded writes and calls.
func (d *Device) ResetLog() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.written = nil
	d.calls = nil
}

// record logs a call and returns its injected fault. Caller holds d.mu.
func (d *Device) record(call string) error {
	d.calls = append(d.calls, call)
	return d.failOn[call]
}

// reply queues a response, honoring TruncateReplies. Caller holds d.mu.
func (d *Device) reply(b []byte) {
	if d.truncate > 0 {
		if d.truncate >= len(b) {
			return
		}
		b = b[:len(b)-d.truncate]
	}
	d.replies = append(d.replies, b...)
}

// process consumes complete commands from pending. Caller holds d.mu.
func (d *Device) process() {
	for len(d.pending) > 0 {
		switch op := d.pending[0]; {
		case op == wakeByte:
			d.awake = true
			d.pending = d.pending[1:]

		case !d.awake:
			// Controller ignores traffic until woken.
			d.pending = d.pending[1:]

		case op == opSelectDrive:
			if len(d.pending) < driveFrameSize {
				return
			}
			if drive := d.pending[1]; drive == 1 || drive == 2 {
				d.drive = drive
			}
			d.pending = d.pending[driveFrameSize:]
			d.reply(ackReply)

		case op == opPosition:
			d.pending = d.pending[1:]
			p := d.positions[d.drive]
			buf := make([]byte, 0, 1+12+len(positionTrailer))
			buf = append(buf, positionLead)
			for _, v := range p {
				buf = binary.LittleEndian.AppendUint32(buf, uint32(v)) //nolint:gosec // two's complement on the wire
			}
			buf = append(buf, positionTrailer...)
			d.reply(buf)

		case op == opMove:
			if len(d.pending) < moveFrameSize {
				return
			}
			var p [3]int32
			for i := range p {
				p[i] = int32(binary.LittleEndian.Uint32(d.pending[1+4*i:])) //nolint:gosec // two's complement on the wire
			}
			d.positions[d.drive] = p
			d.pending = d.pending[moveFrameSize:]
			d.reply(ackReply)

		default:
			d.pending = d.pending[1:]
		}
	}
}
