// Package terminal implements the 2336DE smart-terminal byte-stream state
// machine: the three-layer inbound decoder (escape routing, FIFO + flow
// control, decompression/cursor ops), the second-level command layer, the
// third-level control-code/printable layer, and the outbound keystroke
// encoder. It owns a display+attribute plane, a cursor, and the FIFOs that
// couple to the multiplexer card (mxd.Card).
package terminal

import (
	"github.com/wangemu/wang2200core/scheduler"
)

// CursorMode selects whether the cursor is drawn, hidden, or blinking.
type CursorMode int

const (
	CursorOff CursorMode = iota
	CursorOn
	CursorBlink
)

// FlowState tracks the CRT-stream flow-control handshake.
type FlowState int

const (
	FlowGoing FlowState = iota
	FlowGoPend
	FlowStopPend
	FlowStopped
)

const (
	crtBuffMax   = 256
	stopMark1    = 96
	stopMark2    = 113
	goMark       = 30
	attrDefault  = 0x00
	cursorBlinkC = 0xC0 // base for the FB Cn delay encoding
)

const idString = "*2236DE R2016 19200BPS 8+O (USA)"

// Sink receives decoded output bytes: either the CRT plane or the printer.
type Sink int

const (
	SinkCRT Sink = iota
	SinkPrinter
)

// PrinterWriter receives bytes routed to the printer sink (FB F1 escape).
type PrinterWriter interface {
	PrintByte(b uint8)
}

// Cell is one character position on the display plane: the glyph plus its
// attribute byte (underline/blink/reverse/dim bits packed per protocol).
type Cell struct {
	Char uint8
	Attr uint8
}

// Terminal is a single smart-terminal instance. Width/height are fixed for
// the 2336DE (80x24); no 25th status line is kept.
type Terminal struct {
	sched   *scheduler.Scheduler
	printer PrinterWriter

	width, height int
	plane         [][]Cell
	cursorX       int
	cursorY       int
	cursorMode    CursorMode
	curAttr       uint8
	attrOn        bool
	attrTemp      bool

	// inbound raw byte queue (from host, destined for the CRT sink) and its
	// flow-control state.
	crtBuff   []uint8
	flowState FlowState

	// escape-routing state: a lone 0xFB starts an escape.
	escActive bool
	escSink   Sink

	// FB nn decompress accumulator.
	rawBuf [3]uint8
	rawCnt int

	// 02 xx second-level command accumulator.
	cmdBuf [8]uint8
	cmdCnt int

	// delay timer armed by FB Cn; while non-nil the CRT fifo does not drain.
	delayTimer *scheduler.Handle

	// outbound keystroke FIFO drained by the caller via DrainKeystroke.
	kbBuff []uint8

	// host callbacks
	sendToHost func(b uint8) // queue a byte for transmission back to the host (flow control bytes)
}

// New returns a powered-on 80x24 2336DE terminal instance. sendToHost is
// called (synchronously) whenever the terminal needs to push a byte back
// toward the host over the same channel it receives on (flow control and
// soft-reset acknowledgements); it's typically routed into the same queue
// the mxd card drains for UART transmission to the host computer.
func New(sched *scheduler.Scheduler, printer PrinterWriter, sendToHost func(uint8)) *Terminal {
	t := &Terminal{
		sched:      sched,
		printer:    printer,
		width:      80,
		height:     24,
		sendToHost: sendToHost,
	}
	t.Reset(true)
	return t
}

// Reset clears the display and (for hard resets, or any reset on a smart
// terminal -- dumb controllers only clear when told to) resets cursor and
// attribute state. Matches the hard_reset||smart_term condition in the
// machine this is modeled on: a smart terminal independently clears the
// screen even without host intervention.
func (t *Terminal) Reset(hard bool) {
	t.plane = make([][]Cell, t.height)
	for y := range t.plane {
		t.plane[y] = make([]Cell, t.width)
	}
	t.cursorX, t.cursorY = 0, 0
	t.cursorMode = CursorOn
	t.curAttr = attrDefault
	t.attrOn = false
	t.attrTemp = false
	t.crtBuff = t.crtBuff[:0]
	t.flowState = FlowGoing
	t.escActive = false
	t.rawCnt = 0
	t.cmdCnt = 0
	if t.delayTimer != nil {
		t.sched.Kill(*t.delayTimer)
		t.delayTimer = nil
	}
}

// Cell returns the display plane contents at (x, y).
func (t *Terminal) Cell(x, y int) Cell {
	if y < 0 || y >= t.height || x < 0 || x >= t.width {
		return Cell{}
	}
	return t.plane[y][x]
}

// Cursor returns the current cursor position and display mode.
func (t *Terminal) Cursor() (x, y int, mode CursorMode) {
	return t.cursorX, t.cursorY, t.cursorMode
}

// ---------------------------------------------------------------------
// Layer 1: inbound byte -> escape routing -> FIFO + flow control.
// ---------------------------------------------------------------------

// Receive is the entry point for a byte arriving from the host. It performs
// the top-level escape dance (a lone 0xFB begins an escape; FB F0/F1 switch
// sinks; FB F2/F6 reset; two consecutive FB emit a literal) before handing
// CRT-bound bytes to the flow-controlled FIFO.
func (t *Terminal) Receive(b uint8) {
	if t.escActive {
		t.escActive = false
		switch b {
		case 0xFB:
			// Two consecutive 0xFB: literal 0xFB to the current sink. The CRT
			// decoder reads a lone 0xFB as the start of an FB nn sequence, so
			// the literal reaches it as FB D0, its own literal-0xFB form.
			t.route(0xFB)
			if t.escSink == SinkCRT {
				t.route(0xD0)
			}
			return
		case 0xF0:
			t.escSink = SinkCRT
			return
		case 0xF1:
			t.escSink = SinkPrinter
			return
		case 0xF2:
			t.Reset(false)
			t.sendToHost(0xF8)
			return
		case 0xF6:
			t.resetCRTOnly()
			t.sendToHost(0xF9)
			t.sendToHost(0xF8)
			t.sendToHost(0xF8)
			return
		default:
			// Not an immediate command: pass the 0xFB and this byte on to the
			// current sink, where the CRT decoder handles FB nn sequences.
			t.route(0xFB)
			t.route(b)
			return
		}
	}
	if b == 0xFB {
		t.escActive = true
		return
	}
	t.route(b)
}

func (t *Terminal) resetCRTOnly() {
	t.plane = make([][]Cell, t.height)
	for y := range t.plane {
		t.plane[y] = make([]Cell, t.width)
	}
	t.cursorX, t.cursorY = 0, 0
	t.cursorMode = CursorOn
}

func (t *Terminal) route(b uint8) {
	switch t.escSink {
	case SinkPrinter:
		if t.printer != nil {
			t.printer.PrintByte(b)
		}
	default:
		t.crtFIFOPush(b)
	}
}

func (t *Terminal) crtFIFOPush(b uint8) {
	if len(t.crtBuff) >= crtBuffMax {
		return // dropped: fifo overflow
	}
	t.crtBuff = append(t.crtBuff, b)
	size := len(t.crtBuff)
	if size == stopMark1 || size == stopMark2 {
		t.flowState = FlowStopPend
	}
	t.drainCRTFIFO()
}

// drainCRTFIFO pulls bytes out of the CRT queue until empty or a decoder
// delay (FB Cn) is pending, handling the GO_PEND transition at the
// low-water mark along the way.
func (t *Terminal) drainCRTFIFO() {
	for len(t.crtBuff) > 0 {
		if t.delayTimer != nil {
			return
		}
		b := t.crtBuff[0]
		t.crtBuff = t.crtBuff[1:]
		if len(t.crtBuff) == goMark && t.flowState == FlowStopped {
			t.flowState = FlowGoPend
		}
		t.decompress(b)
	}
}

// ---------------------------------------------------------------------
// Layer 2: FB nn decompression and cursor/blink escapes.
// ---------------------------------------------------------------------

func (t *Terminal) decompress(b uint8) {
	if t.rawCnt == 0 && b == 0xFB {
		t.rawBuf[0] = 0xFB
		t.rawCnt = 1
		return
	}
	if t.rawCnt == 0 {
		t.secondLevel(b)
		return
	}

	t.rawBuf[t.rawCnt] = b
	t.rawCnt++

	if t.rawCnt == 3 {
		// FB nn cc: nn copies of cc.
		n := t.rawBuf[1]
		c := t.rawBuf[2]
		for i := uint8(0); i < n; i++ {
			t.secondLevel(c)
		}
		t.rawCnt = 0
		return
	}

	// rawCnt == 2: look at the command nibble.
	nn := t.rawBuf[1]
	switch {
	case nn < 0x03:
		// Too small to be a run length, not a recognized single-byte
		// command either; fall through to the default pass-through below.
	case nn < 0x60:
		// Still waiting for the 3rd (count,char) byte.
		return
	case nn <= 0xBF:
		for i := uint8(0x60); i < nn; i++ {
			t.secondLevel(0x20)
		}
		t.rawCnt = 0
		return
	case nn >= 0xC1 && nn <= 0xC9:
		delayMS := 1000 * int(nn-0xC0) / 6
		if delayMS > 0 {
			h, _ := t.sched.CreateTimer(scheduler.Milliseconds(float64(delayMS)), func(*scheduler.Scheduler) {
				t.delayTimer = nil
				t.drainCRTFIFO()
			})
			t.delayTimer = &h
		}
		t.rawCnt = 0
		return
	case nn == 0xD0:
		t.secondLevel(0xFB)
		t.rawCnt = 0
		return
	case nn == 0xF8:
		if t.cursorMode == CursorBlink {
			t.cursorMode = CursorOn
		}
		t.rawCnt = 0
		return
	case nn == 0xF4, nn == 0xFC:
		if t.cursorMode == CursorOn {
			t.cursorMode = CursorBlink
		}
		t.rawCnt = 0
		return
	}

	// Unknown sequence: pass both bytes through unmolested.
	t.secondLevel(t.rawBuf[0])
	t.secondLevel(t.rawBuf[1])
	t.rawCnt = 0
}

// ---------------------------------------------------------------------
// Layer 3 (second level): 02 xx commands, attribute enable/disable.
// ---------------------------------------------------------------------

func (t *Terminal) secondLevel(b uint8) {
	if t.cmdCnt == 0 {
		switch b {
		case 0x02:
			t.cmdBuf[0] = b
			t.cmdCnt = 1
			return
		case 0x0D:
			t.attrTemp = false
			t.thirdLevel(0x0D)
			return
		case 0x0E:
			t.attrOn = false
			t.attrTemp = true
			return
		case 0x0F:
			t.attrOn = false
			t.attrTemp = false
			return
		default:
			t.thirdLevel(b)
			return
		}
	}

	t.cmdBuf[t.cmdCnt] = b
	t.cmdCnt++

	switch {
	case t.cmdCnt == 3 && t.cmdBuf[1] == 0x05 && t.cmdBuf[2] == 0x0F:
		t.cursorMode = CursorBlink
		t.cmdCnt = 0
	case t.cmdCnt == 3 && t.cmdBuf[1] == 0x01:
		// Self-ID echo request: 02 01 xx -> respond with the ID string.
		for i := 0; i < len(idString); i++ {
			t.sendToHost(idString[i])
		}
		t.cmdCnt = 0
	case t.cmdCnt >= 3:
		// Remaining 02-prefixed sequences (attribute set/enable, box
		// drawing) are accepted and terminate the command without further
		// display effect beyond their terminal attribute byte, matching
		// this terminal's permissive handling of less common escapes.
		t.curAttr = t.cmdBuf[t.cmdCnt-1]
		t.cmdCnt = 0
	}
}

// ---------------------------------------------------------------------
// Layer 4 (third level): control codes and printable characters.
// ---------------------------------------------------------------------

func (t *Terminal) thirdLevel(b uint8) {
	switch b {
	case 0x01: // home
		t.cursorX, t.cursorY = 0, 0
	case 0x03: // clear
		for y := range t.plane {
			for x := range t.plane[y] {
				t.plane[y][x] = Cell{}
			}
		}
		t.cursorX, t.cursorY = 0, 0
	case 0x04: // cursor on
		if t.cursorMode == CursorOff {
			t.cursorMode = CursorOn
		}
	case 0x05: // cursor off
		t.cursorMode = CursorOff
	case 0x07: // bell
		// no audible side effect modeled here; host UI owns UI_displayDing.
	case 0x08: // backspace
		if t.cursorX > 0 {
			t.cursorX--
		}
	case 0x09: // tab
		t.cursorX += 8 - (t.cursorX % 8)
		t.wrapCursor()
	case 0x0A: // linefeed
		t.advanceLine()
	case 0x0B: // reverse index
		if t.cursorY > 0 {
			t.cursorY--
		}
	case 0x0D: // carriage return
		t.cursorX = 0
	default:
		if b >= 0x20 {
			t.writeChar(b)
		}
	}
}

func (t *Terminal) writeChar(b uint8) {
	attr := t.curAttr
	if !t.attrOn && !t.attrTemp {
		attr = attrDefault
	}
	t.plane[t.cursorY][t.cursorX] = Cell{Char: b, Attr: attr}
	if t.attrTemp {
		t.attrTemp = false
	}
	t.cursorX++
	t.wrapCursor()
}

func (t *Terminal) wrapCursor() {
	if t.cursorX >= t.width {
		t.cursorX = 0
		t.advanceLine()
	}
}

func (t *Terminal) advanceLine() {
	t.cursorY++
	if t.cursorY >= t.height {
		t.cursorY = t.height - 1
		copy(t.plane, t.plane[1:])
		t.plane[t.height-1] = make([]Cell, t.width)
	}
}

// ---------------------------------------------------------------------
// Outbound: keystroke encoding and flow-control byte injection.
// ---------------------------------------------------------------------

// Keystroke codes from the first-generation (2200) keyboard.
const (
	KeyReset = 0x0100 | 0xFF // distinguished sentinel, transmitted as 0x12
	KeyHalt  = 0x0200
	KeySF    = 0x0100
	KeyEdit  = 240
	KeyTab   = 0xE6
	KeyErase = 0xE5
)

// SendKeystroke encodes a first-generation keycode into the 2336 protocol
// and queues the resulting byte(s) on the outbound FIFO.
func (t *Terminal) SendKeystroke(keycode int) {
	switch {
	case keycode == KeyReset:
		t.kbBuff = append(t.kbBuff, 0x12)
	case keycode == (KeySF | KeyEdit):
		t.kbBuff = append(t.kbBuff, 0xBD)
	case keycode&KeySF != 0:
		t.kbBuff = append(t.kbBuff, 0xFD, uint8(keycode&0xFF))
	case keycode == KeyTab:
		t.kbBuff = append(t.kbBuff, 0xFD, 0x7E)
	case keycode == KeyErase:
		t.kbBuff = append(t.kbBuff, 0xE5)
	case keycode >= 0x80 && keycode < 0xE5:
		t.kbBuff = append(t.kbBuff, 0xFD, uint8(keycode&0xFF))
	default:
		t.kbBuff = append(t.kbBuff, uint8(keycode&0xFF))
	}
}

// DrainKeystroke pops the next outbound byte, injecting CRT-GO/CRT-STOP flow
// control bytes ahead of real keystroke traffic per the armed flow state.
// Returns ok==false when there is nothing to send.
func (t *Terminal) DrainKeystroke() (b uint8, ok bool) {
	switch t.flowState {
	case FlowGoPend:
		t.flowState = FlowGoing
		return 0xF8, true
	case FlowStopPend:
		t.flowState = FlowStopped
		return 0xFA, true
	}
	if len(t.kbBuff) == 0 {
		return 0, false
	}
	b = t.kbBuff[0]
	t.kbBuff = t.kbBuff[1:]
	return b, true
}
