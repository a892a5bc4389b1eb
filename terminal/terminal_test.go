package terminal

import (
	"testing"

	"github.com/go-test/deep"

	"github.com/wangemu/wang2200core/scheduler"
)

type fakePrinter struct {
	bytes []uint8
	ffs   int
}

func (f *fakePrinter) PrintByte(b uint8) { f.bytes = append(f.bytes, b) }

func newTestTerminal() (*Terminal, *scheduler.Scheduler, *fakePrinter) {
	s := scheduler.New()
	p := &fakePrinter{}
	var sent []uint8
	t := New(s, p, func(b uint8) { sent = append(sent, b) })
	return t, s, p
}

func TestWriteAndCursorAdvance(t *testing.T) {
	term, _, _ := newTestTerminal()
	term.Receive('H')
	term.Receive('I')
	x, y, _ := term.Cursor()
	if x != 2 || y != 0 {
		t.Fatalf("cursor = (%d,%d), want (2,0)", x, y)
	}
	if term.Cell(0, 0).Char != 'H' || term.Cell(1, 0).Char != 'I' {
		t.Fatalf("unexpected cell contents")
	}
}

func TestEscapeRoutingToPrinter(t *testing.T) {
	term, _, p := newTestTerminal()
	term.Receive(0xFB)
	term.Receive(0xF1) // route to printer
	term.Receive('X')
	if len(p.bytes) != 1 || p.bytes[0] != 'X' {
		t.Fatalf("expected X routed to printer, got %v", p.bytes)
	}
	term.Receive(0xFB)
	term.Receive(0xF0) // route back to CRT
	term.Receive('Y')
	if term.Cell(0, 0).Char != 'Y' {
		t.Fatalf("expected Y on crt plane")
	}
}

func TestLiteralDoubleFB(t *testing.T) {
	term, _, _ := newTestTerminal()
	term.Receive(0xFB)
	term.Receive(0xFB)
	if term.Cell(0, 0).Char != 0xFB {
		t.Fatalf("expected literal 0xFB written, got %#x", term.Cell(0, 0).Char)
	}
}

func TestRunLengthDecompression(t *testing.T) {
	term, _, _ := newTestTerminal()
	term.Receive(0xFB)
	term.Receive(0x05) // count
	term.Receive('Z')  // char
	for x := 0; x < 5; x++ {
		if term.Cell(x, 0).Char != 'Z' {
			t.Fatalf("cell %d = %#x, want Z", x, term.Cell(x, 0).Char)
		}
	}
}

func TestSpaceRunDecompression(t *testing.T) {
	term, _, _ := newTestTerminal()
	term.Receive('A')
	term.Receive(0xFB)
	term.Receive(0x64) // 0x64-0x60 = 4 spaces
	for x := 1; x <= 4; x++ {
		if term.Cell(x, 0).Char != ' ' {
			t.Fatalf("cell %d = %#x, want space", x, term.Cell(x, 0).Char)
		}
	}
	if term.Cell(5, 0).Char != 0 {
		t.Fatalf("expected cell 5 untouched")
	}
}

func TestControlCodes(t *testing.T) {
	term, _, _ := newTestTerminal()
	term.Receive('A')
	term.Receive('B')
	term.Receive(0x0D) // CR
	x, y, _ := term.Cursor()
	if x != 0 || y != 0 {
		t.Fatalf("after CR cursor = (%d,%d), want (0,0)", x, y)
	}
	term.Receive(0x0A) // LF
	_, y, _ = term.Cursor()
	if y != 1 {
		t.Fatalf("after LF y = %d, want 1", y)
	}
	term.Receive(0x03) // clear
	if term.Cell(0, 0).Char != 0 {
		t.Fatalf("expected clear to blank cell 0,0")
	}
}

func TestFlowControlStopPendAtThreshold(t *testing.T) {
	term, s, _ := newTestTerminal()
	// Arm a delay so the fifo does not drain automatically; then push bytes
	// until the 96-byte high-water mark fires.
	term.Receive(0xFB)
	term.Receive(0xC6) // ~1000ms delay: 1000*(0xC6-0xC0)/6 = 1000
	for i := 0; i < stopMark1; i++ {
		term.crtFIFOPush('x')
	}
	if term.flowState != FlowStopPend {
		t.Fatalf("flowState = %v, want FlowStopPend at size %d", term.flowState, len(term.crtBuff))
	}
	s.TimerTick(scheduler.Milliseconds(1000))
}

func TestKeystrokeEncodingSpecialFunction(t *testing.T) {
	term, _, _ := newTestTerminal()
	term.SendKeystroke(KeySF | 0x05)
	b, ok := term.DrainKeystroke()
	if !ok || b != 0xFD {
		t.Fatalf("expected 0xFD prefix, got %#x ok=%v", b, ok)
	}
	b, ok = term.DrainKeystroke()
	if !ok || b != 0x05 {
		t.Fatalf("expected 0x05 payload, got %#x ok=%v", b, ok)
	}
}

func TestKeystrokeEncodingPlain(t *testing.T) {
	term, _, _ := newTestTerminal()
	term.SendKeystroke('q')
	b, ok := term.DrainKeystroke()
	if !ok || b != 'q' {
		t.Fatalf("expected plain 'q', got %#x ok=%v", b, ok)
	}
}

func TestResetClearsState(t *testing.T) {
	term, _, _ := newTestTerminal()
	term.Receive('A')
	term.Reset(true)
	if term.Cell(0, 0).Char != 0 {
		t.Fatalf("expected reset to clear plane")
	}
	x, y, _ := term.Cursor()
	if x != 0 || y != 0 {
		t.Fatalf("expected reset to home cursor, got (%d,%d)", x, y)
	}
}

// TestHardResetMatchesFreshTerminal checks a hard reset leaves the display
// plane identical, row by row, to one that was never written to.
func TestHardResetMatchesFreshTerminal(t *testing.T) {
	dirty, _, _ := newTestTerminal()
	dirty.Receive('A')
	dirty.Receive('B')
	dirty.Receive(0x0A)
	dirty.Reset(true)

	fresh, _, _ := newTestTerminal()

	for y := range dirty.plane {
		if diff := deep.Equal(dirty.plane[y], fresh.plane[y]); diff != nil {
			t.Fatalf("row %d differs after hard reset: %v", y, diff)
		}
	}
}
