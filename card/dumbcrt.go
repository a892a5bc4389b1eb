package card

import (
	"github.com/wangemu/wang2200core/scheduler"
	"github.com/wangemu/wang2200core/terminal"
)

// CRTDisplay is the bus-facing CRT card wrapping a terminal.Terminal. It
// models the hsync-paced busy/ready handshake from IoCardDisplay.h: the card
// goes busy for a short interval after each OBS strobe (simulating the
// time the real CRT controller needs to paint a character), then raises
// DevRdy again.
type CRTDisplay struct {
	sched *scheduler.Scheduler
	term  *terminal.Terminal
	cpu   CPU
	addr  uint8

	selected bool
	busyNS   uint32
}

var _ Card = (*CRTDisplay)(nil)

// NewCRTDisplay returns a CRT card claiming addr and driving term.
func NewCRTDisplay(sched *scheduler.Scheduler, term *terminal.Terminal, cpu CPU, addr uint8) *CRTDisplay {
	return &CRTDisplay{
		sched:  sched,
		term:   term,
		cpu:    cpu,
		addr:   addr,
		busyNS: scheduler.Microseconds(60),
	}
}

func (c *CRTDisplay) Reset(hard bool) {
	c.selected = false
	c.term.Reset(hard)
}

func (c *CRTDisplay) Select() {
	c.selected = true
	c.cpu.SetDevRdy(true)
}

func (c *CRTDisplay) Deselect() { c.selected = false }

// OBS delivers an output byte to the terminal decoder, then holds DevRdy low
// briefly to emulate the character-paint busy interval.
func (c *CRTDisplay) OBS(val uint8) {
	c.term.Receive(val)
	if !c.selected {
		return
	}
	c.cpu.SetDevRdy(false)
	c.sched.CreateTimer(c.busyNS, func(*scheduler.Scheduler) {
		if c.selected {
			c.cpu.SetDevRdy(true)
		}
	})
}

// CBS requests the next outbound byte (keystroke or flow-control token).
func (c *CRTDisplay) CBS(val uint8) {
	if !c.selected {
		return
	}
	if b, ok := c.term.DrainKeystroke(); ok {
		c.cpu.IBS(b)
	}
}

func (c *CRTDisplay) IB5() uint8    { return 0 }
func (c *CRTDisplay) CPB(busy bool) {}

func (c *CRTDisplay) Addresses() []uint8     { return []uint8{c.addr} }
func (c *CRTDisplay) Name() string           { return "CRT" }
func (c *CRTDisplay) Description() string    { return "2236DE smart CRT terminal" }
func (c *CRTDisplay) BaseAddresses() []uint8 { return []uint8{0x00, 0x20, 0x40, 0x60} }
func (c *CRTDisplay) Configurable() bool     { return true }

// SendKeystroke forwards a keycode from the UI layer into the terminal's
// outbound encoder.
func (c *CRTDisplay) SendKeystroke(keycode int) {
	c.term.SendKeystroke(keycode)
}
