// Package mxd implements the 2236 terminal multiplexer controller: a card
// driven by an embedded 8080 (i8080) rather than by VP/T microcode directly.
// The 8080 firmware image talks to up to four UART-style terminal channels
// and exposes status/data registers the Wang CPU polls through the normal
// ABS/OBS/CBS/IBS strobe protocol. The card claims a single Wang bus
// address; the OBS/CBS address register the 8080 reads is not loaded from
// the Wang address and stays 0.
package mxd

import (
	"github.com/wangemu/wang2200core/i8080"
	"github.com/wangemu/wang2200core/terminal"
)

// Port numbers on the 8080's IN/OUT address space, named for the registers
// they access on the real card.
const (
	inUARTTxRdy  = 0x00
	in2200Status = 0x01
	inOBusN      = 0x02
	inOBSCBSAddr = 0x03
	inUARTRxRdy  = 0x04
	inUARTData   = 0x06
	inUARTStatus = 0x0E

	outClrPrime = 0x00
	outIBN      = 0x01
	outPrime    = 0x02
	outHaltStep = 0x03
	outUARTSel  = 0x05
	outUARTData = 0x06
	outRBI      = 0x07
	outUARTCmd  = 0x0E
)

const numChannels = 4

// status bits of in2200Status.
const (
	status2200OBS    = 0x01
	status2200CBS    = 0x02
	status2200Prime  = 0x04
	status2200Select = 0x08
)

// CPU is the capability surface the card needs back from the Wang CPU.
type CPU interface {
	SetDevRdy(ready bool)
	IBS(b uint8)
	Halt()
}

// channel holds one terminal's UART-shaped state: an inbound byte arriving
// from the Wang CPU bound for the terminal, and the outbound byte(s) the
// terminal has queued toward the Wang CPU.
type channel struct {
	term     *terminal.Terminal
	rxByte   uint8
	rxReady  bool
	txByte   uint8
	txReady  bool
	selected bool
}

// Card is the bus-facing MXD multiplexer: an i8080 core plus up to four
// terminal channels, wired together via the IN/OUT port contract above.
type Card struct {
	cpu  CPU
	addr uint8

	cpu8080 *i8080.Chip
	rom     []uint8
	ram     [256]uint8

	channels [numChannels]channel

	obsData    uint8
	cbsData    uint8
	obscbsAddr uint8
	status     uint8
	rbi        uint8
	selected   bool
	selectedCh int
}

var _ i8080.Memory = (*Card)(nil)
var _ i8080.IOPort = (*Card)(nil)

// NewCard returns an MXD card running rom (the 8080 firmware image) and
// serving up to four terminals, claiming addr.
func NewCard(cpu CPU, addr uint8, rom []uint8, terms [numChannels]*terminal.Terminal) *Card {
	c := &Card{cpu: cpu, addr: addr, rom: rom}
	for i := range c.channels {
		c.channels[i].term = terms[i]
	}
	c.cpu8080 = i8080.New(c, c)
	return c
}

// Step runs one 8080 instruction and returns elapsed nanoseconds (the
// clocked-device contract the system driver expects), per §4.6: 1.78MHz,
// 561ns/tick.
func (c *Card) Step() (ns uint32, err error) {
	ticks, err := c.cpu8080.Step()
	if _, halted := err.(i8080.HaltOpcode); halted {
		return uint32(ticks) * 561, nil
	}
	if err != nil {
		return 0, err
	}
	c.pollTerminals()
	return uint32(ticks) * 561, nil
}

// pollTerminals drains each terminal's outbound FIFO into its channel's tx
// register and delivers any completed rx byte through to the terminal.
func (c *Card) pollTerminals() {
	for i := range c.channels {
		ch := &c.channels[i]
		if ch.term == nil {
			continue
		}
		if ch.rxReady {
			ch.term.Receive(ch.rxByte)
			ch.rxReady = false
		}
		if !ch.txReady {
			if b, ok := ch.term.DrainKeystroke(); ok {
				ch.txByte = b
				ch.txReady = true
			}
		}
	}
}

// ---------------------------------------------------------------------
// i8080.Memory
// ---------------------------------------------------------------------

// Read implements i8080.Memory: addresses below len(rom) read the ROM image;
// every other address reads the firmware's 256-byte scratch RAM, mirrored.
func (c *Card) Read(addr uint16) uint8 {
	if int(addr) < len(c.rom) {
		return c.rom[addr]
	}
	idx := int(addr) & 0xFF
	return c.ram[idx]
}

// Write implements i8080.Memory: writes into the ROM region are dropped.
func (c *Card) Write(addr uint16, val uint8) {
	if int(addr) < len(c.rom) {
		return
	}
	idx := int(addr) & 0xFF
	c.ram[idx] = val
}

// ---------------------------------------------------------------------
// i8080.IOPort
// ---------------------------------------------------------------------

// In implements i8080.IOPort, serving the register layout documented at
// the top of this file.
func (c *Card) In(port uint8) uint8 {
	switch port {
	case inUARTTxRdy:
		var v uint8
		for i, ch := range c.channels {
			if !ch.txReady {
				v |= 1 << uint(i)
			}
		}
		return v
	case in2200Status:
		return c.status
	case inOBusN:
		v := c.obsData
		c.status &^= status2200OBS | status2200CBS
		return ^v
	case inOBSCBSAddr:
		return c.obscbsAddr
	case inUARTRxRdy:
		var v uint8
		for i, ch := range c.channels {
			if ch.rxReady {
				v |= 1 << uint(i)
			}
		}
		return v
	case inUARTData:
		ch := c.selectedChannel()
		if ch == nil {
			return 0
		}
		ch.rxReady = false
		return ch.rxByte
	case inUARTStatus:
		ch := c.selectedChannel()
		if ch == nil {
			return 0
		}
		var v uint8
		if !ch.txReady {
			v |= 0x01 // TxRDY: room for another character
		}
		if ch.rxReady {
			v |= 0x02 // RxRDY
		}
		return v
	}
	return 0
}

// Out implements i8080.IOPort.
func (c *Card) Out(port uint8, val uint8) {
	switch port {
	case outClrPrime:
		c.status &^= status2200Prime
	case outIBN:
		c.cpu.IBS(^val)
	case outPrime:
		// fires the !PRIME strobe toward the Wang bus; handled by Reset.
	case outHaltStep:
		// one-shot strobe, no persistent state modeled.
	case outUARTSel:
		c.selectUARTChannel(val)
	case outUARTData:
		ch := c.selectedChannel()
		if ch != nil {
			ch.txByte = 0
			ch.txReady = false
		}
	case outRBI:
		c.rbi = val
	case outUARTCmd:
		// command register writes (reset/enable) are accepted but don't
		// change the channel's ready/busy modeling here.
	}
}

func (c *Card) selectUARTChannel(val uint8) {
	c.selectedCh = int(val) & 0x3
}

func (c *Card) selectedChannel() *channel {
	if c.selectedCh < 0 || c.selectedCh >= numChannels {
		return nil
	}
	return &c.channels[c.selectedCh]
}

// ---------------------------------------------------------------------
// card.Card (Wang-bus-facing side)
// ---------------------------------------------------------------------

// Reset implements card.Card.
func (c *Card) Reset(hard bool) {
	c.selected = false
	c.status = 0
	c.obsData, c.cbsData, c.obscbsAddr = 0, 0, 0
	if hard {
		c.cpu8080.Reset()
		for i := range c.channels {
			c.channels[i].rxReady = false
			c.channels[i].txReady = false
		}
	}
}

// Select implements card.Card.
func (c *Card) Select() {
	c.selected = true
	c.status |= status2200Select
	c.cpu.SetDevRdy(true)
}

// Deselect implements card.Card.
func (c *Card) Deselect() {
	c.selected = false
	c.status &^= status2200Select
}

// OBS implements card.Card: an output byte from the Wang CPU destined for
// whichever channel the 8080 firmware has most recently selected.
func (c *Card) OBS(val uint8) {
	c.obsData = val
	c.status |= status2200OBS
}

// CBS implements card.Card.
func (c *Card) CBS(val uint8) {
	c.cbsData = val
	c.status |= status2200CBS
}

// IB5 implements card.Card; the MXD doesn't drive this side channel.
func (c *Card) IB5() uint8 { return 0 }

// CPB implements card.Card.
func (c *Card) CPB(busy bool) {}

func (c *Card) Addresses() []uint8     { return []uint8{c.addr} }
func (c *Card) Name() string           { return "MXD" }
func (c *Card) Description() string    { return "2236 terminal multiplexer" }
func (c *Card) BaseAddresses() []uint8 { return []uint8{0x00, 0x20, 0x40, 0x60} }
func (c *Card) Configurable() bool     { return true }
