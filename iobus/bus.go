// Package iobus implements the Wang 2200 I/O bus protocol: address strobe
// (ABS) selects a card, the byte strobes (OBS/CBS/IBS) move data to and from
// it, CPB/DEVRDY form the busy/ready handshake, and IB5 is a side-channel
// poll line every card may drive. Exactly one card is selected at a time.
package iobus

import (
	"github.com/wangemu/wang2200core/card"
)

// Logger receives bus diagnostics. A nil Logger disables warnings.
type Logger interface {
	Warnf(format string, args ...interface{})
}

// Bus couples the card slot table to the CPU-facing strobe entry points. It
// is the thing a CPU (T or VP) calls into on ABS/OBS/CBS/poll-IB5/CPB.
type Bus struct {
	slots    *card.Slots
	logger   Logger
	selected uint8
	hasSel   bool
	warned   [256]bool
}

// New returns a bus over slots. logger may be nil.
func New(slots *card.Slots, logger Logger) *Bus {
	return &Bus{slots: slots, logger: logger}
}

// Reset deselects any card and resets every populated slot.
func (b *Bus) Reset(hard bool) {
	b.hasSel = false
	for _, c := range b.slots.All() {
		c.Reset(hard)
	}
}

// Abs asserts the address strobe for addr: the previously selected card (if
// any and if different) is deselected, then the new address's card (if any)
// is selected. Selecting an unclaimed address warns once per address and
// leaves the bus with no card selected.
func (b *Bus) Abs(addr uint8) {
	if b.hasSel && b.selected == addr {
		return
	}
	if b.hasSel {
		if prev := b.slots.ForAddr(b.selected); prev != nil {
			prev.Deselect()
		}
	}
	c := b.slots.ForAddr(addr)
	if c == nil {
		b.hasSel = false
		if !b.warned[addr] {
			b.warned[addr] = true
			if b.logger != nil {
				b.logger.Warnf("iobus: no card responds to address 0x%02X", addr)
			}
		}
		return
	}
	b.selected = addr
	b.hasSel = true
	c.Select()
}

// Obs delivers an output-byte-strobe to the selected card, if any.
func (b *Bus) Obs(val uint8) {
	if c := b.current(); c != nil {
		c.OBS(val)
	}
}

// Cbs delivers a control-byte-strobe to the selected card, if any.
func (b *Bus) Cbs(val uint8) {
	if c := b.current(); c != nil {
		c.CBS(val)
	}
}

// PollIB5 reads the selected card's IB5 side-channel line, or 0 if no card
// is selected.
func (b *Bus) PollIB5() uint8 {
	if c := b.current(); c != nil {
		return c.IB5()
	}
	return 0
}

// Cpb propagates CPU-busy to the selected card.
func (b *Bus) Cpb(busy bool) {
	if c := b.current(); c != nil {
		c.CPB(busy)
	}
}

// SelectedAddr reports the currently selected address and whether any card
// is selected.
func (b *Bus) SelectedAddr() (addr uint8, ok bool) {
	return b.selected, b.hasSel
}

func (b *Bus) current() card.Card {
	if !b.hasSel {
		return nil
	}
	return b.slots.ForAddr(b.selected)
}
