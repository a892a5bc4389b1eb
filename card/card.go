// Package card defines the I/O bus card contract and the slot table that
// holds card instances. A card is a polymorphic peripheral: keyboard, dumb
// CRT, smart-terminal multiplexer, printer, disk, or a blank slot, all
// exposed through the same capability-set interface so the bus can dispatch
// strobes without knowing the concrete type.
package card

import "fmt"

// NumSlots is the default number of card slots in the backplane.
const NumSlots = 8

// CPU is the capability surface a Card needs back from the CPU it's plugged
// into. Each card's constructor takes a non-owning reference that satisfies this
// rather than a concrete CPU type, so cput and cpuvp can share the same card
// implementations.
type CPU interface {
	// SetDevRdy records the selected device's ready bit in CPU status.
	SetDevRdy(ready bool)
	// IBS delivers a byte into the CPU's K register and clears CPB,
	// completing a pending input-byte-strobe handshake.
	IBS(b uint8)
	// Halt sets the CPU's HALT flag (used by the keyboard's Halt key).
	Halt()
}

// Card is the contract every peripheral on the I/O bus implements.
type Card interface {
	// Reset initializes the card. hard distinguishes power-on reset from a
	// soft reset that preserves card memory where applicable.
	Reset(hard bool)
	// Select is called when the bus asserts ABS for one of this card's
	// addresses.
	Select()
	// Deselect is called before a different card is selected, or when no
	// card claims the new address.
	Deselect()
	// OBS delivers an output-byte-strobe value to the card.
	OBS(val uint8)
	// CBS delivers a control-byte-strobe value to the card.
	CBS(val uint8)
	// IB5 returns the card's side-channel IB5 bit. Cards that don't drive
	// it return 0.
	IB5() uint8
	// CPB propagates the CPU-busy signal to the card.
	CPB(busy bool)

	// Addresses returns the 8 bit addresses this card responds to.
	Addresses() []uint8
	// Name returns a short identifier for the card type (e.g. "Keyboard").
	Name() string
	// Description returns a human-readable description for configuration UIs.
	Description() string
	// BaseAddresses returns the addresses this card type may be configured
	// to live at (a card claims one of these plus any fixed offsets).
	BaseAddresses() []uint8
	// Configurable reports whether this card instance accepts per-card
	// configuration blobs (vs. being fixed function, e.g. Blank).
	Configurable() bool
}

// AddressConflict is returned when two cards in a configuration claim the
// same bus address.
type AddressConflict struct {
	Addr uint8
}

func (e AddressConflict) Error() string {
	return fmt.Sprintf("card: address 0x%02X claimed by more than one card", e.Addr)
}

// SlotID identifies a populated slot in the backplane.
type SlotID int

// Slots holds the fixed-size backplane and the 256-entry address map from
// bus address to the slot that owns it, matching the one-card-per-address
// invariant the bus relies on.
type Slots struct {
	cards   [NumSlots]Card
	addrMap [256]int // slot index + 1, 0 == unclaimed
}

// NewSlots returns an empty slot table.
func NewSlots() *Slots {
	return &Slots{}
}

// Insert places c into slot id, validating that none of its addresses are
// already claimed by another card. On success the address map is updated.
func (s *Slots) Insert(id SlotID, c Card) error {
	if id < 0 || int(id) >= NumSlots {
		return fmt.Errorf("card: slot %d out of range [0,%d)", id, NumSlots)
	}
	for _, a := range c.Addresses() {
		if owner := s.addrMap[a]; owner != 0 && owner != int(id)+1 {
			return AddressConflict{Addr: a}
		}
	}
	s.cards[id] = c
	for _, a := range c.Addresses() {
		s.addrMap[a] = int(id) + 1
	}
	return nil
}

// Remove clears slot id and its address-map entries.
func (s *Slots) Remove(id SlotID) {
	if id < 0 || int(id) >= NumSlots {
		return
	}
	if c := s.cards[id]; c != nil {
		for _, a := range c.Addresses() {
			if s.addrMap[a] == int(id)+1 {
				s.addrMap[a] = 0
			}
		}
	}
	s.cards[id] = nil
}

// At returns the card in slot id, or nil if empty.
func (s *Slots) At(id SlotID) Card {
	if id < 0 || int(id) >= NumSlots {
		return nil
	}
	return s.cards[id]
}

// ForAddr returns the card claiming addr, or nil if unclaimed.
func (s *Slots) ForAddr(addr uint8) Card {
	owner := s.addrMap[addr]
	if owner == 0 {
		return nil
	}
	return s.cards[owner-1]
}

// All returns every populated slot, for reset/teardown iteration.
func (s *Slots) All() []Card {
	var out []Card
	for _, c := range s.cards {
		if c != nil {
			out = append(out, c)
		}
	}
	return out
}
