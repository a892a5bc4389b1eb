// Package config models the core-side system configuration state: CPU type,
// RAM size, per-slot card assignment, and the handful of booleans that
// affect emulation behavior. The external .ini persistence layer (reading
// and writing this state to disk) is out of scope per spec.md §1; this
// package only owns validation and the needsReboot comparison.
package config

import "fmt"

// CPUType enumerates the machine variants this core can emulate.
type CPUType int

const (
	CPU2200B CPUType = iota
	CPU2200T
	CPUVP
	CPUMVP
	CPUMVPC
	CPUMicroVP
)

func (t CPUType) String() string {
	switch t {
	case CPU2200B:
		return "2200B"
	case CPU2200T:
		return "2200T"
	case CPUVP:
		return "VP"
	case CPUMVP:
		return "MVP"
	case CPUMVPC:
		return "MVPC"
	case CPUMicroVP:
		return "MICROVP"
	default:
		return fmt.Sprintf("CPUType(%d)", int(t))
	}
}

// allowedRAMKB lists the RAM sizes (in KiB) valid for each CPU type. 2200B/T
// are the nibble-addressed T-variant; the rest are VP-variant byte machines.
var allowedRAMKB = map[CPUType][]int{
	CPU2200B:  {4, 8, 12, 16, 24, 32},
	CPU2200T:  {4, 8, 12, 16, 24, 32},
	CPUVP:     {32, 48, 64},
	CPUMVP:    {64, 128, 256, 512},
	CPUMVPC:   {64, 128, 256, 512},
	CPUMicroVP: {64, 128, 256, 512, 1024, 2048},
}

// NumSlots matches card.NumSlots; duplicated here (rather than importing
// card) to keep config free of a dependency on the I/O bus package.
const NumSlots = 8

// CardType names the kind of card configured into a slot.
type CardType int

const (
	CardNone CardType = iota
	CardKeyboard
	CardCRT
	CardMXD
	CardPrinter
	CardDisk
)

// SlotConfig is one backplane slot's configuration: what's plugged in,
// where, and its opaque per-card configuration blob (if Configurable).
type SlotConfig struct {
	Type CardType
	Addr uint8
	Blob []byte
}

// SysConfig is the complete core-side configuration state, modeled after
// SysCfgState: one-off machine choices plus the per-slot card table.
type SysConfig struct {
	CPUType      CPUType
	RAMKB        int
	SpeedRegulated bool
	DiskRealtime bool
	WarnOnBadIO  bool
	Slots        [NumSlots]SlotConfig
}

// Default returns a minimal valid configuration: an MVP CPU with 64KB RAM, a
// keyboard at 0x01 and a CRT at 0x05 (the two mandatory devices per §7).
func Default() SysConfig {
	var c SysConfig
	c.CPUType = CPUMVP
	c.RAMKB = 64
	c.SpeedRegulated = true
	c.WarnOnBadIO = true
	c.Slots[0] = SlotConfig{Type: CardKeyboard, Addr: 0x01}
	c.Slots[1] = SlotConfig{Type: CardCRT, Addr: 0x05}
	return c
}

// InvalidConfig reports a configuration validation failure.
type InvalidConfig struct {
	Reason string
}

func (e InvalidConfig) Error() string { return fmt.Sprintf("config: %s", e.Reason) }

// Validate implements configOk: overlapping addresses, missing mandatory
// devices, and an invalid CPU/RAM pairing are all refused before commit.
func (c SysConfig) Validate() error {
	sizes, ok := allowedRAMKB[c.CPUType]
	if !ok {
		return InvalidConfig{Reason: fmt.Sprintf("unknown CPU type %v", c.CPUType)}
	}
	validSize := false
	for _, s := range sizes {
		if s == c.RAMKB {
			validSize = true
			break
		}
	}
	if !validSize {
		return InvalidConfig{Reason: fmt.Sprintf("%dKB is not valid for CPU type %v", c.RAMKB, c.CPUType)}
	}

	seen := map[uint8]int{}
	hasKeyboard, hasCRT := false, false
	for slot, sc := range c.Slots {
		if sc.Type == CardNone {
			continue
		}
		if owner, dup := seen[sc.Addr]; dup {
			return InvalidConfig{Reason: fmt.Sprintf("slots %d and %d both claim address 0x%02X", owner, slot, sc.Addr)}
		}
		seen[sc.Addr] = slot
		switch sc.Type {
		case CardKeyboard:
			if sc.Addr == 0x01 {
				hasKeyboard = true
			}
		case CardCRT, CardMXD:
			hasCRT = true
		}
	}
	if !hasKeyboard {
		return InvalidConfig{Reason: "no keyboard configured at mandatory address 0x01"}
	}
	if !hasCRT {
		return InvalidConfig{Reason: "no CRT/terminal device configured"}
	}
	return nil
}

// NeedsReboot reports whether transitioning from c to other requires a
// teardown-rebuild (CPU type, RAM size, or any slot's card type or address
// changed)
// rather than an in-place reconfiguration.
func (c SysConfig) NeedsReboot(other SysConfig) bool {
	if c.CPUType != other.CPUType || c.RAMKB != other.RAMKB {
		return true
	}
	for i := range c.Slots {
		if c.Slots[i].Type != other.Slots[i].Type || c.Slots[i].Addr != other.Slots[i].Addr {
			return true
		}
	}
	return false
}
