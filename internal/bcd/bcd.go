// Package bcd implements the decimal (BCD) arithmetic helpers shared by the
// T and VP micromachines. Both CPUs compute decimal add/subtract a nibble
// (or nibble pair) at a time and assemble the carry chain from the result,
// so the logic lives here once instead of being duplicated per CPU.
package bcd

// AddNibble adds two 4 bit BCD digits plus an incoming carry and returns the
// 5 bit result (bit 4 is the carry out). Digits above 9 are not rejected:
// diagnostic ROMs on real hardware feed invalid digits through this path and
// depend on the silicon's undefined-but-consistent behavior, so the adder
// just does binary nibble math and lets the carry fall out naturally.
func AddNibble(a, b, carryIn uint8) uint8 {
	return (a & 0xF) + (b & 0xF) + (carryIn & 0x1)
}

// SubNibble subtracts b and a borrow-in from a, returning the 5 bit result
// (bit 4 clear means a borrow occurred, mirroring how a 6's complement
// adder's carry chain is read on this hardware).
func SubNibble(a, b, borrowIn uint8) uint8 {
	return 0x10 + (a & 0xF) - (b & 0xF) - (borrowIn & 0x1)
}

// Add8 performs a two-digit (8 bit) BCD add of a and b with incoming carry
// ci, returning the 9 bit result packed as {carryOut<<8 | sum}. The low
// nibble is corrected first so its carry can feed the high nibble exactly
// as the real ALU's nibble-serial adder does.
func Add8(a, b, ci uint8) uint16 {
	lo := AddNibble(a, b, ci)
	loCarry := uint8(0)
	if lo > 9 {
		lo += 6
	}
	if lo&0x10 != 0 {
		loCarry = 1
	}
	hi := AddNibble(a>>4, b>>4, loCarry)
	hiCarry := uint8(0)
	if hi > 9 {
		hi += 6
	}
	if hi&0x10 != 0 {
		hiCarry = 1
	}
	res := ((hi & 0xF) << 4) | (lo & 0xF)
	out := uint16(res)
	if hiCarry != 0 {
		out |= 0x100
	}
	return out
}

// Sub8 performs a two-digit BCD subtract of b (and borrow bi, where bi==0
// means no incoming borrow i.e. CARRY==1) from a, returning the 9 bit result
// packed as {carryOut<<8 | diff}, where carryOut == 1 indicates NO borrow
// occurred (carry-style, matching the VP's CARRY flag semantics where
// subtract-without-borrow leaves carry set).
func Sub8(a, b, bi uint8) uint16 {
	lo := SubNibble(a, b, bi)
	loBorrow := uint8(0)
	if lo&0x10 == 0 {
		lo -= 6
		loBorrow = 1
	}
	hi := SubNibble(a>>4, b>>4, loBorrow)
	hiBorrow := uint8(0)
	if hi&0x10 == 0 {
		hi -= 6
		hiBorrow = 1
	}
	res := ((hi & 0xF) << 4) | (lo & 0xF)
	out := uint16(res)
	if hiBorrow == 0 {
		out |= 0x100
	}
	return out
}
