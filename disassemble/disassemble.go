// Package disassemble renders raw microcode words as one-line mnemonic
// text for diagnostics (spec.md §7: an illegal-microinstruction report
// includes "disassembly of the offending word"). It mirrors the shape of
// the 6502 disassembler this codebase started from — a single Step-style
// entry point taking a raw instruction and returning display text — but
// dispatches over the T and VP micromachines' field-decoded horizontal
// microcode rather than a byte-oriented 6502 opcode table.
package disassemble

import (
	"github.com/wangemu/wang2200core/cput"
	"github.com/wangemu/wang2200core/cpuvp"
)

// Variant selects which micromachine's field layout a raw word decodes
// under; T and VP disagree on word width and field placement.
type Variant int

const (
	VP Variant = iota
	T
)

// Step disassembles one microcode word for the given variant, returning
// its mnemonic text. Unlike the 6502 disassembler it replaces, every Wang
// micromachine word is a single fixed-width unit, so there is no variable
// byte count to report back to the caller.
func Step(v Variant, raw uint32) string {
	switch v {
	case T:
		return cput.Disassemble(raw)
	default:
		return cpuvp.Disassemble(raw)
	}
}
