package disassemble

import (
	"strings"
	"testing"
)

func TestStepVPMnemonic(t *testing.T) {
	// LPI-envelope word targeting 0x1234; just check the mnemonic shows up.
	out := Step(VP, 0x190000|0x1234)
	if !strings.Contains(out, "LPI") {
		t.Fatalf("expected LPI mnemonic, got %q", out)
	}
}

func TestStepTMnemonic(t *testing.T) {
	out := Step(T, 0)
	if !strings.Contains(out, "OR") {
		t.Fatalf("expected OR mnemonic for opcode 0, got %q", out)
	}
}

func TestStepIllegalReported(t *testing.T) {
	out := Step(VP, 0x1F<<18)
	if !strings.Contains(out, "ILL") && !strings.Contains(out, "PECM") {
		t.Fatalf("expected illegal/parity mnemonic, got %q", out)
	}
}
