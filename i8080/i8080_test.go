package i8080

import "testing"

type fakeMem struct {
	m [65536]uint8
}

func (f *fakeMem) Read(addr uint16) uint8     { return f.m[addr] }
func (f *fakeMem) Write(addr uint16, v uint8) { f.m[addr] = v }

type fakeIO struct {
	in  map[uint8]uint8
	out map[uint8]uint8
}

func newFakeIO() *fakeIO { return &fakeIO{in: map[uint8]uint8{}, out: map[uint8]uint8{}} }
func (f *fakeIO) In(port uint8) uint8        { return f.in[port] }
func (f *fakeIO) Out(port uint8, v uint8)    { f.out[port] = v }

func load(mem *fakeMem, addr uint16, bytes ...uint8) {
	for i, b := range bytes {
		mem.m[int(addr)+i] = b
	}
}

func TestMVIAndMOV(t *testing.T) {
	mem := &fakeMem{}
	io := newFakeIO()
	load(mem, 0, 0x06, 0x42, 0x78) // MVI B,0x42 ; MOV A,B
	c := New(mem, io)
	c.Step()
	if c.B != 0x42 {
		t.Fatalf("B = %#x, want 0x42", c.B)
	}
	c.Step()
	if c.A != 0x42 {
		t.Fatalf("A = %#x, want 0x42", c.A)
	}
}

func TestADDSetsCarryAndZero(t *testing.T) {
	mem := &fakeMem{}
	io := newFakeIO()
	load(mem, 0, 0x3E, 0xFF, 0x06, 0x01, 0x80) // MVI A,FF ; MVI B,01 ; ADD B
	c := New(mem, io)
	c.Step()
	c.Step()
	c.Step()
	if c.A != 0 {
		t.Fatalf("A = %#x, want 0", c.A)
	}
	if !c.getFlag(FlagC) || !c.getFlag(FlagZ) {
		t.Fatalf("expected carry+zero set after overflow add")
	}
}

func TestJMP(t *testing.T) {
	mem := &fakeMem{}
	io := newFakeIO()
	load(mem, 0, 0xC3, 0x00, 0x10) // JMP 0x1000
	c := New(mem, io)
	c.Step()
	if c.PC != 0x1000 {
		t.Fatalf("PC = %#x, want 0x1000", c.PC)
	}
}

func TestCallAndRet(t *testing.T) {
	mem := &fakeMem{}
	io := newFakeIO()
	load(mem, 0, 0xCD, 0x00, 0x10) // CALL 0x1000
	load(mem, 0x1000, 0xC9)       // RET
	c := New(mem, io)
	c.SP = 0x2000
	c.Step()
	if c.PC != 0x1000 {
		t.Fatalf("after CALL, PC = %#x, want 0x1000", c.PC)
	}
	c.Step()
	if c.PC != 3 {
		t.Fatalf("after RET, PC = %#x, want 3", c.PC)
	}
}

func TestHaltSetsHaltedState(t *testing.T) {
	mem := &fakeMem{}
	io := newFakeIO()
	load(mem, 0, 0x76) // HLT
	c := New(mem, io)
	if _, err := c.Step(); err != nil {
		t.Fatalf("unexpected error on first step: %v", err)
	}
	if !c.halted {
		t.Fatalf("expected halted after HLT")
	}
}

func TestInterruptVectoring(t *testing.T) {
	mem := &fakeMem{}
	io := newFakeIO()
	load(mem, 0, 0xFB, 0x00, 0x00) // EI ; NOP ; NOP
	c := New(mem, io)
	c.SP = 0x2000
	c.Step() // EI
	c.RequestInterrupt(0xFF) // RST 7
	c.Step()
	if c.PC != 0x0038 {
		t.Fatalf("PC = %#x, want 0x0038 after RST 7 vector", c.PC)
	}
}

func TestOUTWritesPort(t *testing.T) {
	mem := &fakeMem{}
	io := newFakeIO()
	load(mem, 0, 0x3E, 0x99, 0xD3, 0x05) // MVI A,0x99 ; OUT 5
	c := New(mem, io)
	c.Step()
	c.Step()
	if io.out[5] != 0x99 {
		t.Fatalf("port 5 = %#x, want 0x99", io.out[5])
	}
}
