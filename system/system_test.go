package system

import (
	"testing"

	"github.com/wangemu/wang2200core/scheduler"
)

type fakeDevice struct {
	ns    uint32
	steps int
}

func (f *fakeDevice) Step() (uint32, error) {
	f.steps++
	return f.ns, nil
}

type fakeUI struct {
	warnings []string
	errors   []string
}

func (f *fakeUI) Warn(msg string)                        { f.warnings = append(f.warnings, msg) }
func (f *fakeUI) Error(msg string)                       { f.errors = append(f.errors, msg) }
func (f *fakeUI) SetSimSeconds(sec float64, speed float64) {}
func (f *fakeUI) DisplayChar(ch uint8)                   {}
func (f *fakeUI) DisplayDing()                           {}

func TestSingleDeviceConsumesFullSlice(t *testing.T) {
	sched := scheduler.New()
	sys := New(sched, &fakeUI{}, false)
	dev := &fakeDevice{ns: 600}
	sys.AddDevice(dev)
	if err := sys.RunSlice(); err != nil {
		t.Fatalf("RunSlice: %v", err)
	}
	if dev.steps == 0 {
		t.Fatalf("expected device to be stepped")
	}
	if want := int(SliceNS / 600); dev.steps != want {
		t.Fatalf("steps = %d, want %d (one full slice at 600ns per step)", dev.steps, want)
	}
}

func TestMultiDeviceInterleavesByLocalTime(t *testing.T) {
	sched := scheduler.New()
	sys := New(sched, &fakeUI{}, false)
	slow := &fakeDevice{ns: 1000}
	fast := &fakeDevice{ns: 100}
	sys.AddDevice(slow)
	sys.AddDevice(fast)
	if err := sys.RunSlice(); err != nil {
		t.Fatalf("RunSlice: %v", err)
	}
	if fast.steps <= slow.steps {
		t.Fatalf("expected fast device (smaller per-step ns) to step more often: fast=%d slow=%d", fast.steps, slow.steps)
	}
}

type errDevice struct{}

func (errDevice) Step() (uint32, error) { return 0, fmtErr("boom") }

type fmtErr string

func (e fmtErr) Error() string { return string(e) }

func TestDeviceErrorHaltsSystem(t *testing.T) {
	sched := scheduler.New()
	ui := &fakeUI{}
	sys := New(sched, ui, false)
	sys.AddDevice(errDevice{})
	if err := sys.RunSlice(); err == nil {
		t.Fatalf("expected error from failing device")
	}
	if !sys.Halted() {
		t.Fatalf("expected system to be halted after device error")
	}
	if len(ui.errors) != 1 {
		t.Fatalf("expected one UI error report, got %d", len(ui.errors))
	}
}
