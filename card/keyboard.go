package card

import "github.com/wangemu/wang2200core/scheduler"

const (
	// KeycodeSF flags a special-function key combination.
	KeycodeSF = 0x0100
	// KeycodeHalt is the keyboard's physical Halt/Reset button.
	KeycodeHalt = 0x0200
)

// Keyboard is the card at the mandatory base address 0x01. A keystroke
// queued via PushKeystroke is delivered as an IBS response a short scheduled
// delay after a CBS strobe requests it, matching the real hardware's small
// scripted delay so a
// program polling CBS/IBS back-to-back still observes a believable gap.
type Keyboard struct {
	sched    *scheduler.Scheduler
	cpu      CPU
	addr     uint8
	selected bool
	cpb      bool
	keyReady bool
	keyCode  int
	delayNS  uint32
}

var _ Card = (*Keyboard)(nil)

// NewKeyboard returns a keyboard card claiming addr (normally 0x01).
func NewKeyboard(sched *scheduler.Scheduler, cpu CPU, addr uint8) *Keyboard {
	k := &Keyboard{sched: sched, cpu: cpu, addr: addr, delayNS: scheduler.Microseconds(40)}
	k.Reset(true)
	return k
}

// PushKeystroke queues keycode (optionally OR'd with KeycodeSF/KeycodeHalt)
// for delivery to the CPU. KeycodeHalt is handled immediately since it's a
// physical button, not a data byte.
func (k *Keyboard) PushKeystroke(keycode int) {
	if keycode&KeycodeHalt != 0 {
		k.cpu.Halt()
		return
	}
	k.keyCode = keycode
	k.keyReady = true
	k.checkKeyReady()
}

func (k *Keyboard) checkKeyReady() {
	if !k.keyReady || !k.selected {
		return
	}
	k.cpu.SetDevRdy(true)
}

func (k *Keyboard) Reset(hard bool) {
	k.selected = false
	k.cpb = false
	if hard {
		k.keyReady = false
		k.keyCode = 0
	}
}

func (k *Keyboard) Select() {
	k.selected = true
	k.checkKeyReady()
}

func (k *Keyboard) Deselect() {
	k.selected = false
}

func (k *Keyboard) OBS(val uint8) {}

// CBS requests the pending keystroke; the real hardware returns it via IBS
// a short time later rather than synchronously.
func (k *Keyboard) CBS(val uint8) {
	if !k.keyReady {
		return
	}
	code := k.keyCode
	k.sched.CreateTimer(k.delayNS, func(*scheduler.Scheduler) {
		k.keyReady = false
		k.cpu.IBS(uint8(code & 0xFF))
	})
}

func (k *Keyboard) IB5() uint8    { return 0 }
func (k *Keyboard) CPB(busy bool) { k.cpb = busy }

func (k *Keyboard) Addresses() []uint8     { return []uint8{k.addr} }
func (k *Keyboard) Name() string           { return "Keyboard" }
func (k *Keyboard) Description() string    { return "2200 standard keyboard" }
func (k *Keyboard) BaseAddresses() []uint8 { return []uint8{0x01} }
func (k *Keyboard) Configurable() bool     { return false }
