package card

import "fmt"

// DiskHost is implemented by the external disk-controller collaborator
// (file handling, on-disk image format) that the core never inspects
// directly; the Disk card only forwards bus strobes into drive state and
// calls back out to this host for the operations spec.md §6 names.
type DiskHost interface {
	InsertDisk(drive int, path string) error
	RemoveDisk(drive int)
	Flush(drive int) error
	DriveStatus(drive int) (present, writeProtected bool)
	Filename(drive int) string
	FormatFile(path string, density int) error
}

// Disk is the bus-facing half of a disk controller card. It owns no image
// data or file handles itself -- all of that lives behind DiskHost -- it
// only participates in address selection and strobe routing the way every
// other card does, plus a small busy/ready handshake (one busy flag for the
// card; readiness follows drive 0's status).
type Disk struct {
	host     DiskHost
	cpu      CPU
	addr     uint8
	selected bool
	busy     bool
}

var _ Card = (*Disk)(nil)

// NewDisk returns a disk controller card claiming addr and delegating file
// operations to host.
func NewDisk(host DiskHost, cpu CPU, addr uint8) *Disk {
	return &Disk{host: host, cpu: cpu, addr: addr}
}

func (d *Disk) Reset(hard bool) {
	d.selected = false
	d.busy = false
}

func (d *Disk) Select() {
	d.selected = true
	present, _ := d.host.DriveStatus(0)
	d.cpu.SetDevRdy(present && !d.busy)
}

func (d *Disk) Deselect() { d.selected = false }
func (d *Disk) OBS(val uint8) {
	// Command bytes are interpreted by the (external) controller protocol
	// state machine; this core only needs to keep the bus handshake honest.
}
func (d *Disk) CBS(val uint8) {
	if d.selected {
		present, _ := d.host.DriveStatus(0)
		d.cpu.IBS(boolToBit(present))
	}
}
func (d *Disk) IB5() uint8    { return 0 }
func (d *Disk) CPB(busy bool) { d.busy = busy }

func (d *Disk) Addresses() []uint8  { return []uint8{d.addr} }
func (d *Disk) Name() string        { return "Disk Controller" }
func (d *Disk) Description() string { return fmt.Sprintf("disk controller at 0x%02X", d.addr) }
func (d *Disk) BaseAddresses() []uint8 {
	return []uint8{0x10, 0x30, 0x50, 0x70}
}
func (d *Disk) Configurable() bool { return true }

func boolToBit(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}
