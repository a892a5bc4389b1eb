package card

// PrinterHost is implemented by the external printer-rendering collaborator.
// The Printer card only forwards output bytes; rendering/pagination is
// entirely the host's concern (out of scope per spec.md §1).
type PrinterHost interface {
	PrintByte(b uint8)
	FormFeed()
}

// Printer is the bus-facing half of a printer card.
type Printer struct {
	host     PrinterHost
	cpu      CPU
	addr     uint8
	selected bool
}

var _ Card = (*Printer)(nil)

// NewPrinter returns a printer card claiming addr and forwarding output to host.
func NewPrinter(host PrinterHost, cpu CPU, addr uint8) *Printer {
	return &Printer{host: host, cpu: cpu, addr: addr}
}

func (p *Printer) Reset(hard bool) { p.selected = false }
func (p *Printer) Select() {
	p.selected = true
	p.cpu.SetDevRdy(true)
}
func (p *Printer) Deselect() { p.selected = false }
func (p *Printer) OBS(val uint8) {
	if val == 0x0C {
		p.host.FormFeed()
		return
	}
	p.host.PrintByte(val)
}
func (p *Printer) CBS(val uint8) {
	if p.selected {
		p.cpu.IBS(0x01)
	}
}
func (p *Printer) IB5() uint8    { return 0 }
func (p *Printer) CPB(busy bool) {}

func (p *Printer) Addresses() []uint8     { return []uint8{p.addr} }
func (p *Printer) Name() string           { return "Printer" }
func (p *Printer) Description() string    { return "parallel printer" }
func (p *Printer) BaseAddresses() []uint8 { return []uint8{0x02, 0x1A, 0x42} }
func (p *Printer) Configurable() bool     { return true }
