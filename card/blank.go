package card

// Blank occupies a slot that has no card installed. It claims no addresses
// and ignores every strobe; the bus's own "unoccupied address" warn-once
// logic handles addresses nobody claims, this is purely a slot-table filler.
type Blank struct{}

var _ Card = (*Blank)(nil)

func (Blank) Reset(hard bool)    {}
func (Blank) Select()            {}
func (Blank) Deselect()          {}
func (Blank) OBS(val uint8)      {}
func (Blank) CBS(val uint8)      {}
func (Blank) IB5() uint8         { return 0 }
func (Blank) CPB(busy bool)      {}
func (Blank) Addresses() []uint8 { return nil }
func (Blank) Name() string       { return "Blank" }
func (Blank) Description() string {
	return "empty slot"
}
func (Blank) BaseAddresses() []uint8 { return nil }
func (Blank) Configurable() bool     { return false }
