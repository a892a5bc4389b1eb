// Package system is the top-level driver: it holds the scheduler, the UI
// and the registered clocked devices as one explicit value (replacing the
// singleton the original implementation used), and multiplexes every
// clocked device across each 30ms time slice while regulating realtime
// pacing. The CPU, the I/O bus and the card slot table are built and held
// by the caller, which registers the CPU as a clocked device.
package system

import (
	"fmt"
	"sort"
	"time"

	"github.com/wangemu/wang2200core/scheduler"
)

// SliceNS is the nominal length of one idle-loop time slice.
const SliceNS = uint32(30 * 1000 * 1000)

// speedHistoryLen is the rolling window of slice wall-start times kept for
// reporting relative emulation speed.
const speedHistoryLen = 100

// ClockedDevice is any component the driver steps once per inner loop
// iteration: the main CPU, and any embedded microprocessor cards (the MXD's
// 8080). Step executes one unit of work and reports elapsed nanoseconds.
type ClockedDevice interface {
	Step() (ns uint32, err error)
}

// UI is the core's callback surface into the host (§6): warnings/errors,
// speed reporting, and per-character display/ding notifications. The CRT
// rasterizer and printer rendering live entirely on the other side of this
// interface.
type UI interface {
	Warn(msg string)
	Error(msg string)
	SetSimSeconds(sec float64, speed float64)
	DisplayChar(ch uint8)
	DisplayDing()
}

// Logger adapts UI.Warn to the iobus.Logger contract.
type Logger struct{ UI UI }

func (l Logger) Warnf(format string, args ...interface{}) {
	if l.UI != nil {
		l.UI.Warn(fmt.Sprintf(format, args...))
	}
}

// clockedEntry pairs a device with its local time accumulator, rebased
// toward zero by the driver to prevent 32-bit overflow.
type clockedEntry struct {
	dev    ClockedDevice
	localNS uint32
	seq    int
}

// System is the explicit, non-global value holding the driver state: the
// scheduler, the UI, the clocked devices and the pacing history. It does
// not hold the CPU, the I/O bus or the card slot table.
type System struct {
	sched   *scheduler.Scheduler
	ui      UI
	devices []*clockedEntry
	nextSeq int

	halted bool
	frozen bool

	regulate   bool
	wallRef    time.Time
	simNS      uint64
	speedHist  [speedHistoryLen]time.Time
	speedHistN int
}

// New returns an empty System over sched. Devices are registered with
// AddDevice before the first RunSlice call.
func New(sched *scheduler.Scheduler, ui UI, regulate bool) *System {
	return &System{sched: sched, ui: ui, regulate: regulate, wallRef: time.Time{}}
}

// AddDevice registers a clocked device (CPU or embedded microprocessor
// card) to be stepped by RunSlice.
func (s *System) AddDevice(dev ClockedDevice) {
	s.devices = append(s.devices, &clockedEntry{dev: dev, seq: s.nextSeq})
	s.nextSeq++
}

// Halted reports whether the driver has stopped running slices (e.g. after
// an illegal-microinstruction error was surfaced).
func (s *System) Halted() bool { return s.halted }

// SchedulerNS reports the scheduler's own authoritative nanosecond clock,
// separate from the driver's hand-kept simNS: the CPU ticks the scheduler
// itself on every instruction (§4.3), while simNS sums whatever every
// registered device reports, including non-ticking ones like the MXD's
// embedded 8080. A host UI wanting the CPU's view of elapsed time rather
// than the driver's aggregate uses this.
func (s *System) SchedulerNS() uint64 { return s.sched.Now() }

// Freeze quiesces the core ahead of a reconfiguration teardown.
func (s *System) Freeze() { s.frozen = true }

// RunSlice emulates one 30ms slice, stepping every registered clocked
// device in the order described by §4.8, then applies realtime pacing.
func (s *System) RunSlice() error {
	if s.halted || s.frozen {
		return nil
	}
	if len(s.devices) == 0 {
		return nil
	}

	if len(s.devices) == 1 {
		if err := s.runSingleDevice(); err != nil {
			return err
		}
	} else {
		if err := s.runMultiDevice(); err != nil {
			return err
		}
	}

	s.pace()
	return nil
}

func (s *System) runSingleDevice() error {
	d := s.devices[0]
	var consumed uint32
	for consumed < SliceNS {
		ns, err := d.dev.Step()
		if err != nil {
			s.halted = true
			if s.ui != nil {
				s.ui.Error(err.Error())
			}
			return err
		}
		if ns == 0 {
			ns = 100
		}
		consumed += ns
		s.simNS += uint64(ns)
	}
	return nil
}

// runMultiDevice keeps devices sorted by local accumulator and steps
// whichever is smallest (ties go to registration order), adding the full
// cost of each step to that device's accumulator; the advance is not
// clamped to the gap with the next-smallest device, and the scheduler is
// not advanced here. Accumulators are rebased by their minimum at the end
// of the slice.
func (s *System) runMultiDevice() error {
	var sliceConsumed uint32
	for sliceConsumed < SliceNS {
		sort.SliceStable(s.devices, func(i, j int) bool {
			if s.devices[i].localNS != s.devices[j].localNS {
				return s.devices[i].localNS < s.devices[j].localNS
			}
			return s.devices[i].seq < s.devices[j].seq
		})
		lead := s.devices[0]
		ns, err := lead.dev.Step()
		if err != nil {
			s.halted = true
			if s.ui != nil {
				s.ui.Error(err.Error())
			}
			return err
		}
		if ns == 0 {
			ns = 100
		}
		lead.localNS += ns
		s.simNS += uint64(ns)
		sliceConsumed += ns
	}

	minLocal := s.devices[0].localNS
	for _, d := range s.devices {
		if d.localNS < minLocal {
			minLocal = d.localNS
		}
	}
	for _, d := range s.devices {
		d.localNS -= minLocal
	}
	return nil
}

// pace implements §4.8's wall-clock regulation: sleep half the offset when
// running ahead, snap forward when more than 10 slices behind, and keep a
// rolling history of slice start times to report relative speed.
func (s *System) pace() {
	now := time.Now()
	if s.wallRef.IsZero() {
		s.wallRef = now
	}

	s.speedHist[s.speedHistN%speedHistoryLen] = now
	s.speedHistN++

	if !s.regulate {
		return
	}

	elapsedWall := now.Sub(s.wallRef)
	simDur := time.Duration(s.simNS) * time.Nanosecond
	offset := simDur - elapsedWall

	const maxLagSlices = 10
	maxLag := time.Duration(maxLagSlices) * time.Duration(SliceNS) * time.Nanosecond

	switch {
	case offset > 0:
		time.Sleep(offset / 2)
	case -offset > maxLag:
		s.wallRef = now.Add(-simDur)
	}

	if s.ui != nil {
		speed := s.speedRatio(now)
		s.ui.SetSimSeconds(float64(s.simNS)/1e9, speed)
	}
}

func (s *System) speedRatio(now time.Time) float64 {
	n := s.speedHistN
	if n > speedHistoryLen {
		n = speedHistoryLen
	}
	if n < 2 {
		return 1.0
	}
	oldest := s.speedHist[(s.speedHistN-n)%speedHistoryLen]
	wall := now.Sub(oldest).Seconds()
	if wall <= 0 {
		return 1.0
	}
	simWindow := float64(n) * float64(SliceNS) / 1e9
	return simWindow / wall
}
