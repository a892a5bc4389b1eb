// Command wangsim is a headless driver for the Wang 2200 emulation core: it
// builds a System from a configuration, wires up the mandatory keyboard and
// CRT cards, and runs the number of time slices given by --slices, stopping
// early if the CPU halts or a slice returns an error.
// GUI rendering, disk image handling, and printer output are all external
// collaborators per spec.md §1; this binary only exercises the core.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/urfave/cli"

	"github.com/wangemu/wang2200core/card"
	"github.com/wangemu/wang2200core/config"
	"github.com/wangemu/wang2200core/cpuvp"
	"github.com/wangemu/wang2200core/iobus"
	"github.com/wangemu/wang2200core/memory"
	"github.com/wangemu/wang2200core/scheduler"
	"github.com/wangemu/wang2200core/system"
	"github.com/wangemu/wang2200core/terminal"
)

// logUI is a minimal UI implementation that logs everything through the
// standard logger; a real host replaces this with a GUI-backed
// implementation (out of scope per spec.md §1).
type logUI struct{}

func (logUI) Warn(msg string)                          { log.Printf("WARN: %s", msg) }
func (logUI) Error(msg string)                          { log.Printf("ERROR: %s", msg) }
func (logUI) SetSimSeconds(sec float64, speed float64)  { log.Printf("sim=%.2fs speed=%.2fx", sec, speed) }
func (logUI) DisplayChar(ch uint8)                      {}
func (logUI) DisplayDing()                              {}

type nullPrinter struct{}

func (nullPrinter) PrintByte(b uint8) {}
func (nullPrinter) FormFeed()         {}

func main() {
	app := cli.NewApp()
	app.Name = "wangsim"
	app.Usage = "run the Wang 2200 emulation core headlessly"
	app.Flags = []cli.Flag{
		cli.IntFlag{Name: "ram", Value: 64, Usage: "RAM size in KiB"},
		cli.IntFlag{Name: "slices", Value: 10, Usage: "number of 30ms time slices to run"},
		cli.BoolFlag{Name: "no-regulate", Usage: "disable realtime pacing"},
	}
	app.Action = run

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func run(c *cli.Context) error {
	cfg := config.Default()
	cfg.RAMKB = c.Int("ram")
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	sched := scheduler.New()
	ui := logUI{}

	term := terminal.New(sched, nullPrinter{}, func(uint8) {})

	slots := card.NewSlots()
	bus := iobus.New(slots, system.Logger{UI: ui})

	ram := memory.NewVPRAM(cfg.RAMKB * 1024)
	vp := cpuvp.New(sched, bus, ram, 16*1024)

	kb := card.NewKeyboard(sched, vp, 0x01)
	if err := slots.Insert(0, kb); err != nil {
		return err
	}
	crt := card.NewCRTDisplay(sched, term, vp, 0x05)
	if err := slots.Insert(1, crt); err != nil {
		return err
	}

	bus.Reset(true)
	vp.Reset(true)

	sys := system.New(sched, ui, !c.Bool("no-regulate"))
	sys.AddDevice(stepFunc(func() (uint32, error) {
		ticks, err := vp.ExecOneOp()
		return uint32(ticks) * 100, err
	}))

	for i := 0; i < c.Int("slices"); i++ {
		if sys.Halted() {
			break
		}
		if err := sys.RunSlice(); err != nil {
			log.Printf("slice %d: %v", i, err)
			break
		}
	}
	return nil
}

// stepFunc adapts a plain function to system.ClockedDevice.
type stepFunc func() (uint32, error)

func (f stepFunc) Step() (uint32, error) { return f() }
