package cmd

import (
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/chipvm/chipvm/internal/audio"
	"github.com/chipvm/chipvm/internal/chip8"
	"github.com/chipvm/chipvm/internal/pixel"
	"github.com/spf13/cobra"
	"github.com/sqweek/dialog"
)

const timerRate = 60

var (
	cpuHz      int
	strictMode bool
	shiftVY    bool
	incI       bool
	vfReset    bool
	clipDraw   bool
	jumpVX     bool
)

// runCmd runs the chipvm virtual machine until the window closes or the VM faults
var runCmd = &cobra.Command{
	Use:   "run [path/to/rom]",
	Short: "run the chipvm emulator",
	Long:  "Run a CHIP-8 ROM. With no argument a file picker opens.",
	Args:  cobra.MaximumNArgs(1),
	Run:   runChipvm,
}

func init() {
	runCmd.Flags().IntVar(&cpuHz, "hz", 600, "CPU steps per second")
	runCmd.Flags().BoolVar(&strictMode, "strict", false, "halt on unknown opcodes and trap out-of-range memory access")
	runCmd.Flags().BoolVar(&shiftVY, "shift-vy", false, "8XY6/8XYE shift VY into VX (COSMAC VIP behavior)")
	runCmd.Flags().BoolVar(&incI, "inc-i", false, "FX55/FX65 leave I incremented by X+1 (COSMAC VIP behavior)")
	runCmd.Flags().BoolVar(&vfReset, "vf-reset", false, "8XY1/8XY2/8XY3 clear VF (COSMAC VIP behavior)")
	runCmd.Flags().BoolVar(&clipDraw, "clip", false, "clip sprites at the screen edge instead of wrapping")
	runCmd.Flags().BoolVar(&jumpVX, "jump-vx", false, "BNNN jumps to NNN+VX (CHIP-48 behavior)")
}

func runChipvm(cmd *cobra.Command, args []string) {
	pathToROM, err := romPath(args)
	if err != nil {
		log.Printf("no ROM selected: %v", err)
		os.Exit(1)
	}

	rom, err := os.ReadFile(pathToROM)
	if err != nil {
		log.Printf("error reading ROM file: %v", err)
		os.Exit(1)
	}

	quirks := chip8.Quirks{
		VFResetOnLogic:       vfReset,
		ShiftUsesVY:          shiftVY,
		LoadStoreIncrementsI: incI,
		DrawWraps:            !clipDraw,
		JumpWithVX:           jumpVX,
		Strict:               strictMode,
	}
	vm, err := chip8.NewVM(rom, quirks)
	if err != nil {
		log.Printf("error creating a new chip-8 VM: %v", err)
		os.Exit(1)
	}

	win, err := pixel.NewWindow("chipvm: " + filepath.Base(pathToROM))
	if err != nil {
		log.Printf("%v", err)
		os.Exit(1)
	}

	beeper, err := audio.NewBeeper()
	if err != nil {
		log.Printf("audio unavailable, running silent: %v", err)
	} else {
		defer beeper.Close()
	}

	runLoop(vm, win, beeper)
}

// romPath resolves the ROM location from the argument list, falling back to a
// native file picker when no argument was given.
func romPath(args []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	return dialog.File().Title("Open CHIP-8 ROM").Load()
}

// runLoop sequences the two clock domains: every 60 Hz frame it drains input
// into the keypad, executes a batch of CPU steps, ticks the timers once, and
// presents the framebuffer if anything drew.
func runLoop(vm *chip8.VM, win *pixel.Window, beeper *audio.Beeper) {
	stepsPerFrame := cpuHz / timerRate
	if stepsPerFrame < 1 {
		stepsPerFrame = 1
	}

	ticker := time.NewTicker(time.Second / timerRate)
	defer ticker.Stop()

	for range ticker.C {
		if win.Closed() {
			log.Println("exit signal detected, gracefully shutting down...")
			return
		}

		keys := win.KeyState()
		for i, pressed := range keys {
			vm.SetKey(byte(i), pressed)
		}

		for i := 0; i < stepsPerFrame; i++ {
			ev := vm.Step()
			switch ev.Kind {
			case chip8.EventUnknownOpcode:
				log.Printf("unknown opcode: %#04x", ev.Opcode)
			case chip8.EventStackFault, chip8.EventMemoryFault:
				log.Printf("vm fault: %s\n%s", ev.Kind, vm.DebugState())
			}
			if vm.Halted() {
				return
			}
			if ev.Kind == chip8.EventAwaitingKey {
				// no key can arrive until the next frame's input drain
				break
			}
		}

		vm.TickTimers()

		if vm.ConsumeDrawFlag() {
			win.DrawGraphics(vm.Framebuffer())
		} else {
			win.UpdateInput()
		}

		if beeper != nil {
			beeper.SetActive(vm.BeepActive())
		}
	}
}
