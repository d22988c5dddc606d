// Package chip8 implements the CHIP-8 virtual machine core. Chip-8 used to be
// implemented on 4k systems like the Telmac 1800 and Cosmac VIP where the chip-8
// interpreter itself occupied the first 512 bytes of memory (up to 0x200). In modern
// CHIP-8 implementations (like ours here), where the interpreter is running natively
// outside the 4K memory space, there is no need to avoid the lower 512 bytes of
// memory (0x000-0x1FF), and it is common to store font data there.
//
// The core owns no thread and performs no I/O: the host drives it by calling
// Step at the CPU rate and TickTimers at 60 Hz, pushes key state in through
// SetKey, and reads the framebuffer and beep flag back out.
package chip8

import (
	"errors"
	"fmt"
	"math/rand"
	"time"
)

//		System memory map
// 		+---------------+= 0xFFF (4095) End Chip-8 RAM
// 		|               |
// 		| 0x200 to 0xFFF|
// 		|     Chip-8    |
// 		| Program / Data|
// 		|     Space     |
// 		|               |
// 		+---------------+= 0x200 (512) Start of most Chip-8 programs
// 		| 0x000 to 0x1FF|
// 		| Reserved for  |
// 		|  interpreter  |
// 		+---------------+= 0x000 (0) Begin Chip-8 RAM. We store font data here instead of the interpreter because we don't have that restriction.

const (
	memorySize = 4096
	entryPoint = 0x200
	addrMask   = 0xFFF

	// MaxROMSize is the largest ROM image that fits in program space.
	MaxROMSize = memorySize - entryPoint

	// ScreenWidth and ScreenHeight are the dimensions of the monochrome display.
	ScreenWidth  = 64
	ScreenHeight = 32
	ScreenSize   = ScreenWidth * ScreenHeight

	numRegisters = 16
	stackDepth   = 16
	numKeys      = 16

	glyphBytes = 5
)

// ErrROMTooLarge is returned by NewVM when the ROM image exceeds program space.
var ErrROMTooLarge = errors.New("rom too large")

// VM represents the chip-8 virtual machine
type VM struct {
	// Chip-8 system memory, see memory map above
	memory [memorySize]byte

	// 8-bit general purpose registers (V0 - VF). VF doubles as the
	// carry/borrow/collision flag.
	v [numRegisters]byte

	// Index register. Held in 16 bits (FX1E can carry it past 0xFFF when
	// strict mode is off); only the low 12 bits address memory.
	i uint16

	// Program counter (0x000 to 0xFFF)
	pc uint16

	// Internal stack to store return addresses when calling procedures
	stack [stackDepth]uint16

	// Count of valid stack entries; stack[sp] is the next push site
	sp byte

	// 8-bit delay timer which counts down at 60 hertz, until it reaches 0
	delayTimer byte

	// 8-bit sound timer which counts down at 60 hertz, until it reaches 0
	soundTimer byte

	// Represents window pixels. Bytes get flipped on and off inside to guide drawing
	gfx [ScreenSize]byte

	// Keypad is HEX based: 0x0-0xF
	//  1  2  3  C
	//  4  5  6  D
	//  7  8  9  E
	//  A  0  B  F
	keypad [numKeys]byte

	// We don't draw on every cycle, set draw flag when we need to update screen
	drawFlag bool

	// Set once a stack or memory fault is reported; the VM refuses to step further
	halted bool

	// Event kind re-reported on every Step while halted
	faultKind EventKind

	// Last beep state reported to the host, used for BeepChanged edges
	beeping bool

	quirks Quirks

	rng *rand.Rand

	// Pristine ROM image retained so Reset can reload it
	rom []byte

	// Trace, when non-nil, receives a register snapshot after every executed
	// instruction.
	Trace func(Frame)
}

// Frame is the per-instruction snapshot handed to the Trace hook. PC is the
// address the instruction was fetched from.
type Frame struct {
	PC     uint16
	Opcode uint16
	V      [numRegisters]byte
	I      uint16
	SP     byte
}

// NewVM initializes a VM with the given quirk configuration, loads the font
// set and the ROM image into memory, and returns a pointer to the VM or an error
func NewVM(rom []byte, quirks Quirks) (*VM, error) {
	if len(rom) > MaxROMSize {
		return nil, fmt.Errorf("%w: %d bytes, max %d", ErrROMTooLarge, len(rom), MaxROMSize)
	}
	vm := VM{
		quirks: quirks,
		rom:    append([]byte(nil), rom...),
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	vm.init()
	return &vm, nil
}

// init zeroes machine state and reinstalls the font and ROM image.
func (vm *VM) init() {
	vm.memory = [memorySize]byte{}
	vm.v = [numRegisters]byte{}
	vm.stack = [stackDepth]uint16{}
	vm.gfx = [ScreenSize]byte{}
	vm.keypad = [numKeys]byte{}
	vm.i = 0
	vm.pc = entryPoint
	vm.sp = 0
	vm.delayTimer = 0
	vm.soundTimer = 0
	vm.halted = false
	vm.beeping = false
	vm.drawFlag = true

	copy(vm.memory[:], fontSet[:])
	copy(vm.memory[entryPoint:], vm.rom)
}

// Reset reinitializes machine state and reloads the ROM the VM was created with.
func (vm *VM) Reset() {
	vm.init()
}

// SeedRNG reseeds the PRNG behind CXNN. Useful for reproducing runs.
func (vm *VM) SeedRNG(seed int64) {
	vm.rng = rand.New(rand.NewSource(seed))
}

// Step runs a full fetch, decode, and execute cycle.
// One opcode is 2 bytes long (ex. 0xA2F0) so we fetch two successive bytes
// (ex. 0xA2 and 0xF0) and merge them: shift the first left 8 then OR in the
// second, giving the combined 16 bit opcode.
//
// Step never blocks. FX0A waiting is represented by the pc not advancing, so
// the host loop naturally polls. Once a stack or memory fault has been
// reported the VM is halted and Step keeps returning that fault unchanged.
func (vm *VM) Step() StepEvent {
	if vm.halted {
		return StepEvent{Kind: vm.faultKind}
	}

	fetchPC := vm.pc & addrMask
	opcode := uint16(vm.memory[fetchPC])<<8 | uint16(vm.memory[(fetchPC+1)&addrMask])

	ev := vm.execute(opcode)
	vm.pc &= addrMask

	switch ev.Kind {
	case EventStackFault, EventMemoryFault:
		vm.halted = true
		vm.faultKind = ev.Kind
		return ev
	case EventUnknownOpcode:
		if vm.quirks.Strict {
			vm.halted = true
			vm.faultKind = EventUnknownOpcode
			return ev
		}
	}

	if vm.Trace != nil {
		vm.Trace(Frame{PC: fetchPC, Opcode: opcode, V: vm.v, I: vm.i, SP: vm.sp})
	}

	if beep := vm.soundTimer > 0; beep != vm.beeping {
		vm.beeping = beep
		if ev.Kind == EventOK {
			ev = StepEvent{Kind: EventBeepChanged}
		}
	}
	return ev
}

// TickTimers applies one 60 Hz decrement to both timers, saturating at zero.
// The host calls this at 60 Hz regardless of how fast it is calling Step;
// decrementing inside Step would tie game speed to the CPU rate.
func (vm *VM) TickTimers() {
	if vm.delayTimer > 0 {
		vm.delayTimer--
	}
	if vm.soundTimer > 0 {
		vm.soundTimer--
	}
	vm.beeping = vm.soundTimer > 0
}

// SetKey records the pressed state of a single keypad key (0x0-0xF).
func (vm *VM) SetKey(index byte, pressed bool) {
	if index >= numKeys {
		return
	}
	if pressed {
		vm.keypad[index] = 1
	} else {
		vm.keypad[index] = 0
	}
}

// Framebuffer returns a snapshot of the 64x32 pixel buffer, row-major.
func (vm *VM) Framebuffer() [ScreenSize]byte {
	return vm.gfx
}

// ConsumeDrawFlag reports whether the framebuffer changed since the last call
// and clears the flag.
func (vm *VM) ConsumeDrawFlag() bool {
	f := vm.drawFlag
	vm.drawFlag = false
	return f
}

// BeepActive reports whether the sound timer is running.
func (vm *VM) BeepActive() bool {
	return vm.soundTimer > 0
}

// Halted reports whether a fault has stopped the VM.
func (vm *VM) Halted() bool {
	return vm.halted
}

// DebugState renders the registers for logging.
func (vm *VM) DebugState() string {
	s := fmt.Sprintf("pc: %03x  i: %03x  sp: %d  dt: %02x  st: %02x\n", vm.pc, vm.i, vm.sp, vm.delayTimer, vm.soundTimer)
	for i, r := range vm.v {
		s += fmt.Sprintf("V%X: %02x  ", i, r)
		if i%8 == 7 {
			s += "\n"
		}
	}
	return s
}
