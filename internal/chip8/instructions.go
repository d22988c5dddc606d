package chip8

// execute decodes and runs a single opcode. Every handler is responsible for
// the pc: advance by 2, skip by 4, jump, or leave it alone (FX0A while no key
// is down, and any handler reporting a stack or memory fault).
func (vm *VM) execute(opcode uint16) StepEvent {
	x := byte((opcode >> 8) & 0xF) // Vx register identifier
	y := byte((opcode >> 4) & 0xF) // Vy register identifier
	n := byte(opcode & 0xF)        // low nibble
	nn := byte(opcode & 0xFF)      // low 8 bits
	nnn := opcode & 0xFFF          // low 12 bits

	switch opcode & 0xF000 {
	case 0x0000:
		switch opcode & 0x00FF {
		case 0x00E0: // 00E0 -> Clear the screen
			return vm.op00E0()
		case 0x00EE: // 00EE -> Return from a subroutine
			return vm.op00EE()
		default:
			// 0NNN ran native RCA 1802 code on the original hardware;
			// modern interpreters have nothing to execute there.
			return vm.unknownOp(opcode)
		}
	case 0x1000: // 1NNN -> Jump to address NNN
		return vm.op1NNN(nnn)
	case 0x2000: // 2NNN -> Execute subroutine starting at address NNN
		return vm.op2NNN(nnn)
	case 0x3000: // 3XNN -> Skip the following instruction if VX == NN
		return vm.op3XNN(x, nn)
	case 0x4000: // 4XNN -> Skip the following instruction if VX != NN
		return vm.op4XNN(x, nn)
	case 0x5000: // 5XY0 -> Skip the following instruction if VX == VY
		if n != 0 {
			return vm.unknownOp(opcode)
		}
		return vm.op5XY0(x, y)
	case 0x6000: // 6XNN -> Store number NN in register VX
		return vm.op6XNN(x, nn)
	case 0x7000: // 7XNN -> Add the value NN to register VX, no carry flag
		return vm.op7XNN(x, nn)
	case 0x8000:
		switch opcode & 0x000F {
		case 0x0000: // 8XY0 -> Store the value of register VY in register VX
			return vm.op8XY0(x, y)
		case 0x0001: // 8XY1 -> Set VX to VX OR VY
			return vm.op8XY1(x, y)
		case 0x0002: // 8XY2 -> Set VX to VX AND VY
			return vm.op8XY2(x, y)
		case 0x0003: // 8XY3 -> Set VX to VX XOR VY
			return vm.op8XY3(x, y)
		case 0x0004: // 8XY4 -> Add VY to VX with carry in VF
			return vm.op8XY4(x, y)
		case 0x0005: // 8XY5 -> Subtract VY from VX, VF = no borrow
			return vm.op8XY5(x, y)
		case 0x0006: // 8XY6 -> Shift right one bit, VF = shifted-out bit
			return vm.op8XY6(x, y)
		case 0x0007: // 8XY7 -> Set VX to VY minus VX, VF = no borrow
			return vm.op8XY7(x, y)
		case 0x000E: // 8XYE -> Shift left one bit, VF = shifted-out bit
			return vm.op8XYE(x, y)
		default:
			return vm.unknownOp(opcode)
		}
	case 0x9000: // 9XY0 -> Skip the following instruction if VX != VY
		if n != 0 {
			return vm.unknownOp(opcode)
		}
		return vm.op9XY0(x, y)
	case 0xA000: // ANNN -> Store memory address NNN in index register
		return vm.opANNN(nnn)
	case 0xB000: // BNNN -> Jump to address NNN + V0
		return vm.opBNNN(nnn, x)
	case 0xC000: // CXNN -> Set VX to a random byte masked with NN
		return vm.opCXNN(x, nn)
	case 0xD000: // DXYN -> Draw an 8xN sprite from I at (VX, VY)
		return vm.opDXYN(x, y, n)
	case 0xE000:
		switch opcode & 0x00FF {
		case 0x009E: // EX9E -> Skip the following instruction if key VX is pressed
			return vm.opEX9E(x)
		case 0x00A1: // EXA1 -> Skip the following instruction if key VX is not pressed
			return vm.opEXA1(x)
		default:
			return vm.unknownOp(opcode)
		}
	case 0xF000:
		switch opcode & 0x00FF {
		case 0x0007: // FX07 -> Store the current delay timer value in VX
			return vm.opFX07(x)
		case 0x000A: // FX0A -> Wait for a keypress and store it in VX
			return vm.opFX0A(x)
		case 0x0015: // FX15 -> Set the delay timer to VX
			return vm.opFX15(x)
		case 0x0018: // FX18 -> Set the sound timer to VX
			return vm.opFX18(x)
		case 0x001E: // FX1E -> Add VX to the index register
			return vm.opFX1E(x)
		case 0x0029: // FX29 -> Point I at the font glyph for the digit in VX
			return vm.opFX29(x)
		case 0x0033: // FX33 -> Store the BCD of VX at I, I+1, I+2
			return vm.opFX33(x)
		case 0x0055: // FX55 -> Store registers V0 to VX in memory starting at I
			return vm.opFX55(x)
		case 0x0065: // FX65 -> Fill registers V0 to VX from memory starting at I
			return vm.opFX65(x)
		default:
			return vm.unknownOp(opcode)
		}
	default:
		return vm.unknownOp(opcode)
	}
}

// unknownOp reports an unrecognized opcode and advances past it so a stray
// word in a ROM can't live-lock the loop. Strict mode turns the report into a
// halt (handled in Step).
func (vm *VM) unknownOp(opcode uint16) StepEvent {
	vm.pc += 2
	return StepEvent{Kind: EventUnknownOpcode, Opcode: opcode}
}

func (vm *VM) skipIf(cond bool) StepEvent {
	if cond {
		vm.pc += 4
	} else {
		vm.pc += 2
	}
	return StepEvent{}
}

func (vm *VM) op00E0() StepEvent {
	vm.gfx = [ScreenSize]byte{}
	vm.drawFlag = true
	vm.pc += 2
	return StepEvent{}
}

func (vm *VM) op00EE() StepEvent {
	if vm.sp == 0 {
		return StepEvent{Kind: EventStackFault}
	}
	vm.sp--
	vm.pc = vm.stack[vm.sp] + 2
	return StepEvent{}
}

func (vm *VM) op1NNN(nnn uint16) StepEvent {
	vm.pc = nnn
	return StepEvent{}
}

// op2NNN pushes the address of the call instruction itself; op00EE adds 2
// after popping so execution resumes at the instruction after the call.
func (vm *VM) op2NNN(nnn uint16) StepEvent {
	if vm.sp == stackDepth {
		return StepEvent{Kind: EventStackFault}
	}
	vm.stack[vm.sp] = vm.pc
	vm.sp++
	vm.pc = nnn
	return StepEvent{}
}

func (vm *VM) op3XNN(x, nn byte) StepEvent {
	return vm.skipIf(vm.v[x] == nn)
}

func (vm *VM) op4XNN(x, nn byte) StepEvent {
	return vm.skipIf(vm.v[x] != nn)
}

func (vm *VM) op5XY0(x, y byte) StepEvent {
	return vm.skipIf(vm.v[x] == vm.v[y])
}

func (vm *VM) op6XNN(x, nn byte) StepEvent {
	vm.v[x] = nn
	vm.pc += 2
	return StepEvent{}
}

func (vm *VM) op7XNN(x, nn byte) StepEvent {
	vm.v[x] += nn
	vm.pc += 2
	return StepEvent{}
}

func (vm *VM) op8XY0(x, y byte) StepEvent {
	vm.v[x] = vm.v[y]
	vm.pc += 2
	return StepEvent{}
}

func (vm *VM) op8XY1(x, y byte) StepEvent {
	vm.v[x] |= vm.v[y]
	if vm.quirks.VFResetOnLogic {
		vm.v[0xF] = 0
	}
	vm.pc += 2
	return StepEvent{}
}

func (vm *VM) op8XY2(x, y byte) StepEvent {
	vm.v[x] &= vm.v[y]
	if vm.quirks.VFResetOnLogic {
		vm.v[0xF] = 0
	}
	vm.pc += 2
	return StepEvent{}
}

func (vm *VM) op8XY3(x, y byte) StepEvent {
	vm.v[x] ^= vm.v[y]
	if vm.quirks.VFResetOnLogic {
		vm.v[0xF] = 0
	}
	vm.pc += 2
	return StepEvent{}
}

// VF is always written after the primary result in the 8XYN group, so an
// instruction targeting VF itself keeps the flag, not the computed value.
func (vm *VM) op8XY4(x, y byte) StepEvent {
	sum := uint16(vm.v[x]) + uint16(vm.v[y])
	vm.v[x] = byte(sum)
	if sum > 0xFF {
		vm.v[0xF] = 1
	} else {
		vm.v[0xF] = 0
	}
	vm.pc += 2
	return StepEvent{}
}

func (vm *VM) op8XY5(x, y byte) StepEvent {
	noBorrow := vm.v[x] >= vm.v[y]
	vm.v[x] -= vm.v[y]
	if noBorrow {
		vm.v[0xF] = 1
	} else {
		vm.v[0xF] = 0
	}
	vm.pc += 2
	return StepEvent{}
}

func (vm *VM) op8XY6(x, y byte) StepEvent {
	src := vm.v[x]
	if vm.quirks.ShiftUsesVY {
		src = vm.v[y]
	}
	vm.v[x] = src >> 1
	vm.v[0xF] = src & 0x01
	vm.pc += 2
	return StepEvent{}
}

func (vm *VM) op8XY7(x, y byte) StepEvent {
	noBorrow := vm.v[y] >= vm.v[x]
	vm.v[x] = vm.v[y] - vm.v[x]
	if noBorrow {
		vm.v[0xF] = 1
	} else {
		vm.v[0xF] = 0
	}
	vm.pc += 2
	return StepEvent{}
}

func (vm *VM) op8XYE(x, y byte) StepEvent {
	src := vm.v[x]
	if vm.quirks.ShiftUsesVY {
		src = vm.v[y]
	}
	vm.v[x] = src << 1
	vm.v[0xF] = (src >> 7) & 0x01
	vm.pc += 2
	return StepEvent{}
}

func (vm *VM) op9XY0(x, y byte) StepEvent {
	return vm.skipIf(vm.v[x] != vm.v[y])
}

func (vm *VM) opANNN(nnn uint16) StepEvent {
	vm.i = nnn
	vm.pc += 2
	return StepEvent{}
}

func (vm *VM) opBNNN(nnn uint16, x byte) StepEvent {
	reg := byte(0)
	if vm.quirks.JumpWithVX {
		reg = x
	}
	vm.pc = nnn + uint16(vm.v[reg])
	return StepEvent{}
}

func (vm *VM) opCXNN(x, nn byte) StepEvent {
	vm.v[x] = byte(vm.rng.Intn(0x100)) & nn
	vm.pc += 2
	return StepEvent{}
}

// opDXYN XORs an 8xN sprite read from I onto the framebuffer at (VX, VY),
// setting VF when any lit pixel is toggled off. The start position wraps;
// per-pixel overflow wraps or clips depending on the DrawWraps quirk.
func (vm *VM) opDXYN(x, y, height byte) StepEvent {
	if vm.quirks.Strict && int(vm.i)+int(height)-1 > addrMask {
		return StepEvent{Kind: EventMemoryFault}
	}

	sx := int(vm.v[x]) % ScreenWidth
	sy := int(vm.v[y]) % ScreenHeight
	vm.v[0xF] = 0

	for row := 0; row < int(height); row++ {
		sprite := vm.memory[(vm.i+uint16(row))&addrMask]
		py := sy + row
		if py >= ScreenHeight {
			if !vm.quirks.DrawWraps {
				break
			}
			py %= ScreenHeight
		}

		for col := 0; col < 8; col++ {
			if sprite&(0x80>>col) == 0 {
				continue
			}
			px := sx + col
			if px >= ScreenWidth {
				if !vm.quirks.DrawWraps {
					continue
				}
				px %= ScreenWidth
			}

			ind := px + py*ScreenWidth
			if vm.gfx[ind] == 1 {
				vm.v[0xF] = 1
			}
			vm.gfx[ind] ^= 1
		}
	}

	vm.drawFlag = true
	vm.pc += 2
	return StepEvent{}
}

func (vm *VM) opEX9E(x byte) StepEvent {
	return vm.skipIf(vm.keypad[vm.v[x]&0xF] != 0)
}

func (vm *VM) opEXA1(x byte) StepEvent {
	return vm.skipIf(vm.keypad[vm.v[x]&0xF] == 0)
}

func (vm *VM) opFX07(x byte) StepEvent {
	vm.v[x] = vm.delayTimer
	vm.pc += 2
	return StepEvent{}
}

// opFX0A accepts any currently-held key. While nothing is down the pc stays
// put, so the instruction re-executes until the host delivers a key.
func (vm *VM) opFX0A(x byte) StepEvent {
	for i, k := range vm.keypad {
		if k != 0 {
			vm.v[x] = byte(i)
			vm.pc += 2
			return StepEvent{}
		}
	}
	return StepEvent{Kind: EventAwaitingKey}
}

func (vm *VM) opFX15(x byte) StepEvent {
	vm.delayTimer = vm.v[x]
	vm.pc += 2
	return StepEvent{}
}

func (vm *VM) opFX18(x byte) StepEvent {
	vm.soundTimer = vm.v[x]
	vm.pc += 2
	return StepEvent{}
}

func (vm *VM) opFX1E(x byte) StepEvent {
	if vm.quirks.Strict && int(vm.i)+int(vm.v[x]) > addrMask {
		return StepEvent{Kind: EventMemoryFault}
	}
	vm.i += uint16(vm.v[x])
	vm.pc += 2
	return StepEvent{}
}

func (vm *VM) opFX29(x byte) StepEvent {
	vm.i = uint16(vm.v[x]&0xF) * glyphBytes
	vm.pc += 2
	return StepEvent{}
}

func (vm *VM) opFX33(x byte) StepEvent {
	if vm.quirks.Strict && int(vm.i)+2 > addrMask {
		return StepEvent{Kind: EventMemoryFault}
	}
	vm.memory[vm.i&addrMask] = vm.v[x] / 100
	vm.memory[(vm.i+1)&addrMask] = (vm.v[x] / 10) % 10
	vm.memory[(vm.i+2)&addrMask] = vm.v[x] % 10
	vm.pc += 2
	return StepEvent{}
}

func (vm *VM) opFX55(x byte) StepEvent {
	if vm.quirks.Strict && int(vm.i)+int(x) > addrMask {
		return StepEvent{Kind: EventMemoryFault}
	}
	for ind := uint16(0); ind <= uint16(x); ind++ {
		vm.memory[(vm.i+ind)&addrMask] = vm.v[ind]
	}
	if vm.quirks.LoadStoreIncrementsI {
		vm.i += uint16(x) + 1
	}
	vm.pc += 2
	return StepEvent{}
}

func (vm *VM) opFX65(x byte) StepEvent {
	if vm.quirks.Strict && int(vm.i)+int(x) > addrMask {
		return StepEvent{Kind: EventMemoryFault}
	}
	for ind := uint16(0); ind <= uint16(x); ind++ {
		vm.v[ind] = vm.memory[(vm.i+ind)&addrMask]
	}
	if vm.quirks.LoadStoreIncrementsI {
		vm.i += uint16(x) + 1
	}
	vm.pc += 2
	return StepEvent{}
}
