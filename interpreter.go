// interpreter.go - Fetch/decode/execute loop for the 8086 core

/*
interpreter.go is the Go counterpart of the Rust reference's
Emulator::step/run: it fetches one opcode byte at CS:IP, dispatches it
to a handler, and repeats until a handler returns an ExitSignal or a
real error. The reference keeps its CPU state, code slice, and memory
bundled in one struct and mutates them directly; Interpreter follows
the same shape but speaks through Registers/Memory/ModRM rather than
reaching into fields by hand, matching IntuitionEngine's CPU_X86 style
of small single-purpose op* methods (cpu_x86_ops.go), here called from
one opcode switch in Step, generalized from CPU_X86's 386 operand sizes down to
the 16-bit-only operand set a Win16 NE program actually needs.

The opcode set implemented here is deliberately narrow: MOV (register,
immediate, and memory forms used by a typical small 16-bit Windows
program's prologue), OR/XOR/SUB register-to-register, the group-1
0x83 add/sub/cmp-with-sign-extended-immediate-8 opcodes, the 0xF6/0xF7
TEST opcodes, 0xFF's PUSH r/m, PUSH/POP of AX/DX/BP and DS, short JZ
and JMP, near CALL/RET, and INT — the same subset the reference
implements (full 80286+ coverage is an explicit Non-goal). Unlike the
reference, arithmetic opcodes here compute CF/OF/AF correctly (see
registers.go); the reference's equivalents never do.
*/

package main

import "fmt"

// Bank is a syscall target an INT vector dispatches into: KERNEL,
// USER, GDI, or KEYBOARD.
type Bank interface {
	Name() string
	Call(ordinal uint16, acc *Accessor) error

	// ArgumentBytes reports the Pascal-convention argument size module.go
	// must encode into a stub's trailing RETF, for each ordinal this
	// bank actually implements.
	ArgumentBytes(ordinal uint16) (uint16, bool)
}

// Interpreter owns one guest task's CPU state and executes it against
// shared memory, dispatching INT 0xFC-0xFF to the syscall banks.
type Interpreter struct {
	Regs    *Registers
	Memory  *Memory
	Banks   map[byte]Bank // interrupt vector -> bank
	Trace   bool
	initTask func(*Interpreter) error
}

// NewInterpreter builds an interpreter with CS:IP at the module's
// entry point.
func NewInterpreter(mem *Memory, cs, ip uint16) *Interpreter {
	return &Interpreter{
		Regs:   NewRegisters(cs, ip),
		Memory: mem,
		Banks:  make(map[byte]Bank),
	}
}

// RegisterBank wires a syscall bank to the INT vector guest stubs call
// it through (module.go writes that vector into each stub it generates).
func (in *Interpreter) RegisterBank(vector byte, bank Bank) {
	in.Banks[vector] = bank
}

// SetInitTaskHook installs the CALL FAR 0x9A handler; main.go supplies
// one that seeds the bootstrap register values InitTask expects.
func (in *Interpreter) SetInitTaskHook(fn func(*Interpreter) error) {
	in.initTask = fn
}

func (in *Interpreter) flatIP() uint32 { return in.Regs.FlatIP() }

func (in *Interpreter) readIPu8() (byte, error) {
	b, err := in.Memory.Read8(in.flatIP())
	if err != nil {
		return 0, err
	}
	in.Regs.IP++
	return b, nil
}

func (in *Interpreter) readIPi8() (int8, error) {
	b, err := in.readIPu8()
	return int8(b), err
}

func (in *Interpreter) readIPu16() (uint16, error) {
	w, err := in.Memory.Read16(in.flatIP())
	if err != nil {
		return 0, err
	}
	in.Regs.IP += 2
	return w, nil
}

func (in *Interpreter) readIPModRM() (ModRM, error) {
	m, consumed, err := decodeModRM(in.Memory, in.flatIP(), in.Regs, -1)
	if err != nil {
		return ModRM{}, err
	}
	in.Regs.IP += uint16(consumed)
	return m, nil
}

func (in *Interpreter) pushValue16(data uint16) error {
	in.Regs.DecSP(2)
	return in.Memory.Write16(in.Regs.FlatSP(), data)
}

func (in *Interpreter) popValue16() (uint16, error) {
	data, err := in.Memory.Read16(in.Regs.FlatSP())
	if err != nil {
		return 0, err
	}
	in.Regs.IncSP(2)
	return data, nil
}

// readRM16 reads a ModR/M operand as a 16-bit value, whether it names
// a register or a memory location.
func (in *Interpreter) readRM16(m ModRM) (uint16, error) {
	if !m.IsMemory {
		return in.Regs.GPR16(byte(m.Computed)), nil
	}
	return in.Memory.Read16(m.Computed)
}

func (in *Interpreter) readRM8(m ModRM) (byte, error) {
	if !m.IsMemory {
		return in.Regs.GPR8(byte(m.Computed)), nil
	}
	return in.Memory.Read8(m.Computed)
}

func (in *Interpreter) writeRM16(m ModRM, data uint16) error {
	if !m.IsMemory {
		in.Regs.SetGPR16(byte(m.Computed), data)
		return nil
	}
	return in.Memory.Write16(m.Computed, data)
}

// Step executes a single instruction. It returns *ExitSignal (via the
// error return) when the guest program terminates cleanly.
func (in *Interpreter) Step() error {
	if in.Trace {
		fmt.Printf("ip=%04X:%04X ax=%04X bx=%04X cx=%04X dx=%04X sp=%04X bp=%04X flags=%04X\n",
			in.Regs.Segment(SegCS), in.Regs.IP,
			in.Regs.GPR16(RegAX), in.Regs.GPR16(RegBX), in.Regs.GPR16(RegCX), in.Regs.GPR16(RegDX),
			in.Regs.GPR16(RegSP), in.Regs.GPR16(RegBP), in.Regs.Flags)
	}

	opcode, err := in.readIPu8()
	if err != nil {
		return err
	}

	switch opcode {
	case 0x0B:
		return in.opOrR16Rm16()
	case 0x1E:
		return in.pushValue16(in.Regs.Segment(SegDS))
	case 0x1F:
		v, err := in.popValue16()
		if err != nil {
			return err
		}
		in.Regs.SetSegment(SegDS, v)
		return nil
	case 0x2A:
		return in.opSubR8Rm8()
	case 0x2B:
		return in.opSubR16Rm16()
	case 0x33:
		return in.opXorR16Rm16()
	case 0x50:
		return in.pushValue16(in.Regs.GPR16(RegAX))
	case 0x52:
		return in.pushValue16(in.Regs.GPR16(RegDX))
	case 0x55:
		return in.pushValue16(in.Regs.GPR16(RegBP))
	case 0x58:
		v, err := in.popValue16()
		if err != nil {
			return err
		}
		in.Regs.SetGPR16(RegAX, v)
		return nil
	case 0x5A:
		v, err := in.popValue16()
		if err != nil {
			return err
		}
		in.Regs.SetGPR16(RegDX, v)
		return nil
	case 0x5D:
		v, err := in.popValue16()
		if err != nil {
			return err
		}
		in.Regs.SetGPR16(RegBP, v)
		return nil
	case 0x74:
		return in.opJZ()
	case 0x83:
		return in.opGrp1_Ev_Ib()
	case 0x89:
		return in.opMovRm16R16()
	case 0x8A:
		return in.opMovR8Rm8()
	case 0x8B:
		return in.opMovR16Rm16()
	case 0x8C:
		return in.opMovSegment()
	case 0x90:
		return nil
	case 0x9A:
		return in.opCallFar()
	case 0xB0:
		d, err := in.readIPu8()
		if err != nil {
			return err
		}
		in.Regs.SetGPR8(RegAL, d)
		return nil
	case 0xB4:
		d, err := in.readIPu8()
		if err != nil {
			return err
		}
		in.Regs.SetGPR8(RegAH, d)
		return nil
	case 0xB8:
		d, err := in.readIPu16()
		if err != nil {
			return err
		}
		in.Regs.SetGPR16(RegAX, d)
		return nil
	case 0xBA:
		d, err := in.readIPu16()
		if err != nil {
			return err
		}
		in.Regs.SetGPR16(RegDX, d)
		return nil
	case 0xC2:
		amount, err := in.readIPu16()
		if err != nil {
			return err
		}
		ip, err := in.popValue16()
		if err != nil {
			return err
		}
		in.Regs.IP = ip
		in.Regs.IncSP(amount)
		return nil
	case 0xC3:
		ip, err := in.popValue16()
		if err != nil {
			return err
		}
		in.Regs.IP = ip
		return nil
	case 0xC7:
		return in.opMovRm16Imm16()
	case 0xCA:
		return in.opRetFarImm16()
	case 0xCD:
		return in.opInt()
	case 0xE8:
		return in.opCallRel16()
	case 0xEB:
		return in.opJmpShort()
	case 0xF6:
		return in.opGrp3_Eb()
	case 0xF7:
		return in.opGrp3_Ev()
	case 0xFF:
		return in.opGrp5_Ev()
	default:
		return &InvalidOpcodeError{Opcode: opcode, CS: in.Regs.Segment(SegCS), IP: in.Regs.IP}
	}
}

// Run steps the interpreter until it returns a non-nil error; callers
// use errors.As to tell a clean ExitSignal from a real failure.
func (in *Interpreter) Run() error {
	for {
		if err := in.Step(); err != nil {
			return err
		}
	}
}
