// interpreter_ops.go - Non-group opcode handlers

/*
interpreter_ops.go holds the opcode handlers that don't dispatch
through a ModR/M "reg" sub-opcode field, grounded on the reference's
Emulator::or_r16/xor_r16/mov_(variants)/jz/jmp/call_rel16/int/mov_segment —
generalized from IntuitionEngine's per-opcode-method dispatch style
(cpu_x86_ops.go) rather than one large switch body per opcode.
*/

package main

// opOrR16Rm16 implements OR r16, r/m16 (opcode 0x0B).
func (in *Interpreter) opOrR16Rm16() error {
	m, err := in.readIPModRM()
	if err != nil {
		return err
	}
	rm, err := in.readRM16(m)
	if err != nil {
		return err
	}
	dst := in.Regs.GPR16(m.Byte.Reg())
	result := dst | rm
	in.Regs.SetGPR16(m.Byte.Reg(), result)
	in.Regs.UpdateFlagsBitwise16(result)
	return nil
}

// opXorR16Rm16 implements XOR r16, r/m16 (opcode 0x33).
func (in *Interpreter) opXorR16Rm16() error {
	m, err := in.readIPModRM()
	if err != nil {
		return err
	}
	rm, err := in.readRM16(m)
	if err != nil {
		return err
	}
	dst := in.Regs.GPR16(m.Byte.Reg())
	result := dst ^ rm
	in.Regs.SetGPR16(m.Byte.Reg(), result)
	in.Regs.UpdateFlagsBitwise16(result)
	return nil
}

// opSubR8Rm8 implements SUB r8, r/m8 (opcode 0x2A).
func (in *Interpreter) opSubR8Rm8() error {
	m, err := in.readIPModRM()
	if err != nil {
		return err
	}
	rm, err := in.readRM8(m)
	if err != nil {
		return err
	}
	dst := in.Regs.GPR8(m.Byte.Reg())
	result := uint16(dst) - uint16(rm)
	in.Regs.SetGPR8(m.Byte.Reg(), byte(result))
	in.Regs.UpdateFlagsArith8(result, dst, rm, true)
	return nil
}

// opSubR16Rm16 implements SUB r16, r/m16 (opcode 0x2B).
func (in *Interpreter) opSubR16Rm16() error {
	m, err := in.readIPModRM()
	if err != nil {
		return err
	}
	rm, err := in.readRM16(m)
	if err != nil {
		return err
	}
	dst := in.Regs.GPR16(m.Byte.Reg())
	result := uint32(dst) - uint32(rm)
	in.Regs.SetGPR16(m.Byte.Reg(), uint16(result))
	in.Regs.UpdateFlagsArith16(result, dst, rm, true)
	return nil
}

// opMovR16Rm16 implements MOV r16, r/m16 (opcode 0x8B).
func (in *Interpreter) opMovR16Rm16() error {
	m, err := in.readIPModRM()
	if err != nil {
		return err
	}
	rm, err := in.readRM16(m)
	if err != nil {
		return err
	}
	in.Regs.SetGPR16(m.Byte.Reg(), rm)
	return nil
}

// opMovR8Rm8 implements MOV r8, r/m8 (opcode 0x8A).
func (in *Interpreter) opMovR8Rm8() error {
	m, err := in.readIPModRM()
	if err != nil {
		return err
	}
	rm, err := in.readRM8(m)
	if err != nil {
		return err
	}
	in.Regs.SetGPR8(m.Byte.Reg(), rm)
	return nil
}

// opMovRm16R16 implements MOV r/m16, r16 (opcode 0x89).
func (in *Interpreter) opMovRm16R16() error {
	m, err := in.readIPModRM()
	if err != nil {
		return err
	}
	return in.writeRM16(m, in.Regs.GPR16(m.Byte.Reg()))
}

// opMovRm16Imm16 implements MOV r/m16, imm16 (opcode 0xC7).
func (in *Interpreter) opMovRm16Imm16() error {
	m, err := in.readIPModRM()
	if err != nil {
		return err
	}
	data, err := in.readIPu16()
	if err != nil {
		return err
	}
	return in.writeRM16(m, data)
}

// opMovSegment implements MOV r/m16, Sreg (opcode 0x8C): the reg field
// names a segment register rather than a general-purpose one.
func (in *Interpreter) opMovSegment() error {
	m, err := in.readIPModRM()
	if err != nil {
		return err
	}
	return in.writeRM16(m, in.Regs.Segment(m.Byte.Reg()))
}

// opJZ implements the short conditional jump JZ rel8 (opcode 0x74).
func (in *Interpreter) opJZ() error {
	disp, err := in.readIPi8()
	if err != nil {
		return err
	}
	if in.Regs.ZF() {
		in.Regs.IP = uint16(int32(in.Regs.IP) + int32(disp))
	}
	return nil
}

// opJmpShort implements the unconditional short jump JMP rel8 (opcode 0xEB).
func (in *Interpreter) opJmpShort() error {
	disp, err := in.readIPi8()
	if err != nil {
		return err
	}
	in.Regs.IP = uint16(int32(in.Regs.IP) + int32(disp))
	return nil
}

// opCallRel16 implements the near relative CALL rel16 (opcode 0xE8).
func (in *Interpreter) opCallRel16() error {
	disp, err := in.readIPu16()
	if err != nil {
		return err
	}
	if err := in.pushValue16(in.Regs.IP); err != nil {
		return err
	}
	in.Regs.IP = uint16(int32(in.Regs.IP) + int32(int16(disp)))
	return nil
}

// opCallFar implements CALL far ptr16:16 (opcode 0x9A). In a real NE
// guest the only far call a freshly loaded task ever makes before its
// stack is set up is the compiler-emitted call into the runtime
// startup thunk; this emulator intercepts that one case via the
// init-task hook installed by main.go rather than actually performing
// a far call, mirroring the reference's call_with_32b_displacement.
func (in *Interpreter) opCallFar() error {
	if _, err := in.readIPu16(); err != nil {
		return err
	}
	if _, err := in.readIPu16(); err != nil {
		return err
	}
	if in.initTask != nil {
		return in.initTask(in)
	}
	return nil
}

// opInt implements software interrupts (opcode 0xCD): vectors 0xFC-0xFF
// dispatch to the registered syscall banks; INT 0x21 AH=4C is the
// legacy MS-DOS "terminate process" call this emulator also honors as
// a clean exit path, matching the reference.
func (in *Interpreter) opInt() error {
	vector, err := in.readIPu8()
	if err != nil {
		return err
	}

	if vector == 0x21 && in.Regs.GPR8(RegAH) == 0x4C {
		return &ExitSignal{Code: int(int8(in.Regs.GPR8(RegAL)))}
	}

	bank, ok := in.Banks[vector]
	if !ok {
		return &UnimplementedSyscallError{Bank: "unknown", Ordinal: uint16(in.Regs.GPR16(RegAX))}
	}
	acc := NewAccessor(in.Memory, in.Regs)
	ordinal := in.Regs.GPR16(RegAX)
	if in.Trace {
		println("syscall", bank.Name(), int(ordinal))
	}
	if err := bank.Call(ordinal, acc); err != nil {
		return err
	}

	// Execution falls through to the stub's own RETF imm16 (opcode
	// 0xCA), which performs the actual far return and Pascal-convention
	// stack cleanup using the argument-byte count module.go encoded
	// into the stub.
	return nil
}

// opRetFarImm16 implements RETF imm16 (opcode 0xCA): the far return
// every syscall stub module.go generates ends with, popping the
// return CS:IP the guest's original far CALL pushed and discarding
// imm16 bytes of arguments in the same instruction, per the Pascal
// calling convention every Windows 3.x API uses.
func (in *Interpreter) opRetFarImm16() error {
	argBytes, err := in.readIPu16()
	if err != nil {
		return err
	}
	retIP, err := in.popValue16()
	if err != nil {
		return err
	}
	retCS, err := in.popValue16()
	if err != nil {
		return err
	}
	in.Regs.IP = retIP
	in.Regs.SetSegment(SegCS, retCS)
	in.Regs.IncSP(argBytes)
	return nil
}
