// interpreter_grp.go - ModR/M "group" opcode handlers

/*
interpreter_grp.go implements the opcodes whose ModR/M reg field
selects a sub-operation rather than a register, grounded on the
reference's op_0x83/op_0xf6_0xf7_generic/op_0xff and on
IntuitionEngine's own Grp1-5 naming convention (cpu_x86_grp.go) for
this style of dispatch. Only the slash-opcode selectors real NE
startup code and this repo's test programs exercise are implemented;
an unrecognized selector under a supported opcode is an
invalid-instruction condition the same as an unrecognized top-level
opcode, following the reference treating its own unmatched selectors
as unreachable.
*/

package main

// opGrp1_Ev_Ib implements opcode 0x83: ADD/SUB/CMP r/m16, imm8 (sign
// extended to 16 bits), selected by the ModR/M reg field (/0 ADD,
// /5 SUB, /7 CMP).
func (in *Interpreter) opGrp1_Ev_Ib() error {
	m, err := in.readIPModRM()
	if err != nil {
		return err
	}

	switch m.Byte.Reg() {
	case 0: // ADD
		imm, err := in.readIPi8()
		if err != nil {
			return err
		}
		rm, err := in.readRM16(m)
		if err != nil {
			return err
		}
		result := uint32(rm) + uint32(uint16(int16(imm)))
		if err := in.writeRM16(m, uint16(result)); err != nil {
			return err
		}
		in.Regs.UpdateFlagsArith16(result, rm, uint16(int16(imm)), false)
		return nil
	case 5: // SUB
		imm, err := in.readIPi8()
		if err != nil {
			return err
		}
		rm, err := in.readRM16(m)
		if err != nil {
			return err
		}
		subtrahend := uint16(int16(imm))
		result := uint32(rm) - uint32(subtrahend)
		if err := in.writeRM16(m, uint16(result)); err != nil {
			return err
		}
		in.Regs.UpdateFlagsArith16(result, rm, subtrahend, true)
		return nil
	case 7: // CMP
		rm, err := in.readRM16(m)
		if err != nil {
			return err
		}
		imm, err := in.readIPi8()
		if err != nil {
			return err
		}
		subtrahend := uint16(int16(imm))
		result := uint32(rm) - uint32(subtrahend)
		in.Regs.UpdateFlagsArith16(result, rm, subtrahend, true)
		return nil
	default:
		return &InvalidOpcodeError{Opcode: 0x83, CS: in.Regs.Segment(SegCS), IP: in.Regs.IP}
	}
}

// opGrp3_Eb implements opcode 0xF6: TEST r/m8, imm8 (selector /0 only).
func (in *Interpreter) opGrp3_Eb() error {
	m, err := in.readIPModRM()
	if err != nil {
		return err
	}
	if m.Byte.Reg() != 0 {
		return &InvalidOpcodeError{Opcode: 0xF6, CS: in.Regs.Segment(SegCS), IP: in.Regs.IP}
	}
	rm, err := in.readRM8(m)
	if err != nil {
		return err
	}
	imm, err := in.readIPu8()
	if err != nil {
		return err
	}
	in.Regs.UpdateFlagsBitwise8(rm & imm)
	return nil
}

// opGrp3_Ev implements opcode 0xF7: TEST r/m16, imm16 (selector /0 only).
func (in *Interpreter) opGrp3_Ev() error {
	m, err := in.readIPModRM()
	if err != nil {
		return err
	}
	if m.Byte.Reg() != 0 {
		return &InvalidOpcodeError{Opcode: 0xF7, CS: in.Regs.Segment(SegCS), IP: in.Regs.IP}
	}
	rm, err := in.readRM16(m)
	if err != nil {
		return err
	}
	imm, err := in.readIPu16()
	if err != nil {
		return err
	}
	in.Regs.UpdateFlagsBitwise16(rm & imm)
	return nil
}

// opGrp5_Ev implements opcode 0xFF: PUSH r/m16 (selector /6 only).
func (in *Interpreter) opGrp5_Ev() error {
	m, err := in.readIPModRM()
	if err != nil {
		return err
	}
	if m.Byte.Reg() != 6 {
		return &InvalidOpcodeError{Opcode: 0xFF, CS: in.Regs.Segment(SegCS), IP: in.Regs.IP}
	}
	data, err := in.readRM16(m)
	if err != nil {
		return err
	}
	return in.pushValue16(data)
}
