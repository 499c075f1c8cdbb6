// registers.go - 8086 register file and flags

/*
registers.go holds the guest CPU's register state: eight 16-bit
general-purpose registers (the low four of which alias into AL/AH,
CL/CH, DL/DH, BL/BH byte pairs the way the real 8086 overlaps them),
six segment registers, the instruction pointer, and the FLAGS word.

Flag bit positions follow IntuitionEngine's own x86FlagCF..x86FlagOF
layout (cpu_x86.go), which matches the real Intel 8086 encoding
(CF=bit0, PF=bit2, AF=bit4, ZF=bit6, SF=bit7, OF=bit11). This is a
deliberate correction relative to the Rust reference this emulator is
modeled on, whose registers.rs swaps FLAG_CF and FLAG_OF onto bits 11
and 0 respectively; there is no guest code depending on that swap, and
matching real hardware is strictly more correct.

The arithmetic flag update path (UpdateFlagsArith8/16/32) also differs
from the Rust reference on purpose: the reference's
handle_arithmetic_result_u_generic leaves CF, OF and AF permanently
unset ("TODO: support CF, OF, AF"). Computing them is required here,
following the same carry/overflow/half-carry idiom CPU_X86 already
uses for its 32-bit core.
*/

package main

// Flag bit positions, matching the real 8086 FLAGS word.
const (
	FlagCF = 1 << 0  // Carry
	FlagPF = 1 << 2  // Parity
	FlagAF = 1 << 4  // Auxiliary carry
	FlagZF = 1 << 6  // Zero
	FlagSF = 1 << 7  // Sign
	FlagTF = 1 << 8  // Trap
	FlagIF = 1 << 9  // Interrupt enable
	FlagDF = 1 << 10 // Direction
	FlagOF = 1 << 11 // Overflow
)

// General-purpose register indices, as they appear in a ModR/M byte's
// reg/rm fields for 16-bit operands.
const (
	RegAX = 0
	RegCX = 1
	RegDX = 2
	RegBX = 3
	RegSP = 4
	RegBP = 5
	RegSI = 6
	RegDI = 7
)

// 8-bit register indices, as they appear in a ModR/M byte's reg/rm
// fields when the operand size is a byte.
const (
	RegAL = 0
	RegCL = 1
	RegDL = 2
	RegBL = 3
	RegAH = 4
	RegCH = 5
	RegDH = 6
	RegBH = 7
)

// Segment register indices.
const (
	SegES = 0
	SegCS = 1
	SegSS = 2
	SegDS = 3
	SegFS = 4
	SegGS = 5
)

// Registers holds the full guest-visible CPU state.
type Registers struct {
	gpr      [8]uint16
	segments [8]uint16
	IP       uint16
	Flags    uint16
}

// NewRegisters builds a register file with CS:IP set to the module's
// entry point and the stack pointer parked at the top of its segment,
// mirroring the Rust reference's Registers::new.
func NewRegisters(cs, ip uint16) *Registers {
	r := &Registers{IP: ip, Flags: FlagIF}
	r.segments[SegCS] = cs
	return r
}

// FlatIP returns the linear address the instruction pointer refers to.
func (r *Registers) FlatIP() uint32 {
	return uint32(r.IP) + (uint32(r.segments[SegCS]) << 4)
}

// FlatSP returns the linear address the stack pointer refers to.
func (r *Registers) FlatSP() uint32 {
	return uint32(r.gpr[RegSP]) + (uint32(r.segments[SegSS]) << 4)
}

func (r *Registers) DecSP(amount uint16) { r.gpr[RegSP] -= amount }
func (r *Registers) IncSP(amount uint16) { r.gpr[RegSP] += amount }

// GPR16 reads a 16-bit general-purpose register.
func (r *Registers) GPR16(index byte) uint16 { return r.gpr[index&7] }

// SetGPR16 writes a 16-bit general-purpose register.
func (r *Registers) SetGPR16(index byte, value uint16) { r.gpr[index&7] = value }

// Segment reads a segment register.
func (r *Registers) Segment(index byte) uint16 { return r.segments[index&7] }

// SetSegment writes a segment register.
func (r *Registers) SetSegment(index byte, value uint16) { r.segments[index&7] = value }

// GPR8 reads an 8-bit register, indices 0-3 being the low byte of
// AX/CX/DX/BX and 4-7 the high byte of the same.
func (r *Registers) GPR8(index byte) byte {
	if index < 4 {
		return byte(r.gpr[index])
	}
	return byte(r.gpr[index-4] >> 8)
}

// SetGPR8 writes an 8-bit register using the same low/high split as GPR8.
func (r *Registers) SetGPR8(index byte, value byte) {
	if index < 4 {
		r.gpr[index] = (r.gpr[index] & 0xFF00) | uint16(value)
		return
	}
	i := index - 4
	r.gpr[i] = (r.gpr[i] & 0x00FF) | (uint16(value) << 8)
}

func (r *Registers) getFlag(flag uint16) bool  { return r.Flags&flag != 0 }
func (r *Registers) setFlag(flag uint16, v bool) {
	if v {
		r.Flags |= flag
	} else {
		r.Flags &^= flag
	}
}

func (r *Registers) CF() bool { return r.getFlag(FlagCF) }
func (r *Registers) ZF() bool { return r.getFlag(FlagZF) }
func (r *Registers) SF() bool { return r.getFlag(FlagSF) }
func (r *Registers) OF() bool { return r.getFlag(FlagOF) }
func (r *Registers) PF() bool { return r.getFlag(FlagPF) }
func (r *Registers) AF() bool { return r.getFlag(FlagAF) }
func (r *Registers) DF() bool { return r.getFlag(FlagDF) }

// parity reports whether the low byte of v has even parity.
func parity(v byte) bool {
	v ^= v >> 4
	v ^= v >> 2
	v ^= v >> 1
	return v&1 == 0
}

// UpdateFlagsBitwise8/16/32 set ZF/SF/PF from a logical operation's result
// and clears CF/OF (AF is left undefined, as on real hardware).
func (r *Registers) UpdateFlagsBitwise8(result byte) {
	r.setFlag(FlagCF, false)
	r.setFlag(FlagOF, false)
	r.setFlag(FlagZF, result == 0)
	r.setFlag(FlagSF, result&0x80 != 0)
	r.setFlag(FlagPF, parity(result))
}

func (r *Registers) UpdateFlagsBitwise16(result uint16) {
	r.setFlag(FlagCF, false)
	r.setFlag(FlagOF, false)
	r.setFlag(FlagZF, result == 0)
	r.setFlag(FlagSF, result&0x8000 != 0)
	r.setFlag(FlagPF, parity(byte(result)))
}

func (r *Registers) UpdateFlagsBitwise32(result uint32) {
	r.setFlag(FlagCF, false)
	r.setFlag(FlagOF, false)
	r.setFlag(FlagZF, result == 0)
	r.setFlag(FlagSF, result&0x80000000 != 0)
	r.setFlag(FlagPF, parity(byte(result)))
}

// UpdateFlagsArith8 sets ZF/SF/PF/CF/OF/AF after an 8-bit add/sub.
// sub distinguishes subtraction (a-b) from addition (a+b) since the
// overflow and auxiliary-carry tests differ between the two.
func (r *Registers) UpdateFlagsArith8(result uint16, a, b byte, sub bool) {
	res := byte(result)
	r.setFlag(FlagCF, result > 0xFF)
	r.setFlag(FlagZF, res == 0)
	r.setFlag(FlagSF, res&0x80 != 0)
	r.setFlag(FlagPF, parity(res))
	if sub {
		r.setFlag(FlagOF, (a^b)&(a^res)&0x80 != 0)
		r.setFlag(FlagAF, a&0x0F < b&0x0F)
	} else {
		r.setFlag(FlagOF, (^(a^b))&(a^res)&0x80 != 0)
		r.setFlag(FlagAF, (a&0x0F)+(b&0x0F) > 0x0F)
	}
}

// UpdateFlagsArith16 sets ZF/SF/PF/CF/OF/AF after a 16-bit add/sub.
func (r *Registers) UpdateFlagsArith16(result uint32, a, b uint16, sub bool) {
	res := uint16(result)
	r.setFlag(FlagCF, result > 0xFFFF)
	r.setFlag(FlagZF, res == 0)
	r.setFlag(FlagSF, res&0x8000 != 0)
	r.setFlag(FlagPF, parity(byte(res)))
	if sub {
		r.setFlag(FlagOF, (a^b)&(a^res)&0x8000 != 0)
		r.setFlag(FlagAF, a&0x0F < b&0x0F)
	} else {
		r.setFlag(FlagOF, (^(a^b))&(a^res)&0x8000 != 0)
		r.setFlag(FlagAF, (a&0x0F)+(b&0x0F) > 0x0F)
	}
}

// UpdateFlagsArith32 sets ZF/SF/PF/CF/OF/AF after a 32-bit add/sub.
// The interpreter implements no 32-bit operand forms and does not call it.
func (r *Registers) UpdateFlagsArith32(result uint64, a, b uint32, sub bool) {
	res := uint32(result)
	r.setFlag(FlagCF, result > 0xFFFFFFFF)
	r.setFlag(FlagZF, res == 0)
	r.setFlag(FlagSF, res&0x80000000 != 0)
	r.setFlag(FlagPF, parity(byte(res)))
	if sub {
		r.setFlag(FlagOF, (a^b)&(a^res)&0x80000000 != 0)
		r.setFlag(FlagAF, a&0x0F < b&0x0F)
	} else {
		r.setFlag(FlagOF, (^(a^b))&(a^res)&0x80000000 != 0)
		r.setFlag(FlagAF, (a&0x0F)+(b&0x0F) > 0x0F)
	}
}
