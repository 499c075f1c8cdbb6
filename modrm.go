// modrm.go - ModR/M byte decoding and effective-address computation

/*
modrm.go decodes the addressing-mode/reg/rm fields of a ModR/M byte
and resolves the rm field (when it names memory rather than a
register) to a flat address, grounded on the Rust reference's
ModRMByte/ModRM split. Addressing modes 00/01/10 with rm==6 are the
disp16/[BP+disp8]/[BP+disp16] special cases the 8086 carves out of the
"no base register" and "BP-relative" encodings. decodeModRM accepts
an override segment index, but the interpreter decodes no
segment-override prefixes and always passes -1, so the default segment
(DS, or SS for the BP-based forms) is used.
*/

package main

// ModRMByte is the raw addressing-mode/reg/rm triple packed into one
// byte.
type ModRMByte byte

func (b ModRMByte) Mode() byte { return byte(b) >> 6 }
func (b ModRMByte) Reg() byte  { return (byte(b) >> 3) & 7 }
func (b ModRMByte) RM() byte   { return byte(b) & 7 }

// ModRM is a decoded ModR/M byte together with its resolved operand:
// when Mode()==3 the rm field names a register directly and Computed
// holds the register index as-is; otherwise Computed holds the flat
// memory address the addressing mode resolves to.
type ModRM struct {
	Byte     ModRMByte
	Computed uint32
	IsMemory bool
}

// decodeModRM reads a ModR/M byte (and any following displacement)
// from code starting at ip, returning the decoded operand and the
// number of bytes consumed including the ModR/M byte itself.
func decodeModRM(mem *Memory, flatIP uint32, regs *Registers, overrideSeg int) (ModRM, uint32, error) {
	raw, err := mem.Read8(flatIP)
	if err != nil {
		return ModRM{}, 0, err
	}
	b := ModRMByte(raw)
	consumed := uint32(1)

	if b.Mode() == 3 {
		return ModRM{Byte: b, Computed: uint32(b.RM()), IsMemory: false}, consumed, nil
	}

	segIndex := byte(SegDS)
	if overrideSeg >= 0 {
		segIndex = byte(overrideSeg)
	}

	var offset uint16
	switch b.RM() {
	case 0:
		offset = regs.GPR16(RegBX) + regs.GPR16(RegSI)
	case 1:
		offset = regs.GPR16(RegBX) + regs.GPR16(RegDI)
	case 2:
		offset = regs.GPR16(RegBP) + regs.GPR16(RegSI)
		if overrideSeg < 0 {
			segIndex = SegSS
		}
	case 3:
		offset = regs.GPR16(RegBP) + regs.GPR16(RegDI)
		if overrideSeg < 0 {
			segIndex = SegSS
		}
	case 4:
		offset = regs.GPR16(RegSI)
	case 5:
		offset = regs.GPR16(RegDI)
	case 6:
		if b.Mode() == 0 {
			disp, err := mem.Read16(flatIP + consumed)
			if err != nil {
				return ModRM{}, 0, err
			}
			consumed += 2
			offset = disp
		} else {
			offset = regs.GPR16(RegBP)
			if overrideSeg < 0 {
				segIndex = SegSS
			}
		}
	case 7:
		offset = regs.GPR16(RegBX)
	}

	switch b.Mode() {
	case 1:
		disp, err := mem.Read8(flatIP + consumed)
		if err != nil {
			return ModRM{}, 0, err
		}
		consumed++
		offset += uint16(int16(int8(disp)))
	case 2:
		disp, err := mem.Read16(flatIP + consumed)
		if err != nil {
			return ModRM{}, 0, err
		}
		consumed += 2
		offset += disp
	}

	flat := (uint32(regs.Segment(segIndex)) << 4) + uint32(offset)
	return ModRM{Byte: b, Computed: flat, IsMemory: true}, consumed, nil
}
