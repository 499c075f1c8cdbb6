// accessor.go - Syscall argument access for KERNEL/USER/GDI/KEYBOARD handlers

/*
accessor.go is the Go counterpart of the Rust reference's
EmulatorAccessor: the interface every syscall handler uses to read its
Pascal-calling-convention arguments off the guest stack and to return
a result into AX or DX:AX. A module's stub (module.go) pushes no
arguments itself — the guest's own CALL instruction already pushed
them and a RETF return address sits on top — so argument N lives 4
bytes above SP (2 for the return IP, 2 for the return CS) plus N
words.
*/

package main

// Accessor gives a syscall handler read/write access to guest memory
// and registers scoped to one dispatch.
type Accessor struct {
	Memory *Memory
	Regs   *Registers
}

// NewAccessor builds an accessor over the given memory and registers.
func NewAccessor(memory *Memory, regs *Registers) *Accessor {
	return &Accessor{Memory: memory, Regs: regs}
}

// WordArgument reads the nr'th 16-bit argument off the guest stack
// (0-indexed upward from the top of the stack, so argument 0 is the
// last word the caller pushed), skipping the far return address a
// RETF stub leaves on top.
func (a *Accessor) WordArgument(nr uint32) (uint16, error) {
	return a.Memory.Read16(a.Regs.FlatSP() + 4 + nr*2)
}

// DwordArgument reads the nr'th argument as a 32-bit value, for
// handlers whose Pascal-convention parameter is a DWORD.
func (a *Accessor) DwordArgument(nr uint32) (uint32, error) {
	return a.Memory.Read32(a.Regs.FlatSP() + 4 + nr*2)
}

// PointerArgument reads a far pointer argument spanning two stack
// slots (offset at nr, segment at nr+1, matching how a Pascal-convention
// far pointer is pushed segment first, leaving the offset at the lower
// address) and returns its flat address.
func (a *Accessor) PointerArgument(nr uint32) (uint32, error) {
	segment, err := a.WordArgument(nr + 1)
	if err != nil {
		return 0, err
	}
	offset, err := a.WordArgument(nr)
	if err != nil {
		return 0, err
	}
	return (uint32(segment) << 4) + uint32(offset), nil
}

// CopyString copies a NUL-terminated byte string from srcPtr to
// dstPtr (both flat addresses), including the terminator, returning
// the number of bytes copied excluding the terminator.
func (a *Accessor) CopyString(srcPtr, dstPtr uint32) (uint32, error) {
	var n uint32
	for {
		b, err := a.Memory.Read8(srcPtr)
		if err != nil {
			return n, err
		}
		if err := a.Memory.Write8(dstPtr, b); err != nil {
			return n, err
		}
		if b == 0 {
			return n, nil
		}
		n++
		srcPtr++
		dstPtr++
	}
}

// CloneString reads a NUL-terminated guest byte string at flat and
// returns it as a host-owned copy. Handlers that need to retain a
// guest string past the end of the current syscall dispatch (window
// class names, atom table entries) must go through this rather than
// holding onto a flat address, since nothing stops the guest from
// reusing or overwriting that memory afterward.
func (a *Accessor) CloneString(flat uint32) (string, error) {
	return a.Memory.ReadString(flat)
}

// ReturnWord stores a 16-bit syscall result in AX.
func (a *Accessor) ReturnWord(value uint16) {
	a.Regs.SetGPR16(RegAX, value)
}

// ReturnDword stores a 32-bit syscall result in DX:AX, high word in DX.
func (a *Accessor) ReturnDword(value uint32) {
	a.Regs.SetGPR16(RegAX, uint16(value))
	a.Regs.SetGPR16(RegDX, uint16(value>>16))
}
