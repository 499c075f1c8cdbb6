// kernel_bank.go - KERNEL host API bank

/*
kernel_bank.go reimplements the KERNEL ordinals emulated_kernel.rs
handles, generalized from the reference's fixed INT 0xFF/single-module
dispatch into one of four Bank implementations the interpreter
(interpreter.go) selects by INT vector. GetProfileString/GetProfileInt
and MakeProcInstance are carried from the reference verbatim in
behavior; InitTask sets the same registers as emulated_kernel.rs::init_task
but reports the guest's real data segment (see SetDataSegment) where
the reference hardcodes placeholder values.
*/

package main

// KernelBank implements the KERNEL module's syscalls: task/segment
// bookkeeping, local heap allocation, and the handful of resource and
// profile-string stubs a typical WinMain prologue touches before its
// message loop starts.
type KernelBank struct {
	heap     *Heap
	dataSeg  uint16
	instance uint16
}

// NewKernelBank builds a KERNEL bank whose LocalAlloc/LocalFree calls
// are served by heap, and whose InitTask response reports dataSeg in
// both AX and ES (this emulator runs a single guest task occupying a
// single data segment, so there is no "previous instance" to report).
func NewKernelBank(heap *Heap, dataSeg uint16) *KernelBank {
	return &KernelBank{heap: heap, dataSeg: dataSeg, instance: 0xBEEF}
}

func (k *KernelBank) Name() string { return "KERNEL" }

// SetDataSegment records the guest task's data segment once the loader
// has assigned it; LoadNE must see a KernelBank before DS is known, so
// this fills in what NewKernelBank could not yet be told.
func (k *KernelBank) SetDataSegment(ds uint16) { k.dataSeg = ds }

// kernelArgBytes is the Pascal-convention argument size (in bytes) of
// every ordinal this bank implements, grounded on each handler's own
// word_argument/pointer_argument indices in emulated_kernel.rs.
var kernelArgBytes = map[uint16]uint16{
	3:   0,  // GetVersion
	5:   4,  // LocalAlloc(size, flags)
	7:   2,  // LocalFree(handle)
	23:  2,  // LockSegment(segment)
	24:  2,  // UnlockSegment(segment)
	30:  0,  // WaitEvent
	51:  6,  // MakeProcInstance(proc, offset, segment)
	57:  10, // GetProfileInt(default, keyName, appName)
	58:  18, // GetProfileString(size, returned, default, keyName, appName)
	60:  10, // FindResource(type, name, module)
	61:  4,  // LoadResource(resInfo, module)
	91:  0,  // InitTask
	132: 0,  // GetWinFlags
}

func (k *KernelBank) ArgumentBytes(ordinal uint16) (uint16, bool) {
	n, ok := kernelArgBytes[ordinal]
	return n, ok
}

func (k *KernelBank) Call(ordinal uint16, acc *Accessor) error {
	switch ordinal {
	case 3:
		return k.getVersion(acc)
	case 5:
		return k.localAlloc(acc)
	case 7:
		return k.localFree(acc)
	case 23:
		return k.lockSegment(acc)
	case 24:
		return k.unlockSegment(acc)
	case 30:
		return k.waitEvent(acc)
	case 51:
		return k.makeProcInstance(acc)
	case 57:
		return k.getProfileInt(acc)
	case 58:
		return k.getProfileString(acc)
	case 60:
		return k.findResource(acc)
	case 61:
		return k.loadResource(acc)
	case 91:
		return k.initTask(acc)
	case 132:
		return k.getWinFlags(acc)
	}
	return &UnimplementedSyscallError{Bank: k.Name(), Ordinal: ordinal}
}

// getVersion reports Windows 3.10, matching the reference's hardcoded
// response (AL = major version 3, AH = minor version 10 in Windows'
// packed version word).
func (k *KernelBank) getVersion(acc *Accessor) error {
	acc.ReturnWord(0x0A03)
	return nil
}

func (k *KernelBank) localAlloc(acc *Accessor) error {
	size, err := acc.WordArgument(0)
	if err != nil {
		return err
	}
	flags, err := acc.WordArgument(1)
	if err != nil {
		return err
	}
	isFixed := flags&0x0002 == 0 // LMEM_FIXED is 0; LMEM_MOVEABLE sets bit 1
	handle, _, err := k.heap.Allocate(isFixed, size)
	if err != nil {
		acc.ReturnWord(0)
		return nil
	}
	acc.ReturnWord(handle)
	return nil
}

func (k *KernelBank) localFree(acc *Accessor) error {
	handle, err := acc.WordArgument(0)
	if err != nil {
		return err
	}
	acc.ReturnWord(k.heap.Deallocate(handle))
	return nil
}

func (k *KernelBank) lockSegment(acc *Accessor) error {
	_, err := acc.WordArgument(0)
	return err
}

func (k *KernelBank) unlockSegment(acc *Accessor) error {
	_, err := acc.WordArgument(0)
	return err
}

func (k *KernelBank) waitEvent(acc *Accessor) error {
	return nil
}

// makeProcInstance returns the caller's (segment, offset) unchanged in
// DX:AX: this emulator never segment-thunks guest procedures, so there
// is no instance-specific address to produce.
func (k *KernelBank) makeProcInstance(acc *Accessor) error {
	offset, err := acc.WordArgument(1)
	if err != nil {
		return err
	}
	segment, err := acc.WordArgument(2)
	if err != nil {
		return err
	}
	acc.ReturnWord(offset)
	acc.Regs.SetGPR16(RegDX, segment)
	return nil
}

// getProfileInt echoes back the caller-supplied default: this
// emulator has no INI-file backing store, so "not found, use your
// default" is the only honest answer.
func (k *KernelBank) getProfileInt(acc *Accessor) error {
	def, err := acc.WordArgument(0)
	if err != nil {
		return err
	}
	acc.ReturnWord(def)
	return nil
}

func (k *KernelBank) getProfileString(acc *Accessor) error {
	returned, err := acc.PointerArgument(1)
	if err != nil {
		return err
	}
	def, err := acc.PointerArgument(3)
	if err != nil {
		return err
	}
	n, err := acc.CopyString(def, returned)
	if err != nil {
		return err
	}
	acc.ReturnDword(n)
	return nil
}

// findResource and loadResource both return a hardcoded non-null
// handle, matching the reference: this emulator has no resource-table
// reader, but a guest that branches on "did this fail" needs a
// consistent truthy answer to keep going.
func (k *KernelBank) findResource(acc *Accessor) error {
	acc.ReturnWord(1)
	return nil
}

func (k *KernelBank) loadResource(acc *Accessor) error {
	acc.ReturnWord(1)
	return nil
}

// initTask seeds the bootstrap register values a freshly started
// guest task's WinMain prologue expects, grounded on
// emulated_kernel.rs::init_task. This is invoked through the
// interpreter's CALL FAR hook (opCallFar), not through the normal
// INT-vector syscall path, since a brand-new task has no stack frame
// to marshal arguments from yet.
func (k *KernelBank) initTask(acc *Accessor) error {
	regs := acc.Regs
	regs.SetGPR16(RegAX, k.dataSeg)
	regs.SetGPR16(RegBX, 0) // offset into command line: none
	regs.SetGPR16(RegCX, 0) // stack limit
	regs.SetGPR16(RegDX, 0) // nCmdShow
	regs.SetGPR16(RegSI, 0) // previous instance handle
	regs.SetGPR16(RegDI, k.instance)
	regs.SetGPR16(RegBP, regs.GPR16(RegSP))
	regs.SetSegment(SegES, k.dataSeg)
	return nil
}

// getWinFlags reports a fixed capability mask: 80387-class FPU,
// paging, 386 CPU, protected mode, enhanced mode, matching the
// reference's hardcoded response.
func (k *KernelBank) getWinFlags(acc *Accessor) error {
	const (
		wf80x87    = 0x400
		wfPaging   = 0x800
		wfCPU386   = 0x4
		wfPMode    = 0x1
		wfEnhanced = 0x20
	)
	acc.Regs.SetGPR16(RegAX, wf80x87|wfPaging|wfCPU386|wfPMode|wfEnhanced)
	acc.Regs.SetGPR16(RegDX, 0)
	return nil
}
