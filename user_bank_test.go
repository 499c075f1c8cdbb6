package main

import "testing"

// setStackArgs overwrites the syscall argument words above the return
// address on an existing accessor's stack, so a test can drive two
// different ordinals through the same guest memory image.
func setStackArgs(acc *Accessor, args ...uint16) {
	base := acc.Regs.FlatSP() + 4
	for i, v := range args {
		acc.Memory.Write16(base+uint32(i)*2, v)
	}
}

func writeCString(mem *Memory, flat uint32, s string) {
	mem.CopyFrom(flat, append([]byte(s), 0))
}

func TestUserBank_RegisterAndCreateWindow(t *testing.T) {
	objects := NewObjectEnvironment(NewWindowManager())
	queue := NewMessageQueue()
	u := NewUserBank(objects, queue, mainProcessID)
	acc := newTestAccessor(make([]uint16, 16)...)

	const classNameFlat = 0x5000
	writeCString(acc.Memory, classNameFlat, "MYCLASS")
	classSeg := uint16(classNameFlat >> 4)
	classOff := uint16(classNameFlat & 0xF)

	const wndClassFlat = 0x6000
	acc.Memory.Write16(wndClassFlat+wndClassProcSegOffset, 0x1234)
	acc.Memory.Write16(wndClassFlat+wndClassProcOffOffset, 0x5678)
	acc.Memory.Write16(wndClassFlat+wndClassClassNameOffset, classOff)
	acc.Memory.Write16(wndClassFlat+wndClassClassNameOffset+2, classSeg)

	wndClassSeg := uint16(wndClassFlat >> 4)
	wndClassOff := uint16(wndClassFlat & 0xF)
	setStackArgs(acc, wndClassOff, wndClassSeg)
	if err := u.Call(57, acc); err != nil {
		t.Fatalf("RegisterClass: %v", err)
	}
	if acc.Regs.GPR16(RegAX) == 0 {
		t.Fatal("RegisterClass returned a null atom")
	}

	args := make([]uint16, 16)
	args[5] = 300 // height
	args[6] = 400 // width
	args[7] = 10  // y
	args[8] = 20  // x
	args[13] = classOff
	args[14] = classSeg
	setStackArgs(acc, args...)
	if err := u.Call(41, acc); err != nil {
		t.Fatalf("CreateWindow: %v", err)
	}
	handle := acc.Regs.GPR16(RegAX)
	if handle == 0 {
		t.Fatal("CreateWindow returned a null handle for a registered class")
	}
	if _, ok := objects.User.Get(Handle(handle)); !ok {
		t.Fatal("CreateWindow did not register a USER object for the returned handle")
	}
}

func TestUserBank_RegisterClassDuplicateNameFails(t *testing.T) {
	objects := NewObjectEnvironment(NewWindowManager())
	u := NewUserBank(objects, NewMessageQueue(), mainProcessID)
	acc := newTestAccessor(make([]uint16, 16)...)

	const classNameFlat = 0x5000
	writeCString(acc.Memory, classNameFlat, "DUPCLASS")
	classSeg := uint16(classNameFlat >> 4)
	classOff := uint16(classNameFlat & 0xF)

	const wndClassFlat = 0x6000
	acc.Memory.Write16(wndClassFlat+wndClassProcSegOffset, 0x1234)
	acc.Memory.Write16(wndClassFlat+wndClassProcOffOffset, 0x5678)
	acc.Memory.Write16(wndClassFlat+wndClassClassNameOffset, classOff)
	acc.Memory.Write16(wndClassFlat+wndClassClassNameOffset+2, classSeg)
	wndClassSeg := uint16(wndClassFlat >> 4)
	wndClassOff := uint16(wndClassFlat & 0xF)

	setStackArgs(acc, wndClassOff, wndClassSeg)
	if err := u.Call(57, acc); err != nil {
		t.Fatalf("first RegisterClass: %v", err)
	}
	firstAtom := acc.Regs.GPR16(RegAX)
	if firstAtom == 0 {
		t.Fatal("first RegisterClass returned a null atom")
	}

	setStackArgs(acc, wndClassOff, wndClassSeg)
	if err := u.Call(57, acc); err != nil {
		t.Fatalf("second RegisterClass: %v", err)
	}
	if got := acc.Regs.GPR16(RegAX); got != 0 {
		t.Fatalf("RegisterClass on an already-registered name returned atom 0x%04X, want 0 (failure)", got)
	}

	// The original binding must survive untouched: the first atom stays
	// registered and the class name keeps its window-class entry.
	if _, ok := u.atoms.Get(Handle(firstAtom)); !ok {
		t.Fatal("the first successfully registered atom was deregistered by the failed duplicate call")
	}
	if _, ok := u.windowClasses["DUPCLASS"]; !ok {
		t.Fatal("duplicate RegisterClass call clobbered the existing window class binding")
	}
}

func TestUserBank_CreateWindowUnknownClassFails(t *testing.T) {
	objects := NewObjectEnvironment(NewWindowManager())
	u := NewUserBank(objects, NewMessageQueue(), mainProcessID)
	args := make([]uint16, 16)
	const unknownFlat = 0x7000
	args[13] = uint16(unknownFlat & 0xF)
	args[14] = uint16(unknownFlat >> 4)
	acc := newTestAccessor(args...)
	writeCString(acc.Memory, unknownFlat, "NOSUCHCLASS")
	if err := u.Call(41, acc); err != nil {
		t.Fatal(err)
	}
	if got := acc.Regs.GPR16(RegAX); got != 0 {
		t.Fatalf("CreateWindow for unregistered class returned 0x%04X, want 0", got)
	}
}

func TestUserBank_GetMessageDeliversPostedMessage(t *testing.T) {
	queue := NewMessageQueue()
	u := NewUserBank(NewObjectEnvironment(NewWindowManager()), queue, mainProcessID)
	queue.Send(WindowMessage{HWnd: 7, Message: 0x0201, WParam: 1, LParam: 2})

	const msgFlat = 0x8000
	args := make([]uint16, 16)
	args[3] = uint16(msgFlat & 0xF)
	args[4] = uint16(msgFlat >> 4)
	acc := newTestAccessor(args...)
	if err := u.Call(108, acc); err != nil {
		t.Fatal(err)
	}
	if got := acc.Regs.GPR16(RegAX); got != 1 {
		t.Fatalf("GetMessage returned %d for a non-WM_QUIT message, want 1", got)
	}
	hwnd, _ := acc.Memory.Read16(msgFlat)
	if hwnd != 7 {
		t.Fatalf("MSG.hwnd = %d, want 7", hwnd)
	}
	message, _ := acc.Memory.Read16(msgFlat + 2)
	if message != 0x0201 {
		t.Fatalf("MSG.message = 0x%04X, want 0x0201", message)
	}
}

func TestUserBank_GetMessageReportsQuit(t *testing.T) {
	queue := NewMessageQueue()
	u := NewUserBank(NewObjectEnvironment(NewWindowManager()), queue, mainProcessID)
	queue.Send(WindowMessage{Message: wmQuit})

	const msgFlat = 0x8000
	args := make([]uint16, 16)
	args[3] = uint16(msgFlat & 0xF)
	args[4] = uint16(msgFlat >> 4)
	acc := newTestAccessor(args...)
	if err := u.Call(108, acc); err != nil {
		t.Fatal(err)
	}
	if got := acc.Regs.GPR16(RegAX); got != 0 {
		t.Fatalf("GetMessage returned %d for WM_QUIT, want 0", got)
	}
}

func TestUserBank_ShowWindowUnknownHandle(t *testing.T) {
	u := NewUserBank(NewObjectEnvironment(NewWindowManager()), NewMessageQueue(), mainProcessID)
	acc := newTestAccessor(0, 0xFFFF)
	if err := u.Call(42, acc); err != nil {
		t.Fatal(err)
	}
	if got := acc.Regs.GPR16(RegAX); got != 0 {
		t.Fatalf("ShowWindow on unknown handle returned %d, want 0", got)
	}
}
