// user_bank.go - USER host API bank

/*
user_bank.go reimplements the USER ordinals emulated_user.rs handles:
window-class registration (backed by AtomTable and ObjectEnvironment's
USER handle table), window creation/show/update against WindowManager,
and the system-metrics/wsprintf/load-cursor stubs a typical WinMain
touches. CreateWindow's sentinel-size handling and RegisterClass's
WNDCLASS field layout are carried verbatim from the reference; GetMessage
differs deliberately (see getMessage below) since the reference's
infinite sleep loop would hang this emulator's single interpreter
goroutine forever instead of just "prevent the app from exiting."
*/

package main

// The wndClass*Offset constants are the in-memory layout USER's
// RegisterClass reads a WNDCLASS structure through, matching
// emulated_user.rs::register_class's field offsets.
const (
	wndClassStyleOffset       = 0
	wndClassProcSegOffset     = 2
	wndClassProcOffOffset     = 4
	wndClassClsExtraOffset    = 6
	wndClassWndExtraOffset    = 8
	wndClassHInstanceOffset   = 10
	wndClassHIconOffset       = 12
	wndClassHCursorOffset     = 14
	wndClassHBackgroundOffset = 16
	wndClassMenuNameOffset    = 18
	wndClassClassNameOffset   = 22
)

// windowClass is USER's registered WNDCLASS record, keyed by class
// name in windowClasses.
type windowClass struct {
	procSegment uint16
	procOffset  uint16
}

// UserBank implements the USER module's syscalls: window-class
// registration, window lifecycle, and message-loop/metrics stubs.
type UserBank struct {
	atoms        *AtomTable
	windowClasses map[string]windowClass
	objects      *ObjectEnvironment
	queue        *MessageQueue
	processID    ProcessId
}

// NewUserBank builds a USER bank backed by objects' shared window
// manager and USER handle table, delivering GetMessage results from
// queue.
func NewUserBank(objects *ObjectEnvironment, queue *MessageQueue, processID ProcessId) *UserBank {
	return &UserBank{
		atoms:         NewAtomTable(),
		windowClasses: make(map[string]windowClass),
		objects:       objects,
		queue:         queue,
		processID:     processID,
	}
}

func (u *UserBank) Name() string { return "USER" }

var userArgBytes = map[uint16]uint16{
	5:   2,  // InitApp(hInstance)
	41:  30, // CreateWindow(...)
	42:  4,  // ShowWindow(hWnd, cmdShow)
	57:  4,  // RegisterClass(wndClassPtr)
	87:  12, // DialogBox(...)
	108: 10, // GetMessage(msg, hWnd, filterMin, filterMax)
	124: 2,  // UpdateWindow(hWnd)
	173: 6,  // LoadCursor(hInstance, cursorName)
	176: 10, // LoadString(hInstance, uID, buffer, bufferMax)
	179: 2,  // GetSystemMetrics(metric)
	420: 8,  // wsprintf(output, format)
}

func (u *UserBank) ArgumentBytes(ordinal uint16) (uint16, bool) {
	n, ok := userArgBytes[ordinal]
	return n, ok
}

func (u *UserBank) Call(ordinal uint16, acc *Accessor) error {
	switch ordinal {
	case 5:
		return u.initApp(acc)
	case 41:
		return u.createWindow(acc)
	case 42:
		return u.showWindow(acc)
	case 57:
		return u.registerClass(acc)
	case 87:
		return u.dialogBox(acc)
	case 108:
		return u.getMessage(acc)
	case 124:
		return u.updateWindow(acc)
	case 173:
		return u.loadCursor(acc)
	case 176:
		return u.loadString(acc)
	case 179:
		return u.getSystemMetrics(acc)
	case 420:
		return u.wsprintf(acc)
	}
	return &UnimplementedSyscallError{Bank: u.Name(), Ordinal: ordinal}
}

func (u *UserBank) initApp(acc *Accessor) error {
	acc.ReturnWord(1)
	return nil
}

// createWindow looks up the named window class, and on a hit
// registers a new window (both in the shared USER handle table and
// the window manager's geometry tracker) and returns its handle;
// otherwise AX is zero, matching CreateWindow's NULL-on-failure
// contract.
func (u *UserBank) createWindow(acc *Accessor) error {
	classNamePtr, err := acc.PointerArgument(13)
	if err != nil {
		return err
	}
	x, err := acc.WordArgument(8)
	if err != nil {
		return err
	}
	y, err := acc.WordArgument(7)
	if err != nil {
		return err
	}
	width, err := acc.WordArgument(6)
	if err != nil {
		return err
	}
	height, err := acc.WordArgument(5)
	if err != nil {
		return err
	}
	procSeg, procOff, err := u.procFor(acc, classNamePtr)
	if err != nil {
		return err
	}
	if procSeg == 0 && procOff == 0 {
		acc.ReturnWord(0)
		return nil
	}

	handle, ok := u.objects.User.Register(UserWindow{ProcSegment: procSeg, ProcOffset: procOff})
	if !ok {
		acc.ReturnWord(0)
		return nil
	}

	id := WindowIdentifier{ProcessId: u.processID, Handle: handle}
	u.objects.WindowManager().CreateWindow(id, int16(x), int16(y), int16(width), int16(height), false)
	acc.ReturnWord(uint16(handle))
	return nil
}

func (u *UserBank) procFor(acc *Accessor, classNamePtr uint32) (uint16, uint16, error) {
	className, err := acc.CloneString(classNamePtr)
	if err != nil {
		return 0, 0, err
	}
	class, ok := u.windowClasses[className]
	if !ok {
		return 0, 0, nil
	}
	return class.procSegment, class.procOffset, nil
}

func (u *UserBank) showWindow(acc *Accessor) error {
	hWnd, err := acc.WordArgument(1)
	if err != nil {
		return err
	}
	_, ok := u.objects.User.Get(Handle(hWnd))
	if ok {
		u.objects.WindowManager().ShowWindow(WindowIdentifier{ProcessId: u.processID, Handle: Handle(hWnd)})
	}
	acc.ReturnWord(boolToU16(ok))
	return nil
}

func (u *UserBank) updateWindow(acc *Accessor) error {
	hWnd, err := acc.WordArgument(0)
	if err != nil {
		return err
	}
	_, ok := u.objects.User.Get(Handle(hWnd))
	acc.ReturnWord(boolToU16(ok))
	return nil
}

// registerClass reads a guest WNDCLASS structure, interns its class
// name as a fresh atom, and records the window procedure address new
// windows of this class will dispatch messages through. Re-registering
// a class name that's already bound is rejected (the new atom is
// deregistered and AX=0 is returned) rather than silently replacing
// the existing window procedure, matching emulated_user.rs's
// HashMap::insert-returns-Some handling.
func (u *UserBank) registerClass(acc *Accessor) error {
	ptr, err := acc.PointerArgument(0)
	if err != nil {
		return err
	}
	mem := acc.Memory
	procSeg, err := mem.Read16(ptr + wndClassProcSegOffset)
	if err != nil {
		return err
	}
	procOff, err := mem.Read16(ptr + wndClassProcOffOffset)
	if err != nil {
		return err
	}
	classNamePtrWord, err := mem.Read16(ptr + wndClassClassNameOffset)
	if err != nil {
		return err
	}
	classNameSegWord, err := mem.Read16(ptr + wndClassClassNameOffset + 2)
	if err != nil {
		return err
	}
	classNameFlat := (uint32(classNameSegWord) << 4) + uint32(classNamePtrWord)
	className, err := acc.CloneString(classNameFlat)
	if err != nil {
		return err
	}

	atom, ok := u.atoms.Add(className)
	if !ok {
		acc.ReturnWord(0)
		return nil
	}
	if _, exists := u.windowClasses[className]; exists {
		u.atoms.Delete(atom)
		acc.ReturnWord(0)
		return nil
	}
	u.windowClasses[className] = windowClass{procSegment: procSeg, procOffset: procOff}
	acc.ReturnWord(uint16(atom))
	return nil
}

func (u *UserBank) dialogBox(acc *Accessor) error {
	acc.ReturnWord(0)
	return nil
}

// getMessage pulls the next posted input event off the shared message
// queue, blocking until one arrives (GetMessage's documented contract)
// rather than the reference's infinite sleep loop, which merely keeps
// the process alive without ever actually servicing the guest's
// message loop.
func (u *UserBank) getMessage(acc *Accessor) error {
	msgPtr, err := acc.PointerArgument(3)
	if err != nil {
		return err
	}
	msg, ok := u.queue.Receive()
	if !ok {
		acc.ReturnWord(0)
		return nil
	}
	mem := acc.Memory
	if err := mem.Write16(msgPtr, uint16(msg.HWnd)); err != nil {
		return err
	}
	if err := mem.Write16(msgPtr+2, msg.Message); err != nil {
		return err
	}
	if err := mem.Write16(msgPtr+4, msg.WParam); err != nil {
		return err
	}
	if err := mem.Write32(msgPtr+6, msg.LParam); err != nil {
		return err
	}
	if err := mem.Write32(msgPtr+10, msg.Time); err != nil {
		return err
	}
	if err := mem.Write16(msgPtr+14, uint16(msg.Point.X)); err != nil {
		return err
	}
	if err := mem.Write16(msgPtr+16, uint16(msg.Point.Y)); err != nil {
		return err
	}
	acc.ReturnWord(boolToU16(msg.Message != wmQuit))
	return nil
}

const wmQuit = 0x0012

func (u *UserBank) loadString(acc *Accessor) error {
	acc.ReturnWord(0)
	return nil
}

func (u *UserBank) loadCursor(acc *Accessor) error {
	acc.ReturnWord(0)
	return nil
}

// getSystemMetrics reports SM_DEBUG (0x16) as 1 ("debug version
// installed"), as the reference does unconditionally; every other
// metric returns 0, matching the reference's "TODO: the others".
func (u *UserBank) getSystemMetrics(acc *Accessor) error {
	metric, err := acc.WordArgument(0)
	if err != nil {
		return err
	}
	if metric == 0x16 {
		acc.ReturnWord(1)
		return nil
	}
	acc.ReturnWord(0)
	return nil
}

// wsprintf does not implement format-string substitution (no guest
// program this emulator targets depends on it); it copies the format
// string to the output buffer unchanged, matching the reference's own
// "TODO: implement actual sprintf, now it just copies".
func (u *UserBank) wsprintf(acc *Accessor) error {
	output, err := acc.PointerArgument(0)
	if err != nil {
		return err
	}
	format, err := acc.PointerArgument(2)
	if err != nil {
		return err
	}
	_, err = acc.CopyString(format, output)
	return err
}

func boolToU16(b bool) uint16 {
	if b {
		return 1
	}
	return 0
}
