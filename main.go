// main.go - Command-line entry point for the NE executable interpreter

/*
main.go wires together the pieces every other file in this module
implements: it reads a guest NE executable, loads it via LoadNE,
registers the four syscall banks against the interpreter, starts the
window compositor, and runs the guest until it exits cleanly or hits
an unrecoverable error. It follows IntuitionEngine's own
cmd/ie32to64/main.go shape (a boilerplate banner, flag/argument
validation, explicit os.Exit on failure) adapted to this emulator's
single positional argument instead of its "[-ie32|-m68k] filename"
mode switch.
*/

package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
)

func boilerPlate() {
	fmt.Println("ne16emu - a Windows 3.x NE executable interpreter")
	fmt.Println("16-bit real-mode CPU core, NE loader, KERNEL/USER/GDI/KEYBOARD syscall banks")
}

// validateResolutionOverride accepts a caller-supplied (width, height)
// pair only when both are positive, rejecting a partial override rather
// than silently falling back on one dimension while honoring the other.
func validateResolutionOverride(width, height int) (int, int, bool) {
	if width > 0 && height > 0 {
		return width, height, true
	}
	return 0, 0, false
}

const (
	defaultScreenWidth  = 640
	defaultScreenHeight = 480

	defaultHeapSize           = 0xFF00
	defaultHeapAllocationBase = 0x0100

	mainProcessID = ProcessId(1)
)

func main() {
	boilerPlate()

	trace := flag.Bool("trace", false, "log every executed instruction and syscall dispatch")
	width := flag.Int("width", 0, "override host window width (requires -height)")
	height := flag.Int("height", 0, "override host window height (requires -width)")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] <path-to-ne-executable>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(1)
	}
	path := flag.Arg(0)

	screenWidth, screenHeight := defaultScreenWidth, defaultScreenHeight
	if w, h, ok := validateResolutionOverride(*width, *height); ok {
		screenWidth, screenHeight = w, h
	}

	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ne16emu: reading %s: %v\n", path, err)
		os.Exit(1)
	}

	windowManager := NewWindowManager()
	objects := NewObjectEnvironment(windowManager)
	messages := NewMessageQueue()

	heap := NewHeap(defaultHeapSize, defaultHeapAllocationBase)
	kernel := NewKernelBank(heap, 0)
	user := NewUserBank(objects, messages, mainProcessID)
	gdi := NewGdiBank(objects)
	keyboard := NewKeyboardBank()

	result, err := LoadNE(data, kernel, user, gdi, keyboard)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ne16emu: load %s: %v\n", path, err)
		os.Exit(1)
	}
	kernel.SetDataSegment(result.DS)

	interp := NewInterpreter(result.Memory, result.CS, result.IP)
	interp.Regs.SetSegment(SegSS, result.SS)
	interp.Regs.SetGPR16(RegSP, result.SP)
	interp.Regs.SetSegment(SegDS, result.DS)
	interp.Trace = *trace

	interp.RegisterBank(KernelIntVector, kernel)
	interp.RegisterBank(UserIntVector, user)
	interp.RegisterBank(GdiIntVector, gdi)
	interp.RegisterBank(KeyboardIntVector, keyboard)
	const initTaskOrdinal = 91
	interp.SetInitTaskHook(func(in *Interpreter) error {
		return kernel.Call(initTaskOrdinal, NewAccessor(in.Memory, in.Regs))
	})

	screen := NewScreen(screenWidth, screenHeight, messages)
	compositor := NewCompositor(screen, windowManager)
	if err := compositor.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "ne16emu: starting display: %v\n", err)
		os.Exit(1)
	}
	defer compositor.Stop()

	if err := interp.Run(); err != nil {
		var exit *ExitSignal
		if errors.As(err, &exit) {
			os.Exit(exit.Code)
		}
		fmt.Fprintf(os.Stderr, "ne16emu: %v\n", err)
		os.Exit(1)
	}
}
