// keyboard_bank.go - KEYBOARD host API bank

/*
emulated_keyboard.rs implements no ordinals at all; every KEYBOARD call
a real Windows 3.x program makes (GetKeyState, GetAsyncKeyState, and
similar) goes through the bank's fallback "unknown procedure" path
rather than a dedicated handler. KeyboardBank exists only so the
interpreter has something to register at vector 0xFC (module.go's
KeyboardIntVector): it reports every ordinal as unimplemented.
*/

package main

// KeyboardBank implements the KEYBOARD module's Bank interface with
// no handled ordinals, matching the reference.
type KeyboardBank struct{}

// NewKeyboardBank builds a KEYBOARD bank.
func NewKeyboardBank() *KeyboardBank { return &KeyboardBank{} }

func (k *KeyboardBank) Name() string { return "KEYBOARD" }

func (k *KeyboardBank) ArgumentBytes(ordinal uint16) (uint16, bool) {
	return 0, false
}

func (k *KeyboardBank) Call(ordinal uint16, acc *Accessor) error {
	return &UnimplementedSyscallError{Bank: k.Name(), Ordinal: ordinal}
}
