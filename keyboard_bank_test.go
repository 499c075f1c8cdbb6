package main

import "testing"

func TestKeyboardBank_EveryOrdinalUnimplemented(t *testing.T) {
	k := NewKeyboardBank()
	if k.Name() != "KEYBOARD" {
		t.Fatalf("Name() = %q, want KEYBOARD", k.Name())
	}
	if _, ok := k.ArgumentBytes(0); ok {
		t.Fatal("expected no known ordinal argument sizes")
	}
	err := k.Call(0, newTestAccessor())
	if _, ok := err.(*UnimplementedSyscallError); !ok {
		t.Fatalf("Call(0) = %v, want *UnimplementedSyscallError", err)
	}
}
