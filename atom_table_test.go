package main

import "testing"

// TestAtomTable_NoImplicitDedup walks the register/reregister/deregister
// sequence: registering the same name twice must yield two distinct,
// independently live atoms, and deregistering one must not disturb the
// other's entry.
func TestAtomTable_NoImplicitDedup(t *testing.T) {
	cases := []struct {
		name string
		run  func(t *testing.T, at *AtomTable)
	}{
		{
			name: "duplicate registration yields distinct atoms",
			run: func(t *testing.T, at *AtomTable) {
				a1, ok := at.Add("BUTTON")
				if !ok {
					t.Fatal("first Add failed")
				}
				a2, ok := at.Add("BUTTON")
				if !ok {
					t.Fatal("second Add failed")
				}
				if a1 == a2 {
					t.Fatalf("Add(\"BUTTON\") twice returned the same atom %d; expected distinct atoms (no implicit dedup)", a1)
				}
				if s, ok := at.Get(a1); !ok || s != "BUTTON" {
					t.Fatalf("Get(a1) = %q, %v; want \"BUTTON\", true", s, ok)
				}
				if s, ok := at.Get(a2); !ok || s != "BUTTON" {
					t.Fatalf("Get(a2) = %q, %v; want \"BUTTON\", true", s, ok)
				}
			},
		},
		{
			name: "both atoms independently deregisterable",
			run: func(t *testing.T, at *AtomTable) {
				a1, _ := at.Add("EDIT")
				a2, _ := at.Add("EDIT")
				if !at.Delete(a1) {
					t.Fatal("Delete(a1) failed")
				}
				if _, ok := at.Get(a1); ok {
					t.Fatal("a1 still resolves after Delete")
				}
				if s, ok := at.Get(a2); !ok || s != "EDIT" {
					t.Fatalf("a2 should still be live after deleting a1, got %q, %v", s, ok)
				}
				if !at.Delete(a2) {
					t.Fatal("Delete(a2) failed")
				}
			},
		},
		{
			name: "deregister then reregister reissues a fresh atom",
			run: func(t *testing.T, at *AtomTable) {
				a, ok := at.Add("LISTBOX")
				if !ok {
					t.Fatal("Add failed")
				}
				if !at.Delete(a) {
					t.Fatal("Delete failed")
				}
				if _, ok := at.Find("LISTBOX"); ok {
					t.Fatal("Find should miss after the only atom for LISTBOX was deregistered")
				}
				a2, ok := at.Add("LISTBOX")
				if !ok {
					t.Fatal("reregistration failed")
				}
				if s, ok := at.Get(a2); !ok || s != "LISTBOX" {
					t.Fatalf("Get(a2) = %q, %v; want \"LISTBOX\", true", s, ok)
				}
			},
		},
		{
			name: "Find reports the most recently registered atom",
			run: func(t *testing.T, at *AtomTable) {
				a1, _ := at.Add("STATIC")
				a2, _ := at.Add("STATIC")
				found, ok := at.Find("STATIC")
				if !ok {
					t.Fatal("Find missed a registered name")
				}
				if found != a2 {
					t.Fatalf("Find returned %d, want the newest atom %d (a1=%d)", found, a2, a1)
				}
			},
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			c.run(t, NewAtomTable())
		})
	}
}

// TestAtomTable_FindMissUnregistered confirms Find never registers as
// a side effect.
func TestAtomTable_FindMissUnregistered(t *testing.T) {
	at := NewAtomTable()
	if _, ok := at.Find("SCROLLBAR"); ok {
		t.Fatal("Find hit on a name that was never Added")
	}
}
