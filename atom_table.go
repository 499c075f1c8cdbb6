// atom_table.go - Interned strings for RegisterClass/FindAtom-style lookups

package main

// AtomTable interns byte strings behind small integer handles, the
// way GlobalAddAtom/FindAtom and window-class registration need.
type AtomTable struct {
	table *HandleTable[string]
	byVal map[string]Handle
}

// NewAtomTable builds an empty atom table.
func NewAtomTable() *AtomTable {
	return &AtomTable{
		table: NewHandleTable[string](),
		byVal: make(map[string]Handle),
	}
}

// Add always interns a fresh atom for s, even if s is already
// registered under a different atom: GlobalAddAtom never dedups, so
// registering the same string twice yields two distinct, independently
// deregisterable atoms. byVal is updated to this newest atom, which is
// what Find subsequently reports.
func (t *AtomTable) Add(s string) (Handle, bool) {
	h, ok := t.table.Register(s)
	if !ok {
		return 0, false
	}
	t.byVal[s] = h
	return h, true
}

// Find returns the most recently registered atom for s without
// registering it.
func (t *AtomTable) Find(s string) (Handle, bool) {
	h, ok := t.byVal[s]
	return h, ok
}

// Get returns the string an atom refers to.
func (t *AtomTable) Get(h Handle) (string, bool) {
	return t.table.Get(h)
}

// Delete removes an atom from the table. byVal's name->atom lookup is
// cleared only when the deleted atom is the one it currently points
// to, so deleting an older duplicate atom doesn't clobber Find's
// answer for a still-live newer one.
func (t *AtomTable) Delete(h Handle) bool {
	s, ok := t.table.Get(h)
	if !ok {
		return false
	}
	if t.byVal[s] == h {
		delete(t.byVal, s)
	}
	return t.table.Deregister(h)
}
