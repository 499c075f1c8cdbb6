// relocations.go - Fix-up chain walking and relocation application

/*
relocations.go applies a segment's relocation records against guest
memory once that segment's bytes are in place, grounded on main.rs's
process_segment_table (chain walking) and perform_relocations (the
actual memory writes). ImportOrdinal records resolve through a
module's stub generator; InternalRef records resolve either directly
to a segment the loader already assigned a base for, or indirectly
through the entry table when the reference source marks the target
segment 0xFF ("this is a movable export, look up its real segment via
the entry table").

Import Name and OS Fixup relocation variants are recognized (the
record shape is parsed so the fix-up chain walk stays in sync) but
perform no write, matching the reference — real NE guests built by the
standard Windows 3.x linker toolchain do not emit either variant for
ordinary KERNEL/USER/GDI imports, so there is no observed guest
behavior to pin a write semantics to (open question, §9).
*/

package main

import "fmt"

type relocationKind int

const (
	relocationImportOrdinal relocationKind = iota
	relocationInternalRef
	relocationImportName
	relocationOSFixup
)

// relocationRecord is one fix-up chain plus the target it resolves to.
type relocationRecord struct {
	kind       relocationKind
	locations  []uint16
	sourceType byte

	// ImportOrdinal fields.
	moduleRefIndex   uint16
	procedureOrdinal uint16

	// InternalRef fields.
	segmentNumber byte
	parameter     uint16
}

// moduleReferenceTable is the ordered list of module bindings an NE
// file's module-reference table names, indexed 1-based the way
// ImportOrdinal's module_ref_index refers to it.
type moduleReferenceTable struct {
	modules []*ModuleBinding
}

func (t *moduleReferenceTable) module(index uint16) (*ModuleBinding, error) {
	if index >= 1 && int(index) <= len(t.modules) {
		return t.modules[index-1], nil
	}
	return nil, &OutOfBoundsError{Operation: "module_reference_table", Address: uint32(index), Limit: uint32(len(t.modules))}
}

// entryTableEntry is one ordinal's resolved (segment, offset) target.
type entryTableEntry struct {
	offset        uint16
	segmentNumber byte
}

type entryTable struct {
	entries map[uint16]entryTableEntry
}

func (t *entryTable) get(ordinal uint16) (entryTableEntry, bool) {
	e, ok := t.entries[ordinal]
	return e, ok
}

// performRelocations applies every relocation record belonging to one
// segment, writing resolved far-pointer/segment/offset words at each
// chained fix-up location inside that segment's image.
func performRelocations(mem *Memory, segmentFlatBase uint32, modules *moduleReferenceTable, entries *entryTable, segments []*neSegment, relocations []relocationRecord) error {
	for _, reloc := range relocations {
		switch reloc.kind {
		case relocationImportOrdinal:
			module, err := modules.module(reloc.moduleRefIndex)
			if err != nil {
				return err
			}
			target, err := module.Procedure(mem, reloc.procedureOrdinal)
			if err != nil {
				return err
			}
			for _, offset := range reloc.locations {
				flat := segmentFlatBase + uint32(offset)
				if reloc.sourceType == 3 {
					if err := mem.Write16(flat, target.Offset); err != nil {
						return err
					}
					if err := mem.Write16(flat+2, target.Segment); err != nil {
						return err
					}
				}
				// Other source types on an import ordinal: no write,
				// matching the reference.
			}

		case relocationInternalRef:
			var segmentValue, offsetWithinSegment uint16
			if reloc.segmentNumber == 0xFF {
				entry, ok := entries.get(reloc.parameter)
				if !ok {
					return &OutOfBoundsError{Operation: "entry_table", Address: uint32(reloc.parameter), Limit: 0}
				}
				if int(entry.segmentNumber) < 1 || int(entry.segmentNumber) > len(segments) {
					return &FormatError{Operation: "internal_ref", Details: fmt.Sprintf("entry table segment %d out of range", entry.segmentNumber)}
				}
				segmentValue = segments[entry.segmentNumber-1].segmentValue
				offsetWithinSegment = entry.offset
			} else {
				if int(reloc.segmentNumber) < 1 || int(reloc.segmentNumber) > len(segments) {
					return &FormatError{Operation: "internal_ref", Details: fmt.Sprintf("segment number %d out of range", reloc.segmentNumber)}
				}
				segmentValue = segments[reloc.segmentNumber-1].segmentValue
				offsetWithinSegment = reloc.parameter
			}

			for _, offset := range reloc.locations {
				flat := segmentFlatBase + uint32(offset)
				switch reloc.sourceType {
				case 2:
					if err := mem.Write16(flat, segmentValue); err != nil {
						return err
					}
				case 5:
					if err := mem.Write16(flat, offsetWithinSegment); err != nil {
						return err
					}
				}
			}

		case relocationImportName, relocationOSFixup:
			// Recognized, no write: see file header comment.
		}
	}
	return nil
}
