// loader.go - MZ+NE header parsing, segment layout, and relocation driver

/*
loader.go is the Go counterpart of the Rust reference's main.rs
(process_file_mz/process_file_ne/process_segment_table/
process_module_reference_table/process_entry_table/perform_relocations),
restructured as a single LoadNE entry point returning a LoadResult
instead of main.rs's "parse a few fields, print them, hardcode a
layout" script. Two differences from the reference are deliberate:

 1. Every segment in the segment table gets copied into memory and
    assigned a base through segmentAllocator (§9's open question on
    segment layout), not just whichever segments happen to hold CS and
    DS; the reference only handles two hardcoded segments and leaves
    "handle all segments" as a TODO.
 2. A module name the loader doesn't recognize still gets a
    ModuleBinding (backed by unknownBank from module.go) so the
    module-reference table's index alignment with ImportOrdinal
    relocations is never off by a skipped slot, rather than silently
    omitting the unmatched entry the reference does.
*/

package main

import (
	"encoding/binary"
	"fmt"
	"strings"
)

// neReader is a cursor-based view over a guest executable's raw
// bytes, mirroring the reference's Executable: every read is relative
// to the current cursor, and seek_from_start/seek_from_here/
// restore_cursor let a parser dip into a side table and come back.
type neReader struct {
	data   []byte
	cursor int
}

func newNEReader(data []byte) *neReader {
	return &neReader{data: data}
}

func (r *neReader) seekFromStart(offset int) (int, error) {
	if offset < 0 || offset >= len(r.data) {
		return 0, &FormatError{Operation: "seek", Details: fmt.Sprintf("offset 0x%X out of range", offset)}
	}
	old := r.cursor
	r.cursor = offset
	return old, nil
}

func (r *neReader) seekFromHere(offset int) (int, error) {
	return r.seekFromStart(r.cursor + offset)
}

func (r *neReader) restore(old int) { r.cursor = old }

func (r *neReader) u8(offset int) (byte, error) {
	idx := r.cursor + offset
	if idx < 0 || idx >= len(r.data) {
		return 0, &FormatError{Operation: "read_u8", Details: fmt.Sprintf("offset 0x%X out of range", idx)}
	}
	return r.data[idx], nil
}

func (r *neReader) u16(offset int) (uint16, error) {
	idx := r.cursor + offset
	if idx < 0 || idx+2 > len(r.data) {
		return 0, &FormatError{Operation: "read_u16", Details: fmt.Sprintf("offset 0x%X out of range", idx)}
	}
	return binary.LittleEndian.Uint16(r.data[idx : idx+2]), nil
}

func (r *neReader) slice(offset, length int) ([]byte, error) {
	start := r.cursor + offset
	if start < 0 || start+length > len(r.data) {
		return nil, &FormatError{Operation: "slice", Details: fmt.Sprintf("range [0x%X,0x%X) out of bounds", start, start+length)}
	}
	return r.data[start : start+length], nil
}

func (r *neReader) validateMagic(offset int, magic [2]byte) error {
	a, err := r.u8(offset)
	if err != nil {
		return err
	}
	b, err := r.u8(offset + 1)
	if err != nil {
		return err
	}
	if a != magic[0] || b != magic[1] {
		return &FormatError{Operation: "validate_magic", Details: fmt.Sprintf("expected %q", string(magic[:]))}
	}
	return nil
}

func mapZeroTo64K(v uint16) uint32 {
	if v == 0 {
		return 65536
	}
	return uint32(v)
}

// LoadResult is everything the interpreter needs to start running a
// freshly loaded guest task.
type LoadResult struct {
	Memory  *Memory
	CS, IP  uint16
	SS, SP  uint16
	DS      uint16
	Modules *moduleReferenceTable
}

// LoadNE parses an MZ+NE guest executable, lays out its segments in
// guest memory, writes import stubs for KERNEL/USER/GDI/KEYBOARD
// calls, and applies every segment's relocations.
func LoadNE(data []byte, kernel, user, gdi, keyboard Bank) (*LoadResult, error) {
	r := newNEReader(data)

	if err := r.validateMagic(0, [2]byte{'M', 'Z'}); err != nil {
		return nil, err
	}
	neHeaderOffset, err := r.u16(0x3C)
	if err != nil {
		return nil, err
	}

	if _, err := r.seekFromStart(int(neHeaderOffset)); err != nil {
		return nil, err
	}
	if err := r.validateMagic(0, [2]byte{'N', 'E'}); err != nil {
		return nil, err
	}

	appFlags, err := r.u8(0x0D)
	if err != nil {
		return nil, err
	}
	if appFlags&0b11101000 != 0 {
		return nil, &FormatError{Operation: "validate_application_flags", Details: fmt.Sprintf("unsupported flags 0x%02X", appFlags)}
	}

	targetOS, err := r.u8(0x36)
	if err != nil {
		return nil, err
	}
	if targetOS != 0 && targetOS != 2 && targetOS != 4 {
		return nil, &FormatError{Operation: "validate_target_operating_system", Details: fmt.Sprintf("unsupported OS byte 0x%02X", targetOS)}
	}

	entryTableOffset, err := r.u16(0x04)
	if err != nil {
		return nil, err
	}
	entryTableBytes, err := r.u16(0x06)
	if err != nil {
		return nil, err
	}
	segmentCount, err := r.u16(0x1C)
	if err != nil {
		return nil, err
	}
	moduleRefCount, err := r.u16(0x1E)
	if err != nil {
		return nil, err
	}
	segmentTableOffset, err := r.u16(0x22)
	if err != nil {
		return nil, err
	}
	moduleRefTableOffset, err := r.u16(0x28)
	if err != nil {
		return nil, err
	}
	importedNameTableOffset, err := r.u16(0x2A)
	if err != nil {
		return nil, err
	}
	alignShiftRaw, err := r.u16(0x32)
	if err != nil {
		return nil, err
	}
	alignShift := uint(alignShiftRaw)
	if alignShift == 0 {
		alignShift = 9
	}

	cs, err := r.u16(0x16)
	if err != nil {
		return nil, err
	}
	ip, err := r.u16(0x14)
	if err != nil {
		return nil, err
	}
	ds, err := r.u16(0x0E)
	if err != nil {
		return nil, err
	}
	ss, err := r.u16(0x1A)
	if err != nil {
		return nil, err
	}
	sp, err := r.u16(0x18)
	if err != nil {
		return nil, err
	}

	alloc := NewSegmentAllocator()

	modules, err := loadModuleReferenceTable(r, int(moduleRefTableOffset), int(importedNameTableOffset), moduleRefCount, alloc, kernel, user, gdi, keyboard)
	if err != nil {
		return nil, err
	}

	entries, err := loadEntryTable(r, int(entryTableOffset), int(entryTableBytes))
	if err != nil {
		return nil, err
	}

	segments, err := loadSegmentTable(r, int(segmentTableOffset), int(segmentCount), alignShift)
	if err != nil {
		return nil, err
	}

	if err := validateSegmentIndexAndOffset(segments, cs, ip); err != nil {
		return nil, err
	}
	if err := validateSegmentIndexAndOffset(segments, ss, sp); err != nil {
		return nil, err
	}

	mem := NewMemory()

	for _, seg := range segments {
		base, ok := alloc.Allocate(seg.minAllocSize)
		if !ok {
			return nil, &FormatError{Operation: "segment_layout", Details: "guest address space exhausted"}
		}
		seg.segmentValue = base
		seg.flatBase = uint32(base) << 4

		body, err := r.slice(int(seg.logicalSectorOffset)-r.cursor, int(seg.lengthInFile))
		if err != nil {
			return nil, err
		}
		if err := mem.CopyFrom(seg.flatBase, body); err != nil {
			return nil, err
		}
	}

	for _, seg := range segments {
		if err := performRelocations(mem, seg.flatBase, modules, entries, segments, seg.relocations); err != nil {
			return nil, err
		}
	}

	return &LoadResult{
		Memory:  mem,
		CS:      segments[cs-1].segmentValue,
		IP:      ip,
		SS:      segments[ss-1].segmentValue,
		SP:      sp,
		DS:      segments[ds-1].segmentValue,
		Modules: modules,
	}, nil
}

// neSegment is one parsed segment-table entry: its location in the
// file, the base the loader assigned it in guest memory, and its
// relocation records.
type neSegment struct {
	logicalSectorOffset uint32
	lengthInFile         uint32
	minAllocSize         uint32
	relocations          []relocationRecord

	segmentValue uint16
	flatBase     uint32
}

func loadSegmentTable(r *neReader, offsetToSegmentTable, segmentCount int, alignShift uint) ([]*neSegment, error) {
	tableCursor, err := r.seekFromHere(offsetToSegmentTable)
	if err != nil {
		return nil, err
	}
	defer r.restore(tableCursor)

	segments := make([]*neSegment, 0, segmentCount)
	for i := 0; i < segmentCount; i++ {
		byteOffset := i * 8

		logicalSectorOffsetRaw, err := r.u16(byteOffset)
		if err != nil {
			return nil, err
		}
		logicalSectorOffset := uint32(logicalSectorOffsetRaw) << alignShift

		lengthRaw, err := r.u16(byteOffset + 2)
		if err != nil {
			return nil, err
		}
		lengthInFile := mapZeroTo64K(lengthRaw)

		flags, err := r.u16(byteOffset + 4)
		if err != nil {
			return nil, err
		}

		minAllocRaw, err := r.u16(byteOffset + 6)
		if err != nil {
			return nil, err
		}
		minAllocSize := mapZeroTo64K(minAllocRaw)

		var relocations []relocationRecord
		if flags&0x100 == 0x100 {
			relocations, err = loadRelocations(r, int(logicalSectorOffset), int(lengthInFile))
			if err != nil {
				return nil, err
			}
		}

		segments = append(segments, &neSegment{
			logicalSectorOffset: logicalSectorOffset,
			lengthInFile:         lengthInFile,
			minAllocSize:         minAllocSize,
			relocations:          relocations,
		})
	}
	return segments, nil
}

// loadRelocations parses the relocation record table that follows a
// segment's body (logicalSectorOffset+lengthInFile) and, for each
// record, walks its fix-up chain rooted in the segment's own image.
func loadRelocations(r *neReader, segmentStart, segmentLength int) ([]relocationRecord, error) {
	relocCursor, err := r.seekFromStart(segmentStart + segmentLength)
	if err != nil {
		return nil, err
	}
	defer r.restore(relocCursor)

	count, err := r.u16(0)
	if err != nil {
		return nil, err
	}

	records := make([]relocationRecord, 0, count)
	for i := 0; i < int(count); i++ {
		byteOffset := 2 + i*8

		sourceType, err := r.u8(byteOffset)
		if err != nil {
			return nil, err
		}
		flags, err := r.u8(byteOffset + 1)
		if err != nil {
			return nil, err
		}
		chainHead, err := r.u16(byteOffset + 2)
		if err != nil {
			return nil, err
		}

		locations, err := walkFixupChain(r, segmentStart, chainHead, flags&4 != 0)
		if err != nil {
			return nil, err
		}

		switch flags & 3 {
		case 0: // InternalRef
			segmentNumber, err := r.u8(byteOffset + 4)
			if err != nil {
				return nil, err
			}
			parameter, err := r.u16(byteOffset + 6)
			if err != nil {
				return nil, err
			}
			records = append(records, relocationRecord{
				kind:          relocationInternalRef,
				locations:     locations,
				sourceType:    sourceType,
				segmentNumber: segmentNumber,
				parameter:     parameter,
			})
		case 1: // ImportOrdinal
			moduleRefIndex, err := r.u16(byteOffset + 4)
			if err != nil {
				return nil, err
			}
			procedureOrdinal, err := r.u16(byteOffset + 6)
			if err != nil {
				return nil, err
			}
			records = append(records, relocationRecord{
				kind:             relocationImportOrdinal,
				locations:        locations,
				sourceType:       sourceType,
				moduleRefIndex:   moduleRefIndex,
				procedureOrdinal: procedureOrdinal,
			})
		case 2: // ImportName
			records = append(records, relocationRecord{kind: relocationImportName, locations: locations, sourceType: sourceType})
		case 3: // OSFixup
			records = append(records, relocationRecord{kind: relocationOSFixup, locations: locations, sourceType: sourceType})
		}
	}
	return records, nil
}

// walkFixupChain follows the linked list of fix-up sites rooted at
// head, inside the segment starting at segmentStart: each node's next
// pointer is either an absolute replacement (additive=false) or a
// delta added to the current offset (additive=true), terminated by
// 0xFFFF, or by a zero delta when additive.
func walkFixupChain(r *neReader, segmentStart int, head uint16, additive bool) ([]uint16, error) {
	cursor, err := r.seekFromStart(segmentStart)
	if err != nil {
		return nil, err
	}
	defer r.restore(cursor)

	var locations []uint16
	offset := head
	for {
		locations = append(locations, offset)
		next, err := r.u16(int(offset))
		if err != nil {
			return nil, err
		}
		if next == 0xFFFF {
			break
		}
		if additive {
			if next == 0 {
				break
			}
			offset += next
		} else {
			offset = next
		}
	}
	return locations, nil
}

func validateSegmentIndexAndOffset(segments []*neSegment, segment, offset uint16) error {
	if segment < 1 || int(segment) > len(segments) {
		return &FormatError{Operation: "validate_segment_index", Details: fmt.Sprintf("segment %d out of range", segment)}
	}
	if uint32(offset) >= segments[segment-1].minAllocSize {
		return &FormatError{Operation: "validate_segment_offset", Details: fmt.Sprintf("offset 0x%X out of range for segment %d", offset, segment)}
	}
	return nil
}

// knownModuleStubSpace is how much stub address space the loader
// reserves per module-reference slot, recognized or not, generous enough for every ordinal a
// guest's import table can name without the four modules' stub
// regions overlapping.
const knownModuleStubSpace = 0x10000

func loadModuleReferenceTable(r *neReader, offsetToModuleRefTable, offsetToImportedNameTable int, moduleRefCount uint16, alloc *SegmentAllocator, kernel, user, gdi, keyboard Bank) (*moduleReferenceTable, error) {
	table := &moduleReferenceTable{modules: make([]*ModuleBinding, 0, moduleRefCount)}

	for i := uint16(0); i < moduleRefCount; i++ {
		nameOffsetInTable, err := r.u16(offsetToModuleRefTable + int(i)*2)
		if err != nil {
			return nil, err
		}
		startOffset := offsetToImportedNameTable + int(nameOffsetInTable)
		nameLength, err := r.u8(startOffset)
		if err != nil {
			return nil, err
		}
		nameBytes, err := r.slice(startOffset+1, int(nameLength))
		if err != nil {
			return nil, err
		}
		name := strings.ToUpper(string(nameBytes))

		paragraph, ok := alloc.Allocate(knownModuleStubSpace)
		if !ok {
			return nil, &FormatError{Operation: "module_reference_table", Details: "guest address space exhausted"}
		}
		flatAddress := uint32(paragraph) << 4

		var vector byte
		var bank Bank
		switch name {
		case "KERNEL":
			vector, bank = KernelIntVector, kernel
		case "USER":
			vector, bank = UserIntVector, user
		case "GDI":
			vector, bank = GdiIntVector, gdi
		case "KEYBOARD":
			vector, bank = KeyboardIntVector, keyboard
		default:
			bank = &unknownBank{name: name}
		}

		table.modules = append(table.modules, NewModuleBinding(name, vector, flatAddress, bank))
	}
	return table, nil
}

// movableEntryMagic is the 16-bit word every movable entry-table
// bundle entry carries ahead of its real segment/offset pair.
const movableEntryMagic = 0x3FCD

func loadEntryTable(r *neReader, offsetToEntryTable, entryTableBytes int) (*entryTable, error) {
	cursor, err := r.seekFromHere(offsetToEntryTable)
	if err != nil {
		return nil, err
	}
	defer r.restore(cursor)

	table := &entryTable{entries: make(map[uint16]entryTableEntry)}

	offset := 0
	ordinalIndex := uint16(1)
	for offset < entryTableBytes {
		numberOfEntries, err := r.u8(offset)
		if err != nil {
			return nil, err
		}
		if numberOfEntries == 0 {
			break
		}
		segmentIndicator, err := r.u8(offset + 1)
		if err != nil {
			return nil, err
		}
		offset += 2
		if segmentIndicator == 0 {
			ordinalIndex += uint16(numberOfEntries)
			continue
		}

		for n := byte(0); n < numberOfEntries; n++ {
			if segmentIndicator == 0xFF {
				segmentNumber, err := r.u8(offset + 3)
				if err != nil {
					return nil, err
				}
				entryOffset, err := r.u16(offset + 4)
				if err != nil {
					return nil, err
				}
				table.entries[ordinalIndex] = entryTableEntry{offset: entryOffset, segmentNumber: segmentNumber}
				offset += 6
			} else {
				entryOffset, err := r.u16(offset + 1)
				if err != nil {
					return nil, err
				}
				table.entries[ordinalIndex] = entryTableEntry{offset: entryOffset, segmentNumber: segmentIndicator}
				offset += 3
			}
			ordinalIndex++
		}
	}
	return table, nil
}
