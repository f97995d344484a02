package dwarf

import (
	"errors"
	"fmt"

	"calsym/elf"
)

// Reference attribute value
type DebugInfoEntryReference struct {
	*File
	SectionOffset
}

func (ref DebugInfoEntryReference) String() string {
	return fmt.Sprintf("DIE@%08x", ref.SectionOffset)
}

func newDebugInfoEntryReference(
	file *File,
	offset SectionOffset,
) *DebugInfoEntryReference {
	return &DebugInfoEntryReference{
		File:          file,
		SectionOffset: offset,
	}
}

func (ref DebugInfoEntryReference) Get() (*DebugInfoEntry, error) {
	entry, err := ref.File.EntryAt(ref.SectionOffset)
	if err != nil {
		return nil, fmt.Errorf(
			"failed to get referenced entry (%d): %w",
			ref.SectionOffset,
			err)
	}
	return entry, nil
}

type DebugInfoEntry struct {
	*CompileUnit
	SectionOffset

	*Abbreviation
	Values []interface{}

	Children []*DebugInfoEntry
}

func parseDebugInfoEntry(
	unit *CompileUnit,
	abbrevTable AbbreviationTable,
	decode *Cursor,
) (
	uint64,
	*DebugInfoEntry,
	error,
) {
	startAddr := unit.ContentStart + SectionOffset(decode.Position)

	code, err := decode.ULEB128(64)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to parse DIE. invalid code: %w", err)
	}

	if code == 0 {
		return 0, nil, nil
	}

	abbrev, ok := abbrevTable[code]
	if !ok {
		return 0, nil, fmt.Errorf(
			"failed to parse DIE. abbreviation (%d) not found",
			code)
	}

	values := make([]interface{}, 0, len(abbrev.AttributeSpecs))
	for _, spec := range abbrev.AttributeSpecs {
		if spec.Format == DW_FORM_implicit_const {
			// No encoded value bytes. The value lives in the spec.
			values = append(values, spec.ImplicitConst)
			continue
		}

		value, err := decode.Value(unit, spec.Format)
		if err != nil {
			return 0, nil, err
		}
		values = append(values, value)
	}

	entry := &DebugInfoEntry{
		CompileUnit:   unit,
		SectionOffset: startAddr,
		Abbreviation:  abbrev,
		Values:        values,
	}

	return code, entry, nil
}

func (entry *DebugInfoEntry) SpecIndex(attr Attribute) int {
	for idx, spec := range entry.AttributeSpecs {
		if attr == spec.Attribute {
			return idx
		}
	}
	return -1
}

func (entry *DebugInfoEntry) Any(attr Attribute) (interface{}, bool) {
	idx := entry.SpecIndex(attr)
	if idx == -1 {
		return nil, false
	}
	return entry.Values[idx], true
}

func (entry *DebugInfoEntry) Address(
	attr Attribute,
) (
	elf.FileAddress,
	bool,
) {
	val, ok := entry.Any(attr)
	if !ok {
		return 0, false
	}

	switch addr := val.(type) {
	case elf.FileAddress:
		return addr, true
	case AddressIndex:
		resolved, err := entry.CompileUnit.AddressAtIndex(uint64(addr))
		if err != nil {
			return 0, false
		}
		return resolved, true
	default:
		return 0, false
	}
}

func (entry *DebugInfoEntry) Offset(attr Attribute) (SectionOffset, bool) {
	val, ok := entry.Any(attr)
	if !ok {
		return 0, false
	}
	offset, ok := val.(SectionOffset)
	return offset, ok
}

func (entry *DebugInfoEntry) Bool(attr Attribute) (bool, bool) {
	val, ok := entry.Any(attr)
	if !ok {
		return false, false
	}
	flag, ok := val.(bool)
	return flag, ok
}

func (entry *DebugInfoEntry) Uint(attr Attribute) (uint64, bool) {
	val, ok := entry.Any(attr)
	if !ok {
		return 0, false
	}

	// Producers are inconsistent about constant forms. gcc emits
	// DW_FORM_sdata for some member offsets and enum values.
	switch num := val.(type) {
	case uint64:
		return num, true
	case int64:
		return uint64(num), true
	default:
		return 0, false
	}
}

func (entry *DebugInfoEntry) Int(attr Attribute) (int64, bool) {
	val, ok := entry.Any(attr)
	if !ok {
		return 0, false
	}

	switch num := val.(type) {
	case int64:
		return num, true
	case uint64:
		return int64(num), true
	default:
		return 0, false
	}
}

func (entry *DebugInfoEntry) Bytes(attr Attribute) ([]byte, bool) {
	val, ok := entry.Any(attr)
	if !ok {
		return nil, false
	}
	raw, ok := val.([]byte)
	return raw, ok
}

func (entry *DebugInfoEntry) String(attr Attribute) (string, bool) {
	val, ok := entry.Any(attr)
	if !ok {
		return "", false
	}

	switch str := val.(type) {
	case string:
		return str, true
	case StringIndex:
		resolved, err := entry.CompileUnit.StringAtIndex(uint64(str))
		if err != nil {
			return "", false
		}
		return resolved, true
	default:
		return "", false
	}
}

func (entry *DebugInfoEntry) Reference(
	attr Attribute,
) (
	*DebugInfoEntryReference,
	bool,
) {
	val, ok := entry.Any(attr)
	if !ok {
		return nil, false
	}
	ref, ok := val.(*DebugInfoEntryReference)
	return ref, ok
}

func (entry *DebugInfoEntry) Name() (
	string,
	bool, // false if not found
	error,
) {
	refIdx := -1
	for idx, spec := range entry.AttributeSpecs {
		if spec.Attribute == DW_AT_name {
			name, ok := entry.String(DW_AT_name)
			return name, ok, nil
		} else if spec.Attribute == DW_AT_specification {
			// Current entry is a declaration. The real definition is in the
			// referenced entry.
			refIdx = idx
		} else if spec.Attribute == DW_AT_abstract_origin {
			// Current entry is an inlined instance, the referenced entry is
			// the abstract entry it instantiates.
			refIdx = idx
		}
	}

	if refIdx == -1 {
		return "", false, nil
	}

	ref, ok := entry.Values[refIdx].(*DebugInfoEntryReference)
	if !ok {
		return "", false, nil
	}

	refEntry, err := ref.Get()
	if err != nil {
		return "", false, err
	}

	return refEntry.Name()
}

func (entry *DebugInfoEntry) TypeEntry() (*DebugInfoEntry, error) {
	ref, ok := entry.Reference(DW_AT_type)
	if !ok {
		return nil, fmt.Errorf("type entry not found")
	}

	return ref.Get()
}

// StaticAddress extracts the link-time address from a variable entry's
// location expression. Only entries with a trivial [DW_OP_addr <addr>]
// expression have a static address; stack and register located
// variables do not.
func (entry *DebugInfoEntry) StaticAddress() (elf.FileAddress, bool) {
	idx := entry.SpecIndex(DW_AT_location)
	if idx == -1 {
		return 0, false
	}

	expression, ok := entry.Values[idx].([]byte)
	if !ok {
		return 0, false
	}

	if len(expression) == 0 {
		return 0, false
	}

	decode := NewCursor(entry.ByteOrder, expression[1:])

	switch expression[0] {
	case DW_OP_addr:
		address, err := decode.Address(entry.CompileUnit.AddressSize)
		if err != nil || !decode.HasReachedEnd() {
			return 0, false
		}
		return elf.FileAddress(address), true

	case DW_OP_addrx:
		index, err := decode.ULEB128(64)
		if err != nil || !decode.HasReachedEnd() {
			return 0, false
		}

		address, err := entry.CompileUnit.AddressAtIndex(index)
		if err != nil {
			return 0, false
		}
		return address, true

	default:
		return 0, false
	}
}

// MemberOffset returns a member entry's byte offset within its parent
// composite. dwarf 2 encodes the offset as a location expression
// [DW_OP_plus_uconst <offset>] rather than a constant.
func (entry *DebugInfoEntry) MemberOffset() (uint64, bool) {
	offset, ok := entry.Uint(DW_AT_data_member_location)
	if ok {
		return offset, true
	}

	expression, ok := entry.Bytes(DW_AT_data_member_location)
	if !ok || len(expression) == 0 || expression[0] != DW_OP_plus_uconst {
		return 0, false
	}

	decode := NewCursor(entry.ByteOrder, expression[1:])
	offset, err := decode.ULEB128(64)
	if err != nil || !decode.HasReachedEnd() {
		return 0, false
	}

	return offset, true
}

func (entry *DebugInfoEntry) Visit(enter ProcessFunc, exit ProcessFunc) error {
	skipVisitingChildren := false
	if enter != nil {
		err := enter(entry)
		if err != nil {
			if errors.Is(err, ErrSkipVisitingChildren) {
				skipVisitingChildren = true
			} else {
				return err
			}
		}
	}

	if !skipVisitingChildren {
		for _, child := range entry.Children {
			err := child.Visit(enter, exit)
			if err != nil {
				return err
			}
		}
	}

	if exit != nil {
		err := exit(entry)
		if err != nil {
			return err
		}
	}

	return nil
}
