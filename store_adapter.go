package calsym

import (
	"calsym/dwarf"
	"calsym/elf"
	"calsym/typegraph"
)

// variableInfo is a harvested global: a DW_TAG_variable entry with a
// static DW_OP_addr location.  Stack and register located variables
// have no layout to reconstruct and are skipped.
type variableInfo struct {
	name    string
	address elf.FileAddress
	typeRef typegraph.EntryID
}

var dwarfTagMapping = map[dwarf.Tag]typegraph.Tag{
	dwarf.DW_TAG_base_type:        typegraph.TagBaseType,
	dwarf.DW_TAG_typedef:          typegraph.TagTypedef,
	dwarf.DW_TAG_pointer_type:     typegraph.TagPointer,
	dwarf.DW_TAG_array_type:       typegraph.TagArray,
	dwarf.DW_TAG_subrange_type:    typegraph.TagSubrange,
	dwarf.DW_TAG_structure_type:   typegraph.TagStruct,
	dwarf.DW_TAG_class_type:       typegraph.TagStruct,
	dwarf.DW_TAG_union_type:       typegraph.TagUnion,
	dwarf.DW_TAG_enumeration_type: typegraph.TagEnum,
	dwarf.DW_TAG_enumerator:       typegraph.TagEnumerator,
	dwarf.DW_TAG_member:           typegraph.TagMember,
	dwarf.DW_TAG_subroutine_type:  typegraph.TagSubroutine,
	dwarf.DW_TAG_formal_parameter: typegraph.TagFormalParameter,
	dwarf.DW_TAG_variable:         typegraph.TagVariable,
	dwarf.DW_TAG_const_type:       typegraph.TagQualifier,
	dwarf.DW_TAG_volatile_type:    typegraph.TagQualifier,
	dwarf.DW_TAG_restrict_type:    typegraph.TagQualifier,
	dwarf.DW_TAG_packed_type:      typegraph.TagQualifier,
	dwarf.DW_TAG_shared_type:      typegraph.TagQualifier,
	dwarf.DW_TAG_unspecified_type: typegraph.TagUnspecified,
}

var dwarfEncodingMapping = map[uint64]typegraph.ScalarEncoding{
	dwarf.DW_ATE_boolean:       typegraph.EncodingBool,
	dwarf.DW_ATE_signed:        typegraph.EncodingSigned,
	dwarf.DW_ATE_signed_char:   typegraph.EncodingSignedChar,
	dwarf.DW_ATE_unsigned:      typegraph.EncodingUnsigned,
	dwarf.DW_ATE_unsigned_char: typegraph.EncodingUnsignedChar,
	dwarf.DW_ATE_float:         typegraph.EncodingFloat,
}

type dieConverter struct {
	variables []variableInfo

	// Types declared inside subprogram scopes.  Their containing scope
	// gets no store entry, so they become store roots of their own.
	orphans []*typegraph.Entry
}

// ingestDebugEntries converts the parsed DWARF entry forest into the
// engine's entry store and harvests statically located variables.
func ingestDebugEntries(
	dwarfFile *dwarf.File,
) (
	*typegraph.Store,
	[]variableInfo,
	error,
) {
	converter := &dieConverter{}

	roots := []*typegraph.Entry{}
	for _, unit := range dwarfFile.CompileUnits {
		root, err := unit.Root()
		if err != nil {
			return nil, nil, err
		}

		for _, child := range root.Children {
			converted := converter.convert(child)
			if converted != nil {
				roots = append(roots, converted)
			}
		}
	}

	roots = append(roots, converter.orphans...)

	return typegraph.NewStore(roots...), converter.variables, nil
}

func (converter *dieConverter) convert(
	die *dwarf.DebugInfoEntry,
) *typegraph.Entry {
	tag, ok := dwarfTagMapping[die.Tag]
	if !ok {
		// Subprograms may hold function-static variables and local type
		// declarations; convert their subtree without an entry of their
		// own.
		if die.Tag == dwarf.DW_TAG_subprogram ||
			die.Tag == dwarf.DW_TAG_lexical_block ||
			die.Tag == dwarf.DW_TAG_namespace {

			for _, child := range die.Children {
				converted := converter.convert(child)
				if converted != nil {
					converter.orphans = append(converter.orphans, converted)
				}
			}
		}
		return nil
	}

	entry := &typegraph.Entry{
		ID:    typegraph.EntryID(die.SectionOffset),
		Tag:   tag,
		Attrs: convertAttrs(die),
	}

	if tag == typegraph.TagVariable {
		converter.harvestVariable(die, entry)
	}

	for _, child := range die.Children {
		converted := converter.convert(child)
		if converted != nil {
			entry.Children = append(entry.Children, converted)
		}
	}

	return entry
}

func convertAttrs(die *dwarf.DebugInfoEntry) map[typegraph.Attr]interface{} {
	attrs := map[typegraph.Attr]interface{}{}

	name, ok, err := die.Name()
	if err == nil && ok {
		attrs[typegraph.AttrName] = name
	}

	ref, ok := die.Reference(dwarf.DW_AT_type)
	if ok {
		attrs[typegraph.AttrTypeRef] = typegraph.EntryID(ref.SectionOffset)
	}

	uintAttrs := []struct {
		from dwarf.Attribute
		to   typegraph.Attr
	}{
		{dwarf.DW_AT_byte_size, typegraph.AttrByteSize},
		{dwarf.DW_AT_bit_size, typegraph.AttrBitSize},
		{dwarf.DW_AT_bit_offset, typegraph.AttrBitOffset},
		{dwarf.DW_AT_data_bit_offset, typegraph.AttrDataBitOffset},
		{dwarf.DW_AT_upper_bound, typegraph.AttrUpperBound},
		{dwarf.DW_AT_lower_bound, typegraph.AttrLowerBound},
		{dwarf.DW_AT_count, typegraph.AttrCount},
		{dwarf.DW_AT_byte_stride, typegraph.AttrByteStride},
	}

	for _, mapping := range uintAttrs {
		value, ok := die.Uint(mapping.from)
		if ok {
			attrs[mapping.to] = value
		}
	}

	if die.Tag == dwarf.DW_TAG_member {
		offset, ok := die.MemberOffset()
		if ok {
			attrs[typegraph.AttrDataMemberOffset] = offset
		}
	}

	encoding, ok := die.Uint(dwarf.DW_AT_encoding)
	if ok {
		mapped, known := dwarfEncodingMapping[encoding]
		if known {
			attrs[typegraph.AttrEncoding] = uint64(mapped)
		}
	}

	constValue, ok := die.Int(dwarf.DW_AT_const_value)
	if ok {
		attrs[typegraph.AttrConstValue] = constValue
	}

	external, ok := die.Bool(dwarf.DW_AT_external)
	if ok {
		attrs[typegraph.AttrExternal] = external
	}

	return attrs
}

func (converter *dieConverter) harvestVariable(
	die *dwarf.DebugInfoEntry,
	entry *typegraph.Entry,
) {
	address, ok := die.StaticAddress()
	if !ok {
		return
	}

	entry.Attrs[typegraph.AttrAddress] = uint64(address)

	name, hasName := entry.String(typegraph.AttrName)
	typeRef, hasType := entry.TypeRef()
	if !hasName || !hasType {
		return
	}

	converter.variables = append(
		converter.variables,
		variableInfo{
			name:    name,
			address: address,
			typeRef: typeRef,
		})
}
