package dwarf

import (
	"fmt"

	"calsym/elf"
)

type AttributeSpec struct {
	Attribute
	Format

	// Only meaningful when Format is DW_FORM_implicit_const.  The value
	// lives in the abbreviation table rather than the info stream.
	ImplicitConst int64
}

type Abbreviation struct {
	Code uint64
	Tag
	HasChildren    bool
	AttributeSpecs []AttributeSpec
}

type AbbreviationTable map[uint64]*Abbreviation

type AbbreviationSection struct {
	AbbreviationTables map[SectionOffset]AbbreviationTable
}

func NewAbbreviationSection(file *elf.File) (*AbbreviationSection, error) {
	section, ok := file.GetSection(ElfDebugAbbreviationSection)
	if !ok {
		return nil, fmt.Errorf("elf .debug_abbrev %w", ErrSectionNotFound)
	}

	content, err := section.RawContent()
	if err != nil {
		return nil, fmt.Errorf("failed to read elf .debug_abbrev section: %w", err)
	}

	tables := map[SectionOffset]AbbreviationTable{}

	decode := NewCursor(file.ByteOrder, content)
	for !decode.HasReachedEnd() {
		tableId := SectionOffset(decode.Position)
		table := AbbreviationTable{}

		for {
			code, err := decode.ULEB128(64)
			if err != nil {
				return nil, fmt.Errorf(
					"failed to parse abbreviation. invalid code: %w",
					err)
			}

			if code == 0 {
				break
			}

			tag, err := decode.ULEB128(64)
			if err != nil {
				return nil, fmt.Errorf(
					"failed to parse abbreviation. invalid tag: %w",
					err)
			}

			hasChildren, err := decode.U8()
			if err != nil {
				return nil, fmt.Errorf(
					"failed to parse abbreviation. invalid hasChildren: %w",
					err)
			}

			var specs []AttributeSpec
			for {
				attribute, err := decode.ULEB128(64)
				if err != nil {
					return nil, fmt.Errorf(
						"failed to parse abbreviation. invalid attribute: %w",
						err)
				}

				format, err := decode.ULEB128(64)
				if err != nil {
					return nil, fmt.Errorf(
						"failed to parse abbreviation. invalid format: %w",
						err)
				}

				if attribute == 0 {
					break
				}

				implicitConst := int64(0)
				if Format(format) == DW_FORM_implicit_const {
					implicitConst, err = decode.SLEB128(64)
					if err != nil {
						return nil, fmt.Errorf(
							"failed to parse abbreviation. invalid implicit const: %w",
							err)
					}
				}

				specs = append(
					specs,
					AttributeSpec{
						Attribute:     Attribute(attribute),
						Format:        Format(format),
						ImplicitConst: implicitConst,
					})
			}

			table[code] = &Abbreviation{
				Code:           code,
				Tag:            Tag(tag),
				HasChildren:    hasChildren != 0,
				AttributeSpecs: specs,
			}
		}

		tables[tableId] = table
	}

	return &AbbreviationSection{
		AbbreviationTables: tables,
	}, nil
}
