package dwarf

import (
	"fmt"
	"io"

	"calsym/elf"
)

// The dwarf 5 .debug_str_offsets section.  Each compile unit addresses
// a contiguous table of 4-byte .debug_str offsets starting at its
// DW_AT_str_offsets_base.
type StringOffsetsSection struct {
	found   bool
	content []byte

	file *elf.File
}

func NewStringOffsetsSection(file *elf.File) (*StringOffsetsSection, error) {
	section, found := file.GetSection(ElfDebugStringOffsetsSection)

	var content []byte
	if found {
		var err error
		content, err = section.RawContent()
		if err != nil {
			return nil, fmt.Errorf(
				"failed to read %s section from elf: %w",
				ElfDebugStringOffsetsSection,
				err)
		}
	}

	return &StringOffsetsSection{
		found:   found,
		content: content,
		file:    file,
	}, nil
}

func (section *StringOffsetsSection) StringOffsetAt(
	base SectionOffset,
	index uint64,
) (
	SectionOffset,
	error,
) {
	if !section.found {
		return 0, fmt.Errorf(
			"elf %s %w",
			ElfDebugStringOffsetsSection,
			ErrSectionNotFound)
	}

	decode := NewCursor(section.file.ByteOrder, section.content)
	_, err := decode.Seek(int(base)+4*int(index), io.SeekStart)
	if err != nil {
		return 0, fmt.Errorf("out of bound string offset index (%d)", index)
	}

	offset, err := decode.U32()
	if err != nil {
		return 0, fmt.Errorf("failed to read string offset (%d): %w", index, err)
	}

	return SectionOffset(offset), nil
}
