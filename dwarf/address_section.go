package dwarf

import (
	"fmt"
	"io"

	"calsym/elf"
)

// The dwarf 5 .debug_addr section.  Each compile unit addresses a
// table of machine addresses starting at its DW_AT_addr_base.
type AddressSection struct {
	found   bool
	content []byte

	file *elf.File
}

func NewAddressSection(file *elf.File) (*AddressSection, error) {
	section, found := file.GetSection(ElfDebugAddressSection)

	var content []byte
	if found {
		var err error
		content, err = section.RawContent()
		if err != nil {
			return nil, fmt.Errorf(
				"failed to read %s section from elf: %w",
				ElfDebugAddressSection,
				err)
		}
	}

	return &AddressSection{
		found:   found,
		content: content,
		file:    file,
	}, nil
}

func (section *AddressSection) AddressAt(
	base SectionOffset,
	index uint64,
	addressSize int,
) (
	elf.FileAddress,
	error,
) {
	if !section.found {
		return 0, fmt.Errorf(
			"elf %s %w",
			ElfDebugAddressSection,
			ErrSectionNotFound)
	}

	decode := NewCursor(section.file.ByteOrder, section.content)
	_, err := decode.Seek(int(base)+addressSize*int(index), io.SeekStart)
	if err != nil {
		return 0, fmt.Errorf("out of bound address index (%d)", index)
	}

	address, err := decode.Address(addressSize)
	if err != nil {
		return 0, fmt.Errorf("failed to read address (%d): %w", index, err)
	}

	return elf.FileAddress(address), nil
}
