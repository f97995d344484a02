package dwarf

import (
	"fmt"

	"calsym/elf"
)

const (
	ElfDebugInformationSection   = ".debug_info"
	ElfDebugAbbreviationSection  = ".debug_abbrev"
	ElfDebugStringSection        = ".debug_str"
	ElfDebugLineStringSection    = ".debug_line_str"
	ElfDebugStringOffsetsSection = ".debug_str_offsets"
	ElfDebugAddressSection       = ".debug_addr"
)

var (
	ErrSectionNotFound      = fmt.Errorf("section not found")
	ErrSkipVisitingChildren = fmt.Errorf("skip visiting children")
)

type SectionOffset int

type File struct {
	*elf.File

	*AbbreviationSection
	*InformationSection

	// .debug_str and .debug_line_str
	Strings     *StringSection
	LineStrings *StringSection

	*StringOffsetsSection
	*AddressSection
}

func NewFile(elfFile *elf.File) (*File, error) {
	file := &File{
		File: elfFile,
	}

	abbrevSection, err := NewAbbreviationSection(elfFile)
	if err != nil {
		return nil, err
	}
	file.AbbreviationSection = abbrevSection

	file.Strings, err = NewStringSection(elfFile, ElfDebugStringSection)
	if err != nil {
		return nil, err
	}

	file.LineStrings, err = NewStringSection(elfFile, ElfDebugLineStringSection)
	if err != nil {
		return nil, err
	}

	file.StringOffsetsSection, err = NewStringOffsetsSection(elfFile)
	if err != nil {
		return nil, err
	}

	file.AddressSection, err = NewAddressSection(elfFile)
	if err != nil {
		return nil, err
	}

	// Compile unit headers are parsed eagerly. Their entries are not.
	infoSection, err := NewInformationSection(file)
	if err != nil {
		return nil, err
	}
	file.InformationSection = infoSection

	return file, nil
}

func (file *File) StringAt(offset SectionOffset) (string, error) {
	return file.Strings.StringAt(offset)
}

func (file *File) LineStringAt(offset SectionOffset) (string, error) {
	return file.LineStrings.StringAt(offset)
}
