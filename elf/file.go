package elf

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// Resources:
// https://refspecs.linuxfoundation.org/

type machineSpec struct {
	MachineArchitecture
	Class
}

var (
	supportedArchitecture = map[MachineArchitecture]machineSpec{
		MachineArchitectureX86_64: {
			MachineArchitecture: MachineArchitectureX86_64,
			Class:               Class64,
		},
		MachineArchitectureAArch64: {
			MachineArchitecture: MachineArchitectureAArch64,
			Class:               Class64,
		},
		MachineArchitectureARM: {
			MachineArchitecture: MachineArchitectureARM,
			Class:               Class32,
		},
	}
)

type File struct {
	Header
	Sections       []Section
	ProgramHeaders []ProgramHeaderEntry

	ByteOrder binary.ByteOrder
}

// AddressSize returns the byte size of pointers on the file's target.
func (file *File) AddressSize() int {
	return file.Class.AddressSize()
}

func (file *File) GetSection(name string) (Section, bool) {
	for _, section := range file.Sections {
		if section.Name() == name {
			return section, true
		}
	}

	return nil, false
}

func (file *File) SymbolTable() (*SymbolTableSection, bool) {
	for _, section := range file.Sections {
		table, ok := section.(*SymbolTableSection)
		if ok && table.SectionType == SectionTypeSymbolTable {
			return table, true
		}
	}

	return nil, false
}

// SectionSpanning returns the memory-occupying section containing the
// address, or nil.
func (file *File) SectionSpanning(address FileAddress) Section {
	for _, section := range file.Sections {
		hdr := section.Header()
		if hdr.SectionFlags&SectionOccupiesMemory == 0 {
			continue
		}
		if hdr.Address <= address &&
			address < hdr.Address+FileAddress(hdr.Size) {

			return section
		}
	}

	return nil
}

// ReadVirtual copies into out the file's image of target memory starting at
// address.  NOBITS sections (.bss) read as zeros.  It returns the number of
// bytes copied; the read stops at the end of the containing section.
func (file *File) ReadVirtual(address FileAddress, out []byte) (int, error) {
	section := file.SectionSpanning(address)
	if section == nil {
		return 0, fmt.Errorf("address %#x not mapped by any section", address)
	}

	hdr := section.Header()
	span := int(hdr.Address + FileAddress(hdr.Size) - address)
	n := len(out)
	if n > span {
		n = span
	}

	if hdr.SectionType == SectionTypeNoSpace {
		for idx := 0; idx < n; idx++ {
			out[idx] = 0
		}
		return n, nil
	}

	content, err := section.RawContent()
	if err != nil {
		return 0, fmt.Errorf("failed to read section %s: %w", section.Name(), err)
	}

	start := int(address - hdr.Address)
	copy(out[:n], content[start:start+n])
	return n, nil
}

type parser struct {
	content []byte

	File
}

func Parse(reader io.Reader) (*File, error) {
	content, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read elf file: %w", err)
	}

	return ParseBytes(content)
}

func ParseBytes(content []byte) (*File, error) {
	p := parser{
		content: content,
	}

	err := p.parse()
	if err != nil {
		return nil, err
	}

	return &p.File, nil
}

func (p *parser) parse() error {
	// NOTE: identifier (e_ident) has no endian-ness.  We must parse identifier
	// to determine the elf file's endian-ness (including the elf header).
	err := p.parseIdentifier()
	if err != nil {
		return err
	}

	err = p.parseHeader()
	if err != nil {
		return err
	}

	err = p.parseSectionHeaders()
	if err != nil {
		return err
	}

	err = p.parseProgramHeaders()
	if err != nil {
		return err
	}

	return nil
}

func (p *parser) parseIdentifier() error {
	id := &Identifier{}

	n, err := binary.Decode(p.content, binary.NativeEndian, id)
	if err != nil {
		return fmt.Errorf("failed to parse identifier: %w", err)
	}

	if n != ElfIdentifierSize {
		panic("should never happen")
	}

	if !bytes.Equal(id.Magic[:], IdentifierMagic) {
		return fmt.Errorf("invalid elf magic number")
	}

	if id.Class != Class32 && id.Class != Class64 {
		return fmt.Errorf("unsupported elf class: %s", id.Class)
	}

	switch id.DataEncoding {
	case DataEncodingTwosComplementLittleEndian:
		p.ByteOrder = binary.LittleEndian
	case DataEncodingTwosComplementBigEndian:
		p.ByteOrder = binary.BigEndian
	default:
		return fmt.Errorf("unsupported data encoding: %s", id.DataEncoding)
	}

	if id.IdentifierVersion != IdentifierVersion {
		return fmt.Errorf(
			"unsupported identifier version: %d",
			id.IdentifierVersion)
	}

	switch id.OperatingSystemABI {
	case OperatingSystemABIUnixSystemV,
		OperatingSystemABILinux,
		OperatingSystemABIStandalone:
	default:
		return fmt.Errorf("unsupported os/abi: %s", id.OperatingSystemABI)
	}

	for _, padding := range id.Padding {
		if padding != 0 {
			return fmt.Errorf("invalid identifier padding")
		}
	}

	p.File.Identifier = *id
	return nil
}

func (p *parser) parseHeader() error {
	if p.File.Class == Class64 {
		body := elf64HeaderBody{}
		n, err := binary.Decode(
			p.content[ElfIdentifierSize:],
			p.ByteOrder,
			&body)
		if err != nil {
			return fmt.Errorf("failed to parse header: %w", err)
		}
		if n != Elf64HeaderSize-ElfIdentifierSize {
			panic("should never happen")
		}

		if body.FormatVersion != FormatVersion {
			return fmt.Errorf("unsupported format version: %d", body.FormatVersion)
		}
		if body.ElfHeaderSize != Elf64HeaderSize {
			return fmt.Errorf("unexpected elf64 header size: %d", body.ElfHeaderSize)
		}
		if body.NumProgramHeaderEntries > 0 &&
			body.ProgramHeaderEntrySize != Elf64ProgramHeaderEntrySize {

			return fmt.Errorf(
				"unexpected elf64 program header entry size: %d",
				body.ProgramHeaderEntrySize)
		}
		if body.NumSectionHeaderEntries > 0 &&
			body.SectionHeaderEntrySize != Elf64SectionHeaderEntrySize {

			return fmt.Errorf(
				"unexpected elf64 section header entry size: %d",
				body.SectionHeaderEntrySize)
		}

		p.File.Header.FileType = FileType(body.FileType)
		p.File.Header.MachineArchitecture = MachineArchitecture(body.Machine)
		p.File.Header.EntryPointAddress = FileAddress(body.EntryPointAddress)
		p.File.Header.ProgramHeaderOffset = body.ProgramHeaderOffset
		p.File.Header.SectionHeaderOffset = body.SectionHeaderOffset
		p.File.Header.ArchitectureFlags = body.ArchitectureFlags
		p.File.Header.NumProgramHeaderEntries = body.NumProgramHeaderEntries
		p.File.Header.NumSectionHeaderEntries = body.NumSectionHeaderEntries
		p.File.Header.SectionStringTableIndex =
			SectionIndex(body.SectionStringTableIndex)
	} else {
		body := elf32HeaderBody{}
		n, err := binary.Decode(
			p.content[ElfIdentifierSize:],
			p.ByteOrder,
			&body)
		if err != nil {
			return fmt.Errorf("failed to parse header: %w", err)
		}
		if n != Elf32HeaderSize-ElfIdentifierSize {
			panic("should never happen")
		}

		if body.FormatVersion != FormatVersion {
			return fmt.Errorf("unsupported format version: %d", body.FormatVersion)
		}
		if body.ElfHeaderSize != Elf32HeaderSize {
			return fmt.Errorf("unexpected elf32 header size: %d", body.ElfHeaderSize)
		}
		if body.NumProgramHeaderEntries > 0 &&
			body.ProgramHeaderEntrySize != Elf32ProgramHeaderEntrySize {

			return fmt.Errorf(
				"unexpected elf32 program header entry size: %d",
				body.ProgramHeaderEntrySize)
		}
		if body.NumSectionHeaderEntries > 0 &&
			body.SectionHeaderEntrySize != Elf32SectionHeaderEntrySize {

			return fmt.Errorf(
				"unexpected elf32 section header entry size: %d",
				body.SectionHeaderEntrySize)
		}

		p.File.Header.FileType = FileType(body.FileType)
		p.File.Header.MachineArchitecture = MachineArchitecture(body.Machine)
		p.File.Header.EntryPointAddress = FileAddress(body.EntryPointAddress)
		p.File.Header.ProgramHeaderOffset = uint64(body.ProgramHeaderOffset)
		p.File.Header.SectionHeaderOffset = uint64(body.SectionHeaderOffset)
		p.File.Header.ArchitectureFlags = body.ArchitectureFlags
		p.File.Header.NumProgramHeaderEntries = body.NumProgramHeaderEntries
		p.File.Header.NumSectionHeaderEntries = body.NumSectionHeaderEntries
		p.File.Header.SectionStringTableIndex =
			SectionIndex(body.SectionStringTableIndex)
	}

	spec, ok := supportedArchitecture[p.File.Header.MachineArchitecture]
	if !ok {
		return fmt.Errorf(
			"unsupported machine architecture: %s",
			p.File.Header.MachineArchitecture)
	}

	if spec.Class != p.File.Class {
		return fmt.Errorf(
			"invalid class (%s) for machine architecture (%s)",
			p.File.Class,
			p.File.Header.MachineArchitecture)
	}

	// NOTE: architecture flags hold abi revisions on some targets (e.g. arm
	// eabi) and cannot be validated generically.

	// For simplicity, we'll disallow extended section header.  Most elf
	// structs (e.g., Elf64_Sym.st_shndx) don't support extended section
	// indexing.
	if p.File.Header.SectionHeaderOffset > 0 &&
		p.File.Header.NumSectionHeaderEntries == 0 {

		return fmt.Errorf("extended section header not supported")
	}

	return nil
}

func (p *parser) decodeSectionHeaders() ([]SectionHeaderEntry, error) {
	count := int(p.File.Header.NumSectionHeaderEntries)
	result := make([]SectionHeaderEntry, 0, count)

	if p.File.Class == Class64 {
		raw := make([]elf64SectionHeaderEntry, count)
		_, err := binary.Decode(
			p.content[p.File.Header.SectionHeaderOffset:],
			p.ByteOrder,
			raw)
		if err != nil {
			return nil, err
		}

		for _, entry := range raw {
			result = append(
				result,
				SectionHeaderEntry{
					NameIndex:        entry.NameIndex,
					SectionType:      SectionType(entry.SectionType),
					SectionFlags:     SectionFlags(entry.SectionFlags),
					Address:          FileAddress(entry.Address),
					Offset:           entry.Offset,
					Size:             entry.Size,
					Link:             entry.Link,
					Info:             entry.Info,
					AddressAlignment: entry.AddressAlignment,
					EntrySize:        entry.EntrySize,
				})
		}
	} else {
		raw := make([]elf32SectionHeaderEntry, count)
		_, err := binary.Decode(
			p.content[p.File.Header.SectionHeaderOffset:],
			p.ByteOrder,
			raw)
		if err != nil {
			return nil, err
		}

		for _, entry := range raw {
			result = append(
				result,
				SectionHeaderEntry{
					NameIndex:        entry.NameIndex,
					SectionType:      SectionType(entry.SectionType),
					SectionFlags:     SectionFlags(entry.SectionFlags),
					Address:          FileAddress(entry.Address),
					Offset:           uint64(entry.Offset),
					Size:             uint64(entry.Size),
					Link:             entry.Link,
					Info:             entry.Info,
					AddressAlignment: uint64(entry.AddressAlignment),
					EntrySize:        uint64(entry.EntrySize),
				})
		}
	}

	return result, nil
}

func (p *parser) parseSectionHeaders() error {
	if p.File.Header.NumSectionHeaderEntries == 0 {
		return nil
	}

	if p.File.Header.SectionHeaderOffset >= uint64(len(p.content)) {
		return fmt.Errorf(
			"out of bound section header offset (%d)",
			p.File.Header.SectionHeaderOffset)
	}

	sectionHeaders, err := p.decodeSectionHeaders()
	if err != nil {
		return fmt.Errorf("failed to read section header entries: %w", err)
	}

	for _, header := range sectionHeaders {
		var sectionContent []byte
		if header.SectionType != SectionTypeNoSpace {
			start := header.Offset
			end := start + header.Size
			if end > uint64(len(p.content)) {
				return fmt.Errorf("out of bound section (%d > %d)", end, len(p.content))
			}

			sectionContent = p.content[start:end]
		}

		switch header.SectionType {
		case SectionTypeStringTable:
			p.File.Sections = append(
				p.File.Sections,
				NewStringTableSection(header, sectionContent))
		case SectionTypeSymbolTable,
			SectionTypeDynamicSymbolTable:

			table, err := p.parseSymbolTable(header, sectionContent)
			if err != nil {
				return err
			}
			p.File.Sections = append(p.File.Sections, table)
		default:
			p.File.Sections = append(
				p.File.Sections,
				newRawSection(header, sectionContent))
		}
	}

	// Bind section names
	if p.File.Header.SectionStringTableIndex != SectionIndexUndefined {
		idx := int(p.File.Header.SectionStringTableIndex)
		if idx >= len(p.File.Sections) {
			return fmt.Errorf(
				"section name index out of bound (%d >= %d)",
				idx,
				len(p.File.Sections))
		}

		table, ok := p.File.Sections[idx].(*StringTableSection)
		if !ok {
			return fmt.Errorf("section name index does not point to a string table")
		}

		for _, section := range p.File.Sections {
			section.BindSectionNameTable(table)
		}
	}

	// Bind sh_link section
	// See elf spec. Figure 1-12. sh_link and sh_info Interpretation.
	for _, section := range p.File.Sections {
		hdr := section.Header()

		if hdr.Link == 0 { // section 0 is always undefined
			continue
		}

		switch hdr.SectionType {
		case SectionTypeDynamic,
			SectionTypeSymbolTable,
			SectionTypeDynamicSymbolTable:
			if hdr.Link >= uint32(len(p.File.Sections)) {
				return fmt.Errorf(
					"string table index out of bound (%d >= %d)",
					hdr.Link,
					len(p.File.Sections))
			}

			table, ok := p.File.Sections[hdr.Link].(*StringTableSection)
			if !ok {
				return fmt.Errorf("string table index does not point to a string table")
			}

			section.BindStringTable(table)
		}
	}

	return nil
}

func (p *parser) parseSymbolTable(
	header SectionHeaderEntry,
	content []byte,
) (
	*SymbolTableSection,
	error,
) {
	entrySize := Elf64SymbolEntrySize
	if p.File.Class == Class32 {
		entrySize = Elf32SymbolEntrySize
	}

	if len(content)%entrySize != 0 {
		return nil, fmt.Errorf("invalid symbol table size (%d)", len(content))
	}

	numEntries := len(content) / entrySize
	entries := make([]SymbolEntry, 0, numEntries)

	if p.File.Class == Class64 {
		rawEntries := make([]elf64SymbolEntry, numEntries)
		n, err := binary.Decode(content, p.ByteOrder, rawEntries)
		if err != nil {
			return nil, fmt.Errorf("failed to parse symbol table: %w", err)
		}
		if n != len(content) {
			panic("should never happen")
		}

		for _, entry := range rawEntries {
			entries = append(
				entries,
				SymbolEntry{
					NameIndex:        entry.NameIndex,
					Info:             entry.Info,
					SymbolVisibility: SymbolVisibility(entry.Visibility),
					SectionIndex:     SectionIndex(entry.SectionIndex),
					Value:            entry.Value,
					Size:             entry.Size,
				})
		}
	} else {
		rawEntries := make([]elf32SymbolEntry, numEntries)
		n, err := binary.Decode(content, p.ByteOrder, rawEntries)
		if err != nil {
			return nil, fmt.Errorf("failed to parse symbol table: %w", err)
		}
		if n != len(content) {
			panic("should never happen")
		}

		for _, entry := range rawEntries {
			entries = append(
				entries,
				SymbolEntry{
					NameIndex:        entry.NameIndex,
					Info:             entry.Info,
					SymbolVisibility: SymbolVisibility(entry.Visibility),
					SectionIndex:     SectionIndex(entry.SectionIndex),
					Value:            uint64(entry.Value),
					Size:             uint64(entry.Size),
				})
		}
	}

	table := &SymbolTableSection{
		BaseSection: newBaseSection(header),
	}

	symbols := make([]*Symbol, 0, numEntries)
	for _, entry := range entries {
		symbols = append(
			symbols,
			&Symbol{
				SymbolEntry: entry,
				Parent:      table,
			})
	}

	table.Symbols = symbols
	return table, nil
}

func (p *parser) parseProgramHeaders() error {
	if p.File.Header.NumProgramHeaderEntries == 0 {
		return nil
	}

	if p.File.Header.ProgramHeaderOffset >= uint64(len(p.content)) {
		return fmt.Errorf(
			"out of bound program header offset (%d)",
			p.File.Header.ProgramHeaderOffset)
	}

	count := int(p.File.Header.NumProgramHeaderEntries)
	result := make([]ProgramHeaderEntry, 0, count)

	if p.File.Class == Class64 {
		raw := make([]elf64ProgramHeaderEntry, count)
		_, err := binary.Decode(
			p.content[p.File.Header.ProgramHeaderOffset:],
			p.ByteOrder,
			raw)
		if err != nil {
			return fmt.Errorf("failed to read program header entries: %w", err)
		}

		for _, entry := range raw {
			result = append(
				result,
				ProgramHeaderEntry{
					ProgramType:     ProgramType(entry.ProgramType),
					Flags:           entry.Flags,
					ContentOffset:   entry.ContentOffset,
					VirtualAddress:  FileAddress(entry.VirtualAddress),
					PhysicalAddress: FileAddress(entry.PhysicalAddress),
					FileImageSize:   entry.FileImageSize,
					MemoryImageSize: entry.MemoryImageSize,
					Alignment:       entry.Alignment,
				})
		}
	} else {
		raw := make([]elf32ProgramHeaderEntry, count)
		_, err := binary.Decode(
			p.content[p.File.Header.ProgramHeaderOffset:],
			p.ByteOrder,
			raw)
		if err != nil {
			return fmt.Errorf("failed to read program header entries: %w", err)
		}

		for _, entry := range raw {
			result = append(
				result,
				ProgramHeaderEntry{
					ProgramType:     ProgramType(entry.ProgramType),
					Flags:           entry.Flags,
					ContentOffset:   uint64(entry.ContentOffset),
					VirtualAddress:  FileAddress(entry.VirtualAddress),
					PhysicalAddress: FileAddress(entry.PhysicalAddress),
					FileImageSize:   uint64(entry.FileImageSize),
					MemoryImageSize: uint64(entry.MemoryImageSize),
					Alignment:       uint64(entry.Alignment),
				})
		}
	}

	p.File.ProgramHeaders = result
	return nil
}
