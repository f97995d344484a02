// Based on linux's man page, elf.h, golang's debug/elf package,
// and the elf 1.2 spec.
package elf

import (
	"fmt"
)

var (
	// EI_MAG0 - EI_MAG3
	IdentifierMagic = []byte{
		0x7f, // ELFMAG0
		'E',  // ELFMAG1
		'L',  // ELFMAG2
		'F',  // ELFMAG3
	}
)

const (
	IdentifierVersion = 1 // EI_CURRENT
	FormatVersion     = 1 // EV_CURRENT

	ElfIdentifierSize = 16

	Elf64HeaderSize             = 64
	Elf64SectionHeaderEntrySize = 64
	Elf64ProgramHeaderEntrySize = 56
	Elf64SymbolEntrySize        = 24

	Elf32HeaderSize             = 52
	Elf32SectionHeaderEntrySize = 40
	Elf32ProgramHeaderEntrySize = 32
	Elf32SymbolEntrySize        = 16
)

// EI_CLASS
type Class byte

const (
	ClassNone = Class(0) // ELFCLASSNONE
	Class32   = Class(1) // ELFCLASS32
	Class64   = Class(2) // ELFCLASS64
)

func (class Class) String() string {
	switch class {
	case ClassNone:
		return "ClassNone"
	case Class32:
		return "Class32"
	case Class64:
		return "Class64"
	default:
		return fmt.Sprintf("ClassUnknown(%d)", class)
	}
}

// AddressSize returns the byte size of addresses / pointers on the target.
func (class Class) AddressSize() int {
	if class == Class32 {
		return 4
	}
	return 8
}

// EI_DATA
type DataEncoding byte

const (
	DataEncodingNone                       = DataEncoding(0) // ELFDATANONE
	DataEncodingTwosComplementLittleEndian = DataEncoding(1) // ELFDATA2LSB
	DataEncodingTwosComplementBigEndian    = DataEncoding(2) // ELFDATA2MSB
)

func (encoding DataEncoding) String() string {
	switch encoding {
	case DataEncodingNone:
		return "DataEncodingNone"
	case DataEncodingTwosComplementLittleEndian:
		return "TwosComplementLittleEndian"
	case DataEncodingTwosComplementBigEndian:
		return "TwosComplementBigEndian"
	default:
		return fmt.Sprintf("DataEncodingUnknown(%d)", encoding)
	}
}

// EI_OSABI
// NOTE: golang's debug/elf.OSABI defines a more complete list
type OperatingSystemABI byte

const (
	OperatingSystemABIUnixSystemV = OperatingSystemABI(0)   // ELFOSABI_NONE
	OperatingSystemABILinux       = OperatingSystemABI(3)   // ELFOSABI_LINUX
	OperatingSystemABIStandalone  = OperatingSystemABI(255) // ELFOSABI_STANDALONE
)

func (osAbi OperatingSystemABI) String() string {
	switch osAbi {
	case OperatingSystemABIUnixSystemV:
		return "UnixSystemV"
	case OperatingSystemABILinux:
		return "Linux"
	case OperatingSystemABIStandalone:
		return "Standalone"
	default:
		return fmt.Sprintf("OperatingSystemABIUnknown(%d)", osAbi)
	}
}

// e_type
type FileType uint16

const (
	FileTypeNone         = FileType(0) // ET_NONE
	FileTypeRelocatable  = FileType(1) // ET_REL
	FileTypeExecutable   = FileType(2) // ET_EXEC
	FileTypeSharedObject = FileType(3) // ET_DYN
	FileTypeCore         = FileType(4) // ET_CORE
)

func (ft FileType) String() string {
	switch ft {
	case FileTypeNone:
		return "FileTypeNone"
	case FileTypeRelocatable:
		return "Relocatable"
	case FileTypeExecutable:
		return "Executable"
	case FileTypeSharedObject:
		return "SharedObject"
	case FileTypeCore:
		return "Core"
	default:
		return fmt.Sprintf("FileTypeUnknown(%d)", ft)
	}
}

type ProgramType uint32

// see debug/elf for a more complete list
const (
	ProgramNull            = ProgramType(0)          // PT_NULL
	ProgramLoadable        = ProgramType(1)          // PT_LOAD
	ProgramDynamicLinking  = ProgramType(2)          // PT_DYNAMIC
	ProgramInterpreterPath = ProgramType(3)          // PT_INTERP
	ProgramNote            = ProgramType(4)          // PT_NOTE
	ProgramHeaderInfo      = ProgramType(6)          // PT_PHDR
	ProgramGNUStack        = ProgramType(0x6474e551) // PT_GNU_STACK
)

func (segType ProgramType) String() string {
	switch segType {
	case ProgramNull:
		return "ProgramNull"
	case ProgramLoadable:
		return "Loadable"
	case ProgramDynamicLinking:
		return "DynamicLinking"
	case ProgramInterpreterPath:
		return "InterpreterPath"
	case ProgramNote:
		return "Note"
	case ProgramHeaderInfo:
		return "HeaderInfo"
	case ProgramGNUStack:
		return "GNUStack"
	default:
		return fmt.Sprintf("ProgramUnknown(%d)", segType)
	}
}

type SectionType uint32

const (
	SectionTypeNull                  = SectionType(0)  // SHT_NULL
	SectionTypeProgramDefinedInfo    = SectionType(1)  // SHT_PROGBITS
	SectionTypeSymbolTable           = SectionType(2)  // SHT_SYMTAB
	SectionTypeStringTable           = SectionType(3)  // SHT_STRTAB
	SectionTypeRelocationWithAddends = SectionType(4)  // SHT_RELA
	SectionTypeSymbolHashTable       = SectionType(5)  // SHT_HASH
	SectionTypeDynamic               = SectionType(6)  // SHT_DYNAMIC
	SectionTypeNote                  = SectionType(7)  // SHT_NOTE
	SectionTypeNoSpace               = SectionType(8)  // SHT_NOBITS
	SectionTypeRelocationNoAddends   = SectionType(9)  // SHT_REL
	SectionTypeDynamicSymbolTable    = SectionType(11) // SHT_DYNSYM
)

func (stype SectionType) String() string {
	switch stype {
	case SectionTypeNull:
		return "SectionTypeNull"
	case SectionTypeProgramDefinedInfo:
		return "ProgramDefinedInfo"
	case SectionTypeSymbolTable:
		return "SymbolTable"
	case SectionTypeStringTable:
		return "StringTable"
	case SectionTypeRelocationWithAddends:
		return "RelocationWithAddends"
	case SectionTypeSymbolHashTable:
		return "SymbolHashTable"
	case SectionTypeDynamic:
		return "Dynamic"
	case SectionTypeNote:
		return "Note"
	case SectionTypeNoSpace:
		return "NoSpace"
	case SectionTypeRelocationNoAddends:
		return "RelocationNoAddends"
	case SectionTypeDynamicSymbolTable:
		return "DynamicSymbolTable"
	default:
		return fmt.Sprintf("SectionTypeUnknown(%d)", stype)
	}
}

type SectionFlags uint64

const (
	SectionContainsWritableData = SectionFlags(0x1) // SHF_WRITE
	SectionOccupiesMemory       = SectionFlags(0x2) // SHF_ALLOC
	SectionContainsInstructions = SectionFlags(0x4) // SHF_EXECINSTR
	SectionContainsStrings      = SectionFlags(0x20) // SHF_STRINGS
	SectionContainsTLSData      = SectionFlags(0x400) // SHF_TLS
)

func (flags SectionFlags) String() string {
	result := []byte{'-', '-', '-'}
	if flags&SectionContainsWritableData != 0 {
		result[0] = 'w'
	}
	if flags&SectionOccupiesMemory != 0 {
		result[1] = 'a'
	}
	if flags&SectionContainsInstructions != 0 {
		result[2] = 'x'
	}
	return string(result)
}

// e_machine
// NOTE: golang's debug/elf.Machine defines a more complete list of machine
// types.
type MachineArchitecture uint16

const (
	MachineArchitectureNone    = MachineArchitecture(0)   // EM_NONE
	MachineArchitectureARM     = MachineArchitecture(40)  // EM_ARM
	MachineArchitectureX86_64  = MachineArchitecture(62)  // EM_X86_64
	MachineArchitectureAArch64 = MachineArchitecture(183) // EM_AARCH64
)

func (arch MachineArchitecture) String() string {
	switch arch {
	case MachineArchitectureNone:
		return "MachineArchitectureNone"
	case MachineArchitectureARM:
		return "arm"
	case MachineArchitectureX86_64:
		return "x86-64"
	case MachineArchitectureAArch64:
		return "aarch64"
	default:
		return fmt.Sprintf("MachineArchitectureUnknown(%d)", arch)
	}
}

// The bottom 4 bits of st_info
type SymbolType byte

func SymbolInfoToType(info byte) SymbolType {
	return SymbolType(info & 0xf)
}

const (
	SymbolTypeNone                     = SymbolType(0) // STT_NOTYPE
	SymbolTypeObject                   = SymbolType(1) // STT_OBJECT
	SymbolTypeFunction                 = SymbolType(2) // STT_FUNC
	SymbolTypeSection                  = SymbolType(3) // STT_SECTION
	SymbolTypeSourceFile               = SymbolType(4) // STT_FILE
	SymbolTypeUninitializedCommonBlock = SymbolType(5) // STT_COMMON
	SymbolTypeTLSObject                = SymbolType(6) // STT_TLS
)

func (st SymbolType) String() string {
	switch st {
	case SymbolTypeNone:
		return "NoType"
	case SymbolTypeObject:
		return "Object"
	case SymbolTypeFunction:
		return "Function"
	case SymbolTypeSection:
		return "Section"
	case SymbolTypeSourceFile:
		return "SourceFile"
	case SymbolTypeUninitializedCommonBlock:
		return "UninitializedCommonBlock"
	case SymbolTypeTLSObject:
		return "TLSObject"
	default:
		return fmt.Sprintf("SymbolTypeUnknown(%d)", st)
	}
}

// The top 4 bits of st_info
type SymbolBinding byte

func SymbolInfoToBinding(info byte) SymbolBinding {
	return SymbolBinding(info >> 4)
}

const (
	SymbolBindingLocal  = SymbolBinding(0) // STB_LOCAL
	SymbolBindingGlobal = SymbolBinding(1) // STB_GLOBAL
	SymbolBindingWeak   = SymbolBinding(2) // STB_WEAK
)

func (sb SymbolBinding) String() string {
	switch sb {
	case SymbolBindingLocal:
		return "Local"
	case SymbolBindingGlobal:
		return "Global"
	case SymbolBindingWeak:
		return "Weak"
	default:
		return fmt.Sprintf("SymbolBindingUnknown(%d)", sb)
	}
}

type SymbolVisibility byte

const (
	SymbolVisibilityDefault   = SymbolVisibility(0) // STV_DEFAULT
	SymbolVisibilityInternal  = SymbolVisibility(1) // STV_INTERNAL
	SymbolVisibilityHidden    = SymbolVisibility(2) // STV_HIDDEN
	SymbolVisibilityProtected = SymbolVisibility(3) // STV_PROTECTED
)

func (vis SymbolVisibility) String() string {
	switch vis {
	case SymbolVisibilityDefault:
		return "Default"
	case SymbolVisibilityInternal:
		return "Internal"
	case SymbolVisibilityHidden:
		return "Hidden"
	case SymbolVisibilityProtected:
		return "Protected"
	default:
		return fmt.Sprintf("SymbolVisibilityUnknown(%d)", vis)
	}
}

type SectionIndex uint16

const (
	SectionIndexUndefined = SectionIndex(0)
	SectionIndexAbsolute  = SectionIndex(0xfff1)
)

// e_ident.  Identical for elf32 and elf64, and has no endian-ness.
type Identifier struct {
	Magic              [4]byte // EI_MAG0 ... EI_MAG3
	Class                      // EI_CLASS
	DataEncoding               // EI_DATA
	IdentifierVersion  byte    // EI_VERSION
	OperatingSystemABI         // EI_OSABI
	ABIVersion         byte    // EI_ABIVERSION
	Padding            [7]byte // EI_PAD
}

// Class-independent in-memory representation.  Wire structs for the two elf
// classes are defined below and converted into these after decoding.

type Header struct {
	Identifier
	FileType
	MachineArchitecture
	EntryPointAddress       FileAddress
	ProgramHeaderOffset     uint64
	SectionHeaderOffset     uint64
	ArchitectureFlags       uint32
	NumProgramHeaderEntries uint16
	NumSectionHeaderEntries uint16
	SectionStringTableIndex SectionIndex
}

type ProgramHeaderEntry struct {
	ProgramType
	Flags           uint32
	ContentOffset   uint64
	VirtualAddress  FileAddress
	PhysicalAddress FileAddress
	FileImageSize   uint64
	MemoryImageSize uint64
	Alignment       uint64
}

type SectionHeaderEntry struct {
	NameIndex uint32
	SectionType
	SectionFlags
	Address          FileAddress
	Offset           uint64
	Size             uint64
	Link             uint32
	Info             uint32
	AddressAlignment uint64
	EntrySize        uint64
}

type SymbolEntry struct {
	NameIndex uint32
	Info      byte // 4 bits st_bind, 4 bits st_type
	SymbolVisibility
	SectionIndex
	Value uint64
	Size  uint64
}

// Wire structs matching c's elf64 definitions.  Only used for
// (de-)serialization.

// Elf64_Ehdr (minus e_ident)
type elf64HeaderBody struct {
	FileType                uint16 // e_type
	Machine                 uint16 // e_machine
	FormatVersion           uint32 // e_version
	EntryPointAddress       uint64 // e_entry
	ProgramHeaderOffset     uint64 // e_phoff
	SectionHeaderOffset     uint64 // e_shoff
	ArchitectureFlags       uint32 // e_flags
	ElfHeaderSize           uint16 // e_ehsize
	ProgramHeaderEntrySize  uint16 // e_phentsize
	NumProgramHeaderEntries uint16 // e_phnum
	SectionHeaderEntrySize  uint16 // e_shentsize
	NumSectionHeaderEntries uint16 // e_shnum
	SectionStringTableIndex uint16 // e_shstrndx
}

// Elf64_Phdr
type elf64ProgramHeaderEntry struct {
	ProgramType     uint32 // p_type
	Flags           uint32 // p_flags
	ContentOffset   uint64 // p_offset
	VirtualAddress  uint64 // p_vaddr
	PhysicalAddress uint64 // p_paddr
	FileImageSize   uint64 // p_filesz
	MemoryImageSize uint64 // p_memsz
	Alignment       uint64 // p_align
}

// Elf64_Shdr
type elf64SectionHeaderEntry struct {
	NameIndex        uint32 // sh_name
	SectionType      uint32 // sh_type
	SectionFlags     uint64 // sh_flags
	Address          uint64 // sh_addr
	Offset           uint64 // sh_offset
	Size             uint64 // sh_size
	Link             uint32 // sh_link
	Info             uint32 // sh_info
	AddressAlignment uint64 // sh_addralign
	EntrySize        uint64 // sh_entsize
}

// Elf64_Sym
type elf64SymbolEntry struct {
	NameIndex    uint32 // st_name
	Info         byte   // st_info
	Visibility   byte   // st_other
	SectionIndex uint16 // st_shndx
	Value        uint64 // st_value
	Size         uint64 // st_size
}

// Wire structs matching c's elf32 definitions.  Field widths and, for
// program headers and symbols, field ordering differ from elf64.

// Elf32_Ehdr (minus e_ident)
type elf32HeaderBody struct {
	FileType                uint16 // e_type
	Machine                 uint16 // e_machine
	FormatVersion           uint32 // e_version
	EntryPointAddress       uint32 // e_entry
	ProgramHeaderOffset     uint32 // e_phoff
	SectionHeaderOffset     uint32 // e_shoff
	ArchitectureFlags       uint32 // e_flags
	ElfHeaderSize           uint16 // e_ehsize
	ProgramHeaderEntrySize  uint16 // e_phentsize
	NumProgramHeaderEntries uint16 // e_phnum
	SectionHeaderEntrySize  uint16 // e_shentsize
	NumSectionHeaderEntries uint16 // e_shnum
	SectionStringTableIndex uint16 // e_shstrndx
}

// Elf32_Phdr.  NOTE: p_flags trail p_memsz in elf32.
type elf32ProgramHeaderEntry struct {
	ProgramType     uint32 // p_type
	ContentOffset   uint32 // p_offset
	VirtualAddress  uint32 // p_vaddr
	PhysicalAddress uint32 // p_paddr
	FileImageSize   uint32 // p_filesz
	MemoryImageSize uint32 // p_memsz
	Flags           uint32 // p_flags
	Alignment       uint32 // p_align
}

// Elf32_Shdr
type elf32SectionHeaderEntry struct {
	NameIndex        uint32 // sh_name
	SectionType      uint32 // sh_type
	SectionFlags     uint32 // sh_flags
	Address          uint32 // sh_addr
	Offset           uint32 // sh_offset
	Size             uint32 // sh_size
	Link             uint32 // sh_link
	Info             uint32 // sh_info
	AddressAlignment uint32 // sh_addralign
	EntrySize        uint32 // sh_entsize
}

// Elf32_Sym.  NOTE: st_value / st_size precede st_info in elf32.
type elf32SymbolEntry struct {
	NameIndex    uint32 // st_name
	Value        uint32 // st_value
	Size         uint32 // st_size
	Info         byte   // st_info
	Visibility   byte   // st_other
	SectionIndex uint16 // st_shndx
}
