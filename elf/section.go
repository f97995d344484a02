package elf

import (
	"bytes"
	"fmt"

	"github.com/ianlancetaylor/demangle"
)

// FileAddress is a link-time virtual address encoded in the elf file.
type FileAddress uint64

type Section interface {
	Header() SectionHeaderEntry

	BindSectionNameTable(sectionNames *StringTableSection)
	Name() string

	RawContent() ([]byte, error)

	// See elf spec. Figure 1-12. sh_link interpretation.
	BindStringTable(stringTable *StringTableSection)
}

type BaseSection struct {
	SectionHeaderEntry

	name string
}

func newBaseSection(header SectionHeaderEntry) BaseSection {
	return BaseSection{
		SectionHeaderEntry: header,
	}
}

func (base *BaseSection) Header() SectionHeaderEntry {
	return base.SectionHeaderEntry
}

func (base *BaseSection) Name() string {
	return base.name
}

func (base *BaseSection) BindSectionNameTable(
	sectionNames *StringTableSection,
) {
	base.name = sectionNames.Get(base.NameIndex)
}

func (BaseSection) RawContent() ([]byte, error) {
	return nil, fmt.Errorf("cannot get raw content")
}

func (BaseSection) BindStringTable(table *StringTableSection) {
}

// Contains returns true if the section occupies target memory and the
// address falls within it.
func (base *BaseSection) Contains(address FileAddress) bool {
	if base.SectionFlags&SectionOccupiesMemory == 0 {
		return false
	}

	return base.Address <= address &&
		address < base.Address+FileAddress(base.Size)
}

type RawSection struct {
	BaseSection

	Content []byte
}

func newRawSection(header SectionHeaderEntry, buffer []byte) *RawSection {
	content := make([]byte, len(buffer))
	copy(content, buffer)

	return &RawSection{
		BaseSection: newBaseSection(header),
		Content:     content,
	}
}

func (section *RawSection) RawContent() ([]byte, error) {
	return section.Content, nil
}

type StringTableSection struct {
	BaseSection

	Content []byte
}

func NewStringTableSection(
	header SectionHeaderEntry,
	buffer []byte,
) *StringTableSection {
	content := make([]byte, len(buffer))
	copy(content, buffer)

	return &StringTableSection{
		BaseSection: newBaseSection(header),
		Content:     content,
	}
}

func (table *StringTableSection) Get(index uint32) string {
	if index >= uint32(len(table.Content)) {
		return ""
	}

	chunk := table.Content[index:]
	end := bytes.IndexByte(chunk, 0)
	if end == -1 {
		return ""
	}

	return string(chunk[:end])
}

type Symbol struct {
	SymbolEntry

	Parent        *SymbolTableSection
	Name          string
	DemangledName string // human readable c++ / rust name
}

func (symbol Symbol) PrettyName() string {
	if symbol.DemangledName != "" {
		return symbol.DemangledName
	}

	return symbol.Name
}

func (symbol Symbol) Type() SymbolType {
	return SymbolInfoToType(symbol.Info)
}

func (symbol Symbol) Binding() SymbolBinding {
	return SymbolInfoToBinding(symbol.Info)
}

func (symbol Symbol) AddressRange() (FileAddress, FileAddress, bool) {
	if symbol.Value == 0 ||
		symbol.NameIndex == 0 ||
		symbol.Type() == SymbolTypeTLSObject {

		return 0, 0, false
	}

	start := FileAddress(symbol.Value)
	end := FileAddress(symbol.Value + symbol.Size)
	return start, end, true
}

type SymbolTableSection struct {
	BaseSection

	Symbols []*Symbol

	stringTable *StringTableSection
}

func (table *SymbolTableSection) BindStringTable(names *StringTableSection) {
	table.stringTable = names
	for _, symbol := range table.Symbols {
		symbol.Name = names.Get(symbol.NameIndex)
		val, err := demangle.ToString(symbol.Name)
		if err == nil {
			symbol.DemangledName = val
		}
	}
}

func (table *SymbolTableSection) SymbolsByName(name string) []*Symbol {
	result := []*Symbol{}
	for _, symbol := range table.Symbols {
		if symbol.Name == name || symbol.DemangledName == name {
			result = append(result, symbol)
		}
	}
	return result
}

// ObjectSymbols returns data object symbols (global variables) in table
// order.
func (table *SymbolTableSection) ObjectSymbols() []*Symbol {
	result := []*Symbol{}
	for _, symbol := range table.Symbols {
		if symbol.Type() == SymbolTypeObject && symbol.Name != "" {
			result = append(result, symbol)
		}
	}
	return result
}

func (table *SymbolTableSection) SymbolAt(address FileAddress) *Symbol {
	for _, symbol := range table.Symbols {
		low, _, ok := symbol.AddressRange()
		if ok && low == address {
			return symbol
		}
	}

	return nil
}

func (table *SymbolTableSection) SymbolSpans(address FileAddress) *Symbol {
	for _, symbol := range table.Symbols {
		low, high, ok := symbol.AddressRange()
		if ok && low <= address && address < high {
			return symbol
		}
	}

	return nil
}
