package calsym

import (
	"encoding/binary"
	"os"
	"testing"

	"github.com/pattyshack/gt/testing/expect"
	"github.com/pattyshack/gt/testing/suite"

	"calsym/elf"
	"calsym/target"
)

// NOTE: the test is in the calsym package instead of elf package since the
// test binaries are not portable.
type ElfSuite struct{}

func TestElf(t *testing.T) {
	suite.RunTests(t, &ElfSuite{})
}

func (ElfSuite) newFile(t *testing.T, path string) *elf.File {
	content, err := os.ReadFile(path)
	expect.Nil(t, err)

	file, err := elf.ParseBytes(content)
	expect.Nil(t, err)

	return file
}

func (s ElfSuite) TestParseBasic(t *testing.T) {
	file := s.newFile(t, "test_targets/calib_sample")

	expect.True(t, file.ByteOrder == binary.LittleEndian)
	expect.True(t, len(file.Sections) > 0)
	expect.True(t, len(file.ProgramHeaders) > 0)

	_, ok := file.GetSection(".debug_info")
	expect.True(t, ok)

	_, ok = file.GetSection(".no_such_section")
	expect.False(t, ok)
}

func (s ElfSuite) TestTargetDescriptor(t *testing.T) {
	file := s.newFile(t, "test_targets/calib_sample")

	desc, err := target.FromELF(file)
	expect.Nil(t, err)
	expect.True(t, desc.ByteOrder == binary.LittleEndian)
	expect.Equal(t, 8, desc.PointerSize)
}

func (s ElfSuite) TestSymbolTable(t *testing.T) {
	file := s.newFile(t, "test_targets/calib_sample")

	table, ok := file.SymbolTable()
	expect.True(t, ok)

	entries := table.SymbolsByName("TorqueCurve")
	expect.Equal(t, 1, len(entries))
	expect.Equal(t, uint64(48), entries[0].Size)

	spanning := table.SymbolSpans(elf.FileAddress(entries[0].Value) + 20)
	expect.NotNil(t, spanning)
	expect.Equal(t, "TorqueCurve", spanning.Name)

	expect.True(t, len(table.ObjectSymbols()) >= 15)
}

func (s ElfSuite) TestReadVirtual(t *testing.T) {
	file := s.newFile(t, "test_targets/calib_sample")

	table, ok := file.SymbolTable()
	expect.True(t, ok)

	entries := table.SymbolsByName("Value_u32")
	expect.Equal(t, 1, len(entries))

	buffer := make([]byte, 4)
	n, err := file.ReadVirtual(elf.FileAddress(entries[0].Value), buffer)
	expect.Nil(t, err)
	expect.Equal(t, 4, n)
	expect.Equal(t, uint32(7), binary.LittleEndian.Uint32(buffer))

	_, err = file.ReadVirtual(elf.FileAddress(0x10), buffer)
	expect.Error(t, err, "not mapped by any section")
}
