package calsym

import (
	"os"
	"testing"

	"github.com/pattyshack/gt/testing/expect"
	"github.com/pattyshack/gt/testing/suite"

	"calsym/dwarf"
	"calsym/elf"
)

// NOTE: the test is in the calsym package instead of dwarf package since the
// test binaries are not portable.
type DwarfSuite struct{}

func TestDwarf(t *testing.T) {
	suite.RunTests(t, &DwarfSuite{})
}

func (DwarfSuite) newFile(t *testing.T, path string) *dwarf.File {
	content, err := os.ReadFile(path)
	expect.Nil(t, err)

	elfFile, err := elf.ParseBytes(content)
	expect.Nil(t, err)

	file, err := dwarf.NewFile(elfFile)
	expect.Nil(t, err)

	return file
}

func (DwarfSuite) findChild(
	t *testing.T,
	parent *dwarf.DebugInfoEntry,
	tag dwarf.Tag,
	name string,
) *dwarf.DebugInfoEntry {
	for _, child := range parent.Children {
		if child.Tag != tag {
			continue
		}

		childName, ok, err := child.Name()
		expect.Nil(t, err)
		if ok && childName == name {
			return child
		}
	}

	t.Fatalf("entry (%s) not found", name)
	return nil
}

func (s DwarfSuite) TestParseDwarf4(t *testing.T) {
	file := s.newFile(t, "test_targets/calib_sample")

	expect.Equal(t, 1, len(file.CompileUnits))
	unit := file.CompileUnits[0]
	expect.Equal(t, uint16(4), unit.Version)

	root, err := unit.Root()
	expect.Nil(t, err)
	expect.Equal(t, dwarf.DW_TAG_compile_unit, root.Tag)

	lang, ok := root.Uint(dwarf.DW_AT_language)
	expect.True(t, ok)
	expect.Equal(t, dwarf.DW_LANG_C99, lang)

	name, ok, err := root.Name()
	expect.Nil(t, err)
	expect.True(t, ok)
	expect.Equal(t, "calib_sample.c", name)

	expect.True(t, len(root.Children) > 0)
}

func (s DwarfSuite) TestParseDwarf5(t *testing.T) {
	file := s.newFile(t, "test_targets/calib_sample_dwarf5")

	expect.Equal(t, 1, len(file.CompileUnits))
	unit := file.CompileUnits[0]
	expect.Equal(t, uint16(5), unit.Version)

	root, err := unit.Root()
	expect.Nil(t, err)

	lang, ok := root.Uint(dwarf.DW_AT_language)
	expect.True(t, ok)
	expect.Equal(t, dwarf.DW_LANG_C11, lang)

	// The unit name lives in .debug_line_str in dwarf 5.
	name, ok, err := root.Name()
	expect.Nil(t, err)
	expect.True(t, ok)
	expect.Equal(t, "calib_sample.c", name)
}

func (s DwarfSuite) TestParseDwarf2(t *testing.T) {
	file := s.newFile(t, "test_targets/calib_sample_dwarf2")

	expect.Equal(t, 1, len(file.CompileUnits))
	unit := file.CompileUnits[0]
	expect.Equal(t, uint16(2), unit.Version)

	root, err := unit.Root()
	expect.Nil(t, err)
	expect.True(t, len(root.Children) > 0)
}

func (s DwarfSuite) TestStructMemberOffsets(t *testing.T) {
	file := s.newFile(t, "test_targets/calib_sample")

	root, err := file.CompileUnits[0].Root()
	expect.Nil(t, err)

	structB := s.findChild(t, root, dwarf.DW_TAG_structure_type, "struct_b")

	size, ok := structB.Uint(dwarf.DW_AT_byte_size)
	expect.True(t, ok)
	expect.Equal(t, uint64(104), size)

	offset, ok := s.findChild(
		t, structB, dwarf.DW_TAG_member, "s1").MemberOffset()
	expect.True(t, ok)
	expect.Equal(t, uint64(0), offset)

	offset, ok = s.findChild(
		t, structB, dwarf.DW_TAG_member, "s2").MemberOffset()
	expect.True(t, ok)
	expect.Equal(t, uint64(12), offset)

	offset, ok = s.findChild(
		t, structB, dwarf.DW_TAG_member, "matrix").MemberOffset()
	expect.True(t, ok)
	expect.Equal(t, uint64(24), offset)
}

func (s DwarfSuite) TestDwarf2MemberLocationExpression(t *testing.T) {
	file := s.newFile(t, "test_targets/calib_sample_dwarf2")

	root, err := file.CompileUnits[0].Root()
	expect.Nil(t, err)

	structB := s.findChild(t, root, dwarf.DW_TAG_structure_type, "struct_b")
	member := s.findChild(t, structB, dwarf.DW_TAG_member, "s2")

	// dwarf 2 encodes the offset as [DW_OP_plus_uconst 12], not a
	// constant.
	_, ok := member.Uint(dwarf.DW_AT_data_member_location)
	expect.False(t, ok)

	offset, ok := member.MemberOffset()
	expect.True(t, ok)
	expect.Equal(t, uint64(12), offset)

	offset, ok = s.findChild(
		t, structB, dwarf.DW_TAG_member, "matrix").MemberOffset()
	expect.True(t, ok)
	expect.Equal(t, uint64(24), offset)
}

func (s DwarfSuite) TestLegacyBitfieldAttributes(t *testing.T) {
	file := s.newFile(t, "test_targets/calib_sample")

	root, err := file.CompileUnits[0].Root()
	expect.Nil(t, err)

	structA := s.findChild(t, root, dwarf.DW_TAG_structure_type, "struct_a")
	mode := s.findChild(t, structA, dwarf.DW_TAG_member, "mode")
	level := s.findChild(t, structA, dwarf.DW_TAG_member, "level")

	// gcc emits the legacy most-significant-bit-relative encoding for
	// dwarf 4 and below.  The storage unit is the 4 bytes at offset 8.
	offset, ok := mode.MemberOffset()
	expect.True(t, ok)
	expect.Equal(t, uint64(8), offset)

	bitSize, ok := mode.Uint(dwarf.DW_AT_bit_size)
	expect.True(t, ok)
	expect.Equal(t, uint64(3), bitSize)

	bitOffset, ok := mode.Uint(dwarf.DW_AT_bit_offset)
	expect.True(t, ok)
	expect.Equal(t, uint64(29), bitOffset)

	bitOffset, ok = level.Uint(dwarf.DW_AT_bit_offset)
	expect.True(t, ok)
	expect.Equal(t, uint64(24), bitOffset)

	_, ok = mode.Uint(dwarf.DW_AT_data_bit_offset)
	expect.False(t, ok)
}

func (s DwarfSuite) TestModernBitfieldAttributes(t *testing.T) {
	file := s.newFile(t, "test_targets/calib_sample_dwarf5")

	root, err := file.CompileUnits[0].Root()
	expect.Nil(t, err)

	structA := s.findChild(t, root, dwarf.DW_TAG_structure_type, "struct_a")
	mode := s.findChild(t, structA, dwarf.DW_TAG_member, "mode")
	level := s.findChild(t, structA, dwarf.DW_TAG_member, "level")

	bitOffset, ok := mode.Uint(dwarf.DW_AT_data_bit_offset)
	expect.True(t, ok)
	expect.Equal(t, uint64(64), bitOffset)

	bitOffset, ok = level.Uint(dwarf.DW_AT_data_bit_offset)
	expect.True(t, ok)
	expect.Equal(t, uint64(67), bitOffset)

	_, ok = mode.Uint(dwarf.DW_AT_bit_offset)
	expect.False(t, ok)
}

func (s DwarfSuite) TestVariableStaticAddress(t *testing.T) {
	content, err := os.ReadFile("test_targets/calib_sample")
	expect.Nil(t, err)

	elfFile, err := elf.ParseBytes(content)
	expect.Nil(t, err)

	file, err := dwarf.NewFile(elfFile)
	expect.Nil(t, err)

	root, err := file.CompileUnits[0].Root()
	expect.Nil(t, err)

	variable := s.findChild(t, root, dwarf.DW_TAG_variable, "Value_u32")

	address, ok := variable.StaticAddress()
	expect.True(t, ok)

	symbolTable, ok := elfFile.SymbolTable()
	expect.True(t, ok)

	entries := symbolTable.SymbolsByName("Value_u32")
	expect.Equal(t, 1, len(entries))
	expect.Equal(t, entries[0].Value, uint64(address))
}

func (s DwarfSuite) TestEnumeration(t *testing.T) {
	file := s.newFile(t, "test_targets/calib_sample")

	root, err := file.CompileUnits[0].Root()
	expect.Nil(t, err)

	gear := s.findChild(t, root, dwarf.DW_TAG_enumeration_type, "gear")
	reverse := s.findChild(t, gear, dwarf.DW_TAG_enumerator, "REVERSE")

	value, ok := reverse.Int(dwarf.DW_AT_const_value)
	expect.True(t, ok)
	expect.Equal(t, int64(-1), value)
}
