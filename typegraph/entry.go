package typegraph

import (
	"fmt"
)

// EntryID is the stable reference id of a debug entry within one
// store.  Type reference attributes hold EntryIDs that must resolve
// within the same store.
type EntryID uint64

type Tag int

const (
	TagBaseType Tag = iota + 1
	TagTypedef
	TagPointer
	TagArray
	TagSubrange
	TagStruct
	TagUnion
	TagEnum
	TagEnumerator
	TagMember
	TagSubroutine
	TagFormalParameter
	TagVariable

	// const/volatile/restrict/atomic. Transparent for data layout.
	TagQualifier

	TagUnspecified
)

func (tag Tag) String() string {
	switch tag {
	case TagBaseType:
		return "base-type"
	case TagTypedef:
		return "typedef"
	case TagPointer:
		return "pointer"
	case TagArray:
		return "array"
	case TagSubrange:
		return "subrange"
	case TagStruct:
		return "struct"
	case TagUnion:
		return "union"
	case TagEnum:
		return "enum"
	case TagEnumerator:
		return "enumerator"
	case TagMember:
		return "member"
	case TagSubroutine:
		return "subroutine"
	case TagFormalParameter:
		return "formal-parameter"
	case TagVariable:
		return "variable"
	case TagQualifier:
		return "qualifier"
	case TagUnspecified:
		return "unspecified"
	default:
		return fmt.Sprintf("unknown-tag-%d", int(tag))
	}
}

type Attr int

const (
	AttrName Attr = iota + 1
	AttrByteSize
	AttrBitSize

	// dwarf 2/3 bitfield offset, counted from the storage unit's most
	// significant bit.
	AttrBitOffset

	// dwarf 4/5 bitfield offset, counted from the start of the
	// containing storage.
	AttrDataBitOffset

	AttrDataMemberOffset
	AttrEncoding
	AttrUpperBound
	AttrLowerBound
	AttrCount
	AttrByteStride
	AttrConstValue
	AttrTypeRef
	AttrAddress
	AttrExternal
)

// Scalar encoding attribute values, mirroring the debug info base type
// encodings the engine supports.
type ScalarEncoding int

const (
	EncodingBool ScalarEncoding = iota + 1
	EncodingSigned
	EncodingSignedChar
	EncodingUnsigned
	EncodingUnsignedChar
	EncodingFloat
)

func (encoding ScalarEncoding) IsSigned() bool {
	switch encoding {
	case EncodingSigned, EncodingSignedChar, EncodingFloat:
		return true
	default:
		return false
	}
}

func (encoding ScalarEncoding) String() string {
	switch encoding {
	case EncodingBool:
		return "bool"
	case EncodingSigned:
		return "int"
	case EncodingSignedChar:
		return "char"
	case EncodingUnsigned:
		return "uint"
	case EncodingUnsignedChar:
		return "uchar"
	case EncodingFloat:
		return "float"
	default:
		return fmt.Sprintf("unknown-encoding-%d", int(encoding))
	}
}

// Entry is a single already-decoded debug entry.  The engine only
// reads entries; decoding them out of .debug_info belongs to the
// caller.
type Entry struct {
	ID  EntryID
	Tag Tag

	Attrs map[Attr]interface{}

	Children []*Entry
}

func (entry *Entry) Any(attr Attr) (interface{}, bool) {
	val, ok := entry.Attrs[attr]
	return val, ok
}

func (entry *Entry) Uint(attr Attr) (uint64, bool) {
	val, ok := entry.Attrs[attr]
	if !ok {
		return 0, false
	}

	switch num := val.(type) {
	case uint64:
		return num, true
	case int64:
		return uint64(num), true
	default:
		return 0, false
	}
}

func (entry *Entry) Int(attr Attr) (int64, bool) {
	val, ok := entry.Attrs[attr]
	if !ok {
		return 0, false
	}

	switch num := val.(type) {
	case int64:
		return num, true
	case uint64:
		return int64(num), true
	default:
		return 0, false
	}
}

func (entry *Entry) String(attr Attr) (string, bool) {
	val, ok := entry.Attrs[attr]
	if !ok {
		return "", false
	}
	str, ok := val.(string)
	return str, ok
}

func (entry *Entry) Bool(attr Attr) (bool, bool) {
	val, ok := entry.Attrs[attr]
	if !ok {
		return false, false
	}
	flag, ok := val.(bool)
	return flag, ok
}

func (entry *Entry) Name() string {
	name, _ := entry.String(AttrName)
	return name
}

func (entry *Entry) TypeRef() (EntryID, bool) {
	val, ok := entry.Attrs[AttrTypeRef]
	if !ok {
		return 0, false
	}
	ref, ok := val.(EntryID)
	return ref, ok
}

// EntryStore is the ingested, already-decoded debug entry sequence.
// Supplied externally; the engine only reads it.
type EntryStore interface {
	// Entries returns the store's top level entries in declaration
	// order.
	Entries() []*Entry

	// ResolveRef maps a type reference back to its entry.
	ResolveRef(id EntryID) (*Entry, bool)
}

// Store is the default EntryStore backed by an id index built from the
// entry forest.
type Store struct {
	roots []*Entry
	index map[EntryID]*Entry
}

func NewStore(roots ...*Entry) *Store {
	store := &Store{
		roots: roots,
		index: map[EntryID]*Entry{},
	}

	var register func(entry *Entry)
	register = func(entry *Entry) {
		store.index[entry.ID] = entry
		for _, child := range entry.Children {
			register(child)
		}
	}

	for _, root := range roots {
		register(root)
	}

	return store
}

func (store *Store) Entries() []*Entry {
	return store.roots
}

func (store *Store) ResolveRef(id EntryID) (*Entry, bool) {
	entry, ok := store.index[id]
	return entry, ok
}
