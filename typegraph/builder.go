package typegraph

import (
	"fmt"

	"calsym/target"
)

// Compilers use the all-ones bit pattern for the upper bound of arrays
// of unknown extent (e.g. behind a pointer-to-array).
const unknownUpperBound32 = uint64(^uint32(0))
const unknownUpperBound64 = ^uint64(0)

// DanglingTypeReferenceError reports a type reference that does not
// resolve within the entry store.  Fatal to building that node only;
// the rest of the graph is still built.
type DanglingTypeReferenceError struct {
	Ref EntryID
}

func (err *DanglingTypeReferenceError) Error() string {
	return fmt.Sprintf("dangling type reference (%d)", err.Ref)
}

// Graph holds every built type node keyed by debug entry id.  Nodes
// are shared; after Build returns the graph is read-only and safe for
// concurrent use.
type Graph struct {
	nodes map[EntryID]*Node
	store EntryStore
}

func (graph *Graph) Node(id EntryID) (*Node, bool) {
	node, ok := graph.nodes[id]
	return node, ok
}

func (graph *Graph) Store() EntryStore {
	return graph.store
}

func (graph *Graph) NumNodes() int {
	return len(graph.nodes)
}

// Build walks the store's type entries once and produces the type
// graph.  Deterministic, no I/O.  Errors are batched and returned
// alongside the best-effort partial graph; nodes that could not be
// fully built degrade to Opaque.
func Build(
	store EntryStore,
	desc target.Descriptor,
) (
	*Graph,
	[]error,
) {
	builder := &graphBuilder{
		store: store,
		desc:  desc,
		nodes: map[EntryID]*Node{},

		// guards typedef/qualifier chains, which resolve through to the
		// underlying node without a placeholder of their own
		aliasing: map[EntryID]struct{}{},
	}

	var walk func(entry *Entry)
	walk = func(entry *Entry) {
		if isTypeTag(entry.Tag) {
			_, err := builder.get(entry.ID)
			if err != nil {
				builder.collect(err)
			}
		}

		for _, child := range entry.Children {
			walk(child)
		}
	}

	for _, entry := range store.Entries() {
		walk(entry)
	}

	return &Graph{
		nodes: builder.nodes,
		store: store,
	}, builder.errs
}

func isTypeTag(tag Tag) bool {
	switch tag {
	case TagBaseType,
		TagTypedef,
		TagPointer,
		TagArray,
		TagStruct,
		TagUnion,
		TagEnum,
		TagSubroutine,
		TagQualifier,
		TagUnspecified:

		return true
	default:
		return false
	}
}

type graphBuilder struct {
	store EntryStore
	desc  target.Descriptor

	nodes    map[EntryID]*Node
	aliasing map[EntryID]struct{}

	errs []error
}

func (builder *graphBuilder) collect(err error) {
	for _, seen := range builder.errs {
		if seen.Error() == err.Error() {
			return
		}
	}
	builder.errs = append(builder.errs, err)
}

// get returns the node for a ref id, building it on first use.  A
// node under construction is observable as its placeholder; callers
// holding the pointer see the completed node once construction
// finishes (shared mutable node identity, not a copy).
func (builder *graphBuilder) get(id EntryID) (*Node, error) {
	node, ok := builder.nodes[id]
	if ok {
		return node, nil
	}

	entry, ok := builder.store.ResolveRef(id)
	if !ok {
		return nil, &DanglingTypeReferenceError{Ref: id}
	}

	// Typedefs and qualifiers contribute no node of their own.  Their
	// ref id maps to the underlying node, with typedef names retained
	// as aliases.
	if entry.Tag == TagTypedef || entry.Tag == TagQualifier {
		return builder.resolveThrough(entry)
	}

	// Insert placeholder before recursing so that self-referential
	// composites terminate.
	node = &Node{Kind: KindUnresolved}
	builder.nodes[id] = node

	err := builder.parse(entry, node)
	if err != nil {
		node.Kind = KindOpaque
		return node, err
	}

	return node, nil
}

func (builder *graphBuilder) resolveThrough(entry *Entry) (*Node, error) {
	_, inProgress := builder.aliasing[entry.ID]
	if inProgress {
		return nil, fmt.Errorf("typedef cycle at entry (%d)", entry.ID)
	}

	ref, ok := entry.TypeRef()
	if !ok {
		// e.g. "const void". Degrades to pointer-sized opaque storage.
		node := &Node{
			Kind:     KindOpaque,
			ByteSize: uint64(builder.desc.PointerSize),
		}
		builder.nodes[entry.ID] = node
		return node, nil
	}

	builder.aliasing[entry.ID] = struct{}{}
	defer delete(builder.aliasing, entry.ID)

	node, err := builder.get(ref)
	if err != nil {
		return nil, err
	}

	builder.nodes[entry.ID] = node

	if entry.Tag == TagTypedef {
		node.addAlias(entry.Name())
	}

	return node, nil
}

func (builder *graphBuilder) parse(entry *Entry, node *Node) error {
	switch entry.Tag {
	case TagBaseType:
		return builder.parseBaseType(entry, node)
	case TagPointer:
		return builder.parsePointer(entry, node)
	case TagArray:
		return builder.parseArray(entry, node)
	case TagStruct, TagUnion:
		return builder.parseComposite(entry, node)
	case TagEnum:
		return builder.parseEnum(entry, node)
	case TagSubroutine:
		return builder.parseSubroutine(entry, node)
	case TagUnspecified:
		size, _ := entry.Uint(AttrByteSize)
		node.Kind = KindOpaque
		node.Name = entry.Name()
		node.ByteSize = size
		return nil
	default:
		return fmt.Errorf("unsupported type entry tag (%s)", entry.Tag)
	}
}

func (builder *graphBuilder) parseBaseType(entry *Entry, node *Node) error {
	rawEncoding, ok := entry.Uint(AttrEncoding)
	if !ok {
		return fmt.Errorf("base type (%d) has no encoding", entry.ID)
	}

	byteSize, ok := entry.Uint(AttrByteSize)
	if !ok {
		return fmt.Errorf("base type (%d) has no byte size", entry.ID)
	}

	node.Kind = KindScalar
	node.Name = entry.Name()
	node.ByteSize = byteSize
	node.Encoding = ScalarEncoding(rawEncoding)
	return nil
}

func (builder *graphBuilder) parsePointer(entry *Entry, node *Node) error {
	byteSize, ok := entry.Uint(AttrByteSize)
	if !ok {
		byteSize = uint64(builder.desc.PointerSize)
	}

	node.Kind = KindPointer
	node.Name = entry.Name()
	node.ByteSize = byteSize

	ref, ok := entry.TypeRef()
	if !ok {
		// void*
		return nil
	}

	pointee, err := builder.get(ref)
	if err != nil {
		// The pointer's own storage is still valid. Degrade to void*.
		builder.collect(err)
		return nil
	}

	node.Target = pointee
	return nil
}

func (builder *graphBuilder) parseArray(entry *Entry, node *Node) error {
	ref, ok := entry.TypeRef()
	if !ok {
		return fmt.Errorf("array type (%d) has no element type", entry.ID)
	}

	element, err := builder.get(ref)
	if err != nil {
		return err
	}

	stride, ok := entry.Uint(AttrByteStride)
	if !ok {
		// the usual case
		stride = element.ByteSize
	}

	dims := []uint64{}
	for _, child := range entry.Children {
		if child.Tag != TagSubrange {
			continue
		}

		dims = append(dims, subrangeLength(child))
	}

	if len(dims) == 0 {
		dims = append(dims, 0)
	}

	byteSize, haveSize := entry.Uint(AttrByteSize)

	// Recover a missing dimension from the declared byte size.  Unknown
	// extents show up when the producer only saw a pointer to the array.
	if len(dims) == 1 && dims[0] == 0 && haveSize && stride != 0 {
		dims[0] = byteSize / stride
	}

	if !haveSize {
		byteSize = stride
		for _, dim := range dims {
			byteSize *= dim
		}
	}

	node.Kind = KindArray
	node.Name = entry.Name()
	node.ByteSize = byteSize
	node.Element = element
	node.Dims = dims
	node.Stride = stride
	return nil
}

func subrangeLength(entry *Entry) uint64 {
	upper, ok := entry.Uint(AttrUpperBound)
	if ok {
		if upper == unknownUpperBound32 || upper == unknownUpperBound64 {
			return 0
		}

		lower, _ := entry.Uint(AttrLowerBound)
		return upper - lower + 1
	}

	// clang emits a count instead of an upper bound
	count, _ := entry.Uint(AttrCount)
	return count
}

func (builder *graphBuilder) parseComposite(entry *Entry, node *Node) error {
	byteSize, ok := entry.Uint(AttrByteSize)
	if !ok {
		return fmt.Errorf("%s type (%d) has no byte size", entry.Tag, entry.ID)
	}

	kind := KindStruct
	if entry.Tag == TagUnion {
		kind = KindUnion
	}

	members := []Member{}
	for _, child := range entry.Children {
		if child.Tag != TagMember {
			continue
		}

		member, keep, err := builder.parseMember(child)
		if err != nil {
			// A broken member does not invalidate its siblings.
			builder.collect(err)
			continue
		}
		if keep {
			members = append(members, member)
		}
	}

	node.Kind = kind
	node.Name = entry.Name()
	node.ByteSize = byteSize
	node.Members = members
	return nil
}

func (builder *graphBuilder) parseMember(
	entry *Entry,
) (
	Member,
	bool, // false if the member occupies space but is not addressable
	error,
) {
	ref, ok := entry.TypeRef()
	if !ok {
		return Member{}, false, fmt.Errorf(
			"member (%d) has no type reference",
			entry.ID)
	}

	memberType, err := builder.get(ref)
	if err != nil {
		return Member{}, false, err
	}

	member := Member{
		Name:       entry.Name(),
		Type:       memberType,
		ByteOffset: builder.memberOffset(entry),
	}

	bitSize, isBitfield := entry.Uint(AttrBitSize)
	if isBitfield {
		// Zero width or unnamed bitfields (e.g. "int :12;") consume bit
		// positions but are not fields.
		if bitSize == 0 || member.Name == "" {
			return Member{}, false, nil
		}

		err := builder.normalizeBitfield(entry, memberType, bitSize, &member)
		if err != nil {
			return Member{}, false, err
		}
	}

	return member, true, nil
}

func (builder *graphBuilder) memberOffset(entry *Entry) uint64 {
	offset, _ := entry.Uint(AttrDataMemberOffset)
	return offset
}

// normalizeBitfield converts both producer encodings to a single
// representation: byte offset of the storage unit plus bit offset from
// the unit's least significant bit.
func (builder *graphBuilder) normalizeBitfield(
	entry *Entry,
	memberType *Node,
	bitSize uint64,
	member *Member,
) error {
	storageSize, ok := entry.Uint(AttrByteSize)
	if !ok {
		storageSize = memberType.ByteSize
	}
	if storageSize == 0 {
		return fmt.Errorf("bitfield member (%d) has no storage size", entry.ID)
	}
	storageBits := 8 * storageSize

	bitOffset, ok := entry.Uint(AttrBitOffset)
	if ok {
		// dwarf 2/3: offset is from the storage unit's most significant
		// bit
		if bitOffset+bitSize > storageBits {
			return fmt.Errorf(
				"bitfield member (%d) exceeds its storage unit",
				entry.ID)
		}

		member.IsBitfield = true
		member.BitOffset = int(storageBits - bitOffset - bitSize)
		member.BitWidth = int(bitSize)
		return nil
	}

	dataBitOffset, ok := entry.Uint(AttrDataBitOffset)
	if !ok {
		return fmt.Errorf(
			"bitfield member (%d) has no bit offset",
			entry.ID)
	}

	// dwarf 4/5: offset is from the start of the containing storage and
	// may exceed the declared type's width.  Fold whole storage units
	// into the byte offset.
	if dataBitOffset >= storageBits {
		member.ByteOffset += (dataBitOffset / storageBits) * storageSize
		dataBitOffset %= storageBits
	}

	if dataBitOffset+bitSize > storageBits {
		return fmt.Errorf(
			"bitfield member (%d) exceeds its storage unit",
			entry.ID)
	}

	if builder.desc.IsBigEndian() {
		// reverse the mask so the offset counts from the least
		// significant bit on either byte order
		dataBitOffset = storageBits - dataBitOffset - bitSize
	}

	member.IsBitfield = true
	member.BitOffset = int(dataBitOffset)
	member.BitWidth = int(bitSize)
	return nil
}

func (builder *graphBuilder) parseEnum(entry *Entry, node *Node) error {
	var underlying *Node

	ref, ok := entry.TypeRef()
	if ok {
		resolved, err := builder.get(ref)
		if err != nil {
			return err
		}
		underlying = resolved
	}

	byteSize, ok := entry.Uint(AttrByteSize)
	if !ok && underlying != nil {
		byteSize = underlying.ByteSize
	}

	if underlying == nil {
		// older producers omit the underlying type; unsigned of the
		// declared size is the portable reading
		underlying = &Node{
			Kind:     KindScalar,
			ByteSize: byteSize,
			Encoding: EncodingUnsigned,
		}
	}

	enumerators := []Enumerator{}
	for _, child := range entry.Children {
		if child.Tag != TagEnumerator {
			continue
		}

		value, _ := child.Int(AttrConstValue)
		enumerators = append(
			enumerators,
			Enumerator{
				Name:  child.Name(),
				Value: value,
			})
	}

	node.Kind = KindEnum
	node.Name = entry.Name()
	node.ByteSize = byteSize
	node.Underlying = underlying
	node.Enumerators = enumerators
	return nil
}

func (builder *graphBuilder) parseSubroutine(entry *Entry, node *Node) error {
	node.Kind = KindFunction
	node.Name = entry.Name()

	ref, ok := entry.TypeRef()
	if ok {
		ret, err := builder.get(ref)
		if err != nil {
			return err
		}
		node.Return = ret
	}

	for _, child := range entry.Children {
		if child.Tag != TagFormalParameter {
			continue
		}

		paramRef, ok := child.TypeRef()
		if !ok {
			continue
		}

		param, err := builder.get(paramRef)
		if err != nil {
			return err
		}
		node.Params = append(node.Params, param)
	}

	return nil
}
