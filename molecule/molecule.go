// Package molecule implements zero-copy readers over the canonical tabular
// and tagged-union binary encoding used for every on-chain structure this
// core parses (spec §6): fixed-item-size vectors laid out contiguously
// behind a u32 item count with no per-item offsets, dynamic tables
// prefixed by a total-size u32 and a
// per-field u32-LE offset table, and unions prefixed by a u32 tag.
//
// Every reader here wraps a []byte slice and computes field/item
// boundaries on construction without copying the underlying bytes (§9:
// "lazy readers into the original witness bytes; avoid eager decoding
// until a branch is selected"). Tables tolerate extra trailing fields
// appended by a newer schema version; unions reject unknown tags outright,
// per §6's backward-compatibility rule.
package molecule

import (
	"encoding/binary"

	"github.com/godwoken-rollup/rollup-scripts/ckberrors"
)

const headerU32Size = 4

// Table is a lazy reader over a molecule dynamic table: total-size u32
// followed by one u32-LE offset per field, followed by field bodies.
type Table struct {
	raw     []byte
	offsets []uint32 // one per field present in the data, plus a synthetic trailing totalSize
}

// NewTable parses raw's table header. It does not validate field contents;
// callers validate each field's own shape when they read it.
func NewTable(raw []byte) (*Table, error) {
	if len(raw) < headerU32Size*2 {
		return nil, ckberrors.New(ckberrors.LengthNotEnough, "molecule: table header truncated")
	}
	totalSize := binary.LittleEndian.Uint32(raw[0:4])
	if int(totalSize) != len(raw) {
		return nil, ckberrors.Newf(ckberrors.Encoding, "molecule: table total size %d != buffer length %d", totalSize, len(raw))
	}
	firstOffset := binary.LittleEndian.Uint32(raw[4:8])
	if firstOffset < 8 || firstOffset > totalSize || (firstOffset-4)%4 != 0 {
		return nil, ckberrors.New(ckberrors.Encoding, "molecule: table header offset malformed")
	}
	fieldCount := int((firstOffset - 4) / 4)
	offsets := make([]uint32, fieldCount+1)
	for i := 0; i < fieldCount; i++ {
		start := 4 + 4*i
		offsets[i] = binary.LittleEndian.Uint32(raw[start : start+4])
	}
	offsets[fieldCount] = totalSize
	for i := 0; i < fieldCount; i++ {
		if offsets[i] > offsets[i+1] || offsets[i+1] > totalSize {
			return nil, ckberrors.New(ckberrors.Encoding, "molecule: table field offsets out of order")
		}
	}
	return &Table{raw: raw, offsets: offsets}, nil
}

// FieldCount returns how many fields the encoded table actually carries,
// which may exceed what an older reader's schema names (forward
// compatibility: new fields are appended, never inserted).
func (t *Table) FieldCount() int {
	return len(t.offsets) - 1
}

// Field returns the raw bytes of field i. A reader built against an older
// schema simply never calls Field for indices beyond what it knows, which
// is how trailing unknown fields are ignored.
func (t *Table) Field(i int) ([]byte, error) {
	if i < 0 || i >= t.FieldCount() {
		return nil, ckberrors.New(ckberrors.IndexOutOfBound, "molecule: table field index out of bound")
	}
	return t.raw[t.offsets[i]:t.offsets[i+1]], nil
}

// Vector is a lazy reader over a molecule dynamic vector (a "dynvec": a
// vector whose items are themselves variable-length, e.g. a vector of
// tables). Its header shape is identical to Table's; the distinction is
// purely in how callers interpret items (by position, not by field name).
type Vector struct {
	t *Table
}

// NewVector parses raw as a dynvec.
func NewVector(raw []byte) (*Vector, error) {
	t, err := NewTable(raw)
	if err != nil {
		return nil, err
	}
	return &Vector{t: t}, nil
}

// Len returns the number of items in the vector.
func (v *Vector) Len() int { return v.t.FieldCount() }

// Item returns the raw bytes of the item at index i.
func (v *Vector) Item(i int) ([]byte, error) { return v.t.Field(i) }

// FixVec reads a molecule fixed-item-size vector: a u32 item count
// followed by count*itemSize contiguous bytes, with no per-item offsets
// (every item has the same byte width, e.g. a vector of 32-byte hashes).
type FixVec struct {
	raw      []byte
	itemSize int
}

// NewFixVec parses raw as a fixvec of the given item size.
func NewFixVec(raw []byte, itemSize int) (*FixVec, error) {
	if len(raw) < headerU32Size {
		return nil, ckberrors.New(ckberrors.LengthNotEnough, "molecule: fixvec header truncated")
	}
	count := binary.LittleEndian.Uint32(raw[0:4])
	want := headerU32Size + int(count)*itemSize
	if len(raw) != want {
		return nil, ckberrors.Newf(ckberrors.Encoding, "molecule: fixvec length %d != expected %d", len(raw), want)
	}
	return &FixVec{raw: raw, itemSize: itemSize}, nil
}

// Len returns the number of items.
func (f *FixVec) Len() int {
	return (len(f.raw) - headerU32Size) / f.itemSize
}

// Item returns the raw bytes of item i.
func (f *FixVec) Item(i int) ([]byte, error) {
	if i < 0 || i >= f.Len() {
		return nil, ckberrors.New(ckberrors.IndexOutOfBound, "molecule: fixvec index out of bound")
	}
	start := headerU32Size + i*f.itemSize
	return f.raw[start : start+f.itemSize], nil
}

// ParseBytes reads a molecule `Bytes` (a fixvec of byte): a u32 length
// prefix followed by exactly that many raw bytes.
func ParseBytes(raw []byte) ([]byte, error) {
	if len(raw) < headerU32Size {
		return nil, ckberrors.New(ckberrors.LengthNotEnough, "molecule: Bytes header truncated")
	}
	n := binary.LittleEndian.Uint32(raw[0:4])
	if len(raw) != headerU32Size+int(n) {
		return nil, ckberrors.Newf(ckberrors.Encoding, "molecule: Bytes length %d != expected %d", len(raw)-headerU32Size, n)
	}
	return raw[headerU32Size:], nil
}

// Union is a lazy reader over a molecule tagged union: a u32 tag followed
// by the variant's own encoding.
type Union struct {
	Tag  uint32
	Body []byte
}

// ParseUnion reads raw's u32 tag prefix. Unlike Table, there is no
// tolerance here: an unrecognized tag is always a hard rejection (§6:
// "the core's readers must... reject unknown union tags"); callers enforce
// that by switching on Tag against their own known variant set.
func ParseUnion(raw []byte) (*Union, error) {
	if len(raw) < headerU32Size {
		return nil, ckberrors.New(ckberrors.LengthNotEnough, "molecule: union tag truncated")
	}
	return &Union{
		Tag:  binary.LittleEndian.Uint32(raw[0:4]),
		Body: raw[headerU32Size:],
	}, nil
}

// BuildTable assembles a molecule table from already-encoded field bytes,
// used by tests and by any witness-construction helper that needs to round
// -trip a table through this package.
func BuildTable(fields [][]byte) []byte {
	headerLen := headerU32Size + headerU32Size*len(fields)
	totalLen := headerLen
	for _, f := range fields {
		totalLen += len(f)
	}
	out := make([]byte, totalLen)
	binary.LittleEndian.PutUint32(out[0:4], uint32(totalLen))
	offset := uint32(headerLen)
	for i, f := range fields {
		binary.LittleEndian.PutUint32(out[4+4*i:8+4*i], offset)
		copy(out[offset:], f)
		offset += uint32(len(f))
	}
	return out
}

// BuildBytes assembles a molecule `Bytes` value.
func BuildBytes(data []byte) []byte {
	out := make([]byte, headerU32Size+len(data))
	binary.LittleEndian.PutUint32(out[0:4], uint32(len(data)))
	copy(out[headerU32Size:], data)
	return out
}

// BuildUnion assembles a molecule union value from a tag and body.
func BuildUnion(tag uint32, body []byte) []byte {
	out := make([]byte, headerU32Size+len(body))
	binary.LittleEndian.PutUint32(out[0:4], tag)
	copy(out[headerU32Size:], body)
	return out
}
