// Package record implements the tuple-oriented record manager: schema
// metadata, slotted pages with tombstoned fixed-size slots, RID-addressed
// tuples and predicate-filtered scans, all built on top of a dedicated
// buffer pool per table.
package record

import (
	"fmt"

	"github.com/riverdb/riverdb/internal/bx"
)

// AttrType is one of the four supported attribute types.
type AttrType int32

const (
	TypeInt AttrType = iota
	TypeFloat
	TypeBool
	TypeString
)

// Attribute describes one schema column. TypeLength is only meaningful for
// TypeString and holds the fixed field width in bytes.
type Attribute struct {
	Name       string
	Type       AttrType
	TypeLength int
}

// Width returns the packed byte width of one value of this attribute.
func (a Attribute) Width() int {
	switch a.Type {
	case TypeInt:
		return 4
	case TypeFloat:
		return 4
	case TypeBool:
		return 1
	case TypeString:
		return a.TypeLength
	default:
		return 0
	}
}

// Schema is an ordered list of attributes plus the indices that form the
// primary key.
type Schema struct {
	Attrs    []Attribute
	KeyAttrs []int
}

// RecordSize is a pure function of the schema: one tombstone byte plus the
// sum of every attribute's packed width.
func (s Schema) RecordSize() int {
	size := 1
	for _, a := range s.Attrs {
		size += a.Width()
	}
	return size
}

// offsetOf returns the byte offset of attribute i within a packed record,
// counting the leading tombstone byte.
func (s Schema) offsetOf(i int) int {
	off := 1
	for j := 0; j < i; j++ {
		off += s.Attrs[j].Width()
	}
	return off
}

// encodeHeader packs [tupleCount][firstFreePage][numAttr][keySize] followed
// by each attribute's [nameLen][nameBytes][dataType][typeLength] and finally
// the key-attribute index list, per spec §4.2.
func encodeHeader(s Schema, tupleCount, firstFreePage int) []byte {
	buf := make([]byte, 16)
	bx.PutU32(buf[0:4], uint32(int32(tupleCount)))
	bx.PutU32(buf[4:8], uint32(int32(firstFreePage)))
	bx.PutU32(buf[8:12], uint32(int32(len(s.Attrs))))
	bx.PutU32(buf[12:16], uint32(int32(len(s.KeyAttrs))))

	for _, a := range s.Attrs {
		name := []byte(a.Name)
		var lenBuf [4]byte
		bx.PutU32(lenBuf[:], uint32(int32(len(name))))
		buf = append(buf, lenBuf[:]...)
		buf = append(buf, name...)

		var typeBuf [4]byte
		bx.PutU32(typeBuf[:], uint32(int32(a.Type)))
		buf = append(buf, typeBuf[:]...)

		var lenField [4]byte
		bx.PutU32(lenField[:], uint32(int32(a.TypeLength)))
		buf = append(buf, lenField[:]...)
	}

	for _, k := range s.KeyAttrs {
		var kb [4]byte
		bx.PutU32(kb[:], uint32(int32(k)))
		buf = append(buf, kb[:]...)
	}

	return buf
}

// decodeHeader is the inverse of encodeHeader.
func decodeHeader(buf []byte) (s Schema, tupleCount, firstFreePage int, err error) {
	if len(buf) < 16 {
		return Schema{}, 0, 0, fmt.Errorf("record: header buffer too short")
	}
	tupleCount = int(int32(bx.U32(buf[0:4])))
	firstFreePage = int(int32(bx.U32(buf[4:8])))
	numAttr := int(int32(bx.U32(buf[8:12])))
	keySize := int(int32(bx.U32(buf[12:16])))

	off := 16
	attrs := make([]Attribute, 0, numAttr)
	for i := 0; i < numAttr; i++ {
		if off+4 > len(buf) {
			return Schema{}, 0, 0, fmt.Errorf("record: truncated header at attr %d", i)
		}
		nameLen := int(int32(bx.U32(buf[off : off+4])))
		off += 4
		if off+nameLen > len(buf) {
			return Schema{}, 0, 0, fmt.Errorf("record: truncated attr name at attr %d", i)
		}
		name := string(buf[off : off+nameLen])
		off += nameLen

		if off+8 > len(buf) {
			return Schema{}, 0, 0, fmt.Errorf("record: truncated attr type at attr %d", i)
		}
		dataType := AttrType(int32(bx.U32(buf[off : off+4])))
		off += 4
		typeLength := int(int32(bx.U32(buf[off : off+4])))
		off += 4

		attrs = append(attrs, Attribute{Name: name, Type: dataType, TypeLength: typeLength})
	}

	keyAttrs := make([]int, 0, keySize)
	for i := 0; i < keySize; i++ {
		if off+4 > len(buf) {
			return Schema{}, 0, 0, fmt.Errorf("record: truncated key attrs")
		}
		keyAttrs = append(keyAttrs, int(int32(bx.U32(buf[off:off+4]))))
		off += 4
	}

	return Schema{Attrs: attrs, KeyAttrs: keyAttrs}, tupleCount, firstFreePage, nil
}
