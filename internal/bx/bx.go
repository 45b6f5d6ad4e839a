// Package bx packs and unpacks the fixed-width little-endian integer
// fields used by the record manager's header and attribute layouts and the
// B+-tree header and node layouts. Every on-disk int32 field in this repository goes through U32/
// PutU32; there is no 16/64-bit or big-endian field anywhere in the wire
// format, so those variants are not carried.
package bx

import "encoding/binary"

// U32 decodes a little-endian uint32 from the first 4 bytes of b.
func U32(b []byte) uint32 { return binary.LittleEndian.Uint32(b) }

// PutU32 encodes v as a little-endian uint32 into the first 4 bytes of b.
func PutU32(b []byte, v uint32) { binary.LittleEndian.PutUint32(b, v) }
