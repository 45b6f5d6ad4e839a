package bx

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestU32RoundTrip(t *testing.T) {
	b := make([]byte, 4)
	var v uint32 = 0x01020304

	PutU32(b, v)
	assert.Equal(t, []byte{0x04, 0x03, 0x02, 0x01}, b)
	assert.Equal(t, v, U32(b))
}

func TestU32NegativeInt32RoundTrip(t *testing.T) {
	b := make([]byte, 4)
	var v int32 = -123456

	PutU32(b, uint32(v))
	assert.Equal(t, v, int32(U32(b)))
}

func TestPutU32IntoLargerBuffer(t *testing.T) {
	buf := make([]byte, 12)
	PutU32(buf[4:8], 0x0A0B0C0D)
	assert.Equal(t, uint32(0x0A0B0C0D), U32(buf[4:8]))
	assert.Equal(t, []byte{0, 0, 0, 0}, buf[0:4])
	assert.Equal(t, []byte{0, 0, 0, 0}, buf[8:12])
}
