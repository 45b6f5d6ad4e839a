package record

import (
	"errors"
	"fmt"
	"math"

	"github.com/riverdb/riverdb/internal/bx"
)

// RID (record identifier) is a stable (page, slot) pair, valid for a
// record's lifetime until deletion.
type RID struct {
	Page int
	Slot int
}

const (
	tombstoneLive = '+'
	tombstoneFree = '-'
)

// Record is a byte buffer of length schema.RecordSize() plus an RID. Byte 0
// is the tombstone marker ('+' live, anything else free/deleted); bytes
// 1..end are the packed attributes in schema order.
type Record struct {
	RID  RID
	Data []byte
}

// NewRecord allocates a zeroed record buffer sized for s, marked live.
func NewRecord(s Schema) *Record {
	buf := make([]byte, s.RecordSize())
	buf[0] = tombstoneLive
	return &Record{Data: buf}
}

var ErrAttrIndexOutOfRange = errors.New("record: attribute index out of range")

// GetAttr decodes the value at attribute index i of rec according to s.
// Returned types: int32, float32, bool, string.
func GetAttr(s Schema, rec *Record, i int) (any, error) {
	if i < 0 || i >= len(s.Attrs) {
		return nil, ErrAttrIndexOutOfRange
	}
	a := s.Attrs[i]
	off := s.offsetOf(i)
	field := rec.Data[off : off+a.Width()]

	switch a.Type {
	case TypeInt:
		return int32(bx.U32(field)), nil
	case TypeFloat:
		return math.Float32frombits(bx.U32(field)), nil
	case TypeBool:
		return field[0] != 0, nil
	case TypeString:
		end := len(field)
		for end > 0 && field[end-1] == 0 {
			end--
		}
		return string(field[:end]), nil
	default:
		return nil, fmt.Errorf("record: unsupported attribute type %v", a.Type)
	}
}

// SetAttr packs value into attribute index i of rec according to s.
func SetAttr(s Schema, rec *Record, i int, value any) error {
	if i < 0 || i >= len(s.Attrs) {
		return ErrAttrIndexOutOfRange
	}
	a := s.Attrs[i]
	off := s.offsetOf(i)
	field := rec.Data[off : off+a.Width()]

	switch a.Type {
	case TypeInt:
		v, ok := toInt32(value)
		if !ok {
			return fmt.Errorf("record: attribute %q expects int, got %T", a.Name, value)
		}
		bx.PutU32(field, uint32(v))
	case TypeFloat:
		v, ok := toFloat32(value)
		if !ok {
			return fmt.Errorf("record: attribute %q expects float, got %T", a.Name, value)
		}
		bx.PutU32(field, math.Float32bits(v))
	case TypeBool:
		v, ok := value.(bool)
		if !ok {
			return fmt.Errorf("record: attribute %q expects bool, got %T", a.Name, value)
		}
		if v {
			field[0] = 1
		} else {
			field[0] = 0
		}
	case TypeString:
		v, ok := value.(string)
		if !ok {
			return fmt.Errorf("record: attribute %q expects string, got %T", a.Name, value)
		}
		b := []byte(v)
		if len(b) > len(field) {
			return fmt.Errorf("record: attribute %q value exceeds field length %d", a.Name, len(field))
		}
		for j := range field {
			field[j] = 0
		}
		copy(field, b)
	default:
		return fmt.Errorf("record: unsupported attribute type %v", a.Type)
	}
	return nil
}

func toInt32(v any) (int32, bool) {
	switch x := v.(type) {
	case int32:
		return x, true
	case int:
		return int32(x), true
	}
	return 0, false
}

func toFloat32(v any) (float32, bool) {
	switch x := v.(type) {
	case float32:
		return x, true
	case float64:
		return float32(x), true
	}
	return 0, false
}
