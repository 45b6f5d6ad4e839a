package record

import "fmt"

// Expr is the external expression evaluator (spec §6) that scans call to
// filter records. A tree of Expr values drives each call to next.
type Expr interface {
	Eval(s Schema, rec *Record) (any, error)
}

// Const always evaluates to the same value.
type Const struct{ Value any }

func (c Const) Eval(Schema, *Record) (any, error) { return c.Value, nil }

// AttrRef evaluates to the value of attribute Index in the current record.
type AttrRef struct{ Index int }

func (r AttrRef) Eval(s Schema, rec *Record) (any, error) {
	return GetAttr(s, rec, r.Index)
}

// CompareOp is one of the three supported comparison operators.
type CompareOp int

const (
	OpEq CompareOp = iota
	OpLt
	OpGt
)

// Compare evaluates Left and Right and applies Op, returning a bool.
type Compare struct {
	Op          CompareOp
	Left, Right Expr
}

func (c Compare) Eval(s Schema, rec *Record) (any, error) {
	lv, err := c.Left.Eval(s, rec)
	if err != nil {
		return nil, err
	}
	rv, err := c.Right.Eval(s, rec)
	if err != nil {
		return nil, err
	}
	cmp, err := compareValues(lv, rv)
	if err != nil {
		return nil, err
	}
	switch c.Op {
	case OpEq:
		return cmp == 0, nil
	case OpLt:
		return cmp < 0, nil
	case OpGt:
		return cmp > 0, nil
	default:
		return nil, fmt.Errorf("record: unknown comparison operator %v", c.Op)
	}
}

func compareValues(a, b any) (int, error) {
	af, aok := asFloat64(a)
	bf, bok := asFloat64(b)
	if aok && bok {
		switch {
		case af < bf:
			return -1, nil
		case af > bf:
			return 1, nil
		default:
			return 0, nil
		}
	}

	as, aok := a.(string)
	bs, bok := b.(string)
	if aok && bok {
		switch {
		case as < bs:
			return -1, nil
		case as > bs:
			return 1, nil
		default:
			return 0, nil
		}
	}

	ab, aok := a.(bool)
	bb, bok := b.(bool)
	if aok && bok {
		if ab == bb {
			return 0, nil
		}
		if !ab && bb {
			return -1, nil
		}
		return 1, nil
	}

	return 0, fmt.Errorf("record: cannot compare %T and %T", a, b)
}

func asFloat64(v any) (float64, bool) {
	switch x := v.(type) {
	case int32:
		return float64(x), true
	case int:
		return float64(x), true
	case float32:
		return float64(x), true
	case float64:
		return x, true
	default:
		return 0, false
	}
}

// And evaluates true iff every operand evaluates to true.
type And struct{ Operands []Expr }

func (a And) Eval(s Schema, rec *Record) (any, error) {
	for _, op := range a.Operands {
		v, err := op.Eval(s, rec)
		if err != nil {
			return nil, err
		}
		b, ok := v.(bool)
		if !ok {
			return nil, fmt.Errorf("record: AND operand is not boolean")
		}
		if !b {
			return false, nil
		}
	}
	return true, nil
}

// Or evaluates true iff any operand evaluates to true.
type Or struct{ Operands []Expr }

func (o Or) Eval(s Schema, rec *Record) (any, error) {
	for _, op := range o.Operands {
		v, err := op.Eval(s, rec)
		if err != nil {
			return nil, err
		}
		b, ok := v.(bool)
		if !ok {
			return nil, fmt.Errorf("record: OR operand is not boolean")
		}
		if b {
			return true, nil
		}
	}
	return false, nil
}

// Not negates its operand.
type Not struct{ Operand Expr }

func (n Not) Eval(s Schema, rec *Record) (any, error) {
	v, err := n.Operand.Eval(s, rec)
	if err != nil {
		return nil, err
	}
	b, ok := v.(bool)
	if !ok {
		return nil, fmt.Errorf("record: NOT operand is not boolean")
	}
	return !b, nil
}
