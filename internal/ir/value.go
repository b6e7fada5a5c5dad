package ir

import (
	"fmt"
	"strconv"
)

// ValueID identifies a value inside one function's arena.
type ValueID uint32

// NoValueID marks the absence of a value.
const NoValueID ValueID = 0

// IsValid reports whether the ID refers to an allocated value.
func (id ValueID) IsValid() bool { return id != NoValueID }

func (id ValueID) String() string {
	if !id.IsValid() {
		return "%_"
	}
	return "%" + strconv.FormatUint(uint64(id), 10)
}

// ValueKind distinguishes how a value came to exist.
type ValueKind uint8

const (
	ValueInvalid ValueKind = iota
	// ValueConst is a compile-time constant.
	ValueConst
	// ValueArg is a kernel or function parameter.
	ValueArg
	// ValueVar is a mutable local slot; reads go through Load.
	ValueVar
	// ValueTemp is the result of an instruction.
	ValueTemp
)

func (k ValueKind) String() string {
	switch k {
	case ValueConst:
		return "const"
	case ValueArg:
		return "arg"
	case ValueVar:
		return "var"
	case ValueTemp:
		return "temp"
	default:
		return "invalid"
	}
}

// ConstKind is the scalar class of a constant.
type ConstKind uint8

const (
	ConstInt ConstKind = iota + 1
	ConstFloat
	ConstBool
)

// Constant is a compile-time scalar.
type Constant struct {
	Kind  ConstKind `json:"kind" msgpack:"kind"`
	Int   int64     `json:"int,omitempty" msgpack:"int,omitempty"`
	Float float64   `json:"float,omitempty" msgpack:"float,omitempty"`
	Bool  bool      `json:"bool,omitempty" msgpack:"bool,omitempty"`
}

// IntConst builds an integer constant.
func IntConst(v int64) Constant { return Constant{Kind: ConstInt, Int: v} }

// FloatConst builds a float constant.
func FloatConst(v float64) Constant { return Constant{Kind: ConstFloat, Float: v} }

// BoolConst builds a boolean constant.
func BoolConst(v bool) Constant { return Constant{Kind: ConstBool, Bool: v} }

// AsInt reports the integer value of an integral constant.
func (c Constant) AsInt() (int64, bool) {
	switch c.Kind {
	case ConstInt:
		return c.Int, true
	case ConstBool:
		if c.Bool {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

func (c Constant) String() string {
	switch c.Kind {
	case ConstInt:
		return strconv.FormatInt(c.Int, 10)
	case ConstFloat:
		return strconv.FormatFloat(c.Float, 'g', -1, 64)
	case ConstBool:
		return strconv.FormatBool(c.Bool)
	default:
		return "?"
	}
}

// NewConst returns an unmaterialized constant value. It has no ID until a
// Builder emits it with Const.
func NewConst(c Constant) *Value {
	return &Value{Kind: ValueConst, Const: &c}
}

// Value is the IR handle bound to a name in a scope.
type Value struct {
	ID    ValueID   `json:"id" msgpack:"id"`
	Kind  ValueKind `json:"kind" msgpack:"kind"`
	Name  string    `json:"name,omitempty" msgpack:"name,omitempty"`
	Const *Constant `json:"const,omitempty" msgpack:"const,omitempty"`
}

// IsConst reports whether the value is a compile-time constant.
func (v *Value) IsConst() bool { return v != nil && v.Kind == ValueConst && v.Const != nil }

func (v *Value) String() string {
	if v == nil {
		return "<nil>"
	}
	if v.IsConst() {
		return fmt.Sprintf("%s(%s)", v.ID, v.Const)
	}
	if v.Name != "" {
		return fmt.Sprintf("%s<%s>", v.ID, v.Name)
	}
	return v.ID.String()
}
