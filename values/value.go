// Package values implements the tagged Value and the heap object variants
// that make up Loom's object model: string, list, map, range, function,
// closure, upvalue, class, instance, module and thread.
package values

import (
	"fmt"
	"math"
)

// ValueType is the tag on a Value.
type ValueType byte

const (
	TypeUndefined ValueType = iota
	TypeNull
	TypeTrue
	TypeFalse
	TypeNumber
	TypeObject
)

// Value is the uniform tagged value described in spec.md section 3. Numbers
// are stored inline; every other heap-allocated kind is reached through Obj.
type Value struct {
	Type ValueType
	Num  float64
	Obj  Obj
}

func Undefined() Value { return Value{Type: TypeUndefined} }
func Null() Value      { return Value{Type: TypeNull} }
func True() Value      { return Value{Type: TypeTrue} }
func False() Value     { return Value{Type: TypeFalse} }

func Bool(b bool) Value {
	if b {
		return True()
	}
	return False()
}

func Number(n float64) Value { return Value{Type: TypeNumber, Num: n} }

func FromObj(o Obj) Value { return Value{Type: TypeObject, Obj: o} }

func (v Value) IsUndefined() bool { return v.Type == TypeUndefined }
func (v Value) IsNull() bool      { return v.Type == TypeNull }
func (v Value) IsBool() bool      { return v.Type == TypeTrue || v.Type == TypeFalse }
func (v Value) IsTrue() bool      { return v.Type == TypeTrue }
func (v Value) IsFalse() bool     { return v.Type == TypeFalse }
func (v Value) IsNumber() bool    { return v.Type == TypeNumber }
func (v Value) IsObject() bool    { return v.Type == TypeObject }

func (v Value) BoolValue() bool { return v.Type == TypeTrue }

// Falsey reports whether v is one of the two falsey values: false and null.
// Every other value, including the number zero, is truthy.
func (v Value) Falsey() bool {
	return v.Type == TypeNull || v.Type == TypeFalse
}

func (v Value) Truthy() bool { return !v.Falsey() }

func (v Value) ObjKind() (ObjKind, bool) {
	if v.Type != TypeObject || v.Obj == nil {
		return 0, false
	}
	return v.Obj.Hdr().Kind, true
}

func (v Value) Is(kind ObjKind) bool {
	k, ok := v.ObjKind()
	return ok && k == kind
}

func (v Value) AsString() (*ObjString, bool) {
	if s, ok := v.Obj.(*ObjString); ok && v.Type == TypeObject {
		return s, true
	}
	return nil, false
}

func (v Value) AsList() (*ObjList, bool) {
	if l, ok := v.Obj.(*ObjList); ok && v.Type == TypeObject {
		return l, true
	}
	return nil, false
}

func (v Value) AsMap() (*ObjMap, bool) {
	if m, ok := v.Obj.(*ObjMap); ok && v.Type == TypeObject {
		return m, true
	}
	return nil, false
}

func (v Value) AsRange() (*ObjRange, bool) {
	if r, ok := v.Obj.(*ObjRange); ok && v.Type == TypeObject {
		return r, true
	}
	return nil, false
}

func (v Value) AsFn() (*ObjFn, bool) {
	if f, ok := v.Obj.(*ObjFn); ok && v.Type == TypeObject {
		return f, true
	}
	return nil, false
}

func (v Value) AsClosure() (*ObjClosure, bool) {
	if c, ok := v.Obj.(*ObjClosure); ok && v.Type == TypeObject {
		return c, true
	}
	return nil, false
}

func (v Value) AsClass() (*ObjClass, bool) {
	if c, ok := v.Obj.(*ObjClass); ok && v.Type == TypeObject {
		return c, true
	}
	return nil, false
}

func (v Value) AsInstance() (*ObjInstance, bool) {
	if i, ok := v.Obj.(*ObjInstance); ok && v.Type == TypeObject {
		return i, true
	}
	return nil, false
}

func (v Value) AsThread() (*ObjThread, bool) {
	if t, ok := v.Obj.(*ObjThread); ok && v.Type == TypeObject {
		return t, true
	}
	return nil, false
}

func (v Value) AsModule() (*ObjModule, bool) {
	if m, ok := v.Obj.(*ObjModule); ok && v.Type == TypeObject {
		return m, true
	}
	return nil, false
}

// Equal implements the structural-for-string-and-range, identity-otherwise
// equality contract from spec.md section 3 ("=="). Numeric equality is plain
// float equality; NaN is never equal to itself, matching IEEE-754.
func Equal(a, b Value) bool {
	if a.Type != b.Type {
		return false
	}
	switch a.Type {
	case TypeUndefined, TypeNull, TypeTrue, TypeFalse:
		return true
	case TypeNumber:
		return a.Num == b.Num
	case TypeObject:
		if sa, ok := a.AsString(); ok {
			if sb, ok := b.AsString(); ok {
				return string(sa.Bytes) == string(sb.Bytes)
			}
			return false
		}
		if ra, ok := a.AsRange(); ok {
			if rb, ok := b.AsRange(); ok {
				return ra.From == rb.From && ra.To == rb.To
			}
			return false
		}
		return a.Obj == b.Obj
	}
	return false
}

// Hash computes the FNV-1a-derived hash used by Map for the hashable kinds:
// false, null, true, numbers, and the string (precomputed), range and class
// objects. Every other kind is unhashable and callers must reject it before
// calling Hash.
func Hash(v Value) (uint32, bool) {
	switch v.Type {
	case TypeFalse:
		return 0, true
	case TypeNull:
		return 1, true
	case TypeTrue:
		return 2, true
	case TypeNumber:
		return hashNum(v.Num), true
	case TypeObject:
		switch o := v.Obj.(type) {
		case *ObjString:
			return o.Hash, true
		case *ObjRange:
			return hashNum(o.From) ^ hashNum(o.To), true
		case *ObjClass:
			return FNV1a(o.Name), true
		}
	}
	return 0, false
}

func hashNum(f float64) uint32 {
	bits := math.Float64bits(f)
	return uint32(bits) ^ uint32(bits>>32)
}

// FNV1a computes the 32-bit FNV-1a hash of s, used for string interning and
// as the class-name hash for Map keys.
func FNV1a(s string) uint32 {
	var h uint32 = 2166136261
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= 16777619
	}
	return h
}

func (v Value) String() string {
	switch v.Type {
	case TypeUndefined:
		return "<undefined>"
	case TypeNull:
		return "null"
	case TypeTrue:
		return "true"
	case TypeFalse:
		return "false"
	case TypeNumber:
		return fmt.Sprintf("%g", v.Num)
	case TypeObject:
		if v.Obj == nil {
			return "<nil obj>"
		}
		return v.Obj.DebugString()
	}
	return "<?>"
}
