package compiler

import "github.com/wudi/loom/values"

const (
	maxLocals   = 128
	maxUpvalues = 128
)

// Local is one entry of a compile unit's local-variable table.
type Local struct {
	Name      string
	Depth     int
	IsUpvalue bool
}

// loopInfo records the innermost enclosing loop, used by break/continue and
// by the loop-exit End-to-Jump backpatching pass (spec.md section 4.4).
type loopInfo struct {
	conditionStart int
	bodyStart      int
	scopeDepth     int
	enclosing      *loopInfo
}

// classBookkeeping tracks the class currently being compiled: its field
// symbol table, the method symbols it has bound (for the field-index
// fix-up pass), and the signature of the method body currently compiling
// (needed to resolve `super.m(...)` with the right arity).
type classBookkeeping struct {
	name             string
	fieldNames       []string
	fieldIndex       map[string]int
	staticFieldIndex map[string]int
	instanceMethods  []int
	staticMethods    []int
	signature        *Signature
	isStatic         bool

	// moduleVarIndex is the module-variable slot the class object itself
	// is stored in. `super` calls use it as the Super opcode's second
	// operand: by the time any method body runs, CreateClass has already
	// populated this slot, so the VM recovers the superclass as
	// module.VarValues[moduleVarIndex].AsClass().Super. This is the
	// two-phase fix-up spec.md section 4.5 describes, done via a module
	// variable slot instead of a patched constant.
	moduleVarIndex int
}

func newClassBookkeeping(name string) *classBookkeeping {
	return &classBookkeeping{name: name, fieldIndex: make(map[string]int)}
}

func (c *classBookkeeping) fieldSlot(name string) int {
	if idx, ok := c.fieldIndex[name]; ok {
		return idx
	}
	idx := len(c.fieldNames)
	c.fieldNames = append(c.fieldNames, name)
	c.fieldIndex[name] = idx
	return idx
}

// compileUnit is one self-contained bytecode-emission context: the module
// body, a function, a method body, or a block-argument lambda (spec.md
// section 4.2).
type compileUnit struct {
	enclosing *compileUnit

	fn *values.ObjFn

	locals   []Local
	upvalues []UpvalueRef

	scopeDepth int
	numSlots   int

	loop *loopInfo

	// enclosingClass is non-nil while compiling a method body of a class
	// (or a lambda nested inside one); isMethod is true only for the
	// method's own compile unit, which is where slot 0 is "this".
	enclosingClass *classBookkeeping
	isMethod       bool
}

// UpvalueRef is { isEnclosingLocalVar, index } from spec.md section 4.2.
type UpvalueRef struct {
	IsEnclosingLocalVar bool
	Index               byte
}

func newCompileUnit(enclosing *compileUnit, fn *values.ObjFn, depth int, isMethod bool, class *classBookkeeping) *compileUnit {
	u := &compileUnit{enclosing: enclosing, fn: fn, scopeDepth: depth, enclosingClass: class, isMethod: isMethod}
	// Slot 0 is reserved: `this` for methods, a placeholder for functions.
	name := ""
	if isMethod {
		name = "this"
	}
	u.locals = append(u.locals, Local{Name: name, Depth: -1})
	u.numSlots = 1
	return u
}

func (u *compileUnit) touchSlots(n int) {
	u.numSlots += n
	if u.numSlots > u.fn.MaxSlots {
		u.fn.MaxSlots = u.numSlots
	}
}

func (u *compileUnit) resolveLocal(name string) int {
	for i := len(u.locals) - 1; i >= 0; i-- {
		if u.locals[i].Name == name {
			return i
		}
	}
	return -1
}

func (u *compileUnit) addUpvalue(isLocal bool, index byte) int {
	for i, uv := range u.upvalues {
		if uv.IsEnclosingLocalVar == isLocal && uv.Index == index {
			return i
		}
	}
	u.upvalues = append(u.upvalues, UpvalueRef{IsEnclosingLocalVar: isLocal, Index: byte(index)})
	u.fn.UpvalueNum = len(u.upvalues)
	return len(u.upvalues) - 1
}
