package compiler

import (
	"unicode"

	"github.com/wudi/loom/lexer"
	"github.com/wudi/loom/opcodes"
	"github.com/wudi/loom/values"
)

// varKind tags how a name resolved, so accessVariable knows which opcode
// pair (or implicit method call) to emit.
type varKind int

const (
	varLocal varKind = iota
	varUpvalue
	varModule
	varField
	varImplicitThis
)

type varResolution struct {
	kind  varKind
	index int
	// sigBase is set for varImplicitThis: the getter/setter signature base
	// name used for the implicit self-send.
	sigBase string
}

// resolveUpvalueIn walks from unit outward looking for name as a local in
// some enclosing compile unit, threading an upvalue reference through every
// intervening unit (spec.md section 4.2, item 3).
func resolveUpvalueIn(unit *compileUnit, name string) int {
	if unit.enclosing == nil {
		return -1
	}
	if slot := unit.enclosing.resolveLocal(name); slot != -1 {
		unit.enclosing.locals[slot].IsUpvalue = true
		return unit.addUpvalue(true, byte(slot))
	}
	if up := resolveUpvalueIn(unit.enclosing, name); up != -1 {
		return unit.addUpvalue(false, byte(up))
	}
	return -1
}

// resolveVariable implements the lookup order of spec.md section 4.2:
// local, upvalue, class field (inside a method), implicit getter/setter on
// `this` (inside a method, for an undeclared lowercase name), and finally
// module variable (declaring a forward reference if this is the first
// mention).
func (c *Compiler) resolveVariable(name string) varResolution {
	if slot := c.unit.resolveLocal(name); slot != -1 {
		return varResolution{kind: varLocal, index: slot}
	}
	if up := resolveUpvalueIn(c.unit, name); up != -1 {
		return varResolution{kind: varUpvalue, index: up}
	}
	if class := c.currentClass(); class != nil {
		if idx, ok := class.fieldIndex[name]; ok {
			return varResolution{kind: varField, index: idx}
		}
		if idx, ok := class.staticFieldIndex[name]; ok {
			return varResolution{kind: varModule, index: idx}
		}
		if isLower(name) {
			return varResolution{kind: varImplicitThis, sigBase: name}
		}
	}
	idx := c.module.VarIndex(name)
	if idx == -1 {
		idx = c.module.Declare(name, values.Number(float64(c.prev().Line)))
	}
	return varResolution{kind: varModule, index: idx}
}

// currentClass returns the innermost enclosing class bookkeeping reachable
// from the current compile unit: a method's own unit, or a block-argument
// lambda nested inside one. A plain function compile unit blocks the walk,
// since functions never run with an implicit receiver.
func (c *Compiler) currentClass() *classBookkeeping {
	for u := c.unit; u != nil; u = u.enclosing {
		if u.enclosingClass != nil {
			return u.enclosingClass
		}
		if !u.isMethod && u.fn.Name != "" {
			return nil
		}
	}
	return nil
}

func isLower(name string) bool {
	if name == "" {
		return false
	}
	return unicode.IsLower(rune(name[0]))
}

// thisResolution resolves `this` exactly like any other variable: local
// slot 0 of the enclosing method, or an upvalue capturing it into a nested
// lambda/closure.
func (c *Compiler) thisResolution() varResolution {
	return c.resolveVariable("this")
}

// accessVariable compiles a read, or (when canAssign and an '=' follows) a
// write, of the resolved variable r. Kinds that require an explicit
// receiver on the stack (a field read from outside its declaring method,
// and the implicit getter/setter dispatched on `this`) push the receiver
// first, so a following assignment ends up [receiver, value] exactly like
// any other setter call.
func (c *Compiler) accessVariable(r varResolution, canAssign bool) {
	switch r.kind {
	case varLocal, varUpvalue, varModule:
		if canAssign && c.match(lexer.Eq) {
			c.expression(bpAssign)
			c.storeSimple(r)
			return
		}
		c.loadSimple(r)

	case varField:
		if c.unit.isMethod {
			if canAssign && c.match(lexer.Eq) {
				c.expression(bpAssign)
				c.emitOpByte(opcodes.StoreThisField, byte(r.index))
				return
			}
			c.emitOpByte(opcodes.LoadThisField, byte(r.index))
			return
		}
		c.loadSimple(c.thisResolution())
		if canAssign && c.match(lexer.Eq) {
			c.expression(bpAssign)
			c.emitOpByte(opcodes.StoreField, byte(r.index))
			return
		}
		c.emitOpByte(opcodes.LoadField, byte(r.index))

	case varImplicitThis:
		c.loadSimple(c.thisResolution())
		if canAssign && c.match(lexer.Eq) {
			c.expression(bpAssign)
			c.invokeSignature(Signature{Kind: SigSetter, Name: r.sigBase, ArgNum: 1})
			return
		}
		c.invokeSignature(Signature{Kind: SigGetter, Name: r.sigBase})
	}
}

func (c *Compiler) loadSimple(r varResolution) {
	switch r.kind {
	case varLocal:
		c.emitOpByte(opcodes.LoadLocalVar, byte(r.index))
	case varUpvalue:
		c.emitOpByte(opcodes.LoadUpvalue, byte(r.index))
	case varModule:
		c.emitOpShort(opcodes.LoadModuleVar, r.index)
	}
}

func (c *Compiler) storeSimple(r varResolution) {
	switch r.kind {
	case varLocal:
		c.emitOpByte(opcodes.StoreLocalVar, byte(r.index))
	case varUpvalue:
		c.emitOpByte(opcodes.StoreUpvalue, byte(r.index))
	case varModule:
		c.emitOpShort(opcodes.StoreModuleVar, r.index)
	}
}

// invokeSignature emits a Call instruction for sig against whatever value
// sequence is already on the stack (receiver followed by sig.ArgNum args).
func (c *Compiler) invokeSignature(sig Signature) {
	if sig.ArgNum > 16 {
		c.errorf("method %q takes too many arguments (max 16)", sig.Canonical())
	}
	symbol := c.methodSymbol(sig)
	c.emitOpShort(opcodes.CallN(sig.ArgNum), symbol)
}
