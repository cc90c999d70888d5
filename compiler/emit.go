package compiler

import (
	"github.com/wudi/loom/opcodes"
	"github.com/wudi/loom/values"
)

func (c *Compiler) emitByte(b byte) {
	u := c.unit
	u.fn.Code = append(u.fn.Code, b)
	u.fn.Lines = append(u.fn.Lines, c.lex.Prev.Line)
}

func (c *Compiler) emitOp(op opcodes.Opcode) { c.emitByte(byte(op)) }

func (c *Compiler) emitShort(n int) {
	c.emitByte(byte(n >> 8))
	c.emitByte(byte(n))
}

func (c *Compiler) emitOpByte(op opcodes.Opcode, b byte) {
	c.emitOp(op)
	c.emitByte(b)
}

func (c *Compiler) emitOpShort(op opcodes.Opcode, n int) {
	c.emitOp(op)
	c.emitShort(n)
}

// addConstant interns value in the current function's constant pool,
// reusing an existing slot when an identical Value is already present.
func (c *Compiler) addConstant(v values.Value) int {
	for i, existing := range c.unit.fn.Constants {
		if values.Equal(existing, v) {
			return i
		}
	}
	c.unit.fn.Constants = append(c.unit.fn.Constants, v)
	return len(c.unit.fn.Constants) - 1
}

func (c *Compiler) emitConstant(v values.Value) {
	c.emitOpShort(opcodes.LoadConstant, c.addConstant(v))
}

// emitJump writes op followed by a two-byte placeholder, returning the
// offset of the placeholder's first byte for a later patchJump call.
func (c *Compiler) emitJump(op opcodes.Opcode) int {
	c.emitOp(op)
	at := len(c.unit.fn.Code)
	c.emitByte(0xFF)
	c.emitByte(0xFF)
	return at
}

// patchJump backfills the placeholder at 'at' with the distance from just
// after the placeholder to the current code position.
func (c *Compiler) patchJump(at int) {
	offset := len(c.unit.fn.Code) - (at + 2)
	if offset > 0xFFFF {
		c.errorAt(c.lex.Prev.Line, "jump body too large")
		return
	}
	c.unit.fn.Code[at] = byte(offset >> 8)
	c.unit.fn.Code[at+1] = byte(offset)
}

// emitLoop emits a backward Loop instruction returning to conditionStart.
func (c *Compiler) emitLoop(conditionStart int) {
	c.emitOp(opcodes.Loop)
	offset := len(c.unit.fn.Code) - conditionStart + 2
	if offset > 0xFFFF {
		c.errorAt(c.lex.Prev.Line, "loop body too large")
		return
	}
	c.emitShort(offset)
}

func (c *Compiler) methodSymbol(sig Signature) int {
	return c.methodNames.Ensure(sig.Canonical())
}
