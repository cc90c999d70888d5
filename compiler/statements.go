package compiler

import (
	"github.com/wudi/loom/lexer"
	"github.com/wudi/loom/opcodes"
	"github.com/wudi/loom/values"
)

func (c *Compiler) atModuleScope() bool {
	return c.unit.enclosing == nil && c.unit.scopeDepth < 0
}

// statement dispatches on the leading keyword, per spec.md section 4.4.
func (c *Compiler) statement() {
	switch {
	case c.match(lexer.KwVar):
		c.varStatement()
	case c.match(lexer.KwClass):
		c.classStatement()
	case c.match(lexer.KwFun):
		c.funStatement()
	case c.match(lexer.KwIf):
		c.ifStatement()
	case c.match(lexer.KwWhile):
		c.whileStatement()
	case c.match(lexer.KwFor):
		c.forStatement()
	case c.match(lexer.KwBreak):
		c.breakStatement()
	case c.match(lexer.KwContinue):
		c.continueStatement()
	case c.match(lexer.KwReturn):
		c.returnStatement()
	case c.match(lexer.KwImport):
		c.importStatement()
	case c.check(lexer.LeftBrace):
		c.beginScope()
		c.block()
		c.endScope()
	default:
		c.expressionStatement()
	}
}

// block compiles a brace-delimited statement sequence. The opening brace is
// not yet consumed.
func (c *Compiler) block() {
	c.expect(lexer.LeftBrace, "expected '{'")
	for !c.check(lexer.RightBrace) && !c.check(lexer.EOF) {
		c.statement()
	}
	c.expect(lexer.RightBrace, "expected '}'")
}

func (c *Compiler) expressionStatement() {
	c.expression(bpLowest)
	c.emitOp(opcodes.Pop)
}

// varStatement compiles `var name = expr` (or `var name` defaulting to
// null). At module scope this declares a module variable, resolving any
// earlier forward reference (spec.md section 4.2, item 7); elsewhere it
// declares a local.
func (c *Compiler) varStatement() {
	c.expect(lexer.Identifier, "expected variable name")
	name := c.lexeme(c.prev())

	if c.atModuleScope() {
		idx := c.declareModuleVar(name)
		if c.match(lexer.Eq) {
			c.expression(bpLowest)
		} else {
			c.emitOp(opcodes.PushNull)
		}
		c.emitOpShort(opcodes.StoreModuleVar, idx)
		c.emitOp(opcodes.Pop)
		return
	}

	if c.match(lexer.Eq) {
		c.expression(bpLowest)
	} else {
		c.emitOp(opcodes.PushNull)
	}
	c.declareLocal(name)
}

// declareModuleVar implements the module-variable declare step of spec.md
// section 4.2: a slot already holding the Number(line) forward-reference
// placeholder is reused (cleared to Null, "Null at the instant of
// definition"); any other existing slot is a duplicate declaration error.
func (c *Compiler) declareModuleVar(name string) int {
	idx := c.module.VarIndex(name)
	if idx == -1 {
		return c.module.Declare(name, values.Null())
	}
	if !c.module.VarValues[idx].IsNumber() {
		c.errorf("module variable %q is already defined", name)
	}
	c.module.VarValues[idx] = values.Null()
	return idx
}

func (c *Compiler) ifStatement() {
	c.expect(lexer.LeftParen, "expected '(' after 'if'")
	c.expression(bpLowest)
	c.expect(lexer.RightParen, "expected ')' after condition")

	thenJump := c.emitJump(opcodes.JumpIfFalse)
	c.emitOp(opcodes.Pop)
	c.statement()

	if c.match(lexer.KwElse) {
		elseJump := c.emitJump(opcodes.Jump)
		c.patchJump(thenJump)
		c.emitOp(opcodes.Pop)
		c.statement()
		c.patchJump(elseJump)
		return
	}
	c.patchJump(thenJump)
	c.emitOp(opcodes.Pop)
}

func (c *Compiler) whileStatement() {
	loop := &loopInfo{conditionStart: len(c.unit.fn.Code), scopeDepth: c.unit.scopeDepth, enclosing: c.unit.loop}
	c.unit.loop = loop

	c.expect(lexer.LeftParen, "expected '(' after 'while'")
	c.expression(bpLowest)
	c.expect(lexer.RightParen, "expected ')' after condition")

	exitJump := c.emitJump(opcodes.JumpIfFalse)
	c.emitOp(opcodes.Pop)
	c.statement()
	c.emitLoop(loop.conditionStart)

	c.patchJump(exitJump)
	c.emitOp(opcodes.Pop)
	c.patchBreaks(loop, len(c.unit.fn.Code))
	c.unit.loop = loop.enclosing
}

// forStatement desugars `for (x in seq) body` onto the Sequence protocol
// supplemented by SPEC_FULL.md: `iterate(_)` advances a cursor value,
// `iteratorValue(_)` reads the element at the cursor.
func (c *Compiler) forStatement() {
	c.beginScope()
	c.expect(lexer.LeftParen, "expected '(' after 'for'")
	c.expect(lexer.Identifier, "expected loop variable name")
	varName := c.lexeme(c.prev())
	c.expect(lexer.KwIn, "expected 'in' in for loop")

	c.expression(bpLowest)
	seqSlot := c.declareLocal(" for_seq")

	c.emitOp(opcodes.PushNull)
	iterSlot := c.declareLocal(" for_iter")

	c.expect(lexer.RightParen, "expected ')' after for clause")

	loop := &loopInfo{conditionStart: len(c.unit.fn.Code), scopeDepth: c.unit.scopeDepth, enclosing: c.unit.loop}
	c.unit.loop = loop

	c.emitOpByte(opcodes.LoadLocalVar, byte(seqSlot))
	c.emitOpByte(opcodes.LoadLocalVar, byte(iterSlot))
	c.invokeSignature(Signature{Kind: SigMethod, Name: "iterate", ArgNum: 1})
	c.emitOpByte(opcodes.StoreLocalVar, byte(iterSlot))

	exitJump := c.emitJump(opcodes.JumpIfFalse)
	c.emitOp(opcodes.Pop)

	c.beginScope()
	c.emitOpByte(opcodes.LoadLocalVar, byte(seqSlot))
	c.emitOpByte(opcodes.LoadLocalVar, byte(iterSlot))
	c.invokeSignature(Signature{Kind: SigMethod, Name: "iteratorValue", ArgNum: 1})
	c.declareLocal(varName)
	c.statement()
	c.endScope()

	c.emitLoop(loop.conditionStart)
	c.patchJump(exitJump)
	c.emitOp(opcodes.Pop)
	c.patchBreaks(loop, len(c.unit.fn.Code))
	c.unit.loop = loop.enclosing

	c.endScope()
}

// breakStatement emits an End placeholder; patchBreaks rewrites every End
// inside the just-finished loop body to a forward Jump once the loop's exit
// address is known (spec.md section 4.4).
func (c *Compiler) breakStatement() {
	if c.unit.loop == nil {
		c.errorf("'break' used outside of a loop")
	}
	for i := len(c.unit.locals) - 1; i >= 0 && c.unit.locals[i].Depth > c.unit.loop.scopeDepth; i-- {
		if c.unit.locals[i].IsUpvalue {
			c.emitOp(opcodes.CloseUpvalue)
		} else {
			c.emitOp(opcodes.Pop)
		}
	}
	c.emitJump(opcodes.End)
}

func (c *Compiler) continueStatement() {
	if c.unit.loop == nil {
		c.errorf("'continue' used outside of a loop")
	}
	for i := len(c.unit.locals) - 1; i >= 0 && c.unit.locals[i].Depth > c.unit.loop.scopeDepth; i-- {
		if c.unit.locals[i].IsUpvalue {
			c.emitOp(opcodes.CloseUpvalue)
		} else {
			c.emitOp(opcodes.Pop)
		}
	}
	c.emitLoop(c.unit.loop.conditionStart)
}

// patchBreaks scans the loop body's bytecode range for End sentinels and
// rewrites each into a Jump landing at exitAddr.
func (c *Compiler) patchBreaks(loop *loopInfo, exitAddr int) {
	code := c.unit.fn.Code
	for ip := loop.conditionStart; ip < exitAddr; {
		op := opcodes.Opcode(code[ip])
		if op == opcodes.End {
			code[ip] = byte(opcodes.Jump)
			offset := exitAddr - (ip + 3)
			code[ip+1] = byte(offset >> 8)
			code[ip+2] = byte(offset)
		}
		ip += 1 + opcodes.BytesOfOperands(code, ip, c.upvalueCounter)
	}
}

func (c *Compiler) upvalueCounter(fnConstantIndex int) int {
	v := c.unit.fn.Constants[fnConstantIndex]
	if fn, ok := v.AsFn(); ok {
		return fn.UpvalueNum
	}
	return 0
}

func (c *Compiler) returnStatement() {
	if c.unit.enclosing == nil && c.unit.scopeDepth < 0 {
		c.errorf("'return' used outside of a function")
	}
	if c.check(lexer.RightBrace) {
		c.emitOp(opcodes.PushNull)
	} else {
		c.expression(bpLowest)
	}
	c.emitOp(opcodes.Return)
}

// importStatement compiles `import "name"` (whole-module import for side
// effects) and `import "name" for a, b` (binding selected module
// variables), per spec.md section 4.2's module-loading description.
func (c *Compiler) importStatement() {
	c.expect(lexer.String, "expected module name string after 'import'")
	moduleNameValue := c.prev().Value
	c.invokeCoreImport(moduleNameValue)

	if !c.match(lexer.KwFor) {
		return
	}
	for {
		c.expect(lexer.Identifier, "expected imported variable name")
		varName := c.lexeme(c.prev())
		c.invokeCoreImportVariable(moduleNameValue, varName)
		if c.atModuleScope() {
			idx := c.declareModuleVar(varName)
			c.emitOpShort(opcodes.StoreModuleVar, idx)
			c.emitOp(opcodes.Pop)
		} else {
			c.declareLocal(varName)
		}
		if !c.match(lexer.Comma) {
			break
		}
	}
}

// invokeCoreImport and invokeCoreImportVariable route through the System
// class's native module-loading entry points, so the compiler never needs
// to call into the VM's importer directly (spec.md section 4.10).
func (c *Compiler) invokeCoreImport(moduleName values.Value) {
	r := c.resolveVariable("System")
	c.loadSimple(r)
	c.emitConstant(moduleName)
	c.invokeSignature(Signature{Kind: SigMethod, Name: "importModule_", ArgNum: 1})
	c.emitOp(opcodes.Pop)
}

func (c *Compiler) invokeCoreImportVariable(moduleName values.Value, varName string) {
	r := c.resolveVariable("System")
	c.loadSimple(r)
	c.emitConstant(moduleName)
	c.emitConstant(c.alloc.NewStringValue(varName))
	c.invokeSignature(Signature{Kind: SigMethod, Name: "importVariable_", ArgNum: 2})
}
