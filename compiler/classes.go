package compiler

import (
	"github.com/wudi/loom/lexer"
	"github.com/wudi/loom/opcodes"
)

// funStatement compiles `fun name(params) { body }`, sugar allowed only at
// module scope (spec.md section 4.2, resolution rule 1): it stores the
// compiled closure under the module variable "Fn "+name, and a later bare
// call `name(args)` at module scope loads that variable and sends it
// `call(args)`.
func (c *Compiler) funStatement() {
	if !c.atModuleScope() {
		c.errorf("functions may only be declared at the top level")
	}
	c.expect(lexer.Identifier, "expected function name")
	name := c.lexeme(c.prev())
	idx := c.declareModuleVar("Fn " + name)

	fn := c.alloc.NewFn(c.module)
	fn.Name = name
	parent := c.unit
	c.unit = newCompileUnit(parent, fn, 0, false, nil)

	c.expect(lexer.LeftParen, "expected '(' after function name")
	var params []string
	if !c.check(lexer.RightParen) {
		for {
			c.expect(lexer.Identifier, "expected parameter name")
			params = append(params, c.lexeme(c.prev()))
			if !c.match(lexer.Comma) {
				break
			}
		}
	}
	c.expect(lexer.RightParen, "expected ')' after parameters")
	fn.Arity = len(params)
	for _, p := range params {
		c.declareLocal(p)
	}

	c.block()
	c.emitOp(opcodes.PushNull)
	c.emitOp(opcodes.Return)

	upvalues := c.unit.upvalues
	finished := c.unit.fn
	c.unit = parent

	c.emitClosure(finished, upvalues)
	c.emitOpShort(opcodes.StoreModuleVar, idx)
	c.emitOp(opcodes.Pop)
}

// classStatement compiles `class Name [is Super] { ... }` (spec.md section
// 4.5): the class object is built on the stack, its methods bound while it
// sits there, and only stored into its module variable once complete.
func (c *Compiler) classStatement() {
	if !c.atModuleScope() {
		c.errorf("classes may only be declared at the top level")
	}
	c.expect(lexer.Identifier, "expected class name")
	name := c.lexeme(c.prev())
	classIdx := c.declareModuleVar(name)

	class := newClassBookkeeping(name)
	class.moduleVarIndex = classIdx

	c.emitConstant(c.alloc.NewStringValue(name))
	if c.match(lexer.KwIs) {
		c.expect(lexer.Identifier, "expected superclass name")
		superName := c.lexeme(c.prev())
		c.loadSimple(c.resolveVariable(superName))
	} else {
		c.loadSimple(c.resolveVariable("Object"))
	}

	createClassAt := len(c.unit.fn.Code)
	c.emitOp(opcodes.CreateClass)
	c.emitByte(0) // patched below once the field count is known

	c.classBody(class)

	if len(class.fieldNames) > 255 {
		c.errorf("class %q declares too many fields", name)
	}
	c.unit.fn.Code[createClassAt+1] = byte(len(class.fieldNames))

	c.emitOpShort(opcodes.StoreModuleVar, classIdx)
	c.emitOp(opcodes.Pop)
}

func (c *Compiler) classBody(class *classBookkeeping) {
	c.expect(lexer.LeftBrace, "expected '{' to begin class body")
	for !c.check(lexer.RightBrace) && !c.check(lexer.EOF) {
		isStatic := c.match(lexer.KwStatic)
		if c.match(lexer.KwVar) {
			c.expect(lexer.Identifier, "expected field name")
			fname := c.lexeme(c.prev())
			if isStatic {
				c.staticFieldDecl(class, fname)
			} else {
				class.fieldSlot(fname)
			}
			continue
		}
		c.methodDecl(class, isStatic)
	}
	c.expect(lexer.RightBrace, "expected '}' to end class body")
}

// staticFieldDecl backs a `static var name [= expr]` declaration with a
// module variable named "Cls"+className+" "+fieldName, initialized inline in
// the class statement's own bytecode so it runs once, at class-definition
// time.
func (c *Compiler) staticFieldDecl(class *classBookkeeping, fname string) {
	qualified := "Cls" + class.name + " " + fname
	idx := c.declareModuleVar(qualified)
	if class.staticFieldIndex == nil {
		class.staticFieldIndex = make(map[string]int)
	}
	class.staticFieldIndex[fname] = idx

	if c.match(lexer.Eq) {
		c.expression(bpLowest)
	} else {
		c.emitOp(opcodes.PushNull)
	}
	c.emitOpShort(opcodes.StoreModuleVar, idx)
	c.emitOp(opcodes.Pop)
}

var operatorMethodTokens = map[lexer.Kind]bool{
	lexer.Plus: true, lexer.Minus: true, lexer.Star: true, lexer.Slash: true,
	lexer.Percent: true, lexer.EqEq: true, lexer.BangEq: true, lexer.Less: true,
	lexer.LessEq: true, lexer.Greater: true, lexer.GreaterEq: true, lexer.Amp: true,
	lexer.Pipe: true, lexer.Tilde: true, lexer.Bang: true, lexer.ShiftLeft: true,
	lexer.ShiftRight: true, lexer.DotDot: true,
}

// methodDecl compiles one method declaration, including the implicit
// `new(...)` constructor form, and binds the resulting closure into the
// class value sitting on top of the stack.
func (c *Compiler) methodDecl(class *classBookkeeping, isStatic bool) {
	sig, params := c.parseMethodSignature()
	isConstructor := sig.Name == "new" && !isStatic
	if isConstructor {
		sig.Kind = SigConstructor
	}

	fn := c.alloc.NewFn(c.module)
	fn.Name = class.name + "." + sig.Canonical()
	fn.Arity = len(params)

	parent := c.unit
	c.unit = newCompileUnit(parent, fn, 0, true, class)
	prevSig := class.signature
	class.signature = &sig

	for _, p := range params {
		c.declareLocal(p)
	}
	c.block()
	if isConstructor {
		c.emitOpByte(opcodes.LoadLocalVar, 0)
	} else {
		c.emitOp(opcodes.PushNull)
	}
	c.emitOp(opcodes.Return)

	class.signature = prevSig
	upvalues := c.unit.upvalues
	finished := c.unit.fn
	c.unit = parent

	c.emitClosure(finished, upvalues)
	symbol := c.methodSymbol(sig)
	if isStatic {
		c.emitOpShort(opcodes.StaticMethod, symbol)
		class.staticMethods = append(class.staticMethods, symbol)
		return
	}
	c.emitOpShort(opcodes.InstanceMethod, symbol)
	class.instanceMethods = append(class.instanceMethods, symbol)
	if isConstructor {
		c.emitConstructorTrampoline(class, sig, symbol)
	}
}

// emitConstructorTrampoline builds and binds the synthetic static method
// spec.md section 4.5 describes for every constructor: `Construct` replaces
// the receiver (the class value itself) with a fresh instance, then a
// same-arity call re-dispatches to the instance `new` method just bound
// above. This is what makes `C.new(args)` produce an initialized instance
// while the user only ever writes the instance-side body.
func (c *Compiler) emitConstructorTrampoline(class *classBookkeeping, sig Signature, symbol int) {
	fn := c.alloc.NewFn(c.module)
	fn.Name = class.name + "." + sig.Canonical() + " [construct]"
	fn.Arity = sig.ArgNum
	fn.MaxSlots = sig.ArgNum + 1
	fn.Code = []byte{byte(opcodes.Construct), byte(opcodes.CallN(sig.ArgNum)), byte(symbol >> 8), byte(symbol), byte(opcodes.Return)}
	line := c.prev().Line
	fn.Lines = []int{line, line, line, line, line}

	c.emitClosure(fn, nil)
	c.emitOpShort(opcodes.StaticMethod, symbol)
	class.staticMethods = append(class.staticMethods, symbol)
}

// parseMethodSignature parses a method header -- a plain name, an operator
// token, `[...]` subscript, or `new` -- with its getter/setter/method/
// constructor/subscript form, returning the resulting Signature and the
// declared parameter names in order (spec.md section 4.5).
func (c *Compiler) parseMethodSignature() (Signature, []string) {
	if c.match(lexer.LeftBracket) {
		params := c.parseParamNames(lexer.RightBracket)
		c.expect(lexer.RightBracket, "expected ']' after subscript parameters")
		if c.match(lexer.Eq) {
			c.expect(lexer.LeftParen, "expected '(' after '[...]='")
			c.expect(lexer.Identifier, "expected setter parameter name")
			params = append(params, c.lexeme(c.prev()))
			c.expect(lexer.RightParen, "expected ')' after setter parameter")
			return Signature{Kind: SigSubscriptSetter, ArgNum: len(params)}, params
		}
		return Signature{Kind: SigSubscript, ArgNum: len(params)}, params
	}

	if operatorMethodTokens[c.cur().Kind] {
		c.advance()
		name := c.lexeme(c.prev())
		c.expect(lexer.LeftParen, "expected '(' after operator method name")
		if c.match(lexer.RightParen) {
			return Signature{Kind: SigMethod, Name: name, ArgNum: 0}, nil
		}
		c.expect(lexer.Identifier, "expected operand parameter name")
		p := c.lexeme(c.prev())
		c.expect(lexer.RightParen, "expected ')' after operand parameter")
		return Signature{Kind: SigMethod, Name: name, ArgNum: 1}, []string{p}
	}

	c.expect(lexer.Identifier, "expected method name")
	name := c.lexeme(c.prev())

	if c.match(lexer.Eq) {
		c.expect(lexer.LeftParen, "expected '(' after setter name")
		c.expect(lexer.Identifier, "expected setter parameter name")
		p := c.lexeme(c.prev())
		c.expect(lexer.RightParen, "expected ')' after setter parameter")
		return Signature{Kind: SigSetter, Name: name, ArgNum: 1}, []string{p}
	}

	if c.match(lexer.LeftParen) {
		params := c.parseParamNames(lexer.RightParen)
		c.expect(lexer.RightParen, "expected ')' after method parameters")
		return Signature{Kind: SigMethod, Name: name, ArgNum: len(params)}, params
	}

	return Signature{Kind: SigGetter, Name: name}, nil
}

func (c *Compiler) parseParamNames(closer lexer.Kind) []string {
	var params []string
	if c.check(closer) {
		return params
	}
	for {
		c.expect(lexer.Identifier, "expected parameter name")
		params = append(params, c.lexeme(c.prev()))
		if !c.match(lexer.Comma) {
			break
		}
	}
	return params
}
