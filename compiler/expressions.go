package compiler

import (
	"github.com/wudi/loom/lexer"
	"github.com/wudi/loom/opcodes"
	"github.com/wudi/loom/values"
)

// expression parses and compiles one expression whose operators bind no
// looser than rbp (the Pratt "right binding power" floor), per spec.md
// section 4.3.
func (c *Compiler) expression(rbp int) {
	tok := c.cur()
	r := ruleFor(tok.Kind)
	if r.prefix == nil {
		c.errorAt(tok.Line, "expected expression")
	}
	c.advance()
	canAssign := rbp <= bpAssign
	r.prefix(c, canAssign)

	for {
		next := ruleFor(c.cur().Kind)
		if next.infix == nil || next.lbp <= rbp {
			break
		}
		c.advance()
		next.infix(c, canAssign)
	}
}

func (c *Compiler) number(canAssign bool)        { c.emitConstant(c.prev().Value) }
func (c *Compiler) stringLiteral(canAssign bool) { c.emitConstant(c.prev().Value) }
func (c *Compiler) literalTrue(canAssign bool)   { c.emitOp(opcodes.PushTrue) }
func (c *Compiler) literalFalse(canAssign bool)  { c.emitOp(opcodes.PushFalse) }
func (c *Compiler) literalNull(canAssign bool)   { c.emitOp(opcodes.PushNull) }

// variable resolves a bare identifier. Resolution rule 1 (spec.md section
// 4.2) takes priority when the identifier is immediately followed by '(' and
// does not already name a local or upvalue: it is a call to a top-level
// `fun` declaration, stored under the module variable "Fn "+name, invoked
// via the Fn class's `call(...)` trampoline.
func (c *Compiler) variable(canAssign bool) {
	name := c.lexeme(c.prev())

	if c.check(lexer.LeftParen) &&
		c.unit.resolveLocal(name) == -1 &&
		resolveUpvalueIn(c.unit, name) == -1 {
		if idx := c.module.VarIndex("Fn " + name); idx != -1 {
			c.emitOpShort(opcodes.LoadModuleVar, idx)
			argc := c.parseParenArgs()
			argc = c.finishArgumentList(argc)
			c.invokeSignature(Signature{Kind: SigMethod, Name: "call", ArgNum: argc})
			return
		}
	}

	r := c.resolveVariable(name)
	c.accessVariable(r, canAssign)
}

func (c *Compiler) this(canAssign bool) {
	if c.currentClass() == nil {
		c.errorf("'this' used outside of a method")
	}
	c.loadSimple(c.thisResolution())
}

// super parses `super.name(args)` and the `super(args)` shorthand, which
// calls the superclass's version of the method currently being compiled.
func (c *Compiler) super(canAssign bool) {
	class := c.currentClass()
	if class == nil {
		c.errorf("'super' used outside of a method")
	}
	c.loadSimple(c.thisResolution())

	var sig Signature
	if c.match(lexer.Dot) {
		c.expect(lexer.Identifier, "expected method name after 'super.'")
		sig = c.parseCallSignature(c.lexeme(c.prev()), canAssign)
	} else {
		if class.signature == nil {
			c.errorf("'super' shorthand call requires an enclosing method")
		} else {
			sig = *class.signature
		}
		sig.ArgNum = c.finishArgumentList(c.parseParenArgs())
	}
	if sig.ArgNum > 16 {
		c.errorf("method %q takes too many arguments (max 16)", sig.Canonical())
	}
	symbol := c.methodSymbol(sig)
	c.emitOp(opcodes.SuperN(sig.ArgNum))
	c.emitShort(symbol)
	c.emitShort(class.moduleVarIndex)
}

func (c *Compiler) grouping(canAssign bool) {
	c.expression(bpLowest)
	c.expect(lexer.RightParen, "expected ')' after expression")
}

// listLiteral compiles `[e1, e2, ...]` by building a fresh ObjList via
// repeated `addCore_(_)` sends, matching how string interpolation builds
// its fragment list (spec.md section 4.8). addCore_(_) answers its own
// receiver, so each send's result is exactly the list the next element
// needs on top of the stack -- no DUP opcode required, and the scheme
// stays correct no matter how many pending temporaries (a call receiver,
// earlier arguments) already sit below it.
func (c *Compiler) listLiteral(canAssign bool) {
	c.invokeNewCollection("List")
	if !c.check(lexer.RightBracket) {
		for {
			c.expression(bpLowest)
			c.invokeSignature(Signature{Kind: SigMethod, Name: "addCore_", ArgNum: 1})
			if !c.match(lexer.Comma) || c.check(lexer.RightBracket) {
				break
			}
		}
	}
	c.expect(lexer.RightBracket, "expected ']' after list elements")
}

// mapLiteral compiles `{k1: v1, k2: v2, ...}` via repeated `addCore_(_,_)`
// sends (spec.md section 4.8), which like List's addCore_ answers its own
// receiver so the map chains across entries without a DUP.
func (c *Compiler) mapLiteral(canAssign bool) {
	c.invokeNewCollection("Map")
	if !c.check(lexer.RightBrace) {
		for {
			c.expression(bpLowest)
			c.expect(lexer.Colon, "expected ':' between map key and value")
			c.expression(bpLowest)
			c.invokeSignature(Signature{Kind: SigMethod, Name: "addCore_", ArgNum: 2})
			if !c.match(lexer.Comma) || c.check(lexer.RightBrace) {
				break
			}
		}
	}
	c.expect(lexer.RightBrace, "expected '}' after map entries")
}

// invokeNewCollection pushes className.new(), left on the stack for the
// caller's addCore_ chain to build on.
func (c *Compiler) invokeNewCollection(className string) {
	r := c.resolveVariable(className)
	c.loadSimple(r)
	c.invokeSignature(Signature{Kind: SigConstructor, Name: "new"})
}

// subscript compiles `recv[args]`, either as a read ([_]) or, if an '='
// follows, as a write ([_]=(_)).
func (c *Compiler) subscript(canAssign bool) {
	argc := 0
	if !c.check(lexer.RightBracket) {
		for {
			c.expression(bpLowest)
			argc++
			if !c.match(lexer.Comma) {
				break
			}
		}
	}
	c.expect(lexer.RightBracket, "expected ']' after subscript index")

	if canAssign && c.match(lexer.Eq) {
		c.expression(bpAssign)
		c.invokeSignature(Signature{Kind: SigSubscriptSetter, ArgNum: argc + 1})
		return
	}
	c.invokeSignature(Signature{Kind: SigSubscript, ArgNum: argc})
}

// call compiles `.name`, `.name(args)`, `.name = expr`, and `.name(args) {
// |params| block }` trailing-block calls.
func (c *Compiler) call(canAssign bool) {
	c.expect(lexer.Identifier, "expected method name after '.'")
	name := c.lexeme(c.prev())
	sig := c.parseCallSignature(name, canAssign)
	if sig.ArgNum > 16 {
		c.errorf("method %q takes too many arguments (max 16)", sig.Canonical())
	}
	symbol := c.methodSymbol(sig)
	c.emitOpShort(opcodes.CallN(sig.ArgNum), symbol)
}

// parseParenArgs parses an optional `(args)` list, returning the count.
func (c *Compiler) parseParenArgs() int {
	if !c.match(lexer.LeftParen) {
		return 0
	}
	argc := 0
	if !c.check(lexer.RightParen) {
		for {
			c.expression(bpLowest)
			argc++
			if !c.match(lexer.Comma) {
				break
			}
		}
	}
	c.expect(lexer.RightParen, "expected ')' after arguments")
	return argc
}

// parseCallSignature parses the argument list (and setter '=') following a
// bare method name, returning the resulting signature without emitting the
// Call instruction itself -- callers (call, super) emit the opcode so
// `super` can emit SuperN instead.
func (c *Compiler) parseCallSignature(name string, canAssign bool) Signature {
	if canAssign && c.match(lexer.Eq) {
		c.expression(bpAssign)
		return Signature{Kind: SigSetter, Name: name, ArgNum: 1}
	}
	hadParens := c.check(lexer.LeftParen)
	argc := c.parseParenArgs()
	argc = c.finishArgumentList(argc)
	kind := SigGetter
	if hadParens || argc > 0 {
		kind = SigMethod
	}
	return Signature{Kind: kind, Name: name, ArgNum: argc}
}

// finishArgumentList appends a trailing block-argument lambda, if present:
// `list.each { |x| ... }` compiles the brace block as an anonymous closure
// and pushes it as one more argument (spec.md section 4.2, "block-argument
// lambda").
func (c *Compiler) finishArgumentList(argc int) int {
	if !c.check(lexer.LeftBrace) {
		return argc
	}
	c.advance()
	c.blockArgumentLambda()
	return argc + 1
}

func (c *Compiler) blockArgumentLambda() {
	fn := c.alloc.NewFn(c.module)
	fn.Name = ""
	enclosingClass := c.currentClass()
	parent := c.unit
	c.unit = newCompileUnit(parent, fn, parent.scopeDepth+1, false, enclosingClass)

	var params []string
	if c.match(lexer.Pipe) {
		if !c.check(lexer.Pipe) {
			for {
				c.expect(lexer.Identifier, "expected parameter name")
				params = append(params, c.lexeme(c.prev()))
				if !c.match(lexer.Comma) {
					break
				}
			}
		}
		c.expect(lexer.Pipe, "expected '|' after block parameters")
	}
	fn.Arity = len(params)
	for _, p := range params {
		c.declareLocal(p)
	}

	c.block()
	c.emitOp(opcodes.PushNull)
	c.emitOp(opcodes.Return)

	upvalues := c.unit.upvalues
	finished := c.unit
	c.unit = parent
	c.emitClosure(finished.fn, upvalues)
}

// emitClosure emits CreateClosure for fn plus its trailing upvalue
// descriptors, per spec.md section 4.7.
func (c *Compiler) emitClosure(fn *values.ObjFn, upvalues []UpvalueRef) {
	idx := c.addConstant(values.FromObj(fn))
	c.emitOpShort(opcodes.CreateClosure, idx)
	for _, uv := range upvalues {
		if uv.IsEnclosingLocalVar {
			c.emitByte(1)
		} else {
			c.emitByte(0)
		}
		c.emitByte(uv.Index)
	}
}

// unary compiles a prefix operator (`-x`, `!x`, `~x`) as a zero-argument
// send to the operand: the operand is parsed at unary binding power so
// `-a.b` binds as `-(a.b)` and `- -a` is legal, then the operator name is
// sent to it.
func (c *Compiler) unary(canAssign bool) {
	opTok := c.prev()
	opName := c.lexeme(opTok)
	c.expression(bpUnary)
	c.invokeSignature(Signature{Kind: SigMethod, Name: opName, ArgNum: 0})
}

func (c *Compiler) binary(canAssign bool) {
	opTok := c.prev()
	opName := c.lexeme(opTok)
	rule := ruleFor(opTok.Kind)
	c.expression(rule.lbp)
	if opTok.Kind == lexer.KwIs {
		c.invokeSignature(Signature{Kind: SigMethod, Name: "is", ArgNum: 1})
		return
	}
	c.invokeSignature(Signature{Kind: SigMethod, Name: opName, ArgNum: 1})
}

// and/or short-circuit: spec.md section 4.7's And/Or opcodes peek the top
// of stack, leaving it if falsey(And)/truthy(Or) and jumping past the RHS,
// popping and evaluating the RHS otherwise.
func (c *Compiler) and(canAssign bool) {
	end := c.emitJump(opcodes.And)
	c.expression(bpLogicAnd)
	c.patchJump(end)
}

func (c *Compiler) or(canAssign bool) {
	end := c.emitJump(opcodes.Or)
	c.expression(bpLogicOr)
	c.patchJump(end)
}

func (c *Compiler) ternary(canAssign bool) {
	elseJump := c.emitJump(opcodes.JumpIfFalse)
	c.emitOp(opcodes.Pop)
	c.expression(bpCondition)
	endJump := c.emitJump(opcodes.Jump)
	c.patchJump(elseJump)
	c.emitOp(opcodes.Pop)
	c.expect(lexer.Colon, "expected ':' in conditional expression")
	c.expression(bpCondition)
	c.patchJump(endJump)
}

// interpolation compiles "a%(b)c%(d)e" as List.new() followed by
// addCore_(_) for each literal fragment and each interpolated
// sub-expression, then .join() (spec.md section 4.8). Every addCore_(_)
// send answers the list itself, so the chain needs no DUP: join() is
// finally sent to whatever addCore_ last left on top, replacing the list
// in place with the joined string.
func (c *Compiler) interpolation(canAssign bool) {
	c.invokeNewCollection("List")
	c.addFragment(c.prev().Value)

	for {
		c.expression(bpLowest)
		c.invokeSignature(Signature{Kind: SigMethod, Name: "addCore_", ArgNum: 1})

		if c.match(lexer.Interpolation) {
			c.addFragment(c.prev().Value)
			continue
		}
		if !c.check(lexer.String) {
			c.errorf("expected end of string interpolation")
			break
		}
		c.advance()
		c.addFragment(c.prev().Value)
		break
	}

	c.invokeSignature(Signature{Kind: SigMethod, Name: "join", ArgNum: 0})
}

// addFragment sends addCore_(_) for one literal string fragment to
// whatever list already sits on top of the stack, leaving its result (the
// same list) in its place.
func (c *Compiler) addFragment(v values.Value) {
	c.emitConstant(v)
	c.invokeSignature(Signature{Kind: SigMethod, Name: "addCore_", ArgNum: 1})
}
