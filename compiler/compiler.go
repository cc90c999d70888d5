// Package compiler implements Loom's single-pass Pratt-parsing compiler:
// source text goes directly to bytecode with no intermediate AST, per
// spec.md section 4.
package compiler

import (
	"fmt"

	"github.com/wudi/loom/alloc"
	"github.com/wudi/loom/lexer"
	"github.com/wudi/loom/opcodes"
	"github.com/wudi/loom/registry"
	"github.com/wudi/loom/values"
)

// Compiler drives one compilation of a single module's source text.
type Compiler struct {
	lex         *lexer.Lexer
	methodNames *registry.MethodTable
	alloc       alloc.Allocator
	module      *values.ObjModule
	file        string

	unit *compileUnit

	firstErr error
}

// abortCompile unwinds the recursive-descent parse on the first error,
// mirroring how go/parser bails out of a broken parse.
type abortCompile struct{}

// NewCompiler returns a Compiler ready to compile source text against
// module, using methodNames as the shared method-symbol table and alloc to
// create string/function objects.
func NewCompiler(methodNames *registry.MethodTable, alloc alloc.Allocator) *Compiler {
	return &Compiler{methodNames: methodNames, alloc: alloc}
}

// Compile parses and compiles source (labelled file for error messages) as
// the top-level body of module, returning the module's implicit top-level
// function. Errors are returned rather than panicking; at most one is
// reported even when recovery would be possible.
func (c *Compiler) Compile(module *values.ObjModule, source, file string) (fn *values.ObjFn, err error) {
	c.module = module
	c.file = file

	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(abortCompile); ok {
				fn, err = nil, c.firstErr
				return
			}
			panic(r)
		}
	}()

	c.lex = lexer.New(source, file, c.alloc)
	if c.lex.Err() != nil {
		return nil, c.wrapLexError(c.lex.Err())
	}

	top := c.alloc.NewFn(module)
	top.Name = "<module>"
	top.Arity = 0
	c.unit = newCompileUnit(nil, top, -1, false, nil)

	for c.cur().Kind != lexer.EOF {
		c.statement()
	}

	c.emitOp(opcodes.PushNull)
	c.emitOp(opcodes.Return)
	c.finalizeModule()

	if c.firstErr != nil {
		return nil, c.firstErr
	}
	return top, nil
}

func (c *Compiler) wrapLexError(err error) error {
	if le, ok := err.(*lexer.LexError); ok {
		return &CompileError{File: le.File, Line: le.Line, Message: le.Message}
	}
	return err
}

// finalizeModule errors on any module variable whose value is still the
// Number(line) forward-reference placeholder (spec.md section 4.2, item 7).
func (c *Compiler) finalizeModule() {
	for i, v := range c.module.VarValues {
		if v.IsNumber() {
			line := int(v.Num)
			c.errorAt(line, fmt.Sprintf("variable %q referenced but never defined", c.module.VarNames[i]))
		}
	}
}

// --- token helpers -------------------------------------------------------

func (c *Compiler) cur() lexer.Token  { return c.lex.Cur }
func (c *Compiler) prev() lexer.Token { return c.lex.Prev }

func (c *Compiler) advance() {
	c.lex.Advance()
	if c.lex.Err() != nil {
		le := c.lex.Err().(*lexer.LexError)
		c.errorAt(le.Line, le.Message)
	}
}

func (c *Compiler) check(k lexer.Kind) bool { return c.cur().Kind == k }

func (c *Compiler) match(k lexer.Kind) bool {
	if !c.check(k) {
		return false
	}
	c.advance()
	return true
}

func (c *Compiler) expect(k lexer.Kind, message string) {
	if c.check(k) {
		c.advance()
		return
	}
	c.errorAt(c.cur().Line, fmt.Sprintf("%s (found %s)", message, c.cur().Kind))
}

func (c *Compiler) lexeme(tok lexer.Token) string { return c.lex.Lexeme(tok) }

func (c *Compiler) errorAt(line int, message string) {
	if c.firstErr == nil {
		c.firstErr = &CompileError{File: c.file, Line: line, Message: message}
	}
	panic(abortCompile{})
}

func (c *Compiler) errorf(format string, args ...interface{}) {
	c.errorAt(c.prev().Line, fmt.Sprintf(format, args...))
}

// --- scope management ------------------------------------------------------

func (c *Compiler) beginScope() { c.unit.scopeDepth++ }

// endScope pops every local declared since the matching beginScope. A local
// that is captured as an upvalue by a nested closure is closed instead of
// merely popped (spec.md section 4.4); this does not touch MaxSlots, which
// only ever tracks the high-water mark (spec.md section 4.9 "discard never
// lowers it").
func (c *Compiler) endScope() {
	u := c.unit
	u.scopeDepth--
	for len(u.locals) > 0 && u.locals[len(u.locals)-1].Depth > u.scopeDepth {
		last := u.locals[len(u.locals)-1]
		if last.IsUpvalue {
			c.emitOp(opcodes.CloseUpvalue)
		} else {
			c.emitOp(opcodes.Pop)
		}
		u.locals = u.locals[:len(u.locals)-1]
		u.numSlots--
	}
}

func (c *Compiler) declareLocal(name string) int {
	u := c.unit
	for i := len(u.locals) - 1; i >= 0; i-- {
		if u.locals[i].Depth != -1 && u.locals[i].Depth < u.scopeDepth {
			break
		}
		if u.locals[i].Name == name {
			c.errorf("variable %q already declared in this scope", name)
		}
	}
	if len(u.locals) >= maxLocals {
		c.errorf("too many local variables in one function")
	}
	u.locals = append(u.locals, Local{Name: name, Depth: u.scopeDepth})
	u.touchSlots(1)
	return len(u.locals) - 1
}
