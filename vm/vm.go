// Package vm implements Loom's stack-based bytecode virtual machine: the
// instruction dispatch loop, frame/stack discipline, closure and upvalue
// handling, class/method binding, and inter-fiber switching, per spec.md
// section 4.8 onward. It also owns the object allocator (section 3's
// lifecycle contract) and the module registry (section 4.11).
package vm

import (
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/wudi/loom/compiler"
	"github.com/wudi/loom/registry"
	"github.com/wudi/loom/values"
)

// ModuleLoader is the external collaborator spec.md section 1 calls out as
// deliberately out of scope: it turns a module name into source bytes. The
// driver (cmd/loom) supplies one backed by OS file I/O; tests supply one
// backed by an in-memory map.
type ModuleLoader interface {
	Load(name string) (string, error)
}

// NoModuleLoader rejects every import, for embedding contexts that never
// call System.importModule.
type NoModuleLoader struct{}

func (NoModuleLoader) Load(name string) (string, error) {
	return "", fmt.Errorf("module %q not found: no loader configured", name)
}

// VM is the whole runtime: the object allocator, the primitive class table,
// the module registry, and the currently running fiber. It implements both
// alloc.Allocator (for the compiler) and values.VM (for native methods).
type VM struct {
	MethodNames *registry.MethodTable

	allObjects  values.Obj
	objectCount int

	classes map[string]*values.ObjClass
	modules map[string]*values.ObjModule
	coreModule *values.ObjModule

	curThread *values.ObjThread

	// pendingShrinkN is the arity of the primitive call currently being
	// dispatched, stashed here so YieldFiber/SwitchToThread/the error-unwind
	// path know how many argument slots to drop from a thread's stack
	// without needing the args slice itself (see vm/dispatch.go).
	pendingShrinkN int

	loader ModuleLoader
	out    io.Writer
}

// New builds an empty VM: no primitive classes yet, no core module. Callers
// use core.Bootstrap(vm) to finish setting it up, matching spec.md section
// 6's new_vm() entry point (split in two here so core's bootstrap script
// doesn't have to live inside the vm package).
func New(loader ModuleLoader, out io.Writer) *VM {
	if loader == nil {
		loader = NoModuleLoader{}
	}
	v := &VM{
		MethodNames: registry.NewMethodTable(),
		classes:     make(map[string]*values.ObjClass),
		modules:     make(map[string]*values.ObjModule),
		loader:      loader,
		out:         out,
	}
	v.coreModule = v.newModuleObj("")
	v.modules[""] = v.coreModule
	return v
}

// CoreModule returns the module every other module's variables are seeded
// from (spec.md section 4.11).
func (vm *VM) CoreModule() *values.ObjModule { return vm.coreModule }

// Class returns the primitive class registered under name (e.g. "Num",
// "String", "Object"), or nil. core.Bootstrap populates this table.
func (vm *VM) Class(name string) *values.ObjClass { return vm.classes[name] }

// DefineClass registers a primitive class under name, used only during
// bootstrap.
func (vm *VM) DefineClass(name string, class *values.ObjClass) { vm.classes[name] = class }

// --- allocation -----------------------------------------------------------

func (vm *VM) track(o values.Obj) {
	o.Hdr().Next = vm.allObjects
	vm.allObjects = o
	vm.objectCount++
}

// NewString allocates a fresh ObjString. It does not intern: two calls with
// equal content produce distinct, structurally-equal objects, matching
// spec.md section 3's "Equality: structural for strings".
func (vm *VM) NewString(s string) values.Value { return vm.NewStringBytes([]byte(s)) }

func (vm *VM) NewStringBytes(b []byte) values.Value {
	cp := make([]byte, len(b))
	copy(cp, b)
	o := &values.ObjString{Bytes: cp, Hash: values.FNV1a(string(cp))}
	o.Head.Kind = values.ObjKindString
	o.Head.Class = vm.classes["String"]
	vm.track(o)
	return values.FromObj(o)
}

// NewStringValue implements alloc.Allocator for the lexer/compiler.
func (vm *VM) NewStringValue(s string) values.Value { return vm.NewString(s) }

func (vm *VM) NewList(elems []values.Value) values.Value {
	o := &values.ObjList{Elems: elems}
	o.Head.Kind = values.ObjKindList
	o.Head.Class = vm.classes["List"]
	vm.track(o)
	return values.FromObj(o)
}

func (vm *VM) NewMap() values.Value {
	o := &values.ObjMap{}
	o.Head.Kind = values.ObjKindMap
	o.Head.Class = vm.classes["Map"]
	vm.track(o)
	return values.FromObj(o)
}

func (vm *VM) NewRange(from, to float64) values.Value {
	o := &values.ObjRange{From: from, To: to}
	o.Head.Kind = values.ObjKindRange
	o.Head.Class = vm.classes["Range"]
	vm.track(o)
	return values.FromObj(o)
}

// NewFn implements alloc.Allocator: the compiler asks for a fresh, empty
// function object to emit bytecode into.
func (vm *VM) NewFn(module *values.ObjModule) *values.ObjFn {
	o := &values.ObjFn{Module: module}
	o.Head.Kind = values.ObjKindFn
	o.Head.Class = vm.classes["Fn"]
	vm.track(o)
	return o
}

func (vm *VM) NewClosure(fn *values.ObjFn, upvalues []*values.ObjUpvalue) *values.ObjClosure {
	o := &values.ObjClosure{Fn: fn, Upvalues: upvalues}
	o.Head.Kind = values.ObjKindClosure
	o.Head.Class = vm.classes["Fn"]
	vm.track(o)
	return o
}

func (vm *VM) newUpvalue(thread *values.ObjThread, slot int) *values.ObjUpvalue {
	o := &values.ObjUpvalue{Open: true, Thread: thread, Slot: slot}
	o.Head.Kind = values.ObjKindUpvalue
	vm.track(o)
	return o
}

// newInstanceClass allocates an ObjClass together with its metaclass, wiring
// the cyclic class/metaclass relationship spec.md section 9 describes
// (classOfClass is its own metaclass).
func (vm *VM) newInstanceClass(name string, super *values.ObjClass, fieldNum int) *values.ObjClass {
	class := &values.ObjClass{Name: name, Super: super}
	class.Head.Kind = values.ObjKindClass
	vm.track(class)

	metaSuper := vm.classes["Class"]
	if super != nil {
		metaSuper = super.Head.Class
	}
	meta := &values.ObjClass{Name: name + " metaclass", Super: metaSuper}
	meta.Head.Kind = values.ObjKindClass
	meta.Head.Class = vm.classes["Class"]
	vm.track(meta)

	class.Head.Class = meta
	if super != nil {
		class.NumFields = super.NumFields + fieldNum
	} else {
		class.NumFields = fieldNum
	}
	return class
}

// NewRawClass allocates a class object without wiring a metaclass, for
// core.Bootstrap, which must build the Object/Class metaclass cycle by hand
// before newInstanceClass's usual symmetric wiring (every other class's
// metaclass descends from "Class") has anything to attach to. The caller is
// responsible for setting the returned class's Head.Class.
func (vm *VM) NewRawClass(name string, super *values.ObjClass) *values.ObjClass {
	class := &values.ObjClass{Name: name, Super: super}
	class.Head.Kind = values.ObjKindClass
	if super != nil {
		class.NumFields = super.NumFields
	}
	vm.track(class)
	return class
}

func (vm *VM) newInstance(class *values.ObjClass) *values.ObjInstance {
	fields := make([]values.Value, class.NumFields)
	for i := range fields {
		fields[i] = values.Null()
	}
	o := &values.ObjInstance{Fields: fields}
	o.Head.Kind = values.ObjKindInstance
	o.Head.Class = class
	vm.track(o)
	return o
}

func (vm *VM) newModuleObj(name string) *values.ObjModule {
	o := &values.ObjModule{Name: name}
	o.Head.Kind = values.ObjKindModule
	o.Head.Class = vm.classes["Module"]
	vm.track(o)
	return o
}

// NewThread implements values.VM: allocate a fresh fiber wrapping closure,
// not yet started.
func (vm *VM) NewThread(closure *values.ObjClosure) *values.ObjThread {
	o := &values.ObjThread{ID: uuid.NewString(), InitialClosure: closure}
	o.Head.Kind = values.ObjKindThread
	o.Head.Class = vm.classes["Thread"]
	vm.track(o)
	return o
}

// --- values.VM plumbing -----------------------------------------------------

func (vm *VM) ClassOf(v values.Value) *values.ObjClass {
	switch v.Type {
	case values.TypeNull:
		return vm.classes["Null"]
	case values.TypeTrue, values.TypeFalse:
		return vm.classes["Bool"]
	case values.TypeNumber:
		return vm.classes["Num"]
	case values.TypeObject:
		if v.Obj == nil {
			return nil
		}
		return v.Obj.Hdr().Class
	}
	return nil
}

func (vm *VM) RuntimeError(format string, args ...interface{}) {
	if vm.curThread == nil {
		return
	}
	vm.curThread.Error = vm.NewString(fmt.Sprintf(format, args...))
}

func (vm *VM) Clock() float64 { return float64(time.Now().UnixNano()) / 1e9 }

func (vm *VM) WriteString(s string) {
	if vm.out != nil {
		io.WriteString(vm.out, s)
	}
}

func (vm *VM) CurrentThread() *values.ObjThread { return vm.curThread }

func (vm *VM) CollectGarbage() { vm.collectGarbage() }

// --- module system (spec.md section 4.11) ----------------------------------

// ImportModule loads and starts module name if it isn't already registered.
// A true return means the calling native must itself return false -- either
// a fiber switch happened and the dispatch loop needs to reload its
// registers, or loading failed and the error slot is set. False means the
// module was already present: nothing to do, the native succeeds with Null.
func (vm *VM) ImportModule(name string) bool {
	if _, ok := vm.modules[name]; ok {
		return false
	}
	source, err := vm.loader.Load(name)
	if err != nil {
		vm.RuntimeError("could not load module %q: %v", name, err)
		return true
	}

	mod := vm.newModuleObj(name)
	for i, n := range vm.coreModule.VarNames {
		mod.Declare(n, vm.coreModule.VarValues[i])
	}
	vm.modules[name] = mod

	comp := compiler.NewCompiler(vm.MethodNames, vm)
	fn, err := comp.Compile(mod, source, name)
	if err != nil {
		vm.RuntimeError("%v", err)
		return true
	}

	closure := vm.NewClosure(fn, nil)
	thread := vm.NewThread(closure)
	thread.Caller = vm.curThread
	if vm.curThread != nil {
		vm.curThread.PendingCallShrink = vm.pendingShrinkN
	}
	vm.curThread = thread
	vm.startThread(thread, values.Value{}, false)
	return true
}

func (vm *VM) ModuleVariable(moduleName, varName string) (values.Value, bool) {
	mod, ok := vm.modules[moduleName]
	if !ok {
		return values.Null(), false
	}
	idx := mod.VarIndex(varName)
	if idx == -1 {
		return values.Null(), false
	}
	return mod.VarValues[idx], true
}

// --- top-level execution ----------------------------------------------------

// Execute compiles source as module name's body and runs it to completion,
// matching spec.md section 6's execute_module(vm, name, source). An already
// registered module is reused: source compiles against its existing module
// variables, which is what lets successive REPL lines share state.
func (vm *VM) Execute(name, source string) error {
	mod, ok := vm.modules[name]
	if !ok {
		mod = vm.newModuleObj(name)
		for i, n := range vm.coreModule.VarNames {
			mod.Declare(n, vm.coreModule.VarValues[i])
		}
		vm.modules[name] = mod
	}

	comp := compiler.NewCompiler(vm.MethodNames, vm)
	fn, err := comp.Compile(mod, source, name)
	if err != nil {
		return err
	}

	closure := vm.NewClosure(fn, nil)
	thread := vm.NewThread(closure)
	vm.curThread = thread
	vm.startThread(thread, values.Value{}, false)
	return vm.run()
}

// Teardown walks allObjects and releases every live object's inner buffers,
// matching spec.md section 6's free_vm(vm). Go's own GC reclaims the memory;
// this just honors the observable teardown contract (every object visited
// exactly once) and resets the VM to an unusable state.
func (vm *VM) Teardown() {
	for o := vm.allObjects; o != nil; {
		next := o.Hdr().Next
		releaseObject(o)
		o = next
	}
	vm.allObjects = nil
	vm.objectCount = 0
	vm.curThread = nil
}

func releaseObject(o values.Obj) {
	switch t := o.(type) {
	case *values.ObjList:
		t.Elems = nil
	case *values.ObjMap:
		t.Clear()
	case *values.ObjFn:
		t.Code = nil
		t.Lines = nil
		t.Constants = nil
	case *values.ObjClosure:
		t.Upvalues = nil
	case *values.ObjInstance:
		t.Fields = nil
	case *values.ObjModule:
		t.VarNames = nil
		t.VarValues = nil
	case *values.ObjThread:
		t.Stack = nil
		t.Frames = nil
	case *values.ObjClass:
		t.Methods = nil
	}
}
