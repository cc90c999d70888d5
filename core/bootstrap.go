// Package core builds Loom's built-in class hierarchy (Object, Class, Bool,
// Null, Num, String, List, Map, Range, Fn, Thread, System) and binds their
// native method tables, per spec.md section 4.10. Bootstrap is the Go half
// of spec.md section 6's new_vm(): the embedded prelude script (prelude.go,
// prelude.loom) is the Loom-source half. The prelude currently holds no
// definitions; every core method is bound natively here.
package core

import (
	"github.com/wudi/loom/values"
	"github.com/wudi/loom/vm"
)

// Bootstrap wires every primitive class into v and runs the embedded
// prelude. Call it once, immediately after vm.New.
func Bootstrap(v *vm.VM) error {
	buildClassHierarchy(v)

	bindObject(v)
	bindClass(v)
	bindBoolNull(v)
	bindNum(v)
	bindString(v)
	bindList(v)
	bindMap(v)
	bindRange(v)
	bindFn(v)
	bindThread(v)
	bindSystem(v)

	return v.Execute("", preludeSource)
}

// buildClassHierarchy allocates the primitive classes and wires the
// Object/Class metaclass cycle by hand (spec.md section 9): Object has no
// superclass; Class is a subclass of Object (so class values inherit
// toString/==/is); every class's metaclass descends from Class; Class is
// its own metaclass. Every other primitive class is built the same way
// vm.newInstanceClass builds a script-defined one, just without an
// instance-field count.
func buildClassHierarchy(v *vm.VM) {
	object := v.NewRawClass("Object", nil)
	class := v.NewRawClass("Class", nil)
	objectMeta := v.NewRawClass("Object metaclass", class)

	object.Head.Class = objectMeta
	objectMeta.Head.Class = class
	class.Super = object
	class.Head.Class = class

	v.DefineClass("Object", object)
	v.DefineClass("Class", class)
	declareCoreVar(v, "Object", object)
	declareCoreVar(v, "Class", class)

	define := func(name string) *values.ObjClass {
		c := v.NewRawClass(name, object)
		meta := v.NewRawClass(name+" metaclass", class)
		c.Head.Class = meta
		v.DefineClass(name, c)
		declareCoreVar(v, name, c)
		return c
	}

	define("Bool")
	define("Null")
	define("Num")
	define("String")
	define("List")
	define("Map")
	define("Range")
	define("Fn")
	define("Thread")
	define("System")
}

func declareCoreVar(v *vm.VM, name string, class *values.ObjClass) {
	v.CoreModule().Declare(name, values.FromObj(class))
}

// bind installs an instance method on class.
func bind(v *vm.VM, class *values.ObjClass, sig string, fn values.NativeFn) {
	symbol := v.MethodNames.Ensure(sig)
	class.BindMethod(symbol, values.Method{Kind: values.MethodPrimitive, Primitive: fn})
}

// bindStatic installs a method on class's metaclass, callable as
// `ClassName.method(...)` directly against the class value.
func bindStatic(v *vm.VM, class *values.ObjClass, sig string, fn values.NativeFn) {
	symbol := v.MethodNames.Ensure(sig)
	class.Head.Class.BindMethod(symbol, values.Method{Kind: values.MethodPrimitive, Primitive: fn})
}

// bindFnCall installs sig as a MethodFnCall slot: dispatch reads the
// receiving closure straight off the stack instead of calling a Go
// function, the way Fn.call()..call(_,...) work (spec.md section 4.10).
func bindFnCall(v *vm.VM, class *values.ObjClass, sig string) {
	symbol := v.MethodNames.Ensure(sig)
	class.BindMethod(symbol, values.Method{Kind: values.MethodFnCall})
}

// ret stores result as the call's return value.
func ret(args []values.Value, result values.Value) bool {
	args[0] = result
	return true
}

func retBool(args []values.Value, b bool) bool { return ret(args, values.Bool(b)) }
func retNum(args []values.Value, n float64) bool { return ret(args, values.Number(n)) }

// fail sets the current fiber's error slot and returns false, the generic
// failure protocol every native in this package shares (spec.md section 7).
func fail(v values.VM, format string, a ...interface{}) bool {
	v.RuntimeError(format, a...)
	return false
}
