package core

import (
	"github.com/wudi/loom/values"
	"github.com/wudi/loom/vm"
)

// bindSystem installs System's static methods (spec.md section 4.10,
// "System"). importModule_(_) and importVariable_(_,_) are the internal
// names compiler/statements.go's invokeCoreImport desugaring actually
// emits; importModule(_) and getModuleVariable(_,_) are the spec's public
// spelling, bound as aliases of the same Go functions so a script can also
// call them directly.
func bindSystem(v *vm.VM) {
	sys := v.Class("System")

	bindStatic(v, sys, "clock", func(vm values.VM, args []values.Value) bool {
		return retNum(args, vm.Clock())
	})
	bindStatic(v, sys, "gc()", func(vm values.VM, args []values.Value) bool {
		vm.CollectGarbage()
		return ret(args, values.Null())
	})

	importModule := func(vm values.VM, args []values.Value) bool {
		name, ok := args[1].AsString()
		if !ok {
			return fail(vm, "module name must be a String")
		}
		if vm.ImportModule(string(name.Bytes)) {
			return false
		}
		return ret(args, values.Null())
	}
	bindStatic(v, sys, "importModule_(_)", importModule)
	bindStatic(v, sys, "importModule(_)", importModule)

	importVariable := func(vm values.VM, args []values.Value) bool {
		moduleName, ok := args[1].AsString()
		if !ok {
			return fail(vm, "module name must be a String")
		}
		varName, ok := args[2].AsString()
		if !ok {
			return fail(vm, "variable name must be a String")
		}
		val, ok := vm.ModuleVariable(string(moduleName.Bytes), string(varName.Bytes))
		if !ok {
			return fail(vm, "module '%s' has no variable '%s'", string(moduleName.Bytes), string(varName.Bytes))
		}
		return ret(args, val)
	}
	bindStatic(v, sys, "importVariable_(_,_)", importVariable)
	bindStatic(v, sys, "getModuleVariable(_,_)", importVariable)

	bindStatic(v, sys, "writeString_(_)", func(vm values.VM, args []values.Value) bool {
		s, ok := args[1].AsString()
		if !ok {
			return fail(vm, "argument must be a String")
		}
		vm.WriteString(string(s.Bytes))
		return ret(args, args[1])
	})

	// print(_) (SPEC_FULL.md supplemented feature): writeString_ plus a
	// trailing newline, present in Ditto's core but never promoted to a
	// distinct spec.md entry.
	bindStatic(v, sys, "print(_)", func(vm values.VM, args []values.Value) bool {
		vm.WriteString(args[1].String())
		vm.WriteString("\n")
		return ret(args, args[1])
	})
}
