package core

import (
	"github.com/wudi/loom/values"
	"github.com/wudi/loom/vm"
)

// bindObject installs the methods every value in the system answers to,
// inherited through the superclass chain by every other class (spec.md
// section 4.10, "Object (base class)").
func bindObject(v *vm.VM) {
	object := v.Class("Object")

	bind(v, object, "!()", func(vm values.VM, args []values.Value) bool {
		return retBool(args, false)
	})
	bind(v, object, "==(_)", func(vm values.VM, args []values.Value) bool {
		return retBool(args, values.Equal(args[0], args[1]))
	})
	bind(v, object, "!=(_)", func(vm values.VM, args []values.Value) bool {
		return retBool(args, !values.Equal(args[0], args[1]))
	})
	bind(v, object, "is(_)", func(vm values.VM, args []values.Value) bool {
		other, ok := args[1].AsClass()
		if !ok {
			return fail(vm, "right operand of 'is' must be a class")
		}
		return retBool(args, vm.ClassOf(args[0]).IsSubclassOf(other))
	})
	bind(v, object, "toString", func(vm values.VM, args []values.Value) bool {
		return ret(args, vm.NewString(args[0].String()))
	})
	bind(v, object, "type", func(vm values.VM, args []values.Value) bool {
		return ret(args, values.FromObj(vm.ClassOf(args[0])))
	})
}
