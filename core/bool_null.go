package core

import (
	"github.com/wudi/loom/values"
	"github.com/wudi/loom/vm"
)

// bindBoolNull installs Bool and Null's methods (spec.md section 4.10).
// Both inherit Object's toString; each overrides it with its literal
// spelling and answers "!" with the expected negation.
func bindBoolNull(v *vm.VM) {
	boolClass := v.Class("Bool")
	bind(v, boolClass, "toString", func(vm values.VM, args []values.Value) bool {
		return ret(args, vm.NewString(args[0].String()))
	})
	bind(v, boolClass, "!()", func(vm values.VM, args []values.Value) bool {
		return retBool(args, args[0].IsFalse())
	})

	nullClass := v.Class("Null")
	bind(v, nullClass, "toString", func(vm values.VM, args []values.Value) bool {
		return ret(args, vm.NewString("null"))
	})
	bind(v, nullClass, "!()", func(vm values.VM, args []values.Value) bool {
		return retBool(args, true)
	})
}
