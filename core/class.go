package core

import (
	"github.com/wudi/loom/values"
	"github.com/wudi/loom/vm"
)

// bindClass installs Class's own methods (spec.md section 4.10, "Class").
// They are bound as ordinary instance methods of the "Class" class itself:
// every class value's own class is some metaclass whose superclass chain
// bottoms out at Class, the same way any other instance reaches Object.
func bindClass(v *vm.VM) {
	class := v.Class("Class")

	bind(v, class, "name", func(vm values.VM, args []values.Value) bool {
		c, _ := args[0].AsClass()
		return ret(args, vm.NewString(c.Name))
	})
	bind(v, class, "toString", func(vm values.VM, args []values.Value) bool {
		c, _ := args[0].AsClass()
		return ret(args, vm.NewString(c.Name))
	})
	bind(v, class, "supertype", func(vm values.VM, args []values.Value) bool {
		c, _ := args[0].AsClass()
		if c.Super == nil {
			return ret(args, values.Null())
		}
		return ret(args, values.FromObj(c.Super))
	})
}
