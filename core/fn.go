package core

import (
	"strings"

	"github.com/wudi/loom/values"
	"github.com/wudi/loom/vm"
)

// maxFnCallArity mirrors dispatch's maxCallDepth-independent call-arity
// ceiling: Fn answers call() through call with 16 arguments (spec.md
// section 4.10, "Fn").
const maxFnCallArity = 16

// bindFn installs Fn's native methods. new(_) just returns its argument:
// a closure literal already evaluates to itself, so Fn.new(_) exists only
// so scripts can write `Fn.new { ... }` as a constructor call. call(...)
// is bound with MethodFnCall, which dispatch.go's dispatchInvoke handles
// by reading the closure directly off the receiver instead of calling a
// Go function.
func bindFn(v *vm.VM) {
	fn := v.Class("Fn")

	bindStatic(v, fn, "new(_)", func(vm values.VM, args []values.Value) bool {
		return ret(args, args[1])
	})

	bindFnCall(v, fn, "call()")
	for n := 1; n <= maxFnCallArity; n++ {
		sig := "call(" + strings.Repeat("_,", n-1) + "_)"
		bindFnCall(v, fn, sig)
	}
}
