package core

import (
	"github.com/wudi/loom/values"
	"github.com/wudi/loom/vm"
)

// bindThread installs Thread's native methods (spec.md section 4.10,
// "Thread"): fiber creation, abort, the suspend/yield pair, and call()
// which resumes a fiber via the VM's fiber-switch protocol.
func bindThread(v *vm.VM) {
	thread := v.Class("Thread")

	bindStatic(v, thread, "new(_)", func(vm values.VM, args []values.Value) bool {
		closure, ok := args[1].AsClosure()
		if !ok {
			return fail(vm, "Thread.new(_) requires a Fn argument")
		}
		return ret(args, values.FromObj(vm.NewThread(closure)))
	})

	bindStatic(v, thread, "abort(_)", func(vm values.VM, args []values.Value) bool {
		vm.AbortFiber(vm.CurrentThread(), args[1])
		return false
	})

	bindStatic(v, thread, "current", func(vm values.VM, args []values.Value) bool {
		return ret(args, values.FromObj(vm.CurrentThread()))
	})

	bindStatic(v, thread, "suspend()", func(vm values.VM, args []values.Value) bool {
		vm.SuspendFiber()
		return false
	})

	bindStatic(v, thread, "yield()", func(vm values.VM, args []values.Value) bool {
		return vm.YieldFiber(values.Null(), false)
	})
	bindStatic(v, thread, "yield(_)", func(vm values.VM, args []values.Value) bool {
		return vm.YieldFiber(args[1], true)
	})

	bind(v, thread, "call()", func(vm values.VM, args []values.Value) bool {
		t, ok := args[0].AsThread()
		if !ok {
			return fail(vm, "receiver must be a Thread")
		}
		if t.IsDone() {
			return fail(vm, "cannot call a finished thread")
		}
		return vm.SwitchToThread(t, values.Null(), false)
	})
	bind(v, thread, "call(_)", func(vm values.VM, args []values.Value) bool {
		t, ok := args[0].AsThread()
		if !ok {
			return fail(vm, "receiver must be a Thread")
		}
		if t.IsDone() {
			return fail(vm, "cannot call a finished thread")
		}
		return vm.SwitchToThread(t, args[1], true)
	})

	bind(v, thread, "isDone", func(vm values.VM, args []values.Value) bool {
		t, _ := args[0].AsThread()
		return retBool(args, t.IsDone())
	})
}
