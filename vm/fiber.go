package vm

import "github.com/wudi/loom/values"

// SwitchToThread implements the Thread.call()/call(_) natives (spec.md
// section 4.10): it starts next if this is its first call, or delivers arg
// to a previously yielded next otherwise, then makes it the running fiber.
// It always returns false -- the calling native must return that straight
// through, so the dispatch loop reloads its frame from the new curThread.
func (vm *VM) SwitchToThread(next *values.ObjThread, arg values.Value, hasArg bool) bool {
	if next.IsDone() {
		vm.RuntimeError("cannot call a finished or aborted fiber")
		return false
	}
	if next.State == values.ThreadRunning {
		vm.RuntimeError("fiber has already been called")
		return false
	}

	cur := vm.curThread
	next.Caller = cur
	if cur != nil {
		cur.PendingCallShrink = vm.pendingShrinkN
	}

	if !next.Started {
		vm.startThread(next, arg, hasArg)
	} else {
		vm.resumeThread(next, arg, hasArg)
	}
	vm.curThread = next
	return false
}

// YieldFiber implements Thread.yield()/yield(_): it suspends the running
// fiber (leaving it resumable) and hands control and an optional value back
// to whichever fiber called it, mirroring the shrink-and-store-result
// behavior of a normal synchronous primitive return.
func (vm *VM) YieldFiber(val values.Value, hasVal bool) bool {
	cur := vm.curThread
	if cur.Caller == nil {
		vm.RuntimeError("cannot yield from a fiber with no caller")
		return false
	}

	n := vm.pendingShrinkN
	if n > len(cur.Stack) {
		n = len(cur.Stack)
	}
	cur.Stack = cur.Stack[:len(cur.Stack)-n]
	cur.State = values.ThreadOther

	caller := cur.Caller
	cur.Caller = nil

	v := values.Null()
	if hasVal {
		v = val
	}
	deliverResult(caller, v)
	vm.curThread = caller
	return false
}

// SuspendFiber implements Thread.suspend(): it detaches the VM from every
// fiber. The dispatch loop notices curThread == nil and returns cleanly.
func (vm *VM) SuspendFiber() { vm.curThread = nil }

// AbortFiber implements Thread.abort(_): it marks t as aborted with errVal
// as its error. If t is the running fiber, the dispatch loop's generic
// error-unwind path (see dispatch.go) takes over once the native returns
// false; if t is some other, currently suspended fiber, this just poisons it
// so a future call()/call(_) on it fails with "finished or aborted".
func (vm *VM) AbortFiber(t *values.ObjThread, errVal values.Value) {
	t.Error = errVal
	t.State = values.ThreadAborted
}

// deliverResult writes v to the stack slot a finished or yielded callee
// leaves behind on its caller, shrinking by the caller's own recorded call
// arity first.
func deliverResult(caller *values.ObjThread, v values.Value) {
	n := caller.PendingCallShrink
	if n > len(caller.Stack) {
		n = len(caller.Stack)
	}
	caller.Stack = caller.Stack[:len(caller.Stack)-n]
	caller.Stack[len(caller.Stack)-1] = v
	caller.PendingCallShrink = 0
}

// unwindFiberError handles a primitive call that returned false without
// performing any of the explicit fiber-switch operations above: the
// current fiber's error slot is set (RuntimeError was called) and
// vm.curThread is unchanged. The whole fiber is aborted; if it has a
// caller, that caller resumes with Null as the dead call's result (errors
// never silently vanish -- they remain on the dead fiber's Error field, see
// DESIGN.md). If there is no caller, this was the root fiber and the error
// is terminal for the whole Execute call.
func (vm *VM) unwindFiberError() (terminal bool) {
	cur := vm.curThread
	cur.State = values.ThreadAborted
	if cur.Caller == nil {
		return true
	}
	caller := cur.Caller
	cur.Caller = nil
	deliverResult(caller, values.Null())
	vm.curThread = caller
	return false
}
