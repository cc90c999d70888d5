package vm

import "github.com/wudi/loom/values"

const initialStackCapacity = 64

// startThread pushes thread's InitialClosure as its first frame. Slot 0 of
// the new frame is always the closure value itself (the reserved placeholder
// local every compiled function -- method or free function -- expects at
// local index 0, spec.md section 4.9); when the closure takes one argument
// (the `{ |v| ... }` block passed to Thread.new), arg lands at slot 1.
func (vm *VM) startThread(t *values.ObjThread, arg values.Value, hasArg bool) {
	t.Stack = make([]values.Value, 0, initialStackCapacity)
	t.Stack = append(t.Stack, values.FromObj(t.InitialClosure))
	if t.InitialClosure.Fn.Arity >= 1 {
		v := values.Null()
		if hasArg {
			v = arg
		}
		t.Stack = append(t.Stack, v)
	}
	t.Frames = append(t.Frames, values.Frame{IP: 0, Closure: t.InitialClosure, StackStart: 0})
	t.Started = true
	t.State = values.ThreadRunning
}

// resumeThread delivers a call()/call(_) argument to a previously suspended
// (yielded) thread: it overwrites the stack-top slot left behind by that
// thread's own Thread.yield call, exactly as a synchronous primitive call
// would overwrite its receiver slot with its result.
func (vm *VM) resumeThread(t *values.ObjThread, arg values.Value, hasArg bool) {
	v := values.Null()
	if hasArg {
		v = arg
	}
	t.Stack[len(t.Stack)-1] = v
	t.State = values.ThreadRunning
}

func (vm *VM) currentFrame() *values.Frame {
	t := vm.curThread
	return &t.Frames[len(t.Frames)-1]
}

func (vm *VM) pushFrame(f values.Frame) {
	vm.curThread.Frames = append(vm.curThread.Frames, f)
}

func (vm *VM) popFrame() {
	t := vm.curThread
	t.Frames = t.Frames[:len(t.Frames)-1]
}

// reserveSlots grows the current thread's stack so slots [StackStart,
// StackStart+n) of the active frame exist, per spec.md section 4.9's
// MaxSlots contract. Locals default to Null.
func (vm *VM) reserveSlots(n int) {
	t := vm.curThread
	base := vm.currentFrame().StackStart
	want := base + n
	for len(t.Stack) < want {
		t.Stack = append(t.Stack, values.Null())
	}
}

func (vm *VM) push(v values.Value) {
	vm.curThread.Stack = append(vm.curThread.Stack, v)
}

func (vm *VM) pop() values.Value {
	t := vm.curThread
	v := t.Stack[len(t.Stack)-1]
	t.Stack = t.Stack[:len(t.Stack)-1]
	return v
}

func (vm *VM) peek(distanceFromTop int) values.Value {
	t := vm.curThread
	return t.Stack[len(t.Stack)-1-distanceFromTop]
}

func (vm *VM) setTop(v values.Value) {
	t := vm.curThread
	t.Stack[len(t.Stack)-1] = v
}

// --- upvalues (spec.md section 4.6) -----------------------------------------

// captureUpvalue returns the open upvalue for thread slot, reusing an
// existing one from the thread's open list (kept sorted descending by Slot
// so the search and insertion are both a single linear pass).
func (vm *VM) captureUpvalue(t *values.ObjThread, slot int) *values.ObjUpvalue {
	var prev *values.ObjUpvalue
	cur := t.OpenUpvalues
	for cur != nil && cur.Slot > slot {
		prev = cur
		cur = cur.Next
	}
	if cur != nil && cur.Slot == slot {
		return cur
	}
	created := vm.newUpvalue(t, slot)
	created.Next = cur
	if prev == nil {
		t.OpenUpvalues = created
	} else {
		prev.Next = created
	}
	return created
}

// closeUpvaluesFrom closes every open upvalue at slot >= lowestSlot,
// unlinking it from the thread's open list (spec.md section 4.6, the
// one-way open->closed transition).
func (vm *VM) closeUpvaluesFrom(t *values.ObjThread, lowestSlot int) {
	for t.OpenUpvalues != nil && t.OpenUpvalues.Slot >= lowestSlot {
		next := t.OpenUpvalues.Next
		t.OpenUpvalues.Close()
		t.OpenUpvalues = next
	}
}
