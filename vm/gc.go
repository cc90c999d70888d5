package vm

import "github.com/wudi/loom/values"

// collectGarbage implements System.gc() (spec.md section 4.10): a simple
// mark-and-sweep pass over every object ever allocated by this VM (tracked
// via the intrusive allObjects list, see vm.track). Go's own collector owns
// the underlying memory either way; this pass exists to honor the
// observable contract that an object unreachable from any root becomes
// eligible for collection, and to release such an object's inner buffers
// promptly via releaseObject instead of waiting on a future Teardown.
func (vm *VM) collectGarbage() {
	for o := vm.allObjects; o != nil; o = o.Hdr().Next {
		o.Hdr().Reachable = false
	}

	for _, class := range vm.classes {
		vm.markClass(class)
	}
	for _, mod := range vm.modules {
		vm.markModule(mod)
	}
	for t := vm.curThread; t != nil; t = t.Caller {
		vm.markThread(t)
	}

	var kept values.Obj
	for o := vm.allObjects; o != nil; {
		next := o.Hdr().Next
		if o.Hdr().Reachable {
			o.Hdr().Next = kept
			kept = o
		} else {
			releaseObject(o)
			vm.objectCount--
		}
		o = next
	}
	vm.allObjects = kept
}

func (vm *VM) markValue(v values.Value) {
	if v.Type != values.TypeObject || v.Obj == nil {
		return
	}
	vm.markObj(v.Obj)
}

func (vm *VM) markObj(o values.Obj) {
	hdr := o.Hdr()
	if hdr.Reachable {
		return
	}
	hdr.Reachable = true
	if hdr.Class != nil {
		vm.markClass(hdr.Class)
	}

	switch t := o.(type) {
	case *values.ObjList:
		for _, e := range t.Elems {
			vm.markValue(e)
		}
	case *values.ObjMap:
		for _, e := range t.Entries {
			if !e.Key.IsUndefined() {
				vm.markValue(e.Key)
				vm.markValue(e.Value)
			}
		}
	case *values.ObjFn:
		for _, c := range t.Constants {
			vm.markValue(c)
		}
		if t.Module != nil {
			vm.markModule(t.Module)
		}
	case *values.ObjClosure:
		vm.markObj(t.Fn)
		for _, uv := range t.Upvalues {
			if uv != nil {
				vm.markObj(uv)
			}
		}
	case *values.ObjUpvalue:
		if t.Open {
			if t.Thread != nil {
				vm.markValue(t.Thread.Stack[t.Slot])
			}
		} else {
			vm.markValue(t.Closed)
		}
	case *values.ObjInstance:
		for _, f := range t.Fields {
			vm.markValue(f)
		}
	case *values.ObjModule:
		vm.markModule(t)
	case *values.ObjClass:
		vm.markClass(t)
	case *values.ObjThread:
		vm.markThread(t)
	}
}

func (vm *VM) markClass(c *values.ObjClass) {
	if c == nil {
		return
	}
	hdr := c.Hdr()
	if hdr.Reachable {
		return
	}
	hdr.Reachable = true
	if hdr.Class != nil {
		vm.markClass(hdr.Class)
	}
	if c.Super != nil {
		vm.markClass(c.Super)
	}
	for _, m := range c.Methods {
		if m.Kind == values.MethodScript && m.Closure != nil {
			vm.markObj(m.Closure)
		}
	}
}

func (vm *VM) markModule(m *values.ObjModule) {
	if m == nil {
		return
	}
	hdr := m.Hdr()
	if hdr.Reachable {
		return
	}
	hdr.Reachable = true
	for _, v := range m.VarValues {
		vm.markValue(v)
	}
}

func (vm *VM) markThread(t *values.ObjThread) {
	if t == nil {
		return
	}
	hdr := t.Hdr()
	if hdr.Reachable {
		return
	}
	hdr.Reachable = true
	for _, v := range t.Stack {
		vm.markValue(v)
	}
	for _, f := range t.Frames {
		if f.Closure != nil {
			vm.markObj(f.Closure)
		}
	}
	for uv := t.OpenUpvalues; uv != nil; uv = uv.Next {
		vm.markObj(uv)
	}
	if t.InitialClosure != nil {
		vm.markObj(t.InitialClosure)
	}
	vm.markValue(t.Error)
	if t.Caller != nil {
		vm.markThread(t.Caller)
	}
}
