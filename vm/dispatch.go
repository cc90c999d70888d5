package vm

import (
	"fmt"

	"github.com/wudi/loom/opcodes"
	"github.com/wudi/loom/values"
)

// maxCallDepth bounds a single fiber's frame stack, converting runaway
// recursion into a catchable-by-nothing but at least clean VMError instead
// of a Go stack overflow.
const maxCallDepth = 6000

// run drives vm.curThread, and whatever fiber it switches to, until no
// fiber remains current (either the root fiber returned, or some native
// called Thread.suspend()). It returns the terminal top-level error, if the
// root fiber's call chain ended in an unhandled runtime error.
func (vm *VM) run() error {
	for vm.curThread != nil {
		if err := vm.step(); err != nil {
			return err
		}
	}
	return nil
}

// step executes exactly one bytecode instruction of the current fiber's top
// frame, per spec.md section 4.8's dispatch table.
func (vm *VM) step() error {
	t := vm.curThread
	frameIdx := len(t.Frames) - 1
	frame := t.Frames[frameIdx]
	fn := frame.Closure.Fn
	code := fn.Code
	base := frame.StackStart
	ip := frame.IP

	op := opcodes.Opcode(code[ip])
	ip++

	read1 := func() int { b := int(code[ip]); ip++; return b }
	read2 := func() int { v := int(code[ip])<<8 | int(code[ip+1]); ip += 2; return v }

	switch op {
	case opcodes.LoadConstant:
		vm.push(fn.Constants[read2()])

	case opcodes.PushNull:
		vm.push(values.Null())
	case opcodes.PushTrue:
		vm.push(values.True())
	case opcodes.PushFalse:
		vm.push(values.False())

	case opcodes.LoadLocalVar:
		vm.push(t.Stack[base+read1()])
	case opcodes.StoreLocalVar:
		t.Stack[base+read1()] = vm.peek(0)

	case opcodes.LoadUpvalue:
		vm.push(frame.Closure.Upvalues[read1()].Get())
	case opcodes.StoreUpvalue:
		frame.Closure.Upvalues[read1()].Set(vm.peek(0))

	case opcodes.LoadModuleVar:
		vm.push(fn.Module.VarValues[read2()])
	case opcodes.StoreModuleVar:
		fn.Module.VarValues[read2()] = vm.peek(0)

	case opcodes.LoadThisField:
		idx := read1()
		inst, ok := t.Stack[base].AsInstance()
		if !ok {
			t.Frames[frameIdx].IP = ip
			return vm.raise("'this' is not an instance")
		}
		vm.push(inst.Fields[idx])
	case opcodes.StoreThisField:
		idx := read1()
		inst, ok := t.Stack[base].AsInstance()
		if !ok {
			t.Frames[frameIdx].IP = ip
			return vm.raise("'this' is not an instance")
		}
		inst.Fields[idx] = vm.peek(0)

	case opcodes.LoadField:
		idx := read1()
		recv := vm.pop()
		inst, ok := recv.AsInstance()
		if !ok {
			t.Frames[frameIdx].IP = ip
			return vm.raise("cannot load a field from a %s", recv.String())
		}
		vm.push(inst.Fields[idx])
	case opcodes.StoreField:
		idx := read1()
		val := vm.pop()
		recv := vm.pop()
		inst, ok := recv.AsInstance()
		if !ok {
			t.Frames[frameIdx].IP = ip
			return vm.raise("cannot store a field on a %s", recv.String())
		}
		inst.Fields[idx] = val
		vm.push(val)

	case opcodes.Pop:
		vm.pop()

	case opcodes.Jump:
		ip += read2()
	case opcodes.Loop:
		ip -= read2()
	case opcodes.JumpIfFalse:
		off := read2()
		if vm.peek(0).Falsey() {
			ip += off
		}
	case opcodes.And:
		off := read2()
		if vm.peek(0).Falsey() {
			ip += off
		} else {
			vm.pop()
		}
	case opcodes.Or:
		off := read2()
		if vm.peek(0).Falsey() {
			vm.pop()
		} else {
			ip += off
		}

	case opcodes.CloseUpvalue:
		vm.closeUpvaluesFrom(t, len(t.Stack)-1)
		t.Stack = t.Stack[:len(t.Stack)-1]

	case opcodes.Construct:
		classVal := t.Stack[base]
		class, ok := classVal.AsClass()
		if !ok {
			t.Frames[frameIdx].IP = ip
			return vm.raise("Construct requires a class receiver")
		}
		t.Stack[base] = values.FromObj(vm.newInstance(class))

	case opcodes.CreateClass:
		fieldCount := read1()
		superVal := t.Stack[len(t.Stack)-1]
		nameVal := t.Stack[len(t.Stack)-2]
		super, ok := superVal.AsClass()
		if !ok {
			t.Frames[frameIdx].IP = ip
			return vm.raise("'%s' is not a class", superVal.String())
		}
		name, _ := nameVal.AsString()
		t.Stack = t.Stack[:len(t.Stack)-2]
		class := vm.newInstanceClass(string(name.Bytes), super, fieldCount)
		vm.push(values.FromObj(class))

	case opcodes.CreateClosure:
		idx := read2()
		newFn, _ := fn.Constants[idx].AsFn()
		upvals := make([]*values.ObjUpvalue, newFn.UpvalueNum)
		for i := 0; i < newFn.UpvalueNum; i++ {
			isLocal := code[ip] == 1
			ip++
			index := int(code[ip])
			ip++
			if isLocal {
				upvals[i] = vm.captureUpvalue(t, base+index)
			} else {
				upvals[i] = frame.Closure.Upvalues[index]
			}
		}
		vm.push(values.FromObj(vm.NewClosure(newFn, upvals)))

	case opcodes.InstanceMethod:
		symbol := read2()
		closure, _ := vm.pop().AsClosure()
		class, _ := vm.peek(0).AsClass()
		offset := 0
		if class.Super != nil {
			offset = class.Super.NumFields
		}
		fixupFields(closure.Fn, offset, map[*values.ObjFn]bool{})
		class.BindMethod(symbol, values.Method{Kind: values.MethodScript, Closure: closure})

	case opcodes.StaticMethod:
		symbol := read2()
		closure, _ := vm.pop().AsClosure()
		class, _ := vm.peek(0).AsClass()
		class.Head.Class.BindMethod(symbol, values.Method{Kind: values.MethodScript, Closure: closure})

	case opcodes.Return:
		retVal := vm.peek(0)
		vm.closeUpvaluesFrom(t, base)
		t.Stack = t.Stack[:base]
		t.Stack = append(t.Stack, retVal)
		t.Frames = t.Frames[:frameIdx]
		if len(t.Frames) == 0 {
			t.State = values.ThreadDone
			if t.Caller != nil {
				caller := t.Caller
				t.Caller = nil
				deliverResult(caller, retVal)
				vm.curThread = caller
			} else {
				vm.curThread = nil
			}
		}
		return nil

	default:
		if opcodes.IsCall(op) {
			n := opcodes.CallArity(op)
			symbol := read2()
			t.Frames[frameIdx].IP = ip
			return vm.dispatchInvoke(n, symbol, nil)
		}
		if opcodes.IsSuper(op) {
			n := opcodes.CallArity(op)
			symbol := read2()
			modIdx := read2()
			t.Frames[frameIdx].IP = ip
			return vm.dispatchInvoke(n, symbol, &modIdx)
		}
		return fmt.Errorf("internal error: unexecutable opcode %d at ip %d", byte(op), ip-1)
	}

	t.Frames[frameIdx].IP = ip
	return nil
}

// dispatchInvoke resolves and performs one Call/Super instruction: n is the
// argument count (receiver not included), symbol is the method-name symbol,
// and superModIdx, when non-nil, is the module-variable index of the class
// currently being compiled -- present only for Super, telling dispatch to
// start the method search one level above that class instead of at the
// receiver's own class (spec.md section 4.5, "super" dispatch).
func (vm *VM) dispatchInvoke(n, symbol int, superModIdx *int) error {
	t := vm.curThread
	base := len(t.Stack) - n - 1
	args := t.Stack[base:]
	receiver := args[0]

	var startClass *values.ObjClass
	if superModIdx != nil {
		fr := t.Frames[len(t.Frames)-1]
		classVal := fr.Closure.Fn.Module.VarValues[*superModIdx]
		class, ok := classVal.AsClass()
		if !ok || class.Super == nil {
			return vm.raise("invalid superclass reference")
		}
		startClass = class.Super
	} else {
		startClass = vm.ClassOf(receiver)
		if startClass == nil {
			return vm.raise("%s has no class", receiver.String())
		}
	}

	method := lookupMethod(startClass, symbol)
	switch method.Kind {
	case values.MethodNone:
		return vm.raise("%s does not implement '%s'", startClass.Name, vm.MethodNames.Name(symbol))

	case values.MethodPrimitive:
		vm.pendingShrinkN = n
		before := vm.curThread
		ok := method.Primitive(vm, args)
		if ok {
			t.Stack = t.Stack[:len(t.Stack)-n]
			return nil
		}
		if vm.curThread == nil {
			return nil // Thread.suspend()
		}
		if vm.curThread == before {
			if !before.Error.IsUndefined() {
				if vm.unwindFiberError() {
					return vm.terminalError()
				}
			}
			return nil
		}
		return nil // YieldFiber/SwitchToThread/ImportModule already switched curThread

	case values.MethodFnCall:
		closure, ok := receiver.AsClosure()
		if !ok {
			return vm.raise("%s is not callable", receiver.String())
		}
		if closure.Fn.Arity != n {
			return vm.raise("function expects %d argument(s) but got %d", closure.Fn.Arity, n)
		}
		return vm.pushScriptFrame(closure, base)

	case values.MethodScript:
		return vm.pushScriptFrame(method.Closure, base)
	}
	return nil
}

func lookupMethod(class *values.ObjClass, symbol int) values.Method {
	for c := class; c != nil; c = c.Super {
		if m := c.MethodAt(symbol); m.Kind != values.MethodNone {
			return m
		}
	}
	return values.Method{}
}

func (vm *VM) pushScriptFrame(closure *values.ObjClosure, base int) error {
	t := vm.curThread
	if len(t.Frames) >= maxCallDepth {
		return vm.raise("call stack exceeded (depth %d)", maxCallDepth)
	}
	t.Frames = append(t.Frames, values.Frame{IP: 0, Closure: closure, StackStart: base})
	if want := base + closure.Fn.MaxSlots; cap(t.Stack) < want {
		grown := make([]values.Value, len(t.Stack), want)
		copy(grown, t.Stack)
		t.Stack = grown
	}
	return nil
}

// raise reports a runtime error at the current instruction and unwinds the
// current fiber, matching the protocol every natively-detected error (a
// failed Call/Super/Construct/CreateClass) shares with a primitive that
// calls vm.RuntimeError itself.
func (vm *VM) raise(format string, args ...interface{}) error {
	vm.RuntimeError(format, args...)
	if vm.unwindFiberError() {
		return vm.terminalError()
	}
	return nil
}

func (vm *VM) terminalError() error {
	t := vm.curThread
	msg := t.Error.String()
	vm.curThread = nil
	return fmt.Errorf("%s", msg)
}

// fixupFields walks fn's code (and, recursively, every CreateClosure-
// referenced nested function reachable from its constant pool) adding
// offset to every LoadField/StoreField/LoadThisField/StoreThisField operand.
// The compiler numbers a class's own fields starting at zero (spec.md
// section 4.5); offset is the inherited field count, known only once the
// superclass has actually been created at runtime.
func fixupFields(fn *values.ObjFn, offset int, visited map[*values.ObjFn]bool) {
	if fn == nil || visited[fn] {
		return
	}
	visited[fn] = true
	code := fn.Code
	for ip := 0; ip < len(code); {
		op := opcodes.Opcode(code[ip])
		switch op {
		case opcodes.LoadField, opcodes.StoreField, opcodes.LoadThisField, opcodes.StoreThisField:
			if offset != 0 {
				code[ip+1] = byte(int(code[ip+1]) + offset)
			}
		case opcodes.CreateClosure:
			idx := int(code[ip+1])<<8 | int(code[ip+2])
			if idx < len(fn.Constants) {
				if nested, ok := fn.Constants[idx].AsFn(); ok {
					fixupFields(nested, offset, visited)
				}
			}
		}
		ip += 1 + fnInstrWidth(fn, code, ip)
	}
}

func fnInstrWidth(fn *values.ObjFn, code []byte, ip int) int {
	op := opcodes.Opcode(code[ip])
	if op == opcodes.CreateClosure {
		idx := int(code[ip+1])<<8 | int(code[ip+2])
		n := 0
		if idx < len(fn.Constants) {
			if nested, ok := fn.Constants[idx].AsFn(); ok {
				n = nested.UpvalueNum
			}
		}
		return 2 + 2*n
	}
	return opcodes.OperandWidth(op)
}
