package core

import (
	"strings"

	"github.com/wudi/loom/values"
	"github.com/wudi/loom/vm"
)

// bindList installs List's native methods (spec.md section 4.10, "List").
// addCore_(_) is the subscript-free append the compiler's listLiteral()
// emits for each element; add(_) is the same operation exposed to scripts.
func bindList(v *vm.VM) {
	list := v.Class("List")

	bindStatic(v, list, "new()", func(vm values.VM, args []values.Value) bool {
		return ret(args, vm.NewList(nil))
	})

	bind(v, list, "[_]", func(vm values.VM, args []values.Value) bool {
		l, _ := args[0].AsList()
		if r, ok := args[1].AsRange(); ok {
			lo, hi, step := rangeBounds(r, len(l.Elems))
			var out []values.Value
			for i := lo; ; i += step {
				if i < 0 || i >= len(l.Elems) {
					break
				}
				out = append(out, l.Elems[i])
				if i == hi {
					break
				}
			}
			return ret(args, vm.NewList(out))
		}
		n, ok := numArg(vm, args, 1)
		if !ok {
			return false
		}
		idx, ok := normalizeIndex(int(n), len(l.Elems))
		if !ok {
			return fail(vm, "list index out of range")
		}
		return ret(args, l.Elems[idx])
	})

	bind(v, list, "[_]=(_)", func(vm values.VM, args []values.Value) bool {
		l, _ := args[0].AsList()
		n, ok := numArg(vm, args, 1)
		if !ok {
			return false
		}
		idx, ok := normalizeIndex(int(n), len(l.Elems))
		if !ok {
			return fail(vm, "list index out of range")
		}
		l.Elems[idx] = args[2]
		return ret(args, args[2])
	})

	appendElem := func(vm values.VM, args []values.Value) bool {
		l, _ := args[0].AsList()
		l.Elems = append(l.Elems, args[1])
		return ret(args, args[1])
	}
	bind(v, list, "add(_)", appendElem)
	bind(v, list, "addCore_(_)", func(vm values.VM, args []values.Value) bool {
		appendElem(vm, args)
		return ret(args, args[0])
	})

	bind(v, list, "insert(_,_)", func(vm values.VM, args []values.Value) bool {
		l, _ := args[0].AsList()
		n, ok := numArg(vm, args, 1)
		if !ok {
			return false
		}
		idx := int(n)
		if idx < 0 {
			idx += len(l.Elems) + 1
		}
		if idx < 0 || idx > len(l.Elems) {
			return fail(vm, "insert index out of range")
		}
		l.Elems = append(l.Elems, values.Null())
		copy(l.Elems[idx+1:], l.Elems[idx:])
		l.Elems[idx] = args[2]
		return ret(args, args[2])
	})

	bind(v, list, "removeAt(_)", func(vm values.VM, args []values.Value) bool {
		l, _ := args[0].AsList()
		n, ok := numArg(vm, args, 1)
		if !ok {
			return false
		}
		idx, ok := normalizeIndex(int(n), len(l.Elems))
		if !ok {
			return fail(vm, "removeAt index out of range")
		}
		removed := l.Elems[idx]
		l.Elems = append(l.Elems[:idx], l.Elems[idx+1:]...)
		return ret(args, removed)
	})

	bind(v, list, "clear()", func(vm values.VM, args []values.Value) bool {
		l, _ := args[0].AsList()
		l.Elems = nil
		return ret(args, values.Null())
	})

	bind(v, list, "count", func(vm values.VM, args []values.Value) bool {
		l, _ := args[0].AsList()
		return retNum(args, float64(len(l.Elems)))
	})

	bind(v, list, "join()", func(vm values.VM, args []values.Value) bool {
		// Elements are whatever values addCore_(_) accumulated, typically
		// string-interpolation fragments and interpolated sub-expression
		// results; non-String elements render via the same String() used
		// by toString, so `"x = %(x)"` with a Num x still joins cleanly.
		l, _ := args[0].AsList()
		var b strings.Builder
		for _, e := range l.Elems {
			b.WriteString(e.String())
		}
		return ret(args, vm.NewString(b.String()))
	})

	bindSequence(v, list, "iterate(_)", "iteratorValue(_)", func(receiver values.Value) int {
		l, _ := receiver.AsList()
		return len(l.Elems)
	}, func(vm values.VM, receiver values.Value, i int) values.Value {
		l, _ := receiver.AsList()
		return l.Elems[i]
	})
}
