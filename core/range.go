package core

import (
	"github.com/wudi/loom/values"
	"github.com/wudi/loom/vm"
)

// bindRange installs Range's native methods (spec.md section 4.10, "Range")
// plus the iterate(_)/iteratorValue(_) pair SPEC_FULL.md adds so `for (x in
// 1..10)` works without a List materializing first.
func bindRange(v *vm.VM) {
	rng := v.Class("Range")

	bind(v, rng, "from", func(vm values.VM, args []values.Value) bool {
		r, _ := args[0].AsRange()
		return retNum(args, r.From)
	})
	bind(v, rng, "to", func(vm values.VM, args []values.Value) bool {
		r, _ := args[0].AsRange()
		return retNum(args, r.To)
	})
	bind(v, rng, "min", func(vm values.VM, args []values.Value) bool {
		r, _ := args[0].AsRange()
		if r.From < r.To {
			return retNum(args, r.From)
		}
		return retNum(args, r.To)
	})
	bind(v, rng, "max", func(vm values.VM, args []values.Value) bool {
		r, _ := args[0].AsRange()
		if r.From > r.To {
			return retNum(args, r.From)
		}
		return retNum(args, r.To)
	})
	bind(v, rng, "toString", func(vm values.VM, args []values.Value) bool {
		return ret(args, vm.NewString(args[0].String()))
	})

	bindSequence(v, rng, "iterate(_)", "iteratorValue(_)", func(receiver values.Value) int {
		r, _ := receiver.AsRange()
		span := int(r.To) - int(r.From)
		if span < 0 {
			span = -span
		}
		return span + 1
	}, func(vm values.VM, receiver values.Value, i int) values.Value {
		r, _ := receiver.AsRange()
		if r.From <= r.To {
			return values.Number(r.From + float64(i))
		}
		return values.Number(r.From - float64(i))
	})
}
