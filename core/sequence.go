package core

import (
	"github.com/wudi/loom/values"
	"github.com/wudi/loom/vm"
)

// bindSequence installs the iterate(_)/iteratorValue(_) pair `for (x in
// seq)` desugars to (SPEC_FULL.md's supplemented "for" loop protocol,
// grounded on original_source/compiler.c's forStatement desugaring): the
// iterator is just a Number index, Null on the first call, and false once
// exhausted, matching Ditto's native iterator convention.
func bindSequence(
	v *vm.VM, class *values.ObjClass, iterateSig, valueSig string,
	length func(values.Value) int,
	at func(values.VM, values.Value, int) values.Value,
) {
	bind(v, class, iterateSig, func(vm values.VM, args []values.Value) bool {
		n := length(args[0])
		if args[1].IsNull() {
			if n == 0 {
				return retBool(args, false)
			}
			return retNum(args, 0)
		}
		if !args[1].IsNumber() {
			return fail(vm, "iterator must be a number")
		}
		idx := int(args[1].Num) + 1
		if idx >= n {
			return retBool(args, false)
		}
		return retNum(args, float64(idx))
	})
	bind(v, class, valueSig, func(vm values.VM, args []values.Value) bool {
		n := length(args[0])
		idx := int(args[1].Num)
		if idx < 0 || idx >= n {
			return fail(vm, "iterator value out of range")
		}
		return ret(args, at(vm, args[0], idx))
	})
}

// rangeBounds resolves a Range's possibly-negative, possibly-descending
// endpoints against a sequence of length elements, returning the first
// index, last index (inclusive), and the +1/-1 step between them.
func rangeBounds(r *values.ObjRange, length int) (lo, hi, step int) {
	from := int(r.From)
	to := int(r.To)
	if from < 0 {
		from += length
	}
	if to < 0 {
		to += length
	}
	if from <= to {
		return from, to, 1
	}
	return from, to, -1
}
