package core

import (
	"github.com/wudi/loom/values"
	"github.com/wudi/loom/vm"
)

// bindMap installs Map's native methods (spec.md section 4.10, "Map").
// addCore_(_,_) is the two-arg insert the compiler's mapLiteral() emits per
// key/value pair; unlike the [_]=(_) setter it answers the map itself.
func bindMap(v *vm.VM) {
	m := v.Class("Map")

	bindStatic(v, m, "new()", func(vm values.VM, args []values.Value) bool {
		return ret(args, vm.NewMap())
	})

	bind(v, m, "[_]", func(vm values.VM, args []values.Value) bool {
		mp, _ := args[0].AsMap()
		val := mp.Get(args[1])
		if val.IsUndefined() {
			return ret(args, values.Null())
		}
		return ret(args, val)
	})

	bind(v, m, "[_]=(_)", func(vm values.VM, args []values.Value) bool {
		mp, _ := args[0].AsMap()
		if err := mp.Set(args[1], args[2]); err != nil {
			return fail(vm, "%s", err.Error())
		}
		return ret(args, args[2])
	})

	bind(v, m, "addCore_(_,_)", func(vm values.VM, args []values.Value) bool {
		mp, _ := args[0].AsMap()
		if err := mp.Set(args[1], args[2]); err != nil {
			return fail(vm, "%s", err.Error())
		}
		return ret(args, args[0])
	})

	bind(v, m, "remove(_)", func(vm values.VM, args []values.Value) bool {
		mp, _ := args[0].AsMap()
		return ret(args, mp.Remove(args[1]))
	})

	bind(v, m, "clear()", func(vm values.VM, args []values.Value) bool {
		mp, _ := args[0].AsMap()
		mp.Clear()
		return ret(args, values.Null())
	})

	bind(v, m, "containsKey(_)", func(vm values.VM, args []values.Value) bool {
		mp, _ := args[0].AsMap()
		return retBool(args, mp.ContainsKey(args[1]))
	})

	bind(v, m, "count", func(vm values.VM, args []values.Value) bool {
		mp, _ := args[0].AsMap()
		return retNum(args, float64(mp.Count))
	})

	// keys/values/iterate(_) (SPEC_FULL.md supplemented feature): the
	// iterator is the raw slot index into Entries, skipping empty/tombstone
	// slots, exactly like original_source/object/obj_map.c's map iterator.
	bind(v, m, "iterate(_)", func(vm values.VM, args []values.Value) bool {
		mp, _ := args[0].AsMap()
		start := 0
		if !args[1].IsNull() {
			if !args[1].IsNumber() {
				return fail(vm, "iterator must be a number")
			}
			start = int(args[1].Num) + 1
		}
		for i := start; i < mp.Capacity; i++ {
			if !mp.Entries[i].Key.IsUndefined() {
				return retNum(args, float64(i))
			}
		}
		return retBool(args, false)
	})

	bind(v, m, "iteratorValue(_)", func(vm values.VM, args []values.Value) bool {
		mp, _ := args[0].AsMap()
		idx := int(args[1].Num)
		if idx < 0 || idx >= mp.Capacity || mp.Entries[idx].Key.IsUndefined() {
			return fail(vm, "iterator value out of range")
		}
		return ret(args, mp.Entries[idx].Key)
	})

	bind(v, m, "keys", func(vm values.VM, args []values.Value) bool {
		mp, _ := args[0].AsMap()
		var out []values.Value
		for i := 0; i < mp.Capacity; i++ {
			if !mp.Entries[i].Key.IsUndefined() {
				out = append(out, mp.Entries[i].Key)
			}
		}
		return ret(args, vm.NewList(out))
	})

	bind(v, m, "values", func(vm values.VM, args []values.Value) bool {
		mp, _ := args[0].AsMap()
		var out []values.Value
		for i := 0; i < mp.Capacity; i++ {
			if !mp.Entries[i].Key.IsUndefined() {
				out = append(out, mp.Entries[i].Value)
			}
		}
		return ret(args, vm.NewList(out))
	})
}
