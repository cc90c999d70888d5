package core

import (
	"strings"
	"unicode/utf8"

	"github.com/wudi/loom/values"
	"github.com/wudi/loom/vm"
)

// normalizeIndex resolves a possibly-negative Loom index against length,
// wrapping from the end the way List's [_] does (spec.md section 4.10).
func normalizeIndex(idx, length int) (int, bool) {
	if idx < 0 {
		idx += length
	}
	if idx < 0 || idx >= length {
		return 0, false
	}
	return idx, true
}

func bindString(v *vm.VM) {
	str := v.Class("String")

	bindStatic(v, str, "fromCodePoint(_)", func(vm values.VM, args []values.Value) bool {
		n, ok := numArg(vm, args, 1)
		if !ok {
			return false
		}
		return ret(args, vm.NewString(string(rune(int(n)))))
	})

	bind(v, str, "+(_)", func(vm values.VM, args []values.Value) bool {
		a, _ := args[0].AsString()
		b, ok := args[1].AsString()
		if !ok {
			return fail(vm, "can only concatenate String to String")
		}
		return ret(args, vm.NewStringBytes(append(append([]byte{}, a.Bytes...), b.Bytes...)))
	})

	bind(v, str, "[_]", func(vm values.VM, args []values.Value) bool {
		s, _ := args[0].AsString()
		runes := []rune(string(s.Bytes))
		if r, ok := args[1].AsRange(); ok {
			lo, hi, step := rangeBounds(r, len(runes))
			var b strings.Builder
			for i := lo; ; i += step {
				if i < 0 || i >= len(runes) {
					break
				}
				b.WriteRune(runes[i])
				if i == hi {
					break
				}
			}
			return ret(args, vm.NewString(b.String()))
		}
		n, ok := numArg(vm, args, 1)
		if !ok {
			return false
		}
		idx, ok := normalizeIndex(int(n), len(runes))
		if !ok {
			return fail(vm, "string index out of range")
		}
		return ret(args, vm.NewString(string(runes[idx])))
	})

	bind(v, str, "byteCount_", func(vm values.VM, args []values.Value) bool {
		s, _ := args[0].AsString()
		return retNum(args, float64(len(s.Bytes)))
	})
	bind(v, str, "byteAt_(_)", func(vm values.VM, args []values.Value) bool {
		s, _ := args[0].AsString()
		n, ok := numArg(vm, args, 1)
		if !ok {
			return false
		}
		idx, ok := normalizeIndex(int(n), len(s.Bytes))
		if !ok {
			return fail(vm, "byte index out of range")
		}
		return retNum(args, float64(s.Bytes[idx]))
	})
	bind(v, str, "codePointAt_(_)", func(vm values.VM, args []values.Value) bool {
		s, _ := args[0].AsString()
		n, ok := numArg(vm, args, 1)
		if !ok {
			return false
		}
		idx, ok := normalizeIndex(int(n), len(s.Bytes))
		if !ok {
			return fail(vm, "byte index out of range")
		}
		r, _ := utf8.DecodeRune(s.Bytes[idx:])
		return retNum(args, float64(r))
	})

	bind(v, str, "contains(_)", func(vm values.VM, args []values.Value) bool {
		s, _ := args[0].AsString()
		sub, ok := args[1].AsString()
		if !ok {
			return fail(vm, "argument must be a String")
		}
		return retBool(args, strings.Contains(string(s.Bytes), string(sub.Bytes)))
	})
	bind(v, str, "indexOf(_)", func(vm values.VM, args []values.Value) bool {
		s, _ := args[0].AsString()
		sub, ok := args[1].AsString()
		if !ok {
			return fail(vm, "argument must be a String")
		}
		return retNum(args, float64(strings.Index(string(s.Bytes), string(sub.Bytes))))
	})
	bind(v, str, "startsWith(_)", func(vm values.VM, args []values.Value) bool {
		s, _ := args[0].AsString()
		sub, ok := args[1].AsString()
		if !ok {
			return fail(vm, "argument must be a String")
		}
		return retBool(args, strings.HasPrefix(string(s.Bytes), string(sub.Bytes)))
	})
	bind(v, str, "endsWith(_)", func(vm values.VM, args []values.Value) bool {
		s, _ := args[0].AsString()
		sub, ok := args[1].AsString()
		if !ok {
			return fail(vm, "argument must be a String")
		}
		return retBool(args, strings.HasSuffix(string(s.Bytes), string(sub.Bytes)))
	})

	bind(v, str, "count", func(vm values.VM, args []values.Value) bool {
		s, _ := args[0].AsString()
		return retNum(args, float64(utf8.RuneCount(s.Bytes)))
	})
	bind(v, str, "toString", func(vm values.VM, args []values.Value) bool {
		return ret(args, args[0])
	})
	bind(v, str, "==(_)", func(vm values.VM, args []values.Value) bool {
		return retBool(args, values.Equal(args[0], args[1]))
	})
	bind(v, str, "!=(_)", func(vm values.VM, args []values.Value) bool {
		return retBool(args, !values.Equal(args[0], args[1]))
	})

	bindSequence(v, str, "iterate(_)", "iteratorValue(_)", func(receiver values.Value) int {
		s, _ := receiver.AsString()
		return utf8.RuneCount(s.Bytes)
	}, func(vm values.VM, receiver values.Value, i int) values.Value {
		s, _ := receiver.AsString()
		r := []rune(string(s.Bytes))
		return vm.NewString(string(r[i]))
	})
}
