package core

import (
	"math"
	"strconv"
	"strings"

	"github.com/wudi/loom/values"
	"github.com/wudi/loom/vm"
)

// numArg extracts a Number argument, failing the call with the standard
// type-mismatch error (spec.md section 7) otherwise.
func numArg(v values.VM, args []values.Value, i int) (float64, bool) {
	if !args[i].IsNumber() {
		fail(v, "argument %d must be a Num, got %s", i, args[i].String())
		return 0, false
	}
	return args[i].Num, true
}

func bindNum(v *vm.VM) {
	num := v.Class("Num")

	bindStatic(v, num, "pi", func(vm values.VM, args []values.Value) bool {
		return retNum(args, math.Pi)
	})
	bindStatic(v, num, "fromString(_)", func(vm values.VM, args []values.Value) bool {
		s, ok := args[1].AsString()
		if !ok {
			return fail(vm, "argument must be a String")
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(string(s.Bytes)), 64)
		if err != nil {
			return ret(args, values.Null())
		}
		return retNum(args, f)
	})

	binop := func(sig string, f func(a, b float64) float64) {
		bind(v, num, sig, func(vm values.VM, args []values.Value) bool {
			a, ok := numArg(vm, args, 0)
			if !ok {
				return false
			}
			b, ok := numArg(vm, args, 1)
			if !ok {
				return false
			}
			return retNum(args, f(a, b))
		})
	}
	cmpop := func(sig string, f func(a, b float64) bool) {
		bind(v, num, sig, func(vm values.VM, args []values.Value) bool {
			a, ok := numArg(vm, args, 0)
			if !ok {
				return false
			}
			b, ok := numArg(vm, args, 1)
			if !ok {
				return false
			}
			return retBool(args, f(a, b))
		})
	}

	binop("+(_)", func(a, b float64) float64 { return a + b })
	binop("-(_)", func(a, b float64) float64 { return a - b })
	binop("*(_)", func(a, b float64) float64 { return a * b })
	binop("/(_)", func(a, b float64) float64 { return a / b })
	binop("%(_)", math.Mod)
	binop("&(_)", func(a, b float64) float64 { return float64(int64(a) & int64(b)) })
	binop("|(_)", func(a, b float64) float64 { return float64(int64(a) | int64(b)) })
	binop(">>(_)", func(a, b float64) float64 { return float64(int64(a) >> (uint(int64(b)) & 63)) })
	binop("<<(_)", func(a, b float64) float64 { return float64(int64(a) << (uint(int64(b)) & 63)) })

	cmpop(">(_)", func(a, b float64) bool { return a > b })
	cmpop(">=(_)", func(a, b float64) bool { return a >= b })
	cmpop("<(_)", func(a, b float64) bool { return a < b })
	cmpop("<=(_)", func(a, b float64) bool { return a <= b })

	bind(v, num, "==(_)", func(vm values.VM, args []values.Value) bool {
		return retBool(args, values.Equal(args[0], args[1]))
	})
	bind(v, num, "!=(_)", func(vm values.VM, args []values.Value) bool {
		return retBool(args, !values.Equal(args[0], args[1]))
	})

	bind(v, num, "..(_)", func(vm values.VM, args []values.Value) bool {
		b, ok := numArg(vm, args, 1)
		if !ok {
			return false
		}
		return ret(args, vm.NewRange(args[0].Num, b))
	})

	bind(v, num, "-()", func(vm values.VM, args []values.Value) bool {
		return retNum(args, -args[0].Num)
	})
	bind(v, num, "~()", func(vm values.VM, args []values.Value) bool {
		return retNum(args, float64(^int64(args[0].Num)))
	})

	unary := func(name string, f func(float64) float64) {
		bind(v, num, name, func(vm values.VM, args []values.Value) bool {
			return retNum(args, f(args[0].Num))
		})
	}
	unary("abs", math.Abs)
	unary("acos", math.Acos)
	unary("asin", math.Asin)
	unary("atan", math.Atan)
	unary("ceil", math.Ceil)
	unary("cos", math.Cos)
	unary("floor", math.Floor)
	unary("sin", math.Sin)
	unary("sqrt", math.Sqrt)
	unary("tan", math.Tan)
	unary("truncate", math.Trunc)
	unary("fraction", func(f float64) float64 { _, frac := math.Modf(f); return frac })

	bind(v, num, "isInfinity", func(vm values.VM, args []values.Value) bool {
		return retBool(args, math.IsInf(args[0].Num, 0))
	})
	bind(v, num, "isInteger", func(vm values.VM, args []values.Value) bool {
		f := args[0].Num
		return retBool(args, !math.IsInf(f, 0) && !math.IsNaN(f) && f == math.Trunc(f))
	})
	bind(v, num, "isNan", func(vm values.VM, args []values.Value) bool {
		return retBool(args, math.IsNaN(args[0].Num))
	})
	bind(v, num, "toString", func(vm values.VM, args []values.Value) bool {
		return ret(args, vm.NewString(args[0].String()))
	})
}
