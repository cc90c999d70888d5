package vm_test

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wudi/loom/core"
	"github.com/wudi/loom/vm"
)

// mapLoader resolves System.importModule_(_) against an in-memory map, the
// test double vm.ModuleLoader's doc comment calls for.
type mapLoader map[string]string

func (m mapLoader) Load(name string) (string, error) {
	src, ok := m[name]
	if !ok {
		return "", fmt.Errorf("module %q not found", name)
	}
	return src, nil
}

func run(t *testing.T, loader vm.ModuleLoader, source string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	v := vm.New(loader, &out)
	require.NoError(t, core.Bootstrap(v))
	err := v.Execute("<test>", source)
	return out.String(), err
}

func runOK(t *testing.T, source string) string {
	t.Helper()
	out, err := run(t, nil, source)
	require.NoError(t, err)
	return out
}

func TestArithmeticAndPrint(t *testing.T) {
	tests := []struct {
		name     string
		code     string
		expected string
	}{
		{"add", `System.print(1 + 2)`, "3\n"},
		{"sub", `System.print(5 - 2)`, "3\n"},
		{"mul", `System.print(3 * 4)`, "12\n"},
		{"div", `System.print(10 / 4)`, "2.5\n"},
		{"mod", `System.print(10 % 3)`, "1\n"},
		{"precedence", `System.print(2 + 3 * 4)`, "14\n"},
		{"comparisons", `System.print(3 < 4)`, "true\n"},
		{"equality", `System.print(3 == 3.0)`, "true\n"},
		{"stringConcat", `System.print("a" + "b")`, "ab\n"},
		{"negate", `System.print(-5)`, "-5\n"},
		{"not", `System.print(!false)`, "true\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, runOK(t, tt.code))
		})
	}
}

func TestVariablesAndControlFlow(t *testing.T) {
	out := runOK(t, `
		var x = 0
		var i = 0
		while (i < 5) {
			x = x + i
			i = i + 1
		}
		System.print(x)
	`)
	require.Equal(t, "10\n", out)
}

func TestForLoopOverRange(t *testing.T) {
	out := runOK(t, `
		var sum = 0
		for (i in 1..3) {
			sum = sum + i
		}
		System.print(sum)
	`)
	require.Equal(t, "6\n", out)
}

func TestForLoopOverList(t *testing.T) {
	out := runOK(t, `
		var list = List.new()
		list.add("a")
		list.add("b")
		for (x in list) {
			System.print(x)
		}
	`)
	require.Equal(t, "a\nb\n", out)
}

func TestFunctionsAndClosures(t *testing.T) {
	out := runOK(t, `
		fun makeCounter() {
			var count = 0
			return Fn.new {
				count = count + 1
				return count
			}
		}
		var counter = makeCounter()
		System.print(counter.call())
		System.print(counter.call())
		System.print(counter.call())
	`)
	require.Equal(t, "1\n2\n3\n", out)
}

// Regression: closing a frame's open upvalues must close every captured
// local, not just the first one found on the thread's open-upvalue list.
func TestClosureCapturingMultipleLocalsSurvivesReturn(t *testing.T) {
	out := runOK(t, `
		fun make() {
			var x = 1
			var y = 2
			return Fn.new {
				return x + y
			}
		}
		var f = make()
		System.print(f.call())
	`)
	require.Equal(t, "3\n", out)
}

// Regression: a list/map/interpolation literal used as a call argument has
// a pending receiver (and possibly earlier arguments) already on the stack
// below it; the literal's addCore_ chain must not disturb them.
func TestCollectionLiteralAsCallArgument(t *testing.T) {
	out := runOK(t, `
		var name = "world"
		System.print("hello %(name)")
		System.print([1, 2, 3].count)
		System.print({"a": 1}.count)
	`)
	require.Equal(t, "hello world\n3\n1\n", out)
}

func TestClassesAndInheritance(t *testing.T) {
	out := runOK(t, `
		class Animal {
			var _name
			new(name) {
				_name = name
			}
			name { return _name }
			speak() { return _name + " makes a sound" }
		}
		class Dog is Animal {
			new(name) {
				super(name)
			}
			speak() { return super.speak() + ", specifically a bark" }
		}
		var d = Dog.new("Rex")
		System.print(d.speak())
		System.print(d.name)
	`)
	require.Equal(t, "Rex makes a sound, specifically a bark\nRex\n", out)
}

func TestStringInterpolation(t *testing.T) {
	out := runOK(t, `
		var name = "world"
		var n = 42
		System.print("hello %(name), the answer is %(n)")
	`)
	require.Equal(t, "hello world, the answer is 42\n", out)
}

func TestListAndMapNativeMethods(t *testing.T) {
	out := runOK(t, `
		var list = List.new()
		list.add(1)
		list.add(2)
		System.print(list.count)
		System.print(list[0])

		var map = Map.new()
		map["a"] = 1
		map["b"] = 2
		System.print(map.count)
		System.print(map["a"])
		System.print(map.containsKey("z"))
	`)
	require.Equal(t, "2\n1\n2\n1\nfalse\n", out)
}

func TestFibersYieldAndResume(t *testing.T) {
	out := runOK(t, `
		var fiber = Thread.new {
			System.print("start")
			var received = Thread.yield(1)
			System.print(received)
		}
		System.print(fiber.call())
		fiber.call("resumed")
	`)
	require.Equal(t, "start\n1\nresumed\n", out)
}

func TestRuntimeErrorAbortsFiberButNotProcess(t *testing.T) {
	_, err := run(t, nil, `
		var list = List.new()
		System.print(list[5])
	`)
	require.Error(t, err)
}

func TestModuleImport(t *testing.T) {
	loader := mapLoader{
		"greeter": `
			class Greeter {
				static hello() { return "hi" }
			}
		`,
	}
	out, err := run(t, loader, `
		import "greeter" for Greeter
		System.print(Greeter.hello())
	`)
	require.NoError(t, err)
	require.Equal(t, "hi\n", out)
}
