package values

// VM is the subset of VM behavior a native method body may invoke. It plays
// the role that an opaque VM pointer plays in a C implementation: native
// methods never reach into VM internals directly, only through this
// interface, so this package stays free of a dependency on the vm package.
type VM interface {
	// Allocation.
	NewString(s string) Value
	NewStringBytes(b []byte) Value
	NewList(elems []Value) Value
	NewMap() Value
	NewRange(from, to float64) Value

	// Errors. RuntimeError sets the current fiber's error slot; the native
	// must return false immediately afterward.
	RuntimeError(format string, args ...interface{})

	// ClassOf returns the class of any value, including primitives.
	ClassOf(v Value) *ObjClass

	// Modules.
	ImportModule(name string) bool
	ModuleVariable(moduleName, varName string) (Value, bool)

	// System natives.
	Clock() float64
	CollectGarbage()
	WriteString(s string)

	// Fibers.
	CurrentThread() *ObjThread
	NewThread(closure *ObjClosure) *ObjThread
	SwitchToThread(next *ObjThread, arg Value, hasArg bool) bool
	SuspendFiber()
	YieldFiber(val Value, hasVal bool) bool
	AbortFiber(t *ObjThread, errVal Value)
}
