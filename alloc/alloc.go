// Package alloc defines the seam between the compiler and the VM's object
// allocator. The compiler needs to build ObjString constants and ObjFn
// compile units without importing the vm package (which itself imports the
// compiler to implement module loading), so both depend on this interface
// instead of on each other.
package alloc

import "github.com/wudi/loom/values"

// Allocator is implemented by vm.VM.
type Allocator interface {
	// NewStringValue interns or allocates a string constant.
	NewStringValue(s string) values.Value
	// NewFn allocates a fresh, empty function object owned by module.
	NewFn(module *values.ObjModule) *values.ObjFn
}
