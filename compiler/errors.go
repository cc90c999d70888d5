package compiler

import "fmt"

// CompileError carries the source location of a failed compile, matching
// spec.md section 7 ("message carries the source location").
type CompileError struct {
	File    string
	Line    int
	Message string
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("%s:%d: %s", e.File, e.Line, e.Message)
}
