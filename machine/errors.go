package machine

import (
	"strings"

	"github.com/mastercactapus/grblstream/machine/grbl"
)

// ErrorRecorder collects controller errors, typically while the program
// is checked in simulation mode.
type ErrorRecorder struct {
	errors []string
}

// Add records msg as the response to in.
func (r *ErrorRecorder) Add(in grbl.Instruction, msg string) {
	r.errors = append(r.errors, in.StringWithLine()+"    "+msg)
}

func (r *ErrorRecorder) Count() int { return len(r.errors) }

// Errors returns the recorded errors, oldest first.
func (r *ErrorRecorder) Errors() []string { return append([]string(nil), r.errors...) }

// Summary returns all errors, one per line.
func (r *ErrorRecorder) Summary() string { return strings.Join(r.errors, "\n") }

func (r *ErrorRecorder) Clear() { r.errors = nil }
