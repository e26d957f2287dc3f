package diagnostics

import (
	"fmt"

	"github.com/sester-lang/sester/internal/token"
)

// Warning is a non-fatal finding. Warnings never abort elaboration and are
// printed after a successful run.
type Warning interface {
	Code() string
	Message() string
	Span() token.Range
}

// UnusedVariable reports a let binding that is never referenced.
type UnusedVariable struct {
	Loc
	Name string
}

func (w *UnusedVariable) Code() string { return "unused-variable" }
func (w *UnusedVariable) Message() string {
	return fmt.Sprintf("'%s' is bound but never used", w.Name)
}
