package cpp

import (
	"errors"
	"fmt"

	"github.com/leapstack-labs/macrolint/pkg/token"
)

// ErrIncludeDepth is returned when #include nesting exceeds Config.MaxIncludeDepth.
var ErrIncludeDepth = errors.New("#include nested too deeply")

// Error is a lexing or preprocessing error at a source position.
type Error struct {
	Pos token.Position
	Msg string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Pos, e.Msg)
}

func errorf(pos token.Position, format string, args ...any) *Error {
	return &Error{Pos: pos, Msg: fmt.Sprintf(format, args...)}
}
