package token

import "fmt"

// Synthetic buffer names used for predefined and command-line macros.
const (
	BuiltinFile     = "<built-in>"
	CommandLineFile = "<command line>"
)

// Position represents a location in the source code.
type Position struct {
	File   string // file path, or one of the synthetic buffer names
	Line   int    // 1-based line number
	Column int    // 1-based column number
	Offset int    // 0-based byte offset
}

// IsValid returns true if the position is valid (line > 0).
func (p Position) IsValid() bool {
	return p.Line > 0
}

// IsBuiltin reports whether the position lies in the predefined-macro buffer.
func (p Position) IsBuiltin() bool {
	return p.File == BuiltinFile
}

// IsCommandLine reports whether the position lies in the command-line buffer.
func (p Position) IsCommandLine() bool {
	return p.File == CommandLineFile
}

// String formats the position as file:line:column.
func (p Position) String() string {
	if !p.IsValid() {
		if p.File != "" {
			return p.File
		}
		return "-"
	}
	return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Column)
}

// Span represents a range in source code.
type Span struct {
	Start Position
	End   Position
}

// Contains returns true if the span contains the given offset.
func (s Span) Contains(offset int) bool {
	return offset >= s.Start.Offset && offset < s.End.Offset
}

// IsValid returns true if both start and end positions are valid.
func (s Span) IsValid() bool {
	return s.Start.IsValid() && s.End.IsValid()
}
