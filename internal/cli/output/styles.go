package output

import (
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Styles holds the lipgloss styles used by commands.
type Styles struct {
	Header1       lipgloss.Style
	Header2       lipgloss.Style
	Bold          lipgloss.Style
	Muted         lipgloss.Style
	Error         lipgloss.Style
	Warning       lipgloss.Style
	Info          lipgloss.Style
	Success       lipgloss.Style
	FilePath      lipgloss.Style
	Code          lipgloss.Style
	StatusSuccess lipgloss.Style
	StatusFailed  lipgloss.Style
}

// NewStyles builds styles bound to w. Without color every style renders its
// input unchanged, as do all styles when NO_COLOR is set.
func NewStyles(w io.Writer, color bool) *Styles {
	lr := lipgloss.NewRenderer(w)
	if !color || termenv.EnvNoColor() {
		lr.SetColorProfile(termenv.Ascii)
	}

	return &Styles{
		Header1:       lr.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		Header2:       lr.NewStyle().Bold(true).Underline(true),
		Bold:          lr.NewStyle().Bold(true),
		Muted:         lr.NewStyle().Foreground(lipgloss.Color("8")),
		Error:         lr.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
		Warning:       lr.NewStyle().Foreground(lipgloss.Color("11")),
		Info:          lr.NewStyle().Foreground(lipgloss.Color("14")),
		Success:       lr.NewStyle().Foreground(lipgloss.Color("10")),
		FilePath:      lr.NewStyle().Bold(true).Foreground(lipgloss.Color("13")),
		Code:          lr.NewStyle().Foreground(lipgloss.Color("7")),
		StatusSuccess: lr.NewStyle().Foreground(lipgloss.Color("10")).Bold(true),
		StatusFailed:  lr.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
	}
}
