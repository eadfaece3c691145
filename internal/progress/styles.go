package progress

import (
	"fmt"
	"io"
	"math"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"
)

const (
	colorPrimary   = "#ccbeff"
	colorSecondary = "#4a3e76"
	colorSubtle    = "#cac4cf"
	colorSuccess   = "#a6e3a1"
)

// Styles colours the reporter lines. The renderer is bound to the tracker's
// writer, so non-terminal writers get plain text.
type Styles struct {
	complete   lipgloss.Style
	inProgress lipgloss.Style
	skipped    lipgloss.Style
}

func NewStyles(w io.Writer) Styles {
	r := lipgloss.NewRenderer(w)
	return Styles{
		complete:   r.NewStyle().Foreground(lipgloss.Color(colorSuccess)),
		inProgress: r.NewStyle().Foreground(lipgloss.Color(colorPrimary)).Bold(true),
		skipped:    r.NewStyle().Foreground(lipgloss.Color(colorSubtle)),
	}
}

func (s Styles) Complete(message string) string {
	return s.complete.Render(message + " (Complete)")
}

func (s Styles) InProgress(message string) string {
	return s.inProgress.Render(message + " (In Progress)")
}

func (s Styles) Skipped(message string) string {
	return s.skipped.Render(message)
}

// RenderGradientBar draws the same fraction as RenderBar using the bubbles
// progress component.
func RenderGradientBar(current, total, length int) string {
	_, percent := fraction(current, total, length)
	ratio := 0.0
	if total > 0 {
		ratio = math.Min(1, math.Max(0, float64(current)/float64(total)))
	}

	bar := progress.New(
		progress.WithGradient(colorSecondary, colorPrimary),
		progress.WithWidth(length),
		progress.WithoutPercentage(),
	)
	return fmt.Sprintf("[%s] %d%% Complete", bar.ViewAs(ratio), percent)
}

// ClearScreen clears the terminal behind w and homes the cursor.
func ClearScreen(w io.Writer) {
	termenv.NewOutput(w).ClearScreen()
}

// IsTerminal reports whether w is attached to a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(interface{ Fd() uintptr })
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
