package progress

import (
	"fmt"
	"io"
	"strings"

	"github.com/Hardhat-Enterprises/ddtinstall/internal/errdefs"
)

const (
	// DefaultBarLength is the number of cells in the progress bar.
	DefaultBarLength = 50

	// InitialMessage is shown as the "completed" line before the first step.
	InitialMessage = "Start Install Tool"
)

type BarStyle string

const (
	BarStyleASCII    BarStyle = "ascii"
	BarStyleGradient BarStyle = "gradient"
)

// Tracker owns the step counter and the last rendered step message for a
// single install run. Callers must render steps in increasing order; the
// tracker does not reorder or correct its history.
type Tracker struct {
	out         io.Writer
	total       int
	current     int
	lastMessage string
	debug       bool
	barStyle    BarStyle
	barLength   int
	clear       func(io.Writer)
	styles      Styles
}

type Option func(*Tracker)

// WithDebug disables screen clearing between renders.
func WithDebug(debug bool) Option {
	return func(t *Tracker) { t.debug = debug }
}

func WithBarStyle(style BarStyle) Option {
	return func(t *Tracker) { t.barStyle = style }
}

// WithClearFunc replaces the screen clearing routine.
func WithClearFunc(fn func(io.Writer)) Option {
	return func(t *Tracker) { t.clear = fn }
}

func NewTracker(out io.Writer, total int, opts ...Option) *Tracker {
	if out == nil {
		out = io.Discard
	}
	if total < 0 {
		total = 0
	}
	t := &Tracker{
		out:         out,
		total:       total,
		lastMessage: InitialMessage,
		barStyle:    BarStyleASCII,
		barLength:   DefaultBarLength,
	}
	if IsTerminal(out) {
		t.clear = ClearScreen
	}
	for _, opt := range opts {
		opt(t)
	}
	t.styles = NewStyles(out)
	return t
}

func (t *Tracker) Current() int        { return t.current }
func (t *Tracker) Total() int          { return t.total }
func (t *Tracker) Debug() bool         { return t.debug }
func (t *Tracker) LastMessage() string { return t.lastMessage }

// Writer is the destination of all progress output.
func (t *Tracker) Writer() io.Writer { return t.out }

// Render draws the completed previous step, the step about to run and the
// bar. Once the counter has reached the total only the final completion line
// is written.
func (t *Tracker) Render(message string) {
	if t.current == t.total {
		fmt.Fprintf(t.out, "\r\033[K%s\n", t.styles.Complete(t.lastMessage))
		return
	}

	if !t.debug && t.clear != nil {
		t.clear(t.out)
	}

	var b strings.Builder
	b.WriteString(t.styles.Complete(t.lastMessage))
	b.WriteString("\n")
	t.lastMessage = message
	b.WriteString(t.styles.InProgress(message))
	b.WriteString("\n")
	b.WriteString(t.bar())
	b.WriteString("\n")
	io.WriteString(t.out, b.String())
}

// Advance moves the counter forward by one unit of work.
func (t *Tracker) Advance() error {
	if t.current >= t.total {
		return errdefs.NewCustomError(errdefs.ErrTypeStepOverflow,
			fmt.Sprintf("step %d exceeds the declared total of %d", t.current+1, t.total))
	}
	t.current++
	return nil
}

// Skip consumes n steps that turned out to have no work, printing message
// once in place of a render.
func (t *Tracker) Skip(n int, message string) error {
	if message != "" {
		fmt.Fprintln(t.out, t.styles.Skipped(message))
	}
	for i := 0; i < n; i++ {
		if err := t.Advance(); err != nil {
			return err
		}
	}
	return nil
}

// Complete renders the terminal state: the last step marked complete and
// nothing else. The counter must have reached the total.
func (t *Tracker) Complete() error {
	if t.current != t.total {
		return errdefs.NewCustomError(errdefs.ErrTypeStepMismatch,
			fmt.Sprintf("install finished at step %d of %d", t.current, t.total))
	}
	t.Render("")
	return nil
}

func (t *Tracker) bar() string {
	if t.barStyle == BarStyleGradient {
		return RenderGradientBar(t.current, t.total, t.barLength)
	}
	return RenderBar(t.current, t.total, t.barLength)
}

// RenderBar draws "[====----] N% Complete". The filled length and the
// percentage are both rounded down; a zero total renders an empty bar.
func RenderBar(current, total, length int) string {
	if length < 0 {
		length = 0
	}
	filled, percent := fraction(current, total, length)
	return fmt.Sprintf("[%s%s] %d%% Complete",
		strings.Repeat("=", filled),
		strings.Repeat("-", length-filled),
		percent)
}

func fraction(current, total, length int) (filled, percent int) {
	if total <= 0 {
		return 0, 0
	}
	if length < 0 {
		length = 0
	}
	if current < 0 {
		current = 0
	}
	if current > total {
		current = total
	}
	return length * current / total, 100 * current / total
}
