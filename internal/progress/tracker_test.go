package progress

import (
	"bytes"
	"io"
	"strconv"
	"strings"
	"testing"

	"github.com/Hardhat-Enterprises/ddtinstall/internal/errdefs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderBar(t *testing.T) {
	tests := []struct {
		name    string
		current int
		total   int
		filled  int
		percent int
	}{
		{name: "start", current: 0, total: 13, filled: 0, percent: 0},
		{name: "end", current: 13, total: 13, filled: 50, percent: 100},
		{name: "rounds down", current: 6, total: 13, filled: 23, percent: 46},
		{name: "zero total", current: 0, total: 0, filled: 0, percent: 0},
		{name: "clamped", current: 20, total: 13, filled: 50, percent: 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bar := RenderBar(tt.current, tt.total, DefaultBarLength)
			want := "[" + strings.Repeat("=", tt.filled) + strings.Repeat("-", DefaultBarLength-tt.filled) + "]"
			assert.True(t, strings.HasPrefix(bar, want), bar)
			assert.True(t, strings.HasSuffix(bar, "] "+strconv.Itoa(tt.percent)+"% Complete"), bar)
		})
	}
}

func TestTrackerRender(t *testing.T) {
	var out bytes.Buffer
	clears := 0
	tr := NewTracker(&out, 2, WithClearFunc(func(io.Writer) { clears++ }))

	tr.Render("Downloading")
	assert.Equal(t,
		"Start Install Tool (Complete)\n"+
			"Downloading (In Progress)\n"+
			"["+strings.Repeat("-", 50)+"] 0% Complete\n",
		out.String())
	assert.Equal(t, "Downloading", tr.LastMessage())
	require.NoError(t, tr.Advance())

	out.Reset()
	tr.Render("Installing")
	assert.Equal(t,
		"Downloading (Complete)\n"+
			"Installing (In Progress)\n"+
			"["+strings.Repeat("=", 25)+strings.Repeat("-", 25)+"] 50% Complete\n",
		out.String())
	require.NoError(t, tr.Advance())

	out.Reset()
	tr.Render("ignored")
	assert.Equal(t, "\r\033[KInstalling (Complete)\n", out.String())
	assert.Equal(t, "Installing", tr.LastMessage())
	assert.Equal(t, 2, clears, "terminal render must not clear")
}

func TestTrackerDebugSkipsClear(t *testing.T) {
	clears := 0
	tr := NewTracker(io.Discard, 3, WithDebug(true), WithClearFunc(func(io.Writer) { clears++ }))

	tr.Render("one")
	tr.Render("two")
	assert.Zero(t, clears)
	assert.True(t, tr.Debug())
}

func TestTrackerNonTerminalDoesNotClear(t *testing.T) {
	var out bytes.Buffer
	tr := NewTracker(&out, 1)
	tr.Render("step")
	assert.NotContains(t, out.String(), "\033[2J")
}

func TestTrackerAdvanceOverflow(t *testing.T) {
	tr := NewTracker(io.Discard, 1)
	require.NoError(t, tr.Advance())

	err := tr.Advance()
	require.Error(t, err)
	assert.True(t, errdefs.IsType(err, errdefs.ErrTypeStepOverflow))
	assert.Equal(t, 1, tr.Current())
}

func TestTrackerSkip(t *testing.T) {
	var out bytes.Buffer
	tr := NewTracker(&out, 3)

	require.NoError(t, tr.Skip(2, "Rust is already installed."))
	assert.Equal(t, 2, tr.Current())
	assert.Equal(t, "Rust is already installed.\n", out.String())

	err := tr.Skip(2, "")
	assert.True(t, errdefs.IsType(err, errdefs.ErrTypeStepOverflow))
	assert.Equal(t, 3, tr.Current())
}

func TestTrackerComplete(t *testing.T) {
	t.Run("requires all steps", func(t *testing.T) {
		tr := NewTracker(io.Discard, 2)
		require.NoError(t, tr.Advance())

		err := tr.Complete()
		assert.True(t, errdefs.IsType(err, errdefs.ErrTypeStepMismatch))
	})

	t.Run("renders only the last step", func(t *testing.T) {
		var out bytes.Buffer
		tr := NewTracker(&out, 1)
		tr.Render("Starting")
		require.NoError(t, tr.Advance())
		out.Reset()

		require.NoError(t, tr.Complete())
		assert.Equal(t, "\r\033[KStarting (Complete)\n", out.String())
	})
}

func TestRenderBarNegativeLength(t *testing.T) {
	assert.NotPanics(t, func() {
		assert.Equal(t, "[] 46% Complete", RenderBar(6, 13, -5))
	})
	assert.Equal(t, "[] 0% Complete", RenderBar(0, 0, -1))
}

func TestGradientBarKeepsText(t *testing.T) {
	bar := RenderGradientBar(6, 13, DefaultBarLength)
	assert.True(t, strings.HasPrefix(bar, "["))
	assert.True(t, strings.HasSuffix(bar, "] 46% Complete"))
}

func TestNegativeTotal(t *testing.T) {
	tr := NewTracker(nil, -4)
	assert.Equal(t, 0, tr.Total())
	assert.NotPanics(t, func() { tr.Render("x") })
}
