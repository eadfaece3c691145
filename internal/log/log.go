package log

import (
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/adrg/xdg"
	"github.com/charmbracelet/lipgloss"
	cblog "github.com/charmbracelet/log"
)

// Logger embeds the Charm Logger
type Logger struct{ *cblog.Logger }

var (
	logger     *Logger
	initLogger sync.Once
)

func levelStyles() *cblog.Styles {
	styles := cblog.DefaultStyles()
	styles.Levels[cblog.FatalLevel] = lipgloss.NewStyle().
		SetString(" FATAL").
		Foreground(lipgloss.Color("1"))
	styles.Levels[cblog.ErrorLevel] = lipgloss.NewStyle().
		SetString(" ERROR").
		Foreground(lipgloss.Color("9"))
	styles.Levels[cblog.WarnLevel] = lipgloss.NewStyle().
		SetString("  WARN").
		Foreground(lipgloss.Color("3"))
	styles.Levels[cblog.InfoLevel] = lipgloss.NewStyle().
		SetString("  INFO").
		Foreground(lipgloss.Color("2"))
	styles.Levels[cblog.DebugLevel] = lipgloss.NewStyle().
		SetString(" DEBUG").
		Foreground(lipgloss.Color("4"))
	return styles
}

// getLogger returns the shared logger, creating it on first use.
func getLogger() *Logger {
	initLogger.Do(func() {
		base := cblog.New(os.Stderr)
		base.SetStyles(levelStyles())
		base.SetReportTimestamp(false)
		base.SetLevel(cblog.InfoLevel)
		base.SetPrefix(" ddt")

		logger = &Logger{base}
	})
	return logger
}

// Configure routes log output for an install run. Outside debug mode the
// terminal belongs to the progress display, so entries only go to file.
func Configure(debug bool, file io.Writer) {
	l := getLogger()

	var writers []io.Writer
	if debug {
		writers = append(writers, os.Stderr)
	}
	if file != nil {
		writers = append(writers, file)
	}

	switch len(writers) {
	case 0:
		l.SetOutput(io.Discard)
	case 1:
		l.SetOutput(writers[0])
	default:
		l.SetOutput(io.MultiWriter(writers...))
	}

	l.SetStyles(levelStyles())
	l.SetReportTimestamp(file != nil)
	l.SetLevel(cblog.DebugLevel)
}

// OpenLogFile opens the per-user install log under the XDG state directory.
func OpenLogFile() (*os.File, string, error) {
	path, err := xdg.StateFile(filepath.Join("ddtinstall", "install.log"))
	if err != nil {
		return nil, "", err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, path, err
	}
	return f, path, nil
}

func Debug(msg interface{}, keyvals ...interface{}) { getLogger().Logger.Debug(msg, keyvals...) }
func Info(msg interface{}, keyvals ...interface{})  { getLogger().Logger.Info(msg, keyvals...) }
func Warn(msg interface{}, keyvals ...interface{})  { getLogger().Logger.Warn(msg, keyvals...) }
func Error(msg interface{}, keyvals ...interface{}) { getLogger().Logger.Error(msg, keyvals...) }
