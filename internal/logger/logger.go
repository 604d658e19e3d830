package logger

import (
	"fmt"
	"io"
	"os"
	"time"
)

type Level int

const (
	INFO Level = iota
	WARN
	ERROR
	DEBUG
)

var (
	// ANSI colors
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorGray   = "\033[90m"
	colorCyan   = "\033[36m"

	// Output writer (defaults to stdout)
	out io.Writer = os.Stdout
)

// Init sets up the logger
func Init() {
	// Check if NO_COLOR env var is set
	if os.Getenv("NO_COLOR") != "" {
		DisableColors()
	}
}

func DisableColors() {
	colorReset = ""
	colorRed = ""
	colorGreen = ""
	colorYellow = ""
	colorGray = ""
	colorCyan = ""
}

// SetOutput redirects log output (used by tests)
func SetOutput(w io.Writer) {
	out = w
}

func log(level Level, component string, format string, args ...interface{}) {
	now := time.Now().Format("15:04:05")
	msg := fmt.Sprintf(format, args...)

	var levelStr string
	var color string

	switch level {
	case INFO:
		levelStr = "INFO"
		color = colorGreen
	case WARN:
		levelStr = "WARN"
		color = colorYellow
	case ERROR:
		levelStr = "ERROR"
		color = colorRed
	case DEBUG:
		levelStr = "DEBUG"
		color = colorGray
	}

	fmt.Fprintf(out, "%s[%s]%s %s[%s]%s %s[%s]%s: %s\n",
		colorGray, now, colorReset,
		color, levelStr, colorReset,
		colorCyan, component, colorReset,
		msg,
	)
}

func Info(component string, format string, args ...interface{}) {
	log(INFO, component, format, args...)
}

func Warn(component string, format string, args ...interface{}) {
	log(WARN, component, format, args...)
}

func Error(component string, format string, args ...interface{}) {
	log(ERROR, component, format, args...)
}

func Debug(component string, format string, args ...interface{}) {
	log(DEBUG, component, format, args...)
}

// Promptf writes operator-facing prompt text without level/timestamp
// decoration so it reads as a plain question on the terminal.
func Promptf(format string, args ...interface{}) {
	fmt.Fprintf(out, format, args...)
}
