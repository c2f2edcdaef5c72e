package main

import (
	"fmt"
	"log"
	"os"

	"github.com/mattn/go-isatty"
)

// Logger is what the commands report problems through.
type Logger interface {
	// Warnf logs a warning message.
	Warnf(format string, args ...interface{})

	// Errorf logs an error message.
	Errorf(format string, args ...interface{})

	// Fatalf logs a fatal message and exits with os.Exit(1).
	Fatalf(format string, args ...interface{})
}

var logger Logger = logWrapper{Logger: log.New(os.Stderr, "", 0)}

// colored is decided once; stderr status lines follow stdout.
var colored = os.Getenv("NO_COLOR") == "" &&
	(isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd()))

const (
	colorReset  = "\x1b[0m"
	colorGreen  = "\x1b[1;32m"
	colorYellow = "\x1b[1;33m"
	colorRed    = "\x1b[1;31m"
)

func paint(color, s string) string {
	if !colored {
		return s
	}
	return color + s + colorReset
}

type logWrapper struct {
	Logger *log.Logger
}

func (l logWrapper) Warnf(format string, args ...interface{}) {
	l.Logger.Printf(paint(colorYellow, "warning")+": "+format, args...)
}

func (l logWrapper) Errorf(format string, args ...interface{}) {
	l.Logger.Printf(paint(colorRed, "error")+": "+format, args...)
}

func (l logWrapper) Fatalf(format string, args ...interface{}) {
	l.Logger.Fatalf(paint(colorRed, "error")+": "+format, args...)
}

// status prints a progress line with a right aligned verb, e.g.
//
//	  Unpacked [kernel] to [boot/kernel.img]
func status(verb, format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "%s %s\n", paint(colorGreen, fmt.Sprintf("%10s", verb)), fmt.Sprintf(format, args...))
}

func debugf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "[debug] "+format, args...)
}
