package ui

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// Banner printed at the top of interactive runs
const Banner = `
  ┌─┐┬┬─┐┌─┐┌┬┐┌─┐┌─┐┌─┐
  ├┤ │├┬┘├┤ │││├─┤├─┘└─┐
  └  ┴┴└─└─┘┴ ┴┴ ┴┴  └─┘  species catalog builder
`

// Color functions for terminal output
var (
	Cyan    = colorize("\033[36m%s\033[0m")
	Yellow  = colorize("\033[33m%s\033[0m")
	Red     = colorize("\033[31m%s\033[0m")
	Green   = colorize("\033[32m%s\033[0m")
	Magenta = colorize("\033[35m%s\033[0m")
	Dim     = colorize("\033[2m%s\033[0m")
)

var (
	mu    sync.Mutex
	out   io.Writer = os.Stdout
	quiet bool
)

// SetOutput redirects everything this package prints
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	out = w
}

// Output returns the writer used for terminal output
func Output() io.Writer {
	mu.Lock()
	defer mu.Unlock()
	return out
}

// SetQuietMode suppresses informational output. Errors still print.
func SetQuietMode(q bool) {
	mu.Lock()
	defer mu.Unlock()
	quiet = q
}

func IsQuietMode() bool {
	mu.Lock()
	defer mu.Unlock()
	return quiet
}

func colorize(colorString string) func(string) string {
	return func(text string) string {
		return fmt.Sprintf(colorString, text)
	}
}

func emit(msg string, always bool) {
	if !always && IsQuietMode() {
		return
	}
	fmt.Fprintln(Output(), msg)
}

func PrintBanner() {
	if IsQuietMode() {
		return
	}
	fmt.Fprint(Output(), Cyan(Banner))
}

// PrintError prints an error message in red
func PrintError(msg string, args ...interface{}) {
	if len(args) > 0 {
		emit(Red(msg+": "+fmt.Sprintf("%v", args[0])), true)
	} else {
		emit(Red(msg), true)
	}
}

// PrintSuccess prints a success message in green
func PrintSuccess(msg string) {
	emit(Green(msg), false)
}

// PrintInfo prints a labelled value
func PrintInfo(label string, value string) {
	emit(fmt.Sprintf("%s: %s", Cyan(label), Yellow(value)), false)
}

// PrintWarning prints a warning message in yellow
func PrintWarning(msg string, args ...interface{}) {
	if len(args) > 0 {
		emit(Yellow(msg+": "+fmt.Sprintf("%v", args[0])), false)
	} else {
		emit(Yellow(msg), false)
	}
}

// PrintHighlight prints a highlighted message in magenta
func PrintHighlight(msg string) {
	emit(Magenta(msg), false)
}

// PrintPlain prints msg without decoration, even in quiet mode
func PrintPlain(msg string) {
	emit(msg, true)
}
