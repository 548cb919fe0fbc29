// Package routerlog provides the terse stderr diagnostics shared by every
// hook and CLI command. Hooks never fail the host on a warning; this is the
// single place that writes user-visible diagnostic text.
package routerlog

import (
	"fmt"
	"io"
	"os"
)

// Writer is the destination for diagnostics. Defaults to os.Stderr;
// overridden in tests.
var Writer io.Writer = os.Stderr

// Warnf writes a one-line warning, prefixed for grep-ability.
func Warnf(format string, args ...any) {
	fmt.Fprintf(Writer, "router: warning: "+format+"\n", args...)
}

// Infof writes a one-line informational message.
func Infof(format string, args ...any) {
	fmt.Fprintf(Writer, "router: "+format+"\n", args...)
}

// Errorf writes a one-line error message, for callers that may still exit
// non-zero; hooks must not call this path for their own faults.
func Errorf(format string, args ...any) {
	fmt.Fprintf(Writer, "router: error: "+format+"\n", args...)
}
