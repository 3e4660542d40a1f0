package core

import (
	"fmt"
	"io"
	"os"
	"runtime/debug"
	"sync/atomic"
)

// Finalizer restores the terminal; tcell.Screen satisfies it
type Finalizer interface {
	Fini()
}

type finalizerBox struct{ f Finalizer }

var crashScreen atomic.Pointer[finalizerBox]

// exit is swapped in tests
var exit = os.Exit

// RegisterCrashScreen sets the screen restored on crash, nil clears it
func RegisterCrashScreen(f Finalizer) {
	if f == nil {
		crashScreen.Store(nil)
		return
	}
	crashScreen.Store(&finalizerBox{f: f})
}

// EmergencyReset writes raw escape sequences to leave alt screen, show cursor, reset attributes
func EmergencyReset(w io.Writer) {
	fmt.Fprint(w, "\x1b[?1049l\x1b[?25h\x1b[0m\r\n")
}

// HandleCrash is the unified panic handler that resets the terminal and prints the stack trace
func HandleCrash(r any) {
	if r == nil {
		return
	}
	reportCrash(r, os.Stdout, os.Stderr)
	exit(1)
}

func reportCrash(r any, stdout, stderr io.Writer) {
	// Restore terminal to sane state immediately
	if box := crashScreen.Load(); box != nil {
		box.f.Fini()
	} else {
		EmergencyReset(stdout)
	}

	fmt.Fprintf(stderr, "\r\n\x1b[31mCRASH DETECTED: %v\x1b[0m\r\n", r)
	fmt.Fprintf(stderr, "Stack Trace:\r\n%s\r\n", debug.Stack())
}

// Go runs a function in a new goroutine with panic recovery.
// Use this instead of the 'go' keyword to ensure terminal cleanup on crash.
func Go(fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				HandleCrash(r)
			}
		}()
		fn()
	}()
}
