// Command weighttracker records body-weight measurements and serves them over
// HTTP.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"weighttracker/internal/domain"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	root := newRootCmd(stdin)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return exitCode(err)
	}
	return exitSuccess
}

// sysError marks failures of the environment rather than of the request.
type sysError struct{ err error }

func (e sysError) Error() string { return e.err.Error() }
func (e sysError) Unwrap() error { return e.err }

// exitCode maps storage and environment failures to exitSysError and
// everything else (bad arguments, validation, missing records) to exitUserError.
func exitCode(err error) int {
	var se sysError
	if errors.As(err, &se) || errors.Is(err, domain.ErrStorage) {
		return exitSysError
	}
	return exitUserError
}
