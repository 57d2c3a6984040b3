package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/jeanpaul/studentmodel/internal/model"
)

const (
	exitGeneric        = 1
	exitUsage          = 2
	exitNotInitialized = 3
	exitCorrupt        = 4
)

// usageError marks bad command-line input so it maps to exitUsage.
type usageError struct{ err error }

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

func usagef(format string, args ...any) error {
	return &usageError{err: fmt.Errorf(format, args...)}
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	root := newRootCmd(stdout, stderr)
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		fatal(stderr, err)
		return exitCode(err)
	}
	return 0
}

func exitCode(err error) int {
	var uerr *usageError
	switch {
	case errors.Is(err, model.ErrNotInitialized):
		return exitNotInitialized
	case errors.Is(err, model.ErrCorruptState):
		return exitCorrupt
	case errors.As(err, &uerr), errors.Is(err, model.ErrValidation):
		return exitUsage
	}
	return exitGeneric
}

func fatal(w io.Writer, err error) {
	msg := err.Error()
	switch {
	case errors.Is(err, model.ErrNotInitialized):
		msg += "\nrun 'student init' to create it"
	case errors.Is(err, model.ErrCorruptState):
		msg += "\nneither the data file nor its backup could be read; inspect them by hand"
	}
	fmt.Fprintln(w, "error: "+msg)
}
