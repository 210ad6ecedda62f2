package main

import (
	"errors"
	"io"

	jsoniter "github.com/json-iterator/go"

	"library-catalog/library"
)

// Exit codes for CLI commands.
const (
	exitSuccess  = 0 // Successful execution
	exitRejected = 1 // The library rejected an operation
	exitUsage    = 2 // Bad flags, configuration or seed file
)

// exitError carries a specific exit code.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

// exitCode maps an error to the process exit code. Errors from the library
// itself mean an operation was rejected; anything else unclassified is a
// usage problem.
func exitCode(err error) int {
	if err == nil {
		return exitSuccess
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	if library.ErrorCodeOf(err) != "" {
		return exitRejected
	}
	return exitUsage
}

// writeJSON encodes v as indented JSON.
func writeJSON(w io.Writer, v any) error {
	enc := jsoniter.ConfigCompatibleWithStandardLibrary.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
