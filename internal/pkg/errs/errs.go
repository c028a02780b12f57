// Package errs wraps infrastructure failures with stack traces.
package errs

import (
	"fmt"
	"strings"

	cr "github.com/cockroachdb/errors"
)

// Markers for infrastructure failures. Compare with errors.Is.
var (
	ErrDatabase   = cr.New("database operation failed")
	ErrMaxRetries = cr.New("transaction failed after max retries")
)

func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return cr.Wrap(err, msg)
}

func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return cr.Wrapf(err, format, args...)
}

func Mark(err error, markErr error) error {
	if err == nil {
		return markErr
	}
	return cr.Mark(err, markErr)
}

// ExtractStackLines renders the first maxLines of the verbose error format.
func ExtractStackLines(err error, maxLines int) []string {
	if err == nil {
		return nil
	}
	s := fmt.Sprintf("%+v", err)
	lines := strings.Split(s, "\n")
	if maxLines > 0 && len(lines) > maxLines {
		lines = lines[:maxLines]
	}
	return lines
}
