package cli

import (
	"errors"
	"fmt"

	"icsweek/internal/ics"
	"icsweek/internal/model"
	"icsweek/internal/pipeline"
	"icsweek/internal/theme"
)

// Process exit codes.
const (
	ExitOK      = 0
	ExitGeneric = 1
	ExitUsage   = 2
	ExitParse   = 3
	ExitFetch   = 4
)

type AppError struct {
	Code    int
	Err     error
	Printed bool
}

func (e AppError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit code %d", e.Code)
	}
	return e.Err.Error()
}

func (e AppError) Unwrap() error { return e.Err }

func Wrap(code int, err error) error {
	if err == nil {
		return nil
	}
	return AppError{Code: code, Err: err}
}

func WrapPrinted(code int, err error) error {
	if err == nil {
		return nil
	}
	return AppError{Code: code, Err: err, Printed: true}
}

// ExitCode returns the code carried by an AppError, otherwise it
// classifies err by its cause.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var e AppError
	if errors.As(err, &e) {
		return e.Code
	}
	return classify(err)
}

func classify(err error) int {
	var (
		fetchErr *ics.FetchError
		parseErr *ics.ParseError
	)
	switch {
	case errors.As(err, &fetchErr):
		return ExitFetch
	case errors.As(err, &parseErr):
		return ExitParse
	case errors.Is(err, model.ErrInvalidWindow),
		errors.Is(err, model.ErrInvalidHours),
		errors.Is(err, theme.ErrUnknown),
		errors.Is(err, pipeline.ErrUnknownFormat):
		return ExitUsage
	default:
		return ExitGeneric
	}
}
