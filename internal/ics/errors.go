package ics

import (
	"errors"
	"fmt"
)

// ErrEmptyFeed is the cause of a ParseError for an empty payload.
var ErrEmptyFeed = errors.New("empty file")

// ErrNoEvents is the cause of a ParseError when every VEVENT was dropped.
var ErrNoEvents = errors.New("no valid events found")

// ParseError means the feed yielded zero usable events. It is fatal to the
// current load; any previously loaded feed should be kept by the caller.
type ParseError struct {
	Source string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Source == "" {
		return fmt.Sprintf("parse calendar: %v", e.Err)
	}
	return fmt.Sprintf("parse calendar %s: %v", redactURL(e.Source), e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// FetchError means a remote feed could not be acquired, neither directly
// nor through the relay proxy.
type FetchError struct {
	URL      string
	Direct   error
	Fallback error // nil when no proxy is configured
}

func (e *FetchError) Error() string {
	msg := fmt.Sprintf("fetch %s: %v", e.URL, e.Direct)
	if e.Fallback != nil {
		msg += fmt.Sprintf("; via proxy: %v", e.Fallback)
	}
	return msg
}

func (e *FetchError) Unwrap() []error {
	errs := []error{e.Direct}
	if e.Fallback != nil {
		errs = append(errs, e.Fallback)
	}
	return errs
}

// Hint is a user-actionable message for the CLI.
func (e *FetchError) Hint() string {
	return "could not download the calendar; check the URL and your internet connection"
}
