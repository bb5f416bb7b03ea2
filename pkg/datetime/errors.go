package datetime

import (
	"errors"
	"fmt"
)

var (
	// ErrUnparsableDate is returned when no supported grammar accepts a date string.
	ErrUnparsableDate = errors.New("unparsable date")
	// ErrUnknownPattern is returned when a format pattern has an unrecognized token.
	ErrUnknownPattern = errors.New("unknown format pattern token")
)

// ParseError reports a date string that could not be normalized.
type ParseError struct {
	Input string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("Unable to parse date: %s", e.Input)
}

func (e *ParseError) Unwrap() error { return ErrUnparsableDate }

// FormatError reports an unrecognized token in a format pattern.
type FormatError struct {
	Pattern string
	Token   string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("unknown token %q in format pattern %q", e.Token, e.Pattern)
}

func (e *FormatError) Unwrap() error { return ErrUnknownPattern }
