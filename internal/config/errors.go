package config

import (
	"fmt"
	"strings"
)

// NotFoundError reports that no file matched the configuration pattern.
type NotFoundError struct {
	Pattern string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("config file not found: %q", e.Pattern)
}

// UnsupportedFormatError reports an unknown configuration extension.
type UnsupportedFormatError struct {
	Path string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported file format %q", e.Path)
}

// ParseError reports unreadable or malformed configuration content.
type ParseError struct {
	Source string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error on %q: %s", e.Source, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ValidationError holds multiple validation failures.
type ValidationError struct {
	Source string
	Errors []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation failed for %q:\n  - %s", e.Source, strings.Join(e.Errors, "\n  - "))
}
