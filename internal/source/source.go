// Package source retrieves remote inputs: configuration documents over HTTP
// and project repositories over git.
package source

import (
	"fmt"
	"net/http"
)

// HTTPClient abstracts HTTP operations for testing.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// DefaultHTTPClient returns an HTTPClient using http.DefaultClient.
type DefaultHTTPClient struct{}

func (DefaultHTTPClient) Do(req *http.Request) (*http.Response, error) {
	return http.DefaultClient.Do(req)
}

// FetchError reports a failed remote configuration download.
type FetchError struct {
	URL  string
	Err  error
	Hint string
}

func (e *FetchError) Error() string {
	msg := fmt.Sprintf("fetching %s: %s", e.URL, e.Err)
	if e.Hint != "" {
		msg += " (" + e.Hint + ")"
	}
	return msg
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// CloneError reports a failed repository clone.
type CloneError struct {
	URL    string
	Target string
	Err    error
	Output string
}

func (e *CloneError) Error() string {
	msg := fmt.Sprintf("cloning %s into %s: %s", e.URL, e.Target, e.Err)
	if e.Output != "" {
		msg += ": " + e.Output
	}
	return msg
}

func (e *CloneError) Unwrap() error {
	return e.Err
}
