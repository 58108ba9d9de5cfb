package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// HTTPFetcher downloads configuration documents over HTTP(S).
type HTTPFetcher struct {
	Client  HTTPClient
	MaxSize int64         // max document size in bytes (0 = no limit)
	Timeout time.Duration // fetch timeout (0 = no extra timeout beyond context)
}

// Fetch returns the body of a successful GET on rawURL.
func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	if f.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.Timeout)
		defer cancel()
	}

	client := f.Client
	if client == nil {
		client = DefaultHTTPClient{}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &FetchError{URL: rawURL, Err: fmt.Errorf("creating request: %w", err)}
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, &FetchError{URL: rawURL, Err: err, Hint: "check network connectivity and URL"}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &FetchError{
			URL:  rawURL,
			Err:  fmt.Errorf("HTTP %d", resp.StatusCode),
			Hint: "check that the URL is accessible and returns the configuration",
		}
	}

	var reader io.Reader = resp.Body
	if f.MaxSize > 0 {
		reader = io.LimitReader(resp.Body, f.MaxSize+1)
	}

	content, err := io.ReadAll(reader)
	if err != nil {
		return nil, &FetchError{URL: rawURL, Err: fmt.Errorf("reading response: %w", err)}
	}

	if f.MaxSize > 0 && int64(len(content)) > f.MaxSize {
		return nil, &FetchError{URL: rawURL, Err: fmt.Errorf("document exceeds max size %d bytes", f.MaxSize)}
	}

	return content, nil
}
