package config

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/yosuke-furukawa/json5/encoding/json5"
	"gopkg.in/yaml.v3"
)

// Format identifies a configuration document encoding.
type Format string

const (
	FormatJSON  Format = "json"
	FormatJSON5 Format = "json5"
	FormatYAML  Format = "yaml"
)

// Fetcher retrieves a remote configuration document.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) ([]byte, error)
}

// LoadOptions selects where the configuration comes from.
// URL takes precedence over Pattern.
type LoadOptions struct {
	Pattern string
	URL     string
	Fetcher Fetcher
}

// Loaded is a parsed, validated configuration with its identity.
type Loaded struct {
	Config *Config
	// Source is the matched file path or the URL.
	Source string
	// Fingerprint is the hex SHA-256 of the canonical JSON document.
	Fingerprint string
	// Document is the generic JSON-compatible form of the configuration.
	Document any
}

// Load locates, reads, parses and validates a configuration document.
func Load(ctx context.Context, opts LoadOptions) (*Loaded, error) {
	if opts.URL != "" {
		return loadRemote(ctx, opts)
	}

	pattern := opts.Pattern
	if pattern == "" {
		pattern = DefaultPattern
	}
	path, err := Discover(pattern)
	if err != nil {
		return nil, err
	}
	return LoadFile(path)
}

// LoadFile reads and parses the configuration at path.
func LoadFile(path string) (*Loaded, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ParseError{Source: path, Err: err}
	}
	return Parse(path, format, data)
}

func loadRemote(ctx context.Context, opts LoadOptions) (*Loaded, error) {
	u, err := url.Parse(opts.URL)
	if err != nil {
		return nil, &ParseError{Source: opts.URL, Err: err}
	}
	format, err := FormatOf(u.Path)
	if err != nil {
		return nil, &UnsupportedFormatError{Path: opts.URL}
	}
	if opts.Fetcher == nil {
		return nil, &ParseError{Source: opts.URL, Err: fmt.Errorf("no fetcher configured")}
	}
	data, err := opts.Fetcher.Fetch(ctx, opts.URL)
	if err != nil {
		return nil, &ParseError{Source: opts.URL, Err: err}
	}
	return Parse(opts.URL, format, data)
}

// FormatOf derives the document format from a file extension.
func FormatOf(p string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path.Clean(p))) {
	case ".json":
		return FormatJSON, nil
	case ".json5":
		return FormatJSON5, nil
	case ".yml", ".yaml":
		return FormatYAML, nil
	}
	return "", &UnsupportedFormatError{Path: p}
}

// Parse decodes data in the given format, computes the fingerprint and
// validates the result. source is only used for identity and messages.
func Parse(source string, format Format, data []byte) (*Loaded, error) {
	doc, ordered, err := decodeGeneric(format, data)
	if err != nil {
		return nil, &ParseError{Source: source, Err: err}
	}
	if doc == nil {
		return nil, &ParseError{Source: source, Err: fmt.Errorf("empty document")}
	}

	canonical, err := json.Marshal(doc)
	if err != nil {
		return nil, &ParseError{Source: source, Err: fmt.Errorf("document is not JSON compatible: %w", err)}
	}

	var normalized any
	if err := json.Unmarshal(canonical, &normalized); err != nil {
		return nil, &ParseError{Source: source, Err: err}
	}
	if _, ok := normalized.(map[string]any); !ok {
		return nil, &ParseError{Source: source, Err: fmt.Errorf("top level must be an object")}
	}
	if errs := ValidateDocument(normalized); len(errs) > 0 {
		return nil, &ValidationError{Source: source, Errors: errs}
	}

	// JSON5 has no ordered decoder; its keys arrive sorted via the canonical form.
	if ordered == nil {
		ordered = canonical
	}
	var cfg Config
	if err := yaml.Unmarshal(ordered, &cfg); err != nil {
		return nil, &ParseError{Source: source, Err: err}
	}
	if errs := Validate(&cfg); len(errs) > 0 {
		return nil, &ValidationError{Source: source, Errors: errs}
	}

	sum := sha256.Sum256(canonical)
	return &Loaded{
		Config:      &cfg,
		Source:      source,
		Fingerprint: hex.EncodeToString(sum[:]),
		Document:    normalized,
	}, nil
}

// decodeGeneric returns the generic document plus, for formats yaml.v3 can
// read directly, the bytes to decode the ordered Config from.
func decodeGeneric(format Format, data []byte) (any, []byte, error) {
	var doc any
	switch format {
	case FormatJSON:
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, nil, err
		}
		return doc, data, nil
	case FormatJSON5:
		if err := json5.Unmarshal(data, &doc); err != nil {
			return nil, nil, err
		}
		return doc, nil, nil
	case FormatYAML:
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, nil, err
		}
		return doc, data, nil
	}
	return nil, nil, fmt.Errorf("unknown format %q", format)
}
