package resolve

import (
	"context"
	"fmt"
	"maps"
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"

	"github.com/brendtumi/feasible/internal/config"
	"github.com/brendtumi/feasible/internal/logging"
	"github.com/brendtumi/feasible/internal/prompt"
	"github.com/brendtumi/feasible/internal/shell"
	"github.com/brendtumi/feasible/internal/transform"
)

// Override is a key=value pair given on the command line.
type Override struct {
	Key   string
	Value string
}

// ParseOverride splits "key=value". The value may contain '='.
func ParseOverride(s string) (Override, error) {
	key, value, ok := strings.Cut(s, "=")
	key = strings.TrimSpace(key)
	if !ok || key == "" {
		return Override{}, fmt.Errorf("invalid override %q (expected key=value)", s)
	}
	return Override{Key: key, Value: value}, nil
}

// ApplyOverrides sets every override on answers, replacing prior values.
func ApplyOverrides(answers map[string]any, overrides []Override) {
	for _, o := range overrides {
		answers[o.Key] = o.Value
	}
}

// Pipeline resolves variables and computed defaults.
type Pipeline struct {
	Prompter  prompt.Prompter
	Runner    shell.Runner
	Separator string
	Log       logrus.FieldLogger
	// NewID generates values for random variables (default: UUID v4).
	NewID func() string
}

// Prompt asks for every declared variable.
func (p *Pipeline) Prompt(ctx context.Context, vars config.Variables, values ValueSource) (map[string]any, error) {
	answers, err := p.Prompter.Ask(ctx, Questions(vars, values, p.NewID))
	if err != nil {
		return nil, err
	}
	return answers, nil
}

// MissingDefaults returns the defaults not already present in answers.
func MissingDefaults(defaults config.Defaults, answers map[string]any) config.Defaults {
	var missing config.Defaults
	for _, d := range defaults {
		if _, ok := answers[d.Name]; !ok {
			missing = append(missing, d)
		}
	}
	return missing
}

// ResolveDefaults computes defaults in declaration order and returns answers
// merged with them. Each computed command sees the answers and every default
// resolved before it.
func (p *Pipeline) ResolveDefaults(ctx context.Context, defaults config.Defaults, answers map[string]any) (map[string]any, error) {
	vars := maps.Clone(answers)
	if vars == nil {
		vars = map[string]any{}
	}
	for _, d := range defaults {
		if d.Computed == nil {
			vars[d.Name] = d.Value
			continue
		}
		v, err := p.compute(ctx, d.Name, d.Computed, vars)
		if err != nil {
			return nil, err
		}
		vars[d.Name] = v
		logging.Success(p.log(), fmt.Sprintf("%q resolved to: %s", d.Name, transform.FormatValue(v)))
	}
	return vars, nil
}

func (p *Pipeline) compute(ctx context.Context, name string, c *config.ComputedDefault, vars map[string]any) (any, error) {
	sep := p.Separator
	if sep == "" {
		sep = transform.DefaultSeparator
	}
	command, err := transform.Substitute(c.Command, vars, sep)
	if err != nil {
		return nil, fmt.Errorf("default %q: %w", name, err)
	}

	res, err := p.Runner.Run(ctx, command)
	if err != nil {
		return nil, fmt.Errorf("default %q: %w", name, err)
	}

	var text string
	if res.Stderr != "" {
		p.log().Errorf("Resolve variable %q: %s", name, strings.TrimSpace(res.Stderr))
		text = strings.TrimSpace(res.Stderr)
	} else {
		p.log().Infof("Resolving variable %q", name)
		text = strings.TrimSpace(res.Stdout)
	}

	if c.Output == "json" {
		if !gjson.Valid(text) {
			return nil, fmt.Errorf("default %q: command output is not valid JSON: %q", name, text)
		}
		if c.Query == "" {
			return gjson.Parse(text).Value(), nil
		}
		return p.query(name, text, c.Query), nil
	}
	if c.Query != "" {
		// A text result has no nested fields.
		p.log().Warnf("Query %q on %q: text output has no fields", c.Query, name)
		return nil, nil
	}
	return text, nil
}

func (p *Pipeline) query(name, doc, path string) any {
	r := gjson.Get(doc, QueryPath(path))
	if !r.Exists() {
		p.log().Warnf("Query %q on %q matched nothing", path, name)
		return nil
	}
	return r.Value()
}

var indexPattern = regexp.MustCompile(`\[\s*(?:(\d+)|"([^"]*)"|'([^']*)')\s*\]`)

// QueryPath converts a dotted path with bracket indexes, such as
// `items[0].name`, into a gjson path.
func QueryPath(path string) string {
	path = indexPattern.ReplaceAllStringFunc(path, func(m string) string {
		sub := indexPattern.FindStringSubmatch(m)
		for _, s := range sub[1:] {
			if s != "" {
				return "." + escapeKey(s)
			}
		}
		return "."
	})
	return strings.TrimPrefix(path, ".")
}

func escapeKey(k string) string {
	var b strings.Builder
	for _, r := range k {
		switch r {
		case '.', '*', '?', '|', '#', '@', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (p *Pipeline) log() logrus.FieldLogger {
	if p.Log == nil {
		return logging.Discard()
	}
	return p.Log
}
