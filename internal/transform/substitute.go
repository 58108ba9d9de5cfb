// Package transform turns variable mappings into file contents.
package transform

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strings"
	"unicode"
)

// DefaultSeparator joins name and value for bare ${name} tokens.
const DefaultSeparator = "="

var tokenPattern = regexp.MustCompile(`\$\{([A-Za-z0-9_.-]+)\}`)

// Token modifiers.
const (
	suffixVal      = ".val"
	suffixUnescape = ".unescape"
	suffixName     = ".name"
	suffixEnv      = ".env"
)

// Substitute replaces every ${...} token in s using vars.
//
//	${name}              name<sep>value
//	${name.val}          value
//	${name.val.unescape} value, never quoted
//	${name.name}         name
//	${name.env}          environment variable name
//
// Values containing whitespace are single-quoted unless unescaped.
// Each distinct token is resolved once.
func Substitute(s string, vars map[string]any, separator string) (string, error) {
	if !strings.Contains(s, "${") {
		return s, nil
	}
	matches := tokenPattern.FindAllStringSubmatch(s, -1)
	if len(matches) == 0 {
		return s, nil
	}

	replacements := make(map[string]string, len(matches))
	for _, m := range matches {
		if _, ok := replacements[m[0]]; ok {
			continue
		}
		r, err := resolveToken(m[1], vars, separator)
		if err != nil {
			return "", err
		}
		replacements[m[0]] = r
	}

	return tokenPattern.ReplaceAllStringFunc(s, func(tok string) string {
		return replacements[tok]
	}), nil
}

func resolveToken(token string, vars map[string]any, separator string) (string, error) {
	if base, ok := strings.CutSuffix(token, suffixVal+suffixUnescape); ok {
		v, found := vars[base]
		if !found {
			return "", &VariableNotFoundError{Name: base}
		}
		return FormatValue(v), nil
	}
	if base, ok := strings.CutSuffix(token, suffixVal); ok {
		v, found := vars[base]
		if !found {
			return "", &VariableNotFoundError{Name: base}
		}
		return quote(FormatValue(v)), nil
	}

	if base, ok := strings.CutSuffix(token, suffixName); ok {
		if _, found := vars[base]; found {
			return base, nil
		}
	}
	if base, ok := strings.CutSuffix(token, suffixEnv); ok {
		if v, found := os.LookupEnv(base); found {
			return v, nil
		}
	}

	v, ok := vars[token]
	if !ok {
		return "", &VariableNotFoundError{Name: token}
	}
	return token + separator + quote(FormatValue(v)), nil
}

// FormatValue renders a variable value as text. Structured values are
// JSON encoded and nil is empty.
func FormatValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case fmt.Stringer:
		return t.String()
	case map[string]any, []any:
		data, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(data)
	default:
		return fmt.Sprint(t)
	}
}

func quote(s string) string {
	if strings.IndexFunc(s, unicode.IsSpace) >= 0 {
		return "'" + s + "'"
	}
	return s
}
