package transform

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/brendtumi/feasible/internal/config"
)

// Structured serializes the fields of typed content. JSON and YAML omit
// fields whose source variable is undefined. Env content is synthesized as
// a template and substituted, so an undefined variable is an error there.
func Structured(typed *config.TypedContent, vars map[string]any) (string, error) {
	switch typed.Type {
	case config.ContentJSON:
		return structuredJSON(typed.Fields, vars)
	case config.ContentYAML:
		return structuredYAML(typed.Fields, vars)
	case config.ContentEnv:
		return structuredEnv(typed.Fields, vars)
	}
	return "", fmt.Errorf("unsupported content type %q", typed.Type)
}

func structuredJSON(fields []config.Field, vars map[string]any) (string, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	written := make(map[string]int)
	var entries [][2]string
	for _, f := range fields {
		v, ok := vars[f.Source]
		if !ok {
			continue
		}
		key, err := marshalJSON(f.Key)
		if err != nil {
			return "", err
		}
		val, err := marshalJSON(v)
		if err != nil {
			return "", fmt.Errorf("field %q: %w", f.Key, err)
		}
		// A repeated key keeps its first position and its last value.
		if i, dup := written[f.Key]; dup {
			entries[i][1] = val
			continue
		}
		written[f.Key] = len(entries)
		entries = append(entries, [2]string{key, val})
	}
	for i, e := range entries {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteString(e[0])
		buf.WriteByte(':')
		buf.WriteString(e[1])
	}
	buf.WriteByte('}')
	return buf.String(), nil
}

func marshalJSON(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

func structuredYAML(fields []config.Field, vars map[string]any) (string, error) {
	doc := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	index := make(map[string]int)
	for _, f := range fields {
		v, ok := vars[f.Source]
		if !ok {
			continue
		}
		val := &yaml.Node{}
		if err := val.Encode(v); err != nil {
			return "", fmt.Errorf("field %q: %w", f.Key, err)
		}
		if i, dup := index[f.Key]; dup {
			doc.Content[i+1] = val
			continue
		}
		index[f.Key] = len(doc.Content)
		key := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: f.Key}
		doc.Content = append(doc.Content, key, val)
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return "", err
	}
	if err := enc.Close(); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func structuredEnv(fields []config.Field, vars map[string]any) (string, error) {
	lines := make([]string, len(fields))
	for i, f := range fields {
		if f.Key == f.Source {
			lines[i] = "${" + f.Source + "}"
		} else {
			lines[i] = f.Key + "=${" + f.Source + suffixVal + "}"
		}
	}
	return Substitute(strings.Join(lines, "\n"), vars, DefaultSeparator)
}
