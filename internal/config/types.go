package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Config represents a parsed feasible configuration document.
// Variables, Defaults and Files keep their declaration order.
type Config struct {
	Variables  Variables   `yaml:"variables,omitempty"`
	Defaults   Defaults    `yaml:"defaults,omitempty"`
	Actions    Actions     `yaml:"actions,omitempty"`
	Files      Files       `yaml:"files,omitempty"`
	Repository *Repository `yaml:"repository,omitempty"`
}

// Variable declares a value collected from the user.
type Variable struct {
	Name     string   `yaml:"-" json:"-"`
	Question string   `yaml:"question,omitempty" json:"question,omitempty"`
	Type     string   `yaml:"type,omitempty" json:"type,omitempty"`
	Options  []string `yaml:"options,omitempty" json:"options,omitempty"`
	Initial  any      `yaml:"initial,omitempty" json:"initial,omitempty"`
}

// Variables is the ordered list of declared variables.
type Variables []Variable

// Names returns the declared variable names in order.
func (v Variables) Names() []string {
	names := make([]string, len(v))
	for i, d := range v {
		names[i] = d.Name
	}
	return names
}

func (v *Variables) UnmarshalYAML(node *yaml.Node) error {
	return forEachPair(node, "variables", func(name string, value *yaml.Node) error {
		def := Variable{}
		if !isNull(value) {
			if value.Kind != yaml.MappingNode {
				return fmt.Errorf("line %d: variable %q must be a mapping", value.Line, name)
			}
			if err := value.Decode(&def); err != nil {
				return fmt.Errorf("variable %q: %w", name, err)
			}
		}
		def.Name = name
		*v = append(*v, def)
		return nil
	})
}

// ComputedDefault derives a value by running a shell command.
type ComputedDefault struct {
	Type    string `yaml:"type" json:"type"`
	Command string `yaml:"command" json:"command"`
	Output  string `yaml:"output,omitempty" json:"output,omitempty"` // "", "text" or "json"
	Query   string `yaml:"query,omitempty" json:"query,omitempty"`
}

// Default is either a static value or a computed default.
type Default struct {
	Name     string
	Value    any
	Computed *ComputedDefault
}

// Defaults is the ordered list of declared defaults.
type Defaults []Default

func (d *Defaults) UnmarshalYAML(node *yaml.Node) error {
	return forEachPair(node, "defaults", func(name string, value *yaml.Node) error {
		def := Default{Name: name}
		if value.Kind == yaml.MappingNode && scalarValue(lookup(value, "type")) == "bash" {
			var c ComputedDefault
			if err := value.Decode(&c); err != nil {
				return fmt.Errorf("default %q: %w", name, err)
			}
			def.Computed = &c
		} else if err := value.Decode(&def.Value); err != nil {
			return fmt.Errorf("default %q: %w", name, err)
		}
		*d = append(*d, def)
		return nil
	})
}

// Commands is the list of shell commands of one hook. A single string is
// accepted as a one-element list.
type Commands []string

func (c *Commands) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		if isNull(node) {
			*c = nil
			return nil
		}
		*c = Commands{node.Value}
		return nil
	case yaml.SequenceNode:
		var list []string
		if err := node.Decode(&list); err != nil {
			return err
		}
		*c = list
		return nil
	}
	return fmt.Errorf("line %d: hook commands must be a string or a list of strings", node.Line)
}

// Actions maps hook names to their commands.
type Actions map[string]Commands

// Repository is cloned on the first run.
type Repository struct {
	URL    string `yaml:"url" json:"url"`
	Target string `yaml:"target" json:"target"`
}

// ContentType selects the serialization of typed content.
type ContentType string

const (
	ContentJSON ContentType = "json"
	ContentYAML ContentType = "yaml"
	ContentEnv  ContentType = "env"
)

// Field projects variable Source into output key Key.
type Field struct {
	Key    string
	Source string
}

// TypedContent serializes a subset of the variables.
type TypedContent struct {
	Type   ContentType
	Fields []Field
}

// Content is a plain template or, when Typed is set, typed content.
type Content struct {
	Template string
	Typed    *TypedContent
}

// Conditional gates content on an expression.
type Conditional struct {
	Condition string
	Success   Content
	Fail      *Content
}

// DescriptorKind tags the FileDescriptor variant.
type DescriptorKind int

const (
	KindUnrecognized DescriptorKind = iota
	KindPlain
	KindTyped
	KindConditional
)

func (k DescriptorKind) String() string {
	switch k {
	case KindPlain:
		return "plain"
	case KindTyped:
		return "typed"
	case KindConditional:
		return "conditional"
	default:
		return "unrecognized"
	}
}

// FileDescriptor describes how one output file is produced.
type FileDescriptor struct {
	Kind        DescriptorKind
	Content     Content      // KindPlain, KindTyped
	Conditional *Conditional // KindConditional
	Reason      string       // KindUnrecognized
}

// FileEntry pairs an output path with its descriptor.
type FileEntry struct {
	Path       string
	Descriptor FileDescriptor
}

// Files is the ordered list of output files.
type Files []FileEntry

func (f *Files) UnmarshalYAML(node *yaml.Node) error {
	return forEachPair(node, "files", func(path string, value *yaml.Node) error {
		*f = append(*f, FileEntry{Path: path, Descriptor: decodeDescriptor(value)})
		return nil
	})
}

func decodeDescriptor(node *yaml.Node) FileDescriptor {
	if node.Kind == yaml.MappingNode && lookup(node, "condition") != nil {
		return decodeConditional(node)
	}
	content, reason := decodeContent(node)
	if reason != "" {
		return FileDescriptor{Kind: KindUnrecognized, Reason: reason}
	}
	if content.Typed != nil {
		return FileDescriptor{Kind: KindTyped, Content: content}
	}
	return FileDescriptor{Kind: KindPlain, Content: content}
}

func decodeConditional(node *yaml.Node) FileDescriptor {
	cond := &Conditional{Condition: scalarValue(lookup(node, "condition"))}
	if cond.Condition == "" {
		return FileDescriptor{Kind: KindUnrecognized, Reason: "empty condition"}
	}

	success := lookup(node, "content")
	if success == nil {
		success = lookup(node, "success")
	}
	if success == nil {
		return FileDescriptor{Kind: KindUnrecognized, Reason: "condition without content or success"}
	}
	var reason string
	if cond.Success, reason = decodeContent(success); reason != "" {
		return FileDescriptor{Kind: KindUnrecognized, Reason: "success branch: " + reason}
	}

	if fail := lookup(node, "fail"); fail != nil {
		content, reason := decodeContent(fail)
		if reason != "" {
			return FileDescriptor{Kind: KindUnrecognized, Reason: "fail branch: " + reason}
		}
		cond.Fail = &content
	}
	return FileDescriptor{Kind: KindConditional, Conditional: cond}
}

// decodeContent returns a non-empty reason when node is neither a string nor
// typed content.
func decodeContent(node *yaml.Node) (Content, string) {
	switch node.Kind {
	case yaml.ScalarNode:
		if node.ShortTag() != "!!str" {
			return Content{}, fmt.Sprintf("unsupported %s value", node.ShortTag())
		}
		return Content{Template: node.Value}, ""
	case yaml.MappingNode:
		typ := lookup(node, "type")
		vars := lookup(node, "variables")
		if typ == nil || vars == nil {
			return Content{}, "object without type and variables"
		}
		typed := &TypedContent{Type: ContentType(scalarValue(typ))}
		switch typed.Type {
		case ContentJSON, ContentYAML, ContentEnv:
		default:
			return Content{}, fmt.Sprintf("unsupported content type %q", typed.Type)
		}
		if vars.Kind != yaml.SequenceNode {
			return Content{}, "variables must be a list"
		}
		for _, item := range vars.Content {
			field, ok := decodeField(item)
			if !ok {
				return Content{}, fmt.Sprintf("line %d: invalid variable entry", item.Line)
			}
			typed.Fields = append(typed.Fields, field)
		}
		return Content{Typed: typed}, ""
	}
	return Content{}, "unsupported value"
}

func decodeField(node *yaml.Node) (Field, bool) {
	switch node.Kind {
	case yaml.ScalarNode:
		return Field{Key: node.Value, Source: node.Value}, node.Value != ""
	case yaml.SequenceNode:
		if len(node.Content) != 2 {
			return Field{}, false
		}
		key, src := node.Content[0], node.Content[1]
		if key.Kind != yaml.ScalarNode || src.Kind != yaml.ScalarNode {
			return Field{}, false
		}
		return Field{Key: key.Value, Source: src.Value}, true
	}
	return Field{}, false
}

func forEachPair(node *yaml.Node, section string, fn func(key string, value *yaml.Node) error) error {
	if isNull(node) {
		return nil
	}
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: %s must be a mapping", node.Line, section)
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i]
		if key.Kind != yaml.ScalarNode {
			return fmt.Errorf("line %d: %s keys must be strings", key.Line, section)
		}
		if err := fn(key.Value, node.Content[i+1]); err != nil {
			return err
		}
	}
	return nil
}

// lookup returns the value node for key in a mapping node, or nil.
func lookup(node *yaml.Node, key string) *yaml.Node {
	if node == nil || node.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == key {
			return node.Content[i+1]
		}
	}
	return nil
}

func scalarValue(node *yaml.Node) string {
	if node == nil || node.Kind != yaml.ScalarNode {
		return ""
	}
	return node.Value
}

func isNull(node *yaml.Node) bool {
	return node == nil || (node.Kind == yaml.ScalarNode && node.ShortTag() == "!!null")
}
