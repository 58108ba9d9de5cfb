package config

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/invopop/jsonschema"
	sjsonschema "github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const schemaID = "https://github.com/brendtumi/feasible/schemas/feasible.json"

// document mirrors the on-disk shape of a configuration for schema
// generation. Config itself is ordered and decoded by hand.
type document struct {
	Variables  map[string]variableSchema `json:"variables,omitempty"`
	Defaults   map[string]defaultSchema  `json:"defaults,omitempty"`
	Actions    map[string]Commands       `json:"actions,omitempty"`
	Files      map[string]FileDescriptor `json:"files,omitempty"`
	Repository *Repository               `json:"repository,omitempty"`
}

// VariableTypes lists the variable types with a dedicated prompt. Any other
// type is asked as plain input.
var VariableTypes = []string{"input", "string", "password", "number", "confirm", "boolean", "list", "base64", "random"}

type variableSchema struct{}

// JSONSchema accepts null or a question object.
func (variableSchema) JSONSchema() *jsonschema.Schema {
	kinds := make([]any, len(VariableTypes))
	for i, k := range VariableTypes {
		kinds[i] = k
	}
	props := jsonschema.NewProperties()
	props.Set("question", &jsonschema.Schema{Type: "string"})
	props.Set("type", &jsonschema.Schema{Type: "string", Examples: kinds})
	props.Set("options", &jsonschema.Schema{Type: "array", Items: &jsonschema.Schema{
		AnyOf: []*jsonschema.Schema{{Type: "string"}, {Type: "number"}, {Type: "boolean"}},
	}})
	props.Set("initial", &jsonschema.Schema{})
	return &jsonschema.Schema{
		OneOf: []*jsonschema.Schema{
			{Type: "null"},
			{Type: "object", Properties: props},
		},
	}
}

type defaultSchema struct{}

// JSONSchema accepts any static value or a computed default object.
func (defaultSchema) JSONSchema() *jsonschema.Schema {
	return &jsonschema.Schema{Description: "static value or {type: bash, command, output, query}"}
}

// JSONSchema accepts a single command or a list of commands.
func (Commands) JSONSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		OneOf: []*jsonschema.Schema{
			{Type: "string"},
			{Type: "array", Items: &jsonschema.Schema{Type: "string"}},
		},
	}
}

// JSONSchema leaves descriptors open. Unrecognized shapes are reported
// and skipped at render time instead of failing the whole document.
func (FileDescriptor) JSONSchema() *jsonschema.Schema {
	return &jsonschema.Schema{Description: "template string, {type, variables} or {condition, content, fail}"}
}

// GenerateJSONSchema produces the JSON Schema of a configuration document.
func GenerateJSONSchema() ([]byte, error) {
	r := &jsonschema.Reflector{AllowAdditionalProperties: true}

	s := r.Reflect(&document{})
	s.ID = schemaID
	s.Title = "feasible configuration"
	s.Description = "Variables, defaults, actions and files of a feasible project"

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	return data, nil
}

// ValidateDocument checks a JSON-compatible document against the schema.
// Returns a list of validation error messages (empty if valid).
func ValidateDocument(doc any) []string {
	schemaJSON, err := GenerateJSONSchema()
	if err != nil {
		return []string{fmt.Sprintf("generate schema: %v", err)}
	}

	var schemaDoc any
	if err := json.Unmarshal(schemaJSON, &schemaDoc); err != nil {
		return []string{fmt.Sprintf("unmarshal schema: %v", err)}
	}

	c := sjsonschema.NewCompiler()
	if err := c.AddResource("feasible.json", schemaDoc); err != nil {
		return []string{fmt.Sprintf("add schema resource: %v", err)}
	}
	sch, err := c.Compile("feasible.json")
	if err != nil {
		return []string{fmt.Sprintf("compile schema: %v", err)}
	}

	if err := sch.Validate(doc); err != nil {
		ve, ok := err.(*sjsonschema.ValidationError)
		if !ok {
			return []string{err.Error()}
		}
		p := message.NewPrinter(language.English)
		var errs []string
		for _, cause := range flattenValidationErrors(ve) {
			location := "/" + strings.Join(cause.InstanceLocation, "/")
			errs = append(errs, fmt.Sprintf("%s: %s", location, cause.ErrorKind.LocalizedString(p)))
		}
		return errs
	}
	return nil
}

// flattenValidationErrors recursively collects all leaf validation errors.
func flattenValidationErrors(ve *sjsonschema.ValidationError) []*sjsonschema.ValidationError {
	if len(ve.Causes) == 0 {
		return []*sjsonschema.ValidationError{ve}
	}
	var flat []*sjsonschema.ValidationError
	for _, cause := range ve.Causes {
		flat = append(flat, flattenValidationErrors(cause)...)
	}
	return flat
}
