package transform

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brendtumi/feasible/internal/config"
)

func fields(pairs ...string) []config.Field {
	var out []config.Field
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, config.Field{Key: pairs[i], Source: pairs[i+1]})
	}
	return out
}

func TestStructuredJSON(t *testing.T) {
	vars := map[string]any{"PORT": "3000", "host": "a<b", "n": 2}

	got, err := Structured(&config.TypedContent{Type: config.ContentJSON, Fields: fields("PORT", "PORT")}, vars)
	require.NoError(t, err)
	assert.Equal(t, `{"PORT":"3000"}`, got)

	got, err = Structured(&config.TypedContent{
		Type:   config.ContentJSON,
		Fields: fields("z", "n", "port", "PORT", "host", "host", "gone", "missing"),
	}, vars)
	require.NoError(t, err)
	assert.Equal(t, `{"z":2,"port":"3000","host":"a<b"}`, got)
}

func TestStructuredJSONDuplicateKey(t *testing.T) {
	vars := map[string]any{"a": 1, "b": 2}
	got, err := Structured(&config.TypedContent{Type: config.ContentJSON, Fields: fields("k", "a", "x", "a", "k", "b")}, vars)
	require.NoError(t, err)
	assert.Equal(t, `{"k":2,"x":1}`, got)
}

func TestStructuredYAML(t *testing.T) {
	vars := map[string]any{"PORT": "3000", "tags": []any{"a", "b"}}
	got, err := Structured(&config.TypedContent{
		Type:   config.ContentYAML,
		Fields: fields("port", "PORT", "tags", "tags", "gone", "missing"),
	}, vars)
	require.NoError(t, err)
	assert.Equal(t, "port: \"3000\"\ntags:\n  - a\n  - b\n", got)
}

func TestStructuredEnv(t *testing.T) {
	vars := map[string]any{"PORT": 3000, "TITLE": "hello world"}
	got, err := Structured(&config.TypedContent{
		Type:   config.ContentEnv,
		Fields: fields("PORT", "PORT", "APP_TITLE", "TITLE"),
	}, vars)
	require.NoError(t, err)
	assert.Equal(t, "PORT=3000\nAPP_TITLE='hello world'", got)
}

func TestStructuredEnvMissingVariable(t *testing.T) {
	_, err := Structured(&config.TypedContent{Type: config.ContentEnv, Fields: fields("X", "X")}, map[string]any{})
	var nf *VariableNotFoundError
	assert.True(t, errors.As(err, &nf))
}

func TestStructuredUnsupportedType(t *testing.T) {
	_, err := Structured(&config.TypedContent{Type: "toml"}, nil)
	assert.Error(t, err)
}
