package resolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brendtumi/feasible/internal/config"
	"github.com/brendtumi/feasible/internal/prompt"
)

// remembered returns the stored value when present, else initial.
type remembered map[string]any

func (r remembered) Value(name string, initial any, _ []string) any {
	if v, ok := r[name]; ok {
		return v
	}
	return initial
}

func fixedID() string { return "11111111-2222-4333-8444-555555555555" }

func TestQuestionsKinds(t *testing.T) {
	vars := config.Variables{
		{Name: "projectName", Question: "Project name?", Initial: "demo"},
		{Name: "secret", Type: "password"},
		{Name: "PORT", Type: "number", Initial: 3000},
		{Name: "enabled", Type: "confirm"},
		{Name: "flavor", Options: []string{"vanilla", "chocolate"}},
	}

	qs := Questions(vars, remembered{}, fixedID)
	require.Len(t, qs, 5)

	assert.Equal(t, "Project name?", qs[0].Message)
	assert.Equal(t, prompt.KindInput, qs[0].Kind)
	assert.Equal(t, "demo", qs[0].Default)

	assert.Equal(t, "secret", qs[1].Message)
	assert.Equal(t, prompt.KindPassword, qs[1].Kind)
	assert.Equal(t, prompt.KindNumber, qs[2].Kind)
	assert.Equal(t, prompt.KindConfirm, qs[3].Kind)
	assert.Equal(t, prompt.KindList, qs[4].Kind)
	assert.Equal(t, []string{"vanilla", "chocolate"}, qs[4].Options)
}

func TestQuestionsPreferRememberedValues(t *testing.T) {
	vars := config.Variables{{Name: "projectName", Initial: "demo"}}

	qs := Questions(vars, remembered{"projectName": "kept"}, fixedID)
	assert.Equal(t, "kept", qs[0].Default)
}

func TestQuestionsRandom(t *testing.T) {
	vars := config.Variables{
		{Name: "id", Type: "random"},
		{Name: "token", Initial: "random()"},
	}

	qs := Questions(vars, remembered{}, fixedID)
	assert.Equal(t, fixedID(), qs[0].Default)
	assert.Equal(t, fixedID(), qs[1].Default)

	qs = Questions(vars, remembered{"id": "previous"}, fixedID)
	assert.Equal(t, "previous", qs[0].Default)
}

func TestQuestionsRandomDefaultsToUUID(t *testing.T) {
	qs := Questions(config.Variables{{Name: "id", Type: "random"}}, remembered{}, nil)
	id, ok := qs[0].Default.(string)
	require.True(t, ok)
	assert.Len(t, id, 36)
}

func TestQuestionsBase64Filter(t *testing.T) {
	qs := Questions(config.Variables{{Name: "auth", Type: "base64"}}, remembered{}, fixedID)
	require.NotNil(t, qs[0].Filter)
	assert.Equal(t, "dXNlcjpwYXNz", qs[0].Filter("user:pass"))
}

func TestBase64Filter(t *testing.T) {
	assert.Equal(t, "aGVsbG8=", Base64Filter("hello"))
	assert.Equal(t, "aGVsbG8=", Base64Filter("aGVsbG8="))
	assert.Equal(t, "", Base64Filter(""))
}

func TestIsBase64(t *testing.T) {
	assert.True(t, IsBase64("aGVsbG8="))
	assert.False(t, IsBase64(""))
	assert.False(t, IsBase64("hello"))
	assert.False(t, IsBase64("aGVs bG8="))
}
