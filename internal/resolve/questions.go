// Package resolve turns declared variables and defaults into the variable
// mapping of a run.
package resolve

import (
	"encoding/base64"
	"strings"

	"github.com/google/uuid"

	"github.com/brendtumi/feasible/internal/config"
	"github.com/brendtumi/feasible/internal/prompt"
)

// randomInitial marks an initial value to be replaced with a fresh id.
const randomInitial = "random()"

// ValueSource supplies the remembered value of a variable.
type ValueSource interface {
	Value(name string, initial any, options []string) any
}

// Questions builds one prompt per declared variable. Defaults come from
// values, which falls back to the declared initial value.
func Questions(vars config.Variables, values ValueSource, newID func() string) []prompt.Question {
	if newID == nil {
		newID = uuid.NewString
	}
	questions := make([]prompt.Question, 0, len(vars))
	for _, v := range vars {
		q := prompt.Question{
			Name:    v.Name,
			Message: v.Question,
			Options: v.Options,
			Kind:    kindOf(v),
		}
		if q.Message == "" {
			q.Message = v.Name
		}

		initial := v.Initial
		switch v.Type {
		case "base64", "base64()":
			q.Filter = Base64Filter
		case "random", "random()":
			initial = newID()
		}
		if s, ok := v.Initial.(string); ok && s == randomInitial {
			initial = newID()
		}
		q.Default = values.Value(v.Name, initial, v.Options)
		questions = append(questions, q)
	}
	return questions
}

func kindOf(v config.Variable) prompt.Kind {
	if len(v.Options) > 0 {
		return prompt.KindList
	}
	switch v.Type {
	case "password":
		return prompt.KindPassword
	case "number":
		return prompt.KindNumber
	case "confirm", "boolean":
		return prompt.KindConfirm
	}
	return prompt.KindInput
}

// Base64Filter encodes s unless it already is base64.
func Base64Filter(s string) string {
	if IsBase64(s) {
		return s
	}
	return base64.StdEncoding.EncodeToString([]byte(s))
}

// IsBase64 reports whether s is non-empty padded standard base64.
func IsBase64(s string) bool {
	if s == "" || len(s)%4 != 0 || strings.ContainsAny(s, " \t\r\n") {
		return false
	}
	_, err := base64.StdEncoding.DecodeString(s)
	return err == nil
}
