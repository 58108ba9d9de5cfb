// Package prompt asks the user for variable values.
package prompt

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrAborted is returned when the user cancels the prompt.
var ErrAborted = errors.New("prompt aborted")

// Kind selects the input widget of a question.
type Kind string

const (
	KindInput    Kind = "input"
	KindPassword Kind = "password"
	KindNumber   Kind = "number"
	KindConfirm  Kind = "confirm"
	KindList     Kind = "list"
)

// Question asks for one variable.
type Question struct {
	Name    string
	Message string
	Kind    Kind
	// Options are the choices of a list question.
	Options []string
	// Default is accepted on empty input. For list questions it is either
	// an option index or an option value.
	Default any
	// Filter transforms accepted text answers.
	Filter func(string) string
}

// Prompter collects answers keyed by question name.
type Prompter interface {
	Ask(ctx context.Context, questions []Question) (map[string]any, error)
}

// Defaults answers every question with its default without interaction.
type Defaults struct{}

func (Defaults) Ask(ctx context.Context, questions []Question) (map[string]any, error) {
	answers := make(map[string]any, len(questions))
	for _, q := range questions {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		answers[q.Name] = q.defaultAnswer()
	}
	return answers, nil
}

// defaultAnswer is the value of a question answered with empty input.
func (q Question) defaultAnswer() any {
	switch q.Kind {
	case KindList:
		if i := q.defaultIndex(); i >= 0 {
			return q.Options[i]
		}
		return q.Default
	case KindConfirm:
		if b, ok := q.Default.(bool); ok {
			return b
		}
		return q.Default != nil
	case KindNumber:
		if s, ok := q.Default.(string); ok {
			if n, err := ParseNumber(s); err == nil {
				return n
			}
		}
		return q.Default
	}
	if q.Filter != nil {
		if s, ok := q.Default.(string); ok {
			return q.Filter(s)
		}
	}
	return q.Default
}

// defaultIndex locates the default among the options, or -1.
func (q Question) defaultIndex() int {
	switch d := q.Default.(type) {
	case int:
		if d >= 0 && d < len(q.Options) {
			return d
		}
	case string:
		for i, opt := range q.Options {
			if opt == d {
				return i
			}
		}
	}
	return -1
}

// accept converts text typed for q into an answer.
func (q Question) accept(text string) (any, error) {
	text = strings.TrimSpace(text)
	if text == "" && q.Default != nil {
		return q.defaultAnswer(), nil
	}
	switch q.Kind {
	case KindNumber:
		n, err := ParseNumber(text)
		if err != nil {
			return nil, fmt.Errorf("please enter a number")
		}
		return n, nil
	case KindConfirm:
		switch strings.ToLower(text) {
		case "y", "yes":
			return true, nil
		case "n", "no", "":
			return false, nil
		}
		return nil, fmt.Errorf("please answer y or n")
	}
	if q.Filter != nil {
		return q.Filter(text), nil
	}
	return text, nil
}

// ParseNumber parses s as a number. Integral values are returned as int.
func ParseNumber(s string) (any, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return nil, err
	}
	if f == math.Trunc(f) && math.Abs(f) < 1<<53 {
		return int(f), nil
	}
	return f, nil
}

// DisplayDefault renders a default for the prompt line.
func (q Question) DisplayDefault() string {
	switch {
	case q.Kind == KindConfirm:
		if b, _ := q.defaultAnswer().(bool); b {
			return "Y/n"
		}
		return "y/N"
	case q.Default == nil:
		return ""
	case q.Kind == KindPassword:
		return "********"
	}
	return fmt.Sprint(q.defaultAnswer())
}
