package sandbox

import (
	"fmt"
	"math"
	"reflect"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// Default limits of an Evaluator.
const (
	DefaultMaxNodes     = 10000
	DefaultMemoryBudget = 1 << 20
)

// Evaluator evaluates conditions against a read-only variable snapshot.
// Expressions have no access to the filesystem, network or environment.
type Evaluator struct {
	MaxNodes     uint // maximum AST size (0 = DefaultMaxNodes)
	MemoryBudget uint // VM allocation budget (0 = DefaultMemoryBudget)
}

// Eval compiles expression against env and reports whether the result is
// truthy. A leading $ on a name outside string literals is accepted, so
// `$NAME` and `NAME` are the same binding. Names that are not identifiers
// are reachable through $env["name"].
func (e *Evaluator) Eval(expression string, env map[string]any) (bool, error) {
	src := StripSigils(strings.TrimSpace(expression))
	if src == "" {
		return false, fmt.Errorf("empty condition")
	}

	maxNodes := e.MaxNodes
	if maxNodes == 0 {
		maxNodes = DefaultMaxNodes
	}
	budget := e.MemoryBudget
	if budget == 0 {
		budget = DefaultMemoryBudget
	}

	program, err := expr.Compile(src, expr.Env(env), expr.MaxNodes(maxNodes))
	if err != nil {
		return false, fmt.Errorf("compile condition %q: %w", expression, err)
	}

	machine := vm.VM{MemoryBudget: budget}
	out, err := machine.Run(program, env)
	if err != nil {
		return false, fmt.Errorf("eval condition %q: %w", expression, err)
	}
	return Truthy(out), nil
}

// Truthy applies loose truthiness: false, nil, zero, NaN and the empty
// string are false; every other value, including empty lists and maps, is
// true.
func Truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case float64:
		return t != 0 && !math.IsNaN(t)
	case float32:
		return t != 0 && !math.IsNaN(float64(t))
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() != 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return rv.Uint() != 0
	case reflect.Pointer, reflect.Interface:
		return !rv.IsNil()
	}
	return true
}

// StripSigils removes the $ in front of identifiers outside string
// literals. $env is kept.
func StripSigils(src string) string {
	if !strings.Contains(src, "$") {
		return src
	}
	var b strings.Builder
	b.Grow(len(src))
	var quote byte
	for i := 0; i < len(src); i++ {
		c := src[i]
		if quote != 0 {
			b.WriteByte(c)
			switch {
			case c == '\\' && quote != '`' && i+1 < len(src):
				i++
				b.WriteByte(src[i])
			case c == quote:
				quote = 0
			}
			continue
		}
		switch {
		case c == '"' || c == '\'' || c == '`':
			quote = c
		case c == '$' && i+1 < len(src) && isIdentStart(src[i+1]) && !isIdentPart(prev(src, i)):
			if !strings.HasPrefix(src[i+1:], "env") || (i+4 < len(src) && isIdentPart(src[i+4])) {
				continue
			}
		}
		b.WriteByte(c)
	}
	return b.String()
}

func prev(s string, i int) byte {
	if i == 0 {
		return 0
	}
	return s[i-1]
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}
