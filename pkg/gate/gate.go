// Package gate evaluates the runtime capability gate that decides whether a
// page may engage the CTB modal flow at all.
package gate

import (
	"fmt"

	"github.com/expr-lang/expr"
)

// Gate is a boolean condition over a runtime-provided environment. When the
// gate does not pass, trigger elements behave as ordinary links.
type Gate struct {
	expression string
}

// New creates a gate from a condition expression. An empty expression
// always passes.
func New(expression string) *Gate {
	return &Gate{expression: expression}
}

// Evaluate evaluates the gate condition against the environment.
func (g *Gate) Evaluate(env map[string]any) (bool, error) {
	if g.expression == "" {
		return true, nil
	}

	if env == nil {
		env = map[string]any{}
	}

	program, err := expr.Compile(g.expression, expr.Env(env), expr.AsBool())
	if err != nil {
		return false, fmt.Errorf("failed to compile gate condition: %w", err)
	}

	output, err := expr.Run(program, env)
	if err != nil {
		return false, fmt.Errorf("failed to evaluate gate condition: %w", err)
	}

	result, ok := output.(bool)
	if !ok {
		return false, fmt.Errorf("gate condition did not evaluate to boolean: %v", output)
	}

	return result, nil
}

// Allowed reports whether the gate passes. Compile and evaluation failures
// count as a closed gate.
func (g *Gate) Allowed(env map[string]any) bool {
	ok, err := g.Evaluate(env)
	if err != nil {
		return false
	}
	return ok
}
