// Package engine implements the compliance rule engine: applicability
// resolution, violation detection and score aggregation over a clause corpus.
// Evaluation is synchronous, deterministic and free of shared mutable state,
// so one engine may serve concurrent checks.
package engine

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
)

// Env compiles and caches CEL programs for clause predicates. Both the
// applicability predicate and the evaluation predicate share one environment
// with a single `spec` variable holding the building specification fields.
type Env struct {
	env   *cel.Env
	cache map[string]cel.Program
	mu    sync.RWMutex
}

// NewEnv creates the shared predicate environment.
func NewEnv() (*Env, error) {
	env, err := cel.NewEnv(
		cel.Variable("spec", cel.DynType),
	)
	if err != nil {
		return nil, fmt.Errorf("create CEL environment: %w", err)
	}
	return &Env{
		env:   env,
		cache: make(map[string]cel.Program),
	}, nil
}

// program returns the compiled program for expr, compiling on first use.
func (e *Env) program(expr string) (cel.Program, error) {
	e.mu.RLock()
	prg, hit := e.cache[expr]
	e.mu.RUnlock()
	if hit {
		return prg, nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	// Double check after acquiring the write lock.
	if prg, hit = e.cache[expr]; hit {
		return prg, nil
	}

	ast, issues := e.env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile %q: %w", expr, issues.Err())
	}
	prg, err := e.env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("program %q: %w", expr, err)
	}
	e.cache[expr] = prg
	return prg, nil
}

// EvalBool evaluates a predicate expression against a spec input map.
func (e *Env) EvalBool(expr string, input map[string]any) (bool, error) {
	prg, err := e.program(expr)
	if err != nil {
		return false, err
	}
	out, _, err := prg.Eval(map[string]any{"spec": input})
	if err != nil {
		return false, fmt.Errorf("eval %q: %w", expr, err)
	}
	b, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("eval %q: result is %v, want bool", expr, out.Type())
	}
	return b, nil
}

// EvalNumber evaluates a numeric expression against a spec input map.
func (e *Env) EvalNumber(expr string, input map[string]any) (float64, error) {
	prg, err := e.program(expr)
	if err != nil {
		return 0, err
	}
	out, _, err := prg.Eval(map[string]any{"spec": input})
	if err != nil {
		return 0, fmt.Errorf("eval %q: %w", expr, err)
	}
	switch out.Type() {
	case types.DoubleType:
		return out.Value().(float64), nil
	case types.IntType:
		return float64(out.Value().(int64)), nil
	case types.UintType:
		return float64(out.Value().(uint64)), nil
	}
	return 0, fmt.Errorf("eval %q: result is %v, want number", expr, out.Type())
}
