package series

import (
	"fmt"
	"slices"

	celgo "github.com/google/cel-go/cel"

	"github.com/robert-malhotra/go-openpmd/openpmd"
)

// CELSelector keeps particles for which a CEL expression is true.
// Quantities are double variables, as in "uz > 0.5 && w >= 1.0".
type CELSelector struct {
	expression string
	program    celgo.Program
	vars       []string
}

// NewCELSelector parses and type-checks expression.
func NewCELSelector(expression string) (*CELSelector, error) {
	if expression == "" {
		return nil, fmt.Errorf("cel: expression must not be empty")
	}
	known := make(map[string]bool)
	var opts []celgo.EnvOption
	for _, q := range openpmd.AllQuantities() {
		known[q.String()] = true
		opts = append(opts, celgo.Variable(q.String(), celgo.DoubleType))
	}
	env, err := celgo.NewEnv(opts...)
	if err != nil {
		return nil, fmt.Errorf("cel: %w", err)
	}
	ast, issues := env.Parse(expression)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("cel: parsing %q: %w", expression, issues.Err())
	}
	checked, issues := env.Check(ast)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("cel: checking %q: %w", expression, issues.Err())
	}
	if !checked.OutputType().IsExactType(celgo.BoolType) {
		return nil, fmt.Errorf("cel: %q has type %s, want bool", expression, checked.OutputType())
	}
	prg, err := env.Program(checked)
	if err != nil {
		return nil, fmt.Errorf("cel: %w", err)
	}

	var vars []string
	for _, ref := range checked.NativeRep().ReferenceMap() {
		if known[ref.Name] {
			vars = append(vars, ref.Name)
		}
	}
	slices.Sort(vars)
	return &CELSelector{expression: expression, program: prg, vars: slices.Compact(vars)}, nil
}

// String returns the source expression.
func (s *CELSelector) String() string { return s.expression }

// Vars implements Selection.
func (s *CELSelector) Vars() []string { return slices.Clone(s.vars) }

// Mask implements Selection.
func (s *CELSelector) Mask(cols map[string][]float64, n int) ([]bool, error) {
	for _, name := range s.vars {
		if len(cols[name]) != n {
			return nil, fmt.Errorf("cel: missing column %s", name)
		}
	}
	activation := make(map[string]any, len(s.vars))
	mask := make([]bool, n)
	for i := range mask {
		for _, name := range s.vars {
			activation[name] = cols[name][i]
		}
		out, _, err := s.program.Eval(activation)
		if err != nil {
			return nil, fmt.Errorf("cel: evaluating %q for particle %d: %w", s.expression, i, err)
		}
		keep, ok := out.Value().(bool)
		if !ok {
			return nil, fmt.Errorf("cel: %q returned %T, want bool", s.expression, out.Value())
		}
		mask[i] = keep
	}
	return mask, nil
}
