package series

import (
	"fmt"
	"slices"

	exprlang "github.com/expr-lang/expr"
	exprast "github.com/expr-lang/expr/ast"
	exprvm "github.com/expr-lang/expr/vm"

	"github.com/robert-malhotra/go-openpmd/openpmd"
)

// ExprSelector keeps particles for which an expr-lang expression is true.
// Quantities are float64 variables, as in "uz > 0.5 && abs(x) < 10".
type ExprSelector struct {
	expression string
	program    *exprvm.Program
	vars       []string
}

// NewExprSelector compiles expression.
func NewExprSelector(expression string) (*ExprSelector, error) {
	if expression == "" {
		return nil, fmt.Errorf("expr: expression must not be empty")
	}
	env := make(map[string]any, len(openpmd.AllQuantities()))
	for _, q := range openpmd.AllQuantities() {
		env[q.String()] = 0.0
	}
	used := &identifiers{known: env}
	program, err := exprlang.Compile(expression,
		exprlang.Env(env),
		exprlang.AsBool(),
		exprlang.Patch(used),
	)
	if err != nil {
		return nil, fmt.Errorf("expr: compiling %q: %w", expression, err)
	}
	slices.Sort(used.names)
	return &ExprSelector{
		expression: expression,
		program:    program,
		vars:       slices.Compact(used.names),
	}, nil
}

// identifiers collects the quantity names an expression refers to.
type identifiers struct {
	known map[string]any
	names []string
}

func (v *identifiers) Visit(node *exprast.Node) {
	if id, ok := (*node).(*exprast.IdentifierNode); ok {
		if _, ok := v.known[id.Value]; ok {
			v.names = append(v.names, id.Value)
		}
	}
}

// String returns the source expression.
func (s *ExprSelector) String() string { return s.expression }

// Vars implements Selection.
func (s *ExprSelector) Vars() []string { return slices.Clone(s.vars) }

// Mask implements Selection.
func (s *ExprSelector) Mask(cols map[string][]float64, n int) ([]bool, error) {
	env := make(map[string]any, len(s.vars))
	for _, name := range s.vars {
		if len(cols[name]) != n {
			return nil, fmt.Errorf("expr: missing column %s", name)
		}
	}
	mask := make([]bool, n)
	for i := range mask {
		for _, name := range s.vars {
			env[name] = cols[name][i]
		}
		out, err := exprlang.Run(s.program, env)
		if err != nil {
			return nil, fmt.Errorf("expr: evaluating %q for particle %d: %w", s.expression, i, err)
		}
		keep, ok := out.(bool)
		if !ok {
			return nil, fmt.Errorf("expr: %q returned %T, want bool", s.expression, out)
		}
		mask[i] = keep
	}
	return mask, nil
}
