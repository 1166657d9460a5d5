package table

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/recadm/recadm/pkg/record"
)

// Predicate is a compiled filter expression evaluated against a record's
// flattened field map.
type Predicate struct {
	src     string
	program *vm.Program
}

// CompilePredicate compiles a boolean filter expression, e.g.
// `name == "Alice"` or `createdAt > 1719800000000`. Field names unknown to
// a given record evaluate as nil; the expression must yield a boolean.
func CompilePredicate(src string) (*Predicate, error) {
	program, err := expr.Compile(src,
		expr.Env(map[string]any{}),
		expr.AllowUndefinedVariables(),
		expr.AsBool(),
	)
	if err != nil {
		return nil, fmt.Errorf("invalid filter expression: %w", err)
	}
	return &Predicate{src: src, program: program}, nil
}

// Match evaluates the predicate against one record. Evaluation errors
// (type mismatches on a particular row) count as no match rather than
// failing the whole filter.
func (p *Predicate) Match(rec record.Record) bool {
	out, err := expr.Run(p.program, rec.AsMap())
	if err != nil {
		return false
	}
	b, ok := out.(bool)
	return ok && b
}

// String returns the source expression.
func (p *Predicate) String() string {
	return p.src
}

// FilterExpr returns the records matching a compiled filter expression.
func (m *Model) FilterExpr(src string) ([]record.Record, error) {
	pred, err := CompilePredicate(src)
	if err != nil {
		return nil, err
	}
	out := make([]record.Record, 0, len(m.records))
	for _, rec := range m.records {
		if pred.Match(rec) {
			out = append(out, rec)
		}
	}
	return out, nil
}
