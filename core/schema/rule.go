package schema

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// rule is a compiled cross-attribute check.
type rule struct {
	expr    string
	message string
	program *vm.Program
}

func compileRule(src, message string) (*rule, error) {
	program, err := expr.Compile(src, expr.AsBool())
	if err != nil {
		return nil, err
	}
	return &rule{expr: src, message: message, program: program}, nil
}

// check evaluates the rule against the record's plain form, so nested
// attributes are reachable with dot access ("customer.name").
func (r *rule) check(d *Definition, rec *Record) error {
	env := ToPlain(rec).(map[string]any)

	out, err := expr.Run(r.program, env)
	if err != nil {
		return fmt.Errorf("%s: %w: evaluate %q: %v", d.label(), ErrRuleViolation, r.expr, err)
	}
	if ok, _ := out.(bool); !ok {
		return &RuleError{Schema: d.name, Expr: r.expr, Message: r.message}
	}
	return nil
}

// Rules returns the source expressions of the definition's rules.
func (d *Definition) Rules() []string {
	out := make([]string, len(d.rules))
	for i, r := range d.rules {
		out[i] = r.expr
	}
	return out
}
