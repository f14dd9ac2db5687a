package rules

import (
	"fmt"

	"github.com/mbolis/quick-form/model"
)

// SchemaError describes a rule that cannot be evaluated as written.
// Field is the position in the checked slice; Rule is the index in the
// conditional rules, or -1 for the screener.
type SchemaError struct {
	Field   int
	FieldID string
	Label   string
	Rule    int
	Reason  string
}

func (e *SchemaError) Error() string {
	name := e.FieldID
	if name == "" {
		name = e.Label
	}
	if e.Rule < 0 {
		return fmt.Sprintf("field %q: screener: %s", name, e.Reason)
	}
	return fmt.Sprintf("field %q: rule %d: %s", name, e.Rule, e.Reason)
}

// Check returns every malformed rule in fields. A rule may only reference a
// field with a strictly smaller order index.
func Check(fields []model.Field) []*SchemaError {
	order := make(map[string]int, len(fields))
	for _, f := range fields {
		if f.ID != "" {
			order[f.ID] = f.OrderIndex
		}
	}

	var problems []*SchemaError
	for i, f := range fields {
		problems = append(problems, checkLogic(i, f, order)...)
		problems = append(problems, checkScreener(i, f)...)
	}
	return problems
}

func checkLogic(pos int, f model.Field, order map[string]int) (problems []*SchemaError) {
	logic := f.ConditionalLogic
	if logic == nil {
		return nil
	}
	fail := func(rule int, format string, args ...any) {
		problems = append(problems, &SchemaError{pos, f.ID, f.Label, rule, fmt.Sprintf(format, args...)})
	}

	if logic.Action != model.Show && logic.Action != model.Hide {
		fail(0, "unknown action %q", logic.Action)
	}
	if logic.Combinator != "" && logic.Combinator != model.All && logic.Combinator != model.Any {
		fail(0, "unknown combinator %q", logic.Combinator)
	}
	for i, r := range logic.Rules {
		if !knownOperator(r.Operator) {
			fail(i, "unknown operator %q", r.Operator)
		}
		idx, ok := order[r.FieldID]
		switch {
		case !ok:
			fail(i, "references unknown field %q", r.FieldID)
		case r.FieldID == f.ID:
			fail(i, "references itself")
		case idx >= f.OrderIndex:
			fail(i, "references later field %q", r.FieldID)
		}
	}
	return problems
}

func checkScreener(pos int, f model.Field) []*SchemaError {
	if !f.IsScreener {
		return nil
	}
	sl := f.ScreenerLogic
	switch {
	case sl == nil:
		return []*SchemaError{{pos, f.ID, f.Label, -1, "screener without logic"}}
	case sl.Action != "" && sl.Action != model.Disqualify:
		return []*SchemaError{{pos, f.ID, f.Label, -1, fmt.Sprintf("unknown action %q", sl.Action)}}
	case !knownOperator(sl.Operator):
		return []*SchemaError{{pos, f.ID, f.Label, -1, fmt.Sprintf("unknown operator %q", sl.Operator)}}
	}
	return nil
}

// Evaluator evaluates a fixed field list, addressed by position. Fields whose
// rules are malformed fail closed: they stay visible and never disqualify.
type Evaluator struct {
	fields         []model.Field
	brokenLogic    []bool
	brokenScreener []bool
	problems       []*SchemaError
}

func NewEvaluator(fields []model.Field) *Evaluator {
	e := &Evaluator{
		fields:         fields,
		brokenLogic:    make([]bool, len(fields)),
		brokenScreener: make([]bool, len(fields)),
		problems:       Check(fields),
	}
	for _, p := range e.problems {
		if p.Rule < 0 {
			e.brokenScreener[p.Field] = true
		} else {
			e.brokenLogic[p.Field] = true
		}
	}
	return e
}

// Problems lists the malformed rules found when the evaluator was built.
func (e *Evaluator) Problems() []*SchemaError {
	return e.problems
}

// Visible reports whether the i-th field is shown under answers.
func (e *Evaluator) Visible(i int, answers model.Answers) bool {
	if e.brokenLogic[i] {
		return true
	}
	return EvaluateVisibility(e.fields[i], answers)
}

// Disqualifies reports whether value for the i-th field fires its screener.
func (e *Evaluator) Disqualifies(i int, value model.Value) bool {
	if e.brokenScreener[i] {
		return false
	}
	return EvaluateScreener(e.fields[i], value)
}
