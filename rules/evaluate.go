package rules

import "github.com/mbolis/quick-form/model"

// EvaluateVisibility reports whether field is shown given the answers so far.
// Fields without conditional logic, or with no rules, are always visible.
func EvaluateVisibility(field model.Field, answers model.Answers) bool {
	logic := field.ConditionalLogic
	if logic == nil || len(logic.Rules) == 0 {
		return true
	}

	matched := combine(logic.Combinator, logic.Rules, answers)
	if logic.Action == model.Hide {
		return !matched
	}
	return matched
}

func combine(c model.Combinator, rules []model.Rule, answers model.Answers) bool {
	if c == model.Any {
		for _, r := range rules {
			if match(r.Operator, answers[r.FieldID], r.Value) {
				return true
			}
		}
		return false
	}

	for _, r := range rules {
		if !match(r.Operator, answers[r.FieldID], r.Value) {
			return false
		}
	}
	return true
}

// EvaluateScreener reports whether value, just entered for field, disqualifies
// the respondent. It ignores the field's own visibility.
func EvaluateScreener(field model.Field, value model.Value) bool {
	if !field.IsScreener || field.ScreenerLogic == nil {
		return false
	}
	return match(field.ScreenerLogic.Operator, value, field.ScreenerLogic.Value)
}
