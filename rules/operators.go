// Package rules decides field visibility and screener disqualification from
// a respondent's answers. Everything here is pure and safe for concurrent use.
package rules

import (
	"strconv"
	"strings"

	"github.com/mbolis/quick-form/model"
)

// match applies op to an answer. An absent or empty answer never matches,
// whatever the operator.
func match(op model.Operator, answer model.Value, want string) bool {
	if !model.Present(answer) {
		return false
	}

	switch op {
	case model.Equals:
		return answer.Text() == want
	case model.NotEquals:
		return answer.Text() != want
	case model.Contains:
		return contains(answer, want)
	case model.GreaterThan:
		return compareNumeric(answer, want, func(a, b float64) bool { return a > b })
	case model.LessThan:
		return compareNumeric(answer, want, func(a, b float64) bool { return a < b })
	default:
		return false
	}
}

func contains(answer model.Value, want string) bool {
	want = strings.ToLower(want)
	if multi, ok := answer.(model.MultiValue); ok {
		for _, v := range multi {
			if strings.Contains(strings.ToLower(v), want) {
				return true
			}
		}
		return false
	}
	return strings.Contains(strings.ToLower(answer.Text()), want)
}

// compareNumeric is false unless both sides are numbers.
func compareNumeric(answer model.Value, want string, cmp func(float64, float64) bool) bool {
	var a float64
	switch v := answer.(type) {
	case model.NumericValue:
		a = float64(v)
	case model.TextValue:
		n, ok := toFloat(string(v))
		if !ok {
			return false
		}
		a = n
	default:
		return false
	}

	b, ok := toFloat(want)
	if !ok {
		return false
	}
	return cmp(a, b)
}

func toFloat(s string) (float64, bool) {
	n, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

func knownOperator(op model.Operator) bool {
	switch op {
	case model.Equals, model.NotEquals, model.Contains, model.GreaterThan, model.LessThan:
		return true
	}
	return false
}
