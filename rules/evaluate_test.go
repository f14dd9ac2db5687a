package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mbolis/quick-form/model"
)

func showIf(c model.Combinator, rules ...model.Rule) *model.ConditionalLogic {
	return &model.ConditionalLogic{Action: model.Show, Combinator: c, Rules: rules}
}

func TestVisibleWithoutLogic(t *testing.T) {
	answers := []model.Answers{
		nil,
		{},
		{"a": model.TextValue("yes")},
		{"a": model.MultiValue{"x", "y"}, "b": model.NumericValue(4)},
	}
	fields := []model.Field{
		{ID: "f", Type: model.ShortText},
		{ID: "f", Type: model.ShortText, ConditionalLogic: &model.ConditionalLogic{Action: model.Show}},
		{ID: "f", Type: model.ShortText, ConditionalLogic: &model.ConditionalLogic{Action: model.Hide, Combinator: model.All}},
	}

	for _, f := range fields {
		for _, a := range answers {
			assert.True(t, EvaluateVisibility(f, a), "field %+v with answers %v", f.ConditionalLogic, a)
		}
	}
}

func TestAbsentAnswerNeverMatches(t *testing.T) {
	ops := []model.Operator{model.Equals, model.NotEquals, model.Contains, model.GreaterThan, model.LessThan}
	empty := []model.Answers{
		{},
		{"age": nil},
		{"age": model.TextValue("")},
		{"age": model.MultiValue{}},
	}

	for _, op := range ops {
		for _, a := range empty {
			rule := model.Rule{FieldID: "age", Operator: op, Value: "30"}
			assert.False(t, match(rule.Operator, a[rule.FieldID], rule.Value), "%s against %v", op, a)

			show := model.Field{ID: "f", ConditionalLogic: showIf(model.All, rule)}
			assert.False(t, EvaluateVisibility(show, a), "show %s against %v", op, a)

			hide := model.Field{ID: "f", ConditionalLogic: &model.ConditionalLogic{Action: model.Hide, Combinator: model.All, Rules: []model.Rule{rule}}}
			assert.True(t, EvaluateVisibility(hide, a), "hide %s against %v", op, a)
		}
	}
}

func TestOperators(t *testing.T) {
	tests := []struct {
		name   string
		op     model.Operator
		answer model.Value
		value  string
		want   bool
	}{
		{"equals text", model.Equals, model.TextValue("yes"), "yes", true},
		{"equals is case sensitive", model.Equals, model.TextValue("Yes"), "yes", false},
		{"equals numeric", model.Equals, model.NumericValue(5), "5", true},
		{"equals fractional", model.Equals, model.NumericValue(2.5), "2.5", true},
		{"equals multi joined", model.Equals, model.MultiValue{"a", "b"}, "a,b", true},
		{"not equals", model.NotEquals, model.TextValue("no"), "yes", true},
		{"not equals same", model.NotEquals, model.TextValue("yes"), "yes", false},
		{"contains ignores case", model.Contains, model.TextValue("Hello World"), "WORLD", true},
		{"contains missing", model.Contains, model.TextValue("Hello"), "bye", false},
		{"contains multi", model.Contains, model.MultiValue{"design", "Printing"}, "print", true},
		{"contains multi missing", model.Contains, model.MultiValue{"design"}, "print", false},
		{"greater than", model.GreaterThan, model.NumericValue(7), "5", true},
		{"greater than equal", model.GreaterThan, model.NumericValue(5), "5", false},
		{"greater than text number", model.GreaterThan, model.TextValue("31"), "30", true},
		{"greater than non numeric", model.GreaterThan, model.TextValue("lots"), "5", false},
		{"greater than non numeric rule", model.GreaterThan, model.NumericValue(7), "five", false},
		{"greater than multi", model.GreaterThan, model.MultiValue{"9"}, "5", false},
		{"less than", model.LessThan, model.NumericValue(2), "5", true},
		{"less than text", model.LessThan, model.TextValue("abc"), "5", false},
		{"unknown operator", model.Operator("matches"), model.TextValue("x"), "x", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, match(tt.op, tt.answer, tt.value))
		})
	}
}

func TestCombinators(t *testing.T) {
	answers := model.Answers{"a": model.TextValue("yes"), "b": model.TextValue("no")}
	r1 := model.Rule{FieldID: "a", Operator: model.Equals, Value: "yes"} // true
	r2 := model.Rule{FieldID: "b", Operator: model.Equals, Value: "yes"} // false

	all := model.Field{ID: "c", ConditionalLogic: showIf(model.All, r1, r2)}
	anyOf := model.Field{ID: "c", ConditionalLogic: showIf(model.Any, r1, r2)}

	assert.False(t, EvaluateVisibility(all, answers))
	assert.True(t, EvaluateVisibility(anyOf, answers))

	all.ConditionalLogic.Action = model.Hide
	anyOf.ConditionalLogic.Action = model.Hide
	assert.True(t, EvaluateVisibility(all, answers))
	assert.False(t, EvaluateVisibility(anyOf, answers))
}

func TestEvaluateScreener(t *testing.T) {
	optIn := model.Field{
		ID:            "email_opt_in",
		Type:          model.SingleChoice,
		IsScreener:    true,
		ScreenerLogic: &model.ScreenerLogic{Action: model.Disqualify, Operator: model.Equals, Value: "no"},
	}

	assert.True(t, EvaluateScreener(optIn, model.TextValue("no")))
	assert.False(t, EvaluateScreener(optIn, model.TextValue("yes")))
	assert.False(t, EvaluateScreener(optIn, nil))

	t.Run("not a screener", func(t *testing.T) {
		f := optIn
		f.IsScreener = false
		assert.False(t, EvaluateScreener(f, model.TextValue("no")))
	})

	t.Run("no logic", func(t *testing.T) {
		f := optIn
		f.ScreenerLogic = nil
		assert.False(t, EvaluateScreener(f, model.TextValue("no")))
	})

	t.Run("empty never disqualifies", func(t *testing.T) {
		f := optIn
		f.ScreenerLogic = &model.ScreenerLogic{Action: model.Disqualify, Operator: model.NotEquals, Value: "yes"}
		assert.False(t, EvaluateScreener(f, model.TextValue("")))
		assert.True(t, EvaluateScreener(f, model.TextValue("maybe")))
	})

	t.Run("ignores own visibility", func(t *testing.T) {
		f := optIn
		f.ConditionalLogic = showIf(model.All, model.Rule{FieldID: "x", Operator: model.Equals, Value: "never"})
		require.False(t, EvaluateVisibility(f, model.Answers{}))
		assert.True(t, EvaluateScreener(f, model.TextValue("no")))
	})

	t.Run("numeric threshold", func(t *testing.T) {
		f := model.Field{
			ID:            "age",
			Type:          model.Range,
			IsScreener:    true,
			ScreenerLogic: &model.ScreenerLogic{Action: model.Disqualify, Operator: model.LessThan, Value: "18"},
		}
		assert.True(t, EvaluateScreener(f, model.NumericValue(17)))
		assert.False(t, EvaluateScreener(f, model.NumericValue(18)))
	})
}
