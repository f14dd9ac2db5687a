package session

import (
	"github.com/mbolis/quick-form/model"
	"github.com/mbolis/quick-form/rules"
)

// Payload is a completed response ready for storage.
type Payload struct {
	Status          model.ResponseStatus `json:"status"`
	RespondentEmail string               `json:"respondent_email,omitempty"`
	Fields          []FieldValue         `json:"fields"`
}

type FieldValue struct {
	FieldID string      `json:"fieldId"`
	Value   model.Value `json:"value"`
}

// Assemble builds the completed payload from the final answers. Only fields
// visible under those answers are kept, in order; answers to hidden fields are
// dropped. The result depends only on its inputs.
func Assemble(fields []model.Field, answers model.Answers) Payload {
	sorted := model.SortFields(fields)
	return assemble(rules.NewEvaluator(sorted), sorted, answers)
}

func assemble(eval *rules.Evaluator, sorted []model.Field, answers model.Answers) Payload {
	payload := Payload{
		Status: model.Completed,
		Fields: []FieldValue{},
	}

	for i, f := range sorted {
		if f.ID == "" || !eval.Visible(i, answers) {
			continue
		}
		v := answers[f.ID]
		if !model.Present(v) {
			continue
		}
		if f.Type == model.Email && payload.RespondentEmail == "" {
			payload.RespondentEmail = v.Text()
		}
		payload.Fields = append(payload.Fields, FieldValue{FieldID: f.ID, Value: v})
	}

	return payload
}
