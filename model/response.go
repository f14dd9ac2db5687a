package model

import "time"

type ResponseStatus string

const (
	Completed    ResponseStatus = "completed"
	Disqualified ResponseStatus = "disqualified"
)

type Response struct {
	ID              string          `json:"id"`
	FormID          string          `json:"form_id"`
	Status          ResponseStatus  `json:"status"`
	RespondentEmail string          `json:"respondent_email,omitempty"`
	DisqualifiedBy  string          `json:"disqualified_by,omitempty"`
	SubmittedAt     time.Time       `json:"submitted_at"`
	Fields          []ResponseField `json:"fields"`
}

type ResponseField struct {
	FieldID string `json:"field_id"`
	Label   string `json:"label,omitempty"`
	Value   Value  `json:"value"`
}

type ShortURL struct {
	ID        string `json:"id"`
	FormID    string `json:"form_id"`
	ShortCode string `json:"short_code"`
	Clicks    int64  `json:"clicks"`
}
