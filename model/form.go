package model

import (
	"encoding/json"
	"sort"
	"time"
)

type Status string

const (
	Draft     Status = "draft"
	Published Status = "published"
	Closed    Status = "closed"
)

type Form struct {
	ID          string    `json:"id,omitempty" yaml:"id,omitempty"`
	Version     int       `json:"version,omitempty" yaml:"-"`
	Title       string    `json:"title" yaml:"title" validate:"required"`
	Description string    `json:"description" yaml:"description"`
	Status      Status    `json:"status" yaml:"status" validate:"omitempty,oneof=draft published closed"`
	ShortCode   string    `json:"short_code,omitempty" yaml:"short_code,omitempty"`
	CreatedAt   time.Time `json:"created_at,omitempty" yaml:"-"`
	Fields      []Field   `json:"fields" yaml:"fields" validate:"dive"`
}

type FieldType string

const (
	ShortText    FieldType = "short_text"
	LongText     FieldType = "long_text"
	Email        FieldType = "email"
	Phone        FieldType = "phone"
	SingleChoice FieldType = "single_choice"
	MultiChoice  FieldType = "multi_choice"
	Dropdown     FieldType = "dropdown"
	Range        FieldType = "range"
	Date         FieldType = "date"
)

// names used by the first version of the form builder
var legacyFieldTypes = map[string]FieldType{
	"text":     ShortText,
	"textarea": LongText,
	"radio":    SingleChoice,
	"checkbox": MultiChoice,
	"select":   Dropdown,
}

func (t *FieldType) UnmarshalText(text []byte) error {
	if ft, ok := legacyFieldTypes[string(text)]; ok {
		*t = ft
		return nil
	}
	*t = FieldType(text)
	return nil
}

// HasOptions reports whether the answer must be one of the field's options.
func (t FieldType) HasOptions() bool {
	return t == SingleChoice || t == MultiChoice || t == Dropdown
}

type Field struct {
	ID               string            `json:"id,omitempty" yaml:"id,omitempty"`
	Type             FieldType         `json:"type" yaml:"type" validate:"required,oneof=short_text long_text email phone single_choice multi_choice dropdown range date"`
	Label            string            `json:"label" yaml:"label" validate:"required"`
	Description      string            `json:"description,omitempty" yaml:"description,omitempty"`
	Placeholder      string            `json:"placeholder,omitempty" yaml:"placeholder,omitempty"`
	Options          []Option          `json:"options,omitempty" yaml:"options,omitempty" validate:"dive"`
	Validation       Validation        `json:"validation" yaml:"validation"`
	OrderIndex       int               `json:"order_index" yaml:"order_index" validate:"gte=0"`
	ConditionalLogic *ConditionalLogic `json:"conditional_logic,omitempty" yaml:"conditional_logic,omitempty"`
	IsScreener       bool              `json:"is_screener,omitempty" yaml:"is_screener,omitempty"`
	ScreenerLogic    *ScreenerLogic    `json:"screener_logic,omitempty" yaml:"screener_logic,omitempty"`
}

type Option struct {
	Label string `json:"label" yaml:"label" validate:"required"`
	Value string `json:"value" yaml:"value" validate:"required"`
}

type Validation struct {
	Required bool     `json:"required,omitempty" yaml:"required,omitempty"`
	Min      *float64 `json:"min,omitempty" yaml:"min,omitempty"`
	Max      *float64 `json:"max,omitempty" yaml:"max,omitempty"`
}

type Operator string

const (
	Equals      Operator = "equals"
	NotEquals   Operator = "not_equals"
	Contains    Operator = "contains"
	GreaterThan Operator = "greater_than"
	LessThan    Operator = "less_than"
)

type Action string

const (
	Show       Action = "show"
	Hide       Action = "hide"
	Disqualify Action = "disqualify"
)

type Combinator string

const (
	All Combinator = "all"
	Any Combinator = "any"
)

type Rule struct {
	FieldID  string   `json:"fieldId" yaml:"fieldId"`
	Operator Operator `json:"operator" yaml:"operator"`
	Value    string   `json:"value" yaml:"value"`
}

type ConditionalLogic struct {
	Action     Action     `json:"action" yaml:"action"`
	Combinator Combinator `json:"combinator" yaml:"combinator"`
	Rules      []Rule     `json:"rules" yaml:"rules"`
}

// UnmarshalJSON also accepts "logic" as the combinator key, as stored by older forms.
func (cl *ConditionalLogic) UnmarshalJSON(data []byte) error {
	type plain ConditionalLogic
	aux := struct {
		plain
		Logic Combinator `json:"logic"`
	}{}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*cl = ConditionalLogic(aux.plain)
	if cl.Combinator == "" {
		cl.Combinator = aux.Logic
	}
	return nil
}

type ScreenerLogic struct {
	Action   Action   `json:"action" yaml:"action"`
	Operator Operator `json:"operator" yaml:"operator"`
	Value    string   `json:"value" yaml:"value"`
}

// SortFields orders fields by OrderIndex, keeping the relative order of ties.
func SortFields(fields []Field) []Field {
	sorted := make([]Field, len(fields))
	copy(sorted, fields)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].OrderIndex < sorted[j].OrderIndex
	})
	return sorted
}
