package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrValueShape = errors.New("value does not fit field type")

// Value is a respondent's raw answer, typed by the field it belongs to.
type Value interface {
	// Text renders the value the way rules compare it.
	Text() string
	Empty() bool
	isValue()
}

type TextValue string

func (v TextValue) Text() string { return string(v) }
func (v TextValue) Empty() bool  { return v == "" }
func (TextValue) isValue()       {}

type MultiValue []string

func (v MultiValue) Text() string { return strings.Join(v, ",") }
func (v MultiValue) Empty() bool  { return len(v) == 0 }
func (MultiValue) isValue()       {}

type NumericValue float64

func (v NumericValue) Text() string { return strconv.FormatFloat(float64(v), 'f', -1, 64) }
func (NumericValue) Empty() bool    { return false }
func (NumericValue) isValue()       {}

// Present reports whether v holds an answer.
func Present(v Value) bool {
	return v != nil && !v.Empty()
}

// ParseValue converts a decoded JSON value into the Value matching the field type.
// A nil raw value yields a nil Value. Range answers that are not numbers are kept
// as text so that validation can report them.
func ParseValue(t FieldType, raw any) (Value, error) {
	if raw == nil {
		return nil, nil
	}

	switch t {
	case MultiChoice:
		switch r := raw.(type) {
		case []string:
			return MultiValue(r), nil
		case []any:
			vals := make(MultiValue, 0, len(r))
			for _, item := range r {
				s, ok := item.(string)
				if !ok {
					return nil, fmt.Errorf("%w: %s expects a list of strings", ErrValueShape, t)
				}
				vals = append(vals, s)
			}
			return vals, nil
		case string:
			if r == "" {
				return MultiValue{}, nil
			}
			return MultiValue{r}, nil
		}

	case Range:
		switch r := raw.(type) {
		case float64:
			return NumericValue(r), nil
		case int:
			return NumericValue(r), nil
		case string:
			n, err := strconv.ParseFloat(strings.TrimSpace(r), 64)
			if err != nil {
				return TextValue(r), nil
			}
			return NumericValue(n), nil
		}

	default:
		switch r := raw.(type) {
		case string:
			return TextValue(r), nil
		case float64:
			return TextValue(strconv.FormatFloat(r, 'f', -1, 64)), nil
		}
	}

	return nil, fmt.Errorf("%w: %s cannot hold %T", ErrValueShape, t, raw)
}

type Answers map[string]Value

// Clone returns a shallow copy; values themselves are never mutated in place.
func (a Answers) Clone() Answers {
	c := make(Answers, len(a))
	for k, v := range a {
		c[k] = v
	}
	return c
}

// DecodeAnswers parses a JSON object of raw answers keyed by field id.
// Answers for unknown fields are rejected.
func DecodeAnswers(fields []Field, data []byte) (Answers, error) {
	raw := map[string]any{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	types := make(map[string]FieldType, len(fields))
	for _, f := range fields {
		types[f.ID] = f.Type
	}

	answers := make(Answers, len(raw))
	for id, r := range raw {
		t, ok := types[id]
		if !ok {
			return nil, fmt.Errorf("unknown field %q", id)
		}
		v, err := ParseValue(t, r)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", id, err)
		}
		if v != nil {
			answers[id] = v
		}
	}
	return answers, nil
}
