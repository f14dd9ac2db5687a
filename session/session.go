// Package session runs one respondent's pass through a form: it records
// answers, tracks which fields are live, and ends either submitted or
// disqualified. Sessions are not safe for concurrent use; a respondent
// drives exactly one.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"iter"

	"github.com/mbolis/quick-form/model"
	"github.com/mbolis/quick-form/rules"
	"github.com/mbolis/quick-form/validation"
)

type State string

const (
	Active       State = "active"
	Submitted    State = "submitted"
	Disqualified State = "disqualified"
)

var (
	ErrClosed       = errors.New("session is not active")
	ErrUnknownField = errors.New("unknown field")
)

// Disqualification is the partial record handed to storage as soon as a
// screener fires.
type Disqualification struct {
	Status         model.ResponseStatus `json:"status"`
	DisqualifiedBy string               `json:"disqualified_by"`
	Value          model.Value          `json:"value"`
}

type Session struct {
	fields  []model.Field
	index   map[string]int
	eval    *rules.Evaluator
	state   State
	answers model.Answers
	dq      *Disqualification
}

// New starts an active session with no answers. Fields are ordered by order
// index. Fields without an id are shown but cannot be answered.
func New(fields []model.Field) *Session {
	sorted := model.SortFields(fields)
	index := make(map[string]int, len(sorted))
	for i, f := range sorted {
		if f.ID != "" {
			index[f.ID] = i
		}
	}
	return &Session{
		fields:  sorted,
		index:   index,
		eval:    rules.NewEvaluator(sorted),
		state:   Active,
		answers: model.Answers{},
	}
}

func (s *Session) State() State {
	return s.state
}

func (s *Session) Answers() model.Answers {
	return s.answers.Clone()
}

func (s *Session) Disqualification() *Disqualification {
	return s.dq
}

// Problems lists malformed rules; the affected fields are treated as always
// visible and never disqualifying.
func (s *Session) Problems() []*rules.SchemaError {
	return s.eval.Problems()
}

func (s *Session) Field(id string) (model.Field, bool) {
	i, ok := s.index[id]
	if !ok {
		return model.Field{}, false
	}
	return s.fields[i], true
}

// SetAnswer records value for the field. A nil value clears the answer.
// When the field's screener fires the value is still recorded, the session
// becomes disqualified, and the returned record must be stored by the caller.
// Once the session has ended, SetAnswer changes nothing and returns ErrClosed.
func (s *Session) SetAnswer(fieldID string, value model.Value) (*Disqualification, error) {
	if s.state != Active {
		return nil, ErrClosed
	}
	i, ok := s.index[fieldID]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownField, fieldID)
	}

	disqualify := s.eval.Disqualifies(i, value)

	if value == nil {
		delete(s.answers, fieldID)
	} else {
		s.answers[fieldID] = value
	}

	if !disqualify {
		return nil, nil
	}
	s.state = Disqualified
	s.dq = &Disqualification{
		Status:         model.Disqualified,
		DisqualifiedBy: fieldID,
		Value:          value,
	}
	return s.dq, nil
}

// VisibleFields yields the live fields in order. Visibility is recomputed
// on every iteration, so the sequence always reflects the current answers.
func (s *Session) VisibleFields() iter.Seq[model.Field] {
	return func(yield func(model.Field) bool) {
		for i, f := range s.fields {
			if !s.eval.Visible(i, s.answers) {
				continue
			}
			if !yield(f) {
				return
			}
		}
	}
}

// Submit validates every live field. On failure the session stays active and
// the errors are returned; otherwise it becomes submitted and returns the
// payload to store.
func (s *Session) Submit() (*Payload, validation.Errors, error) {
	if s.state != Active {
		return nil, nil, ErrClosed
	}

	errs := validation.Errors{}
	for f := range s.VisibleFields() {
		if f.ID == "" {
			continue
		}
		if err := validation.Validate(f, s.answers[f.ID]); err != nil {
			errs[f.ID] = err.Message
		}
	}
	if len(errs) > 0 {
		return nil, errs, nil
	}

	payload := assemble(s.eval, s.fields, s.answers)
	s.state = Submitted
	return &payload, nil, nil
}

type snapshot struct {
	State          State           `json:"state"`
	Answers        json.RawMessage `json:"answers"`
	DisqualifiedBy string          `json:"disqualified_by,omitempty"`
}

// Snapshot serializes the session state. Fields are not included; pass the
// same field list to Restore.
func (s *Session) Snapshot() ([]byte, error) {
	answers, err := json.Marshal(s.answers)
	if err != nil {
		return nil, err
	}
	snap := snapshot{State: s.state, Answers: answers}
	if s.dq != nil {
		snap.DisqualifiedBy = s.dq.DisqualifiedBy
	}
	return json.Marshal(snap)
}

func Restore(fields []model.Field, data []byte) (*Session, error) {
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, err
	}

	s := New(fields)
	if len(snap.Answers) > 0 {
		answers, err := model.DecodeAnswers(s.fields, snap.Answers)
		if err != nil {
			return nil, err
		}
		s.answers = answers
	}

	switch snap.State {
	case Active, Submitted:
		s.state = snap.State
	case Disqualified:
		s.state = Disqualified
		s.dq = &Disqualification{
			Status:         model.Disqualified,
			DisqualifiedBy: snap.DisqualifiedBy,
			Value:          s.answers[snap.DisqualifiedBy],
		}
	default:
		return nil, fmt.Errorf("unknown session state %q", snap.State)
	}
	return s, nil
}
