package forms

import (
	"context"
	"fmt"

	"github.com/mbolis/quick-form/log"
	"github.com/mbolis/quick-form/model"
	"github.com/mbolis/quick-form/rules"
	"github.com/mbolis/quick-form/session"
	"github.com/mbolis/quick-form/validation"
)

// Answer is one answer event sent by a respondent's client.
type Answer struct {
	FieldID string `json:"fieldId"`
	Value   any    `json:"value"`
}

// Result is the outcome of a submission. When Errors is set nothing was stored.
type Result struct {
	ResponseID       string
	Disqualification *session.Disqualification
	Errors           validation.Errors
}

func logProblems(form *model.Form) {
	for _, p := range rules.Check(form.Fields) {
		log.WithFields(log.Fields{"form": form.ID, "field": p.FieldID}).Warn("forms.rules: ", p.Reason)
	}
}

func answer(sess *session.Session, a Answer) (*session.Disqualification, error) {
	field, ok := sess.Field(a.FieldID)
	if !ok {
		return nil, fmt.Errorf("%w %q", session.ErrUnknownField, a.FieldID)
	}
	value, err := model.ParseValue(field.Type, a.Value)
	if err != nil {
		return nil, fmt.Errorf("field %q: %w", a.FieldID, err)
	}
	return sess.SetAnswer(a.FieldID, value)
}

// Screen checks a single answer against its field's screener while the
// respondent is still filling in the form. A disqualification is stored
// before it is returned; a nil result means the answer passed.
func (s *Service) Screen(ctx context.Context, formID string, a Answer) (*Result, error) {
	form, err := s.published(ctx, formID)
	if err != nil {
		return nil, err
	}

	dq, err := answer(session.New(form.Fields), a)
	if err != nil || dq == nil {
		return nil, err
	}

	id, err := s.store.InsertDisqualified(ctx, formID, dq)
	if err != nil {
		return nil, err
	}
	return &Result{ResponseID: id, Disqualification: dq}, nil
}

// Submit replays answers in order through a new session. The first screener
// that fires ends the session and is stored as a disqualified response; the
// remaining answers are ignored. Validation failures store nothing.
func (s *Service) Submit(ctx context.Context, formID string, answers []Answer) (*Result, error) {
	return s.SubmitScreened(ctx, formID, "", answers)
}

// SubmitScreened is Submit for a respondent already screened out by Screen.
// When the replay disqualifies on the same field and value recorded under
// screenedID, that response is returned instead of storing another one.
func (s *Service) SubmitScreened(ctx context.Context, formID, screenedID string, answers []Answer) (*Result, error) {
	form, err := s.published(ctx, formID)
	if err != nil {
		return nil, err
	}
	logProblems(form)

	sess := session.New(form.Fields)
	for _, a := range answers {
		dq, err := answer(sess, a)
		if err != nil {
			return nil, err
		}
		if dq == nil {
			continue
		}

		if screenedID != "" {
			seen, err := s.store.MatchesDisqualified(ctx, formID, screenedID, dq)
			if err != nil {
				return nil, err
			}
			if seen {
				return &Result{ResponseID: screenedID, Disqualification: dq}, nil
			}
		}

		id, err := s.store.InsertDisqualified(ctx, formID, dq)
		if err != nil {
			return nil, err
		}
		log.WithFields(log.Fields{"form": formID, "field": dq.DisqualifiedBy}).Debug("forms.submit: disqualified")
		return &Result{ResponseID: id, Disqualification: dq}, nil
	}

	payload, errs, err := sess.Submit()
	if err != nil {
		return nil, err
	}
	if errs != nil {
		return &Result{Errors: errs}, nil
	}

	id, err := s.store.InsertCompleted(ctx, formID, payload)
	if err != nil {
		return nil, err
	}
	return &Result{ResponseID: id}, nil
}
