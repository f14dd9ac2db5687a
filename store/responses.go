package store

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/mbolis/quick-form/model"
	"github.com/mbolis/quick-form/session"
)

type responseMetadata struct {
	DisqualifiedBy string          `json:"disqualified_by,omitempty"`
	Value          json.RawMessage `json:"value,omitempty"`
}

// InsertCompleted stores a completed payload with one row per answered field.
func (s *Store) InsertCompleted(ctx context.Context, formID string, payload *session.Payload) (string, error) {
	id := uuid.NewString()
	err := s.inTx(ctx, "store.insert_completed", func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO form_response (id, form_id, status, respondent_email, submitted_at)
			VALUES (?, ?, ?, ?, ?)`,
			id, formID, model.Completed, payload.RespondentEmail, s.now().UTC(),
		)
		if err != nil {
			return errors.Wrap(err, "store.insert_completed.response")
		}

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO form_response_field (response_id, field_id, position, value)
			VALUES (?, ?, ?, ?)`)
		if err != nil {
			return errors.Wrap(err, "store.insert_completed.prepare")
		}
		defer stmt.Close()

		for i, fv := range payload.Fields {
			value, err := json.Marshal(fv.Value)
			if err != nil {
				return errors.Wrap(err, "store.insert_completed.encode")
			}
			_, err = stmt.ExecContext(ctx, id, fv.FieldID, i, string(value))
			if err != nil {
				return errors.Wrap(err, "store.insert_completed.field")
			}
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

// InsertDisqualified stores the partial record of a screened-out respondent.
// Only the screener and the value that fired it are kept.
func (s *Store) InsertDisqualified(ctx context.Context, formID string, dq *session.Disqualification) (string, error) {
	value, err := json.Marshal(dq.Value)
	if err != nil {
		return "", errors.Wrap(err, "store.insert_disqualified.encode")
	}
	metadata, err := json.Marshal(responseMetadata{DisqualifiedBy: dq.DisqualifiedBy, Value: value})
	if err != nil {
		return "", errors.Wrap(err, "store.insert_disqualified.metadata")
	}

	id := uuid.NewString()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO form_response (id, form_id, status, metadata, submitted_at)
		VALUES (?, ?, ?, ?, ?)`,
		id, formID, model.Disqualified, string(metadata), s.now().UTC(),
	)
	if err != nil {
		return "", errors.Wrap(err, "store.insert_disqualified")
	}
	return id, nil
}

// MatchesDisqualified reports whether id is a disqualified response of the
// form recorded for the same field and value as dq.
func (s *Store) MatchesDisqualified(ctx context.Context, formID, id string, dq *session.Disqualification) (bool, error) {
	var metadata sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT metadata FROM form_response
		WHERE id = ? AND form_id = ? AND status = ?`,
		id, formID, model.Disqualified,
	).Scan(&metadata)
	if stderrors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrap(err, "store.matches_disqualified")
	}

	var meta responseMetadata
	if err := json.Unmarshal([]byte(metadata.String), &meta); err != nil {
		return false, nil
	}
	value, err := json.Marshal(dq.Value)
	if err != nil {
		return false, errors.Wrap(err, "store.matches_disqualified.encode")
	}
	return meta.DisqualifiedBy == dq.DisqualifiedBy && bytes.Equal(meta.Value, value), nil
}

// ListResponses returns all responses of a form, oldest first, with their
// answers labelled by the current fields.
func (s *Store) ListResponses(ctx context.Context, formID string) ([]model.Response, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, status, respondent_email, metadata, submitted_at
		FROM form_response
		WHERE form_id = ?
		ORDER BY submitted_at, id`,
		formID,
	)
	if err != nil {
		return nil, errors.Wrap(err, "store.list_responses")
	}
	defer rows.Close()

	responses := []model.Response{}
	index := map[string]int{}
	for rows.Next() {
		r := model.Response{FormID: formID, Fields: []model.ResponseField{}}
		var metadata string
		err = rows.Scan(&r.ID, &r.Status, &r.RespondentEmail, &metadata, &r.SubmittedAt)
		if err != nil {
			return nil, errors.Wrap(err, "store.list_responses.scan")
		}

		var meta responseMetadata
		if err := json.Unmarshal([]byte(metadata), &meta); err != nil {
			return nil, errors.Wrap(err, "store.list_responses.metadata")
		}
		r.DisqualifiedBy = meta.DisqualifiedBy

		index[r.ID] = len(responses)
		responses = append(responses, r)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "store.list_responses.rows")
	}

	fieldRows, err := s.db.QueryContext(ctx, `
		SELECT rf.response_id, rf.field_id, COALESCE(ff.label, ''), COALESCE(ff.type, ''), rf.value
		FROM form_response_field rf
		JOIN form_response r ON r.id = rf.response_id
		LEFT JOIN form_field ff ON ff.form_id = r.form_id AND ff.id = rf.field_id
		WHERE r.form_id = ?
		ORDER BY rf.response_id, rf.position`,
		formID,
	)
	if err != nil {
		return nil, errors.Wrap(err, "store.list_responses.fields")
	}
	defer fieldRows.Close()

	for fieldRows.Next() {
		var responseID, fieldType, raw string
		var rf model.ResponseField
		err = fieldRows.Scan(&responseID, &rf.FieldID, &rf.Label, &fieldType, &raw)
		if err != nil {
			return nil, errors.Wrap(err, "store.list_responses.fields.scan")
		}
		rf.Value, err = decodeStoredValue(model.FieldType(fieldType), raw)
		if err != nil {
			return nil, errors.Wrapf(err, "store.list_responses.fields.value[%s]", rf.FieldID)
		}

		i, ok := index[responseID]
		if !ok {
			continue
		}
		responses[i].Fields = append(responses[i].Fields, rf)
	}
	return responses, errors.Wrap(fieldRows.Err(), "store.list_responses.fields.rows")
}

// decodeStoredValue reads an answer back. Answers to fields that no longer
// exist, or whose type changed since, are typed by their JSON shape.
func decodeStoredValue(t model.FieldType, raw string) (model.Value, error) {
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return nil, err
	}
	if t != "" {
		if value, err := model.ParseValue(t, v); err == nil {
			return value, nil
		}
	}
	return model.ParseValue(shapeType(v), v)
}

func shapeType(v any) model.FieldType {
	switch v.(type) {
	case []any:
		return model.MultiChoice
	case float64:
		return model.Range
	}
	return model.ShortText
}

type ResponseStats struct {
	Total        int64
	Completed    int64
	Disqualified int64
}

func (s *Store) ResponseStats(ctx context.Context, formID string) (ResponseStats, error) {
	var stats ResponseStats
	err := s.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(status = 'completed'), 0),
			COALESCE(SUM(status = 'disqualified'), 0)
		FROM form_response
		WHERE form_id = ?`,
		formID,
	).Scan(&stats.Total, &stats.Completed, &stats.Disqualified)
	if err != nil {
		return stats, errors.Wrap(err, "store.response_stats")
	}
	return stats, nil
}
