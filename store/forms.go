package store

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/mbolis/quick-form/model"
)

const formColumns = `f.id, f.version, f.title, f.description, f.status, COALESCE(f.short_code, ''), f.created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanForm(row rowScanner) (*model.Form, error) {
	f := &model.Form{}
	err := row.Scan(&f.ID, &f.Version, &f.Title, &f.Description, &f.Status, &f.ShortCode, &f.CreatedAt)
	if err != nil {
		return nil, err
	}
	return f, nil
}

// CreateForm inserts form and its fields, assigning ids. A form without a
// status is created as a draft.
func (s *Store) CreateForm(ctx context.Context, form *model.Form) error {
	form.ID = uuid.NewString()
	form.Version = 1
	form.CreatedAt = s.now().UTC()
	if form.Status == "" {
		form.Status = model.Draft
	}

	return s.inTx(ctx, "store.create_form", func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO form (id, version, title, description, status, short_code, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			form.ID, form.Version, form.Title, form.Description, form.Status, nullString(form.ShortCode), form.CreatedAt,
		)
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		if err != nil {
			return errors.Wrap(err, "store.create_form.insert")
		}
		return insertFields(ctx, tx, form.ID, form.Fields)
	})
}

// insertFields writes fields with order_index rewritten to their position.
// Fields keep their id when they have one so that stored answers and rules
// still point at them; ids are unique within a form only.
func insertFields(ctx context.Context, tx *sql.Tx, formID string, fields []model.Field) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO form_field (
			id, form_id, type, label, description, placeholder, options, validation,
			order_index, conditional_logic, is_screener, screener_logic)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return errors.Wrap(err, "store.insert_fields.prepare")
	}
	defer stmt.Close()

	for i := range fields {
		f := &fields[i]
		if f.ID == "" {
			f.ID = uuid.NewString()
		}
		f.OrderIndex = i

		options, err := jsonColumn(f.Options, f.Options != nil)
		if err != nil {
			return errors.Wrap(err, "store.insert_fields.options")
		}
		validation, err := jsonColumn(f.Validation, true)
		if err != nil {
			return errors.Wrap(err, "store.insert_fields.validation")
		}
		logic, err := jsonColumn(f.ConditionalLogic, f.ConditionalLogic != nil)
		if err != nil {
			return errors.Wrap(err, "store.insert_fields.conditional_logic")
		}
		screener, err := jsonColumn(f.ScreenerLogic, f.ScreenerLogic != nil)
		if err != nil {
			return errors.Wrap(err, "store.insert_fields.screener_logic")
		}

		_, err = stmt.ExecContext(ctx,
			f.ID, formID, f.Type, f.Label, f.Description, f.Placeholder, options, validation,
			f.OrderIndex, logic, f.IsScreener, screener,
		)
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		if err != nil {
			return errors.Wrap(err, "store.insert_fields.insert")
		}
	}
	return nil
}

// UpdateForm replaces title, description and fields. form.Version must match
// the stored version (optimistic lock); it is incremented on success.
func (s *Store) UpdateForm(ctx context.Context, form *model.Form) error {
	return s.inTx(ctx, "store.update_form", func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE form
			SET
				title = ?,
				description = ?,
				version = version+1
			WHERE id = ?
				AND version = ?`,
			form.Title,
			form.Description,
			form.ID,
			form.Version,
		)
		if err != nil {
			return errors.Wrap(err, "store.update_form")
		}
		n, err := res.RowsAffected()
		if err != nil {
			return errors.Wrap(err, "store.update_form.verify")
		}
		if n < 1 {
			var exists bool
			err = tx.QueryRowContext(ctx, `SELECT 1 FROM form WHERE id = ?`, form.ID).Scan(&exists)
			if stderrors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			if err != nil {
				return errors.Wrap(err, "store.update_form.exists")
			}
			return ErrConflict
		}

		// delete all fields, then recreate
		_, err = tx.ExecContext(ctx, `DELETE FROM form_field WHERE form_id = ?`, form.ID)
		if err != nil {
			return errors.Wrap(err, "store.update_form.delete_fields")
		}
		if err := insertFields(ctx, tx, form.ID, form.Fields); err != nil {
			return err
		}

		form.Version++
		return nil
	})
}

// GetForm loads a form with its fields regardless of status.
func (s *Store) GetForm(ctx context.Context, id string) (*model.Form, error) {
	form, err := scanForm(s.db.QueryRowContext(ctx, `SELECT `+formColumns+` FROM form f WHERE f.id = ?`, id))
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "store.get_form")
	}

	form.Fields, err = s.Fields(ctx, id)
	if err != nil {
		return nil, err
	}
	return form, nil
}

// ListForms returns forms without fields, newest first. An empty status lists all.
func (s *Store) ListForms(ctx context.Context, status model.Status) ([]model.Form, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+formColumns+`
		FROM form f
		WHERE ? = '' OR f.status = ?
		ORDER BY f.created_at DESC, f.id`,
		status, status,
	)
	if err != nil {
		return nil, errors.Wrap(err, "store.list_forms")
	}
	defer rows.Close()

	forms := []model.Form{}
	for rows.Next() {
		f, err := scanForm(rows)
		if err != nil {
			return nil, errors.Wrap(err, "store.list_forms.scan")
		}
		forms = append(forms, *f)
	}
	return forms, errors.Wrap(rows.Err(), "store.list_forms.rows")
}

// Fields returns the fields of a form ordered by order_index.
func (s *Store) Fields(ctx context.Context, formID string) ([]model.Field, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT
			id, type, label, description, placeholder, options, validation,
			order_index, conditional_logic, is_screener, screener_logic
		FROM form_field
		WHERE form_id = ?
		ORDER BY order_index`,
		formID,
	)
	if err != nil {
		return nil, errors.Wrap(err, "store.fields")
	}
	defer rows.Close()

	fields := []model.Field{}
	for rows.Next() {
		f := model.Field{}
		var options, validation, logic, screener sql.NullString
		err = rows.Scan(
			&f.ID, &f.Type, &f.Label, &f.Description, &f.Placeholder, &options, &validation,
			&f.OrderIndex, &logic, &f.IsScreener, &screener,
		)
		if err != nil {
			return nil, errors.Wrap(err, "store.fields.scan")
		}

		for _, col := range []struct {
			name string
			src  sql.NullString
			dst  any
		}{
			{"options", options, &f.Options},
			{"validation", validation, &f.Validation},
			{"conditional_logic", logic, &f.ConditionalLogic},
			{"screener_logic", screener, &f.ScreenerLogic},
		} {
			if !col.src.Valid {
				continue
			}
			if err := json.Unmarshal([]byte(col.src.String), col.dst); err != nil {
				return nil, errors.Wrapf(err, "store.fields.parse_%s", col.name)
			}
		}

		fields = append(fields, f)
	}
	return fields, errors.Wrap(rows.Err(), "store.fields.rows")
}

// DeleteForm removes a form with its fields, link and responses.
func (s *Store) DeleteForm(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM form WHERE id = ?`, id)
	if err != nil {
		return errors.Wrap(err, "store.delete_form")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "store.delete_form.verify")
	}
	if n < 1 {
		return ErrNotFound
	}
	return nil
}

// DuplicateForm copies a form and its fields into a new draft without a short code.
func (s *Store) DuplicateForm(ctx context.Context, id string) (*model.Form, error) {
	orig, err := s.GetForm(ctx, id)
	if err != nil {
		return nil, err
	}

	dup := &model.Form{
		Title:       orig.Title + " (Copy)",
		Description: orig.Description,
		Status:      model.Draft,
		Fields:      orig.Fields,
	}
	if err := s.CreateForm(ctx, dup); err != nil {
		return nil, err
	}
	return dup, nil
}

func (s *Store) SetStatus(ctx context.Context, id string, status model.Status) error {
	res, err := s.db.ExecContext(ctx, `UPDATE form SET status = ? WHERE id = ?`, status, id)
	if err != nil {
		return errors.Wrap(err, "store.set_status")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "store.set_status.verify")
	}
	if n < 1 {
		return ErrNotFound
	}
	return nil
}
