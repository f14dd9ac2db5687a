package store

import (
	"context"
	"database/sql"
	stderrors "errors"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/mbolis/quick-form/model"
)

// CodeTaken reports whether code is held by a short link or a form other than excludeFormID.
func (s *Store) CodeTaken(ctx context.Context, code, excludeFormID string) (bool, error) {
	var taken bool
	err := s.db.QueryRowContext(ctx, `
		SELECT
			EXISTS (SELECT 1 FROM short_url WHERE short_code = ? AND form_id <> ?)
			OR EXISTS (SELECT 1 FROM form WHERE short_code = ? AND id <> ?)`,
		code, excludeFormID, code, excludeFormID,
	).Scan(&taken)
	if err != nil {
		return false, errors.Wrap(err, "store.code_taken")
	}
	return taken, nil
}

func (s *Store) FindShortURL(ctx context.Context, code string) (*model.ShortURL, error) {
	u := &model.ShortURL{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, form_id, short_code, clicks
		FROM short_url
		WHERE short_code = ?`,
		code,
	).Scan(&u.ID, &u.FormID, &u.ShortCode, &u.Clicks)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "store.find_short_url")
	}
	return u, nil
}

// ShortURLForForm returns the link attached to a form, or nil.
func (s *Store) ShortURLForForm(ctx context.Context, formID string) (*model.ShortURL, error) {
	u := &model.ShortURL{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, form_id, short_code, clicks
		FROM short_url
		WHERE form_id = ?`,
		formID,
	).Scan(&u.ID, &u.FormID, &u.ShortCode, &u.Clicks)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "store.short_url_for_form")
	}
	return u, nil
}

func (s *Store) findPublished(ctx context.Context, code, where string, arg string) (*model.Form, error) {
	form, err := scanForm(s.db.QueryRowContext(ctx, `
		SELECT `+formColumns+`
		FROM form f
		WHERE `+where+`
			AND f.status = ?`,
		arg, model.Published,
	))
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, code)
	}

	form.Fields, err = s.Fields(ctx, form.ID)
	if err != nil {
		return nil, err
	}
	return form, nil
}

// FindPublishedForm loads a published form by id, or nil.
func (s *Store) FindPublishedForm(ctx context.Context, formID string) (*model.Form, error) {
	return s.findPublished(ctx, "store.find_published_form", "f.id = ?", formID)
}

// FindPublishedFormByCode loads a published form by the code stored on the form itself, or nil.
func (s *Store) FindPublishedFormByCode(ctx context.Context, code string) (*model.Form, error) {
	return s.findPublished(ctx, "store.find_published_form_by_code", "f.short_code = ?", code)
}

// UpsertShortURL attaches code to a form, replacing its previous link, and
// mirrors it on the form row. A code held elsewhere yields ErrDuplicate.
func (s *Store) UpsertShortURL(ctx context.Context, formID, code string) error {
	return s.inTx(ctx, "store.upsert_short_url", func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO short_url (id, form_id, short_code)
			VALUES (?, ?, ?)
			ON CONFLICT (form_id) DO UPDATE SET short_code = excluded.short_code`,
			uuid.NewString(), formID, code,
		)
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		if err != nil {
			return errors.Wrap(err, "store.upsert_short_url.insert")
		}
		return setLegacyShortCode(ctx, tx, formID, code)
	})
}

// SetLegacyShortCode stores code on the form row only.
func (s *Store) SetLegacyShortCode(ctx context.Context, formID, code string) error {
	return s.inTx(ctx, "store.set_legacy_short_code", func(tx *sql.Tx) error {
		return setLegacyShortCode(ctx, tx, formID, code)
	})
}

func setLegacyShortCode(ctx context.Context, tx *sql.Tx, formID, code string) error {
	res, err := tx.ExecContext(ctx, `UPDATE form SET short_code = ? WHERE id = ?`, nullString(code), formID)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	if err != nil {
		return errors.Wrap(err, "store.set_short_code")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "store.set_short_code.verify")
	}
	if n < 1 {
		return ErrNotFound
	}
	return nil
}

// IncrementClicks adds one click to the form's link in a single statement.
func (s *Store) IncrementClicks(ctx context.Context, formID string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE short_url SET clicks = clicks + 1 WHERE form_id = ?`, formID)
	if err != nil {
		return errors.Wrap(err, "store.increment_clicks")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "store.increment_clicks.verify")
	}
	if n < 1 {
		return ErrNotFound
	}
	return nil
}

// Clicks returns the click count of the form's link; zero when it has none.
func (s *Store) Clicks(ctx context.Context, formID string) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT COALESCE(SUM(clicks), 0) FROM short_url WHERE form_id = ?`, formID).Scan(&n)
	if err != nil {
		return 0, errors.Wrap(err, "store.clicks")
	}
	return n, nil
}

// ClickCounter adapts the short_url.clicks column to a counter.
type ClickCounter struct {
	store *Store
}

func (s *Store) ClickCounter() ClickCounter {
	return ClickCounter{s}
}

func (c ClickCounter) Increment(ctx context.Context, formID string) error {
	return c.store.IncrementClicks(ctx, formID)
}

func (c ClickCounter) Count(ctx context.Context, formID string) (int64, error) {
	return c.store.Clicks(ctx, formID)
}
