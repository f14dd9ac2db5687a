package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mbolis/quick-form/database"
	"github.com/mbolis/quick-form/model"
	"github.com/mbolis/quick-form/session"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "store.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	s := New(db)
	clock := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	return s
}

func sampleForm() *model.Form {
	return &model.Form{
		Title: "Application",
		Fields: []model.Field{
			{ID: "email", Type: model.Email, Label: "Email", Validation: model.Validation{Required: true}},
			{ID: "interest", Type: model.SingleChoice, Label: "Interest", Options: []model.Option{
				{Label: "Yes", Value: "yes"},
				{Label: "No", Value: "no"},
			}, IsScreener: true, ScreenerLogic: &model.ScreenerLogic{
				Action: model.Disqualify, Operator: model.Equals, Value: "no",
			}},
			{ID: "budget", Type: model.Range, Label: "Budget", ConditionalLogic: &model.ConditionalLogic{
				Action: model.Show, Combinator: model.All,
				Rules: []model.Rule{{FieldID: "interest", Operator: model.Equals, Value: "yes"}},
			}},
		},
	}
}

func createPublished(t *testing.T, s *Store) *model.Form {
	t.Helper()
	ctx := context.Background()
	form := sampleForm()
	require.NoError(t, s.CreateForm(ctx, form))
	require.NoError(t, s.SetStatus(ctx, form.ID, model.Published))
	return form
}

func TestCreateAndGetForm(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	form := sampleForm()
	require.NoError(t, s.CreateForm(ctx, form))
	assert.NotEmpty(t, form.ID)
	assert.Equal(t, 1, form.Version)
	assert.Equal(t, model.Draft, form.Status)

	got, err := s.GetForm(ctx, form.ID)
	require.NoError(t, err)
	assert.Equal(t, "Application", got.Title)
	require.Len(t, got.Fields, 3)
	assert.Equal(t, []string{"email", "interest", "budget"}, []string{got.Fields[0].ID, got.Fields[1].ID, got.Fields[2].ID})
	assert.Equal(t, 2, got.Fields[2].OrderIndex)
	assert.True(t, got.Fields[0].Validation.Required)
	assert.True(t, got.Fields[1].IsScreener)
	require.NotNil(t, got.Fields[1].ScreenerLogic)
	assert.Equal(t, "no", got.Fields[1].ScreenerLogic.Value)
	require.NotNil(t, got.Fields[2].ConditionalLogic)
	assert.Equal(t, "interest", got.Fields[2].ConditionalLogic.Rules[0].FieldID)
	assert.Nil(t, got.Fields[0].ConditionalLogic)

	_, err = s.GetForm(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateFormVersionLock(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	form := sampleForm()
	require.NoError(t, s.CreateForm(ctx, form))

	form.Title = "Renamed"
	form.Fields = form.Fields[:2]
	require.NoError(t, s.UpdateForm(ctx, form))
	assert.Equal(t, 2, form.Version)

	got, err := s.GetForm(ctx, form.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Title)
	assert.Equal(t, 2, got.Version)
	assert.Len(t, got.Fields, 2)

	stale := *form
	stale.Version = 1
	assert.ErrorIs(t, s.UpdateForm(ctx, &stale), ErrConflict)

	missing := &model.Form{ID: "missing", Version: 1, Title: "x"}
	assert.ErrorIs(t, s.UpdateForm(ctx, missing), ErrNotFound)
}

func TestListAndDeleteForms(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	draft := sampleForm()
	require.NoError(t, s.CreateForm(ctx, draft))
	published := createPublished(t, s)

	all, err := s.ListForms(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	only, err := s.ListForms(ctx, model.Published)
	require.NoError(t, err)
	require.Len(t, only, 1)
	assert.Equal(t, published.ID, only[0].ID)

	require.NoError(t, s.DeleteForm(ctx, draft.ID))
	assert.ErrorIs(t, s.DeleteForm(ctx, draft.ID), ErrNotFound)
	_, err = s.GetForm(ctx, draft.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDuplicateForm(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	orig := createPublished(t, s)
	require.NoError(t, s.UpsertShortURL(ctx, orig.ID, "abc123"))

	dup, err := s.DuplicateForm(ctx, orig.ID)
	require.NoError(t, err)
	assert.NotEqual(t, orig.ID, dup.ID)
	assert.Equal(t, "Application (Copy)", dup.Title)
	assert.Equal(t, model.Draft, dup.Status)

	got, err := s.GetForm(ctx, dup.ID)
	require.NoError(t, err)
	assert.Empty(t, got.ShortCode)
	require.Len(t, got.Fields, 3)
	assert.Equal(t, "interest", got.Fields[2].ConditionalLogic.Rules[0].FieldID)

	// the source form is untouched
	orig, err = s.GetForm(ctx, orig.ID)
	require.NoError(t, err)
	assert.Equal(t, "abc123", orig.ShortCode)
	assert.Len(t, orig.Fields, 3)
}

func TestResolutionTiers(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	form := createPublished(t, s)
	draft := sampleForm()
	require.NoError(t, s.CreateForm(ctx, draft))

	require.NoError(t, s.UpsertShortURL(ctx, form.ID, "abc123"))

	link, err := s.FindShortURL(ctx, "abc123")
	require.NoError(t, err)
	require.NotNil(t, link)
	assert.Equal(t, form.ID, link.FormID)

	link, err = s.FindShortURL(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, link)

	byCode, err := s.FindPublishedFormByCode(ctx, "abc123")
	require.NoError(t, err)
	require.NotNil(t, byCode)
	assert.Len(t, byCode.Fields, 3)

	byID, err := s.FindPublishedForm(ctx, form.ID)
	require.NoError(t, err)
	assert.NotNil(t, byID)

	unpublished, err := s.FindPublishedForm(ctx, draft.ID)
	require.NoError(t, err)
	assert.Nil(t, unpublished)
}

func TestCodeTakenAndUpsert(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a := createPublished(t, s)
	b := createPublished(t, s)

	require.NoError(t, s.UpsertShortURL(ctx, a.ID, "first1"))

	taken, err := s.CodeTaken(ctx, "first1", a.ID)
	require.NoError(t, err)
	assert.False(t, taken)

	taken, err = s.CodeTaken(ctx, "first1", b.ID)
	require.NoError(t, err)
	assert.True(t, taken)

	assert.ErrorIs(t, s.UpsertShortURL(ctx, b.ID, "first1"), ErrDuplicate)

	// replacing a form's code keeps one link per form
	require.NoError(t, s.UpsertShortURL(ctx, a.ID, "second"))
	link, err := s.ShortURLForForm(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "second", link.ShortCode)
	old, err := s.FindShortURL(ctx, "first1")
	require.NoError(t, err)
	assert.Nil(t, old)

	got, err := s.GetForm(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "second", got.ShortCode)

	// a code living only on the form row counts as taken
	require.NoError(t, s.SetLegacyShortCode(ctx, b.ID, "legacy"))
	taken, err = s.CodeTaken(ctx, "legacy", a.ID)
	require.NoError(t, err)
	assert.True(t, taken)
}

func TestClickCounter(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	form := createPublished(t, s)
	counter := s.ClickCounter()

	n, err := counter.Count(ctx, form.ID)
	require.NoError(t, err)
	assert.Zero(t, n)

	assert.ErrorIs(t, counter.Increment(ctx, form.ID), ErrNotFound)

	require.NoError(t, s.UpsertShortURL(ctx, form.ID, "clicks"))
	for range 3 {
		require.NoError(t, counter.Increment(ctx, form.ID))
	}
	n, err = counter.Count(ctx, form.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)
}

func TestResponses(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	form := createPublished(t, s)

	dqID, err := s.InsertDisqualified(ctx, form.ID, &session.Disqualification{
		Status:         model.Disqualified,
		DisqualifiedBy: "interest",
		Value:          model.TextValue("no"),
	})
	require.NoError(t, err)

	okID, err := s.InsertCompleted(ctx, form.ID, &session.Payload{
		Status:          model.Completed,
		RespondentEmail: "a@b.co",
		Fields: []session.FieldValue{
			{FieldID: "email", Value: model.TextValue("a@b.co")},
			{FieldID: "interest", Value: model.TextValue("yes")},
			{FieldID: "budget", Value: model.NumericValue(4)},
		},
	})
	require.NoError(t, err)

	responses, err := s.ListResponses(ctx, form.ID)
	require.NoError(t, err)
	require.Len(t, responses, 2)

	dq := responses[0]
	assert.Equal(t, dqID, dq.ID)
	assert.Equal(t, model.Disqualified, dq.Status)
	assert.Equal(t, "interest", dq.DisqualifiedBy)
	assert.Empty(t, dq.Fields)

	ok := responses[1]
	assert.Equal(t, okID, ok.ID)
	assert.Equal(t, "a@b.co", ok.RespondentEmail)
	require.Len(t, ok.Fields, 3)
	assert.Equal(t, "Budget", ok.Fields[2].Label)
	assert.Equal(t, model.NumericValue(4), ok.Fields[2].Value)

	stats, err := s.ResponseStats(ctx, form.ID)
	require.NoError(t, err)
	assert.Equal(t, ResponseStats{Total: 2, Completed: 1, Disqualified: 1}, stats)
}

func TestResponsesOutliveFields(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	form := createPublished(t, s)
	_, err := s.InsertCompleted(ctx, form.ID, &session.Payload{
		Status: model.Completed,
		Fields: []session.FieldValue{
			{FieldID: "budget", Value: model.NumericValue(7)},
			{FieldID: "gone", Value: model.MultiValue{"a", "b"}},
		},
	})
	require.NoError(t, err)

	responses, err := s.ListResponses(ctx, form.ID)
	require.NoError(t, err)
	require.Len(t, responses, 1)
	require.Len(t, responses[0].Fields, 2)
	assert.Equal(t, "", responses[0].Fields[1].Label)
	assert.Equal(t, model.MultiValue{"a", "b"}, responses[0].Fields[1].Value)
}

func TestResponsesOutliveFieldTypeChange(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	form := &model.Form{
		Title: "Tags",
		Fields: []model.Field{{ID: "tags", Type: model.MultiChoice, Label: "Tags", Options: []model.Option{
			{Label: "A", Value: "a"},
		}}},
	}
	require.NoError(t, s.CreateForm(ctx, form))
	_, err := s.InsertCompleted(ctx, form.ID, &session.Payload{
		Status: model.Completed,
		Fields: []session.FieldValue{{FieldID: "tags", Value: model.MultiValue{"a"}}},
	})
	require.NoError(t, err)

	form.Fields[0].Type = model.ShortText
	form.Fields[0].Options = nil
	require.NoError(t, s.UpdateForm(ctx, form))

	responses, err := s.ListResponses(ctx, form.ID)
	require.NoError(t, err)
	require.Len(t, responses, 1)
	require.Len(t, responses[0].Fields, 1)
	assert.Equal(t, "Tags", responses[0].Fields[0].Label)
	assert.Equal(t, model.MultiValue{"a"}, responses[0].Fields[0].Value)
}

func TestMatchesDisqualified(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	form := createPublished(t, s)
	dq := &session.Disqualification{
		Status:         model.Disqualified,
		DisqualifiedBy: "interest",
		Value:          model.TextValue("no"),
	}
	id, err := s.InsertDisqualified(ctx, form.ID, dq)
	require.NoError(t, err)

	ok, err := s.MatchesDisqualified(ctx, form.ID, id, dq)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.MatchesDisqualified(ctx, form.ID, id, &session.Disqualification{
		Status:         model.Disqualified,
		DisqualifiedBy: "interest",
		Value:          model.TextValue("maybe"),
	})
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = s.MatchesDisqualified(ctx, "other-form", id, dq)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = s.MatchesDisqualified(ctx, form.ID, "missing", dq)
	require.NoError(t, err)
	assert.False(t, ok)
}
