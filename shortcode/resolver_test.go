package shortcode

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mbolis/quick-form/model"
)

type fakeRegistry struct {
	links map[string]*model.ShortURL // by code
	forms map[string]*model.Form     // by id
	calls []string
}

func (r *fakeRegistry) CodeTaken(_ context.Context, code, excludeFormID string) (bool, error) {
	link, ok := r.links[code]
	return ok && link.FormID != excludeFormID, nil
}

func (r *fakeRegistry) FindShortURL(_ context.Context, code string) (*model.ShortURL, error) {
	r.calls = append(r.calls, "short_url")
	return r.links[code], nil
}

func (r *fakeRegistry) FindPublishedForm(_ context.Context, id string) (*model.Form, error) {
	r.calls = append(r.calls, "form_id")
	f := r.forms[id]
	if f == nil || f.Status != model.Published {
		return nil, nil
	}
	return f, nil
}

func (r *fakeRegistry) FindPublishedFormByCode(_ context.Context, code string) (*model.Form, error) {
	r.calls = append(r.calls, "form_code")
	for _, f := range r.forms {
		if f.ShortCode == code && f.Status == model.Published {
			return f, nil
		}
	}
	return nil, nil
}

type memCounter struct {
	mu     sync.Mutex
	counts map[string]int64
	err    error
}

func (c *memCounter) Increment(_ context.Context, formID string) error {
	if c.err != nil {
		return c.err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.counts == nil {
		c.counts = map[string]int64{}
	}
	c.counts[formID]++
	return nil
}

func (c *memCounter) Count(_ context.Context, formID string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counts[formID], nil
}

func newRegistry() *fakeRegistry {
	return &fakeRegistry{
		links: map[string]*model.ShortURL{
			"cohort": {ID: "l1", FormID: "f1", ShortCode: "cohort"},
			"drafty": {ID: "l2", FormID: "f3", ShortCode: "drafty"},
		},
		forms: map[string]*model.Form{
			"f1": {ID: "f1", Status: model.Published, ShortCode: "cohort"},
			"f2": {ID: "f2", Status: model.Published, ShortCode: "legacy"},
			"f3": {ID: "f3", Status: model.Draft, ShortCode: "drafty"},
			"f4": {ID: "f4", Status: model.Closed, ShortCode: "gone"},
		},
	}
}

func TestResolveTiers(t *testing.T) {
	tests := []struct {
		code  string
		form  string
		tier  Tier
		calls []string
	}{
		{"cohort", "f1", TierShortURL, []string{"short_url", "form_id"}},
		{"legacy", "f2", TierLegacy, []string{"short_url", "form_code"}},
		{"f2", "f2", TierFormID, []string{"short_url", "form_code", "form_id"}},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			reg := newRegistry()
			clicks := &memCounter{}
			r := &Resolver{Registry: reg, Clicks: clicks}

			res, err := r.Resolve(context.Background(), tt.code)
			require.NoError(t, err)
			assert.Equal(t, tt.form, res.Form.ID)
			assert.Equal(t, tt.tier, res.Tier)
			assert.Equal(t, tt.calls, reg.calls)

			n, _ := clicks.Count(context.Background(), tt.form)
			if tt.tier == TierShortURL {
				assert.EqualValues(t, 1, n)
			} else {
				assert.EqualValues(t, 0, n)
			}
		})
	}
}

func TestResolveNotFound(t *testing.T) {
	for _, code := range []string{"nothing", "drafty", "gone", "f3", "f4"} {
		clicks := &memCounter{}
		r := &Resolver{Registry: newRegistry(), Clicks: clicks}

		_, err := r.Resolve(context.Background(), code)
		assert.ErrorIs(t, err, ErrNotFound, code)
		assert.Empty(t, clicks.counts, code)
	}
}

func TestResolveCountsEveryResolution(t *testing.T) {
	clicks := &memCounter{}
	r := &Resolver{Registry: newRegistry(), Clicks: clicks}

	for i := 0; i < 3; i++ {
		_, err := r.Resolve(context.Background(), "cohort")
		require.NoError(t, err)
	}
	n, err := clicks.Count(context.Background(), "f1")
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)
}

func TestResolveSurvivesCounterFailure(t *testing.T) {
	r := &Resolver{Registry: newRegistry(), Clicks: &memCounter{err: errors.New("redis down")}}

	res, err := r.Resolve(context.Background(), "cohort")
	require.NoError(t, err)
	assert.Equal(t, "f1", res.Form.ID)
}

func TestCheckAvailability(t *testing.T) {
	reg := newRegistry()

	ok, err := CheckAvailability(context.Background(), reg, "cohort", "f1")
	require.NoError(t, err)
	assert.True(t, ok, "own code is not a collision")

	ok, err = CheckAvailability(context.Background(), reg, "cohort", "f2")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = CheckAvailability(context.Background(), reg, "fresh1", "f2")
	require.NoError(t, err)
	assert.True(t, ok)
}
