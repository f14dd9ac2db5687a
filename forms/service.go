// Package forms implements the form lifecycle on top of the store: publishing
// with short link allocation, respondent sessions and reporting.
package forms

import (
	"context"
	"errors"
	"fmt"

	"github.com/mbolis/quick-form/log"
	"github.com/mbolis/quick-form/model"
	"github.com/mbolis/quick-form/schema"
	"github.com/mbolis/quick-form/shortcode"
	"github.com/mbolis/quick-form/store"
)

var (
	ErrNotFound    = errors.New("form not found")
	ErrInvalidForm = errors.New("invalid form")
)

type Service struct {
	store    *store.Store
	alloc    *shortcode.Allocator
	resolver *shortcode.Resolver
	clicks   shortcode.ClickCounter
}

// NewService builds the service. Clicks are counted by clicks, or in the
// short link table when nil.
func NewService(st *store.Store, clicks shortcode.ClickCounter) *Service {
	if clicks == nil {
		clicks = st.ClickCounter()
	}
	return &Service{
		store:    st,
		alloc:    shortcode.NewAllocator(),
		resolver: &shortcode.Resolver{Registry: st, Clicks: clicks},
		clicks:   clicks,
	}
}

func notFound(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return ErrNotFound
	}
	return err
}

// Publish checks the form and makes it reachable. A form that already has a
// short code keeps it; otherwise one is allocated.
func (s *Service) Publish(ctx context.Context, formID string) (*model.Form, error) {
	form, err := s.store.GetForm(ctx, formID)
	if err != nil {
		return nil, notFound(err)
	}
	if err := schema.Check(form); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidForm, err)
	}

	if form.ShortCode == "" {
		code, err := s.allocate(ctx, formID)
		if err != nil {
			return nil, err
		}
		form.ShortCode = code
	}

	if err := s.store.SetStatus(ctx, formID, model.Published); err != nil {
		return nil, notFound(err)
	}
	form.Status = model.Published
	return form, nil
}

func (s *Service) allocate(ctx context.Context, formID string) (string, error) {
	available := func(ctx context.Context, code string) (bool, error) {
		return shortcode.CheckAvailability(ctx, s.store, code, formID)
	}

	code, err := s.alloc.Generate(ctx, available)
	if err != nil {
		return "", err
	}
	if code.Fallback {
		log.WithFields(log.Fields{"form": formID, "code": code.Value}).
			Warn("forms.publish.allocate: random codes exhausted, using clock fallback")
		ok, err := available(ctx, code.Value)
		if err != nil {
			return "", err
		}
		if !ok {
			return "", shortcode.ErrAllocationExhausted
		}
	}

	err = s.store.UpsertShortURL(ctx, formID, code.Value)
	if errors.Is(err, store.ErrDuplicate) {
		// lost a race for the code
		return "", shortcode.ErrAllocationExhausted
	}
	if err != nil {
		return "", notFound(err)
	}
	return code.Value, nil
}

// Close stops a form from accepting responses; its link stops resolving.
func (s *Service) Close(ctx context.Context, formID string) error {
	return notFound(s.store.SetStatus(ctx, formID, model.Closed))
}

// CheckAvailability reports whether code could be assigned to formID.
func (s *Service) CheckAvailability(ctx context.Context, code, formID string) (bool, error) {
	if err := shortcode.ValidateCustom(code); err != nil {
		return false, err
	}
	return shortcode.CheckAvailability(ctx, s.store, code, formID)
}

// SaveShortCode assigns a custom code to a form, replacing its current one.
func (s *Service) SaveShortCode(ctx context.Context, formID, code string) error {
	if _, err := s.store.GetForm(ctx, formID); err != nil {
		return notFound(err)
	}

	ok, err := s.CheckAvailability(ctx, code, formID)
	if err != nil {
		return err
	}
	if !ok {
		return shortcode.ErrCodeTaken
	}

	err = s.store.UpsertShortURL(ctx, formID, code)
	if errors.Is(err, store.ErrDuplicate) {
		return shortcode.ErrCodeTaken
	}
	return notFound(err)
}

// Open resolves a shared code to the form a respondent should fill in.
func (s *Service) Open(ctx context.Context, code string) (*shortcode.Resolution, error) {
	res, err := s.resolver.Resolve(ctx, code)
	if errors.Is(err, shortcode.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	logProblems(res.Form)
	return res, nil
}

func (s *Service) published(ctx context.Context, formID string) (*model.Form, error) {
	form, err := s.store.FindPublishedForm(ctx, formID)
	if err != nil {
		return nil, err
	}
	if form == nil {
		return nil, ErrNotFound
	}
	return form, nil
}
