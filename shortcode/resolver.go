package shortcode

import (
	"context"
	"errors"

	"github.com/mbolis/quick-form/log"
	"github.com/mbolis/quick-form/model"
)

var ErrNotFound = errors.New("form not found")

// Registry is the storage the allocator and resolver depend on. Lookups
// return a nil record and no error when nothing matches.
type Registry interface {
	// CodeTaken reports whether a form other than excludeFormID holds code.
	CodeTaken(ctx context.Context, code, excludeFormID string) (bool, error)
	FindShortURL(ctx context.Context, code string) (*model.ShortURL, error)
	FindPublishedForm(ctx context.Context, formID string) (*model.Form, error)
	FindPublishedFormByCode(ctx context.Context, code string) (*model.Form, error)
}

// ClickCounter counts link resolutions per form.
type ClickCounter interface {
	Increment(ctx context.Context, formID string) error
	Count(ctx context.Context, formID string) (int64, error)
}

// CheckAvailability reports whether code is free for formID. A form's own
// code does not collide with itself.
func CheckAvailability(ctx context.Context, reg Registry, code, excludeFormID string) (bool, error) {
	taken, err := reg.CodeTaken(ctx, code, excludeFormID)
	if err != nil {
		return false, err
	}
	return !taken, nil
}

type Tier string

const (
	TierShortURL Tier = "short_url"
	TierLegacy   Tier = "form_code"
	TierFormID   Tier = "form_id"
)

type Resolution struct {
	Form *model.Form
	Tier Tier
}

type Resolver struct {
	Registry Registry
	Clicks   ClickCounter
}

// Resolve finds the published form for code, trying the short link table,
// then the code stored on the form, then the code as a form id. A later tier
// is only tried when the earlier one has no entry for the code. Clicks are
// counted once per successful short link resolution; a failed count is
// logged and does not fail the resolution.
func (r *Resolver) Resolve(ctx context.Context, code string) (*Resolution, error) {
	link, err := r.Registry.FindShortURL(ctx, code)
	if err != nil {
		return nil, err
	}
	if link != nil {
		form, err := r.Registry.FindPublishedForm(ctx, link.FormID)
		if err != nil {
			return nil, err
		}
		if form == nil {
			return nil, ErrNotFound
		}
		if err := r.Clicks.Increment(ctx, form.ID); err != nil {
			log.WithFields(log.Fields{"form": form.ID, "code": code}).Warn("shortcode.clicks.increment: ", err)
		}
		return &Resolution{form, TierShortURL}, nil
	}

	form, err := r.Registry.FindPublishedFormByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if form != nil {
		return &Resolution{form, TierLegacy}, nil
	}

	form, err = r.Registry.FindPublishedForm(ctx, code)
	if err != nil {
		return nil, err
	}
	if form != nil {
		return &Resolution{form, TierFormID}, nil
	}

	return nil, ErrNotFound
}
