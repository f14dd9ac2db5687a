// Package shortcode allocates the short codes that identify published forms
// in shareable links, and resolves codes back to forms.
package shortcode

import (
	"context"
	"errors"
	"math/rand/v2"
	"regexp"
	"strconv"
	"time"
)

const (
	Alphabet    = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	Length      = 6
	MaxAttempts = 10
)

var (
	ErrAllocationExhausted = errors.New("no short code available")
	ErrInvalidCode         = errors.New("short codes may only contain letters and digits")
	ErrCodeTaken           = errors.New("short code already taken")
)

var reCustom = regexp.MustCompile(`^[A-Za-z0-9]{1,32}$`)

// ValidateCustom checks a code chosen by an admin.
func ValidateCustom(code string) error {
	if !reCustom.MatchString(code) {
		return ErrInvalidCode
	}
	return nil
}

// AvailableFunc reports whether code is free to use.
type AvailableFunc func(ctx context.Context, code string) (bool, error)

type Code struct {
	Value string
	// Fallback is set when every random draw collided and Value was derived
	// from the clock instead. Such codes are predictable and may collide.
	Fallback bool
}

type Allocator struct {
	intN        func(n int) int
	now         func() time.Time
	maxAttempts int
}

func NewAllocator() *Allocator {
	return &Allocator{
		intN:        rand.IntN,
		now:         time.Now,
		maxAttempts: MaxAttempts,
	}
}

func (a *Allocator) random() string {
	b := make([]byte, Length)
	for i := range b {
		b[i] = Alphabet[a.intN(len(Alphabet))]
	}
	return string(b)
}

// Generate draws random codes until available accepts one, at most
// MaxAttempts times. After that it returns the clock fallback with
// Fallback set; callers decide whether to accept it. Errors from available
// abort generation.
func (a *Allocator) Generate(ctx context.Context, available AvailableFunc) (Code, error) {
	for attempt := 0; attempt < a.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return Code{}, err
		}
		code := a.random()
		ok, err := available(ctx, code)
		if err != nil {
			return Code{}, err
		}
		if ok {
			return Code{Value: code}, nil
		}
	}
	return Code{Value: a.fallback(), Fallback: true}, nil
}

// fallback is the last six base-36 digits of the current unix time in milliseconds.
func (a *Allocator) fallback() string {
	s := strconv.FormatInt(a.now().UnixMilli(), 36)
	if len(s) > Length {
		s = s[len(s)-Length:]
	}
	return s
}
