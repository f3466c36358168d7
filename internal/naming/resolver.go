// Package naming derives physical index names for a manager.
package naming

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"
)

const (
	// DefaultSeparator joins the base name and the suffix.
	DefaultSeparator = "-"
	// DefaultTimeFormat renders UTC time with microsecond resolution.
	DefaultTimeFormat = "20060102150405.000000"
	// DefaultMaxAttempts bounds the existence checks per Resolve call.
	DefaultMaxAttempts = 100
)

// ErrNameExhausted is returned when every candidate name was already taken.
var ErrNameExhausted = errors.New("no free index name")

// Policy selects how a physical name is derived.
type Policy int

const (
	// Plain uses the base name verbatim.
	Plain Policy = iota
	// TimeSuffixed appends a monotonic timestamp to the base name.
	TimeSuffixed
)

func (p Policy) String() string {
	switch p {
	case Plain:
		return "plain"
	case TimeSuffixed:
		return "time_suffixed"
	default:
		return "policy(" + strconv.Itoa(int(p)) + ")"
	}
}

// Target is what a Resolver needs to know about a manager.
type Target interface {
	BaseName() string
	IndexExists(ctx context.Context, name string) (bool, error)
}

// Resolver produces physical index names. Timestamps issued by one Resolver
// strictly increase, even when the clock stalls or steps back.
type Resolver struct {
	separator   string
	timeFormat  string
	maxAttempts int
	now         func() time.Time

	mu   sync.Mutex
	last time.Time
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(r *Resolver) { r.now = now }
}

// WithSeparator sets the string between base name and suffix.
func WithSeparator(sep string) Option {
	return func(r *Resolver) {
		if sep != "" {
			r.separator = sep
		}
	}
}

// WithTimeFormat sets the Go layout used for the suffix.
func WithTimeFormat(layout string) Option {
	return func(r *Resolver) {
		if layout != "" {
			r.timeFormat = layout
		}
	}
}

// WithMaxAttempts bounds the candidates tried per Resolve call.
func WithMaxAttempts(n int) Option {
	return func(r *Resolver) {
		if n > 0 {
			r.maxAttempts = n
		}
	}
}

// NewResolver creates a Resolver with the given options.
func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{
		separator:   DefaultSeparator,
		timeFormat:  DefaultTimeFormat,
		maxAttempts: DefaultMaxAttempts,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the name t should use under policy. For TimeSuffixed the
// name was absent from the engine when checked; a concurrent create can still
// claim it before the caller does.
func (r *Resolver) Resolve(ctx context.Context, t Target, policy Policy) (string, error) {
	switch policy {
	case Plain:
		return t.BaseName(), nil
	case TimeSuffixed:
		return r.resolveSuffixed(ctx, t)
	default:
		return "", fmt.Errorf("unsupported naming policy %s", policy)
	}
}

func (r *Resolver) resolveSuffixed(ctx context.Context, t Target) (string, error) {
	stem := t.BaseName() + r.separator + r.nextStamp().Format(r.timeFormat)

	candidate := stem
	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		exists, err := t.IndexExists(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("failed to check index name %s: %w", candidate, err)
		}
		if !exists {
			return candidate, nil
		}
		candidate = stem + r.separator + strconv.Itoa(attempt)
	}

	return "", fmt.Errorf("%w: %s after %d attempts", ErrNameExhausted, stem, r.maxAttempts)
}

// nextStamp returns the current UTC time truncated to microseconds, bumped
// past the previously issued stamp when needed.
func (r *Resolver) nextStamp() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()

	stamp := r.now().UTC().Truncate(time.Microsecond)
	if !stamp.After(r.last) {
		stamp = r.last.Add(time.Microsecond)
	}
	r.last = stamp
	return stamp
}
