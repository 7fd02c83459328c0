// Package sync holds the options of an import run and the summary it
// returns.
package sync

import (
	"strings"

	"github.com/agentstation/pimsync/pkg/errors"
)

// Options controls one import run.
type Options struct {
	SkipImages     bool   // Reconcile products only
	SkipMetafields bool   // Do not provision or write metafields
	Trigger        string // Who started the run, recorded in the run log
}

// Apply applies the given options to the run options.
func (s *Options) Apply(opts ...Option) *Options {
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Defaults returns the default run options.
func Defaults() *Options {
	return &Options{
		SkipImages:     false,
		SkipMetafields: false,
		Trigger:        "manual",
	}
}

// Option is a function that configures run Options.
type Option func(*Options)

// Validate checks if the run options are valid.
func (s *Options) Validate() error {
	if strings.TrimSpace(s.Trigger) == "" {
		return &errors.ValidationError{
			Field:   "Trigger",
			Value:   s.Trigger,
			Message: "trigger must not be blank",
		}
	}
	return nil
}

// WithSkipImages configures whether the media stages run.
func WithSkipImages(skip bool) Option {
	return func(opts *Options) {
		opts.SkipImages = skip
	}
}

// WithSkipMetafields configures whether metafields are provisioned and written.
func WithSkipMetafields(skip bool) Option {
	return func(opts *Options) {
		opts.SkipMetafields = skip
	}
}

// WithTrigger records who started the run.
func WithTrigger(trigger string) Option {
	return func(opts *Options) {
		opts.Trigger = trigger
	}
}

// StyleIDs normalizes requested style codes: trimmed, upper-cased,
// de-duplicated, blanks dropped. At least one code is required.
func StyleIDs(ids []string) ([]string, error) {
	seen := make(map[string]bool, len(ids))
	var out []string
	for _, id := range ids {
		id = strings.ToUpper(strings.TrimSpace(id))
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	if len(out) == 0 {
		return nil, errors.NewValidationError("style_ids", ids, "at least one style code is required")
	}
	return out, nil
}
