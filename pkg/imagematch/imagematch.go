// Package imagematch chooses each variant's main image. Every distinct
// color of a product gets exactly one image, picked by an ordered cascade
// of matching strategies, which is then assigned to the variants of that
// color that still lack an image.
package imagematch

import (
	"context"
	"strings"
	"time"

	"github.com/agentstation/pimsync/internal/textnorm"
	"github.com/agentstation/pimsync/internal/wait"
	"github.com/agentstation/pimsync/pkg/constants"
	"github.com/agentstation/pimsync/pkg/errors"
	"github.com/agentstation/pimsync/pkg/logging"
)

// Assigner sets a variant's main image. The three methods are alternative
// mutations tried in this order.
type Assigner interface {
	AppendVariantMedia(ctx context.Context, productID, variantID, mediaID string) error
	BulkSetVariantMedia(ctx context.Context, productID, variantID, mediaID string) error
	UpdateVariantMedia(ctx context.Context, variantID, mediaID string) error
}

// Product is a catalog product with the images attached to it.
type Product struct {
	ID       string
	StyleID  string
	Variants []Variant
	Images   []Candidate
}

// Variant is a catalog variant keyed by its color label.
type Variant struct {
	ID       string
	Color    string
	HasImage bool
}

// Assignment is the image chosen for one variant.
type Assignment struct {
	VariantID string    `json:"variant_id" yaml:"variant_id"`
	Color     string    `json:"color" yaml:"color"`
	ColorCode string    `json:"color_code,omitempty" yaml:"color_code,omitempty"`
	Image     Candidate `json:"image" yaml:"image"`
	Strategy  string    `json:"strategy" yaml:"strategy"`
	Mutation  string    `json:"mutation,omitempty" yaml:"mutation,omitempty"`
}

// Report is the outcome of Apply.
type Report struct {
	Assigned []Assignment
	Failed   []Assignment
	Errors   []error
}

// Matcher plans and applies variant image assignments.
type Matcher struct {
	assigner   Assigner
	sleep      wait.Func
	pacer      *wait.Pacer
	maxRetries int
	retryBase  time.Duration
}

// Option configures a Matcher.
type Option func(*Matcher)

// WithSleep replaces the wait function.
func WithSleep(f wait.Func) Option {
	return func(m *Matcher) {
		if f != nil {
			m.sleep = f
		}
	}
}

// WithPacer spaces assignment mutations.
func WithPacer(p *wait.Pacer) Option {
	return func(m *Matcher) {
		m.pacer = p
	}
}

// New creates a Matcher.
func New(assigner Assigner, opts ...Option) *Matcher {
	m := &Matcher{
		assigner:   assigner,
		sleep:      wait.Sleep,
		maxRetries: constants.AssignMaxRetries,
		retryBase:  constants.AssignRetryBase,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// MatchColor picks the image for one color label. The error is a
// *errors.MatchError naming the strategies and candidates tried.
func MatchColor(styleID, colorLabel string, images []Candidate) (Candidate, string, error) {
	t := newTarget(styleID, colorLabel)
	c := t.cascade()
	if hit, ok := c.First(images); ok {
		return hit.Candidate, hit.Strategy, nil
	}
	names := make([]string, len(images))
	for i, img := range images {
		names[i] = img.FileName
		if img.Alt != "" {
			names[i] += " (" + img.Alt + ")"
		}
	}
	tried := c.Names()
	if t.code == "" {
		tried = append([]string{"code patterns: none matched"}, tried...)
	}
	return Candidate{}, "", &errors.MatchError{
		Subject:    "color " + colorLabel,
		Wanted:     t.code,
		Tried:      tried,
		Candidates: names,
	}
}

// MatchOneImagePerColor maps each variant that needs an image to the one
// image chosen for its color. Colors without a match produce an error and
// leave their variants unassigned.
func MatchOneImagePerColor(p Product) (map[string]Assignment, []error) {
	type colorGroup struct {
		label    string
		variants []Variant
	}
	var order []string
	groups := make(map[string]*colorGroup)
	for _, v := range p.Variants {
		key := textnorm.Fold(v.Color)
		g, ok := groups[key]
		if !ok {
			g = &colorGroup{label: v.Color}
			groups[key] = g
			order = append(order, key)
		}
		g.variants = append(g.variants, v)
	}

	out := make(map[string]Assignment)
	var errs []error
	for _, key := range order {
		g := groups[key]
		needing := g.variants[:0:0]
		for _, v := range g.variants {
			if !v.HasImage {
				needing = append(needing, v)
			}
		}
		if len(needing) == 0 {
			continue
		}
		img, strategy, err := MatchColor(p.StyleID, g.label, p.Images)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		code, _ := ExtractColorCode(g.label)
		for _, v := range needing {
			out[v.ID] = Assignment{VariantID: v.ID, Color: g.label, ColorCode: code, Image: img, Strategy: strategy}
		}
	}
	return out, errs
}

// Apply plans the product's assignments and issues one assignment per
// variant in variant order. A failing variant never stops the others.
func (m *Matcher) Apply(ctx context.Context, p Product) Report {
	logger := logging.FromContext(ctx)
	plan, errs := MatchOneImagePerColor(p)
	report := Report{Errors: errs}
	for _, err := range errs {
		logger.Warn().Err(err).Str("product_id", p.ID).Msg("no image for color")
	}

	for _, v := range p.Variants {
		a, ok := plan[v.ID]
		if !ok {
			continue
		}
		mutation, err := m.assign(ctx, p.ID, a)
		if err != nil {
			if ctx.Err() != nil {
				report.Errors = append(report.Errors, ctx.Err())
				return report
			}
			logger.Error().Err(err).
				Str("variant_id", a.VariantID).
				Str("asset_id", a.Image.AssetID).
				Msg("variant image assignment failed")
			report.Failed = append(report.Failed, a)
			report.Errors = append(report.Errors, errors.WrapResource("assign image to", "variant", a.VariantID, err))
			continue
		}
		a.Mutation = mutation
		logger.Debug().
			Str("variant_id", a.VariantID).
			Str("asset_id", a.Image.AssetID).
			Str("strategy", a.Strategy).
			Str("mutation", mutation).
			Msg("variant image assigned")
		report.Assigned = append(report.Assigned, a)
	}
	return report
}

// Mutation names, in the order they are tried.
const (
	MutationAppendMedia = "productVariantAppendMedia"
	MutationBulkUpdate  = "productVariantsBulkUpdate"
	MutationUpdate      = "productVariantUpdate"
)

// assign tries the mutations in order. A "still processing" failure ends
// the round and, while retries remain, waits retry*retryBase before a
// new round. Other failures fall through to the next mutation.
func (m *Matcher) assign(ctx context.Context, productID string, a Assignment) (string, error) {
	mutations := []struct {
		name string
		run  func() error
	}{
		{MutationAppendMedia, func() error {
			return m.assigner.AppendVariantMedia(ctx, productID, a.VariantID, a.Image.AssetID)
		}},
		{MutationBulkUpdate, func() error {
			return m.assigner.BulkSetVariantMedia(ctx, productID, a.VariantID, a.Image.AssetID)
		}},
		{MutationUpdate, func() error {
			return m.assigner.UpdateVariantMedia(ctx, a.VariantID, a.Image.AssetID)
		}},
	}

	var lastErr error
	for retry := 0; ; retry++ {
		notReady := false
		var failures []string
		for _, mu := range mutations {
			if err := m.pacer.Wait(ctx); err != nil {
				return "", err
			}
			err := mu.run()
			if err == nil {
				return mu.name, nil
			}
			lastErr = err
			failures = append(failures, mu.name+": "+err.Error())
			if errors.IsNotReady(err) {
				notReady = true
				break
			}
		}
		if !notReady || retry >= m.maxRetries {
			return "", errors.New(strings.Join(failures, "; "))
		}
		delay := time.Duration(retry+1) * m.retryBase
		logging.FromContext(ctx).Debug().Err(lastErr).
			Str("variant_id", a.VariantID).
			Int("retry", retry+1).
			Dur("delay", delay).
			Msg("image still processing, retrying assignment")
		if err := m.sleep(ctx, delay); err != nil {
			return "", err
		}
	}
}
