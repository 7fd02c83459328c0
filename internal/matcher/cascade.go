package matcher

import (
	"context"

	"github.com/agentstation/pimsync/pkg/errors"
)

// Strategy is one named predicate of a cascade.
type Strategy[C any] struct {
	Name  string
	Match func(C) bool
}

// Cascade evaluates strategies in order against a candidate list.
// The outer loop is the strategy, the inner loop the candidates, so a
// weaker strategy never wins while a stronger one has any match.
type Cascade[C any] struct {
	strategies []Strategy[C]
}

// Hit is the outcome of a successful cascade evaluation.
type Hit[C any] struct {
	Candidate C
	Index     int    // position in the candidate list
	Strategy  string // name of the winning strategy
	Rank      int    // zero-based position of the winning strategy
}

// NewCascade builds a cascade from strategies in priority order.
func NewCascade[C any](strategies ...Strategy[C]) *Cascade[C] {
	return &Cascade[C]{strategies: strategies}
}

// First returns the first candidate accepted by the highest-priority
// strategy that accepts any candidate.
func (c *Cascade[C]) First(candidates []C) (Hit[C], bool) {
	for rank, s := range c.strategies {
		for i, cand := range candidates {
			if s.Match(cand) {
				return Hit[C]{Candidate: cand, Index: i, Strategy: s.Name, Rank: rank}, true
			}
		}
	}
	return Hit[C]{}, false
}

// Names lists the strategy names in evaluation order.
func (c *Cascade[C]) Names() []string {
	names := make([]string, len(c.strategies))
	for i, s := range c.strategies {
		names[i] = s.Name
	}
	return names
}

// Step is one stage of an effectful cascade, such as a remote search.
// It reports ok=false to defer to the next step.
type Step[T any] struct {
	Name string
	Run  func(ctx context.Context) (T, bool, error)
}

// FirstOf runs steps in order and returns the first result a step
// accepts together with that step's name. An error from any step stops
// the cascade. When no step accepts, the returned error is a
// *errors.MatchError listing the steps tried.
func FirstOf[T any](ctx context.Context, subject string, steps ...Step[T]) (T, string, error) {
	var zero T
	tried := make([]string, 0, len(steps))
	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return zero, "", err
		}
		tried = append(tried, step.Name)
		v, ok, err := step.Run(ctx)
		if err != nil {
			return zero, step.Name, err
		}
		if ok {
			return v, step.Name, nil
		}
	}
	return zero, "", &errors.MatchError{Subject: subject, Tried: tried}
}
