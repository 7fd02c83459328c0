// Package matcher provides compiled pattern matching and ordered
// "first match wins" cascades used to pair catalog entities with
// source records and images with variants.
package matcher

import (
	"fmt"
	"regexp"
	"strings"
)

// Matcher is a compiled pattern.
type Matcher interface {
	// Match checks if the input matches the pattern.
	Match(input string) bool
	// Find returns the first capture group (or the whole match when the
	// pattern has no groups) and whether the input matched at all.
	Find(input string) (string, bool)
	// MatchFirst returns the first matching input or empty string.
	MatchFirst(inputs ...string) string
	// Pattern returns the original pattern string.
	Pattern() string
}

// Options configures the matcher behavior.
type Options struct {
	// CaseInsensitive makes matching case-insensitive
	CaseInsensitive bool
	// Anchored adds ^ and $ to the pattern if not present
	Anchored bool
	// WordBounded requires the match to be delimited by non-alphanumerics
	// or the ends of the input. Underscores count as delimiters, so
	// "STTU964_C129" contains the word-bounded code C129.
	WordBounded bool
}

type matcher struct {
	pattern  string
	compiled *regexp.Regexp
}

// New compiles a regular expression pattern.
func New(pattern string, opts ...Options) (Matcher, error) {
	var o Options
	if len(opts) > 0 {
		o = opts[0]
	}

	expr := pattern
	if o.WordBounded {
		expr = `(?:^|[^A-Za-z0-9])(` + expr + `)(?:$|[^A-Za-z0-9])`
	}
	if o.Anchored {
		if !strings.HasPrefix(expr, "^") {
			expr = "^" + expr
		}
		if !strings.HasSuffix(expr, "$") {
			expr += "$"
		}
	}
	if o.CaseInsensitive && !strings.HasPrefix(expr, "(?i)") {
		expr = "(?i)" + expr
	}

	compiled, err := regexp.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}
	return &matcher{pattern: pattern, compiled: compiled}, nil
}

// MustNew compiles a pattern and panics if there's an error.
func MustNew(pattern string, opts ...Options) Matcher {
	m, err := New(pattern, opts...)
	if err != nil {
		panic(err)
	}
	return m
}

// Literal builds a matcher for an exact substring.
func Literal(s string, opts ...Options) Matcher {
	return MustNew(regexp.QuoteMeta(s), opts...)
}

func (m *matcher) Match(input string) bool {
	return m.compiled.MatchString(input)
}

func (m *matcher) Find(input string) (string, bool) {
	sub := m.compiled.FindStringSubmatch(input)
	if sub == nil {
		return "", false
	}
	for _, group := range sub[1:] {
		if group != "" {
			return group, true
		}
	}
	return sub[0], true
}

func (m *matcher) MatchFirst(inputs ...string) string {
	for _, input := range inputs {
		if m.Match(input) {
			return input
		}
	}
	return ""
}

func (m *matcher) Pattern() string {
	return m.pattern
}

// MultiMatcher holds several patterns evaluated in order.
type MultiMatcher struct {
	matchers []Matcher
}

// NewMultiMatcher compiles every pattern with the same options.
func NewMultiMatcher(patterns []string, opts ...Options) (*MultiMatcher, error) {
	mm := &MultiMatcher{matchers: make([]Matcher, 0, len(patterns))}
	for _, pattern := range patterns {
		m, err := New(pattern, opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create matcher for pattern %q: %w", pattern, err)
		}
		mm.matchers = append(mm.matchers, m)
	}
	return mm, nil
}

// Match returns true if any pattern matches.
func (mm *MultiMatcher) Match(input string) bool {
	for _, m := range mm.matchers {
		if m.Match(input) {
			return true
		}
	}
	return false
}

// Find returns the extraction of the first pattern, in declaration order,
// that matches input.
func (mm *MultiMatcher) Find(input string) (string, bool) {
	for _, m := range mm.matchers {
		if v, ok := m.Find(input); ok {
			return v, true
		}
	}
	return "", false
}

// Patterns returns the source patterns in evaluation order.
func (mm *MultiMatcher) Patterns() []string {
	out := make([]string, len(mm.matchers))
	for i, m := range mm.matchers {
		out[i] = m.Pattern()
	}
	return out
}
