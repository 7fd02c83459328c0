package matcher

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/agentstation/pimsync/pkg/errors"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		opts    Options
		wantErr bool
	}{
		{name: "valid pattern", pattern: `C\d+`},
		{name: "invalid pattern", pattern: "[unclosed", wantErr: true},
		{name: "anchored", pattern: `\d+`, opts: Options{Anchored: true}},
		{name: "case insensitive", pattern: "pink", opts: Options{CaseInsensitive: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := New(tt.pattern, tt.opts)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.pattern, m.Pattern())
		})
	}
}

func TestMatcher_Options(t *testing.T) {
	t.Run("anchored", func(t *testing.T) {
		m := MustNew(`\d+`, Options{Anchored: true})
		assert.True(t, m.Match("129"))
		assert.False(t, m.Match("C129"))
	})

	t.Run("case insensitive", func(t *testing.T) {
		m := MustNew("bubble pink", Options{CaseInsensitive: true})
		assert.True(t, m.Match("Bubble Pink - C129"))
	})

	t.Run("word bounded", func(t *testing.T) {
		m := MustNew(`C129`, Options{WordBounded: true, CaseInsensitive: true})
		assert.True(t, m.Match("STTU964_C129.jpg"))
		assert.True(t, m.Match("c129"))
		assert.False(t, m.Match("STTU964_C1290.jpg"))
		assert.False(t, m.Match("XC129"))
	})
}

func TestMatcher_Find(t *testing.T) {
	m := MustNew(`\b(C\d+)\b`)
	v, ok := m.Find("Bubble Pink C129")
	assert.True(t, ok)
	assert.Equal(t, "C129", v)

	whole := MustNew(`C\d+`)
	v, ok = whole.Find("xx C7 yy")
	assert.True(t, ok)
	assert.Equal(t, "C7", v)

	_, ok = whole.Find("none")
	assert.False(t, ok)
}

func TestMatchFirst(t *testing.T) {
	m := Literal("STTU964")
	assert.Equal(t, "STTU964C129M", m.MatchFirst("OTHER", "STTU964C129M", "STTU964C129L"))
	assert.Equal(t, "", m.MatchFirst("OTHER"))
}

func TestMustNew_Panics(t *testing.T) {
	assert.Panics(t, func() { MustNew("[bad") })
}

func TestMultiMatcher(t *testing.T) {
	mm, err := NewMultiMatcher([]string{`C\d+`, `B\d+`}, Options{WordBounded: true})
	require.NoError(t, err)

	v, ok := mm.Find("Navy - B12")
	assert.True(t, ok)
	assert.Equal(t, "B12", v)
	assert.True(t, mm.Match("C1"))
	assert.False(t, mm.Match("Z1"))
	assert.Equal(t, []string{`C\d+`, `B\d+`}, mm.Patterns())

	_, err = NewMultiMatcher([]string{"(bad"})
	assert.Error(t, err)
}

func TestCascade_StrategyOrderWins(t *testing.T) {
	c := NewCascade(
		Strategy[string]{Name: "exact", Match: func(s string) bool { return s == "pink" }},
		Strategy[string]{Name: "prefix", Match: func(s string) bool { return len(s) > 0 && s[0] == 'p' }},
	)

	// The weaker strategy matches an earlier candidate, but the stronger
	// strategy still wins because strategies form the outer loop.
	hit, ok := c.First([]string{"purple", "pink"})
	require.True(t, ok)
	assert.Equal(t, "pink", hit.Candidate)
	assert.Equal(t, 1, hit.Index)
	assert.Equal(t, "exact", hit.Strategy)
	assert.Equal(t, 0, hit.Rank)

	hit, ok = c.First([]string{"blue", "purple"})
	require.True(t, ok)
	assert.Equal(t, "prefix", hit.Strategy)
	assert.Equal(t, 1, hit.Rank)

	_, ok = c.First([]string{"blue"})
	assert.False(t, ok)
	assert.Equal(t, []string{"exact", "prefix"}, c.Names())
}

func TestFirstOf(t *testing.T) {
	ctx := context.Background()
	calls := 0
	miss := Step[int]{Name: "miss", Run: func(context.Context) (int, bool, error) { calls++; return 0, false, nil }}
	hit := Step[int]{Name: "hit", Run: func(context.Context) (int, bool, error) { calls++; return 42, true, nil }}
	never := Step[int]{Name: "never", Run: func(context.Context) (int, bool, error) { calls++; return 7, true, nil }}

	v, name, err := FirstOf(ctx, "style X", miss, hit, never)
	require.NoError(t, err)
	assert.Equal(t, 42, v)
	assert.Equal(t, "hit", name)
	assert.Equal(t, 2, calls)

	t.Run("no match", func(t *testing.T) {
		_, _, err := FirstOf(ctx, "style X", miss)
		assert.ErrorIs(t, err, pkgerrors.ErrNoMatch)
		var me *pkgerrors.MatchError
		require.ErrorAs(t, err, &me)
		assert.Equal(t, []string{"miss"}, me.Tried)
	})

	t.Run("error stops", func(t *testing.T) {
		boom := errors.New("boom")
		failing := Step[int]{Name: "fail", Run: func(context.Context) (int, bool, error) { return 0, false, boom }}
		_, name, err := FirstOf(ctx, "style X", failing, hit)
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, "fail", name)
	})

	t.Run("cancelled", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, _, err := FirstOf(cctx, "style X", hit)
		assert.ErrorIs(t, err, context.Canceled)
	})
}
