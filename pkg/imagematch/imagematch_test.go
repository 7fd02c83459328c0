package imagematch

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/pimsync/internal/wait"
	pkgerrors "github.com/agentstation/pimsync/pkg/errors"
)

func TestExtractColorCode(t *testing.T) {
	tests := []struct {
		label string
		want  string
		ok    bool
	}{
		{"Bubble Pink - C129", "C129", true},
		{"Navy B12", "B12", true},
		{"Heather Grey G004 melange", "G004", true},
		{"Deep Black K1", "K1", true},
		{"Stone - ST7X", "ST7X", true},
		{"Sand - SND", "SND", true},
		{"Navy - Blue", "", false},
		{"White", "", false},
		{"XC129", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			code, ok := ExtractColorCode(tt.label)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, code)
		})
	}
}

func TestExtractColorCode_EveryPrefix(t *testing.T) {
	for _, prefix := range colorCodePrefixes {
		code, ok := ExtractColorCode("Some Color " + prefix + "42")
		assert.True(t, ok, prefix)
		assert.Equal(t, prefix+"42", code)
	}
	assert.Len(t, ColorCodePatterns(), len(colorCodePrefixes))
}

func TestColorName(t *testing.T) {
	assert.Equal(t, "Bubble Pink", ColorName("Bubble Pink - C129", "C129"))
	assert.Equal(t, "Navy", ColorName("Navy B12", "B12"))
	assert.Equal(t, "White", ColorName("White", ""))
}

func TestSynonyms(t *testing.T) {
	assert.ElementsMatch(t, []string{"bordeaux", "wine", "maroon", "oxblood"}, Synonyms("Burgundy"))
	assert.Contains(t, Synonyms("gray"), "grey")
	assert.Empty(t, Synonyms("chartreuse"))
}

func TestMatchColor_Strategies(t *testing.T) {
	tests := []struct {
		name     string
		style    string
		label    string
		images   []Candidate
		wantID   string
		strategy string
	}{
		{
			name:  "style and color in file name",
			style: "STTU964", label: "Bubble Pink - C129",
			images:   []Candidate{{AssetID: "a", FileName: "SFM0_STTU964_C001.jpg"}, {AssetID: "b", FileName: "SFM0_STTU964_C129.jpg"}},
			wantID:   "b",
			strategy: StrategyStyleColor,
		},
		{
			name:  "code alone in alt text",
			style: "STTU964", label: "Bubble Pink - C129",
			images:   []Candidate{{AssetID: "a", FileName: "front.jpg", Alt: "lookbook C129"}},
			wantID:   "a",
			strategy: StrategyCode,
		},
		{
			name:  "code must be delimited",
			style: "STTU964", label: "Bubble Pink - C12",
			images:   []Candidate{{AssetID: "a", FileName: "x_C129.jpg"}, {AssetID: "b", FileName: "bubble-pink.jpg"}},
			wantID:   "b",
			strategy: StrategyNameContains,
		},
		{
			name:  "color name when codes fail",
			style: "STTU964", label: "Bubble Pink - C129",
			images:   []Candidate{{AssetID: "a", FileName: "img1.jpg", Alt: "bubble pink detail"}},
			wantID:   "a",
			strategy: StrategyNameContains,
		},
		{
			name:  "any name word",
			style: "STTU964", label: "Bubble Pink - C129",
			images:   []Candidate{{AssetID: "a", FileName: "pink_back.jpg"}},
			wantID:   "a",
			strategy: StrategyNameWord,
		},
		{
			name:  "synonym",
			style: "STTU964", label: "Burgundy - C7",
			images:   []Candidate{{AssetID: "a", FileName: "white.jpg"}, {AssetID: "b", FileName: "wine_front.jpg"}},
			wantID:   "b",
			strategy: StrategySynonym,
		},
		{
			name:  "style and code must end at a delimiter",
			style: "STTU964", label: "Red - C12",
			images:   []Candidate{{AssetID: "pink", FileName: "SFM0_STTU964_C129.jpg"}, {AssetID: "red", FileName: "SFM0_STTU964_C12.jpg"}},
			wantID:   "red",
			strategy: StrategyStyleColor,
		},
		{
			name:  "hyphenated color name",
			style: "STTU964", label: "Off-White",
			images:   []Candidate{{AssetID: "a", FileName: "img1.jpg", Alt: "pure white front"}, {AssetID: "b", FileName: "img2.jpg", Alt: "off-white detail"}},
			wantID:   "b",
			strategy: StrategyNameContains,
		},
		{
			name:  "slashed color name",
			style: "STTU964", label: "Navy/White",
			images:   []Candidate{{AssetID: "a", FileName: "white_front.jpg"}, {AssetID: "b", FileName: "navy-white_back.jpg"}},
			wantID:   "b",
			strategy: StrategyNameContains,
		},
		{
			name:  "strategy order beats candidate order",
			style: "STTU964", label: "Bubble Pink - C129",
			images:   []Candidate{{AssetID: "a", FileName: "pink.jpg"}, {AssetID: "b", FileName: "STTU964_C129.jpg"}},
			wantID:   "b",
			strategy: StrategyStyleColor,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, strategy, err := MatchColor(tt.style, tt.label, tt.images)
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, got.AssetID)
			assert.Equal(t, tt.strategy, strategy)
		})
	}
}

func TestMatchColor_ShortLabels(t *testing.T) {
	// Two-letter names are too short for substring and word matching, so
	// only the equality strategies can pick them up.
	got, strategy, err := MatchColor("A", "TC", []Candidate{{AssetID: "a", FileName: "tc_front.jpg"}, {AssetID: "b", FileName: "x.jpg", Alt: "tc"}})
	require.NoError(t, err)
	assert.Equal(t, "b", got.AssetID)
	assert.Equal(t, StrategyExactLabel, strategy)

	got, strategy, err = MatchColor("A", "Ox", []Candidate{{AssetID: "a", FileName: "front_ox.jpg"}})
	require.NoError(t, err)
	assert.Equal(t, "a", got.AssetID)
	assert.Equal(t, StrategySingleWord, strategy)
}

func TestMatchColor_NoMatch(t *testing.T) {
	_, _, err := MatchColor("STTU964", "Bubble Pink - C129", []Candidate{{AssetID: "a", FileName: "navy.jpg"}})
	require.Error(t, err)
	assert.ErrorIs(t, err, pkgerrors.ErrNoMatch)
	var me *pkgerrors.MatchError
	require.ErrorAs(t, err, &me)
	assert.Equal(t, "C129", me.Wanted)
	assert.Equal(t, []string{"navy.jpg"}, me.Candidates)
	assert.Equal(t, StrategyNames(), me.Tried)
}

func TestMatchOneImagePerColor(t *testing.T) {
	p := Product{
		ID:      "gid://shopify/Product/1",
		StyleID: "STTU964",
		Variants: []Variant{
			{ID: "v1", Color: "Bubble Pink - C129"},
			{ID: "v2", Color: "Bubble Pink - C129"},
			{ID: "v3", Color: "Bubble Pink - C129", HasImage: true},
			{ID: "v4", Color: "Black - C002"},
			{ID: "v5", Color: "Lime - C555"},
		},
		Images: []Candidate{
			{AssetID: "pink-front", FileName: "SFM0_STTU964_C129.jpg"},
			{AssetID: "pink-back", FileName: "SBM0_STTU964_C129.jpg"},
			{AssetID: "black", FileName: "SFM0_STTU964_C002.jpg"},
		},
	}

	plan, errs := MatchOneImagePerColor(p)
	require.Len(t, errs, 1, "lime has no image")
	assert.ErrorIs(t, errs[0], pkgerrors.ErrNoMatch)

	require.Len(t, plan, 3)
	assert.Equal(t, "pink-front", plan["v1"].Image.AssetID)
	assert.Equal(t, "pink-front", plan["v2"].Image.AssetID, "one image per color")
	assert.NotContains(t, plan, "v3", "variants with an image are left alone")
	assert.Equal(t, "black", plan["v4"].Image.AssetID)
	assert.Equal(t, "C002", plan["v4"].ColorCode)
	assert.NotContains(t, plan, "v5")
}

// fakeAssigner fails each mutation with the scripted errors, keyed by
// mutation name, consumed in order.
type fakeAssigner struct {
	errs  map[string][]error
	calls []string
}

func (f *fakeAssigner) next(name string) error {
	f.calls = append(f.calls, name)
	list := f.errs[name]
	if len(list) == 0 {
		return nil
	}
	err := list[0]
	if len(list) > 1 {
		f.errs[name] = list[1:]
	}
	return err
}

func (f *fakeAssigner) AppendVariantMedia(_ context.Context, _, _, _ string) error {
	return f.next(MutationAppendMedia)
}

func (f *fakeAssigner) BulkSetVariantMedia(_ context.Context, _, _, _ string) error {
	return f.next(MutationBulkUpdate)
}

func (f *fakeAssigner) UpdateVariantMedia(_ context.Context, _, _ string) error {
	return f.next(MutationUpdate)
}

func ue(msg string) error {
	return pkgerrors.AsError("assign", []pkgerrors.UserError{{Message: msg}})
}

func singleVariantProduct() Product {
	return Product{
		ID:       "p",
		StyleID:  "STTU964",
		Variants: []Variant{{ID: "v1", Color: "Bubble Pink - C129"}},
		Images:   []Candidate{{AssetID: "img", FileName: "STTU964_C129.jpg"}},
	}
}

func TestApply_FirstMutationWins(t *testing.T) {
	a := &fakeAssigner{}
	var rec wait.Recorder
	r := New(a, WithSleep(rec.Sleep)).Apply(context.Background(), singleVariantProduct())
	require.Len(t, r.Assigned, 1)
	assert.Equal(t, MutationAppendMedia, r.Assigned[0].Mutation)
	assert.Equal(t, []string{MutationAppendMedia}, a.calls)
	assert.Empty(t, rec.Delays)
}

func TestApply_FallsBackThroughMutations(t *testing.T) {
	a := &fakeAssigner{errs: map[string][]error{
		MutationAppendMedia: {ue("Access denied")},
		MutationBulkUpdate:  {ue("Invalid media")},
	}}
	var rec wait.Recorder
	r := New(a, WithSleep(rec.Sleep)).Apply(context.Background(), singleVariantProduct())
	require.Len(t, r.Assigned, 1)
	assert.Equal(t, MutationUpdate, r.Assigned[0].Mutation)
	assert.Equal(t, []string{MutationAppendMedia, MutationBulkUpdate, MutationUpdate}, a.calls)
}

func TestApply_ProcessingRetries(t *testing.T) {
	processing := ue("Media is still processing")
	a := &fakeAssigner{errs: map[string][]error{
		MutationAppendMedia: {processing, processing, nil},
	}}
	var rec wait.Recorder
	r := New(a, WithSleep(rec.Sleep)).Apply(context.Background(), singleVariantProduct())
	require.Len(t, r.Assigned, 1)
	assert.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second}, rec.Delays)
}

func TestApply_ProcessingExhausted(t *testing.T) {
	processing := ue("Media is still processing")
	a := &fakeAssigner{errs: map[string][]error{MutationAppendMedia: {processing}}}
	var rec wait.Recorder
	r := New(a, WithSleep(rec.Sleep)).Apply(context.Background(), singleVariantProduct())
	assert.Empty(t, r.Assigned)
	require.Len(t, r.Failed, 1)
	assert.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second, 6 * time.Second}, rec.Delays)
	assert.Len(t, a.calls, 4)
}

func TestApply_FailureDoesNotAbortOthers(t *testing.T) {
	p := singleVariantProduct()
	p.Variants = append(p.Variants, Variant{ID: "v2", Color: "Bubble Pink - C129"})
	a := &fakeAssigner{errs: map[string][]error{
		MutationAppendMedia: {ue("bad"), nil},
		MutationBulkUpdate:  {ue("bad"), nil},
		MutationUpdate:      {ue("bad"), nil},
	}}
	var rec wait.Recorder
	r := New(a, WithSleep(rec.Sleep)).Apply(context.Background(), p)
	require.Len(t, r.Failed, 1)
	assert.Equal(t, "v1", r.Failed[0].VariantID)
	require.Len(t, r.Assigned, 1)
	assert.Equal(t, "v2", r.Assigned[0].VariantID)
	assert.Len(t, r.Errors, 1)
	assert.Empty(t, rec.Delays, "non-processing failures are not retried")
}
