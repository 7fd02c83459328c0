package media

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/pimsync/internal/shopify"
	"github.com/agentstation/pimsync/pkg/pim"
)

const testUUID = "0b7c6c3e-7f3e-4a56-9d35-0d6d2a1f8e44"

// fakeLibrary answers searches from an in-memory file list.
type fakeLibrary struct {
	files     []shopify.File
	searches  []string
	uploads   []shopify.FileInput
	searchErr error
	uploadErr error
}

func (l *fakeLibrary) SearchFiles(_ context.Context, query string) ([]shopify.File, error) {
	l.searches = append(l.searches, query)
	if l.searchErr != nil {
		return nil, l.searchErr
	}
	term := strings.Trim(strings.TrimPrefix(query, "filename:"), `"*`)
	var out []shopify.File
	for _, f := range l.files {
		if strings.Contains(strings.ToLower(f.Filename()), strings.ToLower(term)) {
			out = append(out, f)
		}
	}
	return out, nil
}

func (l *fakeLibrary) CreateFile(_ context.Context, in shopify.FileInput) (*shopify.File, error) {
	if l.uploadErr != nil {
		return nil, l.uploadErr
	}
	l.uploads = append(l.uploads, in)
	f := shopify.File{ID: "gid://shopify/MediaImage/new" + string(rune('0'+len(l.uploads))), FileStatus: "UPLOADED"}
	return &f, nil
}

func (l *fakeLibrary) calls() int {
	return len(l.searches) + len(l.uploads)
}

func libFile(id, name string) shopify.File {
	return shopify.File{ID: id, FileStatus: "READY", GenericURL: "https://cdn.shopify.com/s/files/1/files/" + name + "?v=1"}
}

func img(url, color, shoot string) pim.ImageDescriptor {
	return pim.ImageDescriptor{URL: url, StyleID: "STTU964", StyleName: "Creator 2.0", ColorCode: color, PhotoTypeCode: "SFM0", PhotoShootCode: shoot}
}

func TestResolve_DedupKeyMemoizes(t *testing.T) {
	lib := &fakeLibrary{}
	c := NewCache(lib)
	ctx := context.Background()

	first, err := c.Resolve(ctx, img("https://pim/a/SFM0_STTU964_C134.jpg", "C134", "SS24"))
	require.NoError(t, err)
	assert.Equal(t, ActionUploaded, first.Action)
	before := lib.calls()

	// Same logical photo served from another URL.
	second, err := c.Resolve(ctx, img("https://pim-mirror/b/SFM0_STTU964_C134.jpg", "C134", "SS24"))
	require.NoError(t, err)
	assert.Equal(t, before, lib.calls(), "second resolve must not touch the network")
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, ActionCache, second.Action)
	assert.Equal(t, 1, c.Uploads())
}

func TestResolve_URLMemoizes(t *testing.T) {
	lib := &fakeLibrary{}
	c := NewCache(lib)
	ctx := context.Background()
	weak := pim.ImageDescriptor{URL: "https://pim/x/detail.jpg", StyleName: "Creator 2.0"}

	first, err := c.Resolve(ctx, weak)
	require.NoError(t, err)
	before := lib.calls()

	// Different descriptor, same URL: the upload also populated the URL map.
	again, err := c.Resolve(ctx, img("https://pim/x/detail.jpg", "C001", "SS24"))
	require.NoError(t, err)
	assert.Equal(t, before, lib.calls())
	assert.Equal(t, first.ID, again.ID)

	// And the strong key learned from that hit short-circuits too.
	third, err := c.Resolve(ctx, img("https://other/detail.jpg", "C001", "SS24"))
	require.NoError(t, err)
	assert.Equal(t, before, lib.calls())
	assert.Equal(t, first.ID, third.ID)
}

func TestResolve_WeakKeyDifferentURLIsDistinct(t *testing.T) {
	lib := &fakeLibrary{}
	c := NewCache(lib)
	ctx := context.Background()

	a, err := c.Resolve(ctx, pim.ImageDescriptor{URL: "https://pim/1.jpg", StyleName: "Creator 2.0"})
	require.NoError(t, err)
	b, err := c.Resolve(ctx, pim.ImageDescriptor{URL: "https://pim/2.jpg", StyleName: "Creator 2.0"})
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, 2, c.Uploads())
	assert.Equal(t, 2, c.Len())
}

func TestResolve_UUIDSuffixInLibrary(t *testing.T) {
	lib := &fakeLibrary{files: []shopify.File{
		libFile("gid://shopify/MediaImage/9", "SFM0_STTU964_C134-"+testUUID+".jpg"),
	}}
	c := NewCache(lib)

	ref, err := c.Resolve(context.Background(), img("https://pim/a/SFM0_STTU964_C134.jpg", "C134", "SS24"))
	require.NoError(t, err)
	assert.Equal(t, "gid://shopify/MediaImage/9", ref.ID)
	assert.Equal(t, ActionLibrary, ref.Action)
	assert.Equal(t, TierUUID, ref.Tier)
	assert.Empty(t, lib.uploads)
	assert.Equal(t, 0, c.Uploads())
}

func TestResolve_ExactBeatsUUID(t *testing.T) {
	lib := &fakeLibrary{files: []shopify.File{
		libFile("uuid", "SFM0_STTU964_C134-"+testUUID+".jpg"),
		libFile("exact", "SFM0_STTU964_C134.jpg"),
	}}
	ref, err := NewCache(lib).Resolve(context.Background(), img("https://pim/SFM0_STTU964_C134.jpg", "C134", ""))
	require.NoError(t, err)
	assert.Equal(t, "exact", ref.ID)
	assert.Equal(t, TierExact, ref.Tier)
}

func TestResolve_SubstringTier(t *testing.T) {
	lib := &fakeLibrary{files: []shopify.File{
		libFile("sub", "archive_SFM0_STTU964_C134_v2.png"),
		libFile("failed", "SFM0_STTU964_C134.jpg"),
	}}
	lib.files[1].FileStatus = "FAILED"

	ref, err := NewCache(lib).Resolve(context.Background(), img("https://pim/SFM0_STTU964_C134.jpg", "C134", ""))
	require.NoError(t, err)
	assert.Equal(t, "sub", ref.ID)
	assert.Equal(t, TierSubstring, ref.Tier)
}

func TestResolve_UploadFields(t *testing.T) {
	lib := &fakeLibrary{}
	ref, err := NewCache(lib).Resolve(context.Background(), img("https://pim/a/SFM0_STTU964_C129.jpg", "C129", ""))
	require.NoError(t, err)
	require.Len(t, lib.uploads, 1)
	assert.Equal(t, "https://pim/a/SFM0_STTU964_C129.jpg", lib.uploads[0].OriginalSource)
	assert.Equal(t, "STTU964_C129", lib.uploads[0].Alt)
	assert.Equal(t, "SFM0_STTU964_C129.jpg", lib.uploads[0].Filename)
	assert.Equal(t, "SFM0_STTU964_C129.jpg", ref.FileName)
	assert.Len(t, lib.searches, 2)
}

func TestResolve_Errors(t *testing.T) {
	ctx := context.Background()

	_, err := NewCache(&fakeLibrary{}).Resolve(ctx, pim.ImageDescriptor{})
	assert.Error(t, err)

	boom := errors.New("boom")
	_, err = NewCache(&fakeLibrary{searchErr: boom}).Resolve(ctx, img("https://pim/a.jpg", "C1", ""))
	assert.ErrorIs(t, err, boom)

	c := NewCache(&fakeLibrary{uploadErr: boom})
	_, err = c.Resolve(ctx, img("https://pim/a.jpg", "C1", ""))
	assert.ErrorIs(t, err, boom)
	assert.Zero(t, c.Len(), "failed uploads are not cached")
}

func TestHasUUIDSuffix(t *testing.T) {
	assert.True(t, HasUUIDSuffix("SFM0_STTU964_C134-"+testUUID+".jpg", "SFM0_STTU964_C134"))
	assert.True(t, HasUUIDSuffix("sfm0_sttu964_c134-"+testUUID, "SFM0_STTU964_C134"))
	assert.False(t, HasUUIDSuffix("SFM0_STTU964_C134-notauuid.jpg", "SFM0_STTU964_C134"))
	assert.False(t, HasUUIDSuffix("SFM0_STTU964_C134.jpg", "SFM0_STTU964_C134"))
	assert.False(t, HasUUIDSuffix("OTHER-"+testUUID+".jpg", "SFM0_STTU964_C134"))
}

func TestAltText(t *testing.T) {
	assert.Equal(t, "given", AltText(pim.ImageDescriptor{Alt: "given"}))
	assert.Equal(t, "A_C1", AltText(pim.ImageDescriptor{StyleID: "A", ColorCode: "C1"}))
	assert.Equal(t, "front", AltText(pim.ImageDescriptor{URL: "https://x/front.jpg"}))
}
