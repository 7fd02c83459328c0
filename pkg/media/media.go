// Package media resolves PIM image descriptors to assets in the target
// media library, uploading only images that are neither known from
// earlier in the run nor already present in the library.
package media

import (
	"context"
	"path"
	"strings"

	"github.com/google/uuid"

	"github.com/agentstation/pimsync/internal/matcher"
	"github.com/agentstation/pimsync/internal/shopify"
	"github.com/agentstation/pimsync/internal/wait"
	"github.com/agentstation/pimsync/pkg/errors"
	"github.com/agentstation/pimsync/pkg/logging"
	"github.com/agentstation/pimsync/pkg/pim"
)

// Library is the remote media library.
type Library interface {
	SearchFiles(ctx context.Context, query string) ([]shopify.File, error)
	CreateFile(ctx context.Context, in shopify.FileInput) (*shopify.File, error)
}

// Action records how an image was resolved.
type Action string

// Resolution actions.
const (
	ActionCache    Action = "reused-from-cache"
	ActionLibrary  Action = "reused-from-library"
	ActionUploaded Action = "uploaded-new"
)

// AssetRef points at a library asset.
type AssetRef struct {
	ID        string `json:"id" yaml:"id"`
	URL       string `json:"url,omitempty" yaml:"url,omitempty"`
	SourceURL string `json:"source_url" yaml:"source_url"`
	FileName  string `json:"file_name" yaml:"file_name"`
	Alt       string `json:"alt,omitempty" yaml:"alt,omitempty"`
	Action    Action `json:"action" yaml:"action"`
	Tier      string `json:"tier,omitempty" yaml:"tier,omitempty"` // library search tier that matched
}

// Cache is the per-run media cache. It is the only writer of its maps
// and is not safe for concurrent use.
type Cache struct {
	lib     Library
	pacer   *wait.Pacer
	byKey   map[string]AssetRef
	byURL   map[string]AssetRef
	uploads int
}

// Option configures a Cache.
type Option func(*Cache)

// WithPacer spaces upload mutations.
func WithPacer(p *wait.Pacer) Option {
	return func(c *Cache) {
		c.pacer = p
	}
}

// NewCache creates an empty run-scoped cache.
func NewCache(lib Library, opts ...Option) *Cache {
	c := &Cache{
		lib:   lib,
		byKey: make(map[string]AssetRef),
		byURL: make(map[string]AssetRef),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Uploads is the number of files uploaded through this cache.
func (c *Cache) Uploads() int {
	return c.uploads
}

// Len is the number of distinct assets known to the cache.
func (c *Cache) Len() int {
	seen := make(map[string]bool)
	for _, r := range c.byURL {
		seen[r.ID] = true
	}
	for _, r := range c.byKey {
		seen[r.ID] = true
	}
	return len(seen)
}

// Resolve returns the asset for img, looking it up in order in the dedup
// key map, the source URL map, the remote library, and finally uploading.
//
// Only full-tuple dedup keys are trusted across URLs. A style-name key is
// too coarse to identify a photo, so such images hit the cache only by
// URL and are otherwise rediscovered through the library search.
func (c *Cache) Resolve(ctx context.Context, img pim.ImageDescriptor) (AssetRef, error) {
	if strings.TrimSpace(img.URL) == "" {
		return AssetRef{}, errors.NewValidationError("url", img.URL, "image has no source URL")
	}
	key := img.DedupKey()

	if key.Strong() {
		if ref, ok := c.byKey[key.String()]; ok {
			return cached(ref), nil
		}
	}
	if ref, ok := c.byURL[img.URL]; ok {
		c.remember(key, img.URL, ref)
		return cached(ref), nil
	}

	logger := logging.FromContext(ctx).With().Str("file", img.Name()).Logger()

	ref, found, err := c.searchLibrary(ctx, img)
	if err != nil {
		return AssetRef{}, err
	}
	if found {
		logger.Debug().Str("asset_id", ref.ID).Str("tier", ref.Tier).Msg("image found in media library")
		c.remember(key, img.URL, ref)
		return ref, nil
	}

	ref, err = c.upload(ctx, img)
	if err != nil {
		return AssetRef{}, err
	}
	logger.Info().Str("asset_id", ref.ID).Msg("image uploaded")
	c.remember(key, img.URL, ref)
	return ref, nil
}

func cached(ref AssetRef) AssetRef {
	ref.Action = ActionCache
	ref.Tier = ""
	return ref
}

func (c *Cache) remember(key pim.DedupKey, sourceURL string, ref AssetRef) {
	if key.Strong() {
		c.byKey[key.String()] = ref
	}
	c.byURL[sourceURL] = ref
}

// Library search tiers, in priority order.
const (
	TierExact     = "exact-filename"
	TierUUID      = "uuid-suffix"
	TierSubstring = "substring"
)

// searchLibrary looks for an earlier upload of img. The library renames
// colliding uploads to "<stem>-<uuid>.<ext>", which the second tier
// recognizes.
func (c *Cache) searchLibrary(ctx context.Context, img pim.ImageDescriptor) (AssetRef, bool, error) {
	name := img.Name()
	stem := img.Stem()
	if stem == "" {
		return AssetRef{}, false, nil
	}

	cascade := libraryCascade(name, stem)
	queries := []string{
		shopify.SearchQuery("filename", stem+"*"),
		shopify.SearchQuery("", stem),
	}
	for _, q := range queries {
		files, err := c.lib.SearchFiles(ctx, q)
		if err != nil {
			return AssetRef{}, false, errors.WrapResource("search", "media library", name, err)
		}
		usable := files[:0:0]
		for _, f := range files {
			if !strings.EqualFold(f.FileStatus, "FAILED") && f.Filename() != "" {
				usable = append(usable, f)
			}
		}
		if hit, ok := cascade.First(usable); ok {
			f := hit.Candidate
			return AssetRef{
				ID:        f.ID,
				URL:       f.URL(),
				SourceURL: img.URL,
				FileName:  f.Filename(),
				Alt:       f.Alt,
				Action:    ActionLibrary,
				Tier:      hit.Strategy,
			}, true, nil
		}
	}
	return AssetRef{}, false, nil
}

func libraryCascade(name, stem string) *matcher.Cascade[shopify.File] {
	return matcher.NewCascade(
		matcher.Strategy[shopify.File]{Name: TierExact, Match: func(f shopify.File) bool {
			return strings.EqualFold(f.Filename(), name)
		}},
		matcher.Strategy[shopify.File]{Name: TierUUID, Match: func(f shopify.File) bool {
			return HasUUIDSuffix(f.Filename(), stem)
		}},
		matcher.Strategy[shopify.File]{Name: TierSubstring, Match: func(f shopify.File) bool {
			return strings.Contains(strings.ToLower(f.Filename()), strings.ToLower(stem))
		}},
	)
}

// HasUUIDSuffix reports whether filename is "<stem>-<uuid>" with any
// extension.
func HasUUIDSuffix(filename, stem string) bool {
	base := strings.TrimSuffix(filename, path.Ext(filename))
	prefix := stem + "-"
	if len(base) <= len(prefix) || !strings.EqualFold(base[:len(prefix)], prefix) {
		return false
	}
	_, err := uuid.Parse(base[len(prefix):])
	return err == nil
}

func (c *Cache) upload(ctx context.Context, img pim.ImageDescriptor) (AssetRef, error) {
	if err := c.pacer.Wait(ctx); err != nil {
		return AssetRef{}, err
	}
	alt := AltText(img)
	f, err := c.lib.CreateFile(ctx, shopify.FileInput{
		OriginalSource: img.URL,
		Alt:            alt,
		Filename:       img.Name(),
		ContentType:    "IMAGE",
	})
	if err != nil {
		return AssetRef{}, errors.WrapResource("upload", "image", img.Name(), err)
	}
	c.uploads++
	return AssetRef{
		ID:        f.ID,
		URL:       f.URL(),
		SourceURL: img.URL,
		FileName:  img.Name(),
		Alt:       alt,
		Action:    ActionUploaded,
	}, nil
}

// AltText is the PIM alt text, else "<style>_<color>", else the file stem.
func AltText(img pim.ImageDescriptor) string {
	if img.Alt != "" {
		return img.Alt
	}
	if img.StyleID != "" && img.ColorCode != "" {
		return img.StyleID + "_" + img.ColorCode
	}
	return img.Stem()
}
