// Package constants provides shared constants used throughout the pimsync
// engine: network timeouts, retry budgets, eventual-consistency pauses and
// catalog limits. Values that operators tune per store live in configuration
// instead; these are the protocol defaults.
package constants

import "time"

// Timeout constants
const (
	// DefaultHTTPTimeout is the standard timeout for requests to the PIM and the target catalog
	DefaultHTTPTimeout = 60 * time.Second

	// DefaultMutationDelay is the pause inserted between catalog-mutating calls
	DefaultMutationDelay = 250 * time.Millisecond
)

// Source connector retry schedule
const (
	// SourceMaxAttempts bounds how many times the partition probe sequence is repeated
	SourceMaxAttempts = 3

	// SourceRetryBase is multiplied by the attempt number (2s, 4s)
	SourceRetryBase = 2 * time.Second
)

// Attachment retry schedule
const (
	// AttachMaxAttempts is the attempt budget for linking a file to an entity
	AttachMaxAttempts = 5

	// AttachInitialWait absorbs upload processing lag before the first attempt
	AttachInitialWait = 3 * time.Second

	// AttachNotReadyBackoff is multiplied by the attempt number on "processing" responses
	AttachNotReadyBackoff = 3 * time.Second

	// AttachTransportBackoff is multiplied by the attempt number on transport failures
	AttachTransportBackoff = 1 * time.Second
)

// Variant image assignment retry schedule
const (
	// AssignMaxRetries is how many times a processing-blocked assignment is retried
	AssignMaxRetries = 3

	// AssignRetryBase is multiplied by the retry number (2s, 4s, 6s)
	AssignRetryBase = 2 * time.Second
)

// Eventual consistency pauses
const (
	// SchemaPropagationWait follows creation of metafield definitions
	SchemaPropagationWait = 5 * time.Second

	// MediaSettleWait follows a batch of uploads before variant assignment
	MediaSettleWait = 3 * time.Second
)

// Catalog limits
const (
	// SplitThreshold is the member count above which a style is split by size.
	// It mirrors the target platform's per-product variant limit.
	SplitThreshold = 100

	// SearchPageSize is the page size for product and file searches
	SearchPageSize = 25

	// VariantPageSize is the number of variants fetched per product in searches
	VariantPageSize = 250

	// ThrottleMinAvailable is the query cost floor below which the client waits for restore
	ThrottleMinAvailable = 100.0
)

// File permission constants
const (
	// DirPermissions is the default permission for created directories (rwxr-xr-x)
	DirPermissions = 0o755

	// FilePermissions is the default permission for created files (rw-r--r--)
	FilePermissions = 0o644
)
