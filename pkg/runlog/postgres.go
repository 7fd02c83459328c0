package runlog

import (
	"context"
	"sort"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/agentstation/pimsync/pkg/errors"
	"github.com/agentstation/pimsync/pkg/logging"
	"github.com/agentstation/pimsync/pkg/sync"
)

// DB is satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS pimsync_runs (
	run_id              UUID PRIMARY KEY,
	kind                TEXT NOT NULL,
	style_ids           TEXT[] NOT NULL DEFAULT '{}',
	started_at          TIMESTAMPTZ NOT NULL,
	finished_at         TIMESTAMPTZ,
	products_created    INTEGER NOT NULL DEFAULT 0,
	products_updated    INTEGER NOT NULL DEFAULT 0,
	products_skipped    INTEGER NOT NULL DEFAULT 0,
	variants_created    INTEGER NOT NULL DEFAULT 0,
	variants_updated    INTEGER NOT NULL DEFAULT 0,
	images_uploaded     INTEGER NOT NULL DEFAULT 0,
	images_assigned     INTEGER NOT NULL DEFAULT 0,
	metafields_created  INTEGER NOT NULL DEFAULT 0,
	categories_assigned INTEGER NOT NULL DEFAULT 0,
	errors              TEXT[] NOT NULL DEFAULT '{}'
);
CREATE TABLE IF NOT EXISTS pimsync_attachments (
	run_id     UUID NOT NULL REFERENCES pimsync_runs(run_id) ON DELETE CASCADE,
	file_name  TEXT NOT NULL,
	source_url TEXT NOT NULL DEFAULT '',
	action     TEXT NOT NULL,
	asset_id   TEXT NOT NULL DEFAULT '',
	expected   INTEGER NOT NULL DEFAULT 0,
	succeeded  INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (run_id, file_name)
);`

const insertRunSQL = `
INSERT INTO pimsync_runs (
	run_id, kind, style_ids, started_at, finished_at,
	products_created, products_updated, products_skipped,
	variants_created, variants_updated, images_uploaded, images_assigned,
	metafields_created, categories_assigned, errors
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
ON CONFLICT (run_id) DO UPDATE SET
	finished_at = EXCLUDED.finished_at,
	products_created = EXCLUDED.products_created,
	products_updated = EXCLUDED.products_updated,
	products_skipped = EXCLUDED.products_skipped,
	variants_created = EXCLUDED.variants_created,
	variants_updated = EXCLUDED.variants_updated,
	images_uploaded = EXCLUDED.images_uploaded,
	images_assigned = EXCLUDED.images_assigned,
	metafields_created = EXCLUDED.metafields_created,
	categories_assigned = EXCLUDED.categories_assigned,
	errors = EXCLUDED.errors`

const insertAttachmentSQL = `
INSERT INTO pimsync_attachments (run_id, file_name, source_url, action, asset_id, expected, succeeded)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (run_id, file_name) DO UPDATE SET
	action = EXCLUDED.action,
	asset_id = EXCLUDED.asset_id,
	expected = EXCLUDED.expected,
	succeeded = EXCLUDED.succeeded`

// PostgresStore writes runs and their attachment logs to PostgreSQL.
type PostgresStore struct {
	db DB
}

// NewPostgresStore wraps db. Call Migrate once before the first Save.
func NewPostgresStore(db DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// OpenPostgres connects a pool to url and ensures the tables exist. The
// returned close func releases the pool.
func OpenPostgres(ctx context.Context, url string) (*PostgresStore, func(), error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, nil, errors.NewConfigError("runlog", "invalid database url", err)
	}
	s := NewPostgresStore(pool)
	if err := s.Migrate(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}
	return s, pool.Close, nil
}

// Migrate creates the run log tables when they are missing.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schemaSQL); err != nil {
		return errors.WrapResource("migrate", "run log tables", "pimsync_runs", err)
	}
	return nil
}

// Save implements Store. The run row and every attachment row go out in
// one batch.
func (s *PostgresStore) Save(ctx context.Context, r *sync.Result) error {
	b := &pgx.Batch{}

	var finished any
	if !r.FinishedAt.IsZero() {
		finished = r.FinishedAt.Time
	}
	styleIDs := r.StyleIDs
	if styleIDs == nil {
		styleIDs = []string{}
	}
	b.Queue(insertRunSQL,
		r.RunID, string(r.Kind), styleIDs, r.StartedAt.Time, finished,
		r.ProductsCreated, r.ProductsUpdated, r.ProductsSkipped,
		r.VariantsCreated, r.VariantsUpdated, r.ImagesUploaded, r.ImagesAssigned,
		r.MetafieldsCreated, r.CategoriesAssigned, r.Errors,
	)

	names := make([]string, 0, len(r.ImageLog))
	for name := range r.ImageLog {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		l := r.ImageLog[name]
		b.Queue(insertAttachmentSQL, r.RunID, name, l.SourceURL, string(l.Action), l.AssetID, l.Expected, l.Succeeded)
	}

	br := s.db.SendBatch(ctx, b)
	for i := 0; i < b.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			_ = br.Close()
			return errors.WrapResource("save", "run", r.RunID, err)
		}
	}
	if err := br.Close(); err != nil {
		return errors.WrapResource("save", "run", r.RunID, err)
	}

	logging.FromContext(ctx).Debug().Str("run_id", r.RunID).Int("attachments", len(names)).Msg("Saved run log to database")
	return nil
}
