package runlog

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/agentstation/pimsync/pkg/errors"
	"github.com/agentstation/pimsync/pkg/sync"
)

func sampleResult() *sync.Result {
	r := sync.NewResult(sync.KindStyles, []string{"STTU964"})
	r.AddProduct(sync.ProductRecord{StyleID: "STTU964", ProductID: "gid://shopify/Product/1", Title: "Creator 2.0", Action: "created"})
	r.VariantsCreated = 12
	r.AddError("STSU177", errors.New("no data in any partition"))
	l := r.Image("SFM0_STTU964_C134.jpg", "https://pim.example/SFM0_STTU964_C134.jpg")
	l.Action, l.AssetID, l.Expected, l.Succeeded = sync.ImageUploaded, "gid://shopify/MediaImage/9", 1, 1
	r.Image("b.jpg", "").Action = sync.ImageReusedFromCache
	r.Finish()
	return r
}

func TestYAMLStore(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "runs")
	s := NewYAMLStore(dir)
	r := sampleResult()

	require.NoError(t, s.Save(context.Background(), r))

	files, err := s.List()
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.True(t, strings.HasSuffix(files[0], "-"+r.RunID+".yaml"))

	data, err := os.ReadFile(files[0])
	require.NoError(t, err)
	assert.Contains(t, string(data), "products_created: 1")
	assert.Contains(t, string(data), "action: uploaded-new")

	loaded, err := s.Load(r.RunID)
	require.NoError(t, err)
	assert.Equal(t, r.RunID, loaded.RunID)
	assert.Equal(t, r.Errors, loaded.Errors)
	require.Contains(t, loaded.ImageLog, "SFM0_STTU964_C134.jpg")
	assert.Equal(t, "gid://shopify/MediaImage/9", loaded.ImageLog["SFM0_STTU964_C134.jpg"].AssetID)

	_, err = s.Load("missing")
	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestYAMLStore_ListMissingDir(t *testing.T) {
	files, err := NewYAMLStore(filepath.Join(t.TempDir(), "nope")).List()
	require.NoError(t, err)
	assert.Empty(t, files)
}

type queued struct {
	sql  string
	args []any
}

type fakeDB struct {
	execs   []string
	batches [][]queued
	failAt  int // 1-based batch statement that fails, 0 for none
}

func (f *fakeDB) Exec(_ context.Context, sql string, _ ...any) (pgconn.CommandTag, error) {
	f.execs = append(f.execs, sql)
	return pgconn.NewCommandTag("CREATE TABLE"), nil
}

func (f *fakeDB) SendBatch(_ context.Context, b *pgx.Batch) pgx.BatchResults {
	var qs []queued
	for _, q := range b.QueuedQueries {
		qs = append(qs, queued{sql: q.SQL, args: q.Arguments})
	}
	f.batches = append(f.batches, qs)
	return &fakeBatch{failAt: f.failAt}
}

type fakeBatch struct {
	n      int
	failAt int
	closed bool
}

func (b *fakeBatch) Exec() (pgconn.CommandTag, error) {
	b.n++
	if b.n == b.failAt {
		return pgconn.CommandTag{}, errors.New("duplicate key value violates unique constraint")
	}
	return pgconn.NewCommandTag("INSERT 0 1"), nil
}

func (b *fakeBatch) Query() (pgx.Rows, error) { return nil, errors.New("not used") }
func (b *fakeBatch) QueryRow() pgx.Row        { return nil }
func (b *fakeBatch) Close() error {
	b.closed = true
	return nil
}

func TestPostgresStore(t *testing.T) {
	ctx := context.Background()

	t.Run("migrate creates both tables", func(t *testing.T) {
		db := &fakeDB{}
		require.NoError(t, NewPostgresStore(db).Migrate(ctx))
		require.Len(t, db.execs, 1)
		assert.Contains(t, db.execs[0], "pimsync_runs")
		assert.Contains(t, db.execs[0], "pimsync_attachments")
	})

	t.Run("run and attachments in one batch", func(t *testing.T) {
		db := &fakeDB{}
		r := sampleResult()
		require.NoError(t, NewPostgresStore(db).Save(ctx, r))

		require.Len(t, db.batches, 1)
		batch := db.batches[0]
		require.Len(t, batch, 3)
		assert.Contains(t, batch[0].sql, "INSERT INTO pimsync_runs")
		assert.Equal(t, r.RunID, batch[0].args[0])
		assert.Equal(t, "styles", batch[0].args[1])

		assert.Contains(t, batch[1].sql, "INSERT INTO pimsync_attachments")
		assert.Equal(t, "SFM0_STTU964_C134.jpg", batch[1].args[1])
		assert.Equal(t, "uploaded-new", batch[1].args[3])
		assert.Equal(t, "b.jpg", batch[2].args[1])
	})

	t.Run("statement failure is reported", func(t *testing.T) {
		db := &fakeDB{failAt: 2}
		err := NewPostgresStore(db).Save(ctx, sampleResult())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "duplicate key")
	})
}

type failingStore struct{ err error }

func (f failingStore) Save(context.Context, *sync.Result) error { return f.err }

func TestMulti(t *testing.T) {
	dir := t.TempDir()
	boom := errors.New("db down")
	m := Multi{failingStore{err: boom}, nil, NewYAMLStore(dir), Discard{}}

	err := m.Save(context.Background(), sampleResult())
	assert.ErrorIs(t, err, boom)

	files, err := NewYAMLStore(dir).List()
	require.NoError(t, err)
	assert.Len(t, files, 1, "later stores still run")
}
