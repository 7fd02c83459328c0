package attach

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/pimsync/internal/wait"
	pkgerrors "github.com/agentstation/pimsync/pkg/errors"
)

// scriptedLinker returns its errors in order, then nil.
type scriptedLinker struct {
	errs  []error
	calls int
}

func (l *scriptedLinker) AddFileReferences(_ context.Context, fileID string, ownerIDs ...string) error {
	l.calls++
	if l.calls <= len(l.errs) {
		return l.errs[l.calls-1]
	}
	return nil
}

func userErr(msg string) error {
	return pkgerrors.AsError("fileUpdate", []pkgerrors.UserError{{Message: msg}})
}

func repeat(err error, n int) []error {
	out := make([]error, n)
	for i := range out {
		out[i] = err
	}
	return out
}

func TestAttach_Success(t *testing.T) {
	l := &scriptedLinker{}
	var rec wait.Recorder
	ok := New(l, WithSleep(rec.Sleep)).Attach(context.Background(), "gid://shopify/MediaImage/1", "gid://shopify/Product/1")
	assert.True(t, ok)
	assert.Equal(t, 1, l.calls)
	assert.Equal(t, []time.Duration{3 * time.Second}, rec.Delays, "initial wait is unconditional")
}

func TestAttach_AlreadyIsSuccess(t *testing.T) {
	l := &scriptedLinker{errs: repeat(userErr("File is already referenced by the product"), 10)}
	var rec wait.Recorder
	ok := New(l, WithSleep(rec.Sleep)).Attach(context.Background(), "f", "p")
	assert.True(t, ok)
	assert.Equal(t, 1, l.calls)
}

func TestAttach_ProcessingRetriesThenGivesUp(t *testing.T) {
	l := &scriptedLinker{errs: repeat(userErr("Media is still processing"), 10)}
	var rec wait.Recorder
	ok := New(l, WithSleep(rec.Sleep)).Attach(context.Background(), "f", "p")
	assert.False(t, ok)
	assert.Equal(t, 5, l.calls)
	assert.Equal(t, []time.Duration{3 * time.Second, 3 * time.Second, 6 * time.Second, 9 * time.Second, 12 * time.Second}, rec.Delays)

	backoffs := rec.Delays[1:]
	for i := 1; i < len(backoffs); i++ {
		assert.Greater(t, backoffs[i], backoffs[i-1])
	}
}

func TestAttach_NonReadyClears(t *testing.T) {
	l := &scriptedLinker{errs: []error{userErr("Non-ready files cannot be referenced"), userErr("Non-ready files cannot be referenced")}}
	var rec wait.Recorder
	ok := New(l, WithSleep(rec.Sleep)).Attach(context.Background(), "f", "p")
	assert.True(t, ok)
	assert.Equal(t, 3, l.calls)
}

func TestAttach_FatalUserError(t *testing.T) {
	l := &scriptedLinker{errs: []error{userErr("File does not exist")}}
	var rec wait.Recorder
	ok := New(l, WithSleep(rec.Sleep)).Attach(context.Background(), "f", "p")
	assert.False(t, ok)
	assert.Equal(t, 1, l.calls)
	assert.Len(t, rec.Delays, 1)
}

func TestAttach_TransportErrorsRetry(t *testing.T) {
	boom := pkgerrors.WrapAPI("shopify", 0, errors.New("connection reset"))
	l := &scriptedLinker{errs: []error{boom, boom}}
	var rec wait.Recorder
	ok := New(l, WithSleep(rec.Sleep)).Attach(context.Background(), "f", "p")
	assert.True(t, ok)
	assert.Equal(t, 3, l.calls)
	assert.Equal(t, []time.Duration{3 * time.Second, 1 * time.Second, 2 * time.Second}, rec.Delays)
}

func TestAttach_Options(t *testing.T) {
	l := &scriptedLinker{errs: repeat(userErr("processing"), 10)}
	var rec wait.Recorder
	e := New(l, WithSleep(rec.Sleep), WithMaxAttempts(2), WithInitialWait(0), WithPacer(wait.NewPacer(0)))
	assert.False(t, e.Attach(context.Background(), "f", "p"))
	assert.Equal(t, 2, l.calls)
	assert.Equal(t, []time.Duration{0, 3 * time.Second}, rec.Delays)
}

func TestAttach_Cancelled(t *testing.T) {
	l := &scriptedLinker{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var rec wait.Recorder
	require.False(t, New(l, WithSleep(rec.Sleep)).Attach(ctx, "f", "p"))
	assert.Zero(t, l.calls)
}
