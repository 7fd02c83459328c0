package schedule

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/pimsync"
	"github.com/agentstation/pimsync/internal/cmd/application"
	"github.com/agentstation/pimsync/pkg/sync"
)

func TestSchedule(t *testing.T) {
	var (
		interval time.Duration
		opts     *sync.Options
	)
	engine := &application.EngineMock{
		ScheduleFunc: func(_ context.Context, every time.Duration, o ...sync.Option) error {
			interval = every
			opts = sync.Defaults().Apply(o...)
			return nil
		},
	}
	app := &application.Mock{EngineFunc: func() (pimsync.Engine, error) { return engine, nil }}

	cmd := NewCommand(app)
	cmd.SetArgs([]string{"--every", "30m", "--skip-metafields"})
	require.NoError(t, cmd.ExecuteContext(context.Background()))

	assert.Equal(t, 30*time.Minute, interval)
	assert.True(t, opts.SkipMetafields)
}

func TestSchedule_DefaultInterval(t *testing.T) {
	var interval time.Duration
	engine := &application.EngineMock{
		ScheduleFunc: func(_ context.Context, every time.Duration, _ ...sync.Option) error {
			interval = every
			return nil
		},
	}
	app := &application.Mock{EngineFunc: func() (pimsync.Engine, error) { return engine, nil }}

	cmd := NewCommand(app)
	cmd.SetArgs([]string{})
	require.NoError(t, cmd.ExecuteContext(context.Background()))
	assert.Equal(t, DefaultInterval, interval)
}
