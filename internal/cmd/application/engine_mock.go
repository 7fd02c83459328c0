package application

import (
	"context"
	"time"

	"github.com/agentstation/pimsync"
	"github.com/agentstation/pimsync/pkg/pim"
	"github.com/agentstation/pimsync/pkg/sync"
)

// EngineMock is a pimsync.Engine whose behavior is set per test. Calls
// to an unset function return zero values.
type EngineMock struct {
	ImportStylesFunc func(ctx context.Context, styleIDs []string, opts ...sync.Option) (*sync.Result, error)
	ImportAllFunc    func(ctx context.Context, opts ...sync.Option) (*sync.Result, error)
	ImportImagesFunc func(ctx context.Context, styleIDs []string, opts ...sync.Option) (*sync.Result, error)
	FetchFunc        func(ctx context.Context, styleID string) ([]pim.ProductGroup, error)
	ScheduleFunc     func(ctx context.Context, interval time.Duration, opts ...sync.Option) error
}

// ImportStyles implements pimsync.Engine.
func (m *EngineMock) ImportStyles(ctx context.Context, styleIDs []string, opts ...sync.Option) (*sync.Result, error) {
	if m.ImportStylesFunc != nil {
		return m.ImportStylesFunc(ctx, styleIDs, opts...)
	}
	return nil, nil
}

// ImportAll implements pimsync.Engine.
func (m *EngineMock) ImportAll(ctx context.Context, opts ...sync.Option) (*sync.Result, error) {
	if m.ImportAllFunc != nil {
		return m.ImportAllFunc(ctx, opts...)
	}
	return nil, nil
}

// ImportImages implements pimsync.Engine.
func (m *EngineMock) ImportImages(ctx context.Context, styleIDs []string, opts ...sync.Option) (*sync.Result, error) {
	if m.ImportImagesFunc != nil {
		return m.ImportImagesFunc(ctx, styleIDs, opts...)
	}
	return nil, nil
}

// Fetch implements pimsync.Engine.
func (m *EngineMock) Fetch(ctx context.Context, styleID string) ([]pim.ProductGroup, error) {
	if m.FetchFunc != nil {
		return m.FetchFunc(ctx, styleID)
	}
	return nil, nil
}

// Schedule implements pimsync.Engine.
func (m *EngineMock) Schedule(ctx context.Context, interval time.Duration, opts ...sync.Option) error {
	if m.ScheduleFunc != nil {
		return m.ScheduleFunc(ctx, interval, opts...)
	}
	return nil
}

// OnProduct implements pimsync.Engine; hooks are not fired.
func (m *EngineMock) OnProduct(pimsync.ProductHook) {}

// OnStyleError implements pimsync.Engine; hooks are not fired.
func (m *EngineMock) OnStyleError(pimsync.StyleErrorHook) {}

var _ pimsync.Engine = (*EngineMock)(nil)
