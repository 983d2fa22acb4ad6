package cache

import (
	"context"
	"errors"
	"testing"

	"github.com/jimyag/cloudconsole/internal/console/entity"
	"github.com/jimyag/cloudconsole/internal/console/metrics"
	"github.com/jimyag/cloudconsole/pkg/apierror"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockSource struct {
	mock.Mock
}

func (m *mockSource) ListFlavors(ctx context.Context) ([]entity.Flavor, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Flavor), args.Error(1)
}

func (m *mockSource) ListImages(ctx context.Context) ([]entity.Image, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Image), args.Error(1)
}

func (m *mockSource) ListInstanceSnapshots(ctx context.Context) ([]entity.InstanceSnapshot, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.InstanceSnapshot), args.Error(1)
}

func (m *mockSource) ListVolumes(ctx context.Context) ([]entity.Volume, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Volume), args.Error(1)
}

func (m *mockSource) ListVolumeSnapshots(ctx context.Context) ([]entity.VolumeSnapshot, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.VolumeSnapshot), args.Error(1)
}

func (m *mockSource) ListNetworks(ctx context.Context) ([]entity.Network, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Network), args.Error(1)
}

func (m *mockSource) ListAvailabilityZones(ctx context.Context) ([]entity.AvailabilityZone, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.AvailabilityZone), args.Error(1)
}

func TestCatalog_GetByKind(t *testing.T) {
	t.Parallel()

	src := &mockSource{}
	src.On("ListFlavors", mock.Anything).Return([]entity.Flavor{{ID: "f-small", VCPUs: 1, RAMMB: 1024, DiskGB: 20}}, nil).Once()
	src.On("ListNetworks", mock.Anything).Return([]entity.Network{{ID: "net-1"}}, nil).Once()

	c := NewCatalog(src, DefaultTTLs(), nil)
	ctx := context.Background()

	got, err := c.Get(ctx, KindFlavors, false)
	require.NoError(t, err)
	assert.Equal(t, []entity.Flavor{{ID: "f-small", VCPUs: 1, RAMMB: 1024, DiskGB: 20}}, got)

	// 第二次命中缓存，Once 保证不会再调用后端
	_, err = c.Get(ctx, KindFlavors, false)
	require.NoError(t, err)

	nets, err := c.Get(ctx, KindNetworks, false)
	require.NoError(t, err)
	assert.Len(t, nets, 1)

	_, err = c.Get(ctx, "billing", false)
	assert.ErrorIs(t, err, apierror.ErrInvalidParameter)

	src.AssertExpectations(t)
}

func TestCatalog_FallbackIsCounted(t *testing.T) {
	t.Parallel()

	src := &mockSource{}
	src.On("ListImages", mock.Anything).Return([]entity.Image{{ID: "img-1"}}, nil).Once()
	src.On("ListImages", mock.Anything).Return(nil, errors.New("timeout")).Once()

	m := metrics.New()
	c := NewCatalog(src, DefaultTTLs(), m)
	ctx := context.Background()

	_, err := c.Images.Get(ctx, false)
	require.NoError(t, err)
	images, err := c.Images.Get(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, []entity.Image{{ID: "img-1"}}, images)

	count, err := testutil.GatherAndCount(m.Registry(), "console_cache_fallbacks_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestCatalog_Flavor(t *testing.T) {
	t.Parallel()

	src := &mockSource{}
	src.On("ListFlavors", mock.Anything).Return([]entity.Flavor{{ID: "f-small"}, {ID: "f-large"}}, nil).Once()
	c := NewCatalog(src, DefaultTTLs(), nil)

	f, ok, err := c.Flavor(context.Background(), "f-large")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "f-large", f.ID)

	_, ok, err = c.Flavor(context.Background(), "f-missing")
	require.NoError(t, err)
	assert.False(t, ok)
}
