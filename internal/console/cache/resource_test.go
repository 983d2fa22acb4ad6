package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock 可手动推进的时钟
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// scriptedFetcher 按顺序返回预设结果并记录调用次数
type scriptedFetcher struct {
	calls   int32
	results []fetchResult
}

type fetchResult struct {
	value []string
	err   error
}

func (f *scriptedFetcher) Fetch(ctx context.Context) ([]string, error) {
	n := atomic.AddInt32(&f.calls, 1)
	r := f.results[min(int(n)-1, len(f.results)-1)]
	return r.value, r.err
}

func newTestResource(f *scriptedFetcher, clock *fakeClock) *Resource[[]string] {
	return NewResource("flavors", time.Minute, f.Fetch, Options{Now: clock.Now})
}

func TestResource_Get(t *testing.T) {
	t.Parallel()

	errBackend := errors.New("backend unavailable")

	testcases := []struct {
		name      string
		results   []fetchResult
		steps     func(t *testing.T, r *Resource[[]string], clock *fakeClock)
		wantCalls int32
	}{
		{
			name:    "fresh entry is served without fetching",
			results: []fetchResult{{value: []string{"f-small"}}},
			steps: func(t *testing.T, r *Resource[[]string], clock *fakeClock) {
				v, err := r.Get(context.Background(), false)
				require.NoError(t, err)
				assert.Equal(t, []string{"f-small"}, v)

				clock.Advance(59 * time.Second)
				v, err = r.Get(context.Background(), false)
				require.NoError(t, err)
				assert.Equal(t, []string{"f-small"}, v)
			},
			wantCalls: 1,
		},
		{
			name:    "expired entry is refetched",
			results: []fetchResult{{value: []string{"a"}}, {value: []string{"b"}}},
			steps: func(t *testing.T, r *Resource[[]string], clock *fakeClock) {
				_, err := r.Get(context.Background(), false)
				require.NoError(t, err)
				clock.Advance(time.Minute)
				v, err := r.Get(context.Background(), false)
				require.NoError(t, err)
				assert.Equal(t, []string{"b"}, v)

				entry, ok := r.Peek()
				require.True(t, ok)
				assert.Equal(t, clock.Now(), entry.FetchedAt)
			},
			wantCalls: 2,
		},
		{
			name:    "force bypasses freshness",
			results: []fetchResult{{value: []string{"a"}}, {value: []string{"b"}}},
			steps: func(t *testing.T, r *Resource[[]string], clock *fakeClock) {
				_, err := r.Get(context.Background(), false)
				require.NoError(t, err)
				v, err := r.Get(context.Background(), true)
				require.NoError(t, err)
				assert.Equal(t, []string{"b"}, v)
			},
			wantCalls: 2,
		},
		{
			name:    "forced refresh failure falls back to prior payload",
			results: []fetchResult{{value: []string{"img-1"}}, {err: errBackend}},
			steps: func(t *testing.T, r *Resource[[]string], clock *fakeClock) {
				_, err := r.Get(context.Background(), false)
				require.NoError(t, err)
				v, err := r.Get(context.Background(), true)
				require.NoError(t, err)
				assert.Equal(t, []string{"img-1"}, v)
			},
			wantCalls: 2,
		},
		{
			name:    "stale entry is served when refetch fails",
			results: []fetchResult{{value: []string{"net-1"}}, {err: errBackend}},
			steps: func(t *testing.T, r *Resource[[]string], clock *fakeClock) {
				_, err := r.Get(context.Background(), false)
				require.NoError(t, err)
				clock.Advance(time.Hour)
				v, err := r.Get(context.Background(), false)
				require.NoError(t, err)
				assert.Equal(t, []string{"net-1"}, v)

				// 失败不会刷新时间戳
				entry, _ := r.Peek()
				assert.Equal(t, clock.Now().Add(-time.Hour), entry.FetchedAt)
			},
			wantCalls: 2,
		},
		{
			name:    "failure without any entry propagates",
			results: []fetchResult{{err: errBackend}},
			steps: func(t *testing.T, r *Resource[[]string], clock *fakeClock) {
				v, err := r.Get(context.Background(), false)
				assert.ErrorIs(t, err, errBackend)
				assert.Nil(t, v)
				_, ok := r.Peek()
				assert.False(t, ok)
			},
			wantCalls: 1,
		},
	}

	for _, tc := range testcases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			clock := &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
			f := &scriptedFetcher{results: tc.results}
			r := newTestResource(f, clock)
			tc.steps(t, r, clock)
			assert.Equal(t, tc.wantCalls, atomic.LoadInt32(&f.calls))
		})
	}
}

func TestResource_ConcurrentGetCollapses(t *testing.T) {
	t.Parallel()

	var calls int32
	release := make(chan struct{})
	r := NewResource("images", time.Minute, func(ctx context.Context) ([]string, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return []string{"img"}, nil
	}, Options{})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := r.Get(context.Background(), false)
			assert.NoError(t, err)
			assert.Equal(t, []string{"img"}, v)
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}
