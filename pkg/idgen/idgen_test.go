package idgen

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Parallel()

	gen := New()
	assert.NotNil(t, gen)
	assert.NotNil(t, gen.sf)
}

func TestGenerator_Prefixes(t *testing.T) {
	t.Parallel()

	gen := New()

	testcases := []struct {
		name   string
		fn     func() (string, error)
		prefix string
	}{
		{name: "wizard", fn: gen.WizardID, prefix: "wz-"},
		{name: "operation", fn: gen.OperationID, prefix: "op-"},
		{name: "notification", fn: gen.NotificationID, prefix: "ntf-"},
	}

	for _, tc := range testcases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			id, err := tc.fn()
			require.NoError(t, err)
			assert.True(t, strings.HasPrefix(id, tc.prefix), id)
		})
	}
}

func TestGenerator_UniqueUnderConcurrency(t *testing.T) {
	t.Parallel()

	gen := DefaultGenerator()
	var (
		mu  sync.Mutex
		ids = make(map[string]bool)
		wg  sync.WaitGroup
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				id, err := gen.OperationID()
				assert.NoError(t, err)
				mu.Lock()
				assert.False(t, ids[id], "duplicate id %s", id)
				ids[id] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Len(t, ids, 160)
}
