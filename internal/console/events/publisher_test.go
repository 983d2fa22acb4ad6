package events

import (
	"context"
	"testing"

	"github.com/jimyag/cloudconsole/internal/console/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPublisherWithoutURL(t *testing.T) {
	t.Parallel()

	p, err := NewPublisher(Config{})
	require.NoError(t, err)
	assert.IsType(t, NopPublisher{}, p)
	assert.NoError(t, p.PublishOperation(context.Background(), &entity.Operation{ID: "op-1"}))
	p.Close()
}

func TestNewPublisherUnreachable(t *testing.T) {
	t.Parallel()

	_, err := NewPublisher(Config{URL: "nats://127.0.0.1:1"})
	assert.Error(t, err)
}

func TestClosedPublisher(t *testing.T) {
	t.Parallel()

	p := &natsPublisher{}
	assert.Error(t, p.PublishOperation(context.Background(), &entity.Operation{ID: "op-1"}))
	p.Close()
}

func TestSubscribeRequiresURL(t *testing.T) {
	t.Parallel()

	err := Subscribe(context.Background(), Config{}, func(entity.Operation) {})
	assert.Error(t, err)

	err = Subscribe(context.Background(), Config{URL: "nats://127.0.0.1:1"}, func(entity.Operation) {})
	assert.Error(t, err)
}
