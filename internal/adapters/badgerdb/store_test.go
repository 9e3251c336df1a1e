package badgerdb

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"trailbook/internal/ports"
)

func TestInMemoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, err := Open(InMemoryConfig())
	require.NoError(t, err)
	defer s.Close()

	_, ok, err := s.Get(ctx, "cell-1", ports.GraphKey)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(ctx, "cell-2", ports.GraphKey, "g2"))
	require.NoError(t, s.Set(ctx, "cell-1", ports.GraphKey, "g1"))
	require.NoError(t, s.Set(ctx, "cell-1", ports.BaselineKey, "b1"))

	v, ok, err := s.Get(ctx, "cell-1", ports.BaselineKey)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "b1", v)

	ids, err := s.Entities(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"cell-1", "cell-2"}, ids)

	require.NoError(t, s.Delete(ctx, "cell-2", ports.GraphKey))
	ids, err = s.Entities(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"cell-1"}, ids)
}

func TestDeleteEntityLeavesPrefixSiblings(t *testing.T) {
	ctx := context.Background()
	s, err := Open(InMemoryConfig())
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Set(ctx, "cell", ports.GraphKey, "a"))
	require.NoError(t, s.Set(ctx, "cell", ports.BaselineKey, "b"))
	require.NoError(t, s.Set(ctx, "cell-10", ports.GraphKey, "c"))

	require.NoError(t, s.DeleteEntity(ctx, "cell"))

	ids, err := s.Entities(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"cell-10"}, ids)
}

func TestPersistentReopen(t *testing.T) {
	ctx := context.Background()
	cfg := DefaultConfig(t.TempDir())
	cfg.Logger = zap.NewNop()

	s, err := Open(cfg)
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, "cell-1", ports.GraphKey, "g"))
	require.NoError(t, s.Close())

	s, err = Open(cfg)
	require.NoError(t, err)
	defer s.Close()

	v, ok, err := s.Get(ctx, "cell-1", ports.GraphKey)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "g", v)
	assert.Equal(t, cfg.Path, s.Path())
}

func TestOpenRequiresPath(t *testing.T) {
	_, err := Open(Config{})
	assert.Error(t, err)
}

func TestCancelledContext(t *testing.T) {
	s, err := Open(InMemoryConfig())
	require.NoError(t, err)
	defer s.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, s.Set(ctx, "cell-1", ports.GraphKey, "g"), context.Canceled)
}
