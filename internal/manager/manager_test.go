package manager_test

import (
	"context"
	"errors"
	"testing"

	"github.com/jonesrussell/north-cloud/index-rotator/internal/elasticsearch"
	"github.com/jonesrussell/north-cloud/index-rotator/internal/manager"
	"github.com/jonesrussell/north-cloud/index-rotator/internal/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func catalogMapping() map[string]any {
	return map[string]any{
		"settings": map[string]any{"number_of_shards": 1},
		"mappings": map[string]any{
			"properties": map[string]any{
				"sku":   map[string]any{"type": "keyword"},
				"title": map[string]any{"type": "text"},
			},
		},
	}
}

func TestNew_StartsAtBaseName(t *testing.T) {
	m := manager.New("default", "catalog", catalogMapping(), testutils.NewFakeEngine())

	assert.Equal(t, "default", m.Name())
	assert.Equal(t, "catalog", m.BaseName())
	assert.Equal(t, "catalog", m.AliasName())
	assert.Equal(t, "catalog", m.IndexName())

	m.SetIndexName("catalog-2")
	assert.Equal(t, "catalog-2", m.IndexName())
	assert.Equal(t, "catalog", m.BaseName())
}

func TestCreateIndex(t *testing.T) {
	ctx := context.Background()

	t.Run("with mapping", func(t *testing.T) {
		engine := testutils.NewFakeEngine()
		m := manager.New("default", "catalog", catalogMapping(), engine)

		require.NoError(t, m.CreateIndex(ctx, "catalog", true))

		mapping, err := m.GetMapping(ctx, "catalog")
		require.NoError(t, err)
		assert.Contains(t, mapping["properties"], "sku")
	})

	t.Run("without mapping", func(t *testing.T) {
		engine := testutils.NewFakeEngine()
		m := manager.New("default", "catalog", catalogMapping(), engine)

		require.NoError(t, m.CreateIndex(ctx, "catalog", false))

		mapping, err := m.GetMapping(ctx, "catalog")
		require.NoError(t, err)
		assert.Empty(t, mapping)
	})

	t.Run("already exists", func(t *testing.T) {
		engine := testutils.NewFakeEngine()
		engine.Seed("catalog", nil)
		m := manager.New("default", "catalog", catalogMapping(), engine)

		err := m.CreateIndex(ctx, "catalog", true)
		require.ErrorIs(t, err, elasticsearch.ErrIndexAlreadyExists)
	})
}

func TestDropIndex(t *testing.T) {
	ctx := context.Background()
	engine := testutils.NewFakeEngine()
	engine.Seed("catalog-1", nil)
	m := manager.New("default", "catalog", nil, engine)

	require.NoError(t, m.DropIndex(ctx, "catalog-1"))

	exists, err := m.IndexExists(ctx, "catalog-1")
	require.NoError(t, err)
	assert.False(t, exists)

	err = m.DropIndex(ctx, "catalog-1")
	require.ErrorIs(t, err, elasticsearch.ErrIndexNotFound)
}

func TestDropIndex_AliasName(t *testing.T) {
	ctx := context.Background()
	engine := testutils.NewFakeEngine()
	engine.Seed("catalog-1", nil, "catalog")
	m := manager.New("default", "catalog", nil, engine)

	err := m.DropIndex(ctx, "catalog")
	require.ErrorIs(t, err, elasticsearch.ErrEngineUnavailable)
	require.NotErrorIs(t, err, elasticsearch.ErrIndexNotFound)
	assert.Contains(t, err.Error(), "illegal_argument_exception")
	assert.Equal(t, []string{"catalog-1"}, engine.Indices())
}

func TestGetMapping_NotFound(t *testing.T) {
	m := manager.New("default", "catalog", nil, testutils.NewFakeEngine())

	_, err := m.GetMapping(context.Background(), "catalog")
	require.ErrorIs(t, err, elasticsearch.ErrIndexNotFound)
}

func TestAliasReads(t *testing.T) {
	ctx := context.Background()
	engine := testutils.NewFakeEngine()
	m := manager.New("default", "catalog", nil, engine)

	exists, err := m.AliasExists(ctx, "catalog")
	require.NoError(t, err)
	assert.False(t, exists)

	indices, err := m.GetAliasedIndices(ctx, "catalog")
	require.NoError(t, err)
	assert.Empty(t, indices)

	engine.Seed("catalog-1", nil, "catalog")

	exists, err = m.AliasExists(ctx, "catalog")
	require.NoError(t, err)
	assert.True(t, exists)

	indices, err = m.GetAliasedIndices(ctx, "catalog")
	require.NoError(t, err)
	assert.Equal(t, []string{"catalog-1"}, indices)
	assert.Zero(t, engine.CountCalls(testutils.OpUpdateAliases))
}

func TestSwapAlias_SingleRequest(t *testing.T) {
	ctx := context.Background()
	engine := testutils.NewFakeEngine()
	engine.Seed("catalog-1", nil, "catalog")
	engine.Seed("catalog-2", nil)
	m := manager.New("default", "catalog", nil, engine)

	require.NoError(t, m.SwapAlias(ctx, "catalog", []string{"catalog-1"}, "catalog-2"))

	updates := engine.AliasUpdates()
	require.Len(t, updates, 1)
	assert.Equal(t, []elasticsearch.AliasAction{
		{Type: elasticsearch.AliasRemove, Index: "catalog-1", Alias: "catalog"},
		{Type: elasticsearch.AliasAdd, Index: "catalog-2", Alias: "catalog"},
	}, updates[0])

	indices, err := m.GetAliasedIndices(ctx, "catalog")
	require.NoError(t, err)
	assert.Equal(t, []string{"catalog-2"}, indices)

	exists, err := m.IndexExists(ctx, "catalog-1")
	require.NoError(t, err)
	assert.True(t, exists, "previous index must not be deleted")
}

func TestSwapAlias_FirstRun(t *testing.T) {
	ctx := context.Background()
	engine := testutils.NewFakeEngine()
	engine.Seed("catalog-1", nil)
	m := manager.New("default", "catalog", nil, engine)

	require.NoError(t, m.SwapAlias(ctx, "catalog", nil, "catalog-1"))

	updates := engine.AliasUpdates()
	require.Len(t, updates, 1)
	assert.Equal(t, []elasticsearch.AliasAction{
		{Type: elasticsearch.AliasAdd, Index: "catalog-1", Alias: "catalog"},
	}, updates[0])
}

func TestSwapAlias_RemovesEveryHolder(t *testing.T) {
	ctx := context.Background()
	engine := testutils.NewFakeEngine()
	engine.Seed("catalog-1", nil, "catalog")
	engine.Seed("catalog-2", nil, "catalog")
	engine.Seed("catalog-3", nil)
	m := manager.New("default", "catalog", nil, engine)

	require.NoError(t, m.SwapAlias(ctx, "catalog", []string{"catalog-1", "catalog-2"}, "catalog-3"))

	indices, err := m.GetAliasedIndices(ctx, "catalog")
	require.NoError(t, err)
	assert.Equal(t, []string{"catalog-3"}, indices)
	assert.Len(t, engine.AliasUpdates(), 1)
}

func TestSwapAlias_Rejected(t *testing.T) {
	ctx := context.Background()
	engine := testutils.NewFakeEngine()
	engine.Seed("catalog-1", nil, "catalog")
	m := manager.New("default", "catalog", nil, engine)

	err := m.SwapAlias(ctx, "catalog", []string{"catalog-1"}, "catalog-missing")
	require.ErrorIs(t, err, manager.ErrAliasSwap)

	var respErr *elasticsearch.ResponseError
	require.ErrorAs(t, err, &respErr)

	indices, readErr := m.GetAliasedIndices(ctx, "catalog")
	require.NoError(t, readErr)
	assert.Equal(t, []string{"catalog-1"}, indices, "rejected swap must leave the alias untouched")
}

func TestSwapAlias_TransportFailure(t *testing.T) {
	engine := testutils.NewFakeEngine()
	engine.Seed("catalog-1", nil)
	engine.FailOn(testutils.OpUpdateAliases, errors.Join(elasticsearch.ErrEngineUnavailable, errors.New("connection reset")))
	m := manager.New("default", "catalog", nil, engine)

	err := m.SwapAlias(context.Background(), "catalog", nil, "catalog-1")
	require.ErrorIs(t, err, manager.ErrAliasSwap)
	require.ErrorIs(t, err, elasticsearch.ErrEngineUnavailable)
}
