package index

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonesrussell/north-cloud/index-rotator/internal/database"
	"github.com/jonesrussell/north-cloud/index-rotator/internal/manager"
	"github.com/jonesrussell/north-cloud/index-rotator/internal/testutils"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubLister struct {
	records []database.RotationRecord
	err     error
	limit   int
}

func (s *stubLister) ListRotations(_ context.Context, _ string, limit int) ([]database.RotationRecord, error) {
	s.limit = limit
	return s.records, s.err
}

func TestAliasReport_WithHistory(t *testing.T) {
	engine := testutils.NewFakeEngine()
	engine.Seed("catalog-2", nil, "catalog")
	m := manager.New("default", "catalog", nil, engine)

	lister := &stubLister{records: []database.RotationRecord{{
		ToIndex:     "catalog-2",
		FromIndices: pq.StringArray{"catalog-1"},
		Mode:        "alias",
		Status:      database.StatusCompleted,
		CreatedAt:   time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC),
	}}}

	var out bytes.Buffer
	require.NoError(t, NewAliasReport(m, lister, 0, &out).Render(context.Background()))

	assert.Equal(t, defaultHistoryLimit, lister.limit)
	assert.Contains(t, out.String(), "catalog-2")
	assert.Contains(t, out.String(), "catalog-1")
	assert.Contains(t, out.String(), "2024-03-09T14:05:07Z")
}

func TestAliasReport_HistoryError(t *testing.T) {
	m := manager.New("default", "catalog", nil, testutils.NewFakeEngine())
	lister := &stubLister{err: errors.New("database is down")}

	err := NewAliasReport(m, lister, 3, &bytes.Buffer{}).Render(context.Background())
	require.Error(t, err)
	assert.Equal(t, 3, lister.limit)
}
