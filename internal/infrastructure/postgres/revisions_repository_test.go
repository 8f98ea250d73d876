package postgres

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/SeconGokulakannan/giswebapp-sub001/internal/domain"
	"github.com/gofrs/uuid"
	_ "github.com/jackc/pgx/v4/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRepository(t *testing.T) *RevisionsRepository {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	db, err := sqlx.Connect("pgx", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	schema, err := os.ReadFile("../../../migrations/000001_style_revision.up.sql")
	require.NoError(t, err)
	_, err = db.Exec(string(schema))
	require.NoError(t, err)
	return NewRevisionsRepository(db)
}

func newRevision(t *testing.T, layer string, created time.Time) domain.StyleRevision {
	id, err := uuid.NewV4()
	require.NoError(t, err)
	return domain.StyleRevision{
		ID:        id.String(),
		Layer:     layer,
		StyleName: "parcels_style",
		SldBody:   "<StyledLayerDescriptor/>",
		Author:    "admin",
		Created:   created,
	}
}

func TestRevisionsRepository(t *testing.T) {
	repo := setupRepository(t)
	ctx := context.Background()
	layer := "test:" + time.Now().Format("150405.000000")
	now := time.Now().UTC().Truncate(time.Millisecond)

	older := newRevision(t, layer, now.Add(-time.Hour))
	newer := newRevision(t, layer, now)
	require.NoError(t, repo.Create(ctx, older))
	require.NoError(t, repo.Create(ctx, newer))
	assert.True(t, errors.Is(repo.Create(ctx, newer), ErrRevisionExists))

	rev, err := repo.Get(ctx, older.ID)
	require.NoError(t, err)
	assert.Equal(t, older.SldBody, rev.SldBody)
	assert.True(t, older.Created.Equal(rev.Created))

	revs, err := repo.List(ctx, layer, 10)
	require.NoError(t, err)
	require.Len(t, revs, 2)
	assert.Equal(t, newer.ID, revs[0].ID)
	assert.Empty(t, revs[0].SldBody)

	_, err = repo.Get(ctx, "not-a-uuid")
	assert.True(t, errors.Is(err, domain.ErrRevisionNotExists))
	missing, _ := uuid.NewV4()
	_, err = repo.Get(ctx, missing.String())
	assert.True(t, errors.Is(err, domain.ErrRevisionNotExists))
}
