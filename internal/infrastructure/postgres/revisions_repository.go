package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/SeconGokulakannan/giswebapp-sub001/internal/domain"
	"github.com/jackc/pgconn"
	"github.com/jmoiron/sqlx"
)

var (
	ErrRevisionExists = errors.New("style revision already exists")
)

const (
	codeUniqueViolation   = "23505"
	codeInvalidTextFormat = "22P02"
)

type RevisionsRepository struct {
	db *sqlx.DB
}

func NewRevisionsRepository(db *sqlx.DB) *RevisionsRepository {
	return &RevisionsRepository{db}
}

func (r *RevisionsRepository) Create(ctx context.Context, rev domain.StyleRevision) error {
	dbRev := toStyleRevisionRow(rev)
	_, err := r.db.NamedExecContext(ctx,
		`INSERT INTO style_revision (id, layer, style_name, sld_body, author, created_at)
		VALUES (:id, :layer, :style_name, :sld_body, :author, :created_at)`,
		&dbRev,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == codeUniqueViolation {
			return ErrRevisionExists
		}
		return fmt.Errorf("inserting style revision: %w", err)
	}
	return nil
}

func (r *RevisionsRepository) Get(ctx context.Context, id string) (domain.StyleRevision, error) {
	var row StyleRevisionRow
	err := r.db.GetContext(ctx, &row, `SELECT * FROM style_revision WHERE id=$1`, id)
	if err != nil {
		var pgErr *pgconn.PgError
		if err == sql.ErrNoRows || (errors.As(err, &pgErr) && pgErr.Code == codeInvalidTextFormat) {
			return domain.StyleRevision{}, domain.ErrRevisionNotExists
		}
		return domain.StyleRevision{}, err
	}
	return toStyleRevision(row), nil
}

// List returns the newest revisions of a layer without their documents.
func (r *RevisionsRepository) List(ctx context.Context, layer string, limit int) ([]domain.StyleRevision, error) {
	var rows []StyleRevisionRow
	err := r.db.SelectContext(ctx, &rows,
		`SELECT id, layer, style_name, '' AS sld_body, author, created_at
		FROM style_revision WHERE layer=$1 ORDER BY created_at DESC LIMIT $2`,
		layer, limit,
	)
	if err != nil {
		return nil, err
	}
	revisions := make([]domain.StyleRevision, len(rows))
	for i, row := range rows {
		revisions[i] = toStyleRevision(row)
	}
	return revisions, nil
}
