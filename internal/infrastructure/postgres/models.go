package postgres

import (
	"time"

	"github.com/SeconGokulakannan/giswebapp-sub001/internal/domain"
)

type StyleRevisionRow struct {
	ID        string    `db:"id"`
	Layer     string    `db:"layer"`
	StyleName string    `db:"style_name"`
	SldBody   string    `db:"sld_body"`
	Author    string    `db:"author"`
	Created   time.Time `db:"created_at"`
}

func toStyleRevision(row StyleRevisionRow) domain.StyleRevision {
	return domain.StyleRevision{
		ID:        row.ID,
		Layer:     row.Layer,
		StyleName: row.StyleName,
		SldBody:   row.SldBody,
		Author:    row.Author,
		Created:   row.Created,
	}
}

func toStyleRevisionRow(rev domain.StyleRevision) StyleRevisionRow {
	return StyleRevisionRow{
		ID:        rev.ID,
		Layer:     rev.Layer,
		StyleName: rev.StyleName,
		SldBody:   rev.SldBody,
		Author:    rev.Author,
		Created:   rev.Created,
	}
}
