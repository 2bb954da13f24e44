package migrations

import (
	"context"
	"database/sql"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigrationContext(Up0003, Down0003)
}

func Up0003(ctx context.Context, tx *sql.Tx) error {
	return execStatements(ctx, tx,
		statement{query: `
CREATE TABLE participant (
    id UUID PRIMARY KEY DEFAULT uuidv7_sub_ms(),
    competition_id UUID NOT NULL REFERENCES competition (id),
    display_name TEXT NOT NULL,
    email TEXT NOT NULL,
    score DOUBLE PRECISION NOT NULL DEFAULT 0,
    locked BOOLEAN NOT NULL DEFAULT FALSE,
    locked_by UUID DEFAULT NULL,
    locked_at TIMESTAMP WITH TIME ZONE DEFAULT NULL,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT current_timestamp,
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT current_timestamp
);`},
		statement{query: `
CREATE INDEX participant_ranking_index ON participant (competition_id, score DESC, id ASC);`},
	)
}

func Down0003(ctx context.Context, tx *sql.Tx) error {
	return execStatements(ctx, tx,
		statement{query: `
DROP INDEX participant_ranking_index;`},
		statement{query: `
DROP TABLE participant;`},
	)
}
