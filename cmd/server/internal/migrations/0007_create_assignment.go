package migrations

import (
	"context"
	"database/sql"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigrationContext(Up0007, Down0007)
}

func Up0007(ctx context.Context, tx *sql.Tx) error {
	return execStatements(ctx, tx,
		statement{query: `
CREATE TABLE assignment (
    id UUID PRIMARY KEY DEFAULT uuidv7_sub_ms(),
    competition_id UUID NOT NULL REFERENCES competition (id),
    judge_id UUID NOT NULL REFERENCES judge (id),
    run_id UUID NOT NULL,
    participants JSONB NOT NULL,
    assigned_count INTEGER NOT NULL,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT current_timestamp,
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT current_timestamp
);`},
		statement{query: `
CREATE INDEX assignment_competition_index ON assignment (competition_id);`},
		statement{query: `
CREATE INDEX assignment_judge_index ON assignment (judge_id);`},
	)
}

func Down0007(ctx context.Context, tx *sql.Tx) error {
	return execStatements(ctx, tx,
		statement{query: `
DROP INDEX assignment_judge_index;`},
		statement{query: `
DROP INDEX assignment_competition_index;`},
		statement{query: `
DROP TABLE assignment;`},
	)
}
