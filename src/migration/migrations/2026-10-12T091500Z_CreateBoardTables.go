package migrations

import (
	"context"
	"time"

	"git.gdb.dev/gdb/board/src/migration/types"
	"github.com/jackc/pgx/v5"
)

func init() {
	registerMigration(CreateBoardTables{})
}

type CreateBoardTables struct{}

func (m CreateBoardTables) Version() types.MigrationVersion {
	return types.MigrationVersion(time.Date(2026, 10, 12, 9, 15, 0, 0, time.UTC))
}

func (m CreateBoardTables) Name() string {
	return "CreateBoardTables"
}

func (m CreateBoardTables) Description() string {
	return "Create the post and comment tables"
}

func (m CreateBoardTables) Up(ctx context.Context, tx pgx.Tx) error {
	_, err := tx.Exec(ctx,
		`
		CREATE TABLE post (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			content TEXT NOT NULL,
			password TEXT NOT NULL,
			created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
		);

		-- Top-level comments use the post's id as parent_id.
		CREATE TABLE comment (
			id TEXT PRIMARY KEY,
			post_id TEXT NOT NULL REFERENCES post (id) ON DELETE CASCADE,
			parent_id TEXT NOT NULL,
			content TEXT NOT NULL,
			password TEXT NOT NULL,
			reply BOOLEAN NOT NULL DEFAULT FALSE,
			depth INT NOT NULL DEFAULT 0,
			reply_to TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
		);
		`,
	)
	return err
}

func (m CreateBoardTables) Down(ctx context.Context, tx pgx.Tx) error {
	_, err := tx.Exec(ctx,
		`
		DROP TABLE comment;
		DROP TABLE post;
		`,
	)
	return err
}
