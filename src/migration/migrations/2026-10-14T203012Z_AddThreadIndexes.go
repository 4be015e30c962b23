package migrations

import (
	"context"
	"time"

	"git.gdb.dev/gdb/board/src/migration/types"
	"github.com/jackc/pgx/v5"
)

func init() {
	registerMigration(AddThreadIndexes{})
}

type AddThreadIndexes struct{}

func (m AddThreadIndexes) Version() types.MigrationVersion {
	return types.MigrationVersion(time.Date(2026, 10, 14, 20, 30, 12, 0, time.UTC))
}

func (m AddThreadIndexes) Name() string {
	return "AddThreadIndexes"
}

func (m AddThreadIndexes) Description() string {
	return "Index posts by date and comments by parent for the listing and thread queries"
}

func (m AddThreadIndexes) Up(ctx context.Context, tx pgx.Tx) error {
	_, err := tx.Exec(ctx,
		`
		CREATE INDEX post_created_at ON post (created_at DESC);
		CREATE INDEX comment_post_id ON comment (post_id) WHERE NOT reply;
		CREATE INDEX comment_parent_id ON comment (parent_id);
		`,
	)
	return err
}

func (m AddThreadIndexes) Down(ctx context.Context, tx pgx.Tx) error {
	_, err := tx.Exec(ctx,
		`
		DROP INDEX comment_parent_id;
		DROP INDEX comment_post_id;
		DROP INDEX post_created_at;
		`,
	)
	return err
}
