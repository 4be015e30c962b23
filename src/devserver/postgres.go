package devserver

import (
	"context"
	"errors"

	"git.gdb.dev/gdb/board/src/db"
	"git.gdb.dev/gdb/board/src/models"
	"git.gdb.dev/gdb/board/src/oops"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore keeps posts and comments in the tables created by the
// migrations in src/migration.
type PostgresStore struct {
	conn *pgxpool.Pool
}

var _ Store = &PostgresStore{}

func NewPostgresStore(conn *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{conn: conn}
}

func (s *PostgresStore) ListPosts(ctx context.Context, offset, limit int) ([]models.Post, int, error) {
	total, err := db.QueryOneScalar[int](ctx, s.conn,
		`
		---- Count posts
		SELECT COUNT(*) FROM post
		`,
	)
	if err != nil {
		return nil, 0, oops.New(err, "failed to count posts")
	}

	posts, err := db.Query[models.Post](ctx, s.conn,
		`
		---- List posts
		SELECT $columns
		FROM post
		ORDER BY created_at DESC, id
		OFFSET $1
		LIMIT $2
		`,
		offset,
		limit,
	)
	if err != nil {
		return nil, 0, oops.New(err, "failed to fetch posts")
	}

	result := make([]models.Post, len(posts))
	for i, p := range posts {
		result[i] = *p
	}
	return result, total, nil
}

func (s *PostgresStore) GetPost(ctx context.Context, id string) (models.Post, error) {
	post, err := db.QueryOne[models.Post](ctx, s.conn,
		`
		---- Get post
		SELECT $columns
		FROM post
		WHERE id = $1
		`,
		id,
	)
	if errors.Is(err, db.NotFound) {
		return models.Post{}, ErrNotFound
	} else if err != nil {
		return models.Post{}, oops.New(err, "failed to fetch post")
	}
	return *post, nil
}

func (s *PostgresStore) CreatePost(ctx context.Context, post NewPost) (models.Post, error) {
	_, err := s.conn.Exec(ctx,
		`
		---- Create post
		INSERT INTO post (id, title, content, password, created_at)
		VALUES ($1, $2, $3, $4, $5)
		`,
		post.ID,
		post.Title,
		post.Content,
		post.PasswordHash,
		post.CreatedAt,
	)
	if err != nil {
		return models.Post{}, oops.New(err, "failed to create post")
	}
	return s.GetPost(ctx, post.ID)
}

func (s *PostgresStore) DeletePost(ctx context.Context, id string, verify Verifier) error {
	return s.deleteVerified(ctx, "post", id, verify, func(tx pgx.Tx) error {
		// Comments go with the post through ON DELETE CASCADE.
		_, err := tx.Exec(ctx,
			`
			---- Delete post
			DELETE FROM post WHERE id = $1
			`,
			id,
		)
		return err
	})
}

func (s *PostgresStore) ListComments(ctx context.Context, postID string) ([]models.Comment, error) {
	comments, err := db.Query[models.Comment](ctx, s.conn,
		`
		---- List comments
		WITH RECURSIVE thread AS (
			SELECT c.*, ARRAY[c.created_at] AS path
			FROM comment AS c
			WHERE c.post_id = $1 AND NOT c.reply
			UNION ALL
			SELECT c.*, thread.path || c.created_at
			FROM comment AS c
			JOIN thread ON c.parent_id = thread.id
			WHERE c.reply
		)
		SELECT $columns{thread}
		FROM thread
		ORDER BY thread.path, thread.id
		`,
		postID,
	)
	if err != nil {
		return nil, oops.New(err, "failed to fetch comments")
	}

	result := make([]models.Comment, len(comments))
	for i, c := range comments {
		result[i] = *c
	}
	return result, nil
}

func (s *PostgresStore) CreateComment(ctx context.Context, comment NewComment) (models.Comment, error) {
	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return models.Comment{}, oops.New(err, "failed to start transaction")
	}
	defer tx.Rollback(ctx)

	postID := comment.PostID
	parentID := comment.PostID
	depth := 0
	reply := comment.ParentID != ""
	replyTo := ""

	if reply {
		type parentRow struct {
			PostID string `db:"post_id"`
			Depth  int    `db:"depth"`
		}
		parent, err := db.QueryOne[parentRow](ctx, tx,
			`
			---- Get reply parent
			SELECT $columns
			FROM comment
			WHERE id = $1
			`,
			comment.ParentID,
		)
		if errors.Is(err, db.NotFound) {
			return models.Comment{}, ErrNotFound
		} else if err != nil {
			return models.Comment{}, oops.New(err, "failed to fetch parent comment")
		}
		postID = parent.PostID
		parentID = comment.ParentID
		depth = parent.Depth + 1
		replyTo = comment.ReplyTo
	} else {
		exists, err := db.QueryOneScalar[bool](ctx, tx,
			`
			---- Check post exists
			SELECT EXISTS (SELECT 1 FROM post WHERE id = $1)
			`,
			postID,
		)
		if err != nil {
			return models.Comment{}, oops.New(err, "failed to check post")
		}
		if !exists {
			return models.Comment{}, ErrNotFound
		}
	}

	created, err := db.QueryOne[models.Comment](ctx, tx,
		`
		---- Create comment
		INSERT INTO comment (id, post_id, parent_id, content, password, reply, depth, reply_to, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING $columns
		`,
		comment.ID,
		postID,
		parentID,
		comment.Content,
		comment.PasswordHash,
		reply,
		depth,
		replyTo,
		comment.CreatedAt,
	)
	if err != nil {
		return models.Comment{}, oops.New(err, "failed to create comment")
	}

	if err := tx.Commit(ctx); err != nil {
		return models.Comment{}, oops.New(err, "failed to commit comment")
	}
	return *created, nil
}

func (s *PostgresStore) DeleteComment(ctx context.Context, id string, verify Verifier) error {
	return s.deleteVerified(ctx, "comment", id, verify, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx,
			`
			---- Delete comment thread
			WITH RECURSIVE doomed AS (
				SELECT id FROM comment WHERE id = $1
				UNION ALL
				SELECT c.id
				FROM comment AS c
				JOIN doomed ON c.parent_id = doomed.id
				WHERE c.reply
			)
			DELETE FROM comment WHERE id IN (SELECT id FROM doomed)
			`,
			id,
		)
		return err
	})
}

// deleteVerified locks the row, checks its password, and runs del in the same
// transaction.
func (s *PostgresStore) deleteVerified(ctx context.Context, table string, id string, verify Verifier, del func(tx pgx.Tx) error) error {
	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return oops.New(err, "failed to start transaction")
	}
	defer tx.Rollback(ctx)

	// table is one of our own constants, never user input.
	hash, err := db.QueryOneScalar[string](ctx, tx, "---- Lock "+table+"\nSELECT password FROM "+table+" WHERE id = $1 FOR UPDATE", id)
	if errors.Is(err, db.NotFound) {
		return ErrNotFound
	} else if err != nil {
		return oops.New(err, "failed to fetch %s", table)
	}

	if err := verify(hash); err != nil {
		return err
	}
	if err := del(tx); err != nil {
		return oops.New(err, "failed to delete %s", table)
	}
	if err := tx.Commit(ctx); err != nil {
		return oops.New(err, "failed to commit delete")
	}
	return nil
}
