package devserver

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"git.gdb.dev/gdb/board/src/logging"
	lorem "github.com/HandmadeNetwork/golorem"
	"github.com/google/uuid"
)

// SeedPassword unlocks every seeded post and comment.
const SeedPassword = "password"

// Seed fills store with numPosts lorem ipsum posts, each with a few comment
// threads. Timestamps run backwards from now so the newest post is seeded last.
func Seed(ctx context.Context, store Store, numPosts int) error {
	hash := HashPassword(SeedPassword)
	now := time.Now()

	for i := 0; i < numPosts; i++ {
		postTime := now.Add(-time.Duration(numPosts-i) * time.Hour)
		post, err := store.CreatePost(ctx, NewPost{
			ID:           uuid.New().String(),
			Title:        lorem.Sentence(2, 6),
			Content:      lorem.Paragraph(1, 3),
			PasswordHash: hash,
			CreatedAt:    postTime,
		})
		if err != nil {
			return fmt.Errorf("failed to seed post %d: %w", i, err)
		}

		numComments, err := seedThread(ctx, store, post.ID, "", "", 0, postTime, hash)
		if err != nil {
			return err
		}
		logging.Debug().Str("postId", post.ID).Int("comments", numComments).Msg("seeded post")
	}

	logging.Info().Int("posts", numPosts).Msg("seeded board")
	return nil
}

// seedThread adds up to three comments under parentID (or under the post when
// parentID is empty), recursing a couple of levels deep.
func seedThread(ctx context.Context, store Store, postID, parentID, parentContent string, depth int, after time.Time, hash string) (int, error) {
	if depth > 2 {
		return 0, nil
	}

	total := 0
	count := rand.Intn(4 - depth)
	for i := 0; i < count; i++ {
		after = after.Add(time.Duration(1+rand.Intn(10)) * time.Minute)
		content := lorem.Sentence(3, 14)

		created, err := store.CreateComment(ctx, NewComment{
			ID:           uuid.New().String(),
			PostID:       postID,
			ParentID:     parentID,
			Content:      content,
			PasswordHash: hash,
			ReplyTo:      parentContent,
			CreatedAt:    after,
		})
		if err != nil {
			return total, fmt.Errorf("failed to seed comment: %w", err)
		}
		total++

		replies, err := seedThread(ctx, store, postID, created.ID, content, depth+1, after, hash)
		if err != nil {
			return total, err
		}
		total += replies
	}
	return total, nil
}
