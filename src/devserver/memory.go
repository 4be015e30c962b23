package devserver

import (
	"context"
	"sort"
	"sync"

	"git.gdb.dev/gdb/board/src/models"
)

type memoryPost struct {
	models.Post
	passwordHash string
}

type memoryComment struct {
	models.Comment
	postID       string
	passwordHash string
}

// MemoryStore keeps everything in process. It backs `devserver --memory` and
// the tests.
type MemoryStore struct {
	mu       sync.Mutex
	posts    []*memoryPost
	comments []*memoryComment
}

var _ Store = &MemoryStore{}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) ListPosts(ctx context.Context, offset, limit int) ([]models.Post, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sorted := make([]*memoryPost, len(s.posts))
	copy(sorted, s.posts)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
	})

	var page []models.Post
	for i := offset; i < len(sorted) && i < offset+limit; i++ {
		page = append(page, sorted[i].Post)
	}
	return page, len(sorted), nil
}

func (s *MemoryStore) GetPost(ctx context.Context, id string) (models.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p := s.findPost(id); p != nil {
		return p.Post, nil
	}
	return models.Post{}, ErrNotFound
}

func (s *MemoryStore) CreatePost(ctx context.Context, post NewPost) (models.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := &memoryPost{
		Post: models.Post{
			ID:        post.ID,
			Title:     post.Title,
			Content:   post.Content,
			CreatedAt: post.CreatedAt,
		},
		passwordHash: post.PasswordHash,
	}
	s.posts = append(s.posts, p)
	return p.Post, nil
}

func (s *MemoryStore) DeletePost(ctx context.Context, id string, verify Verifier) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.findPost(id)
	if p == nil {
		return ErrNotFound
	}
	if err := verify(p.passwordHash); err != nil {
		return err
	}

	posts := s.posts[:0]
	for _, other := range s.posts {
		if other.ID != id {
			posts = append(posts, other)
		}
	}
	s.posts = posts

	comments := s.comments[:0]
	for _, c := range s.comments {
		if c.postID != id {
			comments = append(comments, c)
		}
	}
	s.comments = comments
	return nil
}

func (s *MemoryStore) ListComments(ctx context.Context, postID string) ([]models.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	children := map[string][]*memoryComment{}
	for _, c := range s.comments {
		if c.postID != postID {
			continue
		}
		parent := postID
		if c.ParentID != nil {
			parent = *c.ParentID
		}
		children[parent] = append(children[parent], c)
	}
	for _, siblings := range children {
		sort.SliceStable(siblings, func(i, j int) bool {
			return siblings[i].CreatedAt.Before(siblings[j].CreatedAt)
		})
	}

	var result []models.Comment
	var walk func(parent string)
	walk = func(parent string) {
		for _, c := range children[parent] {
			result = append(result, c.Comment)
			walk(c.ID)
		}
	}
	walk(postID)
	return result, nil
}

func (s *MemoryStore) CreateComment(ctx context.Context, comment NewComment) (models.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := &memoryComment{
		Comment: models.Comment{
			ID:        comment.ID,
			Content:   comment.Content,
			CreatedAt: comment.CreatedAt,
		},
		passwordHash: comment.PasswordHash,
	}

	if comment.ParentID == "" {
		if s.findPost(comment.PostID) == nil {
			return models.Comment{}, ErrNotFound
		}
		postID := comment.PostID
		c.postID = postID
		c.ParentID = &postID
	} else {
		parent := s.findComment(comment.ParentID)
		if parent == nil {
			return models.Comment{}, ErrNotFound
		}
		parentID := parent.ID
		c.postID = parent.postID
		c.ParentID = &parentID
		c.Reply = true
		c.Depth = parent.Depth + 1
		c.ReplyTo = comment.ReplyTo
	}

	s.comments = append(s.comments, c)
	return c.Comment, nil
}

func (s *MemoryStore) DeleteComment(ctx context.Context, id string, verify Verifier) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	target := s.findComment(id)
	if target == nil {
		return ErrNotFound
	}
	if err := verify(target.passwordHash); err != nil {
		return err
	}

	doomed := map[string]bool{id: true}
	// Comments are appended in creation order and replies always come after
	// their parent, so one pass finds every descendant.
	for _, c := range s.comments {
		if c.Reply && c.ParentID != nil && doomed[*c.ParentID] {
			doomed[c.ID] = true
		}
	}

	comments := s.comments[:0]
	for _, c := range s.comments {
		if !doomed[c.ID] {
			comments = append(comments, c)
		}
	}
	s.comments = comments
	return nil
}

func (s *MemoryStore) findPost(id string) *memoryPost {
	for _, p := range s.posts {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (s *MemoryStore) findComment(id string) *memoryComment {
	for _, c := range s.comments {
		if c.ID == id {
			return c
		}
	}
	return nil
}
