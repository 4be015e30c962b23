package commenttree

import (
	"testing"
	"time"

	"git.gdb.dev/gdb/board/src/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var kst = time.FixedZone("KST", 9*60*60)

func ptr(s string) *string { return &s }

func TestBuildIndentsReplies(t *testing.T) {
	now := time.Date(2024, 3, 15, 10, 0, 0, 0, kst)
	comments := []models.Comment{
		{ID: "1", Content: "첫 댓글", Depth: 0, CreatedAt: now.Add(-90 * time.Second), ParentID: ptr("post")},
		{ID: "2", Content: "답글입니다", Depth: 1, Reply: true, ParentID: ptr("1"), ReplyTo: "첫 댓글", CreatedAt: now.Add(-30 * time.Second)},
	}

	tree := Build(now, comments)
	require.Len(t, tree.Rows, 2)
	assert.Empty(t, tree.Warnings)

	top, reply := tree.Rows[0], tree.Rows[1]
	assert.Equal(t, "1", top.Comment.ID)
	assert.Equal(t, 0, top.Indent)
	assert.False(t, top.Elbow)
	assert.Equal(t, "1분 전", top.RelativeTime)

	assert.Equal(t, "2", reply.Comment.ID)
	assert.Equal(t, top.Indent+IndentUnit, reply.Indent)
	assert.True(t, reply.Elbow)
	assert.Equal(t, "첫 댓글", reply.ReplyPreview)
	assert.Equal(t, "30초 전", reply.RelativeTime)
	assert.Equal(t, "2024. 03. 15. 오전 9:59", reply.Tooltip)
}

func TestBuildKeepsOrder(t *testing.T) {
	now := time.Date(2024, 3, 15, 10, 0, 0, 0, kst)
	comments := []models.Comment{
		{ID: "c", CreatedAt: now},
		{ID: "a", CreatedAt: now.Add(-time.Hour)},
		{ID: "b", Depth: 1, Reply: true, ParentID: ptr("a"), CreatedAt: now.Add(-time.Minute)},
	}

	tree := Build(now, comments)
	var ids []string
	for _, row := range tree.Rows {
		ids = append(ids, row.Comment.ID)
	}
	assert.Equal(t, []string{"c", "a", "b"}, ids)
}

func TestBuildEmpty(t *testing.T) {
	tree := Build(time.Now(), nil)
	assert.Empty(t, tree.Rows)
	assert.Empty(t, tree.Warnings)
}

func TestReplyPreviewTruncation(t *testing.T) {
	now := time.Now()
	long := "이 댓글은 미리보기 길이보다 훨씬 더 깁니다"
	tree := Build(now, []models.Comment{
		{ID: "1"},
		{ID: "2", Depth: 1, Reply: true, ParentID: ptr("1"), ReplyTo: long},
	})
	preview := tree.Rows[1].ReplyPreview
	assert.Equal(t, []rune(long)[:ReplyPreviewLength], []rune(preview)[:ReplyPreviewLength])
	assert.Equal(t, "…", string([]rune(preview)[ReplyPreviewLength:]))
}

func TestCheckDepths(t *testing.T) {
	t.Run("consistent", func(t *testing.T) {
		assert.Empty(t, CheckDepths([]models.Comment{
			{ID: "1"},
			{ID: "2", Depth: 1, Reply: true, ParentID: ptr("1")},
			{ID: "3", Depth: 2, Reply: true, ParentID: ptr("2")},
			{ID: "4", Depth: 1, Reply: true, ParentID: ptr("1")},
			{ID: "5"},
		}))
	})
	t.Run("top-level not at zero", func(t *testing.T) {
		warnings := CheckDepths([]models.Comment{{ID: "1", Depth: 2}})
		require.Len(t, warnings, 1)
		assert.Equal(t, "1", warnings[0].CommentID)
		assert.Equal(t, 0, warnings[0].Expected)
	})
	t.Run("skipped level", func(t *testing.T) {
		warnings := CheckDepths([]models.Comment{
			{ID: "1"},
			{ID: "2", Depth: 3, Reply: true, ParentID: ptr("1")},
		})
		require.Len(t, warnings, 1)
		assert.Equal(t, 1, warnings[0].Expected)
	})
	t.Run("parent after child", func(t *testing.T) {
		warnings := CheckDepths([]models.Comment{
			{ID: "2", Depth: 1, Reply: true, ParentID: ptr("1")},
			{ID: "1"},
		})
		require.Len(t, warnings, 1)
		assert.Equal(t, "2", warnings[0].CommentID)
	})
	t.Run("warnings never drop rows", func(t *testing.T) {
		tree := Build(time.Now(), []models.Comment{{ID: "1", Depth: 4}})
		assert.Len(t, tree.Rows, 1)
		assert.Len(t, tree.Warnings, 1)
		assert.Equal(t, 4*IndentUnit, tree.Rows[0].Indent)
	})
}
