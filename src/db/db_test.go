package db

import (
	"testing"
	"time"

	"git.gdb.dev/gdb/board/src/models"
	"github.com/stretchr/testify/assert"
)

func TestCompileQuery(t *testing.T) {
	assert.Equal(t,
		"SELECT id, title, content, created_at FROM post",
		compileQuery[models.Post]("SELECT $columns FROM post"),
	)
	assert.Equal(t,
		"SELECT c.id, c.content, c.created_at, c.reply, c.parent_id, c.depth, c.reply_to FROM comment AS c",
		compileQuery[models.Comment]("SELECT $columns{c} FROM comment AS c"),
	)
	assert.Equal(t, "SELECT 1", compileQuery[models.Post]("SELECT 1"))
}

func TestColumnsNeedTags(t *testing.T) {
	type untagged struct {
		ID      string `db:"id"`
		Created time.Time
	}
	assert.Panics(t, func() {
		compileQuery[untagged]("SELECT $columns FROM post")
	})
	assert.Panics(t, func() {
		compileQuery[int]("SELECT $columns FROM post")
	})
}

func TestGetQueryName(t *testing.T) {
	name, ok := GetQueryName("---- List posts\nSELECT 1")
	assert.True(t, ok)
	assert.Equal(t, "List posts", name)

	_, ok = GetQueryName("SELECT 1")
	assert.False(t, ok)
}
