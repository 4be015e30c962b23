package config

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"BOARD_API_URL":        "http://api.test/graphql",
		"BOARD_POSTS_PER_PAGE": "12",
		"BOARD_LOG_LEVEL":      "debug",
		"BOARD_POSTGRES_PORT":  "not a number",
		"BOARD_TIMEZONE":       "",
	}
	lookup := func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}

	cfg := BoardConfig{
		Postgres: PostgresConfig{Port: 5432},
		Board:    BoardSettings{PostsPerPage: 6, Timezone: "Asia/Seoul"},
	}
	applyEnv(&cfg, lookup)

	assert.Equal(t, "http://api.test/graphql", cfg.Board.APIUrl)
	assert.Equal(t, 12, cfg.Board.PostsPerPage)
	assert.Equal(t, zerolog.DebugLevel, cfg.LogLevel)
	assert.Equal(t, 5432, cfg.Postgres.Port, "bad ints leave the default alone")
	assert.Equal(t, "Asia/Seoul", cfg.Board.Timezone, "empty strings leave the default alone")
}

func TestLocation(t *testing.T) {
	loc := BoardSettings{Timezone: "Asia/Seoul"}.Location()
	assert.Equal(t, "Asia/Seoul", loc.String())

	fallback := BoardSettings{Timezone: "Nowhere/Special"}.Location()
	assert.Equal(t, "KST", fallback.String())
}
