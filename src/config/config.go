package config

import (
	"os"
	"strconv"
	"time"
	_ "time/tzdata"

	"github.com/jackc/pgx/v5/tracelog"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

var Config = BoardConfig{
	Env:      Dev,
	Addr:     "localhost:9001",
	BaseUrl:  "http://localhost:9001",
	LogLevel: zerolog.InfoLevel,
	Postgres: PostgresConfig{
		User:     "board",
		Password: "password",
		Hostname: "localhost",
		Port:     5432,
		DbName:   "board",
		LogLevel: tracelog.LogLevelWarn,
		MinConn:  2,
		MaxConn:  10,
	},
	Board: BoardSettings{
		APIUrl:         "http://localhost:3002/graphql",
		RequestTimeout: 10 * time.Second,
		PostsPerPage:   6,
		Timezone:       "Asia/Seoul",
		AccentColor:    "3b82f6",
	},
	TUI: TUIConfig{
		LogFile: "board-tui.log",
	},
	DevAPI: DevAPIConfig{
		Addr: "localhost:3002",
	},
}

func init() {
	// A missing .env is fine; the defaults above cover local development.
	_ = godotenv.Load()
	applyEnv(&Config, os.LookupEnv)
}

type lookupFunc func(key string) (string, bool)

func applyEnv(cfg *BoardConfig, lookup lookupFunc) {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	integer := func(key string, dst *int) {
		if v, ok := lookup(key); ok {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
			}
		}
	}

	if v, ok := lookup("BOARD_ENV"); ok && v != "" {
		cfg.Env = Environment(v)
	}
	str("BOARD_ADDR", &cfg.Addr)
	str("BOARD_BASE_URL", &cfg.BaseUrl)
	if v, ok := lookup("BOARD_LOG_LEVEL"); ok {
		if level, err := zerolog.ParseLevel(v); err == nil {
			cfg.LogLevel = level
		}
	}

	str("BOARD_POSTGRES_USER", &cfg.Postgres.User)
	str("BOARD_POSTGRES_PASSWORD", &cfg.Postgres.Password)
	str("BOARD_POSTGRES_HOST", &cfg.Postgres.Hostname)
	integer("BOARD_POSTGRES_PORT", &cfg.Postgres.Port)
	str("BOARD_POSTGRES_DB", &cfg.Postgres.DbName)

	str("BOARD_API_URL", &cfg.Board.APIUrl)
	integer("BOARD_POSTS_PER_PAGE", &cfg.Board.PostsPerPage)
	str("BOARD_TIMEZONE", &cfg.Board.Timezone)
	str("BOARD_ACCENT_COLOR", &cfg.Board.AccentColor)

	str("BOARD_TUI_LOG_FILE", &cfg.TUI.LogFile)
	str("BOARD_DEVAPI_ADDR", &cfg.DevAPI.Addr)
}
