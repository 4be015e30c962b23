package config

import (
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/tracelog"
	"github.com/rs/zerolog"
)

type Environment string

const (
	Live Environment = "live"
	Beta Environment = "beta"
	Dev  Environment = "dev"
)

type BoardConfig struct {
	Env      Environment
	Addr     string
	BaseUrl  string
	LogLevel zerolog.Level
	Postgres PostgresConfig
	Board    BoardSettings
	TUI      TUIConfig
	DevAPI   DevAPIConfig
}

type PostgresConfig struct {
	User     string
	Password string
	Hostname string
	Port     int
	DbName   string
	LogLevel tracelog.LogLevel
	MinConn  int32
	MaxConn  int32
}

func (info PostgresConfig) DSN() string {
	return fmt.Sprintf("user=%s password=%s host=%s port=%d dbname=%s", info.User, info.Password, info.Hostname, info.Port, info.DbName)
}

type BoardSettings struct {
	// Endpoint of the GraphQL board service.
	APIUrl         string
	RequestTimeout time.Duration

	PostsPerPage int
	Timezone     string

	// Hex color used for the reply highlight and accents.
	AccentColor string
}

type TUIConfig struct {
	LogFile string
}

type DevAPIConfig struct {
	Addr string
}

// Location resolves Board.Timezone, falling back to a fixed KST zone when the
// zone database has no entry for it.
func (c BoardSettings) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.FixedZone("KST", 9*60*60)
	}
	return loc
}
