/*
This package contains lowish-level APIs for making queries to the dev server's
Postgres database. It streamlines mapping query results to Go types while still
letting you write plain SQL.

Arguments are provided using placeholders like $1, $2, etc. and passed straight
to pgx.

To query multiple columns at once, use a struct type with `db:"column_name"`
tags and the special $columns placeholder:

	type Post struct {
		ID        string    `db:"id"`
		Title     string    `db:"title"`
		CreatedAt time.Time `db:"created_at"`
	}
	posts, err := db.Query[Post](ctx, conn, `SELECT $columns FROM post`)
	// Resulting query:
	// SELECT id, title, created_at FROM post

Use $columns{alias} when the table is aliased. Every exported field needs a db
tag, since rows are mapped onto the struct by position.

Name a query by starting it with a "---- Name" line; the name shows up in
request perf blocks.
*/
package db
