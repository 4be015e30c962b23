package db

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"git.gdb.dev/gdb/board/src/oops"
	"github.com/jackc/pgx/v5"
)

/*
A general error to be used when no results are found. This is the error returned
by QueryOne, and can generally be used by other database helpers that fetch a single
result but find nothing.
*/
var NotFound = errors.New("not found")

/*
Performs a SQL query and returns a slice of all the result rows, mapped onto
struct T by position. Use the $columns placeholder to select T's `db` columns
in the right order. You must explicitly provide the type argument.

This function always returns pointers to the values. For single columns, use
QueryScalar.
*/
func Query[T any](
	ctx context.Context,
	conn ConnOrTx,
	query string,
	args ...any,
) ([]*T, error) {
	rows, err := conn.Query(ctx, compileQuery[T](query), args...)
	if err != nil {
		return nil, oops.New(err, "failed to run query")
	}
	result, err := pgx.CollectRows(rows, pgx.RowToAddrOfStructByPos[T])
	if err != nil {
		return nil, oops.New(err, "failed to read query results")
	}
	return result, nil
}

/*
Identical to Query, but returns only the first result row. If there are no
rows in the result set, returns NotFound.
*/
func QueryOne[T any](
	ctx context.Context,
	conn ConnOrTx,
	query string,
	args ...any,
) (*T, error) {
	rows, err := conn.Query(ctx, compileQuery[T](query), args...)
	if err != nil {
		return nil, oops.New(err, "failed to run query")
	}
	result, err := pgx.CollectOneRow(rows, pgx.RowToAddrOfStructByPos[T])
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, NotFound
	} else if err != nil {
		return nil, oops.New(err, "failed to read query result")
	}
	return result, nil
}

/*
Queries a single column. More convenient for primitive types.
*/
func QueryScalar[T any](
	ctx context.Context,
	conn ConnOrTx,
	query string,
	args ...any,
) ([]T, error) {
	rows, err := conn.Query(ctx, query, args...)
	if err != nil {
		return nil, oops.New(err, "failed to run query")
	}
	result, err := pgx.CollectRows(rows, pgx.RowTo[T])
	if err != nil {
		return nil, oops.New(err, "failed to read query results")
	}
	return result, nil
}

/*
Identical to QueryScalar, but returns only the first result value. If there are
no rows in the result set, returns NotFound.
*/
func QueryOneScalar[T any](
	ctx context.Context,
	conn ConnOrTx,
	query string,
	args ...any,
) (T, error) {
	rows, err := conn.Query(ctx, query, args...)
	if err != nil {
		var zero T
		return zero, oops.New(err, "failed to run query")
	}
	result, err := pgx.CollectOneRow(rows, pgx.RowTo[T])
	if errors.Is(err, pgx.ErrNoRows) {
		return result, NotFound
	} else if err != nil {
		return result, oops.New(err, "failed to read query result")
	}
	return result, nil
}

var reColumnsPlaceholder = regexp.MustCompile(`\$columns({(.*?)})?`)

// compileQuery replaces $columns with T's `db` column names in field order.
// $columns{alias} qualifies each column with a table alias.
func compileQuery[T any](query string) string {
	columnsMatch := reColumnsPlaceholder.FindStringSubmatch(query)
	if columnsMatch == nil {
		return query
	}

	var destExample T
	columns := getColumnNames(reflect.TypeOf(destExample), columnsMatch[2])
	return reColumnsPlaceholder.ReplaceAllString(query, strings.Join(columns, ", "))
}

func getColumnNames(destType reflect.Type, prefix string) []string {
	if destType.Kind() == reflect.Ptr {
		destType = destType.Elem()
	}
	if destType.Kind() != reflect.Struct {
		panic(fmt.Errorf("$columns can only be used when querying into a struct, got type '%v'", destType))
	}

	var columns []string
	for i := 0; i < destType.NumField(); i++ {
		field := destType.Field(i)
		if !field.IsExported() {
			continue
		}
		name := field.Tag.Get("db")
		if name == "" || name == "-" {
			panic(fmt.Errorf("field '%s' in type %s needs a db tag to be queried by position", field.Name, destType))
		}
		if prefix != "" {
			name = prefix + "." + name
		}
		columns = append(columns, name)
	}
	return columns
}
