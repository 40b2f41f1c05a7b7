package db

import (
	"strconv"
	"strings"
)

// Dialect captures the few SQL differences between Postgres and SQLite
// that the adapters care about.
type Dialect int

const (
	Postgres Dialect = iota
	SQLite
)

// DialectFor maps a database/sql driver name to its dialect.
func DialectFor(driver string) Dialect {
	if driver == "sqlite" {
		return SQLite
	}
	return Postgres
}

func (d Dialect) String() string {
	if d == SQLite {
		return "sqlite"
	}
	return "postgres"
}

// Placeholder returns the n-th (1-based) bind parameter.
func (d Dialect) Placeholder(n int) string {
	if d == SQLite {
		return "?"
	}
	return "$" + strconv.Itoa(n)
}

// Placeholders returns count comma-separated parameters starting at from.
func (d Dialect) Placeholders(from, count int) string {
	ph := make([]string, 0, count)
	for i := 0; i < count; i++ {
		ph = append(ph, d.Placeholder(from+i))
	}
	return strings.Join(ph, ", ")
}
