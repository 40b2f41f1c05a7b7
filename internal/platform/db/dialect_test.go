package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDialectPlaceholders(t *testing.T) {
	assert.Equal(t, "$2, $3, $4", Postgres.Placeholders(2, 3))
	assert.Equal(t, "?, ?", SQLite.Placeholders(1, 2))
	assert.Equal(t, "", SQLite.Placeholders(1, 0))

	assert.Equal(t, SQLite, DialectFor("sqlite"))
	assert.Equal(t, Postgres, DialectFor("pgx"))
	assert.Equal(t, "postgres", Postgres.String())
}
