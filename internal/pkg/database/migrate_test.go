package database

import (
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrateURL(t *testing.T) {
	assert.Equal(t, "pgx5://u:p@db:5432/clinic?sslmode=disable", migrateURL("postgres://u:p@db:5432/clinic?sslmode=disable"))
	assert.Equal(t, "pgx5://u@db/clinic", migrateURL("postgresql://u@db/clinic"))
	assert.Equal(t, "pgx5://already", migrateURL("pgx5://already"))
}

func TestMigrationsAreEmbeddedInPairs(t *testing.T) {
	ups, err := fs.Glob(migrationsFS, "migrations/*.up.sql")
	require.NoError(t, err)
	downs, err := fs.Glob(migrationsFS, "migrations/*.down.sql")
	require.NoError(t, err)

	assert.NotEmpty(t, ups)
	assert.Equal(t, len(ups), len(downs))
}
