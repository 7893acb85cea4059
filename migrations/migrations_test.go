package migrations

import (
	"io/fs"
	"testing"

	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedMigrationsAreSequential(t *testing.T) {
	src, err := iofs.New(FS, ".")
	require.NoError(t, err)
	defer src.Close()

	version, err := src.First()
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)

	var seen []uint
	for {
		seen = append(seen, version)
		next, err := src.Next(version)
		if err != nil {
			break
		}
		version = next
	}
	assert.Equal(t, []uint{1, 2, 3, 4}, seen)
}

func TestEveryUpHasADown(t *testing.T) {
	ups, err := fs.Glob(FS, "*.up.sql")
	require.NoError(t, err)
	downs, err := fs.Glob(FS, "*.down.sql")
	require.NoError(t, err)
	assert.Len(t, downs, len(ups))
	assert.NotEmpty(t, ups)
}
