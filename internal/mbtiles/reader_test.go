package mbtiles

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/MeKo-Tech/discarta/internal/projection"
	"github.com/MeKo-Tech/discarta/internal/tile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReaderRoundTrip(t *testing.T) {
	for _, p := range []projection.Projection{projection.Equirectangular{}, projection.PseudoMercator{}} {
		t.Run(projection.Slug(p), func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "test.mbtiles")
			meta := testMetadata(p)

			w, err := New(path, meta)
			require.NoError(t, err)

			coords := []tile.Coord{
				tile.NewCoord(0, 0, 0),
				tile.NewCoord(3, 5, 1),
				tile.NewCoord(3, 5, 6),
			}
			for _, c := range coords {
				require.NoError(t, w.WriteTile(c, []byte(c.String())))
			}
			require.NoError(t, w.Close())

			r, err := OpenReader(path)
			require.NoError(t, err)
			defer r.Close()

			assert.Equal(t, projection.Slug(p), projection.Slug(r.Projection()))
			assert.Equal(t, meta.Name, r.Metadata().Name)
			assert.Equal(t, 3, r.Metadata().MaxZoom)

			for _, c := range coords {
				data, err := r.ReadTile(c)
				require.NoError(t, err)
				assert.Equal(t, c.String(), string(data))
			}

			_, err = r.ReadTile(tile.NewCoord(3, 0, 0))
			assert.ErrorIs(t, err, ErrTileNotFound)
		})
	}
}

func TestOpenReaderWithoutTiles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.mbtiles")

	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	_, err = db.Exec("CREATE TABLE metadata (name TEXT, value TEXT)")
	require.NoError(t, err)
	require.NoError(t, db.Close())

	_, err = OpenReader(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tiles table")
}
