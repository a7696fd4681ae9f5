package mbtiles

import (
	"bytes"
	"compress/gzip"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/MeKo-Tech/discarta/internal/projection"
	"github.com/MeKo-Tech/discarta/internal/tile"
)

// Reader reads tiles from an MBTiles database.
type Reader struct {
	db   *sql.DB
	meta Metadata
	proj projection.Projection
}

// OpenReader opens path read-only and loads its metadata.
func OpenReader(path string) (*Reader, error) {
	// sqlite would create a missing file.
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?mode=ro&immutable=1")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	var count int
	err = db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='tiles'").Scan(&count)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to verify schema: %w", err)
	}
	if count == 0 {
		db.Close()
		return nil, errors.New("database does not contain tiles table")
	}

	r := &Reader{db: db}
	if r.meta, err = r.readMetadata(); err != nil {
		db.Close()
		return nil, err
	}
	if r.proj, err = r.meta.ResolveProjection(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to resolve projection: %w", err)
	}
	return r, nil
}

// Metadata returns the tileset metadata.
func (r *Reader) Metadata() Metadata { return r.meta }

// Projection returns the projection the tiles were cut from.
func (r *Reader) Projection() projection.Projection { return r.proj }

func (r *Reader) readMetadata() (Metadata, error) {
	rows, err := r.db.Query("SELECT name, value FROM metadata")
	if err != nil {
		return Metadata{}, fmt.Errorf("failed to query metadata: %w", err)
	}
	defer rows.Close()

	values := make(map[string]string)
	for rows.Next() {
		var name, value string
		if err := rows.Scan(&name, &value); err != nil {
			return Metadata{}, fmt.Errorf("failed to scan metadata row: %w", err)
		}
		values[name] = value
	}
	if err := rows.Err(); err != nil {
		return Metadata{}, fmt.Errorf("error iterating metadata: %w", err)
	}

	return metadataFromMap(values), nil
}

// ReadTile returns the uncompressed PNG data of c. Missing tiles yield
// ErrTileNotFound.
func (r *Reader) ReadTile(c tile.Coord) ([]byte, error) {
	var compressed []byte
	err := r.db.QueryRow(
		"SELECT tile_data FROM tiles WHERE zoom_level=? AND tile_column=? AND tile_row=?",
		c.Z, c.X, tmsRow(r.proj, c),
	).Scan(&compressed)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrTileNotFound, c)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query tile %s: %w", c, err)
	}

	data, err := gzipDecompress(compressed)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress tile %s: %w", c, err)
	}
	return data, nil
}

// Close closes the database.
func (r *Reader) Close() error {
	if err := r.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	return nil
}

func gzipDecompress(data []byte) ([]byte, error) {
	gr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer gr.Close()
	return io.ReadAll(gr)
}
