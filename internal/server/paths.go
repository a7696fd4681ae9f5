package server

import (
	"path"
	"strings"

	"github.com/MeKo-Tech/discarta/internal/tile"
)

// parseTilePath splits "/tiles/{projection}/{zoom}/{row}-{col}.png".
func parseTilePath(p string) (string, tile.Coord, bool) {
	rest, ok := strings.CutPrefix(path.Clean(p), "/tiles/")
	if !ok {
		return "", tile.Coord{}, false
	}

	parts := strings.Split(rest, "/")
	if len(parts) != 3 || parts[0] == "" || path.Ext(parts[2]) != ".png" {
		return "", tile.Coord{}, false
	}

	c, err := tile.ParseFilePath(parts[1], parts[2])
	if err != nil {
		return "", tile.Coord{}, false
	}
	return parts[0], c, true
}
