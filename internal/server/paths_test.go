package server

import (
	"testing"

	"github.com/MeKo-Tech/discarta/internal/tile"
	"github.com/stretchr/testify/assert"
)

func TestParseTilePath(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		wantProj string
		want     tile.Coord
		wantOK   bool
	}{
		{"base tile", "/tiles/equirectangular/3/2-5.png", "equirectangular", tile.NewCoord(3, 5, 2), true},
		{"slug", "/tiles/wgs-84-pseudo-mercator/0/0-0.png", "wgs-84-pseudo-mercator", tile.NewCoord(0, 0, 0), true},
		{"reject non-png", "/tiles/equirectangular/3/2-5.jpg", "", tile.Coord{}, false},
		{"reject other prefix", "/demo/equirectangular/3/2-5.png", "", tile.Coord{}, false},
		{"reject missing projection", "/tiles/3/2-5.png", "", tile.Coord{}, false},
		{"reject bad zoom", "/tiles/equirectangular/z/2-5.png", "", tile.Coord{}, false},
		{"reject bad name", "/tiles/equirectangular/3/x.png", "", tile.Coord{}, false},
		{"reject extra segment", "/tiles/equirectangular/3/4/2-5.png", "", tile.Coord{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			proj, c, ok := parseTilePath(tt.path)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantProj, proj)
			assert.Equal(t, tt.want, c)
		})
	}
}
