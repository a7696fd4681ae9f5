package preprocess

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"  // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	_ "image/png"  // Register PNG decoder
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/MeKo-Tech/discarta/internal/geo"
	"github.com/MeKo-Tech/discarta/internal/pixel"
	"github.com/MeKo-Tech/discarta/internal/projection"
	_ "golang.org/x/image/bmp"  // Register BMP decoder
	_ "golang.org/x/image/tiff" // Register TIFF decoder
)

// ErrRotatedRaster is returned for world files with rotation terms.
var ErrRotatedRaster = errors.New("rotated rasters are not supported")

// RasterInfo is the metadata of a source raster, read before committing to
// the tiling work.
type RasterInfo struct {
	FullPath  string
	FileName  string
	Directory string
	// Projection is the WKT of the raster's coordinate system, empty when
	// unknown.
	Projection string
	Format     string
	ImageSize  pixel.Size
	Bands      int
	// MapArea is the covered area, geo.EmptyArea without georeference.
	MapArea geo.GeoArea
}

func newRasterInfo(path string) RasterInfo {
	return RasterInfo{
		FullPath:  path,
		FileName:  filepath.Base(path),
		Directory: filepath.Dir(path),
		MapArea:   geo.EmptyArea,
	}
}

// SourceProjection picks the projection matching the raster's WKT.
func (ri RasterInfo) SourceProjection() projection.Projection {
	return projection.ForWKT(ri.Projection)
}

// TilesAcross is the number of tiles of p the raster would span across
// the whole world at its own resolution. Without georeference the raster is
// taken to cover the world.
func (ri RasterInfo) TilesAcross(p projection.Projection) float64 {
	width := ri.ImageSize.Width
	if !ri.MapArea.IsEmpty() && ri.MapArea.Size.DeltaLongitude > 0 {
		width *= p.World().Size.DeltaLongitude / ri.MapArea.Size.DeltaLongitude
	}
	return width / p.TileSize().Width
}

// NativeZoom is the zoom level at which the raster is shown at roughly its
// own resolution.
func (ri RasterInfo) NativeZoom(p projection.Projection) int {
	across := ri.TilesAcross(p)
	if across <= 1 {
		return 0
	}
	return int(math.Round(math.Log2(across)))
}

// MetadataProvider reads RasterInfo for a file.
type MetadataProvider interface {
	Load(ctx context.Context, path string) (RasterInfo, error)
}

// FileMetadataProvider reads the image header with the registered image
// decoders, the ESRI world file next to the image and an optional .prj
// sidecar with the coordinate system WKT.
type FileMetadataProvider struct{}

// Load implements MetadataProvider.
func (FileMetadataProvider) Load(ctx context.Context, path string) (RasterInfo, error) {
	if err := ctx.Err(); err != nil {
		return RasterInfo{}, err
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return RasterInfo{}, fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	info := newRasterInfo(abs)

	f, err := os.Open(abs)
	if err != nil {
		return RasterInfo{}, fmt.Errorf("failed to open raster: %w", err)
	}
	cfg, format, err := image.DecodeConfig(f)
	f.Close()
	if err != nil {
		return RasterInfo{}, fmt.Errorf("failed to read header of %s: %w", abs, err)
	}

	info.Format = format
	info.ImageSize = pixel.Size{Width: float64(cfg.Width), Height: float64(cfg.Height)}
	info.Bands = bandsFor(cfg.ColorModel)

	if wkt, err := readSidecar(abs, ".prj"); err == nil {
		info.Projection = strings.TrimSpace(wkt)
	} else if !errors.Is(err, os.ErrNotExist) {
		return RasterInfo{}, err
	}

	for _, candidate := range worldFileCandidates(abs) {
		wf, err := readWorldFile(candidate)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return RasterInfo{}, err
		}
		info.MapArea = wf.MapArea(cfg.Width, cfg.Height)
		break
	}

	return info, nil
}

func bandsFor(m color.Model) int {
	if _, ok := m.(color.Palette); ok {
		return 1
	}
	switch m {
	case color.GrayModel, color.Gray16Model, color.AlphaModel, color.Alpha16Model:
		return 1
	case color.YCbCrModel:
		return 3
	default:
		return 4
	}
}

func readSidecar(path, ext string) (string, error) {
	data, err := os.ReadFile(strings.TrimSuffix(path, filepath.Ext(path)) + ext)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// worldFileCandidates lists the world file names GIS tools use for path:
// the three letter form (.pgw for .png), the extension plus "w" (.pngw)
// and the generic .wld.
func worldFileCandidates(path string) []string {
	ext := filepath.Ext(path)
	base := strings.TrimSuffix(path, ext)
	e := strings.TrimPrefix(strings.ToLower(ext), ".")

	var out []string
	if len(e) >= 2 {
		out = append(out, base+"."+e[:1]+e[len(e)-1:]+"w")
	}
	if e != "" {
		out = append(out, base+"."+e+"w")
	}
	return append(out, base+".wld")
}

// WorldFile is the six parameter affine transform of an ESRI world file.
// C and F locate the center of the upper left pixel.
type WorldFile struct {
	A, D, B, E, C, F float64
}

func readWorldFile(path string) (WorldFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return WorldFile{}, err
	}
	defer f.Close()

	var values []float64
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		v, err := strconv.ParseFloat(line, 64)
		if err != nil {
			return WorldFile{}, fmt.Errorf("invalid world file %s: %w", path, err)
		}
		values = append(values, v)
	}
	if err := sc.Err(); err != nil {
		return WorldFile{}, fmt.Errorf("failed to read world file %s: %w", path, err)
	}
	if len(values) != 6 {
		return WorldFile{}, fmt.Errorf("invalid world file %s: expected 6 values, got %d", path, len(values))
	}

	wf := WorldFile{A: values[0], D: values[1], B: values[2], E: values[3], C: values[4], F: values[5]}
	if wf.D != 0 || wf.B != 0 {
		return WorldFile{}, fmt.Errorf("%w: %s", ErrRotatedRaster, path)
	}
	return wf, nil
}

// MapArea is the area covered by a width x height raster, from the outer
// edges of the corner pixels.
func (wf WorldFile) MapArea(width, height int) geo.GeoArea {
	left := wf.C - wf.A/2
	top := wf.F - wf.E/2
	topLeft := geo.NewGeoPoint(top, left)
	bottomRight := geo.NewGeoPoint(top+wf.E*float64(height), left+wf.A*float64(width))
	return geo.NewGeoAreaFromCorners(topLeft, bottomRight)
}
