package preprocess

import (
	"context"
	"log/slog"
	"slices"
	"sync"
)

// Preprocessor keeps the rasters that are candidates for tiling.
type Preprocessor struct {
	provider MetadataProvider
	logger   *slog.Logger

	mu      sync.Mutex
	rasters []RasterInfo
}

// NewPreprocessor uses FileMetadataProvider when provider is nil.
func NewPreprocessor(provider MetadataProvider, logger *slog.Logger) *Preprocessor {
	if provider == nil {
		provider = FileMetadataProvider{}
	}
	return &Preprocessor{provider: provider, logger: logger}
}

func (p *Preprocessor) log() *slog.Logger {
	if p.logger != nil {
		return p.logger
	}
	return slog.Default()
}

// LoadMetadata reads the metadata of path and remembers it. Loading the
// same file twice keeps a single entry, refreshed with the latest read.
func (p *Preprocessor) LoadMetadata(ctx context.Context, path string) (RasterInfo, error) {
	info, err := p.provider.Load(ctx, path)
	if err != nil {
		return RasterInfo{}, err
	}

	p.mu.Lock()
	i := slices.IndexFunc(p.rasters, func(r RasterInfo) bool { return r.FullPath == info.FullPath })
	if i >= 0 {
		p.rasters[i] = info
	} else {
		p.rasters = append(p.rasters, info)
	}
	p.mu.Unlock()

	p.log().Info("Loaded raster metadata",
		"file", info.FileName,
		"format", info.Format,
		"size", info.ImageSize.String(),
		"bands", info.Bands,
		"area", info.MapArea.String())

	return info, nil
}

// Rasters returns the loaded rasters in load order.
func (p *Preprocessor) Rasters() []RasterInfo {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.rasters)
}
