// Package preprocess reads raster metadata and cuts georeferenced rasters
// into projected tiles.
package preprocess

import "fmt"

// Status is a progress report of a long running step.
type Status struct {
	Message string
	Current float64
	Total   float64
}

// Percent is Current/Total, or 0 when there is nothing to do.
func (s Status) Percent() float64 {
	if s.Total <= 0 {
		return 0
	}
	return s.Current / s.Total
}

func (s Status) String() string {
	return fmt.Sprintf("%s (%.0f/%.0f, %.0f%%)", s.Message, s.Current, s.Total, s.Percent()*100)
}

// Observer receives status updates. Current never decreases within one run.
type Observer func(Status)

func (o Observer) report(s Status) {
	if o != nil {
		o(s)
	}
}
