package geo

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidHotSpot is returned for hot spot values outside their unit's range.
var ErrInvalidHotSpot = errors.New("invalid hot spot")

// HotSpotUnit says how a HotSpot value is interpreted.
type HotSpotUnit int

const (
	// Pixel values are absolute offsets in display units.
	Pixel HotSpotUnit = iota
	// Percent values are fractions (0..1) of the element's size.
	Percent
)

func (u HotSpotUnit) String() string {
	if u == Percent {
		return "percent"
	}
	return "pixel"
}

// HotSpot is the anchor within a marker that aligns with its location.
type HotSpot struct {
	Value float64
	Unit  HotSpotUnit
}

// HotSpotCenter anchors at 50% of the element's size.
var HotSpotCenter = HotSpot{Value: 0.5, Unit: Percent}

// pixel equivalents at 96 display units per inch
var pixelUnits = []struct {
	suffix string
	factor float64
}{
	{"px", 1},
	{"in", 96.0},
	{"cm", 96.0 / 2.54},
	{"pt", 96.0 / 72.0},
}

// NewHotSpot validates and creates a hot spot.
func NewHotSpot(value float64, unit HotSpotUnit) (HotSpot, error) {
	h := HotSpot{Value: value, Unit: unit}
	if h.IsProportional() && !InRange(value, 0, 1, 0.01) {
		return HotSpot{}, fmt.Errorf("%w: %g must be between 0 and 1", ErrInvalidHotSpot, value)
	}
	if h.IsAbsolute() && value < 0 {
		return HotSpot{}, fmt.Errorf("%w: %g must be greater than or equal to 0", ErrInvalidHotSpot, value)
	}
	return h, nil
}

// ParseHotSpot parses "[value][unit]". Units are "%", "px", "in", "cm" and
// "pt"; a bare number is pixels. "50%" means 0.5.
func ParseHotSpot(s string) (HotSpot, error) {
	str := strings.ToLower(strings.TrimSpace(s))
	if str == "" {
		return HotSpot{}, fmt.Errorf("%w: empty value", ErrInvalidHotSpot)
	}

	if strings.HasSuffix(str, "%") {
		v, err := strconv.ParseFloat(strings.TrimSpace(strings.TrimSuffix(str, "%")), 64)
		if err != nil {
			return HotSpot{}, fmt.Errorf("%w: %q: %v", ErrInvalidHotSpot, s, err)
		}
		return NewHotSpot(v/100, Percent)
	}

	factor := 1.0
	for _, u := range pixelUnits {
		if strings.HasSuffix(str, u.suffix) {
			str = strings.TrimSpace(strings.TrimSuffix(str, u.suffix))
			factor = u.factor
			break
		}
	}

	v, err := strconv.ParseFloat(str, 64)
	if err != nil {
		return HotSpot{}, fmt.Errorf("%w: %q: %v", ErrInvalidHotSpot, s, err)
	}
	return NewHotSpot(v*factor, Pixel)
}

// IsAbsolute reports whether the value is in pixels.
func (h HotSpot) IsAbsolute() bool { return h.Unit == Pixel }

// IsProportional reports whether the value is a fraction of the size.
func (h HotSpot) IsProportional() bool { return h.Unit == Percent }

// Apply returns the offset into an element of the given dimension.
func (h HotSpot) Apply(dimension float64) float64 {
	if h.IsAbsolute() {
		return h.Value
	}
	return dimension * h.Value
}

// Equal compares with 1px precision for pixels and 1% for percentages.
func (h HotSpot) Equal(other HotSpot) bool {
	precision := 0.01
	if h.IsAbsolute() {
		precision = 1
	}
	return h.Unit == other.Unit && SameAs(h.Value, other.Value, precision)
}

func (h HotSpot) String() string {
	if h.IsAbsolute() {
		return fmt.Sprintf("%.0f px", h.Value)
	}
	return fmt.Sprintf("%.0f%%", h.Value*100)
}
