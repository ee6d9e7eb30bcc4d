// Package units converts heterogeneous measurement units to the canonical
// unit of an ingredient category so that quantities are comparable. The
// conversion tables are static configuration; the package holds no state.
package units

import (
	"fmt"

	"github.com/JoaoMarques95/dinners/internal/common"
)

// Dimension is the physical dimension a unit measures.
type Dimension string

const (
	Mass   Dimension = "mass"
	Volume Dimension = "volume"
	Count  Dimension = "count"
)

// Canonical units: mass in grams, volume in milliliters, count in units.
const (
	CanonicalMass   = "g"
	CanonicalVolume = "ml"
	CanonicalCount  = "unit"
)

type conversion struct {
	dim    Dimension
	factor float64
}

// table maps a unit name to its dimension and factor to the canonical unit.
var table = map[string]conversion{
	// mass
	"g":  {Mass, 1},
	"kg": {Mass, 1000},
	"mg": {Mass, 0.001},
	"oz": {Mass, 28.3495},
	"lb": {Mass, 453.592},

	// volume
	"ml":    {Volume, 1},
	"l":     {Volume, 1000},
	"dl":    {Volume, 100},
	"tsp":   {Volume, 4.92892},
	"tbsp":  {Volume, 14.7868},
	"cup":   {Volume, 236.588},
	"fl_oz": {Volume, 29.5735},

	// count
	"unit":  {Count, 1},
	"piece": {Count, 1},
	"clove": {Count, 1},
	"slice": {Count, 1},
	"dozen": {Count, 12},
}

// categoryDimensions maps an ingredient category to the dimension its
// canonical unit measures. Categories not listed accept any unit and
// normalize within that unit's own dimension.
var categoryDimensions = map[string]Dimension{
	"produce":  Mass,
	"meat":     Mass,
	"fish":     Mass,
	"dairy":    Mass,
	"grains":   Mass,
	"baking":   Mass,
	"spices":   Mass,
	"pantry":   Mass,
	"frozen":   Mass,
	"beverage": Volume,
	"oil":      Volume,
	"liquid":   Volume,
	"eggs":     Count,
	"bakery":   Count,
}

// CanonicalUnit returns the canonical unit of a dimension.
func CanonicalUnit(d Dimension) string {
	switch d {
	case Volume:
		return CanonicalVolume
	case Count:
		return CanonicalCount
	default:
		return CanonicalMass
	}
}

// Normalize converts quantity from unit to the canonical unit of category.
// It returns the converted quantity and the canonical unit name. The error
// wraps common.ErrorUnitMismatch when the unit is unknown or its dimension
// does not match the category's canonical dimension.
func Normalize(quantity float64, unit string, category string) (float64, string, error) {
	conv, ok := table[unit]
	if !ok {
		return 0, "", fmt.Errorf("unknown unit %q: %w", unit, common.ErrorUnitMismatch)
	}

	dim, ok := categoryDimensions[category]
	if !ok {
		// Uncategorized ingredients normalize within the unit's own dimension.
		dim = conv.dim
	}
	if conv.dim != dim {
		return 0, "", fmt.Errorf("unit %q measures %s but category %q uses %s: %w",
			unit, conv.dim, category, dim, common.ErrorUnitMismatch)
	}

	return quantity * conv.factor, CanonicalUnit(dim), nil
}
