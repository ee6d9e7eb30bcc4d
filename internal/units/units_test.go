package units

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JoaoMarques95/dinners/internal/common"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		quantity float64
		unit     string
		category string
		want     float64
		wantUnit string
	}{
		{name: "kg to g", quantity: 1.5, unit: "kg", category: "baking", want: 1500, wantUnit: "g"},
		{name: "g passthrough", quantity: 200, unit: "g", category: "baking", want: 200, wantUnit: "g"},
		{name: "liters to ml", quantity: 0.5, unit: "l", category: "beverage", want: 500, wantUnit: "ml"},
		{name: "tbsp to ml", quantity: 2, unit: "tbsp", category: "oil", want: 29.5736, wantUnit: "ml"},
		{name: "dozen to units", quantity: 1, unit: "dozen", category: "eggs", want: 12, wantUnit: "unit"},
		{name: "unknown category uses unit dimension", quantity: 3, unit: "kg", category: "misc", want: 3000, wantUnit: "g"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, gotUnit, err := Normalize(tt.quantity, tt.unit, tt.category)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-6)
			assert.Equal(t, tt.wantUnit, gotUnit)
		})
	}
}

func TestNormalize_DimensionMismatch(t *testing.T) {
	// "2 cloves" of a mass-only category cannot be converted.
	_, _, err := Normalize(2, "clove", "spices")
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrorUnitMismatch))
}

func TestNormalize_UnknownUnit(t *testing.T) {
	_, _, err := Normalize(1, "handful", "produce")
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrorUnitMismatch))
}

func TestCanonicalUnit(t *testing.T) {
	assert.Equal(t, "g", CanonicalUnit(Mass))
	assert.Equal(t, "ml", CanonicalUnit(Volume))
	assert.Equal(t, "unit", CanonicalUnit(Count))
}
