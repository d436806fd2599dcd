package validate_test

import (
	"testing"

	"github.com/raphaelgruber/replan-rag/internal/models"
	"github.com/raphaelgruber/replan-rag/internal/validate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func structure(rel models.Relationship, pairs ...string) *models.Structure {
	s := &models.Structure{Relationship: rel}
	for i := 0; i+1 < len(pairs); i += 2 {
		s.Placements = append(s.Placements, models.Placement{Position: pairs[i], Object: pairs[i+1]})
	}
	return s
}

func TestValidateStructureRequiredSets(t *testing.T) {
	tests := []struct {
		name    string
		s       *models.Structure
		wantErr bool
	}{
		{"stacked two", structure(models.RelStacked, "bottom", "a", "top", "b"), false},
		{"stacked three any order", structure(models.RelStacked, "top", "c", "bottom", "a", "middle", "b"), false},
		{"stacked two with middle", structure(models.RelStacked, "bottom", "a", "middle", "b"), true},
		{"stacked one", structure(models.RelStacked, "bottom", "a"), true},
		{"stacked four", structure(models.RelStacked, "bottom", "a", "middle", "b", "top", "c", "top", "d"), true},
		{"stacked duplicate position", structure(models.RelStacked, "bottom", "a", "bottom", "b", "top", "c"), true},
		{"separated left right", structure(models.RelSeparatedLeftRight, "left", "a", "right", "b"), false},
		{"separated left right extra", structure(models.RelSeparatedLeftRight, "left", "a", "right", "b", "top", "c"), true},
		{"separated front back", structure(models.RelSeparatedFrontBack, "front", "a", "back", "b"), false},
		{"separated front back wrong", structure(models.RelSeparatedFrontBack, "left", "a", "back", "b"), true},
		{"separate horizontal", structure(models.RelSeparateHorizontal, "left", "a", "middle", "b", "right", "c"), false},
		{"separate horizontal missing", structure(models.RelSeparateHorizontal, "left", "a", "right", "c"), true},
		{"separate vertical", structure(models.RelSeparateVertical, "bottom", "a", "middle", "b", "top", "c"), false},
		{"pyramid", structure(models.RelPyramid, "bottom left", "a", "bottom right", "b", "top", "c"), false},
		{"pyramid missing top", structure(models.RelPyramid, "bottom left", "a", "bottom right", "b"), true},
		{"stacked and separated left", structure(models.RelStackedAndSeparatedLeft, "bottom", "a", "top", "b", "left", "c"), false},
		{"stacked and separated left wrong side", structure(models.RelStackedAndSeparatedLeft, "bottom", "a", "top", "b", "right", "c"), true},
		{"stacked and separated right", structure(models.RelStackedAndSeparatedRight, "bottom", "a", "top", "b", "right", "c"), false},
		{"single stack no position", structure(models.RelStackedLeft, "", "a"), false},
		{"single stack with position", structure(models.RelStackedMiddle, "top", "a"), false},
		{"single stack two placements", structure(models.RelStackedRight, "", "a", "", "b"), true},
		{"unknown relationship permissive", structure("diagonal", "anywhere", "a"), false},
		{"none relationship permissive", structure(models.RelNone, "x", "a"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validate.ValidateStructure(tt.s)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, validate.ErrSchema)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateStructureRequiresObjects(t *testing.T) {
	s := structure(models.RelSeparatedLeftRight, "left", "a", "right", "")
	err := validate.ValidateStructure(s)
	require.Error(t, err)
	assert.ErrorIs(t, err, validate.ErrSchema)
	assert.Contains(t, err.Error(), "placement 1 has no object")
}

func TestValidateStructureBasicShape(t *testing.T) {
	assert.ErrorIs(t, validate.ValidateStructure(nil), validate.ErrSchema)
	assert.ErrorIs(t, validate.ValidateStructure(&models.Structure{Placements: []models.Placement{{Object: "a"}}}), validate.ErrSchema)
	assert.ErrorIs(t, validate.ValidateStructure(&models.Structure{Relationship: models.RelPyramid}), validate.ErrSchema)
}

func TestValidateStructureErrorNamesSets(t *testing.T) {
	err := validate.ValidateStructure(structure(models.RelPyramid, "bottom left", "a", "bottom right", "b", "middle", "c"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"pyramid"`)
	assert.Contains(t, err.Error(), "expects positions [bottom left, bottom right, top]")
	assert.Contains(t, err.Error(), "found [bottom left, bottom right, middle]")
}
