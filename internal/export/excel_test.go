package export

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/spigell/hireflow/internal/domain"
)

func TestWorkbook(t *testing.T) {
	created := time.Date(2024, 2, 3, 4, 5, 6, 0, time.UTC)
	candidates := []*domain.Candidate{
		{
			ID:        "c1",
			Profile:   domain.Profile{Skills: []string{"python", "sql"}, YearsExperience: 3},
			Scores:    domain.Scores{RoleFit: 0.9, ComputedRoleFit: 0.9, Confidence: domain.ConfidenceHigh},
			CreatedAt: created,
		},
		{
			ID:         "c2",
			Scores:     domain.Scores{Confidence: domain.ConfidenceLow},
			Onboarding: &domain.OnboardingPlan{PlanID: "plan-7"},
			CreatedAt:  created,
		},
	}

	path, err := Workbook(candidates, filepath.Join(t.TempDir(), "report"))
	require.NoError(t, err)
	assert.Equal(t, ".xlsx", filepath.Ext(path))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{summarySheet, candidatesSheet}, f.GetSheetList())

	get := func(sheet, cell string) string {
		v, err := f.GetCellValue(sheet, cell)
		require.NoError(t, err)
		return v
	}

	assert.Equal(t, "2", get(summarySheet, "B2"))
	assert.Equal(t, "1", get(summarySheet, "B3"))
	assert.Equal(t, "1", get(summarySheet, "B5"))
	assert.Equal(t, "1", get(summarySheet, "B6"))

	assert.Equal(t, "Candidate ID", get(candidatesSheet, "A1"))
	assert.Equal(t, "c1", get(candidatesSheet, "A2"))
	assert.Equal(t, "2024-02-03T04:05:06Z", get(candidatesSheet, "B2"))
	assert.Equal(t, "python, sql", get(candidatesSheet, "C2"))
	assert.Equal(t, "0.9", get(candidatesSheet, "E2"))
	assert.Equal(t, "High", get(candidatesSheet, "F2"))
	assert.Equal(t, "FALSE", get(candidatesSheet, "G2"))
	assert.Equal(t, "TRUE", get(candidatesSheet, "G3"))
	assert.Equal(t, "plan-7", get(candidatesSheet, "H3"))
}
