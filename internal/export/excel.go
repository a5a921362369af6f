// Package export writes stored screening records to an Excel workbook for
// offline review.
package export

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/spigell/hireflow/internal/domain"
	"github.com/spigell/hireflow/internal/scoring"
)

const (
	summarySheet    = "Summary"
	candidatesSheet = "Candidates"
)

var candidateHeaders = []string{
	"Candidate ID", "Screened At", "Skills", "Years", "Role Fit", "Confidence", "Human Review", "Onboarding Plan",
}

// Workbook writes candidates to an .xlsx file at outputPath and returns the
// final path.
func Workbook(candidates []*domain.Candidate, outputPath string) (string, error) {
	f := excelize.NewFile()
	defer f.Close()

	if !strings.HasSuffix(strings.ToLower(outputPath), ".xlsx") {
		outputPath += ".xlsx"
	}
	outputPath = filepath.Clean(outputPath)

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return "", fmt.Errorf("rename summary sheet: %w", err)
	}
	if _, err := f.NewSheet(candidatesSheet); err != nil {
		return "", fmt.Errorf("create candidates sheet: %w", err)
	}

	if err := writeSummary(f, candidates); err != nil {
		return "", fmt.Errorf("failed to create summary sheet: %w", err)
	}
	if err := writeCandidates(f, candidates); err != nil {
		return "", fmt.Errorf("failed to create candidates sheet: %w", err)
	}

	if err := f.SaveAs(outputPath); err != nil {
		return "", fmt.Errorf("save workbook %s: %w", outputPath, err)
	}
	return outputPath, nil
}

func writeSummary(f *excelize.File, candidates []*domain.Candidate) error {
	counts := map[domain.Confidence]int{}
	review := 0
	for _, c := range candidates {
		counts[c.Scores.Confidence]++
		if scoring.RequiresReview(c.Scores.Confidence) {
			review++
		}
	}

	labelStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}

	rows := [][]any{
		{"Generated", time.Now().UTC().Format(time.RFC3339)},
		{"Candidates", len(candidates)},
		{"High confidence", counts[domain.ConfidenceHigh]},
		{"Medium confidence", counts[domain.ConfidenceMedium]},
		{"Low confidence", counts[domain.ConfidenceLow]},
		{"Human review required", review},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(summarySheet, cell, &row); err != nil {
			return err
		}
		if err := f.SetCellStyle(summarySheet, cell, cell, labelStyle); err != nil {
			return err
		}
	}
	return f.SetColWidth(summarySheet, "A", "A", 24)
}

func writeCandidates(f *excelize.File, candidates []*domain.Candidate) error {
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return err
	}

	tierStyles := map[domain.Confidence]string{
		domain.ConfidenceHigh:   "C6EFCE",
		domain.ConfidenceMedium: "FFEB9C",
		domain.ConfidenceLow:    "FFC7CE",
	}
	styles := make(map[domain.Confidence]int, len(tierStyles))
	for tier, color := range tierStyles {
		id, err := f.NewStyle(&excelize.Style{
			Fill: excelize.Fill{Type: "pattern", Color: []string{color}, Pattern: 1},
		})
		if err != nil {
			return err
		}
		styles[tier] = id
	}

	header := make([]any, len(candidateHeaders))
	for i, h := range candidateHeaders {
		header[i] = h
	}
	if err := f.SetSheetRow(candidatesSheet, "A1", &header); err != nil {
		return err
	}
	last, _ := excelize.CoordinatesToCellName(len(candidateHeaders), 1)
	if err := f.SetCellStyle(candidatesSheet, "A1", last, headerStyle); err != nil {
		return err
	}

	for i, c := range candidates {
		rowNum := i + 2
		plan := ""
		if c.Onboarding != nil {
			plan = c.Onboarding.PlanID
		}
		row := []any{
			c.ID,
			c.CreatedAt.UTC().Format(time.RFC3339),
			strings.Join(c.Profile.Skills, ", "),
			c.Profile.YearsExperience,
			c.Scores.ComputedRoleFit,
			string(c.Scores.Confidence),
			scoring.RequiresReview(c.Scores.Confidence),
			plan,
		}
		cell, _ := excelize.CoordinatesToCellName(1, rowNum)
		if err := f.SetSheetRow(candidatesSheet, cell, &row); err != nil {
			return err
		}
		if style, ok := styles[c.Scores.Confidence]; ok {
			tierCell, _ := excelize.CoordinatesToCellName(6, rowNum)
			if err := f.SetCellStyle(candidatesSheet, tierCell, tierCell, style); err != nil {
				return err
			}
		}
	}

	if err := f.SetColWidth(candidatesSheet, "A", "A", 38); err != nil {
		return err
	}
	return f.SetColWidth(candidatesSheet, "B", "H", 16)
}
