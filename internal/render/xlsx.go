package render

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/jeanpaul/studentmodel/internal/model"
)

const (
	ConceptsSheet       = "Concepts"
	MisconceptionsSheet = "Misconceptions"
)

var (
	conceptHeader       = []any{"Name", "Mastery", "Confidence", "First Seen", "Last Reviewed", "Struggles", "Breakthroughs", "Related"}
	misconceptionHeader = []any{"ID", "Concept", "Belief", "Correction", "Identified", "Resolved", "Resolved At"}
)

// Export writes the document to an Excel workbook with one sheet of
// concepts (sorted by name) and one of misconceptions.
func Export(path string, doc *model.Document) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", ConceptsSheet); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	rows := [][]any{conceptHeader}
	for _, name := range doc.ConceptNames() {
		c := doc.Concepts[name]
		rows = append(rows, []any{
			c.Name,
			c.Mastery,
			string(c.Confidence),
			day(c.FirstSeen),
			day(c.LastReviewed),
			len(c.Struggles),
			len(c.Breakthroughs),
			strings.Join(c.Related, ", "),
		})
	}
	if err := writeRows(f, ConceptsSheet, rows); err != nil {
		return err
	}

	if _, err := f.NewSheet(MisconceptionsSheet); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	rows = [][]any{misconceptionHeader}
	for _, m := range doc.Misconceptions {
		resolvedAt := ""
		if m.ResolvedAt != nil {
			resolvedAt = day(*m.ResolvedAt)
		}
		rows = append(rows, []any{m.ID, m.Concept, m.Belief, m.Correction, day(m.Identified), m.Resolved, resolvedAt})
	}
	if err := writeRows(f, MisconceptionsSheet, rows); err != nil {
		return err
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	return nil
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fmt.Errorf("export: %w", err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("export %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}
