package report

import (
	"fmt"
	"io"

	"Cablecalc/internal/calc/engine"
	"Cablecalc/internal/calc/vdrop"

	"github.com/xuri/excelize/v2"
)

const comparisonSheet = "Comparison"

var statusFill = map[vdrop.Status][2]string{
	vdrop.StatusSevere:  {"#FFE4E1", "#8B0000"},
	vdrop.StatusWarning: {"#FAF0E6", "#FF8C00"},
	vdrop.StatusSubmain: {"#F0F8FF", "#0000FF"},
	vdrop.StatusOK:      {"#F5FFFA", "#006400"},
}

// WriteXLSX writes the comparison table to a single-sheet workbook.
func WriteXLSX(w io.Writer, s engine.Snapshot) error {
	if err := checkTable(s); err != nil {
		return err
	}
	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", comparisonSheet); err != nil {
		return err
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	statusStyles := make(map[vdrop.Status]int, len(statusFill))
	for st, c := range statusFill {
		id, err := f.NewStyle(&excelize.Style{
			Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{c[0]}},
			Font: &excelize.Font{Bold: true, Color: c[1]},
		})
		if err != nil {
			return err
		}
		statusStyles[st] = id
	}

	line := 1
	put := func(values []any) error {
		cell, err := excelize.CoordinatesToCellName(1, line)
		if err != nil {
			return err
		}
		line++
		return f.SetSheetRow(comparisonSheet, cell, &values)
	}

	if err := put([]any{"Cable Size Comparison", stamp()}); err != nil {
		return err
	}
	for _, m := range metadata(s) {
		if err := put([]any{m.label, m.value}); err != nil {
			return err
		}
	}
	line++

	header := make([]any, len(tableHeaders))
	for i, h := range tableHeaders {
		header[i] = h
	}
	headerLine := line
	if err := put(header); err != nil {
		return err
	}
	if err := f.SetCellStyle(comparisonSheet, fmt.Sprintf("A%d", headerLine), fmt.Sprintf("H%d", headerLine), bold); err != nil {
		return err
	}

	for _, r := range s.Table {
		statusCell := fmt.Sprintf("H%d", line)
		if err := put([]any{r.Size, string(r.Material), string(r.Cores), r.MvPerAm, r.MaxCurrent, r.DropV, r.DropPercent, string(r.Status)}); err != nil {
			return err
		}
		if id, ok := statusStyles[r.Status]; ok {
			if err := f.SetCellStyle(comparisonSheet, statusCell, statusCell, id); err != nil {
				return err
			}
		}
	}
	if err := f.SetColWidth(comparisonSheet, "A", "H", 18); err != nil {
		return err
	}
	return f.Write(w)
}
