package report

import (
	"fmt"
	"io"

	"Cablecalc/internal/calc/engine"
	"Cablecalc/internal/calc/vdrop"

	"github.com/phpdave11/gofpdf"
)

type rgb struct{ r, g, b int }

type statusColors struct {
	fill rgb
	text rgb
}

var statusPalette = map[vdrop.Status]statusColors{
	vdrop.StatusSevere:  {fill: rgb{255, 228, 225}, text: rgb{139, 0, 0}},
	vdrop.StatusWarning: {fill: rgb{250, 240, 230}, text: rgb{255, 140, 0}},
	vdrop.StatusSubmain: {fill: rgb{240, 248, 255}, text: rgb{0, 0, 255}},
	vdrop.StatusOK:      {fill: rgb{245, 255, 250}, text: rgb{0, 100, 0}},
}

func newPDF(title string) (*gofpdf.Fpdf, func(string) string) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(12, 12, 12)
	pdf.SetAutoPageBreak(true, 12)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, tr(title), "", 1, "C", false, 0, "")
	pdf.Ln(4)
	return pdf, tr
}

func keyValueGrid(pdf *gofpdf.Fpdf, tr func(string) string, rows []meta) {
	pdf.SetFont("Helvetica", "", 10)
	for _, m := range rows {
		pdf.SetFillColor(211, 211, 211)
		pdf.CellFormat(55, 7, tr(m.label+":"), "1", 0, "L", true, 0, "")
		pdf.CellFormat(110, 7, tr(m.value), "1", 1, "L", false, 0, "")
	}
	pdf.Ln(5)
}

func footer(pdf *gofpdf.Fpdf) {
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 9)
	pdf.SetTextColor(0, 0, 0)
	pdf.CellFormat(0, 6, "Generated: "+stamp(), "", 1, "L", false, 0, "")
}

// WriteTablePDF renders the comparison table with per-status colouring.
func WriteTablePDF(w io.Writer, s engine.Snapshot) error {
	if err := checkTable(s); err != nil {
		return err
	}
	pdf, tr := newPDF("Cable Size Comparison")
	keyValueGrid(pdf, tr, metadata(s))

	const colW = 23.0
	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(128, 128, 128)
	pdf.SetTextColor(245, 245, 245)
	for _, h := range tableHeaders {
		pdf.CellFormat(colW, 9, tr(h), "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 9)
	for i, r := range s.Table {
		cells := row(r)
		for c, v := range cells {
			fill := false
			pdf.SetTextColor(0, 0, 0)
			if i%2 == 1 {
				pdf.SetFillColor(245, 245, 245)
				fill = true
			}
			if c == len(cells)-1 {
				if pal, ok := statusPalette[r.Status]; ok {
					pdf.SetFillColor(pal.fill.r, pal.fill.g, pal.fill.b)
					pdf.SetTextColor(pal.text.r, pal.text.g, pal.text.b)
					fill = true
				}
			}
			pdf.CellFormat(colW, 7, tr(v), "1", 0, "C", fill, 0, "")
		}
		pdf.Ln(-1)
	}
	footer(pdf)
	return pdf.Output(w)
}

// WriteDetailsPDF renders the selected-cable calculation.
func WriteDetailsPDF(w io.Writer, s engine.Snapshot) error {
	if s.Selection == nil {
		return fmt.Errorf("no calculation to export")
	}
	if s.State != engine.Fresh {
		return fmt.Errorf("results are out of date, complete the inputs first")
	}
	sel := s.Selection
	pdf, tr := newPDF("Voltage Drop Calculation Results")

	admd := "Disabled"
	if s.Params.ADMD {
		admd = "Enabled (1.5×)"
	}
	kvaPerHouse := 0.0
	if s.Houses > 0 {
		kvaPerHouse = s.TotalKVA / float64(s.Houses)
	}

	section := func(title string, rows []meta) {
		pdf.SetFont("Helvetica", "B", 12)
		pdf.SetTextColor(0, 0, 0)
		pdf.CellFormat(0, 8, tr(title), "", 1, "L", false, 0, "")
		keyValueGrid(pdf, tr, rows)
	}
	section("System Configuration", []meta{
		{"Voltage System", s.VoltageOption},
		{"ADMD Status", admd},
	})
	section("Load Details", []meta{
		{"KVA per House", fmt.Sprintf("%.1f kVA", kvaPerHouse)},
		{"Number of Houses", fmt.Sprintf("%d", s.Houses)},
		{"Diversity Factor", fmt.Sprintf("%.3f", s.DiversityFactor)},
		{"Total Load", fmt.Sprintf("%.1f kVA", s.DiversifiedKVA)},
		{"Current", fmt.Sprintf("%.1f A", s.Params.CurrentA)},
	})
	section("Cable Details", []meta{
		{"Cable Size", fmt.Sprintf("%g mm²", sel.Size)},
		{"Material", string(sel.Material)},
		{"Configuration", string(sel.Cores)},
		{"Length", fmt.Sprintf("%g m", s.Params.LengthM)},
		{"Installation", s.Params.InstallationMethod},
		{"Temperature", fmt.Sprintf("%g °C", s.Params.TemperatureC)},
		{"Grouping Factor", fmt.Sprintf("%g", s.Params.GroupingFactor)},
	})

	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 8, "Results", "", 1, "L", false, 0, "")

	drop := rgb{0, 128, 0}
	if sel.DropPercent > 5 {
		drop = rgb{255, 0, 0}
	}
	results := []struct {
		meta
		colored bool
	}{
		{meta{"Network Fuse / Rating", sel.Combined}, false},
		{meta{"Voltage Drop", fmt.Sprintf("%.2f V", sel.DropV)}, true},
		{meta{"Drop Percentage", fmt.Sprintf("%.2f%%", sel.DropPercent)}, true},
		{meta{"Status", string(sel.Status)}, true},
	}
	pdf.SetFont("Helvetica", "", 10)
	for _, m := range results {
		pdf.SetFillColor(211, 211, 211)
		pdf.SetTextColor(0, 0, 0)
		pdf.CellFormat(55, 7, tr(m.label+":"), "1", 0, "L", true, 0, "")
		if m.colored {
			pdf.SetTextColor(drop.r, drop.g, drop.b)
		}
		pdf.CellFormat(110, 7, tr(m.value), "1", 1, "L", false, 0, "")
	}
	footer(pdf)
	return pdf.Output(w)
}
