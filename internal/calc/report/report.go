package report

import (
	"fmt"
	"time"

	"Cablecalc/internal/calc/engine"
	"Cablecalc/internal/calc/vdrop"
)

var tableHeaders = []string{
	"Size (mm²)", "Material", "Cores", "mV/A/m", "Rating (A)", "Voltage Drop (V)", "Drop (%)", "Status",
}

type meta struct {
	label string
	value string
}

func metadata(s engine.Snapshot) []meta {
	admd := "No"
	if s.Params.ADMD {
		admd = "Yes"
	}
	return []meta{
		{"System Voltage", s.VoltageOption},
		{"Current", fmt.Sprintf("%.1f A", s.Params.CurrentA)},
		{"Length", fmt.Sprintf("%.1f m", s.Params.LengthM)},
		{"Installation Method", s.Params.InstallationMethod},
		{"Temperature", fmt.Sprintf("%.1f °C", s.Params.TemperatureC)},
		{"Grouping Factor", fmt.Sprintf("%.2f", s.Params.GroupingFactor)},
		{"ADMD Enabled", admd},
		{"Diversity Factor", fmt.Sprintf("%.3f", s.DiversityFactor)},
	}
}

func row(r vdrop.CableResult) []string {
	return []string{
		fmt.Sprintf("%g", r.Size),
		string(r.Material),
		string(r.Cores),
		fmt.Sprintf("%g", r.MvPerAm),
		fmt.Sprintf("%g", r.MaxCurrent),
		fmt.Sprintf("%.2f", r.DropV),
		fmt.Sprintf("%.2f", r.DropPercent),
		string(r.Status),
	}
}

// Stamp is the clock used for report timestamps.
var Stamp = time.Now

func stamp() string {
	return Stamp().Format("2006-01-02 15:04:05")
}

func fileStamp() string {
	return Stamp().Format("2006-01-02-15-04-05")
}

func checkTable(s engine.Snapshot) error {
	if len(s.Table) == 0 {
		return fmt.Errorf("table contains no data to export")
	}
	if s.State != engine.Fresh {
		return fmt.Errorf("results are out of date, complete the inputs first")
	}
	return nil
}
