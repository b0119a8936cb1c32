package fuse

import (
	"fmt"
	"strconv"

	"Cablecalc/internal/calc/cable"
)

const (
	NotSpecified = "Not specified"
	NA           = "N/A"
)

type Rule struct {
	Material cable.Material `json:"material"`
	Size     float64        `json:"size"`
	Rating   float64        `json:"rating_a"`
}

type Table struct {
	rules []Rule
}

func NewTable(rules []Rule) Table {
	rs := make([]Rule, len(rules))
	copy(rs, rules)
	return Table{rules: rs}
}

func (t Table) Rules() []Rule {
	out := make([]Rule, len(t.rules))
	copy(out, t.rules)
	return out
}

func (t Table) Len() int { return len(t.rules) }

// Lookup returns "{rating} A" for an exact (material, size) match, otherwise "Not specified".
func (t Table) Lookup(m cable.Material, size float64) string {
	for _, r := range t.rules {
		if r.Material == m && r.Size == size {
			return strconv.FormatFloat(r.Rating, 'f', -1, 64) + " A"
		}
	}
	return NotSpecified
}

// Combined joins the network fuse and conductor ampacity into one label.
func Combined(fuseSize string, rating float64) string {
	switch {
	case fuseSize != NA && fuseSize != NotSpecified && rating > 0:
		return fmt.Sprintf("%s / %.0f A", fuseSize, rating)
	case rating > 0 && fuseSize == NotSpecified:
		return fmt.Sprintf("No fuse / %.0f A", rating)
	case rating > 0:
		return fmt.Sprintf("%.0f A", rating)
	default:
		return NA
	}
}

type Rating struct {
	FuseSize        string  `json:"network_fuse_size"`
	ConductorRating float64 `json:"conductor_rating"`
	Combined        string  `json:"combined_rating_info"`
}

// Resolve annotates a selected cable with its fuse and ampacity labels.
func (t Table) Resolve(rec *cable.Record) Rating {
	if rec == nil {
		return Rating{FuseSize: NA, Combined: NA}
	}
	fs := t.Lookup(rec.Material, rec.Size)
	return Rating{
		FuseSize:        fs,
		ConductorRating: rec.MaxCurrent,
		Combined:        Combined(fs, rec.MaxCurrent),
	}
}
