package catalog

import (
	"encoding/json"
	"net/http"
	"strings"

	"Cablecalc/internal/calc/cable"
	"Cablecalc/internal/logging"
)

const maxWorkbookBytes = 10 << 20

type ImportHandler struct {
	Target *Swappable
	Log    logging.Logger
}

type FamilySummary struct {
	Family string    `json:"family"`
	Sizes  []float64 `json:"sizes"`
}

type ImportResult struct {
	Families      []FamilySummary `json:"families"`
	DiversityRows int             `json:"diversity_rows"`
	FuseRules     int             `json:"fuse_rules"`
}

// Summarize lists every family of p with its sizes, empty families included.
func Summarize(p Provider) ImportResult {
	res := ImportResult{
		DiversityRows: p.Diversity().Len(),
		FuseRules:     p.Fuses().Len(),
	}
	for _, m := range cable.Materials {
		for _, c := range cable.CoreConfigs {
			f := p.Catalog().Family(m, c)
			res.Families = append(res.Families, FamilySummary{Family: f.Key().String(), Sizes: f.Sizes()})
		}
	}
	return res
}

// emptyFamilies names the families a replacement catalog would leave without cables.
func emptyFamilies(p Provider) []string {
	var missing []string
	for _, f := range Summarize(p).Families {
		if len(f.Sizes) == 0 {
			missing = append(missing, f.Family)
		}
	}
	return missing
}

// Import replaces the live catalog with the tables of an uploaded workbook ("file" form field).
// Sessions created before the import keep the tables they started with.
func (h *ImportHandler) Import(w http.ResponseWriter, r *http.Request) {
	log := h.Log
	if log == nil {
		log = logging.Noop()
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxWorkbookBytes)
	file, _, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "File required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	tables, err := LoadWorkbook(r.Context(), file, log)
	if err != nil {
		log.Warn(r.Context(), "catalog import rejected", logging.Err(err))
		http.Error(w, "Invalid workbook: "+err.Error(), http.StatusBadRequest)
		return
	}
	if missing := emptyFamilies(tables); len(missing) > 0 {
		log.Warn(r.Context(), "catalog import rejected", logging.Any("empty_families", missing))
		http.Error(w, "Invalid workbook: no cable rows for "+strings.Join(missing, ", "), http.StatusBadRequest)
		return
	}
	h.Target.Replace(tables)
	log.Info(r.Context(), "catalog replaced", logging.Int("cables", tables.Catalog().Len()))

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(Summarize(tables))
}
