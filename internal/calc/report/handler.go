package report

import (
	"bytes"
	"fmt"
	"io"
	"net/http"

	"Cablecalc/internal/calc/engine"

	"github.com/gorilla/mux"
)

// Source resolves the engine snapshot a request refers to.
type Source interface {
	SnapshotFor(r *http.Request) (engine.Snapshot, bool)
}

type Handler struct {
	Source Source
}

type format struct {
	contentType string
	ext         string
	write       func(io.Writer, engine.Snapshot) error
}

var formats = map[string]format{
	"csv":  {"text/csv", "csv", WriteCSV},
	"xlsx": {"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", "xlsx", WriteXLSX},
	"pdf":  {"application/pdf", "pdf", WriteTablePDF},
}

// Export writes the comparison table in the format named by the {format} route variable.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	f, ok := formats[mux.Vars(r)["format"]]
	if !ok {
		http.Error(w, "Unknown export format", http.StatusBadRequest)
		return
	}
	h.serve(w, r, f.contentType, "cable_comparison_"+fileStamp()+"."+f.ext, f.write)
}

func (h *Handler) Details(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, "application/pdf", "voltage_drop_details_"+fileStamp()+".pdf", WriteDetailsPDF)
}

func (h *Handler) serve(w http.ResponseWriter, r *http.Request, contentType, filename string, write func(io.Writer, engine.Snapshot) error) {
	snap, ok := h.Source.SnapshotFor(r)
	if !ok {
		http.Error(w, "Session not found", http.StatusNotFound)
		return
	}
	var buf bytes.Buffer
	if err := write(&buf, snap); err != nil {
		http.Error(w, "Report generation error: "+err.Error(), http.StatusUnprocessableEntity)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Write(buf.Bytes())
}
