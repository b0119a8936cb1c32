package report

import (
	"encoding/csv"
	"fmt"
	"io"

	"Cablecalc/internal/calc/engine"
)

// WriteCSV writes the comparison table with a commented metadata preamble.
func WriteCSV(w io.Writer, s engine.Snapshot) error {
	if err := checkTable(s); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "# Cable Size Comparison - %s\n", stamp()); err != nil {
		return err
	}
	for _, m := range metadata(s) {
		if _, err := fmt.Fprintf(w, "# %s: %s\n", m.label, m.value); err != nil {
			return err
		}
	}
	if _, err := io.WriteString(w, "\n"); err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(tableHeaders); err != nil {
		return err
	}
	for _, r := range s.Table {
		if err := cw.Write(row(r)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
