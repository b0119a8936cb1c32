package catalog

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"unicode/utf8"

	"Cablecalc/internal/logging"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"
)

const (
	DiversityFile = "diversity_factor.csv"
	FuseFile      = "network_fuse_sizes.csv"
)

func familyFile(name string) string {
	return "cable_data_" + name + ".csv"
}

// LoadDir reads the CSV tables from dir. It only fails when dir itself is unreadable;
// individual tables degrade as described on assemble.
func LoadDir(ctx context.Context, dir string, log logging.Logger) (Tables, error) {
	if log == nil {
		log = logging.Noop()
	}
	if _, err := os.Stat(dir); err != nil {
		return Tables{}, fmt.Errorf("catalog dir: %w", err)
	}
	files := map[string]string{
		"diversity": DiversityFile,
		"fuses":     FuseFile,
	}
	for _, src := range familySources {
		files[src.name] = familyFile(src.name)
	}

	sheets := make(map[string]sheet, len(files))
	errs := make(map[string]error)
	for name, file := range files {
		s, err := readCSV(filepath.Join(dir, file))
		if err != nil {
			errs[name] = err
			continue
		}
		sheets[name] = s
	}
	return assemble(ctx, log, sheets, errs), nil
}

func readCSV(path string) (sheet, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return sheet{}, err
	}
	s, err := parseCSV(filepath.Base(path), raw)
	if err != nil {
		return sheet{}, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

func parseCSV(name string, raw []byte) (sheet, error) {
	text, err := decode(raw)
	if err != nil {
		return sheet{}, err
	}
	r := csv.NewReader(bytes.NewReader(text))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	r.Comment = '#'
	records, err := r.ReadAll()
	if err != nil {
		return sheet{}, err
	}
	if len(records) == 0 {
		return sheet{}, fmt.Errorf("empty file")
	}
	return sheet{name: name, header: records[0], rows: records[1:]}, nil
}

// decode passes UTF-8 through and treats anything else as Windows-1252, which is what
// spreadsheet exports on Windows produce for headers like "Size (mm²)".
func decode(raw []byte) ([]byte, error) {
	if utf8.Valid(raw) {
		return raw, nil
	}
	return charmap.Windows1252.NewDecoder().Bytes(raw)
}

// Workbook sheet names.
var workbookSheets = []string{"cu_1c", "cu_3c", "al_1c", "al_3c", "diversity", "fuses"}

// LoadWorkbook reads the same tables from an XLSX workbook, one sheet per table.
func LoadWorkbook(ctx context.Context, r io.Reader, log logging.Logger) (Tables, error) {
	if log == nil {
		log = logging.Noop()
	}
	f, err := excelize.OpenReader(r)
	if err != nil {
		return Tables{}, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := make(map[string]sheet)
	errs := make(map[string]error)
	for _, name := range workbookSheets {
		rows, err := f.GetRows(name)
		if err != nil {
			errs[name] = err
			continue
		}
		if len(rows) < 2 {
			errs[name] = fmt.Errorf("sheet %s: no data rows", name)
			continue
		}
		sheets[name] = sheet{name: name, header: rows[0], rows: rows[1:]}
	}
	if len(sheets) == 0 {
		return Tables{}, fmt.Errorf("workbook has none of the sheets %v", workbookSheets)
	}
	return assemble(ctx, log, sheets, errs), nil
}
