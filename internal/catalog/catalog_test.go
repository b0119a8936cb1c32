package catalog

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"Cablecalc/internal/calc/cable"
	"Cablecalc/internal/calc/fuse"
	"Cablecalc/internal/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func writeFile(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
}

func TestLoadDirShippedData(t *testing.T) {
	tables, err := LoadDir(context.Background(), filepath.Join("..", "..", "data"), logging.Noop())
	require.NoError(t, err)

	for _, m := range cable.Materials {
		for _, c := range cable.CoreConfigs {
			assert.Greater(t, tables.Catalog().Family(m, c).Len(), 0, "%s %s", m, c)
		}
	}
	assert.Equal(t, 1.0, tables.Diversity().Factor(1))
	assert.NoError(t, tables.Diversity().Validate())
	assert.Equal(t, "200 A", tables.Fuses().Lookup(cable.Aluminium, 95))
}

func TestLoadDirDegradesMissingTables(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "cable_data_cu_1c.csv", "size,mv_per_am,max_current\n25,1.6,115\n16,2.5,88\n\n")
	writeFile(t, dir, "cable_data_al_3c.csv", "size,mv_per_am\n16,4.2\n")

	tables, err := LoadDir(context.Background(), dir, nil)
	require.NoError(t, err)

	fam := tables.Catalog().Family(cable.Copper, cable.SingleCore)
	assert.Equal(t, []float64{16, 25}, fam.Sizes(), "rows are sorted by size")
	rec, ok := fam.Find(25)
	require.True(t, ok)
	assert.Equal(t, cable.Copper, rec.Material)
	assert.Equal(t, cable.SingleCore, rec.Cores)

	assert.Equal(t, 0, tables.Catalog().Family(cable.Aluminium, cable.ThreeCore).Len(), "broken family is empty")
	assert.Equal(t, 0, tables.Catalog().Family(cable.Copper, cable.ThreeCore).Len(), "missing family is empty")
	assert.Equal(t, 1.0, tables.Diversity().Factor(12))
	assert.Equal(t, fuse.NotSpecified, tables.Fuses().Lookup(cable.Copper, 25))
}

func TestLoadDirMissingDir(t *testing.T) {
	_, err := LoadDir(context.Background(), filepath.Join(t.TempDir(), "nope"), nil)
	assert.Error(t, err)
}

func TestParseCSVWindows1252(t *testing.T) {
	raw := []byte("Material,Size (mm\xb2),Network Fuse Size (A)\nAl,95,200\n")
	s, err := parseCSV("fuses.csv", raw)
	require.NoError(t, err)
	assert.Equal(t, "Size (mm²)", s.header[1])

	tbl, err := parseFuses(s)
	require.NoError(t, err)
	assert.Equal(t, "200 A", tbl.Lookup(cable.Aluminium, 95))
}

func TestParseFusesRejectsUnknownMaterial(t *testing.T) {
	s, err := parseCSV("fuses.csv", []byte("Material,Size (mm2),Network Fuse Size (A)\nFe,95,200\n"))
	require.NoError(t, err)
	_, err = parseFuses(s)
	assert.Error(t, err)
}

func TestLoadWorkbook(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	_, err := f.NewSheet("cu_1c")
	require.NoError(t, err)
	require.NoError(t, f.SetSheetRow("cu_1c", "A1", &[]any{"size", "mv_per_am", "max_current"}))
	require.NoError(t, f.SetSheetRow("cu_1c", "A2", &[]any{16, 2.5, 88}))
	require.NoError(t, f.SetSheetRow("cu_1c", "A3", &[]any{25, 1.6, 115}))
	_, err = f.NewSheet("diversity")
	require.NoError(t, err)
	require.NoError(t, f.SetSheetRow("diversity", "A1", &[]any{"houses", "factor"}))
	require.NoError(t, f.SetSheetRow("diversity", "A2", &[]any{1, 1.0}))
	require.NoError(t, f.SetSheetRow("diversity", "A3", &[]any{5, 0.35}))

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))

	tables, err := LoadWorkbook(context.Background(), &buf, logging.Noop())
	require.NoError(t, err)
	assert.Equal(t, []float64{16, 25}, tables.Catalog().Family(cable.Copper, cable.SingleCore).Sizes())
	assert.InDelta(t, 0.675, tables.Diversity().Factor(3), 1e-12)
	assert.Equal(t, 0, tables.Fuses().Len())
}

func TestLoadWorkbookWithoutKnownSheets(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))

	_, err := LoadWorkbook(context.Background(), &buf, nil)
	assert.Error(t, err)
}

func TestParseDiversityRejectsFractionalHouses(t *testing.T) {
	_, err := parseDiversity(sheet{
		name:   "diversity",
		header: []string{"houses", "factor"},
		rows:   [][]string{{"1", "1.0"}, {"2.5", "0.8"}, {"3", "0.7"}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 3")

	tbl, err := parseDiversity(sheet{
		name:   "diversity",
		header: []string{"houses", "factor"},
		rows:   [][]string{{"1", "1.0"}, {"4.0", "0.5"}},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, tbl.Len())
}

func TestSwappable(t *testing.T) {
	a := Tables{Cables: cable.NewCatalog(cable.NewFamily(cable.FamilyKey{Material: cable.Copper, Cores: cable.SingleCore}, []cable.Record{{Size: 16}}))}
	s := NewSwappable(a)
	held := s.Current()

	s.Replace(Tables{})
	assert.Equal(t, 1, held.Catalog().Len(), "captured tables survive a swap")
	assert.Equal(t, 0, s.Catalog().Len())
}
