package catalog

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"sync"

	"Cablecalc/internal/calc/cable"
	"Cablecalc/internal/calc/diversity"
	"Cablecalc/internal/calc/fuse"
	"Cablecalc/internal/logging"
)

// Provider supplies already-parsed reference tables. The engine never touches files.
type Provider interface {
	Catalog() cable.Catalog
	Diversity() diversity.Table
	Fuses() fuse.Table
}

type Tables struct {
	Cables    cable.Catalog
	Factors   diversity.Table
	FuseRules fuse.Table
}

func (t Tables) Catalog() cable.Catalog     { return t.Cables }
func (t Tables) Diversity() diversity.Table { return t.Factors }
func (t Tables) Fuses() fuse.Table          { return t.FuseRules }

// Swappable lets the catalog be replaced at runtime (workbook import) while sessions
// that already captured the previous tables keep them.
type Swappable struct {
	mu  sync.RWMutex
	cur Provider
}

func NewSwappable(p Provider) *Swappable {
	return &Swappable{cur: p}
}

func (s *Swappable) Current() Provider {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshot(s.cur)
}

func (s *Swappable) Replace(p Provider) {
	s.mu.Lock()
	s.cur = p
	s.mu.Unlock()
}

func (s *Swappable) Catalog() cable.Catalog     { return s.Current().Catalog() }
func (s *Swappable) Diversity() diversity.Table { return s.Current().Diversity() }
func (s *Swappable) Fuses() fuse.Table          { return s.Current().Fuses() }

func snapshot(p Provider) Provider {
	if p == nil {
		return Tables{Factors: diversity.Default()}
	}
	return Tables{Cables: p.Catalog(), Factors: p.Diversity(), FuseRules: p.Fuses()}
}

var familySources = []struct {
	key  cable.FamilyKey
	name string
}{
	{cable.FamilyKey{Material: cable.Copper, Cores: cable.SingleCore}, "cu_1c"},
	{cable.FamilyKey{Material: cable.Copper, Cores: cable.ThreeCore}, "cu_3c"},
	{cable.FamilyKey{Material: cable.Aluminium, Cores: cable.SingleCore}, "al_1c"},
	{cable.FamilyKey{Material: cable.Aluminium, Cores: cable.ThreeCore}, "al_3c"},
}

// sheet is the common row source for CSV files and workbook sheets.
type sheet struct {
	name   string
	header []string
	rows   [][]string
}

func (s sheet) column(names ...string) (int, error) {
	for i, h := range s.header {
		h = normalize(h)
		for _, n := range names {
			if h == normalize(n) {
				return i, nil
			}
		}
	}
	return -1, fmt.Errorf("%s: column %q not found", s.name, names[0])
}

func normalize(h string) string {
	h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	return strings.ToLower(h)
}

func parseFloat(row []string, i int) (float64, error) {
	if i >= len(row) {
		return 0, fmt.Errorf("missing value")
	}
	return strconv.ParseFloat(strings.TrimSpace(row[i]), 64)
}

func parseFamily(key cable.FamilyKey, s sheet) (cable.Family, error) {
	iSize, err := s.column("size", "size (mm2)", "size (mm²)")
	if err != nil {
		return cable.Family{}, err
	}
	iMv, err := s.column("mv_per_am", "mv/a/m")
	if err != nil {
		return cable.Family{}, err
	}
	iMax, err := s.column("max_current", "rating (a)")
	if err != nil {
		return cable.Family{}, err
	}
	var recs []cable.Record
	for n, row := range s.rows {
		if blank(row) {
			continue
		}
		size, err := parseFloat(row, iSize)
		if err != nil {
			return cable.Family{}, fmt.Errorf("%s row %d: size: %w", s.name, n+2, err)
		}
		mv, err := parseFloat(row, iMv)
		if err != nil {
			return cable.Family{}, fmt.Errorf("%s row %d: mv_per_am: %w", s.name, n+2, err)
		}
		maxA, err := parseFloat(row, iMax)
		if err != nil {
			return cable.Family{}, fmt.Errorf("%s row %d: max_current: %w", s.name, n+2, err)
		}
		recs = append(recs, cable.Record{Size: size, MvPerAm: mv, MaxCurrent: maxA})
	}
	return cable.NewFamily(key, recs), nil
}

// parseDiversity reads the first two columns as (houses, factor) whatever their titles.
func parseDiversity(s sheet) (diversity.Table, error) {
	var entries []diversity.Entry
	for n, row := range s.rows {
		if blank(row) {
			continue
		}
		h, err := parseFloat(row, 0)
		if err != nil {
			return diversity.Table{}, fmt.Errorf("%s row %d: houses: %w", s.name, n+2, err)
		}
		if h != math.Trunc(h) {
			return diversity.Table{}, fmt.Errorf("%s row %d: houses: %q is not a whole number", s.name, n+2, row[0])
		}
		f, err := parseFloat(row, 1)
		if err != nil {
			return diversity.Table{}, fmt.Errorf("%s row %d: factor: %w", s.name, n+2, err)
		}
		entries = append(entries, diversity.Entry{Houses: int(h), Factor: f})
	}
	if len(entries) == 0 {
		return diversity.Table{}, fmt.Errorf("%s: no rows", s.name)
	}
	return diversity.NewTable(entries), nil
}

func parseFuses(s sheet) (fuse.Table, error) {
	iMat, err := s.column("material")
	if err != nil {
		return fuse.Table{}, err
	}
	iSize, err := s.column("size (mm2)", "size (mm²)", "size")
	if err != nil {
		return fuse.Table{}, err
	}
	iRating, err := s.column("network fuse size (a)", "fuse", "rating")
	if err != nil {
		return fuse.Table{}, err
	}
	var rules []fuse.Rule
	for n, row := range s.rows {
		if blank(row) {
			continue
		}
		if iMat >= len(row) {
			return fuse.Table{}, fmt.Errorf("%s row %d: material: missing value", s.name, n+2)
		}
		m, ok := cable.ParseMaterial(strings.TrimSpace(row[iMat]))
		if !ok {
			return fuse.Table{}, fmt.Errorf("%s row %d: unknown material %q", s.name, n+2, row[iMat])
		}
		size, err := parseFloat(row, iSize)
		if err != nil {
			return fuse.Table{}, fmt.Errorf("%s row %d: size: %w", s.name, n+2, err)
		}
		rating, err := parseFloat(row, iRating)
		if err != nil {
			return fuse.Table{}, fmt.Errorf("%s row %d: rating: %w", s.name, n+2, err)
		}
		rules = append(rules, fuse.Rule{Material: m, Size: size, Rating: rating})
	}
	sort.SliceStable(rules, func(i, j int) bool {
		if rules[i].Material != rules[j].Material {
			return rules[i].Material < rules[j].Material
		}
		return rules[i].Size < rules[j].Size
	})
	return fuse.NewTable(rules), nil
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// assemble builds Tables from whatever sheets loaded. Missing or broken families become
// empty, a missing diversity table falls back to the default and missing fuses to none.
func assemble(ctx context.Context, log logging.Logger, sheets map[string]sheet, loadErrs map[string]error) Tables {
	var families []cable.Family
	for _, src := range familySources {
		s, ok := sheets[src.name]
		if !ok {
			log.Warn(ctx, "cable family unavailable", logging.String("family", src.key.String()), logging.Err(loadErrs[src.name]))
			continue
		}
		f, err := parseFamily(src.key, s)
		if err != nil {
			log.Warn(ctx, "cable family unavailable", logging.String("family", src.key.String()), logging.Err(err))
			continue
		}
		families = append(families, f)
	}

	div := diversity.Default()
	if s, ok := sheets["diversity"]; ok {
		t, err := parseDiversity(s)
		if err != nil {
			log.Warn(ctx, "diversity table unavailable, using default", logging.Err(err))
		} else {
			div = t
		}
	} else {
		log.Warn(ctx, "diversity table unavailable, using default", logging.Err(loadErrs["diversity"]))
	}
	if err := div.Validate(); err != nil {
		log.Warn(ctx, "diversity table looks inconsistent", logging.Err(err))
	}

	var fuses fuse.Table
	if s, ok := sheets["fuses"]; ok {
		t, err := parseFuses(s)
		if err != nil {
			log.Warn(ctx, "fuse table unavailable", logging.Err(err))
		} else {
			fuses = t
		}
	} else {
		log.Warn(ctx, "fuse table unavailable", logging.Err(loadErrs["fuses"]))
	}

	t := Tables{Cables: cable.NewCatalog(families...), Factors: div, FuseRules: fuses}
	log.Info(ctx, "catalog loaded",
		logging.Int("families", len(families)),
		logging.Int("cables", t.Cables.Len()),
		logging.Int("diversity_rows", div.Len()),
		logging.Int("fuse_rules", fuses.Len()))
	return t
}
