package cable

import "sort"

type Material string

const (
	Copper    Material = "Cu"
	Aluminium Material = "Al"
)

type CoreConfig string

const (
	SingleCore CoreConfig = "1C+E"
	ThreeCore  CoreConfig = "3C+E"
)

var (
	Materials   = []Material{Copper, Aluminium}
	CoreConfigs = []CoreConfig{SingleCore, ThreeCore}
)

func ParseMaterial(s string) (Material, bool) {
	for _, m := range Materials {
		if string(m) == s {
			return m, true
		}
	}
	return "", false
}

func ParseCoreConfig(s string) (CoreConfig, bool) {
	for _, c := range CoreConfigs {
		if string(c) == s {
			return c, true
		}
	}
	return "", false
}

// Record is one catalog entry. Identity is (Material, Cores, Size).
type Record struct {
	Size       float64    `json:"size"`
	Material   Material   `json:"material"`
	Cores      CoreConfig `json:"core_configuration"`
	MvPerAm    float64    `json:"mv_per_am"`
	MaxCurrent float64    `json:"max_current"`
}

type FamilyKey struct {
	Material Material
	Cores    CoreConfig
}

func (k FamilyKey) String() string {
	return string(k.Material) + " " + string(k.Cores)
}

// Family is an immutable, size-ordered list of records sharing material and core configuration.
type Family struct {
	key     FamilyKey
	records []Record
}

func NewFamily(key FamilyKey, records []Record) Family {
	rs := make([]Record, 0, len(records))
	for _, r := range records {
		r.Material = key.Material
		r.Cores = key.Cores
		rs = append(rs, r)
	}
	sort.SliceStable(rs, func(i, j int) bool { return rs[i].Size < rs[j].Size })
	return Family{key: key, records: rs}
}

func (f Family) Key() FamilyKey { return f.key }

func (f Family) Len() int { return len(f.records) }

func (f Family) Records() []Record {
	out := make([]Record, len(f.records))
	copy(out, f.records)
	return out
}

func (f Family) Sizes() []float64 {
	out := make([]float64, 0, len(f.records))
	for _, r := range f.records {
		out = append(out, r.Size)
	}
	return out
}

func (f Family) First() (Record, bool) {
	if len(f.records) == 0 {
		return Record{}, false
	}
	return f.records[0], true
}

func (f Family) Find(size float64) (Record, bool) {
	for _, r := range f.records {
		if r.Size == size {
			return r, true
		}
	}
	return Record{}, false
}

// Catalog holds the four families. A missing family behaves as empty.
type Catalog struct {
	families map[FamilyKey]Family
}

func NewCatalog(families ...Family) Catalog {
	c := Catalog{families: make(map[FamilyKey]Family, len(families))}
	for _, f := range families {
		c.families[f.key] = f
	}
	return c
}

func (c Catalog) Family(m Material, cores CoreConfig) Family {
	key := FamilyKey{Material: m, Cores: cores}
	if f, ok := c.families[key]; ok {
		return f
	}
	return Family{key: key}
}

func (c Catalog) Len() int {
	n := 0
	for _, f := range c.families {
		n += f.Len()
	}
	return n
}
