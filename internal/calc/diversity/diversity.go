package diversity

import (
	"fmt"
	"sort"
)

type Entry struct {
	Houses int     `json:"houses"`
	Factor float64 `json:"factor"`
}

// Table maps a house count to a diversity factor. Entries are kept sorted by Houses.
type Table struct {
	entries []Entry
}

func NewTable(entries []Entry) Table {
	es := make([]Entry, len(entries))
	copy(es, entries)
	sort.SliceStable(es, func(i, j int) bool { return es[i].Houses < es[j].Houses })
	return Table{entries: es}
}

// Default is used when no table could be provisioned.
func Default() Table {
	return NewTable([]Entry{{Houses: 1, Factor: 1.0}})
}

func (t Table) Entries() []Entry {
	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out
}

func (t Table) Len() int { return len(t.entries) }

// Factor returns the exact tabulated factor, the boundary factor outside the table
// range, or a linear interpolation between the bracketing entries. An empty table gives 1.0.
func (t Table) Factor(houses int) float64 {
	es := t.entries
	if len(es) == 0 {
		return 1.0
	}
	i := sort.Search(len(es), func(i int) bool { return es[i].Houses >= houses })
	if i < len(es) && es[i].Houses == houses {
		return es[i].Factor
	}
	if i == 0 {
		return es[0].Factor
	}
	if i == len(es) {
		return es[len(es)-1].Factor
	}
	lo, hi := es[i-1], es[i]
	return lo.Factor + (hi.Factor-lo.Factor)*float64(houses-lo.Houses)/float64(hi.Houses-lo.Houses)
}

// Validate reports tables that break the domain assumptions: duplicate house counts,
// factors outside (0,1], or factors that grow with the house count.
func (t Table) Validate() error {
	for i, e := range t.entries {
		if e.Houses < 1 {
			return fmt.Errorf("diversity: house count %d must be positive", e.Houses)
		}
		if e.Factor <= 0 || e.Factor > 1 {
			return fmt.Errorf("diversity: factor %.3f for %d houses outside (0,1]", e.Factor, e.Houses)
		}
		if i == 0 {
			continue
		}
		prev := t.entries[i-1]
		if prev.Houses == e.Houses {
			return fmt.Errorf("diversity: duplicate entry for %d houses", e.Houses)
		}
		if e.Factor > prev.Factor {
			return fmt.Errorf("diversity: factor increases from %.3f to %.3f between %d and %d houses",
				prev.Factor, e.Factor, prev.Houses, e.Houses)
		}
	}
	return nil
}
