package engine

import (
	"sort"

	"Cablecalc/internal/calc/cable"
	"Cablecalc/internal/calc/factors"
	"Cablecalc/internal/calc/fuse"
	"Cablecalc/internal/calc/vdrop"
)

// Snapshot is an immutable copy of the engine's parameters and latest results.
type Snapshot struct {
	State           State               `json:"state"`
	Params          vdrop.Params        `json:"params"`
	VoltageOption   string              `json:"voltage_option"`
	Houses          int                 `json:"number_of_houses"`
	TotalKVA        float64             `json:"total_kva"`
	DiversifiedKVA  float64             `json:"diversified_kva"`
	DiversityFactor float64             `json:"diversity_factor"`
	Factors         vdrop.Factors       `json:"factors"`
	AvailableCables []float64           `json:"available_cables"`
	SelectedSize    *float64            `json:"selected_size,omitempty"`
	Rating          fuse.Rating         `json:"rating"`
	Selection       *Selection          `json:"selection,omitempty"`
	Table           []vdrop.CableResult `json:"table"`
}

func (e *Engine) Snapshot() Snapshot {
	s := Snapshot{
		State:           e.state,
		Params:          e.params,
		VoltageOption:   e.voltageOption,
		Houses:          e.houses,
		TotalKVA:        e.totalKVA,
		DiversifiedKVA:  e.DiversifiedKVA(),
		DiversityFactor: e.diversityFactor,
		Factors:         vdrop.FactorsFor(e.params),
		AvailableCables: e.AvailableCables(),
		Rating:          e.rating,
		Table:           e.Table(),
	}
	if e.selected != nil {
		size := e.selected.Size
		s.SelectedSize = &size
	}
	if sel, ok := e.Selection(); ok {
		s.Selection = &sel
	}
	return s
}

// Subscribe registers fn to run after every completed recompute. The returned func removes it.
func (e *Engine) Subscribe(fn func(Snapshot)) func() {
	id := e.nextID
	e.nextID++
	e.listeners[id] = fn
	return func() { delete(e.listeners, id) }
}

func (e *Engine) listenerIDs() []int {
	ids := make([]int, 0, len(e.listeners))
	for id := range e.listeners {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

func (e *Engine) State() State { return e.state }

func (e *Engine) Params() vdrop.Params { return e.params }

func (e *Engine) Table() []vdrop.CableResult {
	if e.table == nil {
		return nil
	}
	out := make([]vdrop.CableResult, len(e.table))
	copy(out, e.table)
	return out
}

func (e *Engine) Selection() (Selection, bool) {
	if e.selection == nil {
		return Selection{}, false
	}
	return *e.selection, true
}

func (e *Engine) VoltageDrop() float64 {
	if e.selection == nil {
		return 0
	}
	return e.selection.DropV
}

func (e *Engine) DropPercent() float64 {
	if e.selection == nil {
		return 0
	}
	return e.selection.DropPercent
}

func (e *Engine) SelectedCable() (cable.Record, bool) {
	if e.selected == nil {
		return cable.Record{}, false
	}
	return *e.selected, true
}

func (e *Engine) AvailableCables() []float64 { return e.family.Sizes() }

func (e *Engine) InstallationMethods() []string { return factors.Methods() }

func (e *Engine) DiversityFactor() float64 { return e.diversityFactor }

func (e *Engine) DiversifiedKVA() float64 {
	if e.houses <= 0 {
		return 0
	}
	return vdrop.DiversifiedLoad(e.totalKVA/float64(e.houses), e.houses, e.diversityFactor)
}

func (e *Engine) NumberOfHouses() int { return e.houses }

func (e *Engine) TotalKVA() float64 { return e.totalKVA }

func (e *Engine) SelectedVoltage() string { return e.voltageOption }

func (e *Engine) ADMDEnabled() bool { return e.params.ADMD }

func (e *Engine) FuseSize() string { return e.rating.FuseSize }

func (e *Engine) ConductorRating() float64 { return e.rating.ConductorRating }

func (e *Engine) CombinedRatingInfo() string { return e.rating.Combined }
