package engine

import (
	"fmt"

	"Cablecalc/internal/catalog"
)

// Input is a complete parameter set for a one-shot calculation. Zero values take the
// engine defaults. When TotalKVA or KVAPerHouse is set the current is derived from load.
type Input struct {
	CurrentA           float64  `json:"current_a"`
	LengthM            float64  `json:"length_m"`
	TemperatureC       *float64 `json:"temperature_c"`
	InstallationMethod string   `json:"installation_method"`
	GroupingFactor     *float64 `json:"grouping_factor"`
	Material           string   `json:"material"`
	Cores              string   `json:"core_configuration"`
	Voltage            string   `json:"voltage"`
	ADMD               bool     `json:"admd_enabled"`
	Houses             int      `json:"number_of_houses"`
	TotalKVA           float64  `json:"total_kva"`
	KVAPerHouse        float64  `json:"kva_per_house"`
	CableSize          float64  `json:"cable_size"`
}

// Apply replays the input onto e through the public setters. Family selectors go first
// so that the cable size is looked up in the right family, and the voltage precedes
// the load so that the derived current uses it.
func (in Input) Apply(e *Engine) {
	if in.Material != "" {
		e.SetConductorMaterial(in.Material)
	}
	if in.Cores != "" {
		e.SetCoreType(in.Cores)
	}
	if in.Voltage != "" {
		e.SetSelectedVoltage(in.Voltage)
	}
	if in.TemperatureC != nil {
		e.SetTemperature(*in.TemperatureC)
	}
	if in.InstallationMethod != "" {
		e.SetInstallationMethod(in.InstallationMethod)
	}
	if in.GroupingFactor != nil {
		e.SetGroupingFactor(*in.GroupingFactor)
	}
	e.SetADMDEnabled(in.ADMD)
	switch {
	case in.KVAPerHouse > 0:
		houses := in.Houses
		if houses <= 0 {
			houses = 1
		}
		e.CalculateTotalLoad(in.KVAPerHouse, houses)
	case in.TotalKVA > 0:
		if in.Houses > 0 {
			e.SetNumberOfHouses(in.Houses)
		}
		e.SetTotalKVA(in.TotalKVA)
	default:
		if in.Houses > 0 {
			e.SetNumberOfHouses(in.Houses)
		}
		e.SetCurrent(in.CurrentA)
	}
	e.SetLength(in.LengthM)
	if in.CableSize > 0 {
		e.SelectCable(in.CableSize)
	}
}

// Calculate runs one parameter set on a throwaway engine.
func Calculate(p catalog.Provider, in Input) (Snapshot, error) {
	if in.LengthM <= 0 || (in.CurrentA <= 0 && in.TotalKVA <= 0 && in.KVAPerHouse <= 0) {
		return Snapshot{}, fmt.Errorf("invalid input")
	}
	e := New(p)
	in.Apply(e)
	if len(e.AvailableCables()) == 0 {
		return Snapshot{}, fmt.Errorf("no cables for %s %s", e.Params().Material, e.Params().Cores)
	}
	if in.CableSize > 0 {
		if _, ok := e.family.Find(in.CableSize); !ok {
			return Snapshot{}, fmt.Errorf("cable size %g not in catalog", in.CableSize)
		}
	}
	if e.State() != Fresh {
		return Snapshot{}, fmt.Errorf("invalid input")
	}
	return e.Snapshot(), nil
}

type BatchInput struct {
	Items []Input `json:"items"`
}

type BatchResult struct {
	Results []Snapshot `json:"results"`
}

func CalculateBatch(p catalog.Provider, in BatchInput) (BatchResult, error) {
	if len(in.Items) == 0 {
		return BatchResult{}, fmt.Errorf("no items")
	}
	out := BatchResult{Results: make([]Snapshot, 0, len(in.Items))}
	for i, item := range in.Items {
		res, err := Calculate(p, item)
		if err != nil {
			return BatchResult{}, fmt.Errorf("item %d: %w", i, err)
		}
		out.Results = append(out.Results, res)
	}
	return out, nil
}
