package vdrop

import (
	"fmt"
	"math"

	"Cablecalc/internal/calc/cable"
	"Cablecalc/internal/calc/factors"
)

type Status string

const (
	StatusOK      Status = "OK"
	StatusSubmain Status = "SUBMAIN"
	StatusWarning Status = "WARNING"
	StatusSevere  Status = "SEVERE"
)

// Classify bands a drop percentage. Each band includes its upper bound.
func Classify(dropPercent float64) Status {
	switch {
	case dropPercent > 7.0:
		return StatusSevere
	case dropPercent > 5.0:
		return StatusWarning
	case dropPercent > 2.0:
		return StatusSubmain
	default:
		return StatusOK
	}
}

type Params struct {
	CurrentA           float64          `json:"current_a"`
	LengthM            float64          `json:"length_m"`
	TemperatureC       float64          `json:"temperature_c"`
	InstallationMethod string           `json:"installation_method"`
	GroupingFactor     float64          `json:"grouping_factor"`
	Material           cable.Material   `json:"material"`
	Cores              cable.CoreConfig `json:"core_configuration"`
	SystemVoltage      float64          `json:"system_voltage"`
	ADMD               bool             `json:"admd_enabled"`
}

// Computable reports whether current and length are both positive.
func (p Params) Computable() bool {
	return p.CurrentA > 0 && p.LengthM > 0
}

type Factors struct {
	Temperature  float64 `json:"temperature"`
	Installation float64 `json:"installation"`
	Grouping     float64 `json:"grouping"`
	ADMD         float64 `json:"admd"`
}

func (f Factors) Product() float64 {
	return f.Temperature * f.Installation * f.Grouping * f.ADMD
}

func FactorsFor(p Params) Factors {
	return Factors{
		Temperature:  factors.Temperature(p.TemperatureC),
		Installation: factors.Installation(p.InstallationMethod, p.Material, p.Cores),
		Grouping:     p.GroupingFactor,
		ADMD:         factors.ADMD(p.ADMD, p.SystemVoltage),
	}
}

type CableResult struct {
	Size        float64          `json:"size"`
	Material    cable.Material   `json:"material"`
	Cores       cable.CoreConfig `json:"core_configuration"`
	MvPerAm     float64          `json:"mv_per_am"`
	MaxCurrent  float64          `json:"max_current"`
	DropV       float64          `json:"voltage_drop_v"`
	DropPercent float64          `json:"drop_percent"`
	Status      Status           `json:"status"`
}

// DropVolts applies the mV/A/m formula for one cable coefficient.
func DropVolts(p Params, mvPerAm float64, f Factors) float64 {
	return p.CurrentA * p.LengthM * mvPerAm * f.Product() / 1000.0
}

func Percent(dropV, systemVoltage float64) float64 {
	return dropV / systemVoltage * 100
}

func Evaluate(rec cable.Record, p Params) CableResult {
	return evaluate(rec, p, FactorsFor(p))
}

func evaluate(rec cable.Record, p Params, f Factors) CableResult {
	v := DropVolts(p, rec.MvPerAm, f)
	pct := Percent(v, p.SystemVoltage)
	return CableResult{
		Size:        rec.Size,
		Material:    p.Material,
		Cores:       p.Cores,
		MvPerAm:     rec.MvPerAm,
		MaxCurrent:  rec.MaxCurrent,
		DropV:       v,
		DropPercent: pct,
		Status:      Classify(pct),
	}
}

// Table evaluates every record with one shared set of factors.
func Table(records []cable.Record, p Params) ([]CableResult, error) {
	if !p.Computable() {
		return nil, fmt.Errorf("current and length must be positive")
	}
	f := FactorsFor(p)
	out := make([]CableResult, 0, len(records))
	for _, rec := range records {
		out = append(out, evaluate(rec, p, f))
	}
	return out, nil
}

// DiversifiedLoad returns kvaPerHouse × houses × diversity.
func DiversifiedLoad(kvaPerHouse float64, houses int, diversity float64) float64 {
	return kvaPerHouse * float64(houses) * diversity
}

// CurrentFromLoad converts kVA to line current: single phase at 230 V, three phase above.
func CurrentFromLoad(kva, systemVoltage float64) float64 {
	if systemVoltage <= 0 {
		return 0
	}
	if systemVoltage <= factors.SinglePhaseV {
		return kva * 1000 / systemVoltage
	}
	return kva * 1000 / (systemVoltage * math.Sqrt(3))
}
