package engine

import (
	"context"
	"fmt"
	"time"

	"Cablecalc/internal/calc/cable"
	"Cablecalc/internal/calc/diversity"
	"Cablecalc/internal/calc/factors"
	"Cablecalc/internal/calc/fuse"
	"Cablecalc/internal/calc/vdrop"
	"Cablecalc/internal/catalog"
	"Cablecalc/internal/logging"
)

type State int

const (
	Stale State = iota
	Fresh
)

func (s State) String() string {
	if s == Fresh {
		return "fresh"
	}
	return "stale"
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *State) UnmarshalText(b []byte) error {
	switch string(b) {
	case "fresh":
		*s = Fresh
	case "stale":
		*s = Stale
	default:
		return fmt.Errorf("unknown state %q", b)
	}
	return nil
}

const (
	Voltage230 = "230V"
	Voltage415 = "415V"
)

var voltageOptions = []string{Voltage230, Voltage415}

func VoltageOptions() []string {
	return append([]string(nil), voltageOptions...)
}

func voltageOf(option string) (float64, bool) {
	switch option {
	case Voltage230:
		return 230, true
	case Voltage415:
		return 415, true
	}
	return 0, false
}

// Defaults mirror a fresh calculator: aluminium 3C+E, three phase, direct buried at 25 °C.
const (
	DefaultTemperatureC = 25.0
	DefaultMethod       = string(factors.MethodD1)
	DefaultMaterial     = cable.Aluminium
	DefaultCores        = cable.ThreeCore
	DefaultVoltage      = Voltage415
)

// Selection is the comparison row of the chosen cable plus its rating annotations.
type Selection struct {
	vdrop.CableResult
	fuse.Rating
}

// Observer receives timing of each completed recompute.
type Observer interface {
	ObserveRecompute(family string, rows int, d time.Duration)
}

type Option func(*Engine)

func WithLogger(l logging.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

func WithObserver(o Observer) Option {
	return func(e *Engine) { e.observer = o }
}

// Engine is the recompute controller. Every setter mutates the active parameters and
// recomputes the whole family before returning. It is not safe for concurrent use.
type Engine struct {
	catalog cable.Catalog
	div     diversity.Table
	fuses   fuse.Table

	log      logging.Logger
	observer Observer

	params          vdrop.Params
	voltageOption   string
	houses          int
	totalKVA        float64
	currentFromLoad bool
	diversityFactor float64

	family   cable.Family
	selected *cable.Record
	rating   fuse.Rating

	table     []vdrop.CableResult
	selection *Selection
	state     State

	listeners map[int]func(Snapshot)
	nextID    int
}

func New(p catalog.Provider, opts ...Option) *Engine {
	e := &Engine{
		catalog:   p.Catalog(),
		div:       p.Diversity(),
		fuses:     p.Fuses(),
		log:       logging.Noop(),
		listeners: make(map[int]func(Snapshot)),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.Reset()
	return e
}

// Reset restores the default parameters and drops all results.
func (e *Engine) Reset() {
	v, _ := voltageOf(DefaultVoltage)
	e.params = vdrop.Params{
		TemperatureC:       DefaultTemperatureC,
		InstallationMethod: DefaultMethod,
		GroupingFactor:     1.0,
		Material:           DefaultMaterial,
		Cores:              DefaultCores,
		SystemVoltage:      v,
	}
	e.voltageOption = DefaultVoltage
	e.houses = 1
	e.totalKVA = 0
	e.currentFromLoad = false
	e.diversityFactor = e.div.Factor(1)
	e.table = nil
	e.selection = nil
	e.swapFamily()
	e.state = Stale
}

func (e *Engine) SetCurrent(amps float64) {
	if amps == e.params.CurrentA && !e.currentFromLoad {
		return
	}
	e.params.CurrentA = amps
	e.currentFromLoad = false
	e.recompute()
}

func (e *Engine) SetLength(metres float64) {
	if metres == e.params.LengthM {
		return
	}
	e.params.LengthM = metres
	e.recompute()
}

func (e *Engine) SetTemperature(celsius float64) {
	if celsius == e.params.TemperatureC {
		return
	}
	e.params.TemperatureC = celsius
	e.recompute()
}

// SetInstallationMethod accepts any name; unknown names compute with a 1.0 base factor.
func (e *Engine) SetInstallationMethod(name string) {
	if name == e.params.InstallationMethod {
		return
	}
	e.params.InstallationMethod = name
	e.recompute()
}

func (e *Engine) SetGroupingFactor(x float64) {
	if x == e.params.GroupingFactor {
		return
	}
	e.params.GroupingFactor = x
	e.recompute()
}

func (e *Engine) SetConductorMaterial(material string) {
	m, ok := cable.ParseMaterial(material)
	if !ok || m == e.params.Material {
		return
	}
	e.params.Material = m
	e.swapFamily()
	e.recompute()
}

func (e *Engine) SetCoreType(coreType string) {
	c, ok := cable.ParseCoreConfig(coreType)
	if !ok || c == e.params.Cores {
		return
	}
	e.params.Cores = c
	e.swapFamily()
	e.recompute()
}

func (e *Engine) SetSelectedVoltage(option string) {
	v, ok := voltageOf(option)
	if !ok || option == e.voltageOption {
		return
	}
	e.voltageOption = option
	e.params.SystemVoltage = v
	if e.currentFromLoad {
		e.params.CurrentA = e.loadCurrent()
	}
	e.recompute()
}

func (e *Engine) SetADMDEnabled(enabled bool) {
	if enabled == e.params.ADMD {
		return
	}
	e.params.ADMD = enabled
	e.recompute()
}

func (e *Engine) SetNumberOfHouses(n int) {
	if n <= 0 || n == e.houses {
		return
	}
	e.houses = n
	e.diversityFactor = e.div.Factor(n)
	if e.currentFromLoad {
		e.params.CurrentA = e.loadCurrent()
	}
	e.recompute()
}

// SetTotalKVA sets the undiversified total load and derives the circuit current from it.
func (e *Engine) SetTotalKVA(kva float64) {
	if kva <= 0 || (kva == e.totalKVA && e.currentFromLoad) {
		return
	}
	e.totalKVA = kva
	e.currentFromLoad = true
	e.params.CurrentA = e.loadCurrent()
	e.recompute()
}

// CalculateTotalLoad sets the house count and per-house load, derives the current and
// returns the diversified load in kVA.
func (e *Engine) CalculateTotalLoad(kvaPerHouse float64, houses int) float64 {
	if houses <= 0 || kvaPerHouse <= 0 {
		return 0
	}
	e.houses = houses
	e.diversityFactor = e.div.Factor(houses)
	e.totalKVA = kvaPerHouse * float64(houses)
	e.currentFromLoad = true
	e.params.CurrentA = e.loadCurrent()
	e.recompute()
	return e.DiversifiedKVA()
}

func (e *Engine) SelectCable(size float64) {
	rec, ok := e.family.Find(size)
	if !ok {
		e.log.Debug(context.Background(), "cable size not in active family",
			logging.Float("size", size), logging.String("family", e.family.Key().String()))
		return
	}
	e.selected = &rec
	e.rating = e.fuses.Resolve(e.selected)
	e.recompute()
}

func (e *Engine) loadCurrent() float64 {
	kvaPerHouse := e.totalKVA / float64(e.houses)
	load := vdrop.DiversifiedLoad(kvaPerHouse, e.houses, e.diversityFactor)
	return vdrop.CurrentFromLoad(load, e.params.SystemVoltage)
}

func (e *Engine) swapFamily() {
	e.family = e.catalog.Family(e.params.Material, e.params.Cores)
	e.selected = nil
	if first, ok := e.family.First(); ok {
		e.selected = &first
	}
	e.rating = e.fuses.Resolve(e.selected)
}

func (e *Engine) recompute() {
	e.state = Stale
	if !e.params.Computable() || e.family.Len() == 0 {
		return
	}
	start := time.Now()

	rows, err := vdrop.Table(e.family.Records(), e.params)
	if err != nil {
		e.log.Warn(context.Background(), "recompute skipped", logging.Err(err))
		return
	}
	e.table = rows
	e.selection = nil
	if e.selected != nil {
		for _, row := range rows {
			if row.Size == e.selected.Size {
				e.selection = &Selection{CableResult: row, Rating: e.rating}
				break
			}
		}
	}
	e.state = Fresh

	if e.observer != nil {
		e.observer.ObserveRecompute(e.family.Key().String(), len(rows), time.Since(start))
	}
	if len(e.listeners) > 0 {
		snap := e.Snapshot()
		for _, id := range e.listenerIDs() {
			e.listeners[id](snap)
		}
	}
}
