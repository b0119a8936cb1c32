package factors

import "Cablecalc/internal/calc/cable"

const (
	ReferenceTempC   = 75.0
	TempCoefficient  = 0.004
	AluminiumPenalty = 1.6
	ThreeCorePenalty = 1.05
	ADMDFactor       = 1.5
	SinglePhaseV     = 230.0
)

type Method string

const (
	MethodA1 Method = "A1 - Enclosed in thermal insulation"
	MethodA2 Method = "A2 - Enclosed in wall/ceiling"
	MethodB1 Method = "B1 - Enclosed in conduit in wall"
	MethodB2 Method = "B2 - Enclosed in trunking/conduit"
	MethodC  Method = "C - Clipped direct"
	MethodD1 Method = "D1 - Underground direct buried"
	MethodD2 Method = "D2 - Underground in conduit"
	MethodE  Method = "E - Free air"
	MethodF  Method = "F - Cable tray/ladder/cleated"
	MethodG  Method = "G - Spaced from surface"
)

var methods = []Method{MethodA1, MethodA2, MethodB1, MethodB2, MethodC, MethodD1, MethodD2, MethodE, MethodF, MethodG}

// Methods returns the installation method names in display order.
func Methods() []string {
	out := make([]string, 0, len(methods))
	for _, m := range methods {
		out = append(out, string(m))
	}
	return out
}

// Temperature returns 1 + 0.004*(t-75). Values below the reference give a factor < 1.
func Temperature(celsius float64) float64 {
	return 1 + TempCoefficient*(celsius-ReferenceTempC)
}

// BaseInstallation is the table factor of a method; unknown names fall back to 1.0.
func BaseInstallation(method string) float64 {
	switch Method(method) {
	case MethodA1:
		return 1.25
	case MethodA2, MethodD2:
		return 1.15
	case MethodB1, MethodB2, MethodD1:
		return 1.1
	case MethodE, MethodF:
		return 0.95
	case MethodG:
		return 0.90
	default:
		return 1.0
	}
}

func Installation(method string, m cable.Material, cores cable.CoreConfig) float64 {
	f := BaseInstallation(method)
	if m == cable.Aluminium {
		f *= AluminiumPenalty
	}
	if cores == cable.ThreeCore {
		f *= ThreeCorePenalty
	}
	return f
}

// ADMD is 1.5 only for an enabled ADMD on a system above 230 V.
func ADMD(enabled bool, systemVoltage float64) float64 {
	if enabled && systemVoltage > SinglePhaseV {
		return ADMDFactor
	}
	return 1.0
}
