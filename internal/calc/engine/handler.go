package engine

import (
	"encoding/json"
	"net/http"

	"Cablecalc/internal/calc/cable"
	"Cablecalc/internal/calc/factors"
	"Cablecalc/internal/catalog"
)

type Handler struct {
	Tables catalog.Provider
}

func (h *Handler) Calc(w http.ResponseWriter, r *http.Request) {
	var input Input
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	res, err := Calculate(h.Tables, input)
	if err != nil {
		http.Error(w, "Calculation error: "+err.Error(), http.StatusBadRequest)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(res)
}

func (h *Handler) Batch(w http.ResponseWriter, r *http.Request) {
	var input BatchInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	res, err := CalculateBatch(h.Tables, input)
	if err != nil {
		http.Error(w, "Calculation error: "+err.Error(), http.StatusBadRequest)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(res)
}

type Options struct {
	InstallationMethods []string           `json:"installation_methods"`
	Voltages            []string           `json:"voltages"`
	Materials           []cable.Material   `json:"materials"`
	CoreConfigurations  []cable.CoreConfig `json:"core_configurations"`
}

func (h *Handler) Options(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(Options{
		InstallationMethods: factors.Methods(),
		Voltages:            VoltageOptions(),
		Materials:           cable.Materials,
		CoreConfigurations:  cable.CoreConfigs,
	})
}
