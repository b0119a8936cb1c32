package session

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gorilla/mux"

	"Cablecalc/internal/auth"
	"Cablecalc/internal/calc/engine"
)

// Patch carries any subset of the engine setters. Present fields are applied in a fixed
// order: family selectors, voltage, conditions, load, current, length, selection.
type Patch struct {
	Material           *string  `json:"material"`
	Cores              *string  `json:"core_configuration"`
	Voltage            *string  `json:"voltage"`
	TemperatureC       *float64 `json:"temperature_c"`
	InstallationMethod *string  `json:"installation_method"`
	GroupingFactor     *float64 `json:"grouping_factor"`
	ADMD               *bool    `json:"admd_enabled"`
	Houses             *int     `json:"number_of_houses"`
	TotalKVA           *float64 `json:"total_kva"`
	CurrentA           *float64 `json:"current_a"`
	LengthM            *float64 `json:"length_m"`
	CableSize          *float64 `json:"cable_size"`
}

func (p Patch) Apply(e *engine.Engine) {
	if p.Material != nil {
		e.SetConductorMaterial(*p.Material)
	}
	if p.Cores != nil {
		e.SetCoreType(*p.Cores)
	}
	if p.Voltage != nil {
		e.SetSelectedVoltage(*p.Voltage)
	}
	if p.TemperatureC != nil {
		e.SetTemperature(*p.TemperatureC)
	}
	if p.InstallationMethod != nil {
		e.SetInstallationMethod(*p.InstallationMethod)
	}
	if p.GroupingFactor != nil {
		e.SetGroupingFactor(*p.GroupingFactor)
	}
	if p.ADMD != nil {
		e.SetADMDEnabled(*p.ADMD)
	}
	if p.Houses != nil {
		e.SetNumberOfHouses(*p.Houses)
	}
	if p.TotalKVA != nil {
		e.SetTotalKVA(*p.TotalKVA)
	}
	if p.CurrentA != nil {
		e.SetCurrent(*p.CurrentA)
	}
	if p.LengthM != nil {
		e.SetLength(*p.LengthM)
	}
	if p.CableSize != nil {
		e.SelectCable(*p.CableSize)
	}
}

type SelectRequest struct {
	CableSize float64 `json:"cable_size"`
}

type LoadRequest struct {
	KVAPerHouse float64 `json:"kva_per_house"`
	Houses      int     `json:"number_of_houses"`
}

type Response struct {
	ID string `json:"id"`
	engine.Snapshot
}

type Handler struct {
	Store *Store
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// decodeOptional decodes a JSON body; an empty body leaves v untouched.
func decodeOptional(r *http.Request, v any) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func (h *Handler) session(w http.ResponseWriter, r *http.Request) (*Session, bool) {
	owner, _ := auth.UserID(r.Context())
	sess, err := h.Store.Get(r.Context(), mux.Vars(r)["id"], owner)
	if err != nil {
		http.Error(w, "Session not found", http.StatusNotFound)
		return nil, false
	}
	return sess, true
}

// SnapshotFor resolves the {id} route variable to the caller's session snapshot.
func (h *Handler) SnapshotFor(r *http.Request) (engine.Snapshot, bool) {
	owner, _ := auth.UserID(r.Context())
	sess, err := h.Store.Get(r.Context(), mux.Vars(r)["id"], owner)
	if err != nil {
		return engine.Snapshot{}, false
	}
	return sess.Do(nil), true
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var patch Patch
	if err := decodeOptional(r, &patch); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	owner, _ := auth.UserID(r.Context())
	sess := h.Store.Create(r.Context(), owner)
	snap := sess.Do(patch.Apply)
	writeJSON(w, http.StatusCreated, Response{ID: sess.ID, Snapshot: snap})
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, Response{ID: sess.ID, Snapshot: sess.Do(nil)})
}

func (h *Handler) Patch(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	var patch Patch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, Response{ID: sess.ID, Snapshot: sess.Do(patch.Apply)})
}

func (h *Handler) Select(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	var req SelectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	found := false
	snap := sess.Do(func(e *engine.Engine) {
		for _, size := range e.AvailableCables() {
			if size == req.CableSize {
				found = true
				break
			}
		}
		e.SelectCable(req.CableSize)
	})
	if !found {
		http.Error(w, "Cable size not in active family", http.StatusUnprocessableEntity)
		return
	}
	writeJSON(w, http.StatusOK, Response{ID: sess.ID, Snapshot: snap})
}

func (h *Handler) Load(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	var req LoadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	if req.KVAPerHouse <= 0 || req.Houses <= 0 {
		http.Error(w, "kva_per_house and number_of_houses must be positive", http.StatusBadRequest)
		return
	}
	snap := sess.Do(func(e *engine.Engine) {
		e.CalculateTotalLoad(req.KVAPerHouse, req.Houses)
	})
	writeJSON(w, http.StatusOK, Response{ID: sess.ID, Snapshot: snap})
}

func (h *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	snap := sess.Do(func(e *engine.Engine) { e.Reset() })
	writeJSON(w, http.StatusOK, Response{ID: sess.ID, Snapshot: snap})
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	owner, _ := auth.UserID(r.Context())
	if err := h.Store.Delete(r.Context(), mux.Vars(r)["id"], owner); err != nil {
		http.Error(w, "Session not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Routes registers the session endpoints on an authenticated router.
func (h *Handler) Routes(r *mux.Router) {
	r.HandleFunc("/sessions", h.Create).Methods("POST")
	r.HandleFunc("/sessions/{id}", h.Get).Methods("GET")
	r.HandleFunc("/sessions/{id}", h.Patch).Methods("PATCH")
	r.HandleFunc("/sessions/{id}", h.Delete).Methods("DELETE")
	r.HandleFunc("/sessions/{id}/select", h.Select).Methods("POST")
	r.HandleFunc("/sessions/{id}/load", h.Load).Methods("POST")
	r.HandleFunc("/sessions/{id}/reset", h.Reset).Methods("POST")
}
