package history

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"Cablecalc/internal/auth"
	"Cablecalc/internal/calc/engine"
	"Cablecalc/internal/logging"
	"Cablecalc/internal/repo"
)

const (
	defaultLimit = 50
	maxLimit     = 500
)

var ErrNothingToSave = errors.New("no calculation to save")

// Source resolves the session addressed by a request.
type Source interface {
	SnapshotFor(r *http.Request) (engine.Snapshot, bool)
}

// FromSnapshot turns the selected cable of a snapshot into a history record.
func FromSnapshot(s engine.Snapshot, at time.Time) (repo.Record, error) {
	if s.State != engine.Fresh || s.Selection == nil || s.Selection.DropV == 0 {
		return repo.Record{}, ErrNothingToSave
	}
	houses := s.Houses
	if houses <= 0 {
		houses = 1
	}
	return repo.Record{
		CreatedAt:     at,
		VoltageSystem: s.VoltageOption,
		KVAPerHouse:   s.TotalKVA / float64(houses),
		Houses:        houses,
		Diversity:     s.DiversityFactor,
		TotalKVA:      s.DiversifiedKVA,
		CurrentA:      s.Params.CurrentA,
		CableSize:     s.Selection.Size,
		Material:      string(s.Params.Material),
		Cores:         string(s.Params.Cores),
		LengthM:       s.Params.LengthM,
		DropV:         s.Selection.DropV,
		DropPercent:   s.Selection.DropPercent,
		ADMD:          s.Params.ADMD,
	}, nil
}

type Handler struct {
	Repo     repo.Repository
	Sessions Source
	Log      logging.Logger
	Now      func() time.Time
}

func (h *Handler) logger() logging.Logger {
	if h.Log == nil {
		return logging.Noop()
	}
	return h.Log
}

func (h *Handler) now() time.Time {
	if h.Now == nil {
		return time.Now()
	}
	return h.Now()
}

func (h *Handler) Save(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	snap, ok := h.Sessions.SnapshotFor(r)
	if !ok {
		http.Error(w, "Session not found", http.StatusNotFound)
		return
	}
	rec, err := FromSnapshot(snap, h.now())
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	id, err := h.Repo.SaveCalculation(r.Context(), userID, rec)
	if err != nil {
		h.logger().Error(r.Context(), "save calculation", logging.Int("user_id", userID), logging.Err(err))
		http.Error(w, "Database error", http.StatusInternalServerError)
		return
	}
	rec.ID = id
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(rec)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	limit := defaultLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			http.Error(w, "Invalid limit", http.StatusBadRequest)
			return
		}
		limit = min(n, maxLimit)
	}
	recs, err := h.Repo.ListCalculations(r.Context(), userID, limit)
	if err != nil {
		h.logger().Error(r.Context(), "list calculations", logging.Int("user_id", userID), logging.Err(err))
		http.Error(w, "Database error", http.StatusInternalServerError)
		return
	}
	if recs == nil {
		recs = []repo.Record{}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(recs)
}
