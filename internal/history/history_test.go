package history

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Cablecalc/internal/auth"
	"Cablecalc/internal/calc/cable"
	"Cablecalc/internal/calc/engine"
	"Cablecalc/internal/calc/fuse"
	"Cablecalc/internal/calc/vdrop"
	"Cablecalc/internal/catalog"
	"Cablecalc/internal/repo"
)

type fixedSource struct {
	snap engine.Snapshot
	ok   bool
}

func (f fixedSource) SnapshotFor(*http.Request) (engine.Snapshot, bool) { return f.snap, f.ok }

type failingRepo struct{ repo.Repository }

func (failingRepo) SaveCalculation(context.Context, int, repo.Record) (int, error) {
	return 0, errors.New("connection refused")
}

func loadedSnapshot() engine.Snapshot {
	return engine.Snapshot{
		State:           engine.Fresh,
		VoltageOption:   "415V",
		Houses:          20,
		TotalKVA:        100,
		DiversifiedKVA:  35,
		DiversityFactor: 0.35,
		Params: vdrop.Params{
			CurrentA: 48.69, LengthM: 250, Material: cable.Aluminium, Cores: cable.ThreeCore,
			SystemVoltage: 415,
		},
		Selection: &engine.Selection{
			CableResult: vdrop.CableResult{Size: 95, DropV: 4.2, DropPercent: 1.01, Status: vdrop.StatusOK},
			Rating:      fuse.Rating{FuseSize: "200 A", ConductorRating: 185, Combined: "200 A / 185 A"},
		},
	}
}

func TestFromSnapshot(t *testing.T) {
	at := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	rec, err := FromSnapshot(loadedSnapshot(), at)
	require.NoError(t, err)
	assert.Equal(t, 5.0, rec.KVAPerHouse)
	assert.Equal(t, 35.0, rec.TotalKVA)
	assert.Equal(t, 95.0, rec.CableSize)
	assert.Equal(t, "Al", rec.Material)
	assert.Equal(t, "3C+E", rec.Cores)
	assert.Equal(t, at, rec.CreatedAt)

	_, err = FromSnapshot(engine.Snapshot{}, at)
	assert.ErrorIs(t, err, ErrNothingToSave)

	zero := loadedSnapshot()
	zero.Selection.DropV = 0
	_, err = FromSnapshot(zero, at)
	assert.ErrorIs(t, err, ErrNothingToSave)
}

func TestFromSnapshotRejectsStaleResults(t *testing.T) {
	fam := func(m cable.Material, recs ...cable.Record) cable.Family {
		return cable.NewFamily(cable.FamilyKey{Material: m, Cores: cable.ThreeCore}, recs)
	}
	e := engine.New(catalog.Tables{Cables: cable.NewCatalog(
		fam(cable.Copper, cable.Record{Size: 16, MvPerAm: 2.55, MaxCurrent: 79}),
		fam(cable.Aluminium, cable.Record{Size: 95, MvPerAm: 0.71, MaxCurrent: 185}),
	)})
	e.SetConductorMaterial("Cu")
	e.SetCurrent(50)
	e.SetLength(100)
	require.Equal(t, engine.Fresh, e.State())

	e.SetCurrent(0)
	e.SetConductorMaterial("Al")
	snap := e.Snapshot()
	require.Equal(t, engine.Stale, snap.State)
	require.NotNil(t, snap.Selection, "idle engine keeps the last results")

	_, err := FromSnapshot(snap, time.Now())
	assert.ErrorIs(t, err, ErrNothingToSave)
}

func withUser(r *http.Request, id int) *http.Request {
	return r.WithContext(auth.WithUserID(r.Context(), id))
}

func TestSaveAndList(t *testing.T) {
	store := repo.NewMemory()
	h := &Handler{Repo: store, Sessions: fixedSource{snap: loadedSnapshot(), ok: true}}

	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		h.Save(rec, withUser(httptest.NewRequest(http.MethodPost, "/api/sessions/x/history", nil), 3))
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := httptest.NewRecorder()
	h.List(rec, withUser(httptest.NewRequest(http.MethodGet, "/api/history?limit=2", nil), 3))
	require.Equal(t, http.StatusOK, rec.Code)
	var got []repo.Record
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.Len(t, got, 2)

	rec = httptest.NewRecorder()
	h.List(rec, withUser(httptest.NewRequest(http.MethodGet, "/api/history", nil), 4))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())

	rec = httptest.NewRecorder()
	h.List(rec, withUser(httptest.NewRequest(http.MethodGet, "/api/history?limit=zero", nil), 3))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSaveRejections(t *testing.T) {
	tests := []struct {
		name string
		h    *Handler
		user bool
		want int
	}{
		{"anonymous", &Handler{Repo: repo.NewMemory(), Sessions: fixedSource{snap: loadedSnapshot(), ok: true}}, false, http.StatusUnauthorized},
		{"missing session", &Handler{Repo: repo.NewMemory(), Sessions: fixedSource{}}, true, http.StatusNotFound},
		{"nothing computed", &Handler{Repo: repo.NewMemory(), Sessions: fixedSource{ok: true}}, true, http.StatusUnprocessableEntity},
		{"db down", &Handler{Repo: failingRepo{}, Sessions: fixedSource{snap: loadedSnapshot(), ok: true}}, true, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/sessions/x/history", nil)
			if tt.user {
				req = withUser(req, 1)
			}
			rec := httptest.NewRecorder()
			tt.h.Save(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}
