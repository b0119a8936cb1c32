package engine

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"Cablecalc/internal/calc/vdrop"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(v float64) *float64 { return &v }

func referenceInput() Input {
	return Input{
		CurrentA:           10,
		LengthM:            100,
		TemperatureC:       ptr(75),
		InstallationMethod: "C - Clipped direct",
		Material:           "Cu",
		Cores:              "1C+E",
		Voltage:            "230V",
		CableSize:          50,
	}
}

func TestCalculate(t *testing.T) {
	snap, err := Calculate(testTables(), referenceInput())
	require.NoError(t, err)
	require.NotNil(t, snap.Selection)
	assert.InDelta(t, 0.7, snap.Selection.DropV, 1e-12)
	assert.Equal(t, vdrop.StatusOK, snap.Selection.Status)
	assert.Len(t, snap.Table, 3)
	assert.Equal(t, Fresh, snap.State)

	t.Run("grouping factor scales the drop", func(t *testing.T) {
		in := referenceInput()
		in.GroupingFactor = ptr(0.5)
		half, err := Calculate(testTables(), in)
		require.NoError(t, err)
		assert.InDelta(t, 0.35, half.Selection.DropV, 1e-12)
	})

	t.Run("load driven", func(t *testing.T) {
		in := referenceInput()
		in.CurrentA = 0
		in.KVAPerHouse = 5
		in.Houses = 3
		snap, err := Calculate(testTables(), in)
		require.NoError(t, err)
		assert.InDelta(t, 10.125*1000/230, snap.Params.CurrentA, 1e-9)
		assert.InDelta(t, 10.125, snap.DiversifiedKVA, 1e-9)
	})
}

func TestCalculateRejects(t *testing.T) {
	in := referenceInput()
	in.LengthM = 0
	_, err := Calculate(testTables(), in)
	assert.Error(t, err)

	in = referenceInput()
	in.CurrentA = 0
	_, err = Calculate(testTables(), in)
	assert.Error(t, err)

	in = referenceInput()
	in.CableSize = 70
	_, err = Calculate(testTables(), in)
	assert.Error(t, err)

	in = referenceInput()
	in.Material = "Al"
	in.CableSize = 0
	_, err = Calculate(testTables(), in)
	assert.Error(t, err, "Al 1C+E has no cables")
}

func TestCalculateBatch(t *testing.T) {
	a := referenceInput()
	b := referenceInput()
	b.LengthM = 200

	res, err := CalculateBatch(testTables(), BatchInput{Items: []Input{a, b}})
	require.NoError(t, err)
	require.Len(t, res.Results, 2)
	assert.InDelta(t, 2*res.Results[0].Selection.DropV, res.Results[1].Selection.DropV, 1e-12)

	_, err = CalculateBatch(testTables(), BatchInput{})
	assert.Error(t, err)

	b.LengthM = 0
	_, err = CalculateBatch(testTables(), BatchInput{Items: []Input{a, b}})
	assert.ErrorContains(t, err, "item 1")
}

func TestHandlerCalc(t *testing.T) {
	h := &Handler{Tables: testTables()}

	body, err := json.Marshal(referenceInput())
	require.NoError(t, err)
	rec := httptest.NewRecorder()
	h.Calc(rec, httptest.NewRequest(http.MethodPost, "/api/tools/vdrop/calc", bytes.NewReader(body)))

	require.Equal(t, http.StatusOK, rec.Code)
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, "fresh", out["state"])
	sel := out["selection"].(map[string]any)
	assert.Equal(t, "OK", sel["status"])
	assert.Equal(t, "160 A / 171 A", sel["combined_rating_info"])

	rec = httptest.NewRecorder()
	h.Calc(rec, httptest.NewRequest(http.MethodPost, "/api/tools/vdrop/calc", strings.NewReader("{")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	h.Calc(rec, httptest.NewRequest(http.MethodPost, "/api/tools/vdrop/calc", strings.NewReader(`{"length_m":0}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandlerOptions(t *testing.T) {
	h := &Handler{Tables: testTables()}
	rec := httptest.NewRecorder()
	h.Options(rec, httptest.NewRequest(http.MethodGet, "/api/tools/vdrop/options", nil))

	var out Options
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Len(t, out.InstallationMethods, 10)
	assert.Equal(t, []string{"230V", "415V"}, out.Voltages)
}
