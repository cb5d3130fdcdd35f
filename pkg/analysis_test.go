package leptons

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// leptonEvent has one good muon, one good standard electron, a low pT
// duplicate of it and one more low pT electron.
func leptonEvent(t *testing.T, id uint64) *Event {
	return &Event{
		ID:      id,
		Period:  "2018",
		Dataset: Data,
		Floats: map[string][]float64{
			"Muon_pt":             {40, 3},
			"Muon_eta":            {0.1, 0.2},
			"Muon_phi":            {0.1, 0.2},
			"Muon_dxy":            {0.001, 0.001},
			"Muon_dz":             {0.001, 0.001},
			"Muon_pfRelIso03_all": {0.05, 0.05},

			"Electron_pt":             {30, 20},
			"Electron_eta":            {1.0, -0.5},
			"Electron_phi":            {0.0, 1.0},
			"Electron_deltaEtaSC":     {0, 0},
			"Electron_dxy":            {0.001, 0.001},
			"Electron_dz":             {0.001, 0.001},
			"Electron_pfRelIso03_all": {0.1, 0.01},

			"LowPtElectron_pt":               {29, 10},
			"LowPtElectron_eta":              {1.0, 2.0},
			"LowPtElectron_phi":              {0.01, 2.0},
			"LowPtElectron_deltaEtaSC":       {0, 0},
			"LowPtElectron_dxy":              {0.001, 0.001},
			"LowPtElectron_dz":               {0.001, 0.001},
			"LowPtElectron_miniPFRelIso_all": {0.01, 0.01},
			"LowPtElectron_ID":               {2, 2},
		},
		Ints: map[string][]int64{
			"Muon_charge":                {1, 1},
			"Electron_charge":            {-1, 1},
			"Electron_vidNestedWPBitmap": {int64(vetoBitmap(t, nil)), 0},
			"LowPtElectron_charge":       {1, -1},
		},
		Flags: map[string][]bool{"Muon_looseId": {true, true}},
	}
}

func newTestAnalysis(t *testing.T, edit func(c *Configuration), metrics *Metrics) *Analysis {
	t.Helper()
	config := DefaultConfiguration()
	config.Weights = DefaultWeights
	if edit != nil {
		edit(&config)
	}
	a, err := NewAnalysis(config, metrics)
	require.NoError(t, err)
	return a
}

func TestProcessCombined(t *testing.T) {
	metrics := NewMetrics(prometheus.NewRegistry())
	a := newTestAnalysis(t, nil, metrics)

	out, err := a.Process(leptonEvent(t, 11), nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(11), out.EventID)
	assert.Equal(t, 1.0, out.Weight)

	var names []string
	for _, c := range out.Collections {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{GoodMuon, GoodElectron, GoodLowPtElectron, CombElectron, GoodLepton}, names)

	muons := out.Collection(GoodMuon)
	assert.Equal(t, 1, muons.Count)
	assert.Equal(t, []float64{40}, muons.Floats["pt"])
	assert.Equal(t, MuonAttrs, muons.Attributes())

	assert.Equal(t, 1, out.Collection(GoodElectron).Count)
	assert.Equal(t, 2, out.Collection(GoodLowPtElectron).Count)

	comb := out.Collection(CombElectron)
	require.Equal(t, 2, comb.Count)
	assert.Equal(t, []float64{30, 10}, comb.Floats["pt"])
	assert.Equal(t, []int64{-1, -1}, comb.Ints["charge"])
	assert.Equal(t, []int64{0, 1}, comb.Ints["origin"])
	assert.Equal(t, []int64{0, 1}, comb.Ints["index"])

	leptons := out.Collection(GoodLepton)
	require.Equal(t, 3, leptons.Count)
	assert.Equal(t, []float64{40, 30, 10}, leptons.Floats["pt"])
	assert.Equal(t, []int64{1, -1, -1}, leptons.Ints["charge"])
	assert.Equal(t, []int64{0, 1, 1}, leptons.Ints["origin"])
	assert.Equal(t, []int64{0, 0, 1}, leptons.Ints["index"])
	// deltaEtaSC only exists for electrons
	assert.NotContains(t, leptons.Floats, "deltaEtaSC")

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.duplicates))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.selected.WithLabelValues(GoodMuon)))
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.selected.WithLabelValues(GoodLowPtElectron)))
}

func TestProcessPreferLowPt(t *testing.T) {
	a := newTestAnalysis(t, func(c *Configuration) { c.Preference = "lowpt" }, nil)
	out, err := a.Process(leptonEvent(t, 1), nil)
	require.NoError(t, err)

	comb := out.Collection(CombElectron)
	require.Equal(t, 2, comb.Count)
	assert.Equal(t, []float64{29, 10}, comb.Floats["pt"])
	assert.Equal(t, []int64{0, 0}, comb.Ints["origin"])
}

func TestProcessSingleElectronMode(t *testing.T) {
	a := newTestAnalysis(t, func(c *Configuration) {
		c.ElectronMode = "standard"
		c.CombineLeptons = false
	}, nil)
	out, err := a.Process(leptonEvent(t, 1), nil)
	require.NoError(t, err)
	require.Len(t, out.Collections, 2)
	assert.Nil(t, out.Collection(CombElectron))
	assert.Nil(t, out.Collection(GoodLepton))

	a = newTestAnalysis(t, func(c *Configuration) { c.ElectronMode = "LowpT" }, nil)
	out, err = a.Process(leptonEvent(t, 1), nil)
	require.NoError(t, err)
	leptons := out.Collection(GoodLepton)
	require.NotNil(t, leptons)
	assert.Equal(t, []float64{40, 29, 10}, leptons.Floats["pt"])
}

func TestProcessSimulated(t *testing.T) {
	a := newTestAnalysis(t, func(c *Configuration) {
		c.Weights = []string{"reweightPU", "reweightLeptonSF"}
	}, nil)
	event := leptonEvent(t, 5)
	event.Dataset = Simulated
	event.Scalars = map[string]float64{"reweightLeptonSF": 0.5}
	for _, name := range []string{"Muon", "Electron", "LowPtElectron"} {
		event.Ints[name+"_genPartIdx"] = []int64{3, -1}
		event.Ints[name+"_genPartFlav"] = []int64{1, 0}
	}
	lookup := PileupTableFromConfig(map[string]float64{"2018": 1.5})

	out, err := a.Process(event, lookup)
	require.NoError(t, err)
	assert.Equal(t, 0.75, out.Weight)
	assert.Equal(t, []int64{3}, out.Collection(GoodMuon).Ints["genPartIdx"])
	assert.Equal(t, []int64{3, 3, -1}, out.Collection(GoodLepton).Ints["genPartIdx"])

	delete(event.Ints, "Muon_genPartFlav")
	_, err = a.Process(event, lookup)
	var missing *MissingAttributeError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, "genPartFlav", missing.Attribute)
}

func TestProcessMissingColumn(t *testing.T) {
	a := newTestAnalysis(t, nil, nil)
	event := leptonEvent(t, 9)
	delete(event.Floats, "LowPtElectron_miniPFRelIso_all")

	_, err := a.Process(event, nil)
	var eventErr *EventError
	require.True(t, errors.As(err, &eventErr))
	assert.Equal(t, uint64(9), eventErr.EventID)
	assert.Equal(t, "LowPtElectron", eventErr.Collection)
}

func TestProcessEmptyEvent(t *testing.T) {
	a := newTestAnalysis(t, nil, nil)
	event := leptonEvent(t, 2)
	for name, values := range event.Floats {
		event.Floats[name] = values[:0]
	}
	for name, values := range event.Ints {
		event.Ints[name] = values[:0]
	}
	out, err := a.Process(event, nil)
	require.NoError(t, err)
	for _, c := range out.Collections {
		assert.Zero(t, c.Count, c.Name)
	}
}
