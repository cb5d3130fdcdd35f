package leptons

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProjectKeepsOrder(t *testing.T) {
	sel := Project(TagMuon, []bool{true, false, true, true, false})
	assert.Equal(t, 3, sel.Count)
	assert.Equal(t, []CandidateRef{{TagMuon, 0}, {TagMuon, 2}, {TagMuon, 3}}, sel.Refs)
	assert.Equal(t, []string{"a", "c", "d"}, Gather([]string{"a", "b", "c", "d", "e"}, sel.Refs))

	empty := Project(TagElectron, nil)
	assert.Zero(t, empty.Count)
	assert.Empty(t, Gather([]float64{}, empty.Refs))
}

func muonEvent() *Event {
	return &Event{
		ID: 3,
		Floats: map[string][]float64{
			"Muon_pt":             {40, 3, 20},
			"Muon_eta":            {0.1, 0.2, 2.6},
			"Muon_phi":            {0.1, 0.2, 0.3},
			"Muon_dxy":            {0.001, 0.001, 0.001},
			"Muon_dz":             {0.001, 0.001, 0.001},
			"Muon_pfRelIso03_all": {0.05, 0.05, 0.05},
		},
		Flags: map[string][]bool{"Muon_looseId": {true, true, true}},
	}
}

func TestMaskMuons(t *testing.T) {
	s := newTestSelector(t, FlavorMuon, Tight)
	mask, err := Mask(muonEvent(), MuonSpec, s)
	require.NoError(t, err)
	assert.Equal(t, []bool{true, false, false}, mask)
}

func TestMaskMissingFlagReadsFalse(t *testing.T) {
	event := muonEvent()
	delete(event.Flags, "Muon_looseId")
	mask, err := Mask(event, MuonSpec, newTestSelector(t, FlavorMuon, Tight))
	require.NoError(t, err)
	assert.Equal(t, []bool{false, false, false}, mask)
}

func TestMaskMissingColumn(t *testing.T) {
	event := muonEvent()
	delete(event.Floats, "Muon_dz")
	_, err := Mask(event, MuonSpec, newTestSelector(t, FlavorMuon, Tight))
	var missing *MissingAttributeError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, "dz", missing.Attribute)
	assert.Equal(t, `missing column "Muon_dz"`, missing.Error())
}

func TestMaskShortColumn(t *testing.T) {
	event := muonEvent()
	event.Floats["Muon_eta"] = []float64{0.1}
	_, err := Mask(event, MuonSpec, newTestSelector(t, FlavorMuon, Tight))
	var eventErr *EventError
	require.True(t, errors.As(err, &eventErr))
	assert.Equal(t, uint64(3), eventErr.EventID)
	assert.Equal(t, "Muon", eventErr.Collection)
}

func TestMaskShortFlagColumn(t *testing.T) {
	event := muonEvent()
	event.Flags["Muon_looseId"] = []bool{true}
	_, err := Mask(event, MuonSpec, newTestSelector(t, FlavorMuon, Tight))
	var eventErr *EventError
	require.True(t, errors.As(err, &eventErr))
	var missing *MissingAttributeError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, "looseId", missing.Attribute)
}

func TestMaskEmptyCollection(t *testing.T) {
	event := &Event{Floats: map[string][]float64{
		"Muon_pt": {}, "Muon_eta": {}, "Muon_phi": {}, "Muon_dxy": {}, "Muon_dz": {}, "Muon_pfRelIso03_all": {},
	}}
	mask, err := Mask(event, MuonSpec, newTestSelector(t, FlavorMuon, Tight))
	require.NoError(t, err)
	assert.Empty(t, mask)
}
