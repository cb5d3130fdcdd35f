package output

import (
	"os"
	"path/filepath"
	"testing"

	leptons "github.com/next-exp/leptons_go/pkg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mergedCollection() *leptons.Collection {
	return &leptons.Collection{
		Name:  leptons.GoodLepton,
		Count: 2,
		Floats: map[string][]float64{
			"pt":  {40, 30},
			"eta": {0.1, 1.0},
			"phi": {0.1, 0.0},
		},
		Ints: map[string][]int64{
			"charge": {1, -1},
			"origin": {0, 1},
			"index":  {0, 3},
		},
	}
}

func TestCandidateRows(t *testing.T) {
	rows, err := candidateRows(8, mergedCollection())
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, CandidateHDF5{evt_number: 8, index: 1, pt: 30, eta: 1.0, phi: 0.0, charge: -1, origin: 1, source: 3}, rows[1])

	single := &leptons.Collection{
		Name:   leptons.GoodMuon,
		Count:  1,
		Floats: map[string][]float64{"pt": {12}, "eta": {0.5}, "phi": {1}},
		Ints:   map[string][]int64{},
	}
	rows, err = candidateRows(9, single)
	require.NoError(t, err)
	assert.Equal(t, int32(-1), rows[0].origin)
	assert.Equal(t, int32(-1), rows[0].source)
	assert.Equal(t, int32(0), rows[0].charge)

	single.Floats["phi"] = nil
	_, err = candidateRows(9, single)
	assert.Error(t, err)
}

func TestConvertToHdf5String(t *testing.T) {
	s := convertToHdf5String("GoodLowPtElectron")
	assert.Equal(t, "GoodLowPtElectron", string(s[:17]))
	assert.Equal(t, byte(0), s[17])

	long := convertToHdf5String("a name longer than twenty bytes")
	assert.Equal(t, "a name longer than t", string(long[:]))
}

func TestWriterCreatesFile(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "leptons.h5")
	w, err := NewWriter(filename, "0b6c2f7e-9d43-4a57-a0a4-1a2b3c4d5e6f", 4)
	require.NoError(t, err)

	for _, id := range []uint64{1, 2} {
		out := &leptons.Output{EventID: id, Period: "2018", Weight: 1, Collections: []*leptons.Collection{mergedCollection()}}
		require.NoError(t, w.WriteEvent(out))
	}
	assert.Equal(t, 2, w.EvtCounter)
	assert.Equal(t, 4, w.Collections[leptons.GoodLepton].rows)
	assert.Equal(t, 2, w.CountsTable.rows)
	require.NoError(t, w.Close())

	info, err := os.Stat(filename)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}
