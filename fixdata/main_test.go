package main

import (
	"errors"
	"io"
	"path/filepath"
	"testing"

	leptons "github.com/next-exp/leptons_go/pkg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeEvents(t *testing.T, filename string, events ...*leptons.Event) {
	t.Helper()
	w, err := leptons.CreateJSONL(filename, 3)
	require.NoError(t, err)
	for _, event := range events {
		require.NoError(t, w.Write(event))
	}
	require.NoError(t, w.Close())
}

func TestRepairFile(t *testing.T) {
	dir := t.TempDir()
	fileIn := filepath.Join(dir, "in.jsonl.zst")
	fileOut := filepath.Join(dir, "out.jsonl")
	writeEvents(t, fileIn,
		&leptons.Event{ID: 1,
			Floats: map[string][]float64{"Muon_pt": {10, 20}},
			Flags:  map[string][]bool{"Muon_softId": {true, false}}},
		&leptons.Event{ID: 2,
			Floats: map[string][]float64{"Muon_pt": {15}}},
	)

	columns, err := collectFlagColumns(fileIn, []string{"Muon_looseId"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Muon_looseId", "Muon_softId"}, columns)

	events, repaired, err := repairFile(fileIn, fileOut, columns, 3)
	require.NoError(t, err)
	assert.Equal(t, 2, events)
	assert.Equal(t, 2, repaired)

	r, err := leptons.OpenJSONL(fileOut)
	require.NoError(t, err)
	defer r.Close()
	first, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, []bool{true, false}, first.Flags["Muon_softId"])
	assert.Equal(t, []bool{false, false}, first.Flags["Muon_looseId"])
	second, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, []bool{false}, second.Flags["Muon_softId"])
	_, err = r.Next()
	assert.True(t, errors.Is(err, io.EOF))
}

func TestRepairFileNonBoolean(t *testing.T) {
	dir := t.TempDir()
	fileIn := filepath.Join(dir, "in.jsonl")
	fileOut := filepath.Join(dir, "out.jsonl")
	writeEvents(t, fileIn,
		&leptons.Event{ID: 1,
			Floats: map[string][]float64{"Muon_pt": {10}, "Muon_looseId": {1}}},
		&leptons.Event{ID: 2,
			Floats: map[string][]float64{"Muon_pt": {15, 5}}},
	)

	events, repaired, err := repairFile(fileIn, fileOut, []string{"Muon_looseId"}, 3)
	require.NoError(t, err)
	assert.Equal(t, 2, events)
	assert.Equal(t, 1, repaired)

	r, err := leptons.OpenJSONL(fileOut)
	require.NoError(t, err)
	defer r.Close()
	first, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, []float64{1}, first.Floats["Muon_looseId"])
	assert.NotContains(t, first.Flags, "Muon_looseId")
	second, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, []bool{false, false}, second.Flags["Muon_looseId"])
}
