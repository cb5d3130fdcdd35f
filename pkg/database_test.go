package leptons

import (
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func newPileupDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := sqlx.Connect("sqlite", ":memory:")
	require.NoError(t, err)
	// a second connection would open a different in-memory database
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	db.MustExec(`CREATE TABLE PileupWeights (Period TEXT, Variation TEXT, Value REAL)`)
	rows := []PileupEntry{
		{Period: "2018", Variation: NominalVariation, Value: 1.04},
		{Period: "2018", Variation: "up", Value: 1.10},
		{Period: "2018", Variation: "down", Value: 0.98},
		{Period: "2017", Variation: NominalVariation, Value: 0.95},
	}
	for _, row := range rows {
		_, err := db.NamedExec(`INSERT INTO PileupWeights (Period, Variation, Value) VALUES (:Period, :Variation, :Value)`, row)
		require.NoError(t, err)
	}
	return db
}

func TestLoadPileupFromDB(t *testing.T) {
	db := newPileupDB(t)

	table, err := LoadPileupFromDB(db, "2018", 0)
	require.NoError(t, err)
	assert.Equal(t, 1, table.Len())

	v, err := table.Evaluate("2018", NominalVariation)
	require.NoError(t, err)
	assert.Equal(t, 1.04, v)
	v, err = table.Evaluate("2018", "up")
	require.NoError(t, err)
	assert.Equal(t, 1.10, v)

	_, err = table.Evaluate("2017", NominalVariation)
	assert.Error(t, err)
}

func TestLoadPileupFromDBUnknownPeriod(t *testing.T) {
	db := newPileupDB(t)
	_, err := LoadPileupFromDB(db, "2022", 0)
	assert.ErrorContains(t, err, "2022")
}
