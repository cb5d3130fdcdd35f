package leptons

import (
	"fmt"
	"sync"
)

// CorrectionLookup answers correction queries for a data taking period.
type CorrectionLookup interface {
	Evaluate(period string, variation string) (float64, error)
}

// PileupTable is an in memory pileup correction keyed by period and
// variation. It is never modified after being built.
type PileupTable struct {
	values map[string]map[string]float64
}

// PileupEntry is one row of the pileup weights table.
type PileupEntry struct {
	Period    string  `db:"Period"`
	Variation string  `db:"Variation"`
	Value     float64 `db:"Value"`
}

func NewPileupTable(entries []PileupEntry) *PileupTable {
	t := &PileupTable{values: make(map[string]map[string]float64)}
	for _, e := range entries {
		if t.values[e.Period] == nil {
			t.values[e.Period] = make(map[string]float64)
		}
		t.values[e.Period][e.Variation] = e.Value
	}
	return t
}

// PileupTableFromConfig builds a table of nominal values, one per period.
func PileupTableFromConfig(nominal map[string]float64) *PileupTable {
	entries := make([]PileupEntry, 0, len(nominal))
	for period, value := range nominal {
		entries = append(entries, PileupEntry{Period: period, Variation: NominalVariation, Value: value})
	}
	return NewPileupTable(entries)
}

func (t *PileupTable) Evaluate(period string, variation string) (float64, error) {
	variations, ok := t.values[period]
	if !ok {
		return 0, fmt.Errorf("no pileup correction for period %q", period)
	}
	v, ok := variations[variation]
	if !ok {
		return 0, fmt.Errorf("no pileup correction %q for period %q", variation, period)
	}
	return v, nil
}

// Len is the number of periods in the table.
func (t *PileupTable) Len() int {
	return len(t.values)
}

// Corrections builds the correction lookup once per run. Init may be
// called any number of times; the loader runs only on the first call and
// every call sees the same result.
type Corrections struct {
	once   sync.Once
	load   func() (CorrectionLookup, error)
	lookup CorrectionLookup
	err    error
}

func NewCorrections(load func() (CorrectionLookup, error)) *Corrections {
	return &Corrections{load: load}
}

func (c *Corrections) Init() (CorrectionLookup, error) {
	c.once.Do(func() {
		if c.load == nil {
			return
		}
		c.lookup, c.err = c.load()
		if c.err != nil {
			c.err = fmt.Errorf("error loading corrections: %w", c.err)
			logger.Error(c.err.Error())
		}
	})
	return c.lookup, c.err
}
