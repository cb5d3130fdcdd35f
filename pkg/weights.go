package leptons

import (
	"gonum.org/v1/gonum/floats"
)

// NominalVariation is the correction variation used for the central weight.
const NominalVariation = "nominal"

// DefaultWeights are the stored reweighting factors multiplied together
// for simulated samples.
var DefaultWeights = []string{
	"reweightPU",
	"reweightBTag_SF",
	"reweightL1Prefire",
	"reweightwPt",
	"reweightLeptonSF",
}

// WeightComposer builds the per event weight. The factor named
// PileupFactor, when listed, is taken from the pileup correction instead
// of the event.
type WeightComposer struct {
	Factors      []string
	PileupFactor string
}

func (w WeightComposer) usesPileup() bool {
	if w.PileupFactor == "" {
		return false
	}
	for _, name := range w.Factors {
		if name == w.PileupFactor {
			return true
		}
	}
	return false
}

// Weight is 1 for data. For simulation it is the product of the listed
// factors.
func (w WeightComposer) Weight(event *Event, lookup CorrectionLookup) (float64, error) {
	if event.Dataset == Data {
		return 1, nil
	}
	values := make([]float64, 0, len(w.Factors))
	for _, name := range w.Factors {
		if w.PileupFactor != "" && name == w.PileupFactor {
			if lookup == nil {
				return 0, &ConfigurationError{Field: "pileup_factor", Value: name, Reason: "no pileup correction loaded"}
			}
			v, err := lookup.Evaluate(event.Period, NominalVariation)
			if err != nil {
				return 0, err
			}
			values = append(values, v)
			continue
		}
		v, err := event.Scalar(name)
		if err != nil {
			return 0, err
		}
		values = append(values, v)
	}
	if len(values) == 0 {
		return 1, nil
	}
	return floats.Prod(values), nil
}
