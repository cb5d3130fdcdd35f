package leptons

import (
	"fmt"
	"math"
)

// Variant is the lepton selection working point.
type Variant int

const (
	Tight Variant = iota
	Loose
	IdOnly
)

func (v Variant) String() string {
	switch v {
	case Tight:
		return "tight"
	case Loose:
		return "loose"
	case IdOnly:
		return "id-only"
	default:
		return "unknown"
	}
}

// ParseVariant accepts the configuration names, including the historic
// HybridIso / looseHybridIso spellings.
func ParseVariant(s string) (Variant, error) {
	switch s {
	case "tight", "HybridIso":
		return Tight, nil
	case "loose", "looseHybridIso":
		return Loose, nil
	case "id-only", "idonly", "IdOnly":
		return IdOnly, nil
	}
	return Tight, &ConfigurationError{Field: "selection", Value: s, Reason: "unknown selection variant"}
}

// Flavor identifies the reconstruction a candidate comes from.
type Flavor int

const (
	FlavorElectron Flavor = iota
	FlavorLowPtElectron
	FlavorMuon
)

func (f Flavor) String() string {
	switch f {
	case FlavorElectron:
		return "Electron"
	case FlavorLowPtElectron:
		return "LowPtElectron"
	case FlavorMuon:
		return "Muon"
	default:
		return "Unknown"
	}
}

// Pt above which the relative isolation cut replaces the scaled one.
const hybridIsoPtSplit = 25.0

// Supercluster window between barrel and endcap.
const (
	ecalGapLow  = 1.4442
	ecalGapHigh = 1.566
)

type isolationCuts struct {
	absolute float64
	relative float64
	dxy      float64
	dz       float64
}

var (
	tightCuts = isolationCuts{absolute: 5.0, relative: 0.2, dxy: 0.02, dz: 0.1}
	looseCuts = isolationCuts{absolute: 20.0, relative: 0.8, dxy: 0.1, dz: 0.5}
)

// Candidate holds the attributes the selection looks at. ID is the scalar
// identification (low pT BDT score, muon loose id as 0/1); VID the packed
// cut based bitmap of standard electrons.
type Candidate struct {
	Pt         float64
	Eta        float64
	DeltaEtaSC float64
	Iso        float64
	Dxy        float64
	Dz         float64
	ID         float64
	VID        uint64
}

// IsolationWeight rescales the low pT electron mini isolation threshold
// from the 0.3 cone to the pt dependent mini isolation cone. The three
// ranges are not smoothed at 50 and 200 GeV.
func IsolationWeight(pt float64) float64 {
	switch {
	case pt < 50:
		return 0.42942652
	case pt < 200:
		return square(math.Tan(10.0/pt) / math.Tan(0.3))
	default:
		return 0.02616993
	}
}

func square(x float64) float64 { return x * x }

// Selector decides whether one candidate of a given flavor passes a
// selection variant.
type Selector struct {
	flavor   Flavor
	variant  Variant
	lowBound float64
	maxEta   float64
	ecalGap  bool
	miniIso  bool
	cuts     isolationCuts
	vid      VIDRequirement
}

// NewSelector resolves flavor and variant once. Standard electrons check
// the VID bitmap at veto level; the isolation part of it is dropped when a
// hybrid isolation cut is applied instead.
func NewSelector(flavor Flavor, variant Variant) (*Selector, error) {
	s := &Selector{flavor: flavor, variant: variant}
	switch variant {
	case Tight:
		s.cuts = tightCuts
	case Loose:
		s.cuts = looseCuts
	case IdOnly:
	default:
		return nil, &ConfigurationError{Field: "selection", Value: variant.String(), Reason: "unknown selection variant"}
	}

	switch flavor {
	case FlavorElectron:
		s.lowBound, s.maxEta, s.ecalGap = 5, 2.5, true
		var ignore []string
		if variant != IdOnly {
			ignore = []string{GsfEleRelPFIsoScaledCut}
		}
		vid, err := NewVIDRequirement(VIDDecoder(), 1, ignore)
		if err != nil {
			return nil, err
		}
		s.vid = vid
	case FlavorLowPtElectron:
		s.lowBound, s.maxEta, s.ecalGap, s.miniIso = 3, 2.5, true, true
	case FlavorMuon:
		s.lowBound, s.maxEta = 3.5, 2.4
	default:
		return nil, &ConfigurationError{Field: "flavor", Value: fmt.Sprint(int(flavor)), Reason: "unknown lepton flavor"}
	}
	return s, nil
}

func (s *Selector) Flavor() Flavor   { return s.flavor }
func (s *Selector) Variant() Variant { return s.variant }

// Select evaluates the piecewise selection. Non finite attributes are not
// guarded: NaN fails every comparison it takes part in.
func (s *Selector) Select(c Candidate) (bool, error) {
	if !(c.Pt > s.lowBound) {
		return false, nil
	}
	if !s.acceptance(c) {
		return false, nil
	}
	if s.variant != IdOnly && !s.isolationAndImpact(c) {
		return false, nil
	}
	return s.identification(c)
}

func (s *Selector) acceptance(c Candidate) bool {
	if !(math.Abs(c.Eta) < s.maxEta) {
		return false
	}
	if s.ecalGap {
		scEta := math.Abs(c.Eta + c.DeltaEtaSC)
		if !(scEta < ecalGapLow || scEta > ecalGapHigh) {
			return false
		}
	}
	return true
}

// scaledIsolation tells whether pt falls in the absolute isolation
// branch. The split value belongs to it.
func scaledIsolation(pt float64) bool {
	return pt <= hybridIsoPtSplit
}

func (s *Selector) isolationAndImpact(c Candidate) bool {
	weight := 1.0
	if s.miniIso {
		weight = IsolationWeight(c.Pt)
	}
	if scaledIsolation(c.Pt) {
		if !(c.Iso*c.Pt < s.cuts.absolute*weight) {
			return false
		}
	} else if !(c.Iso < s.cuts.relative*weight) {
		return false
	}
	return math.Abs(c.Dxy) < s.cuts.dxy && math.Abs(c.Dz) < s.cuts.dz
}

func (s *Selector) identification(c Candidate) (bool, error) {
	if s.flavor == FlavorElectron {
		return s.vid.Pass(c.VID)
	}
	return c.ID > 0, nil
}
