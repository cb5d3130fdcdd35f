package leptons

import (
	"fmt"
)

// ElectronMode selects which electron reconstruction feeds the analysis.
type ElectronMode int

const (
	ElectronsStandard ElectronMode = iota
	ElectronsLowPt
	ElectronsCombined
)

func ParseElectronMode(s string) (ElectronMode, error) {
	switch s {
	case "standard", "Std":
		return ElectronsStandard, nil
	case "lowpt", "LowpT":
		return ElectronsLowPt, nil
	case "combined", "comb":
		return ElectronsCombined, nil
	}
	return ElectronsStandard, &ConfigurationError{Field: "electron_mode", Value: s, Reason: "unknown electron mode"}
}

// Preference decides which electron collection is kept whole when both
// are combined.
type Preference int

const (
	PreferStandard Preference = iota
	PreferLowPt
)

func ParsePreference(s string) (Preference, error) {
	switch s {
	case "standard", "Std":
		return PreferStandard, nil
	case "lowpt", "LowpT":
		return PreferLowPt, nil
	}
	return PreferStandard, &ConfigurationError{Field: "preference", Value: s, Reason: "unknown electron preference"}
}

// Attributes copied to the selected collections.
var (
	MuonAttrs     = []string{"pt", "eta", "phi", "dxy", "dz", "charge"}
	ElectronAttrs = []string{"pt", "eta", "deltaEtaSC", "phi", "dxy", "dz", "charge"}
	LeptonAttrs   = []string{"pt", "eta", "phi", "dxy", "dz", "charge"}
	MCAttrs       = []string{"genPartIdx", "genPartFlav"}
)

var intAttributes = map[string]bool{
	"charge":      true,
	"genPartIdx":  true,
	"genPartFlav": true,
}

// Names of the derived collections.
const (
	GoodMuon          = "GoodMuon"
	GoodElectron      = "GoodElectron"
	GoodLowPtElectron = "GoodLowPtElectron"
	CombElectron      = "CombElectron"
	GoodLepton        = "GoodLepton"
)

// Collection is a derived, per event collection. Merged collections carry
// two extra integer columns: origin (0 preferred, 1 other side) and index
// (position in the source collection).
type Collection struct {
	Name   string
	Count  int
	Floats map[string][]float64
	Ints   map[string][]int64
	attrs  []string
	tag    Tag
}

func newCollection(name string, count int) *Collection {
	return &Collection{
		Name:   name,
		Count:  count,
		Floats: make(map[string][]float64),
		Ints:   make(map[string][]int64),
	}
}

// Attributes lists the copied attributes in definition order.
func (c *Collection) Attributes() []string {
	return append([]string(nil), c.attrs...)
}

func (c *Collection) has(attr string) bool {
	if _, ok := c.Floats[attr]; ok {
		return true
	}
	_, ok := c.Ints[attr]
	return ok
}

func (c *Collection) directions() ([]Direction, error) {
	eta, ok1 := c.Floats["eta"]
	phi, ok2 := c.Floats["phi"]
	if !ok1 || !ok2 {
		return nil, &MissingAttributeError{Collection: c.Name, Attribute: "eta/phi"}
	}
	dirs := make([]Direction, c.Count)
	for i := range dirs {
		dirs[i] = Direction{Eta: eta[i], Phi: phi[i]}
	}
	return dirs, nil
}

// localRefs points at every candidate of the derived collection. For a
// merged collection the tag is the one of its preferred side.
func (c *Collection) localRefs() []CandidateRef {
	refs := make([]CandidateRef, c.Count)
	for i := range refs {
		refs[i] = CandidateRef{Tag: c.tag, Index: i}
	}
	return refs
}

// Output holds every column derived for one event.
type Output struct {
	EventID     uint64
	Period      string
	Dataset     DatasetType
	Weight      float64
	Collections []*Collection
}

// Collection returns the named derived collection, or nil.
func (o *Output) Collection(name string) *Collection {
	for _, c := range o.Collections {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// Analysis is the lepton selection resolved from the configuration. It
// holds no per event state and is shared by all workers.
type Analysis struct {
	variant        Variant
	electronMode   ElectronMode
	preference     Preference
	combineLeptons bool
	threshold      float64
	muons          *Selector
	electrons      *Selector
	lowPtElectrons *Selector
	weights        WeightComposer
	metrics        *Metrics
	verbosity      int
}

func NewAnalysis(config Configuration, metrics *Metrics) (*Analysis, error) {
	variant, err := ParseVariant(config.Selection)
	if err != nil {
		return nil, err
	}
	mode, err := ParseElectronMode(config.ElectronMode)
	if err != nil {
		return nil, err
	}
	preference, err := ParsePreference(config.Preference)
	if err != nil {
		return nil, err
	}
	if !(config.MatchDeltaR > 0) {
		return nil, &ConfigurationError{Field: "match_delta_r", Value: fmt.Sprint(config.MatchDeltaR), Reason: "must be positive"}
	}

	a := &Analysis{
		variant:        variant,
		electronMode:   mode,
		preference:     preference,
		combineLeptons: config.CombineLeptons,
		threshold:      config.MatchDeltaR,
		weights:        WeightComposer{Factors: config.Weights, PileupFactor: config.PileupFactor},
		metrics:        metrics,
		verbosity:      config.Verbosity,
	}
	if a.muons, err = NewSelector(FlavorMuon, variant); err != nil {
		return nil, err
	}
	if a.electrons, err = NewSelector(FlavorElectron, variant); err != nil {
		return nil, err
	}
	if a.lowPtElectrons, err = NewSelector(FlavorLowPtElectron, variant); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *Analysis) Variant() Variant { return a.variant }

// Process derives the selected, combined and weighted output of one event.
func (a *Analysis) Process(event *Event, lookup CorrectionLookup) (*Output, error) {
	out := &Output{EventID: event.ID, Period: event.Period, Dataset: event.Dataset}
	mc := event.Dataset == Simulated

	muons, err := a.defineGood(event, MuonSpec, a.muons, withMC(MuonAttrs, mc), GoodMuon)
	if err != nil {
		return nil, err
	}
	out.Collections = append(out.Collections, muons)

	var electrons *Collection
	switch a.electronMode {
	case ElectronsStandard:
		electrons, err = a.defineGood(event, ElectronSpec, a.electrons, withMC(ElectronAttrs, mc), GoodElectron)
		if err != nil {
			return nil, err
		}
		out.Collections = append(out.Collections, electrons)
	case ElectronsLowPt:
		electrons, err = a.defineGood(event, LowPtElectronSpec, a.lowPtElectrons, withMC(ElectronAttrs, mc), GoodLowPtElectron)
		if err != nil {
			return nil, err
		}
		out.Collections = append(out.Collections, electrons)
	case ElectronsCombined:
		std, err := a.defineGood(event, ElectronSpec, a.electrons, withMC(ElectronAttrs, mc), GoodElectron)
		if err != nil {
			return nil, err
		}
		low, err := a.defineGood(event, LowPtElectronSpec, a.lowPtElectrons, withMC(ElectronAttrs, mc), GoodLowPtElectron)
		if err != nil {
			return nil, err
		}
		electrons, err = a.combineElectrons(event, std, low, withMC(ElectronAttrs, mc))
		if err != nil {
			return nil, err
		}
		out.Collections = append(out.Collections, std, low, electrons)
	}

	if a.combineLeptons {
		leptons, err := a.combineFlavors(event, muons, electrons, withMC(LeptonAttrs, mc))
		if err != nil {
			return nil, err
		}
		out.Collections = append(out.Collections, leptons)
	}

	out.Weight, err = a.weights.Weight(event, lookup)
	if err != nil {
		return nil, &EventError{EventID: event.ID, Err: err}
	}
	return out, nil
}

func withMC(attrs []string, mc bool) []string {
	out := append([]string(nil), attrs...)
	if mc {
		out = append(out, MCAttrs...)
	}
	return out
}

// defineGood selects one raw collection and copies the requested
// attributes of the passing candidates.
func (a *Analysis) defineGood(event *Event, spec CollectionSpec, selector *Selector, attrs []string, name string) (*Collection, error) {
	mask, err := Mask(event, spec, selector)
	if err != nil {
		return nil, wrapEventError(event, spec.Name, err)
	}
	sel := Project(spec.Tag, mask)
	good := newCollection(name, sel.Count)
	good.attrs = attrs
	good.tag = spec.Tag
	for _, attr := range attrs {
		if intAttributes[attr] {
			values, err := event.Int(spec.Name, attr)
			if err != nil {
				return nil, wrapEventError(event, spec.Name, err)
			}
			if len(values) != len(mask) {
				return nil, wrapEventError(event, spec.Name, fmt.Errorf("column %s_%s has %d entries, expected %d", spec.Name, attr, len(values), len(mask)))
			}
			good.Ints[attr] = Gather(values, sel.Refs)
			continue
		}
		values, err := event.Float(spec.Name, attr)
		if err != nil {
			return nil, wrapEventError(event, spec.Name, err)
		}
		if len(values) != len(mask) {
			return nil, wrapEventError(event, spec.Name, fmt.Errorf("column %s_%s has %d entries, expected %d", spec.Name, attr, len(values), len(mask)))
		}
		good.Floats[attr] = Gather(values, sel.Refs)
	}
	a.metrics.candidatesSelected(name, sel.Count)

	if a.verbosity > 1 {
		logger.Info(fmt.Sprintf("Event %d: %d of %d %s selected", event.ID, sel.Count, len(mask), spec.Name), "selection")
	}
	return good, nil
}

func wrapEventError(event *Event, collection string, err error) error {
	if _, ok := err.(*EventError); ok {
		return err
	}
	return &EventError{EventID: event.ID, Collection: collection, Err: err}
}

// combineElectrons merges standard and low pT electrons, dropping the
// candidates of the non preferred collection matched to a preferred one.
func (a *Analysis) combineElectrons(event *Event, std *Collection, low *Collection, attrs []string) (*Collection, error) {
	preferred, other := std, low
	if a.preference == PreferLowPt {
		preferred, other = low, std
	}
	pDirs, err := preferred.directions()
	if err != nil {
		return nil, wrapEventError(event, preferred.Name, err)
	}
	oDirs, err := other.directions()
	if err != nil {
		return nil, wrapEventError(event, other.Name, err)
	}
	_, merged := Match(preferred.localRefs(), pDirs, other.localRefs(), oDirs, a.threshold)
	a.metrics.duplicatesSuppressed(preferred.Count + other.Count - len(merged))

	return gatherMerged(CombElectron, merged, preferred, other, attrs), nil
}

// combineFlavors orders muons and electrons together by decreasing pt.
func (a *Analysis) combineFlavors(event *Event, muons *Collection, electrons *Collection, attrs []string) (*Collection, error) {
	muPt, ok := muons.Floats["pt"]
	if !ok {
		return nil, wrapEventError(event, muons.Name, &MissingAttributeError{Collection: muons.Name, Attribute: "pt"})
	}
	elPt, ok := electrons.Floats["pt"]
	if !ok {
		return nil, wrapEventError(event, electrons.Name, &MissingAttributeError{Collection: electrons.Name, Attribute: "pt"})
	}
	merged := LeptonMerge(muons.localRefs(), muPt, electrons.localRefs(), elPt)
	return gatherMerged(GoodLepton, merged, muons, electrons, attrs), nil
}

// gatherMerged copies attributes through a merged index list. An
// attribute present on one side only is filled with 0 (-1 for integer
// columns) for the candidates of the other side.
func gatherMerged(name string, merged MergedIndexList, first *Collection, second *Collection, attrs []string) *Collection {
	c := newCollection(name, len(merged))
	c.tag = first.tag
	for _, attr := range attrs {
		inFirst, inSecond := first.has(attr), second.has(attr)
		if !inFirst && !inSecond {
			continue
		}
		c.attrs = append(c.attrs, attr)
		if intAttributes[attr] {
			switch {
			case inFirst && inSecond:
				c.Ints[attr] = MergeCopy(merged, first.Ints[attr], second.Ints[attr])
			case inFirst:
				c.Ints[attr] = MergeFillSecond(merged, first.Ints[attr], -1)
			default:
				c.Ints[attr] = MergeFillFirst(merged, -1, second.Ints[attr])
			}
			continue
		}
		switch {
		case inFirst && inSecond:
			c.Floats[attr] = MergeCopy(merged, first.Floats[attr], second.Floats[attr])
		case inFirst:
			c.Floats[attr] = MergeFillSecond(merged, first.Floats[attr], 0)
		default:
			c.Floats[attr] = MergeFillFirst(merged, 0, second.Floats[attr])
		}
	}

	origin := make([]int64, len(merged))
	index := make([]int64, len(merged))
	for i, ref := range merged {
		origin[i] = int64(ref.Origin)
		index[i] = int64(ref.Index)
	}
	c.Ints["origin"] = origin
	c.Ints["index"] = index
	return c
}
