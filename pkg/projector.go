package leptons

// Tag names the raw collection a candidate is stored in.
type Tag uint8

const (
	TagElectron Tag = iota
	TagLowPtElectron
	TagMuon
)

func (t Tag) String() string {
	switch t {
	case TagElectron:
		return "Electron"
	case TagLowPtElectron:
		return "LowPtElectron"
	case TagMuon:
		return "Muon"
	default:
		return "Unknown"
	}
}

// CandidateRef points at one candidate of one collection of an event.
type CandidateRef struct {
	Tag   Tag
	Index int
}

// Selection is the result of projecting a collection through a mask.
type Selection struct {
	Tag   Tag
	Count int
	Refs  []CandidateRef
}

// Project keeps the refs of the true mask entries in storage order.
func Project(tag Tag, mask []bool) Selection {
	sel := Selection{Tag: tag, Refs: make([]CandidateRef, 0, len(mask))}
	for i, ok := range mask {
		if ok {
			sel.Refs = append(sel.Refs, CandidateRef{Tag: tag, Index: i})
		}
	}
	sel.Count = len(sel.Refs)
	return sel
}

// Gather projects an attribute column through the selected refs.
func Gather[T any](values []T, refs []CandidateRef) []T {
	out := make([]T, len(refs))
	for i, ref := range refs {
		out[i] = values[ref.Index]
	}
	return out
}

// CollectionSpec describes where a flavor's selection inputs live in the
// event.
type CollectionSpec struct {
	Tag        Tag
	Name       string
	Flavor     Flavor
	IsoColumn  string
	IDColumn   string
	IDIsFlag   bool
	VIDColumn  string
	DeltaEtaSC bool
}

// Default NanoAOD inputs of the three lepton collections.
var (
	ElectronSpec = CollectionSpec{
		Tag: TagElectron, Name: "Electron", Flavor: FlavorElectron,
		IsoColumn: "pfRelIso03_all", VIDColumn: "vidNestedWPBitmap", DeltaEtaSC: true,
	}
	LowPtElectronSpec = CollectionSpec{
		Tag: TagLowPtElectron, Name: "LowPtElectron", Flavor: FlavorLowPtElectron,
		IsoColumn: "miniPFRelIso_all", IDColumn: "ID", DeltaEtaSC: true,
	}
	MuonSpec = CollectionSpec{
		Tag: TagMuon, Name: "Muon", Flavor: FlavorMuon,
		IsoColumn: "pfRelIso03_all", IDColumn: "looseId", IDIsFlag: true,
	}
)

// Mask evaluates the selector on every candidate of the collection.
func Mask(event *Event, spec CollectionSpec, selector *Selector) ([]bool, error) {
	n, err := event.Len(spec.Name)
	if err != nil {
		return nil, err
	}
	cols := make(map[string][]float64, 6)
	attrs := []string{"pt", "eta", "dxy", "dz", spec.IsoColumn}
	if spec.DeltaEtaSC {
		attrs = append(attrs, "deltaEtaSC")
	}
	if spec.IDColumn != "" && !spec.IDIsFlag {
		attrs = append(attrs, spec.IDColumn)
	}
	for _, attr := range attrs {
		v, err := event.Float(spec.Name, attr)
		if err != nil {
			return nil, err
		}
		if len(v) != n {
			return nil, &EventError{EventID: event.ID, Collection: spec.Name,
				Err: &MissingAttributeError{Collection: spec.Name, Attribute: attr}}
		}
		cols[attr] = v
	}
	var flags []bool
	if spec.IDIsFlag {
		flags = event.Flag(spec.Name, spec.IDColumn, n)
		if len(flags) != n {
			return nil, &EventError{EventID: event.ID, Collection: spec.Name,
				Err: &MissingAttributeError{Collection: spec.Name, Attribute: spec.IDColumn}}
		}
	}
	var vids []int64
	if spec.VIDColumn != "" {
		vids, err = event.Int(spec.Name, spec.VIDColumn)
		if err != nil {
			return nil, err
		}
		if len(vids) != n {
			return nil, &EventError{EventID: event.ID, Collection: spec.Name,
				Err: &MissingAttributeError{Collection: spec.Name, Attribute: spec.VIDColumn}}
		}
	}

	mask := make([]bool, n)
	for i := 0; i < n; i++ {
		c := Candidate{
			Pt:  cols["pt"][i],
			Eta: cols["eta"][i],
			Iso: cols[spec.IsoColumn][i],
			Dxy: cols["dxy"][i],
			Dz:  cols["dz"][i],
		}
		if spec.DeltaEtaSC {
			c.DeltaEtaSC = cols["deltaEtaSC"][i]
		}
		switch {
		case spec.IDIsFlag:
			if i < len(flags) && flags[i] {
				c.ID = 1
			}
		case spec.IDColumn != "":
			c.ID = cols[spec.IDColumn][i]
		}
		if vids != nil {
			c.VID = uint64(uint32(vids[i]))
		}
		ok, err := selector.Select(c)
		if err != nil {
			return nil, err
		}
		mask[i] = ok
	}
	return mask, nil
}
