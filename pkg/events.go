package leptons

import "encoding/json"

// DatasetType tells real data apart from simulation.
type DatasetType int

const (
	Data DatasetType = iota
	Simulated
)

func (d DatasetType) String() string {
	switch d {
	case Data:
		return "data"
	case Simulated:
		return "mc"
	default:
		return "unknown"
	}
}

// ParseDatasetType accepts the labels used in the sample definitions.
func ParseDatasetType(s string) (DatasetType, error) {
	switch s {
	case "data", "Data", "DATA":
		return Data, nil
	case "mc", "MC", "sim", "simulated", "Simulated":
		return Simulated, nil
	}
	return Data, &ConfigurationError{Field: "dataset", Value: s, Reason: "unknown dataset type"}
}

func (d DatasetType) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *DatasetType) UnmarshalText(text []byte) error {
	t, err := ParseDatasetType(string(text))
	if err != nil {
		return err
	}
	*d = t
	return nil
}

// Event is one row of the Events tree. Columns follow the NanoAOD naming
// <Collection>_<attribute>; arrays of one collection share their length.
type Event struct {
	ID      uint64               `json:"event"`
	Period  string               `json:"period"`
	Dataset DatasetType          `json:"dataset"`
	Floats  map[string][]float64 `json:"floats,omitempty"`
	Ints    map[string][]int64   `json:"ints,omitempty"`
	Flags   map[string][]bool    `json:"flags,omitempty"`
	Scalars map[string]float64   `json:"scalars,omitempty"`
}

func columnName(collection string, attr string) string {
	return collection + "_" + attr
}

// Float returns a floating point attribute of a collection.
func (e *Event) Float(collection string, attr string) ([]float64, error) {
	v, ok := e.Floats[columnName(collection, attr)]
	if !ok {
		return nil, &MissingAttributeError{Collection: collection, Attribute: attr}
	}
	return v, nil
}

// Int returns an integer attribute of a collection.
func (e *Event) Int(collection string, attr string) ([]int64, error) {
	v, ok := e.Ints[columnName(collection, attr)]
	if !ok {
		return nil, &MissingAttributeError{Collection: collection, Attribute: attr}
	}
	return v, nil
}

// Flag returns a boolean attribute of a collection. Flag columns are the
// only ones allowed to be absent: they read as n false values. A present
// column is returned as stored.
func (e *Event) Flag(collection string, attr string, n int) []bool {
	v, ok := e.Flags[columnName(collection, attr)]
	if !ok {
		return make([]bool, n)
	}
	return v
}

// Scalar returns a per-event scalar such as a stored reweighting factor.
func (e *Event) Scalar(name string) (float64, error) {
	v, ok := e.Scalars[name]
	if !ok {
		return 0, &MissingAttributeError{Attribute: name}
	}
	return v, nil
}

// Len is the number of candidates of a collection, taken from its pt column.
func (e *Event) Len(collection string) (int, error) {
	pt, err := e.Float(collection, "pt")
	if err != nil {
		return 0, err
	}
	return len(pt), nil
}

// UnmarshalJSON requires the dataset field; weights depend on it and an
// absent label must not turn a simulated event into data.
func (e *Event) UnmarshalJSON(data []byte) error {
	type plain Event
	aux := struct {
		*plain
		Dataset *DatasetType `json:"dataset"`
	}{plain: (*plain)(e)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if aux.Dataset == nil {
		return &MissingAttributeError{Attribute: "dataset"}
	}
	e.Dataset = *aux.Dataset
	return nil
}
