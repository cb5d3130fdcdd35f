package output

import (
	"errors"
	"fmt"

	"github.com/jmbenlloch/go-hdf5"
	leptons "github.com/next-exp/leptons_go/pkg"
)

const UUIDLEN = 36

type EventDataHDF5 struct {
	evt_number uint64
	weight     float64
	period     [STRLEN]byte
	dataset    int32
}

type RunInfoHDF5 struct {
	run_id [UUIDLEN]byte
}

type CountHDF5 struct {
	evt_number uint64
	collection [STRLEN]byte
	count      int32
}

// CandidateHDF5 is one selected candidate. origin and source are -1 for
// collections built from a single source.
type CandidateHDF5 struct {
	evt_number uint64
	index      int32
	pt         float64
	eta        float64
	phi        float64
	charge     int32
	origin     int32
	source     int32
}

type table struct {
	dset *hdf5.Dataset
	rows int
}

func (t *table) close() error {
	if t == nil || t.dset == nil {
		return nil
	}
	return t.dset.Close()
}

// Writer stores the derived collections of every event in an HDF5 file:
// Run/events, Run/runInfo, Leptons/counts and one Leptons/<collection>
// table per derived collection, created on first use.
type Writer struct {
	File         *hdf5.File
	Filename     string
	RunGroup     *hdf5.Group
	LeptonsGroup *hdf5.Group
	EventTable   *table
	RunInfoTable *table
	CountsTable  *table
	Collections  map[string]*table
	order        []string
	compression  int
	EvtCounter   int
}

func NewWriter(filename string, runID string, compression int) (*Writer, error) {
	file, err := openFile(filename)
	if err != nil {
		return nil, &leptons.ErrOpenFile{Filename: filename, Err: err}
	}
	w := &Writer{
		File:        file,
		Filename:    filename,
		Collections: make(map[string]*table),
		compression: compression,
	}
	if err := w.init(runID); err != nil {
		return nil, errors.Join(err, w.Close())
	}
	return w, nil
}

func (w *Writer) init(runID string) error {
	var err error
	if w.RunGroup, err = createGroup(w.File, "Run"); err != nil {
		return err
	}
	if w.LeptonsGroup, err = createGroup(w.File, "Leptons"); err != nil {
		return err
	}
	events, err := createTable(w.RunGroup, "events", EventDataHDF5{}, w.compression)
	if err != nil {
		return err
	}
	w.EventTable = &table{dset: events}
	runInfo, err := createTable(w.RunGroup, "runInfo", RunInfoHDF5{}, w.compression)
	if err != nil {
		return err
	}
	w.RunInfoTable = &table{dset: runInfo}
	counts, err := createTable(w.LeptonsGroup, "counts", CountHDF5{}, w.compression)
	if err != nil {
		return err
	}
	w.CountsTable = &table{dset: counts}

	var id [UUIDLEN]byte
	copy(id[:], runID)
	if err := writeEntryToTable(w.RunInfoTable.dset, RunInfoHDF5{run_id: id}, 0); err != nil {
		return fmt.Errorf("error writing run info: %w", err)
	}
	w.RunInfoTable.rows = 1
	return nil
}

func (w *Writer) collectionTable(name string) (*table, error) {
	if t, ok := w.Collections[name]; ok {
		return t, nil
	}
	dset, err := createTable(w.LeptonsGroup, name, CandidateHDF5{}, w.compression)
	if err != nil {
		return nil, err
	}
	t := &table{dset: dset}
	w.Collections[name] = t
	w.order = append(w.order, name)
	return t, nil
}

func candidateRows(eventID uint64, c *leptons.Collection) ([]CandidateHDF5, error) {
	pt, eta, phi := c.Floats["pt"], c.Floats["eta"], c.Floats["phi"]
	if len(pt) != c.Count || len(eta) != c.Count || len(phi) != c.Count {
		return nil, &leptons.MissingAttributeError{Collection: c.Name, Attribute: "pt/eta/phi"}
	}
	charge := c.Ints["charge"]
	origin, merged := c.Ints["origin"]
	index, hasIndex := c.Ints["index"]

	// The array MUST be allocated at creation, if not, HDF5 will panic
	rows := make([]CandidateHDF5, c.Count)
	for i := range rows {
		row := CandidateHDF5{
			evt_number: eventID,
			index:      int32(i),
			pt:         pt[i],
			eta:        eta[i],
			phi:        phi[i],
			origin:     -1,
			source:     -1,
		}
		if i < len(charge) {
			row.charge = int32(charge[i])
		}
		if merged {
			row.origin = int32(origin[i])
		}
		if hasIndex {
			row.source = int32(index[i])
		}
		rows[i] = row
	}
	return rows, nil
}

func (w *Writer) WriteEvent(out *leptons.Output) error {
	evt := EventDataHDF5{
		evt_number: out.EventID,
		weight:     out.Weight,
		period:     convertToHdf5String(out.Period),
		dataset:    int32(out.Dataset),
	}
	if err := writeEntryToTable(w.EventTable.dset, evt, w.EventTable.rows); err != nil {
		return fmt.Errorf("error writing event table: %w", err)
	}
	w.EventTable.rows++

	counts := make([]CountHDF5, len(out.Collections))
	for i, c := range out.Collections {
		counts[i] = CountHDF5{
			evt_number: out.EventID,
			collection: convertToHdf5String(c.Name),
			count:      int32(c.Count),
		}
	}
	if err := writeArrayToTable(w.CountsTable.dset, &counts, w.CountsTable.rows); err != nil {
		return fmt.Errorf("error writing counts table: %w", err)
	}
	w.CountsTable.rows += len(counts)

	for _, c := range out.Collections {
		t, err := w.collectionTable(c.Name)
		if err != nil {
			return err
		}
		rows, err := candidateRows(out.EventID, c)
		if err != nil {
			return err
		}
		if err := writeArrayToTable(t.dset, &rows, t.rows); err != nil {
			return fmt.Errorf("error writing %s table: %w", c.Name, err)
		}
		t.rows += len(rows)
	}
	w.EvtCounter++
	return nil
}

func (w *Writer) Close() error {
	var errs []error

	for _, name := range w.order {
		if err := w.Collections[name].close(); err != nil {
			errs = append(errs, fmt.Errorf("error closing %s table: %w", name, err))
		}
	}
	if err := w.CountsTable.close(); err != nil {
		errs = append(errs, fmt.Errorf("error closing counts table: %w", err))
	}
	if err := w.EventTable.close(); err != nil {
		errs = append(errs, fmt.Errorf("error closing event table: %w", err))
	}
	if err := w.RunInfoTable.close(); err != nil {
		errs = append(errs, fmt.Errorf("error closing run info table: %w", err))
	}
	if w.LeptonsGroup != nil {
		if err := w.LeptonsGroup.Close(); err != nil {
			errs = append(errs, fmt.Errorf("error closing leptons group: %w", err))
		}
	}
	if w.RunGroup != nil {
		if err := w.RunGroup.Close(); err != nil {
			errs = append(errs, fmt.Errorf("error closing run group: %w", err))
		}
	}
	if err := w.File.Close(); err != nil {
		errs = append(errs, fmt.Errorf("error closing file: %w", err))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}
