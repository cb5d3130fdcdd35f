package output

import (
	"fmt"

	"github.com/jmbenlloch/go-hdf5"
)

const STRLEN = 20

type ErrCreateGroup struct {
	Name string
	Err  error
}

func (e *ErrCreateGroup) Error() string {
	return fmt.Sprintf("error creating group %s: %v", e.Name, e.Err)
}

func (e *ErrCreateGroup) Unwrap() error { return e.Err }

type ErrCreateTable struct {
	Name string
	Err  error
}

func (e *ErrCreateTable) Error() string {
	return fmt.Sprintf("error creating table %s: %v", e.Name, e.Err)
}

func (e *ErrCreateTable) Unwrap() error { return e.Err }

func convertToHdf5String(s string) [STRLEN]byte {
	var byteArray [STRLEN]byte
	copy(byteArray[:], s)
	return byteArray
}

func openFile(fname string) (*hdf5.File, error) {
	return hdf5.CreateFile(fname, hdf5.F_ACC_TRUNC)
}

func createGroup(file *hdf5.File, groupName string) (*hdf5.Group, error) {
	g, err := file.CreateGroup(groupName)
	if err != nil {
		return nil, &ErrCreateGroup{Name: groupName, Err: err}
	}
	return g, nil
}

// createTable creates an extensible one dimensional table of compound
// rows shaped like datatype.
func createTable(group *hdf5.Group, name string, datatype interface{}, compression int) (*hdf5.Dataset, error) {
	dims := []uint{0}
	unlimitedDims := -1 // H5S_UNLIMITED is -1L
	maxDims := []uint{uint(unlimitedDims)}
	fileSpace, err := hdf5.CreateSimpleDataspace(dims, maxDims)
	if err != nil {
		return nil, &ErrCreateTable{Name: name, Err: err}
	}
	defer fileSpace.Close()

	plist, err := hdf5.NewPropList(hdf5.P_DATASET_CREATE)
	if err != nil {
		return nil, &ErrCreateTable{Name: name, Err: err}
	}
	defer plist.Close()

	chunks := []uint{32768}
	if err := plist.SetChunk(chunks); err != nil {
		return nil, &ErrCreateTable{Name: name, Err: err}
	}
	if compression > 0 {
		if err := plist.SetDeflate(compression); err != nil {
			return nil, &ErrCreateTable{Name: name, Err: err}
		}
	}

	dtype, err := hdf5.NewDatatypeFromValue(datatype)
	if err != nil {
		return nil, &ErrCreateTable{Name: name, Err: err}
	}

	dset, err := group.CreateDatasetWith(name, dtype, fileSpace, plist)
	if err != nil {
		return nil, &ErrCreateTable{Name: name, Err: err}
	}
	return dset, nil
}

// writeArrayToTable appends data after the first rows rows of the table.
func writeArrayToTable[T any](dataset *hdf5.Dataset, data *[]T, rows int) error {
	length := uint(len(*data))
	if length == 0 {
		return nil
	}
	dataspace, err := hdf5.CreateSimpleDataspace([]uint{length}, nil)
	if err != nil {
		return err
	}
	defer dataspace.Close()

	// extend
	inFile := uint(rows)
	if err := dataset.Resize([]uint{inFile + length}); err != nil {
		return err
	}
	filespace := dataset.Space()
	defer filespace.Close()

	start := []uint{inFile}
	count := []uint{length}
	if err := filespace.SelectHyperslab(start, nil, count, nil); err != nil {
		return err
	}
	return dataset.WriteSubset(data, dataspace, filespace)
}

func writeEntryToTable[T any](dataset *hdf5.Dataset, data T, rows int) error {
	array := []T{data}
	return writeArrayToTable(dataset, &array, rows)
}
