package storage

import (
	"encoding/csv"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

func (s *Store) regressorDir(name string) string {
	return filepath.Join(s.baseDir, "regressors", name)
}

// SaveRegressor writes K and Y as headerless CSV files.
func (s *Store) SaveRegressor(name string, k *mat.Dense, y *mat.VecDense) error {
	if k == nil || y == nil {
		return errors.New("storage: empty regressor")
	}
	if r, _ := k.Dims(); r != y.Len() {
		return errors.Errorf("storage: K has %d rows, Y has %d", r, y.Len())
	}
	dir := s.regressorDir(name)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrap(err, "creating regressor directory")
	}
	if err := writeMatrix(filepath.Join(dir, "K.csv"), k); err != nil {
		return errors.Wrap(err, "writing K")
	}
	return errors.Wrap(writeMatrix(filepath.Join(dir, "Y.csv"), y), "writing Y")
}

// LoadRegressor reads a pair written by SaveRegressor.
func (s *Store) LoadRegressor(name string) (*mat.Dense, *mat.VecDense, error) {
	dir := s.regressorDir(name)
	k, err := readMatrix(filepath.Join(dir, "K.csv"))
	if err != nil {
		return nil, nil, errors.Wrapf(err, "loading K of %s", name)
	}
	yy, err := readMatrix(filepath.Join(dir, "Y.csv"))
	if err != nil {
		return nil, nil, errors.Wrapf(err, "loading Y of %s", name)
	}
	kr, _ := k.Dims()
	yr, yc := yy.Dims()
	if yc != 1 || yr != kr {
		return nil, nil, errors.Errorf("regressor %s: K is %d rows, Y is %dx%d", name, kr, yr, yc)
	}
	return k, mat.VecDenseCopyOf(yy.ColView(0)), nil
}

func writeMatrix(path string, m mat.Matrix) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	r, c := m.Dims()
	row := make([]string, c)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			row[j] = formatFloat(m.At(i, j))
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func readMatrix(path string) (*mat.Dense, error) {
	records, err := readCSV(path)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, errors.New("empty matrix")
	}
	cols := len(records[0])
	data := make([]float64, 0, len(records)*cols)
	for i, record := range records {
		if len(record) != cols {
			return nil, errors.Errorf("row %d has %d fields, expected %d", i, len(record), cols)
		}
		vals, err := parseFloats(record)
		if err != nil {
			return nil, errors.Wrapf(err, "row %d", i)
		}
		data = append(data, vals...)
	}
	return mat.NewDense(len(records), cols, data), nil
}
