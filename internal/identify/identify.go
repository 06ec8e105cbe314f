// Package identify estimates inertial parameters from a stacked regressor.
package identify

import (
	"fmt"
	"math"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/armdyn/internal/model"
	"github.com/san-kum/armdyn/internal/spatial"
)

// DefaultRcond discards singular values below this fraction of the largest.
const DefaultRcond = 1e-10

var ErrNoData = errors.New("identify: regressor is empty")

// Estimate is a least-squares parameter estimate.
type Estimate struct {
	Params *mat.VecDense
	// Rank is the number of identifiable parameter combinations.
	Rank     int
	Singular []float64
	// Residual is the RMS of K·Params − Y.
	Residual float64
}

// LeastSquares returns the minimum-norm solution of K·p ≈ Y. Parameters the
// data cannot separate (Rank below the column count) are resolved toward
// zero, so only K·p, not p itself, is meaningful for them.
func LeastSquares(k *mat.Dense, y *mat.VecDense, rcond float64) (*Estimate, error) {
	if k == nil || y == nil {
		return nil, ErrNoData
	}
	rows, cols := k.Dims()
	if y.Len() != rows {
		return nil, fmt.Errorf("identify: %d rows in K but %d in Y", rows, y.Len())
	}
	if rcond <= 0 {
		rcond = DefaultRcond
	}

	var svd mat.SVD
	if ok := svd.Factorize(k, mat.SVDThin); !ok {
		return nil, errors.New("identify: SVD did not converge")
	}
	sv := svd.Values(nil)
	rank := 0
	for _, s := range sv {
		if s > rcond*sv[0] {
			rank++
		}
	}

	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)

	// p = V·Σ⁺·Uᵀ·y over the retained singular values.
	coef := mat.NewVecDense(len(sv), nil)
	coef.MulVec(u.T(), y)
	for i := range sv {
		if i < rank {
			coef.SetVec(i, coef.AtVec(i)/sv[i])
		} else {
			coef.SetVec(i, 0)
		}
	}
	p := mat.NewVecDense(cols, nil)
	p.MulVec(&v, coef)

	return &Estimate{
		Params:   p,
		Rank:     rank,
		Singular: sv,
		Residual: RMS(k, p, y),
	}, nil
}

// RMS returns the root mean square of K·p − Y.
func RMS(k *mat.Dense, p, y *mat.VecDense) float64 {
	var r mat.VecDense
	r.MulVec(k, p)
	r.SubVec(&r, y)
	n := r.Len()
	if n == 0 {
		return 0
	}
	return mat.Norm(&r, 2) / math.Sqrt(float64(n))
}

// BodyParams returns the ten parameters of body i from a stacked vector.
func BodyParams(p *mat.VecDense, i int) spatial.Params {
	var out spatial.Params
	for k := range out {
		out[k] = p.AtVec(spatial.NumParams*i + k)
	}
	return out
}

// Apply writes the estimate into tree. Bodies whose estimate is not
// physically valid keep their previous parameters; every such body is
// reported in the returned error.
func Apply(tree *model.Tree, est *Estimate) error {
	if est.Params.Len() != spatial.NumParams*tree.NumBodies() {
		return fmt.Errorf("identify: estimate has %d parameters, tree needs %d",
			est.Params.Len(), spatial.NumParams*tree.NumBodies())
	}
	var errs error
	for i := 0; i < tree.NumBodies(); i++ {
		if err := tree.SetParams(i, BodyParams(est.Params, i)); err != nil {
			errs = multierr.Append(errs, err)
		}
	}
	return errs
}
