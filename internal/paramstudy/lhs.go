package paramstudy

import (
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/samplemv"

	"github.com/banshee-data/paramstudy/internal/monitoring"
)

// LatinHypercube draws num_samples stratified samples: each dimension's unit
// interval is cut into num_samples equal strata, every stratum receives one
// sample, and strata are permuted independently per dimension. Without a
// seed every run yields a different study.
type LatinHypercube struct {
	Logf monitoring.Logf
}

// Method implements Generator.
func (LatinHypercube) Method() Method { return MethodLatinHypercube }

// Validate implements Generator.
func (LatinHypercube) Validate(s *Schema) error {
	if err := s.validateNames(); err != nil {
		return err
	}
	return s.validateDistributions()
}

// Generate implements Generator.
func (l LatinHypercube) Generate(s *Schema) ([]ParameterSet, error) {
	if err := l.Validate(s); err != nil {
		return nil, err
	}
	logf := monitoring.OrDiscard(l.Logf)
	n, seed, _ := s.samplingSettings()
	warnFixedParameters(s, MethodLatinHypercube, n, logf)
	src, _ := newSource(seed, MethodLatinHypercube, logf)

	batch := mat.NewDense(n, len(s.Parameters), nil)
	samplemv.LatinHypercube{Q: unitCube{}, Src: src}.Sample(batch)

	return unitSamplesToSets(s, batch.RawRowView, n), nil
}

// unitCube is the identity quantile over [0, 1)^d; distributions are applied
// per parameter afterwards.
type unitCube struct{}

func (unitCube) Quantile(x, p []float64) []float64 {
	if x == nil {
		x = make([]float64, len(p))
	}
	copy(x, p)
	return x
}
