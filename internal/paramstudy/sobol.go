package paramstudy

import (
	"fmt"
	"math/bits"
	"math/rand/v2"

	"github.com/banshee-data/paramstudy/internal/monitoring"
)

const sobolBits = 32

// sobolPrimitives holds Joe and Kuo direction numbers for dimensions 2..21:
// polynomial degree s, coefficient word a, and initial numbers m_1..m_s.
var sobolPrimitives = [...]struct {
	s int
	a uint32
	m []uint32
}{
	{1, 0, []uint32{1}},
	{2, 1, []uint32{1, 3}},
	{3, 1, []uint32{1, 3, 1}},
	{3, 2, []uint32{1, 1, 1}},
	{4, 1, []uint32{1, 1, 3, 3}},
	{4, 4, []uint32{1, 3, 5, 13}},
	{5, 2, []uint32{1, 1, 5, 5, 17}},
	{5, 4, []uint32{1, 1, 5, 5, 5}},
	{5, 7, []uint32{1, 1, 7, 11, 19}},
	{5, 11, []uint32{1, 1, 5, 1, 1}},
	{5, 13, []uint32{1, 1, 1, 3, 11}},
	{5, 14, []uint32{1, 3, 5, 5, 31}},
	{6, 1, []uint32{1, 3, 3, 9, 7, 49}},
	{6, 13, []uint32{1, 1, 1, 15, 21, 21}},
	{6, 16, []uint32{1, 3, 1, 13, 27, 49}},
	{6, 19, []uint32{1, 1, 1, 15, 7, 5}},
	{6, 22, []uint32{1, 3, 1, 15, 13, 25}},
	{6, 25, []uint32{1, 1, 5, 5, 19, 61}},
	{7, 1, []uint32{1, 3, 7, 11, 23, 15, 103}},
	{7, 4, []uint32{1, 3, 7, 13, 13, 15, 69}},
}

// MaxSobolDimensions is the number of parameters a Sobol study supports.
const MaxSobolDimensions = len(sobolPrimitives) + 1

// SobolSequence draws num_samples points of a Sobol low-discrepancy
// sequence jointly across all parameters. Scramble (default on) applies a
// seeded random digital shift; with scramble off the sequence starts at the
// origin and is fully deterministic.
type SobolSequence struct {
	Logf monitoring.Logf
}

// Method implements Generator.
func (SobolSequence) Method() Method { return MethodSobolSequence }

// Validate implements Generator.
func (SobolSequence) Validate(s *Schema) error {
	if err := s.validateNames(); err != nil {
		return err
	}
	if len(s.Parameters) > MaxSobolDimensions {
		return &SchemaError{Constraint: fmt.Sprintf("sobol sequence supports at most %d parameters, got %d", MaxSobolDimensions, len(s.Parameters))}
	}
	return s.validateDistributions()
}

// Generate implements Generator.
func (g SobolSequence) Generate(s *Schema) ([]ParameterSet, error) {
	if err := g.Validate(s); err != nil {
		return nil, err
	}
	logf := monitoring.OrDiscard(g.Logf)
	n, seed, _ := s.samplingSettings()
	if n&(n-1) != 0 {
		logf("sobol_sequence: num_samples %d is not a power of two, balance properties are not guaranteed", n)
	}

	warnFixedParameters(s, MethodSobolSequence, n, logf)

	gen := newSobolGenerator(len(s.Parameters))
	if s.Scramble == nil || *s.Scramble {
		src, _ := newSource(seed, MethodSobolSequence, logf)
		gen.shift(rand.New(src))
	}

	points := make([][]float64, n)
	for i := range points {
		points[i] = gen.next()
	}
	return unitSamplesToSets(s, func(i int) []float64 { return points[i] }, n), nil
}

// sobolGenerator produces points in Gray code order.
type sobolGenerator struct {
	v      [][sobolBits]uint32
	x      []uint32
	shifts []uint32
	index  uint32
}

func newSobolGenerator(dims int) *sobolGenerator {
	g := &sobolGenerator{
		v:      make([][sobolBits]uint32, dims),
		x:      make([]uint32, dims),
		shifts: make([]uint32, dims),
	}
	for k := 0; k < sobolBits; k++ {
		g.v[0][k] = 1 << (sobolBits - 1 - k)
	}
	for d := 1; d < dims; d++ {
		p := sobolPrimitives[d-1]
		v := &g.v[d]
		for k := 0; k < p.s && k < sobolBits; k++ {
			v[k] = p.m[k] << (sobolBits - 1 - k)
		}
		for k := p.s; k < sobolBits; k++ {
			v[k] = v[k-p.s] ^ (v[k-p.s] >> p.s)
			for l := 1; l < p.s; l++ {
				if (p.a>>(p.s-1-l))&1 == 1 {
					v[k] ^= v[k-l]
				}
			}
		}
	}
	return g
}

// shift applies a random digital shift to every dimension.
func (g *sobolGenerator) shift(r *rand.Rand) {
	for d := range g.shifts {
		g.shifts[d] = r.Uint32()
	}
}

// next returns the next point in [0, 1)^dims.
func (g *sobolGenerator) next() []float64 {
	if g.index > 0 {
		c := bits.TrailingZeros32(^(g.index - 1))
		for d := range g.x {
			g.x[d] ^= g.v[d][c]
		}
	}
	g.index++

	const scale = 1.0 / (1 << sobolBits)
	point := make([]float64, len(g.x))
	for d, x := range g.x {
		point[d] = float64(x^g.shifts[d]) * scale
	}
	return point
}
