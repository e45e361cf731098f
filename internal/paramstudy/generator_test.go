package paramstudy

import (
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedPtr(s uint64) *uint64 { return &s }

func uniformSchema(method Method, n int, seed *uint64, bounds ...[2]float64) *Schema {
	s := &Schema{Method: method, NumSamples: n, Seed: seed}
	for i, b := range bounds {
		s.Parameters = append(s.Parameters, Parameter{
			Name:         fmt.Sprintf("p%d", i),
			Distribution: &Distribution{Name: DistUniform, Bounds: []float64{b[0], b[1]}},
		})
	}
	return s
}

func TestGeneratorFor(t *testing.T) {
	for _, m := range Methods {
		g, err := GeneratorFor(m, nil)
		require.NoError(t, err)
		assert.Equal(t, m, g.Method())
	}
	_, err := GeneratorFor("", nil)
	assert.Error(t, err)
	_, err = GeneratorFor("monte_carlo", nil)
	assert.Error(t, err)
}

func TestCartesianProduct_Generate(t *testing.T) {
	s := mustParse(t, "A: [1, 2]\nB: [x, y]\nC: [9]\n")
	sets, err := CartesianProduct{}.Generate(s)
	require.NoError(t, err)

	want := []ParameterSet{
		{"A": Int(1), "B": String("x"), "C": Int(9)},
		{"A": Int(1), "B": String("y"), "C": Int(9)},
		{"A": Int(2), "B": String("x"), "C": Int(9)},
		{"A": Int(2), "B": String("y"), "C": Int(9)},
	}
	require.Len(t, sets, len(want))
	for i := range want {
		if !sets[i].Equal(want[i]) {
			t.Errorf("set %d: expected %v, got %v", i, want[i], sets[i])
		}
	}
}

func TestCartesianProduct_Validate(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"duplicate value", "A: [1, 2, 1]"},
		{"int and float duplicate", "A: [1, 1.0]"},
		{"mixed kinds", "A: [1, x]"},
		{"distribution", "method: cartesian_product\nA: {bounds: [0, 1]}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := mustParse(t, tt.doc)
			requireSchemaError(t, CartesianProduct{}.Validate(s), "A")
		})
	}

	t.Run("int and float mix", func(t *testing.T) {
		s := mustParse(t, "A: [1, 2.5]")
		assert.NoError(t, CartesianProduct{}.Validate(s))
	})

	t.Run("combination limit", func(t *testing.T) {
		var b strings.Builder
		for p := 0; p < 4; p++ {
			fmt.Fprintf(&b, "p%d: [", p)
			for v := 0; v < 20; v++ {
				if v > 0 {
					b.WriteString(", ")
				}
				fmt.Fprintf(&b, "%d", v)
			}
			b.WriteString("]\n")
		}
		s := mustParse(t, b.String())
		se := requireSchemaError(t, CartesianProduct{}.Validate(s), "")
		assert.Contains(t, se.Constraint, "safe limit")
	})
}

func TestLatinHypercube_BoundsAndStratification(t *testing.T) {
	const n = 10
	s := uniformSchema(MethodLatinHypercube, n, seedPtr(42), [2]float64{0, 10}, [2]float64{-1, 1})

	sets, err := LatinHypercube{}.Generate(s)
	require.NoError(t, err)
	require.Len(t, sets, n)

	strata := make(map[int]bool)
	for _, set := range sets {
		x, y := set["p0"].Float64(), set["p1"].Float64()
		if x < 0 || x > 10 || y < -1 || y > 1 {
			t.Errorf("sample out of bounds: p0=%g p1=%g", x, y)
		}
		strata[int(math.Floor(x))] = true
	}
	assert.Len(t, strata, n, "each stratum of p0 should hold exactly one sample")
}

func TestLatinHypercube_Seeded(t *testing.T) {
	a, err := LatinHypercube{}.Generate(uniformSchema(MethodLatinHypercube, 5, seedPtr(7), [2]float64{0, 1}))
	require.NoError(t, err)
	b, err := LatinHypercube{}.Generate(uniformSchema(MethodLatinHypercube, 5, seedPtr(7), [2]float64{0, 1}))
	require.NoError(t, err)
	c, err := LatinHypercube{}.Generate(uniformSchema(MethodLatinHypercube, 5, seedPtr(8), [2]float64{0, 1}))
	require.NoError(t, err)

	same, differs := true, false
	for i := range a {
		same = same && a[i].Equal(b[i])
		differs = differs || !a[i].Equal(c[i])
	}
	assert.True(t, same, "same seed should reproduce the samples")
	assert.True(t, differs, "different seeds should give different samples")
}

func TestLatinHypercube_UnseededLogsSeed(t *testing.T) {
	var logged []string
	logf := func(format string, v ...interface{}) { logged = append(logged, fmt.Sprintf(format, v...)) }

	_, err := LatinHypercube{Logf: logf}.Generate(uniformSchema(MethodLatinHypercube, 3, nil, [2]float64{0, 1}))
	require.NoError(t, err)
	require.Len(t, logged, 1)
	assert.Contains(t, logged[0], "sampling with seed")
}

func TestLatinHypercube_NonUniform(t *testing.T) {
	s := mustParse(t, `
method: latin_hypercube
num_samples: 20
seed: 1
n: {distribution: normal, loc: 10, scale: 2}
t: {distribution: triangular, bounds: [0, 4], mode: 1}
`)
	sets, err := LatinHypercube{}.Generate(s)
	require.NoError(t, err)
	for _, set := range sets {
		v := set["t"].Float64()
		if v < 0 || v > 4 {
			t.Errorf("triangular sample %g outside [0, 4]", v)
		}
		if math.IsInf(set["n"].Float64(), 0) {
			t.Error("normal sample should be finite")
		}
	}
}

func TestSobolSequence_Unscrambled(t *testing.T) {
	s := uniformSchema(MethodSobolSequence, 4, nil, [2]float64{0, 1}, [2]float64{0, 1})
	off := false
	s.Scramble = &off

	sets, err := SobolSequence{}.Generate(s)
	require.NoError(t, err)

	want := [][2]float64{{0, 0}, {0.5, 0.5}, {0.75, 0.25}, {0.25, 0.75}}
	require.Len(t, sets, len(want))
	for i, w := range want {
		assert.Equal(t, w[0], sets[i]["p0"].Float64(), "point %d p0", i)
		assert.Equal(t, w[1], sets[i]["p1"].Float64(), "point %d p1", i)
	}
}

func TestSobolSequence_ScrambledBalance(t *testing.T) {
	const n = 8
	s := uniformSchema(MethodSobolSequence, n, seedPtr(3), [2]float64{0, 1}, [2]float64{0, 1}, [2]float64{0, 1})

	sets, err := SobolSequence{}.Generate(s)
	require.NoError(t, err)
	again, err := SobolSequence{}.Generate(s)
	require.NoError(t, err)

	for d := 0; d < 3; d++ {
		name := fmt.Sprintf("p%d", d)
		cells := make(map[int]bool)
		for i, set := range sets {
			v := set[name].Float64()
			require.True(t, v >= 0 && v < 1, "sample %g out of range", v)
			cells[int(v*n)] = true
			assert.True(t, set.Equal(again[i]), "seeded scramble should be reproducible")
		}
		assert.Len(t, cells, n, "dimension %d should have one point per 1/%d interval", d, n)
	}
}

func TestSobolSequence_NotPowerOfTwoWarns(t *testing.T) {
	var logged []string
	logf := func(format string, v ...interface{}) { logged = append(logged, fmt.Sprintf(format, v...)) }
	s := uniformSchema(MethodSobolSequence, 5, seedPtr(1), [2]float64{0, 1})

	sets, err := SobolSequence{Logf: logf}.Generate(s)
	require.NoError(t, err)
	assert.Len(t, sets, 5)
	require.NotEmpty(t, logged)
	assert.Contains(t, logged[0], "not a power of two")
}

func TestSobolSequence_MaxDimensions(t *testing.T) {
	assert.Equal(t, 21, MaxSobolDimensions)

	bounds := make([][2]float64, MaxSobolDimensions)
	for i := range bounds {
		bounds[i] = [2]float64{0, 1}
	}
	sets, err := SobolSequence{}.Generate(uniformSchema(MethodSobolSequence, 8, seedPtr(3), bounds...))
	require.NoError(t, err)
	assert.Len(t, sets, 8)
}

func TestFixedParametersWarn(t *testing.T) {
	for _, method := range []Method{MethodLatinHypercube, MethodSobolSequence} {
		t.Run(string(method), func(t *testing.T) {
			var logged []string
			logf := func(format string, v ...interface{}) { logged = append(logged, fmt.Sprintf(format, v...)) }
			g, err := GeneratorFor(method, logf)
			require.NoError(t, err)

			s := uniformSchema(method, 4, seedPtr(5), [2]float64{2, 2}, [2]float64{7, 7})
			st, err := Generate(s, Options{Logf: logf})
			require.NoError(t, err)
			assert.Equal(t, 1, st.Len())
			assert.Contains(t, logged, fmt.Sprintf("%s: parameter \"p0\" has lower == upper, every sample takes 2", method))
			assert.Contains(t, logged, fmt.Sprintf("%s: every parameter is fixed, the 4 samples collapse to one parameter set", method))

			logged = nil
			_, err = g.Generate(uniformSchema(method, 4, seedPtr(5), [2]float64{2, 2}, [2]float64{0, 1}))
			require.NoError(t, err)
			assert.Len(t, logged, 1)
		})
	}
}

func TestSobolSequence_TooManyDimensions(t *testing.T) {
	bounds := make([][2]float64, MaxSobolDimensions+1)
	for i := range bounds {
		bounds[i] = [2]float64{0, 1}
	}
	s := uniformSchema(MethodSobolSequence, 4, nil, bounds...)
	requireSchemaError(t, SobolSequence{}.Validate(s), "")
}

func TestCustomStudy(t *testing.T) {
	s, err := NewCustomSchema([]string{"a", "b"}, [][]any{{1, "x"}, {2.5, "y"}})
	require.NoError(t, err)

	sets, err := CustomStudy{}.Generate(s)
	require.NoError(t, err)
	require.Len(t, sets, 2)
	assert.True(t, sets[1]["a"].Equal(Float(2.5)))
	assert.True(t, sets[0]["b"].Equal(String("x")))
}

func TestCustomStudy_Validate(t *testing.T) {
	_, err := NewCustomSchema([]string{"a"}, [][]any{{struct{}{}}})
	requireSchemaError(t, err, "a")

	s, err := NewCustomSchema([]string{"a", "b"}, [][]any{{1, 2}, {3}})
	require.NoError(t, err)
	requireSchemaError(t, CustomStudy{}.Validate(s), "")

	s, err = NewCustomSchema([]string{"a"}, nil)
	require.NoError(t, err)
	requireSchemaError(t, CustomStudy{}.Validate(s), "")

	s, err = NewCustomSchema([]string{"a"}, [][]any{{1}, {"x"}})
	require.NoError(t, err)
	requireSchemaError(t, CustomStudy{}.Validate(s), "a")
}
