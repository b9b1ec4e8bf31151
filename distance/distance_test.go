package distance

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSquaredL2(t *testing.T) {
	tests := []struct {
		name     string
		a, b     []float32
		expected float64
	}{
		{"Simple", []float32{1, 2, 3}, []float32{4, 5, 6}, 27},
		{"Zero", []float32{0, 0, 0}, []float32{0, 0, 0}, 0},
		{"Identical", []float32{1, 2, 3}, []float32{1, 2, 3}, 0},
		{"Mixed", []float32{1, -1}, []float32{-1, 1}, 8},
		{"Empty", []float32{}, []float32{}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SquaredL2(tt.a, tt.b))
			assert.Equal(t, tt.expected, SquaredL2(tt.b, tt.a))
		})
	}
}

func TestL2(t *testing.T) {
	assert.Equal(t, 5.0, L2([]float32{0, 0}, []float32{3, 4}))
	assert.Equal(t, 0.0, L2([]float32{1, 1}, []float32{1, 1}))
}

func TestDot(t *testing.T) {
	assert.Equal(t, 32.0, Dot([]float32{1, 2, 3}, []float32{4, 5, 6}))
	assert.Equal(t, -4.0, Dot([]float32{1, -1, 2}, []float32{1, 1, -2}))
}

func TestCosine(t *testing.T) {
	tests := []struct {
		name     string
		a, b     []float32
		expected float64
	}{
		{"Same", []float32{1, 0}, []float32{2, 0}, 0},
		{"Orthogonal", []float32{1, 0}, []float32{0, 3}, 1},
		{"Opposite", []float32{1, 0}, []float32{-1, 0}, 2},
		{"ZeroVector", []float32{0, 0}, []float32{1, 0}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, Cosine(tt.a, tt.b), 1e-12)
			assert.GreaterOrEqual(t, Cosine(tt.a, tt.b), 0.0)
		})
	}
}

func TestL1(t *testing.T) {
	assert.Equal(t, 7.0, L1([]float32{0, 0}, []float32{3, -4}))
}

func TestProvider(t *testing.T) {
	for _, m := range []Metric{MetricL2, MetricSquaredL2, MetricCosine, MetricL1} {
		fn, err := Provider(m)
		require.NoError(t, err, m.String())
		assert.NotNil(t, fn)
	}

	_, err := Provider(Metric(99))
	assert.Error(t, err)
	assert.Equal(t, "Unknown(99)", Metric(99).String())
}

func TestParseMetric(t *testing.T) {
	tests := map[string]Metric{
		"":            MetricL2,
		"euclidean":   MetricL2,
		"L2":          MetricL2,
		"sqeuclidean": MetricSquaredL2,
		"cosine":      MetricCosine,
		"manhattan":   MetricL1,
	}
	for in, want := range tests {
		got, err := ParseMetric(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseMetric("hamming")
	assert.Error(t, err)
}

func TestNormalizeL2(t *testing.T) {
	v := []float32{3, 4}
	NormalizeL2(v, DefaultEpsilon)
	assert.InDelta(t, 0.6, v[0], 1e-6)
	assert.InDelta(t, 0.8, v[1], 1e-6)
	assert.InDelta(t, 1.0, Norm(v), 1e-6)
}

func TestNormalizeL2_ZeroRow(t *testing.T) {
	v := []float32{0, 0, 0}
	NormalizeL2(v, DefaultEpsilon)
	assert.Equal(t, []float32{0, 0, 0}, v)

	NormalizeL2(v, 0)
	for _, x := range v {
		assert.False(t, math.IsNaN(float64(x)))
	}
}

func TestNormalizeRows(t *testing.T) {
	data := []float32{3, 4, 0, 0, 0, 5}
	NormalizeRows(data, 2, DefaultEpsilon)

	assert.InDelta(t, 0.6, data[0], 1e-6)
	assert.InDelta(t, 0.8, data[1], 1e-6)
	assert.Equal(t, float32(0), data[2])
	assert.Equal(t, float32(0), data[3])
	assert.InDelta(t, 0.0, data[4], 1e-6)
	assert.InDelta(t, 1.0, data[5], 1e-6)
}
