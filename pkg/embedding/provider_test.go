package embedding

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeVector(t *testing.T) {
	out := normalizeVector([]float32{3, 4})
	assert.InDelta(t, 0.6, out[0], 1e-6)
	assert.InDelta(t, 0.8, out[1], 1e-6)

	var magnitude float64
	for _, v := range out {
		magnitude += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, math.Sqrt(magnitude), 1e-6)
}

func TestNormalizeVectorZero(t *testing.T) {
	in := []float32{0, 0, 0}
	assert.Equal(t, in, normalizeVector(in))
}

func TestNewProvider(t *testing.T) {
	p, err := NewProvider(Config{Provider: "ollama", Dimensions: 1024})
	assert.NoError(t, err)
	assert.Equal(t, 1024, p.Dimensions())

	_, err = NewProvider(Config{Provider: "opensearch"})
	assert.Error(t, err)
}
