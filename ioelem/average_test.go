package ioelem

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGradualAverageMatchesAddValueVsAddValues(t *testing.T) {
	a, b := &GradualAverage{}, &GradualAverage{}
	samples := make([]float64, 15)
	var sum float64
	for i := range samples {
		samples[i] = float64(rand.Intn(2000))
		sum += samples[i]
	}

	a.AddValues(samples)
	for _, v := range samples {
		b.AddValue(v)
	}

	assert.InDelta(t, a.Avg(), b.Avg(), 1e-9)
	assert.InDelta(t, sum/float64(len(samples)), a.Avg(), 1e-9)
}

func TestLimitedAverageOnlyConsidersWindow(t *testing.T) {
	a := NewLimitedAverage(10)
	samples := make([]float64, 16)
	for i := range samples {
		samples[i] = float64(rand.Intn(2000))
	}
	a.AddValues(samples)

	var sum float64
	for _, v := range samples[len(samples)-10:] {
		sum += v
	}
	assert.InDelta(t, sum/10, a.Avg(), 1e-9)
}
