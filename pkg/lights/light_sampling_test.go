package lights

import (
	"math"
	"testing"

	"github.com/df07/go-progressive-pathtracer/pkg/core"
)

func TestUniformLightSampler_Empty(t *testing.T) {
	s := NewUniformLightSampler(nil)
	light, prob, idx := s.SampleLight(0.5)
	if light != nil || prob != 0 || idx != -1 {
		t.Errorf("Expected no light, got %v %f %d", light, prob, idx)
	}
}

func TestUniformLightSampler_Distribution(t *testing.T) {
	lights := []Light{
		NewSphericalLight(core.NewVec3(0, 1, 0), 1, core.NewVec3(1, 1, 1), 1),
		NewSphericalLight(core.NewVec3(0, 2, 0), 1, core.NewVec3(1, 1, 1), 1),
		NewSphericalLight(core.NewVec3(0, 3, 0), 1, core.NewVec3(1, 1, 1), 1),
	}
	s := NewUniformLightSampler(lights)
	sampler := core.NewSeededSampler(42)

	counts := make([]int, len(lights))
	const n = 30000
	for i := 0; i < n; i++ {
		light, prob, idx := s.SampleLight(sampler.Get1D())
		if light != lights[idx] {
			t.Fatalf("Index %d does not match the returned light", idx)
		}
		if math.Abs(prob-1.0/3.0) > 1e-12 {
			t.Fatalf("Expected probability 1/3, got %f", prob)
		}
		counts[idx]++
	}
	for i, c := range counts {
		if frac := float64(c) / n; math.Abs(frac-1.0/3.0) > 0.02 {
			t.Errorf("Light %d chosen %f of the time", i, frac)
		}
	}

	// u just below 1 must stay in range
	if _, _, idx := s.SampleLight(0.9999999999); idx != 2 {
		t.Errorf("Expected last light, got %d", idx)
	}
}
