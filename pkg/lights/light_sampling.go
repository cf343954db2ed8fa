package lights

// UniformLightSampler picks every light with equal probability. Variance
// grows with the number of lights since only one is sampled per bounce.
type UniformLightSampler struct {
	lights []Light
}

// NewUniformLightSampler creates a sampler over lights
func NewUniformLightSampler(lights []Light) *UniformLightSampler {
	return &UniformLightSampler{lights: lights}
}

// SampleLight maps u in [0, 1) to a light index
func (s *UniformLightSampler) SampleLight(u float64) (Light, float64, int) {
	n := len(s.lights)
	if n == 0 {
		return nil, 0, -1
	}
	idx := min(int(u*float64(n)), n-1)
	return s.lights[idx], 1.0 / float64(n), idx
}

// Count returns the number of lights
func (s *UniformLightSampler) Count() int {
	return len(s.lights)
}
