package lights

import "github.com/df07/go-progressive-pathtracer/pkg/core"

// LightType names a light variant
type LightType string

const (
	LightTypeSpherical LightType = "spherical"
)

// Light is sampled by the integrator for next-event estimation
type Light interface {
	Type() LightType

	// Sample picks a point on the light visible from the interaction
	Sample(si *core.SurfaceInteraction, sampler core.Sampler) LightSample

	// PDF returns the solid-angle density Sample uses from the interaction
	PDF(si *core.SurfaceInteraction) float64

	// Color returns the emitted radiance
	Color() core.Vec3
}

// LightSample is a point chosen on a light
type LightSample struct {
	Point     core.Vec3 // Point on the light source
	Direction core.Vec3 // Unnormalized vector from the shading point to Point
	Distance  float64   // Length of Direction
}

// LightSampler chooses which light to sample at a bounce
type LightSampler interface {
	// SampleLight returns the chosen light, its selection probability and its index
	SampleLight(u float64) (Light, float64, int)
}
