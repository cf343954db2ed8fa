package integrator

import (
	"github.com/df07/go-progressive-pathtracer/pkg/core"
)

// Integrator defines the interface for light transport algorithms
type Integrator interface {
	// TraceRay returns the radiance carried back along ray in XYZ and the
	// distance to the first hit in W (math.MaxFloat64 when nothing is hit).
	TraceRay(ray core.Ray, sampler core.Sampler) core.Vec4
}
