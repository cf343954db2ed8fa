package core

// SurfaceInteraction describes a ray-surface hit
type SurfaceInteraction struct {
	Position    Vec3
	Normal      Vec3 // outward shading normal until FaceForward is called
	Wo          Vec3 // toward the ray origin
	UV          Vec2
	Distance    float64
	ObjectIndex int
	FrontFace   bool
}

// FaceForward flips Normal so that it points against the incoming ray
func (si *SurfaceInteraction) FaceForward() {
	if !si.FrontFace {
		si.Normal = si.Normal.Negate()
	}
}
