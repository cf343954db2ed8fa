package scene

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/df07/go-progressive-pathtracer/pkg/core"
	"github.com/df07/go-progressive-pathtracer/pkg/geometry"
	"github.com/df07/go-progressive-pathtracer/pkg/lights"
	"github.com/df07/go-progressive-pathtracer/pkg/log"
	"github.com/df07/go-progressive-pathtracer/pkg/material"
)

var logger = log.New("scene")

// Errors returned by the mutation API
var (
	ErrInvalidMesh     = errors.New("scene: invalid mesh index")
	ErrInvalidMaterial = errors.New("scene: invalid material index")
	ErrInvalidObject   = errors.New("scene: invalid object index")
	ErrInvalidLight    = errors.New("scene: invalid light index")
	ErrInvalidTexture  = errors.New("scene: invalid texture")
	ErrNotEditing      = errors.New("scene: no edit in progress")
)

// Object places a registered mesh in the scene with a registered material
type Object struct {
	Name     string
	Mesh     int
	Material int
}

// CameraConfig is the camera placement a preset scene suggests
type CameraConfig struct {
	Center        core.Vec3 // Camera position
	LookAt        core.Vec3 // Point the camera looks at
	Up            core.Vec3 // Up direction
	VFov          float64   // Vertical field of view in degrees
	Aperture      float64   // Lens diameter, 0 for a pinhole
	FocusDistance float64   // 0 focuses on LookAt
}

// Scene owns meshes, materials, textures, lights and objects plus the
// object-level BVH built over them. Objects reference meshes and materials
// by index; the mutation API keeps those indices valid.
type Scene struct {
	Name   string
	Camera CameraConfig

	Meshes    []*geometry.Mesh
	Materials []material.Material
	Textures  material.Textures
	Lights    []lights.Light
	Objects   []Object

	// Environment is sampled with a spherical mapping on a miss. NoTexture
	// falls back to the sky gradient.
	Environment material.TextureRef

	// BlackBackground disables both the environment and the sky gradient
	BlackBackground bool

	bvh          *core.BVH
	lightSampler *lights.UniformLightSampler

	mu      sync.RWMutex
	editing bool
	version atomic.Uint64
}

// New creates an empty scene
func New(name string) *Scene {
	s := &Scene{
		Name:        name,
		Environment: material.NoTexture,
		Camera: CameraConfig{
			Center: core.NewVec3(0, 0, 5),
			Up:     core.NewVec3(0, 1, 0),
			VFov:   40,
		},
	}
	s.Build()
	return s
}

// Build rebuilds the object BVH from current mesh bounds and refreshes the
// light sampler. Objects with a dangling mesh index get empty bounds.
func (s *Scene) Build() {
	bounds := make([]core.Bounds, len(s.Objects))
	for i, obj := range s.Objects {
		if mesh := s.mesh(obj.Mesh); mesh != nil {
			bounds[i] = mesh.Bounds()
		} else {
			bounds[i] = core.EmptyBounds()
		}
	}
	s.bvh = core.BuildBVH(bounds)
	s.lightSampler = lights.NewUniformLightSampler(s.Lights)

	if log.Enabled(log.Debug) {
		stats := s.bvh.Stats()
		logger.Debugf("built %q: %d objects, %d nodes, depth %d", s.Name, len(s.Objects), stats.TotalNodes, stats.MaxDepth)
	}
}

// BVH returns the object-level acceleration structure
func (s *Scene) BVH() *core.BVH {
	return s.bvh
}

// LightSampler returns the sampler over the current lights
func (s *Scene) LightSampler() lights.LightSampler {
	return s.lightSampler
}

// Version is bumped by every committed edit and by every mutation made
// outside an edit
func (s *Scene) Version() uint64 {
	return s.version.Load()
}

// touch records a mutation. Inside an edit CommitEdit bumps the version once.
func (s *Scene) touch() {
	if !s.editing {
		s.version.Add(1)
	}
}

// RLock holds off edits while a frame reads the scene
func (s *Scene) RLock() {
	s.mu.RLock()
}

// RUnlock releases a read lock taken with RLock
func (s *Scene) RUnlock() {
	s.mu.RUnlock()
}

// BeginEdit takes exclusive access to the scene. Rendering blocks until EndEdit.
func (s *Scene) BeginEdit() {
	s.mu.Lock()
	s.editing = true
}

// CommitEdit rebuilds acceleration data and bumps the version so renderers
// restart accumulation. It may be called several times within one edit.
func (s *Scene) CommitEdit() error {
	if !s.editing {
		return ErrNotEditing
	}
	s.Build()
	s.version.Add(1)
	return nil
}

// EndEdit releases the scene
func (s *Scene) EndEdit() error {
	if !s.editing {
		return ErrNotEditing
	}
	s.editing = false
	s.mu.Unlock()
	return nil
}

// Edit runs fn inside BeginEdit/EndEdit and commits when fn succeeds
func (s *Scene) Edit(fn func(s *Scene) error) error {
	s.BeginEdit()
	defer s.EndEdit()

	if err := fn(s); err != nil {
		return err
	}
	return s.CommitEdit()
}

// Intersect finds the nearest object hit, tightening ray.TMax and setting
// si.ObjectIndex.
func (s *Scene) Intersect(ray *core.Ray, si *core.SurfaceInteraction) bool {
	return s.bvh.Intersect(ray, s, si)
}

// HasIntersections reports whether anything blocks the ray before ray.TMax
func (s *Scene) HasIntersections(ray *core.Ray) bool {
	return s.bvh.HasIntersections(ray, s)
}

// IntersectPrimitive tests object i
func (s *Scene) IntersectPrimitive(i int, ray *core.Ray, si *core.SurfaceInteraction) bool {
	mesh := s.mesh(s.Objects[i].Mesh)
	if mesh == nil || !mesh.Intersect(ray, si) {
		return false
	}
	si.ObjectIndex = i
	return true
}

// IntersectPrimitiveP is the any-hit test of object i
func (s *Scene) IntersectPrimitiveP(i int, ray *core.Ray) bool {
	mesh := s.mesh(s.Objects[i].Mesh)
	return mesh != nil && mesh.IntersectP(ray)
}

// Material returns the material of object i, or nil when the registry is empty
func (s *Scene) Material(object int) material.Material {
	if len(s.Materials) == 0 || object < 0 || object >= len(s.Objects) {
		return nil
	}
	idx := s.Objects[object].Material
	if idx < 0 || idx >= len(s.Materials) {
		return nil
	}
	return s.Materials[idx]
}

// ObjectMesh returns the mesh placed by object i
func (s *Scene) ObjectMesh(object int) (*geometry.Mesh, error) {
	if object < 0 || object >= len(s.Objects) {
		return nil, ErrInvalidObject
	}
	mesh := s.mesh(s.Objects[object].Mesh)
	if mesh == nil {
		return nil, ErrInvalidMesh
	}
	return mesh, nil
}

// TriangleCount returns the total triangles referenced by objects
func (s *Scene) TriangleCount() int {
	count := 0
	for _, obj := range s.Objects {
		if mesh := s.mesh(obj.Mesh); mesh != nil {
			count += mesh.TriangleCount()
		}
	}
	return count
}

func (s *Scene) mesh(i int) *geometry.Mesh {
	if i < 0 || i >= len(s.Meshes) {
		return nil
	}
	return s.Meshes[i]
}
