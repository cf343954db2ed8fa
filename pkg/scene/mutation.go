package scene

import (
	"fmt"

	"github.com/df07/go-progressive-pathtracer/pkg/core"
	"github.com/df07/go-progressive-pathtracer/pkg/geometry"
	"github.com/df07/go-progressive-pathtracer/pkg/lights"
	"github.com/df07/go-progressive-pathtracer/pkg/material"
)

// Mutations below do not lock. When a renderer shares the scene, wrap them in
// BeginEdit/CommitEdit/EndEdit (or Edit). Outside an edit each successful
// mutation bumps the version itself.

// AddMesh registers a mesh and returns its index
func (s *Scene) AddMesh(mesh *geometry.Mesh) (int, error) {
	if mesh == nil {
		return -1, fmt.Errorf("add mesh: %w", ErrInvalidMesh)
	}
	s.Meshes = append(s.Meshes, mesh)
	s.touch()
	return len(s.Meshes) - 1, nil
}

// AddMaterial registers a material and returns its index
func (s *Scene) AddMaterial(mat material.Material) (int, error) {
	if mat == nil {
		return -1, fmt.Errorf("add material: %w", ErrInvalidMaterial)
	}
	s.Materials = append(s.Materials, mat)
	s.touch()
	return len(s.Materials) - 1, nil
}

// AddTexture registers a texture and returns its reference
func (s *Scene) AddTexture(tex material.Texture) (material.TextureRef, error) {
	if tex == nil {
		return material.NoTexture, fmt.Errorf("add texture: %w", ErrInvalidTexture)
	}
	s.Textures = append(s.Textures, tex)
	s.touch()
	return material.TextureRef(len(s.Textures) - 1), nil
}

// AddLight registers a light
func (s *Scene) AddLight(light lights.Light) (int, error) {
	if light == nil {
		return -1, fmt.Errorf("add light: %w", ErrInvalidLight)
	}
	s.Lights = append(s.Lights, light)
	s.lightSampler = lights.NewUniformLightSampler(s.Lights)
	s.touch()
	return len(s.Lights) - 1, nil
}

// AddObject places mesh with mat. The BVH picks the object up on the next
// Build or CommitEdit.
func (s *Scene) AddObject(name string, mesh, mat int) (int, error) {
	if mesh < 0 || mesh >= len(s.Meshes) {
		return -1, fmt.Errorf("add object %q: mesh %d: %w", name, mesh, ErrInvalidMesh)
	}
	if mat < 0 || mat >= len(s.Materials) {
		return -1, fmt.Errorf("add object %q: material %d: %w", name, mat, ErrInvalidMaterial)
	}
	s.Objects = append(s.Objects, Object{Name: name, Mesh: mesh, Material: mat})
	s.touch()
	return len(s.Objects) - 1, nil
}

// RemoveObject deletes object i and rebuilds the BVH
func (s *Scene) RemoveObject(i int) error {
	if i < 0 || i >= len(s.Objects) {
		return fmt.Errorf("remove object %d: %w", i, ErrInvalidObject)
	}
	s.Objects = append(s.Objects[:i], s.Objects[i+1:]...)
	s.Build()
	s.touch()
	return nil
}

// RemoveMaterial deletes material i. Objects that used it fall back to
// material 0; later indices shift down by one.
func (s *Scene) RemoveMaterial(i int) error {
	if i < 0 || i >= len(s.Materials) {
		return fmt.Errorf("remove material %d: %w", i, ErrInvalidMaterial)
	}
	s.Materials = append(s.Materials[:i], s.Materials[i+1:]...)
	for j := range s.Objects {
		mat := &s.Objects[j].Material
		if *mat == i {
			*mat = 0
		} else if *mat > i {
			*mat--
		}
	}
	s.touch()
	return nil
}

// RemoveMesh deletes mesh i together with the objects placing it; later
// mesh indices shift down by one. The BVH is rebuilt.
func (s *Scene) RemoveMesh(i int) error {
	if i < 0 || i >= len(s.Meshes) {
		return fmt.Errorf("remove mesh %d: %w", i, ErrInvalidMesh)
	}
	s.Meshes = append(s.Meshes[:i], s.Meshes[i+1:]...)

	kept := s.Objects[:0]
	for _, obj := range s.Objects {
		switch {
		case obj.Mesh == i:
			logger.Infof("removing object %q with its mesh", obj.Name)
			continue
		case obj.Mesh > i:
			obj.Mesh--
		}
		kept = append(kept, obj)
	}
	s.Objects = kept
	s.Build()
	s.touch()
	return nil
}

// RemoveLight deletes light i
func (s *Scene) RemoveLight(i int) error {
	if i < 0 || i >= len(s.Lights) {
		return fmt.Errorf("remove light %d: %w", i, ErrInvalidLight)
	}
	s.Lights = append(s.Lights[:i], s.Lights[i+1:]...)
	s.lightSampler = lights.NewUniformLightSampler(s.Lights)
	s.touch()
	return nil
}

// SetObjectMaterial assigns material mat to object i
func (s *Scene) SetObjectMaterial(i, mat int) error {
	if i < 0 || i >= len(s.Objects) {
		return fmt.Errorf("set material of object %d: %w", i, ErrInvalidObject)
	}
	if mat < 0 || mat >= len(s.Materials) {
		return fmt.Errorf("set material of object %d: %w", i, ErrInvalidMaterial)
	}
	s.Objects[i].Material = mat
	s.touch()
	return nil
}

// MoveObject translates the mesh of object i by delta and updates the BVH
// incrementally. Every object placing the same mesh moves with it.
func (s *Scene) MoveObject(i int, delta core.Vec3) error {
	mesh, err := s.ObjectMesh(i)
	if err != nil {
		return fmt.Errorf("move object %d: %w", i, err)
	}
	mesh.Translate(delta)
	return s.recalculateMesh(s.Objects[i].Mesh)
}

// RotateObject rotates the mesh of object i about axis by angle radians
func (s *Scene) RotateObject(i int, axis core.Vec3, angle float64) error {
	mesh, err := s.ObjectMesh(i)
	if err != nil {
		return fmt.Errorf("rotate object %d: %w", i, err)
	}
	mesh.Rotate(axis, angle)
	return s.recalculateMesh(s.Objects[i].Mesh)
}

// RecalculateObject grows the BVH nodes above object i to cover its current
// mesh bounds. Nodes never shrink; call Build to tighten them.
func (s *Scene) RecalculateObject(i int) error {
	mesh, err := s.ObjectMesh(i)
	if err != nil {
		return fmt.Errorf("recalculate object %d: %w", i, err)
	}
	if i >= s.bvh.Len() {
		// Added since the last build
		s.Build()
	} else {
		s.bvh.RecalculateObject(i, mesh.Bounds())
	}
	s.touch()
	return nil
}

func (s *Scene) recalculateMesh(mesh int) error {
	for j, obj := range s.Objects {
		if obj.Mesh != mesh {
			continue
		}
		if err := s.RecalculateObject(j); err != nil {
			return err
		}
	}
	return nil
}
