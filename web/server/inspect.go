package server

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/df07/go-progressive-pathtracer/pkg/core"
	"github.com/df07/go-progressive-pathtracer/pkg/material"
	"github.com/df07/go-progressive-pathtracer/pkg/renderer"
	"github.com/df07/go-progressive-pathtracer/pkg/scene"
)

// InspectResponse represents the JSON response for object inspection
type InspectResponse struct {
	Hit          bool                   `json:"hit"`
	Object       int                    `json:"object"`
	Name         string                 `json:"name"`
	MaterialType string                 `json:"materialType"`
	Point        [3]float64             `json:"point"`
	Normal       [3]float64             `json:"normal"`
	Distance     float64                `json:"distance"`
	FrontFace    bool                   `json:"frontFace"`
	Properties   map[string]interface{} `json:"properties"`
}

// centerSampler aims inspection rays through pixel centers with a pinhole lens
type centerSampler struct{}

func (centerSampler) Get1D() float64   { return 0.5 }
func (centerSampler) Get2D() core.Vec2 { return core.NewVec2(0.5, 0.5) }
func (centerSampler) Get3D() core.Vec3 { return core.Splat(0.5) }

func hexColor(c core.Vec3) string {
	c = c.Clamp(0, 1)
	return fmt.Sprintf("#%02x%02x%02x", int(c.X*255), int(c.Y*255), int(c.Z*255))
}

func vec3JSON(v core.Vec3) [3]float64 {
	return [3]float64{v.X, v.Y, v.Z}
}

// extractMaterialInfo describes a material as evaluated at the hit
func extractMaterialInfo(mat material.Material, si *core.SurfaceInteraction, textures material.Textures) (string, map[string]interface{}) {
	properties := make(map[string]interface{})
	if mat == nil {
		return "none", properties
	}

	albedo := mat.Evaluate(si, textures)
	properties["albedo"] = vec3JSON(albedo)
	properties["color"] = hexColor(albedo)

	switch m := mat.(type) {
	case *material.Diffuse:
		properties["roughness"] = m.Roughness
	case *material.Metallic:
		properties["roughness"] = m.Roughness
	case *material.Glass:
		properties["ior"] = m.IOR
		properties["roughness"] = textures.Value(m.RoughnessMap, si)
	case *material.Emissive:
		emission := m.EvaluateLight(si, textures)
		properties["emission"] = vec3JSON(emission)
		properties["color"] = hexColor(emission)
	}
	return string(material.KindOf(mat)), properties
}

// extractGeometryInfo describes the mesh of a hit object
func extractGeometryInfo(sc *scene.Scene, object int) map[string]interface{} {
	properties := make(map[string]interface{})
	mesh, err := sc.ObjectMesh(object)
	if err != nil {
		return properties
	}
	bounds := mesh.Bounds()
	properties["mesh"] = mesh.Name
	properties["triangleCount"] = mesh.TriangleCount()
	properties["boundingBox"] = map[string]interface{}{
		"min": vec3JSON(bounds.Min),
		"max": vec3JSON(bounds.Max),
	}
	return properties
}

// inspectPixel casts a ray through the center of display pixel (x, y)
func inspectPixel(sc *scene.Scene, config scene.CameraConfig, width, height, x, y int) InspectResponse {
	camera := renderer.NewCamera(config, width, height)
	ray := camera.GetRay(x, y, centerSampler{})

	sc.RLock()
	defer sc.RUnlock()

	var si core.SurfaceInteraction
	if !sc.Intersect(&ray, &si) {
		return InspectResponse{Hit: false}
	}

	mat := sc.Material(si.ObjectIndex)
	frontFace := si.FrontFace
	si.FaceForward()
	materialType, materialProps := extractMaterialInfo(mat, &si, sc.Textures)

	return InspectResponse{
		Hit:          true,
		Object:       si.ObjectIndex,
		Name:         sc.Objects[si.ObjectIndex].Name,
		MaterialType: materialType,
		Point:        vec3JSON(si.Position),
		Normal:       vec3JSON(si.Normal),
		Distance:     si.Distance,
		FrontFace:    frontFace,
		Properties: map[string]interface{}{
			"material": materialProps,
			"geometry": extractGeometryInfo(sc, si.ObjectIndex),
		},
	}
}

// handleInspect handles ray casting inspection requests. With ?session= the
// live scene and camera of that render are inspected, otherwise a fresh
// preset.
func (s *Server) handleInspect(w http.ResponseWriter, r *http.Request) {
	req := &RenderRequest{}
	if err := parseSceneParams(r, req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid scene parameters: "+err.Error())
		return
	}

	pixelX, err := strconv.Atoi(r.URL.Query().Get("x"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid x coordinate")
		return
	}
	pixelY, err := strconv.Atoi(r.URL.Query().Get("y"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid y coordinate")
		return
	}
	if pixelX < 0 || pixelX >= req.Width || pixelY < 0 || pixelY >= req.Height {
		writeError(w, http.StatusBadRequest, "Pixel coordinates out of bounds")
		return
	}

	var sc *scene.Scene
	var config scene.CameraConfig
	if id := r.URL.Query().Get("session"); id != "" {
		sess, ok := s.session(id)
		if !ok {
			writeError(w, http.StatusNotFound, "Unknown session: "+id)
			return
		}
		sc = sess.scene
		sess.renderer.UpdateCamera(func(c *renderer.Camera) { config = c.Config() })
	} else {
		sc, err = scene.Load(req.Scene)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		config = sc.Camera
	}

	writeJSON(w, http.StatusOK, inspectPixel(sc, config, req.Width, req.Height, pixelX, pixelY))
}
