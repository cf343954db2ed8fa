package server

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/df07/go-progressive-pathtracer/pkg/core"
	"github.com/df07/go-progressive-pathtracer/pkg/material"
	"github.com/df07/go-progressive-pathtracer/pkg/renderer"
	"github.com/df07/go-progressive-pathtracer/pkg/scene"
)

// session is a render in flight. Edits go through scene.Edit so they land
// between frames and restart accumulation.
type session struct {
	id       string
	scene    *scene.Scene
	renderer *renderer.Renderer
	console  *WebLogger
}

// SessionInfo is the first event of every render stream
type SessionInfo struct {
	ID        string       `json:"id"`
	Scene     string       `json:"scene"`
	Objects   []ObjectInfo `json:"objects"`
	Materials []string     `json:"materials"` // Material kind per index
	Triangles int          `json:"triangles"`
}

// ObjectInfo describes one scene object
type ObjectInfo struct {
	Index    int    `json:"index"`
	Name     string `json:"name"`
	Material int    `json:"material"`
}

// newSession loads the requested scene and creates its renderer
func (s *Server) newSession(req *RenderRequest, consoleChan chan<- ConsoleMessage) (*session, error) {
	sc, err := scene.Load(req.Scene)
	if err != nil {
		return nil, err
	}

	config := renderer.DefaultConfig()
	config.Width = req.Width
	config.Height = req.Height
	config.RenderScale = req.Scale
	config.MaxBounces = req.MaxBounces
	config.Seed = req.Seed
	r, err := renderer.NewRenderer(sc, config)
	if err != nil {
		return nil, err
	}

	id := fmt.Sprintf("render-%d", time.Now().UnixNano())
	sess := &session{
		id:       id,
		scene:    sc,
		renderer: r,
		console:  NewWebLogger(id, consoleChan),
	}

	s.mu.Lock()
	s.sessions[id] = sess
	s.mu.Unlock()

	w, h := config.RenderSize()
	sess.console.Printf("Loaded %s: %d objects, %d triangles, rendering %dx%d\n", sc.Name, len(sc.Objects), sc.TriangleCount(), w, h)
	return sess, nil
}

func (s *Server) session(id string) (*session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	return sess, ok
}

func (s *Server) closeSession(id string) {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()

	if ok {
		sess.renderer.Close()
		logger.Debugf("closed session %s", id)
	}
}

// info snapshots the editable parts of the scene
func (sess *session) info() SessionInfo {
	sess.scene.RLock()
	defer sess.scene.RUnlock()

	info := SessionInfo{
		ID:        sess.id,
		Scene:     sess.scene.Name,
		Objects:   make([]ObjectInfo, len(sess.scene.Objects)),
		Materials: make([]string, len(sess.scene.Materials)),
		Triangles: sess.scene.TriangleCount(),
	}
	for i, obj := range sess.scene.Objects {
		info.Objects[i] = ObjectInfo{Index: i, Name: obj.Name, Material: obj.Material}
	}
	for i, mat := range sess.scene.Materials {
		info.Materials[i] = string(material.KindOf(mat))
	}
	return info
}

// editTarget resolves the session and object path values of an edit request
func (s *Server) editTarget(w http.ResponseWriter, r *http.Request) (*session, int, bool) {
	sess, ok := s.session(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "Unknown session: "+r.PathValue("id"))
		return nil, 0, false
	}
	object, err := strconv.Atoi(r.PathValue("object"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid object index")
		return nil, 0, false
	}
	return sess, object, true
}

// parseVec3Params reads prefix+"x", prefix+"y" and prefix+"z" from the query
func parseVec3Params(r *http.Request, prefix string, defaultValue core.Vec3) (core.Vec3, error) {
	query := r.URL.Query()
	x, err := parseFloatParam(query, prefix+"x", defaultValue.X, -1e6, 1e6)
	if err != nil {
		return core.Vec3{}, err
	}
	y, err := parseFloatParam(query, prefix+"y", defaultValue.Y, -1e6, 1e6)
	if err != nil {
		return core.Vec3{}, err
	}
	z, err := parseFloatParam(query, prefix+"z", defaultValue.Z, -1e6, 1e6)
	if err != nil {
		return core.Vec3{}, err
	}
	return core.NewVec3(x, y, z), nil
}

// applyEdit commits fn against the session scene and reports the outcome
func (s *Server) applyEdit(w http.ResponseWriter, sess *session, description string, fn func(sc *scene.Scene) error) {
	if err := sess.scene.Edit(fn); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, scene.ErrInvalidObject) || errors.Is(err, scene.ErrInvalidMaterial) {
			status = http.StatusBadRequest
		}
		writeError(w, status, err.Error())
		return
	}
	sess.console.Printf("%s, restarting accumulation\n", description)
	writeJSON(w, http.StatusOK, map[string]interface{}{"version": sess.scene.Version()})
}

// handleMoveObject translates an object by (dx, dy, dz)
func (s *Server) handleMoveObject(w http.ResponseWriter, r *http.Request) {
	sess, object, ok := s.editTarget(w, r)
	if !ok {
		return
	}
	delta, err := parseVec3Params(r, "d", core.Vec3{})
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.applyEdit(w, sess, fmt.Sprintf("Moved object %d by %v", object, delta), func(sc *scene.Scene) error {
		return sc.MoveObject(object, delta)
	})
}

// handleRotateObject rotates an object by angle degrees about (ax, ay, az)
func (s *Server) handleRotateObject(w http.ResponseWriter, r *http.Request) {
	sess, object, ok := s.editTarget(w, r)
	if !ok {
		return
	}
	axis, err := parseVec3Params(r, "a", core.NewVec3(0, 1, 0))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	angle, err := parseFloatParam(r.URL.Query(), "angle", 0, -360, 360)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.applyEdit(w, sess, fmt.Sprintf("Rotated object %d by %g degrees", object, angle), func(sc *scene.Scene) error {
		return sc.RotateObject(object, axis, angle*math.Pi/180)
	})
}

// handleSetMaterial assigns material index ?material= to an object
func (s *Server) handleSetMaterial(w http.ResponseWriter, r *http.Request) {
	sess, object, ok := s.editTarget(w, r)
	if !ok {
		return
	}
	mat, err := strconv.Atoi(r.URL.Query().Get("material"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid material index")
		return
	}
	s.applyEdit(w, sess, fmt.Sprintf("Object %d now uses material %d", object, mat), func(sc *scene.Scene) error {
		return sc.SetObjectMaterial(object, mat)
	})
}

// handleCamera moves the camera to (cx, cy, cz) looking at (lx, ly, lz)
func (s *Server) handleCamera(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "Unknown session: "+r.PathValue("id"))
		return
	}

	var config scene.CameraConfig
	sess.renderer.UpdateCamera(func(c *renderer.Camera) { config = c.Config() })
	center, err := parseVec3Params(r, "c", config.Center)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	lookAt, err := parseVec3Params(r, "l", config.LookAt)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	sess.renderer.UpdateCamera(func(c *renderer.Camera) {
		c.SetLookAt(center, lookAt, config.Up)
	})
	sess.console.Printf("Camera at %v looking at %v\n", center, lookAt)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"center": [3]float64{center.X, center.Y, center.Z},
		"lookAt": [3]float64{lookAt.X, lookAt.Y, lookAt.Z},
	})
}
