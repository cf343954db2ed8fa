package server

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"net/http"
	"net/url"
	"strconv"
	"sync"

	"github.com/df07/go-progressive-pathtracer/pkg/log"
	"github.com/df07/go-progressive-pathtracer/pkg/renderer"
	"github.com/df07/go-progressive-pathtracer/pkg/scene"
)

var logger = log.New("server")

// Server streams progressive renders to browsers and applies scene edits to
// renders in flight
type Server struct {
	addr string
	mux  *http.ServeMux

	mu       sync.Mutex
	sessions map[string]*session
}

// NewServer creates a new web server listening on addr
func NewServer(addr string) *Server {
	s := &Server{
		addr:     addr,
		mux:      http.NewServeMux(),
		sessions: make(map[string]*session),
	}

	s.mux.HandleFunc("GET /api/health", s.handleHealth)
	s.mux.HandleFunc("GET /api/scenes", s.handleScenes)
	s.mux.HandleFunc("GET /api/render", s.handleRender)
	s.mux.HandleFunc("GET /api/inspect", s.handleInspect)
	s.mux.HandleFunc("POST /api/sessions/{id}/objects/{object}/move", s.handleMoveObject)
	s.mux.HandleFunc("POST /api/sessions/{id}/objects/{object}/rotate", s.handleRotateObject)
	s.mux.HandleFunc("POST /api/sessions/{id}/objects/{object}/material", s.handleSetMaterial)
	s.mux.HandleFunc("POST /api/sessions/{id}/camera", s.handleCamera)
	return s
}

// Handler returns the routed API
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Start starts the web server
func (s *Server) Start() error {
	logger.Noticef("starting web server on http://localhost%s", s.addr)
	return http.ListenAndServe(s.addr, s.mux)
}

// handleHealth provides a simple health check endpoint
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleScenes lists the preset scenes with their default render settings
func (s *Server) handleScenes(w http.ResponseWriter, r *http.Request) {
	defaults := renderer.DefaultConfig()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"scenes": scene.ListScenes(),
		"defaults": map[string]interface{}{
			"width":      defaults.Width,
			"height":     defaults.Height,
			"scale":      defaults.RenderScale,
			"maxBounces": defaults.MaxBounces,
		},
		"limits": map[string]interface{}{
			"width":      map[string]int{"min": minSize, "max": maxSize},
			"height":     map[string]int{"min": minSize, "max": maxSize},
			"frames":     map[string]int{"min": 0, "max": maxFrames},
			"maxBounces": map[string]int{"min": 1, "max": maxBounces},
		},
	})
}

const (
	minSize    = 16
	maxSize    = 2000
	maxFrames  = 10000
	maxBounces = 64
)

// parseIntParam parses an integer parameter from URL query with validation
func parseIntParam(values url.Values, key string, defaultValue, min, max int) (int, error) {
	if value := values.Get(key); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %s", key, value)
		}
		if parsed < min || parsed > max {
			return 0, fmt.Errorf("%s must be between %d and %d, got: %d", key, min, max, parsed)
		}
		return parsed, nil
	}
	return defaultValue, nil
}

// parseFloatParam parses a float parameter from URL query with validation
func parseFloatParam(values url.Values, key string, defaultValue, min, max float64) (float64, error) {
	if value := values.Get(key); value != "" {
		parsed, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %s", key, value)
		}
		if parsed < min || parsed > max {
			return 0, fmt.Errorf("%s must be between %g and %g, got: %g", key, min, max, parsed)
		}
		return parsed, nil
	}
	return defaultValue, nil
}

// imageToBase64PNG converts an image to base64-encoded PNG
func imageToBase64PNG(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warningf("error writing response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
