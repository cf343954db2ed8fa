package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/df07/go-progressive-pathtracer/pkg/renderer"
)

// RenderRequest represents a render request from the client
type RenderRequest struct {
	Scene      string  `json:"scene"`      // Preset scene id
	Width      int     `json:"width"`      // Display width
	Height     int     `json:"height"`     // Display height
	Scale      float64 `json:"scale"`      // Render resolution as a fraction of the display
	Frames     int     `json:"frames"`     // Frames to accumulate, 0 renders until the client disconnects
	MaxBounces int     `json:"maxBounces"` // Path length limit
	Seed       int64   `json:"seed"`
	Depth      bool    `json:"depth"` // Stream the depth visualization instead of color
}

// FrameUpdate represents a single progressive update sent via SSE
type FrameUpdate struct {
	Frame          int     `json:"frame"`
	TotalFrames    int     `json:"totalFrames"`
	ImageData      string  `json:"imageData"` // Base64 encoded PNG
	Paths          int     `json:"paths"`
	PathsPerSecond float64 `json:"pathsPerSecond"`
	FrameMs        float64 `json:"frameMs"`
	ElapsedMs      int64   `json:"elapsedMs"`
}

// SSEEvent represents a unified SSE event for thread-safe writing
type SSEEvent struct {
	Type string `json:"type"` // "session", "console", "progress", "error", "complete"
	Data string `json:"data"` // JSON-encoded data
}

// handleRender starts a render session and streams every accumulated frame
// via SSE until the requested frame count or client disconnection
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	setSSEHeaders(w)

	req, err := parseRenderRequest(r)
	if err != nil {
		writeSSEEvent(w, SSEEvent{Type: "error", Data: fmt.Sprintf("Invalid request: %v", err)})
		return
	}

	consoleChan := make(chan ConsoleMessage, 50)
	sess, err := s.newSession(req, consoleChan)
	if err != nil {
		writeSSEEvent(w, SSEEvent{Type: "error", Data: err.Error()})
		return
	}
	defer s.closeSession(sess.id)

	ctx := r.Context()
	events := make(chan SSEEvent, 16)
	go s.renderLoop(ctx, sess, req, consoleChan, events)
	s.writeSSEEvents(ctx, w, events)
}

// setSSEHeaders sets the required headers for Server-Sent Events
func setSSEHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
}

// writeSSEEvents writes events from the single producer until it closes the
// channel or the client disconnects
func (s *Server) writeSSEEvents(ctx context.Context, w http.ResponseWriter, events <-chan SSEEvent) {
	for {
		select {
		case event, ok := <-events:
			if !ok {
				return
			}
			if err := writeSSEEvent(w, event); err != nil {
				logger.Debugf("client gone: %v", err)
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

func writeSSEEvent(w http.ResponseWriter, event SSEEvent) error {
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, event.Data); err != nil {
		return err
	}
	if flusher, ok := w.(http.Flusher); ok {
		flusher.Flush()
	}
	return nil
}

// renderLoop drives the renderer and turns frames and console messages into
// SSE events. It is the only writer of events and closes it when done.
func (s *Server) renderLoop(ctx context.Context, sess *session, req *RenderRequest, consoleChan <-chan ConsoleMessage, events chan<- SSEEvent) {
	defer close(events)

	send := func(eventType string, v interface{}) bool {
		data, err := json.Marshal(v)
		if err != nil {
			logger.Errorf("error marshaling %s event: %v", eventType, err)
			return true
		}
		select {
		case events <- SSEEvent{Type: eventType, Data: string(data)}:
			return true
		case <-ctx.Done():
			return false
		}
	}

	if !send("session", sess.info()) {
		return
	}

	start := time.Now()
	frames, errs := sess.renderer.RenderProgressive(ctx, req.Frames)
	for frames != nil {
		select {
		case result, ok := <-frames:
			if !ok {
				frames = nil
				continue
			}
			imageData, err := imageToBase64PNG(sess.renderer.DisplayImage(req.Width, req.Height, req.Depth))
			if err != nil {
				send("error", fmt.Sprintf("failed to encode image: %v", err))
				return
			}
			update := FrameUpdate{
				Frame:          result.Frame,
				TotalFrames:    req.Frames,
				ImageData:      imageData,
				Paths:          result.Stats.Paths,
				PathsPerSecond: result.Stats.PathsPerSecond(),
				FrameMs:        float64(result.Stats.RenderTime.Microseconds()) / 1000,
				ElapsedMs:      time.Since(start).Milliseconds(),
			}
			if !send("progress", update) {
				return
			}

		case msg := <-consoleChan:
			if !send("console", msg) {
				return
			}

		case <-ctx.Done():
			return
		}
	}

	if err := <-errs; err != nil {
		if ctx.Err() == nil {
			send("error", fmt.Sprintf("Rendering failed: %v", err))
		}
		return
	}
	send("complete", "Rendering completed")
}

// parseSceneParams parses the parameters shared by render and inspect
func parseSceneParams(r *http.Request, req *RenderRequest) error {
	query := r.URL.Query()
	req.Scene = query.Get("scene")
	if req.Scene == "" {
		req.Scene = "default"
	}

	defaults := renderer.DefaultConfig()
	var err error
	if req.Width, err = parseIntParam(query, "width", defaults.Width, minSize, maxSize); err != nil {
		return err
	}
	if req.Height, err = parseIntParam(query, "height", defaults.Height, minSize, maxSize); err != nil {
		return err
	}
	return nil
}

// parseRenderRequest parses request parameters
func parseRenderRequest(r *http.Request) (*RenderRequest, error) {
	req := &RenderRequest{}
	if err := parseSceneParams(r, req); err != nil {
		return nil, err
	}

	query := r.URL.Query()
	defaults := renderer.DefaultConfig()
	var err error
	if req.Scale, err = parseFloatParam(query, "scale", defaults.RenderScale, 0.05, 1); err != nil {
		return nil, err
	}
	if req.Frames, err = parseIntParam(query, "frames", 64, 0, maxFrames); err != nil {
		return nil, err
	}
	if req.MaxBounces, err = parseIntParam(query, "maxBounces", defaults.MaxBounces, 1, maxBounces); err != nil {
		return nil, err
	}
	seed, err := parseIntParam(query, "seed", int(defaults.Seed), 0, 1<<31-1)
	if err != nil {
		return nil, err
	}
	req.Seed = int64(seed)
	req.Depth = query.Get("depth") == "true"

	if req.Width*req.Height > 800*600 && req.Frames == 0 {
		logger.Warning("large image rendering until disconnect may keep every core busy")
	}
	return req, nil
}
