package server

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/df07/go-progressive-pathtracer/pkg/core"
	"github.com/df07/go-progressive-pathtracer/pkg/renderer"
)

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	s := NewServer(":0")
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return s, ts
}

// readSSE reads the whole stream and splits it into events
func readSSE(t *testing.T, body io.Reader) []SSEEvent {
	t.Helper()
	data, err := io.ReadAll(body)
	if err != nil {
		t.Fatalf("Failed to read stream: %v", err)
	}

	var events []SSEEvent
	for _, chunk := range strings.Split(string(data), "\n\n") {
		if chunk == "" {
			continue
		}
		var event SSEEvent
		for _, line := range strings.Split(chunk, "\n") {
			switch {
			case strings.HasPrefix(line, "event: "):
				event.Type = strings.TrimPrefix(line, "event: ")
			case strings.HasPrefix(line, "data: "):
				event.Data = strings.TrimPrefix(line, "data: ")
			}
		}
		events = append(events, event)
	}
	return events
}

func TestServer_Health(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/health")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK || body["status"] != "ok" {
		t.Errorf("Unexpected health response %d %v", resp.StatusCode, body)
	}
}

func TestServer_Scenes(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/scenes")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var body struct {
		Scenes []struct {
			ID string
		} `json:"scenes"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	found := false
	for _, sc := range body.Scenes {
		if sc.ID == "cornell" {
			found = true
		}
	}
	if !found {
		t.Errorf("Expected cornell in scene list, got %+v", body.Scenes)
	}
}

func TestServer_RenderStream(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/render?scene=cornell&width=16&height=16&scale=0.5&frames=2")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Expected event stream, got %q", ct)
	}

	events := readSSE(t, resp.Body)
	if len(events) < 4 {
		t.Fatalf("Expected session, 2 frames and completion, got %+v", events)
	}
	if events[0].Type != "session" {
		t.Errorf("Expected session event first, got %q", events[0].Type)
	}
	if last := events[len(events)-1]; last.Type != "complete" {
		t.Errorf("Expected complete event last, got %q: %s", last.Type, last.Data)
	}

	var info SessionInfo
	if err := json.Unmarshal([]byte(events[0].Data), &info); err != nil {
		t.Fatal(err)
	}
	if info.ID == "" || len(info.Objects) == 0 || info.Triangles == 0 {
		t.Errorf("Incomplete session info %+v", info)
	}

	frames := 0
	for _, event := range events {
		if event.Type != "progress" {
			continue
		}
		frames++
		var update FrameUpdate
		if err := json.Unmarshal([]byte(event.Data), &update); err != nil {
			t.Fatal(err)
		}
		if update.Frame != frames || update.TotalFrames != 2 {
			t.Errorf("Unexpected frame %d of %d", update.Frame, update.TotalFrames)
		}
		if update.Paths != 64 {
			t.Errorf("Expected 64 paths at half resolution, got %d", update.Paths)
		}

		raw, err := base64.StdEncoding.DecodeString(update.ImageData)
		if err != nil {
			t.Fatal(err)
		}
		img, err := png.Decode(bytes.NewReader(raw))
		if err != nil {
			t.Fatal(err)
		}
		if b := img.Bounds(); b.Dx() != 16 || b.Dy() != 16 {
			t.Errorf("Expected 16x16 display image, got %v", b)
		}
	}
	if frames != 2 {
		t.Errorf("Expected 2 progress events, got %d", frames)
	}
}

func TestServer_RenderInvalidRequest(t *testing.T) {
	_, ts := newTestServer(t)

	tests := []string{
		"width=5",
		"frames=-1",
		"scale=2",
		"scene=nonexistent",
	}
	for _, query := range tests {
		t.Run(query, func(t *testing.T) {
			resp, err := http.Get(ts.URL + "/api/render?" + query)
			if err != nil {
				t.Fatal(err)
			}
			defer resp.Body.Close()
			events := readSSE(t, resp.Body)
			if len(events) != 1 || events[0].Type != "error" {
				t.Errorf("Expected a single error event, got %+v", events)
			}
		})
	}
}

func TestServer_Inspect(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/inspect?scene=cornell&width=64&height=64&x=32&y=32")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var result InspectResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatal(err)
	}
	if !result.Hit {
		t.Fatal("Expected the center of the Cornell box to hit geometry")
	}
	if result.Distance <= 0 || result.MaterialType == "" || result.Name == "" {
		t.Errorf("Incomplete inspection %+v", result)
	}
	n := core.NewVec3(result.Normal[0], result.Normal[1], result.Normal[2])
	if d := n.Length(); d < 0.99 || d > 1.01 {
		t.Errorf("Expected unit normal, got %v", n)
	}
}

func TestServer_InspectBadRequests(t *testing.T) {
	_, ts := newTestServer(t)

	tests := []struct {
		query  string
		status int
	}{
		{"x=1", http.StatusBadRequest},
		{"x=a&y=1", http.StatusBadRequest},
		{"x=500&y=1&width=64&height=64", http.StatusBadRequest},
		{"x=1&y=1&scene=nonexistent", http.StatusBadRequest},
		{"x=1&y=1&session=missing", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			resp, err := http.Get(ts.URL + "/api/inspect?" + tt.query)
			if err != nil {
				t.Fatal(err)
			}
			resp.Body.Close()
			if resp.StatusCode != tt.status {
				t.Errorf("Expected status %d, got %d", tt.status, resp.StatusCode)
			}
		})
	}
}

func TestServer_SessionEdits(t *testing.T) {
	s, ts := newTestServer(t)

	req := &RenderRequest{Scene: "cornell", Width: 16, Height: 16, Scale: 1, MaxBounces: 4, Seed: 1}
	sess, err := s.newSession(req, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer s.closeSession(sess.id)

	post := func(path string) *http.Response {
		t.Helper()
		resp, err := http.Post(ts.URL+"/api/sessions/"+path, "application/json", nil)
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		return resp
	}

	version := sess.scene.Version()
	if resp := post(sess.id + "/objects/0/move?dx=1&dy=0&dz=0"); resp.StatusCode != http.StatusOK {
		t.Errorf("Move failed with status %d", resp.StatusCode)
	}
	if resp := post(sess.id + "/objects/0/rotate?angle=45"); resp.StatusCode != http.StatusOK {
		t.Errorf("Rotate failed with status %d", resp.StatusCode)
	}
	if resp := post(sess.id + "/objects/0/material?material=0"); resp.StatusCode != http.StatusOK {
		t.Errorf("Set material failed with status %d", resp.StatusCode)
	}
	if got := sess.scene.Version(); got != version+3 {
		t.Errorf("Expected 3 committed edits, version went from %d to %d", version, got)
	}

	if resp := post(sess.id + "/objects/999/move?dx=1"); resp.StatusCode != http.StatusBadRequest {
		t.Errorf("Expected 400 for an unknown object, got %d", resp.StatusCode)
	}
	if resp := post(sess.id + "/objects/0/material?material=999"); resp.StatusCode != http.StatusBadRequest {
		t.Errorf("Expected 400 for an unknown material, got %d", resp.StatusCode)
	}
	if resp := post("missing/objects/0/move?dx=1"); resp.StatusCode != http.StatusNotFound {
		t.Errorf("Expected 404 for an unknown session, got %d", resp.StatusCode)
	}

	var before uint64
	sess.renderer.UpdateCamera(func(c *renderer.Camera) { before = c.Version() })
	if resp := post(sess.id + "/camera?cz=-900"); resp.StatusCode != http.StatusOK {
		t.Errorf("Camera update failed with status %d", resp.StatusCode)
	}
	sess.renderer.UpdateCamera(func(c *renderer.Camera) {
		if c.Version() == before {
			t.Error("Expected the camera version to change")
		}
		if c.Position().Z != -900 {
			t.Errorf("Expected camera z -900, got %v", c.Position())
		}
	})

	// Edits restart accumulation on the next frame
	if _, err := sess.renderer.Render(); err != nil {
		t.Fatal(err)
	}
	if sess.renderer.Frame() != 1 {
		t.Errorf("Expected frame 1 after edits, got %d", sess.renderer.Frame())
	}
}
