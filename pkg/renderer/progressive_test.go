package renderer

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/df07/go-progressive-pathtracer/pkg/core"
	"github.com/df07/go-progressive-pathtracer/pkg/geometry"
	"github.com/df07/go-progressive-pathtracer/pkg/material"
	"github.com/df07/go-progressive-pathtracer/pkg/scene"
)

func testConfig(width, height int) Config {
	cfg := DefaultConfig()
	cfg.Width, cfg.Height = width, height
	cfg.NumWorkers = 4
	return cfg
}

// createEnvironmentScene has no geometry and a constant environment
func createEnvironmentScene(t *testing.T, c core.Vec3) *scene.Scene {
	t.Helper()
	s := scene.New("environment")
	env, err := s.AddTexture(material.NewConstantTexture(c))
	if err != nil {
		t.Fatal(err)
	}
	s.Environment = env
	s.Camera = testCameraConfig()
	return s
}

// createWallScene places a large diffuse wall facing the camera 5 units away
func createWallScene(t *testing.T) *scene.Scene {
	t.Helper()
	s := scene.New("wall")
	s.Camera = scene.CameraConfig{
		Center: core.NewVec3(0, 0, 5),
		LookAt: core.NewVec3(0, 0, 0),
		Up:     core.NewVec3(0, 1, 0),
		VFov:   30,
	}
	wall := geometry.NewQuadMesh("wall", 4, 4)
	wall.Rotate(core.NewVec3(1, 0, 0), math.Pi/2)
	meshIdx, _ := s.AddMesh(wall)
	albedo, _ := s.AddTexture(material.NewConstantTexture(core.Splat(0.5)))
	matIdx, _ := s.AddMaterial(material.NewDiffuse(albedo, 1))
	if _, err := s.AddObject("wall", meshIdx, matIdx); err != nil {
		t.Fatal(err)
	}
	s.Build()
	return s
}

func newTestRenderer(t *testing.T, s *scene.Scene, cfg Config) *Renderer {
	t.Helper()
	r, err := NewRenderer(s, cfg)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(r.Close)
	return r
}

func TestRenderer_EnvironmentImage(t *testing.T) {
	r := newTestRenderer(t, createEnvironmentScene(t, core.NewVec3(0.2, 0.4, 0.6)), testConfig(16, 8))

	for i := 0; i < 3; i++ {
		if _, err := r.Render(); err != nil {
			t.Fatal(err)
		}
	}

	img := r.Image()
	if img.Bounds().Dx() != 16 || img.Bounds().Dy() != 8 {
		t.Fatalf("Unexpected image size %v", img.Bounds())
	}
	want := [3]int{51, 102, 153}
	for y := 0; y < 8; y++ {
		for x := 0; x < 16; x++ {
			px := img.RGBAAt(x, y)
			got := [3]int{int(px.R), int(px.G), int(px.B)}
			for c := range got {
				if math.Abs(float64(got[c]-want[c])) > 1 {
					t.Fatalf("Pixel (%d,%d) = %v, want %v", x, y, got, want)
				}
			}
			if px.A != 255 {
				t.Fatalf("Pixel (%d,%d) alpha %d", x, y, px.A)
			}
		}
	}
}

func TestRenderer_FrameCounterAndReset(t *testing.T) {
	r := newTestRenderer(t, createWallScene(t), testConfig(8, 8))

	if r.Frame() != 0 {
		t.Fatalf("Expected frame 0 before rendering, got %d", r.Frame())
	}
	for i := 1; i <= 3; i++ {
		stats, err := r.Render()
		if err != nil {
			t.Fatal(err)
		}
		if stats.Frame != i || r.Frame() != i {
			t.Errorf("Expected frame %d, got stats %d renderer %d", i, stats.Frame, r.Frame())
		}
		if stats.Paths != 64 {
			t.Errorf("Expected 64 paths, got %d", stats.Paths)
		}
	}

	r.Reset()
	if r.Frame() != 0 {
		t.Errorf("Expected frame 0 after reset, got %d", r.Frame())
	}
	if d := r.Pixel(4, 4).W; d != math.MaxFloat64 {
		t.Errorf("Expected depth cleared by reset, got %f", d)
	}
	if _, err := r.Render(); err != nil {
		t.Fatal(err)
	}
	if r.Frame() != 1 {
		t.Errorf("Expected accumulation to restart, got frame %d", r.Frame())
	}
	if got := len(r.Stats()); got != 4 {
		t.Errorf("Expected 4 frame stats, got %d", got)
	}
}

func TestRenderer_SceneEditRestartsAccumulation(t *testing.T) {
	s := createWallScene(t)
	r := newTestRenderer(t, s, testConfig(8, 8))

	for i := 0; i < 2; i++ {
		if _, err := r.Render(); err != nil {
			t.Fatal(err)
		}
	}

	err := s.Edit(func(s *scene.Scene) error {
		return s.MoveObject(0, core.NewVec3(0, 0, -1))
	})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := r.Render(); err != nil {
		t.Fatal(err)
	}
	if r.Frame() != 1 {
		t.Errorf("Expected frame 1 after a committed edit, got %d", r.Frame())
	}
	// The wall is now 6 units away
	if d := r.Pixel(4, 4).W; math.Abs(d-6) > 0.05 {
		t.Errorf("Expected depth near 6 after the move, got %f", d)
	}
}

func TestRenderer_DirectMutationRestartsAccumulation(t *testing.T) {
	s := createWallScene(t)
	r := newTestRenderer(t, s, testConfig(8, 8))

	for i := 0; i < 2; i++ {
		if _, err := r.Render(); err != nil {
			t.Fatal(err)
		}
	}

	version := s.Version()
	if err := s.MoveObject(0, core.NewVec3(0, 10, 0)); err != nil {
		t.Fatal(err)
	}
	if s.Version() == version {
		t.Fatalf("Expected MoveObject outside an edit to bump the version")
	}

	if _, err := r.Render(); err != nil {
		t.Fatal(err)
	}
	if r.Frame() != 1 {
		t.Errorf("Expected frame 1 after moving the wall, got %d", r.Frame())
	}
	// The wall left the view
	if d := r.Pixel(4, 4).W; d != math.MaxFloat64 {
		t.Errorf("Expected a miss after the move, got depth %f", d)
	}
}

func TestRenderer_CameraChangeRestartsAccumulation(t *testing.T) {
	r := newTestRenderer(t, createWallScene(t), testConfig(8, 8))

	for i := 0; i < 2; i++ {
		if _, err := r.Render(); err != nil {
			t.Fatal(err)
		}
	}
	r.UpdateCamera(func(c *Camera) {
		c.SetLookAt(core.NewVec3(0, 0, 4), core.NewVec3(0, 0, 0), core.NewVec3(0, 1, 0))
	})
	if _, err := r.Render(); err != nil {
		t.Fatal(err)
	}
	if r.Frame() != 1 {
		t.Errorf("Expected frame 1 after a camera move, got %d", r.Frame())
	}
}

func TestRenderer_DepthChannel(t *testing.T) {
	cfg := testConfig(9, 9)
	r := newTestRenderer(t, createWallScene(t), cfg)
	for i := 0; i < 4; i++ {
		if _, err := r.Render(); err != nil {
			t.Fatal(err)
		}
	}

	// Center pixel sees the wall head on; depth is the nearest of the frames
	if d := r.Pixel(4, 4).W; d < 5-1e-9 || d > 5.01 {
		t.Errorf("Expected center depth near 5, got %f", d)
	}

	depth := r.DepthImage()
	center := depth.RGBAAt(4, 4)
	if center.R != center.G || center.G != center.B {
		t.Errorf("Depth image must be gray, got %v", center)
	}
	if center.R == 0 || center.R == 255 {
		t.Errorf("Expected a mid gray for the wall, got %d", center.R)
	}
}

func TestRenderer_DepthOfMissIsWhite(t *testing.T) {
	r := newTestRenderer(t, createEnvironmentScene(t, core.NewVec3(0, 0, 0)), testConfig(4, 4))
	if _, err := r.Render(); err != nil {
		t.Fatal(err)
	}
	if d := r.Pixel(1, 1).W; d != math.MaxFloat64 {
		t.Errorf("Expected MaxFloat64 depth on a miss, got %f", d)
	}
	if px := r.DepthImage().RGBAAt(1, 1); px.R != 255 {
		t.Errorf("Expected white for a miss, got %v", px)
	}
}

func TestRenderer_RenderScale(t *testing.T) {
	cfg := testConfig(40, 20)
	cfg.RenderScale = 0.5
	r := newTestRenderer(t, createWallScene(t), cfg)

	if w, h := r.Size(); w != 20 || h != 10 {
		t.Fatalf("Expected 20x10 render resolution, got %dx%d", w, h)
	}
	if _, err := r.Render(); err != nil {
		t.Fatal(err)
	}
	if b := r.Image().Bounds(); b.Dx() != 20 || b.Dy() != 10 {
		t.Errorf("Image should be at render resolution, got %v", b)
	}
	if b := r.DisplayImage(40, 20, false).Bounds(); b.Dx() != 40 || b.Dy() != 20 {
		t.Errorf("Display image should be 40x20, got %v", b)
	}
	if b := r.DisplayImage(40, 20, true).Bounds(); b.Dx() != 40 || b.Dy() != 20 {
		t.Errorf("Depth display image should be 40x20, got %v", b)
	}

	if err := r.Resize(60, 30); err != nil {
		t.Fatal(err)
	}
	if w, h := r.Size(); w != 30 || h != 15 {
		t.Errorf("Expected 30x15 after resize, got %dx%d", w, h)
	}
	if r.Frame() != 0 {
		t.Errorf("Resize must restart accumulation")
	}
}

func TestRenderer_ConvergesWithFrames(t *testing.T) {
	s, err := scene.Load("default")
	if err != nil {
		t.Fatal(err)
	}

	render := func(seed int64, frames int) []core.Vec3 {
		cfg := testConfig(12, 8)
		cfg.Seed = seed
		r := newTestRenderer(t, s, cfg)
		for i := 0; i < frames; i++ {
			if _, err := r.Render(); err != nil {
				t.Fatal(err)
			}
		}
		pixels := make([]core.Vec3, 0, 96)
		for y := 0; y < 8; y++ {
			for x := 0; x < 12; x++ {
				pixels = append(pixels, r.Pixel(x, y).XYZ())
			}
		}
		return pixels
	}

	mse := func(a, b []core.Vec3) float64 {
		sum := 0.0
		for i := range a {
			d := a[i].Subtract(b[i])
			sum += d.LengthSquared()
		}
		return sum / float64(len(a))
	}

	reference := render(1, 128)
	few := mse(render(2, 2), reference)
	many := mse(render(3, 32), reference)
	if many >= few {
		t.Errorf("Expected error to shrink with frames: %g after 2 frames, %g after 32", few, many)
	}
}

func TestRenderer_RenderProgressive(t *testing.T) {
	r := newTestRenderer(t, createWallScene(t), testConfig(8, 8))

	frames, errs := r.RenderProgressive(context.Background(), 3)
	count := 0
	for result := range frames {
		count++
		if result.Frame != count {
			t.Errorf("Expected frame %d, got %d", count, result.Frame)
		}
	}
	if err := <-errs; err != nil {
		t.Errorf("Unexpected error %v", err)
	}
	if count != 3 {
		t.Errorf("Expected 3 frames, got %d", count)
	}
}

func TestRenderer_RenderProgressiveCancel(t *testing.T) {
	r := newTestRenderer(t, createWallScene(t), testConfig(8, 8))

	ctx, cancel := context.WithCancel(context.Background())
	frames, errs := r.RenderProgressive(ctx, 0)

	<-frames
	cancel()
	for range frames {
	}
	if err := <-errs; !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
	if r.Frame() < 1 {
		t.Errorf("Expected at least one completed frame")
	}
}

func TestRenderer_ClosedRendererFails(t *testing.T) {
	r := newTestRenderer(t, createWallScene(t), testConfig(4, 4))
	r.Close()
	if _, err := r.Render(); err == nil {
		t.Error("Expected an error rendering after Close")
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(c *Config)
		wantErr bool
	}{
		{"Default", func(c *Config) {}, false},
		{"Zero width", func(c *Config) { c.Width = 0 }, true},
		{"Scale above one", func(c *Config) { c.RenderScale = 1.5 }, true},
		{"Zero scale", func(c *Config) { c.RenderScale = 0 }, true},
		{"No bounces", func(c *Config) { c.MaxBounces = 0 }, true},
		{"Auto workers", func(c *Config) { c.NumWorkers = 0 }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && cfg.NumWorkers <= 0 {
				t.Errorf("Expected workers to be filled in, got %d", cfg.NumWorkers)
			}
		})
	}
}

func TestStatsTable(t *testing.T) {
	r := newTestRenderer(t, createWallScene(t), testConfig(4, 4))
	for i := 0; i < 2; i++ {
		if _, err := r.Render(); err != nil {
			t.Fatal(err)
		}
	}
	table := StatsTable(r.Stats())
	for _, want := range []string{"Frame", "Paths/s", "Total", "32"} {
		if !strings.Contains(table, want) {
			t.Errorf("Stats table missing %q:\n%s", want, table)
		}
	}
}
