package renderer

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"math"
	"sync"
	"time"

	xdraw "golang.org/x/image/draw"

	"github.com/df07/go-progressive-pathtracer/pkg/core"
	"github.com/df07/go-progressive-pathtracer/pkg/integrator"
	"github.com/df07/go-progressive-pathtracer/pkg/log"
	"github.com/df07/go-progressive-pathtracer/pkg/scene"
)

var logger = log.New("renderer")

// Renderer refines an image frame by frame. Each frame traces one path per
// pixel and adds it to an accumulation buffer; the displayed color is the
// buffer divided by the frame count. Camera changes and committed scene
// edits restart accumulation.
type Renderer struct {
	scene      *scene.Scene
	camera     *Camera
	integrator integrator.Integrator
	config     Config

	// mu guards everything below; a frame holds it from start to finish
	mu            sync.Mutex
	width, height int
	accum         []core.Vec4 // XYZ: summed radiance, W: nearest first-hit distance
	frame         int
	totalFrames   int64
	sceneVersion  uint64
	cameraVersion uint64
	pool          *WorkerPool
	stats         []FrameStats
}

// NewRenderer creates a renderer for s using the scene's suggested camera
func NewRenderer(s *scene.Scene, config Config) (*Renderer, error) {
	if s == nil {
		return nil, fmt.Errorf("renderer: nil scene")
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	w, h := config.RenderSize()
	r := &Renderer{
		scene:      s,
		camera:     NewCamera(s.Camera, w, h),
		integrator: integrator.NewPathTracingIntegrator(s, config.MaxBounces),
		config:     config,
	}
	r.resize(w, h)
	r.sceneVersion = s.Version()
	r.cameraVersion = r.camera.Version()
	return r, nil
}

// UpdateCamera runs fn between frames so the camera never changes mid-frame
func (r *Renderer) UpdateCamera(fn func(c *Camera)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fn(r.camera)
}

// Stats returns the statistics of every frame rendered so far
func (r *Renderer) Stats() []FrameStats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]FrameStats(nil), r.stats...)
}

// Config returns the renderer settings
func (r *Renderer) Config() Config {
	return r.config
}

// Frame returns the number of frames accumulated since the last reset
func (r *Renderer) Frame() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.frame
}

// Size returns the render resolution
func (r *Renderer) Size() (int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.width, r.height
}

// Reset restarts accumulation and clears both the color and depth channels
func (r *Renderer) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frame = 0
	r.clear()
}

// Resize changes the display resolution and restarts accumulation
func (r *Renderer) Resize(width, height int) error {
	cfg := r.config
	cfg.Width, cfg.Height = width, height
	if err := cfg.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.config = cfg
	w, h := cfg.RenderSize()
	r.resize(w, h)
	r.camera.OnResize(w, h)
	r.frame = 0
	return nil
}

// resize reallocates per-pixel state. Callers hold mu.
func (r *Renderer) resize(w, h int) {
	if r.pool != nil {
		r.pool.Stop()
	}
	r.width, r.height = w, h
	r.accum = make([]core.Vec4, w*h)
	r.clear()
	r.pool = NewWorkerPool(r.renderRow, h, r.config.NumWorkers)
	r.pool.Start()
}

// Close stops the worker pool
func (r *Renderer) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.pool != nil {
		r.pool.Stop()
		r.pool = nil
	}
}

// Render traces one frame. The scene is read-locked for the whole frame so
// edits land between frames.
func (r *Renderer) Render() (FrameStats, error) {
	r.scene.RLock()
	defer r.scene.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.pool == nil {
		return FrameStats{}, fmt.Errorf("renderer: closed")
	}

	if v := r.scene.Version(); v != r.sceneVersion {
		logger.Debugf("scene changed (version %d), restarting accumulation", v)
		r.sceneVersion = v
		r.frame = 0
	}
	if v := r.camera.Version(); v != r.cameraVersion {
		logger.Debug("camera changed, restarting accumulation")
		r.cameraVersion = v
		r.frame = 0
	}

	r.frame++
	r.totalFrames++
	if r.frame == 1 {
		r.clear()
	}

	start := time.Now()
	for y := 0; y < r.height; y++ {
		r.pool.SubmitTask(RowTask{Y: y, Seed: r.rowSeed(y)})
	}

	paths := 0
	for i := 0; i < r.height; i++ {
		result, ok := r.pool.GetResult()
		if !ok {
			return FrameStats{}, fmt.Errorf("renderer: worker pool closed unexpectedly")
		}
		paths += result.Paths
	}

	stats := FrameStats{
		Frame:      r.frame,
		Paths:      paths,
		Workers:    r.pool.GetNumWorkers(),
		RenderTime: time.Since(start),
	}
	r.stats = append(r.stats, stats)
	logger.Debugf("frame %d: %d paths in %s", stats.Frame, stats.Paths, stats.RenderTime)
	return stats, nil
}

// rowSeed derives a distinct seed per row of every frame ever rendered
func (r *Renderer) rowSeed(y int) int64 {
	return r.config.Seed*1_000_003 + r.totalFrames*int64(r.height) + int64(y)
}

// renderRow traces one path per pixel of a row. Rows never share pixels, so
// workers write the buffer without locking.
func (r *Renderer) renderRow(task RowTask) RowResult {
	sampler := core.NewSeededSampler(task.Seed)
	row := r.accum[task.Y*r.width : (task.Y+1)*r.width]
	for x := range row {
		ray := r.camera.GetRay(x, task.Y, sampler)
		c := r.integrator.TraceRay(ray, sampler)
		row[x] = core.NewVec4(row[x].X+c.X, row[x].Y+c.Y, row[x].Z+c.Z, math.Min(row[x].W, c.W))
	}
	return RowResult{Y: task.Y, Paths: len(row)}
}

func (r *Renderer) clear() {
	for i := range r.accum {
		r.accum[i] = core.NewVec4(0, 0, 0, math.MaxFloat64)
	}
}

// Pixel returns the averaged color and first-hit depth of pixel (x, y)
func (r *Renderer) Pixel(x, y int) core.Vec4 {
	r.mu.Lock()
	defer r.mu.Unlock()
	p := r.accum[y*r.width+x]
	if r.frame == 0 {
		return core.NewVec4(0, 0, 0, p.W)
	}
	return core.Vec4From(p.XYZ().Multiply(1/float64(r.frame)), p.W)
}

// Image packs the averaged colors into 8-bit RGBA, clamped to [0, 1]
func (r *Renderer) Image() *image.RGBA {
	r.mu.Lock()
	defer r.mu.Unlock()

	img := image.NewRGBA(image.Rect(0, 0, r.width, r.height))
	if r.frame == 0 {
		return img
	}
	inv := 1 / float64(r.frame)
	for y := 0; y < r.height; y++ {
		for x := 0; x < r.width; x++ {
			img.SetRGBA(x, y, toRGBA(r.accum[y*r.width+x].XYZ().Multiply(inv)))
		}
	}
	return img
}

// DepthImage shows first-hit distance as gray, near dark and far light.
// Pixels where nothing was hit are white.
func (r *Renderer) DepthImage() *image.RGBA {
	r.mu.Lock()
	defer r.mu.Unlock()

	far := r.config.DepthRange
	if far <= 0 {
		for _, p := range r.accum {
			if p.W < math.MaxFloat64 {
				far = math.Max(far, p.W)
			}
		}
	}

	img := image.NewRGBA(image.Rect(0, 0, r.width, r.height))
	for y := 0; y < r.height; y++ {
		for x := 0; x < r.width; x++ {
			d := r.accum[y*r.width+x].W
			v := 1.0
			if d < math.MaxFloat64 && far > 0 {
				v = d / far
			}
			img.SetRGBA(x, y, toRGBA(core.Splat(v)))
		}
	}
	return img
}

// DisplayImage returns the color (or depth) image scaled to width x height
func (r *Renderer) DisplayImage(width, height int, depth bool) *image.RGBA {
	src := r.Image()
	if depth {
		src = r.DepthImage()
	}
	if src.Bounds().Dx() == width && src.Bounds().Dy() == height {
		return src
	}
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Src, nil)
	return dst
}

func toRGBA(c core.Vec3) color.RGBA {
	c = c.Clamp(0, 1)
	return color.RGBA{
		R: uint8(c.X * 255),
		G: uint8(c.Y * 255),
		B: uint8(c.Z * 255),
		A: 255,
	}
}

// FrameResult is sent after every frame of RenderProgressive
type FrameResult struct {
	Frame int
	Stats FrameStats
}

// RenderProgressive renders frames in the background until frames have been
// accumulated (0 = until ctx is cancelled). A frame that has started always
// completes; cancellation is checked between frames.
func (r *Renderer) RenderProgressive(ctx context.Context, frames int) (<-chan FrameResult, <-chan error) {
	frameChan := make(chan FrameResult, 1)
	errChan := make(chan error, 1)

	go func() {
		defer close(frameChan)
		defer close(errChan)

		w, h := r.Size()
		logger.Infof("rendering %dx%d with %d workers", w, h, r.config.NumWorkers)
		for n := 0; frames <= 0 || n < frames; n++ {
			select {
			case <-ctx.Done():
				logger.Infof("rendering cancelled after %d frames", n)
				errChan <- ctx.Err()
				return
			default:
			}

			stats, err := r.Render()
			if err != nil {
				errChan <- err
				return
			}

			select {
			case frameChan <- FrameResult{Frame: stats.Frame, Stats: stats}:
			case <-ctx.Done():
				errChan <- ctx.Err()
				return
			}
		}
	}()

	return frameChan, errChan
}
