package renderer

import (
	"fmt"
	"runtime"
)

// Config contains renderer settings
type Config struct {
	Width       int     // Display width in pixels
	Height      int     // Display height in pixels
	RenderScale float64 // Render resolution as a fraction of the display, in (0, 1]
	MaxBounces  int     // Path length limit
	NumWorkers  int     // Parallel workers (0 = use CPU count)
	Seed        int64   // Base seed; each frame and row derive their own
	DepthRange  float64 // Distance mapped to white by DepthImage (0 = farthest hit)
}

// DefaultConfig returns sensible default values
func DefaultConfig() Config {
	return Config{
		Width:       400,
		Height:      225,
		RenderScale: 1,
		MaxBounces:  8,
		NumWorkers:  runtime.NumCPU(),
		Seed:        42,
	}
}

// Validate checks the settings and fills derived defaults
func (c *Config) Validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("renderer: invalid resolution %dx%d", c.Width, c.Height)
	}
	if c.RenderScale <= 0 || c.RenderScale > 1 {
		return fmt.Errorf("renderer: render scale %g outside (0, 1]", c.RenderScale)
	}
	if c.MaxBounces <= 0 {
		return fmt.Errorf("renderer: max bounces must be positive, got %d", c.MaxBounces)
	}
	if c.NumWorkers <= 0 {
		c.NumWorkers = runtime.NumCPU()
	}
	return nil
}

// RenderSize returns the resolution paths are traced at
func (c Config) RenderSize() (int, int) {
	w := max(int(float64(c.Width)*c.RenderScale), 1)
	h := max(int(float64(c.Height)*c.RenderScale), 1)
	return w, h
}
