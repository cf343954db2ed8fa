package main

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/shirou/gopsutil/cpu"
	"github.com/shirou/gopsutil/mem"
	"github.com/urfave/cli"

	"github.com/df07/go-progressive-pathtracer/pkg/loaders"
	"github.com/df07/go-progressive-pathtracer/pkg/log"
	"github.com/df07/go-progressive-pathtracer/pkg/renderer"
	"github.com/df07/go-progressive-pathtracer/pkg/scene"
	"github.com/df07/go-progressive-pathtracer/web/server"
)

var logger = log.New("pathtracer")

func main() {
	if err := newApp().Run(os.Args); err != nil {
		logger.Error(err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	defaults := renderer.DefaultConfig()

	cli.VersionFlag = cli.BoolFlag{
		Name:  "version",
		Usage: "print only the version",
	}

	app := cli.NewApp()
	app.Name = "go-progressive-pathtracer"
	app.Usage = "render scenes with a progressive CPU path tracer"
	app.Version = "0.1.0"
	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "v",
			Usage: "enable verbose logging",
		},
		cli.BoolFlag{
			Name:  "vv",
			Usage: "enable even more verbose logging",
		},
		cli.StringFlag{
			Name:  "log-level",
			Value: "notice",
			Usage: "log level: debug, info, notice, warning or error",
		},
	}
	app.Before = setupLogging
	app.Commands = []cli.Command{
		{
			Name:  "render",
			Usage: "render a scene progressively and save it as PNG",
			Description: `
Trace one path per pixel per frame and average the frames. The render stops
after the requested number of frames or when interrupted; the image
accumulated so far is always written.`,
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:  "scene, s",
					Value: "default",
					Usage: "scene to render (see the scenes command)",
				},
				cli.IntFlag{
					Name:  "width",
					Value: defaults.Width,
					Usage: "output width",
				},
				cli.IntFlag{
					Name:  "height",
					Value: defaults.Height,
					Usage: "output height",
				},
				cli.Float64Flag{
					Name:  "scale",
					Value: defaults.RenderScale,
					Usage: "render resolution as a fraction of the output resolution",
				},
				cli.IntFlag{
					Name:  "frames, f",
					Value: 64,
					Usage: "frames to accumulate (0 = until interrupted)",
				},
				cli.IntFlag{
					Name:  "bounces",
					Value: defaults.MaxBounces,
					Usage: "maximum path length",
				},
				cli.IntFlag{
					Name:  "workers",
					Value: 0,
					Usage: "parallel workers (0 = CPU count)",
				},
				cli.Int64Flag{
					Name:  "seed",
					Value: defaults.Seed,
					Usage: "random seed",
				},
				cli.Float64Flag{
					Name:  "aperture",
					Value: -1,
					Usage: "lens diameter; overrides the scene camera when >= 0",
				},
				cli.Float64Flag{
					Name:  "focus",
					Value: 0,
					Usage: "focus distance; overrides the scene camera when > 0",
				},
				cli.StringFlag{
					Name:  "environment, e",
					Usage: "image used as spherical environment map",
				},
				cli.StringFlag{
					Name:  "out, o",
					Value: "render.png",
					Usage: "image filename for the rendered frame",
				},
				cli.StringFlag{
					Name:  "depth",
					Usage: "also write the depth visualization to this file",
				},
			},
			Action: renderScene,
		},
		{
			Name:      "stats",
			Usage:     "print geometry, material and BVH statistics of a scene",
			ArgsUsage: "scene",
			Action:    showStats,
		},
		{
			Name:   "scenes",
			Usage:  "list available scenes",
			Action: listScenes,
		},
		{
			Name:  "serve",
			Usage: "stream progressive renders over HTTP",
			Description: `
Serve a JSON and Server-Sent Events API. GET /api/render streams every frame
as a PNG; objects and the camera of a render in flight can be edited through
/api/sessions/{id}/..., which restarts accumulation.`,
			Flags: []cli.Flag{
				cli.IntFlag{
					Name:  "port, p",
					Value: 8080,
					Usage: "port to serve on",
				},
			},
			Action: serve,
		},
	}
	return app
}

func setupLogging(ctx *cli.Context) error {
	level, err := log.ParseLevel(ctx.GlobalString("log-level"))
	if err != nil {
		return err
	}
	log.SetLevel(level)

	if ctx.GlobalBool("v") {
		log.SetLevel(log.Info)
	}

	if ctx.GlobalBool("vv") {
		log.SetLevel(log.Debug)
	}
	return nil
}

// renderConfig maps the render flags onto a renderer configuration
func renderConfig(ctx *cli.Context) (renderer.Config, error) {
	config := renderer.DefaultConfig()
	config.Width = ctx.Int("width")
	config.Height = ctx.Int("height")
	config.RenderScale = ctx.Float64("scale")
	config.MaxBounces = ctx.Int("bounces")
	config.NumWorkers = ctx.Int("workers")
	config.Seed = ctx.Int64("seed")
	if err := config.Validate(); err != nil {
		return config, err
	}
	return config, nil
}

// loadScene loads a preset and applies the camera and environment flags
func loadScene(ctx *cli.Context) (*scene.Scene, error) {
	s, err := scene.Load(ctx.String("scene"))
	if err != nil {
		return nil, err
	}

	err = s.Edit(func(s *scene.Scene) error {
		if aperture := ctx.Float64("aperture"); aperture >= 0 {
			s.Camera.Aperture = aperture
		}
		if focus := ctx.Float64("focus"); focus > 0 {
			s.Camera.FocusDistance = focus
		}

		envFile := ctx.String("environment")
		if envFile == "" {
			return nil
		}
		tex, err := loaders.LoadImage(envFile)
		if err != nil {
			return err
		}
		ref, err := s.AddTexture(tex)
		if err != nil {
			return err
		}
		s.Environment = ref
		s.BlackBackground = false
		logger.Infof("environment map %s (%dx%d)", envFile, tex.Width, tex.Height)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

func renderScene(ctx *cli.Context) error {
	config, err := renderConfig(ctx)
	if err != nil {
		return err
	}

	s, err := loadScene(ctx)
	if err != nil {
		return err
	}

	logSystemInfo(config)

	r, err := renderer.NewRenderer(s, config)
	if err != nil {
		return err
	}
	defer r.Close()

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	start := time.Now()
	frames, errs := r.RenderProgressive(runCtx, ctx.Int("frames"))
	for result := range frames {
		logger.Infof("frame %d: %.0f paths/s", result.Frame, result.Stats.PathsPerSecond())
	}
	if err := <-errs; err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Noticef("rendered %d frames of %q in %s", r.Frame(), s.Name, time.Since(start).Round(time.Millisecond))
	logger.Notice("\n" + renderer.StatsTable(r.Stats()))

	if err := writePNG(ctx.String("out"), r.DisplayImage(config.Width, config.Height, false)); err != nil {
		return err
	}
	if depthFile := ctx.String("depth"); depthFile != "" {
		if err := writePNG(depthFile, r.DisplayImage(config.Width, config.Height, true)); err != nil {
			return err
		}
	}
	return nil
}

func showStats(ctx *cli.Context) error {
	name := ctx.Args().First()
	if name == "" {
		name = "default"
	}
	s, err := scene.Load(name)
	if err != nil {
		return err
	}
	fmt.Fprint(ctx.App.Writer, s.Stats())
	return nil
}

func listScenes(ctx *cli.Context) error {
	for _, info := range scene.ListScenes() {
		fmt.Fprintf(ctx.App.Writer, "%-18s %s\n", info.ID, info.Description)
	}
	return nil
}

func serve(ctx *cli.Context) error {
	return server.NewServer(fmt.Sprintf(":%d", ctx.Int("port"))).Start()
}

func writePNG(filename string, img image.Image) error {
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("error creating output directory: %w", err)
		}
	}

	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	if err := png.Encode(file, img); err != nil {
		return fmt.Errorf("error saving PNG: %w", err)
	}
	logger.Noticef("render saved as %s", filename)
	return file.Close()
}

// logSystemInfo reports the host the render runs on
func logSystemInfo(config renderer.Config) {
	cpuInfo, err := cpu.Info()
	if err != nil || len(cpuInfo) == 0 {
		logger.Warningf("no CPU information available: %v", err)
	} else {
		logger.Infof("cpu: %s @ %.2f GHz", cpuInfo[0].ModelName, cpuInfo[0].Mhz/1000)
	}

	if memInfo, err := mem.VirtualMemory(); err == nil {
		logger.Infof("memory: %d GB", memInfo.Total/(1024*1024*1024))
	}

	w, h := config.RenderSize()
	logger.Infof("render %dx%d (display %dx%d), %d bounces, %d workers",
		w, h, config.Width, config.Height, config.MaxBounces, config.NumWorkers)
}
