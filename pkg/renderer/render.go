package renderer

import (
	"fmt"
	"math/rand"
	"runtime"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/jpeterson/pathtracer/pkg/core"
	"github.com/jpeterson/pathtracer/pkg/integrator"
	"github.com/jpeterson/pathtracer/pkg/scene"
)

func defaultWorkerCount() int {
	return runtime.NumCPU()
}

// Image is a linear-space RGB framebuffer, row-major with origin top-left.
type Image struct {
	Width, Height int
	Pixels        []core.Vec3
}

// NewImage allocates a black image of the given dimensions.
func NewImage(width, height int) *Image {
	return &Image{Width: width, Height: height, Pixels: make([]core.Vec3, width*height)}
}

// At returns the pixel at (x,y).
func (img *Image) At(x, y int) core.Vec3 {
	return img.Pixels[y*img.Width+x]
}

// Set writes the pixel at (x,y).
func (img *Image) Set(x, y int, c core.Vec3) {
	img.Pixels[y*img.Width+x] = c
}

// Options configures a single render pass.
type Options struct {
	Workers        int // goroutines rendering rows concurrently; 0 picks runtime.NumCPU()
	ToneMap        bool
	GammaMode      GammaMode
	DitherSeed     int64
	Logger         core.Logger
}

// RenderPass renders sc at the given sample count, dispatching rows across
// Options.Workers goroutines via an errgroup (spec.md §4.6's "work-stealing
// pool over rows" equivalence to OpenMP dynamic scheduling). It returns the
// raw linear-space image before post-processing.
func RenderPass(sc *scene.Scene, samplesPerPixel int, opts Options) (*Image, error) {
	img := NewImage(sc.Width, sc.Height)

	workers := opts.Workers
	if workers <= 0 {
		workers = defaultWorkerCount()
	}

	var nextRow int64 = -1
	var rowsDone int64
	progressEvery := (sc.Height + 99) / 100
	if progressEvery < 1 {
		progressEvery = 1
	}

	g := new(errgroup.Group)
	for w := 0; w < workers; w++ {
		workerSeed := opts.DitherSeed + int64(w)*9781 + 1
		g.Go(func() error {
			sampler := core.NewRandomSampler(workerSeed)
			for {
				row := int(atomic.AddInt64(&nextRow, 1))
				if row >= sc.Height {
					return nil
				}
				renderRow(img, sc, row, samplesPerPixel, sampler)

				done := atomic.AddInt64(&rowsDone, 1)
				if opts.Logger != nil && done%int64(progressEvery) == 0 {
					opts.Logger.Printf("rendered %d/%d rows", done, sc.Height)
				}
			}
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return img, nil
}

func renderRow(img *Image, sc *scene.Scene, y, samplesPerPixel int, sampler core.Sampler) {
	inv := 1.0 / float64(samplesPerPixel)
	for x := 0; x < sc.Width; x++ {
		sum := core.Vec3{}
		for s := 0; s < samplesPerPixel; s++ {
			jx, jy := 0.5, 0.5
			if sc.Jitter {
				jx, jy = sampler.Get1D(), sampler.Get1D()
			}
			ray := sc.Camera.Ray(x, y, jx, jy)
			sum = sum.Add(integrator.Li(ray, sc, sampler))
		}
		img.Set(x, y, sum.Multiply(inv))
	}
}

// PostProcess applies the tone-map and gamma/dither passes, returning a new
// image (the input is left untouched).
func PostProcess(img *Image, sc *scene.Scene, opts Options) *Image {
	out := NewImage(img.Width, img.Height)
	rng := rand.New(rand.NewSource(opts.DitherSeed))

	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			c := img.At(x, y)
			if opts.ToneMap {
				c = ToneMap(c, sc.Camera.Exposure)
			}
			c = GammaCorrect(c, opts.GammaMode, sc.Camera.Gamma, rng)
			out.Set(x, y, c)
		}
	}
	return out
}

// OutputFilename disambiguates sc.OutputFile by suffixing the sample count
// when the scene's samples_per_pixel sequence has more than one entry
// (spec.md §4.6).
func OutputFilename(base string, spp int, sequenceLen int) string {
	if sequenceLen <= 1 {
		return base
	}
	ext := ""
	name := base
	for i := len(base) - 1; i >= 0; i-- {
		if base[i] == '.' {
			ext = base[i:]
			name = base[:i]
			break
		}
	}
	return fmt.Sprintf("%s.spp%d%s", name, spp, ext)
}
