package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/jpeterson/pathtracer/pkg/loaders"
	"github.com/jpeterson/pathtracer/pkg/renderer"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: pathTracer <scene-file>")
		os.Exit(1)
	}

	if err := run(os.Args[1]); err != nil {
		fmt.Fprintf(os.Stderr, "pathTracer: %v\n", err)
		os.Exit(1)
	}
}

func run(scenePath string) error {
	logger := renderer.NewDefaultLogger()

	sc, err := loaders.LoadScene(scenePath)
	if err != nil {
		return err
	}

	opts := renderer.Options{
		Workers:    workerOverride(),
		ToneMap:    sc.ToneMap,
		GammaMode:  renderer.GammaSimple,
		DitherSeed: 1,
		Logger:     logger,
	}

	sequence := sc.SamplesPerPixel
	for _, spp := range sequence {
		logger.Printf("rendering %q at %d spp", scenePath, spp)

		img, err := renderer.RenderPass(sc, spp, opts)
		if err != nil {
			return err
		}

		final := renderer.PostProcess(img, sc, opts)

		outPath := renderer.OutputFilename(sc.OutputFile, spp, len(sequence))
		if err := loaders.WriteImage(final, outPath); err != nil {
			// The rendered buffer above is unaffected by a write failure; the
			// error ends the run, so any remaining passes are not rendered.
			return err
		}
		logger.Printf("wrote %q", outPath)
	}

	return nil
}

// workerOverride honors an optional thread-count override (spec.md §6), read
// from PATHTRACER_WORKERS. Zero or an unparseable value leaves the choice to
// renderer.Options' own runtime.NumCPU() default.
func workerOverride() int {
	v := os.Getenv("PATHTRACER_WORKERS")
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0
	}
	return n
}
