// Command nbody drives a Barnes-Hut gravitational simulation: load a
// .gal snapshot, step it forward nsteps times, optionally dumping a movie
// of intermediate frames, and write the final snapshot back out.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/uuid"

	"github.com/gekko3d/nbody"
	"github.com/gekko3d/nbody/galfile"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "nbody:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("nbody", flag.ContinueOnError)
	movieOut := fs.String("movie", "", "write every resorted frame to this .gal movie file (appended)")
	resort := fs.Int("resort", 10, "Morton-resort the particle arrays every N steps (0 disables resorting)")
	debug := fs.Bool("debug", false, "enable debug logging")
	if err := fs.Parse(args); err != nil {
		return err
	}

	rest := fs.Args()
	if len(rest) != 7 {
		return fmt.Errorf("usage: nbody [-movie out.gal] [-resort N] [-debug] N input.gal nsteps dt n_threads theta k")
	}

	var n int
	var inputFile string
	var nsteps, threads int
	var dt, theta float64
	var k int
	if _, err := fmt.Sscanf(rest[0], "%d", &n); err != nil {
		return fmt.Errorf("parsing N: %w", err)
	}
	inputFile = rest[1]
	if _, err := fmt.Sscanf(rest[2], "%d", &nsteps); err != nil {
		return fmt.Errorf("parsing nsteps: %w", err)
	}
	if _, err := fmt.Sscanf(rest[3], "%g", &dt); err != nil {
		return fmt.Errorf("parsing dt: %w", err)
	}
	if _, err := fmt.Sscanf(rest[4], "%d", &threads); err != nil {
		return fmt.Errorf("parsing n_threads: %w", err)
	}
	if _, err := fmt.Sscanf(rest[5], "%g", &theta); err != nil {
		return fmt.Errorf("parsing theta: %w", err)
	}
	if _, err := fmt.Sscanf(rest[6], "%d", &k); err != nil {
		return fmt.Errorf("parsing k: %w", err)
	}

	runID := uuid.NewString()
	logger := nbody.NewDefaultLogger(runID[:8], *debug)
	logger.Infof("run %s: N=%d theta=%.3f threads=%d nsteps=%d dt=%g", runID, n, theta, threads, nsteps, dt)

	f, err := os.Open(inputFile)
	if err != nil {
		return fmt.Errorf("opening %s: %w", inputFile, err)
	}
	state, err := galfile.Read(f)
	f.Close()
	if err != nil {
		return fmt.Errorf("reading %s: %w", inputFile, err)
	}
	if state.N() != n {
		logger.Warnf("file particle count %d differs from requested N=%d; proceeding with file's count", state.N(), n)
	}

	kernel, err := nbody.NewKernel(4*state.N()+16, theta, threads)
	if err != nil {
		return err
	}
	kernel.Log = logger
	if k > 0 {
		kernel.UseKMeans = true
		kernel.KMeansK = k
	}
	integrator := nbody.NewIntegrator(kernel)

	var movie *os.File
	if *movieOut != "" {
		movie, err = os.Create(*movieOut)
		if err != nil {
			return fmt.Errorf("creating movie file %s: %w", *movieOut, err)
		}
		defer movie.Close()
	}

	prof := NewProfiler()
	ctx := context.Background()

	for step := 0; step < nsteps; step++ {
		prof.BeginScope("step")
		if err := integrator.Step(ctx, state, dt); err != nil {
			return fmt.Errorf("step %d: %w", step, err)
		}
		prof.EndScope("step")

		if *resort > 0 && (step+1)%*resort == 0 {
			prof.BeginScope("resort")
			box, err := nbody.ComputeBoundingBox(state, kernel.Builder.BoxMarginFrac)
			if err != nil {
				return fmt.Errorf("step %d: resort: %w", step, err)
			}
			nbody.MortonSort(state, box)
			prof.EndScope("resort")

			if movie != nil {
				prof.BeginScope("movie write")
				if err := galfile.Write(movie, state); err != nil {
					return fmt.Errorf("step %d: writing movie frame: %w", step, err)
				}
				prof.EndScope("movie write")
			}
		}
	}

	out, err := os.Create(inputFile + ".out")
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	defer out.Close()
	if err := galfile.Write(out, state); err != nil {
		return fmt.Errorf("writing final snapshot: %w", err)
	}

	logger.Infof("run %s: done, arena used %d/%d nodes", runID, kernel.Arena.Used(), kernel.Arena.Capacity())
	if *debug {
		logger.Debugf("%s", prof.Report())
	}
	return nil
}
