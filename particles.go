package nbody

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// State holds the per-particle structure-of-arrays the core operates on.
// All slices share length N and are permuted together on any reordering
// (invariant I1) — no external consumer may hold an index across a
// reordering.
type State struct {
	PosX, PosY []float64
	Mass       []float64

	// Owned by the integrator; seen by the core only during reordering.
	VelX, VelY []float64

	// Written by the force kernel, consumed by the integrator.
	FX, FY []float64

	// Set by Integrator.Step to the most recently computed accelerations;
	// Step recomputes them on every call rather than reading them back.
	AccX, AccY []float64

	// Passed through unchanged by the core; consumed by rendering tools.
	Brightness []float64
}

// NewState allocates a State for n particles with all fields zeroed.
func NewState(n int) (*State, error) {
	if n <= 0 {
		return nil, fmt.Errorf("nbody: NewState: %w: n=%d", ErrArgumentInvalid, n)
	}
	return &State{
		PosX:       make([]float64, n),
		PosY:       make([]float64, n),
		Mass:       make([]float64, n),
		VelX:       make([]float64, n),
		VelY:       make([]float64, n),
		FX:         make([]float64, n),
		FY:         make([]float64, n),
		AccX:       make([]float64, n),
		AccY:       make([]float64, n),
		Brightness: make([]float64, n),
	}, nil
}

// N returns the particle count.
func (s *State) N() int { return len(s.PosX) }

// Validate checks invariant-bearing preconditions for a step: all parallel
// arrays the same length, and no NaN/Inf among positions or masses
// (ErrNonFinite, spec §7).
func (s *State) Validate() error {
	n := s.N()
	arrays := map[string][]float64{
		"PosY": s.PosY, "Mass": s.Mass, "VelX": s.VelX, "VelY": s.VelY,
		"FX": s.FX, "FY": s.FY, "AccX": s.AccX, "AccY": s.AccY,
		"Brightness": s.Brightness,
	}
	for name, arr := range arrays {
		if len(arr) != n {
			return fmt.Errorf("nbody: State.Validate: %w: len(%s)=%d != N=%d", ErrArgumentInvalid, name, len(arr), n)
		}
	}
	for i := 0; i < n; i++ {
		if math.IsNaN(s.PosX[i]) || math.IsInf(s.PosX[i], 0) ||
			math.IsNaN(s.PosY[i]) || math.IsInf(s.PosY[i], 0) ||
			math.IsNaN(s.Mass[i]) || math.IsInf(s.Mass[i], 0) {
			return fmt.Errorf("nbody: State.Validate: %w: particle %d", ErrNonFinite, i)
		}
		if s.Mass[i] <= 0 {
			return fmt.Errorf("nbody: State.Validate: %w: particle %d has non-positive mass %g", ErrArgumentInvalid, i, s.Mass[i])
		}
	}
	return nil
}

// BoundingBox is an axis-aligned square region with a safety margin
// already applied (spec §4.2: "±5% of each side").
type BoundingBox struct {
	XMin, XMax, YMin, YMax float64
}

// Side returns the box's (square) side length.
func (b BoundingBox) Side() float64 { return b.XMax - b.XMin }

// Center returns the box's midpoint.
func (b BoundingBox) Center() mgl64.Vec2 {
	return mgl64.Vec2{(b.XMin + b.XMax) / 2, (b.YMin + b.YMax) / 2}
}

// ComputeBoundingBox scans all particle positions and returns the
// smallest axis-aligned square enclosing them, expanded by marginFrac on
// each side (default caller passes 0.05 for the spec's documented 5%).
// It never returns a box with zero side length, even for N=1 or a
// perfectly coincident cluster — a degenerate box is widened to a small
// default extent so downstream Morton quantization and tree construction
// have a non-degenerate domain to work with.
func ComputeBoundingBox(s *State, marginFrac float64) (BoundingBox, error) {
	n := s.N()
	if n <= 0 {
		return BoundingBox{}, fmt.Errorf("nbody: ComputeBoundingBox: %w: n=%d", ErrArgumentInvalid, n)
	}
	xMin, xMax := s.PosX[0], s.PosX[0]
	yMin, yMax := s.PosY[0], s.PosY[0]
	for i := 1; i < n; i++ {
		if s.PosX[i] < xMin {
			xMin = s.PosX[i]
		}
		if s.PosX[i] > xMax {
			xMax = s.PosX[i]
		}
		if s.PosY[i] < yMin {
			yMin = s.PosY[i]
		}
		if s.PosY[i] > yMax {
			yMax = s.PosY[i]
		}
	}

	width := xMax - xMin
	height := yMax - yMin
	side := math.Max(width, height)
	if side < 1e-9 {
		side = 1.0
	}

	cx := (xMin + xMax) / 2
	cy := (yMin + yMax) / 2
	half := side * (1 + 2*marginFrac) / 2

	return BoundingBox{
		XMin: cx - half,
		XMax: cx + half,
		YMin: cy - half,
		YMax: cy + half,
	}, nil
}
