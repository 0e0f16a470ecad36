package nbody

import (
	"context"
	"fmt"
)

// Kernel is the top-level per-step entry point: reset arena, compute
// bounds, build the tree, evaluate forces in parallel (spec §2's data
// flow). Callers that also want Morton reordering or logging own those
// steps themselves — Kernel only ever does the four above, every step.
type Kernel struct {
	Arena   *Arena
	Builder *Builder
	Theta   float64
	Threads int

	// UseKMeans selects the k-means cluster scheduler (spec §4.4's
	// documented alternative) instead of the default Morton/dynamic-chunk
	// Scheduler. KMeansK must be set when this is true.
	UseKMeans bool
	KMeansK   int

	Log Logger
}

// NewKernel returns a Kernel with a freshly allocated arena sized for
// capacity nodes (the caller estimates this from N and the expected
// tree depth; spec §4.1 suggests 4*N as a starting point), and the
// Morton/dynamic-chunk scheduler as the default per spec §4.4.
func NewKernel(capacity int, theta float64, threads int) (*Kernel, error) {
	if theta < 0 {
		return nil, fmt.Errorf("nbody: NewKernel: %w: theta=%g", ErrArgumentInvalid, theta)
	}
	arena, err := NewArena(capacity)
	if err != nil {
		return nil, err
	}
	arena.AutoGrow = true
	return &Kernel{
		Arena:   arena,
		Builder: NewBuilder(arena),
		Theta:   theta,
		Threads: threads,
		Log:     NewNopLogger(),
	}, nil
}

// ComputeForces runs one full force-evaluation pass over s: reset the
// arena, recompute the bounding box, rebuild the tree, then dispatch
// parallel force evaluation writing s.FX/s.FY (spec §2, §6.2). The tree
// itself is local to this call — nothing about it survives past return,
// matching the arena's one-build-per-call lifetime (spec §4.1).
func (k *Kernel) ComputeForces(ctx context.Context, s *State) error {
	if err := s.Validate(); err != nil {
		return err
	}

	g := GravitationalConstant(s.N())

	tree, err := k.Builder.Build(s)
	if err != nil {
		return fmt.Errorf("nbody: Kernel.ComputeForces: build tree: %w", err)
	}
	k.Log.Debugf("built tree: %d/%d arena nodes used", k.Arena.Used(), k.Arena.Capacity())

	if k.UseKMeans {
		sched := NewKMeansScheduler(k.KMeansK, k.Threads)
		return sched.ComputeForces(ctx, tree, s, k.Theta, g)
	}
	sched := NewScheduler(k.Threads)
	return sched.ComputeForces(ctx, tree, s, k.Theta, g)
}
