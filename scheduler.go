package nbody

import (
	"context"
	"runtime"
	"sync"
)

// DefaultChunkSize is the spec's recommended dynamic chunk size for the
// k=0 Morton-sorted scheduling mode (spec §4.4: "chunk size 64 is the
// target; the source ablation found 8-128 all acceptable").
const DefaultChunkSize = 64

// Scheduler distributes per-particle force evaluation across worker
// goroutines. The recommended configuration (spec §4.4 "k=0 mode") visits
// particle indices in Morton order (established beforehand by the caller
// via MortonSort) and dispatches them in dynamic chunks of ChunkSize;
// because Morton neighbours are spatial neighbours, a chunk's traversal
// pattern hits largely overlapping tree nodes.
type Scheduler struct {
	ChunkSize int
	Threads   int
}

// NewScheduler returns a Scheduler with the spec's default chunk size.
func NewScheduler(threads int) *Scheduler {
	return &Scheduler{ChunkSize: DefaultChunkSize, Threads: threads}
}

// ComputeForces evaluates the force on every particle in s against tree,
// writing fx[i]/fy[i] for every i. Each worker goroutine owns one
// ForceEvaluator (and therefore one traversal stack) for its entire
// lifetime, reused across every chunk it dynamically pulls — the stack
// buffer is the only per-worker mutable state, and it never touches
// another worker's chunk. Beyond that there is no shared mutable state
// across workers other than the read-only tree and particle arrays
// (spec §5).
func (sched *Scheduler) ComputeForces(ctx context.Context, tree *Tree, s *State, theta, g float64) error {
	n := s.N()
	chunkSize := sched.ChunkSize
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	workers := sched.Threads
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > n {
		workers = n
	}
	if workers < 1 {
		workers = 1
	}
	if n == 0 {
		return nil
	}

	type chunk struct{ lo, hi int }
	chunks := make(chan chunk, (n+chunkSize-1)/chunkSize)
	for lo := 0; lo < n; lo += chunkSize {
		hi := lo + chunkSize
		if hi > n {
			hi = n
		}
		chunks <- chunk{lo, hi}
	}
	close(chunks)

	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			fe := NewForceEvaluator(theta, g)
			for c := range chunks {
				select {
				case <-ctx.Done():
					return
				default:
				}
				for i := c.lo; i < c.hi; i++ {
					fx, fy := fe.Force(tree, i, s.PosX[i], s.PosY[i], s.Mass[i])
					s.FX[i] = fx
					s.FY[i] = fy
				}
			}
		}()
	}
	wg.Wait()

	return ctx.Err()
}
