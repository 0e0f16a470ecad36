package nbody

import (
	"context"
	"math"
	"runtime"
	"sync"
)

// KMeansScheduler is the documented, non-default alternative to the
// Morton/dynamic-chunk Scheduler (spec §4.4). It partitions particles
// into K spatial clusters via 2-D k-means, over-decomposing so K is much
// larger than the thread count, then dispatches clusters dynamically —
// the original design, which the source's own ablation found strictly
// worse than Morton + dynamic chunking for every tested N <= 2e4. Kept
// here as a benchmark option, not the conforming default.
type KMeansScheduler struct {
	K          int
	Threads    int
	Iterations int
}

// NewKMeansScheduler returns a scheduler with k clusters and a modest
// fixed iteration count (Lloyd's algorithm rarely needs more for a
// scheduling partition, as opposed to a quality clustering result).
func NewKMeansScheduler(k, threads int) *KMeansScheduler {
	return &KMeansScheduler{K: k, Threads: threads, Iterations: 10}
}

// clusterOf assigns each particle to a cluster index via Lloyd's
// algorithm, reseeding any cluster that goes empty after an iteration.
//
// Empty-cluster recovery (resolves spec §9's Open Question: the source's
// "ctr := pos_x[i]" recovery is only meaningful for i<N and undefined for
// k>N): an empty cluster's centroid is reseeded from the particle
// currently farthest (squared distance) from its own cluster's centroid,
// which stays well-defined no matter how K compares to N, since it only
// ever looks at particles that already have a populated cluster.
func clusterOf(s *State, k int, iterations int) (assign []int, centroidX, centroidY []float64) {
	n := s.N()
	if k > n {
		k = n
	}
	if k < 1 {
		k = 1
	}

	centroidX = make([]float64, k)
	centroidY = make([]float64, k)
	// Deterministic seed: evenly spaced particles by index, not random —
	// keeps I6 (determinism) intact across runs with identical inputs.
	for c := 0; c < k; c++ {
		idx := (c * n) / k
		centroidX[c] = s.PosX[idx]
		centroidY[c] = s.PosY[idx]
	}

	assign = make([]int, n)
	counts := make([]int, k)

	for iter := 0; iter < iterations; iter++ {
		for c := range counts {
			counts[c] = 0
		}
		for i := 0; i < n; i++ {
			best, bestD := 0, math.Inf(1)
			for c := 0; c < k; c++ {
				dx := s.PosX[i] - centroidX[c]
				dy := s.PosY[i] - centroidY[c]
				d := dx*dx + dy*dy
				if d < bestD {
					bestD, best = d, c
				}
			}
			assign[i] = best
			counts[best]++
		}

		sumX := make([]float64, k)
		sumY := make([]float64, k)
		for i := 0; i < n; i++ {
			c := assign[i]
			sumX[c] += s.PosX[i]
			sumY[c] += s.PosY[i]
		}
		for c := 0; c < k; c++ {
			if counts[c] == 0 {
				continue
			}
			centroidX[c] = sumX[c] / float64(counts[c])
			centroidY[c] = sumY[c] / float64(counts[c])
		}

		// Reseed any cluster left empty this round.
		for c := 0; c < k; c++ {
			if counts[c] != 0 {
				continue
			}
			src, srcD := -1, -1.0
			for i := 0; i < n; i++ {
				oc := assign[i]
				if counts[oc] <= 1 {
					continue // don't strip another cluster down to empty
				}
				dx := s.PosX[i] - centroidX[oc]
				dy := s.PosY[i] - centroidY[oc]
				d := dx*dx + dy*dy
				if d > srcD {
					srcD, src = d, i
				}
			}
			if src < 0 {
				continue
			}
			counts[assign[src]]--
			assign[src] = c
			counts[c] = 1
			centroidX[c] = s.PosX[src]
			centroidY[c] = s.PosY[src]
		}
	}

	return assign, centroidX, centroidY
}

// ComputeForces partitions s into K clusters and dispatches each cluster's
// particle indices as one dynamically scheduled unit of work, mirroring
// the Morton scheduler's chunk dispatch but over cluster membership lists
// instead of contiguous index ranges.
func (ks *KMeansScheduler) ComputeForces(ctx context.Context, tree *Tree, s *State, theta, g float64) error {
	n := s.N()
	if n == 0 {
		return nil
	}
	assign, _, _ := clusterOf(s, ks.K, ks.Iterations)

	k := 0
	for _, c := range assign {
		if c+1 > k {
			k = c + 1
		}
	}
	members := make([][]int, k)
	for i, c := range assign {
		members[c] = append(members[c], i)
	}

	workers := ks.Threads
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > k {
		workers = k
	}
	if workers < 1 {
		workers = 1
	}

	jobs := make(chan []int, k)
	for _, m := range members {
		if len(m) > 0 {
			jobs <- m
		}
	}
	close(jobs)

	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			fe := NewForceEvaluator(theta, g)
			for idxs := range jobs {
				select {
				case <-ctx.Done():
					return
				default:
				}
				for _, i := range idxs {
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
