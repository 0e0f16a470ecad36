package nbody

import (
	"context"
	"math"
	"math/rand"
	"testing"
)

func randomState(t *testing.T, n int, seed int64) *State {
	t.Helper()
	r := rand.New(rand.NewSource(seed))
	s, err := NewState(n)
	if err != nil {
		t.Fatalf("NewState: %v", err)
	}
	for i := 0; i < n; i++ {
		s.PosX[i] = r.Float64()*200 - 100
		s.PosY[i] = r.Float64()*200 - 100
		s.Mass[i] = 1 + r.Float64()*5
	}
	return s
}

func TestSchedulerDeterministicAcrossThreadCounts(t *testing.T) {
	n := 500
	base := randomState(t, n, 42)
	theta := 0.5
	g := GravitationalConstant(n)

	var reference [][2]float64
	for _, threads := range []int{1, 2, 4, 8} {
		s, err := NewState(n)
		if err != nil {
			t.Fatalf("NewState: %v", err)
		}
		copy(s.PosX, base.PosX)
		copy(s.PosY, base.PosY)
		copy(s.Mass, base.Mass)

		arena, err := NewArena(4*n + 16)
		if err != nil {
			t.Fatalf("NewArena: %v", err)
		}
		tree, err := NewBuilder(arena).Build(s)
		if err != nil {
			t.Fatalf("Build: %v", err)
		}

		sched := NewScheduler(threads)
		if err := sched.ComputeForces(context.Background(), tree, s, theta, g); err != nil {
			t.Fatalf("threads=%d: ComputeForces: %v", threads, err)
		}

		if reference == nil {
			reference = make([][2]float64, n)
			for i := 0; i < n; i++ {
				reference[i] = [2]float64{s.FX[i], s.FY[i]}
			}
			continue
		}
		for i := 0; i < n; i++ {
			if math.Abs(s.FX[i]-reference[i][0]) > 1e-12 || math.Abs(s.FY[i]-reference[i][1]) > 1e-12 {
				t.Fatalf("threads=%d particle %d: (%g,%g) != reference (%g,%g)",
					threads, i, s.FX[i], s.FY[i], reference[i][0], reference[i][1])
			}
		}
	}
}

func TestSchedulerRespectsCancellation(t *testing.T) {
	n := 200
	s := randomState(t, n, 7)
	arena, err := NewArena(4*n + 16)
	if err != nil {
		t.Fatalf("NewArena: %v", err)
	}
	tree, err := NewBuilder(arena).Build(s)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sched := NewScheduler(2)
	err = sched.ComputeForces(ctx, tree, s, 0.5, GravitationalConstant(n))
	if err == nil {
		t.Errorf("ComputeForces with a pre-cancelled context returned nil error")
	}
}
