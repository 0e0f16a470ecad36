package nbody

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func buildTree(t *testing.T, s *State, capacity int) *Tree {
	t.Helper()
	arena, err := NewArena(capacity)
	require.NoError(t, err)
	arena.AutoGrow = true
	tree, err := NewBuilder(arena).Build(s)
	require.NoError(t, err)
	return tree
}

func TestForceThetaZeroMatchesBruteForce(t *testing.T) {
	s := buildTestState(t,
		[]float64{0, 3, -2, 5, -4},
		[]float64{0, 1, 2, -3, 4},
		[]float64{1, 2, 0.5, 3, 1.5},
	)
	tree := buildTree(t, s, 64)
	g := GravitationalConstant(s.N())

	bfx, bfy := BruteForce(s, g)

	fe := NewForceEvaluator(0, g)
	for i := 0; i < s.N(); i++ {
		fx, fy := fe.Force(tree, i, s.PosX[i], s.PosY[i], s.Mass[i])
		if math.Abs(fx-bfx[i]) > 1e-9 || math.Abs(fy-bfy[i]) > 1e-9 {
			t.Errorf("particle %d: Force=(%g,%g), BruteForce=(%g,%g)", i, fx, fy, bfx[i], bfy[i])
		}
	}
}

func TestForceThetaHugeCollapsesToWholeSystemCM(t *testing.T) {
	s := buildTestState(t,
		[]float64{10, -30, 7, 12},
		[]float64{5, 9, -11, 0},
		[]float64{1, 2, 3, 4},
	)
	tree := buildTree(t, s, 64)
	g := GravitationalConstant(s.N())

	// A probe particle far outside the cluster: with theta huge, the
	// evaluator must accept the root's monopole for every particle in
	// range, collapsing the whole tree to a single interaction.
	probeX, probeY, probeM := 1000.0, 1000.0, 1.0
	fe := NewForceEvaluator(1e6, g)
	fx, fy := fe.Force(tree, -1, probeX, probeY, probeM)

	root := tree.Node(tree.Root())
	dx, dy := root.CMX-probeX, root.CMY-probeY
	r2 := dx*dx + dy*dy
	denom := math.Pow(r2+softeningEps*softeningEps, 1.5)
	wantFx := g * probeM * root.Mass / denom * dx
	wantFy := g * probeM * root.Mass / denom * dy

	if math.Abs(fx-wantFx) > 1e-9 || math.Abs(fy-wantFy) > 1e-9 {
		t.Errorf("theta=huge Force=(%g,%g), want whole-system-CM force (%g,%g)", fx, fy, wantFx, wantFy)
	}
}

func TestForceNewtonThirdLawOnTwoBodies(t *testing.T) {
	s := buildTestState(t,
		[]float64{-5, 5},
		[]float64{0, 0},
		[]float64{2, 2},
	)
	tree := buildTree(t, s, 16)
	g := GravitationalConstant(s.N())
	fe := NewForceEvaluator(0, g)

	fx0, fy0 := fe.Force(tree, 0, s.PosX[0], s.PosY[0], s.Mass[0])
	fx1, fy1 := fe.Force(tree, 1, s.PosX[1], s.PosY[1], s.Mass[1])

	if math.Abs(fx0+fx1) > 1e-9 || math.Abs(fy0+fy1) > 1e-9 {
		t.Errorf("forces not equal and opposite: (%g,%g) vs (%g,%g)", fx0, fy0, fx1, fy1)
	}
	// Attractive: particle 0 (at x=-5) should be pulled toward +x.
	if fx0 <= 0 {
		t.Errorf("expected particle 0 pulled toward positive x, got fx=%g", fx0)
	}
}

func TestForceStackDepthBounded(t *testing.T) {
	n := 2000
	posX := make([]float64, n)
	posY := make([]float64, n)
	mass := make([]float64, n)
	for i := range posX {
		// A near-degenerate line cluster forces deep recursion on insert.
		posX[i] = float64(i) * 1e-7
		posY[i] = 0
		mass[i] = 1
	}
	s := buildTestState(t, posX, posY, mass)
	tree := buildTree(t, s, 4*n+16)
	g := GravitationalConstant(n)
	fe := NewForceEvaluator(0.5, g)

	for i := 0; i < n; i++ {
		fe.Force(tree, i, s.PosX[i], s.PosY[i], s.Mass[i])
	}
	if fe.MaxStackDepthObserved() > PathologicalStackDepth {
		t.Errorf("MaxStackDepthObserved() = %d, exceeds PathologicalStackDepth=%d", fe.MaxStackDepthObserved(), PathologicalStackDepth)
	}
}

func TestForceCoincidentPairIsFinite(t *testing.T) {
	s := buildTestState(t,
		[]float64{0, 0},
		[]float64{0, 0},
		[]float64{1, 1},
	)
	tree := buildTree(t, s, 16)
	g := GravitationalConstant(s.N())
	fe := NewForceEvaluator(0.5, g)

	fx, fy := fe.Force(tree, 0, s.PosX[0], s.PosY[0], s.Mass[0])
	if math.IsNaN(fx) || math.IsInf(fx, 0) || math.IsNaN(fy) || math.IsInf(fy, 0) {
		t.Errorf("coincident-pair force not finite: (%g,%g)", fx, fy)
	}
}

func TestForceOneParticleIsZero(t *testing.T) {
	s := buildTestState(t, []float64{3}, []float64{4}, []float64{1})
	tree := buildTree(t, s, 4)
	g := GravitationalConstant(s.N())
	fe := NewForceEvaluator(0.5, g)

	fx, fy := fe.Force(tree, 0, s.PosX[0], s.PosY[0], s.Mass[0])
	if fx != 0 || fy != 0 {
		t.Errorf("force on lone particle = (%g,%g), want (0,0)", fx, fy)
	}
}
