package nbody

import "errors"

// Sentinel errors the core distinguishes. See spec §7.
var (
	// ErrArgumentInvalid is returned for N<=0, theta<0, dt<=0, or other
	// caller-supplied arguments outside their documented domain.
	ErrArgumentInvalid = errors.New("nbody: invalid argument")

	// ErrArenaExhausted is returned when tree construction overran the
	// arena's preallocated node capacity. Fatal: the caller must either
	// abort or rebuild with a larger arena.
	ErrArenaExhausted = errors.New("nbody: arena exhausted")

	// ErrParticleOutOfRegion reports a particle whose position left the
	// declared bounding box between tree rebuilds. Nothing in this package
	// returns it: Integrator.Step performs no bounds check, and the
	// bounding box is recomputed on every tree build.
	ErrParticleOutOfRegion = errors.New("nbody: particle left bounding region")

	// ErrNonFinite is returned when a position or mass is NaN or Inf at
	// the start of a step.
	ErrNonFinite = errors.New("nbody: non-finite position or mass")
)
