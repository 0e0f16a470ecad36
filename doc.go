// Package nbody implements a 2-D gravitational N-body force kernel using
// the Barnes–Hut hierarchical approximation: a bump-allocated quadtree
// built over Morton-ordered particles, evaluated in parallel by a
// dynamically scheduled worker pool.
//
// The package exposes one operation per simulation step (Kernel.ComputeForces)
// plus a velocity-Verlet integrator (Integrator.Step) that calls it twice.
// Command-line parsing, file I/O and movie-frame dumping live outside this
// package, in cmd/nbody and galfile. The repository has no
// initial-condition generator.
package nbody
