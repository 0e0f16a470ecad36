package main

import (
	"fmt"
	"strings"
	"time"
)

// Profiler accumulates named scope durations across a run. Grounded on
// voxelrt/rt/app/profiler.go's per-frame scope timer, adapted from
// per-frame reset semantics (a renderer profiles every frame and clears
// between them) to per-run accumulation (a batch simulation profiles
// once and reports totals at exit).
type Profiler struct {
	scopes map[string]time.Duration
	starts map[string]time.Time
	counts map[string]int
	order  []string
}

// NewProfiler returns an empty Profiler.
func NewProfiler() *Profiler {
	return &Profiler{
		scopes: make(map[string]time.Duration),
		starts: make(map[string]time.Time),
		counts: make(map[string]int),
	}
}

// BeginScope marks the start of a named scope.
func (p *Profiler) BeginScope(name string) {
	p.starts[name] = time.Now()
	for _, n := range p.order {
		if n == name {
			return
		}
	}
	p.order = append(p.order, name)
}

// EndScope adds the elapsed time since the matching BeginScope to name's
// running total.
func (p *Profiler) EndScope(name string) {
	if start, ok := p.starts[name]; ok {
		p.scopes[name] += time.Since(start)
		p.counts[name]++
	}
}

// Report renders accumulated scope totals and per-scope call counts, in
// the order each scope was first entered.
func (p *Profiler) Report() string {
	var sb strings.Builder
	sb.WriteString("Timings (wall clock, accumulated):\n")
	for _, name := range p.order {
		ms := float64(p.scopes[name].Microseconds()) / 1000.0
		sb.WriteString(fmt.Sprintf("  %-20s: %10.2f ms over %d calls\n", name, ms, p.counts[name]))
	}
	return sb.String()
}
