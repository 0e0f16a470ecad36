package nbody

import (
	"sort"

	"github.com/go-gl/mathgl/mgl64"
)

// QuantizeToGrid maps a position to 32-bit unsigned grid coordinates
// within box (spec §4.5). The position is taken as an mgl64.Vec2 rather
// than a pair of floats so that it matches the vector type used at the
// rest of the package's 2-D point boundaries (see BoundingBox.Center).
func QuantizeToGrid(pos mgl64.Vec2, box BoundingBox) (ix, iy uint32) {
	scaleX := float64(^uint32(0)) / (box.XMax - box.XMin)
	scaleY := float64(^uint32(0)) / (box.YMax - box.YMin)
	fx := (pos.X() - box.XMin) * scaleX
	fy := (pos.Y() - box.YMin) * scaleY
	ix = clampToUint32(fx)
	iy = clampToUint32(fy)
	return ix, iy
}

func clampToUint32(f float64) uint32 {
	if f <= 0 {
		return 0
	}
	max := float64(^uint32(0))
	if f >= max {
		return ^uint32(0)
	}
	return uint32(f)
}

// spreadBitsNaive interleaves the low 32 bits of v with zero bits by
// testing one bit at a time — the simplest possible implementation,
// retained as the reference the magic-constant version is checked
// against (spec §4.5: "a property test must verify both yield identical
// codes").
func spreadBitsNaive(v uint32) uint64 {
	var out uint64
	for i := 0; i < 32; i++ {
		bit := (v >> uint(i)) & 1
		out |= uint64(bit) << uint(2*i)
	}
	return out
}

// spreadBitsMagic interleaves the low 32 bits of v with zero bits using
// the standard magic-constant "split by 2" bit-spreading sequence.
func spreadBitsMagic(v uint64) uint64 {
	v &= 0x00000000ffffffff
	v = (v | (v << 16)) & 0x0000FFFF0000FFFF
	v = (v | (v << 8)) & 0x00FF00FF00FF00FF
	v = (v | (v << 4)) & 0x0F0F0F0F0F0F0F0F
	v = (v | (v << 2)) & 0x3333333333333333
	v = (v | (v << 1)) & 0x5555555555555555
	return v
}

// MortonCode returns the 64-bit Z-order code interleaving ix's bits into
// the even positions and iy's bits into the odd positions.
func MortonCode(ix, iy uint32) uint64 {
	return spreadBitsMagic(uint64(ix)) | (spreadBitsMagic(uint64(iy)) << 1)
}

// mortonCodeNaive is the naive-interleave equivalent of MortonCode, kept
// for the cross-check property test.
func mortonCodeNaive(ix, iy uint32) uint64 {
	return spreadBitsNaive(ix) | (spreadBitsNaive(iy) << 1)
}

// MortonCodes computes the Morton code of every particle in s against box.
func MortonCodes(s *State, box BoundingBox) []uint64 {
	codes := make([]uint64, s.N())
	for i := 0; i < s.N(); i++ {
		ix, iy := QuantizeToGrid(mgl64.Vec2{s.PosX[i], s.PosY[i]}, box)
		codes[i] = MortonCode(ix, iy)
	}
	return codes
}

// mortonRadixSortThreshold is where the core switches from
// sort.Slice to an explicit LSD radix pass (spec §4.5: "radix sort ...
// recommended for N > 1e5").
const mortonRadixSortThreshold = 100_000

// SortPermutation returns a permutation perm such that iterating
// perm[0], perm[1], ... visits particles in increasing Morton order,
// breaking ties by original index so the result is deterministic
// regardless of the underlying sort's stability (spec §4.5).
func SortPermutation(codes []uint64) []int {
	n := len(codes)
	perm := make([]int, n)
	for i := range perm {
		perm[i] = i
	}

	if n > mortonRadixSortThreshold {
		return radixSortPermutation(codes, perm)
	}

	sort.Slice(perm, func(a, b int) bool {
		ca, cb := codes[perm[a]], codes[perm[b]]
		if ca != cb {
			return ca < cb
		}
		return perm[a] < perm[b]
	})
	return perm
}

// radixSortPermutation performs an 8-pass, 8-bit-digit LSD radix sort on
// the 64-bit Morton codes, carrying perm along. LSD radix sort is stable
// by construction, which combined with perm's initial ascending order
// gives the same original-index tie-break as the sort.Slice path above.
func radixSortPermutation(codes []uint64, perm []int) []int {
	n := len(perm)
	buf := make([]int, n)
	const radix = 256

	src, dst := perm, buf
	for pass := 0; pass < 8; pass++ {
		shift := uint(pass * 8)
		var count [radix + 1]int
		for _, p := range src {
			digit := (codes[p] >> shift) & 0xff
			count[digit+1]++
		}
		for d := 0; d < radix; d++ {
			count[d+1] += count[d]
		}
		for _, p := range src {
			digit := (codes[p] >> shift) & 0xff
			dst[count[digit]] = p
			count[digit]++
		}
		src, dst = dst, src
	}
	return src
}

// ApplyPermutation reorders every parallel array in s in place according
// to perm: the particle formerly at perm[k] becomes the particle at index
// k (invariant I1 — every call site must co-permute all arrays or risk
// holding stale indices across the reordering).
func ApplyPermutation(s *State, perm []int) {
	permuteF64(s.PosX, perm)
	permuteF64(s.PosY, perm)
	permuteF64(s.Mass, perm)
	permuteF64(s.VelX, perm)
	permuteF64(s.VelY, perm)
	permuteF64(s.FX, perm)
	permuteF64(s.FY, perm)
	permuteF64(s.AccX, perm)
	permuteF64(s.AccY, perm)
	permuteF64(s.Brightness, perm)
}

func permuteF64(arr []float64, perm []int) {
	n := len(arr)
	out := make([]float64, n)
	for k, src := range perm {
		out[k] = arr[src]
	}
	copy(arr, out)
}

// MortonSort computes the Morton order of s's particles against box and
// applies it in place. The core exposes this operation but never calls it
// itself (spec §4.5: "the driver decides").
func MortonSort(s *State, box BoundingBox) {
	codes := MortonCodes(s, box)
	perm := SortPermutation(codes)
	ApplyPermutation(s, perm)
}
