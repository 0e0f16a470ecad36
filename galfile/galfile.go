// Package galfile reads and writes the .gal binary particle snapshot
// format: a small magic/version header followed by one fixed-size record
// per particle. Grounded on the teacher's VOX chunk reader (magic number
// check, io.ReadFull into fixed buffers, binary.Read for typed fields,
// descriptive errors instead of panics on malformed input) adapted from
// VOX's variable-length chunked layout to a single fixed-stride record,
// since a particle snapshot has no nested structure to chunk.
package galfile

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/gekko3d/nbody"
)

// magic identifies a .gal file; version is bumped if the record layout
// ever changes.
const (
	magic          = "GAL1"
	formatVersion  = uint32(1)
	fieldsPerPart  = 6
	bytesPerField  = 8
	bytesPerRecord = fieldsPerPart * bytesPerField
)

// ErrBadMagic is returned when a file's header doesn't start with the
// expected magic bytes.
var ErrBadMagic = errors.New("galfile: not a .gal file")

// ErrUnsupportedVersion is returned when a file declares a format version
// this package doesn't know how to read.
var ErrUnsupportedVersion = errors.New("galfile: unsupported format version")

// ErrTruncated is returned when fewer than the declared particle count's
// worth of records are present.
var ErrTruncated = errors.New("galfile: truncated file")

// Read parses a .gal stream into a State. Record order becomes particle
// index order (spec §6.1: "field order per particle: pos_x, pos_y, mass,
// vel_x, vel_y, brightness").
func Read(r io.Reader) (*nbody.State, error) {
	var magicBuf [4]byte
	if _, err := io.ReadFull(r, magicBuf[:]); err != nil {
		return nil, fmt.Errorf("galfile: read magic: %w", err)
	}
	if string(magicBuf[:]) != magic {
		return nil, ErrBadMagic
	}

	var version uint32
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil {
		return nil, fmt.Errorf("galfile: read version: %w", err)
	}
	if version != formatVersion {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrUnsupportedVersion, version, formatVersion)
	}

	var count uint32
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return nil, fmt.Errorf("galfile: read particle count: %w", err)
	}

	s, err := nbody.NewState(int(count))
	if err != nil {
		return nil, fmt.Errorf("galfile: %w", err)
	}

	record := make([]byte, bytesPerRecord)
	for i := 0; i < int(count); i++ {
		if _, err := io.ReadFull(r, record); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return nil, fmt.Errorf("%w: particle %d of %d", ErrTruncated, i, count)
			}
			return nil, fmt.Errorf("galfile: read particle %d: %w", i, err)
		}
		s.PosX[i] = readF64(record[0:8])
		s.PosY[i] = readF64(record[8:16])
		s.Mass[i] = readF64(record[16:24])
		s.VelX[i] = readF64(record[24:32])
		s.VelY[i] = readF64(record[32:40])
		s.Brightness[i] = readF64(record[40:48])
	}

	return s, nil
}

// Write serializes s to w in .gal format.
func Write(w io.Writer, s *nbody.State) error {
	if _, err := w.Write([]byte(magic)); err != nil {
		return fmt.Errorf("galfile: write magic: %w", err)
	}
	if err := binary.Write(w, binary.LittleEndian, formatVersion); err != nil {
		return fmt.Errorf("galfile: write version: %w", err)
	}
	n := s.N()
	if err := binary.Write(w, binary.LittleEndian, uint32(n)); err != nil {
		return fmt.Errorf("galfile: write particle count: %w", err)
	}

	record := make([]byte, bytesPerRecord)
	for i := 0; i < n; i++ {
		writeF64(record[0:8], s.PosX[i])
		writeF64(record[8:16], s.PosY[i])
		writeF64(record[16:24], s.Mass[i])
		writeF64(record[24:32], s.VelX[i])
		writeF64(record[32:40], s.VelY[i])
		writeF64(record[40:48], s.Brightness[i])
		if _, err := w.Write(record); err != nil {
			return fmt.Errorf("galfile: write particle %d: %w", i, err)
		}
	}
	return nil
}

func readF64(b []byte) float64 {
	return math.Float64frombits(binary.LittleEndian.Uint64(b))
}

func writeF64(b []byte, v float64) {
	binary.LittleEndian.PutUint64(b, math.Float64bits(v))
}
