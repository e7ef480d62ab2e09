// Package collision detects input files that would feed the same trajectories
// into a curve set twice.
package collision

import (
	"errors"
	"fmt"
	"strings"

	"github.com/arloliu/sircmp/format"
	"github.com/arloliu/sircmp/internal/hash"
)

var (
	ErrEmptySource     = errors.New("collision: empty source name")
	ErrDuplicateSource = errors.New("collision: duplicate source")
)

// Tracker tracks input files by their logical name: the path with any
// compression extension removed, so run_1.dat, run_1.dat.gz and run_1.dat.xz all
// name the same trajectories.
//
// Logical names are keyed by their xxHash64. Two different names with the same
// hash are both accepted and flagged through HasCollision; the same logical name
// seen twice is an error.
type Tracker struct {
	logical      map[uint64]string // hash of logical name -> logical name
	sources      []string          // tracked paths in order
	hasCollision bool
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{
		logical: make(map[uint64]string),
		sources: make([]string, 0),
	}
}

// LogicalName strips every trailing compression extension from path.
func LogicalName(path string) string {
	for {
		i := strings.LastIndexByte(path, '.')
		if i < 0 || !format.IsCompressionExtension(path[i+1:]) {
			return path
		}
		path = path[:i]
	}
}

// Track records path.
//
// Returns:
//   - error: ErrEmptySource for an empty path, ErrDuplicateSource when another
//     tracked path has the same logical name
func (t *Tracker) Track(path string) error {
	if path == "" {
		return ErrEmptySource
	}

	name := LogicalName(path)
	key := hash.ID(name)
	if existing, ok := t.logical[key]; ok {
		if existing == name {
			return fmt.Errorf("%w: %s", ErrDuplicateSource, path)
		}
		t.hasCollision = true
	}

	t.logical[key] = name
	t.sources = append(t.sources, path)

	return nil
}

// HasCollision reports whether two different logical names shared a hash.
func (t *Tracker) HasCollision() bool {
	return t.hasCollision
}

// Sources returns the tracked paths in the order Track accepted them.
func (t *Tracker) Sources() []string {
	return t.sources
}

// Count returns the number of tracked paths.
func (t *Tracker) Count() int {
	return len(t.sources)
}

// Reset clears all tracked paths and the collision state.
func (t *Tracker) Reset() {
	clear(t.logical)
	t.sources = t.sources[:0]
	t.hasCollision = false
}
