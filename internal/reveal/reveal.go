// Package reveal produces the order in which puzzle pieces are uncovered.
//
// Orders are either supplied explicitly as indices into the row-major
// enumeration of the grid, or derived from a seed source with the versioned
// algorithm named by [Algorithm]. Changing the seeding or shuffle steps breaks
// reproducibility of every previously rendered video, so any change must ship
// under a new algorithm name.
package reveal

import (
	"crypto/md5"
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"

	"jigsawreveal/internal/services"
)

// Algorithm names the seeded ordering: MD5 of the seed source reduced to its
// low 32 bits, MT19937 seeded with init_by_array, and a Fisher-Yates shuffle
// from the end drawing with rejection sampling.
const Algorithm = "md5-mt19937/v1"

// Coord identifies one piece by its row and column.
type Coord struct {
	Row    int
	Column int
}

func (c Coord) String() string {
	return fmt.Sprintf("(%d,%d)", c.Row, c.Column)
}

// Order is a permutation of every coordinate of a rows x columns grid.
type Order struct {
	Rows    int
	Columns int
	// Indices holds the row-major index of each revealed piece, in reveal order.
	Indices []int
	// Seed is the 32-bit seed used for a derived order; zero for explicit orders.
	Seed     uint32
	Explicit bool
}

// Len returns the number of pieces in the order.
func (o Order) Len() int { return len(o.Indices) }

// Coords maps the indices to coordinates.
func (o Order) Coords() []Coord {
	coords := make([]Coord, len(o.Indices))
	for i, idx := range o.Indices {
		coords[i] = Coord{Row: idx / o.Columns, Column: idx % o.Columns}
	}
	return coords
}

// Canonical enumerates every coordinate of the grid in row-major order.
func Canonical(rows, columns int) []Coord {
	if rows <= 0 || columns <= 0 {
		return nil
	}
	coords := make([]Coord, 0, rows*columns)
	for r := 0; r < rows; r++ {
		for c := 0; c < columns; c++ {
			coords = append(coords, Coord{Row: r, Column: c})
		}
	}
	return coords
}

// Generate returns the reveal order for a grid. A non-nil explicit order must
// be a permutation of 0..rows*columns-1; otherwise the order is derived from
// seedSource, usually the base name of the puzzle image.
func Generate(rows, columns int, explicit []int, seedSource string) (Order, error) {
	if rows <= 0 || columns <= 0 {
		return Order{}, services.Wrap(
			services.ErrInvalidOrder,
			"generate_order",
			"grid",
			fmt.Sprintf("rows and columns must be positive, got %dx%d", rows, columns),
			nil,
		)
	}
	n := rows * columns
	if explicit != nil {
		if err := validatePermutation(explicit, n); err != nil {
			return Order{}, services.Wrap(services.ErrInvalidOrder, "generate_order", "explicit", err.Error(), nil)
		}
		indices := make([]int, n)
		copy(indices, explicit)
		return Order{Rows: rows, Columns: columns, Indices: indices, Explicit: true}, nil
	}

	seed := Seed(seedSource)
	return Order{Rows: rows, Columns: columns, Indices: Shuffle(n, seed), Seed: seed}, nil
}

// Seed hashes source into the 32-bit generator seed.
func Seed(source string) uint32 {
	sum := md5.Sum([]byte(source))
	return binary.BigEndian.Uint32(sum[len(sum)-4:])
}

// Shuffle returns a seeded permutation of 0..n-1.
func Shuffle(n int, seed uint32) []int {
	indices := make([]int, n)
	for i := range indices {
		indices[i] = i
	}
	rng := newMT19937([]uint32{seed})
	for i := n - 1; i > 0; i-- {
		j := rng.below(i + 1)
		indices[i], indices[j] = indices[j], indices[i]
	}
	return indices
}

func validatePermutation(order []int, n int) error {
	if len(order) != n {
		return fmt.Errorf("expected %d indices, got %d", n, len(order))
	}
	seen := make([]bool, n)
	for pos, idx := range order {
		if idx < 0 || idx >= n {
			return fmt.Errorf("index %d at position %d is out of range [0, %d)", idx, pos, n)
		}
		if seen[idx] {
			return fmt.Errorf("index %d appears more than once", idx)
		}
		seen[idx] = true
	}
	return nil
}

// ParseIndices parses a comma or space separated list of indices, as accepted
// on the command line.
func ParseIndices(value string) ([]int, error) {
	fields := strings.FieldsFunc(value, func(r rune) bool { return r == ',' || r == ' ' })
	if len(fields) == 0 {
		return nil, nil
	}
	out := make([]int, 0, len(fields))
	for _, field := range fields {
		idx, err := strconv.Atoi(field)
		if err != nil {
			return nil, services.Wrap(services.ErrInvalidOrder, "generate_order", "parse", fmt.Sprintf("bad index %q", field), err)
		}
		out = append(out, idx)
	}
	return out, nil
}
