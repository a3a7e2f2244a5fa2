package reveal

import (
	"errors"
	"reflect"
	"sort"
	"testing"

	"jigsawreveal/internal/services"
)

func TestMT19937ReferenceOutputs(t *testing.T) {
	rng := newMT19937([]uint32{0x123, 0x234, 0x345, 0x456})
	want := []uint32{1067595299, 955945823, 477289528, 4107218783, 4228976476}
	for i, w := range want {
		if got := rng.Uint32(); got != w {
			t.Fatalf("output %d = %d, want %d", i, got, w)
		}
	}
}

func TestMT19937SingleWordKey(t *testing.T) {
	rng := newMT19937([]uint32{5489})
	want := []uint32{3382763572, 956215839, 417760592}
	for i, w := range want {
		if got := rng.Uint32(); got != w {
			t.Fatalf("output %d = %d, want %d", i, got, w)
		}
	}
}

func TestSeedUsesLowDigestWord(t *testing.T) {
	if got := Seed("cat.png"); got != 2246366341 {
		t.Fatalf("Seed(cat.png) = %d", got)
	}
	if got := Seed("puzzle.jpg"); got != 339548939 {
		t.Fatalf("Seed(puzzle.jpg) = %d", got)
	}
}

func TestGenerateSeededKnownOrders(t *testing.T) {
	cases := []struct {
		source        string
		rows, columns int
		want          []int
	}{
		{"cat.png", 2, 2, []int{1, 3, 0, 2}},
		{"cat.png", 3, 3, []int{3, 6, 4, 2, 7, 8, 0, 1, 5}},
		{"puzzle.jpg", 4, 5, []int{6, 4, 16, 17, 5, 9, 14, 13, 18, 15, 12, 3, 2, 0, 11, 8, 10, 7, 1, 19}},
	}
	for _, tc := range cases {
		order, err := Generate(tc.rows, tc.columns, nil, tc.source)
		if err != nil {
			t.Fatalf("Generate(%s) returned error: %v", tc.source, err)
		}
		if !reflect.DeepEqual(order.Indices, tc.want) {
			t.Fatalf("Generate(%s, %dx%d) = %v, want %v", tc.source, tc.rows, tc.columns, order.Indices, tc.want)
		}
		if order.Explicit {
			t.Fatal("seeded order must not be marked explicit")
		}
	}
}

func TestGenerateIsPermutationAndDeterministic(t *testing.T) {
	for rows := 1; rows <= 6; rows++ {
		for columns := 1; columns <= 6; columns++ {
			first, err := Generate(rows, columns, nil, "image.png")
			if err != nil {
				t.Fatalf("Generate(%d,%d): %v", rows, columns, err)
			}
			second, _ := Generate(rows, columns, nil, "image.png")
			if !reflect.DeepEqual(first.Indices, second.Indices) {
				t.Fatalf("order for %dx%d is not deterministic", rows, columns)
			}
			sorted := append([]int(nil), first.Indices...)
			sort.Ints(sorted)
			for i, v := range sorted {
				if v != i {
					t.Fatalf("order for %dx%d is not a permutation: %v", rows, columns, first.Indices)
				}
			}
		}
	}
}

func TestGenerateExplicitOrder(t *testing.T) {
	order, err := Generate(2, 2, []int{3, 2, 1, 0}, "ignored.png")
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	want := []Coord{{1, 1}, {1, 0}, {0, 1}, {0, 0}}
	if got := order.Coords(); !reflect.DeepEqual(got, want) {
		t.Fatalf("Coords = %v, want %v", got, want)
	}
	if !order.Explicit || order.Len() != 4 {
		t.Fatalf("unexpected order %+v", order)
	}
}

func TestGenerateExplicitCopiesInput(t *testing.T) {
	input := []int{0, 1}
	order, err := Generate(1, 2, input, "")
	if err != nil {
		t.Fatal(err)
	}
	input[0] = 1
	if order.Indices[0] != 0 {
		t.Fatal("order must not alias the caller's slice")
	}
}

func TestGenerateRejectsMalformedOrders(t *testing.T) {
	cases := map[string]struct {
		rows, columns int
		order         []int
	}{
		"too short":    {2, 2, []int{0, 1, 2}},
		"too long":     {2, 2, []int{0, 1, 2, 3, 0}},
		"duplicate":    {2, 2, []int{0, 1, 1, 3}},
		"out of range": {2, 2, []int{0, 1, 2, 4}},
		"negative":     {2, 2, []int{-1, 1, 2, 3}},
		"empty":        {2, 2, []int{}},
		"zero rows":    {0, 2, nil},
		"neg columns":  {2, -1, nil},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Generate(tc.rows, tc.columns, tc.order, "x.png")
			if !errors.Is(err, services.ErrInvalidOrder) {
				t.Fatalf("expected ErrInvalidOrder, got %v", err)
			}
		})
	}
}

func TestCanonical(t *testing.T) {
	got := Canonical(2, 3)
	want := []Coord{{0, 0}, {0, 1}, {0, 2}, {1, 0}, {1, 1}, {1, 2}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Canonical = %v", got)
	}
	if Canonical(0, 3) != nil {
		t.Fatal("expected nil for empty grid")
	}
}

func TestParseIndices(t *testing.T) {
	got, err := ParseIndices("3, 2 1,0")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, []int{3, 2, 1, 0}) {
		t.Fatalf("ParseIndices = %v", got)
	}
	if got, _ := ParseIndices(""); got != nil {
		t.Fatalf("expected nil for empty input, got %v", got)
	}
	if _, err := ParseIndices("1,x"); !errors.Is(err, services.ErrInvalidOrder) {
		t.Fatalf("expected ErrInvalidOrder, got %v", err)
	}
}
