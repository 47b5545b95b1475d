package world

import (
	"testing"

	"github.com/valewood/simcore/internal/component"
	"github.com/valewood/simcore/internal/core/ecs"
)

func TestCellOfFloorsNegatives(t *testing.T) {
	g := NewGrid(128)

	cases := []struct {
		pos  component.Vec2
		want CellKey
	}{
		{component.Vec2{X: 0, Y: 0}, CellKey{0, 0}},
		{component.Vec2{X: 127.9, Y: 127.9}, CellKey{0, 0}},
		{component.Vec2{X: 128, Y: 0}, CellKey{1, 0}},
		{component.Vec2{X: -0.1, Y: -0.1}, CellKey{-1, -1}},
		{component.Vec2{X: -128, Y: -129}, CellKey{-1, -2}},
	}
	for _, c := range cases {
		if got := g.CellOf(c.pos); got != c.want {
			t.Fatalf("CellOf(%v) = %v, want %v", c.pos, got, c.want)
		}
	}
}

func TestGridUpsertMovesBetweenCells(t *testing.T) {
	g := NewGrid(128)
	h := ecs.NewHandle(1, 0)

	g.Upsert(h, component.Vec2{X: 50, Y: 50})
	if k, _ := g.Cell(h); k != (CellKey{0, 0}) {
		t.Fatalf("initial cell = %v, want (0,0)", k)
	}

	g.Upsert(h, component.Vec2{X: 200, Y: 50})
	if k, _ := g.Cell(h); k != (CellKey{1, 0}) {
		t.Fatalf("cell after move = %v, want (1,0)", k)
	}
	// Old cell is empty and must have been deleted; only the new cell
	// keeps the entity.
	for _, got := range g.QueryRadius(component.Vec2{X: 50, Y: 50}, 1) {
		if got == h {
			t.Fatalf("entity still indexed in its old cell after move")
		}
	}
	if g.Len() != 1 {
		t.Fatalf("Len = %d, want 1 after intra-grid move", g.Len())
	}
}

func TestQueryRadiusStaysInsideBoundingBox(t *testing.T) {
	g := NewGrid(128)
	h := ecs.NewHandle(1, 0)

	g.Upsert(h, component.Vec2{X: 50, Y: 50})
	g.Upsert(h, component.Vec2{X: 200, Y: 50})

	// The box x in [-100,100] only touches cells -1..0, so the entity in
	// cell (1,0) must not appear even though CellOf(200,50) is adjacent
	// to the center cell.
	for _, got := range g.QueryRadius(component.Vec2{X: 0, Y: 0}, 100) {
		if got == h {
			t.Fatalf("QueryRadius scanned cells outside the radius bounding box")
		}
	}
	// A box that does reach cell (1,0) still finds it.
	found := false
	for _, got := range g.QueryRadius(component.Vec2{X: 0, Y: 50}, 130) {
		if got == h {
			found = true
		}
	}
	if !found {
		t.Fatalf("QueryRadius missed an entity whose cell intersects the box")
	}
}

func TestGridUpsertSameCellIdempotent(t *testing.T) {
	g := NewGrid(128)
	h := ecs.NewHandle(3, 1)

	g.Upsert(h, component.Vec2{X: 10, Y: 10})
	g.Upsert(h, component.Vec2{X: 100, Y: 100}) // same cell
	if g.Len() != 1 {
		t.Fatalf("Len = %d, want 1", g.Len())
	}
	found := 0
	for _, got := range g.QueryRadius(component.Vec2{X: 64, Y: 64}, 1) {
		if got == h {
			found++
		}
	}
	if found != 1 {
		t.Fatalf("entity indexed %d times, want exactly once", found)
	}
}

func TestGridRemove(t *testing.T) {
	g := NewGrid(128)
	h := ecs.NewHandle(2, 0)

	g.Upsert(h, component.Vec2{X: 5, Y: 5})
	g.Remove(h)
	if g.Len() != 0 {
		t.Fatalf("Len = %d after remove, want 0", g.Len())
	}
	if _, ok := g.Cell(h); ok {
		t.Fatalf("Cell should report absence after remove")
	}
	// Removing again is harmless.
	g.Remove(h)
}

func TestQueryRadiusSuperset(t *testing.T) {
	g := NewGrid(128)

	inside := ecs.NewHandle(1, 0)
	edge := ecs.NewHandle(2, 0)
	far := ecs.NewHandle(3, 0)
	g.Upsert(inside, component.Vec2{X: 10, Y: 10})
	g.Upsert(edge, component.Vec2{X: 140, Y: 0})
	g.Upsert(far, component.Vec2{X: 1000, Y: 1000})

	got := g.QueryRadius(component.Vec2{X: 0, Y: 0}, 150)
	has := func(h ecs.Handle) bool {
		for _, x := range got {
			if x == h {
				return true
			}
		}
		return false
	}
	// No false negatives within the radius.
	if !has(inside) || !has(edge) {
		t.Fatalf("QueryRadius missed entities within the radius: %v", got)
	}
	// Cell-granularity false positives are allowed, but entities well
	// outside the bounding box are not.
	if has(far) {
		t.Fatalf("QueryRadius returned an entity far outside the box")
	}
}

func TestQueryNeighborCellsExcludesSelf(t *testing.T) {
	g := NewGrid(128)

	center := ecs.NewHandle(1, 0)
	neighbor := ecs.NewHandle(2, 0)
	diagonal := ecs.NewHandle(3, 0)
	distant := ecs.NewHandle(4, 0)
	g.Upsert(center, component.Vec2{X: 64, Y: 64})
	g.Upsert(neighbor, component.Vec2{X: 200, Y: 64})  // cell (1,0)
	g.Upsert(diagonal, component.Vec2{X: 200, Y: 200}) // cell (1,1)
	g.Upsert(distant, component.Vec2{X: 600, Y: 64})   // cell (4,0)

	got := g.QueryNeighborCells(center)
	if len(got) != 2 {
		t.Fatalf("neighbors = %v, want the two adjacent entities", got)
	}
	for _, h := range got {
		if h == center {
			t.Fatalf("QueryNeighborCells must exclude the query entity")
		}
		if h == distant {
			t.Fatalf("QueryNeighborCells must not reach beyond the 3x3 block")
		}
	}
}

func TestCellKeyChebyshev(t *testing.T) {
	a := CellKey{0, 0}
	b := CellKey{3, -2}
	if d := a.Chebyshev(b); d != 3 {
		t.Fatalf("Chebyshev = %d, want 3", d)
	}
	if d := b.Chebyshev(a); d != 3 {
		t.Fatalf("Chebyshev must be symmetric")
	}
	if d := a.Chebyshev(a); d != 0 {
		t.Fatalf("Chebyshev of identical keys = %d, want 0", d)
	}
}
