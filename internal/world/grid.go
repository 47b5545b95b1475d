package world

import (
	"math"

	"github.com/valewood/simcore/internal/component"
	"github.com/valewood/simcore/internal/core/ecs"
)

// Grid is the cell-based spatial index. Cell size is chosen close to the
// expected query radius so QueryRadius touches O(1) cells on average.
// Accessed only from the simulation goroutine — no locks.

type CellKey struct {
	CX int32
	CY int32
}

// Chebyshev is the cell distance used for load-radius checks.
func (k CellKey) Chebyshev(o CellKey) int32 {
	dx := k.CX - o.CX
	if dx < 0 {
		dx = -dx
	}
	dy := k.CY - o.CY
	if dy < 0 {
		dy = -dy
	}
	if dx > dy {
		return dx
	}
	return dy
}

// Grid keeps a forward map cell→entities and a reverse map entity→cell;
// the two always agree. Empty cells are deleted so memory is bounded by
// population, not world size.
type Grid struct {
	cellSize float64
	cells    map[CellKey]map[ecs.Handle]struct{}
	placed   map[ecs.Handle]CellKey
}

func NewGrid(cellSize float64) *Grid {
	return &Grid{
		cellSize: cellSize,
		cells:    make(map[CellKey]map[ecs.Handle]struct{}),
		placed:   make(map[ecs.Handle]CellKey),
	}
}

func (g *Grid) CellSize() float64 { return g.cellSize }

// CellOf maps a position to its cell with floor semantics, so negative
// coordinates land in the correct cell.
func (g *Grid) CellOf(p component.Vec2) CellKey {
	return CellKey{
		CX: int32(math.Floor(p.X / g.cellSize)),
		CY: int32(math.Floor(p.Y / g.cellSize)),
	}
}

// Upsert places or moves an entity. Movement within a cell is a no-op,
// which amortizes the common case of intra-cell motion.
func (g *Grid) Upsert(h ecs.Handle, p component.Vec2) {
	k := g.CellOf(p)
	if old, ok := g.placed[h]; ok {
		if old == k {
			return
		}
		g.removeFromCell(h, old)
	}
	cell := g.cells[k]
	if cell == nil {
		cell = make(map[ecs.Handle]struct{})
		g.cells[k] = cell
	}
	cell[h] = struct{}{}
	g.placed[h] = k
}

// Remove takes an entity out of the index. Also satisfies ecs.Evictor so
// despawn tears the entity out of the grid automatically.
func (g *Grid) Remove(h ecs.Handle) {
	if k, ok := g.placed[h]; ok {
		g.removeFromCell(h, k)
		delete(g.placed, h)
	}
}

func (g *Grid) Evict(h ecs.Handle) { g.Remove(h) }

func (g *Grid) removeFromCell(h ecs.Handle, k CellKey) {
	cell := g.cells[k]
	if cell != nil {
		delete(cell, h)
		if len(cell) == 0 {
			delete(g.cells, k)
		}
	}
}

// Cell reports which cell an entity currently occupies.
func (g *Grid) Cell(h ecs.Handle) (CellKey, bool) {
	k, ok := g.placed[h]
	return k, ok
}

func (g *Grid) Len() int { return len(g.placed) }

// QueryRadius returns every entity whose cell intersects the bounding box
// of the radius: a cell-granularity superset with no false negatives.
// Callers do the exact-distance filtering.
func (g *Grid) QueryRadius(p component.Vec2, radius float64) []ecs.Handle {
	lo := g.CellOf(component.Vec2{X: p.X - radius, Y: p.Y - radius})
	hi := g.CellOf(component.Vec2{X: p.X + radius, Y: p.Y + radius})
	var result []ecs.Handle
	for cx := lo.CX; cx <= hi.CX; cx++ {
		for cy := lo.CY; cy <= hi.CY; cy++ {
			k := CellKey{CX: cx, CY: cy}
			for h := range g.cells[k] {
				result = append(result, h)
			}
		}
	}
	return result
}

// QueryNeighborCells returns all entities in the 3x3 neighbourhood of the
// given entity's cell, excluding the entity itself.
func (g *Grid) QueryNeighborCells(h ecs.Handle) []ecs.Handle {
	center, ok := g.placed[h]
	if !ok {
		return nil
	}
	var result []ecs.Handle
	for dx := int32(-1); dx <= 1; dx++ {
		for dy := int32(-1); dy <= 1; dy++ {
			k := CellKey{CX: center.CX + dx, CY: center.CY + dy}
			for other := range g.cells[k] {
				if other != h {
					result = append(result, other)
				}
			}
		}
	}
	return result
}
