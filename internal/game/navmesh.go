package game

import (
	"container/heap"
	"math"
)

// navCellSize is the side of one nav cell in world units.
const navCellSize = 2.0

// Navigator answers path queries on the ground plane. It may be slow; the
// steering brain calls it only when a route is (re)planned.
type Navigator interface {
	FindPath(from, to Vec3) []Vec3
}

// Rect is an axis-aligned obstacle footprint on the XZ plane.
type Rect struct {
	MinX, MinZ, MaxX, MaxZ float64
}

// Contains reports whether p lies inside r (XZ only).
func (r Rect) Contains(p Vec3) bool {
	return p.X >= r.MinX && p.X <= r.MaxX && p.Z >= r.MinZ && p.Z <= r.MaxZ
}

// NavGrid is a walkability grid over the XZ plane where true = blocked.
// The grid's origin is world (0,0).
type NavGrid struct {
	cols    int
	rows    int
	blocked []bool
}

// NewNavGrid builds a walkability grid covering width×depth world units.
// Each cell that overlaps an obstacle (expanded by clearance) is blocked.
func NewNavGrid(width, depth float64, obstacles []Rect, clearance float64) *NavGrid {
	cols := int(math.Ceil(width / navCellSize))
	rows := int(math.Ceil(depth / navCellSize))
	ng := &NavGrid{
		cols:    cols,
		rows:    rows,
		blocked: make([]bool, cols*rows),
	}

	for _, o := range obstacles {
		// Expand bounds by the agent radius so paths keep clearance.
		cMinX, cMinZ := WorldToCell(o.MinX-clearance, o.MinZ-clearance)
		cMaxX, cMaxZ := WorldToCell(o.MaxX+clearance-1e-9, o.MaxZ+clearance-1e-9)
		cMinX, cMinZ = max(0, cMinX), max(0, cMinZ)
		cMaxX, cMaxZ = min(cols-1, cMaxX), min(rows-1, cMaxZ)

		for cz := cMinZ; cz <= cMaxZ; cz++ {
			for cx := cMinX; cx <= cMaxX; cx++ {
				ng.blocked[cz*cols+cx] = true
			}
		}
	}
	return ng
}

// IsBlocked returns true if the cell at (cx, cz) is not walkable.
func (ng *NavGrid) IsBlocked(cx, cz int) bool {
	if cx < 0 || cz < 0 || cx >= ng.cols || cz >= ng.rows {
		return true
	}
	return ng.blocked[cz*ng.cols+cx]
}

// Size returns the grid dimensions in cells.
func (ng *NavGrid) Size() (cols, rows int) { return ng.cols, ng.rows }

// WorldToCell converts world XZ coordinates to grid cell coordinates.
func WorldToCell(wx, wz float64) (int, int) {
	return int(math.Floor(wx / navCellSize)), int(math.Floor(wz / navCellSize))
}

// CellToWorld converts grid cell coordinates to the world-space cell center.
func CellToWorld(cx, cz int) Vec3 {
	return Vec3{X: float64(cx)*navCellSize + navCellSize/2, Z: float64(cz)*navCellSize + navCellSize/2}
}

// --- A* pathfinding ---

type pathNode struct {
	cx, cz int
	g, h   float64
	parent *pathNode
	index  int // heap index
}

type openList []*pathNode

func (ol openList) Len() int           { return len(ol) }
func (ol openList) Less(i, j int) bool { return (ol[i].g + ol[i].h) < (ol[j].g + ol[j].h) }
func (ol openList) Swap(i, j int)      { ol[i], ol[j] = ol[j], ol[i]; ol[i].index = i; ol[j].index = j }
func (ol *openList) Push(x any)        { n := x.(*pathNode); n.index = len(*ol); *ol = append(*ol, n) }
func (ol *openList) Pop() any {
	old := *ol
	n := old[len(old)-1]
	old[len(old)-1] = nil
	*ol = old[:len(old)-1]
	return n
}

var dirs = [8][2]int{
	{1, 0}, {-1, 0}, {0, 1}, {0, -1},
	{1, 1}, {1, -1}, {-1, 1}, {-1, -1},
}

// FindPath returns world-space waypoints from one point to another, ending
// exactly at the goal. Returns nil if no path exists. Implements Navigator.
func (ng *NavGrid) FindPath(from, to Vec3) []Vec3 {
	scx, scz := WorldToCell(from.X, from.Z)
	gcx, gcz := WorldToCell(to.X, to.Z)

	if ng.IsBlocked(scx, scz) || ng.IsBlocked(gcx, gcz) {
		return nil
	}

	key := func(cx, cz int) int { return cz*ng.cols + cx }
	heuristic := func(ax, az, bx, bz int) float64 {
		dx := math.Abs(float64(ax - bx))
		dz := math.Abs(float64(az - bz))
		return dx + dz + (math.Sqrt2-2)*math.Min(dx, dz)
	}

	start := &pathNode{cx: scx, cz: scz, g: 0, h: heuristic(scx, scz, gcx, gcz)}
	ol := &openList{start}
	heap.Init(ol)

	closed := make(map[int]bool)
	best := make(map[int]*pathNode)
	best[key(scx, scz)] = start

	for ol.Len() > 0 {
		cur := heap.Pop(ol).(*pathNode)
		if cur.cx == gcx && cur.cz == gcz {
			path := buildPath(cur)
			path[len(path)-1] = to.Flat()
			return path
		}
		k := key(cur.cx, cur.cz)
		if closed[k] {
			continue
		}
		closed[k] = true

		for _, d := range dirs {
			nx, nz := cur.cx+d[0], cur.cz+d[1]
			if ng.IsBlocked(nx, nz) {
				continue
			}
			// No diagonal corner-cutting through blocked cells.
			if d[0] != 0 && d[1] != 0 {
				if ng.IsBlocked(cur.cx+d[0], cur.cz) || ng.IsBlocked(cur.cx, cur.cz+d[1]) {
					continue
				}
			}
			nk := key(nx, nz)
			if closed[nk] {
				continue
			}
			cost := 1.0
			if d[0] != 0 && d[1] != 0 {
				cost = math.Sqrt2
			}
			g := cur.g + cost
			if prev, ok := best[nk]; ok && g >= prev.g {
				continue
			}
			node := &pathNode{cx: nx, cz: nz, g: g, h: heuristic(nx, nz, gcx, gcz), parent: cur}
			best[nk] = node
			heap.Push(ol, node)
		}
	}
	return nil
}

// buildPath walks parents back from end, skipping the start cell.
func buildPath(end *pathNode) []Vec3 {
	var cells [][2]int
	for n := end; n != nil; n = n.parent {
		cells = append(cells, [2]int{n.cx, n.cz})
	}
	for i, j := 0, len(cells)-1; i < j; i, j = i+1, j-1 {
		cells[i], cells[j] = cells[j], cells[i]
	}
	if len(cells) > 1 {
		cells = cells[1:]
	}
	path := make([]Vec3, len(cells))
	for i, c := range cells {
		path[i] = CellToWorld(c[0], c[1])
	}
	return path
}
