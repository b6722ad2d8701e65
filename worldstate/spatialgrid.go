package worldstate

// BuildingGrid is the CPU-side O(1) world->building lookup mirror named in
// spec §2 ("Spatial/Building Grid"): CPU systems (combat's building-fallback
// fire, raider targeting) cannot consult the GPU NPC grid for *buildings*,
// since non-tower buildings don't occupy NPC slots, so they get their own
// grid. Grounded on systems/spatial.go's SpatialGrid, generalized from
// entity handles to building indices and without the toroidal wrap (the
// world here has hard edges, not a wraparound map).
type BuildingGrid struct {
	cellSize float32
	cols     int
	rows     int
	cells    [][]int32
}

// NewBuildingGrid creates a grid covering width x height.
func NewBuildingGrid(width, height, cellSize float32) *BuildingGrid {
	cols := int(width/cellSize) + 1
	rows := int(height/cellSize) + 1
	cells := make([][]int32, cols*rows)
	return &BuildingGrid{cellSize: cellSize, cols: cols, rows: rows, cells: cells}
}

func (g *BuildingGrid) index(x, y float32) int {
	col := int(x / g.cellSize)
	row := int(y / g.cellSize)
	if col < 0 {
		col = 0
	} else if col >= g.cols {
		col = g.cols - 1
	}
	if row < 0 {
		row = 0
	} else if row >= g.rows {
		row = g.rows - 1
	}
	return row*g.cols + col
}

// Insert adds a building index to the cell covering (x, y).
func (g *BuildingGrid) Insert(idx int32, x, y float32) {
	i := g.index(x, y)
	g.cells[i] = append(g.cells[i], idx)
}

// Remove drops a building index from the cell covering (x, y).
func (g *BuildingGrid) Remove(idx int32, x, y float32) {
	i := g.index(x, y)
	cell := g.cells[i]
	for j, v := range cell {
		if v == idx {
			g.cells[i] = append(cell[:j], cell[j+1:]...)
			return
		}
	}
}

// QueryRadius appends building indices within radius of (x, y) to dst,
// filtered by the caller via keep. keep receives a candidate index and
// decides inclusion (faction/kind filtering lives at the call site, e.g.
// "nearest enemy military building").
func (g *BuildingGrid) QueryRadius(dst []int32, x, y, radius float32, keep func(idx int32) bool, positions func(idx int32) (float32, float32)) []int32 {
	cellRadius := int(radius/g.cellSize) + 1
	centerCol := int(x / g.cellSize)
	centerRow := int(y / g.cellSize)
	radiusSq := radius * radius

	for dc := -cellRadius; dc <= cellRadius; dc++ {
		col := centerCol + dc
		if col < 0 || col >= g.cols {
			continue
		}
		for dr := -cellRadius; dr <= cellRadius; dr++ {
			row := centerRow + dr
			if row < 0 || row >= g.rows {
				continue
			}
			for _, idx := range g.cells[row*g.cols+col] {
				if keep != nil && !keep(idx) {
					continue
				}
				bx, by := positions(idx)
				dx, dy := x-bx, y-by
				if dx*dx+dy*dy <= radiusSq {
					dst = append(dst, idx)
				}
			}
		}
	}
	return dst
}
