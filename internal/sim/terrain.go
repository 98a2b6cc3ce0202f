package sim

import "math"

// TerrainKind classifies one terrain cell. The simulation consumes the
// terrain dataset read-only; map generation happens outside the core.
type TerrainKind uint8

const (
	TerrainField TerrainKind = iota
	TerrainRoad
	TerrainForest
	TerrainMarsh
	TerrainBuilding
	TerrainWater
)

func (k TerrainKind) String() string {
	switch k {
	case TerrainField:
		return "field"
	case TerrainRoad:
		return "road"
	case TerrainForest:
		return "forest"
	case TerrainMarsh:
		return "marsh"
	case TerrainBuilding:
		return "building"
	case TerrainWater:
		return "water"
	default:
		return "unknown"
	}
}

// BlocksSight reports whether the cell interior occludes line of sight.
func (k TerrainKind) BlocksSight() bool {
	return k == TerrainForest || k == TerrainBuilding
}

// TerrainCell is one cell of the static terrain dataset.
type TerrainCell struct {
	Kind      TerrainKind `json:"kind"`
	Elevation float64     `json:"elevation"`
}

// TerrainMap is the static terrain/height/road dataset shared by movement
// and visibility. It is immutable after construction.
type TerrainMap struct {
	cols     int
	rows     int
	cellSize float64
	cells    []TerrainCell
}

func NewTerrainMap(cols, rows int, cellSize float64, cells []TerrainCell) *TerrainMap {
	if cols <= 0 {
		cols = 1
	}
	if rows <= 0 {
		rows = 1
	}
	if cellSize <= 0 {
		cellSize = defaultCellSize
	}
	if len(cells) != cols*rows {
		padded := make([]TerrainCell, cols*rows)
		copy(padded, cells)
		cells = padded
	}
	return &TerrainMap{cols: cols, rows: rows, cellSize: cellSize, cells: cells}
}

// FlatTerrain builds an all-field map at zero elevation.
func FlatTerrain(cols, rows int, cellSize float64) *TerrainMap {
	return NewTerrainMap(cols, rows, cellSize, make([]TerrainCell, cols*rows))
}

const defaultCellSize = 32.0

func (t *TerrainMap) Cols() int          { return t.cols }
func (t *TerrainMap) Rows() int          { return t.rows }
func (t *TerrainMap) CellSize() float64  { return t.cellSize }
func (t *TerrainMap) Width() float64     { return float64(t.cols) * t.cellSize }
func (t *TerrainMap) Height() float64    { return float64(t.rows) * t.cellSize }
func (t *TerrainMap) CellCount() int     { return t.cols * t.rows }
func (t *TerrainMap) Index(col, row int) int { return row*t.cols + col }

func (t *TerrainMap) InBounds(col, row int) bool {
	return col >= 0 && row >= 0 && col < t.cols && row < t.rows
}

// Locate maps a world position to cell coordinates, clamping to the map edge.
func (t *TerrainMap) Locate(x, y float64) (int, int) {
	col := int(clamp(x, 0, t.Width()-1) / t.cellSize)
	row := int(clamp(y, 0, t.Height()-1) / t.cellSize)
	if col >= t.cols {
		col = t.cols - 1
	}
	if row >= t.rows {
		row = t.rows - 1
	}
	return col, row
}

// CellCenter returns the world position of a cell center.
func (t *TerrainMap) CellCenter(col, row int) Vec2 {
	return Vec2{
		X: (float64(col) + 0.5) * t.cellSize,
		Y: (float64(row) + 0.5) * t.cellSize,
	}
}

func (t *TerrainMap) Cell(col, row int) TerrainCell {
	if !t.InBounds(col, row) {
		return TerrainCell{Kind: TerrainWater}
	}
	return t.cells[t.Index(col, row)]
}

func (t *TerrainMap) CellAt(p Vec2) TerrainCell {
	col, row := t.Locate(p.X, p.Y)
	return t.Cell(col, row)
}

func (t *TerrainMap) KindAt(p Vec2) TerrainKind { return t.CellAt(p).Kind }

func (t *TerrainMap) ElevationAt(p Vec2) float64 { return t.CellAt(p).Elevation }

// terrainSpeedTable holds per-move-class speed multipliers indexed by
// terrain kind. Zero means impassable for that class.
var terrainSpeedTable = map[MoveClass][6]float64{
	MoveFoot:    {1.0, 1.1, 0.7, 0.5, 0.6, 0},
	MoveTracked: {1.0, 1.2, 0.5, 0.4, 0, 0},
	MoveWheeled: {0.8, 1.5, 0.3, 0.2, 0, 0},
	MoveHover:   {1.0, 1.0, 0.4, 1.0, 0, 1.0},
	MoveAir:     {1.0, 1.0, 1.0, 1.0, 1.0, 1.0},
}

// SpeedMultiplier reports the terrain speed factor for a move class and
// whether the cell is passable at all. Amphibious units treat water as
// marsh; air ignores terrain entirely.
func SpeedMultiplier(kind TerrainKind, class MoveClass, amphibious bool) (float64, bool) {
	if class == MoveAir {
		return 1.0, true
	}
	if kind == TerrainWater && amphibious {
		kind = TerrainMarsh
	}
	table, ok := terrainSpeedTable[class]
	if !ok {
		return 0, false
	}
	mult := table[kind]
	if mult <= 0 {
		return 0, false
	}
	return mult, true
}

// MoveCost converts the speed multiplier into a pathfinding cost weight.
// Cheap on road, expensive in forest and marsh, infinite when impassable.
func MoveCost(kind TerrainKind, class MoveClass, amphibious bool) (float64, bool) {
	mult, ok := SpeedMultiplier(kind, class, amphibious)
	if !ok {
		return math.Inf(1), false
	}
	return 1.0 / mult, true
}
