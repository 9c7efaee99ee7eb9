package game

import "github.com/kamstrup/intmap"

// Board is a sparse width x height grid of colored cells.
//
// Coordinates outside the grid read as empty and writes to them are ignored.
// Every write marks the board dirty until the renderer calls MarkClean.
type Board struct {
	width  int
	height int
	cells  *intmap.Map[int, Color]
	dirty  bool
}

// NewBoard creates an empty board.
func NewBoard(width, height int) *Board {
	return &Board{
		width:  width,
		height: height,
		cells:  intmap.New[int, Color](width * height),
		dirty:  true,
	}
}

// Width returns the number of columns.
func (b *Board) Width() int { return b.width }

// Height returns the number of rows.
func (b *Board) Height() int { return b.height }

// InBounds reports whether (x, y) addresses a cell of the grid.
func (b *Board) InBounds(x, y int) bool {
	return x >= 0 && x < b.width && y >= 0 && y < b.height
}

func (b *Board) key(x, y int) int {
	return y*b.width + x
}

// Get returns the color at (x, y), or "" for an empty or out-of-range cell.
func (b *Board) Get(x, y int) Color {
	if !b.InBounds(x, y) {
		return ""
	}
	c, _ := b.cells.Get(b.key(x, y))
	return c
}

// Set writes color at (x, y). An empty color clears the cell.
func (b *Board) Set(x, y int, color Color) {
	if !b.InBounds(x, y) {
		return
	}
	if color == "" {
		b.cells.Del(b.key(x, y))
	} else {
		b.cells.Put(b.key(x, y), color)
	}
	b.dirty = true
}

// Clear empties every cell.
func (b *Board) Clear() {
	b.cells.Clear()
	b.dirty = true
}

// Count returns the number of occupied cells.
func (b *Board) Count() int {
	return b.cells.Len()
}

// Occupied reports whether shape at (x, y, dir) would overlap a filled cell
// or leave the grid.
func (b *Board) Occupied(shape *Shape, x, y, dir int) bool {
	result := false
	shape.EachCell(x, y, dir, func(cx, cy int) {
		if !b.InBounds(cx, cy) || b.Get(cx, cy) != "" {
			result = true
		}
	})
	return result
}

// Unoccupied is the negation of Occupied.
func (b *Board) Unoccupied(shape *Shape, x, y, dir int) bool {
	return !b.Occupied(shape, x, y, dir)
}

// Fits reports whether p may sit at its current position.
func (b *Board) Fits(p Piece) bool {
	return b.Unoccupied(p.Shape, p.X, p.Y, p.Dir)
}

// DropPiece writes the piece's color into every cell it covers. Callers check
// placement first.
func (b *Board) DropPiece(p Piece) {
	p.Shape.EachCell(p.X, p.Y, p.Dir, func(x, y int) {
		b.Set(x, y, p.Shape.Color)
	})
}

// RowComplete reports whether every cell of row y is filled.
func (b *Board) RowComplete(y int) bool {
	for x := 0; x < b.width; x++ {
		if b.Get(x, y) == "" {
			return false
		}
	}
	return true
}

// RemoveCompletedRows removes every full row, bottom to top, and returns how
// many were removed. After a removal the same row index is checked again
// since the rows above have shifted into it.
func (b *Board) RemoveCompletedRows() int {
	n := 0
	for y := b.height - 1; y >= 0; {
		if b.RowComplete(y) {
			b.RemoveRow(y)
			n++
			continue
		}
		y--
	}
	return n
}

// RemoveRow shifts every row above n down by one and clears the top row.
func (b *Board) RemoveRow(n int) {
	if n < 0 || n >= b.height {
		return
	}
	for y := n; y > 0; y-- {
		for x := 0; x < b.width; x++ {
			b.Set(x, y, b.Get(x, y-1))
		}
	}
	for x := 0; x < b.width; x++ {
		b.Set(x, 0, "")
	}
}

// RemoveBottomRow is the row removal power-ups use.
func (b *Board) RemoveBottomRow() {
	b.RemoveRow(b.height - 1)
}

// Cells returns the occupied cells in row-major order.
func (b *Board) Cells() []Cell {
	cells := make([]Cell, 0, b.cells.Len())
	for y := 0; y < b.height; y++ {
		for x := 0; x < b.width; x++ {
			if b.Get(x, y) != "" {
				cells = append(cells, Cell{X: x, Y: y})
			}
		}
	}
	return cells
}

// ColumnHeight returns the stack height of column x: the number of rows from
// the topmost filled cell down to the floor, or 0 for an empty column.
func (b *Board) ColumnHeight(x int) int {
	for y := 0; y < b.height; y++ {
		if b.Get(x, y) != "" {
			return b.height - y
		}
	}
	return 0
}

// Clone returns an independent copy.
func (b *Board) Clone() *Board {
	c := NewBoard(b.width, b.height)
	for y := 0; y < b.height; y++ {
		for x := 0; x < b.width; x++ {
			if color := b.Get(x, y); color != "" {
				c.cells.Put(c.key(x, y), color)
			}
		}
	}
	c.dirty = b.dirty
	return c
}

// Dirty reports whether a redraw is owed.
func (b *Board) Dirty() bool { return b.dirty }

// Invalidate marks the board as needing a redraw.
func (b *Board) Invalidate() { b.dirty = true }

// MarkClean records that the renderer consumed the latest state.
func (b *Board) MarkClean() { b.dirty = false }
