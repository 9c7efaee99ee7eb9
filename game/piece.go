package game

// Piece is a shape at a position and rotation.
type Piece struct {
	Shape *Shape
	X     int
	Y     int
	Dir   int
}

// SpawnPiece places shape at its spawn position for a board of the given width.
func SpawnPiece(shape *Shape, width int) Piece {
	return Piece{Shape: shape, X: shape.SpawnX(width), Y: 0, Dir: DirUp}
}

// Rotated returns the piece turned one step clockwise.
func (p Piece) Rotated() Piece {
	p.Dir = (p.Dir + 1) % 4
	return p
}

// Moved returns the piece translated by (dx, dy).
func (p Piece) Moved(dx, dy int) Piece {
	p.X += dx
	p.Y += dy
	return p
}

// Cells returns the board coordinates the piece covers.
func (p Piece) Cells() []Cell {
	cells := make([]Cell, 0, 5)
	p.Shape.EachCell(p.X, p.Y, p.Dir, func(x, y int) {
		cells = append(cells, Cell{X: x, Y: y})
	})
	return cells
}

// Placement is the wire form of a piece.
type Placement struct {
	ID  string `json:"id" msgpack:"id"`
	X   int    `json:"x" msgpack:"x"`
	Y   int    `json:"y" msgpack:"y"`
	Dir int    `json:"dir" msgpack:"dir"`
}

// Placement returns the wire form of p.
func (p Piece) Placement() Placement {
	return Placement{ID: p.Shape.ID, X: p.X, Y: p.Y, Dir: p.Dir}
}
