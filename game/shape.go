package game

// Color is a display tag stored in board cells. The empty string is an empty cell.
type Color string

// Rotation directions. A piece's Dir cycles through these modulo 4.
const (
	DirUp    = 0
	DirRight = 1
	DirDown  = 2
	DirLeft  = 3
)

// Shape is an immutable piece definition.
//
// Each rotation is a 16 bit mask of a 4x4 box, read most significant bit
// first, left to right and top to bottom:
//
//	0100 = 0x4 << 12
//	0100 = 0x4 << 8
//	1100 = 0xC << 4
//	0000 = 0x0
//	       ------
//	       0x44C0
type Shape struct {
	ID     string
	Size   int
	Blocks [4]uint16
	Color  Color
}

// Cell is a board coordinate.
type Cell struct {
	X int `json:"x" msgpack:"x"`
	Y int `json:"y" msgpack:"y"`
}

var (
	ShapeI = &Shape{ID: "i", Size: 4, Blocks: [4]uint16{0x0F00, 0x2222, 0x00F0, 0x4444}, Color: "#ffff55"}
	ShapeJ = &Shape{ID: "j", Size: 3, Blocks: [4]uint16{0x44C0, 0x8E00, 0x6440, 0x0E20}, Color: "#0000aa"}
	ShapeL = &Shape{ID: "l", Size: 3, Blocks: [4]uint16{0x4460, 0x0E80, 0xC440, 0x2E00}, Color: "#00aa00"}
	ShapeO = &Shape{ID: "o", Size: 2, Blocks: [4]uint16{0xCC00, 0xCC00, 0xCC00, 0xCC00}, Color: "#00aaaa"}
	ShapeS = &Shape{ID: "s", Size: 3, Blocks: [4]uint16{0x06C0, 0x8C40, 0x6C00, 0x4620}, Color: "#55ff55"}
	ShapeT = &Shape{ID: "t", Size: 3, Blocks: [4]uint16{0x0E40, 0x4C40, 0x4E00, 0x4640}, Color: "#aa0000"}
	ShapeZ = &Shape{ID: "z", Size: 3, Blocks: [4]uint16{0x0C60, 0x4C80, 0xC600, 0x2640}, Color: "#ff5555"}

	// ShapeFish is only ever injected by a power-up, never drawn from the bag.
	ShapeFish = &Shape{ID: "f", Size: 4, Blocks: [4]uint16{0x5F50, 0x2727, 0x0AFA, 0xE4E4}, Color: "#ffffff"}
)

// StandardShapes are the seven shapes the bag draws from.
var StandardShapes = []*Shape{ShapeI, ShapeJ, ShapeL, ShapeO, ShapeS, ShapeT, ShapeZ}

// Shapes provides lookup by shape ID, including the fish.
var Shapes map[string]*Shape

func init() {
	Shapes = make(map[string]*Shape, len(StandardShapes)+1)
	for _, s := range StandardShapes {
		Shapes[s.ID] = s
	}
	Shapes[ShapeFish.ID] = ShapeFish
}

// ShapeByID returns the catalog shape for id, or nil if id is unknown.
func ShapeByID(id string) *Shape {
	return Shapes[id]
}

// EachCell calls fn with the board coordinate of every occupied cell of the
// shape at (x, y) in rotation dir.
func (s *Shape) EachCell(x, y, dir int, fn func(x, y int)) {
	blocks := s.Blocks[dir&3]
	row, col := 0, 0
	for bit := uint16(0x8000); bit > 0; bit >>= 1 {
		if blocks&bit != 0 {
			fn(x+col, y+row)
		}
		col++
		if col == 4 {
			col = 0
			row++
		}
	}
}

// Cells returns the occupied offsets of rotation dir relative to the box origin.
func (s *Shape) Cells(dir int) []Cell {
	cells := make([]Cell, 0, 5)
	s.EachCell(0, 0, dir, func(x, y int) {
		cells = append(cells, Cell{X: x, Y: y})
	})
	return cells
}

// SpawnX is the column a fresh piece of this shape starts at on a board of the given width.
func (s *Shape) SpawnX(width int) int {
	d := width - s.Size
	if d < 0 {
		return -((-d) / 2)
	}
	return (d + 1) / 2
}
