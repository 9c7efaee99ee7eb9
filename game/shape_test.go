package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShapeCatalog(t *testing.T) {
	require.Len(t, StandardShapes, 7)
	require.Len(t, Shapes, 8)
	assert.Nil(t, ShapeByID("x"))
	assert.Same(t, ShapeFish, ShapeByID("f"))

	for _, s := range StandardShapes {
		for dir := 0; dir < 4; dir++ {
			assert.Len(t, s.Cells(dir), 4, "shape %s dir %d", s.ID, dir)
		}
	}
}

func TestEachCellMostSignificantBitFirst(t *testing.T) {
	// j up: 0x44C0
	//   .x..
	//   .x..
	//   xx..
	assert.Equal(t, []Cell{{1, 0}, {1, 1}, {0, 2}, {1, 2}}, ShapeJ.Cells(DirUp))
	assert.Equal(t, []Cell{{0, 1}, {1, 1}, {2, 1}, {3, 1}}, ShapeI.Cells(DirUp))
}

func TestRotateTwiceMatchesDirectLookup(t *testing.T) {
	for _, s := range Shapes {
		p := Piece{Shape: s, X: 2, Y: 3, Dir: DirUp}
		twice := p.Rotated().Rotated()
		require.Equal(t, DirDown, twice.Dir)
		assert.ElementsMatch(t, Piece{Shape: s, X: 2, Y: 3, Dir: DirDown}.Cells(), twice.Cells(), "shape %s", s.ID)
	}
}

func TestRotationWrapsModuloFour(t *testing.T) {
	p := Piece{Shape: ShapeT, Dir: DirLeft}
	assert.Equal(t, DirUp, p.Rotated().Dir)
}

func TestSpawnX(t *testing.T) {
	assert.Equal(t, 2, ShapeI.SpawnX(8))
	assert.Equal(t, 3, ShapeT.SpawnX(8))
	assert.Equal(t, 3, ShapeO.SpawnX(8))
	assert.Equal(t, 0, ShapeI.SpawnX(3))

	p := SpawnPiece(ShapeL, 8)
	assert.Equal(t, Piece{Shape: ShapeL, X: 3, Y: 0, Dir: DirUp}, p)
}
