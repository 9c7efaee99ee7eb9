package main

import (
	"math"

	"github.com/tabacha/fishtris/game"
)

// Weights score a board after a simulated placement. Positive is better.
type Weights struct {
	Height    float64
	Lines     float64
	Holes     float64
	Bumpiness float64
}

var DefaultWeights = Weights{Height: -0.51, Lines: 0.76, Holes: -0.36, Bumpiness: -0.18}

// Plan is a target rotation and column for the current piece.
type Plan struct {
	Dir   int
	X     int
	Lines int
	Score float64
}

// Planner picks placements and power-ups.
type Planner struct {
	weights Weights
}

func NewPlanner(w Weights) *Planner {
	return &Planner{weights: w}
}

// Best tries every rotation and column reachable from cur and returns the
// placement with the highest score. ok is false when no move fits.
func (p *Planner) Best(board *game.Board, cur game.Piece) (Plan, bool) {
	best := Plan{Score: math.Inf(-1)}
	found := false

	rotated := cur
	for r := 0; r < 4; r++ {
		if r > 0 {
			rotated = rotated.Rotated()
			if !board.Fits(rotated) {
				break
			}
		}
		for _, dx := range []int{-1, 1} {
			for piece := rotated; board.Fits(piece); piece = piece.Moved(dx, 0) {
				if dx == 1 && piece.X == rotated.X {
					// the unmoved column was already scored going left
					continue
				}
				plan := p.evaluate(board, piece)
				if !found || plan.Score > best.Score {
					best, found = plan, true
				}
			}
		}
	}
	return best, found
}

func (p *Planner) evaluate(board *game.Board, piece game.Piece) Plan {
	for board.Fits(piece.Moved(0, 1)) {
		piece = piece.Moved(0, 1)
	}
	sim := board.Clone()
	sim.DropPiece(piece)
	lines := sim.RemoveCompletedRows()

	f := Measure(sim)
	score := p.weights.Height*float64(f.Height) +
		p.weights.Lines*float64(lines) +
		p.weights.Holes*float64(f.Holes) +
		p.weights.Bumpiness*float64(f.Bumpiness)
	return Plan{Dir: piece.Dir, X: piece.X, Lines: lines, Score: score}
}

// Features are the board measures the planner scores.
type Features struct {
	Height    int // sum of column heights
	MaxHeight int
	Holes     int // empty cells under a filled one
	Bumpiness int // sum of height steps between neighbouring columns
}

func Measure(b *game.Board) Features {
	var f Features
	prev := -1
	for x := 0; x < b.Width(); x++ {
		h := b.ColumnHeight(x)
		f.Height += h
		f.MaxHeight = max(f.MaxHeight, h)
		if prev >= 0 {
			f.Bumpiness += abs(h - prev)
		}
		prev = h
		for y := b.Height() - h; y < b.Height(); y++ {
			if b.Get(x, y) == "" {
				f.Holes++
			}
		}
	}
	return f
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// Actions turns a plan into the key presses that reach it from cur:
// rotations first, then sideways steps, then a hard drop.
func Actions(cur game.Piece, plan Plan) []game.PlayerAction {
	var out []game.PlayerAction
	for r := (plan.Dir - cur.Dir + 4) % 4; r > 0; r-- {
		out = append(out, game.ActionRotate)
	}
	step := game.ActionRight
	dx := plan.X - cur.X
	if dx < 0 {
		step, dx = game.ActionLeft, -dx
	}
	for ; dx > 0; dx-- {
		out = append(out, step)
	}
	return append(out, game.ActionDrop)
}

var (
	rescuePowerUps    = []string{"Riegel", "Ringel"}
	offensivePowerUps = []string{"OberGNU", "Bohrer", "BigFISH"}
)

// ChoosePowerUp picks what to spend gnus on. A tall stack buys relief
// first, otherwise the most expensive affordable attack is chosen.
func ChoosePowerUp(gnus int, b *game.Board) (string, bool) {
	if Measure(b).MaxHeight*2 >= b.Height() {
		if id, ok := firstAffordable(rescuePowerUps, gnus); ok {
			return id, true
		}
	}
	return firstAffordable(offensivePowerUps, gnus)
}

func firstAffordable(ids []string, gnus int) (string, bool) {
	for _, id := range ids {
		if p, ok := game.PowerUpByID(id); ok && gnus >= p.Cost {
			return id, true
		}
	}
	return "", false
}
