package game

import "math/rand/v2"

// SpeedBiasStep is how far the speed power-ups move the speed bias.
const SpeedBiasStep = 100

// Effect is one of the fixed power-up effects.
type Effect int

const (
	EffectNone Effect = iota
	EffectClearRow
	EffectClearThreeRows
	EffectInjectI
	EffectInjectFish
	EffectSlowDown
	EffectSpeedUp
	EffectDrill
)

var effectNames = [...]string{
	EffectNone:           "none",
	EffectClearRow:       "clear_row",
	EffectClearThreeRows: "clear_three_rows",
	EffectInjectI:        "inject_i",
	EffectInjectFish:     "inject_fish",
	EffectSlowDown:       "slow_down",
	EffectSpeedUp:        "speed_up",
	EffectDrill:          "drill",
}

func (e Effect) String() string {
	if e < 0 || int(e) >= len(effectNames) {
		return "unknown"
	}
	return effectNames[e]
}

// RowsRemoved is how many rows the effect takes off the bottom of a board.
func (e Effect) RowsRemoved() int {
	switch e {
	case EffectClearRow:
		return 1
	case EffectClearThreeRows:
		return 3
	}
	return 0
}

// Target selects which board an effect lands on.
type Target int

const (
	// TargetSelf is the session of the side applying the effect.
	TargetSelf Target = iota
	// TargetMirror is that side's read-only copy of the opponent board.
	TargetMirror
)

// Action is an effect aimed at a target.
type Action struct {
	Effect Effect
	Target Target
}

// Coin is the source of the drill's coin flips.
type Coin func() bool

// FairCoin flips true half of the time.
func FairCoin() bool {
	return rand.Float64() > 0.5
}

// PowerUp is a catalog entry. Local runs on the activating side, Remote on
// the opponent once the activation arrives there.
type PowerUp struct {
	ID     string
	Cost   int
	Local  Action
	Remote Action
}

// PowerUps is the fixed, ordered catalog. Both ends hold the same table.
var PowerUps = []PowerUp{
	{ID: "Ringel", Cost: 12,
		Local:  Action{EffectClearRow, TargetSelf},
		Remote: Action{EffectClearRow, TargetMirror}},
	{ID: "Wonne", Cost: 15,
		Local: Action{EffectInjectI, TargetSelf}},
	{ID: "Riegel", Cost: 20,
		Local:  Action{EffectClearThreeRows, TargetSelf},
		Remote: Action{EffectClearThreeRows, TargetMirror}},
	{ID: "Schneck", Cost: 24,
		Local: Action{EffectSlowDown, TargetSelf}},
	{ID: "Gnubaby", Cost: 3,
		Local:  Action{EffectClearRow, TargetMirror},
		Remote: Action{EffectClearRow, TargetSelf}},
	{ID: "Tonne", Cost: 6,
		Remote: Action{EffectInjectI, TargetSelf}},
	{ID: "Blubber", Cost: 8,
		Local:  Action{EffectClearThreeRows, TargetMirror},
		Remote: Action{EffectClearThreeRows, TargetSelf}},
	{ID: "BigFISH", Cost: 22,
		Remote: Action{EffectInjectFish, TargetSelf}},
	{ID: "Bohrer", Cost: 26,
		Remote: Action{EffectDrill, TargetSelf}},
	{ID: "OberGNU", Cost: 30,
		Remote: Action{EffectSpeedUp, TargetSelf}},
}

var powerUpIndex map[string]*PowerUp

func init() {
	powerUpIndex = make(map[string]*PowerUp, len(PowerUps))
	for i := range PowerUps {
		powerUpIndex[PowerUps[i].ID] = &PowerUps[i]
	}
}

// PowerUpByID looks up a catalog entry.
func PowerUpByID(id string) (PowerUp, bool) {
	p, ok := powerUpIndex[id]
	if !ok {
		return PowerUp{}, false
	}
	return *p, true
}

// Affordable returns the catalog entries that cost at most gnus, in catalog order.
func Affordable(gnus int) []PowerUp {
	var out []PowerUp
	for _, p := range PowerUps {
		if gnus >= p.Cost {
			out = append(out, p)
		}
	}
	return out
}

// Apply runs a self-targeted effect against s and returns the cells the
// drill cleared, if any.
func (e Effect) Apply(s *Session, coin Coin) []Cell {
	switch e {
	case EffectClearRow:
		s.Board.RemoveBottomRow()
	case EffectClearThreeRows:
		s.Board.RemoveBottomRow()
		s.Board.RemoveBottomRow()
		s.Board.RemoveBottomRow()
	case EffectInjectI:
		s.Inject(ShapeI)
	case EffectInjectFish:
		s.Inject(ShapeFish)
	case EffectSlowDown:
		s.SpeedBias -= SpeedBiasStep
	case EffectSpeedUp:
		s.SpeedBias += SpeedBiasStep
	case EffectDrill:
		return Drill(s.Board, coin)
	}
	return nil
}

// ApplyMirror runs a mirror-targeted effect. Only row clears have a visible
// mirror counterpart; other effects change state the mirror does not track.
func (e Effect) ApplyMirror(b *Board) {
	switch e {
	case EffectClearRow:
		b.RemoveBottomRow()
	case EffectClearThreeRows:
		b.RemoveBottomRow()
		b.RemoveBottomRow()
		b.RemoveBottomRow()
	}
}

// Drill clears densely packed cells. Every filled cell with more than two
// filled 4-neighbours is cleared if the coin comes up true. A neighbour
// missing because the cell touches the edge of the court counts as filled.
// Neighbour counts are taken from the board as it was before any clearing.
func Drill(b *Board, coin Coin) []Cell {
	filled := func(x, y int) bool {
		if !b.InBounds(x, y) {
			return true
		}
		return b.Get(x, y) != ""
	}

	var candidates []Cell
	for _, c := range b.Cells() {
		count := 0
		for _, d := range [4]Cell{{-1, 0}, {1, 0}, {0, -1}, {0, 1}} {
			if filled(c.X+d.X, c.Y+d.Y) {
				count++
			}
		}
		if count > 2 {
			candidates = append(candidates, c)
		}
	}

	var cleared []Cell
	for _, c := range candidates {
		if coin() {
			b.Set(c.X, c.Y, "")
			cleared = append(cleared, c)
		}
	}
	return cleared
}
