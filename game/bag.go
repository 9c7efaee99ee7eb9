package game

import "math/rand/v2"

// copiesPerShape is how many of each standard shape a full bag holds.
const copiesPerShape = 4

// Bag draws standard shapes without replacement from a multiset holding
// copiesPerShape of each, refilling when it runs dry. The draw order is a
// pure function of the seed.
type Bag struct {
	rng    *rand.Rand
	pieces []*Shape
}

// NewBag creates a bag seeded with seed.
func NewBag(seed uint64) *Bag {
	b := &Bag{}
	b.Reseed(seed)
	return b
}

// Reseed restarts the bag with a fresh source and an empty multiset.
func (b *Bag) Reseed(seed uint64) {
	b.rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	b.pieces = b.pieces[:0]
}

// Remaining returns how many shapes are left before the next refill.
func (b *Bag) Remaining() int {
	return len(b.pieces)
}

func (b *Bag) refill() {
	b.pieces = b.pieces[:0]
	for _, s := range StandardShapes {
		for i := 0; i < copiesPerShape; i++ {
			b.pieces = append(b.pieces, s)
		}
	}
}

// Draw removes and returns one shape chosen uniformly from the bag.
func (b *Bag) Draw() *Shape {
	if len(b.pieces) == 0 {
		b.refill()
	}
	i := b.rng.IntN(len(b.pieces))
	s := b.pieces[i]
	b.pieces = append(b.pieces[:i], b.pieces[i+1:]...)
	return s
}
