package game

// PlayerAction is a queued player input.
type PlayerAction int

const (
	ActionLeft PlayerAction = iota
	ActionRight
	ActionRotate
	ActionDrop
)

func (a PlayerAction) String() string {
	switch a {
	case ActionLeft:
		return "left"
	case ActionRight:
		return "right"
	case ActionRotate:
		return "rotate"
	case ActionDrop:
		return "drop"
	}
	return "unknown"
}

// Session is the per-round state of one player. It is owned by exactly one
// Engine and mutated only through it.
type Session struct {
	Board *Board

	Score        int
	DisplayScore int
	Rows         int
	Gnus         int
	SpeedBias    int
	Elapsed      float64

	Current Piece
	Next    *Shape

	actions  []PlayerAction
	injected []*Shape
	bag      *Bag
}

// NewSession creates an empty session for the configured court.
func NewSession(cfg Config, seed uint64) *Session {
	s := &Session{
		Board: NewBoard(cfg.Width, cfg.Height),
		bag:   NewBag(seed),
	}
	s.Next = s.bag.Draw()
	return s
}

// Reseed restarts the bag from seed and redraws the upcoming shape.
func (s *Session) Reseed(seed uint64) {
	s.bag.Reseed(seed)
	s.Next = s.bag.Draw()
}

// Reset clears everything except the bag and the upcoming shape, which
// becomes the current piece.
func (s *Session) Reset() {
	s.Board.Clear()
	s.Score = 0
	s.DisplayScore = 0
	s.Rows = 0
	s.Gnus = 0
	s.SpeedBias = 0
	s.Elapsed = 0
	s.actions = s.actions[:0]
	s.injected = s.injected[:0]
	s.Current = SpawnPiece(s.Next, s.Board.Width())
	s.Next = s.bag.Draw()
}

// Inject puts shape at the front of the spawn queue, ahead of the bag.
func (s *Session) Inject(shape *Shape) {
	s.injected = append(s.injected, shape)
}

// Injected returns the number of power-up pieces waiting to spawn.
func (s *Session) Injected() int {
	return len(s.injected)
}

// Pending returns the number of queued actions.
func (s *Session) Pending() int {
	return len(s.actions)
}

func (s *Session) popInjected() (*Shape, bool) {
	n := len(s.injected)
	if n == 0 {
		return nil, false
	}
	shape := s.injected[n-1]
	s.injected = s.injected[:n-1]
	return shape, true
}

func (s *Session) pushAction(a PlayerAction, limit int) bool {
	if len(s.actions) >= limit {
		return false
	}
	s.actions = append(s.actions, a)
	return true
}

func (s *Session) popAction() (PlayerAction, bool) {
	if len(s.actions) == 0 {
		return 0, false
	}
	a := s.actions[0]
	s.actions = s.actions[1:]
	return a, true
}

// clear empties the per-round collections without touching the bag.
func (s *Session) clear() {
	s.Board.Clear()
	s.actions = nil
	s.injected = nil
}
