package game

// Outbound event names, emitted by the local engine.
const (
	EvtStart    = "start"
	EvtScore    = "score"
	EvtRows     = "rows"
	EvtGnus     = "gnus"
	EvtDown     = "down"
	EvtCur      = "cur"
	EvtNext     = "next"
	EvtLoose    = "loose"
	EvtFishtris = "fishtris"
	EvtBohrer   = "bohrer"
)

// Inbound event names. Opponent events carry the OpponentPrefix.
const (
	OpponentPrefix = "op_"

	EvtGameReady  = "game_ready"
	EvtOpScore    = OpponentPrefix + EvtScore
	EvtOpRows     = OpponentPrefix + EvtRows
	EvtOpGnus     = OpponentPrefix + EvtGnus
	EvtOpDown     = OpponentPrefix + EvtDown
	EvtOpCur      = OpponentPrefix + EvtCur
	EvtOpNext     = OpponentPrefix + EvtNext
	EvtOpLoose    = OpponentPrefix + EvtLoose
	EvtOpFishtris = OpponentPrefix + EvtFishtris
	EvtOpBohrer   = OpponentPrefix + EvtBohrer
	EvtOpLeft     = OpponentPrefix + "left"
)

// RelayedEvents are the outbound events a relay forwards to the opponent.
var RelayedEvents = map[string]bool{
	EvtScore:    true,
	EvtRows:     true,
	EvtGnus:     true,
	EvtDown:     true,
	EvtCur:      true,
	EvtNext:     true,
	EvtLoose:    true,
	EvtFishtris: true,
	EvtBohrer:   true,
}

// Event is one entry of the engine's outbound log.
type Event struct {
	Name string
	Data interface{}
}

// Outbox is an append-only event log drained by the transport side.
type Outbox struct {
	events []Event
}

func (o *Outbox) emit(name string, data interface{}) {
	o.events = append(o.events, Event{Name: name, Data: data})
}

// Len returns the number of undrained events.
func (o *Outbox) Len() int {
	return len(o.events)
}

// Drain returns all pending events in emission order and empties the log.
func (o *Outbox) Drain() []Event {
	if len(o.events) == 0 {
		return nil
	}
	out := o.events
	o.events = nil
	return out
}
