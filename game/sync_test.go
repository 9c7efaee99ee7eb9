package game

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sentEvent struct {
	name string
	data interface{}
}

type recordingTransport struct {
	sent []sentEvent
	fail map[string]error
}

func (r *recordingTransport) Send(event string, data interface{}) error {
	if err := r.fail[event]; err != nil {
		return err
	}
	r.sent = append(r.sent, sentEvent{event, data})
	return nil
}

func (r *recordingTransport) names() []string {
	out := make([]string, len(r.sent))
	for i, s := range r.sent {
		out[i] = s.name
	}
	return out
}

func inbound(t *testing.T, raw string) Message {
	t.Helper()
	msg, err := JSONCodec.Decode([]byte(raw))
	require.NoError(t, err)
	return msg
}

func newPlayingSync(t *testing.T) (*Sync, *recordingTransport) {
	t.Helper()
	tr := &recordingTransport{}
	s := NewSync(NewEngine(DefaultConfig(), 1, nil), tr, nil)
	require.NoError(t, s.Handle(inbound(t, `{"t":"start","d":1}`)))
	require.True(t, s.Engine().Playing())
	require.NoError(t, s.Flush())
	tr.sent = nil
	return s, tr
}

func TestSyncStartResetsMirror(t *testing.T) {
	tr := &recordingTransport{}
	s := NewSync(NewEngine(DefaultConfig(), 1, nil), tr, nil)
	s.Mirror().Board.Set(0, 0, "#x")
	s.Mirror().Lost = true

	require.NoError(t, s.Handle(inbound(t, `{"t":"start","d":1}`)))
	assert.True(t, s.Engine().Playing())
	assert.Equal(t, 0, s.Mirror().Board.Count())
	assert.False(t, s.Mirror().Lost)

	require.NoError(t, s.Flush())
	assert.Equal(t, []string{EvtRows, EvtGnus, EvtScore, EvtNext}, tr.names())

	err := s.Handle(inbound(t, `{"t":"start","d":2}`))
	assert.True(t, errors.Is(err, ErrInvalidMessage))
}

func TestSyncGameReadySeedsBag(t *testing.T) {
	a, _ := newPlayingSync(t)
	b := NewSync(NewEngine(DefaultConfig(), 99, nil), &recordingTransport{}, nil)

	require.NoError(t, a.Handle(inbound(t, `{"t":"game_ready","d":4242}`)))
	require.NoError(t, b.Handle(inbound(t, `{"t":"game_ready","d":4242}`)))
	assert.Same(t, a.Engine().Session().Next, b.Engine().Session().Next)

	assert.Error(t, a.Handle(inbound(t, `{"t":"game_ready","d":"soon"}`)))
}

func TestSyncCounters(t *testing.T) {
	s, _ := newPlayingSync(t)
	require.NoError(t, s.Handle(inbound(t, `{"t":"op_score","d":7}`)))
	require.NoError(t, s.Handle(inbound(t, `{"t":"op_rows","d":3}`)))
	require.NoError(t, s.Handle(inbound(t, `{"t":"op_gnus","d":9}`)))
	m := s.Mirror()
	assert.Equal(t, 7, m.Score)
	assert.Equal(t, 3, m.Rows)
	assert.Equal(t, 9, m.Gnus)

	assert.Error(t, s.Handle(inbound(t, `{"t":"op_score","d":-1}`)))
	assert.Error(t, s.Handle(inbound(t, `{"t":"op_rows","d":"x"}`)))
	assert.Error(t, s.Handle(inbound(t, `{"t":"op_gnus"}`)))
	assert.Equal(t, 7, m.Score)
}

func TestSyncOpDownPlacesAndClears(t *testing.T) {
	s, _ := newPlayingSync(t)
	m := s.Mirror()
	fillRow(m.Board, 19, 0, 5)

	require.NoError(t, s.Handle(inbound(t, `{"t":"op_cur","d":{"id":"o","x":6,"y":17,"dir":0}}`)))
	require.NotNil(t, m.Current)
	assert.Equal(t, 17, m.Current.Y)

	require.NoError(t, s.Handle(inbound(t, `{"t":"op_down","d":{"id":"o","x":6,"y":18,"dir":0}}`)))
	assert.Nil(t, m.Current)
	assert.Equal(t, 2, m.Board.Count(), "full row cleared, top half of the o remains")
	assert.Equal(t, ShapeO.Color, m.Board.Get(6, 19))
}

func TestSyncRejectsInvalidPlacements(t *testing.T) {
	s, _ := newPlayingSync(t)
	m := s.Mirror()

	for _, raw := range []string{
		`{"t":"op_down","d":{"id":"q","x":0,"y":0,"dir":0}}`,
		`{"t":"op_down","d":{"id":"o","x":-3,"y":0,"dir":0}}`,
		`{"t":"op_down","d":{"id":"o","x":10,"y":0,"dir":0}}`,
		`{"t":"op_down","d":{"id":"o","x":0,"y":-1,"dir":0}}`,
		`{"t":"op_down","d":{"id":"o","x":0,"y":20,"dir":0}}`,
		`{"t":"op_down","d":{"id":"o","x":0,"y":0,"dir":4}}`,
		`{"t":"op_down","d":"o"}`,
		`{"t":"op_cur","d":{"id":"o","x":0,"y":22,"dir":0}}`,
	} {
		err := s.Handle(inbound(t, raw))
		assert.True(t, errors.Is(err, ErrInvalidMessage), raw)
	}
	assert.Equal(t, 0, m.Board.Count())
	assert.Nil(t, m.Current)

	// Slack at the edges is accepted.
	require.NoError(t, s.Handle(inbound(t, `{"t":"op_cur","d":{"id":"i","x":-2,"y":21,"dir":1}}`)))
	require.NoError(t, s.Handle(inbound(t, `{"t":"op_cur","d":{"id":"i","x":9,"y":0,"dir":3}}`)))
}

func TestSyncOpNext(t *testing.T) {
	s, _ := newPlayingSync(t)
	require.NoError(t, s.Handle(inbound(t, `{"t":"op_next","d":"f"}`)))
	assert.Same(t, ShapeFish, s.Mirror().Next)
	assert.Error(t, s.Handle(inbound(t, `{"t":"op_next","d":"w"}`)))
	assert.Same(t, ShapeFish, s.Mirror().Next)
}

func TestSyncOpBohrer(t *testing.T) {
	s, _ := newPlayingSync(t)
	m := s.Mirror()
	m.Board.Set(3, 19, "#d")

	require.NoError(t, s.Handle(inbound(t, `{"t":"op_bohrer","d":{"x":3,"y":19}}`)))
	assert.Equal(t, Color(""), m.Board.Get(3, 19))

	assert.Error(t, s.Handle(inbound(t, `{"t":"op_bohrer","d":{"x":8,"y":19}}`)))
	assert.Error(t, s.Handle(inbound(t, `{"t":"op_bohrer","d":{"x":0,"y":-1}}`)))
}

func TestSyncOpFishtris(t *testing.T) {
	s, _ := newPlayingSync(t)
	m := s.Mirror()
	local := s.Engine().Session()
	fillRow(m.Board, 19, 0, 2)
	fillRow(local.Board, 19, 0, 2)

	// Ringel clears the opponent's own row, which shows up on the mirror.
	require.NoError(t, s.Handle(inbound(t, `{"t":"op_fishtris","d":"Ringel"}`)))
	assert.Equal(t, 0, m.Board.Count())
	assert.Equal(t, 3, local.Board.Count())

	// Gnubaby hits this side's board.
	require.NoError(t, s.Handle(inbound(t, `{"t":"op_fishtris","d":"Gnubaby"}`)))
	assert.Equal(t, 0, local.Board.Count())

	require.NoError(t, s.Handle(inbound(t, `{"t":"op_fishtris","d":"BigFISH"}`)))
	assert.Equal(t, 1, local.Injected())

	assert.Error(t, s.Handle(inbound(t, `{"t":"op_fishtris","d":"Wal"}`)))
}

func TestSyncRemotePowerUpIgnoredAfterRound(t *testing.T) {
	s, _ := newPlayingSync(t)
	s.Engine().Forfeit()
	require.NoError(t, s.Handle(inbound(t, `{"t":"op_fishtris","d":"Tonne"}`)))
	assert.Equal(t, 0, s.Engine().Session().Injected())
}

func TestSyncFlushAppliesOwnMirrorEffects(t *testing.T) {
	s, tr := newPlayingSync(t)
	m := s.Mirror()
	fillRow(m.Board, 19, 0, 3)
	s.Engine().Session().Gnus = 3

	require.NoError(t, s.Engine().Activate("Gnubaby"))
	require.NoError(t, s.Flush())

	assert.Equal(t, 0, m.Board.Count())
	assert.Equal(t, []string{EvtFishtris, EvtGnus}, tr.names())
	assert.Equal(t, "Gnubaby", tr.sent[0].data)
}

func TestSyncFlushKeepsOrderAndReportsFailures(t *testing.T) {
	s, tr := newPlayingSync(t)
	tr.fail = map[string]error{EvtCur: errors.New("closed")}
	s.Engine().Session().Current = Piece{Shape: ShapeO, X: 3, Y: 18}
	s.Engine().Enqueue(ActionDrop)

	err := s.Tick(0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "send cur")
	assert.Equal(t, []string{EvtDown, EvtScore, EvtNext}, tr.names())
	assert.Zero(t, s.Engine().Outbox().Len())
}

func TestSyncLooseAndLeft(t *testing.T) {
	s, _ := newPlayingSync(t)
	s.Mirror().Current = &Piece{Shape: ShapeT}

	require.NoError(t, s.Handle(inbound(t, `{"t":"op_loose","d":true}`)))
	assert.True(t, s.Mirror().Lost)
	assert.Nil(t, s.Mirror().Current)
	assert.True(t, s.Engine().Playing(), "the local round keeps running")

	require.NoError(t, s.Handle(inbound(t, `{"t":"op_left"}`)))
	assert.True(t, s.Mirror().Gone)
	assert.Equal(t, StateIdle, s.Engine().State())
}

func TestSyncUnknownEvent(t *testing.T) {
	s, _ := newPlayingSync(t)
	err := s.Handle(inbound(t, `{"t":"op_teleport","d":1}`))
	assert.True(t, errors.Is(err, ErrInvalidMessage))
}
