package main

// Client -> Server control messages. Game events (score, down, ...) travel
// on the same socket and are relayed to the opponent.
const (
	MsgCreate   = "create"
	MsgJoin     = "join"
	MsgLeave    = "leave"
	MsgStart    = "start"
	MsgList     = "list"
	MsgCheck    = "check"
	MsgRegister = "register"
	MsgLogin    = "login"
	MsgAuth     = "auth"
	MsgProfile  = "profile"
)

// Server -> Client control messages
const (
	MsgCreated     = "created"
	MsgJoined      = "joined"
	MsgOpJoined    = "op_joined" // second seat taken
	MsgRooms       = "rooms"
	MsgChecked     = "checked"
	MsgError       = "error"
	MsgAuthOK      = "auth_ok"
	MsgProfileData = "profile_data"
)

// CreateMsg asks for a new room
type CreateMsg struct {
	Name string `json:"name" msgpack:"name"`
}

// CreatedMsg answers a create
type CreatedMsg struct {
	Room string `json:"room" msgpack:"room"`
}

// JoinMsg takes a seat in a room. Bin switches the connection to msgpack.
type JoinMsg struct {
	Room string `json:"room" msgpack:"room"`
	Name string `json:"name" msgpack:"name"`
	Bin  bool   `json:"bin" msgpack:"bin"`
}

// JoinedMsg confirms a seat
type JoinedMsg struct {
	Room     string `json:"room" msgpack:"room"`
	Seat     int    `json:"seat" msgpack:"seat"`
	Opponent string `json:"opponent,omitempty" msgpack:"opponent,omitempty"`
}

// OpJoinedMsg tells a seated player who sat down opposite
type OpJoinedMsg struct {
	Name string `json:"name" msgpack:"name"`
}

// CheckMsg asks whether a room exists
type CheckMsg struct {
	Room string `json:"room" msgpack:"room"`
}

// CheckedMsg is the response to a room check
type CheckedMsg struct {
	Room    string `json:"room" msgpack:"room"`
	Exists  bool   `json:"exists" msgpack:"exists"`
	Players int    `json:"players,omitempty" msgpack:"players,omitempty"`
}

// RoomInfo is used in the room list
type RoomInfo struct {
	ID      string `json:"id" msgpack:"id"`
	Host    string `json:"host" msgpack:"host"`
	Players int    `json:"players" msgpack:"players"`
	Playing bool   `json:"playing" msgpack:"playing"`
}

// ErrorMsg sends an error to the client
type ErrorMsg struct {
	Msg string `json:"msg" msgpack:"msg"`
}

// RegisterMsg creates an account
type RegisterMsg struct {
	Username string `json:"username" msgpack:"username"`
	Password string `json:"password" msgpack:"password"`
}

// LoginMsg authenticates with username and password
type LoginMsg struct {
	Username string `json:"username" msgpack:"username"`
	Password string `json:"password" msgpack:"password"`
}

// AuthMsg authenticates with a stored token
type AuthMsg struct {
	Token string `json:"token" msgpack:"token"`
}

// AuthOKMsg is sent after any successful authentication
type AuthOKMsg struct {
	Token    string `json:"token" msgpack:"token"`
	Username string `json:"username" msgpack:"username"`
	PlayerID int64  `json:"pid" msgpack:"pid"`
}

// ProfileDataMsg carries the player's lifetime stats
type ProfileDataMsg struct {
	Username   string  `json:"username" msgpack:"username"`
	Rounds     int     `json:"rounds" msgpack:"rounds"`
	Wins       int     `json:"wins" msgpack:"wins"`
	Losses     int     `json:"losses" msgpack:"losses"`
	BestScore  int     `json:"best_score" msgpack:"best_score"`
	TotalRows  int     `json:"total_rows" msgpack:"total_rows"`
	TotalScore int     `json:"total_score" msgpack:"total_score"`
	Playtime   float64 `json:"playtime" msgpack:"playtime"`

	Achievements []string `json:"achievements" msgpack:"achievements"`
}
