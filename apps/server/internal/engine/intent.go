package engine

// Intent is one unit of work for the engine. Every client message, every
// connection drop and every timer firing becomes an Intent handled to
// completion on the engine goroutine.
type Intent interface {
	intentName() string
}

type Authenticate struct {
	ConnID   string
	UserID   string
	Username string
}

// Disconnect is submitted by the gateway when a socket closes.
type Disconnect struct {
	ConnID string
}

type GetTables struct {
	ConnID string
}

type CreateTable struct {
	ConnID     string
	Name       string
	MaxPlayers int
	Rounds     int
	// TimeoutSeconds is the per-turn timeout; 0 uses the server default.
	TimeoutSeconds int
	Level          string
	Password       string

	passwordHash []byte
}

type JoinTable struct {
	ConnID   string
	TableID  string
	Password string

	passwordOK bool
}

type LeaveTable struct {
	ConnID string
}

type StartGame struct {
	ConnID  string
	TableID string
}

type GameAction struct {
	ConnID  string
	TableID string
	Action  string
}

type TableMessage struct {
	ConnID  string
	TableID string
	Message string
}

type GlobalMessage struct {
	ConnID  string
	Message string
}

// turnTimeout fires when the seat at Position did not act in time.
type turnTimeout struct {
	TableID  string
	Round    int
	Position int
	gen      uint64
}

// graceExpired fires when a disconnected identity did not come back.
type graceExpired struct {
	UserID string
	gen    uint64
}

func (Authenticate) intentName() string  { return "authenticate" }
func (Disconnect) intentName() string    { return "disconnect" }
func (GetTables) intentName() string     { return "getTables" }
func (CreateTable) intentName() string   { return "createTable" }
func (JoinTable) intentName() string     { return "joinTable" }
func (LeaveTable) intentName() string    { return "leaveTable" }
func (StartGame) intentName() string     { return "startGame" }
func (GameAction) intentName() string    { return "gameAction" }
func (TableMessage) intentName() string  { return "tableMessage" }
func (GlobalMessage) intentName() string { return "globalMessage" }
func (turnTimeout) intentName() string   { return "turnTimeout" }
func (graceExpired) intentName() string  { return "graceExpired" }
