package codec

// Client -> server events.
const (
	EventAuthenticate  = "authenticate"
	EventGetTables     = "getTables"
	EventCreateTable   = "createTable"
	EventJoinTable     = "joinTable"
	EventLeaveTable    = "leaveTable"
	EventStartGame     = "startGame"
	EventGameAction    = "gameAction"
	EventTableMessage  = "tableMessage"
	EventGlobalMessage = "globalMessage"
)

// Server -> client events.
const (
	EventGameState             = "gameState"
	EventTablesUpdated         = "tablesUpdated"
	EventOnlineUsersUpdated    = "onlineUsersUpdated"
	EventTableCreated          = "tableCreated"
	EventTableJoined           = "tableJoined"
	EventTableLeft             = "tableLeft"
	EventPlayerJoined          = "playerJoined"
	EventPlayerLeft            = "playerLeft"
	EventUserLeft              = "userLeft"
	EventGameStarted           = "gameStarted"
	EventGameActionReceived    = "gameActionReceived"
	EventTableMessageReceived  = "tableMessageReceived"
	EventGlobalMessageReceived = "globalMessageReceived"
	EventError                 = "error"

	EventRoundUpdated    = "roundUpdated"
	EventTurnChanged     = "turnChanged"
	EventDealerCardDrawn = "dealerCardDrawn"
	EventRoundSettled    = "roundSettled"
	EventGameOver        = "gameOver"
	EventHostChanged     = "hostChanged"
)
