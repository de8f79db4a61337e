package engine

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"blackjack-lite/apps/server/internal/chat"
	"blackjack-lite/apps/server/internal/codec"
	"blackjack-lite/apps/server/internal/ledger"
	"blackjack-lite/apps/server/internal/lobby"
	"blackjack-lite/apps/server/internal/notify"
	"blackjack-lite/apps/server/internal/presence"
	"blackjack-lite/blackjack"
)

var ErrEngineStopped = errors.New("engine stopped")

const (
	defaultQueueSize = 256
	archiveTimeout   = 3 * time.Second
)

// Sender delivers an encoded frame to one connection. It must not block.
type Sender interface {
	SendTo(connID string, data []byte) bool
}

type Options struct {
	ReconnectGrace     time.Duration
	DefaultTurnTimeout time.Duration
	MaxPlayers         int
	MinPlayers         int
	DefaultRounds      int
	ReshuffleThreshold int
	ChatHistory        int
	QueueSize          int
	// Seed for every new game's shuffle; 0 picks a time-based seed per game.
	Seed int64
}

func (o Options) withDefaults() Options {
	if o.ReconnectGrace <= 0 {
		o.ReconnectGrace = 30 * time.Second
	}
	if o.DefaultTurnTimeout <= 0 {
		o.DefaultTurnTimeout = 30 * time.Second
	}
	if o.MaxPlayers < 2 {
		o.MaxPlayers = 4
	}
	if o.MinPlayers < 2 {
		o.MinPlayers = blackjack.DefaultMinPlayers
	}
	if o.DefaultRounds < 1 {
		o.DefaultRounds = 5
	}
	if o.ReshuffleThreshold <= 0 {
		o.ReshuffleThreshold = blackjack.DefaultReshuffleThreshold
	}
	if o.QueueSize <= 0 {
		o.QueueSize = defaultQueueSize
	}
	return o
}

// Deps are the collaborators the engine drives. Nil fields get defaults.
type Deps struct {
	Sender    Sender
	Ledger    ledger.Service
	Scheduler Scheduler
	Clock     func() time.Time
	Logger    *zap.Logger
}

type request struct {
	intent Intent
	resp   chan error
}

// Engine is the single owner of all presence, table and round state.
// Intents are processed one at a time on the Run goroutine.
type Engine struct {
	opts   Options
	logger *zap.Logger

	presence *presence.Registry
	lobby    *lobby.Registry
	chat     *chat.Relay
	ledger   ledger.Service
	sender   Sender
	sched    Scheduler
	now      func() time.Time

	queue    chan request
	done     chan struct{}
	stopOnce sync.Once

	timers   map[string]*keyedTimer
	timerGen uint64
	tapes    map[string]*roundTape

	archiving sync.WaitGroup

	hashPassword func(string) ([]byte, error)
}

func New(opts Options, deps Deps) *Engine {
	opts = opts.withDefaults()
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Ledger == nil {
		deps.Ledger = ledger.NewMemoryService(0)
	}
	if deps.Scheduler == nil {
		deps.Scheduler = RealScheduler
	}
	if deps.Clock == nil {
		deps.Clock = time.Now
	}
	return &Engine{
		opts:     opts,
		logger:   deps.Logger.Named("engine"),
		presence: presence.NewRegistry(),
		lobby:    lobby.New(lobby.Limits{MinSeats: opts.MinPlayers, MaxSeats: opts.MaxPlayers}, deps.Logger),
		chat:     chat.NewRelay(opts.ChatHistory),
		ledger:   deps.Ledger,
		sender:   deps.Sender,
		sched:    deps.Scheduler,
		now:      deps.Clock,
		queue:    make(chan request, opts.QueueSize),
		done:     make(chan struct{}),
		timers:   make(map[string]*keyedTimer),
		tapes:    make(map[string]*roundTape),

		hashPassword: lobby.HashPassword,
	}
}

// SetSender wires the outbound transport after construction, for the
// gateway which itself needs the engine.
func (e *Engine) SetSender(s Sender) { e.sender = s }

// Run processes intents until ctx is cancelled or Stop is called.
func (e *Engine) Run(ctx context.Context) {
	e.logger.Info("engine started")
	for {
		select {
		case req := <-e.queue:
			err := e.handle(req.intent)
			if req.resp != nil {
				req.resp <- err
			}
		case <-ctx.Done():
			e.Stop()
			return
		case <-e.done:
			e.logger.Info("engine stopped")
			return
		}
	}
}

// Stop ends Run and waits for pending ledger writes. Timers that fire
// afterwards are discarded.
func (e *Engine) Stop() {
	e.stopOnce.Do(func() {
		close(e.done)
	})
	e.archiving.Wait()
}

// Submit enqueues intent and waits for its outcome. The returned error is
// user-facing and belongs to the submitting connection only.
func (e *Engine) Submit(ctx context.Context, intent Intent) error {
	intent, err := e.prepare(intent)
	if err != nil {
		return err
	}
	req := request{intent: intent, resp: make(chan error, 1)}
	select {
	case e.queue <- req:
	case <-e.done:
		return ErrEngineStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-req.resp:
		return err
	case <-e.done:
		return ErrEngineStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// prepare does the bcrypt work of password intents on the submitting
// goroutine, so the actor only sees a hash or a verdict. The seat check in
// front of hashing is repeated authoritatively by the actor.
func (e *Engine) prepare(intent Intent) (Intent, error) {
	switch in := intent.(type) {
	case CreateTable:
		if in.Password == "" {
			return in, nil
		}
		if id, err := e.presence.Resolve(in.ConnID); err == nil {
			if _, seated := e.lobby.TableOf(id.UserID); seated {
				return nil, lobby.ErrAlreadySeated
			}
		}
		hash, err := e.hashPassword(in.Password)
		if err != nil {
			return nil, err
		}
		in.Password, in.passwordHash = "", hash
		return in, nil
	case JoinTable:
		in.passwordOK = e.lobby.VerifyPassword(in.TableID, in.Password)
		in.Password = ""
		return in, nil
	}
	return intent, nil
}

// Post enqueues intent without a deadline and without waiting for its
// outcome. The gateway uses it for Disconnect, which must not be lost.
func (e *Engine) Post(intent Intent) {
	e.post(intent)
}

// post enqueues without waiting for the result; used by timers.
func (e *Engine) post(intent Intent) {
	select {
	case e.queue <- request{intent: intent}:
	case <-e.done:
	}
}

func (e *Engine) handle(intent Intent) error {
	var err error
	switch in := intent.(type) {
	case Authenticate:
		err = e.handleAuthenticate(in)
	case Disconnect:
		err = e.handleDisconnect(in)
	case GetTables:
		err = e.handleGetTables(in)
	case CreateTable:
		err = e.handleCreateTable(in)
	case JoinTable:
		err = e.handleJoinTable(in)
	case LeaveTable:
		err = e.handleLeaveTable(in)
	case StartGame:
		err = e.handleStartGame(in)
	case GameAction:
		err = e.handleGameAction(in)
	case TableMessage:
		err = e.handleTableMessage(in)
	case GlobalMessage:
		err = e.handleGlobalMessage(in)
	case turnTimeout:
		err = e.handleTurnTimeout(in)
	case graceExpired:
		err = e.handleGraceExpired(in)
	default:
		err = blackjack.NewError(blackjack.KindValidation, "unsupported intent")
	}
	if err != nil {
		e.logger.Debug("intent rejected", zap.String("intent", intent.intentName()), zap.Error(err))
	}
	return err
}

// resolve returns the identity bound to connID and refreshes its activity.
func (e *Engine) resolve(connID string) (presence.Identity, error) {
	id, err := e.presence.Resolve(connID)
	if err != nil {
		return presence.Identity{}, err
	}
	e.presence.Touch(connID, e.now())
	return id, nil
}

// Directory implementation for notify.

func (e *Engine) Connections() []string { return e.presence.Connections() }

func (e *Engine) TableConnections(tableID string) []string {
	t, ok := e.lobby.Get(tableID)
	if !ok {
		return nil
	}
	return t.ConnectionIDs()
}

// emit resolves recipients against the state as it is now and hands the
// frame to the sender. Table-scoped events also go onto the round tape.
func (e *Engine) emit(scope notify.Scope, event string, payload any) {
	if scope.Kind == notify.ScopeTable {
		e.record(scope.TableID, event, payload)
	}
	if e.sender == nil {
		return
	}
	recipients := notify.Recipients(scope, e)
	if len(recipients) == 0 {
		return
	}
	data, err := codec.Encode(event, payload)
	if err != nil {
		e.logger.Error("encode outbound event failed", zap.String("event", event), zap.Error(err))
		return
	}
	for _, connID := range recipients {
		if !e.sender.SendTo(connID, data) {
			e.logger.Debug("outbound dropped", zap.String("event", event), zap.String("conn_id", connID))
		}
	}
}

func (e *Engine) broadcastTables() {
	e.emit(notify.Global(), codec.EventTablesUpdated, codec.TablesToView(e.lobby.List()))
}

func (e *Engine) broadcastOnlineUsers() {
	e.emit(notify.Global(), codec.EventOnlineUsersUpdated, codec.IdentitiesToView(e.presence.ListOnline()))
}

// ErrorPayload builds the error event body for err.
func ErrorPayload(err error) codec.ErrorEvent {
	kind := blackjack.KindOf(err)
	msg := err.Error()
	if kind == blackjack.KindUnknown {
		msg = "internal error"
	}
	return codec.ErrorEvent{Message: msg, Code: kind.String()}
}

// Presence and Lobby expose read access for the HTTP layer and tests.
func (e *Engine) Presence() *presence.Registry { return e.presence }
func (e *Engine) Lobby() *lobby.Registry       { return e.lobby }
