package gateway

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/mcoot/partyrooms/internal/dependencies/scheduler"
	"github.com/mcoot/partyrooms/internal/model"
	"github.com/mcoot/partyrooms/internal/services/questions"
	"github.com/mcoot/partyrooms/internal/services/room"
	"github.com/mcoot/partyrooms/internal/services/trivia"
)

// Transport delivers outbound events to a single connection
type Transport interface {
	Send(conn model.ConnectionID, event model.Event)
}

// Config holds gateway timing
type Config struct {
	// ResultsDelay is how long question results stay up before advancing
	ResultsDelay time.Duration
	// CleanupInterval is the period of the inactive-room sweep
	CleanupInterval time.Duration
	// FetchTimeout bounds a question fetch started by start-trivia
	FetchTimeout time.Duration
	// QueueSize is the command loop buffer
	QueueSize int
}

// DefaultConfig returns production timings
func DefaultConfig() Config {
	return Config{
		ResultsDelay:    5 * time.Second,
		CleanupInterval: 5 * time.Minute,
		FetchTimeout:    10 * time.Second,
		QueueSize:       1024,
	}
}

// Gateway turns client commands into registry and engine calls and sends
// the resulting events to the right audience. All state changes run on loop.
type Gateway struct {
	loop      *Loop
	registry  *room.Registry
	engine    *trivia.Engine
	questions questions.SourceInterface
	scheduler scheduler.Scheduler
	transport Transport
	cfg       Config
	logger    *slog.Logger
}

// New creates a new Gateway. SetTransport must be called before Run if
// transport is nil.
func New(
	registry *room.Registry,
	engine *trivia.Engine,
	questions questions.SourceInterface,
	scheduler scheduler.Scheduler,
	transport Transport,
	cfg Config,
	logger *slog.Logger,
) *Gateway {
	defaults := DefaultConfig()
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = defaults.QueueSize
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = defaults.FetchTimeout
	}
	logger = logger.With(slog.String("component", "gateway"))
	return &Gateway{
		loop:      NewLoop(cfg.QueueSize, logger),
		registry:  registry,
		engine:    engine,
		questions: questions,
		scheduler: scheduler,
		transport: transport,
		cfg:       cfg,
		logger:    logger,
	}
}

// SetTransport installs the outbound transport
func (g *Gateway) SetTransport(t Transport) {
	g.transport = t
}

// Run drives the command loop and the inactive-room sweep until ctx is done
func (g *Gateway) Run(ctx context.Context) {
	if g.cfg.CleanupInterval > 0 {
		go g.runSweeper(ctx)
	}
	g.loop.Run(ctx)
	g.scheduler.Stop()
}

// Done is closed when Run has returned
func (g *Gateway) Done() <-chan struct{} {
	return g.loop.Done()
}

func (g *Gateway) runSweeper(ctx context.Context) {
	ticker := time.NewTicker(g.cfg.CleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			g.loop.Post(g.sweep)
		}
	}
}

func (g *Gateway) sweep(ctx context.Context) {
	deleted, err := g.registry.CleanInactiveRooms(ctx)
	if err != nil {
		g.logger.Error("inactive room sweep failed", slog.String("error", err.Error()))
	}
	for _, id := range deleted {
		g.cancelTimers(id)
	}
}

// HandleMessage decodes a raw client message and dispatches it
func (g *Gateway) HandleMessage(conn model.ConnectionID, data []byte) {
	cmd, err := DecodeCommand(data)
	if err != nil {
		g.loop.Post(func(context.Context) { g.sendError(conn, err) })
		return
	}
	g.Dispatch(conn, cmd)
}

// Dispatch queues a decoded command from conn
func (g *Gateway) Dispatch(conn model.ConnectionID, cmd model.Command) {
	g.loop.Post(func(ctx context.Context) { g.handle(ctx, conn, cmd) })
}

// Disconnect marks the player on conn offline
func (g *Gateway) Disconnect(conn model.ConnectionID) {
	g.loop.Post(func(ctx context.Context) { g.handleDisconnect(ctx, conn) })
}

// Flush waits until every task queued before the call has run
func (g *Gateway) Flush(ctx context.Context) error {
	return g.loop.Do(ctx, func(context.Context) error { return nil })
}

// CreateRoom creates a room on behalf of the request layer
func (g *Gateway) CreateRoom(ctx context.Context, settings model.RoomSettings) (*model.RoomView, model.ClaimToken, error) {
	var view *model.RoomView
	var token model.ClaimToken
	err := g.loop.Do(ctx, func(ctx context.Context) error {
		r, t, err := g.registry.CreateRoom(ctx, settings)
		if err != nil {
			return err
		}
		v := r.Public()
		view, token = &v, t
		return nil
	})
	return view, token, err
}

// GetRoom returns the room with the given code, or ErrRoomNotFound
func (g *Gateway) GetRoom(ctx context.Context, code string) (*model.RoomView, error) {
	var view *model.RoomView
	err := g.loop.Do(ctx, func(ctx context.Context) error {
		r, err := g.registry.GetRoomByCode(ctx, code)
		if err != nil {
			return err
		}
		if r == nil {
			return model.ErrRoomNotFound
		}
		v := r.Public()
		view = &v
		return nil
	})
	return view, err
}

// ListRooms returns every active room
func (g *Gateway) ListRooms(ctx context.Context) ([]model.RoomView, error) {
	var views []model.RoomView
	err := g.loop.Do(ctx, func(ctx context.Context) error {
		rooms, err := g.registry.ListActiveRooms(ctx)
		if err != nil {
			return err
		}
		views = make([]model.RoomView, 0, len(rooms))
		for _, r := range rooms {
			views = append(views, r.Public())
		}
		return nil
	})
	return views, err
}

func (g *Gateway) handle(ctx context.Context, conn model.ConnectionID, cmd model.Command) {
	switch cmd.Type {
	case model.CommandJoinRoom:
		g.handleJoin(ctx, conn, cmd.JoinRoom)
	case model.CommandLeaveRoom:
		g.handleLeave(ctx, conn)
	case model.CommandStartGame:
		g.handleStartGame(ctx, conn)
	case model.CommandStartTrivia:
		g.handleStartTrivia(ctx, conn)
	case model.CommandSubmitAnswer:
		g.handleSubmitAnswer(ctx, conn, cmd.SubmitAnswer)
	case model.CommandNextQuestion:
		g.handleNextQuestion(ctx, conn)
	default:
		g.sendError(conn, model.ErrUnknownCommand)
	}
}

// Audience helpers

func (g *Gateway) toCaller(conn model.ConnectionID, t model.EventType, payload any) {
	g.transport.Send(conn, model.NewEvent(t, payload))
}

func (g *Gateway) toRoom(r *model.Room, t model.EventType, payload any) {
	g.toRoomExcept(r, "", t, payload)
}

func (g *Gateway) toRoomExcept(r *model.Room, except model.ConnectionID, t model.EventType, payload any) {
	event := model.NewEvent(t, payload)
	for _, p := range r.Players {
		if !p.IsOnline || p.ConnectionID == "" || p.ConnectionID == except {
			continue
		}
		g.transport.Send(p.ConnectionID, event)
	}
}

// userFacing lists the errors whose message is safe to show a client
var userFacing = []error{
	model.ErrRoomNotFound,
	model.ErrRoomFull,
	model.ErrNotInRoom,
	model.ErrPlayerNotFound,
	model.ErrSessionReplaced,
	model.ErrNotHost,
	model.ErrInvalidSettings,
	model.ErrTriviaInProgress,
	model.ErrInvalidTriviaState,
	model.ErrQuestionMismatch,
	model.ErrAlreadyAnswered,
	model.ErrNotScoredPlayer,
	model.ErrNoQuestions,
	model.ErrUnknownCommand,
	model.ErrInvalidPayload,
}

func (g *Gateway) sendError(conn model.ConnectionID, err error) {
	for _, known := range userFacing {
		if errors.Is(err, known) {
			g.toCaller(conn, model.EventError, model.ErrorPayload{Message: err.Error()})
			return
		}
	}
	g.logger.Error("command failed",
		slog.String("connection_id", string(conn)),
		slog.String("error", err.Error()),
	)
	g.toCaller(conn, model.EventError, model.ErrorPayload{Message: "internal error"})
}

// caller resolves the room and player behind a connection
func (g *Gateway) caller(ctx context.Context, conn model.ConnectionID) (*model.Room, *model.Player, error) {
	binding, ok := g.registry.Presence().Lookup(conn)
	if !ok {
		return nil, nil, model.ErrNotInRoom
	}
	r, err := g.registry.GetRoomByID(ctx, binding.RoomID)
	if err != nil {
		return nil, nil, err
	}
	if r == nil {
		return nil, nil, model.ErrRoomNotFound
	}
	p := r.GetPlayer(binding.PlayerID)
	if p == nil {
		return nil, nil, model.ErrPlayerNotFound
	}
	return r, p, nil
}
