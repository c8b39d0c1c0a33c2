package gateway

import (
	"context"
	"errors"
	"log/slog"

	"github.com/mcoot/partyrooms/internal/model"
	"github.com/mcoot/partyrooms/internal/services/identity"
	"github.com/mcoot/partyrooms/internal/services/room"
)

func (g *Gateway) handleJoin(ctx context.Context, conn model.ConnectionID, cmd *model.JoinRoomCommand) {
	code := identity.NormalizeCode(cmd.RoomCode)
	req := room.JoinRequest{
		Code:         string(code),
		Name:         cmd.PlayerName,
		ConnectionID: conn,
		IsSpectator:  cmd.IsSpectator,
		IsTV:         cmd.IsTV,
		ClaimToken:   cmd.ClaimToken,
	}

	// A connection belongs to at most one room. It only leaves the old one
	// once the new room is known to accept it.
	if binding, ok := g.registry.Presence().Lookup(conn); ok {
		prev, err := g.registry.GetRoomByID(ctx, binding.RoomID)
		if err != nil {
			g.sendError(conn, err)
			return
		}
		if prev != nil && prev.Code == code {
			if p := prev.GetPlayer(binding.PlayerID); p != nil {
				g.toCaller(conn, model.EventRoomJoined, model.RoomJoinedPayload{
					Room:       prev.Public(),
					Player:     p.Public(),
					ClaimToken: p.ClaimToken,
				})
				return
			}
		}
		if err := g.registry.CheckJoin(ctx, req); err != nil {
			g.rejectJoin(conn, err)
			return
		}
		if err := g.removePlayer(ctx, binding.RoomID, binding.PlayerID, conn); err != nil {
			g.logger.Warn("failed to leave previous room",
				slog.String("connection_id", string(conn)),
				slog.String("error", err.Error()),
			)
		}
	}

	result, err := g.registry.AddPlayerToRoom(ctx, req)
	if err == nil && result == nil {
		err = model.ErrRoomNotFound
	}
	if err != nil {
		g.rejectJoin(conn, err)
		return
	}

	r, player := result.Room, result.Player.Public()
	if result.Replaced != "" {
		g.toCaller(result.Replaced, model.EventError, model.ErrorPayload{Message: model.ErrSessionReplaced.Error()})
	}
	g.toCaller(conn, model.EventRoomJoined, model.RoomJoinedPayload{
		Room:       r.Public(),
		Player:     player,
		ClaimToken: result.Player.ClaimToken,
	})
	// A reclaimed player is already listed, so the others only see the room change
	if !result.Reclaimed {
		g.toRoomExcept(r, conn, model.EventPlayerJoined, model.PlayerJoinedPayload{Player: player})
	}
	g.toRoom(r, model.EventRoomUpdated, model.RoomPayload{Room: r.Public()})

	if r.State == model.TriviaStateQuestionActive && r.Trivia != nil {
		if q := r.Trivia.CurrentQuestion(); q != nil {
			g.toCaller(conn, model.EventQuestionSent, questionSent(r.Trivia, q))
		}
	}
}

// rejectJoin answers a refused join-room on the caller only
func (g *Gateway) rejectJoin(conn model.ConnectionID, err error) {
	switch {
	case errors.Is(err, model.ErrRoomFull):
		g.toCaller(conn, model.EventRoomFull, nil)
	case errors.Is(err, model.ErrRoomNotFound):
		g.toCaller(conn, model.EventRoomNotFound, nil)
	default:
		g.sendError(conn, err)
	}
}

func (g *Gateway) handleLeave(ctx context.Context, conn model.ConnectionID) {
	binding, ok := g.registry.Presence().Lookup(conn)
	if !ok {
		g.sendError(conn, model.ErrNotInRoom)
		return
	}
	if err := g.removePlayer(ctx, binding.RoomID, binding.PlayerID, conn); err != nil {
		g.sendError(conn, err)
	}
}

// removePlayer takes a player out of their room and the trivia session,
// then tells whoever is left.
func (g *Gateway) removePlayer(ctx context.Context, roomID model.RoomID, playerID model.PlayerID, conn model.ConnectionID) error {
	if err := g.engine.RemovePlayer(ctx, roomID, playerID); err != nil && !errors.Is(err, model.ErrRoomNotFound) {
		return err
	}
	result, err := g.registry.RemovePlayerFromRoom(ctx, playerID)
	if err != nil {
		return err
	}
	if result.RoomDeleted {
		g.cancelTimers(result.RoomID)
		return nil
	}

	r := result.Room
	g.toRoomExcept(r, conn, model.EventPlayerLeft, model.PlayerLeftPayload{PlayerID: playerID})
	g.toRoom(r, model.EventRoomUpdated, model.RoomPayload{Room: r.Public()})
	g.endIfAllAnswered(ctx, r)
	return nil
}

func (g *Gateway) handleDisconnect(ctx context.Context, conn model.ConnectionID) {
	r, player, err := g.registry.SetPlayerOffline(ctx, conn)
	if err != nil {
		g.logger.Error("failed to mark player offline",
			slog.String("connection_id", string(conn)),
			slog.String("error", err.Error()),
		)
		return
	}
	if r == nil || player == nil {
		return
	}
	g.toRoom(r, model.EventRoomUpdated, model.RoomPayload{Room: r.Public()})
	g.endIfAllAnswered(ctx, r)
}

func (g *Gateway) handleStartGame(ctx context.Context, conn model.ConnectionID) {
	r, p, err := g.caller(ctx, conn)
	if err != nil {
		g.sendError(conn, err)
		return
	}
	r, err = g.registry.StartGame(ctx, r.ID, p.ID)
	if err != nil {
		g.sendError(conn, err)
		return
	}
	g.toRoom(r, model.EventGameStarted, model.RoomPayload{Room: r.Public()})
}

func (g *Gateway) cancelTimers(roomID model.RoomID) {
	g.scheduler.Cancel(questionKey(roomID))
	g.scheduler.Cancel(advanceKey(roomID))
}
