package room

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/mcoot/partyrooms/internal/dependencies/clock"
	"github.com/mcoot/partyrooms/internal/model"
	"github.com/mcoot/partyrooms/internal/services/identity"
	"github.com/mcoot/partyrooms/internal/storage"
	"github.com/mcoot/partyrooms/internal/validation"
)

// DefaultRetention is how long a room with nobody online survives
const DefaultRetention = time.Hour

// JoinRequest describes a socket joining a room
type JoinRequest struct {
	Code         string
	Name         string
	ConnectionID model.ConnectionID
	IsSpectator  bool
	IsTV         bool
	ClaimToken   model.ClaimToken
}

// JoinResult is the outcome of a successful join
type JoinResult struct {
	Room   *model.Room
	Player *model.Player
	// Reclaimed is true when an existing player was rehydrated
	Reclaimed bool
	// Replaced is the connection that previously held a reclaimed player, if any
	Replaced model.ConnectionID
}

// LeaveResult is the outcome of removing a player
type LeaveResult struct {
	Room        *model.Room // nil when the room was deleted
	RoomID      model.RoomID
	Player      model.Player
	RoomDeleted bool
	HostChanged bool
}

// Registry owns the table of rooms and the player-to-room index
type Registry struct {
	store     storage.RoomStore
	ids       *identity.Allocator
	presence  *Presence
	clock     clock.Clock
	retention time.Duration
	logger    *slog.Logger
}

// NewRegistry creates a new Registry
func NewRegistry(
	store storage.RoomStore,
	ids *identity.Allocator,
	presence *Presence,
	clock clock.Clock,
	retention time.Duration,
	logger *slog.Logger,
) *Registry {
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &Registry{
		store:     store,
		ids:       ids,
		presence:  presence,
		clock:     clock,
		retention: retention,
		logger:    logger.With(slog.String("component", "registry")),
	}
}

// Presence returns the connection index maintained by this registry
func (r *Registry) Presence() *Presence {
	return r.presence
}

// CreateRoom creates a room holding a single offline host placeholder.
// The returned claim token lets the creator's socket take over that placeholder.
func (r *Registry) CreateRoom(ctx context.Context, settings model.RoomSettings) (*model.Room, model.ClaimToken, error) {
	settings.Name = strings.TrimSpace(settings.Name)
	settings.HostName = strings.TrimSpace(settings.HostName)
	if err := validation.Check(settings, model.ErrInvalidSettings); err != nil {
		return nil, "", err
	}

	code, err := r.ids.NewRoomCode(ctx, r.store.CodeExists)
	if err != nil {
		return nil, "", err
	}

	now := r.clock.Now()
	token := r.ids.NewClaimToken()
	host := model.Player{
		ID:         r.ids.NewPlayerID(),
		Name:       settings.HostName,
		IsHost:     true,
		IsOnline:   false,
		JoinedAt:   now,
		ClaimToken: token,
	}

	room := &model.Room{
		ID:            r.ids.NewRoomID(),
		Code:          code,
		Name:          settings.Name,
		MaxPlayers:    settings.MaxPlayers,
		MinigameCount: settings.MinigameCount,
		IsRandomGames: settings.IsRandomGames,
		Difficulty:    settings.Difficulty,
		IsActive:      true,
		Players:       []model.Player{host},
		HostID:        host.ID,
		State:         model.TriviaStateWaiting,
		CreatedAt:     now,
		LastActivity:  now,
	}

	if err := r.store.SaveRoom(ctx, room); err != nil {
		return nil, "", err
	}
	r.presence.bindPlayer(room.ID, host.ID)

	r.logger.Info("room created",
		slog.String("room_id", string(room.ID)),
		slog.String("code", string(room.Code)),
		slog.Int("max_players", room.MaxPlayers),
	)
	return room, token, nil
}

// GetRoomByCode looks a room up case-insensitively. A missing room is (nil, nil).
func (r *Registry) GetRoomByCode(ctx context.Context, code string) (*model.Room, error) {
	room, err := r.store.GetRoomByCode(ctx, identity.NormalizeCode(code))
	if errors.Is(err, model.ErrRoomNotFound) {
		return nil, nil
	}
	return room, err
}

// GetRoomByID looks a room up by internal id. A missing room is (nil, nil).
func (r *Registry) GetRoomByID(ctx context.Context, id model.RoomID) (*model.Room, error) {
	room, err := r.store.GetRoom(ctx, id)
	if errors.Is(err, model.ErrRoomNotFound) {
		return nil, nil
	}
	return room, err
}

// ListActiveRooms returns active rooms, oldest first
func (r *Registry) ListActiveRooms(ctx context.Context) ([]*model.Room, error) {
	rooms, err := r.store.ListRooms(ctx)
	if err != nil {
		return nil, err
	}
	return lo.Filter(rooms, func(room *model.Room, _ int) bool { return room.IsActive }), nil
}

// SaveRoom persists a room modified by another service
func (r *Registry) SaveRoom(ctx context.Context, room *model.Room) error {
	return r.store.SaveRoom(ctx, room)
}

// AddPlayerToRoom attaches a connection to a room. A matching claim token
// rehydrates an existing player; otherwise a new player is appended.
// A missing room is reported as a nil result with no error.
func (r *Registry) AddPlayerToRoom(ctx context.Context, req JoinRequest) (*JoinResult, error) {
	room, err := r.GetRoomByCode(ctx, req.Code)
	if err != nil || room == nil {
		return nil, err
	}

	claimed := r.findClaimable(room, req.ClaimToken)
	if err := admit(room, claimed); err != nil {
		return nil, err
	}

	now := r.clock.Now()
	result := &JoinResult{Room: room}

	if claimed != nil {
		if claimed.ConnectionID != "" && claimed.ConnectionID != req.ConnectionID {
			result.Replaced = claimed.ConnectionID
			r.presence.unbindConnection(claimed.ConnectionID)
		}
		claimed.ConnectionID = req.ConnectionID
		claimed.IsOnline = true
		claimed.IsTV = req.IsTV
		claimed.HasConnected = true
		result.Player = claimed
		result.Reclaimed = true
	} else {
		room.Players = append(room.Players, model.Player{
			ID:           r.ids.NewPlayerID(),
			Name:         strings.TrimSpace(req.Name),
			IsSpectator:  req.IsSpectator,
			IsTV:         req.IsTV,
			ConnectionID: req.ConnectionID,
			IsOnline:     true,
			JoinedAt:     now,
			HasConnected: true,
			ClaimToken:   r.ids.NewClaimToken(),
		})
		result.Player = &room.Players[len(room.Players)-1]
	}

	// A host who dropped while alone hands over to the first online player.
	// The placeholder nobody has claimed yet keeps the role.
	if host := room.GetHost(); host != nil && !host.IsOnline && host.HasConnected {
		r.ensureOnlineHost(room)
	}
	room.LastActivity = now

	if err := r.store.SaveRoom(ctx, room); err != nil {
		return nil, err
	}
	r.presence.bindConnection(req.ConnectionID, room.ID, result.Player.ID)

	r.logger.Info("player joined room",
		slog.String("room_id", string(room.ID)),
		slog.String("player_id", string(result.Player.ID)),
		slog.Bool("reclaimed", result.Reclaimed),
		slog.Int("current_players", room.CurrentPlayers()),
	)
	return result, nil
}

// CheckJoin reports whether AddPlayerToRoom would accept req, without
// changing anything. A missing room is ErrRoomNotFound.
func (r *Registry) CheckJoin(ctx context.Context, req JoinRequest) error {
	room, err := r.GetRoomByCode(ctx, req.Code)
	if err != nil {
		return err
	}
	if room == nil {
		return model.ErrRoomNotFound
	}
	return admit(room, r.findClaimable(room, req.ClaimToken))
}

// admit applies the capacity rule: only online players count, and taking
// over a player who is already online adds nobody.
func admit(room *model.Room, claimed *model.Player) error {
	if claimed != nil && claimed.IsOnline {
		return nil
	}
	if room.CurrentPlayers() >= room.MaxPlayers {
		return model.ErrRoomFull
	}
	return nil
}

func (r *Registry) findClaimable(room *model.Room, token model.ClaimToken) *model.Player {
	if token == "" {
		return nil
	}
	for i := range room.Players {
		if room.Players[i].ClaimToken == token {
			return &room.Players[i]
		}
	}
	return nil
}

// RemovePlayerFromRoom removes a player for good. The next player in join
// order inherits the host role; an emptied room is deleted with its code.
func (r *Registry) RemovePlayerFromRoom(ctx context.Context, playerID model.PlayerID) (*LeaveResult, error) {
	roomID, ok := r.presence.RoomOf(playerID)
	if !ok {
		return nil, model.ErrNotInRoom
	}
	room, err := r.GetRoomByID(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if room == nil {
		r.presence.unbindRoom(roomID)
		return nil, model.ErrRoomNotFound
	}

	idx := lo.IndexOf(lo.Map(room.Players, func(p model.Player, _ int) model.PlayerID { return p.ID }), playerID)
	if idx < 0 {
		r.presence.unbindPlayer(playerID)
		return nil, model.ErrPlayerNotFound
	}

	removed := room.Players[idx]
	room.Players = append(room.Players[:idx], room.Players[idx+1:]...)
	r.presence.unbindPlayer(playerID)

	result := &LeaveResult{RoomID: room.ID, Player: removed}

	if len(room.Players) == 0 {
		if err := r.store.DeleteRoom(ctx, room.ID); err != nil {
			return nil, err
		}
		r.presence.unbindRoom(room.ID)
		result.RoomDeleted = true
		r.logger.Info("room deleted",
			slog.String("room_id", string(room.ID)),
			slog.String("code", string(room.Code)),
			slog.String("reason", "empty"),
		)
		return result, nil
	}

	if removed.IsHost {
		// The player who followed the host in join order takes over
		room.SetHost(room.Players[min(idx, len(room.Players)-1)].ID)
		result.HostChanged = true
	}

	room.LastActivity = r.clock.Now()
	if err := r.store.SaveRoom(ctx, room); err != nil {
		return nil, err
	}
	result.Room = room

	r.logger.Info("player left room",
		slog.String("room_id", string(room.ID)),
		slog.String("player_id", string(playerID)),
		slog.Bool("host_changed", result.HostChanged),
	)
	return result, nil
}

// SetPlayerOffline marks the player on a connection as disconnected
// without removing them. Returns nil when the connection is unknown.
func (r *Registry) SetPlayerOffline(ctx context.Context, conn model.ConnectionID) (*model.Room, *model.Player, error) {
	binding, ok := r.presence.Lookup(conn)
	if !ok {
		return nil, nil, nil
	}
	r.presence.unbindConnection(conn)

	room, err := r.GetRoomByID(ctx, binding.RoomID)
	if err != nil || room == nil {
		return nil, nil, err
	}
	player := room.GetPlayerByConnection(conn)
	if player == nil {
		return nil, nil, nil
	}

	player.IsOnline = false
	player.ConnectionID = ""
	if player.IsHost {
		r.ensureOnlineHost(room)
	}
	room.LastActivity = r.clock.Now()

	if err := r.store.SaveRoom(ctx, room); err != nil {
		return nil, nil, err
	}

	r.logger.Info("player went offline",
		slog.String("room_id", string(room.ID)),
		slog.String("player_id", string(player.ID)),
		slog.Int("current_players", room.CurrentPlayers()),
	)
	return room, player, nil
}

// ensureOnlineHost hands the host role to the first online player when
// the current host is offline and someone else is connected.
func (r *Registry) ensureOnlineHost(room *model.Room) {
	host := room.GetHost()
	if host != nil && host.IsOnline {
		return
	}
	if online, found := lo.Find(room.Players, func(p model.Player) bool { return p.IsOnline }); found {
		room.SetHost(online.ID)
	}
}

// StartGame flags the room's game as started. Only the host may do this.
func (r *Registry) StartGame(ctx context.Context, roomID model.RoomID, requestingPlayer model.PlayerID) (*model.Room, error) {
	room, err := r.GetRoomByID(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if room == nil {
		return nil, model.ErrRoomNotFound
	}

	host := room.GetHost()
	if host == nil || host.ID != requestingPlayer {
		return nil, model.ErrNotHost
	}

	room.GameStarted = true
	room.LastActivity = r.clock.Now()
	if err := r.store.SaveRoom(ctx, room); err != nil {
		return nil, err
	}
	return room, nil
}

// CleanInactiveRooms deletes rooms with nobody online whose last activity
// is older than the retention window. Returns the ids of deleted rooms.
func (r *Registry) CleanInactiveRooms(ctx context.Context) ([]model.RoomID, error) {
	rooms, err := r.store.ListRooms(ctx)
	if err != nil {
		return nil, err
	}

	now := r.clock.Now()
	var deleted []model.RoomID
	for _, room := range rooms {
		if room.CurrentPlayers() > 0 || now.Sub(room.LastActivity) <= r.retention {
			continue
		}
		if err := r.store.DeleteRoom(ctx, room.ID); err != nil {
			return deleted, err
		}
		r.presence.unbindRoom(room.ID)
		deleted = append(deleted, room.ID)
	}

	if len(deleted) > 0 {
		r.logger.Info("inactive rooms cleaned", slog.Int("count", len(deleted)))
	}
	return deleted, nil
}
