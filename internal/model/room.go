package model

import (
	"time"

	"github.com/samber/lo"
)

// RoomID is the internal identifier of a room
type RoomID string

// RoomCode is a human-readable identifier for joining rooms
type RoomCode string

// TriviaState represents where a room is in the trivia round cycle
type TriviaState string

const (
	TriviaStateWaiting        TriviaState = "waiting"         // No trivia session
	TriviaStateActive         TriviaState = "trivia_active"   // Session started, questions loading
	TriviaStateQuestionActive TriviaState = "question_active" // Collecting answers
	TriviaStateQuestionEnded  TriviaState = "question_ended"  // Results shown, waiting to advance
	TriviaStateEnded          TriviaState = "trivia_ended"    // Last question done
)

// Difficulty levels accepted by the question provider
const (
	DifficultyAny    = ""
	DifficultyEasy   = "easy"
	DifficultyMedium = "medium"
	DifficultyHard   = "hard"
)

// RoomSettings holds the host-supplied parameters for a new room
type RoomSettings struct {
	Name          string `json:"name" validate:"required,min=1,max=50"`
	HostName      string `json:"hostName" validate:"required,min=1,max=30"`
	MaxPlayers    int    `json:"maxPlayers" validate:"min=2,max=20"`
	MinigameCount int    `json:"minigameCount" validate:"min=1,max=50"`
	IsRandomGames bool   `json:"isRandomGames"`
	Difficulty    string `json:"difficulty,omitempty" validate:"omitempty,oneof=easy medium hard"`
}

// DefaultRoomSettings returns settings used when the creator omits values
func DefaultRoomSettings() RoomSettings {
	return RoomSettings{
		MaxPlayers:    8,
		MinigameCount: 5,
	}
}

// Room represents a party session that players join by code
type Room struct {
	ID            RoomID    `json:"id"`
	Code          RoomCode  `json:"code"`
	Name          string    `json:"name"`
	MaxPlayers    int       `json:"maxPlayers"`
	MinigameCount int       `json:"minigameCount"`
	IsRandomGames bool      `json:"isRandomGames"`
	Difficulty    string    `json:"difficulty,omitempty"`
	IsActive      bool      `json:"isActive"`
	GameStarted   bool      `json:"gameStarted"`
	Players       []Player  `json:"players"` // join order
	HostID        PlayerID  `json:"hostId"`
	CreatedAt     time.Time `json:"createdAt"`
	LastActivity  time.Time `json:"lastActivity"`

	State  TriviaState    `json:"triviaState"`
	Trivia *TriviaSession `json:"trivia,omitempty"` // nil while waiting
}

// GetHost returns the current host, or nil if none
func (r *Room) GetHost() *Player {
	for i := range r.Players {
		if r.Players[i].IsHost {
			return &r.Players[i]
		}
	}
	return nil
}

// GetPlayer returns the player with the given ID, or nil if not found
func (r *Room) GetPlayer(id PlayerID) *Player {
	for i := range r.Players {
		if r.Players[i].ID == id {
			return &r.Players[i]
		}
	}
	return nil
}

// GetPlayerByConnection returns the player attached to a connection, or nil
func (r *Room) GetPlayerByConnection(conn ConnectionID) *Player {
	if conn == "" {
		return nil
	}
	for i := range r.Players {
		if r.Players[i].ConnectionID == conn {
			return &r.Players[i]
		}
	}
	return nil
}

// CurrentPlayers returns the number of online players
func (r *Room) CurrentPlayers() int {
	return lo.CountBy(r.Players, func(p Player) bool { return p.IsOnline })
}

// ScoredPlayers returns online players that compete in trivia
func (r *Room) ScoredPlayers() []Player {
	return lo.Filter(r.Players, func(p Player, _ int) bool {
		return p.IsOnline && p.IsScored()
	})
}

// SetHost makes the given player the sole host
func (r *Room) SetHost(id PlayerID) {
	for i := range r.Players {
		r.Players[i].IsHost = r.Players[i].ID == id
	}
	r.HostID = id
}

// Public returns a deep enough copy of the room for broadcasting:
// claim tokens and connection ids are stripped and the trivia session is omitted.
func (r *Room) Public() RoomView {
	return RoomView{
		ID:             r.ID,
		Code:           r.Code,
		Name:           r.Name,
		MaxPlayers:     r.MaxPlayers,
		MinigameCount:  r.MinigameCount,
		IsRandomGames:  r.IsRandomGames,
		Difficulty:     r.Difficulty,
		IsActive:       r.IsActive,
		GameStarted:    r.GameStarted,
		Players:        lo.Map(r.Players, func(p Player, _ int) Player { return p.Public() }),
		HostID:         r.HostID,
		CurrentPlayers: r.CurrentPlayers(),
		State:          r.State,
		CreatedAt:      r.CreatedAt,
		LastActivity:   r.LastActivity,
	}
}

// RoomView is the serialized shape of a room sent to clients
type RoomView struct {
	ID             RoomID      `json:"id"`
	Code           RoomCode    `json:"code"`
	Name           string      `json:"name"`
	MaxPlayers     int         `json:"maxPlayers"`
	MinigameCount  int         `json:"minigameCount"`
	IsRandomGames  bool        `json:"isRandomGames"`
	Difficulty     string      `json:"difficulty,omitempty"`
	IsActive       bool        `json:"isActive"`
	GameStarted    bool        `json:"gameStarted"`
	Players        []Player    `json:"players"`
	HostID         PlayerID    `json:"hostId"`
	CurrentPlayers int         `json:"currentPlayers"`
	State          TriviaState `json:"triviaState"`
	CreatedAt      time.Time   `json:"createdAt"`
	LastActivity   time.Time   `json:"lastActivity"`
}
