package response

import (
	"github.com/samber/lo"

	"github.com/mcoot/partyrooms/internal/model"
)

// CreateRoomResponse returns the new room and the host's claim token.
// The token is only ever shown to the creator.
type CreateRoomResponse struct {
	Room       model.RoomView   `json:"room"`
	ClaimToken model.ClaimToken `json:"claimToken"`
}

// RoomSummary is the row shown in room listings
type RoomSummary struct {
	Code           model.RoomCode    `json:"code"`
	Name           string            `json:"name"`
	CurrentPlayers int               `json:"currentPlayers"`
	MaxPlayers     int               `json:"maxPlayers"`
	State          model.TriviaState `json:"triviaState"`
	GameStarted    bool              `json:"gameStarted"`
}

// RoomListResponse is the response for listing rooms
type RoomListResponse struct {
	Rooms []RoomSummary `json:"rooms"`
}

// RoomListFromViews summarises rooms for listing
func RoomListFromViews(views []model.RoomView) RoomListResponse {
	return RoomListResponse{
		Rooms: lo.Map(views, func(v model.RoomView, _ int) RoomSummary {
			return RoomSummary{
				Code:           v.Code,
				Name:           v.Name,
				CurrentPlayers: v.CurrentPlayers,
				MaxPlayers:     v.MaxPlayers,
				State:          v.State,
				GameStarted:    v.GameStarted,
			}
		}),
	}
}

// HealthResponse is the response for the health check
type HealthResponse struct {
	Status      string `json:"status"`
	Storage     string `json:"storage"`
	Connections int    `json:"connections"`
}
