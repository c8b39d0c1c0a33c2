package request

import "github.com/mcoot/partyrooms/internal/model"

// CreateRoomRequest is the request body for creating a room.
// Zero values fall back to the room defaults.
type CreateRoomRequest struct {
	Name          string `json:"name"`
	HostName      string `json:"hostName"`
	MaxPlayers    int    `json:"maxPlayers,omitempty"`
	MinigameCount int    `json:"minigameCount,omitempty"`
	IsRandomGames bool   `json:"isRandomGames"`
	Difficulty    string `json:"difficulty,omitempty"`
}

// Settings converts the request to room settings
func (r CreateRoomRequest) Settings() model.RoomSettings {
	settings := model.DefaultRoomSettings()
	settings.Name = r.Name
	settings.HostName = r.HostName
	settings.IsRandomGames = r.IsRandomGames
	settings.Difficulty = r.Difficulty
	if r.MaxPlayers != 0 {
		settings.MaxPlayers = r.MaxPlayers
	}
	if r.MinigameCount != 0 {
		settings.MinigameCount = r.MinigameCount
	}
	return settings
}
