package model

import "time"

// PlayerID uniquely identifies a player across the system
type PlayerID string

// ConnectionID identifies a live socket connection
type ConnectionID string

// ClaimToken is the secret a client presents to reclaim an offline player
type ClaimToken string

// Player represents a room participant
type Player struct {
	ID           PlayerID     `json:"id"`
	Name         string       `json:"name"`
	IsHost       bool         `json:"isHost"`
	IsSpectator  bool         `json:"isSpectator"`
	IsTV         bool         `json:"isTV"`
	ConnectionID ConnectionID `json:"connectionId,omitempty"` // empty while offline
	IsOnline     bool         `json:"isOnline"`
	JoinedAt     time.Time    `json:"joinedAt"`
	// HasConnected is set once any socket has held this player
	HasConnected bool `json:"hasConnected,omitempty"`

	// ClaimToken is persisted but stripped from anything sent to other clients
	ClaimToken ClaimToken `json:"claimToken,omitempty"`
}

// IsScored reports whether the player competes in trivia rounds
func (p *Player) IsScored() bool {
	return !p.IsSpectator && !p.IsTV
}

// Public returns a copy of the player safe to broadcast
func (p Player) Public() Player {
	p.ClaimToken = ""
	p.ConnectionID = ""
	return p
}
