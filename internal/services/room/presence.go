package room

import (
	"sync"

	"github.com/mcoot/partyrooms/internal/model"
)

// Binding is what a live connection resolves to
type Binding struct {
	RoomID   model.RoomID
	PlayerID model.PlayerID
}

// Presence indexes connections and players to the room they belong to.
// The registry keeps it in step with every membership change.
type Presence struct {
	mu       sync.RWMutex
	byConn   map[model.ConnectionID]Binding
	byPlayer map[model.PlayerID]model.RoomID
}

// NewPresence creates an empty Presence index
func NewPresence() *Presence {
	return &Presence{
		byConn:   make(map[model.ConnectionID]Binding),
		byPlayer: make(map[model.PlayerID]model.RoomID),
	}
}

// Lookup resolves a connection to its room and player
func (p *Presence) Lookup(conn model.ConnectionID) (Binding, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	b, ok := p.byConn[conn]
	return b, ok
}

// RoomOf returns the room a player belongs to, online or not
func (p *Presence) RoomOf(playerID model.PlayerID) (model.RoomID, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	id, ok := p.byPlayer[playerID]
	return id, ok
}

// Connections returns the number of bound connections
func (p *Presence) Connections() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.byConn)
}

func (p *Presence) bindPlayer(roomID model.RoomID, playerID model.PlayerID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.byPlayer[playerID] = roomID
}

func (p *Presence) bindConnection(conn model.ConnectionID, roomID model.RoomID, playerID model.PlayerID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.byConn[conn] = Binding{RoomID: roomID, PlayerID: playerID}
	p.byPlayer[playerID] = roomID
}

func (p *Presence) unbindConnection(conn model.ConnectionID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.byConn, conn)
}

func (p *Presence) unbindPlayer(playerID model.PlayerID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.byPlayer, playerID)
	for conn, b := range p.byConn {
		if b.PlayerID == playerID {
			delete(p.byConn, conn)
		}
	}
}

func (p *Presence) unbindRoom(roomID model.RoomID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for conn, b := range p.byConn {
		if b.RoomID == roomID {
			delete(p.byConn, conn)
		}
	}
	for player, id := range p.byPlayer {
		if id == roomID {
			delete(p.byPlayer, player)
		}
	}
}
