package room

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPresenceBindAndLookup(t *testing.T) {
	p := NewPresence()
	p.bindConnection("c1", "room-1", "p1")

	b, ok := p.Lookup("c1")
	assert.True(t, ok)
	assert.Equal(t, Binding{RoomID: "room-1", PlayerID: "p1"}, b)

	roomID, ok := p.RoomOf("p1")
	assert.True(t, ok)
	assert.Equal(t, "room-1", string(roomID))
	assert.Equal(t, 1, p.Connections())
}

func TestPresenceUnbindConnectionKeepsPlayer(t *testing.T) {
	p := NewPresence()
	p.bindConnection("c1", "room-1", "p1")
	p.unbindConnection("c1")

	_, ok := p.Lookup("c1")
	assert.False(t, ok)
	_, ok = p.RoomOf("p1")
	assert.True(t, ok)
}

func TestPresenceUnbindPlayerDropsConnections(t *testing.T) {
	p := NewPresence()
	p.bindConnection("c1", "room-1", "p1")
	p.bindConnection("c2", "room-1", "p2")
	p.unbindPlayer("p1")

	_, ok := p.Lookup("c1")
	assert.False(t, ok)
	_, ok = p.Lookup("c2")
	assert.True(t, ok)
}

func TestPresenceUnbindRoom(t *testing.T) {
	p := NewPresence()
	p.bindConnection("c1", "room-1", "p1")
	p.bindPlayer("room-1", "p2")
	p.bindConnection("c3", "room-2", "p3")
	p.unbindRoom("room-1")

	_, ok := p.Lookup("c1")
	assert.False(t, ok)
	_, ok = p.RoomOf("p2")
	assert.False(t, ok)
	_, ok = p.Lookup("c3")
	assert.True(t, ok)
}
