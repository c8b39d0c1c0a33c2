package redis

import (
	"fmt"

	"github.com/mcoot/partyrooms/internal/model"
)

// Key prefix for all room data
const keyPrefix = "party"

// roomKey returns the Redis key for a Room
func roomKey(id model.RoomID) string {
	return fmt.Sprintf("%s:room:%s", keyPrefix, id)
}

// codeIndexKey returns the Redis key for the code -> room_id index
func codeIndexKey(code model.RoomCode) string {
	return fmt.Sprintf("%s:idx:code:%s", keyPrefix, code)
}

// roomsIndexKey returns the Redis key for the SET of live room ids
func roomsIndexKey() string {
	return fmt.Sprintf("%s:idx:rooms", keyPrefix)
}
