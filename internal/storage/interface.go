package storage

import (
	"context"

	"github.com/mcoot/partyrooms/internal/model"
)

// RoomStore defines persistence for live rooms, indexed by id and by code
type RoomStore interface {
	SaveRoom(ctx context.Context, room *model.Room) error
	GetRoom(ctx context.Context, id model.RoomID) (*model.Room, error)
	GetRoomByCode(ctx context.Context, code model.RoomCode) (*model.Room, error)
	DeleteRoom(ctx context.Context, id model.RoomID) error
	ListRooms(ctx context.Context) ([]*model.Room, error)
	CodeExists(ctx context.Context, code model.RoomCode) (bool, error)
}
