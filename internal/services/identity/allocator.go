package identity

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/mcoot/partyrooms/internal/dependencies/random"
	"github.com/mcoot/partyrooms/internal/model"
)

const (
	// RoomCodeLength is the length of generated room codes
	RoomCodeLength = 6
	// RoomCodeAlphabet is the characters used in room codes (avoid confusing chars)
	RoomCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

	maxCodeAttempts = 100
)

// CodeExistsFunc reports whether a code is held by a live room
type CodeExistsFunc func(ctx context.Context, code model.RoomCode) (bool, error)

// Allocator hands out player ids, room ids, room codes and claim tokens
type Allocator struct {
	random random.Random
}

// New creates a new Allocator
func New(random random.Random) *Allocator {
	return &Allocator{random: random}
}

// NewPlayerID returns a fresh player identifier
func (a *Allocator) NewPlayerID() model.PlayerID {
	return model.PlayerID(uuid.NewString())
}

// NewRoomID returns a fresh internal room identifier
func (a *Allocator) NewRoomID() model.RoomID {
	return model.RoomID(uuid.NewString())
}

// NewConnectionID returns a fresh socket connection identifier
func (a *Allocator) NewConnectionID() model.ConnectionID {
	return model.ConnectionID(uuid.NewString())
}

// NewClaimToken returns an opaque token for reclaiming a player identity
func (a *Allocator) NewClaimToken() model.ClaimToken {
	return model.ClaimToken(strings.ReplaceAll(uuid.NewString(), "-", ""))
}

// NewRoomCode generates a code not currently held by any live room
func (a *Allocator) NewRoomCode(ctx context.Context, exists CodeExistsFunc) (model.RoomCode, error) {
	for range maxCodeAttempts {
		code := model.RoomCode(a.random.String(RoomCodeLength, RoomCodeAlphabet))
		if len(code) != RoomCodeLength {
			continue
		}
		taken, err := exists(ctx, code)
		if err != nil {
			return "", err
		}
		if !taken {
			return code, nil
		}
	}
	return "", model.ErrCodeSpaceExhausted
}

// NormalizeCode upper-cases and trims a user-supplied room code
func NormalizeCode(code string) model.RoomCode {
	return model.RoomCode(strings.ToUpper(strings.TrimSpace(code)))
}
