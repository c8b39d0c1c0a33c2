package gateway

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mcoot/partyrooms/internal/model"
	"github.com/mcoot/partyrooms/internal/validation"
)

// DecodeCommand parses and validates an inbound wire message
func DecodeCommand(data []byte) (model.Command, error) {
	var env model.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return model.Command{}, fmt.Errorf("%w: %v", model.ErrInvalidPayload, err)
	}

	cmd := model.Command{Type: env.Type}
	switch env.Type {
	case model.CommandJoinRoom:
		var p model.JoinRoomCommand
		if err := decodePayload(env.Payload, &p); err != nil {
			return model.Command{}, err
		}
		p.RoomCode = strings.TrimSpace(p.RoomCode)
		p.PlayerName = strings.TrimSpace(p.PlayerName)
		if err := validation.Check(p, model.ErrInvalidPayload); err != nil {
			return model.Command{}, err
		}
		cmd.JoinRoom = &p
	case model.CommandSubmitAnswer:
		var p model.AnswerSubmission
		if err := decodePayload(env.Payload, &p); err != nil {
			return model.Command{}, err
		}
		if err := validation.Check(p, model.ErrInvalidPayload); err != nil {
			return model.Command{}, err
		}
		cmd.SubmitAnswer = &p
	case model.CommandLeaveRoom, model.CommandStartGame, model.CommandStartTrivia, model.CommandNextQuestion:
	default:
		return model.Command{}, fmt.Errorf("%w: %q", model.ErrUnknownCommand, env.Type)
	}
	return cmd, nil
}

func decodePayload(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return fmt.Errorf("%w: missing payload", model.ErrInvalidPayload)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: %v", model.ErrInvalidPayload, err)
	}
	return nil
}
