package model

import "encoding/json"

// CommandType identifies an inbound client command
type CommandType string

const (
	CommandJoinRoom     CommandType = "join-room"
	CommandLeaveRoom    CommandType = "leave-room"
	CommandStartGame    CommandType = "start-game"
	CommandStartTrivia  CommandType = "start-trivia"
	CommandSubmitAnswer CommandType = "submit-answer"
	CommandNextQuestion CommandType = "next-question"
)

// Envelope is the wire form of an inbound command
type Envelope struct {
	Type    CommandType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// JoinRoomCommand asks to join a room by code
type JoinRoomCommand struct {
	RoomCode    string     `json:"roomCode" validate:"required,len=6,alphanum"`
	PlayerName  string     `json:"playerName" validate:"required,min=1,max=30"`
	IsSpectator bool       `json:"isSpectator"`
	IsTV        bool       `json:"isTV"`
	ClaimToken  ClaimToken `json:"claimToken,omitempty"`
}

// Command is a decoded inbound command with its typed payload
type Command struct {
	Type         CommandType
	JoinRoom     *JoinRoomCommand
	SubmitAnswer *AnswerSubmission
}
