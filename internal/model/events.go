package model

// EventType identifies an outbound notification
type EventType string

const (
	// Room events
	EventRoomJoined   EventType = "room-joined"
	EventRoomNotFound EventType = "room-not-found"
	EventRoomFull     EventType = "room-full"
	EventPlayerJoined EventType = "player-joined"
	EventPlayerLeft   EventType = "player-left"
	EventRoomUpdated  EventType = "room-updated"
	EventGameStarted  EventType = "game-started"

	// Trivia events
	EventTriviaStarted  EventType = "trivia-started"
	EventQuestionSent   EventType = "question-sent"
	EventAnswerReceived EventType = "answer-received"
	EventPlayerAnswered EventType = "player-answered"
	EventQuestionEnded  EventType = "question-ended"
	EventTriviaEnded    EventType = "trivia-ended"

	EventError EventType = "error"
)

// Event is an outbound message with its type-specific payload
type Event struct {
	Type    EventType `json:"type"`
	Payload any       `json:"payload"`
}

// RoomJoinedPayload is sent to the joining client only
type RoomJoinedPayload struct {
	Room       RoomView   `json:"room"`
	Player     Player     `json:"player"`
	ClaimToken ClaimToken `json:"claimToken"`
}

// PlayerJoinedPayload contains data for player joined events
type PlayerJoinedPayload struct {
	Player Player `json:"player"`
}

// PlayerLeftPayload contains data for player left events
type PlayerLeftPayload struct {
	PlayerID PlayerID `json:"playerId"`
}

// RoomPayload carries a room snapshot for room-updated, game-started and trivia-started
type RoomPayload struct {
	Room RoomView `json:"room"`
}

// QuestionSentPayload contains the question without its answer
type QuestionSentPayload struct {
	Question      QuestionView `json:"question"`
	TimeLimit     int          `json:"timeLimit"`
	QuestionIndex int          `json:"questionIndex"`
	TotalCount    int          `json:"totalQuestions"`
}

// AnswerReceivedPayload confirms an answer to its sender
type AnswerReceivedPayload struct {
	PlayerID  PlayerID `json:"playerId"`
	IsCorrect bool     `json:"isCorrect"`
	TimeUsed  float64  `json:"timeUsed"`
	Points    int      `json:"points"`
}

// PlayerAnsweredPayload tells the rest of the room someone answered
type PlayerAnsweredPayload struct {
	PlayerID PlayerID `json:"playerId"`
}

// QuestionEndedPayload reveals the answer and the standings
type QuestionEndedPayload struct {
	CorrectAnswer string        `json:"correctAnswer"`
	Ranking       []PlayerScore `json:"ranking"`
}

// TriviaEndedPayload contains the final standings
type TriviaEndedPayload struct {
	FinalScores []PlayerScore `json:"finalScores"`
	Winner      *Player       `json:"winner"`
}

// ErrorPayload carries a caller-scoped error message
type ErrorPayload struct {
	Message string `json:"message"`
}

// NewEvent builds an event with the given payload
func NewEvent(t EventType, payload any) Event {
	if payload == nil {
		payload = struct{}{}
	}
	return Event{Type: t, Payload: payload}
}
