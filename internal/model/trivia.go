package model

import "time"

// DefaultQuestionTimeLimit is the answer window for a question, in seconds
const DefaultQuestionTimeLimit = 30

// TriviaQuestion is a single multiple-choice question
type TriviaQuestion struct {
	ID            string   `json:"id"`
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correctAnswer"`
	Category      string   `json:"category"`
	Difficulty    string   `json:"difficulty"`
	TimeLimit     int      `json:"timeLimit"` // seconds
}

// Public returns the question without its correct answer
func (q TriviaQuestion) Public() QuestionView {
	return QuestionView{
		ID:         q.ID,
		Question:   q.Question,
		Options:    q.Options,
		Category:   q.Category,
		Difficulty: q.Difficulty,
		TimeLimit:  q.TimeLimit,
	}
}

// QuestionView is the client-facing shape of an active question
type QuestionView struct {
	ID         string   `json:"id"`
	Question   string   `json:"question"`
	Options    []string `json:"options"`
	Category   string   `json:"category"`
	Difficulty string   `json:"difficulty"`
	TimeLimit  int      `json:"timeLimit"`
}

// PlayerScore is a running tally for one player within a trivia session
type PlayerScore struct {
	PlayerID       PlayerID `json:"playerId"`
	PlayerName     string   `json:"playerName"`
	Score          int      `json:"score"`
	CorrectAnswers int      `json:"correctAnswers"`
	TotalAnswers   int      `json:"totalAnswers"`
	AverageTime    float64  `json:"averageTime"`
	LastAnswerTime float64  `json:"lastAnswerTime"`
}

// Answer is a submitted answer for the question in flight
type Answer struct {
	PlayerID       PlayerID  `json:"playerId"`
	QuestionID     string    `json:"questionId"`
	SelectedAnswer string    `json:"selectedAnswer"`
	TimeUsed       float64   `json:"timeUsed"`
	IsCorrect      bool      `json:"isCorrect"`
	Points         int       `json:"points"`
	SubmittedAt    time.Time `json:"submittedAt"`
}

// AnswerSubmission is what a player sends when answering
type AnswerSubmission struct {
	QuestionID     string  `json:"questionId" validate:"required"`
	SelectedAnswer string  `json:"selectedAnswer" validate:"required"`
	TimeUsed       float64 `json:"timeUsed" validate:"gte=0"`
}

// TriviaSession holds everything scoped to one run of the trivia game
type TriviaSession struct {
	Questions         []TriviaQuestion          `json:"questions"`
	CurrentIndex      int                       `json:"currentIndex"`
	QuestionStartTime time.Time                 `json:"questionStartTime"`
	Answers           map[PlayerID]Answer       `json:"answers"`
	Scores            map[PlayerID]*PlayerScore `json:"scores"`
}

// CurrentQuestion returns the question in flight, or nil
func (s *TriviaSession) CurrentQuestion() *TriviaQuestion {
	if s == nil || s.CurrentIndex < 0 || s.CurrentIndex >= len(s.Questions) {
		return nil
	}
	return &s.Questions[s.CurrentIndex]
}

// IsLastQuestion reports whether the current question is the final one
func (s *TriviaSession) IsLastQuestion() bool {
	return s.CurrentIndex >= len(s.Questions)-1
}
